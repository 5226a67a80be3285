package cloud

import (
	"context"
	"log/slog"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sagemaker"
	"github.com/aws/aws-sdk-go-v2/service/sagemaker/types"
	"github.com/google/uuid"

	"github.com/mlopsbox/dmpipe/pkg/errors"
	"github.com/mlopsbox/dmpipe/pkg/log"
)

// defaultPollInterval paces the Describe* calls while a job runs.
const defaultPollInterval = 30 * time.Second

// trainingAPI covers the training-service calls Trainer uses.
type trainingAPI interface {
	CreateTrainingJob(ctx context.Context, input *sagemaker.CreateTrainingJobInput, opts ...func(*sagemaker.Options)) (*sagemaker.CreateTrainingJobOutput, error)
	DescribeTrainingJob(ctx context.Context, input *sagemaker.DescribeTrainingJobInput, opts ...func(*sagemaker.Options)) (*sagemaker.DescribeTrainingJobOutput, error)
}

// TrainingSpec describes one managed training job. The algorithm container
// is opaque; the pipeline only wires data channels and hyperparameters.
type TrainingSpec struct {
	BaseName        string
	Image           string
	RoleARN         string
	InstanceType    string
	InstanceCount   int32
	VolumeSizeGB    int32
	MaxRuntime      time.Duration
	Hyperparameters map[string]string
	TrainURI        string
	ValidationURI   string
	OutputURI       string
}

// TrainingResult reports a completed training job.
type TrainingResult struct {
	JobName        string
	ModelArtifacts string
}

// Trainer submits training jobs and waits for their terminal state.
type Trainer struct {
	api    trainingAPI
	poll   time.Duration
	logger *slog.Logger
}

// NewTrainer creates a Trainer over the SageMaker client.
func NewTrainer(api trainingAPI) *Trainer {
	return &Trainer{
		api:    api,
		poll:   defaultPollInterval,
		logger: slog.Default().With(log.PhaseKey, "train"),
	}
}

// Run submits the job and blocks until it completes. A terminal Failed or
// Stopped status is returned as a JobError carrying the platform's
// failure reason.
func (t *Trainer) Run(ctx context.Context, spec TrainingSpec) (*TrainingResult, error) {
	jobName := uniqueName(spec.BaseName)

	_, err := t.api.CreateTrainingJob(ctx, &sagemaker.CreateTrainingJobInput{
		TrainingJobName: aws.String(jobName),
		RoleArn:         aws.String(spec.RoleARN),
		AlgorithmSpecification: &types.AlgorithmSpecification{
			TrainingImage:     aws.String(spec.Image),
			TrainingInputMode: types.TrainingInputModeFile,
		},
		HyperParameters: spec.Hyperparameters,
		InputDataConfig: []types.Channel{
			csvChannel("train", spec.TrainURI),
			csvChannel("validation", spec.ValidationURI),
		},
		OutputDataConfig: &types.OutputDataConfig{
			S3OutputPath: aws.String(spec.OutputURI),
		},
		ResourceConfig: &types.ResourceConfig{
			InstanceType:   types.TrainingInstanceType(spec.InstanceType),
			InstanceCount:  aws.Int32(spec.InstanceCount),
			VolumeSizeInGB: aws.Int32(spec.VolumeSizeGB),
		},
		StoppingCondition: &types.StoppingCondition{
			MaxRuntimeInSeconds: aws.Int32(int32(spec.MaxRuntime.Seconds())),
		},
	})
	if err != nil {
		return nil, errors.Wrapf(err, "cloud: create training job %s", jobName)
	}
	t.logger.Info("training job submitted", log.JobNameKey, jobName)

	out, err := t.wait(ctx, jobName)
	if err != nil {
		return nil, err
	}

	result := &TrainingResult{JobName: jobName}
	if out.ModelArtifacts != nil {
		result.ModelArtifacts = aws.ToString(out.ModelArtifacts.S3ModelArtifacts)
	}
	t.logger.Info("training job completed",
		log.JobNameKey, jobName,
		"model_artifacts", result.ModelArtifacts,
	)
	return result, nil
}

func (t *Trainer) wait(ctx context.Context, jobName string) (*sagemaker.DescribeTrainingJobOutput, error) {
	ticker := time.NewTicker(t.poll)
	defer ticker.Stop()

	for {
		out, err := t.api.DescribeTrainingJob(ctx, &sagemaker.DescribeTrainingJobInput{
			TrainingJobName: aws.String(jobName),
		})
		if err != nil {
			return nil, errors.Wrapf(err, "cloud: describe training job %s", jobName)
		}

		status := out.TrainingJobStatus
		switch status {
		case types.TrainingJobStatusCompleted:
			return out, nil
		case types.TrainingJobStatusFailed, types.TrainingJobStatusStopped:
			return nil, errors.NewJobError(jobName, string(status), aws.ToString(out.FailureReason))
		}
		t.logger.Debug("training job in progress",
			log.JobNameKey, jobName,
			log.JobStatusKey, string(status),
		)

		select {
		case <-ctx.Done():
			return nil, errors.Wrapf(ctx.Err(), "cloud: waiting for training job %s", jobName)
		case <-ticker.C:
		}
	}
}

func csvChannel(name, uri string) types.Channel {
	return types.Channel{
		ChannelName: aws.String(name),
		ContentType: aws.String("text/csv"),
		DataSource: &types.DataSource{
			S3DataSource: &types.S3DataSource{
				S3DataType:             types.S3DataTypeS3Prefix,
				S3Uri:                  aws.String(uri),
				S3DataDistributionType: types.S3DataDistributionFullyReplicated,
			},
		},
	}
}

// uniqueName suffixes a base name so repeated runs never collide on the
// platform's job-name uniqueness constraint.
func uniqueName(base string) string {
	return base + "-" + uuid.NewString()[:8]
}
