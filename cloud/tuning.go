package cloud

import (
	"context"
	"log/slog"
	"strconv"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sagemaker"
	"github.com/aws/aws-sdk-go-v2/service/sagemaker/types"

	"github.com/mlopsbox/dmpipe/pkg/errors"
	"github.com/mlopsbox/dmpipe/pkg/log"
)

// tuningAPI covers the tuning-service calls Tuner uses.
type tuningAPI interface {
	CreateHyperParameterTuningJob(ctx context.Context, input *sagemaker.CreateHyperParameterTuningJobInput, opts ...func(*sagemaker.Options)) (*sagemaker.CreateHyperParameterTuningJobOutput, error)
	DescribeHyperParameterTuningJob(ctx context.Context, input *sagemaker.DescribeHyperParameterTuningJobInput, opts ...func(*sagemaker.Options)) (*sagemaker.DescribeHyperParameterTuningJobOutput, error)
}

// ContinuousRange is a floating-point hyperparameter search interval.
type ContinuousRange struct {
	Name string
	Min  float64
	Max  float64
}

// IntegerRange is an integer hyperparameter search interval.
type IntegerRange struct {
	Name string
	Min  int
	Max  int
}

// TuningSpec describes one hyperparameter search. Static hyperparameters
// and data channels come from the embedded training spec; the ranges
// replace the tuned keys. The search algorithm itself is the platform's.
type TuningSpec struct {
	Training         TrainingSpec
	ObjectiveMetric  string
	MaxJobs          int32
	MaxParallelJobs  int32
	ContinuousRanges []ContinuousRange
	IntegerRanges    []IntegerRange
}

// TuningResult reports the best trial of a completed search.
type TuningResult struct {
	JobName              string
	BestTrainingJob      string
	BestObjective        float64
	TunedHyperparameters map[string]string
}

// Tuner submits tuning jobs and waits for the search to finish.
type Tuner struct {
	api    tuningAPI
	poll   time.Duration
	logger *slog.Logger
}

// NewTuner creates a Tuner over the SageMaker client.
func NewTuner(api tuningAPI) *Tuner {
	return &Tuner{
		api:    api,
		poll:   defaultPollInterval,
		logger: slog.Default().With(log.PhaseKey, "tune"),
	}
}

// Run submits the search and blocks until the platform reports a terminal
// state, then returns the best trial by the objective metric.
func (t *Tuner) Run(ctx context.Context, spec TuningSpec) (*TuningResult, error) {
	jobName := uniqueName(spec.Training.BaseName + "-tuning")

	continuous := make([]types.ContinuousParameterRange, len(spec.ContinuousRanges))
	for i, r := range spec.ContinuousRanges {
		continuous[i] = types.ContinuousParameterRange{
			Name:     aws.String(r.Name),
			MinValue: aws.String(strconv.FormatFloat(r.Min, 'g', -1, 64)),
			MaxValue: aws.String(strconv.FormatFloat(r.Max, 'g', -1, 64)),
		}
	}
	integer := make([]types.IntegerParameterRange, len(spec.IntegerRanges))
	for i, r := range spec.IntegerRanges {
		integer[i] = types.IntegerParameterRange{
			Name:     aws.String(r.Name),
			MinValue: aws.String(strconv.Itoa(r.Min)),
			MaxValue: aws.String(strconv.Itoa(r.Max)),
		}
	}

	// Tuned keys must not also be pinned as static hyperparameters.
	static := make(map[string]string, len(spec.Training.Hyperparameters))
	for k, v := range spec.Training.Hyperparameters {
		static[k] = v
	}
	for _, r := range spec.ContinuousRanges {
		delete(static, r.Name)
	}
	for _, r := range spec.IntegerRanges {
		delete(static, r.Name)
	}

	_, err := t.api.CreateHyperParameterTuningJob(ctx, &sagemaker.CreateHyperParameterTuningJobInput{
		HyperParameterTuningJobName: aws.String(jobName),
		HyperParameterTuningJobConfig: &types.HyperParameterTuningJobConfig{
			Strategy: types.HyperParameterTuningJobStrategyTypeBayesian,
			HyperParameterTuningJobObjective: &types.HyperParameterTuningJobObjective{
				Type:       types.HyperParameterTuningJobObjectiveTypeMaximize,
				MetricName: aws.String(spec.ObjectiveMetric),
			},
			ResourceLimits: &types.ResourceLimits{
				MaxNumberOfTrainingJobs: aws.Int32(spec.MaxJobs),
				MaxParallelTrainingJobs: aws.Int32(spec.MaxParallelJobs),
			},
			ParameterRanges: &types.ParameterRanges{
				ContinuousParameterRanges: continuous,
				IntegerParameterRanges:    integer,
			},
		},
		TrainingJobDefinition: &types.HyperParameterTrainingJobDefinition{
			RoleArn:               aws.String(spec.Training.RoleARN),
			StaticHyperParameters: static,
			AlgorithmSpecification: &types.HyperParameterAlgorithmSpecification{
				TrainingImage:     aws.String(spec.Training.Image),
				TrainingInputMode: types.TrainingInputModeFile,
			},
			InputDataConfig: []types.Channel{
				csvChannel("train", spec.Training.TrainURI),
				csvChannel("validation", spec.Training.ValidationURI),
			},
			OutputDataConfig: &types.OutputDataConfig{
				S3OutputPath: aws.String(spec.Training.OutputURI),
			},
			ResourceConfig: &types.ResourceConfig{
				InstanceType:   types.TrainingInstanceType(spec.Training.InstanceType),
				InstanceCount:  aws.Int32(spec.Training.InstanceCount),
				VolumeSizeInGB: aws.Int32(spec.Training.VolumeSizeGB),
			},
			StoppingCondition: &types.StoppingCondition{
				MaxRuntimeInSeconds: aws.Int32(int32(spec.Training.MaxRuntime.Seconds())),
			},
		},
	})
	if err != nil {
		return nil, errors.Wrapf(err, "cloud: create tuning job %s", jobName)
	}
	t.logger.Info("tuning job submitted",
		log.JobNameKey, jobName,
		"max_jobs", spec.MaxJobs,
		"objective", spec.ObjectiveMetric,
	)

	out, err := t.wait(ctx, jobName)
	if err != nil {
		return nil, err
	}

	best := out.BestTrainingJob
	if best == nil {
		return nil, errors.NewJobError(jobName, string(out.HyperParameterTuningJobStatus), "no best training job reported")
	}
	result := &TuningResult{
		JobName:              jobName,
		BestTrainingJob:      aws.ToString(best.TrainingJobName),
		TunedHyperparameters: best.TunedHyperParameters,
	}
	if best.FinalHyperParameterTuningJobObjectiveMetric != nil {
		result.BestObjective = float64(aws.ToFloat32(best.FinalHyperParameterTuningJobObjectiveMetric.Value))
	}
	t.logger.Info("tuning job completed",
		log.JobNameKey, jobName,
		"best_training_job", result.BestTrainingJob,
		"best_objective", result.BestObjective,
	)
	return result, nil
}

func (t *Tuner) wait(ctx context.Context, jobName string) (*sagemaker.DescribeHyperParameterTuningJobOutput, error) {
	ticker := time.NewTicker(t.poll)
	defer ticker.Stop()

	for {
		out, err := t.api.DescribeHyperParameterTuningJob(ctx, &sagemaker.DescribeHyperParameterTuningJobInput{
			HyperParameterTuningJobName: aws.String(jobName),
		})
		if err != nil {
			return nil, errors.Wrapf(err, "cloud: describe tuning job %s", jobName)
		}

		status := out.HyperParameterTuningJobStatus
		switch status {
		case types.HyperParameterTuningJobStatusCompleted:
			return out, nil
		case types.HyperParameterTuningJobStatusFailed, types.HyperParameterTuningJobStatusStopped:
			return nil, errors.NewJobError(jobName, string(status), aws.ToString(out.FailureReason))
		}
		t.logger.Debug("tuning job in progress",
			log.JobNameKey, jobName,
			log.JobStatusKey, string(status),
		)

		select {
		case <-ctx.Done():
			return nil, errors.Wrapf(ctx.Err(), "cloud: waiting for tuning job %s", jobName)
		case <-ticker.C:
		}
	}
}
