package cloud

import (
	"context"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sagemaker"
	"github.com/aws/aws-sdk-go-v2/service/sagemaker/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mlopsbox/dmpipe/pkg/errors"
)

type fakeTrainingAPI struct {
	created  *sagemaker.CreateTrainingJobInput
	statuses []types.TrainingJobStatus
	describe int
	reason   string
}

func (f *fakeTrainingAPI) CreateTrainingJob(ctx context.Context, input *sagemaker.CreateTrainingJobInput, opts ...func(*sagemaker.Options)) (*sagemaker.CreateTrainingJobOutput, error) {
	f.created = input
	return &sagemaker.CreateTrainingJobOutput{}, nil
}

func (f *fakeTrainingAPI) DescribeTrainingJob(ctx context.Context, input *sagemaker.DescribeTrainingJobInput, opts ...func(*sagemaker.Options)) (*sagemaker.DescribeTrainingJobOutput, error) {
	status := f.statuses[f.describe]
	if f.describe < len(f.statuses)-1 {
		f.describe++
	}
	out := &sagemaker.DescribeTrainingJobOutput{
		TrainingJobName:   input.TrainingJobName,
		TrainingJobStatus: status,
	}
	if status == types.TrainingJobStatusCompleted {
		out.ModelArtifacts = &types.ModelArtifacts{
			S3ModelArtifacts: aws.String("s3://test-bucket/dmpipe/output/model.tar.gz"),
		}
	}
	if f.reason != "" {
		out.FailureReason = aws.String(f.reason)
	}
	return out, nil
}

func testTrainer(api trainingAPI) *Trainer {
	return &Trainer{api: api, poll: time.Millisecond, logger: slog.Default()}
}

func testTrainingSpec() TrainingSpec {
	return TrainingSpec{
		BaseName:      "dmpipe-xgboost",
		Image:         "123456789012.dkr.ecr.us-east-1.amazonaws.com/xgboost:1",
		RoleARN:       "arn:aws:iam::123456789012:role/dmpipe",
		InstanceType:  "ml.m5.xlarge",
		InstanceCount: 1,
		VolumeSizeGB:  5,
		MaxRuntime:    time.Hour,
		Hyperparameters: map[string]string{
			"objective": "binary:logistic",
			"num_round": "100",
		},
		TrainURI:      "s3://test-bucket/dmpipe/train",
		ValidationURI: "s3://test-bucket/dmpipe/validation",
		OutputURI:     "s3://test-bucket/dmpipe/output",
	}
}

func TestTrainerRun(t *testing.T) {
	api := &fakeTrainingAPI{statuses: []types.TrainingJobStatus{
		types.TrainingJobStatusInProgress,
		types.TrainingJobStatusCompleted,
	}}

	result, err := testTrainer(api).Run(context.Background(), testTrainingSpec())
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(result.JobName, "dmpipe-xgboost-"))
	assert.Equal(t, "s3://test-bucket/dmpipe/output/model.tar.gz", result.ModelArtifacts)

	require.NotNil(t, api.created)
	assert.Equal(t, result.JobName, aws.ToString(api.created.TrainingJobName))
	assert.Equal(t, "binary:logistic", api.created.HyperParameters["objective"])
	assert.Equal(t, int32(3600), aws.ToInt32(api.created.StoppingCondition.MaxRuntimeInSeconds))

	require.Len(t, api.created.InputDataConfig, 2)
	train := api.created.InputDataConfig[0]
	assert.Equal(t, "train", aws.ToString(train.ChannelName))
	assert.Equal(t, "text/csv", aws.ToString(train.ContentType))
	assert.Equal(t, "s3://test-bucket/dmpipe/train", aws.ToString(train.DataSource.S3DataSource.S3Uri))
	assert.Equal(t, types.S3DataTypeS3Prefix, train.DataSource.S3DataSource.S3DataType)
}

func TestTrainerRunFailedJob(t *testing.T) {
	api := &fakeTrainingAPI{
		statuses: []types.TrainingJobStatus{types.TrainingJobStatusFailed},
		reason:   "AlgorithmError: label column out of range",
	}

	_, err := testTrainer(api).Run(context.Background(), testTrainingSpec())
	var jobErr *errors.JobError
	require.ErrorAs(t, err, &jobErr)
	assert.Equal(t, "Failed", jobErr.Status)
	assert.Contains(t, jobErr.Reason, "label column out of range")
}

func TestTrainerRunContextCanceled(t *testing.T) {
	api := &fakeTrainingAPI{statuses: []types.TrainingJobStatus{types.TrainingJobStatusInProgress}}
	trainer := &Trainer{api: api, poll: time.Hour, logger: slog.Default()}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := trainer.Run(ctx, testTrainingSpec())
	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestUniqueName(t *testing.T) {
	a := uniqueName("base")
	b := uniqueName("base")
	assert.True(t, strings.HasPrefix(a, "base-"))
	assert.Len(t, a, len("base-")+8)
	assert.NotEqual(t, a, b)
}
