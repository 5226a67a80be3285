package cloud

import (
	"context"
	"log/slog"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sagemaker"
	"github.com/aws/aws-sdk-go-v2/service/sagemaker/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mlopsbox/dmpipe/pkg/errors"
)

type fakeTuningAPI struct {
	created  *sagemaker.CreateHyperParameterTuningJobInput
	statuses []types.HyperParameterTuningJobStatus
	describe int
	best     *types.HyperParameterTrainingJobSummary
	reason   string
}

func (f *fakeTuningAPI) CreateHyperParameterTuningJob(ctx context.Context, input *sagemaker.CreateHyperParameterTuningJobInput, opts ...func(*sagemaker.Options)) (*sagemaker.CreateHyperParameterTuningJobOutput, error) {
	f.created = input
	return &sagemaker.CreateHyperParameterTuningJobOutput{}, nil
}

func (f *fakeTuningAPI) DescribeHyperParameterTuningJob(ctx context.Context, input *sagemaker.DescribeHyperParameterTuningJobInput, opts ...func(*sagemaker.Options)) (*sagemaker.DescribeHyperParameterTuningJobOutput, error) {
	status := f.statuses[f.describe]
	if f.describe < len(f.statuses)-1 {
		f.describe++
	}
	out := &sagemaker.DescribeHyperParameterTuningJobOutput{
		HyperParameterTuningJobStatus: status,
	}
	if status == types.HyperParameterTuningJobStatusCompleted {
		out.BestTrainingJob = f.best
	}
	if f.reason != "" {
		out.FailureReason = aws.String(f.reason)
	}
	return out, nil
}

func testTuner(api tuningAPI) *Tuner {
	return &Tuner{api: api, poll: time.Millisecond, logger: slog.Default()}
}

func testTuningSpec() TuningSpec {
	return TuningSpec{
		Training:        testTrainingSpec(),
		ObjectiveMetric: "validation:auc",
		MaxJobs:         9,
		MaxParallelJobs: 3,
		ContinuousRanges: []ContinuousRange{
			{Name: "eta", Min: 0, Max: 1},
			{Name: "alpha", Min: 0, Max: 2},
		},
		IntegerRanges: []IntegerRange{
			{Name: "min_child_weight", Min: 1, Max: 10},
			{Name: "max_depth", Min: 1, Max: 10},
		},
	}
}

func TestTunerRun(t *testing.T) {
	api := &fakeTuningAPI{
		statuses: []types.HyperParameterTuningJobStatus{
			types.HyperParameterTuningJobStatusInProgress,
			types.HyperParameterTuningJobStatusCompleted,
		},
		best: &types.HyperParameterTrainingJobSummary{
			TrainingJobName: aws.String("dmpipe-xgboost-tuning-003-abc"),
			TunedHyperParameters: map[string]string{
				"eta":       "0.31",
				"max_depth": "7",
			},
			FinalHyperParameterTuningJobObjectiveMetric: &types.FinalHyperParameterTuningJobObjectiveMetric{
				MetricName: aws.String("validation:auc"),
				Value:      aws.Float32(0.92),
			},
		},
	}

	result, err := testTuner(api).Run(context.Background(), testTuningSpec())
	require.NoError(t, err)

	assert.Equal(t, "dmpipe-xgboost-tuning-003-abc", result.BestTrainingJob)
	assert.InDelta(t, 0.92, result.BestObjective, 1e-6)
	assert.Equal(t, "0.31", result.TunedHyperparameters["eta"])

	require.NotNil(t, api.created)
	cfg := api.created.HyperParameterTuningJobConfig
	assert.Equal(t, types.HyperParameterTuningJobStrategyTypeBayesian, cfg.Strategy)
	assert.Equal(t, types.HyperParameterTuningJobObjectiveTypeMaximize, cfg.HyperParameterTuningJobObjective.Type)
	assert.Equal(t, "validation:auc", aws.ToString(cfg.HyperParameterTuningJobObjective.MetricName))
	assert.Equal(t, int32(9), aws.ToInt32(cfg.ResourceLimits.MaxNumberOfTrainingJobs))
	assert.Len(t, cfg.ParameterRanges.ContinuousParameterRanges, 2)
	assert.Len(t, cfg.ParameterRanges.IntegerParameterRanges, 2)
}

func TestTunerRunRemovesTunedStaticParameters(t *testing.T) {
	api := &fakeTuningAPI{
		statuses: []types.HyperParameterTuningJobStatus{types.HyperParameterTuningJobStatusCompleted},
		best:     &types.HyperParameterTrainingJobSummary{TrainingJobName: aws.String("best")},
	}

	spec := testTuningSpec()
	spec.Training.Hyperparameters = map[string]string{
		"objective": "binary:logistic",
		"eta":       "0.2",
		"max_depth": "5",
	}

	_, err := testTuner(api).Run(context.Background(), spec)
	require.NoError(t, err)

	static := api.created.TrainingJobDefinition.StaticHyperParameters
	assert.Equal(t, "binary:logistic", static["objective"])
	assert.NotContains(t, static, "eta")
	assert.NotContains(t, static, "max_depth")
	// The caller's map is left intact.
	assert.Equal(t, "0.2", spec.Training.Hyperparameters["eta"])
}

func TestTunerRunFailed(t *testing.T) {
	api := &fakeTuningAPI{
		statuses: []types.HyperParameterTuningJobStatus{types.HyperParameterTuningJobStatusFailed},
		reason:   "ResourceLimitExceeded",
	}
	_, err := testTuner(api).Run(context.Background(), testTuningSpec())
	var jobErr *errors.JobError
	require.ErrorAs(t, err, &jobErr)
	assert.Equal(t, "Failed", jobErr.Status)
}

func TestTunerRunNoBestJob(t *testing.T) {
	api := &fakeTuningAPI{
		statuses: []types.HyperParameterTuningJobStatus{types.HyperParameterTuningJobStatusCompleted},
	}
	_, err := testTuner(api).Run(context.Background(), testTuningSpec())
	var jobErr *errors.JobError
	require.ErrorAs(t, err, &jobErr)
}
