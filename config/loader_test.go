package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("", nil)
	require.NoError(t, err)

	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, int64(1729), cfg.Split.Seed)
	assert.Equal(t, "us-east-1", cfg.Cloud.Region)
	assert.Equal(t, "ml.m5.xlarge", cfg.Training.InstanceType)
	assert.Equal(t, "binary:logistic", cfg.Training.Hyperparameters["objective"])
	assert.Equal(t, "validation:auc", cfg.Tuning.Objective)
	assert.Equal(t, int32(9), cfg.Tuning.MaxJobs)
	assert.Equal(t, 500, cfg.Predict.BatchSize)

	categorical := cfg.CategoricalColumns()
	assert.Contains(t, categorical, "job")
	assert.Contains(t, categorical, "y")
	assert.Len(t, categorical, 11)
}

func TestLoadYAMLFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "dmpipe.yaml")
	content := `
log_level: debug
cloud:
  bucket: my-bucket
  region: eu-west-1
training:
  instance_count: 2
tuning:
  continuous_ranges:
    - name: lambda
      min: 0.5
      max: 4.5
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	cfg, err := Load(path, nil)
	require.NoError(t, err)

	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, "my-bucket", cfg.Cloud.Bucket)
	assert.Equal(t, "eu-west-1", cfg.Cloud.Region)
	assert.Equal(t, int32(2), cfg.Training.InstanceCount)
	require.Len(t, cfg.Tuning.ContinuousRanges, 1)
	assert.Equal(t, "lambda", cfg.Tuning.ContinuousRanges[0].Name)
	assert.Equal(t, 4.5, cfg.Tuning.ContinuousRanges[0].Max)
	// Untouched defaults survive the file layer.
	assert.Equal(t, int64(1729), cfg.Split.Seed)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.yaml"), nil)
	assert.Error(t, err)
}

func TestLoadEnvironment(t *testing.T) {
	t.Setenv("DMPIPE_CLOUD__BUCKET", "env-bucket")
	t.Setenv("DMPIPE_CLOUD__ROLE_ARN", "arn:aws:iam::1:role/x")
	t.Setenv("DMPIPE_LOG_LEVEL", "warn")

	cfg, err := Load("", nil)
	require.NoError(t, err)

	assert.Equal(t, "env-bucket", cfg.Cloud.Bucket)
	assert.Equal(t, "arn:aws:iam::1:role/x", cfg.Cloud.RoleARN)
	assert.Equal(t, "warn", cfg.LogLevel)
}

func TestLoadFlagsOverrideEnvironment(t *testing.T) {
	t.Setenv("DMPIPE_CLOUD__BUCKET", "env-bucket")

	flags := pflag.NewFlagSet("test", pflag.ContinueOnError)
	flags.String("cloud.bucket", "", "")
	flags.Int64("split.seed", 0, "")
	require.NoError(t, flags.Parse([]string{"--cloud.bucket=flag-bucket", "--split.seed=42"}))

	cfg, err := Load("", flags)
	require.NoError(t, err)

	assert.Equal(t, "flag-bucket", cfg.Cloud.Bucket)
	assert.Equal(t, int64(42), cfg.Split.Seed)
}

func TestLoadUnsetFlagKeepsLowerLayers(t *testing.T) {
	t.Setenv("DMPIPE_CLOUD__BUCKET", "env-bucket")

	flags := pflag.NewFlagSet("test", pflag.ContinueOnError)
	flags.String("cloud.bucket", "", "")
	require.NoError(t, flags.Parse(nil))

	cfg, err := Load("", flags)
	require.NoError(t, err)
	assert.Equal(t, "env-bucket", cfg.Cloud.Bucket)
}

func TestRequireCloud(t *testing.T) {
	cfg, err := Load("", nil)
	require.NoError(t, err)
	assert.Error(t, cfg.RequireCloud())

	cfg.Cloud.Bucket = "b"
	assert.NoError(t, cfg.RequireCloud())

	assert.Error(t, cfg.RequireTraining())
	cfg.Cloud.RoleARN = "arn"
	cfg.Training.Image = "image"
	assert.NoError(t, cfg.RequireTraining())
}
