// Package config loads run configuration from defaults, an optional YAML
// file, DMPIPE_-prefixed environment variables and command-line flags, in
// that order of precedence.
package config

import (
	"strings"

	"github.com/mlopsbox/dmpipe/pkg/errors"
	"github.com/mlopsbox/dmpipe/preprocessing"
)

// Config is the full pipeline configuration.
type Config struct {
	LogLevel string         `koanf:"log_level"`
	Input    InputConfig    `koanf:"input"`
	Output   OutputConfig   `koanf:"output"`
	Split    SplitConfig    `koanf:"split"`
	Cloud    CloudConfig    `koanf:"cloud"`
	Training TrainingConfig `koanf:"training"`
	Tuning   TuningConfig   `koanf:"tuning"`
	Predict  PredictConfig  `koanf:"predict"`
}

// InputConfig locates the raw dataset.
type InputConfig struct {
	Dir         string `koanf:"dir"`
	File        string `koanf:"file"`
	Categorical string `koanf:"categorical"` // comma-separated column names
}

// OutputConfig locates the partition artifacts.
type OutputConfig struct {
	Dir string `koanf:"dir"`
}

// SplitConfig controls the reproducible shuffle.
type SplitConfig struct {
	Seed int64 `koanf:"seed"`
}

// CloudConfig identifies the platform account resources.
type CloudConfig struct {
	Region     string `koanf:"region"`
	Bucket     string `koanf:"bucket"`
	Prefix     string `koanf:"prefix"`
	RoleARN    string `koanf:"role_arn"`
	S3Endpoint string `koanf:"s3_endpoint"` // override for local object-storage doubles
}

// TrainingConfig describes the managed training job.
type TrainingConfig struct {
	BaseName          string            `koanf:"base_name"`
	Image             string            `koanf:"image"`
	InstanceType      string            `koanf:"instance_type"`
	InstanceCount     int32             `koanf:"instance_count"`
	VolumeSizeGB      int32             `koanf:"volume_size_gb"`
	MaxRuntimeMinutes int               `koanf:"max_runtime_minutes"`
	Hyperparameters   map[string]string `koanf:"hyperparameters"`
}

// RangeConfig is a continuous hyperparameter search interval.
type RangeConfig struct {
	Name string  `koanf:"name"`
	Min  float64 `koanf:"min"`
	Max  float64 `koanf:"max"`
}

// IntRangeConfig is an integer hyperparameter search interval.
type IntRangeConfig struct {
	Name string `koanf:"name"`
	Min  int    `koanf:"min"`
	Max  int    `koanf:"max"`
}

// TuningConfig describes the hyperparameter search.
type TuningConfig struct {
	Objective        string           `koanf:"objective"`
	MaxJobs          int32            `koanf:"max_jobs"`
	MaxParallelJobs  int32            `koanf:"max_parallel_jobs"`
	ContinuousRanges []RangeConfig    `koanf:"continuous_ranges"`
	IntegerRanges    []IntRangeConfig `koanf:"integer_ranges"`
}

// PredictConfig describes inference against a hosted endpoint.
type PredictConfig struct {
	Endpoint  string `koanf:"endpoint"`
	BatchSize int    `koanf:"batch_size"`
}

// defaults mirror the standard bank-marketing XGBoost run.
func defaults() map[string]interface{} {
	return map[string]interface{}{
		"log_level":                 "info",
		"input.dir":                 preprocessing.DefaultInputDir,
		"input.file":                preprocessing.DefaultInputFile,
		"input.categorical":         preprocessing.DefaultCategoricalColumns,
		"output.dir":                preprocessing.DefaultOutputDir,
		"split.seed":                preprocessing.DefaultSeed,
		"cloud.region":              "us-east-1",
		"training.base_name":        "dmpipe-xgboost",
		"training.instance_type":    "ml.m5.xlarge",
		"training.instance_count":   1,
		"training.volume_size_gb":   5,
		"training.max_runtime_minutes": 60,
		"training.hyperparameters": map[string]string{
			"max_depth":        "5",
			"eta":              "0.2",
			"gamma":            "4",
			"min_child_weight": "6",
			"subsample":        "0.8",
			"objective":        "binary:logistic",
			"num_round":        "100",
		},
		"tuning.objective":         "validation:auc",
		"tuning.max_jobs":          9,
		"tuning.max_parallel_jobs": 3,
		"tuning.continuous_ranges": []map[string]interface{}{
			{"name": "eta", "min": 0.0, "max": 1.0},
			{"name": "alpha", "min": 0.0, "max": 2.0},
		},
		"tuning.integer_ranges": []map[string]interface{}{
			{"name": "min_child_weight", "min": 1, "max": 10},
			{"name": "max_depth", "min": 1, "max": 10},
		},
		"predict.batch_size": 500,
	}
}

// CategoricalColumns returns the configured categorical columns as a
// slice.
func (c *Config) CategoricalColumns() []string {
	parts := strings.Split(c.Input.Categorical, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}

// RequireCloud validates the fields every cloud command needs.
func (c *Config) RequireCloud() error {
	if c.Cloud.Bucket == "" {
		return errors.NewValidationError("cloud.bucket", "bucket is required for cloud commands", c.Cloud.Bucket)
	}
	if c.Cloud.Region == "" {
		return errors.NewValidationError("cloud.region", "region is required for cloud commands", c.Cloud.Region)
	}
	return nil
}

// RequireTraining validates the fields training and tuning jobs need.
func (c *Config) RequireTraining() error {
	if err := c.RequireCloud(); err != nil {
		return err
	}
	if c.Cloud.RoleARN == "" {
		return errors.NewValidationError("cloud.role_arn", "execution role is required to submit jobs", c.Cloud.RoleARN)
	}
	if c.Training.Image == "" {
		return errors.NewValidationError("training.image", "training image URI is required", c.Training.Image)
	}
	return nil
}
