package main

import (
	"fmt"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/mlopsbox/dmpipe/cloud"
)

// partitionKeys maps local partition files to their object-storage keys.
var partitionKeys = []struct {
	local string
	key   string
}{
	{"train/train.csv", "train/train.csv"},
	{"validation/validation.csv", "validation/validation.csv"},
	{"test/test_x.csv", "test/test_x.csv"},
	{"test/test_y.csv", "test/test_y.csv"},
}

func newUploadCmd(rc *runContext) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "upload",
		Short: "Stage the partition files in object storage",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := rc.cfg.RequireCloud(); err != nil {
				return err
			}
			clients, err := cloud.NewClients(cmd.Context(), rc.cfg.Cloud.Region, rc.cfg.Cloud.S3Endpoint)
			if err != nil {
				return err
			}
			storage := cloud.NewStorage(clients.S3, rc.cfg.Cloud.Bucket, rc.cfg.Cloud.Prefix)
			for _, p := range partitionKeys {
				uri, err := storage.UploadFile(cmd.Context(), filepath.Join(rc.cfg.Output.Dir, p.local), p.key)
				if err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), uri)
			}
			return nil
		},
	}
	cmd.Flags().String("output.dir", "", "directory holding the partition files")
	return cmd
}

func newTrainCmd(rc *runContext) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "train",
		Short: "Run a managed XGBoost training job on the staged partitions",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := rc.cfg.RequireTraining(); err != nil {
				return err
			}
			clients, err := cloud.NewClients(cmd.Context(), rc.cfg.Cloud.Region, rc.cfg.Cloud.S3Endpoint)
			if err != nil {
				return err
			}
			storage := cloud.NewStorage(clients.S3, rc.cfg.Cloud.Bucket, rc.cfg.Cloud.Prefix)
			result, err := cloud.NewTrainer(clients.SageMaker).Run(cmd.Context(), trainingSpec(rc, storage))
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "training job:    %s\n", result.JobName)
			fmt.Fprintf(cmd.OutOrStdout(), "model artifacts: %s\n", result.ModelArtifacts)
			return nil
		},
	}
	addTrainingFlags(cmd)
	return cmd
}

func newTuneCmd(rc *runContext) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "tune",
		Short: "Run a Bayesian hyperparameter search over the staged partitions",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := rc.cfg.RequireTraining(); err != nil {
				return err
			}
			clients, err := cloud.NewClients(cmd.Context(), rc.cfg.Cloud.Region, rc.cfg.Cloud.S3Endpoint)
			if err != nil {
				return err
			}
			storage := cloud.NewStorage(clients.S3, rc.cfg.Cloud.Bucket, rc.cfg.Cloud.Prefix)

			spec := cloud.TuningSpec{
				Training:        trainingSpec(rc, storage),
				ObjectiveMetric: rc.cfg.Tuning.Objective,
				MaxJobs:         rc.cfg.Tuning.MaxJobs,
				MaxParallelJobs: rc.cfg.Tuning.MaxParallelJobs,
			}
			for _, r := range rc.cfg.Tuning.ContinuousRanges {
				spec.ContinuousRanges = append(spec.ContinuousRanges, cloud.ContinuousRange{Name: r.Name, Min: r.Min, Max: r.Max})
			}
			for _, r := range rc.cfg.Tuning.IntegerRanges {
				spec.IntegerRanges = append(spec.IntegerRanges, cloud.IntegerRange{Name: r.Name, Min: r.Min, Max: r.Max})
			}

			result, err := cloud.NewTuner(clients.SageMaker).Run(cmd.Context(), spec)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "tuning job:        %s\n", result.JobName)
			fmt.Fprintf(cmd.OutOrStdout(), "best training job: %s\n", result.BestTrainingJob)
			fmt.Fprintf(cmd.OutOrStdout(), "best %s: %g\n", rc.cfg.Tuning.Objective, result.BestObjective)
			for name, value := range result.TunedHyperparameters {
				fmt.Fprintf(cmd.OutOrStdout(), "  %s = %s\n", name, value)
			}
			return nil
		},
	}
	addTrainingFlags(cmd)
	cmd.Flags().Int32("tuning.max_jobs", 0, "total training jobs in the search")
	cmd.Flags().Int32("tuning.max_parallel_jobs", 0, "training jobs run concurrently")
	cmd.Flags().String("tuning.objective", "", "objective metric, e.g. validation:auc")
	return cmd
}

func addTrainingFlags(cmd *cobra.Command) {
	fs := cmd.Flags()
	fs.String("training.image", "", "XGBoost container image URI")
	fs.String("training.base_name", "", "job name prefix")
	fs.String("training.instance_type", "", "training instance type")
	fs.Int32("training.instance_count", 0, "training instance count")
}

func trainingSpec(rc *runContext, storage *cloud.Storage) cloud.TrainingSpec {
	t := rc.cfg.Training
	return cloud.TrainingSpec{
		BaseName:        t.BaseName,
		Image:           t.Image,
		RoleARN:         rc.cfg.Cloud.RoleARN,
		InstanceType:    t.InstanceType,
		InstanceCount:   t.InstanceCount,
		VolumeSizeGB:    t.VolumeSizeGB,
		MaxRuntime:      time.Duration(t.MaxRuntimeMinutes) * time.Minute,
		Hyperparameters: t.Hyperparameters,
		TrainURI:        storage.URI("train"),
		ValidationURI:   storage.URI("validation"),
		OutputURI:       storage.URI("output"),
	}
}
