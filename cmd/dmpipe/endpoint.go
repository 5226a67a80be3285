package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/mlopsbox/dmpipe/cloud"
	"github.com/mlopsbox/dmpipe/dataset"
	"github.com/mlopsbox/dmpipe/pkg/errors"
)

func newDeployCmd(rc *runContext) *cobra.Command {
	var modelArtifacts string

	cmd := &cobra.Command{
		Use:   "deploy",
		Short: "Host the trained model behind a real-time endpoint",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := rc.cfg.RequireTraining(); err != nil {
				return err
			}
			if modelArtifacts == "" {
				return errors.NewValidationError("model-artifacts", "model artifact URI is required", modelArtifacts)
			}
			clients, err := cloud.NewClients(cmd.Context(), rc.cfg.Cloud.Region, rc.cfg.Cloud.S3Endpoint)
			if err != nil {
				return err
			}
			host := cloud.NewHost(clients.SageMaker, clients.Runtime)
			deployment, err := host.Deploy(cmd.Context(), cloud.DeploySpec{
				BaseName:       rc.cfg.Training.BaseName,
				Image:          rc.cfg.Training.Image,
				RoleARN:        rc.cfg.Cloud.RoleARN,
				ModelArtifacts: modelArtifacts,
				InstanceType:   rc.cfg.Training.InstanceType,
				InstanceCount:  rc.cfg.Training.InstanceCount,
			})
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "model:           %s\n", deployment.ModelName)
			fmt.Fprintf(cmd.OutOrStdout(), "endpoint config: %s\n", deployment.EndpointConfigName)
			fmt.Fprintf(cmd.OutOrStdout(), "endpoint:        %s\n", deployment.EndpointName)
			return nil
		},
	}
	cmd.Flags().StringVar(&modelArtifacts, "model-artifacts", "", "S3 URI of the trained model artifacts")
	addTrainingFlags(cmd)
	return cmd
}

func newPredictCmd(rc *runContext) *cobra.Command {
	var outPath string

	cmd := &cobra.Command{
		Use:   "predict",
		Short: "Score the test partition against the hosted endpoint",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := rc.cfg.RequireCloud(); err != nil {
				return err
			}
			if rc.cfg.Predict.Endpoint == "" {
				return errors.NewValidationError("predict.endpoint", "endpoint name is required", rc.cfg.Predict.Endpoint)
			}
			rows, err := dataset.LoadRecords(filepath.Join(rc.cfg.Output.Dir, "test", "test_x.csv"))
			if err != nil {
				return err
			}
			clients, err := cloud.NewClients(cmd.Context(), rc.cfg.Cloud.Region, rc.cfg.Cloud.S3Endpoint)
			if err != nil {
				return err
			}
			host := cloud.NewHost(clients.SageMaker, clients.Runtime)
			scores, err := host.Predict(cmd.Context(), rc.cfg.Predict.Endpoint, rows, rc.cfg.Predict.BatchSize)
			if err != nil {
				return err
			}
			if outPath == "" {
				outPath = filepath.Join(rc.cfg.Output.Dir, "predictions.csv")
			}
			if err := writeScores(outPath, scores); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "wrote %d predictions to %s\n", len(scores), outPath)
			return nil
		},
	}
	cmd.Flags().StringVar(&outPath, "out", "", "predictions output file (default <output.dir>/predictions.csv)")
	cmd.Flags().String("predict.endpoint", "", "endpoint name to invoke")
	cmd.Flags().Int("predict.batch_size", cloud.DefaultPredictBatchSize, "rows per invocation")
	return cmd
}

func newCleanupCmd(rc *runContext) *cobra.Command {
	var (
		endpoint       string
		endpointConfig string
		model          string
	)

	cmd := &cobra.Command{
		Use:   "cleanup",
		Short: "Delete the endpoint, its config and the model",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := rc.cfg.RequireCloud(); err != nil {
				return err
			}
			if endpoint == "" {
				return errors.NewValidationError("endpoint", "endpoint name is required", endpoint)
			}
			if endpointConfig == "" {
				endpointConfig = endpoint
			}
			if model == "" {
				model = endpoint
			}
			clients, err := cloud.NewClients(cmd.Context(), rc.cfg.Cloud.Region, rc.cfg.Cloud.S3Endpoint)
			if err != nil {
				return err
			}
			host := cloud.NewHost(clients.SageMaker, clients.Runtime)
			return host.Teardown(cmd.Context(), cloud.Deployment{
				ModelName:          model,
				EndpointConfigName: endpointConfig,
				EndpointName:       endpoint,
			})
		},
	}
	cmd.Flags().StringVar(&endpoint, "endpoint", "", "endpoint name")
	cmd.Flags().StringVar(&endpointConfig, "endpoint-config", "", "endpoint config name (default same as endpoint)")
	cmd.Flags().StringVar(&model, "model", "", "model name (default same as endpoint)")
	return cmd
}

// writeScores writes one probability per line, matching the headerless
// partition format.
func writeScores(path string, scores []float64) error {
	if dir := filepath.Dir(path); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return errors.Wrapf(err, "create directory %s", dir)
		}
	}
	var b strings.Builder
	for _, s := range scores {
		b.WriteString(strconv.FormatFloat(s, 'g', -1, 64))
		b.WriteByte('\n')
	}
	return errors.Wrapf(os.WriteFile(path, []byte(b.String()), 0o644), "write %s", path)
}
