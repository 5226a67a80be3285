// Command dmpipe drives the direct-marketing ML workflow: preprocess the
// raw CSV, stage partitions in object storage, train and deploy an XGBoost
// model on the managed platform, score the test partition and evaluate.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/mlopsbox/dmpipe/config"
	"github.com/mlopsbox/dmpipe/pkg/log"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// runContext carries the loaded configuration into command handlers.
type runContext struct {
	cfg *config.Config
}

func newRootCmd() *cobra.Command {
	rc := &runContext{}
	var configPath string

	root := &cobra.Command{
		Use:           "dmpipe",
		Short:         "Direct-marketing prediction pipeline",
		Long:          "dmpipe preprocesses the bank direct-marketing dataset and drives the managed training, hosting and tuning workflow around it.",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(configPath, cmd.Flags())
			if err != nil {
				return err
			}
			rc.cfg = cfg
			log.Setup(cfg.LogLevel)
			return nil
		},
	}

	pf := root.PersistentFlags()
	pf.StringVar(&configPath, "config", "", "path to a YAML config file")
	pf.String("log_level", "info", "log level: debug, info, warn, error")
	pf.String("cloud.region", "", "platform region")
	pf.String("cloud.bucket", "", "object-storage bucket")
	pf.String("cloud.prefix", "", "object-storage key prefix")
	pf.String("cloud.role_arn", "", "execution role for managed jobs")
	pf.String("cloud.s3_endpoint", "", "object-storage endpoint override")

	root.AddCommand(
		newPreprocessCmd(rc),
		newUploadCmd(rc),
		newTrainCmd(rc),
		newDeployCmd(rc),
		newPredictCmd(rc),
		newEvaluateCmd(rc),
		newTuneCmd(rc),
		newCleanupCmd(rc),
	)
	return root
}
