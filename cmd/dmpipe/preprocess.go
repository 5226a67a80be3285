package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mlopsbox/dmpipe/preprocessing"
)

func newPreprocessCmd(rc *runContext) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "preprocess",
		Short: "Clean, encode and split the raw dataset into partition files",
		RunE: func(cmd *cobra.Command, args []string) error {
			opts := preprocessOptions(rc)
			result, err := preprocessing.NewPipeline(opts).Run()
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(),
				"preprocessed %d features: train=%d validation=%d test=%d\n",
				len(result.FeatureColumns), result.TrainRows, result.ValidationRows, result.TestRows)
			fmt.Fprintf(cmd.OutOrStdout(), "train:      %s\n", result.TrainPath)
			fmt.Fprintf(cmd.OutOrStdout(), "validation: %s\n", result.ValidationPath)
			fmt.Fprintf(cmd.OutOrStdout(), "test_x:     %s\n", result.TestXPath)
			fmt.Fprintf(cmd.OutOrStdout(), "test_y:     %s\n", result.TestYPath)
			return nil
		},
	}

	fs := cmd.Flags()
	fs.String("input.dir", preprocessing.DefaultInputDir, "directory holding the raw CSV")
	fs.String("input.file", preprocessing.DefaultInputFile, "raw CSV file name")
	fs.String("input.categorical", preprocessing.DefaultCategoricalColumns, "comma-separated categorical columns")
	fs.String("output.dir", preprocessing.DefaultOutputDir, "directory for partition files")
	fs.Int64("split.seed", preprocessing.DefaultSeed, "shuffle seed")
	return cmd
}

func preprocessOptions(rc *runContext) preprocessing.Options {
	opts := preprocessing.DefaultOptions()
	opts.InputDir = rc.cfg.Input.Dir
	opts.InputFile = rc.cfg.Input.File
	opts.OutputDir = rc.cfg.Output.Dir
	opts.CategoricalColumns = rc.cfg.CategoricalColumns()
	opts.Seed = rc.cfg.Split.Seed
	return opts
}
