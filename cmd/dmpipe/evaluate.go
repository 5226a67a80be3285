package main

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"
	"gonum.org/v1/gonum/mat"

	"github.com/mlopsbox/dmpipe/dataset"
	"github.com/mlopsbox/dmpipe/metrics"
)

func newEvaluateCmd(rc *runContext) *cobra.Command {
	var (
		predictionsPath string
		labelsPath      string
		threshold       float64
		rocPath         string
	)

	cmd := &cobra.Command{
		Use:   "evaluate",
		Short: "Score predictions against the held-out test labels",
		RunE: func(cmd *cobra.Command, args []string) error {
			if predictionsPath == "" {
				predictionsPath = filepath.Join(rc.cfg.Output.Dir, "predictions.csv")
			}
			if labelsPath == "" {
				labelsPath = filepath.Join(rc.cfg.Output.Dir, "test", "test_y.csv")
			}

			labels, err := dataset.LoadColumn(labelsPath)
			if err != nil {
				return err
			}
			scores, err := dataset.LoadColumn(predictionsPath)
			if err != nil {
				return err
			}

			yTrue := mat.NewVecDense(len(labels), labels)
			yScore := mat.NewVecDense(len(scores), scores)
			yPred := metrics.Binarize(yScore, threshold)

			cm, err := metrics.Confusion(yTrue, yPred)
			if err != nil {
				return err
			}
			accuracy, err := metrics.Accuracy(yTrue, yPred)
			if err != nil {
				return err
			}
			precision, err := metrics.Precision(yTrue, yPred)
			if err != nil {
				return err
			}
			recall, err := metrics.Recall(yTrue, yPred)
			if err != nil {
				return err
			}
			f1, err := metrics.F1Score(yTrue, yPred)
			if err != nil {
				return err
			}
			auc, err := metrics.AUC(yTrue, yScore)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "rows:      %d (threshold %.2f)\n", len(labels), threshold)
			fmt.Fprintf(out, "confusion: tp=%d fp=%d tn=%d fn=%d\n", cm.TruePositives, cm.FalsePositives, cm.TrueNegatives, cm.FalseNegatives)
			fmt.Fprintf(out, "accuracy:  %.4f\n", accuracy)
			fmt.Fprintf(out, "precision: %.4f\n", precision)
			fmt.Fprintf(out, "recall:    %.4f\n", recall)
			fmt.Fprintf(out, "f1:        %.4f\n", f1)
			fmt.Fprintf(out, "auc:       %.4f\n", auc)

			if rocPath != "" {
				points, err := metrics.ROCCurve(yTrue, yScore)
				if err != nil {
					return err
				}
				if err := metrics.SaveROCPlot(points, auc, rocPath); err != nil {
					return err
				}
				fmt.Fprintf(out, "roc plot:  %s\n", rocPath)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&predictionsPath, "predictions", "", "predictions file (default <output.dir>/predictions.csv)")
	cmd.Flags().StringVar(&labelsPath, "labels", "", "test label file (default <output.dir>/test_y.csv)")
	cmd.Flags().Float64Var(&threshold, "threshold", 0.5, "probability cutoff for the positive class")
	cmd.Flags().StringVar(&rocPath, "roc-plot", "", "write a ROC curve plot to this PNG path")
	return cmd
}
