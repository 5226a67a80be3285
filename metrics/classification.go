// Package metrics scores endpoint predictions against the held-out test
// labels.
package metrics

import (
	"sort"

	"gonum.org/v1/gonum/mat"

	"github.com/mlopsbox/dmpipe/pkg/errors"
)

// ConfusionMatrix holds binary classification counts at a threshold.
type ConfusionMatrix struct {
	TruePositives  int
	TrueNegatives  int
	FalsePositives int
	FalseNegatives int
}

// Binarize converts scores to 0/1 labels at the given threshold.
func Binarize(scores *mat.VecDense, threshold float64) *mat.VecDense {
	n := scores.Len()
	out := mat.NewVecDense(n, nil)
	for i := 0; i < n; i++ {
		if scores.AtVec(i) >= threshold {
			out.SetVec(i, 1)
		}
	}
	return out
}

// Confusion computes the confusion matrix for binary 0/1 vectors.
func Confusion(yTrue, yPred *mat.VecDense) (*ConfusionMatrix, error) {
	if err := validatePair("Confusion", yTrue, yPred); err != nil {
		return nil, err
	}
	cm := &ConfusionMatrix{}
	for i := 0; i < yTrue.Len(); i++ {
		truth, err := binaryLabel("Confusion", yTrue.AtVec(i))
		if err != nil {
			return nil, err
		}
		pred, err := binaryLabel("Confusion", yPred.AtVec(i))
		if err != nil {
			return nil, err
		}
		switch {
		case truth && pred:
			cm.TruePositives++
		case truth && !pred:
			cm.FalseNegatives++
		case !truth && pred:
			cm.FalsePositives++
		default:
			cm.TrueNegatives++
		}
	}
	return cm, nil
}

// Accuracy is the fraction of correct predictions.
func Accuracy(yTrue, yPred *mat.VecDense) (float64, error) {
	cm, err := Confusion(yTrue, yPred)
	if err != nil {
		return 0, err
	}
	total := cm.TruePositives + cm.TrueNegatives + cm.FalsePositives + cm.FalseNegatives
	return float64(cm.TruePositives+cm.TrueNegatives) / float64(total), nil
}

// Precision is TP / (TP + FP). With no predicted positives it is
// ill-defined; 0 is returned and a warning raised.
func Precision(yTrue, yPred *mat.VecDense) (float64, error) {
	cm, err := Confusion(yTrue, yPred)
	if err != nil {
		return 0, err
	}
	denom := cm.TruePositives + cm.FalsePositives
	if denom == 0 {
		errors.Warn(errors.NewUndefinedMetricWarning("precision", "no predicted positives", 0))
		return 0, nil
	}
	return float64(cm.TruePositives) / float64(denom), nil
}

// Recall is TP / (TP + FN). With no actual positives it is ill-defined;
// 0 is returned and a warning raised.
func Recall(yTrue, yPred *mat.VecDense) (float64, error) {
	cm, err := Confusion(yTrue, yPred)
	if err != nil {
		return 0, err
	}
	denom := cm.TruePositives + cm.FalseNegatives
	if denom == 0 {
		errors.Warn(errors.NewUndefinedMetricWarning("recall", "no actual positives", 0))
		return 0, nil
	}
	return float64(cm.TruePositives) / float64(denom), nil
}

// F1Score is the harmonic mean of precision and recall.
func F1Score(yTrue, yPred *mat.VecDense) (float64, error) {
	precision, err := Precision(yTrue, yPred)
	if err != nil {
		return 0, err
	}
	recall, err := Recall(yTrue, yPred)
	if err != nil {
		return 0, err
	}
	if precision+recall == 0 {
		errors.Warn(errors.NewUndefinedMetricWarning("f1", "precision and recall are both zero", 0))
		return 0, nil
	}
	return 2 * precision * recall / (precision + recall), nil
}

// AUC computes the area under the ROC curve by pairwise ranking: the
// probability that a random positive scores above a random negative, with
// ties counting one half. Degenerate label sets (all positive or all
// negative) return 0.5 with a warning.
func AUC(yTrue, yScore *mat.VecDense) (float64, error) {
	if err := validatePair("AUC", yTrue, yScore); err != nil {
		return 0, err
	}

	n := yTrue.Len()
	var positives, negatives []float64
	for i := 0; i < n; i++ {
		truth, err := binaryLabel("AUC", yTrue.AtVec(i))
		if err != nil {
			return 0, err
		}
		if truth {
			positives = append(positives, yScore.AtVec(i))
		} else {
			negatives = append(negatives, yScore.AtVec(i))
		}
	}
	if len(positives) == 0 || len(negatives) == 0 {
		errors.Warn(errors.NewUndefinedMetricWarning("auc", "only one class present", 0.5))
		return 0.5, nil
	}

	sort.Float64s(negatives)
	var sum float64
	for _, p := range positives {
		// negatives strictly below p, plus half of the ties
		below := sort.SearchFloat64s(negatives, p)
		upper := sort.Search(len(negatives), func(i int) bool { return negatives[i] > p })
		sum += float64(below) + float64(upper-below)/2
	}
	return sum / float64(len(positives)*len(negatives)), nil
}

func validatePair(op string, yTrue, yPred *mat.VecDense) error {
	if yTrue == nil || yPred == nil || yTrue.Len() == 0 || yPred.Len() == 0 {
		return errors.NewValueError(op, "empty vector")
	}
	if yPred.Len() != yTrue.Len() {
		return errors.NewDimensionError(op, yTrue.Len(), yPred.Len(), 0)
	}
	return nil
}

func binaryLabel(op string, v float64) (bool, error) {
	switch v {
	case 0:
		return false, nil
	case 1:
		return true, nil
	default:
		return false, errors.NewValueError(op, "labels must be 0 or 1")
	}
}
