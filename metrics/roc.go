package metrics

import (
	"fmt"
	"sort"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"

	"github.com/mlopsbox/dmpipe/pkg/errors"
)

// ROCPoint is one point of the receiver operating characteristic curve.
type ROCPoint struct {
	FPR       float64
	TPR       float64
	Threshold float64
}

// ROCCurve computes the ROC curve over every distinct score threshold,
// ordered from (0,0) to (1,1).
func ROCCurve(yTrue, yScore *mat.VecDense) ([]ROCPoint, error) {
	if err := validatePair("ROCCurve", yTrue, yScore); err != nil {
		return nil, err
	}

	n := yTrue.Len()
	type sample struct {
		score    float64
		positive bool
	}
	samples := make([]sample, n)
	var totalPos, totalNeg int
	for i := 0; i < n; i++ {
		truth, err := binaryLabel("ROCCurve", yTrue.AtVec(i))
		if err != nil {
			return nil, err
		}
		samples[i] = sample{score: yScore.AtVec(i), positive: truth}
		if truth {
			totalPos++
		} else {
			totalNeg++
		}
	}
	if totalPos == 0 || totalNeg == 0 {
		return nil, errors.NewValueError("ROCCurve", "only one class present")
	}

	sort.Slice(samples, func(i, j int) bool { return samples[i].score > samples[j].score })

	points := []ROCPoint{{FPR: 0, TPR: 0, Threshold: samples[0].score + 1}}
	var tp, fp int
	for i := 0; i < n; {
		threshold := samples[i].score
		// consume the whole tie group before emitting a point
		for i < n && samples[i].score == threshold {
			if samples[i].positive {
				tp++
			} else {
				fp++
			}
			i++
		}
		points = append(points, ROCPoint{
			FPR:       float64(fp) / float64(totalNeg),
			TPR:       float64(tp) / float64(totalPos),
			Threshold: threshold,
		})
	}
	return points, nil
}

// SaveROCPlot renders the ROC curve with the chance diagonal to a PNG.
func SaveROCPlot(points []ROCPoint, auc float64, path string) error {
	if len(points) == 0 {
		return errors.NewValueError("SaveROCPlot", "no curve points")
	}

	p := plot.New()
	p.Title.Text = fmt.Sprintf("ROC curve (AUC = %.4f)", auc)
	p.X.Label.Text = "False positive rate"
	p.Y.Label.Text = "True positive rate"
	p.X.Min, p.X.Max = 0, 1
	p.Y.Min, p.Y.Max = 0, 1

	curve := make(plotter.XYs, len(points))
	for i, pt := range points {
		curve[i].X = pt.FPR
		curve[i].Y = pt.TPR
	}
	line, err := plotter.NewLine(curve)
	if err != nil {
		return errors.Wrap(err, "metrics: roc line")
	}
	p.Add(line)

	diagonal, err := plotter.NewLine(plotter.XYs{{X: 0, Y: 0}, {X: 1, Y: 1}})
	if err != nil {
		return errors.Wrap(err, "metrics: chance line")
	}
	diagonal.LineStyle.Dashes = []vg.Length{vg.Points(4), vg.Points(4)}
	p.Add(diagonal)

	if err := p.Save(6*vg.Inch, 6*vg.Inch, path); err != nil {
		return errors.Wrapf(err, "metrics: save plot %s", path)
	}
	return nil
}
