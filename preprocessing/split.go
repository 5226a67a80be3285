package preprocessing

import (
	"math"
	"math/rand"

	"github.com/mlopsbox/dmpipe/dataset"
	"github.com/mlopsbox/dmpipe/pkg/errors"
)

// DefaultSeed is the shuffle seed shared by every reproducible run.
const DefaultSeed int64 = 1729

// Splitter shuffles rows with a fixed seed and cuts them into train,
// validation and test partitions. With the default fractions a 41,188-row
// table yields 28,831 / 8,238 / 4,119 rows.
type Splitter struct {
	Seed           int64
	TrainFrac      float64
	ValidationFrac float64
}

// NewSplitter creates a splitter with the default 70/20/10 fractions.
func NewSplitter(seed int64) *Splitter {
	return &Splitter{
		Seed:           seed,
		TrainFrac:      0.7,
		ValidationFrac: 0.2,
	}
}

// Split partitions the frame. Cut points are floor(trainFrac*N) and
// floor((trainFrac+validationFrac)*N) over a seeded permutation, so the
// partitions are disjoint and cover every row exactly once.
func (s *Splitter) Split(f *dataset.Frame) (train, validation, test *dataset.Frame, err error) {
	if s.TrainFrac <= 0 || s.ValidationFrac < 0 || s.TrainFrac+s.ValidationFrac >= 1 {
		return nil, nil, nil, errors.NewValidationError("fractions",
			"train and validation fractions must be positive and sum below 1",
			[2]float64{s.TrainFrac, s.ValidationFrac})
	}
	n := f.NumRows()
	if n == 0 {
		return nil, nil, nil, errors.Wrap(errors.ErrEmptyData, "Splitter.Split")
	}

	perm := rand.New(rand.NewSource(s.Seed)).Perm(n)
	trainEnd := cut(s.TrainFrac, n)
	validationEnd := cut(s.TrainFrac+s.ValidationFrac, n)

	if train, err = f.Subset(perm[:trainEnd]); err != nil {
		return nil, nil, nil, err
	}
	if validation, err = f.Subset(perm[trainEnd:validationEnd]); err != nil {
		return nil, nil, nil, err
	}
	if test, err = f.Subset(perm[validationEnd:]); err != nil {
		return nil, nil, nil, err
	}
	return train, validation, test, nil
}

// cut returns floor(frac*n), tolerating the float error accumulated when
// fractions are summed, so 0.7+0.2 cuts at exactly floor(0.9*n).
func cut(frac float64, n int) int {
	return int(math.Floor(frac*float64(n) + 1e-9))
}
