package preprocessing

import (
	"fmt"

	"github.com/mlopsbox/dmpipe/core/model"
	"github.com/mlopsbox/dmpipe/dataset"
	"github.com/mlopsbox/dmpipe/pkg/errors"
)

// OneHotEncoder expands categorical columns into one indicator column per
// observed category value. Category values are sorted so column order is
// deterministic across runs; indicator columns are named "column_value".
type OneHotEncoder struct {
	model.BaseEstimator

	// Columns are the categorical columns to expand, in the order given.
	Columns []string

	// Categories holds the sorted observed values per fitted column.
	Categories map[string][]string
}

var _ model.Transformer = (*OneHotEncoder)(nil)

// NewOneHotEncoder creates an encoder for the given categorical columns.
func NewOneHotEncoder(columns []string) *OneHotEncoder {
	return &OneHotEncoder{
		Columns: append([]string(nil), columns...),
	}
}

// Fit records the distinct category values of each configured column.
// A configured column missing from the frame is a fatal schema error.
func (e *OneHotEncoder) Fit(f *dataset.Frame) error {
	if f.NumRows() == 0 {
		return errors.Wrap(errors.ErrEmptyData, "OneHotEncoder.Fit")
	}
	categories := make(map[string][]string, len(e.Columns))
	for _, col := range e.Columns {
		levels, err := f.Levels(col)
		if err != nil {
			return errors.NewSchemaError("OneHotEncoder.Fit", col)
		}
		categories[col] = levels
	}
	e.Categories = categories
	e.SetFitted()
	return nil
}

// Transform replaces each categorical column with its indicator columns.
// Non-categorical columns keep their original order; each categorical
// column is expanded in place. A value not seen during Fit is a fatal
// error.
func (e *OneHotEncoder) Transform(f *dataset.Frame) (*dataset.Frame, error) {
	if !e.IsFitted() {
		return nil, errors.NewNotFittedError("OneHotEncoder", "Transform")
	}

	categorical := make(map[string]bool, len(e.Columns))
	for _, col := range e.Columns {
		categorical[col] = true
	}

	out := dataset.New()
	for _, name := range f.Columns() {
		values, err := f.Column(name)
		if err != nil {
			return nil, err
		}
		if !categorical[name] {
			out, err = out.AddColumn(name, values)
			if err != nil {
				return nil, err
			}
			continue
		}

		levels, ok := e.Categories[name]
		if !ok {
			return nil, errors.NewSchemaError("OneHotEncoder.Transform", name)
		}
		known := make(map[string]bool, len(levels))
		for _, level := range levels {
			known[level] = true
		}
		for i, v := range values {
			if !known[v] {
				return nil, errors.NewValueError("OneHotEncoder.Transform",
					fmt.Sprintf("column %q row %d: unseen category %q", name, i, v))
			}
		}
		for _, level := range levels {
			indicator := make([]string, len(values))
			for i, v := range values {
				indicator[i] = boolFlag(v == level)
			}
			out, err = out.AddColumn(name+"_"+level, indicator)
			if err != nil {
				return nil, err
			}
		}
	}
	return out, nil
}

// FitTransform fits the encoder and transforms the same frame.
func (e *OneHotEncoder) FitTransform(f *dataset.Frame) (*dataset.Frame, error) {
	if err := e.Fit(f); err != nil {
		return nil, err
	}
	return e.Transform(f)
}

// FeatureNames returns the expanded column layout for a fitted encoder
// applied to the given input columns.
func (e *OneHotEncoder) FeatureNames(input []string) ([]string, error) {
	if !e.IsFitted() {
		return nil, errors.NewNotFittedError("OneHotEncoder", "FeatureNames")
	}
	categorical := make(map[string]bool, len(e.Columns))
	for _, col := range e.Columns {
		categorical[col] = true
	}
	var names []string
	for _, name := range input {
		if !categorical[name] {
			names = append(names, name)
			continue
		}
		for _, level := range e.Categories[name] {
			names = append(names, name+"_"+level)
		}
	}
	return names, nil
}
