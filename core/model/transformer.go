package model

import "github.com/mlopsbox/dmpipe/dataset"

// Transformer is the interface for table transformations that learn
// parameters from data.
type Transformer interface {
	// Fit learns the parameters needed for the transformation.
	Fit(f *dataset.Frame) error

	// Transform applies the learned transformation.
	Transform(f *dataset.Frame) (*dataset.Frame, error)

	// FitTransform runs Fit and Transform in one step.
	FitTransform(f *dataset.Frame) (*dataset.Frame, error)
}
