package preprocessing

import (
	"log/slog"
	"path/filepath"
	"strings"
	"time"

	"github.com/mlopsbox/dmpipe/dataset"
	"github.com/mlopsbox/dmpipe/pkg/errors"
	"github.com/mlopsbox/dmpipe/pkg/log"
)

// Defaults mirror the managed processing container layout the pipeline
// runs in.
const (
	DefaultInputDir  = "/opt/ml/processing/input"
	DefaultInputFile = "bank-additional-full.csv"
	DefaultOutputDir = "/opt/ml/processing/output"
	DefaultLabel     = "y"
)

// DefaultCategoricalColumns is the comma-separated default accepted on the
// command line.
const DefaultCategoricalColumns = "job,marital,education,default,housing,loan,contact,month,day_of_week,poutcome,y"

// DefaultDropColumns are the six leakage/economic columns removed before
// encoding; duration is known only after the outcome, the rest are
// macro-economic indicators unavailable at prediction time. Names are
// post-normalization.
var DefaultDropColumns = []string{
	"duration",
	"emp_var_rate",
	"cons_price_idx",
	"cons_conf_idx",
	"euribor3m",
	"nr_employed",
}

// Options configures a preprocessing run.
type Options struct {
	InputDir           string
	InputFile          string
	OutputDir          string
	CategoricalColumns []string
	DropColumns        []string
	Label              string
	PositiveValue      string
	NegativeValue      string
	Seed               int64
}

// DefaultOptions returns the options used by the standard bank-marketing
// run.
func DefaultOptions() Options {
	return Options{
		InputDir:           DefaultInputDir,
		InputFile:          DefaultInputFile,
		OutputDir:          DefaultOutputDir,
		CategoricalColumns: strings.Split(DefaultCategoricalColumns, ","),
		DropColumns:        append([]string(nil), DefaultDropColumns...),
		Label:              DefaultLabel,
		PositiveValue:      "yes",
		NegativeValue:      "no",
		Seed:               DefaultSeed,
	}
}

// Result summarizes a completed preprocessing run.
type Result struct {
	TrainRows      int
	ValidationRows int
	TestRows       int
	FeatureColumns []string

	TrainPath      string
	ValidationPath string
	TestXPath      string
	TestYPath      string
}

// Pipeline is the single-shot batch transformation. It has no state beyond
// its options; errors propagate immediately and partial outputs are left
// in place.
type Pipeline struct {
	opts   Options
	logger *slog.Logger
}

// NewPipeline creates a pipeline with the given options.
func NewPipeline(opts Options) *Pipeline {
	return &Pipeline{
		opts:   opts,
		logger: slog.Default().With(log.PhaseKey, "preprocess"),
	}
}

// Run executes load, clean, derive, prune, encode, split and write.
func (p *Pipeline) Run() (*Result, error) {
	start := time.Now()
	opts := p.opts

	inputPath := filepath.Join(opts.InputDir, opts.InputFile)
	raw, err := dataset.Load(inputPath)
	if err != nil {
		return nil, err
	}
	p.logger.Info("loaded dataset",
		log.RowsKey, raw.NumRows(),
		log.ColumnsKey, raw.NumCols(),
		"path", inputPath,
	)

	cleaned, err := Clean(raw)
	if err != nil {
		return nil, err
	}

	derived, err := DeriveIndicators(cleaned)
	if err != nil {
		return nil, err
	}

	pruned, err := derived.Drop(opts.DropColumns...)
	if err != nil {
		return nil, err
	}

	encoder := NewOneHotEncoder(opts.CategoricalColumns)
	encoded, err := encoder.FitTransform(pruned)
	if err != nil {
		return nil, err
	}
	p.logger.Info("encoded categorical columns",
		log.ColumnsKey, encoded.NumCols(),
		"categorical", len(opts.CategoricalColumns),
	)

	positive := opts.Label + "_" + opts.PositiveValue
	negative := opts.Label + "_" + opts.NegativeValue

	// The paired negative indicator is redundant with the positive one and
	// is dropped from every artifact.
	modelData, err := encoded.Drop(negative)
	if err != nil {
		return nil, err
	}
	if !modelData.HasColumn(positive) {
		return nil, errors.NewSchemaError("Pipeline.Run", positive)
	}

	train, validation, test, err := NewSplitter(opts.Seed).Split(modelData)
	if err != nil {
		return nil, err
	}
	p.logger.Info("split dataset",
		log.SeedKey, opts.Seed,
		"train_rows", train.NumRows(),
		"validation_rows", validation.NumRows(),
		"test_rows", test.NumRows(),
	)

	var features []string
	for _, name := range modelData.Columns() {
		if name != positive {
			features = append(features, name)
		}
	}
	labelFirst := append([]string{positive}, features...)

	result := &Result{
		TrainRows:      train.NumRows(),
		ValidationRows: validation.NumRows(),
		TestRows:       test.NumRows(),
		FeatureColumns: features,
		TrainPath:      filepath.Join(opts.OutputDir, "train", "train.csv"),
		ValidationPath: filepath.Join(opts.OutputDir, "validation", "validation.csv"),
		TestXPath:      filepath.Join(opts.OutputDir, "test", "test_x.csv"),
		TestYPath:      filepath.Join(opts.OutputDir, "test", "test_y.csv"),
	}

	if err := writeSelection(train, labelFirst, result.TrainPath); err != nil {
		return nil, err
	}
	if err := writeSelection(validation, labelFirst, result.ValidationPath); err != nil {
		return nil, err
	}
	if err := writeSelection(test, features, result.TestXPath); err != nil {
		return nil, err
	}
	if err := writeSelection(test, []string{positive}, result.TestYPath); err != nil {
		return nil, err
	}

	p.logger.Info("wrote partitions",
		"output_dir", opts.OutputDir,
		log.DurationMsKey, time.Since(start).Milliseconds(),
	)
	return result, nil
}

func writeSelection(f *dataset.Frame, columns []string, path string) error {
	selected, err := f.Select(columns...)
	if err != nil {
		return err
	}
	return selected.WriteFile(path, false)
}
