package dataset

import (
	"encoding/csv"
	"io"
	"os"
	"path/filepath"
	"strconv"

	"github.com/mlopsbox/dmpipe/pkg/errors"
)

// Load reads a CSV file with a header row into a frame.
func Load(path string) (*Frame, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrapf(err, "dataset: open %s", path)
	}
	defer file.Close()
	return Read(file)
}

// Read reads CSV data with a header row into a frame.
func Read(r io.Reader) (*Frame, error) {
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true
	reader.ReuseRecord = false

	records, err := reader.ReadAll()
	if err != nil {
		return nil, errors.Wrap(err, "dataset: parse csv")
	}
	if len(records) == 0 {
		return nil, errors.Wrap(errors.ErrEmptyData, "dataset: read")
	}
	return FromRecords(records[0], records[1:])
}

// WriteFile writes the frame as CSV to path, creating parent directories.
// The output is headerless unless header is true; partition artifacts are
// consumed by the training service without a header row.
func (f *Frame) WriteFile(path string, header bool) error {
	if dir := filepath.Dir(path); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return errors.Wrapf(err, "dataset: create directory %s", dir)
		}
	}
	file, err := os.Create(path)
	if err != nil {
		return errors.Wrapf(err, "dataset: create %s", path)
	}
	defer file.Close()
	if err := f.Write(file, header); err != nil {
		return err
	}
	return errors.Wrapf(file.Sync(), "dataset: sync %s", path)
}

// Write writes the frame as CSV to w.
func (f *Frame) Write(w io.Writer, header bool) error {
	writer := csv.NewWriter(w)
	if header {
		if err := writer.Write(f.names); err != nil {
			return errors.Wrap(err, "dataset: write header")
		}
	}
	if err := writer.WriteAll(f.Records()); err != nil {
		return errors.Wrap(err, "dataset: write rows")
	}
	writer.Flush()
	return errors.Wrap(writer.Error(), "dataset: flush")
}

// LoadRecords reads a headerless CSV file, such as the feature-only test
// partition, as raw string records.
func LoadRecords(path string) ([][]string, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrapf(err, "dataset: open %s", path)
	}
	defer file.Close()

	reader := csv.NewReader(file)
	reader.TrimLeadingSpace = true
	records, err := reader.ReadAll()
	if err != nil {
		return nil, errors.Wrapf(err, "dataset: parse %s", path)
	}
	if len(records) == 0 {
		return nil, errors.Wrapf(errors.ErrEmptyData, "dataset: read %s", path)
	}
	return records, nil
}

// LoadColumn reads a headerless single-column CSV of floats, such as the
// test label file or an endpoint prediction file.
func LoadColumn(path string) ([]float64, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrapf(err, "dataset: open %s", path)
	}
	defer file.Close()

	reader := csv.NewReader(file)
	reader.TrimLeadingSpace = true
	records, err := reader.ReadAll()
	if err != nil {
		return nil, errors.Wrapf(err, "dataset: parse %s", path)
	}

	values := make([]float64, 0, len(records))
	for i, row := range records {
		if len(row) != 1 {
			return nil, errors.NewDimensionError("LoadColumn", 1, len(row), 1)
		}
		v, err := strconv.ParseFloat(row[0], 64)
		if err != nil {
			return nil, errors.Wrapf(err, "dataset: %s row %d", path, i)
		}
		values = append(values, v)
	}
	return values, nil
}
