// Package dataset provides a small column-oriented table for CSV data.
//
// All preprocessing in dmpipe is column-name based, so Frame keeps cells as
// strings in named columns and leaves value interpretation (numeric
// indicators, category levels) to the caller. Transformations return new
// frames; source frames are never mutated.
package dataset

import (
	"sort"

	"github.com/mlopsbox/dmpipe/pkg/errors"
)

// Frame is an ordered collection of named string columns of equal length.
type Frame struct {
	names   []string
	index   map[string]int
	columns [][]string
	rows    int
}

// New creates an empty frame with no columns.
func New() *Frame {
	return &Frame{index: make(map[string]int)}
}

// FromRecords builds a frame from a header and row-major records.
// Every row must have exactly len(header) fields and header names must be
// unique.
func FromRecords(header []string, records [][]string) (*Frame, error) {
	f := New()
	f.rows = len(records)
	for j, name := range header {
		if _, dup := f.index[name]; dup {
			return nil, errors.NewValueError("FromRecords", "duplicate column name "+name)
		}
		col := make([]string, len(records))
		for i, row := range records {
			if len(row) != len(header) {
				return nil, errors.NewDimensionError("FromRecords", len(header), len(row), 1)
			}
			col[i] = row[j]
		}
		f.index[name] = len(f.names)
		f.names = append(f.names, name)
		f.columns = append(f.columns, col)
	}
	return f, nil
}

// NumRows returns the number of rows.
func (f *Frame) NumRows() int { return f.rows }

// NumCols returns the number of columns.
func (f *Frame) NumCols() int { return len(f.names) }

// Columns returns the column names in order. The slice is a copy.
func (f *Frame) Columns() []string {
	out := make([]string, len(f.names))
	copy(out, f.names)
	return out
}

// HasColumn reports whether the frame has a column with the given name.
func (f *Frame) HasColumn(name string) bool {
	_, ok := f.index[name]
	return ok
}

// Column returns the values of the named column. The slice is a copy.
func (f *Frame) Column(name string) ([]string, error) {
	j, ok := f.index[name]
	if !ok {
		return nil, errors.NewSchemaError("Frame.Column", name)
	}
	out := make([]string, f.rows)
	copy(out, f.columns[j])
	return out, nil
}

// AddColumn returns a new frame with the column appended.
func (f *Frame) AddColumn(name string, values []string) (*Frame, error) {
	if _, dup := f.index[name]; dup {
		return nil, errors.NewValueError("Frame.AddColumn", "duplicate column name "+name)
	}
	if len(f.names) > 0 && len(values) != f.rows {
		return nil, errors.NewDimensionError("Frame.AddColumn", f.rows, len(values), 0)
	}
	out := f.shallowCopy()
	if len(out.names) == 0 {
		out.rows = len(values)
	}
	col := make([]string, len(values))
	copy(col, values)
	out.index[name] = len(out.names)
	out.names = append(out.names, name)
	out.columns = append(out.columns, col)
	return out, nil
}

// Drop returns a new frame without the named columns. Dropping an unknown
// column is a schema error.
func (f *Frame) Drop(names ...string) (*Frame, error) {
	dropped := make(map[string]bool, len(names))
	for _, name := range names {
		if !f.HasColumn(name) {
			return nil, errors.NewSchemaError("Frame.Drop", name)
		}
		dropped[name] = true
	}
	keep := make([]string, 0, len(f.names)-len(dropped))
	for _, name := range f.names {
		if !dropped[name] {
			keep = append(keep, name)
		}
	}
	return f.Select(keep...)
}

// Select returns a new frame containing the named columns in the given
// order.
func (f *Frame) Select(names ...string) (*Frame, error) {
	out := New()
	out.rows = f.rows
	for _, name := range names {
		j, ok := f.index[name]
		if !ok {
			return nil, errors.NewSchemaError("Frame.Select", name)
		}
		if _, dup := out.index[name]; dup {
			return nil, errors.NewValueError("Frame.Select", "duplicate column name "+name)
		}
		out.index[name] = len(out.names)
		out.names = append(out.names, name)
		out.columns = append(out.columns, f.columns[j])
	}
	return out, nil
}

// Concat returns a new frame with other's columns appended column-wise.
// Both frames must have the same row count and no overlapping names.
func (f *Frame) Concat(other *Frame) (*Frame, error) {
	if f.rows != other.rows {
		return nil, errors.NewDimensionError("Frame.Concat", f.rows, other.rows, 0)
	}
	out := f.shallowCopy()
	for j, name := range other.names {
		if _, dup := out.index[name]; dup {
			return nil, errors.NewValueError("Frame.Concat", "duplicate column name "+name)
		}
		out.index[name] = len(out.names)
		out.names = append(out.names, name)
		out.columns = append(out.columns, other.columns[j])
	}
	return out, nil
}

// Subset returns a new frame containing the rows at the given indices, in
// the given order.
func (f *Frame) Subset(indices []int) (*Frame, error) {
	for _, i := range indices {
		if i < 0 || i >= f.rows {
			return nil, errors.NewValidationError("indices", "row index out of range", i)
		}
	}
	out := New()
	out.rows = len(indices)
	for j, name := range f.names {
		col := make([]string, len(indices))
		for i, idx := range indices {
			col[i] = f.columns[j][idx]
		}
		out.index[name] = len(out.names)
		out.names = append(out.names, name)
		out.columns = append(out.columns, col)
	}
	return out, nil
}

// Rename returns a new frame with every column name passed through mapper.
// Mapped names must stay unique.
func (f *Frame) Rename(mapper func(string) string) (*Frame, error) {
	out := New()
	out.rows = f.rows
	for j, name := range f.names {
		mapped := mapper(name)
		if _, dup := out.index[mapped]; dup {
			return nil, errors.NewValueError("Frame.Rename", "column names collide after rename: "+mapped)
		}
		out.index[mapped] = len(out.names)
		out.names = append(out.names, mapped)
		out.columns = append(out.columns, f.columns[j])
	}
	return out, nil
}

// Apply returns a new frame with fn applied to every cell.
func (f *Frame) Apply(fn func(string) string) *Frame {
	out := New()
	out.rows = f.rows
	for j, name := range f.names {
		col := make([]string, f.rows)
		for i, v := range f.columns[j] {
			col[i] = fn(v)
		}
		out.index[name] = len(out.names)
		out.names = append(out.names, name)
		out.columns = append(out.columns, col)
	}
	return out
}

// Levels returns the sorted distinct values of the named column.
func (f *Frame) Levels(name string) ([]string, error) {
	j, ok := f.index[name]
	if !ok {
		return nil, errors.NewSchemaError("Frame.Levels", name)
	}
	seen := make(map[string]bool)
	var levels []string
	for _, v := range f.columns[j] {
		if !seen[v] {
			seen[v] = true
			levels = append(levels, v)
		}
	}
	sort.Strings(levels)
	return levels, nil
}

// Records returns the frame as row-major records.
func (f *Frame) Records() [][]string {
	records := make([][]string, f.rows)
	for i := 0; i < f.rows; i++ {
		row := make([]string, len(f.names))
		for j := range f.names {
			row[j] = f.columns[j][i]
		}
		records[i] = row
	}
	return records
}

func (f *Frame) shallowCopy() *Frame {
	out := New()
	out.rows = f.rows
	out.names = make([]string, len(f.names))
	copy(out.names, f.names)
	out.columns = make([][]string, len(f.columns))
	copy(out.columns, f.columns)
	for name, j := range f.index {
		out.index[name] = j
	}
	return out
}
