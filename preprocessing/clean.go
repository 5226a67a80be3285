// Package preprocessing implements the tabular transformation for the bank
// direct-marketing dataset: value normalization, indicator features, column
// pruning, one-hot encoding and the deterministic three-way split.
package preprocessing

import (
	"regexp"

	"github.com/mlopsbox/dmpipe/dataset"
)

// The source data encodes categories with embedded periods ("admin.",
// "university.degree"). Periods collide with the dot-separated feature
// names the training container derives, so every period becomes an
// underscore and the artifact underscore left at end-of-value is stripped.
// The two-step regex form is deliberate; it mirrors the dataset's known
// quirks and must not be generalized.
var (
	dotPattern                = regexp.MustCompile(`\.`)
	trailingUnderscorePattern = regexp.MustCompile(`_$`)
)

// NormalizeValue rewrites a single cell: "admin." -> "admin",
// "a.b.c" -> "a_b_c".
func NormalizeValue(s string) string {
	s = dotPattern.ReplaceAllString(s, "_")
	return trailingUnderscorePattern.ReplaceAllString(s, "")
}

// NormalizeName rewrites a column name so no period survives into later
// name-based lookups: "emp.var.rate" -> "emp_var_rate".
func NormalizeName(s string) string {
	return dotPattern.ReplaceAllString(s, "_")
}

// Clean returns a frame with all cell values and column names normalized.
// Column names that collide after normalization are a fatal error.
func Clean(f *dataset.Frame) (*dataset.Frame, error) {
	return f.Apply(NormalizeValue).Rename(NormalizeName)
}
