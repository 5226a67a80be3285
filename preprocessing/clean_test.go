package preprocessing

import (
	"reflect"
	"testing"

	"github.com/mlopsbox/dmpipe/dataset"
)

func TestNormalizeValue(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"admin.", "admin"},
		{"university.degree", "university_degree"},
		{"a.b.c", "a_b_c"},
		{"services", "services"},
		{"", ""},
		{".", ""},
		{"basic.4y", "basic_4y"},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			if got := NormalizeValue(tt.in); got != tt.want {
				t.Errorf("NormalizeValue(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestNormalizeName(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"emp.var.rate", "emp_var_rate"},
		{"cons.price.idx", "cons_price_idx"},
		{"nr.employed", "nr_employed"},
		{"age", "age"},
	}
	for _, tt := range tests {
		if got := NormalizeName(tt.in); got != tt.want {
			t.Errorf("NormalizeName(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestClean(t *testing.T) {
	f, err := dataset.FromRecords(
		[]string{"job", "emp.var.rate"},
		[][]string{
			{"admin.", "1.1"},
			{"blue-collar", "-0.1"},
		},
	)
	if err != nil {
		t.Fatalf("FromRecords failed: %v", err)
	}

	out, err := Clean(f)
	if err != nil {
		t.Fatalf("Clean failed: %v", err)
	}
	if want := []string{"job", "emp_var_rate"}; !reflect.DeepEqual(out.Columns(), want) {
		t.Errorf("columns = %v, want %v", out.Columns(), want)
	}
	jobs, _ := out.Column("job")
	if want := []string{"admin", "blue-collar"}; !reflect.DeepEqual(jobs, want) {
		t.Errorf("job values = %v, want %v", jobs, want)
	}
	// Numeric cells pass through the same rewrite. 1.1 -> 1_1 is intended:
	// those columns are pruned before any numeric use.
	rates, _ := out.Column("emp_var_rate")
	if want := []string{"1_1", "-0_1"}; !reflect.DeepEqual(rates, want) {
		t.Errorf("rate values = %v, want %v", rates, want)
	}
}
