package preprocessing

import (
	"encoding/csv"
	"fmt"
	"math/rand"
	"os"
	"path/filepath"
	"strconv"
	"testing"
)

// writeBankSample writes a small raw CSV in the source dataset's shape:
// dotted column names, dotted category values and the pdays sentinel.
func writeBankSample(t *testing.T, dir string, rows int) {
	t.Helper()

	header := []string{
		"age", "job", "marital", "education", "default", "housing", "loan",
		"contact", "month", "day_of_week", "duration", "campaign", "pdays",
		"previous", "poutcome", "emp.var.rate", "cons.price.idx",
		"cons.conf.idx", "euribor3m", "nr.employed", "y",
	}
	jobs := []string{"admin.", "services", "student", "retired", "unemployed", "blue-collar"}
	education := []string{"university.degree", "basic.4y", "high.school"}
	months := []string{"may", "jun", "jul"}
	days := []string{"mon", "tue", "wed"}
	outcomes := []string{"nonexistent", "failure", "success"}

	rng := rand.New(rand.NewSource(7))
	records := [][]string{header}
	for i := 0; i < rows; i++ {
		pdays := "999"
		if rng.Intn(4) == 0 {
			pdays = strconv.Itoa(rng.Intn(20))
		}
		label := "no"
		if rng.Intn(5) == 0 {
			label = "yes"
		}
		records = append(records, []string{
			strconv.Itoa(20 + rng.Intn(60)),
			jobs[rng.Intn(len(jobs))],
			"married",
			education[rng.Intn(len(education))],
			"no",
			"yes",
			"no",
			"cellular",
			months[rng.Intn(len(months))],
			days[rng.Intn(len(days))],
			strconv.Itoa(rng.Intn(1000)),
			strconv.Itoa(1 + rng.Intn(5)),
			pdays,
			strconv.Itoa(rng.Intn(3)),
			outcomes[rng.Intn(len(outcomes))],
			fmt.Sprintf("%.1f", rng.Float64()*2-1),
			fmt.Sprintf("%.3f", 92+rng.Float64()*3),
			fmt.Sprintf("%.1f", -45+rng.Float64()*10),
			fmt.Sprintf("%.3f", rng.Float64()*5),
			fmt.Sprintf("%.1f", 5000+rng.Float64()*200),
			label,
		})
	}

	file, err := os.Create(filepath.Join(dir, DefaultInputFile))
	if err != nil {
		t.Fatal(err)
	}
	defer file.Close()
	w := csv.NewWriter(file)
	if err := w.WriteAll(records); err != nil {
		t.Fatal(err)
	}
}

func readCSV(t *testing.T, path string) [][]string {
	t.Helper()
	file, err := os.Open(path)
	if err != nil {
		t.Fatalf("open %s: %v", path, err)
	}
	defer file.Close()
	records, err := csv.NewReader(file).ReadAll()
	if err != nil {
		t.Fatalf("parse %s: %v", path, err)
	}
	return records
}

func TestPipelineRun(t *testing.T) {
	const rows = 200
	inputDir := t.TempDir()
	outputDir := t.TempDir()
	writeBankSample(t, inputDir, rows)

	opts := DefaultOptions()
	opts.InputDir = inputDir
	opts.OutputDir = outputDir

	result, err := NewPipeline(opts).Run()
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	if got := result.TrainRows + result.ValidationRows + result.TestRows; got != rows {
		t.Errorf("partition rows sum to %d, want %d", got, rows)
	}
	if result.TrainRows != 140 || result.ValidationRows != 40 || result.TestRows != 20 {
		t.Errorf("partition sizes = %d/%d/%d, want 140/40/20",
			result.TrainRows, result.ValidationRows, result.TestRows)
	}

	train := readCSV(t, result.TrainPath)
	if len(train) != result.TrainRows {
		t.Errorf("train file has %d rows, want %d", len(train), result.TrainRows)
	}
	// Label first, then features, no header row.
	wantWidth := 1 + len(result.FeatureColumns)
	if len(train[0]) != wantWidth {
		t.Errorf("train row width = %d, want %d", len(train[0]), wantWidth)
	}
	if train[0][0] != "0" && train[0][0] != "1" {
		t.Errorf("train label cell = %q, want an indicator", train[0][0])
	}

	testX := readCSV(t, result.TestXPath)
	testY := readCSV(t, result.TestYPath)
	if len(testX) != result.TestRows || len(testY) != result.TestRows {
		t.Errorf("test files have %d/%d rows, want %d", len(testX), len(testY), result.TestRows)
	}
	if len(testX[0]) != len(result.FeatureColumns) {
		t.Errorf("test_x row width = %d, want %d", len(testX[0]), len(result.FeatureColumns))
	}
	if len(testY[0]) != 1 {
		t.Errorf("test_y row width = %d, want 1", len(testY[0]))
	}
}

func TestPipelinePrunesAndDerives(t *testing.T) {
	inputDir := t.TempDir()
	outputDir := t.TempDir()
	writeBankSample(t, inputDir, 100)

	opts := DefaultOptions()
	opts.InputDir = inputDir
	opts.OutputDir = outputDir

	result, err := NewPipeline(opts).Run()
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	features := make(map[string]bool, len(result.FeatureColumns))
	for _, name := range result.FeatureColumns {
		features[name] = true
	}

	for _, dropped := range DefaultDropColumns {
		if features[dropped] {
			t.Errorf("dropped column %q survived", dropped)
		}
	}
	for _, derived := range []string{"no_previous_contact", "not_working"} {
		if !features[derived] {
			t.Errorf("derived column %q is missing", derived)
		}
	}
	if features["y_yes"] || features["y_no"] {
		t.Error("label indicators must not appear among features")
	}
	for _, name := range result.FeatureColumns {
		if name == "job" || name == "education" {
			t.Errorf("categorical column %q was not expanded", name)
		}
	}
	// Dotted source categories come through underscored.
	if !features["education_university_degree"] {
		t.Errorf("expected education_university_degree among features, got %v", result.FeatureColumns)
	}
	if !features["job_admin"] {
		t.Error("expected job_admin among features")
	}
}

func TestPipelineMissingInput(t *testing.T) {
	opts := DefaultOptions()
	opts.InputDir = t.TempDir()
	opts.OutputDir = t.TempDir()
	if _, err := NewPipeline(opts).Run(); err == nil {
		t.Error("missing input file should fail")
	}
}
