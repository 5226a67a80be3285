package preprocessing

import (
	"github.com/mlopsbox/dmpipe/dataset"
)

const (
	// PDaysColumn is the days-since-last-contact field.
	PDaysColumn = "pdays"
	// PDaysSentinel marks a customer never contacted before.
	PDaysSentinel = "999"
	// JobColumn is the employment category field.
	JobColumn = "job"
)

// notWorkingJobs are the employment categories treated as "not currently
// employed".
var notWorkingJobs = map[string]bool{
	"student":    true,
	"retired":    true,
	"unemployed": true,
}

// DeriveIndicators appends the two synthetic boolean-as-integer columns:
// no_previous_contact (pdays equals the 999 sentinel) and not_working (job
// in {student, retired, unemployed}).
func DeriveIndicators(f *dataset.Frame) (*dataset.Frame, error) {
	pdays, err := f.Column(PDaysColumn)
	if err != nil {
		return nil, err
	}
	jobs, err := f.Column(JobColumn)
	if err != nil {
		return nil, err
	}

	noContact := make([]string, len(pdays))
	for i, v := range pdays {
		noContact[i] = boolFlag(v == PDaysSentinel)
	}
	notWorking := make([]string, len(jobs))
	for i, v := range jobs {
		notWorking[i] = boolFlag(notWorkingJobs[v])
	}

	out, err := f.AddColumn("no_previous_contact", noContact)
	if err != nil {
		return nil, err
	}
	return out.AddColumn("not_working", notWorking)
}

func boolFlag(b bool) string {
	if b {
		return "1"
	}
	return "0"
}
