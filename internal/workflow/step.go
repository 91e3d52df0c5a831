// internal/workflow/step.go
//
// The five steps of a sampling session, in the only order they can run.

package workflow

import "fmt"

// Step identifies where a session currently is.
type Step int

const (
	StepSelectArea Step = iota + 1
	StepSelectAgeBucket
	StepSampleGardens
	StepEnterMeasurements
	StepReport
)

// String returns the state name used in logs.
func (s Step) String() string {
	switch s {
	case StepSelectArea:
		return "SelectArea"
	case StepSelectAgeBucket:
		return "SelectAgeBucket"
	case StepSampleGardens:
		return "SampleGardens"
	case StepEnterMeasurements:
		return "EnterMeasurements"
	case StepReport:
		return "Report"
	default:
		return fmt.Sprintf("Step(%d)", int(s))
	}
}

// Title returns the operator-facing heading for the step.
func (s Step) Title() string {
	switch s {
	case StepSelectArea:
		return "Step 1: Select Area"
	case StepSelectAgeBucket:
		return "Step 2: Select Age Bucket"
	case StepSampleGardens:
		return "Step 3: Garden Sampling"
	case StepEnterMeasurements:
		return "Step 4: Enter Tree Observations"
	case StepReport:
		return "Step 5: Report"
	default:
		return s.String()
	}
}

// Next returns the following step. Report is terminal.
func (s Step) Next() Step {
	if s >= StepReport {
		return StepReport
	}
	return s + 1
}

// Prev returns the preceding step, or false from the first step.
func (s Step) Prev() (Step, bool) {
	if s <= StepSelectArea {
		return StepSelectArea, false
	}
	return s - 1, true
}

// IsTerminal reports whether no further input is accepted.
func (s Step) IsTerminal() bool {
	return s == StepReport
}

// Valid reports whether s is one of the five steps.
func (s Step) Valid() bool {
	return s >= StepSelectArea && s <= StepReport
}
