package workflow

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/kingrea/tree-sampler/internal/catalog"
)

// Field is one text input on a prompt.
type Field struct {
	Key   string
	Label string
}

// Prompt asks the operator for one step's input.
type Prompt struct {
	Step    Step
	Title   string
	Lines   []string
	Choices []string
	Multi   bool
	Fields  []Field
	// Problem carries the recoverable error from the previous attempt.
	Problem string
}

// Answer is what the operator submitted.
type Answer struct {
	Choices []string
	Auto    bool
	Values  map[string]string
}

// Choice returns the single selected option.
func (a Answer) Choice() string {
	if len(a.Choices) == 0 {
		return ""
	}
	return a.Choices[0]
}

// Prompter presents a prompt and returns the operator's submission. It is
// the only thing the core needs from a presentation layer.
type Prompter interface {
	Ask(ctx context.Context, p Prompt) (Answer, error)
}

// Driver runs a whole session against a Prompter, re-prompting on
// recoverable errors and aborting on anything else.
type Driver struct {
	wf       *Workflow
	prompter Prompter
}

// NewDriver pairs a workflow with a presentation layer.
func NewDriver(wf *Workflow, prompter Prompter) *Driver {
	return &Driver{wf: wf, prompter: prompter}
}

// Run advances st until it reaches Report.
func (d *Driver) Run(ctx context.Context, st State) (State, error) {
	problem := ""
	for !st.Step.IsTerminal() {
		if err := ctx.Err(); err != nil {
			return st, err
		}
		prompt, err := d.PromptFor(st)
		if err != nil {
			return st, err
		}
		prompt.Problem = problem
		answer, err := d.prompter.Ask(ctx, prompt)
		if err != nil {
			return st, fmt.Errorf("workflow: %s: %w", st.Step, err)
		}
		next, err := d.Apply(st, answer)
		if err != nil {
			if IsRecoverable(err) {
				problem = err.Error()
				continue
			}
			return st, err
		}
		problem = ""
		st = next
	}
	return st, nil
}

// PromptFor builds the prompt for the step st is waiting on.
func (d *Driver) PromptFor(st State) (Prompt, error) {
	p := Prompt{Step: st.Step, Title: st.Step.Title()}
	switch st.Step {
	case StepSelectArea:
		for _, a := range d.wf.Areas() {
			p.Choices = append(p.Choices, string(a))
		}
		p.Lines = []string{"Choose an Area"}
	case StepSelectAgeBucket:
		for _, b := range d.wf.AgeBuckets() {
			p.Choices = append(p.Choices, string(b))
		}
		p.Lines = []string{"Choose Age Bucket"}
	case StepSampleGardens:
		candidates, err := d.wf.Candidates(st)
		if err != nil {
			return Prompt{}, err
		}
		p.Multi = true
		p.Lines = []string{
			fmt.Sprintf("Total Matching Gardens: %d", len(candidates)),
			fmt.Sprintf("Ideal Sample Size: %d", st.IdealSampleSize),
		}
		for _, c := range candidates {
			p.Choices = append(p.Choices, strconv.Itoa(c.ID))
		}
	case StepEnterMeasurements:
		if err := require(st, StepEnterMeasurements); err != nil {
			return Prompt{}, err
		}
		for _, plot := range st.Selection {
			p.Lines = append(p.Lines, PlotHeading(plot, st.TreePlan[plot.ID]))
		}
		for _, row := range st.FormRows() {
			p.Fields = append(p.Fields,
				Field{Key: FieldKey(row.Key(), "height"), Label: fmt.Sprintf("Garden %d - Tree %d - Height (m)", row.Plot.ID, row.TreeNumber)},
				Field{Key: FieldKey(row.Key(), "yield"), Label: fmt.Sprintf("Garden %d - Tree %d - Yield (kg)", row.Plot.ID, row.TreeNumber)},
			)
		}
	default:
		return Prompt{}, &PreconditionError{Step: st.Step, Current: st.Step}
	}
	return p, nil
}

// Apply feeds an answer into the step st is waiting on.
func (d *Driver) Apply(st State, answer Answer) (State, error) {
	switch st.Step {
	case StepSelectArea:
		return d.wf.SelectArea(st, catalog.Area(answer.Choice()))
	case StepSelectAgeBucket:
		return d.wf.SelectAgeBucket(st, catalog.AgeBucket(answer.Choice()))
	case StepSampleGardens:
		if answer.Auto {
			return d.wf.AutoSelect(st)
		}
		ids, err := ParsePlotIDs(answer.Choices)
		if err != nil {
			return st, err
		}
		return d.wf.SelectPlots(st, ids)
	case StepEnterMeasurements:
		readings := make(map[TreeKey]Reading)
		for _, row := range st.FormRows() {
			readings[row.Key()] = Reading{
				Height: answer.Values[FieldKey(row.Key(), "height")],
				Yield:  answer.Values[FieldKey(row.Key(), "yield")],
			}
		}
		return d.wf.EnterMeasurements(st, readings)
	default:
		return st, &PreconditionError{Step: st.Step, Current: st.Step}
	}
}

// PlotHeading is the per-garden header shown above its tree inputs.
func PlotHeading(p catalog.Plot, trees int) string {
	return fmt.Sprintf("Garden %d | Area: %s ha | Trees: %d", p.ID, FormatHectares(p.AreaHa), trees)
}

// FormatHectares prints an area without trailing zeros but always with a
// decimal point, e.g. 2 -> "2.0", 2.35 -> "2.35".
func FormatHectares(ha float64) string {
	s := strconv.FormatFloat(ha, 'f', -1, 64)
	if !strings.ContainsAny(s, ".eE") {
		s += ".0"
	}
	return s
}

// FieldKey names the input for one tree measurement, e.g. "7_3_height".
func FieldKey(k TreeKey, field string) string {
	return fmt.Sprintf("%d_%d_%s", k.PlotID, k.TreeNumber, field)
}

// ParsePlotIDs converts submitted id strings. Non-numeric ids are invalid input.
func ParsePlotIDs(values []string) ([]int, error) {
	ids := make([]int, 0, len(values))
	for _, v := range values {
		id, err := strconv.Atoi(strings.TrimSpace(v))
		if err != nil {
			return nil, fmt.Errorf("workflow: garden id %q: %w", v, catalog.ErrInvalidInput)
		}
		ids = append(ids, id)
	}
	return ids, nil
}
