package workflow

import (
	"sort"
	"time"

	"github.com/kingrea/tree-sampler/internal/catalog"
)

// TreePlan maps a plot id to the number of trees that must be measured there.
type TreePlan map[int]int

// Total sums the required trees across all plots.
func (p TreePlan) Total() int {
	total := 0
	for _, n := range p {
		total += n
	}
	return total
}

// Clone returns a copy; a nil plan stays nil.
func (p TreePlan) Clone() TreePlan {
	if p == nil {
		return nil
	}
	out := make(TreePlan, len(p))
	for id, n := range p {
		out[id] = n
	}
	return out
}

// PlotIDs returns the planned ids in ascending order.
func (p TreePlan) PlotIDs() []int {
	ids := make([]int, 0, len(p))
	for id := range p {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	return ids
}

// DeriveTreePlan applies the tree count rule to every selected plot.
func DeriveTreePlan(selection []catalog.Plot, density float64) (TreePlan, error) {
	plan := make(TreePlan, len(selection))
	for _, p := range selection {
		n, err := catalog.TreeCountWithDensity(p.AreaHa, density)
		if err != nil {
			return nil, err
		}
		plan[p.ID] = n
	}
	return plan, nil
}

// TreeKey addresses one tree on one plot.
type TreeKey struct {
	PlotID     int
	TreeNumber int
}

// Reading is the raw text an operator typed for one tree. The core never
// converts it to a number.
type Reading struct {
	Height string `yaml:"height"`
	Yield  string `yaml:"yield"`
}

// Measurement is one recorded (plot, tree) observation.
type Measurement struct {
	Region     catalog.Area
	AgeBucket  catalog.AgeBucket
	PlotID     int
	PlotAreaHa float64
	TreeNumber int
	Height     string
	Yield      string
}

// FormRow is one line of the step 4 entry form.
type FormRow struct {
	Plot       catalog.Plot
	TreeNumber int
	TreeCount  int
}

// Key returns the row's tree address.
func (r FormRow) Key() TreeKey {
	return TreeKey{PlotID: r.Plot.ID, TreeNumber: r.TreeNumber}
}

// State is everything one session has collected so far. Step functions take a
// State and return a new one; the caller owns where it lives.
type State struct {
	SessionID       string
	StartedAt       time.Time
	Step            Step
	Area            catalog.Area
	AgeBucket       catalog.AgeBucket
	IdealSampleSize int
	Selection       []catalog.Plot
	TreePlan        TreePlan
	Measurements    []Measurement
}

// Segment returns the session's (area, age bucket) pair.
func (s State) Segment() catalog.Segment {
	return catalog.Segment{Area: s.Area, AgeBucket: s.AgeBucket}
}

// Clone deep-copies the slices and the plan so callers can't alias each other.
func (s State) Clone() State {
	out := s
	if s.Selection != nil {
		out.Selection = append([]catalog.Plot{}, s.Selection...)
	}
	if s.Measurements != nil {
		out.Measurements = append([]Measurement{}, s.Measurements...)
	}
	out.TreePlan = s.TreePlan.Clone()
	return out
}

// SelectedIDs returns plot ids in selection order.
func (s State) SelectedIDs() []int {
	ids := make([]int, len(s.Selection))
	for i, p := range s.Selection {
		ids[i] = p.ID
	}
	return ids
}

// FormRows lists every (plot, tree) pair to be measured, in selection order
// then ascending tree number. This is also the row order of the report.
func (s State) FormRows() []FormRow {
	var rows []FormRow
	for _, p := range s.Selection {
		n := s.TreePlan[p.ID]
		for i := 1; i <= n; i++ {
			rows = append(rows, FormRow{Plot: p, TreeNumber: i, TreeCount: n})
		}
	}
	return rows
}
