// internal/workflow/workflow.go
//
// The sampling workflow walks an operator through five steps:
//
//	SelectArea -> SelectAgeBucket -> SampleGardens -> EnterMeasurements -> Report
//
// Each step function takes the current State and returns the next one. The
// Workflow itself only holds read-only collaborators (catalog snapshot,
// sample size table, random source), so one Workflow can serve many sessions
// as long as each caller keeps its own State.

package workflow

import (
	"fmt"
	"math"
	"math/rand/v2"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/kingrea/tree-sampler/internal/catalog"
	"github.com/kingrea/tree-sampler/internal/logbook"
)

// Workflow sequences the sampling steps over one catalog snapshot.
type Workflow struct {
	catalog *catalog.Catalog
	sizes   catalog.SizeTable
	areas   []catalog.Area
	buckets []catalog.AgeBucket
	density float64
	strict  bool
	rng     *rand.Rand
	logger  *zap.Logger
	journal *logbook.Logbook
	now     func() time.Time
}

// Option customizes a Workflow.
type Option func(*Workflow)

// WithSizeTable replaces the default sample size table.
func WithSizeTable(table catalog.SizeTable) Option {
	return func(w *Workflow) {
		if table != nil {
			w.sizes = table.Clone()
		}
	}
}

// WithDomains restricts the areas and age buckets offered in steps 1 and 2.
func WithDomains(areas []catalog.Area, buckets []catalog.AgeBucket) Option {
	return func(w *Workflow) {
		if len(areas) > 0 {
			w.areas = append([]catalog.Area(nil), areas...)
		}
		if len(buckets) > 0 {
			w.buckets = append([]catalog.AgeBucket(nil), buckets...)
		}
	}
}

// WithTreeDensity sets trees per hectare. Values <= 0 keep DefaultTreeDensity.
func WithTreeDensity(density float64) Option {
	return func(w *Workflow) {
		if density > 0 {
			w.density = density
		}
	}
}

// WithStrictMeasurements makes step 4 reject height and yield text that is
// not a non-negative number. Off by default: readings are stored verbatim.
func WithStrictMeasurements(strict bool) Option {
	return func(w *Workflow) {
		w.strict = strict
	}
}

// WithLogger attaches a structured logger.
func WithLogger(logger *zap.Logger) Option {
	return func(w *Workflow) {
		if logger != nil {
			w.logger = logger
		}
	}
}

// WithLogbook attaches the operator journal.
func WithLogbook(lb *logbook.Logbook) Option {
	return func(w *Workflow) {
		w.journal = lb
	}
}

// WithClock overrides time.Now for session timestamps.
func WithClock(now func() time.Time) Option {
	return func(w *Workflow) {
		if now != nil {
			w.now = now
		}
	}
}

// New builds a Workflow over cat. rng drives auto-selection and must be
// seeded by the caller for reproducible draws.
func New(cat *catalog.Catalog, rng *rand.Rand, opts ...Option) (*Workflow, error) {
	if cat == nil {
		return nil, fmt.Errorf("workflow: catalog is required")
	}
	if rng == nil {
		return nil, fmt.Errorf("workflow: random source is required")
	}
	w := &Workflow{
		catalog: cat,
		sizes:   catalog.DefaultSizeTable(),
		areas:   catalog.DefaultAreas(),
		buckets: catalog.DefaultAgeBuckets(),
		density: catalog.DefaultTreeDensity,
		rng:     rng,
		logger:  zap.NewNop(),
		now:     time.Now,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(w)
		}
	}
	return w, nil
}

// Catalog returns the plot snapshot this workflow samples from.
func (w *Workflow) Catalog() *catalog.Catalog {
	return w.catalog
}

// Areas lists the step 1 choices.
func (w *Workflow) Areas() []catalog.Area {
	return append([]catalog.Area(nil), w.areas...)
}

// AgeBuckets lists the step 2 choices.
func (w *Workflow) AgeBuckets() []catalog.AgeBucket {
	return append([]catalog.AgeBucket(nil), w.buckets...)
}

// TreeDensity is the trees-per-hectare used for tree plans.
func (w *Workflow) TreeDensity() float64 {
	return w.density
}

// Strict reports whether measurement text is validated at entry.
func (w *Workflow) Strict() bool {
	return w.strict
}

// Start opens a fresh session at step 1.
func (w *Workflow) Start() State {
	st := State{
		SessionID: uuid.NewString(),
		StartedAt: w.now().UTC(),
		Step:      StepSelectArea,
	}
	w.logger.Info("session started", zap.String("session", st.SessionID))
	w.journal.Info("Session %s opened", shortID(st.SessionID))
	return st
}

// Restart discards everything collected and opens a new session.
func (w *Workflow) Restart(st State) State {
	w.logger.Info("session restarted", zap.String("previous_session", st.SessionID))
	return w.Start()
}

// SelectArea stores the area and advances to SelectAgeBucket.
func (w *Workflow) SelectArea(st State, area catalog.Area) (State, error) {
	if err := require(st, StepSelectArea); err != nil {
		return st, err
	}
	parsed, err := catalog.ParseArea(string(area), w.areas)
	if err != nil {
		return st, err
	}
	next := st.Clone()
	next.Area = parsed
	next.Step = StepSelectAgeBucket
	w.transition(st, next)
	return next, nil
}

// SelectAgeBucket stores the bucket, looks up the ideal sample size and
// advances to SampleGardens.
func (w *Workflow) SelectAgeBucket(st State, bucket catalog.AgeBucket) (State, error) {
	if err := require(st, StepSelectAgeBucket); err != nil {
		return st, err
	}
	parsed, err := catalog.ParseAgeBucket(string(bucket), w.buckets)
	if err != nil {
		return st, err
	}
	next := st.Clone()
	next.AgeBucket = parsed
	next.IdealSampleSize = w.sizes.IdealSampleSize(next.Area, parsed)
	next.Step = StepSampleGardens
	w.transition(st, next)
	return next, nil
}

// Candidates returns the filtered plots for the session's segment.
func (w *Workflow) Candidates(st State) ([]catalog.Plot, error) {
	if err := require(st, StepSampleGardens); err != nil {
		return nil, err
	}
	return w.catalog.Filter(st.Area, st.AgeBucket), nil
}

// DrawSample picks IdealSampleSize plots uniformly without replacement from
// the candidates, in draw order, without touching the state. Asking for
// more plots than exist fails with a SelectionError.
func (w *Workflow) DrawSample(st State) ([]catalog.Plot, error) {
	candidates, err := w.Candidates(st)
	if err != nil {
		return nil, err
	}
	k := st.IdealSampleSize
	if k > len(candidates) {
		return nil, &SelectionError{Requested: k, Available: len(candidates)}
	}
	perm := w.rng.Perm(len(candidates))
	drawn := make([]catalog.Plot, k)
	for i := 0; i < k; i++ {
		drawn[i] = candidates[perm[i]]
	}
	return drawn, nil
}

// AutoSelect draws the ideal sample and confirms it.
func (w *Workflow) AutoSelect(st State) (State, error) {
	drawn, err := w.DrawSample(st)
	if err != nil {
		w.logger.Warn("auto selection rejected", zap.String("session", st.SessionID), zap.Error(err))
		w.journal.Warn("Auto-selection rejected: %v", err)
		return st, err
	}
	ids := make([]int, len(drawn))
	for i, p := range drawn {
		ids[i] = p.ID
	}
	return w.SelectPlots(st, ids)
}

// SelectPlots confirms an explicit selection, keeping the given order, and
// derives the tree plan. Every id must belong to the filtered set exactly once.
func (w *Workflow) SelectPlots(st State, ids []int) (State, error) {
	candidates, err := w.Candidates(st)
	if err != nil {
		return st, err
	}
	byID := make(map[int]catalog.Plot, len(candidates))
	for _, p := range candidates {
		byID[p.ID] = p
	}
	selErr := &SelectionError{Requested: len(ids), Available: len(candidates)}
	seen := make(map[int]struct{}, len(ids))
	selection := make([]catalog.Plot, 0, len(ids))
	for _, id := range ids {
		p, ok := byID[id]
		if !ok {
			selErr.Unknown = append(selErr.Unknown, id)
			continue
		}
		if _, dup := seen[id]; dup {
			selErr.Duplicate = append(selErr.Duplicate, id)
			continue
		}
		seen[id] = struct{}{}
		selection = append(selection, p)
	}
	if len(selErr.Unknown) > 0 || len(selErr.Duplicate) > 0 {
		return st, selErr
	}
	plan, err := DeriveTreePlan(selection, w.density)
	if err != nil {
		return st, err
	}
	next := st.Clone()
	next.Selection = selection
	next.TreePlan = plan
	next.Step = StepEnterMeasurements
	w.transition(st, next)
	return next, nil
}

// EnterMeasurements records one Measurement per form row, in form order,
// and advances to Report. Rows missing from readings are stored with blank
// text.
func (w *Workflow) EnterMeasurements(st State, readings map[TreeKey]Reading) (State, error) {
	if err := require(st, StepEnterMeasurements); err != nil {
		return st, err
	}
	rows := st.FormRows()
	measurements := make([]Measurement, 0, len(rows))
	for _, row := range rows {
		r := readings[row.Key()]
		if w.strict {
			if err := validateReading(row, r); err != nil {
				return st, err
			}
		}
		measurements = append(measurements, Measurement{
			Region:     st.Area,
			AgeBucket:  st.AgeBucket,
			PlotID:     row.Plot.ID,
			PlotAreaHa: row.Plot.AreaHa,
			TreeNumber: row.TreeNumber,
			Height:     r.Height,
			Yield:      r.Yield,
		})
	}
	next := st.Clone()
	next.Measurements = measurements
	next.Step = StepReport
	w.transition(st, next)
	return next, nil
}

// Back returns to the previous step and clears every field owned by that
// step and the ones after it, so nothing derived from an old choice survives.
func (w *Workflow) Back(st State) (State, error) {
	prev, ok := st.Step.Prev()
	if !ok || !st.Step.Valid() {
		return st, &PreconditionError{Step: st.Step, Current: st.Step, Missing: []string{"previous step"}}
	}
	next := st.Clone()
	next.Step = prev
	switch prev {
	case StepSelectArea:
		next.Area = ""
		fallthrough
	case StepSelectAgeBucket:
		next.AgeBucket = ""
		next.IdealSampleSize = 0
		fallthrough
	case StepSampleGardens:
		next.Selection = nil
		next.TreePlan = nil
		fallthrough
	case StepEnterMeasurements:
		next.Measurements = nil
	}
	w.logger.Info("step back",
		zap.String("session", st.SessionID),
		zap.Stringer("from", st.Step),
		zap.Stringer("to", prev),
	)
	w.journal.Info("Back to %s", prev.Title())
	return next, nil
}

func (w *Workflow) transition(from, to State) {
	w.logger.Info("step advanced",
		zap.String("session", to.SessionID),
		zap.Stringer("from", from.Step),
		zap.Stringer("to", to.Step),
		zap.String("area", string(to.Area)),
		zap.String("age_bucket", string(to.AgeBucket)),
	)
	switch to.Step {
	case StepSelectAgeBucket:
		w.journal.Info("Area selected: %s", to.Area)
	case StepSampleGardens:
		w.journal.Info("Age bucket selected: %s · ideal sample size %d", to.AgeBucket, to.IdealSampleSize)
	case StepEnterMeasurements:
		w.journal.Info("Sample confirmed: gardens %v · %d trees to measure", to.SelectedIDs(), to.TreePlan.Total())
	case StepReport:
		w.journal.Info("Saved %d tree observations", len(to.Measurements))
	}
}

// require checks that st is at step and carries what step needs.
func require(st State, step Step) error {
	var missing []string
	if step > StepSelectArea && st.Area == "" {
		missing = append(missing, "area")
	}
	if step > StepSelectAgeBucket && st.AgeBucket == "" {
		missing = append(missing, "age_bucket")
	}
	if step > StepSampleGardens && st.TreePlan == nil {
		missing = append(missing, "tree_plan")
	}
	if st.Step != step || len(missing) > 0 {
		return &PreconditionError{Step: step, Current: st.Step, Missing: missing}
	}
	return nil
}

func validateReading(row FormRow, r Reading) error {
	for _, field := range []struct{ name, value string }{
		{"height", r.Height},
		{"yield", r.Yield},
	} {
		v, err := strconv.ParseFloat(strings.TrimSpace(field.value), 64)
		if err != nil || v < 0 || math.IsNaN(v) || math.IsInf(v, 0) {
			return fmt.Errorf("workflow: garden %d tree %d %s %q is not a non-negative number: %w",
				row.Plot.ID, row.TreeNumber, field.name, field.value, catalog.ErrInvalidInput)
		}
	}
	return nil
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
