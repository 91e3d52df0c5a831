package tui

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/kingrea/tree-sampler/internal/catalog"
	"github.com/kingrea/tree-sampler/internal/logbook"
	"github.com/kingrea/tree-sampler/internal/workflow"
)

func newTestApp(t *testing.T, opts ...workflow.Option) *App {
	t.Helper()
	cat := catalog.New([]catalog.Plot{
		{ID: 1, Area: catalog.AreaNorth, AgeBucket: catalog.AgeYoung, AreaHa: 1.0},
		{ID: 2, Area: catalog.AreaNorth, AgeBucket: catalog.AgeYoung, AreaHa: 0.2},
		{ID: 3, Area: catalog.AreaNorth, AgeBucket: catalog.AgeYoung, AreaHa: 0.3},
		{ID: 4, Area: catalog.AreaSouth, AgeBucket: catalog.AgeMature, AreaHa: 2.0},
	})
	wf, err := workflow.New(cat, catalog.NewRand(7), opts...)
	if err != nil {
		t.Fatalf("new workflow: %v", err)
	}
	app, err := NewApp(wf, WithReportDir(t.TempDir()))
	if err != nil {
		t.Fatalf("new app: %v", err)
	}
	return app
}

func keyMsg(key string) tea.KeyMsg {
	switch key {
	case "enter":
		return tea.KeyMsg{Type: tea.KeyEnter}
	case "esc":
		return tea.KeyMsg{Type: tea.KeyEsc}
	case "down":
		return tea.KeyMsg{Type: tea.KeyDown}
	case "tab":
		return tea.KeyMsg{Type: tea.KeyTab}
	case "ctrl+s":
		return tea.KeyMsg{Type: tea.KeyCtrlS}
	case " ":
		return tea.KeyMsg{Type: tea.KeySpace, Runes: []rune{' '}}
	default:
		return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(key)}
	}
}

func press(t *testing.T, app *App, keys ...string) tea.Cmd {
	t.Helper()
	var cmd tea.Cmd
	for _, key := range keys {
		model, next := app.Update(keyMsg(key))
		if model != app {
			t.Fatalf("update returned a different model")
		}
		cmd = next
	}
	return cmd
}

func TestManualSessionReachesReport(t *testing.T) {
	app := newTestApp(t)
	press(t, app, "enter", "enter")
	if got := app.State().Step; got != workflow.StepSampleGardens {
		t.Fatalf("step = %s, want %s", got, workflow.StepSampleGardens)
	}
	if len(app.candidates) != 3 {
		t.Fatalf("candidates = %d, want 3", len(app.candidates))
	}
	if !strings.Contains(app.View(), "Ideal Sample Size: 3") {
		t.Fatalf("sampling view missing ideal size:\n%s", app.View())
	}

	// pick garden 2 first, then garden 1
	press(t, app, "down", " ", "k", " ", "enter")
	st := app.State()
	if st.Step != workflow.StepEnterMeasurements {
		t.Fatalf("step = %s, want %s", st.Step, workflow.StepEnterMeasurements)
	}
	if ids := st.SelectedIDs(); len(ids) != 2 || ids[0] != 2 || ids[1] != 1 {
		t.Fatalf("selection = %v, want [2 1]", ids)
	}
	if len(app.inputs) != 2*12 {
		t.Fatalf("inputs = %d, want 24", len(app.inputs))
	}

	press(t, app, "1", ".", "5", "tab", "9")
	press(t, app, "ctrl+s")
	st = app.State()
	if st.Step != workflow.StepReport {
		t.Fatalf("step = %s, want %s", st.Step, workflow.StepReport)
	}
	first := st.Measurements[0]
	if first.PlotID != 2 || first.TreeNumber != 1 || first.Height != "1.5" || first.Yield != "9" {
		t.Fatalf("first measurement = %+v", first)
	}
	if app.report == nil || app.report.RowCount() != 13 {
		t.Fatalf("expected report with 13 rows")
	}
	if !strings.Contains(app.View(), "Data Saved Successfully!") {
		t.Fatalf("report view missing banner")
	}
}

func TestAutoSelectUsesDrawOrder(t *testing.T) {
	app := newTestApp(t)
	press(t, app, "enter", "enter", "a")
	if !app.auto || len(app.drawn) != 3 {
		t.Fatalf("expected auto preview of 3 gardens, got %d", len(app.drawn))
	}
	want := plotIDs(app.drawn)
	press(t, app, "enter")
	got := app.State().SelectedIDs()
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("selection = %v, want draw order %v", got, want)
		}
	}
}

func TestOversizedAutoSelectStaysOnStep(t *testing.T) {
	sizes := catalog.SizeTable{catalog.AreaNorth: {catalog.AgeYoung: 5}}
	app := newTestApp(t, workflow.WithSizeTable(sizes))
	press(t, app, "enter", "enter", "a")
	if app.State().Step != workflow.StepSampleGardens {
		t.Fatalf("step = %s, want sampling", app.State().Step)
	}
	if !strings.Contains(app.statusMsg, "cannot sample 5 gardens") {
		t.Fatalf("status = %q", app.statusMsg)
	}
	if app.Err() != nil {
		t.Fatalf("recoverable error aborted session: %v", app.Err())
	}
}

func TestEscClearsLaterSteps(t *testing.T) {
	app := newTestApp(t)
	press(t, app, "enter", "enter", " ", "enter", "ctrl+s")
	if app.State().Step != workflow.StepReport {
		t.Fatalf("expected report step")
	}
	press(t, app, "esc")
	st := app.State()
	if st.Step != workflow.StepEnterMeasurements || st.Measurements != nil {
		t.Fatalf("back from report kept measurements: %+v", st)
	}
	press(t, app, "esc", "esc")
	st = app.State()
	if st.Step != workflow.StepSelectAgeBucket || st.AgeBucket != "" || st.Selection != nil {
		t.Fatalf("unexpected state after going back: %+v", st)
	}
	press(t, app, "esc", "esc")
	if app.State().Step != workflow.StepSelectArea {
		t.Fatalf("esc on step 1 should stay put")
	}
}

func TestExportAndRestart(t *testing.T) {
	dir := t.TempDir()
	lb, err := logbook.New(filepath.Join(dir, "journey.log"))
	if err != nil {
		t.Fatal(err)
	}
	cat := catalog.New([]catalog.Plot{{ID: 9, Area: catalog.AreaSouth, AgeBucket: catalog.AgeYoung, AreaHa: 0.1}})
	wf, err := workflow.New(cat, catalog.NewRand(3), workflow.WithLogbook(lb))
	if err != nil {
		t.Fatal(err)
	}
	app, err := NewApp(wf, WithLogbook(lb), WithReportDir(filepath.Join(dir, "reports")))
	if err != nil {
		t.Fatal(err)
	}
	// South is the second area
	press(t, app, "down", "enter", "enter", " ", "enter", "ctrl+s")
	if app.State().Step != workflow.StepReport {
		t.Fatalf("step = %s, want report", app.State().Step)
	}
	session := app.State().SessionID

	cmd := press(t, app, "e")
	if cmd == nil {
		t.Fatalf("export should return a command")
	}
	app.Update(cmd())
	if app.exportedPath == "" {
		t.Fatalf("export failed: %s", app.statusMsg)
	}
	if _, err := os.Stat(app.exportedPath); err != nil {
		t.Fatalf("exported file missing: %v", err)
	}
	if !strings.Contains(app.View(), "journey.log") {
		t.Fatalf("report view should show the journal panel")
	}

	press(t, app, "n")
	st := app.State()
	if st.Step != workflow.StepSelectArea || st.SessionID == session {
		t.Fatalf("restart did not open a new session: %+v", st)
	}
	if app.report != nil {
		t.Fatalf("restart kept the old report")
	}
}

func TestNewAppRequiresWorkflow(t *testing.T) {
	if _, err := NewApp(nil); err == nil {
		t.Fatalf("expected error for nil workflow")
	}
}

func TestQOnAgeBucketStepDoesNotQuit(t *testing.T) {
	app := newTestApp(t)
	cmd := press(t, app, "enter", "q")
	if cmd != nil {
		if _, quit := cmd().(tea.QuitMsg); quit {
			t.Fatalf("q on the age bucket step quit the program")
		}
	}
	if app.State().Step != workflow.StepSelectAgeBucket {
		t.Fatalf("step = %s, want %s", app.State().Step, workflow.StepSelectAgeBucket)
	}
}
