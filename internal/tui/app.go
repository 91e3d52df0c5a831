// internal/tui/app.go
//
// The terminal front end for a sampling session. It uses bubbletea, which
// follows The Elm Architecture:
//
// 1. Model: the App below, holding the session State plus widget state
// 2. Update: turns key presses into workflow step calls
// 3. View: renders the current step
//
// All business rules live in internal/workflow; this package only collects
// operator input and shows results.

package tui

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"go.uber.org/zap"

	"github.com/kingrea/tree-sampler/internal/catalog"
	"github.com/kingrea/tree-sampler/internal/logbook"
	"github.com/kingrea/tree-sampler/internal/report"
	"github.com/kingrea/tree-sampler/internal/workflow"
)

const (
	defaultListWidth  = 60
	defaultListHeight = 14
	visibleTreeRows   = 8
	journalLines      = 6
	previewRows       = 12
)

// AppOption customizes App construction for tests and alternate runtimes.
type AppOption func(*App)

// WithLogbook shows the session journal on the report screen.
func WithLogbook(lb *logbook.Logbook) AppOption {
	return func(a *App) {
		a.logbook = lb
	}
}

// WithLogger attaches a structured logger.
func WithLogger(logger *zap.Logger) AppOption {
	return func(a *App) {
		if logger != nil {
			a.logger = logger
		}
	}
}

// WithReportDir sets where the CSV export is written.
func WithReportDir(dir string) AppOption {
	return func(a *App) {
		if strings.TrimSpace(dir) != "" {
			a.reportDir = dir
		}
	}
}

// choiceItem implements list.Item for area and age bucket choices.
type choiceItem struct {
	value string
	desc  string
}

func (i choiceItem) Title() string       { return i.value }
func (i choiceItem) Description() string { return i.desc }
func (i choiceItem) FilterValue() string { return i.value }

// exportFinishedMsg reports the result of writing the CSV.
type exportFinishedMsg struct {
	path string
	err  error
}

// App is the main application model. In bubbletea, this holds ALL your state.
type App struct {
	wf        *workflow.Workflow
	state     workflow.State
	logbook   *logbook.Logbook
	logger    *zap.Logger
	reportDir string

	// steps 1 and 2
	areaMenu   list.Model
	bucketMenu list.Model

	// step 3
	candidates []catalog.Plot
	cursor     int
	picked     []int
	auto       bool
	drawn      []catalog.Plot

	// step 4
	rows   []workflow.FormRow
	inputs []textinput.Model
	focus  int

	// step 5
	report       *report.Report
	exportedPath string

	statusMsg string
	fatal     error

	width  int
	height int
}

// NewApp creates a new App and opens a session.
func NewApp(wf *workflow.Workflow, opts ...AppOption) (*App, error) {
	if wf == nil {
		return nil, errors.New("tui: workflow is required")
	}
	app := &App{
		wf:        wf,
		logger:    zap.NewNop(),
		reportDir: ".",
	}
	for _, opt := range opts {
		if opt != nil {
			opt(app)
		}
	}

	areaItems := make([]list.Item, 0, len(wf.Areas()))
	for _, area := range wf.Areas() {
		areaItems = append(areaItems, choiceItem{value: string(area), desc: "Sampling area"})
	}
	app.areaMenu = newChoiceList("Choose an Area", areaItems)

	bucketItems := make([]list.Item, 0, len(wf.AgeBuckets()))
	for _, bucket := range wf.AgeBuckets() {
		bucketItems = append(bucketItems, choiceItem{value: string(bucket), desc: "Plantation age (years)"})
	}
	app.bucketMenu = newChoiceList("Choose Age Bucket", bucketItems)

	app.state = wf.Start()
	return app, nil
}

func newChoiceList(title string, items []list.Item) list.Model {
	menu := list.New(items, list.NewDefaultDelegate(), defaultListWidth, defaultListHeight)
	menu.Title = title
	menu.SetShowStatusBar(false)
	menu.SetFilteringEnabled(false)
	menu.SetShowHelp(false)
	// quitting is decided per step in Update, not by the list
	menu.KeyMap.Quit.SetEnabled(false)
	return menu
}

// State returns the current session state.
func (a *App) State() workflow.State {
	return a.state
}

// Err returns the error that aborted the session, if any.
func (a *App) Err() error {
	return a.fatal
}

// Init is called once when the program starts.
func (a *App) Init() tea.Cmd {
	return nil
}

// Update is called when a message is received.
func (a *App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		a.width = msg.Width
		a.height = msg.Height
		a.areaMenu.SetSize(max(20, msg.Width-6), max(6, msg.Height-10))
		a.bucketMenu.SetSize(max(20, msg.Width-6), max(6, msg.Height-10))
		return a, nil

	case exportFinishedMsg:
		if msg.err != nil {
			a.statusMsg = fmt.Sprintf("Export failed: %v", msg.err)
			a.logbook.Error("Export failed: %v", msg.err)
			a.logger.Error("report export failed", zap.Error(msg.err))
			return a, nil
		}
		a.exportedPath = msg.path
		a.statusMsg = fmt.Sprintf("Report saved to %s (%s)", msg.path, report.MIMEType)
		a.logbook.Info("Report exported to %s", msg.path)
		a.logger.Info("report exported", zap.String("session", a.state.SessionID), zap.String("path", msg.path))
		return a, nil

	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c":
			return a, tea.Quit
		case "esc":
			return a.back()
		}
		if a.fatal != nil {
			return a, nil
		}
	}

	switch a.state.Step {
	case workflow.StepSelectArea:
		return a.updateAreaStep(msg)
	case workflow.StepSelectAgeBucket:
		return a.updateBucketStep(msg)
	case workflow.StepSampleGardens:
		return a.updateSamplingStep(msg)
	case workflow.StepEnterMeasurements:
		return a.updateMeasurementStep(msg)
	case workflow.StepReport:
		return a.updateReportStep(msg)
	}
	return a, nil
}

// apply installs the result of a step call. Recoverable errors become a
// status line and the step stays put; anything else aborts the session.
func (a *App) apply(next workflow.State, err error) tea.Cmd {
	if err != nil {
		if workflow.IsRecoverable(err) {
			a.statusMsg = err.Error()
			return nil
		}
		a.fatal = err
		a.logbook.Error("Session aborted: %v", err)
		a.logger.Error("session aborted", zap.String("session", a.state.SessionID), zap.Error(err))
		return tea.Quit
	}
	a.state = next
	a.statusMsg = ""
	a.enterStep()
	return nil
}

// enterStep prepares widget state for the step the session just reached.
func (a *App) enterStep() {
	switch a.state.Step {
	case workflow.StepSelectArea:
		a.areaMenu.Select(0)
	case workflow.StepSelectAgeBucket:
		a.bucketMenu.Select(0)
	case workflow.StepSampleGardens:
		candidates, err := a.wf.Candidates(a.state)
		if err != nil {
			a.fatal = err
			return
		}
		a.candidates = candidates
		a.cursor = 0
		a.picked = nil
		a.auto = false
		a.drawn = nil
	case workflow.StepEnterMeasurements:
		a.rows = a.state.FormRows()
		a.inputs = make([]textinput.Model, 0, 2*len(a.rows))
		for _, row := range a.rows {
			a.inputs = append(a.inputs,
				newReadingInput(fmt.Sprintf("Garden %d - Tree %d - Height (m)", row.Plot.ID, row.TreeNumber)),
				newReadingInput(fmt.Sprintf("Garden %d - Tree %d - Yield (kg)", row.Plot.ID, row.TreeNumber)),
			)
		}
		a.focus = 0
		if len(a.inputs) > 0 {
			a.inputs[0].Focus()
		}
	case workflow.StepReport:
		rep, err := report.Build(a.state)
		if err != nil {
			a.fatal = err
			return
		}
		a.report = rep
		a.exportedPath = ""
	}
}

func (a *App) back() (tea.Model, tea.Cmd) {
	if a.state.Step == workflow.StepSelectArea {
		return a, nil
	}
	next, err := a.wf.Back(a.state)
	return a, a.apply(next, err)
}

func (a *App) exportReport() tea.Cmd {
	rep := a.report
	dir := a.reportDir
	return func() tea.Msg {
		if rep == nil {
			return exportFinishedMsg{err: errors.New("no report to export")}
		}
		path, err := rep.Export(dir)
		return exportFinishedMsg{path: path, err: err}
	}
}

func (a *App) restart() {
	a.state = a.wf.Restart(a.state)
	a.report = nil
	a.exportedPath = ""
	a.rows = nil
	a.inputs = nil
	a.candidates = nil
	a.statusMsg = "Started a new session"
	a.enterStep()
}

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#4CAF50")).
			MarginBottom(1)
	headerStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#5B8DEF"))
	statusStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#F7B801")).
			MarginTop(1)
	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FF6B6B")).
			Bold(true)
	hintStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#888888")).
			MarginTop(1)
	boxStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("#444444")).
			Padding(0, 1)
)

// View renders the current state to a string.
func (a *App) View() string {
	title := titleStyle.Render("🌱 Tree Sampling Application")
	if a.fatal != nil {
		return lipgloss.JoinVertical(lipgloss.Left,
			title,
			errorStyle.Render(fmt.Sprintf("Session aborted: %v", a.fatal)),
			hintStyle.Render("ctrl+c quit"),
		)
	}
	var body, hint string
	switch a.state.Step {
	case workflow.StepSelectArea:
		body, hint = a.areaMenu.View(), "↑/↓ choose · enter next · ctrl+c quit"
	case workflow.StepSelectAgeBucket:
		body, hint = a.bucketMenu.View(), "↑/↓ choose · enter next · esc back"
	case workflow.StepSampleGardens:
		body, hint = a.viewSamplingStep(), "↑/↓ move · space pick · a auto-select · enter confirm sample · esc back"
	case workflow.StepEnterMeasurements:
		body, hint = a.viewMeasurementStep(), "tab/enter next field · shift+tab previous · ctrl+s save & generate report · esc back"
	case workflow.StepReport:
		body, hint = a.viewReportStep(), "e export CSV · n new session · q quit · esc back"
	}
	parts := []string{title, headerStyle.Render(a.state.Step.Title()), body}
	if a.statusMsg != "" {
		parts = append(parts, statusStyle.Render(a.statusMsg))
	}
	parts = append(parts, hintStyle.Render(hint))
	return lipgloss.JoinVertical(lipgloss.Left, parts...)
}

func (a *App) renderJournal() string {
	if a.logbook == nil {
		return ""
	}
	lines, total := a.logbook.Tail(journalLines)
	if len(lines) == 0 {
		return ""
	}
	fileName := filepath.Base(a.logbook.Path())
	head := headerStyle.Render(fmt.Sprintf("LOG · %s (%d entries)", fileName, total))
	return boxStyle.Render(fmt.Sprintf("%s\n%s", head, strings.Join(lines, "\n")))
}
