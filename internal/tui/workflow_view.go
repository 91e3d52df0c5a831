package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/kingrea/tree-sampler/internal/catalog"
	"github.com/kingrea/tree-sampler/internal/workflow"
)

var (
	cursorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FF6B6B")).
			Bold(true)
	pickedStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#4CAF50"))
	mutedStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#AAAAAA"))
	bannerStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#FFFFFF")).
			Background(lipgloss.Color("#4CAF50")).
			Padding(0, 2)
)

func newReadingInput(placeholder string) textinput.Model {
	input := textinput.New()
	input.Placeholder = placeholder
	input.Prompt = ""
	input.CharLimit = 32
	input.Width = 12
	return input
}

func selectedChoice(menu list.Model) (string, bool) {
	item, ok := menu.SelectedItem().(choiceItem)
	if !ok {
		return "", false
	}
	return item.value, true
}

// Step 1

func (a *App) updateAreaStep(msg tea.Msg) (tea.Model, tea.Cmd) {
	if key, ok := msg.(tea.KeyMsg); ok {
		switch key.String() {
		case "q":
			return a, tea.Quit
		case "enter":
			value, ok := selectedChoice(a.areaMenu)
			if !ok {
				return a, nil
			}
			next, err := a.wf.SelectArea(a.state, catalog.Area(value))
			return a, a.apply(next, err)
		}
	}
	var cmd tea.Cmd
	a.areaMenu, cmd = a.areaMenu.Update(msg)
	return a, cmd
}

// Step 2

func (a *App) updateBucketStep(msg tea.Msg) (tea.Model, tea.Cmd) {
	if key, ok := msg.(tea.KeyMsg); ok && key.String() == "enter" {
		value, ok := selectedChoice(a.bucketMenu)
		if !ok {
			return a, nil
		}
		next, err := a.wf.SelectAgeBucket(a.state, catalog.AgeBucket(value))
		return a, a.apply(next, err)
	}
	var cmd tea.Cmd
	a.bucketMenu, cmd = a.bucketMenu.Update(msg)
	return a, cmd
}

// Step 3

func (a *App) updateSamplingStep(msg tea.Msg) (tea.Model, tea.Cmd) {
	key, ok := msg.(tea.KeyMsg)
	if !ok {
		return a, nil
	}
	switch key.String() {
	case "up", "k":
		if a.cursor > 0 {
			a.cursor--
		}
	case "down", "j":
		if a.cursor < len(a.candidates)-1 {
			a.cursor++
		}
	case " ":
		if len(a.candidates) == 0 {
			return a, nil
		}
		a.auto = false
		a.drawn = nil
		a.togglePick(a.candidates[a.cursor].ID)
	case "a":
		if a.auto {
			a.auto = false
			a.drawn = nil
			a.statusMsg = ""
			return a, nil
		}
		drawn, err := a.wf.DrawSample(a.state)
		if err != nil {
			return a, a.apply(a.state, err)
		}
		a.auto = true
		a.drawn = drawn
		a.picked = nil
		a.statusMsg = fmt.Sprintf("Auto-selected %d gardens", len(drawn))
	case "enter":
		ids := a.picked
		if a.auto {
			ids = plotIDs(a.drawn)
		}
		next, err := a.wf.SelectPlots(a.state, ids)
		return a, a.apply(next, err)
	}
	return a, nil
}

func (a *App) togglePick(id int) {
	for i, picked := range a.picked {
		if picked == id {
			a.picked = append(a.picked[:i:i], a.picked[i+1:]...)
			return
		}
	}
	a.picked = append(a.picked, id)
}

func (a *App) pickOrder(id int) int {
	ids := a.picked
	if a.auto {
		ids = plotIDs(a.drawn)
	}
	for i, picked := range ids {
		if picked == id {
			return i + 1
		}
	}
	return 0
}

func plotIDs(plots []catalog.Plot) []int {
	ids := make([]int, len(plots))
	for i, p := range plots {
		ids[i] = p.ID
	}
	return ids
}

func (a *App) viewSamplingStep() string {
	var b strings.Builder
	fmt.Fprintf(&b, "Segment: %s\n", a.state.Segment())
	fmt.Fprintf(&b, "Total Matching Gardens: %d\n", len(a.candidates))
	fmt.Fprintf(&b, "Ideal Sample Size: %d\n\n", a.state.IdealSampleSize)
	if len(a.candidates) == 0 {
		b.WriteString(mutedStyle.Render("No gardens match this area and age bucket."))
		return b.String()
	}
	for i, plot := range a.candidates {
		cursor := "  "
		if i == a.cursor {
			cursor = cursorStyle.Render("> ")
		}
		mark := "[ ]"
		if n := a.pickOrder(plot.ID); n > 0 {
			mark = pickedStyle.Render(fmt.Sprintf("[%d]", n))
		}
		trees, err := catalog.TreeCountWithDensity(plot.AreaHa, a.wf.TreeDensity())
		if err != nil {
			trees = 0
		}
		fmt.Fprintf(&b, "%s%s %s\n", cursor, mark, workflow.PlotHeading(plot, trees))
	}
	return strings.TrimRight(b.String(), "\n")
}

// Step 4

func (a *App) updateMeasurementStep(msg tea.Msg) (tea.Model, tea.Cmd) {
	if key, ok := msg.(tea.KeyMsg); ok {
		switch key.String() {
		case "ctrl+s":
			next, err := a.wf.EnterMeasurements(a.state, a.collectReadings())
			return a, a.apply(next, err)
		case "tab", "enter", "down":
			a.moveFocus(1)
			return a, nil
		case "shift+tab", "up":
			a.moveFocus(-1)
			return a, nil
		}
	}
	if len(a.inputs) == 0 {
		return a, nil
	}
	var cmd tea.Cmd
	a.inputs[a.focus], cmd = a.inputs[a.focus].Update(msg)
	return a, cmd
}

func (a *App) moveFocus(delta int) {
	if len(a.inputs) == 0 {
		return
	}
	a.inputs[a.focus].Blur()
	a.focus = (a.focus + delta + len(a.inputs)) % len(a.inputs)
	a.inputs[a.focus].Focus()
}

// collectReadings pairs inputs back up with form rows: height at 2i, yield at 2i+1.
func (a *App) collectReadings() map[workflow.TreeKey]workflow.Reading {
	readings := make(map[workflow.TreeKey]workflow.Reading, len(a.rows))
	for i, row := range a.rows {
		if 2*i+1 >= len(a.inputs) {
			break
		}
		readings[row.Key()] = workflow.Reading{
			Height: a.inputs[2*i].Value(),
			Yield:  a.inputs[2*i+1].Value(),
		}
	}
	return readings
}

func (a *App) viewMeasurementStep() string {
	var b strings.Builder
	for _, plot := range a.state.Selection {
		b.WriteString(workflow.PlotHeading(plot, a.state.TreePlan[plot.ID]))
		b.WriteString("\n")
	}
	if len(a.rows) == 0 {
		b.WriteString(mutedStyle.Render("\nNo trees to measure. Press ctrl+s to generate the report."))
		return b.String()
	}
	b.WriteString("\n")

	focusRow := a.focus / 2
	start := max(0, focusRow-visibleTreeRows/2)
	end := min(len(a.rows), start+visibleTreeRows)
	start = max(0, end-visibleTreeRows)
	for i := start; i < end; i++ {
		row := a.rows[i]
		cursor := "  "
		if i == focusRow {
			cursor = cursorStyle.Render("> ")
		}
		fmt.Fprintf(&b, "%sGarden %d - Tree %d   Height (m) %s   Yield (kg) %s\n",
			cursor, row.Plot.ID, row.TreeNumber,
			a.inputs[2*i].View(), a.inputs[2*i+1].View())
	}
	b.WriteString(mutedStyle.Render(fmt.Sprintf("tree %d of %d", focusRow+1, len(a.rows))))
	return b.String()
}

// Step 5

func (a *App) updateReportStep(msg tea.Msg) (tea.Model, tea.Cmd) {
	key, ok := msg.(tea.KeyMsg)
	if !ok {
		return a, nil
	}
	switch key.String() {
	case "q":
		return a, tea.Quit
	case "e":
		return a, a.exportReport()
	case "n":
		a.restart()
	}
	return a, nil
}

func (a *App) viewReportStep() string {
	if a.report == nil {
		return ""
	}
	parts := []string{
		bannerStyle.Render("Data Saved Successfully!"),
		a.report.SummaryTable(),
		a.report.Preview(previewRows),
	}
	if a.exportedPath != "" {
		parts = append(parts, pickedStyle.Render("Exported: "+a.exportedPath))
	}
	if journal := a.renderJournal(); journal != "" {
		parts = append(parts, journal)
	}
	return lipgloss.JoinVertical(lipgloss.Left, parts...)
}
