package main

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/table"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/rxtech-lab/argo-backtest/internal/export"
	"github.com/rxtech-lab/argo-backtest/internal/types"
)

// Browser states.
const (
	StateRunSelect = iota
	StateReportDisplay
)

// ReportLoader reads the report of a run.
type ReportLoader func(run types.RunStats) ([]export.ReportRow, error)

// Model is the Bubble Tea model for browsing backtest results.
type Model struct {
	state       int
	runList     list.Model
	reportTable table.Model
	runs        []types.RunStats
	selected    types.RunStats
	rows        int
	loadReport  ReportLoader
	err         error
	width       int
	height      int
}

// NewModel creates a browser over runs.
func NewModel(runs []types.RunStats, loadReport ReportLoader) Model {
	if loadReport == nil {
		loadReport = func(run types.RunStats) ([]export.ReportRow, error) {
			return export.ReadReportCSV(run.ReportPath)
		}
	}

	return Model{
		state:       StateRunSelect,
		runList:     NewRunList(runs),
		reportTable: NewReportTable(),
		runs:        runs,
		loadReport:  loadReport,
	}
}

// Init implements tea.Model.
func (m Model) Init() tea.Cmd {
	return nil
}

// Update implements tea.Model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "q":
			return m, tea.Quit
		case "esc":
			if m.state == StateReportDisplay {
				m.state = StateRunSelect
				m.err = nil
			}

			return m, nil
		}

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.runList.SetSize(msg.Width, msg.Height-4)
		m.reportTable.SetWidth(msg.Width)
		m.reportTable.SetHeight(msg.Height - 8)

		return m, nil

	case ReportLoadedMsg:
		m.selected = msg.Run
		m.rows = len(msg.Rows)
		m.reportTable.SetRows(ReportTableRows(msg.Rows))
		m.reportTable.GotoTop()
		m.state = StateReportDisplay
		m.err = nil

		return m, nil

	case ReportErrorMsg:
		m.err = msg.Err

		return m, nil
	}

	switch m.state {
	case StateRunSelect:
		return m.updateRunSelect(msg)
	case StateReportDisplay:
		var cmd tea.Cmd
		m.reportTable, cmd = m.reportTable.Update(msg)

		return m, cmd
	}

	return m, nil
}

func (m Model) updateRunSelect(msg tea.Msg) (tea.Model, tea.Cmd) {
	if key, ok := msg.(tea.KeyMsg); ok && key.String() == "enter" {
		if item, ok := m.runList.SelectedItem().(runItem); ok {
			return m, m.openReport(item.run)
		}
	}

	var cmd tea.Cmd
	m.runList, cmd = m.runList.Update(msg)

	return m, cmd
}

// openReport returns a command that reads the report of run.
func (m Model) openReport(run types.RunStats) tea.Cmd {
	load := m.loadReport

	return func() tea.Msg {
		rows, err := load(run)
		if err != nil {
			return ReportErrorMsg{Err: err}
		}

		return ReportLoadedMsg{Run: run, Rows: rows}
	}
}

// View implements tea.Model.
func (m Model) View() string {
	var s strings.Builder

	switch m.state {
	case StateRunSelect:
		s.WriteString(TitleStyle.Render("Argo Backtest - Results"))
		s.WriteString("\n\n")

		if len(m.runs) == 0 {
			s.WriteString("No runs found\n")
		} else {
			s.WriteString(m.runList.View())
		}

		s.WriteString("\n")

		if m.err != nil {
			s.WriteString(ErrorStyle.Render(fmt.Sprintf("Error: %v", m.err)))
			s.WriteString("\n")
		}

		s.WriteString(HelpStyle.Render("Press Enter to open a report, q to quit"))

	case StateReportDisplay:
		perf := m.selected.Performance
		s.WriteString(TitleStyle.Render(fmt.Sprintf("%s on %s", m.selected.Strategy, m.selected.Symbol)))
		s.WriteString("\n")
		s.WriteString(fmt.Sprintf("Final net worth %.2f | Return %.2f%% | Max drawdown %.2f%% | %d bars\n\n",
			perf.FinalNetWorth, perf.TotalReturn, perf.MaxDrawdown, m.rows))
		s.WriteString(m.reportTable.View())
		s.WriteString("\n")
		s.WriteString(HelpStyle.Render("q: quit | Esc: back"))
	}

	return s.String()
}
