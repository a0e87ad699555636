package main

import (
	"bytes"
	"errors"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/x/exp/teatest"
	"github.com/rxtech-lab/argo-backtest/internal/export"
	"github.com/rxtech-lab/argo-backtest/internal/types"
	"github.com/stretchr/testify/assert"
)

func testRuns() []types.RunStats {
	return []types.RunStats{
		{
			ID:       "run-1",
			Symbol:   "AAPL",
			Strategy: "sma_cross_5_20",
			Bars:     3,
			Performance: types.RunPerformance{
				FinalNetWorth: 1090,
				TotalReturn:   9,
				MaxDrawdown:   1.5,
			},
			Activity: types.RunActivity{NumberOfTrades: 1},
		},
	}
}

func testReport() []export.ReportRow {
	day := time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC)

	return []export.ReportRow{
		{Date: export.ReportDate(day), Open: 100, Close: 100, Order: types.OrderBuy, Account: 1000, NetWorth: 1000},
		{Date: export.ReportDate(day.AddDate(0, 0, 1)), Open: 110, Close: 110, Order: types.OrderBuy, Position: 9, Account: 10, NetWorth: 1000, Flow: -990},
		{Date: export.ReportDate(day.AddDate(0, 0, 2)), Open: 115, Close: 120, Order: types.OrderBuy, Position: 9, Account: 10, NetWorth: 1090},
	}
}

func TestNewModel(t *testing.T) {
	m := NewModel(testRuns(), nil)

	assert.Equal(t, StateRunSelect, m.state)
	assert.Len(t, m.runs, 1)
	assert.NotNil(t, m.loadReport)
	assert.NoError(t, m.err)
}

func TestFormatChange(t *testing.T) {
	assert.Equal(t, "10.00", FormatChange(10, 0))
	assert.Equal(t, "10.00 ▲", FormatChange(10, 9))
	assert.Equal(t, "10.00 ▼", FormatChange(10, 11))
	assert.Equal(t, "10.00", FormatChange(10, 10))
}

func TestReportTableRows(t *testing.T) {
	rows := ReportTableRows(testReport())

	assert.Len(t, rows, 3)
	assert.Equal(t, "2024-01-02 00:00", rows[0][0])
	assert.Equal(t, "BUY", rows[0][3])
	assert.Equal(t, "1000.00", rows[0][6])
	assert.Equal(t, "1000.00", rows[1][6])
	assert.Equal(t, "1090.00 ▲", rows[2][6])
	assert.Equal(t, "-990.00", rows[1][7])
}

func TestRunSelection(t *testing.T) {
	var loaded string

	m := NewModel(testRuns(), func(run types.RunStats) ([]export.ReportRow, error) {
		loaded = run.ID

		return testReport(), nil
	})
	tm := teatest.NewTestModel(t, m, teatest.WithInitialTermSize(120, 30))

	teatest.WaitFor(t, tm.Output(), func(bts []byte) bool {
		return bytes.Contains(bts, []byte("sma_cross_5_20"))
	}, teatest.WithDuration(2*time.Second))

	tm.Send(tea.KeyMsg{Type: tea.KeyEnter})

	teatest.WaitFor(t, tm.Output(), func(bts []byte) bool {
		return bytes.Contains(bts, []byte("on AAPL")) &&
			bytes.Contains(bts, []byte("Final net worth 1090.00"))
	}, teatest.WithDuration(2*time.Second))

	err := tm.Quit()
	assert.NoError(t, err)

	final := tm.FinalModel(t, teatest.WithFinalTimeout(2*time.Second)).(Model)
	assert.Equal(t, StateReportDisplay, final.state)
	assert.Equal(t, "run-1", loaded)
	assert.Equal(t, 3, final.rows)
}

func TestEmptyRuns(t *testing.T) {
	tm := teatest.NewTestModel(t, NewModel(nil, nil), teatest.WithInitialTermSize(80, 24))

	teatest.WaitFor(t, tm.Output(), func(bts []byte) bool {
		return bytes.Contains(bts, []byte("No runs found"))
	}, teatest.WithDuration(2*time.Second))

	err := tm.Quit()
	assert.NoError(t, err)
}

func TestStateTransitions(t *testing.T) {
	t.Run("Esc from report goes back to run select", func(t *testing.T) {
		m := NewModel(testRuns(), nil)

		newModel, _ := m.Update(ReportLoadedMsg{Run: testRuns()[0], Rows: testReport()})
		updated := newModel.(Model)
		assert.Equal(t, StateReportDisplay, updated.state)
		assert.Contains(t, updated.View(), "sma_cross_5_20 on AAPL")

		newModel, _ = updated.Update(tea.KeyMsg{Type: tea.KeyEsc})
		updated = newModel.(Model)
		assert.Equal(t, StateRunSelect, updated.state)
	})

	t.Run("Esc on run select stays", func(t *testing.T) {
		m := NewModel(testRuns(), nil)

		newModel, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEsc})
		assert.Nil(t, cmd)
		assert.Equal(t, StateRunSelect, newModel.(Model).state)
	})

	t.Run("report error is shown on run select", func(t *testing.T) {
		m := NewModel(testRuns(), nil)

		newModel, _ := m.Update(ReportErrorMsg{Err: errors.New("report missing")})
		updated := newModel.(Model)
		assert.Equal(t, StateRunSelect, updated.state)
		assert.Contains(t, updated.View(), "Error: report missing")
	})

	t.Run("enter loads the selected report", func(t *testing.T) {
		m := NewModel(testRuns(), func(types.RunStats) ([]export.ReportRow, error) {
			return nil, errors.New("boom")
		})

		_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEnter})
		assert.NotNil(t, cmd)
		assert.Equal(t, ReportErrorMsg{Err: errors.New("boom")}, cmd())
	})

	t.Run("q quits", func(t *testing.T) {
		m := NewModel(testRuns(), nil)

		_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'q'}})
		assert.NotNil(t, cmd)
		assert.Equal(t, tea.QuitMsg{}, cmd())
	})
}
