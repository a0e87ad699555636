package main

import (
	"fmt"
	"time"

	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/table"
	"github.com/charmbracelet/lipgloss"
	"github.com/rxtech-lab/argo-backtest/internal/export"
	"github.com/rxtech-lab/argo-backtest/internal/types"
)

// runItem implements list.Item for one backtest run.
type runItem struct {
	run types.RunStats
}

func (i runItem) Title() string {
	return fmt.Sprintf("%s · %s", i.run.Strategy, i.run.Symbol)
}

func (i runItem) Description() string {
	return fmt.Sprintf("return %.2f%% · buy & hold %.2f%% · %d trades · %d bars",
		i.run.Performance.TotalReturn,
		i.run.Performance.BuyAndHoldReturn,
		i.run.Activity.NumberOfTrades,
		i.run.Bars)
}

func (i runItem) FilterValue() string { return i.run.Strategy + " " + i.run.Symbol }

// NewRunList creates the list of runs to pick from.
func NewRunList(runs []types.RunStats) list.Model {
	items := make([]list.Item, 0, len(runs))
	for _, run := range runs {
		items = append(items, runItem{run: run})
	}

	delegate := list.NewDefaultDelegate()
	delegate.ShowDescription = true

	l := list.New(items, delegate, 0, 0)
	l.Title = "Select Run"
	l.SetShowStatusBar(false)
	l.SetFilteringEnabled(false)
	l.SetShowHelp(false)

	return l
}

// NewReportTable creates the table showing a run report.
func NewReportTable() table.Model {
	columns := []table.Column{
		{Title: "Date", Width: 16},
		{Title: "Open", Width: 10},
		{Title: "Close", Width: 10},
		{Title: "Order", Width: 6},
		{Title: "Position", Width: 10},
		{Title: "Account", Width: 12},
		{Title: "Net worth", Width: 14},
		{Title: "Flow", Width: 12},
	}

	t := table.New(
		table.WithColumns(columns),
		table.WithFocused(true),
		table.WithHeight(10),
	)

	s := table.DefaultStyles()
	s.Header = s.Header.
		BorderStyle(lipgloss.NormalBorder()).
		BorderForeground(lipgloss.Color("240")).
		BorderBottom(true).
		Bold(true)
	s.Selected = s.Selected.
		Foreground(lipgloss.Color("229")).
		Background(lipgloss.Color("57")).
		Bold(false)

	t.SetStyles(s)

	return t
}

// ReportTableRows formats report rows for the table.
func ReportTableRows(rows []export.ReportRow) []table.Row {
	out := make([]table.Row, 0, len(rows))

	prevNetWorth := 0.0

	for _, r := range rows {
		out = append(out, table.Row{
			time.Time(r.Date).Format("2006-01-02 15:04"),
			fmt.Sprintf("%.2f", r.Open),
			fmt.Sprintf("%.2f", r.Close),
			string(r.Order),
			fmt.Sprintf("%.0f", r.Position),
			fmt.Sprintf("%.2f", r.Account),
			FormatChange(r.NetWorth, prevNetWorth),
			fmt.Sprintf("%.2f", r.Flow),
		})

		prevNetWorth = r.NetWorth
	}

	return out
}
