package export

import (
	"fmt"
	"io"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/rxtech-lab/argo-backtest/internal/types"
	"github.com/rxtech-lab/argo-backtest/pkg/errors"
)

var (
	headerStyle = lipgloss.NewStyle().Bold(true).Padding(0, 1)
	cellStyle   = lipgloss.NewStyle().Padding(0, 1)
)

// CompareHeaders are the columns of the comparison table.
var CompareHeaders = []string{
	"Strategy",
	"Final net worth",
	"Return %",
	"Buy & hold %",
	"Commission",
	"Trades",
	"Max drawdown %",
}

// CompareRows formats one table row per run.
func CompareRows(stats []types.RunStats) [][]string {
	rows := make([][]string, 0, len(stats))
	for _, s := range stats {
		rows = append(rows, []string{
			s.Strategy,
			fmt.Sprintf("%.2f", s.Performance.FinalNetWorth),
			fmt.Sprintf("%.2f", s.Performance.TotalReturn),
			fmt.Sprintf("%.2f", s.Performance.BuyAndHoldReturn),
			fmt.Sprintf("%.2f", s.Activity.TotalCommission),
			fmt.Sprintf("%d", s.Activity.NumberOfTrades),
			fmt.Sprintf("%.2f", s.Performance.MaxDrawdown),
		})
	}

	return rows
}

// Compare writes a side by side table of runs to w.
func Compare(w io.Writer, stats []types.RunStats) error {
	if len(stats) == 0 {
		return errors.New(errors.ErrCodeBacktestNoData, "no runs to compare")
	}

	t := table.New().
		Border(lipgloss.NormalBorder()).
		Headers(CompareHeaders...).
		Rows(CompareRows(stats)...).
		StyleFunc(func(row, _ int) lipgloss.Style {
			if row == table.HeaderRow {
				return headerStyle
			}

			return cellStyle
		})

	if _, err := fmt.Fprintln(w, t.Render()); err != nil {
		return errors.Wrap(errors.ErrCodeExportFailed, "failed to write comparison", err)
	}

	return nil
}
