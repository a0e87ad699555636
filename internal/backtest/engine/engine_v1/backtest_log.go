package engine

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"github.com/rxtech-lab/argo-backtest/pkg/errors"
)

// LogField is a per-bar value that Backtest.Log can print.
type LogField string

const (
	LogFieldOpen            LogField = "open"
	LogFieldHigh            LogField = "high"
	LogFieldLow             LogField = "low"
	LogFieldClose           LogField = "close"
	LogFieldPosition        LogField = "position"
	LogFieldAccount         LogField = "account"
	LogFieldIndicator       LogField = "indicator"
	LogFieldMarketValue     LogField = "market_value"
	LogFieldFlow            LogField = "flow"
	LogFieldCommission      LogField = "commission"
	LogFieldHistoricalPrice LogField = "historical_price"
)

// AllLogFields lists every LogField in display order.
var AllLogFields = []LogField{
	LogFieldOpen,
	LogFieldHigh,
	LogFieldLow,
	LogFieldClose,
	LogFieldPosition,
	LogFieldAccount,
	LogFieldIndicator,
	LogFieldMarketValue,
	LogFieldFlow,
	LogFieldCommission,
	LogFieldHistoricalPrice,
}

// ParseLogField maps a field name to its LogField.
func ParseLogField(name string) (LogField, error) {
	field := LogField(strings.ToLower(strings.TrimSpace(name)))
	for _, f := range AllLogFields {
		if f == field {
			return f, nil
		}
	}

	return "", errors.Newf(errors.ErrCodeInvalidParameter, "unknown log field %q", name)
}

// Log writes one line per bar with the requested fields followed by the net
// worth, e.g.
//
//	Date = 2024-01-02 - close = 101.00  position = 10.00     - net worth = 1010.00
func (b *Backtest) Log(w io.Writer, fields ...LogField) error {
	out := bufio.NewWriter(w)

	for i := 0; i < b.series.Len(); i++ {
		fmt.Fprintf(out, "Date = %s - ", b.series.Time(i).Format("2006-01-02"))

		for _, field := range fields {
			values, err := b.fieldValues(field, i)
			if err != nil {
				return err
			}

			for _, v := range values {
				fmt.Fprintf(out, "%s = %.2f  ", field, v)
			}
		}

		fmt.Fprintf(out, "   - net worth = %.2f\n", b.metrics.NetWorth[i])
	}

	if err := out.Flush(); err != nil {
		return errors.Wrap(errors.ErrCodeExportFailed, "failed to write backtest log", err)
	}

	return nil
}

// fieldValues returns the value(s) of field at bar i. Indicator yields one
// value per indicator trace.
func (b *Backtest) fieldValues(field LogField, i int) ([]float64, error) {
	switch field {
	case LogFieldOpen:
		return []float64{b.series.Open(i)}, nil
	case LogFieldHigh:
		return []float64{b.series.High(i)}, nil
	case LogFieldLow:
		return []float64{b.series.Low(i)}, nil
	case LogFieldClose:
		return []float64{b.series.Close(i)}, nil
	case LogFieldPosition:
		return []float64{b.simulation.Position[i]}, nil
	case LogFieldAccount:
		return []float64{b.simulation.Account[i]}, nil
	case LogFieldIndicator:
		values := make([]float64, len(b.strategy.Indicators))
		for k, trace := range b.strategy.Indicators {
			values[k] = trace[i]
		}

		return values, nil
	case LogFieldMarketValue:
		return []float64{b.metrics.MarketValue[i]}, nil
	case LogFieldFlow:
		return []float64{b.metrics.Flow[i]}, nil
	case LogFieldCommission:
		return []float64{b.metrics.Commission[i]}, nil
	case LogFieldHistoricalPrice:
		return []float64{b.metrics.HistoricalPrice[i]}, nil
	default:
		return nil, errors.Newf(errors.ErrCodeInvalidParameter, "unknown log field %q", field)
	}
}
