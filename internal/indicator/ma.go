package indicator

import (
	"fmt"

	talib "github.com/markcheno/go-talib"
	"github.com/rxtech-lab/argo-backtest/internal/types"
	"github.com/rxtech-lab/argo-backtest/pkg/errors"
)

// MA indicator implements Simple Moving Average calculation over closes.
type MA struct {
	period int
}

// NewMA creates a new MA indicator with default configuration.
func NewMA() Indicator {
	return &MA{
		period: 20, // Default period
	}
}

// Name returns the name of the indicator.
func (m *MA) Name() types.IndicatorType {
	return types.IndicatorTypeSMA
}

// Expected parameters: period (int).
func (m *MA) Config(params ...any) error {
	if len(params) != 1 {
		return errors.New(errors.ErrCodeInvalidParameter, "Config expects 1 parameter: period (int)")
	}

	period, ok := periodParam(params[0])
	if !ok {
		return errors.New(errors.ErrCodeInvalidParameter, "invalid type for period parameter, expected int or float")
	}

	if period <= 0 {
		return errors.Newf(errors.ErrCodeInvalidPeriod, "period must be a positive integer, got %d", period)
	}

	m.period = period

	return nil
}

// Calculate returns the moving average of the closes ending at each bar.
func (m *MA) Calculate(series types.PriceSeries) ([]float64, error) {
	if series.Len() < m.period {
		return nil, errors.NewInsufficientDataErrorf(m.period, series.Len(), series.Symbol(),
			"insufficient data for %s: required %d, got %d", m.Name(), m.period, series.Len())
	}

	closes := series.Closes()
	if m.period == 1 {
		return closes, nil
	}

	return withWarmup(talib.Sma(closes, m.period), m.period-1), nil
}

// SMA computes the SMA of the series closes with the given period.
func SMA(series types.PriceSeries, period int) ([]float64, error) {
	values, err := defaultRegistry.Calculate(types.IndicatorTypeSMA, series, period)
	if err != nil {
		return nil, fmt.Errorf("failed to calculate sma(%d): %w", period, err)
	}

	return values, nil
}
