package indicator

import (
	"fmt"

	talib "github.com/markcheno/go-talib"
	"github.com/rxtech-lab/argo-backtest/internal/types"
	"github.com/rxtech-lab/argo-backtest/pkg/errors"
)

// RSI represents the Relative Strength Index indicator.
type RSI struct {
	period int
}

// NewRSI creates a new RSI indicator with default configuration.
func NewRSI() Indicator {
	return &RSI{
		period: 14, // Default period
	}
}

// Name returns the name of the indicator.
func (r *RSI) Name() types.IndicatorType {
	return types.IndicatorTypeRSI
}

// Config configures the RSI indicator. Expected parameters: period (int).
func (r *RSI) Config(params ...any) error {
	if len(params) != 1 {
		return errors.New(errors.ErrCodeInvalidParameter, "Config expects 1 parameter: period (int)")
	}

	period, ok := periodParam(params[0])
	if !ok {
		return errors.New(errors.ErrCodeInvalidParameter, "invalid type for period parameter, expected int or float")
	}

	// Wilder smoothing needs at least two observations per window.
	if period < 2 {
		return errors.Newf(errors.ErrCodeInvalidPeriod, "period must be at least 2, got %d", period)
	}

	r.period = period

	return nil
}

// Calculate returns the RSI of the closes at each bar. The first period bars
// are warm-up.
func (r *RSI) Calculate(series types.PriceSeries) ([]float64, error) {
	if series.Len() <= r.period {
		return nil, errors.NewInsufficientDataErrorf(r.period+1, series.Len(), series.Symbol(),
			"insufficient data for %s: required %d, got %d", r.Name(), r.period+1, series.Len())
	}

	return withWarmup(talib.Rsi(series.Closes(), r.period), r.period), nil
}

// RSIValues computes the RSI of the series closes with the given period.
func RSIValues(series types.PriceSeries, period int) ([]float64, error) {
	values, err := defaultRegistry.Calculate(types.IndicatorTypeRSI, series, period)
	if err != nil {
		return nil, fmt.Errorf("failed to calculate rsi(%d): %w", period, err)
	}

	return values, nil
}
