package indicator

import (
	"github.com/rxtech-lab/argo-backtest/internal/types"
)

// Indicator computes one value per bar of a price series. Bars before the
// indicator has enough history hold types.IndicatorWarmup.
type Indicator interface {
	// Name returns the name of the indicator
	Name() types.IndicatorType
	// Config sets the indicator parameters
	Config(params ...any) error
	// Calculate returns a slice aligned with the series
	Calculate(series types.PriceSeries) ([]float64, error)
}

// withWarmup replaces the first lookback values with the warm-up marker.
func withWarmup(values []float64, lookback int) []float64 {
	for i := 0; i < lookback && i < len(values); i++ {
		values[i] = types.IndicatorWarmup
	}

	return values
}

// periodParam reads a period from an int or float64 parameter.
func periodParam(param any) (int, bool) {
	switch p := param.(type) {
	case int:
		return p, true
	case int64:
		return int(p), true
	case float64:
		return int(p), true
	default:
		return 0, false
	}
}
