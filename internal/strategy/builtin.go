package strategy

import (
	"fmt"

	"github.com/rxtech-lab/argo-backtest/internal/indicator"
	"github.com/rxtech-lab/argo-backtest/internal/types"
	"github.com/rxtech-lab/argo-backtest/pkg/errors"
)

const (
	rsiOverbought = 70.0
	rsiOversold   = 30.0
)

func constant(series types.PriceSeries, name string, order types.Order) Strategy {
	orders := make([]types.Order, series.Len())
	trace := make([]float64, series.Len())

	for i := range orders {
		orders[i] = order
		trace[i] = types.IndicatorWarmup
	}

	return Strategy{
		Name:       name,
		Orders:     orders,
		Indicators: [][]float64{trace},
	}
}

// BuyAndHold goes long on every bar.
func BuyAndHold(series types.PriceSeries) Strategy {
	return constant(series, "buy and hold", types.OrderBuy)
}

// ShortAndHold goes short on every bar.
func ShortAndHold(series types.PriceSeries) Strategy {
	return constant(series, "short and hold", types.OrderShort)
}

// DoNothing stays flat on every bar.
func DoNothing(series types.PriceSeries) Strategy {
	return constant(series, "do nothing", types.OrderFlat)
}

// SimpleSMA is long while the moving average is at or above the open and
// short while it is below. It stays flat during the warm-up.
func SimpleSMA(series types.PriceSeries, period int) (Strategy, error) {
	sma, err := indicator.SMA(series, period)
	if err != nil {
		return Strategy{}, err
	}

	orders := make([]types.Order, series.Len())
	for i := range orders {
		switch {
		case sma[i] == types.IndicatorWarmup:
			orders[i] = types.OrderFlat
		case sma[i] >= series.Open(i):
			orders[i] = types.OrderBuy
		default:
			orders[i] = types.OrderShort
		}
	}

	return Strategy{
		Name:       fmt.Sprintf("simple_sma_%d", period),
		Orders:     orders,
		Indicators: [][]float64{sma},
	}, nil
}

// SMACross is long while the short average is above the long one and short
// otherwise. It stays flat until the long average is available.
func SMACross(series types.PriceSeries, shortPeriod, longPeriod int) (Strategy, error) {
	if shortPeriod >= longPeriod {
		return Strategy{}, errors.Newf(errors.ErrCodeInvalidParameter,
			"short period %d must be less than long period %d", shortPeriod, longPeriod)
	}

	short, err := indicator.SMA(series, shortPeriod)
	if err != nil {
		return Strategy{}, err
	}

	long, err := indicator.SMA(series, longPeriod)
	if err != nil {
		return Strategy{}, err
	}

	orders := make([]types.Order, series.Len())
	for i := range orders {
		switch {
		case long[i] == types.IndicatorWarmup:
			orders[i] = types.OrderFlat
		case short[i] > long[i]:
			orders[i] = types.OrderBuy
		default:
			orders[i] = types.OrderShort
		}
	}

	return Strategy{
		Name:       fmt.Sprintf("sma_cross_%d_%d", shortPeriod, longPeriod),
		Orders:     orders,
		Indicators: [][]float64{short, long},
	}, nil
}

// RSIStrategy shorts an overbought market and buys an oversold one. Between
// the two thresholds it is flat.
func RSIStrategy(series types.PriceSeries, period int) (Strategy, error) {
	rsi, err := indicator.RSIValues(series, period)
	if err != nil {
		return Strategy{}, err
	}

	orders := make([]types.Order, series.Len())
	for i := range orders {
		switch {
		case rsi[i] == types.IndicatorWarmup:
			orders[i] = types.OrderFlat
		case rsi[i] > rsiOverbought:
			orders[i] = types.OrderShort
		case rsi[i] < rsiOversold:
			orders[i] = types.OrderBuy
		default:
			orders[i] = types.OrderFlat
		}
	}

	return Strategy{
		Name:       fmt.Sprintf("rsi_%d", period),
		Orders:     orders,
		Indicators: [][]float64{rsi},
	}, nil
}
