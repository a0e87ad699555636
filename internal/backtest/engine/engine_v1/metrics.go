package engine

import (
	"github.com/rxtech-lab/argo-backtest/internal/types"
	"github.com/rxtech-lab/argo-backtest/pkg/errors"
)

// Metrics are the series derived from a Simulation. Every slice is aligned
// index for index with the price series.
type Metrics struct {
	// MarketValue is position * close.
	MarketValue []float64
	// NetWorth is market value plus account.
	NetWorth []float64
	// Flow is the cash moved by the quantity change at the execution open,
	// commission excluded. Zero at bar 0.
	Flow []float64
	// Commission is the cash impact of commission at each bar (never positive).
	Commission []float64
	// HistoricalPrice is the execution open of the most recent non-zero flow.
	// Zero until the first trade.
	HistoricalPrice []float64
}

// DeriveMetrics computes the reporting series for sim over series.
func DeriveMetrics(series types.PriceSeries, sim Simulation) (Metrics, error) {
	length := series.Len()
	if len(sim.Position) != length || len(sim.Account) != length || len(sim.Commission) != length {
		return Metrics{}, errors.Newf(errors.ErrCodeShapeMismatch,
			"simulation lengths (position %d, account %d, commission %d) do not match price series length %d",
			len(sim.Position), len(sim.Account), len(sim.Commission), length)
	}

	m := Metrics{
		MarketValue:     make([]float64, length),
		NetWorth:        make([]float64, length),
		Flow:            make([]float64, length),
		Commission:      make([]float64, length),
		HistoricalPrice: make([]float64, length),
	}

	lastPrice := 0.0

	for i := 0; i < length; i++ {
		m.MarketValue[i] = sim.Position[i] * series.Close(i)
		m.NetWorth[i] = m.MarketValue[i] + sim.Account[i]

		if i == 0 {
			continue
		}

		if delta := sim.Position[i] - sim.Position[i-1]; delta != 0 {
			m.Flow[i] = -delta * series.Open(i)
		}

		if fee := sim.Commission[i]; fee != 0 {
			m.Commission[i] = -fee
		}

		if m.Flow[i] != 0 {
			lastPrice = series.Open(i)
		}

		m.HistoricalPrice[i] = lastPrice
	}

	return m, nil
}
