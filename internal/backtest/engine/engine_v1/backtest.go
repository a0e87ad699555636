package engine

import (
	"math"
	"slices"
	"time"

	"github.com/google/uuid"
	"github.com/rxtech-lab/argo-backtest/internal/export"
	"github.com/rxtech-lab/argo-backtest/internal/strategy"
	"github.com/rxtech-lab/argo-backtest/internal/types"
	"github.com/rxtech-lab/argo-backtest/internal/version"
	"github.com/shopspring/decimal"
)

// Backtest is one strategy simulated over one price series. It is fully
// computed by NewBacktest and read-only afterwards, so it can be shared
// between goroutines.
type Backtest struct {
	series         types.PriceSeries
	strategy       strategy.Strategy
	initialCash    float64
	commissionRate float64
	simulation     Simulation
	metrics        Metrics
}

// NewBacktest simulates s over series and derives its metrics.
func NewBacktest(series types.PriceSeries, s strategy.Strategy, initialCash float64, commissionRate float64, opts ...SimulateOption) (*Backtest, error) {
	if err := s.Validate(series.Len()); err != nil {
		return nil, err
	}

	sim, err := Simulate(series, s.Orders, initialCash, commissionRate, opts...)
	if err != nil {
		return nil, err
	}

	metrics, err := DeriveMetrics(series, sim)
	if err != nil {
		return nil, err
	}

	return &Backtest{
		series:         series,
		strategy:       s,
		initialCash:    initialCash,
		commissionRate: commissionRate,
		simulation:     sim,
		metrics:        metrics,
	}, nil
}

func (b *Backtest) Series() types.PriceSeries  { return b.series }
func (b *Backtest) StrategyName() string       { return b.strategy.Name }
func (b *Backtest) Orders() []types.Order      { return slices.Clone(b.strategy.Orders) }
func (b *Backtest) InitialCash() float64       { return b.initialCash }
func (b *Backtest) CommissionRate() float64    { return b.commissionRate }
func (b *Backtest) Position() []float64        { return slices.Clone(b.simulation.Position) }
func (b *Backtest) Account() []float64         { return slices.Clone(b.simulation.Account) }
func (b *Backtest) MarketValue() []float64     { return slices.Clone(b.metrics.MarketValue) }
func (b *Backtest) NetWorth() []float64        { return slices.Clone(b.metrics.NetWorth) }
func (b *Backtest) Flow() []float64            { return slices.Clone(b.metrics.Flow) }
func (b *Backtest) Commission() []float64      { return slices.Clone(b.metrics.Commission) }
func (b *Backtest) HistoricalPrice() []float64 { return slices.Clone(b.metrics.HistoricalPrice) }

// Indicators returns a copy of the strategy's indicator traces.
func (b *Backtest) Indicators() [][]float64 {
	out := make([][]float64, len(b.strategy.Indicators))
	for i, trace := range b.strategy.Indicators {
		out[i] = slices.Clone(trace)
	}

	return out
}

// Rows projects the backtest into one report row per bar. Only the first two
// indicator traces are reported.
func (b *Backtest) Rows() []export.ReportRow {
	rows := make([]export.ReportRow, b.series.Len())

	for i := range rows {
		rows[i] = export.ReportRow{
			Date:            export.ReportDate(b.series.Time(i)),
			Open:            b.series.Open(i),
			Close:           b.series.Close(i),
			Order:           b.strategy.Orders[i],
			Indicator1:      b.indicatorAt(0, i),
			Indicator2:      b.indicatorAt(1, i),
			Account:         b.simulation.Account[i],
			Position:        b.simulation.Position[i],
			MarketValue:     b.metrics.MarketValue[i],
			NetWorth:        b.metrics.NetWorth[i],
			Flow:            b.metrics.Flow[i],
			Commission:      b.metrics.Commission[i],
			HistoricalPrice: b.metrics.HistoricalPrice[i],
		}
	}

	return rows
}

func (b *Backtest) indicatorAt(trace int, bar int) export.IndicatorValue {
	if trace >= len(b.strategy.Indicators) {
		return export.NoIndicator()
	}

	return export.Indicator(b.strategy.Indicators[trace][bar])
}

// ChartData returns the input for export.WriteChart.
func (b *Backtest) ChartData() export.ChartData {
	names := make([]string, len(b.strategy.Indicators))
	for i := range names {
		names[i] = indicatorName(b.strategy.Name, i)
	}

	return export.ChartData{
		Title:          b.strategy.Name,
		Series:         b.series,
		Orders:         b.Orders(),
		IndicatorNames: names,
		Indicators:     b.Indicators(),
		NetWorth:       b.NetWorth(),
	}
}

func indicatorName(strategyName string, i int) string {
	if i == 0 {
		return strategyName
	}

	return strategyName + " #2"
}

// Stats summarises the backtest. Sums and ratios are computed in decimal to
// keep the totals stable over long series.
func (b *Backtest) Stats() types.RunStats {
	length := b.series.Len()
	last := length - 1

	stats := types.RunStats{
		ID:             uuid.New().String(),
		Timestamp:      time.Now(),
		Symbol:         b.series.Symbol(),
		Strategy:       b.strategy.Name,
		EngineVersion:  version.GetVersion(),
		StartTime:      b.series.Time(0),
		EndTime:        b.series.Time(last),
		Bars:           length,
		InitialCapital: b.initialCash,
		CommissionRate: b.commissionRate,
	}

	totalCommission := decimal.Zero
	for i := 0; i < length; i++ {
		totalCommission = totalCommission.Add(decimal.NewFromFloat(b.simulation.Commission[i]))

		switch {
		case b.simulation.Position[i] > 0:
			stats.Activity.LongBars++
		case b.simulation.Position[i] < 0:
			stats.Activity.ShortBars++
		default:
			stats.Activity.FlatBars++
		}

		if i > 0 && b.simulation.Position[i] != b.simulation.Position[i-1] {
			stats.Activity.NumberOfTrades++
		}
	}

	stats.Activity.TotalCommission = totalCommission.Round(8).InexactFloat64()

	finalNetWorth := b.metrics.NetWorth[last]
	stats.Performance.FinalNetWorth = finalNetWorth
	stats.Performance.TotalReturn = percentChange(b.initialCash, finalNetWorth)
	stats.Performance.BuyAndHoldReturn = percentChange(b.series.Open(0), b.series.Close(last))
	stats.Performance.MaxDrawdown = maxDrawdown(b.metrics.NetWorth)

	return stats
}

// percentChange returns (to/from - 1) * 100, or 0 when from is not positive.
func percentChange(from, to float64) float64 {
	if !(from > 0) || math.IsInf(to, 0) || math.IsNaN(to) {
		return 0
	}

	start := decimal.NewFromFloat(from)
	end := decimal.NewFromFloat(to)

	return end.Sub(start).Div(start).Mul(decimal.NewFromInt(100)).Round(8).InexactFloat64()
}

// maxDrawdown returns the largest decline from a running peak of curve, in
// percent of the peak. Peaks that are not positive are ignored.
func maxDrawdown(curve []float64) float64 {
	peak := decimal.Zero
	worst := decimal.Zero
	hundred := decimal.NewFromInt(100)

	for _, v := range curve {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			continue
		}

		value := decimal.NewFromFloat(v)
		if value.GreaterThan(peak) {
			peak = value

			continue
		}

		if !peak.IsPositive() {
			continue
		}

		drawdown := peak.Sub(value).Div(peak).Mul(hundred)
		if drawdown.GreaterThan(worst) {
			worst = drawdown
		}
	}

	return worst.Round(8).InexactFloat64()
}
