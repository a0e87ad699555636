package mocks

import (
	"math"
	"math/rand"
	"slices"
	"time"

	"github.com/rxtech-lab/argo-backtest/internal/types"
	"github.com/shopspring/decimal"
)

// WalkConfig describes a synthetic bar series.
type WalkConfig struct {
	Symbol string
	Start  time.Time
	Step   time.Duration
	Bars   int
	// Price is the first open.
	Price float64
	// Sigma is the standard deviation of the per-bar log return.
	Sigma float64
	// Drift is added to every log return.
	Drift  float64
	Volume float64
}

// DailyWalk is a daily walk starting on the first trading day of 2024.
func DailyWalk(symbol string, bars int) WalkConfig {
	return WalkConfig{
		Symbol: symbol,
		Start:  time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC),
		Step:   24 * time.Hour,
		Bars:   bars,
		Price:  100,
		Sigma:  0.02,
		Volume: 1_000_000,
	}
}

// PriceWalk draws log-normal price walks from a seeded source, so the same
// seed always yields the same bars.
type PriceWalk struct {
	rng *rand.Rand
}

func NewPriceWalk(seed int64) *PriceWalk {
	return &PriceWalk{rng: rand.New(rand.NewSource(seed))}
}

// Bars returns cfg.Bars bars. Each open is the previous close, and high and
// low always bracket the open and close.
func (w *PriceWalk) Bars(cfg WalkConfig) []types.MarketData {
	bars := make([]types.MarketData, 0, cfg.Bars)
	price := cfg.Price

	for i := range cfg.Bars {
		open := price
		close := open * math.Exp(cfg.Drift+cfg.Sigma*w.rng.NormFloat64())

		// wicks reach at most one sigma past the body
		high := math.Max(open, close) * (1 + cfg.Sigma*w.rng.Float64())
		low := math.Min(open, close) * (1 - cfg.Sigma*w.rng.Float64())

		bars = append(bars, types.MarketData{
			Symbol: cfg.Symbol,
			Time:   cfg.Start.Add(time.Duration(i) * cfg.Step),
			Open:   round(open, 4),
			High:   round(high, 4),
			Low:    round(low, 4),
			Close:  round(close, 4),
			Volume: round(cfg.Volume*(0.5+w.rng.Float64()), 0),
		})

		price = round(close, 4)
	}

	return bars
}

// Series wraps Bars in a PriceSeries.
func (w *PriceWalk) Series(cfg WalkConfig) (types.PriceSeries, error) {
	return types.NewPriceSeries(cfg.Symbol, w.Bars(cfg))
}

// Interleaved walks every symbol over the same timestamps and merges the bars
// in time order, the way a multi-symbol data file lists them. Each symbol
// starts from its own price.
func (w *PriceWalk) Interleaved(symbols []string, cfg WalkConfig) []types.MarketData {
	var bars []types.MarketData

	for i, symbol := range symbols {
		symbolCfg := cfg
		symbolCfg.Symbol = symbol
		symbolCfg.Price = cfg.Price * float64(i+1)

		bars = append(bars, w.Bars(symbolCfg)...)
	}

	slices.SortStableFunc(bars, func(a, b types.MarketData) int {
		return a.Time.Compare(b.Time)
	})

	return bars
}

// DailySeries returns count daily bars for symbol, always the same for the
// same arguments.
func DailySeries(symbol string, count int) (types.PriceSeries, error) {
	return NewPriceWalk(42).Series(DailyWalk(symbol, count))
}

func round(v float64, places int32) float64 {
	return decimal.NewFromFloat(v).Round(places).InexactFloat64()
}
