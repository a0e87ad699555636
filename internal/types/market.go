package types

import (
	"time"

	"github.com/rxtech-lab/argo-backtest/pkg/errors"
)

// MarketData is a single OHLCV bar.
type MarketData struct {
	Id     string    `csv:"id" yaml:"id" json:"id"`
	Symbol string    `csv:"symbol" yaml:"symbol" json:"symbol"`
	Time   time.Time `csv:"time" yaml:"time" json:"time"`
	Open   float64   `csv:"open" yaml:"open" json:"open"`
	High   float64   `csv:"high" yaml:"high" json:"high"`
	Low    float64   `csv:"low" yaml:"low" json:"low"`
	Close  float64   `csv:"close" yaml:"close" json:"close"`
	Volume float64   `csv:"volume" yaml:"volume" json:"volume"`
}

// PriceSeries is an ordered, read-only set of bars for one symbol.
// Bars are indexed 0..Len()-1 in ascending time order.
type PriceSeries struct {
	symbol string
	bars   []MarketData
}

// NewPriceSeries copies bars into a PriceSeries. The bars must be non-empty and
// strictly ascending in time. If symbol is empty the first bar's symbol is used.
// Price levels are not validated.
func NewPriceSeries(symbol string, bars []MarketData) (PriceSeries, error) {
	if len(bars) == 0 {
		return PriceSeries{}, errors.New(errors.ErrCodeEmptySeries, "price series must contain at least one bar")
	}

	for i := 1; i < len(bars); i++ {
		if !bars[i].Time.After(bars[i-1].Time) {
			return PriceSeries{}, errors.Newf(errors.ErrCodeInvalidParameter,
				"bar %d at %s is not after bar %d at %s",
				i, bars[i].Time.Format(time.RFC3339), i-1, bars[i-1].Time.Format(time.RFC3339))
		}
	}

	if symbol == "" {
		symbol = bars[0].Symbol
	}

	owned := make([]MarketData, len(bars))
	copy(owned, bars)

	return PriceSeries{symbol: symbol, bars: owned}, nil
}

// Symbol returns the ticker of the series.
func (p PriceSeries) Symbol() string { return p.symbol }

// Len returns the number of bars.
func (p PriceSeries) Len() int { return len(p.bars) }

// Bar returns the bar at index i.
func (p PriceSeries) Bar(i int) MarketData { return p.bars[i] }

func (p PriceSeries) Time(i int) time.Time { return p.bars[i].Time }
func (p PriceSeries) Open(i int) float64   { return p.bars[i].Open }
func (p PriceSeries) High(i int) float64   { return p.bars[i].High }
func (p PriceSeries) Low(i int) float64    { return p.bars[i].Low }
func (p PriceSeries) Close(i int) float64  { return p.bars[i].Close }

// Bars returns a copy of the underlying bars.
func (p PriceSeries) Bars() []MarketData {
	out := make([]MarketData, len(p.bars))
	copy(out, p.bars)

	return out
}

// Times returns a copy of the bar timestamps.
func (p PriceSeries) Times() []time.Time {
	out := make([]time.Time, len(p.bars))
	for i, bar := range p.bars {
		out[i] = bar.Time
	}

	return out
}

// Opens returns a copy of the open prices.
func (p PriceSeries) Opens() []float64 {
	return p.column(func(bar MarketData) float64 { return bar.Open })
}

// Highs returns a copy of the high prices.
func (p PriceSeries) Highs() []float64 {
	return p.column(func(bar MarketData) float64 { return bar.High })
}

// Lows returns a copy of the low prices.
func (p PriceSeries) Lows() []float64 {
	return p.column(func(bar MarketData) float64 { return bar.Low })
}

// Closes returns a copy of the close prices.
func (p PriceSeries) Closes() []float64 {
	return p.column(func(bar MarketData) float64 { return bar.Close })
}

func (p PriceSeries) column(pick func(MarketData) float64) []float64 {
	out := make([]float64, len(p.bars))
	for i, bar := range p.bars {
		out[i] = pick(bar)
	}

	return out
}
