package datasource

import (
	"cmp"
	"slices"
	"time"

	"github.com/rxtech-lab/argo-backtest/internal/types"
	"github.com/rxtech-lab/argo-backtest/pkg/errors"
)

func getIntervalMinutes(interval Interval) (int, error) {
	var intervalMinutes int

	switch interval {
	case Interval1m:
		intervalMinutes = 1
	case Interval5m:
		intervalMinutes = 5
	case Interval15m:
		intervalMinutes = 15
	case Interval30m:
		intervalMinutes = 30
	case Interval1h:
		intervalMinutes = 60
	case Interval4h:
		intervalMinutes = 240
	case Interval6h:
		intervalMinutes = 360
	case Interval8h:
		intervalMinutes = 480
	case Interval12h:
		intervalMinutes = 720
	case Interval1d:
		intervalMinutes = 1440
	case Interval1w:
		intervalMinutes = 10080
	default:
		return 0, errors.Newf(errors.ErrCodeInvalidParameter, "unsupported interval: %s", interval)
	}

	return intervalMinutes, nil
}

// compareBars orders bars by time, then symbol.
func compareBars(a, b types.MarketData) int {
	if c := a.Time.Compare(b.Time); c != 0 {
		return c
	}

	return cmp.Compare(a.Symbol, b.Symbol)
}

// resample aggregates bars, which must be sorted with compareBars, into
// buckets of the interval width per symbol. Buckets are aligned to UTC
// midnight, and weekly buckets start on Monday.
func resample(bars []types.MarketData, interval Interval) ([]types.MarketData, error) {
	minutes, err := getIntervalMinutes(interval)
	if err != nil {
		return nil, err
	}

	width := time.Duration(minutes) * time.Minute

	type bucketKey struct {
		symbol string
		start  int64
	}

	index := make(map[bucketKey]int)
	out := make([]types.MarketData, 0, len(bars))

	for _, bar := range bars {
		start := bar.Time.Truncate(width).UTC()
		key := bucketKey{symbol: bar.Symbol, start: start.UnixNano()}

		i, ok := index[key]
		if !ok {
			index[key] = len(out)
			out = append(out, types.MarketData{
				Symbol: bar.Symbol,
				Time:   start,
				Open:   bar.Open,
				High:   bar.High,
				Low:    bar.Low,
				Close:  bar.Close,
				Volume: bar.Volume,
			})

			continue
		}

		agg := &out[i]
		agg.High = max(agg.High, bar.High)
		agg.Low = min(agg.Low, bar.Low)
		agg.Close = bar.Close
		agg.Volume += bar.Volume
	}

	slices.SortStableFunc(out, compareBars)

	return out, nil
}
