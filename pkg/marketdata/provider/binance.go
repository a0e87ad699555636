package provider

import (
	"context"
	"strconv"
	"time"

	binance "github.com/adshao/go-binance/v2"
	"github.com/polygon-io/client-go/rest/models"
	"github.com/rxtech-lab/argo-backtest/internal/types"
	"github.com/rxtech-lab/argo-backtest/pkg/errors"
	"github.com/rxtech-lab/argo-backtest/pkg/marketdata/writer"
)

// binancePageSize is the number of klines Binance returns per request by default.
const binancePageSize = 500

// BinanceAPIClient is the part of the Binance client the provider uses.
type BinanceAPIClient interface {
	NewKlinesService() BinanceKlinesService
}

// BinanceKlinesService builds a kline request.
type BinanceKlinesService interface {
	Symbol(symbol string) BinanceKlinesService
	Interval(interval string) BinanceKlinesService
	StartTime(startTime int64) BinanceKlinesService
	EndTime(endTime int64) BinanceKlinesService
	Do(ctx context.Context) ([]*binance.Kline, error)
}

type binanceAPI struct {
	client *binance.Client
}

func (a *binanceAPI) NewKlinesService() BinanceKlinesService {
	return &binanceKlines{service: a.client.NewKlinesService()}
}

type binanceKlines struct {
	service *binance.KlinesService
}

func (k *binanceKlines) Symbol(symbol string) BinanceKlinesService {
	k.service.Symbol(symbol)

	return k
}

func (k *binanceKlines) Interval(interval string) BinanceKlinesService {
	k.service.Interval(interval)

	return k
}

func (k *binanceKlines) StartTime(startTime int64) BinanceKlinesService {
	k.service.StartTime(startTime)

	return k
}

func (k *binanceKlines) EndTime(endTime int64) BinanceKlinesService {
	k.service.EndTime(endTime)

	return k
}

func (k *binanceKlines) Do(ctx context.Context) ([]*binance.Kline, error) {
	return k.service.Do(ctx)
}

type BinanceClient struct {
	apiClient BinanceAPIClient
	writer    writer.MarketDataWriter
}

// NewBinanceClient creates a provider for Binance public klines. No API key is needed.
func NewBinanceClient() (Provider, error) {
	return NewBinanceClientWithAPI(&binanceAPI{client: binance.NewClient("", "")}), nil
}

// NewBinanceClientWithAPI creates a provider backed by api.
func NewBinanceClientWithAPI(api BinanceAPIClient) *BinanceClient {
	return &BinanceClient{
		apiClient: api,
		writer:    nil,
	}
}

func (c *BinanceClient) ConfigWriter(w writer.MarketDataWriter) {
	c.writer = w
}

// Download pages through the klines between startDate and endDate and writes
// each one as a bar stamped with its open time. Progress is reported in
// milliseconds since startDate.
func (c *BinanceClient) Download(ctx context.Context, ticker string, startDate time.Time, endDate time.Time, multiplier int, timespan models.Timespan, onProgress OnDownloadProgress) (string, error) {
	interval, err := convertTimespanToBinanceInterval(timespan, multiplier)
	if err != nil {
		return "", err
	}

	if c.writer == nil {
		return "", errors.New(errors.ErrCodeMarketDataWriteFailed, "no writer configured for BinanceClient")
	}

	if err := c.writer.Initialize(); err != nil {
		return "", errors.Wrap(errors.ErrCodeMarketDataWriteFailed, "failed to initialize writer", err)
	}

	startMillis := startDate.UnixMilli()
	endMillis := endDate.UnixMilli()
	total := float64(endMillis - startMillis)
	current := startMillis

	for {
		if err := ctx.Err(); err != nil {
			return "", err
		}

		klines, err := c.apiClient.NewKlinesService().
			Symbol(ticker).
			Interval(interval).
			StartTime(current).
			EndTime(endMillis).
			Do(ctx)
		if err != nil {
			return "", errors.Wrapf(errors.ErrCodeMarketDataFetchFailed, err, "failed to fetch %s klines from Binance", ticker)
		}

		if err := processKlines(c.writer, ticker, klines); err != nil {
			return "", err
		}

		if len(klines) < binancePageSize {
			break
		}

		// The next page starts right after the last kline closed.
		current = klines[len(klines)-1].CloseTime + 1

		reportProgress(onProgress, float64(current-startMillis), total, "Downloading "+ticker+" klines from Binance")

		if current >= endMillis {
			break
		}
	}

	reportProgress(onProgress, total, total, "Downloaded "+ticker+" klines from Binance")

	outputPath, err := c.writer.Finalize()
	if err != nil {
		return "", errors.Wrap(errors.ErrCodeMarketDataWriteFailed, "failed to finalize writer", err)
	}

	return outputPath, nil
}

// processKlines converts Binance klines to bars and writes them.
func processKlines(w writer.MarketDataWriter, ticker string, klines []*binance.Kline) error {
	for _, k := range klines {
		values := make([]float64, 5)

		for i, raw := range []string{k.Open, k.High, k.Low, k.Close, k.Volume} {
			v, err := strconv.ParseFloat(raw, 64)
			if err != nil {
				return errors.Wrapf(errors.ErrCodeMarketDataFetchFailed, err, "invalid kline value %q at %d", raw, k.OpenTime)
			}

			values[i] = v
		}

		bar := types.MarketData{
			Id:     "",
			Symbol: ticker,
			Time:   time.UnixMilli(k.OpenTime).UTC(),
			Open:   values[0],
			High:   values[1],
			Low:    values[2],
			Close:  values[3],
			Volume: values[4],
		}

		if err := w.Write(bar); err != nil {
			return errors.Wrap(errors.ErrCodeMarketDataWriteFailed, "failed to write market data", err)
		}
	}

	return nil
}

// convertTimespanToBinanceInterval converts a timespan and multiplier to a
// Binance interval such as 15m, 4h or 1w.
func convertTimespanToBinanceInterval(timespan models.Timespan, multiplier int) (string, error) {
	switch timespan {
	case models.Second:
		if multiplier == 1 {
			return "1s", nil
		}
	case models.Minute:
		switch multiplier {
		case 1, 3, 5, 15, 30:
			return strconv.Itoa(multiplier) + "m", nil
		}
	case models.Hour:
		switch multiplier {
		case 1, 2, 4, 6, 8, 12:
			return strconv.Itoa(multiplier) + "h", nil
		}
	case models.Day:
		switch multiplier {
		case 1, 3:
			return strconv.Itoa(multiplier) + "d", nil
		}
	case models.Week:
		if multiplier == 1 {
			return "1w", nil
		}
	case models.Month:
		if multiplier == 1 {
			return "1M", nil
		}
	}

	return "", errors.Newf(errors.ErrCodeInvalidTimespan, "unsupported Binance interval: %d %s", multiplier, timespan)
}
