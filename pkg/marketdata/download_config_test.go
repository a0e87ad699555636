package marketdata

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/polygon-io/client-go/rest/models"
	"github.com/rxtech-lab/argo-backtest/pkg/errors"
	"github.com/stretchr/testify/suite"
)

type DownloadConfigTestSuite struct {
	suite.Suite
}

func TestDownloadConfigTestSuite(t *testing.T) {
	suite.Run(t, new(DownloadConfigTestSuite))
}

func validBase() BaseDownloadConfig {
	return BaseDownloadConfig{
		Ticker:    "SPY",
		StartDate: "2024-01-01T00:00:00Z",
		EndDate:   "2024-12-31",
		Interval:  "1d",
	}
}

func (suite *DownloadConfigTestSuite) TestPolygonConfigValidation() {
	tests := []struct {
		name     string
		mutate   func(c *PolygonDownloadConfig)
		contains string
	}{
		{name: "valid", mutate: func(*PolygonDownloadConfig) {}},
		{name: "missing ticker", mutate: func(c *PolygonDownloadConfig) { c.Ticker = "" }, contains: "Ticker"},
		{name: "missing api key", mutate: func(c *PolygonDownloadConfig) { c.ApiKey = "" }, contains: "ApiKey"},
		{name: "invalid interval", mutate: func(c *PolygonDownloadConfig) { c.Interval = "2d" }, contains: "Interval"},
		{name: "invalid date", mutate: func(c *PolygonDownloadConfig) { c.StartDate = "01/02/2024" }, contains: "invalid date"},
	}

	for _, tc := range tests {
		suite.Run(tc.name, func() {
			config := &PolygonDownloadConfig{BaseDownloadConfig: validBase(), ApiKey: "test-api-key"}
			tc.mutate(config)

			err := config.Validate()
			if tc.contains == "" {
				suite.NoError(err)

				return
			}

			suite.Require().Error(err)
			suite.Contains(err.Error(), tc.contains)
		})
	}
}

func (suite *DownloadConfigTestSuite) TestBinanceConfigValidation() {
	config := &BinanceDownloadConfig{BaseDownloadConfig: validBase()}
	suite.NoError(config.Validate())

	config.EndDate = ""
	err := config.Validate()
	suite.Require().Error(err)
	suite.Equal(errors.ErrCodeInvalidConfiguration, errors.GetCode(err))
}

func (suite *DownloadConfigTestSuite) TestParseDate() {
	t, err := ParseDate("2024-03-05")
	suite.Require().NoError(err)
	suite.Equal(time.Date(2024, 3, 5, 0, 0, 0, 0, time.UTC), t)

	t, err = ParseDate("2024-03-05T09:30:00Z")
	suite.Require().NoError(err)
	suite.Equal(time.Date(2024, 3, 5, 9, 30, 0, 0, time.UTC), t)

	_, err = ParseDate("March 5")
	suite.Equal(errors.ErrCodeInvalidParameter, errors.GetCode(err))
}

func (suite *DownloadConfigTestSuite) TestParsePolygonConfig() {
	config, err := ParsePolygonConfig(`{"ticker":"SPY","startDate":"2024-01-01","endDate":"2024-02-01","interval":"1h","apiKey":"k"}`)
	suite.Require().NoError(err)
	suite.Equal("SPY", config.Ticker)
	suite.Equal("k", config.ApiKey)

	_, err = ParsePolygonConfig(`{invalid`)
	suite.Require().Error(err)
	suite.Contains(err.Error(), "failed to parse JSON config")

	_, err = ParsePolygonConfig(`{"ticker":"SPY","startDate":"2024-01-01","endDate":"2024-02-01","interval":"1h"}`)
	suite.Error(err)
}

func (suite *DownloadConfigTestSuite) TestParseBinanceConfig() {
	config, err := ParseBinanceConfig(`{"ticker":"BTCUSDT","startDate":"2024-01-01","endDate":"2024-02-01","interval":"4h"}`)
	suite.Require().NoError(err)
	suite.Equal("BTCUSDT", config.Ticker)
	suite.Equal("4h", config.Interval)
}

func (suite *DownloadConfigTestSuite) TestToDownloadParams() {
	base := BaseDownloadConfig{Ticker: "BTCUSDT", StartDate: "2024-01-01", EndDate: "2024-01-31", Interval: "15m"}

	params, err := base.ToDownloadParams()
	suite.Require().NoError(err)
	suite.Equal("BTCUSDT", params.Ticker)
	suite.Equal(time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC), params.StartDate)
	suite.Equal(time.Date(2024, 1, 31, 0, 0, 0, 0, time.UTC), params.EndDate)
	suite.Equal(15, params.Multiplier)
	suite.Equal(models.Minute, params.Timespan)
	suite.Equal("BTCUSDT_2024-01-01_2024-01-31_15_minute.parquet", params.OutputFileName())

	base.Interval = "7m"
	_, err = base.ToDownloadParams()
	suite.Equal(errors.ErrCodeInvalidTimespan, errors.GetCode(err))
}

func (suite *DownloadConfigTestSuite) TestToClientConfig() {
	polygonConfig := &PolygonDownloadConfig{BaseDownloadConfig: validBase(), ApiKey: "k"}
	suite.Equal(ClientConfig{
		ProviderType:  ProviderPolygon,
		WriterType:    WriterDuckDB,
		DataPath:      "data",
		PolygonApiKey: "k",
	}, polygonConfig.ToClientConfig("data"))

	binanceConfig := &BinanceDownloadConfig{BaseDownloadConfig: validBase()}
	clientConfig := binanceConfig.ToClientConfig("data")
	suite.Equal(ProviderBinance, clientConfig.ProviderType)
	suite.Empty(clientConfig.PolygonApiKey)
}

func (suite *DownloadConfigTestSuite) TestConfigJSONSchema() {
	schema, err := GetDownloadConfigSchema("polygon")
	suite.Require().NoError(err)

	var parsed map[string]any
	suite.Require().NoError(json.Unmarshal([]byte(schema), &parsed))

	properties, ok := parsed["properties"].(map[string]any)
	suite.Require().True(ok)
	suite.Contains(properties, "ticker")
	suite.Contains(properties, "interval")
	suite.Contains(properties, "apiKey")

	schema, err = GetDownloadConfigSchema("binance")
	suite.Require().NoError(err)
	suite.NotContains(schema, "apiKey")
}
