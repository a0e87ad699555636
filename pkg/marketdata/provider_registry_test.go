package marketdata

import (
	"testing"

	"github.com/rxtech-lab/argo-backtest/pkg/errors"
	"github.com/stretchr/testify/suite"
)

type ProviderRegistryTestSuite struct {
	suite.Suite
}

func TestProviderRegistryTestSuite(t *testing.T) {
	suite.Run(t, new(ProviderRegistryTestSuite))
}

func (suite *ProviderRegistryTestSuite) TestGetSupportedProviders() {
	suite.Equal([]string{"binance", "polygon"}, GetSupportedProviders())
}

func (suite *ProviderRegistryTestSuite) TestGetProviderInfo() {
	info, err := GetProviderInfo("polygon")
	suite.Require().NoError(err)
	suite.Equal("Polygon.io", info.DisplayName)
	suite.True(info.RequiresAuth)

	info, err = GetProviderInfo("binance")
	suite.Require().NoError(err)
	suite.Equal("Binance", info.DisplayName)
	suite.False(info.RequiresAuth)

	_, err = GetProviderInfo("invalid")
	suite.Require().Error(err)
	suite.Equal(errors.ErrCodeInvalidProvider, errors.GetCode(err))
}

func (suite *ProviderRegistryTestSuite) TestGetDownloadConfigSchemaInvalidProvider() {
	_, err := GetDownloadConfigSchema("invalid")
	suite.Equal(errors.ErrCodeInvalidProvider, errors.GetCode(err))
}

func (suite *ProviderRegistryTestSuite) TestParseDownloadConfig() {
	config, err := ParseDownloadConfig("polygon",
		`{"ticker":"SPY","startDate":"2024-01-01","endDate":"2024-12-31","interval":"1d","apiKey":"k"}`)
	suite.Require().NoError(err)
	suite.IsType(&PolygonDownloadConfig{}, config)
	suite.Equal("k", config.ToClientConfig("data").PolygonApiKey)

	config, err = ParseDownloadConfig("binance",
		`{"ticker":"BTCUSDT","startDate":"2024-01-01","endDate":"2024-12-31","interval":"1h"}`)
	suite.Require().NoError(err)

	params, err := config.ToDownloadParams()
	suite.Require().NoError(err)
	suite.Equal("BTCUSDT", params.Ticker)
}

func (suite *ProviderRegistryTestSuite) TestParseDownloadConfigErrors() {
	config, err := ParseDownloadConfig("invalid", `{}`)
	suite.Nil(config)
	suite.Equal(errors.ErrCodeInvalidProvider, errors.GetCode(err))

	config, err = ParseDownloadConfig("polygon", `{invalid`)
	suite.Nil(config)
	suite.Error(err)

	config, err = ParseDownloadConfig("binance", `{"ticker":"BTCUSDT"}`)
	suite.Nil(config)
	suite.Error(err)
}
