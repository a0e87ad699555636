package types

import (
	"testing"

	"github.com/rxtech-lab/argo-backtest/pkg/errors"
	"github.com/stretchr/testify/suite"
)

type OrderTestSuite struct {
	suite.Suite
}

func TestOrderSuite(t *testing.T) {
	suite.Run(t, new(OrderTestSuite))
}

func (suite *OrderTestSuite) TestParseOrder() {
	tests := []struct {
		input    string
		expected Order
	}{
		{"BUY", OrderBuy},
		{"buy", OrderBuy},
		{"SHORT", OrderShort},
		{"SHORTSELL", OrderShort},
		{" flat ", OrderFlat},
		{"NULL", OrderFlat},
		{"", OrderFlat},
	}

	for _, tc := range tests {
		suite.Run(tc.input, func() {
			order, err := ParseOrder(tc.input)
			suite.NoError(err)
			suite.Equal(tc.expected, order)
		})
	}
}

func (suite *OrderTestSuite) TestParseOrderUnknown() {
	_, err := ParseOrder("HOLD")
	suite.Error(err)
	suite.True(errors.HasCode(err, errors.ErrCodeInvalidParameter))
}

func (suite *OrderTestSuite) TestInvert() {
	suite.Equal(OrderShort, OrderBuy.Invert())
	suite.Equal(OrderBuy, OrderShort.Invert())
	suite.Equal(OrderFlat, OrderFlat.Invert())
}

func (suite *OrderTestSuite) TestValid() {
	suite.True(OrderBuy.Valid())
	suite.True(OrderFlat.Valid())
	suite.False(Order("HOLD").Valid())
}

func (suite *OrderTestSuite) TestCSVRoundTrip() {
	text, err := OrderShort.MarshalCSV()
	suite.NoError(err)
	suite.Equal("SHORT", text)

	var order Order
	suite.NoError(order.UnmarshalCSV("SHORTSELL"))
	suite.Equal(OrderShort, order)
	suite.Error(order.UnmarshalCSV("nope"))
}
