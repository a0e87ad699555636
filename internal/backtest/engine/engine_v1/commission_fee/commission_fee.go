package commission_fee

import (
	"math"

	"github.com/rxtech-lab/argo-backtest/pkg/errors"
)

// Commission is a single proportional rate charged on the notional value of
// every executed trade leg, opening or closing, long or short.
type Commission struct {
	rate float64
}

// NewCommission validates rate and returns the commission scheme.
func NewCommission(rate float64) (Commission, error) {
	if err := ValidateRate(rate); err != nil {
		return Commission{}, err
	}

	return Commission{rate: rate}, nil
}

// ValidateRate checks that rate lies in [0, 1).
func ValidateRate(rate float64) error {
	if math.IsNaN(rate) || rate < 0 || rate >= 1 {
		return errors.Newf(errors.ErrCodeInvalidCommissionRate, "commission rate must be in [0, 1), got %v", rate)
	}

	return nil
}

// Rate returns the proportional rate.
func (c Commission) Rate() float64 {
	return c.rate
}

// Calculate returns the fee charged on a trade of the given notional value.
// The sign of notional is ignored.
func (c Commission) Calculate(notional float64) float64 {
	return math.Abs(notional) * c.rate
}

// BuyPrice is the per-lot cash cost of buying at price, commission included.
func (c Commission) BuyPrice(price float64) float64 {
	return price * (1 + c.rate)
}

// SellPrice is the per-lot cash received for selling at price, net of commission.
func (c Commission) SellPrice(price float64) float64 {
	return price * (1 - c.rate)
}
