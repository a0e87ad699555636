package types

import (
	"fmt"
	"strings"

	"github.com/rxtech-lab/argo-backtest/pkg/errors"
)

// Order is the per-bar decision produced by a strategy.
type Order string

const (
	// OrderBuy asks for a long position.
	OrderBuy Order = "BUY"
	// OrderShort asks for a short position.
	OrderShort Order = "SHORT"
	// OrderFlat asks for no position.
	OrderFlat Order = "FLAT"
)

// AllOrders lists every order value.
var AllOrders = []Order{
	OrderBuy,
	OrderShort,
	OrderFlat,
}

// String implements fmt.Stringer.
func (o Order) String() string {
	return string(o)
}

// Valid reports whether o is one of the known orders.
func (o Order) Valid() bool {
	switch o {
	case OrderBuy, OrderShort, OrderFlat:
		return true
	default:
		return false
	}
}

// Invert swaps BUY and SHORT. FLAT is unchanged.
func (o Order) Invert() Order {
	switch o {
	case OrderBuy:
		return OrderShort
	case OrderShort:
		return OrderBuy
	default:
		return o
	}
}

// ParseOrder parses an order name. SHORTSELL and NULL are accepted as aliases
// of SHORT and FLAT.
func ParseOrder(s string) (Order, error) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "BUY", "LONG":
		return OrderBuy, nil
	case "SHORT", "SHORTSELL", "SELL":
		return OrderShort, nil
	case "FLAT", "NULL", "":
		return OrderFlat, nil
	default:
		return "", errors.Newf(errors.ErrCodeInvalidParameter, "unknown order %q", s)
	}
}

// MarshalCSV implements gocsv.TypeMarshaller.
func (o Order) MarshalCSV() (string, error) {
	return string(o), nil
}

// UnmarshalCSV implements gocsv.TypeUnmarshaller.
func (o *Order) UnmarshalCSV(s string) error {
	parsed, err := ParseOrder(s)
	if err != nil {
		return fmt.Errorf("failed to parse order: %w", err)
	}

	*o = parsed

	return nil
}
