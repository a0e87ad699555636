// Package strategy turns a price series into a sequence of orders, one per bar.
package strategy

import (
	"github.com/rxtech-lab/argo-backtest/internal/types"
	"github.com/rxtech-lab/argo-backtest/pkg/errors"
)

// InvertedName is the name given to every inverted strategy.
const InvertedName = "invert"

// Strategy is a named order sequence together with the indicator traces that
// produced it. Orders[i] is decided with data up to and including bar i.
type Strategy struct {
	Name       string
	Orders     []types.Order
	Indicators [][]float64
}

// Len returns the number of orders.
func (s Strategy) Len() int {
	return len(s.Orders)
}

// Invert swaps BUY and SHORT. FLAT orders and the indicator traces are kept.
func (s Strategy) Invert() Strategy {
	orders := make([]types.Order, len(s.Orders))
	for i, order := range s.Orders {
		orders[i] = order.Invert()
	}

	indicators := make([][]float64, len(s.Indicators))
	for i, trace := range s.Indicators {
		indicators[i] = append([]float64(nil), trace...)
	}

	return Strategy{
		Name:       InvertedName,
		Orders:     orders,
		Indicators: indicators,
	}
}

// Validate checks that the strategy covers a series of the given length.
func (s Strategy) Validate(length int) error {
	if len(s.Orders) != length {
		return errors.Newf(errors.ErrCodeShapeMismatch,
			"strategy %q has %d orders for %d bars", s.Name, len(s.Orders), length)
	}

	for i, trace := range s.Indicators {
		if len(trace) != length {
			return errors.Newf(errors.ErrCodeShapeMismatch,
				"strategy %q indicator %d has %d values for %d bars", s.Name, i, len(trace), length)
		}
	}

	for i, order := range s.Orders {
		if !order.Valid() {
			return errors.Newf(errors.ErrCodeInvalidParameter, "strategy %q has unknown order %q at index %d", s.Name, order, i)
		}
	}

	return nil
}
