package engine

import (
	"math"

	"github.com/rxtech-lab/argo-backtest/internal/backtest/engine/engine_v1/commission_fee"
	"github.com/rxtech-lab/argo-backtest/internal/types"
	"github.com/rxtech-lab/argo-backtest/pkg/errors"
)

// ShortSizing selects how the lot count of a new short position is computed.
type ShortSizing string

const (
	// ShortSizingDiscounted sizes a short as floor(nw / (open*(1-r))).
	ShortSizingDiscounted ShortSizing = "discounted"
	// ShortSizingSymmetric sizes a short as floor(nw / (open*(1+r))), the same
	// effective price a long entry pays.
	ShortSizingSymmetric ShortSizing = "symmetric"
)

// AllShortSizings lists the accepted short sizing conventions for the config schema.
var AllShortSizings = []any{
	ShortSizingDiscounted,
	ShortSizingSymmetric,
}

// maxLots is the first lot count that does not fit in an int64.
const maxLots = float64(math.MaxInt64)

type stance int

const (
	stanceFlat stance = iota
	stanceLong
	stanceShort
)

func stanceOf(order types.Order) (stance, bool) {
	switch order {
	case types.OrderBuy:
		return stanceLong, true
	case types.OrderShort:
		return stanceShort, true
	case types.OrderFlat:
		return stanceFlat, true
	default:
		return stanceFlat, false
	}
}

// Simulation holds the per-bar output of Simulate. Every slice has the length
// of the simulated price series.
type Simulation struct {
	// Position is the signed lot count held at each bar.
	Position []float64
	// Account is the cash balance at each bar.
	Account []float64
	// Commission is the commission charged at each bar. It is zero on bars
	// without a trade.
	Commission []float64
}

type simulateOptions struct {
	shortSizing ShortSizing
}

// SimulateOption customises Simulate.
type SimulateOption func(*simulateOptions)

// WithShortSizing sets the short entry sizing convention.
// The default is ShortSizingDiscounted.
func WithShortSizing(sizing ShortSizing) SimulateOption {
	return func(o *simulateOptions) {
		o.shortSizing = sizing
	}
}

// Simulate turns a sequence of orders into position and cash balances.
//
// The order at index i-1 is executed at the open of bar i and determines the
// position and account at bar i. Bar 0 is always flat with the initial cash.
// An order equal to the current stance carries the previous bar forward
// without trading. Any change of stance unwinds the held lots, then opens new
// lots sized to the whole number affordable after commission.
//
// Simulate is a pure function of its inputs. On error no partial result is returned.
func Simulate(series types.PriceSeries, orders []types.Order, initialCash float64, commissionRate float64, opts ...SimulateOption) (Simulation, error) {
	options := simulateOptions{shortSizing: ShortSizingDiscounted}
	for _, opt := range opts {
		opt(&options)
	}

	length := series.Len()
	if length == 0 {
		return Simulation{}, errors.New(errors.ErrCodeEmptySeries, "cannot simulate an empty price series")
	}

	if len(orders) != length {
		return Simulation{}, errors.Newf(errors.ErrCodeShapeMismatch,
			"orders length %d does not match price series length %d", len(orders), length)
	}

	commission, err := commission_fee.NewCommission(commissionRate)
	if err != nil {
		return Simulation{}, err
	}

	if math.IsNaN(initialCash) || math.IsInf(initialCash, 0) {
		return Simulation{}, errors.Newf(errors.ErrCodeInvalidParameter, "initial cash must be finite, got %v", initialCash)
	}

	if options.shortSizing != ShortSizingDiscounted && options.shortSizing != ShortSizingSymmetric {
		return Simulation{}, errors.Newf(errors.ErrCodeInvalidParameter, "unknown short sizing %q", options.shortSizing)
	}

	sim := Simulation{
		Position:   make([]float64, length),
		Account:    make([]float64, length),
		Commission: make([]float64, length),
	}
	sim.Account[0] = initialCash

	current := stanceFlat
	prevPosition := 0.0
	prevAccount := initialCash

	for i := 1; i < length; i++ {
		order := orders[i-1]

		want, ok := stanceOf(order)
		if !ok {
			return Simulation{}, errors.Newf(errors.ErrCodeInvalidParameter, "unknown order %q at index %d", order, i-1)
		}

		if want == current {
			sim.Position[i] = prevPosition
			sim.Account[i] = prevAccount

			continue
		}

		open := series.Open(i)
		if !(open > 0) || math.IsInf(open, 1) {
			return Simulation{}, errors.Newf(errors.ErrCodeNonPositivePrice,
				"open price %v at bar %d cannot execute %s", open, i, order)
		}

		// Revalue the held lots at this open, net of the unwind commission.
		netWorth := prevAccount + prevPosition*open*(1-sign(prevPosition)*commission.Rate())
		fee := commission.Calculate(prevPosition * open)

		var position, account float64

		switch want {
		case stanceLong:
			lots, err := wholeLots(netWorth, commission.BuyPrice(open), i)
			if err != nil {
				return Simulation{}, err
			}

			position = lots
			account = netWorth - lots*commission.BuyPrice(open)
			fee += commission.Calculate(lots * open)
		case stanceShort:
			unitPrice := commission.SellPrice(open)
			if options.shortSizing == ShortSizingSymmetric {
				unitPrice = commission.BuyPrice(open)
			}

			lots, err := wholeLots(netWorth, unitPrice, i)
			if err != nil {
				return Simulation{}, err
			}

			position = -lots
			account = netWorth + lots*commission.SellPrice(open)
			fee += commission.Calculate(lots * open)
		case stanceFlat:
			position = 0
			account = netWorth
		}

		sim.Position[i] = position
		sim.Account[i] = account
		sim.Commission[i] = fee
		current = want
		prevPosition, prevAccount = position, account
	}

	return sim, nil
}

// wholeLots returns the number of whole lots of unitPrice that netWorth pays
// for, truncated toward zero. A non-positive net worth buys nothing.
func wholeLots(netWorth float64, unitPrice float64, bar int) (float64, error) {
	ratio := netWorth / unitPrice
	if math.IsNaN(ratio) || math.IsInf(ratio, 0) || ratio >= maxLots {
		return 0, errors.Newf(errors.ErrCodeOverflow,
			"lot count %v at bar %d exceeds the representable range", ratio, bar)
	}

	if ratio <= 0 {
		return 0, nil
	}

	return float64(int64(ratio)), nil
}

func sign(x float64) float64 {
	switch {
	case x > 0:
		return 1
	case x < 0:
		return -1
	default:
		return 0
	}
}
