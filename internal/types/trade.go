package types

import "time"

// Trade is a bar where the simulated position changed.
type Trade struct {
	RunID string `csv:"run_id" json:"run_id"`
	// Time of the bar whose open executed the trade.
	Time  time.Time `csv:"time" json:"time"`
	Order Order     `csv:"order" json:"order"`
	// Signed change in lots.
	Quantity float64 `csv:"quantity" json:"quantity"`
	// Execution open price.
	Price      float64 `csv:"price" json:"price"`
	Commission float64 `csv:"commission" json:"commission"`
	// Position and account after the trade.
	Position float64 `csv:"position" json:"position"`
	Account  float64 `csv:"account" json:"account"`
}
