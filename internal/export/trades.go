package export

import (
	"os"
	"path/filepath"
	"time"

	"github.com/gocarina/gocsv"
	"github.com/rxtech-lab/argo-backtest/internal/types"
	"github.com/rxtech-lab/argo-backtest/pkg/errors"
)

// TradeRow is one line of trades.csv.
type TradeRow struct {
	Time       string      `csv:"TIME"`
	Order      types.Order `csv:"ORDER"`
	Quantity   float64     `csv:"QUANTITY"`
	Price      float64     `csv:"PRICE"`
	Commission float64     `csv:"COMMISSION"`
	Position   float64     `csv:"POSITION"`
	Account    float64     `csv:"ACCOUNT"`
}

func tradeRows(trades []types.Trade) []TradeRow {
	rows := make([]TradeRow, len(trades))
	for i, t := range trades {
		rows[i] = TradeRow{
			Time:       t.Time.UTC().Format(time.RFC3339),
			Order:      t.Order,
			Quantity:   t.Quantity,
			Price:      t.Price,
			Commission: t.Commission,
			Position:   t.Position,
			Account:    t.Account,
		}
	}

	return rows
}

// WriteTradesCSV writes the trades of one run to path. A run without trades
// still gets the header line.
func WriteTradesCSV(path string, trades []types.Trade) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return errors.Wrapf(errors.ErrCodeExportFailed, err, "failed to create trades folder for %s", path)
	}

	file, err := os.Create(path)
	if err != nil {
		return errors.Wrapf(errors.ErrCodeExportFailed, err, "failed to create trades file %s", path)
	}
	defer file.Close()

	rows := tradeRows(trades)
	if err := gocsv.MarshalFile(&rows, file); err != nil {
		return errors.Wrapf(errors.ErrCodeExportFailed, err, "failed to write trades %s", path)
	}

	return nil
}

// ReadTradesCSV reads a file written by WriteTradesCSV.
func ReadTradesCSV(path string) ([]TradeRow, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrapf(errors.ErrCodeDataNotFound, err, "failed to open trades %s", path)
	}
	defer file.Close()

	var rows []TradeRow
	if err := gocsv.UnmarshalFile(file, &rows); err != nil {
		return nil, errors.Wrapf(errors.ErrCodeExportFailed, err, "failed to read trades %s", path)
	}

	return rows, nil
}
