package engine

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	"github.com/Masterminds/squirrel"
	_ "github.com/marcboeker/go-duckdb"
	"github.com/rxtech-lab/argo-backtest/internal/logger"
	"github.com/rxtech-lab/argo-backtest/internal/types"
	"github.com/rxtech-lab/argo-backtest/pkg/errors"
	"go.uber.org/zap"
)

// insertBatchSize bounds the number of rows per INSERT statement.
const insertBatchSize = 500

// stateTables are exported by Write as <table>.parquet.
var stateTables = []string{"bars", "trades"}

// BacktestState keeps the per-bar results and trades of finished backtests
// in an in-memory DuckDB database so they can be queried and exported to
// Parquet.
type BacktestState struct {
	db     *sql.DB
	logger *logger.Logger
	sq     squirrel.StatementBuilderType
}

// NewBacktestState opens an in-memory database and creates the tables.
func NewBacktestState(logger *logger.Logger) (*BacktestState, error) {
	db, err := sql.Open("duckdb", ":memory:")
	if err != nil {
		logger.Error("Failed to open database", zap.Error(err))

		return nil, errors.Wrap(errors.ErrCodeStoreFailed, "failed to open database", err)
	}

	state := &BacktestState{
		logger: logger,
		db:     db,
		sq:     squirrel.StatementBuilder.PlaceholderFormat(squirrel.Question),
	}

	if err := state.Initialize(); err != nil {
		db.Close()

		return nil, err
	}

	return state, nil
}

// Initialize creates the bars and trades tables.
func (b *BacktestState) Initialize() error {
	_, err := b.db.Exec(`
		CREATE TABLE IF NOT EXISTS bars (
			run_id TEXT,
			strategy TEXT,
			bar INTEGER,
			time TIMESTAMP,
			open DOUBLE,
			close DOUBLE,
			order_type TEXT,
			position DOUBLE,
			account DOUBLE,
			market_value DOUBLE,
			net_worth DOUBLE,
			flow DOUBLE,
			commission DOUBLE,
			historical_price DOUBLE
		)
	`)
	if err != nil {
		return errors.Wrap(errors.ErrCodeStoreFailed, "failed to create bars table", err)
	}

	// A trade is a bar where the position changed. It executes the order
	// decided on the previous bar.
	_, err = b.db.Exec(`
		CREATE VIEW IF NOT EXISTS trades AS
		SELECT * FROM (
			SELECT
				run_id,
				time,
				LAG(order_type, 1, 'FLAT') OVER (PARTITION BY run_id ORDER BY bar) AS executed_order,
				position - LAG(position, 1, 0) OVER (PARTITION BY run_id ORDER BY bar) AS quantity,
				open AS price,
				-commission AS commission,
				position,
				account
			FROM bars
		)
		WHERE quantity <> 0
	`)
	if err != nil {
		return errors.Wrap(errors.ErrCodeStoreFailed, "failed to create trades view", err)
	}

	return nil
}

// Record inserts every bar of bt under runID.
func (b *BacktestState) Record(runID string, bt *Backtest) error {
	tx, err := b.db.Begin()
	if err != nil {
		return errors.Wrap(errors.ErrCodeStoreFailed, "failed to begin transaction", err)
	}
	defer tx.Rollback()

	rows := bt.Rows()
	for start := 0; start < len(rows); start += insertBatchSize {
		end := min(start+insertBatchSize, len(rows))

		insert := b.sq.Insert("bars").Columns(
			"run_id", "strategy", "bar", "time", "open", "close", "order_type",
			"position", "account", "market_value", "net_worth", "flow", "commission", "historical_price",
		)

		for i := start; i < end; i++ {
			row := rows[i]
			insert = insert.Values(
				runID, bt.StrategyName(), i, bt.Series().Time(i), row.Open, row.Close, string(row.Order),
				row.Position, row.Account, row.MarketValue, row.NetWorth, row.Flow, row.Commission, row.HistoricalPrice,
			)
		}

		if _, err := insert.RunWith(tx).Exec(); err != nil {
			return errors.Wrapf(errors.ErrCodeStoreFailed, err, "failed to insert bars for run %s", runID)
		}
	}

	if err := tx.Commit(); err != nil {
		return errors.Wrap(errors.ErrCodeStoreFailed, "failed to commit bars", err)
	}

	b.logger.Debug("Recorded backtest bars",
		zap.String("run_id", runID),
		zap.String("strategy", bt.StrategyName()),
		zap.Int("bars", len(rows)),
	)

	return nil
}

// GetTrades returns the trades of runID in time order.
func (b *BacktestState) GetTrades(runID string) ([]types.Trade, error) {
	query := b.sq.
		Select("run_id", "time", "executed_order", "quantity", "price", "commission", "position", "account").
		From("trades").
		Where(squirrel.Eq{"run_id": runID}).
		OrderBy("time ASC").
		RunWith(b.db)

	rows, err := query.Query()
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeQueryFailed, "failed to query trades", err)
	}
	defer rows.Close()

	var trades []types.Trade

	for rows.Next() {
		var trade types.Trade

		var order string

		if err := rows.Scan(
			&trade.RunID,
			&trade.Time,
			&order,
			&trade.Quantity,
			&trade.Price,
			&trade.Commission,
			&trade.Position,
			&trade.Account,
		); err != nil {
			return nil, errors.Wrap(errors.ErrCodeQueryFailed, "failed to scan trade", err)
		}

		trade.Order = types.Order(order)
		trades = append(trades, trade)
	}

	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(errors.ErrCodeQueryFailed, "error iterating trades", err)
	}

	return trades, nil
}

// Write exports the bars and trades to Parquet files in folder.
func (b *BacktestState) Write(folder string) error {
	if err := os.MkdirAll(folder, 0755); err != nil {
		return errors.Wrapf(errors.ErrCodeExportFailed, err, "failed to create folder %s", folder)
	}

	// COPY is not supported by squirrel
	for _, table := range stateTables {
		path := filepath.Join(folder, table+".parquet")

		if _, err := b.db.Exec(fmt.Sprintf(`COPY (SELECT * FROM %s) TO '%s' (FORMAT PARQUET)`, table, path)); err != nil {
			return errors.Wrapf(errors.ErrCodeExportFailed, err, "failed to export %s to parquet", table)
		}
	}

	b.logger.Debug("Exported backtest state to parquet", zap.String("folder", folder))

	return nil
}

// Close closes the database.
func (b *BacktestState) Close() error {
	return b.db.Close()
}
