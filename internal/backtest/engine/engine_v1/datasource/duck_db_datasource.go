package datasource

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/Masterminds/squirrel"
	_ "github.com/marcboeker/go-duckdb"
	"github.com/rxtech-lab/argo-backtest/internal/logger"
	"github.com/rxtech-lab/argo-backtest/internal/types"
	"github.com/rxtech-lab/argo-backtest/pkg/errors"
	"go.uber.org/zap"
)

type DuckDBDataSource struct {
	db     *sql.DB
	logger *logger.Logger
	sq     squirrel.StatementBuilderType
}

// NewDataSource creates a new DuckDB data source instance with the specified database path.
// The path parameter specifies the DuckDB database file location.
// This is distinct from Initialize() which loads market data into the database.
func NewDataSource(path string, logger *logger.Logger) (*DuckDBDataSource, error) {
	db, err := sql.Open("duckdb", path)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeDataSourceUnavailable, "failed to open duckdb", err)
	}

	_, err = db.Exec(`
		SET memory_limit='4GB';
		SET threads=4;
	`)
	if err != nil {
		db.Close()

		return nil, errors.Wrap(errors.ErrCodeDataSourceUnavailable, "failed to set DuckDB options", err)
	}

	return &DuckDBDataSource{
		db:     db,
		logger: logger,
		sq:     squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar),
	}, nil
}

// Initialize implements DataSource.
func (d *DuckDBDataSource) Initialize(path string) error {
	d.logger.Debug("Initializing DuckDB data source", zap.String("path", path))

	if _, err := os.Stat(path); err != nil {
		return errors.Wrapf(errors.ErrCodeDataNotFound, err, "market data file not found: %s", path)
	}

	var reader string

	escaped := strings.ReplaceAll(path, "'", "''")

	switch strings.ToLower(filepath.Ext(path)) {
	case ".parquet":
		reader = fmt.Sprintf("read_parquet('%s')", escaped)
	case ".csv":
		reader = fmt.Sprintf("read_csv_auto('%s', header=true)", escaped)
	default:
		return errors.Newf(errors.ErrCodeInvalidParameter, "unsupported market data file: %s", path)
	}

	if _, err := d.db.Exec(`DROP VIEW IF EXISTS market_data;`); err != nil {
		return errors.Wrap(errors.ErrCodeQueryFailed, "failed to drop existing view", err)
	}

	// squirrel has no CREATE VIEW
	if _, err := d.db.Exec(fmt.Sprintf(`CREATE VIEW market_data AS SELECT * FROM %s;`, reader)); err != nil {
		return errors.Wrapf(errors.ErrCodeQueryFailed, err, "failed to read market data from %s", path)
	}

	return nil
}

// Count implements DataSource.
func (d *DuckDBDataSource) Count(query Query) (int, error) {
	inner, err := d.selectBars(query)
	if err != nil {
		return 0, err
	}

	sqlQuery, args, err := d.sq.Select("COUNT(*)").FromSelect(inner, "bars").ToSql()
	if err != nil {
		return 0, errors.Wrap(errors.ErrCodeQueryFailed, "failed to build count query", err)
	}

	var count int
	if err := d.db.QueryRow(sqlQuery, args...).Scan(&count); err != nil {
		return 0, errors.Wrap(errors.ErrCodeQueryFailed, "failed to count market data", err)
	}

	return count, nil
}

// ReadAll implements DataSource with batch processing.
func (d *DuckDBDataSource) ReadAll(query Query) func(yield func(types.MarketData, error) bool) {
	const batchSize = 1000

	return func(yield func(types.MarketData, error) bool) {
		d.logger.Debug("Reading all data from DuckDB with batch processing")

		builder, err := d.selectBars(query)
		if err != nil {
			yield(types.MarketData{}, err)

			return
		}

		sqlQuery, args, err := builder.ToSql()
		if err != nil {
			yield(types.MarketData{}, errors.Wrap(errors.ErrCodeQueryFailed, "failed to build query", err))

			return
		}

		rows, err := d.db.Query(sqlQuery, args...)
		if err != nil {
			yield(types.MarketData{}, errors.Wrap(errors.ErrCodeQueryFailed, "failed to query market data", err))

			return
		}
		defer rows.Close()

		batch := make([]types.MarketData, 0, batchSize)

		for rows.Next() {
			var (
				timestamp                      time.Time
				open, high, low, close, volume float64
				symbol                         string
			)

			if err := rows.Scan(&timestamp, &symbol, &open, &high, &low, &close, &volume); err != nil {
				yield(types.MarketData{}, errors.Wrap(errors.ErrCodeQueryFailed, "failed to scan row", err))

				return
			}

			batch = append(batch, types.MarketData{
				Symbol: symbol,
				Time:   timestamp,
				Open:   open,
				High:   high,
				Low:    low,
				Close:  close,
				Volume: volume,
			})

			if len(batch) >= batchSize {
				for _, data := range batch {
					if !yield(data, nil) {
						return
					}
				}

				batch = batch[:0]
			}
		}

		if err := rows.Err(); err != nil {
			yield(types.MarketData{}, errors.Wrap(errors.ErrCodeQueryFailed, "error iterating rows", err))

			return
		}

		for _, data := range batch {
			if !yield(data, nil) {
				return
			}
		}
	}
}

// Symbols implements DataSource.
func (d *DuckDBDataSource) Symbols() ([]string, error) {
	sqlQuery, args, err := d.sq.Select("DISTINCT symbol").From("market_data").OrderBy("symbol ASC").ToSql()
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeQueryFailed, "failed to build query", err)
	}

	rows, err := d.db.Query(sqlQuery, args...)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeQueryFailed, "failed to query symbols", err)
	}
	defer rows.Close()

	var symbols []string

	for rows.Next() {
		var symbol string
		if err := rows.Scan(&symbol); err != nil {
			return nil, errors.Wrap(errors.ErrCodeQueryFailed, "failed to scan symbol", err)
		}

		symbols = append(symbols, symbol)
	}

	return symbols, rows.Err()
}

// Close implements DataSource.
func (d *DuckDBDataSource) Close() error {
	return d.db.Close()
}

// selectBars builds the bar query for q. With an interval the raw bars are
// bucketed per symbol: first open, highest high, lowest low, last close and
// summed volume.
func (d *DuckDBDataSource) selectBars(q Query) (squirrel.SelectBuilder, error) {
	var builder squirrel.SelectBuilder

	if q.Interval.IsSome() {
		minutes, err := getIntervalMinutes(q.Interval.Unwrap())
		if err != nil {
			return builder, err
		}

		builder = d.sq.Select(
			fmt.Sprintf("time_bucket(INTERVAL '%d minutes', time) AS bucket_time", minutes),
			"symbol",
			"arg_min(open, time) AS open",
			"max(high) AS high",
			"min(low) AS low",
			"arg_max(close, time) AS close",
			"sum(volume) AS volume",
		).
			From("market_data").
			GroupBy("bucket_time", "symbol").
			OrderBy("bucket_time ASC", "symbol ASC")
	} else {
		builder = d.sq.Select("time", "symbol", "open", "high", "low", "close", "volume").
			From("market_data").
			OrderBy("time ASC", "symbol ASC")
	}

	if q.Symbol.IsSome() {
		builder = builder.Where(squirrel.Eq{"symbol": q.Symbol.Unwrap()})
	}

	if q.Start.IsSome() {
		builder = builder.Where(squirrel.GtOrEq{"time": q.Start.Unwrap()})
	}

	if q.End.IsSome() {
		builder = builder.Where(squirrel.LtOrEq{"time": q.End.Unwrap()})
	}

	return builder, nil
}
