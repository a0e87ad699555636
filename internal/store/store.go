// Package store keeps a history of backtest runs in SQLite.
package store

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"os"
	"path/filepath"
	"strings"

	"github.com/rxtech-lab/argo-backtest/internal/types"
	"github.com/rxtech-lab/argo-backtest/pkg/errors"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"gorm.io/gorm/logger"
)

// RunFilter narrows ListRuns. Empty fields match everything and a
// non-positive Limit returns every run.
type RunFilter struct {
	Symbol   string
	Strategy string
	Limit    int
}

type RunStore struct {
	db *gorm.DB
}

func NewRunStore(path string) (*RunStore, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return nil, errors.New(errors.ErrCodeInvalidParameter, "database path cannot be empty")
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, errors.Wrap(errors.ErrCodeStoreFailed, "failed to create database directory", err)
	}

	db, err := gorm.Open(sqlite.Open(path+"?_busy_timeout=5000"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeStoreFailed, "failed to open run store", err)
	}

	if err := db.AutoMigrate(&RunModel{}); err != nil {
		return nil, errors.Wrap(errors.ErrCodeStoreFailed, "failed to migrate run store", err)
	}

	if sqlDB, err := db.DB(); err == nil {
		sqlDB.SetMaxOpenConns(1)
	}

	return &RunStore{db: db}, nil
}

// SaveRun inserts stats, replacing any run with the same ID.
func (s *RunStore) SaveRun(ctx context.Context, stats types.RunStats, resultFolder string) error {
	details, err := json.Marshal(stats)
	if err != nil {
		return errors.Wrap(errors.ErrCodeStoreFailed, "failed to encode run stats", err)
	}

	run := RunModel{
		ID:              stats.ID,
		Symbol:          stats.Symbol,
		Strategy:        stats.Strategy,
		StartTime:       stats.StartTime,
		EndTime:         stats.EndTime,
		Bars:            stats.Bars,
		FinalNetWorth:   stats.Performance.FinalNetWorth,
		TotalReturn:     stats.Performance.TotalReturn,
		MaxDrawdown:     stats.Performance.MaxDrawdown,
		NumberOfTrades:  stats.Activity.NumberOfTrades,
		TotalCommission: stats.Activity.TotalCommission,
		ResultFolder:    resultFolder,
		Details:         details,
		ExecutedAt:      stats.Timestamp,
	}

	err = s.db.WithContext(ctx).
		Clauses(clause.OnConflict{UpdateAll: true}).
		Create(&run).Error
	if err != nil {
		return errors.Wrapf(errors.ErrCodeStoreFailed, err, "failed to save run %s", stats.ID)
	}

	return nil
}

// GetRun returns the run with the given ID.
func (s *RunStore) GetRun(ctx context.Context, id string) (types.RunStats, error) {
	var run RunModel

	err := s.db.WithContext(ctx).Where("id = ?", id).First(&run).Error
	if stderrors.Is(err, gorm.ErrRecordNotFound) {
		return types.RunStats{}, errors.Newf(errors.ErrCodeDataNotFound, "run %s not found", id)
	}

	if err != nil {
		return types.RunStats{}, errors.Wrapf(errors.ErrCodeStoreFailed, err, "failed to load run %s", id)
	}

	return decodeRun(run)
}

// ListRuns returns the runs matching filter, most recent first.
func (s *RunStore) ListRuns(ctx context.Context, filter RunFilter) ([]types.RunStats, error) {
	q := s.db.WithContext(ctx).Order("executed_at DESC").Order("strategy ASC")

	if filter.Symbol != "" {
		q = q.Where("symbol = ?", filter.Symbol)
	}

	if filter.Strategy != "" {
		q = q.Where("strategy = ?", filter.Strategy)
	}

	if filter.Limit > 0 {
		q = q.Limit(filter.Limit)
	}

	var runs []RunModel
	if err := q.Find(&runs).Error; err != nil {
		return nil, errors.Wrap(errors.ErrCodeStoreFailed, "failed to list runs", err)
	}

	stats := make([]types.RunStats, 0, len(runs))

	for _, run := range runs {
		decoded, err := decodeRun(run)
		if err != nil {
			return nil, err
		}

		stats = append(stats, decoded)
	}

	return stats, nil
}

// DeleteRun removes the run with the given ID. Deleting a missing run is not an error.
func (s *RunStore) DeleteRun(ctx context.Context, id string) error {
	if err := s.db.WithContext(ctx).Where("id = ?", id).Delete(&RunModel{}).Error; err != nil {
		return errors.Wrapf(errors.ErrCodeStoreFailed, err, "failed to delete run %s", id)
	}

	return nil
}

func (s *RunStore) Close() error {
	if s.db == nil {
		return nil
	}

	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}

	return sqlDB.Close()
}

func decodeRun(run RunModel) (types.RunStats, error) {
	var stats types.RunStats
	if err := json.Unmarshal(run.Details, &stats); err != nil {
		return types.RunStats{}, errors.Wrapf(errors.ErrCodeStoreFailed, err, "failed to decode run %s", run.ID)
	}

	return stats, nil
}
