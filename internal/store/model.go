package store

import (
	"time"

	"gorm.io/datatypes"
)

// RunModel maps to the 'backtest_runs' table. The headline numbers are
// columns so runs can be filtered and sorted in SQL; Details keeps the full
// statistics as JSON.
type RunModel struct {
	ID              string         `gorm:"column:id;primaryKey"`
	Symbol          string         `gorm:"column:symbol;index"`
	Strategy        string         `gorm:"column:strategy;index"`
	StartTime       time.Time      `gorm:"column:start_time"`
	EndTime         time.Time      `gorm:"column:end_time"`
	Bars            int            `gorm:"column:bars"`
	FinalNetWorth   float64        `gorm:"column:final_net_worth"`
	TotalReturn     float64        `gorm:"column:total_return"`
	MaxDrawdown     float64        `gorm:"column:max_drawdown"`
	NumberOfTrades  int            `gorm:"column:number_of_trades"`
	TotalCommission float64        `gorm:"column:total_commission"`
	ResultFolder    string         `gorm:"column:result_folder"`
	Details         datatypes.JSON `gorm:"column:details"`
	ExecutedAt      time.Time      `gorm:"column:executed_at;index"`
	CreatedAt       time.Time      `gorm:"column:created_at"`
}

func (RunModel) TableName() string { return "backtest_runs" }
