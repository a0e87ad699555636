package types

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

type RunPerformance struct {
	// Net worth at the last bar.
	FinalNetWorth float64 `yaml:"final_net_worth" json:"final_net_worth"`
	// Final net worth over initial capital minus one, in percent.
	TotalReturn float64 `yaml:"total_return" json:"total_return"`
	// Largest peak-to-trough decline of the net worth curve, in percent.
	MaxDrawdown float64 `yaml:"max_drawdown" json:"max_drawdown"`
	// Return of holding the asset from the first open to the last close, in percent.
	BuyAndHoldReturn float64 `yaml:"buy_and_hold_return" json:"buy_and_hold_return"`
}

type RunActivity struct {
	// Count of bars where the position changed.
	NumberOfTrades int `yaml:"number_of_trades" json:"number_of_trades"`
	// Sum of commission charged over the run.
	TotalCommission float64 `yaml:"total_commission" json:"total_commission"`
	// Count of bars spent long, short and flat.
	LongBars  int `yaml:"long_bars" json:"long_bars"`
	ShortBars int `yaml:"short_bars" json:"short_bars"`
	FlatBars  int `yaml:"flat_bars" json:"flat_bars"`
}

type RunStats struct {
	// ID is the unique identifier for this backtest run.
	ID string `yaml:"id" json:"id"`
	// Timestamp is when this backtest run was executed.
	Timestamp time.Time `yaml:"timestamp" json:"timestamp"`
	// Symbol of the simulated asset.
	Symbol string `yaml:"symbol" json:"symbol"`
	// Strategy is the name of the strategy that produced the orders.
	Strategy string `yaml:"strategy" json:"strategy"`
	// EngineVersion is the version of the engine that simulated the run.
	EngineVersion string `yaml:"engine_version,omitempty" json:"engine_version,omitempty"`
	// First and last bar of the simulated series.
	StartTime time.Time `yaml:"start_time" json:"start_time"`
	EndTime   time.Time `yaml:"end_time" json:"end_time"`
	Bars      int       `yaml:"bars" json:"bars"`
	// Inputs of the simulation.
	InitialCapital float64 `yaml:"initial_capital" json:"initial_capital"`
	CommissionRate float64 `yaml:"commission_rate" json:"commission_rate"`

	Performance RunPerformance `yaml:"performance" json:"performance"`
	Activity    RunActivity    `yaml:"activity" json:"activity"`

	// ReportPath is the path to the per-bar CSV report.
	ReportPath string `yaml:"report_path,omitempty" json:"report_path,omitempty"`
	// ChartPath is the path to the HTML chart.
	ChartPath string `yaml:"chart_path,omitempty" json:"chart_path,omitempty"`
}

func WriteRunStats(path string, stats []RunStats) error {
	data, err := yaml.Marshal(stats)
	if err != nil {
		return fmt.Errorf("failed to marshal run stats to YAML: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write run stats to file: %w", err)
	}

	return nil
}

// ReadRunStats reads a file written by WriteRunStats.
func ReadRunStats(path string) ([]RunStats, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read run stats file: %w", err)
	}

	var stats []RunStats
	if err := yaml.Unmarshal(data, &stats); err != nil {
		return nil, fmt.Errorf("failed to unmarshal run stats: %w", err)
	}

	return stats, nil
}
