package main

import (
	"github.com/rxtech-lab/argo-backtest/internal/export"
	"github.com/rxtech-lab/argo-backtest/internal/types"
)

// ReportLoadedMsg carries the report of the selected run.
type ReportLoadedMsg struct {
	Run  types.RunStats
	Rows []export.ReportRow
}

// ReportErrorMsg indicates the report of the selected run could not be read.
type ReportErrorMsg struct {
	Err error
}
