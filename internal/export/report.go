// Package export renders finished backtests as CSV reports, HTML charts and
// comparison tables.
package export

import (
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/gocarina/gocsv"
	"github.com/moznion/go-optional"
	"github.com/rxtech-lab/argo-backtest/internal/types"
	"github.com/rxtech-lab/argo-backtest/pkg/errors"
)

const reportDateLayout = "2006-01-02"

// ReportDate is a bar timestamp written as a calendar date.
type ReportDate time.Time

func (d ReportDate) MarshalCSV() (string, error) {
	return time.Time(d).Format(reportDateLayout), nil
}

func (d *ReportDate) UnmarshalCSV(s string) error {
	t, err := time.Parse(reportDateLayout, s)
	if err != nil {
		return err
	}

	*d = ReportDate(t)

	return nil
}

// IndicatorValue is an indicator reading that may be absent for a strategy
// with fewer indicator traces. Absent values are written as an empty cell.
type IndicatorValue optional.Option[float64]

// Indicator wraps a present indicator reading.
func Indicator(v float64) IndicatorValue {
	return IndicatorValue(optional.Some(v))
}

// NoIndicator is an absent indicator reading.
func NoIndicator() IndicatorValue {
	return IndicatorValue(optional.None[float64]())
}

// Take returns the reading and whether it is present.
func (v IndicatorValue) Take() (float64, bool) {
	value, err := optional.Option[float64](v).Take()

	return value, err == nil
}

func (v IndicatorValue) MarshalCSV() (string, error) {
	value, ok := v.Take()
	if !ok {
		return "", nil
	}

	return formatFloat(value), nil
}

func (v *IndicatorValue) UnmarshalCSV(s string) error {
	if s == "" {
		*v = NoIndicator()

		return nil
	}

	value, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return err
	}

	*v = Indicator(value)

	return nil
}

// ReportRow is one bar of a backtest report.
type ReportRow struct {
	Date            ReportDate     `csv:"DATE"`
	Open            float64        `csv:"OPEN"`
	Close           float64        `csv:"CLOSE"`
	Order           types.Order    `csv:"CHOICES"`
	Indicator1      IndicatorValue `csv:"INDIC1"`
	Indicator2      IndicatorValue `csv:"INDIC2"`
	Account         float64        `csv:"ACCOUNT"`
	Position        float64        `csv:"POSITION"`
	MarketValue     float64        `csv:"MKTVALUE"`
	NetWorth        float64        `csv:"NETWORTH"`
	Flow            float64        `csv:"FLOW"`
	Commission      float64        `csv:"COMMISSION"`
	HistoricalPrice float64        `csv:"HIST_PRICE"`
}

// WriteReportCSV writes rows to path, creating parent folders as needed.
func WriteReportCSV(path string, rows []ReportRow) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return errors.Wrapf(errors.ErrCodeExportFailed, err, "failed to create report folder for %s", path)
	}

	file, err := os.Create(path)
	if err != nil {
		return errors.Wrapf(errors.ErrCodeExportFailed, err, "failed to create report %s", path)
	}
	defer file.Close()

	if err := gocsv.MarshalFile(&rows, file); err != nil {
		return errors.Wrapf(errors.ErrCodeExportFailed, err, "failed to write report %s", path)
	}

	return nil
}

// ReadReportCSV reads a report written by WriteReportCSV.
func ReadReportCSV(path string) ([]ReportRow, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrapf(errors.ErrCodeDataNotFound, err, "failed to open report %s", path)
	}
	defer file.Close()

	var rows []ReportRow
	if err := gocsv.UnmarshalFile(file, &rows); err != nil {
		return nil, errors.Wrapf(errors.ErrCodeExportFailed, err, "failed to read report %s", path)
	}

	return rows, nil
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
