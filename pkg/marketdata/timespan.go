package marketdata

import (
	"github.com/polygon-io/client-go/rest/models"
	"github.com/rxtech-lab/argo-backtest/pkg/errors"
)

// Timespan is a bar interval in exchange notation, such as 15m or 1d.
type Timespan string

const (
	TimespanOneSecond      Timespan = "1s"
	TimespanOneMinute      Timespan = "1m"
	TimespanThreeMinutes   Timespan = "3m"
	TimespanFiveMinutes    Timespan = "5m"
	TimespanFifteenMinutes Timespan = "15m"
	TimespanThirtyMinutes  Timespan = "30m"
	TimespanOneHour        Timespan = "1h"
	TimespanTwoHours       Timespan = "2h"
	TimespanFourHours      Timespan = "4h"
	TimespanSixHours       Timespan = "6h"
	TimespanEightHours     Timespan = "8h"
	TimespanTwelveHours    Timespan = "12h"
	TimespanOneDay         Timespan = "1d"
	TimespanThreeDays      Timespan = "3d"
	TimespanOneWeek        Timespan = "1w"
	TimespanOneMonth       Timespan = "1M"
)

type timespanUnit struct {
	multiplier int
	timespan   models.Timespan
}

var timespans = map[Timespan]timespanUnit{
	TimespanOneSecond:      {1, models.Second},
	TimespanOneMinute:      {1, models.Minute},
	TimespanThreeMinutes:   {3, models.Minute},
	TimespanFiveMinutes:    {5, models.Minute},
	TimespanFifteenMinutes: {15, models.Minute},
	TimespanThirtyMinutes:  {30, models.Minute},
	TimespanOneHour:        {1, models.Hour},
	TimespanTwoHours:       {2, models.Hour},
	TimespanFourHours:      {4, models.Hour},
	TimespanSixHours:       {6, models.Hour},
	TimespanEightHours:     {8, models.Hour},
	TimespanTwelveHours:    {12, models.Hour},
	TimespanOneDay:         {1, models.Day},
	TimespanThreeDays:      {3, models.Day},
	TimespanOneWeek:        {1, models.Week},
	TimespanOneMonth:       {1, models.Month},
}

// ParseTimespan validates s as a Timespan.
func ParseTimespan(s string) (Timespan, error) {
	t := Timespan(s)
	if _, ok := timespans[t]; !ok {
		return "", errors.Newf(errors.ErrCodeInvalidTimespan, "unsupported interval: %s", s)
	}

	return t, nil
}

// Multiplier returns the unit count, 1 for unknown values.
func (t Timespan) Multiplier() int {
	if unit, ok := timespans[t]; ok {
		return unit.multiplier
	}

	return 1
}

// Timespan returns the unit, models.Day for unknown values.
func (t Timespan) Timespan() models.Timespan {
	if unit, ok := timespans[t]; ok {
		return unit.timespan
	}

	return models.Day
}
