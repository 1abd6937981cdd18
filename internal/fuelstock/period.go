package fuelstock

import (
	"fmt"
	"time"

	"github.com/rickar/cal/v2"
	"github.com/ukydev/fleet-fuel/internal/models"
)

// MonthPeriod resolves the calendar boundaries of a report month.
func MonthPeriod(year, month int) (models.ReportPeriod, error) {
	if year < 1 || month < 1 || month > 12 {
		return models.ReportPeriod{}, fmt.Errorf("%w: %04d-%02d", ErrInvalidPeriod, year, month)
	}
	mid := time.Date(year, time.Month(month), 15, 12, 0, 0, 0, time.UTC)
	start := cal.DayStart(cal.MonthStart(mid))
	end := cal.DayStart(cal.MonthEnd(mid))

	return models.ReportPeriod{
		Year:           year,
		Month:          month,
		StartDate:      start,
		EndDate:        end,
		DayBeforeStart: start.AddDate(0, 0, -1),
	}, nil
}

// PreviousMonth returns the year and month preceding the month of t.
func PreviousMonth(t time.Time) (int, int) {
	prev := cal.MonthStart(t).AddDate(0, 0, -1)
	return prev.Year(), int(prev.Month())
}
