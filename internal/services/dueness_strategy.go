package services

import (
	"fmt"
	"time"

	"github.com/isagiyoichii/financial-tracker/internal/core"
)

// DuenessChecker decides whether a recurring template should produce a new
// occurrence, given when it last did and the template's anchor date.
type DuenessChecker interface {
	IsDue(lastRun, now time.Time, anchor core.Date) bool
}

type DailyChecker struct{}

// IsDue returns true if the last occurrence was before today.
func (DailyChecker) IsDue(lastRun, now time.Time, _ core.Date) bool {
	if lastRun.IsZero() {
		return true
	}
	return lastRun.Format("2006-01-02") != now.Format("2006-01-02")
}

type WeeklyChecker struct{}

// IsDue returns true if 7 or more days have passed since the last occurrence.
func (WeeklyChecker) IsDue(lastRun, now time.Time, _ core.Date) bool {
	if lastRun.IsZero() {
		return true
	}
	daysSince := now.Sub(lastRun).Hours() / 24
	return daysSince >= 7
}

type MonthlyChecker struct{}

// IsDue returns true in a new month once the anchor's day of month is
// reached, clamping to the month's last day when the anchor day does not
// exist (e.g. the 31st in February).
func (MonthlyChecker) IsDue(lastRun, now time.Time, anchor core.Date) bool {
	if lastRun.IsZero() {
		return true
	}
	if lastRun.Year() == now.Year() && lastRun.Month() == now.Month() {
		return false
	}

	targetDay := anchor.Day()
	lastDayOfMonth := time.Date(now.Year(), now.Month()+1, 0, 0, 0, 0, 0, time.UTC).Day()
	if targetDay > lastDayOfMonth {
		targetDay = lastDayOfMonth
	}
	return now.Day() >= targetDay
}

type YearlyChecker struct{}

// IsDue returns true in a new year once the anchor's month and day are
// reached.
func (YearlyChecker) IsDue(lastRun, now time.Time, anchor core.Date) bool {
	if lastRun.IsZero() {
		return true
	}
	if lastRun.Year() == now.Year() {
		return false
	}

	targetMonth := int(anchor.Month())
	if int(now.Month()) < targetMonth {
		return false
	}
	if int(now.Month()) == targetMonth {
		targetDay := anchor.Day()
		lastDayOfMonth := time.Date(now.Year(), now.Month()+1, 0, 0, 0, 0, 0, time.UTC).Day()
		if targetDay > lastDayOfMonth {
			targetDay = lastDayOfMonth
		}
		return now.Day() >= targetDay
	}
	return true
}

var duenessStrategies = map[core.RecurringPeriod]DuenessChecker{
	core.Daily:   DailyChecker{},
	core.Weekly:  WeeklyChecker{},
	core.Monthly: MonthlyChecker{},
	core.Yearly:  YearlyChecker{},
}

// GetDuenessChecker returns the checker for a period.
func GetDuenessChecker(period core.RecurringPeriod) (DuenessChecker, error) {
	checker, ok := duenessStrategies[period]
	if !ok {
		return nil, fmt.Errorf("unknown recurring period: %s", period)
	}
	return checker, nil
}
