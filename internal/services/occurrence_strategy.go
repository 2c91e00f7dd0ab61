// Package services provides business logic and orchestration services.
//
// This file implements the Strategy Pattern for recurrence evaluation.
// Each recurrence type (weekly, monthly, yearly) has its own strategy that
// answers "when is the next occurrence" without touching the ledger.

package services

import (
	"fmt"

	"expensify/internal/core"
)

// OccurrenceStrategy computes occurrence dates for one recurrence type.
// Implementations may assume the rule passed ValidateSchedule.
type OccurrenceStrategy interface {
	// After returns the earliest occurrence strictly after the given date.
	After(rule core.RecurringRule, after core.Date) core.Date
	// OnOrBefore returns the latest occurrence on or before the given date.
	OnOrBefore(rule core.RecurringRule, day core.Date) core.Date
}

// WeeklyStrategy implements OccurrenceStrategy for weekly rules.
type WeeklyStrategy struct{}

// After advances 1 to 7 days to the next matching ISO weekday.
func (WeeklyStrategy) After(rule core.RecurringRule, after core.Date) core.Date {
	offset := (rule.Weekday - after.Weekday() + 7) % 7
	if offset == 0 {
		offset = 7
	}
	return after.AddDays(offset)
}

func (WeeklyStrategy) OnOrBefore(rule core.RecurringRule, day core.Date) core.Date {
	back := (day.Weekday() - rule.Weekday + 7) % 7
	return day.AddDays(-back)
}

// MonthlyStrategy implements OccurrenceStrategy for monthly rules.
type MonthlyStrategy struct{}

// After returns this month's occurrence if it is still ahead, otherwise the
// next month's. Days past the end of a month clamp to its last day.
func (MonthlyStrategy) After(rule core.RecurringRule, after core.Date) core.Date {
	candidate := monthlyOccurrence(rule.Day, after.Year(), after.Month())
	if candidate.After(after) {
		return candidate
	}
	y, m := addMonths(after.Year(), after.Month(), 1)
	return monthlyOccurrence(rule.Day, y, m)
}

func (MonthlyStrategy) OnOrBefore(rule core.RecurringRule, day core.Date) core.Date {
	candidate := monthlyOccurrence(rule.Day, day.Year(), day.Month())
	if !candidate.After(day) {
		return candidate
	}
	y, m := addMonths(day.Year(), day.Month(), -1)
	return monthlyOccurrence(rule.Day, y, m)
}

// YearlyStrategy implements OccurrenceStrategy for yearly rules.
type YearlyStrategy struct{}

// After returns this year's occurrence if it is still ahead, otherwise next
// year's. Feb 29 clamps to Feb 28 in common years.
func (YearlyStrategy) After(rule core.RecurringRule, after core.Date) core.Date {
	candidate := monthlyOccurrence(rule.Day, after.Year(), rule.Month)
	if candidate.After(after) {
		return candidate
	}
	return monthlyOccurrence(rule.Day, after.Year()+1, rule.Month)
}

func (YearlyStrategy) OnOrBefore(rule core.RecurringRule, day core.Date) core.Date {
	candidate := monthlyOccurrence(rule.Day, day.Year(), rule.Month)
	if !candidate.After(day) {
		return candidate
	}
	return monthlyOccurrence(rule.Day, day.Year()-1, rule.Month)
}

func monthlyOccurrence(day, year, month int) core.Date {
	return core.NewDate(year, month, core.ClampDayToMonth(day, year, month))
}

func addMonths(year, month, delta int) (int, int) {
	idx := year*12 + (month - 1) + delta
	return idx / 12, idx%12 + 1
}

// occurrenceStrategies maps recurrence types to their strategies.
var occurrenceStrategies = map[core.RecurrenceType]OccurrenceStrategy{
	core.Weekly:  WeeklyStrategy{},
	core.Monthly: MonthlyStrategy{},
	core.Yearly:  YearlyStrategy{},
}

// GetOccurrenceStrategy returns the strategy for a recurrence type.
func GetOccurrenceStrategy(t core.RecurrenceType) (OccurrenceStrategy, error) {
	strategy, ok := occurrenceStrategies[t]
	if !ok {
		return nil, fmt.Errorf("%w: %q", core.ErrInvalidRecurrenceType, t)
	}
	return strategy, nil
}

// NextOccurrence returns the earliest occurrence strictly after the
// watermark. A zero watermark means the rule was never processed; the result
// is then the latest occurrence on or before today, so a fresh rule
// materializes its most recent occurrence and nothing older.
//
// Invalid schedule fields fail with an error matching core.ErrConfiguration.
func NextOccurrence(rule core.RecurringRule, after, today core.Date) (core.Date, error) {
	if err := rule.ValidateSchedule(); err != nil {
		return core.Date{}, err
	}
	strategy, err := GetOccurrenceStrategy(rule.RecurrenceType)
	if err != nil {
		return core.Date{}, err
	}
	if after.IsZero() {
		return strategy.OnOrBefore(rule, today), nil
	}
	return strategy.After(rule, after), nil
}

// UpcomingOccurrences previews up to n occurrences following the watermark
// without materializing anything.
func UpcomingOccurrences(rule core.RecurringRule, after, today core.Date, n int) ([]core.Date, error) {
	out := make([]core.Date, 0, n)
	for len(out) < n {
		next, err := NextOccurrence(rule, after, today)
		if err != nil {
			return nil, err
		}
		out = append(out, next)
		after = next
	}
	return out, nil
}

// DescribeRecurrence renders the cadence for display, e.g. "Monthly (Day 15)".
func DescribeRecurrence(rule core.RecurringRule) string {
	switch rule.RecurrenceType {
	case core.Weekly:
		return fmt.Sprintf("Weekly (%s)", core.WeekdayName(rule.Weekday))
	case core.Monthly:
		return fmt.Sprintf("Monthly (Day %d)", rule.Day)
	case core.Yearly:
		return fmt.Sprintf("Yearly (%s %d)", core.MonthName(rule.Month), rule.Day)
	default:
		return string(rule.RecurrenceType)
	}
}
