// Package core provides calendar date handling for the ledger.
//
// A Date is a local calendar day with no time-of-day and no zone. It is stored
// as a time.Time at UTC midnight so that day arithmetic never crosses a DST
// transition and comparisons are plain instant comparisons.
package core

import (
	"fmt"
	"time"
)

// ISODateLayout is the on-disk and wire format for calendar dates.
const ISODateLayout = "2006-01-02"

// Date is a calendar day.
type Date struct {
	time.Time
}

// NewDate creates a new Date from year, month, day. Out-of-range components
// are normalized the way time.Date does it.
func NewDate(year, month, day int) Date {
	return Date{Time: time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)}
}

// DateOf returns the calendar day of t as seen in t's own location.
// It never converts to UTC first, so 23:30 local on the 5th stays the 5th.
func DateOf(t time.Time) Date {
	y, m, d := t.Date()
	return NewDate(y, int(m), d)
}

// ToLocalISODate formats t as YYYY-MM-DD using its local calendar components.
func ToLocalISODate(t time.Time) string {
	return DateOf(t).ISO()
}

// ParseISODate parses a YYYY-MM-DD string.
func ParseISODate(s string) (Date, error) {
	t, err := time.Parse(ISODateLayout, s)
	if err != nil {
		return Date{}, fmt.Errorf("parse date %q: %w", s, err)
	}
	return Date{Time: t}, nil
}

// ISO returns the YYYY-MM-DD form, or "" for the zero Date.
func (d Date) ISO() string {
	if d.IsZero() {
		return ""
	}
	return d.Format(ISODateLayout)
}

// Short renders the day for compact display, e.g. "Mar 15".
func (d Date) Short() string {
	if d.IsZero() {
		return ""
	}
	return d.Format("Jan 2")
}

// Long renders the full day for display, e.g. "March 15, 2024".
func (d Date) Long() string {
	if d.IsZero() {
		return ""
	}
	return d.Format("January 2, 2006")
}

func (d Date) String() string {
	return d.ISO()
}

// Day returns the day of the month
func (d Date) Day() int {
	return d.Time.Day()
}

// Month returns the month
func (d Date) Month() int {
	return int(d.Time.Month())
}

// Year returns the year
func (d Date) Year() int {
	return d.Time.Year()
}

// Weekday returns the ISO weekday, Monday=1 through Sunday=7.
func (d Date) Weekday() int {
	wd := int(d.Time.Weekday())
	if wd == 0 {
		return 7
	}
	return wd
}

// AddDays returns the date n days later (or earlier when n is negative).
func (d Date) AddDays(n int) Date {
	return Date{Time: d.Time.AddDate(0, 0, n)}
}

func (d Date) Before(o Date) bool { return d.Time.Before(o.Time) }
func (d Date) After(o Date) bool  { return d.Time.After(o.Time) }
func (d Date) Equal(o Date) bool  { return d.Time.Equal(o.Time) }

// DaysInMonth returns 28, 29, 30 or 31.
func DaysInMonth(year, month int) int {
	// Day 0 of the following month is the last day of this one.
	return time.Date(year, time.Month(month)+1, 0, 0, 0, 0, 0, time.UTC).Day()
}

// ClampDayToMonth caps day at the last day of the given month, so day 31
// in April resolves to the 30th instead of rolling into May.
func ClampDayToMonth(day, year, month int) int {
	return min(day, DaysInMonth(year, month))
}

// MonthRange returns the first and last day of a month.
func MonthRange(year, month int) (start, end Date) {
	return NewDate(year, month, 1), NewDate(year, month, DaysInMonth(year, month))
}

// CurrentMonthRange returns the range of the month that contains now.
func CurrentMonthRange(now time.Time) (start, end Date) {
	today := DateOf(now)
	return MonthRange(today.Year(), today.Month())
}

// MonthName returns the English name of month, or "" when out of range.
func MonthName(month int) string {
	if month < 1 || month > 12 {
		return ""
	}
	return time.Month(month).String()
}

// WeekdayName returns the English name of an ISO weekday (1=Monday).
func WeekdayName(isoWeekday int) string {
	if isoWeekday < 1 || isoWeekday > 7 {
		return ""
	}
	return time.Weekday(isoWeekday % 7).String()
}
