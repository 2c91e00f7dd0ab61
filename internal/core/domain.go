package core

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

const (
	Weekly  RecurrenceType = "weekly"
	Monthly RecurrenceType = "monthly"
	Yearly  RecurrenceType = "yearly"
)

// UncategorizedID is the seeded category used when a rule carries none.
const UncategorizedID = "uncategorized"

const maxNoteLength = 200

type (
	RecurrenceType string

	// Category is owned by the categories table; everything else refers to it
	// by ID only.
	Category struct {
		ID    string
		Name  string
		Color string
		Icon  string
	}

	Transaction struct {
		ID         string
		Amount     decimal.Decimal
		CategoryID string
		Date       Date
		Note       string
		IsIncome   bool
	}

	// RecurringRule describes a fixed weekly, monthly or yearly cadence.
	// Only the schedule fields relevant to RecurrenceType are meaningful:
	// Weekday for weekly, Day for monthly, Month and Day for yearly.
	RecurringRule struct {
		ID             string
		Amount         decimal.Decimal
		IsIncome       bool
		Note           string
		CategoryID     string // empty when the rule has no category
		RecurrenceType RecurrenceType
		Day            int // 1-31
		Month          int // 1-12
		Weekday        int // 1-7, Monday=1

		// LastProcessed is the most recent materialized occurrence; zero when
		// the rule was never processed.
		LastProcessed Date
		// NextDue is a display cache, recomputed on every processing pass.
		NextDue Date
		Active  bool
	}
)

func (t RecurrenceType) IsValid() bool {
	switch t {
	case Weekly, Monthly, Yearly:
		return true
	default:
		return false
	}
}

// ValidateSchedule checks the fields the rule's recurrence type uses and
// ignores the rest.
func (r RecurringRule) ValidateSchedule() error {
	switch r.RecurrenceType {
	case Weekly:
		if r.Weekday < 1 || r.Weekday > 7 {
			return fmt.Errorf("%w: %d", ErrInvalidWeekday, r.Weekday)
		}
	case Monthly:
		if r.Day < 1 || r.Day > 31 {
			return fmt.Errorf("%w: %d", ErrInvalidDay, r.Day)
		}
	case Yearly:
		if r.Month < 1 || r.Month > 12 {
			return fmt.Errorf("%w: %d", ErrInvalidMonth, r.Month)
		}
		if r.Day < 1 || r.Day > 31 {
			return fmt.Errorf("%w: %d", ErrInvalidDay, r.Day)
		}
	default:
		return fmt.Errorf("%w: %q", ErrInvalidRecurrenceType, r.RecurrenceType)
	}
	return nil
}

func (r RecurringRule) Validate() error {
	if err := r.ValidateSchedule(); err != nil {
		return err
	}
	if r.Amount.IsNegative() {
		return ErrInvalidAmount
	}
	if len(r.Note) > maxNoteLength {
		return ErrNoteTooLong
	}
	if !r.IsIncome && strings.TrimSpace(r.CategoryID) == "" {
		return ErrEmptyCategory
	}
	return nil
}

// TransactionCategory returns the category a materialized occurrence is
// filed under.
func (r RecurringRule) TransactionCategory() string {
	if strings.TrimSpace(r.CategoryID) == "" {
		return UncategorizedID
	}
	return r.CategoryID
}

func (t Transaction) Validate() error {
	if t.Date.IsZero() {
		return ErrInvalidDate
	}
	if t.Amount.IsNegative() {
		return ErrInvalidAmount
	}
	if strings.TrimSpace(t.CategoryID) == "" {
		return ErrEmptyCategory
	}
	if len(t.Note) > maxNoteLength {
		return ErrNoteTooLong
	}
	return nil
}

// Signed returns the amount as a balance delta: positive for income,
// negative for expenses.
func (t Transaction) Signed() decimal.Decimal {
	if t.IsIncome {
		return t.Amount
	}
	return t.Amount.Neg()
}
