package storage

import "database/sql"

// Row types mirror the tables in migrations/ column for column.

type Category struct {
	ID    string
	Name  string
	Color string
	Icon  string
}

type Transaction struct {
	ID       string
	Amount   float64
	Category string
	Date     string
	Note     sql.NullString
	IsIncome int64
}

type RecurringTransaction struct {
	ID             string
	Amount         float64
	IsIncome       int64
	Note           sql.NullString
	Category       sql.NullString
	RecurrenceType string
	Day            sql.NullInt64
	Month          sql.NullInt64
	Weekday        sql.NullInt64
	LastProcessed  sql.NullString
	NextDue        sql.NullString
	Active         int64
}
