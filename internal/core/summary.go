package core

import "github.com/shopspring/decimal"

// CategoryAmount is a total for one category, named at read time.
type CategoryAmount struct {
	CategoryID string
	Name       string
	Amount     decimal.Decimal
}

// MonthSummary totals the ledger for a specific year+month.
type MonthSummary struct {
	Year     int
	Month    int // 1-12
	Income   decimal.Decimal
	Expense  decimal.Decimal
	Balance  decimal.Decimal
	Count    int
	Expenses []CategoryAmount // expense totals by category, largest first
}
