package services

import (
	"context"
	"fmt"
	"sort"

	"github.com/shopspring/decimal"

	"expensify/internal/core"
	"expensify/internal/ledger"
)

// SummaryService aggregates ledger totals for display.
type SummaryService struct {
	txs        ledger.TransactionStore
	categories *CategoryDirectory
}

func NewSummaryService(txs ledger.TransactionStore, categories *CategoryDirectory) *SummaryService {
	return &SummaryService{txs: txs, categories: categories}
}

// MonthSummary totals income and expenses for one month and breaks expenses
// down by category, largest first.
func (s *SummaryService) MonthSummary(ctx context.Context, year, month int) (core.MonthSummary, error) {
	summary := core.MonthSummary{
		Year:    year,
		Month:   month,
		Income:  decimal.Zero,
		Expense: decimal.Zero,
	}
	if month < 1 || month > 12 {
		return summary, fmt.Errorf("%w: %d", core.ErrInvalidMonth, month)
	}

	from, to := core.MonthRange(year, month)
	txs, err := s.txs.ListTransactions(ctx, from, to)
	if err != nil {
		return summary, fmt.Errorf("list transactions: %w", err)
	}

	byCategory := map[string]decimal.Decimal{}
	for _, tx := range txs {
		summary.Count++
		if tx.IsIncome {
			summary.Income = summary.Income.Add(tx.Amount)
			continue
		}
		summary.Expense = summary.Expense.Add(tx.Amount)
		byCategory[tx.CategoryID] = byCategory[tx.CategoryID].Add(tx.Amount)
	}
	summary.Balance = summary.Income.Sub(summary.Expense)

	for id, amount := range byCategory {
		name := id
		if s.categories != nil {
			name = s.categories.Name(ctx, id)
		}
		summary.Expenses = append(summary.Expenses, core.CategoryAmount{
			CategoryID: id,
			Name:       name,
			Amount:     amount,
		})
	}
	sort.Slice(summary.Expenses, func(i, j int) bool {
		if c := summary.Expenses[i].Amount.Cmp(summary.Expenses[j].Amount); c != 0 {
			return c > 0
		}
		return summary.Expenses[i].CategoryID < summary.Expenses[j].CategoryID
	})
	return summary, nil
}
