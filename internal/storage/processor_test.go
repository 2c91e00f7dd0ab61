package storage_test

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"expensify/internal/core"
	"expensify/internal/services"
	"expensify/internal/storage"
)

func TestRecurringProcessorAgainstSQLite(t *testing.T) {
	ctx := context.Background()
	repo, err := storage.NewSQLiteRepository(filepath.Join(t.TempDir(), "expensify.db"))
	if err != nil {
		t.Fatalf("open repository: %v", err)
	}
	defer repo.Close()

	svc := services.NewTransactionService(repo, nil)
	now := time.Date(2024, 3, 20, 9, 0, 0, 0, time.UTC)
	rule, err := svc.CreateRule(ctx, core.RecurringRule{
		Amount:         decimal.NewFromInt(1200),
		IsIncome:       true,
		Note:           "Salary",
		RecurrenceType: core.Monthly,
		Day:            15,
	}, now)
	if err != nil {
		t.Fatalf("create rule: %v", err)
	}

	processor := services.NewRecurringProcessor(repo, nil, services.ProcessorConfig{})
	for i := 0; i < 2; i++ {
		if _, err := processor.ProcessAllDueRules(ctx, now); err != nil {
			t.Fatalf("pass %d: %v", i, err)
		}
	}

	txs, err := svc.ListMonth(ctx, 2024, 3)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(txs) != 1 {
		t.Fatalf("expected exactly one transaction after two passes, got %d", len(txs))
	}
	tx := txs[0]
	if tx.ID != services.OccurrenceID(rule.ID, core.NewDate(2024, 3, 15)) || tx.CategoryID != core.UncategorizedID || !tx.IsIncome {
		t.Fatalf("unexpected transaction %+v", tx)
	}

	stored, err := repo.GetRule(ctx, rule.ID)
	if err != nil {
		t.Fatalf("get rule: %v", err)
	}
	if stored.LastProcessed.ISO() != "2024-03-15" || stored.NextDue.ISO() != "2024-04-15" {
		t.Fatalf("unexpected watermark %+v", stored)
	}
}

func TestRecurringProcessorKeepsSubCentAmounts(t *testing.T) {
	ctx := context.Background()
	repo, err := storage.NewSQLiteRepository(filepath.Join(t.TempDir(), "expensify.db"))
	if err != nil {
		t.Fatalf("open repository: %v", err)
	}
	defer repo.Close()

	svc := services.NewTransactionService(repo, nil)
	now := time.Date(2024, 3, 20, 9, 0, 0, 0, time.UTC)
	want := decimal.RequireFromString("0.125")
	rule, err := svc.CreateRule(ctx, core.RecurringRule{
		Amount:         want,
		CategoryID:     "utilities",
		RecurrenceType: core.Monthly,
		Day:            1,
	}, now)
	if err != nil {
		t.Fatalf("create rule: %v", err)
	}

	stored, err := repo.GetRule(ctx, rule.ID)
	if err != nil {
		t.Fatalf("get rule: %v", err)
	}
	if !stored.Amount.Equal(want) {
		t.Fatalf("stored rule amount = %s, want %s", stored.Amount, want)
	}

	if _, err := services.NewRecurringProcessor(repo, nil, services.ProcessorConfig{}).ProcessAllDueRules(ctx, now); err != nil {
		t.Fatalf("process: %v", err)
	}
	txs, err := svc.ListMonth(ctx, 2024, 3)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(txs) != 1 || !txs[0].Amount.Equal(want) {
		t.Fatalf("expected one transaction of %s, got %+v", want, txs)
	}
}
