package services

import (
	"context"
	"errors"
	"testing"

	"github.com/shopspring/decimal"

	"expensify/internal/core"
)

func TestTransactionServiceCreateTransaction(t *testing.T) {
	ctx := context.Background()
	store := newLedger(t)
	pub := &recordingPublisher{}
	svc := NewTransactionService(store, pub)

	tests := []struct {
		name    string
		tx      core.Transaction
		wantErr error
	}{
		{
			name: "valid expense",
			tx:   core.Transaction{Amount: decimal.RequireFromString("12.50"), CategoryID: "food", Date: d("2024-03-02"), Note: "Lunch"},
		},
		{
			name:    "missing date",
			tx:      core.Transaction{Amount: decimal.NewFromInt(1), CategoryID: "food"},
			wantErr: core.ErrInvalidDate,
		},
		{
			name:    "negative amount",
			tx:      core.Transaction{Amount: decimal.NewFromInt(-1), CategoryID: "food", Date: d("2024-03-02")},
			wantErr: core.ErrInvalidAmount,
		},
		{
			name:    "unknown category",
			tx:      core.Transaction{Amount: decimal.NewFromInt(1), CategoryID: "travel", Date: d("2024-03-02")},
			wantErr: core.ErrNotFound,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := svc.CreateTransaction(ctx, tt.tx)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("expected %v, got %v", tt.wantErr, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got.ID == "" {
				t.Fatal("expected generated ID")
			}
		})
	}

	if len(pub.created) != 1 {
		t.Fatalf("expected one published event, got %d", len(pub.created))
	}
}

func TestTransactionServiceListAndDelete(t *testing.T) {
	ctx := context.Background()
	store := newLedger(t)
	svc := NewTransactionService(store, nil)

	for _, date := range []string{"2024-02-29", "2024-03-01", "2024-03-31", "2024-04-01"} {
		if _, err := svc.CreateTransaction(ctx, core.Transaction{ID: date, Amount: decimal.NewFromInt(1), CategoryID: "food", Date: d(date)}); err != nil {
			t.Fatalf("create %s: %v", date, err)
		}
	}

	march, err := svc.ListMonth(ctx, 2024, 3)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(march) != 2 || march[0].ID != "2024-03-31" || march[1].ID != "2024-03-01" {
		t.Fatalf("unexpected march listing %+v", march)
	}

	if err := svc.DeleteTransaction(ctx, "2024-03-01"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if err := svc.DeleteTransaction(ctx, "2024-03-01"); !errors.Is(err, core.ErrNotFound) {
		t.Fatalf("second delete: expected not found, got %v", err)
	}
}

func TestTransactionServiceCreateRule(t *testing.T) {
	ctx := context.Background()
	store := newLedger(t)
	svc := NewTransactionService(store, nil)

	rule, err := svc.CreateRule(ctx, core.RecurringRule{
		Amount:         decimal.NewFromInt(1200),
		IsIncome:       true,
		Note:           "Salary",
		RecurrenceType: core.Monthly,
		Day:            15,
		// Ignored: new rules always start active and unprocessed.
		LastProcessed: d("2020-01-15"),
	}, at("2024-03-20"))
	if err != nil {
		t.Fatalf("create rule: %v", err)
	}
	if rule.ID == "" || !rule.Active || !rule.LastProcessed.IsZero() {
		t.Fatalf("unexpected rule %+v", rule)
	}
	if rule.NextDue.ISO() != "2024-03-15" {
		t.Fatalf("next due = %s, want the occurrence the first pass will create", rule.NextDue)
	}

	stored := mustRule(t, store, rule.ID)
	if stored.NextDue.ISO() != "2024-03-15" {
		t.Fatalf("stored next due = %s", stored.NextDue)
	}

	if _, err := svc.CreateRule(ctx, core.RecurringRule{Amount: decimal.NewFromInt(1), RecurrenceType: core.Monthly, Day: 1}, at("2024-03-20")); !errors.Is(err, core.ErrEmptyCategory) {
		t.Fatalf("expense without category: expected ErrEmptyCategory, got %v", err)
	}
	if _, err := svc.CreateRule(ctx, core.RecurringRule{Amount: decimal.NewFromInt(1), CategoryID: "food", RecurrenceType: core.Weekly, Weekday: 9}, at("2024-03-20")); !errors.Is(err, core.ErrConfiguration) {
		t.Fatalf("bad weekday: expected configuration error, got %v", err)
	}
}

func TestTransactionServiceRuleLifecycle(t *testing.T) {
	ctx := context.Background()
	store := newLedger(t)
	svc := NewTransactionService(store, nil)

	rule, err := svc.CreateRule(ctx, core.RecurringRule{Amount: decimal.NewFromInt(9), CategoryID: "entertainment", RecurrenceType: core.Monthly, Day: 5}, at("2024-03-20"))
	if err != nil {
		t.Fatalf("create rule: %v", err)
	}

	if err := svc.SetRuleActive(ctx, rule.ID, false); err != nil {
		t.Fatalf("pause: %v", err)
	}
	if active, _ := store.ListActiveRules(ctx); len(active) != 0 {
		t.Fatalf("paused rule still active")
	}

	rules, err := svc.ListRules(ctx)
	if err != nil || len(rules) != 1 {
		t.Fatalf("list rules = %d, %v", len(rules), err)
	}

	if err := svc.DeleteRule(ctx, rule.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if err := svc.SetRuleActive(ctx, rule.ID, true); !errors.Is(err, core.ErrRuleNotFound) {
		t.Fatalf("expected ErrRuleNotFound, got %v", err)
	}
}
