package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"expensify/internal/core"
	"expensify/internal/ledger"
)

// TransactionService orchestrates user-initiated ledger changes and the
// events that follow them.
type TransactionService struct {
	ledger    ledger.Ledger
	publisher EventPublisher
}

// NewTransactionService wires the service; publisher may be nil.
func NewTransactionService(l ledger.Ledger, publisher EventPublisher) *TransactionService {
	return &TransactionService{
		ledger:    l,
		publisher: publisher,
	}
}

// CreateTransaction records a manual entry. An empty ID gets a random UUID.
func (s *TransactionService) CreateTransaction(ctx context.Context, tx core.Transaction) (core.Transaction, error) {
	if tx.ID == "" {
		tx.ID = uuid.NewString()
	}
	if err := tx.Validate(); err != nil {
		return core.Transaction{}, err
	}
	if err := s.ledger.InsertTransaction(ctx, tx); err != nil {
		return core.Transaction{}, fmt.Errorf("save transaction: %w", err)
	}

	slog.InfoContext(ctx, "Transaction saved",
		"transaction_id", tx.ID,
		"date", tx.Date.ISO(),
		"amount", core.FormatAmount(tx.Amount),
		"category", tx.CategoryID,
		"is_income", tx.IsIncome)

	if s.publisher != nil {
		if err := s.publisher.PublishTransactionCreated(ctx, tx, ""); err != nil {
			// Don't fail the request - the transaction is saved locally
			slog.ErrorContext(ctx, "Failed to publish transaction event", "transaction_id", tx.ID, "error", err)
		}
	}
	return tx, nil
}

// DeleteTransaction removes a transaction and publishes the deletion.
func (s *TransactionService) DeleteTransaction(ctx context.Context, id string) error {
	if err := s.ledger.DeleteTransaction(ctx, id); err != nil {
		return fmt.Errorf("delete transaction: %w", err)
	}
	if s.publisher != nil {
		if err := s.publisher.PublishTransactionDeleted(ctx, id); err != nil {
			slog.ErrorContext(ctx, "Failed to publish delete event", "transaction_id", id, "error", err)
		}
	}
	return nil
}

// ListMonth returns the transactions of one calendar month, newest first.
func (s *TransactionService) ListMonth(ctx context.Context, year, month int) ([]core.Transaction, error) {
	from, to := core.MonthRange(year, month)
	txs, err := s.ledger.ListTransactions(ctx, from, to)
	if err != nil {
		return nil, fmt.Errorf("list transactions %04d-%02d: %w", year, month, err)
	}
	return txs, nil
}

// CreateRule stores a new active rule that has never been processed. Its
// NextDue is the occurrence the next processing pass will materialize.
func (s *TransactionService) CreateRule(ctx context.Context, rule core.RecurringRule, now time.Time) (core.RecurringRule, error) {
	if rule.ID == "" {
		rule.ID = uuid.NewString()
	}
	rule.Active = true
	rule.LastProcessed = core.Date{}
	if err := rule.Validate(); err != nil {
		return core.RecurringRule{}, err
	}
	next, err := NextOccurrence(rule, core.Date{}, core.DateOf(now))
	if err != nil {
		return core.RecurringRule{}, err
	}
	rule.NextDue = next

	if err := s.ledger.CreateRule(ctx, rule); err != nil {
		return core.RecurringRule{}, fmt.Errorf("save recurring rule: %w", err)
	}

	slog.InfoContext(ctx, "Recurring rule created",
		"rule_id", rule.ID,
		"recurrence", DescribeRecurrence(rule),
		"next_due", rule.NextDue.ISO())
	return rule, nil
}

// SetRuleActive pauses or resumes a rule. Paused rules keep their history
// and are skipped by every processing pass.
func (s *TransactionService) SetRuleActive(ctx context.Context, ruleID string, active bool) error {
	if err := s.ledger.SetRuleActive(ctx, ruleID, active); err != nil {
		return fmt.Errorf("set rule active: %w", err)
	}
	slog.InfoContext(ctx, "Recurring rule toggled", "rule_id", ruleID, "active", active)
	return nil
}

// DeleteRule removes a rule. Transactions it already produced stay.
func (s *TransactionService) DeleteRule(ctx context.Context, ruleID string) error {
	if err := s.ledger.DeleteRule(ctx, ruleID); err != nil {
		return fmt.Errorf("delete recurring rule: %w", err)
	}
	slog.InfoContext(ctx, "Recurring rule deleted", "rule_id", ruleID)
	return nil
}

// ListRules returns every rule, active or not.
func (s *TransactionService) ListRules(ctx context.Context) ([]core.RecurringRule, error) {
	rules, err := s.ledger.ListRules(ctx)
	if err != nil {
		return nil, fmt.Errorf("list recurring rules: %w", err)
	}
	return rules, nil
}
