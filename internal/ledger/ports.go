// Package ledger declares the persistence boundary the engine talks to.
package ledger

import (
	"context"

	"expensify/internal/core"
)

// Ports for outbound adapters.
type (
	RuleReader interface {
		// ListActiveRules returns every rule with Active set.
		ListActiveRules(ctx context.Context) ([]core.RecurringRule, error)
	}

	// UnitOfWork holds the writes that must land together for one occurrence.
	UnitOfWork interface {
		// InsertTransaction fails with core.ErrStorage on constraint violations
		// and with core.ErrDuplicate when the ID already exists.
		InsertTransaction(ctx context.Context, tx core.Transaction) error
		// UpdateRuleWatermark fails with core.ErrNotFound if the rule is gone.
		UpdateRuleWatermark(ctx context.Context, ruleID string, lastProcessed, nextDue core.Date) error
	}

	CategoryReader interface {
		ListCategories(ctx context.Context) ([]core.Category, error)
	}

	RuleStore interface {
		RuleReader
		CreateRule(ctx context.Context, rule core.RecurringRule) error
		GetRule(ctx context.Context, ruleID string) (core.RecurringRule, error)
		ListRules(ctx context.Context) ([]core.RecurringRule, error)
		SetRuleActive(ctx context.Context, ruleID string, active bool) error
		DeleteRule(ctx context.Context, ruleID string) error
	}

	TransactionStore interface {
		// ListTransactions returns transactions dated within [from, to],
		// newest first.
		ListTransactions(ctx context.Context, from, to core.Date) ([]core.Transaction, error)
		DeleteTransaction(ctx context.Context, id string) error
	}

	// Ledger is the full gateway. WithinTx runs fn so that either every
	// write it makes is visible afterwards or none is.
	Ledger interface {
		UnitOfWork
		RuleStore
		TransactionStore
		CategoryReader
		WithinTx(ctx context.Context, fn func(UnitOfWork) error) error
	}
)
