package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/singleflight"

	"expensify/internal/core"
	"expensify/internal/ledger"
)

// DefaultMaxCatchUp bounds how many occurrences one rule may materialize in
// a single pass.
const DefaultMaxCatchUp = 500

// occurrenceNamespace seeds the name-based UUIDs of materialized occurrences.
var occurrenceNamespace = uuid.MustParse("6f1c2a9e-3b7d-4e52-9a0c-8d4b1e7f2c35")

// RecurringLedger is the slice of the ledger the processor needs.
type RecurringLedger interface {
	ledger.RuleReader
	ledger.UnitOfWork
	WithinTx(ctx context.Context, fn func(ledger.UnitOfWork) error) error
}

// EventPublisher receives ledger change notifications after they commit.
type EventPublisher interface {
	PublishTransactionCreated(ctx context.Context, tx core.Transaction, ruleID string) error
	PublishTransactionDeleted(ctx context.Context, id string) error
}

// OutcomeStatus classifies what a pass did with one rule.
type OutcomeStatus string

const (
	StatusUpToDate     OutcomeStatus = "up_to_date"
	StatusMaterialized OutcomeStatus = "materialized"
	StatusSkipped      OutcomeStatus = "skipped"
	StatusRuleDeleted  OutcomeStatus = "rule_deleted"
	StatusCatchUpLimit OutcomeStatus = "catch_up_limit"
	StatusFailed       OutcomeStatus = "failed"
)

// RuleOutcome is the per-rule result of a processing pass.
type RuleOutcome struct {
	RuleID       string
	Status       OutcomeStatus
	Materialized []core.Transaction
	// LastProcessed and NextDue are the watermark values after the pass.
	LastProcessed core.Date
	NextDue       core.Date
	Err           error
}

// PassSummary aggregates the outcomes of one processing pass.
type PassSummary struct {
	Date     core.Date
	Outcomes []RuleOutcome
	// Shared is set when overlapping callers received this same summary.
	// Their counts then describe the one pass they joined, not work done
	// once per caller.
	Shared bool
}

// Created returns the number of transactions materialized in the pass.
// Callers of a shared pass all see the same count.
func (s PassSummary) Created() int {
	n := 0
	for _, o := range s.Outcomes {
		n += len(o.Materialized)
	}
	return n
}

// Failed returns the outcomes that carry an error.
func (s PassSummary) Failed() []RuleOutcome {
	var out []RuleOutcome
	for _, o := range s.Outcomes {
		if o.Err != nil {
			out = append(out, o)
		}
	}
	return out
}

// Err joins the per-rule errors, or returns nil when every rule succeeded.
func (s PassSummary) Err() error {
	var errs []error
	for _, o := range s.Failed() {
		errs = append(errs, o.Err)
	}
	return errors.Join(errs...)
}

// Outcome returns the outcome recorded for ruleID.
func (s PassSummary) Outcome(ruleID string) (RuleOutcome, bool) {
	for _, o := range s.Outcomes {
		if o.RuleID == ruleID {
			return o, true
		}
	}
	return RuleOutcome{}, false
}

// ProcessorConfig tunes the processor.
type ProcessorConfig struct {
	MaxCatchUp int
}

// RecurringProcessor materializes due occurrences of recurring rules into
// the transaction ledger.
type RecurringProcessor struct {
	ledger    RecurringLedger
	publisher EventPublisher
	config    ProcessorConfig
	group     singleflight.Group
}

// NewRecurringProcessor creates a new recurring transaction processor.
// publisher may be nil.
func NewRecurringProcessor(l RecurringLedger, publisher EventPublisher, config ProcessorConfig) *RecurringProcessor {
	if config.MaxCatchUp <= 0 {
		config.MaxCatchUp = DefaultMaxCatchUp
	}
	return &RecurringProcessor{
		ledger:    l,
		publisher: publisher,
		config:    config,
	}
}

// OccurrenceID is the transaction ID used for the occurrence of ruleID on
// date. The same pair always yields the same ID, so the ledger's primary key
// rejects a second materialization.
func OccurrenceID(ruleID string, date core.Date) string {
	return uuid.NewSHA1(occurrenceNamespace, []byte(ruleID+"|"+date.ISO())).String()
}

// ProcessAllDueRules runs one catch-up pass over every active rule as of the
// calendar day of now. It never reads the system clock.
//
// The returned error is non-nil only when the pass could not start (listing
// rules failed) or ctx was cancelled; per-rule failures are in the summary.
// Concurrent calls for the same day share a single pass: every caller gets
// the same summary with Shared set, so adding up Created across callers
// overcounts.
func (p *RecurringProcessor) ProcessAllDueRules(ctx context.Context, now time.Time) (PassSummary, error) {
	if p.ledger == nil {
		return PassSummary{}, fmt.Errorf("processor not properly initialized")
	}

	today := core.DateOf(now)
	v, err, shared := p.group.Do(today.ISO(), func() (any, error) {
		return p.runPass(ctx, today)
	})
	if shared {
		slog.DebugContext(ctx, "Joined in-flight processing pass", "processing_date", today.ISO())
	}
	summary, _ := v.(PassSummary)
	summary.Shared = shared
	return summary, err
}

func (p *RecurringProcessor) runPass(ctx context.Context, today core.Date) (PassSummary, error) {
	summary := PassSummary{Date: today}

	rules, err := p.ledger.ListActiveRules(ctx)
	if err != nil {
		return summary, fmt.Errorf("failed to get active recurring rules: %w", asStorageError("list active rules", err))
	}

	slog.InfoContext(ctx, "Processing recurring rules",
		"total_active", len(rules),
		"processing_date", today.ISO())

	for _, rule := range rules {
		if err := ctx.Err(); err != nil {
			return summary, err
		}
		summary.Outcomes = append(summary.Outcomes, p.ProcessRule(ctx, rule, today))
	}

	slog.InfoContext(ctx, "Recurring rule processing complete",
		"created", summary.Created(),
		"failed", len(summary.Failed()),
		"total_checked", len(rules))

	return summary, nil
}

// ProcessRule catches a single rule up to today, oldest occurrence first.
// Each occurrence is written together with the advanced watermark in one
// unit of work; on failure the rule keeps its last committed watermark.
func (p *RecurringProcessor) ProcessRule(ctx context.Context, rule core.RecurringRule, today core.Date) RuleOutcome {
	out := RuleOutcome{
		RuleID:        rule.ID,
		LastProcessed: rule.LastProcessed,
		NextDue:       rule.NextDue,
	}
	if !rule.Active {
		out.Status = StatusSkipped
		return out
	}

	for {
		next, err := NextOccurrence(rule, out.LastProcessed, today)
		if err != nil {
			return p.fail(ctx, out, err)
		}

		if next.After(today) {
			if !next.Equal(out.NextDue) {
				err := p.ledger.UpdateRuleWatermark(ctx, rule.ID, out.LastProcessed, next)
				if errors.Is(err, core.ErrNotFound) {
					return p.deleted(ctx, out)
				}
				if err != nil {
					return p.fail(ctx, out, asStorageError("update rule watermark", err))
				}
				out.NextDue = next
			}
			out.Status = StatusUpToDate
			if len(out.Materialized) > 0 {
				out.Status = StatusMaterialized
			}
			return out
		}

		if len(out.Materialized) >= p.config.MaxCatchUp {
			out.Status = StatusCatchUpLimit
			out.Err = fmt.Errorf("rule %s: %w after %d occurrences, next due %s",
				rule.ID, core.ErrCatchUpLimit, len(out.Materialized), next.ISO())
			slog.WarnContext(ctx, "Recurring rule hit catch-up limit",
				"rule_id", rule.ID,
				"materialized", len(out.Materialized),
				"next_due", next.ISO())
			return out
		}

		following, err := NextOccurrence(rule, next, today)
		if err != nil {
			return p.fail(ctx, out, err)
		}

		tx := occurrenceTransaction(rule, next)
		duplicate := false
		err = p.ledger.WithinTx(ctx, func(uow ledger.UnitOfWork) error {
			if err := uow.InsertTransaction(ctx, tx); err != nil {
				if !errors.Is(err, core.ErrDuplicate) {
					return err
				}
				duplicate = true
			}
			return uow.UpdateRuleWatermark(ctx, rule.ID, next, following)
		})
		if errors.Is(err, core.ErrNotFound) {
			return p.deleted(ctx, out)
		}
		if err != nil {
			return p.fail(ctx, out, asStorageError("materialize occurrence "+next.ISO(), err))
		}

		out.LastProcessed = next
		out.NextDue = following

		if duplicate {
			slog.WarnContext(ctx, "Occurrence already materialized, advancing watermark",
				"rule_id", rule.ID,
				"occurrence_date", next.ISO())
			continue
		}

		out.Materialized = append(out.Materialized, tx)
		slog.InfoContext(ctx, "Created transaction from recurring rule",
			"rule_id", rule.ID,
			"transaction_id", tx.ID,
			"occurrence_date", next.ISO(),
			"amount", core.FormatAmount(tx.Amount),
			"is_income", tx.IsIncome,
			"recurrence", rule.RecurrenceType)

		p.publishCreated(ctx, tx, rule.ID)
	}
}

func (p *RecurringProcessor) fail(ctx context.Context, out RuleOutcome, err error) RuleOutcome {
	out.Status = StatusFailed
	out.Err = fmt.Errorf("rule %s: %w", out.RuleID, err)
	slog.ErrorContext(ctx, "Failed to process recurring rule",
		"rule_id", out.RuleID,
		"configuration_error", errors.Is(err, core.ErrConfiguration),
		"error", err)
	return out
}

func (p *RecurringProcessor) deleted(ctx context.Context, out RuleOutcome) RuleOutcome {
	out.Status = StatusRuleDeleted
	slog.InfoContext(ctx, "Recurring rule deleted during processing",
		"rule_id", out.RuleID)
	return out
}

func (p *RecurringProcessor) publishCreated(ctx context.Context, tx core.Transaction, ruleID string) {
	if p.publisher == nil {
		return
	}
	if err := p.publisher.PublishTransactionCreated(ctx, tx, ruleID); err != nil {
		slog.ErrorContext(ctx, "Failed to publish transaction event",
			"transaction_id", tx.ID,
			"rule_id", ruleID,
			"error", err)
	}
}

func occurrenceTransaction(rule core.RecurringRule, date core.Date) core.Transaction {
	return core.Transaction{
		ID:         OccurrenceID(rule.ID, date),
		Amount:     rule.Amount,
		CategoryID: rule.TransactionCategory(),
		Date:       date,
		Note:       rule.Note,
		IsIncome:   rule.IsIncome,
	}
}

// asStorageError tags ledger failures that are not already classified.
func asStorageError(op string, err error) error {
	if errors.Is(err, core.ErrStorage) || errors.Is(err, core.ErrConfiguration) {
		return err
	}
	return core.StorageError(op, err)
}
