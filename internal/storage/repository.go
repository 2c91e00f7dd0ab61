package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/shopspring/decimal"
	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"

	"expensify/internal/core"
	"expensify/internal/ledger"
)

var _ ledger.Ledger = (*SQLiteRepository)(nil)

// connPragmas are applied to every pooled connection. SQLite ships with
// foreign keys disabled.
const connPragmas = "_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)"

type SQLiteRepository struct {
	db      *sql.DB
	queries *Queries
}

func NewSQLiteRepository(dbPath string) (*SQLiteRepository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath+"?"+connPragmas)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}
	// One writer at a time; a second pooled connection would only hit
	// SQLITE_BUSY while a unit of work is open.
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := RunMigrations(dbPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &SQLiteRepository{
		db:      db,
		queries: New(db),
	}, nil
}

func (r *SQLiteRepository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

// WithinTx runs fn inside a database transaction and commits only if fn
// returns nil.
func (r *SQLiteRepository) WithinTx(ctx context.Context, fn func(ledger.UnitOfWork) error) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return core.StorageError("begin transaction", err)
	}
	if err := fn(&unitOfWork{queries: r.queries.WithTx(tx)}); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			slog.ErrorContext(ctx, "Failed to roll back transaction", "error", rbErr)
		}
		return err
	}
	if err := tx.Commit(); err != nil {
		return core.StorageError("commit transaction", err)
	}
	return nil
}

func (r *SQLiteRepository) InsertTransaction(ctx context.Context, tx core.Transaction) error {
	return insertTransaction(ctx, r.queries, tx)
}

func (r *SQLiteRepository) UpdateRuleWatermark(ctx context.Context, ruleID string, lastProcessed, nextDue core.Date) error {
	return updateWatermark(ctx, r.queries, ruleID, lastProcessed, nextDue)
}

// unitOfWork scopes the writes of one occurrence to a database transaction.
type unitOfWork struct {
	queries *Queries
}

func (u *unitOfWork) InsertTransaction(ctx context.Context, tx core.Transaction) error {
	return insertTransaction(ctx, u.queries, tx)
}

func (u *unitOfWork) UpdateRuleWatermark(ctx context.Context, ruleID string, lastProcessed, nextDue core.Date) error {
	return updateWatermark(ctx, u.queries, ruleID, lastProcessed, nextDue)
}

func insertTransaction(ctx context.Context, q *Queries, tx core.Transaction) error {
	if err := tx.Validate(); err != nil {
		return err
	}
	err := q.CreateTransaction(ctx, CreateTransactionParams{
		ID:       tx.ID,
		Amount:   tx.Amount.InexactFloat64(),
		Category: tx.CategoryID,
		Date:     tx.Date.ISO(),
		Note:     nullString(tx.Note),
		IsIncome: boolToInt(tx.IsIncome),
	})
	if err != nil {
		return classify("insert transaction "+tx.ID, err)
	}
	return nil
}

func updateWatermark(ctx context.Context, q *Queries, ruleID string, lastProcessed, nextDue core.Date) error {
	n, err := q.UpdateRecurringWatermark(ctx, UpdateRecurringWatermarkParams{
		LastProcessed: nullDate(lastProcessed),
		NextDue:       nullDate(nextDue),
		ID:            ruleID,
	})
	if err != nil {
		return classify("update watermark "+ruleID, err)
	}
	if n == 0 {
		return fmt.Errorf("update watermark %s: %w", ruleID, core.ErrRuleNotFound)
	}
	return nil
}

func (r *SQLiteRepository) ListCategories(ctx context.Context) ([]core.Category, error) {
	rows, err := r.queries.ListCategories(ctx)
	if err != nil {
		return nil, classify("list categories", err)
	}
	cats := make([]core.Category, len(rows))
	for i, c := range rows {
		cats[i] = core.Category{ID: c.ID, Name: c.Name, Color: c.Color, Icon: c.Icon}
	}
	return cats, nil
}

func (r *SQLiteRepository) ListTransactions(ctx context.Context, from, to core.Date) ([]core.Transaction, error) {
	rows, err := r.queries.ListTransactionsBetween(ctx, ListTransactionsBetweenParams{
		From: from.ISO(),
		To:   to.ISO(),
	})
	if err != nil {
		return nil, classify("list transactions", err)
	}

	txs := make([]core.Transaction, 0, len(rows))
	for _, row := range rows {
		date, err := parseStoredDate(row.Date)
		if err != nil {
			return nil, core.StorageError("read transaction "+row.ID, err)
		}
		txs = append(txs, core.Transaction{
			ID:         row.ID,
			Amount:     amountFromFloat(row.Amount),
			CategoryID: row.Category,
			Date:       date,
			Note:       row.Note.String,
			IsIncome:   row.IsIncome != 0,
		})
	}
	return txs, nil
}

func (r *SQLiteRepository) DeleteTransaction(ctx context.Context, id string) error {
	n, err := r.queries.DeleteTransaction(ctx, id)
	if err != nil {
		return classify("delete transaction "+id, err)
	}
	if n == 0 {
		return fmt.Errorf("delete transaction %s: %w", id, core.ErrTxNotFound)
	}
	slog.InfoContext(ctx, "Transaction deleted", "transaction_id", id)
	return nil
}

// ListActiveRules returns the active rules. A row whose stored dates cannot
// be read is logged and left out so the remaining rules still run.
func (r *SQLiteRepository) ListActiveRules(ctx context.Context) ([]core.RecurringRule, error) {
	rows, err := r.queries.ListActiveRecurring(ctx)
	if err != nil {
		return nil, classify("list active rules", err)
	}
	rules := make([]core.RecurringRule, 0, len(rows))
	for _, row := range rows {
		rule, err := toRule(row)
		if err != nil {
			slog.ErrorContext(ctx, "Skipping unreadable recurring rule", "rule_id", row.ID, "error", err)
			continue
		}
		rules = append(rules, rule)
	}
	return rules, nil
}

func (r *SQLiteRepository) ListRules(ctx context.Context) ([]core.RecurringRule, error) {
	rows, err := r.queries.ListRecurring(ctx)
	if err != nil {
		return nil, classify("list rules", err)
	}
	rules := make([]core.RecurringRule, 0, len(rows))
	for _, row := range rows {
		rule, err := toRule(row)
		if err != nil {
			return nil, err
		}
		rules = append(rules, rule)
	}
	return rules, nil
}

func (r *SQLiteRepository) GetRule(ctx context.Context, ruleID string) (core.RecurringRule, error) {
	row, err := r.queries.GetRecurring(ctx, ruleID)
	if errors.Is(err, sql.ErrNoRows) {
		return core.RecurringRule{}, fmt.Errorf("get rule %s: %w", ruleID, core.ErrRuleNotFound)
	}
	if err != nil {
		return core.RecurringRule{}, classify("get rule "+ruleID, err)
	}
	return toRule(row)
}

func (r *SQLiteRepository) CreateRule(ctx context.Context, rule core.RecurringRule) error {
	err := r.queries.CreateRecurring(ctx, RecurringTransaction{
		ID:             rule.ID,
		Amount:         rule.Amount.InexactFloat64(),
		IsIncome:       boolToInt(rule.IsIncome),
		Note:           nullString(rule.Note),
		Category:       nullString(rule.CategoryID),
		RecurrenceType: string(rule.RecurrenceType),
		Day:            nullInt(rule.Day),
		Month:          nullInt(rule.Month),
		Weekday:        nullInt(rule.Weekday),
		LastProcessed:  nullDate(rule.LastProcessed),
		NextDue:        nullDate(rule.NextDue),
		Active:         boolToInt(rule.Active),
	})
	if err != nil {
		return classify("create rule "+rule.ID, err)
	}
	return nil
}

func (r *SQLiteRepository) SetRuleActive(ctx context.Context, ruleID string, active bool) error {
	n, err := r.queries.SetRecurringActive(ctx, SetRecurringActiveParams{Active: boolToInt(active), ID: ruleID})
	if err != nil {
		return classify("set rule active "+ruleID, err)
	}
	if n == 0 {
		return fmt.Errorf("set rule active %s: %w", ruleID, core.ErrRuleNotFound)
	}
	return nil
}

func (r *SQLiteRepository) DeleteRule(ctx context.Context, ruleID string) error {
	n, err := r.queries.DeleteRecurring(ctx, ruleID)
	if err != nil {
		return classify("delete rule "+ruleID, err)
	}
	if n == 0 {
		return fmt.Errorf("delete rule %s: %w", ruleID, core.ErrRuleNotFound)
	}
	return nil
}

func toRule(row RecurringTransaction) (core.RecurringRule, error) {
	last, err := parseNullDate(row.LastProcessed)
	if err != nil {
		return core.RecurringRule{}, core.StorageError("read rule "+row.ID+" lastProcessed", err)
	}
	next, err := parseNullDate(row.NextDue)
	if err != nil {
		return core.RecurringRule{}, core.StorageError("read rule "+row.ID+" nextDue", err)
	}
	return core.RecurringRule{
		ID:             row.ID,
		Amount:         amountFromFloat(row.Amount),
		IsIncome:       row.IsIncome != 0,
		Note:           row.Note.String,
		CategoryID:     row.Category.String,
		RecurrenceType: core.RecurrenceType(row.RecurrenceType),
		Day:            int(row.Day.Int64),
		Month:          int(row.Month.Int64),
		Weekday:        int(row.Weekday.Int64),
		LastProcessed:  last,
		NextDue:        next,
		Active:         row.Active != 0,
	}, nil
}

// classify maps driver errors onto the core error kinds.
func classify(op string, err error) error {
	var se *sqlite.Error
	if errors.As(err, &se) {
		switch se.Code() {
		case sqlite3.SQLITE_CONSTRAINT_PRIMARYKEY, sqlite3.SQLITE_CONSTRAINT_UNIQUE:
			return core.StorageError(op, fmt.Errorf("%w: %w", core.ErrDuplicate, err))
		case sqlite3.SQLITE_CONSTRAINT_FOREIGNKEY:
			return core.StorageError(op, fmt.Errorf("%w: %w", core.ErrCategoryMissing, err))
		}
		if se.Code()&0xff == sqlite3.SQLITE_CONSTRAINT {
			msg := se.Error()
			switch {
			case strings.Contains(msg, "UNIQUE"):
				return core.StorageError(op, fmt.Errorf("%w: %w", core.ErrDuplicate, err))
			case strings.Contains(msg, "FOREIGN KEY"):
				return core.StorageError(op, fmt.Errorf("%w: %w", core.ErrCategoryMissing, err))
			}
		}
	}
	return core.StorageError(op, err)
}

// amountFromFloat returns the shortest decimal that reads back as f, so
// amounts keep whatever precision they were written with.
func amountFromFloat(f float64) decimal.Decimal {
	return decimal.NewFromFloat(f)
}

// parseStoredDate accepts plain dates and full ISO timestamps, keeping only
// the calendar day.
func parseStoredDate(s string) (core.Date, error) {
	if len(s) > len(core.ISODateLayout) {
		s = s[:len(core.ISODateLayout)]
	}
	return core.ParseISODate(s)
}

func parseNullDate(ns sql.NullString) (core.Date, error) {
	if !ns.Valid || ns.String == "" {
		return core.Date{}, nil
	}
	return parseStoredDate(ns.String)
}

func nullDate(d core.Date) sql.NullString {
	return sql.NullString{String: d.ISO(), Valid: !d.IsZero()}
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

func nullInt(n int) sql.NullInt64 {
	return sql.NullInt64{Int64: int64(n), Valid: n != 0}
}

func boolToInt(b bool) int64 {
	if b {
		return 1
	}
	return 0
}
