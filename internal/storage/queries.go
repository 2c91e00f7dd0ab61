package storage

import (
	"context"
	"database/sql"
)

type DBTX interface {
	ExecContext(context.Context, string, ...interface{}) (sql.Result, error)
	PrepareContext(context.Context, string) (*sql.Stmt, error)
	QueryContext(context.Context, string, ...interface{}) (*sql.Rows, error)
	QueryRowContext(context.Context, string, ...interface{}) *sql.Row
}

func New(db DBTX) *Queries {
	return &Queries{db: db}
}

type Queries struct {
	db DBTX
}

func (q *Queries) WithTx(tx *sql.Tx) *Queries {
	return &Queries{
		db: tx,
	}
}

const listCategories = `-- name: ListCategories :many
SELECT id, name, color, icon FROM categories ORDER BY rowid
`

func (q *Queries) ListCategories(ctx context.Context) ([]Category, error) {
	rows, err := q.db.QueryContext(ctx, listCategories)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []Category
	for rows.Next() {
		var i Category
		if err := rows.Scan(&i.ID, &i.Name, &i.Color, &i.Icon); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	if err := rows.Close(); err != nil {
		return nil, err
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

const createTransaction = `-- name: CreateTransaction :exec
INSERT INTO transactions (id, amount, category, date, note, isIncome)
VALUES (?, ?, ?, ?, ?, ?)
`

type CreateTransactionParams struct {
	ID       string
	Amount   float64
	Category string
	Date     string
	Note     sql.NullString
	IsIncome int64
}

func (q *Queries) CreateTransaction(ctx context.Context, arg CreateTransactionParams) error {
	_, err := q.db.ExecContext(ctx, createTransaction,
		arg.ID,
		arg.Amount,
		arg.Category,
		arg.Date,
		arg.Note,
		arg.IsIncome,
	)
	return err
}

const listTransactionsBetween = `-- name: ListTransactionsBetween :many
SELECT id, amount, category, date, note, isIncome FROM transactions
WHERE date >= ? AND date <= ?
ORDER BY date DESC, id DESC
`

type ListTransactionsBetweenParams struct {
	From string
	To   string
}

func (q *Queries) ListTransactionsBetween(ctx context.Context, arg ListTransactionsBetweenParams) ([]Transaction, error) {
	rows, err := q.db.QueryContext(ctx, listTransactionsBetween, arg.From, arg.To)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []Transaction
	for rows.Next() {
		var i Transaction
		if err := rows.Scan(
			&i.ID,
			&i.Amount,
			&i.Category,
			&i.Date,
			&i.Note,
			&i.IsIncome,
		); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	if err := rows.Close(); err != nil {
		return nil, err
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

const deleteTransaction = `-- name: DeleteTransaction :execrows
DELETE FROM transactions WHERE id = ?
`

func (q *Queries) DeleteTransaction(ctx context.Context, id string) (int64, error) {
	result, err := q.db.ExecContext(ctx, deleteTransaction, id)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}

const recurringColumns = `id, amount, isIncome, note, category, recurrenceType, day, month, weekday, lastProcessed, nextDue, active`

const listActiveRecurring = `-- name: ListActiveRecurring :many
SELECT ` + recurringColumns + ` FROM recurring_transactions
WHERE active = 1
ORDER BY id
`

func (q *Queries) ListActiveRecurring(ctx context.Context) ([]RecurringTransaction, error) {
	return q.queryRecurring(ctx, listActiveRecurring)
}

const listRecurring = `-- name: ListRecurring :many
SELECT ` + recurringColumns + ` FROM recurring_transactions
ORDER BY id
`

func (q *Queries) ListRecurring(ctx context.Context) ([]RecurringTransaction, error) {
	return q.queryRecurring(ctx, listRecurring)
}

const getRecurring = `-- name: GetRecurring :one
SELECT ` + recurringColumns + ` FROM recurring_transactions
WHERE id = ?
`

func (q *Queries) GetRecurring(ctx context.Context, id string) (RecurringTransaction, error) {
	row := q.db.QueryRowContext(ctx, getRecurring, id)
	var i RecurringTransaction
	err := scanRecurring(row, &i)
	return i, err
}

const createRecurring = `-- name: CreateRecurring :exec
INSERT INTO recurring_transactions (` + recurringColumns + `)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
`

func (q *Queries) CreateRecurring(ctx context.Context, arg RecurringTransaction) error {
	_, err := q.db.ExecContext(ctx, createRecurring,
		arg.ID,
		arg.Amount,
		arg.IsIncome,
		arg.Note,
		arg.Category,
		arg.RecurrenceType,
		arg.Day,
		arg.Month,
		arg.Weekday,
		arg.LastProcessed,
		arg.NextDue,
		arg.Active,
	)
	return err
}

const updateRecurringWatermark = `-- name: UpdateRecurringWatermark :execrows
UPDATE recurring_transactions
SET lastProcessed = ?, nextDue = ?
WHERE id = ?
`

type UpdateRecurringWatermarkParams struct {
	LastProcessed sql.NullString
	NextDue       sql.NullString
	ID            string
}

func (q *Queries) UpdateRecurringWatermark(ctx context.Context, arg UpdateRecurringWatermarkParams) (int64, error) {
	result, err := q.db.ExecContext(ctx, updateRecurringWatermark, arg.LastProcessed, arg.NextDue, arg.ID)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}

const setRecurringActive = `-- name: SetRecurringActive :execrows
UPDATE recurring_transactions SET active = ? WHERE id = ?
`

type SetRecurringActiveParams struct {
	Active int64
	ID     string
}

func (q *Queries) SetRecurringActive(ctx context.Context, arg SetRecurringActiveParams) (int64, error) {
	result, err := q.db.ExecContext(ctx, setRecurringActive, arg.Active, arg.ID)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}

const deleteRecurring = `-- name: DeleteRecurring :execrows
DELETE FROM recurring_transactions WHERE id = ?
`

func (q *Queries) DeleteRecurring(ctx context.Context, id string) (int64, error) {
	result, err := q.db.ExecContext(ctx, deleteRecurring, id)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}

func (q *Queries) queryRecurring(ctx context.Context, query string) ([]RecurringTransaction, error) {
	rows, err := q.db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []RecurringTransaction
	for rows.Next() {
		var i RecurringTransaction
		if err := scanRecurring(rows, &i); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	if err := rows.Close(); err != nil {
		return nil, err
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

type scanner interface {
	Scan(dest ...interface{}) error
}

func scanRecurring(s scanner, i *RecurringTransaction) error {
	return s.Scan(
		&i.ID,
		&i.Amount,
		&i.IsIncome,
		&i.Note,
		&i.Category,
		&i.RecurrenceType,
		&i.Day,
		&i.Month,
		&i.Weekday,
		&i.LastProcessed,
		&i.NextDue,
		&i.Active,
	)
}
