package database

import (
	"context"
)

const listAccounts = `-- name: ListAccounts :many
SELECT id, name, category_id, created_at FROM accounts
ORDER BY id
`

func (q *Queries) ListAccounts(ctx context.Context) ([]Account, error) {
	rows, err := q.db.Query(ctx, listAccounts)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []Account
	for rows.Next() {
		var i Account
		if err := rows.Scan(&i.ID, &i.Name, &i.CategoryID, &i.CreatedAt); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

const createAccount = `-- name: CreateAccount :one
INSERT INTO accounts (name, category_id)
VALUES ($1, $2)
RETURNING id
`

type CreateAccountParams struct {
	Name       string
	CategoryID int64
}

func (q *Queries) CreateAccount(ctx context.Context, arg CreateAccountParams) (int64, error) {
	row := q.db.QueryRow(ctx, createAccount, arg.Name, arg.CategoryID)
	var id int64
	err := row.Scan(&id)
	return id, err
}

const listCategories = `-- name: ListCategories :many
SELECT id, name, created_at FROM categories
ORDER BY id
`

func (q *Queries) ListCategories(ctx context.Context) ([]Category, error) {
	rows, err := q.db.Query(ctx, listCategories)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []Category
	for rows.Next() {
		var i Category
		if err := rows.Scan(&i.ID, &i.Name, &i.CreatedAt); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

const createCategory = `-- name: CreateCategory :one
INSERT INTO categories (name)
VALUES ($1)
RETURNING id
`

func (q *Queries) CreateCategory(ctx context.Context, name string) (int64, error) {
	row := q.db.QueryRow(ctx, createCategory, name)
	var id int64
	err := row.Scan(&id)
	return id, err
}

const listCurrencies = `-- name: ListCurrencies :many
SELECT id, code, name, decimal_places FROM currencies
ORDER BY code
`

func (q *Queries) ListCurrencies(ctx context.Context) ([]Currency, error) {
	rows, err := q.db.Query(ctx, listCurrencies)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []Currency
	for rows.Next() {
		var i Currency
		if err := rows.Scan(&i.ID, &i.Code, &i.Name, &i.DecimalPlaces); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

// The no-op update makes RETURNING yield the id of an existing row.
const upsertCurrencyByCode = `-- name: UpsertCurrencyByCode :one
INSERT INTO currencies (code, name, decimal_places)
VALUES ($1, $2, $3)
ON CONFLICT (code) DO UPDATE SET code = EXCLUDED.code
RETURNING id
`

type UpsertCurrencyByCodeParams struct {
	Code          string
	Name          string
	DecimalPlaces int32
}

func (q *Queries) UpsertCurrencyByCode(ctx context.Context, arg UpsertCurrencyByCodeParams) (int64, error) {
	row := q.db.QueryRow(ctx, upsertCurrencyByCode, arg.Code, arg.Name, arg.DecimalPlaces)
	var id int64
	err := row.Scan(&id)
	return id, err
}
