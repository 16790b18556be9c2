package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
)

// ErrNotFound is returned when a row does not exist.
var ErrNotFound = errors.New("not found")

// execer is satisfied by *sql.DB and *sql.Tx.
type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// AccountRepo handles accounts.
type AccountRepo struct {
	db execer
}

func NewAccountRepo(db *sql.DB) *AccountRepo {
	return &AccountRepo{db: db}
}

// WithTx returns a repo bound to tx.
func (r *AccountRepo) WithTx(tx *sql.Tx) *AccountRepo {
	return &AccountRepo{db: tx}
}

func (r *AccountRepo) Upsert(ctx context.Context, a Account) error {
	meta, err := encodeMeta(a.Meta)
	if err != nil {
		return err
	}
	_, err = r.db.ExecContext(ctx, `
	INSERT INTO accounts(id, name, vault_type, meta, sort_order, created_at, updated_at)
	VALUES (?, ?, ?, ?, ?, CURRENT_TIMESTAMP, CURRENT_TIMESTAMP)
	ON CONFLICT(id) DO UPDATE SET
	 name=excluded.name,
	 vault_type=excluded.vault_type,
	 meta=excluded.meta,
	 sort_order=excluded.sort_order,
	 updated_at=CURRENT_TIMESTAMP;
	`, a.ID, a.Name, a.VaultType, meta, a.SortOrder)
	return err
}

func (r *AccountRepo) List(ctx context.Context) ([]Account, error) {
	rows, err := r.db.QueryContext(ctx, `
	SELECT id, name, vault_type, meta, sort_order, created_at, updated_at
	FROM accounts ORDER BY sort_order, name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []Account
	for rows.Next() {
		a, err := scanAccount(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

// ByName returns ErrNotFound when no account carries name.
func (r *AccountRepo) ByName(ctx context.Context, name string) (Account, error) {
	row := r.db.QueryRowContext(ctx, `
	SELECT id, name, vault_type, meta, sort_order, created_at, updated_at
	FROM accounts WHERE name = ?`, name)
	a, err := scanAccount(row)
	if errors.Is(err, sql.ErrNoRows) {
		return Account{}, ErrNotFound
	}
	return a, err
}

// DeleteByName returns ErrNotFound when nothing was deleted.
func (r *AccountRepo) DeleteByName(ctx context.Context, name string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM accounts WHERE name = ?`, name)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *AccountRepo) Count(ctx context.Context) (int, error) {
	var n int
	err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM accounts`).Scan(&n)
	return n, err
}

type scanner interface {
	Scan(dest ...any) error
}

func scanAccount(s scanner) (Account, error) {
	var a Account
	var meta string
	if err := s.Scan(&a.ID, &a.Name, &a.VaultType, &meta, &a.SortOrder, &a.CreatedAt, &a.UpdatedAt); err != nil {
		return Account{}, err
	}
	if meta != "" {
		if err := json.Unmarshal([]byte(meta), &a.Meta); err != nil {
			return Account{}, fmt.Errorf("account %s meta: %w", a.Name, err)
		}
	}
	return a, nil
}

func encodeMeta(meta map[string]string) (string, error) {
	if len(meta) == 0 {
		return "{}", nil
	}
	data, err := json.Marshal(meta)
	if err != nil {
		return "", err
	}
	return string(data), nil
}
