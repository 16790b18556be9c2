package database

import (
	"context"
	"database/sql"
	"errors"
)

// SelectedAccountKey is the settings row holding the selected account name.
const SelectedAccountKey = "selected_account"

// EnsureSelection selects the first account (by sort order, then name) when no
// account is selected or the selection points at a removed account.
// It is idempotent and safe to run on every startup.
func EnsureSelection(ctx context.Context, db *sql.DB) error {
	var current string
	err := db.QueryRowContext(ctx, `
	SELECT s.value FROM settings s
	JOIN accounts a ON a.name = s.value
	WHERE s.key = ?`, SelectedAccountKey).Scan(&current)
	if err == nil {
		return nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return err
	}

	var first string
	err = db.QueryRowContext(ctx, `SELECT name FROM accounts ORDER BY sort_order, name LIMIT 1`).Scan(&first)
	if errors.Is(err, sql.ErrNoRows) {
		_, err = db.ExecContext(ctx, `DELETE FROM settings WHERE key = ?`, SelectedAccountKey)
		return err
	}
	if err != nil {
		return err
	}
	_, err = db.ExecContext(ctx, `
	INSERT INTO settings(key, value) VALUES (?, ?)
	ON CONFLICT(key) DO UPDATE SET value=excluded.value`, SelectedAccountKey, first)
	return err
}
