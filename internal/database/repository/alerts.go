package repository

import (
	"context"
	"database/sql"
)

// AlertRepo keeps the notification history.
type AlertRepo struct {
	db *sql.DB
}

func NewAlertRepo(db *sql.DB) *AlertRepo {
	return &AlertRepo{db: db}
}

func (r *AlertRepo) Insert(ctx context.Context, a Alert) error {
	_, err := r.db.ExecContext(ctx, `
	INSERT INTO alerts(id, severity, title, message, created_at)
	VALUES (?, ?, ?, ?, ?)`, a.ID, a.Severity, a.Title, a.Message, a.CreatedAt)
	return err
}

// Recent returns up to limit alerts, newest first.
func (r *AlertRepo) Recent(ctx context.Context, limit int) ([]Alert, error) {
	rows, err := r.db.QueryContext(ctx, `
	SELECT id, severity, title, message, created_at
	FROM alerts ORDER BY created_at DESC, rowid DESC LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []Alert
	for rows.Next() {
		var a Alert
		if err := rows.Scan(&a.ID, &a.Severity, &a.Title, &a.Message, &a.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, rows.Err()
}
