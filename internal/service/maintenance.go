package service

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/jask/vaultwallet/internal/database"
)

// MaintenanceService houses housekeeping run at startup.
type MaintenanceService struct {
	DB *sql.DB
}

// PruneAlerts keeps the newest keep alerts and deletes the rest.
func (s *MaintenanceService) PruneAlerts(ctx context.Context, keep int) (int64, error) {
	if s.DB == nil {
		return 0, fmt.Errorf("maintenance: db not configured")
	}
	if keep < 0 {
		keep = 0
	}
	var n int64
	err := database.WithTx(ctx, s.DB, func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx, `
DELETE FROM alerts WHERE id NOT IN (
	SELECT id FROM alerts ORDER BY created_at DESC, rowid DESC LIMIT ?
)`, keep)
		if err != nil {
			return fmt.Errorf("prune alerts: %w", err)
		}
		n, err = res.RowsAffected()
		return err
	})
	return n, err
}
