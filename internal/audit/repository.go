package audit

import (
	"context"
	"database/sql"
	"errors"
)

// PostgresRepo appends to audit_events. The table should carry an INSERT-only policy.
type PostgresRepo struct {
	db *sql.DB
}

func NewPostgresRepo(db *sql.DB) *PostgresRepo {
	return &PostgresRepo{db: db}
}

func (r *PostgresRepo) Append(ctx context.Context, e Event) error {
	if r.db == nil {
		return errors.New("audit: db not configured")
	}
	const q = `
INSERT INTO audit_events (id, tenant_id, type, remote_addr, provider_event, call_id, message, created_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
`
	_, err := r.db.ExecContext(ctx, q,
		e.ID, e.TenantID, string(e.Type), e.RemoteAddr, e.ProviderEvent, e.CallID, e.Message, e.CreatedAt,
	)
	return err
}
