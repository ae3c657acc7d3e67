package tenants

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"calldata-platform/pkg/utils"
)

// NOTE: PostgresRegistry assumes the following tables exist:
// - tenants (id, sheet_id, sheet_range, workflow_id, credential_ref, deprovisioned_at)
// - tenant_phone_numbers (tenant_id, phone_e164)
//
// Both are owned by the tenant-provisioning service; this registry only reads them.

// PostgresRegistry resolves tenants from Postgres via database/sql (pgx stdlib driver).
type PostgresRegistry struct {
	db     *sql.DB
	region string
}

func NewPostgresRegistry(db *sql.DB, phoneRegion string) *PostgresRegistry {
	return &PostgresRegistry{db: db, region: phoneRegion}
}

type tenantRow struct {
	ID            string
	SheetID       sql.NullString
	SheetRange    sql.NullString
	WorkflowID    sql.NullString
	CredentialRef sql.NullString
}

func (r *PostgresRegistry) Resolve(ctx context.Context, tenantID string) (TenantContext, error) {
	if tenantID == "" {
		return TenantContext{}, ErrNotFound
	}
	if r.db == nil {
		return TenantContext{}, errors.New("tenants: database not configured")
	}

	// One snapshot so a concurrent deprovision cannot split the two reads.
	var (
		row    tenantRow
		phones []string
	)
	err := utils.ReadSnapshot(ctx, r.db, func(ctx context.Context, tx *sql.Tx) error {
		var err error
		if row, err = getTenant(ctx, tx, tenantID); err != nil {
			return err
		}
		phones, err = listPhoneNumbers(ctx, tx, tenantID)
		return err
	})
	if err != nil {
		return TenantContext{}, err
	}
	return row.toContext(phones, r.region), nil
}

// querier is satisfied by *sql.DB and *sql.Tx.
type querier interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
}

func getTenant(ctx context.Context, db querier, tenantID string) (tenantRow, error) {
	const q = `
SELECT id, sheet_id, sheet_range, workflow_id, credential_ref
FROM tenants
WHERE id = $1 AND deprovisioned_at IS NULL
`
	var t tenantRow
	if err := db.QueryRowContext(ctx, q, tenantID).Scan(
		&t.ID,
		&t.SheetID,
		&t.SheetRange,
		&t.WorkflowID,
		&t.CredentialRef,
	); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return tenantRow{}, ErrNotFound
		}
		return tenantRow{}, fmt.Errorf("tenants: load %s: %w", tenantID, err)
	}
	return t, nil
}

func listPhoneNumbers(ctx context.Context, db querier, tenantID string) ([]string, error) {
	const q = `
SELECT phone_e164
FROM tenant_phone_numbers
WHERE tenant_id = $1
ORDER BY phone_e164
`
	rows, err := db.QueryContext(ctx, q, tenantID)
	if err != nil {
		return nil, fmt.Errorf("tenants: phone numbers for %s: %w", tenantID, err)
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var p string
		if err := rows.Scan(&p); err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

func (t tenantRow) toContext(phones []string, region string) TenantContext {
	out := TenantContext{
		TenantID:            t.ID,
		AllowedPhoneNumbers: NewPhoneSet(region, phones...),
	}
	if t.SheetID.Valid && t.SheetID.String != "" {
		out.RecordSource = &RecordSourceHandle{SheetID: t.SheetID.String, Range: t.SheetRange.String}
	}
	if t.WorkflowID.Valid && t.WorkflowID.String != "" {
		out.EventSource = &EventSourceHandle{WorkflowID: t.WorkflowID.String, CredentialRef: t.CredentialRef.String}
	}
	return out
}
