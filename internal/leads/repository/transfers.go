package repository

import (
	"context"
	"errors"

	"brokerage_backend/internal/leads/domain"
	"brokerage_backend/platform/apperr"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// AppendTransfers locks the lead row and inserts each entry with
// ON CONFLICT DO NOTHING on (lead_id, dedup_key). Concurrent appends to the
// same lead therefore neither lose entries nor create duplicates.
func (r *Repository) AppendTransfers(ctx context.Context, leadID uuid.UUID, entries []domain.Transfer, notes *string) ([]domain.Transfer, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return nil, apperr.Wrap(apperr.KindInternal, "failed to start transaction", err).WithOp(opTransfers)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	var locked uuid.UUID
	err = tx.QueryRow(ctx, `SELECT id FROM leads WHERE id = $1 FOR UPDATE`, leadID).Scan(&locked)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, apperr.Wrap(apperr.KindInternal, "failed to lock lead", err).WithOp(opTransfers)
	}

	applied := make([]domain.Transfer, 0, len(entries))
	for _, entry := range entries {
		err := tx.QueryRow(ctx, `
			INSERT INTO lead_transfers (lead_id, from_broker_id, share_type, to_broker_id, region_id, dedup_key)
			VALUES ($1, $2, $3, $4, $5, $6)
			ON CONFLICT (lead_id, dedup_key) DO NOTHING
			RETURNING created_at`,
			leadID, entry.FromBroker, string(entry.ShareType), entry.ToBroker, entry.Region, entry.Key(),
		).Scan(&entry.CreatedAt)
		if errors.Is(err, pgx.ErrNoRows) {
			continue
		}
		if err != nil {
			return nil, mapWriteError(opTransfers, "failed to append transfer", err)
		}
		applied = append(applied, entry)
	}

	switch {
	case notes != nil:
		_, err = tx.Exec(ctx, `UPDATE leads SET notes = $2, updated_at = now() WHERE id = $1`, leadID, *notes)
	case len(applied) > 0:
		_, err = tx.Exec(ctx, `UPDATE leads SET updated_at = now() WHERE id = $1`, leadID)
	}
	if err != nil {
		return nil, apperr.Wrap(apperr.KindInternal, "failed to touch lead", err).WithOp(opTransfers)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, apperr.Wrap(apperr.KindInternal, "failed to commit transfers", err).WithOp(opTransfers)
	}
	return applied, nil
}

func (r *Repository) RemoveTransfer(ctx context.Context, leadID, from, to uuid.UUID) (bool, error) {
	tag, err := r.pool.Exec(ctx, `
		DELETE FROM lead_transfers
		WHERE lead_id = $1 AND share_type = 'individual' AND from_broker_id = $2 AND to_broker_id = $3`,
		leadID, from, to)
	if err != nil {
		return false, apperr.Wrap(apperr.KindInternal, "failed to remove transfer", err).WithOp(opTransfers)
	}
	return tag.RowsAffected() > 0, nil
}

// loadTransfers returns each lead's ledger in append order.
func (r *Repository) loadTransfers(ctx context.Context, leadIDs []uuid.UUID) (map[uuid.UUID][]domain.Transfer, error) {
	out := make(map[uuid.UUID][]domain.Transfer, len(leadIDs))
	if len(leadIDs) == 0 {
		return out, nil
	}

	rows, err := r.pool.Query(ctx, `
		SELECT lead_id, from_broker_id, share_type, to_broker_id, region_id, created_at
		FROM lead_transfers
		WHERE lead_id = ANY($1)
		ORDER BY lead_id, seq`, leadIDs)
	if err != nil {
		return nil, apperr.Wrap(apperr.KindInternal, "failed to load transfers", err).WithOp(opTransfers)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			leadID    uuid.UUID
			t         domain.Transfer
			shareType string
		)
		if err := rows.Scan(&leadID, &t.FromBroker, &shareType, &t.ToBroker, &t.Region, &t.CreatedAt); err != nil {
			return nil, apperr.Wrap(apperr.KindInternal, "failed to scan transfer", err).WithOp(opTransfers)
		}
		t.ShareType = domain.ShareType(shareType)
		out[leadID] = append(out[leadID], t)
	}
	if err := rows.Err(); err != nil {
		return nil, apperr.Wrap(apperr.KindInternal, "failed to load transfers", err).WithOp(opTransfers)
	}
	return out, nil
}
