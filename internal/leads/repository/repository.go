// Package repository persists leads and their transfer ledgers in Postgres.
package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"brokerage_backend/internal/leads/domain"
	"brokerage_backend/internal/leads/filter"
	"brokerage_backend/platform/apperr"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ErrNotFound is returned when a lead or ledger entry does not exist.
var ErrNotFound = errors.New("lead not found")

const (
	opCreate    = "leads.create"
	opGet       = "leads.get"
	opList      = "leads.list"
	opUpdate    = "leads.update"
	opStatus    = "leads.status"
	opVerify    = "leads.verification"
	opDelete    = "leads.delete"
	opConflicts = "leads.contact_conflicts"
	opTransfers = "leads.transfers"

	pgUniqueViolation     = "23505"
	pgForeignKeyViolation = "23503"
	pgCheckViolation      = "23514"
)

const leadColumns = `l.id, l.customer_name, l.customer_email, l.customer_phone, l.requirement,
	l.property_type, l.budget, l.primary_region_id, l.secondary_region_id, l.status,
	l.verification_status, l.created_by, l.notes, l.created_at, l.updated_at`

// uniqueFields maps unique constraints to the API field they protect.
var uniqueFields = map[string]string{
	"leads_customer_email_key": "customerEmail",
	"leads_customer_phone_key": "customerPhone",
}

// referenceFields maps foreign keys to the API field that references them.
var referenceFields = map[string]string{
	"leads_primary_region_id_fkey":       "primaryRegionId",
	"leads_secondary_region_id_fkey":     "secondaryRegionId",
	"leads_created_by_fkey":              "createdBy",
	"lead_transfers_from_broker_id_fkey": "fromBroker",
	"lead_transfers_to_broker_id_fkey":   "toBroker",
	"lead_transfers_region_id_fkey":      "region",
}

// Repository is the pgx-backed lead store.
type Repository struct {
	pool *pgxpool.Pool
}

// New creates a lead repository.
func New(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

func (r *Repository) Create(ctx context.Context, lead *domain.Lead) error {
	err := r.pool.QueryRow(ctx, `
		INSERT INTO leads (id, customer_name, customer_email, customer_phone, requirement,
			property_type, budget, primary_region_id, secondary_region_id, status,
			verification_status, created_by, notes)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
		RETURNING created_at, updated_at`,
		lead.ID, lead.CustomerName, lead.CustomerEmail, lead.CustomerPhone, lead.Requirement,
		lead.PropertyType, lead.Budget, lead.PrimaryRegionID, lead.SecondaryRegionID, string(lead.Status),
		string(lead.VerificationStatus), lead.CreatedBy, lead.Notes,
	).Scan(&lead.CreatedAt, &lead.UpdatedAt)
	if err != nil {
		return mapWriteError(opCreate, "failed to create lead", err)
	}
	return nil
}

func (r *Repository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Lead, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+leadColumns+` FROM leads l WHERE l.id = $1`, id)
	lead, err := scanLead(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, apperr.Wrap(apperr.KindInternal, "failed to load lead", err).WithOp(opGet)
	}

	ledgers, err := r.loadTransfers(ctx, []uuid.UUID{id})
	if err != nil {
		return nil, err
	}
	lead.Transfers = ledgers[id]
	return lead, nil
}

func (r *Repository) List(ctx context.Context, where filter.Expr, sort filter.Sort, page filter.Page) ([]*domain.Lead, int, error) {
	clause, args := filter.Compile(where)

	var total int
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM leads l WHERE `+clause, args...).Scan(&total); err != nil {
		return nil, 0, apperr.Wrap(apperr.KindInternal, "failed to count leads", err).WithOp(opList)
	}
	if total == 0 {
		return []*domain.Lead{}, 0, nil
	}

	query := fmt.Sprintf(`SELECT %s FROM leads l WHERE %s ORDER BY %s LIMIT $%d OFFSET $%d`,
		leadColumns, clause, sort.SQL(), len(args)+1, len(args)+2)
	rows, err := r.pool.Query(ctx, query, append(args, page.Limit, page.Offset())...)
	if err != nil {
		return nil, 0, apperr.Wrap(apperr.KindInternal, "failed to list leads", err).WithOp(opList)
	}
	defer rows.Close()

	leads := make([]*domain.Lead, 0, page.Limit)
	ids := make([]uuid.UUID, 0, page.Limit)
	for rows.Next() {
		lead, err := scanLead(rows)
		if err != nil {
			return nil, 0, apperr.Wrap(apperr.KindInternal, "failed to scan lead", err).WithOp(opList)
		}
		leads = append(leads, lead)
		ids = append(ids, lead.ID)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, apperr.Wrap(apperr.KindInternal, "failed to list leads", err).WithOp(opList)
	}

	ledgers, err := r.loadTransfers(ctx, ids)
	if err != nil {
		return nil, 0, err
	}
	for _, lead := range leads {
		lead.Transfers = ledgers[lead.ID]
	}
	return leads, total, nil
}

func (r *Repository) FindContactConflicts(ctx context.Context, email, phone string, excludeID *uuid.UUID) ([]string, error) {
	var emailTaken, phoneTaken bool
	err := r.pool.QueryRow(ctx, `
		SELECT
			COALESCE(bool_or(customer_email = $1), false),
			COALESCE(bool_or(customer_phone = $2), false)
		FROM leads
		WHERE (customer_email = $1 OR customer_phone = $2)
			AND ($3::uuid IS NULL OR id <> $3)`,
		email, phone, excludeID,
	).Scan(&emailTaken, &phoneTaken)
	if err != nil {
		return nil, apperr.Wrap(apperr.KindInternal, "failed to check contact uniqueness", err).WithOp(opConflicts)
	}

	var fields []string
	if emailTaken {
		fields = append(fields, "customerEmail")
	}
	if phoneTaken {
		fields = append(fields, "customerPhone")
	}
	return fields, nil
}

// UpdateAttributes writes only the columns present in patch, leaving status,
// verification and columns other writers own untouched.
func (r *Repository) UpdateAttributes(ctx context.Context, id uuid.UUID, patch domain.LeadPatch) error {
	args := []any{id}
	sets := make([]string, 0, 10)
	set := func(column string, value any) {
		args = append(args, value)
		sets = append(sets, fmt.Sprintf("%s = $%d", column, len(args)))
	}
	if patch.CustomerName != nil {
		set("customer_name", *patch.CustomerName)
	}
	if patch.CustomerEmail != nil {
		set("customer_email", *patch.CustomerEmail)
	}
	if patch.CustomerPhone != nil {
		set("customer_phone", *patch.CustomerPhone)
	}
	if patch.Requirement != nil {
		set("requirement", *patch.Requirement)
	}
	if patch.PropertyType != nil {
		set("property_type", *patch.PropertyType)
	}
	if patch.Budget != nil {
		set("budget", *patch.Budget)
	}
	if patch.Notes != nil {
		set("notes", *patch.Notes)
	}
	if patch.PrimaryRegionID != nil {
		set("primary_region_id", *patch.PrimaryRegionID)
	}
	if patch.SecondaryRegionSet {
		set("secondary_region_id", patch.SecondaryRegionID)
	}
	sets = append(sets, "updated_at = now()")

	tag, err := r.pool.Exec(ctx, `UPDATE leads SET `+strings.Join(sets, ", ")+` WHERE id = $1`, args...)
	if err != nil {
		return mapWriteError(opUpdate, "failed to update lead", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// UpdateStatus moves the lead from one status to another and reports false
// when the stored status is no longer from or the lead is gone.
func (r *Repository) UpdateStatus(ctx context.Context, id uuid.UUID, from, to domain.Status) (bool, error) {
	tag, err := r.pool.Exec(ctx,
		`UPDATE leads SET status = $3, updated_at = now() WHERE id = $1 AND status = $2`,
		id, string(from), string(to))
	if err != nil {
		return false, apperr.Wrap(apperr.KindInternal, "failed to update lead status", err).WithOp(opStatus)
	}
	return tag.RowsAffected() == 1, nil
}

func (r *Repository) SetVerification(ctx context.Context, id uuid.UUID, status domain.VerificationStatus) error {
	tag, err := r.pool.Exec(ctx,
		`UPDATE leads SET verification_status = $2, updated_at = now() WHERE id = $1`, id, string(status))
	if err != nil {
		return apperr.Wrap(apperr.KindInternal, "failed to update lead verification", err).WithOp(opVerify)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *Repository) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM leads WHERE id = $1`, id)
	if err != nil {
		return apperr.Wrap(apperr.KindInternal, "failed to delete lead", err).WithOp(opDelete)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanLead(row rowScanner) (*domain.Lead, error) {
	var (
		lead         domain.Lead
		status       string
		verification string
	)
	err := row.Scan(
		&lead.ID, &lead.CustomerName, &lead.CustomerEmail, &lead.CustomerPhone, &lead.Requirement,
		&lead.PropertyType, &lead.Budget, &lead.PrimaryRegionID, &lead.SecondaryRegionID, &status,
		&verification, &lead.CreatedBy, &lead.Notes, &lead.CreatedAt, &lead.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	lead.Status = domain.Status(status)
	lead.VerificationStatus = domain.VerificationStatus(verification)
	lead.Transfers = []domain.Transfer{}
	return &lead, nil
}

// mapWriteError turns constraint violations into conflict and reference errors.
func mapWriteError(op, message string, err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case pgUniqueViolation:
			field, ok := uniqueFields[pgErr.ConstraintName]
			if !ok {
				field = pgErr.ConstraintName
			}
			return apperr.ConflictFields("a lead with the same "+field+" already exists", field).WithOp(op).WithErr(err)
		case pgForeignKeyViolation:
			field, ok := referenceFields[pgErr.ConstraintName]
			if !ok {
				field = "reference"
			}
			return apperr.Reference(field + " does not exist").WithOp(op).WithErr(err)
		case pgCheckViolation:
			if pgErr.ConstraintName == "leads_regions_distinct" {
				return apperr.Validation("secondaryRegionId must differ from primaryRegionId").WithOp(op).WithErr(err)
			}
		}
	}
	return apperr.Wrap(apperr.KindInternal, message, err).WithOp(op)
}
