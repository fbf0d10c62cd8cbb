package repository

import (
	"context"

	"brokerage_backend/internal/leads/domain"
	"brokerage_backend/internal/leads/filter"

	"github.com/google/uuid"
)

// =====================================
// Segregated Interfaces
// =====================================

// LeadReader provides read-only access to leads and their ledgers.
type LeadReader interface {
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Lead, error)
	List(ctx context.Context, where filter.Expr, sort filter.Sort, page filter.Page) ([]*domain.Lead, int, error)
	// FindContactConflicts returns the contact fields ("customerEmail",
	// "customerPhone") already used by a lead other than excludeID.
	FindContactConflicts(ctx context.Context, email, phone string, excludeID *uuid.UUID) ([]string, error)
}

// LeadWriter provides write operations on lead attributes. Each update
// touches only the columns it names.
type LeadWriter interface {
	Create(ctx context.Context, lead *domain.Lead) error
	UpdateAttributes(ctx context.Context, id uuid.UUID, patch domain.LeadPatch) error
	// UpdateStatus is a compare-and-set; false means the stored status was
	// not from, or the lead no longer exists.
	UpdateStatus(ctx context.Context, id uuid.UUID, from, to domain.Status) (bool, error)
	SetVerification(ctx context.Context, id uuid.UUID, status domain.VerificationStatus) error
	Delete(ctx context.Context, id uuid.UUID) error
}

// TransferLedger mutates a lead's transfer ledger.
type TransferLedger interface {
	// AppendTransfers appends entries whose key is not yet in the ledger and
	// returns only the entries actually appended. notes, when non-nil, replaces
	// the lead's notes in the same transaction.
	AppendTransfers(ctx context.Context, leadID uuid.UUID, entries []domain.Transfer, notes *string) ([]domain.Transfer, error)
	// RemoveTransfer deletes the individual entry (from, to) and reports
	// whether one existed.
	RemoveTransfer(ctx context.Context, leadID, from, to uuid.UUID) (bool, error)
}

// LeadsRepository combines all lead persistence.
type LeadsRepository interface {
	LeadReader
	LeadWriter
	TransferLedger
}

var _ LeadsRepository = (*Repository)(nil)
