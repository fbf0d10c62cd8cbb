// Package ledger validates and applies mutations to a lead's transfer ledger.
package ledger

import (
	"context"
	"errors"

	"brokerage_backend/internal/leads/domain"
	"brokerage_backend/internal/leads/repository"
	"brokerage_backend/platform/apperr"
	"brokerage_backend/platform/metrics"

	"github.com/google/uuid"
)

// Store is the persistence the ledger needs.
type Store interface {
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Lead, error)
	repository.TransferLedger
}

// References checks that brokers and regions named by a transfer exist.
type References interface {
	RequireBroker(ctx context.Context, field string, brokerID uuid.UUID) error
	RequireRegion(ctx context.Context, field string, regionID uuid.UUID) error
}

// Result is the outcome of an append: the lead with its full ledger and the
// entries this call actually added.
type Result struct {
	Lead    *domain.Lead
	Applied []domain.Transfer
}

// Service is the transfer ledger manager.
type Service struct {
	store   Store
	refs    References
	metrics *metrics.Metrics
}

// New creates a ledger service. m may be nil.
func New(store Store, refs References, m *metrics.Metrics) *Service {
	return &Service{store: store, refs: refs, metrics: m}
}

// AppendTransfers grants visibility of leadID from the acting broker to every
// target in specs. Entries whose key is already in the ledger are skipped, so
// repeating a call leaves the ledger unchanged.
func (s *Service) AppendTransfers(ctx context.Context, leadID, fromBroker uuid.UUID, specs []domain.TransferSpec, notes *string) (Result, error) {
	if len(specs) == 0 {
		return Result{}, apperr.Validation("at least one transfer is required")
	}

	if _, err := s.load(ctx, leadID); err != nil {
		return Result{}, err
	}
	if err := s.refs.RequireBroker(ctx, "fromBroker", fromBroker); err != nil {
		return Result{}, err
	}

	entries, err := s.normalize(ctx, fromBroker, specs)
	if err != nil {
		return Result{}, err
	}

	applied, err := s.store.AppendTransfers(ctx, leadID, entries, notes)
	if err != nil {
		return Result{}, mapStoreError(err)
	}
	s.record(entries, applied)

	lead, err := s.load(ctx, leadID)
	if err != nil {
		return Result{}, err
	}
	return Result{Lead: lead, Applied: applied}, nil
}

// RemoveTransfer deletes the individual entry from -> to.
func (s *Service) RemoveTransfer(ctx context.Context, leadID, fromBroker, toBroker uuid.UUID) (*domain.Lead, error) {
	removed, err := s.store.RemoveTransfer(ctx, leadID, fromBroker, toBroker)
	if err != nil {
		return nil, mapStoreError(err)
	}
	if !removed {
		if _, err := s.load(ctx, leadID); err != nil {
			return nil, err
		}
		return nil, apperr.NotFound("transfer not found")
	}
	s.metrics.TransferRemoved()
	return s.load(ctx, leadID)
}

// normalize validates each requested transfer and collapses duplicates within the batch,
// keeping first occurrence order.
func (s *Service) normalize(ctx context.Context, fromBroker uuid.UUID, specs []domain.TransferSpec) ([]domain.Transfer, error) {
	seen := make(map[string]struct{}, len(specs))
	entries := make([]domain.Transfer, 0, len(specs))

	for _, spec := range specs {
		if err := spec.Validate(); err != nil {
			return nil, err
		}
		switch spec.ShareType {
		case domain.ShareIndividual:
			if *spec.ToBroker == fromBroker {
				return nil, apperr.Validation("toBroker must differ from fromBroker")
			}
			if err := s.refs.RequireBroker(ctx, "toBroker", *spec.ToBroker); err != nil {
				return nil, err
			}
		case domain.ShareRegion:
			if err := s.refs.RequireRegion(ctx, "region", *spec.Region); err != nil {
				return nil, err
			}
		}

		entry := domain.NewTransfer(fromBroker, spec)
		key := entry.Key()
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		entries = append(entries, entry)
	}
	return entries, nil
}

func (s *Service) record(requested, applied []domain.Transfer) {
	added := make(map[string]struct{}, len(applied))
	for _, t := range applied {
		added[t.Key()] = struct{}{}
		s.metrics.TransferAppended(string(t.ShareType))
	}
	for _, t := range requested {
		if _, ok := added[t.Key()]; !ok {
			s.metrics.TransferDuplicate(string(t.ShareType))
		}
	}
}

func (s *Service) load(ctx context.Context, leadID uuid.UUID) (*domain.Lead, error) {
	lead, err := s.store.GetByID(ctx, leadID)
	if err != nil {
		return nil, mapStoreError(err)
	}
	return lead, nil
}

func mapStoreError(err error) error {
	if errors.Is(err, repository.ErrNotFound) {
		return apperr.NotFound("lead not found")
	}
	return err
}
