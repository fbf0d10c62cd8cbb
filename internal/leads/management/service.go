// Package management handles lead CRUD, status changes and ledger requests.
// It authorizes the actor, delegates ledger mutation to the ledger service and
// publishes lifecycle events once a write has committed.
package management

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"brokerage_backend/internal/events"
	"brokerage_backend/internal/leads/domain"
	"brokerage_backend/internal/leads/filter"
	"brokerage_backend/internal/leads/ledger"
	"brokerage_backend/internal/leads/repository"
	"brokerage_backend/internal/leads/transport"
	"brokerage_backend/internal/leads/visibility"
	"brokerage_backend/platform/apperr"
	"brokerage_backend/platform/phone"
	"brokerage_backend/platform/sanitize"

	"github.com/google/uuid"
)

// ResourceTypeLead tags notifications that reference a lead.
const ResourceTypeLead = "lead"

// Repository defines the data access interface needed by the management service.
// This is a consumer-driven interface - only what management needs.
type Repository interface {
	repository.LeadReader
	repository.LeadWriter
}

// Ledger applies transfer mutations.
type Ledger interface {
	AppendTransfers(ctx context.Context, leadID, fromBroker uuid.UUID, specs []domain.TransferSpec, notes *string) (ledger.Result, error)
	RemoveTransfer(ctx context.Context, leadID, fromBroker, toBroker uuid.UUID) (*domain.Lead, error)
}

// Directory validates broker and region references.
type Directory interface {
	RequireBroker(ctx context.Context, field string, brokerID uuid.UUID) error
	RequireRegion(ctx context.Context, field string, regionID uuid.UUID) error
}

// Visibility builds read predicates.
type Visibility interface {
	ComputeVisibilityPredicate(ctx context.Context, actor domain.Actor) (filter.Expr, error)
	ComputeTransferredLeadsPredicate(ctx context.Context, actor domain.Actor, p visibility.TransferredParams) (filter.Expr, error)
	BuildSearchFilter(ctx context.Context, p visibility.SearchParams) (filter.Expr, error)
}

// NotificationDrainer removes notifications that reference a resource.
type NotificationDrainer interface {
	DeleteByResource(ctx context.Context, resourceType string, resourceID uuid.UUID) (int64, error)
}

// Service handles lead management operations.
type Service struct {
	repo        Repository
	ledger      Ledger
	directory   Directory
	visibility  Visibility
	drainer     NotificationDrainer
	eventBus    events.Bus
	phoneRegion string
}

// New creates a new lead management service.
func New(repo Repository, ledgerSvc Ledger, dir Directory, vis Visibility, drainer NotificationDrainer, eventBus events.Bus, phoneRegion string) *Service {
	return &Service{
		repo:        repo,
		ledger:      ledgerSvc,
		directory:   dir,
		visibility:  vis,
		drainer:     drainer,
		eventBus:    eventBus,
		phoneRegion: phoneRegion,
	}
}

// Create stores a new lead. Brokers always own what they create; admins may
// name an owning broker or leave the lead unowned.
func (s *Service) Create(ctx context.Context, actor domain.Actor, req transport.CreateLeadRequest) (transport.LeadResponse, error) {
	if !actor.IsAdmin() && !actor.IsBroker() {
		return transport.LeadResponse{}, apperr.Forbidden("only brokers and admins can create leads")
	}

	primary, err := domain.ParseID("primaryRegionId", req.PrimaryRegionID)
	if err != nil {
		return transport.LeadResponse{}, err
	}
	secondary, err := domain.ParseOptionalID("secondaryRegionId", req.SecondaryRegionID)
	if err != nil {
		return transport.LeadResponse{}, err
	}
	if err := s.checkRegions(ctx, primary, secondary); err != nil {
		return transport.LeadResponse{}, err
	}

	createdBy, err := s.resolveCreator(ctx, actor, req.CreatedBy)
	if err != nil {
		return transport.LeadResponse{}, err
	}

	lead := &domain.Lead{
		ID:                 uuid.New(),
		CustomerName:       sanitize.Text(req.CustomerName),
		CustomerEmail:      transport.NormalizeEmail(req.CustomerEmail),
		CustomerPhone:      phone.NormalizeE164(req.CustomerPhone, s.phoneRegion),
		Requirement:        sanitize.Text(req.Requirement),
		PropertyType:       strings.TrimSpace(req.PropertyType),
		Budget:             req.Budget,
		PrimaryRegionID:    primary,
		SecondaryRegionID:  secondary,
		Status:             domain.StatusNew,
		VerificationStatus: domain.VerificationUnverified,
		CreatedBy:          createdBy,
		Transfers:          []domain.Transfer{},
		Notes:              sanitize.Text(req.Notes),
	}

	if err := s.checkContactConflicts(ctx, lead.CustomerEmail, lead.CustomerPhone, nil); err != nil {
		return transport.LeadResponse{}, err
	}
	if err := s.repo.Create(ctx, lead); err != nil {
		return transport.LeadResponse{}, err
	}

	s.eventBus.Publish(ctx, events.LeadCreated{
		BaseEvent:     events.NewBaseEvent(),
		LeadID:        lead.ID,
		CustomerName:  lead.CustomerName,
		CreatorBroker: lead.CreatedBy,
		ActorUserID:   actor.UserID,
	})

	return ToLeadResponse(lead), nil
}

// GetByID returns a lead the actor can see. Leads outside the actor's
// visibility are reported as not found.
func (s *Service) GetByID(ctx context.Context, actor domain.Actor, id uuid.UUID) (transport.LeadResponse, error) {
	lead, err := s.loadVisible(ctx, actor, id)
	if err != nil {
		return transport.LeadResponse{}, err
	}
	return ToLeadResponse(lead), nil
}

// List returns the page of visible leads matching the query.
func (s *Service) List(ctx context.Context, actor domain.Actor, q transport.ListLeadsQuery) (transport.LeadListResponse, error) {
	visible, err := s.visibility.ComputeVisibilityPredicate(ctx, actor)
	if err != nil {
		return transport.LeadListResponse{}, err
	}
	return s.list(ctx, visible, q)
}

// ListTransferred returns leads with a non-empty ledger, optionally narrowed
// to a sending or receiving broker.
func (s *Service) ListTransferred(ctx context.Context, actor domain.Actor, q transport.TransferredLeadsQuery) (transport.LeadListResponse, error) {
	where, err := s.visibility.ComputeTransferredLeadsPredicate(ctx, actor, visibility.TransferredParams{
		ToBroker:   q.ToBroker,
		FromBroker: q.FromBroker,
		BrokerID:   q.BrokerID,
	})
	if err != nil {
		return transport.LeadListResponse{}, err
	}
	return s.list(ctx, where, q.ListLeadsQuery)
}

func (s *Service) list(ctx context.Context, base filter.Expr, q transport.ListLeadsQuery) (transport.LeadListResponse, error) {
	search, err := s.visibility.BuildSearchFilter(ctx, searchParams(q))
	if err != nil {
		return transport.LeadListResponse{}, err
	}

	page := filter.ParsePage(q.Page, q.Limit)
	sort := filter.ParseSort(q.SortBy, q.SortOrder)

	leads, total, err := s.repo.List(ctx, filter.And(base, search), sort, page)
	if err != nil {
		return transport.LeadListResponse{}, err
	}
	return toLeadListResponse(leads, total, page), nil
}

// Update applies a partial update. Only admins and the owning broker may edit.
// Only the columns named in the request are written.
func (s *Service) Update(ctx context.Context, actor domain.Actor, id uuid.UUID, req transport.UpdateLeadRequest) (transport.LeadResponse, error) {
	lead, err := s.load(ctx, id)
	if err != nil {
		return transport.LeadResponse{}, err
	}
	if err := authorizeOwner(actor, lead); err != nil {
		return transport.LeadResponse{}, err
	}

	patch, err := s.buildPatch(req)
	if err != nil {
		return transport.LeadResponse{}, err
	}
	if patch.IsEmpty() {
		return ToLeadResponse(lead), nil
	}

	merged := lead.Clone()
	patch.ApplyTo(merged)
	if patch.PrimaryRegionID != nil || patch.SecondaryRegionSet {
		if err := s.checkRegions(ctx, merged.PrimaryRegionID, merged.SecondaryRegionID); err != nil {
			return transport.LeadResponse{}, err
		}
	}
	if merged.CustomerEmail != lead.CustomerEmail || merged.CustomerPhone != lead.CustomerPhone {
		if err := s.checkContactConflicts(ctx, merged.CustomerEmail, merged.CustomerPhone, &lead.ID); err != nil {
			return transport.LeadResponse{}, err
		}
	}

	if err := s.repo.UpdateAttributes(ctx, id, patch); err != nil {
		return transport.LeadResponse{}, mapNotFound(err)
	}
	return s.reload(ctx, id)
}

func (s *Service) buildPatch(req transport.UpdateLeadRequest) (domain.LeadPatch, error) {
	patch := domain.LeadPatch{
		CustomerName: sanitize.TextPtr(req.CustomerName),
		Requirement:  sanitize.TextPtr(req.Requirement),
		Notes:        sanitize.TextPtr(req.Notes),
		Budget:       req.Budget,
	}
	if req.CustomerEmail != nil {
		email := transport.NormalizeEmail(*req.CustomerEmail)
		patch.CustomerEmail = &email
	}
	if req.CustomerPhone != nil {
		normalized := phone.NormalizeE164(*req.CustomerPhone, s.phoneRegion)
		patch.CustomerPhone = &normalized
	}
	if req.PropertyType != nil {
		propertyType := strings.TrimSpace(*req.PropertyType)
		patch.PropertyType = &propertyType
	}
	if req.PrimaryRegionID != nil {
		primary, err := domain.ParseID("primaryRegionId", *req.PrimaryRegionID)
		if err != nil {
			return domain.LeadPatch{}, err
		}
		patch.PrimaryRegionID = &primary
	}
	if req.SecondaryRegionID.Set {
		patch.SecondaryRegionSet = true
		patch.SecondaryRegionID = req.SecondaryRegionID.Value
	}
	return patch, nil
}

// UpdateStatus moves the lead forward through its lifecycle. Any actor who can
// see the lead may change its status. The write only lands if the status is
// still the one the transition was validated against.
func (s *Service) UpdateStatus(ctx context.Context, actor domain.Actor, id uuid.UUID, req transport.UpdateStatusRequest) (transport.LeadResponse, error) {
	next, ok := domain.ParseStatus(req.Status)
	if !ok {
		return transport.LeadResponse{}, apperr.Validation("invalid status: " + req.Status)
	}

	lead, err := s.loadVisible(ctx, actor, id)
	if err != nil {
		return transport.LeadResponse{}, err
	}

	previous := lead.Status
	if previous == next {
		return ToLeadResponse(lead), nil
	}
	if err := domain.ValidateTransition(previous, next); err != nil {
		return transport.LeadResponse{}, err
	}

	applied, err := s.repo.UpdateStatus(ctx, id, previous, next)
	if err != nil {
		return transport.LeadResponse{}, err
	}
	current, err := s.load(ctx, id)
	if err != nil {
		return transport.LeadResponse{}, err
	}
	if !applied {
		if current.Status == next {
			return ToLeadResponse(current), nil
		}
		return transport.LeadResponse{}, apperr.Conflict(fmt.Sprintf("lead status changed to %q concurrently", current.Status))
	}

	s.eventBus.Publish(ctx, events.LeadStatusChanged{
		BaseEvent:     events.NewBaseEvent(),
		LeadID:        current.ID,
		CustomerName:  current.CustomerName,
		OldStatus:     string(previous),
		NewStatus:     string(next),
		CreatorBroker: current.CreatedBy,
		LedgerBrokers: current.LedgerBrokerIDs(),
		ActorUserID:   actor.UserID,
	})

	return ToLeadResponse(current), nil
}

// UpdateVerification sets the verification flag. Admin only.
func (s *Service) UpdateVerification(ctx context.Context, actor domain.Actor, id uuid.UUID, req transport.UpdateVerificationRequest) (transport.LeadResponse, error) {
	if !actor.IsAdmin() {
		return transport.LeadResponse{}, apperr.Forbidden("only admins can change verification status")
	}
	status, ok := domain.ParseVerificationStatus(req.VerificationStatus)
	if !ok {
		return transport.LeadResponse{}, apperr.Validation("invalid verificationStatus: " + req.VerificationStatus)
	}

	if err := s.repo.SetVerification(ctx, id, status); err != nil {
		return transport.LeadResponse{}, mapNotFound(err)
	}
	return s.reload(ctx, id)
}

// Delete removes the lead after draining notifications that reference it.
func (s *Service) Delete(ctx context.Context, actor domain.Actor, id uuid.UUID) error {
	lead, err := s.load(ctx, id)
	if err != nil {
		return err
	}
	if err := authorizeOwner(actor, lead); err != nil {
		return err
	}

	if _, err := s.drainer.DeleteByResource(ctx, ResourceTypeLead, id); err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return mapNotFound(err)
	}

	s.eventBus.Publish(ctx, events.LeadDeleted{
		BaseEvent:     events.NewBaseEvent(),
		LeadID:        lead.ID,
		CustomerName:  lead.CustomerName,
		CreatorBroker: lead.CreatedBy,
		ActorUserID:   actor.UserID,
	})
	return nil
}

// Transfer appends ledger entries on behalf of the acting broker. Admins
// without a broker profile must name the source broker.
func (s *Service) Transfer(ctx context.Context, actor domain.Actor, id uuid.UUID, req transport.TransferRequest) (transport.TransferResultResponse, error) {
	specs, err := req.Specs()
	if err != nil {
		return transport.TransferResultResponse{}, err
	}

	from, err := resolveSource(actor, req.FromBroker)
	if err != nil {
		return transport.TransferResultResponse{}, err
	}
	if !actor.IsAdmin() {
		if _, err := s.loadVisible(ctx, actor, id); err != nil {
			return transport.TransferResultResponse{}, err
		}
	}

	result, err := s.ledger.AppendTransfers(ctx, id, from, specs, sanitize.TextPtr(req.Notes))
	if err != nil {
		return transport.TransferResultResponse{}, err
	}

	if len(result.Applied) > 0 {
		s.eventBus.Publish(ctx, events.LeadTransferred{
			BaseEvent:    events.NewBaseEvent(),
			LeadID:       result.Lead.ID,
			CustomerName: result.Lead.CustomerName,
			FromBroker:   from,
			ActorUserID:  actor.UserID,
			Grants:       toGrants(result.Applied),
		})
	}

	return transport.TransferResultResponse{
		Lead:    ToLeadResponse(result.Lead),
		Applied: toTransferResponses(result.Applied),
	}, nil
}

// RemoveTransfer deletes an individual grant. Only admins and the granting
// broker may revoke it.
func (s *Service) RemoveTransfer(ctx context.Context, actor domain.Actor, id, fromBroker, toBroker uuid.UUID) (transport.LeadResponse, error) {
	if !actor.IsAdmin() && !actor.IsBrokerID(fromBroker) {
		return transport.LeadResponse{}, apperr.Forbidden("only the granting broker can remove a transfer")
	}
	lead, err := s.ledger.RemoveTransfer(ctx, id, fromBroker, toBroker)
	if err != nil {
		return transport.LeadResponse{}, err
	}
	return ToLeadResponse(lead), nil
}

func (s *Service) reload(ctx context.Context, id uuid.UUID) (transport.LeadResponse, error) {
	lead, err := s.load(ctx, id)
	if err != nil {
		return transport.LeadResponse{}, err
	}
	return ToLeadResponse(lead), nil
}

func (s *Service) load(ctx context.Context, id uuid.UUID) (*domain.Lead, error) {
	lead, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, mapNotFound(err)
	}
	return lead, nil
}

func (s *Service) loadVisible(ctx context.Context, actor domain.Actor, id uuid.UUID) (*domain.Lead, error) {
	visible, err := s.visibility.ComputeVisibilityPredicate(ctx, actor)
	if err != nil {
		return nil, err
	}
	lead, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if !visible.Match(lead) {
		return nil, apperr.NotFound("lead not found")
	}
	return lead, nil
}

func (s *Service) checkRegions(ctx context.Context, primary uuid.UUID, secondary *uuid.UUID) error {
	if err := s.directory.RequireRegion(ctx, "primaryRegionId", primary); err != nil {
		return err
	}
	if secondary == nil {
		return nil
	}
	if *secondary == primary {
		return apperr.Validation("secondaryRegionId must differ from primaryRegionId")
	}
	return s.directory.RequireRegion(ctx, "secondaryRegionId", *secondary)
}

func (s *Service) checkContactConflicts(ctx context.Context, email, phoneNumber string, excludeID *uuid.UUID) error {
	fields, err := s.repo.FindContactConflicts(ctx, email, phoneNumber, excludeID)
	if err != nil {
		return err
	}
	if len(fields) > 0 {
		return apperr.ConflictFields("a lead with the same "+strings.Join(fields, " and ")+" already exists", fields...)
	}
	return nil
}

func (s *Service) resolveCreator(ctx context.Context, actor domain.Actor, raw string) (*uuid.UUID, error) {
	requested, err := domain.ParseOptionalID("createdBy", raw)
	if err != nil {
		return nil, err
	}

	if !actor.IsAdmin() {
		if requested != nil && !actor.IsBrokerID(*requested) {
			return nil, apperr.Forbidden("brokers can only create leads they own")
		}
		own := *actor.BrokerID
		return &own, nil
	}

	if requested == nil {
		return nil, nil
	}
	if err := s.directory.RequireBroker(ctx, "createdBy", *requested); err != nil {
		return nil, err
	}
	return requested, nil
}

// resolveSource picks the broker a transfer is made from.
func resolveSource(actor domain.Actor, raw string) (uuid.UUID, error) {
	requested, err := domain.ParseOptionalID("fromBroker", raw)
	if err != nil {
		return uuid.Nil, err
	}

	switch {
	case requested != nil && (actor.IsAdmin() || actor.IsBrokerID(*requested)):
		return *requested, nil
	case requested != nil:
		return uuid.Nil, apperr.Forbidden("brokers can only transfer as themselves")
	case actor.IsBroker():
		return *actor.BrokerID, nil
	case actor.IsAdmin():
		return uuid.Nil, apperr.Validation("fromBroker is required")
	default:
		return uuid.Nil, apperr.Forbidden("only brokers and admins can transfer leads")
	}
}

func authorizeOwner(actor domain.Actor, lead *domain.Lead) error {
	if actor.IsAdmin() {
		return nil
	}
	if actor.BrokerID != nil && lead.IsCreatedBy(*actor.BrokerID) {
		return nil
	}
	return apperr.Forbidden("only the owning broker or an admin can modify this lead")
}

func mapNotFound(err error) error {
	if errors.Is(err, repository.ErrNotFound) {
		return apperr.NotFound("lead not found")
	}
	return err
}

func searchParams(q transport.ListLeadsQuery) visibility.SearchParams {
	return visibility.SearchParams{
		Search:             q.Search,
		Status:             q.Status,
		PropertyType:       q.PropertyType,
		Region:             q.Region,
		RegionID:           q.RegionID,
		PrimaryRegionID:    q.PrimaryRegionID,
		SecondaryRegionID:  q.SecondaryRegionID,
		RegionCity:         q.RegionCity,
		Requirement:        q.Requirement,
		BudgetMin:          q.BudgetMin,
		BudgetMax:          q.BudgetMax,
		CreatedBy:          q.CreatedBy,
		CustomerEmail:      q.CustomerEmail,
		CustomerPhone:      q.CustomerPhone,
		DateRange:          q.DateRange,
		FromDate:           q.FromDate,
		ToDate:             q.ToDate,
		VerificationStatus: q.VerificationStatus,
	}
}
