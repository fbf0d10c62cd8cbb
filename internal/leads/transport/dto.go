package transport

import (
	"fmt"
	"strings"
	"time"

	"brokerage_backend/internal/leads/domain"
	"brokerage_backend/platform/apperr"

	"github.com/google/uuid"
)

// Request DTOs

type CreateLeadRequest struct {
	CustomerName      string  `json:"customerName" validate:"required,notblank,max=200"`
	CustomerEmail     string  `json:"customerEmail" validate:"required,email,max=320"`
	CustomerPhone     string  `json:"customerPhone" validate:"required,min=5,max=32"`
	Requirement       string  `json:"requirement" validate:"max=4000"`
	PropertyType      string  `json:"propertyType" validate:"required,notblank,max=100"`
	Budget            float64 `json:"budget" validate:"gte=0"`
	PrimaryRegionID   string  `json:"primaryRegionId" validate:"required"`
	SecondaryRegionID string  `json:"secondaryRegionId,omitempty"`
	// CreatedBy may only be set by admins; brokers always own what they create.
	CreatedBy string `json:"createdBy,omitempty"`
	Notes     string `json:"notes" validate:"max=4000"`
}

// UpdateLeadRequest is a partial update; nil fields are left unchanged.
type UpdateLeadRequest struct {
	CustomerName      *string      `json:"customerName,omitempty" validate:"omitempty,notblank,max=200"`
	CustomerEmail     *string      `json:"customerEmail,omitempty" validate:"omitempty,email,max=320"`
	CustomerPhone     *string      `json:"customerPhone,omitempty" validate:"omitempty,min=5,max=32"`
	Requirement       *string      `json:"requirement,omitempty" validate:"omitempty,max=4000"`
	PropertyType      *string      `json:"propertyType,omitempty" validate:"omitempty,notblank,max=100"`
	Budget            *float64     `json:"budget,omitempty" validate:"omitempty,gte=0"`
	PrimaryRegionID   *string      `json:"primaryRegionId,omitempty"`
	SecondaryRegionID OptionalUUID `json:"secondaryRegionId,omitempty"`
	Notes             *string      `json:"notes,omitempty" validate:"omitempty,max=4000"`
}

type UpdateStatusRequest struct {
	Status string `json:"status" validate:"required"`
}

type UpdateVerificationRequest struct {
	VerificationStatus string `json:"verificationStatus" validate:"required"`
}

// TransferItem is one entry of the tagged transfer form.
type TransferItem struct {
	ShareType string `json:"shareType" validate:"required"`
	ToBroker  string `json:"toBroker,omitempty"`
	Region    string `json:"region,omitempty"`
}

// TransferRequest accepts the legacy toBrokers list, the tagged transfers
// list, or both.
type TransferRequest struct {
	ToBrokers  []string       `json:"toBrokers,omitempty"`
	Transfers  []TransferItem `json:"transfers,omitempty" validate:"omitempty,dive"`
	FromBroker string         `json:"fromBroker,omitempty"`
	Notes      *string        `json:"notes,omitempty" validate:"omitempty,max=4000"`
}

// Specs normalizes both payload shapes into tagged specs. Legacy ids come
// first, in request order.
func (r TransferRequest) Specs() ([]domain.TransferSpec, error) {
	if len(r.ToBrokers) == 0 && len(r.Transfers) == 0 {
		return nil, apperr.Validation("toBrokers or transfers is required")
	}

	ids := make([]uuid.UUID, 0, len(r.ToBrokers))
	for i, raw := range r.ToBrokers {
		id, err := domain.ParseID(fmt.Sprintf("toBrokers[%d]", i), raw)
		if err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	specs := domain.IndividualSpecs(ids)

	for i, item := range r.Transfers {
		shareType, ok := domain.ParseShareType(item.ShareType)
		if !ok {
			return nil, apperr.BadRequest(fmt.Sprintf("invalid transfers[%d].shareType %q", i, item.ShareType))
		}
		toBroker, err := domain.ParseOptionalID(fmt.Sprintf("transfers[%d].toBroker", i), item.ToBroker)
		if err != nil {
			return nil, err
		}
		region, err := domain.ParseOptionalID(fmt.Sprintf("transfers[%d].region", i), item.Region)
		if err != nil {
			return nil, err
		}
		specs = append(specs, domain.TransferSpec{ShareType: shareType, ToBroker: toBroker, Region: region})
	}
	return specs, nil
}

// ListLeadsQuery binds listing query parameters.
type ListLeadsQuery struct {
	Page               string `form:"page"`
	Limit              string `form:"limit"`
	SortBy             string `form:"sortBy"`
	SortOrder          string `form:"sortOrder"`
	Search             string `form:"search"`
	Status             string `form:"status"`
	PropertyType       string `form:"propertyType"`
	Region             string `form:"region"`
	RegionID           string `form:"regionId"`
	PrimaryRegionID    string `form:"primaryRegionId"`
	SecondaryRegionID  string `form:"secondaryRegionId"`
	RegionCity         string `form:"regionCity"`
	Requirement        string `form:"requirement"`
	BudgetMin          string `form:"budgetMin"`
	BudgetMax          string `form:"budgetMax"`
	CreatedBy          string `form:"createdBy"`
	CustomerEmail      string `form:"customerEmail"`
	CustomerPhone      string `form:"customerPhone"`
	DateRange          string `form:"dateRange"`
	FromDate           string `form:"fromDate"`
	ToDate             string `form:"toDate"`
	VerificationStatus string `form:"verificationStatus"`
}

// TransferredLeadsQuery adds ledger filters to a listing.
type TransferredLeadsQuery struct {
	ListLeadsQuery
	ToBroker   string `form:"toBroker"`
	FromBroker string `form:"fromBroker"`
	BrokerID   string `form:"brokerId"`
}

// Response DTOs

type TransferResponse struct {
	FromBroker uuid.UUID  `json:"fromBroker"`
	ShareType  string     `json:"shareType"`
	ToBroker   *uuid.UUID `json:"toBroker,omitempty"`
	Region     *uuid.UUID `json:"region,omitempty"`
	CreatedAt  time.Time  `json:"createdAt"`
}

type LeadResponse struct {
	ID                 uuid.UUID          `json:"id"`
	CustomerName       string             `json:"customerName"`
	CustomerEmail      string             `json:"customerEmail"`
	CustomerPhone      string             `json:"customerPhone"`
	Requirement        string             `json:"requirement"`
	PropertyType       string             `json:"propertyType"`
	Budget             float64            `json:"budget"`
	PrimaryRegionID    uuid.UUID          `json:"primaryRegionId"`
	SecondaryRegionID  *uuid.UUID         `json:"secondaryRegionId,omitempty"`
	Status             string             `json:"status"`
	VerificationStatus string             `json:"verificationStatus"`
	CreatedBy          *uuid.UUID         `json:"createdBy,omitempty"`
	Transfers          []TransferResponse `json:"transfers"`
	Notes              string             `json:"notes"`
	CreatedAt          time.Time          `json:"createdAt"`
	UpdatedAt          time.Time          `json:"updatedAt"`
}

type LeadListResponse struct {
	Items      []LeadResponse `json:"items"`
	Total      int            `json:"total"`
	Page       int            `json:"page"`
	Limit      int            `json:"limit"`
	TotalPages int            `json:"totalPages"`
}

// TransferResultResponse is returned by the transfer endpoint.
type TransferResultResponse struct {
	Lead    LeadResponse       `json:"lead"`
	Applied []TransferResponse `json:"applied"`
}

// NormalizeEmail lower-cases and trims an address for storage and lookup.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
