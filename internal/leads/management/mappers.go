package management

import (
	"brokerage_backend/internal/events"
	"brokerage_backend/internal/leads/domain"
	"brokerage_backend/internal/leads/filter"
	"brokerage_backend/internal/leads/transport"
)

// ToLeadResponse converts a domain lead to its API representation.
func ToLeadResponse(lead *domain.Lead) transport.LeadResponse {
	return transport.LeadResponse{
		ID:                 lead.ID,
		CustomerName:       lead.CustomerName,
		CustomerEmail:      lead.CustomerEmail,
		CustomerPhone:      lead.CustomerPhone,
		Requirement:        lead.Requirement,
		PropertyType:       lead.PropertyType,
		Budget:             lead.Budget,
		PrimaryRegionID:    lead.PrimaryRegionID,
		SecondaryRegionID:  lead.SecondaryRegionID,
		Status:             string(lead.Status),
		VerificationStatus: string(lead.VerificationStatus),
		CreatedBy:          lead.CreatedBy,
		Transfers:          toTransferResponses(lead.Transfers),
		Notes:              lead.Notes,
		CreatedAt:          lead.CreatedAt,
		UpdatedAt:          lead.UpdatedAt,
	}
}

func toTransferResponses(transfers []domain.Transfer) []transport.TransferResponse {
	out := make([]transport.TransferResponse, 0, len(transfers))
	for _, t := range transfers {
		out = append(out, transport.TransferResponse{
			FromBroker: t.FromBroker,
			ShareType:  string(t.ShareType),
			ToBroker:   t.ToBroker,
			Region:     t.Region,
			CreatedAt:  t.CreatedAt,
		})
	}
	return out
}

func toLeadListResponse(leads []*domain.Lead, total int, page filter.Page) transport.LeadListResponse {
	items := make([]transport.LeadResponse, 0, len(leads))
	for _, lead := range leads {
		items = append(items, ToLeadResponse(lead))
	}
	return transport.LeadListResponse{
		Items:      items,
		Total:      total,
		Page:       page.Page,
		Limit:      page.Limit,
		TotalPages: page.TotalPages(total),
	}
}

func toGrants(applied []domain.Transfer) []events.Grant {
	out := make([]events.Grant, 0, len(applied))
	for _, t := range applied {
		out = append(out, events.Grant{ShareType: string(t.ShareType), ToBroker: t.ToBroker, Region: t.Region})
	}
	return out
}
