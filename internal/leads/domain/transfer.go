package domain

import (
	"fmt"
	"strings"
	"time"

	"brokerage_backend/platform/apperr"

	"github.com/google/uuid"
)

// ShareType discriminates the target of a transfer.
type ShareType string

const (
	ShareIndividual ShareType = "individual"
	ShareRegion     ShareType = "region"
	ShareAll        ShareType = "all"
)

// ParseShareType returns the share type for raw, case-insensitively.
func ParseShareType(raw string) (ShareType, bool) {
	switch ShareType(strings.ToLower(strings.TrimSpace(raw))) {
	case ShareIndividual:
		return ShareIndividual, true
	case ShareRegion:
		return ShareRegion, true
	case ShareAll:
		return ShareAll, true
	}
	return "", false
}

// TransferSpec is the normalized request to grant visibility, before the
// source broker is attached.
type TransferSpec struct {
	ShareType ShareType
	ToBroker  *uuid.UUID
	Region    *uuid.UUID
}

// IndividualSpecs expands a flat list of broker ids into individual specs.
func IndividualSpecs(brokerIDs []uuid.UUID) []TransferSpec {
	specs := make([]TransferSpec, 0, len(brokerIDs))
	for _, id := range brokerIDs {
		to := id
		specs = append(specs, TransferSpec{ShareType: ShareIndividual, ToBroker: &to})
	}
	return specs
}

// Validate checks that exactly the companion field required by the share type
// is populated.
func (s TransferSpec) Validate() error {
	switch s.ShareType {
	case ShareIndividual:
		if s.ToBroker == nil || *s.ToBroker == uuid.Nil {
			return apperr.Validation("toBroker is required for individual transfers")
		}
		if s.Region != nil {
			return apperr.Validation("region is not allowed for individual transfers")
		}
	case ShareRegion:
		if s.Region == nil || *s.Region == uuid.Nil {
			return apperr.Validation("region is required for region transfers")
		}
		if s.ToBroker != nil {
			return apperr.Validation("toBroker is not allowed for region transfers")
		}
	case ShareAll:
		if s.ToBroker != nil || s.Region != nil {
			return apperr.Validation("toBroker and region are not allowed for all transfers")
		}
	default:
		return apperr.BadRequest(fmt.Sprintf("invalid shareType %q", s.ShareType))
	}
	return nil
}

// Transfer is one ledger entry. Entries are appended or removed, never edited.
type Transfer struct {
	FromBroker uuid.UUID
	ShareType  ShareType
	ToBroker   *uuid.UUID
	Region     *uuid.UUID
	CreatedAt  time.Time
}

// NewTransfer attaches the source broker to a validated spec.
func NewTransfer(from uuid.UUID, spec TransferSpec) Transfer {
	return Transfer{
		FromBroker: from,
		ShareType:  spec.ShareType,
		ToBroker:   spec.ToBroker,
		Region:     spec.Region,
	}
}

// Key is the dedup identity of the entry within a lead's ledger.
func (t Transfer) Key() string {
	switch t.ShareType {
	case ShareIndividual:
		return fmt.Sprintf("individual:%s:%s", t.FromBroker, uuidOrNil(t.ToBroker))
	case ShareRegion:
		return fmt.Sprintf("region:%s:%s", t.FromBroker, uuidOrNil(t.Region))
	default:
		return fmt.Sprintf("all:%s", t.FromBroker)
	}
}

func uuidOrNil(id *uuid.UUID) uuid.UUID {
	if id == nil {
		return uuid.Nil
	}
	return *id
}
