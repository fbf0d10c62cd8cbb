package domain

import (
	"fmt"
	"strings"

	"brokerage_backend/platform/apperr"

	"github.com/google/uuid"
)

// ParseID parses a required identifier, naming field in the validation error.
func ParseID(field, raw string) (uuid.UUID, error) {
	id, err := uuid.Parse(strings.TrimSpace(raw))
	if err != nil || id == uuid.Nil {
		return uuid.Nil, apperr.Validation(fmt.Sprintf("invalid %s: must be a UUID", field))
	}
	return id, nil
}

// ParseOptionalID parses raw when it is not blank.
func ParseOptionalID(field, raw string) (*uuid.UUID, error) {
	if strings.TrimSpace(raw) == "" {
		return nil, nil
	}
	id, err := ParseID(field, raw)
	if err != nil {
		return nil, err
	}
	return &id, nil
}
