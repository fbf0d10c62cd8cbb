package transport

import (
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
)

// OptionalUUID distinguishes an absent field from an explicit null or empty
// string, which clears the value.
type OptionalUUID struct {
	Value *uuid.UUID
	Set   bool
}

func (o OptionalUUID) IsZero() bool {
	return !o.Set
}

func (o *OptionalUUID) UnmarshalJSON(data []byte) error {
	o.Set = true
	o.Value = nil
	if string(data) == "null" {
		return nil
	}

	var raw string
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("expected uuid string: %w", err)
	}
	if raw == "" {
		return nil
	}

	parsed, err := uuid.Parse(raw)
	if err != nil || parsed == uuid.Nil {
		return fmt.Errorf("invalid uuid %q", raw)
	}
	o.Value = &parsed
	return nil
}
