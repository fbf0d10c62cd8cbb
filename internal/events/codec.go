package events

import (
	"encoding/json"
	"fmt"
)

// Decode rebuilds a lead event from its name and JSON body, as carried in
// queued task payloads.
func Decode(name string, data []byte) (Event, error) {
	var (
		event Event
		err   error
	)
	switch name {
	case LeadCreatedName:
		var e LeadCreated
		err = json.Unmarshal(data, &e)
		event = e
	case LeadTransferredName:
		var e LeadTransferred
		err = json.Unmarshal(data, &e)
		event = e
	case LeadStatusChangedName:
		var e LeadStatusChanged
		err = json.Unmarshal(data, &e)
		event = e
	case LeadDeletedName:
		var e LeadDeleted
		err = json.Unmarshal(data, &e)
		event = e
	default:
		return nil, fmt.Errorf("unknown event %q", name)
	}
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", name, err)
	}
	return event, nil
}
