package events

import (
	"encoding/json"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodeRoundTripsTransferred(t *testing.T) {
	to := uuid.New()
	in := LeadTransferred{
		BaseEvent:    NewBaseEvent(),
		LeadID:       uuid.New(),
		CustomerName: "Dana",
		FromBroker:   uuid.New(),
		Grants:       []Grant{{ShareType: "individual", ToBroker: &to}, {ShareType: "all"}},
	}
	data, err := json.Marshal(in)
	require.NoError(t, err)

	out, err := Decode(in.EventName(), data)
	require.NoError(t, err)

	got, ok := out.(LeadTransferred)
	require.True(t, ok)
	assert.Equal(t, in.LeadID, got.LeadID)
	assert.Equal(t, in.Grants, got.Grants)
	assert.True(t, in.Timestamp.Equal(got.Timestamp))
}

func TestDecodeRejectsUnknownAndMalformed(t *testing.T) {
	_, err := Decode("leads.lead.archived", []byte(`{}`))
	assert.Error(t, err)

	_, err = Decode(LeadCreatedName, []byte(`{"leadId":42}`))
	assert.Error(t, err)
}
