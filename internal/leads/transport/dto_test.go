package transport

import (
	"encoding/json"
	"testing"

	"brokerage_backend/internal/leads/domain"
	"brokerage_backend/platform/apperr"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTransferRequestSpecsLegacyAndTagged(t *testing.T) {
	b := uuid.New()
	c := uuid.New()
	region := uuid.New()

	req := TransferRequest{
		ToBrokers: []string{b.String()},
		Transfers: []TransferItem{
			{ShareType: "individual", ToBroker: c.String()},
			{ShareType: "Region", Region: region.String()},
			{ShareType: "all"},
		},
	}

	specs, err := req.Specs()
	require.NoError(t, err)
	require.Len(t, specs, 4)

	assert.Equal(t, domain.ShareIndividual, specs[0].ShareType)
	assert.Equal(t, b, *specs[0].ToBroker)
	assert.Equal(t, c, *specs[1].ToBroker)
	assert.Equal(t, domain.ShareRegion, specs[2].ShareType)
	assert.Equal(t, region, *specs[2].Region)
	assert.Equal(t, domain.ShareAll, specs[3].ShareType)
	assert.Nil(t, specs[3].ToBroker)
	assert.Nil(t, specs[3].Region)
}

func TestTransferRequestSpecsErrors(t *testing.T) {
	_, err := TransferRequest{}.Specs()
	assert.True(t, apperr.Is(err, apperr.KindValidation))

	_, err = TransferRequest{ToBrokers: []string{"not-an-id"}}.Specs()
	require.Error(t, err)
	assert.True(t, apperr.Is(err, apperr.KindValidation))
	assert.Contains(t, err.Error(), "toBrokers[0]")

	_, err = TransferRequest{Transfers: []TransferItem{{ShareType: "team"}}}.Specs()
	assert.True(t, apperr.Is(err, apperr.KindBadRequest))

	_, err = TransferRequest{Transfers: []TransferItem{{ShareType: "region", Region: "xyz"}}}.Specs()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "transfers[0].region")
}

func TestOptionalUUID(t *testing.T) {
	id := uuid.New()

	var req UpdateLeadRequest
	require.NoError(t, json.Unmarshal([]byte(`{"secondaryRegionId":"`+id.String()+`"}`), &req))
	assert.True(t, req.SecondaryRegionID.Set)
	assert.Equal(t, id, *req.SecondaryRegionID.Value)

	req = UpdateLeadRequest{}
	require.NoError(t, json.Unmarshal([]byte(`{"secondaryRegionId":null}`), &req))
	assert.True(t, req.SecondaryRegionID.Set)
	assert.Nil(t, req.SecondaryRegionID.Value)

	req = UpdateLeadRequest{}
	require.NoError(t, json.Unmarshal([]byte(`{}`), &req))
	assert.False(t, req.SecondaryRegionID.Set)

	assert.Error(t, json.Unmarshal([]byte(`{"secondaryRegionId":"nope"}`), &req))
}
