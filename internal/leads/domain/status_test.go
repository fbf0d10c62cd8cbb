package domain

import (
	"testing"

	"brokerage_backend/platform/apperr"

	"github.com/stretchr/testify/assert"
)

func TestValidateTransition(t *testing.T) {
	cases := []struct {
		from, to Status
		ok       bool
	}{
		{StatusNew, StatusAssigned, true},
		{StatusNew, StatusInProgress, true},
		{StatusAssigned, StatusClosed, true},
		{StatusInProgress, StatusRejected, true},
		{StatusAssigned, StatusAssigned, true},
		{StatusInProgress, StatusNew, false},
		{StatusClosed, StatusRejected, false},
		{StatusRejected, StatusInProgress, false},
		{StatusClosed, StatusClosed, true},
		{StatusNew, Status("Archived"), false},
	}

	for _, tc := range cases {
		err := ValidateTransition(tc.from, tc.to)
		if tc.ok {
			assert.NoError(t, err, "%s -> %s", tc.from, tc.to)
			continue
		}
		assert.True(t, apperr.Is(err, apperr.KindValidation), "%s -> %s: %v", tc.from, tc.to, err)
	}
}

func TestParseStatus(t *testing.T) {
	for raw, want := range map[string]Status{
		"new":         StatusNew,
		"In Progress": StatusInProgress,
		"in_progress": StatusInProgress,
		"inprogress":  StatusInProgress,
		"CLOSED":      StatusClosed,
	} {
		got, ok := ParseStatus(raw)
		assert.True(t, ok, raw)
		assert.Equal(t, want, got, raw)
	}

	_, ok := ParseStatus("done")
	assert.False(t, ok)
}

func TestParseVerificationStatus(t *testing.T) {
	got, ok := ParseVerificationStatus("verified")
	assert.True(t, ok)
	assert.Equal(t, VerificationVerified, got)

	_, ok = ParseVerificationStatus("pending")
	assert.False(t, ok)
}
