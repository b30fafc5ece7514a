package handler

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/osse101/DCM_Go/internal/domain"
)

func TestFieldPath(t *testing.T) {
	tests := map[string]string{
		"ComputeRequest.winning_side":                          "winning_side",
		"ComputeRequest.participants[0].side":                  "participants[0].side",
		"ScenarioRequest.ComputeRequest.participants[2].name":  "participants[2].name",
		"ScenarioRequest.name":                                 "name",
		"BatchComputeRequest.markets[1].participants[0].side":  "markets[1].participants[0].side",
		"":                                                     "",
	}
	for namespace, want := range tests {
		assert.Equal(t, want, fieldPath(namespace), namespace)
	}
}

func TestValidateStruct_Side(t *testing.T) {
	v := GetValidator()

	valid := domain.ComputeRequest{
		WinningSide:  domain.SideNo,
		Participants: []domain.Participant{{Stake: 1, Side: domain.SideYes}},
	}
	assert.NoError(t, v.ValidateStruct(&valid))

	invalid := valid
	invalid.WinningSide = "yes"
	err := v.ValidateStruct(&invalid)
	require.Error(t, err)
	assert.Equal(t, map[string]string{"winning_side": FieldMsgSide}, FormatValidationError(err))
}

func TestFormatValidationError_Messages(t *testing.T) {
	v := GetValidator()

	req := domain.ScenarioRequest{
		Name: strings.Repeat("x", 101),
		ComputeRequest: domain.ComputeRequest{
			Participants: []domain.Participant{{Name: strings.Repeat("y", 101), Side: domain.SideNo}},
		},
	}
	fields := FormatValidationError(v.ValidateStruct(&req))

	assert.Equal(t, "Must be at most 100 characters", fields["name"])
	assert.Equal(t, "Must be at most 100 characters", fields["participants[0].name"])
	assert.Equal(t, FieldMsgRequired, fields["winning_side"])
}

func TestFormatValidationError_ListBounds(t *testing.T) {
	fields := FormatValidationError(GetValidator().ValidateStruct(&domain.BatchComputeRequest{
		Markets: []domain.ComputeRequest{},
	}))
	assert.Equal(t, "Must contain at least 1 items", fields["markets"])
}

func TestFormatValidationError_NonValidatorError(t *testing.T) {
	assert.Nil(t, FormatValidationError(nil))
	assert.Equal(t, map[string]string{FieldKeyFormatError: FieldMsgBadFormat},
		FormatValidationError(errors.New("boom")))
}
