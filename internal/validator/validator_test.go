package validator

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/relaygate/relaygate/internal/domain"
	apperrors "github.com/relaygate/relaygate/internal/pkg/errors"
)

func TestValidateInput_UserInput(t *testing.T) {
	tests := []struct {
		name    string
		input   domain.UserInput
		kind    apperrors.Kind
		message string
	}{
		{"valid", domain.UserInput{Username: "carol", Email: "carol@example.com"}, "", ""},
		{"missing username", domain.UserInput{Email: "carol@example.com"}, apperrors.KindMissingField, "Missing field: username"},
		{"missing email", domain.UserInput{Username: "carol"}, apperrors.KindMissingField, "Missing field: email"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateInput(tt.input)
			if tt.kind == "" {
				require.NoError(t, err)
				return
			}
			assert.Equal(t, tt.kind, apperrors.KindOf(err))
			assert.Equal(t, tt.message, apperrors.Classify(err).Message)
		})
	}
}

func TestValidateInput_TooLong(t *testing.T) {
	long := make([]byte, 65)
	for i := range long {
		long[i] = 'a'
	}

	err := ValidateInput(domain.UserInput{Username: string(long), Email: "a@b.c"})
	assert.Equal(t, apperrors.KindInvalidArgument, apperrors.KindOf(err))
	assert.Equal(t, "username: must be at most 64 characters", apperrors.Classify(err).Message)
}

func TestValidate_ReturnsFieldErrors(t *testing.T) {
	err := Validate(domain.UserInput{})
	require.Error(t, err)
	assert.True(t, IsValidationError(err))

	verrs := err.(ValidationErrors)
	require.Len(t, verrs, 2)
	assert.Equal(t, "username", verrs[0].Field)
	assert.Equal(t, "is required", verrs[0].Message)
}
