package validation

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gravadigital/eventmaster-api/internal/domain/common"
)

type sample struct {
	Name       string `json:"name" validate:"notblank,max=10"`
	NationalID string `json:"national_id" validate:"omitempty,national_id"`
	Email      string `json:"email" validate:"omitempty,email"`
	Role       string `json:"role" validate:"omitempty,oneof=ADMIN STAFF"`
}

func TestStruct(t *testing.T) {
	tests := []struct {
		name      string
		in        sample
		wantField string
	}{
		{"valid", sample{Name: "Ana", NationalID: "123.456", Email: "a@b.co", Role: "ADMIN"}, ""},
		{"blank name", sample{Name: "   "}, "name"},
		{"long name", sample{Name: "abcdefghijk"}, "name"},
		{"punctuation only id", sample{Name: "Ana", NationalID: "..-"}, "national_id"},
		{"bad email", sample{Name: "Ana", Email: "nope"}, "email"},
		{"bad role", sample{Name: "Ana", Role: "OWNER"}, "role"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Struct(tt.in)
			if tt.wantField == "" {
				assert.NoError(t, err)
				return
			}
			require.ErrorIs(t, err, common.ErrValidation)
			var verr *common.ValidationError
			require.True(t, errors.As(err, &verr))
			assert.Equal(t, tt.wantField, verr.Field)
		})
	}
}

func TestParseUUID(t *testing.T) {
	_, err := ParseUUID("not-a-uuid", "event_id")
	assert.ErrorIs(t, err, common.ErrValidation)

	id, err := ParseUUID(" 1b4e28ba-2fa1-11d2-883f-0016d3cca427 ", "event_id")
	require.NoError(t, err)
	assert.Equal(t, "1b4e28ba-2fa1-11d2-883f-0016d3cca427", id.String())
}
