package validation_test

import (
	"testing"

	domainerrors "github.com/shelfwise/shelfwise-server/internal/errors"
	"github.com/shelfwise/shelfwise-server/internal/validation"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type createKeyRequest struct {
	Name  string   `json:"name" validate:"required,max=100"`
	Slug  string   `json:"slug,omitempty" validate:"omitempty,slug"`
	Mode  string   `json:"mode" validate:"required,oneof=select_one select_multiple"`
	Notes []string `json:"notes" validate:"max=2"`
}

func TestValidator_Valid(t *testing.T) {
	v := validation.New()

	err := v.Validate(createKeyRequest{Name: "Genres", Slug: "genres", Mode: "select_multiple"})
	assert.NoError(t, err)
}

func TestValidator_Errors(t *testing.T) {
	v := validation.New()

	tests := []struct {
		name      string
		req       createKeyRequest
		wantField string
		wantMsg   string
	}{
		{"missing name", createKeyRequest{Mode: "select_one"}, "name", "is required"},
		{"bad slug", createKeyRequest{Name: "G", Slug: "Bad Slug", Mode: "select_one"}, "slug", "must be lowercase letters, digits and single hyphens"},
		{"bad mode", createKeyRequest{Name: "G", Mode: "pick_some"}, "mode", "must be one of: select_one select_multiple"},
		{"too many notes", createKeyRequest{Name: "G", Mode: "select_one", Notes: []string{"a", "b", "c"}}, "notes", "must not contain more than 2 items"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := v.Validate(tt.req)
			require.Error(t, err)
			assert.ErrorIs(t, err, domainerrors.ErrValidation)

			var derr *domainerrors.Error
			require.ErrorAs(t, err, &derr)
			details, ok := derr.Details.(map[string]string)
			require.True(t, ok)
			assert.Equal(t, tt.wantMsg, details[tt.wantField])
		})
	}
}
