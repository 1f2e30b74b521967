package store_test

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/shelfwise/shelfwise-server/internal/store"
)

func TestError_MatchesByCode(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		target error
		want   bool
	}{
		{"same sentinel", store.ErrNotFound, store.ErrNotFound, true},
		{"custom message", store.ErrNotFound.WithMessage("shelf not found"), store.ErrNotFound, true},
		{"wrapped", fmt.Errorf("get shelf: %w", store.ErrAlreadyExists), store.ErrAlreadyExists, true},
		{"different code", store.ErrAlreadyExists, store.ErrNotFound, false},
		{"plain error", errors.New("boom"), store.ErrNotFound, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, errors.Is(tt.err, tt.target))
		})
	}
}

func TestError_WithCause(t *testing.T) {
	cause := errors.New("constraint failed")
	err := store.ErrAlreadyExists.WithCause(cause)

	assert.Equal(t, http.StatusConflict, err.HTTPCode())
	assert.Contains(t, err.Error(), "resource already exists")
	assert.Contains(t, err.Error(), "constraint failed")
	assert.ErrorIs(t, err, cause)
	assert.Nil(t, store.ErrAlreadyExists.Err, "sentinel must not be mutated")
}
