package response

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	domainerrors "github.com/shelfwise/shelfwise-server/internal/errors"
	"github.com/shelfwise/shelfwise-server/internal/store"
)

func decode(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var body map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	return body
}

func TestJSON_Success(t *testing.T) {
	w := httptest.NewRecorder()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	Success(w, map[string]string{"slug": "fiction"}, logger)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "application/json; charset=utf-8", w.Header().Get("Content-Type"))

	body := decode(t, w)
	assert.Equal(t, float64(1), body["v"])
	assert.Equal(t, true, body["success"])
	assert.Equal(t, map[string]any{"slug": "fiction"}, body["data"])
	assert.NotContains(t, body, "error")
}

func TestHandleError(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantCode   string
	}{
		{"domain not found", domainerrors.NotFound("label \"fantasy\" not found"), http.StatusNotFound, "NOT_FOUND"},
		{"wrapped forbidden", fmt.Errorf("compute: %w", domainerrors.Forbidden("no")), http.StatusForbidden, "FORBIDDEN"},
		{"validation", domainerrors.Validation("bad"), http.StatusBadRequest, "VALIDATION"},
		{"conflict", domainerrors.Conflict("taken"), http.StatusConflict, "CONFLICT"},
		{"store not found", store.ErrNotFound, http.StatusNotFound, "NOT_FOUND"},
		{"store exists", store.ErrAlreadyExists, http.StatusConflict, "CONFLICT"},
		{"unknown", errors.New("disk on fire"), http.StatusInternalServerError, "INTERNAL"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			HandleError(w, tt.err, nil)

			assert.Equal(t, tt.wantStatus, w.Code)
			body := decode(t, w)
			assert.Equal(t, false, body["success"])
			assert.NotContains(t, body, "data")

			errBody, ok := body["error"].(map[string]any)
			require.True(t, ok)
			assert.Equal(t, tt.wantCode, errBody["code"])
			assert.NotEmpty(t, errBody["message"])
		})
	}
}

func TestHandleError_HidesInternalMessage(t *testing.T) {
	w := httptest.NewRecorder()
	HandleError(w, errors.New("sqlite: database is locked"), nil)

	assert.NotContains(t, w.Body.String(), "sqlite")
}

func TestHandleError_Details(t *testing.T) {
	w := httptest.NewRecorder()
	err := domainerrors.NotFound("missing").WithDetails(map[string]any{"segment": "fantasy", "index": 1})
	HandleError(w, err, nil)

	errBody := decode(t, w)["error"].(map[string]any)
	assert.Equal(t, map[string]any{"segment": "fantasy", "index": float64(1)}, errBody["details"])
}
