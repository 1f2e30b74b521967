package api

import (
	"context"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// createShelf creates a custom shelf for owner and adds bookIDs in order,
// creating any book that does not exist yet.
func (ts *testServer) createShelf(t *testing.T, owner, name string, bookIDs ...string) ShelfSummary {
	t.Helper()

	resp := ts.api.Post("/api/v1/me/shelves", owner, map[string]any{"name": name})
	require.Equal(t, http.StatusCreated, resp.Code, resp.Body.String())
	shelf := decodeEnvelope[ShelfSummary](t, resp.Body.Bytes()).Data

	for _, id := range bookIDs {
		if _, err := ts.store.GetBook(context.Background(), id); err != nil {
			ts.createBook(t, id)
		}
		resp := ts.api.Post("/api/v1/me/shelves/"+shelf.Slug+"/books", owner, map[string]any{"book_id": id})
		require.Equal(t, http.StatusCreated, resp.Code, resp.Body.String())
	}
	return shelf
}

func TestShelfLifecycle(t *testing.T) {
	ts := setupTestServer(t)
	alice := ts.registerUser(t, "alice", false)

	shelf := ts.createShelf(t, alice, "Beach Reads", "b1", "b2", "b3")
	assert.Equal(t, "beach-reads", shelf.Slug)
	assert.Equal(t, "custom", shelf.CollectionType)

	resp := ts.api.Get("/api/v1/users/alice/shelves/beach-reads")
	require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())
	detail := decodeEnvelope[ShelfDetailResponse](t, resp.Body.Bytes()).Data
	assert.Equal(t, 3, detail.Shelf.ItemCount)
	require.Len(t, detail.Books, 3)
	assert.Equal(t, "b1", detail.Books[0].BookID)
	assert.Equal(t, "b3", detail.Books[2].BookID)
	assert.NotNil(t, detail.Books[0].AddedAt)

	resp = ts.api.Delete("/api/v1/me/shelves/beach-reads/books/b2", alice)
	require.Equal(t, http.StatusNoContent, resp.Code, resp.Body.String())

	resp = ts.api.Get("/api/v1/users/alice/shelves/beach-reads")
	detail = decodeEnvelope[ShelfDetailResponse](t, resp.Body.Bytes()).Data
	require.Len(t, detail.Books, 2)
	assert.Equal(t, "b3", detail.Books[1].BookID)

	resp = ts.api.Delete("/api/v1/me/shelves/beach-reads", alice)
	require.Equal(t, http.StatusNoContent, resp.Code, resp.Body.String())

	resp = ts.api.Get("/api/v1/users/alice/shelves/beach-reads")
	requireErrorCode(t, resp, http.StatusNotFound, "NOT_FOUND")
}

func TestCreateShelf_Conflict(t *testing.T) {
	ts := setupTestServer(t)
	alice := ts.registerUser(t, "alice", false)

	resp := ts.api.Post("/api/v1/me/shelves", alice, map[string]any{"name": "Read"})
	requireErrorCode(t, resp, http.StatusConflict, "CONFLICT")
}

func TestAddShelfBook_Errors(t *testing.T) {
	ts := setupTestServer(t)
	alice := ts.registerUser(t, "alice", false)
	ts.createShelf(t, alice, "Faves", "b1")

	tests := []struct {
		name   string
		slug   string
		body   map[string]any
		status int
		code   string
	}{
		{"unknown book", "faves", map[string]any{"book_id": "missing"}, http.StatusNotFound, "NOT_FOUND"},
		{"unknown shelf", "nope", map[string]any{"book_id": "b1"}, http.StatusNotFound, "NOT_FOUND"},
		{"duplicate", "faves", map[string]any{"book_id": "b1"}, http.StatusConflict, "CONFLICT"},
		{"rating out of range", "faves", map[string]any{"book_id": "b1", "rating": 9}, http.StatusBadRequest, "VALIDATION"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := ts.api.Post("/api/v1/me/shelves/"+tt.slug+"/books", alice, tt.body)
			requireErrorCode(t, resp, tt.status, tt.code)
		})
	}
}

func TestReadingStatusExclusivity(t *testing.T) {
	ts := setupTestServer(t)
	alice := ts.registerUser(t, "alice", false)
	ts.createBook(t, "b1")

	resp := ts.api.Post("/api/v1/me/shelves/want-to-read/books", alice, map[string]any{"book_id": "b1"})
	require.Equal(t, http.StatusCreated, resp.Code, resp.Body.String())

	resp = ts.api.Post("/api/v1/me/shelves/read/books", alice, map[string]any{"book_id": "b1", "rating": 4})
	require.Equal(t, http.StatusCreated, resp.Code, resp.Body.String())

	resp = ts.api.Get("/api/v1/users/alice/shelves/want-to-read")
	assert.Empty(t, decodeEnvelope[ShelfDetailResponse](t, resp.Body.Bytes()).Data.Books)

	resp = ts.api.Get("/api/v1/users/alice/shelves/read")
	books := decodeEnvelope[ShelfDetailResponse](t, resp.Body.Bytes()).Data.Books
	require.Len(t, books, 1)
	require.NotNil(t, books[0].Rating)
	assert.Equal(t, 4, *books[0].Rating)

	resp = ts.api.Delete("/api/v1/me/shelves/read", alice)
	requireErrorCode(t, resp, http.StatusBadRequest, "VALIDATION")
}

func TestShelfVisibility(t *testing.T) {
	ts := setupTestServer(t)
	alice := ts.registerUser(t, "alice", true)
	bob := ts.registerUser(t, "bob", false)
	ts.createShelf(t, alice, "Secret", "b1")

	resp := ts.api.Get("/api/v1/users/alice/shelves", bob)
	require.Equal(t, http.StatusOK, resp.Code)
	assert.Empty(t, decodeEnvelope[ListShelvesResponse](t, resp.Body.Bytes()).Data.Shelves)

	resp = ts.api.Get("/api/v1/users/alice/shelves/secret", bob)
	requireErrorCode(t, resp, http.StatusForbidden, "FORBIDDEN")

	resp = ts.api.Get("/api/v1/users/alice/shelves", alice)
	assert.Len(t, decodeEnvelope[ListShelvesResponse](t, resp.Body.Bytes()).Data.Shelves, 4)
}
