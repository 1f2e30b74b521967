package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shelfwise/shelfwise-server/internal/domain"
	domainerrors "github.com/shelfwise/shelfwise-server/internal/errors"
)

func TestShelfService_CreateShelf(t *testing.T) {
	env := setupTestServices(t)
	ctx := context.Background()
	alice := env.register(t, "alice", false)

	sh, err := env.shelves.CreateShelf(ctx, alice.ID, CreateShelfRequest{Name: "Summer 2026"})
	require.NoError(t, err)
	assert.Equal(t, "summer-2026", sh.Slug)
	assert.Equal(t, domain.CollectionCustom, sh.CollectionType)

	_, err = env.shelves.CreateShelf(ctx, alice.ID, CreateShelfRequest{Name: "Summer 2026"})
	assert.Equal(t, domainerrors.CodeConflict, domainerrors.CodeOf(err))

	_, err = env.shelves.CreateShelf(ctx, alice.ID, CreateShelfRequest{Name: "Read"})
	assert.Equal(t, domainerrors.CodeConflict, domainerrors.CodeOf(err), "collides with a status shelf")

	_, err = env.shelves.CreateShelf(ctx, alice.ID, CreateShelfRequest{Name: "Sneaky", ExclusiveGroup: domain.ReadingStatusGroup})
	assert.Equal(t, domainerrors.CodeValidation, domainerrors.CodeOf(err))

	_, err = env.shelves.CreateShelf(ctx, alice.ID, CreateShelfRequest{})
	assert.Equal(t, domainerrors.CodeValidation, domainerrors.CodeOf(err))
}

func TestShelfService_ReadingStatusIsExclusive(t *testing.T) {
	env := setupTestServices(t)
	ctx := context.Background()
	alice := env.register(t, "alice", false)
	env.book(t, "book1")

	_, err := env.shelves.AddBook(ctx, alice.ID, "want-to-read", AddBookRequest{BookID: "book1"})
	require.NoError(t, err)
	_, err = env.shelves.AddBook(ctx, alice.ID, "currently-reading", AddBookRequest{BookID: "book1"})
	require.NoError(t, err)

	rating := 5
	_, err = env.shelves.AddBook(ctx, alice.ID, "read", AddBookRequest{BookID: "book1", Rating: &rating})
	require.NoError(t, err)

	counts := map[string]int{}
	shelves, err := env.shelves.ListShelves(ctx, alice.ID, "alice")
	require.NoError(t, err)
	for _, sh := range shelves {
		counts[sh.Slug] = sh.ItemCount
	}
	assert.Equal(t, map[string]int{"want-to-read": 0, "currently-reading": 0, "read": 1}, counts)

	_, items, err := env.shelves.GetShelf(ctx, alice.ID, "alice", "read")
	require.NoError(t, err)
	require.Len(t, items, 1)
	require.NotNil(t, items[0].Rating)
	assert.Equal(t, 5, *items[0].Rating)
}

func TestShelfService_CustomGroupsDoNotTouchStatus(t *testing.T) {
	env := setupTestServices(t)
	ctx := context.Background()
	alice := env.register(t, "alice", false)
	env.book(t, "book1")

	_, err := env.shelves.CreateShelf(ctx, alice.ID, CreateShelfRequest{Name: "Owned", ExclusiveGroup: "format"})
	require.NoError(t, err)
	_, err = env.shelves.CreateShelf(ctx, alice.ID, CreateShelfRequest{Name: "Borrowed", ExclusiveGroup: "format"})
	require.NoError(t, err)

	_, err = env.shelves.AddBook(ctx, alice.ID, "read", AddBookRequest{BookID: "book1"})
	require.NoError(t, err)
	_, err = env.shelves.AddBook(ctx, alice.ID, "owned", AddBookRequest{BookID: "book1"})
	require.NoError(t, err)
	_, err = env.shelves.AddBook(ctx, alice.ID, "borrowed", AddBookRequest{BookID: "book1"})
	require.NoError(t, err)

	for slug, want := range map[string]int{"read": 1, "owned": 0, "borrowed": 1} {
		_, items, err := env.shelves.GetShelf(ctx, alice.ID, "alice", slug)
		require.NoError(t, err)
		assert.Len(t, items, want, slug)
	}
}

func TestShelfService_AddBookErrors(t *testing.T) {
	env := setupTestServices(t)
	ctx := context.Background()
	alice := env.register(t, "alice", false)
	env.shelf(t, alice, "mine", "book1")

	_, err := env.shelves.AddBook(ctx, alice.ID, "mine", AddBookRequest{BookID: "book1"})
	assert.Equal(t, domainerrors.CodeConflict, domainerrors.CodeOf(err))

	_, err = env.shelves.AddBook(ctx, alice.ID, "mine", AddBookRequest{BookID: "missing"})
	assert.Equal(t, domainerrors.CodeNotFound, domainerrors.CodeOf(err))

	_, err = env.shelves.AddBook(ctx, alice.ID, "nope", AddBookRequest{BookID: "book1"})
	assert.Equal(t, domainerrors.CodeNotFound, domainerrors.CodeOf(err))

	bad := 9
	_, err = env.shelves.AddBook(ctx, alice.ID, "mine", AddBookRequest{BookID: "book1", Rating: &bad})
	assert.Equal(t, domainerrors.CodeValidation, domainerrors.CodeOf(err))

	err = env.shelves.RemoveBook(ctx, alice.ID, "mine", "missing")
	assert.Equal(t, domainerrors.CodeNotFound, domainerrors.CodeOf(err))
}

func TestShelfService_DeleteShelf(t *testing.T) {
	env := setupTestServices(t)
	ctx := context.Background()
	alice := env.register(t, "alice", false)
	env.shelf(t, alice, "mine", "book1")

	err := env.shelves.DeleteShelf(ctx, alice.ID, "read")
	assert.Equal(t, domainerrors.CodeValidation, domainerrors.CodeOf(err))

	require.NoError(t, env.shelves.DeleteShelf(ctx, alice.ID, "mine"))
	err = env.shelves.DeleteShelf(ctx, alice.ID, "mine")
	assert.Equal(t, domainerrors.CodeNotFound, domainerrors.CodeOf(err))

	_, err = env.store.GetBook(ctx, "book1")
	assert.NoError(t, err, "deleting a shelf keeps its books in the catalogue")
}

func TestShelfService_Visibility(t *testing.T) {
	env := setupTestServices(t)
	ctx := context.Background()
	alice := env.register(t, "alice", true)
	bob := env.register(t, "bob", false)
	env.shelf(t, alice, "secret", "book1")

	shelves, err := env.shelves.ListShelves(ctx, bob.ID, "alice")
	require.NoError(t, err)
	assert.Empty(t, shelves)

	_, _, err = env.shelves.GetShelf(ctx, bob.ID, "alice", "secret")
	assert.Equal(t, domainerrors.CodeForbidden, domainerrors.CodeOf(err))

	_, err = env.shelves.ListShelves(ctx, bob.ID, "nobody")
	assert.Equal(t, domainerrors.CodeNotFound, domainerrors.CodeOf(err))

	shelves, err = env.shelves.ListShelves(ctx, alice.ID, "alice")
	require.NoError(t, err)
	assert.Len(t, shelves, 4)
	assert.Equal(t, "want-to-read", shelves[0].Slug)
}
