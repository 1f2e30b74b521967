package service

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shelfwise/shelfwise-server/internal/domain"
	domainerrors "github.com/shelfwise/shelfwise-server/internal/errors"
	"github.com/shelfwise/shelfwise-server/internal/store"
	"github.com/shelfwise/shelfwise-server/internal/validation"
)

func TestParseLabelPath(t *testing.T) {
	tests := []struct {
		name    string
		escaped string
		want    []string
		wantErr bool
	}{
		{name: "root", escaped: "", want: nil},
		{name: "single", escaped: "fiction", want: []string{"fiction"}},
		{name: "nested", escaped: "fiction/fantasy", want: []string{"fiction", "fantasy"}},
		{name: "encoded space", escaped: "science%20fiction", want: []string{"science fiction"}},
		{name: "empty segment", escaped: "fiction//fantasy", wantErr: true},
		{name: "trailing slash", escaped: "fiction/", wantErr: true},
		{name: "dot", escaped: "fiction/./fantasy", wantErr: true},
		{name: "dot dot", escaped: "fiction/../fantasy", wantErr: true},
		{name: "encoded slash", escaped: "fiction%2Ffantasy", wantErr: true},
		{name: "bad escape", escaped: "fiction%zz", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseLabelPath(tt.escaped)
			if tt.wantErr {
				require.Error(t, err)
				assert.Equal(t, domainerrors.CodeValidation, domainerrors.CodeOf(err))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestDecodeLabelSegments(t *testing.T) {
	got, err := DecodeLabelSegments(nil)
	require.NoError(t, err)
	assert.Nil(t, got)

	got, err = DecodeLabelSegments([]string{"science%20fiction", "space"})
	require.NoError(t, err)
	assert.Equal(t, []string{"science fiction", "space"}, got)

	// A trailing slash splits into one empty segment and is not the key root.
	_, err = DecodeLabelSegments([]string{""})
	assert.Equal(t, domainerrors.CodeValidation, domainerrors.CodeOf(err))
}

// seedGenres builds genres -> fiction -> {sci-fi, mystery} for owner and
// labels book1 fiction, book2 sci-fi.
func seedGenres(t *testing.T, env *testEnv, owner *domain.User) (fiction, scifi *domain.TagValue) {
	t.Helper()
	ctx := context.Background()

	_, err := env.taxonomy.CreateKey(ctx, owner.ID, CreateKeyRequest{Name: "Genres", Mode: domain.ModeSelectMultiple})
	require.NoError(t, err)

	fiction, err = env.taxonomy.CreateValue(ctx, owner.ID, "genres", CreateValueRequest{Name: "Fiction"})
	require.NoError(t, err)
	scifi, err = env.taxonomy.CreateValue(ctx, owner.ID, "genres", CreateValueRequest{Name: "Sci-Fi", ParentValueID: fiction.ID})
	require.NoError(t, err)
	_, err = env.taxonomy.CreateValue(ctx, owner.ID, "genres", CreateValueRequest{Name: "Mystery", ParentValueID: fiction.ID})
	require.NoError(t, err)

	env.book(t, "book1")
	env.book(t, "book2")
	require.NoError(t, env.taxonomy.Assign(ctx, owner.ID, "book1", "genres", fiction.ID))
	require.NoError(t, env.taxonomy.Assign(ctx, owner.ID, "book2", "genres", scifi.ID))
	return fiction, scifi
}

func TestLabelResolver_Resolve(t *testing.T) {
	env := setupTestServices(t)
	ctx := context.Background()

	alice := env.register(t, "alice", false)
	fiction, _ := seedGenres(t, env, alice)

	t.Run("key root", func(t *testing.T) {
		node, err := env.labels.Resolve(ctx, alice.ID, "genres", nil)
		require.NoError(t, err)
		assert.Nil(t, node.Value)
		assert.Nil(t, node.ParentPath)
		assert.Equal(t, []string{"fiction"}, node.Children)
		assert.Empty(t, node.Books)
		assert.Empty(t, node.Breadcrumbs)
	})

	t.Run("one level", func(t *testing.T) {
		node, err := env.labels.Resolve(ctx, alice.ID, "genres", []string{"fiction"})
		require.NoError(t, err)
		require.NotNil(t, node.Value)
		assert.Equal(t, fiction.ID, node.Value.ID)
		assert.Equal(t, []string{"mystery", "sci-fi"}, node.Children, "children are sorted")
		assert.Equal(t, []string{"book1"}, bookIDs(node.Books), "descendant assignments are not included")
		require.NotNil(t, node.ParentPath)
		assert.Equal(t, "", *node.ParentPath)
	})

	t.Run("two levels", func(t *testing.T) {
		node, err := env.labels.Resolve(ctx, alice.ID, "genres", []string{"fiction", "sci-fi"})
		require.NoError(t, err)
		assert.Empty(t, node.Children)
		assert.Equal(t, []string{"book2"}, bookIDs(node.Books))
		assert.Equal(t, []domain.Breadcrumb{
			{Label: "fiction", Path: "fiction"},
			{Label: "sci-fi", Path: "fiction/sci-fi"},
		}, node.Breadcrumbs)
		assert.Equal(t, "fiction", *node.ParentPath)
		assert.Equal(t, "fiction/sci-fi", node.Path())
	})

	t.Run("missing segment", func(t *testing.T) {
		_, err := env.labels.Resolve(ctx, alice.ID, "genres", []string{"fiction", "fantasy"})
		require.Error(t, err)
		assert.Equal(t, domainerrors.CodeNotFound, domainerrors.CodeOf(err))

		var derr *domainerrors.Error
		require.ErrorAs(t, err, &derr)
		assert.Contains(t, derr.Message, "fantasy")
		assert.Equal(t, map[string]any{"segment": "fantasy", "index": 1}, derr.Details)
	})

	t.Run("segment order matters", func(t *testing.T) {
		_, err := env.labels.Resolve(ctx, alice.ID, "genres", []string{"sci-fi"})
		assert.Equal(t, domainerrors.CodeNotFound, domainerrors.CodeOf(err))
	})

	t.Run("missing key", func(t *testing.T) {
		_, err := env.labels.Resolve(ctx, alice.ID, "moods", nil)
		assert.Equal(t, domainerrors.CodeNotFound, domainerrors.CodeOf(err))
	})

	t.Run("invalid segment", func(t *testing.T) {
		_, err := env.labels.Resolve(ctx, alice.ID, "genres", []string{"fiction", ".."})
		assert.Equal(t, domainerrors.CodeValidation, domainerrors.CodeOf(err))
	})
}

func TestLabelResolver_ResolveFor(t *testing.T) {
	env := setupTestServices(t)
	ctx := context.Background()

	alice := env.register(t, "alice", true)
	bob := env.register(t, "bob", false)
	seedGenres(t, env, alice)

	_, err := env.labels.ResolveFor(ctx, bob.ID, "alice", "genres", []string{"fiction"})
	assert.Equal(t, domainerrors.CodeForbidden, domainerrors.CodeOf(err))
	_, err = env.labels.ListKeysFor(ctx, bob.ID, "alice")
	assert.Equal(t, domainerrors.CodeForbidden, domainerrors.CodeOf(err))

	_, err = env.labels.ResolveFor(ctx, bob.ID, "nobody", "genres", nil)
	assert.Equal(t, domainerrors.CodeNotFound, domainerrors.CodeOf(err))

	node, err := env.labels.ResolveFor(ctx, alice.ID, "alice", "genres", []string{"fiction", "sci-fi"})
	require.NoError(t, err)
	assert.Equal(t, "fiction/sci-fi", node.Path())

	keys, err := env.labels.ListKeysFor(ctx, alice.ID, "alice")
	require.NoError(t, err)
	require.Len(t, keys, 1)
	assert.Equal(t, "genres", keys[0].Slug)

	views := env.labels.Recent(alice.ID)
	require.Len(t, views, 1)
	assert.Equal(t, "alice/genres/fiction/sci-fi", views[0].Path)
	assert.Empty(t, env.labels.Recent(bob.ID), "denied views are not recorded")
}

var errOutsideTx = errors.New("read outside transaction")

// txOnlyStore rejects reads made directly on it. InTx hands fn the wrapped
// store's transaction, so reads made through tx still succeed.
type txOnlyStore struct {
	store.Store
}

func (txOnlyStore) GetUserByUsername(context.Context, string) (*domain.User, error) {
	return nil, errOutsideTx
}

func (txOnlyStore) IsBlocked(context.Context, string, string) (bool, error) {
	return false, errOutsideTx
}

func (txOnlyStore) GetFollow(context.Context, string, string) (*domain.Follow, error) {
	return nil, errOutsideTx
}

func (txOnlyStore) GetTagKeyBySlug(context.Context, string, string) (*domain.TagKey, error) {
	return nil, errOutsideTx
}

func (txOnlyStore) ListTagKeys(context.Context, string) ([]*domain.TagKey, error) {
	return nil, errOutsideTx
}

func (txOnlyStore) GetChildValue(context.Context, string, string, string) (*domain.TagValue, error) {
	return nil, errOutsideTx
}

func (txOnlyStore) ListChildSlugs(context.Context, string, string) ([]string, error) {
	return nil, errOutsideTx
}

func (txOnlyStore) ListValueBooks(context.Context, string) ([]domain.BookSummary, error) {
	return nil, errOutsideTx
}

func (txOnlyStore) ListShelves(context.Context, string) ([]*domain.Shelf, error) {
	return nil, errOutsideTx
}

func (txOnlyStore) GetShelfBySlug(context.Context, string, string) (*domain.Shelf, error) {
	return nil, errOutsideTx
}

func (txOnlyStore) ListShelfItems(context.Context, string) ([]domain.BookSummary, error) {
	return nil, errOutsideTx
}

func TestGuardedReadsRunInOneTransaction(t *testing.T) {
	env := setupTestServices(t)
	ctx := context.Background()
	alice := env.register(t, "alice", true)
	bob := env.register(t, "bob", false)
	env.book(t, "book1")
	env.shelf(t, alice, "faves", "book1")

	_, err := env.users.Follow(ctx, bob.ID, "alice")
	require.NoError(t, err)
	_, err = env.users.AcceptFollower(ctx, alice.ID, "bob")
	require.NoError(t, err)

	_, err = env.taxonomy.CreateKey(ctx, alice.ID, CreateKeyRequest{Name: "Genres", Mode: domain.ModeSelectMultiple})
	require.NoError(t, err)
	fiction, err := env.taxonomy.CreateValue(ctx, alice.ID, "genres", CreateValueRequest{Name: "Fiction"})
	require.NoError(t, err)
	_, err = env.taxonomy.CreateValue(ctx, alice.ID, "genres", CreateValueRequest{Name: "Fantasy", ParentValueID: fiction.ID})
	require.NoError(t, err)
	require.NoError(t, env.taxonomy.Assign(ctx, alice.ID, "book1", "genres", fiction.ID))

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	st := txOnlyStore{env.store}
	guard := NewAccessGuard(st, logger)
	labels := NewLabelResolver(st, guard, nil, logger)
	shelves := NewShelfService(st, guard, validation.New(), logger)

	node, err := labels.ResolveFor(ctx, bob.ID, "alice", "genres", []string{"fiction"})
	require.NoError(t, err)
	assert.Equal(t, []string{"fantasy"}, node.Children)
	assert.Equal(t, []string{"book1"}, bookIDs(node.Books))

	_, err = labels.Resolve(ctx, alice.ID, "genres", nil)
	require.NoError(t, err)

	keys, err := labels.ListKeysFor(ctx, bob.ID, "alice")
	require.NoError(t, err)
	assert.Len(t, keys, 1)

	list, err := shelves.ListShelves(ctx, bob.ID, "alice")
	require.NoError(t, err)
	assert.NotEmpty(t, list)

	_, items, err := shelves.GetShelf(ctx, bob.ID, "alice", "faves")
	require.NoError(t, err)
	assert.Equal(t, []string{"book1"}, bookIDs(items))
}
