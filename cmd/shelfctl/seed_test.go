package main

import (
	"context"
	"io"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/shelfwise/shelfwise-server/internal/config"
	"github.com/shelfwise/shelfwise-server/internal/domain"
	"github.com/shelfwise/shelfwise-server/internal/logger"
	"github.com/shelfwise/shelfwise-server/internal/store/sqlite"
)

const fixture = `
users:
  - username: alice
  - username: bob
    private: true
follows:
  - follower: alice
    followee: bob
books:
  - {id: b1, title: Dune}
  - {id: b2, title: Hyperion}
  - {id: b3, title: Solaris}
shelves:
  - owner: alice
    slug: read
    books: [b1, b2]
  - owner: bob
    name: Favourites
    books: [b2, b3]
labels:
  - owner: alice
    name: Genres
    mode: select_multiple
    values:
      - name: Fiction
        children:
          - name: Sci-Fi
assignments:
  - {owner: alice, book: b1, key: genres, path: fiction/sci-fi}
`

func newTestApp(t *testing.T) *app {
	t.Helper()

	log := logger.New(logger.Config{Writer: io.Discard})
	st, err := sqlite.Open(filepath.Join(t.TempDir(), "shelfwise.db"), log.Logger)
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })

	cfg := &config.Config{
		SetOps: config.SetOpsConfig{MaxOperandItems: 100},
		Recent: config.RecentConfig{Capacity: 10},
	}
	return newApp(cfg, log, st)
}

func TestSeed(t *testing.T) {
	a := newTestApp(t)
	ctx := context.Background()

	var f seedFile
	require.NoError(t, yaml.Unmarshal([]byte(fixture), &f))

	stats, err := a.seed(ctx, &f)
	require.NoError(t, err)
	assert.Equal(t, seedStats{Users: 2, Follows: 1, Books: 3, Shelves: 1, Items: 4, Keys: 1, Values: 2, Assignments: 1}, *stats)

	alice, err := a.users.GetByUsername(ctx, "alice")
	require.NoError(t, err)

	// The pending follow was accepted, so alice can see bob's private shelf.
	shelf, books, err := a.shelves.GetShelf(ctx, alice.ID, "bob", "favourites")
	require.NoError(t, err)
	assert.Equal(t, 2, shelf.ItemCount)
	require.Len(t, books, 2)
	assert.Equal(t, "b2", books[0].BookID)

	node, err := a.labels.Resolve(ctx, alice.ID, "genres", []string{"fiction", "sci-fi"})
	require.NoError(t, err)
	require.Len(t, node.Books, 1)
	assert.Equal(t, "b1", node.Books[0].BookID)

	result, err := a.setops.Compute(ctx, alice.ID, domain.SetOperationRequest{
		Operation: domain.OpIntersect,
		Operands: []domain.Operand{
			{OwnerUsername: "alice", ShelfSlug: "read"},
			{OwnerUsername: "bob", ShelfSlug: "favourites"},
		},
	})
	require.NoError(t, err)
	require.Len(t, result.Books, 1)
	assert.Equal(t, "b2", result.Books[0].BookID)
}

func TestSeed_ReusesExistingRecords(t *testing.T) {
	a := newTestApp(t)
	ctx := context.Background()

	var f seedFile
	require.NoError(t, yaml.Unmarshal([]byte(`
users:
  - username: alice
books:
  - {id: b1, title: Dune}
`), &f))

	_, err := a.seed(ctx, &f)
	require.NoError(t, err)

	stats, err := a.seed(ctx, &f)
	require.NoError(t, err)
	assert.Zero(t, stats.Users)
	assert.Zero(t, stats.Books)
}

func TestSeed_AssignmentNeedsValue(t *testing.T) {
	a := newTestApp(t)

	var f seedFile
	require.NoError(t, yaml.Unmarshal([]byte(`
users:
  - username: alice
books:
  - {id: b1, title: Dune}
labels:
  - {owner: alice, name: Genres, mode: select_one}
assignments:
  - {owner: alice, book: b1, key: genres, path: ""}
`), &f))

	_, err := a.seed(context.Background(), &f)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "path must name a value")
}

func TestParseOperand(t *testing.T) {
	tests := []struct {
		ref     string
		want    domain.Operand
		wantErr bool
	}{
		{ref: "alice/read", want: domain.Operand{OwnerUsername: "alice", ShelfSlug: "read"}},
		{ref: "alice", wantErr: true},
		{ref: "/read", wantErr: true},
		{ref: "alice/", wantErr: true},
		{ref: "alice/read/extra", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.ref, func(t *testing.T) {
			got, err := parseOperand(tt.ref)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}
