package service

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/shelfwise/shelfwise-server/internal/domain"
	"github.com/shelfwise/shelfwise-server/internal/recent"
	"github.com/shelfwise/shelfwise-server/internal/store/sqlite"
	"github.com/shelfwise/shelfwise-server/internal/validation"
)

// testEnv bundles the services over one throwaway database.
type testEnv struct {
	store    *sqlite.Store
	guard    *AccessGuard
	users    *UserService
	taxonomy *TaxonomyService
	labels   *LabelResolver
	shelves  *ShelfService
	setops   *SetOperationEngine
	recent   *recent.Tracker
}

func setupTestServices(t *testing.T) *testEnv {
	t.Helper()
	return setupTestServicesWithCap(t, 0)
}

func setupTestServicesWithCap(t *testing.T, maxOperandItems int) *testEnv {
	t.Helper()

	dbPath := filepath.Join(t.TempDir(), "test.db")
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	s, err := sqlite.Open(dbPath, logger)
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })

	v := validation.New()
	guard := NewAccessGuard(s, logger)
	tracker := recent.NewTracker(10, 0)
	t.Cleanup(tracker.Stop)

	return &testEnv{
		store:    s,
		guard:    guard,
		users:    NewUserService(s, v, logger),
		taxonomy: NewTaxonomyService(s, v, logger),
		labels:   NewLabelResolver(s, guard, tracker, logger),
		shelves:  NewShelfService(s, guard, v, logger),
		setops:   NewSetOperationEngine(s, guard, NewResultMaterializer(logger), logger, maxOperandItems),
		recent:   tracker,
	}
}

func (e *testEnv) register(t *testing.T, username string, private bool) *domain.User {
	t.Helper()
	u, err := e.users.Register(context.Background(), RegisterUserRequest{
		Username:    username,
		DisplayName: username,
		IsPrivate:   private,
	})
	require.NoError(t, err)
	return u
}

func (e *testEnv) book(t *testing.T, id string) *domain.Book {
	t.Helper()
	b := &domain.Book{
		ID:            id,
		OpenLibraryID: "OL" + id + "W",
		Title:         "Title " + id,
		CreatedAt:     time.Now(),
	}
	require.NoError(t, e.store.CreateBook(context.Background(), b))
	return b
}

// shelf creates a custom shelf and places the books on it in order.
func (e *testEnv) shelf(t *testing.T, owner *domain.User, slug string, bookIDs ...string) *domain.Shelf {
	t.Helper()
	ctx := context.Background()

	sh, err := e.shelves.CreateShelf(ctx, owner.ID, CreateShelfRequest{Name: slug, Slug: slug})
	require.NoError(t, err)

	for _, bookID := range bookIDs {
		if _, err := e.store.GetBook(ctx, bookID); err != nil {
			e.book(t, bookID)
		}
		_, err := e.shelves.AddBook(ctx, owner.ID, slug, AddBookRequest{BookID: bookID})
		require.NoError(t, err, fmt.Sprintf("add %s to %s", bookID, slug))
	}
	return sh
}

func bookIDs(books []domain.BookSummary) []string {
	ids := make([]string, len(books))
	for i, b := range books {
		ids[i] = b.BookID
	}
	return ids
}
