// Package store defines the persistence contract used by shelfwise services.
// The SQLite implementation lives in internal/store/sqlite.
package store

import (
	"context"
	"time"

	"github.com/shelfwise/shelfwise-server/internal/domain"
)

// Store is the full persistence surface. Implementations return ErrNotFound
// for missing rows and ErrAlreadyExists for uniqueness violations.
type Store interface {
	Users
	Social
	Books
	Taxonomy
	Shelves

	// InTx runs fn inside one transaction. The Store handed to fn is bound to
	// that transaction; returning an error (or cancelling ctx) rolls it back.
	// Calling InTx on a transaction-bound Store reuses the open transaction.
	InTx(ctx context.Context, fn func(tx Store) error) error
}

// Users persists reader accounts.
type Users interface {
	CreateUser(ctx context.Context, u *domain.User) error
	GetUser(ctx context.Context, id string) (*domain.User, error)
	GetUserByUsername(ctx context.Context, username string) (*domain.User, error)
	SetUserPrivacy(ctx context.Context, id string, private bool) error
}

// Social persists follow and block edges.
type Social interface {
	UpsertFollow(ctx context.Context, f *domain.Follow) error
	GetFollow(ctx context.Context, followerID, followeeID string) (*domain.Follow, error)
	DeleteFollow(ctx context.Context, followerID, followeeID string) error
	CreateBlock(ctx context.Context, b *domain.Block) error
	DeleteBlock(ctx context.Context, blockerID, blockedID string) error
	// IsBlocked reports whether either user has blocked the other.
	IsBlocked(ctx context.Context, userA, userB string) (bool, error)
}

// Books persists catalogue metadata.
type Books interface {
	CreateBook(ctx context.Context, b *domain.Book) error
	GetBook(ctx context.Context, id string) (*domain.Book, error)
	GetBookByOpenLibraryID(ctx context.Context, olid string) (*domain.Book, error)
	// GetBooks returns the books that exist among ids, keyed by ID.
	GetBooks(ctx context.Context, ids []string) (map[string]*domain.Book, error)
}

// Taxonomy persists label keys, values and book assignments.
type Taxonomy interface {
	CreateTagKey(ctx context.Context, k *domain.TagKey) error
	GetTagKey(ctx context.Context, id string) (*domain.TagKey, error)
	GetTagKeyBySlug(ctx context.Context, ownerID, slug string) (*domain.TagKey, error)
	ListTagKeys(ctx context.Context, ownerID string) ([]*domain.TagKey, error)
	DeleteTagKey(ctx context.Context, id string) error

	CreateTagValue(ctx context.Context, v *domain.TagValue) error
	GetTagValue(ctx context.Context, id string) (*domain.TagValue, error)
	// GetChildValue finds the child of parentID (empty for the key root) with slug.
	GetChildValue(ctx context.Context, keyID, parentID, slug string) (*domain.TagValue, error)
	// ListChildSlugs returns the slugs of parentID's direct children, sorted.
	ListChildSlugs(ctx context.Context, keyID, parentID string) ([]string, error)
	// TagValueHeight counts the levels of the subtree rooted at valueID, 1 for
	// a leaf. Counting stops once limit levels are exceeded.
	TagValueHeight(ctx context.Context, valueID string, limit int) (int, error)
	SetTagValueParent(ctx context.Context, valueID, parentID string) error
	DeleteTagValue(ctx context.Context, id string) error

	CreateAssignment(ctx context.Context, a *domain.BookTagAssignment) error
	DeleteAssignment(ctx context.Context, bookID, valueID string) error
	// DeleteKeyAssignments removes every assignment of bookID under keyID.
	DeleteKeyAssignments(ctx context.Context, bookID, keyID string) (int64, error)
	// ListValueBooks returns books assigned directly to valueID, oldest assignment first.
	ListValueBooks(ctx context.Context, valueID string) ([]domain.BookSummary, error)
}

// Shelves persists shelves and their items.
type Shelves interface {
	CreateShelf(ctx context.Context, sh *domain.Shelf) error
	GetShelf(ctx context.Context, id string) (*domain.Shelf, error)
	GetShelfBySlug(ctx context.Context, ownerID, slug string) (*domain.Shelf, error)
	ListShelves(ctx context.Context, ownerID string) ([]*domain.Shelf, error)
	DeleteShelf(ctx context.Context, id string) error

	AddShelfItems(ctx context.Context, items []domain.ShelfItem) error
	RemoveShelfItem(ctx context.Context, shelfID, bookID string) error
	// RemoveFromExclusiveGroup takes bookID off every shelf of ownerID in
	// group except keepShelfID.
	RemoveFromExclusiveGroup(ctx context.Context, ownerID, group, bookID, keepShelfID string) (int64, error)
	// ListShelfBookIDs returns book IDs in shelf order. A positive limit caps
	// the number of rows read.
	ListShelfBookIDs(ctx context.Context, shelfID string, limit int) ([]string, error)
	ListShelfItems(ctx context.Context, shelfID string) ([]domain.BookSummary, error)
	// LastShelfItemAt returns the latest added_at on the shelf, or the zero
	// time when it is empty.
	LastShelfItemAt(ctx context.Context, shelfID string) (time.Time, error)
}
