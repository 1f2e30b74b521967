package domain

import "time"

// CollectionType describes how a shelf came to exist.
type CollectionType string

const (
	// CollectionCustom is a shelf the owner created by hand.
	CollectionCustom CollectionType = "custom"
	// CollectionReadingStatus is one of the system-seeded status shelves.
	CollectionReadingStatus CollectionType = "reading_status"
	// CollectionSetOperation is a snapshot saved from a set operation.
	CollectionSetOperation CollectionType = "set_operation"
)

// Valid reports whether t is a known collection type.
func (t CollectionType) Valid() bool {
	switch t {
	case CollectionCustom, CollectionReadingStatus, CollectionSetOperation:
		return true
	}
	return false
}

// ReadingStatusGroup is the exclusive group shared by the status shelves.
// A book sits on at most one shelf of an exclusive group per owner.
const ReadingStatusGroup = "reading-status"

// Shelf is a named, ordered collection of books owned by one user.
type Shelf struct {
	CreatedAt      time.Time      `json:"created_at"`
	UpdatedAt      time.Time      `json:"updated_at"`
	ID             string         `json:"id"`
	OwnerID        string         `json:"owner_id"`
	Name           string         `json:"name"`
	Slug           string         `json:"slug"`
	ExclusiveGroup string         `json:"exclusive_group,omitempty"`
	CollectionType CollectionType `json:"collection_type"`
	ItemCount      int            `json:"item_count"`
}

// ShelfItem places a book on a shelf. Items are ordered by AddedAt.
type ShelfItem struct {
	AddedAt        time.Time `json:"added_at"`
	Rating         *int      `json:"rating,omitempty"`
	SeriesPosition *float64  `json:"series_position,omitempty"`
	ShelfID        string    `json:"shelf_id"`
	BookID         string    `json:"book_id"`
}

// StatusShelf names one of the shelves every new user starts with.
type StatusShelf struct {
	Name string
	Slug string
}

// DefaultStatusShelves returns the reading-status shelves seeded on registration.
func DefaultStatusShelves() []StatusShelf {
	return []StatusShelf{
		{Name: "Want to Read", Slug: "want-to-read"},
		{Name: "Currently Reading", Slug: "currently-reading"},
		{Name: "Read", Slug: "read"},
	}
}
