package domain

import "time"

// Book is the display metadata shelfwise keeps for a catalogue entry.
type Book struct {
	CreatedAt     time.Time `json:"created_at"`
	ID            string    `json:"id"`
	OpenLibraryID string    `json:"open_library_id"`
	Title         string    `json:"title"`
	CoverURL      string    `json:"cover_url,omitempty"`
}

// BookSummary is a book as it appears inside a shelf, a label node or a
// set-operation result.
type BookSummary struct {
	AddedAt       *time.Time `json:"added_at,omitempty"`
	Rating        *int       `json:"rating,omitempty"`
	BookID        string     `json:"book_id"`
	OpenLibraryID string     `json:"open_library_id"`
	Title         string     `json:"title"`
	CoverURL      string     `json:"cover_url,omitempty"`
}

// Summary converts a book into its list form.
func (b *Book) Summary() BookSummary {
	return BookSummary{
		BookID:        b.ID,
		OpenLibraryID: b.OpenLibraryID,
		Title:         b.Title,
		CoverURL:      b.CoverURL,
	}
}
