package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/shelfwise/shelfwise-server/internal/domain"
	"github.com/shelfwise/shelfwise-server/internal/store"
)

// bookColumns must match the scan order in scanBook.
const bookColumns = `id, open_library_id, title, cover_url, created_at`

func scanBook(scanner interface{ Scan(dest ...any) error }) (*domain.Book, error) {
	var (
		b         domain.Book
		coverURL  sql.NullString
		createdAt string
	)
	if err := scanner.Scan(&b.ID, &b.OpenLibraryID, &b.Title, &coverURL, &createdAt); err != nil {
		return nil, err
	}

	var err error
	if b.CreatedAt, err = parseTime(createdAt); err != nil {
		return nil, err
	}
	b.CoverURL = coverURL.String
	return &b, nil
}

// CreateBook inserts a catalogue entry.
func (s *Store) CreateBook(ctx context.Context, b *domain.Book) error {
	_, err := s.q.ExecContext(ctx,
		`INSERT INTO books (`+bookColumns+`) VALUES (?, ?, ?, ?, ?)`,
		b.ID, b.OpenLibraryID, b.Title, nullString(b.CoverURL), formatTime(b.CreatedAt),
	)
	if isUniqueViolation(err) {
		return store.ErrAlreadyExists
	}
	if err != nil {
		return fmt.Errorf("insert book: %w", err)
	}
	return nil
}

// GetBook returns a book by ID.
func (s *Store) GetBook(ctx context.Context, id string) (*domain.Book, error) {
	b, err := scanBook(s.q.QueryRowContext(ctx,
		`SELECT `+bookColumns+` FROM books WHERE id = ?`, id))
	if err != nil {
		return nil, notFound(err)
	}
	return b, nil
}

// GetBookByOpenLibraryID returns a book by its Open Library work ID.
func (s *Store) GetBookByOpenLibraryID(ctx context.Context, olid string) (*domain.Book, error) {
	b, err := scanBook(s.q.QueryRowContext(ctx,
		`SELECT `+bookColumns+` FROM books WHERE open_library_id = ?`, olid))
	if err != nil {
		return nil, notFound(err)
	}
	return b, nil
}

// maxBatchParams keeps IN (...) lists below SQLite's variable limit.
const maxBatchParams = 500

// GetBooks returns the books that exist among ids, keyed by ID.
func (s *Store) GetBooks(ctx context.Context, ids []string) (map[string]*domain.Book, error) {
	out := make(map[string]*domain.Book, len(ids))

	for start := 0; start < len(ids); start += maxBatchParams {
		end := min(start+maxBatchParams, len(ids))
		batch := ids[start:end]

		args := make([]any, len(batch))
		for i, id := range batch {
			args[i] = id
		}

		rows, err := s.q.QueryContext(ctx,
			`SELECT `+bookColumns+` FROM books WHERE id IN (`+placeholders(len(batch))+`)`, args...)
		if err != nil {
			return nil, fmt.Errorf("query books: %w", err)
		}
		for rows.Next() {
			b, err := scanBook(rows)
			if err != nil {
				rows.Close()
				return nil, err
			}
			out[b.ID] = b
		}
		err = rows.Err()
		rows.Close()
		if err != nil {
			return nil, err
		}
	}

	return out, nil
}
