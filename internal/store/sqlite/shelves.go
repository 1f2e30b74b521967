package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/shelfwise/shelfwise-server/internal/domain"
	"github.com/shelfwise/shelfwise-server/internal/store"
)

// shelfColumns must match the scan order in scanShelf. item_count is computed.
const shelfColumns = `sh.id, sh.owner_id, sh.name, sh.slug, sh.exclusive_group, sh.collection_type,
	sh.created_at, sh.updated_at,
	(SELECT COUNT(*) FROM shelf_items si WHERE si.shelf_id = sh.id)`

func scanShelf(scanner interface{ Scan(dest ...any) error }) (*domain.Shelf, error) {
	var (
		sh             domain.Shelf
		exclusiveGroup sql.NullString
		collectionType string
		createdAt      string
		updatedAt      string
	)

	err := scanner.Scan(
		&sh.ID,
		&sh.OwnerID,
		&sh.Name,
		&sh.Slug,
		&exclusiveGroup,
		&collectionType,
		&createdAt,
		&updatedAt,
		&sh.ItemCount,
	)
	if err != nil {
		return nil, err
	}

	if sh.CreatedAt, err = parseTime(createdAt); err != nil {
		return nil, err
	}
	if sh.UpdatedAt, err = parseTime(updatedAt); err != nil {
		return nil, err
	}
	sh.ExclusiveGroup = exclusiveGroup.String
	sh.CollectionType = domain.CollectionType(collectionType)

	return &sh, nil
}

// CreateShelf inserts a shelf. Slugs are unique per owner.
func (s *Store) CreateShelf(ctx context.Context, sh *domain.Shelf) error {
	_, err := s.q.ExecContext(ctx, `
		INSERT INTO shelves (id, owner_id, name, slug, exclusive_group, collection_type, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		sh.ID, sh.OwnerID, sh.Name, sh.Slug, nullString(sh.ExclusiveGroup), string(sh.CollectionType),
		formatTime(sh.CreatedAt), formatTime(sh.UpdatedAt),
	)
	if isUniqueViolation(err) {
		return store.ErrAlreadyExists
	}
	if isForeignKeyViolation(err) {
		return store.ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("insert shelf: %w", err)
	}
	return nil
}

// GetShelf returns a shelf by ID.
func (s *Store) GetShelf(ctx context.Context, id string) (*domain.Shelf, error) {
	sh, err := scanShelf(s.q.QueryRowContext(ctx,
		`SELECT `+shelfColumns+` FROM shelves sh WHERE sh.id = ?`, id))
	if err != nil {
		return nil, notFound(err)
	}
	return sh, nil
}

// GetShelfBySlug returns ownerID's shelf with slug.
func (s *Store) GetShelfBySlug(ctx context.Context, ownerID, slug string) (*domain.Shelf, error) {
	sh, err := scanShelf(s.q.QueryRowContext(ctx,
		`SELECT `+shelfColumns+` FROM shelves sh WHERE sh.owner_id = ? AND sh.slug = ?`, ownerID, slug))
	if err != nil {
		return nil, notFound(err)
	}
	return sh, nil
}

// ListShelves returns ownerID's shelves, oldest first.
func (s *Store) ListShelves(ctx context.Context, ownerID string) ([]*domain.Shelf, error) {
	rows, err := s.q.QueryContext(ctx,
		`SELECT `+shelfColumns+` FROM shelves sh WHERE sh.owner_id = ? ORDER BY sh.created_at, sh.rowid`, ownerID)
	if err != nil {
		return nil, fmt.Errorf("list shelves: %w", err)
	}
	defer rows.Close()

	shelves := make([]*domain.Shelf, 0)
	for rows.Next() {
		sh, err := scanShelf(rows)
		if err != nil {
			return nil, err
		}
		shelves = append(shelves, sh)
	}
	return shelves, rows.Err()
}

// DeleteShelf removes a shelf; its items cascade.
func (s *Store) DeleteShelf(ctx context.Context, id string) error {
	res, err := s.q.ExecContext(ctx, `DELETE FROM shelves WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete shelf: %w", err)
	}
	return requireAffected(res)
}

// AddShelfItems inserts items in order and touches each shelf's updated_at.
// A book already on the shelf fails with store.ErrAlreadyExists.
func (s *Store) AddShelfItems(ctx context.Context, items []domain.ShelfItem) error {
	if len(items) == 0 {
		return nil
	}

	return s.InTx(ctx, func(tx store.Store) error {
		q := tx.(*Store).q
		touched := make(map[string]struct{})

		for _, it := range items {
			_, err := q.ExecContext(ctx, `
				INSERT INTO shelf_items (shelf_id, book_id, added_at, rating, series_position)
				VALUES (?, ?, ?, ?, ?)`,
				it.ShelfID, it.BookID, formatTime(it.AddedAt), nullInt(it.Rating), nullFloat(it.SeriesPosition),
			)
			if isUniqueViolation(err) {
				return store.ErrAlreadyExists
			}
			if isForeignKeyViolation(err) {
				return store.ErrNotFound
			}
			if err != nil {
				return fmt.Errorf("insert shelf item: %w", err)
			}
			touched[it.ShelfID] = struct{}{}
		}

		now := formatTime(timeNow())
		for shelfID := range touched {
			if _, err := q.ExecContext(ctx,
				`UPDATE shelves SET updated_at = ? WHERE id = ?`, now, shelfID); err != nil {
				return fmt.Errorf("touch shelf: %w", err)
			}
		}
		return nil
	})
}

// RemoveShelfItem takes a book off a shelf.
func (s *Store) RemoveShelfItem(ctx context.Context, shelfID, bookID string) error {
	res, err := s.q.ExecContext(ctx,
		`DELETE FROM shelf_items WHERE shelf_id = ? AND book_id = ?`, shelfID, bookID)
	if err != nil {
		return fmt.Errorf("delete shelf item: %w", err)
	}
	return requireAffected(res)
}

// RemoveFromExclusiveGroup implements store.Shelves.
func (s *Store) RemoveFromExclusiveGroup(ctx context.Context, ownerID, group, bookID, keepShelfID string) (int64, error) {
	res, err := s.q.ExecContext(ctx, `
		DELETE FROM shelf_items
		WHERE book_id = ?
		  AND shelf_id <> ?
		  AND shelf_id IN (SELECT id FROM shelves WHERE owner_id = ? AND exclusive_group = ?)`,
		bookID, keepShelfID, ownerID, group)
	if err != nil {
		return 0, fmt.Errorf("clear exclusive group: %w", err)
	}
	return res.RowsAffected()
}

// ListShelfBookIDs implements store.Shelves.
func (s *Store) ListShelfBookIDs(ctx context.Context, shelfID string, limit int) ([]string, error) {
	query := `SELECT book_id FROM shelf_items WHERE shelf_id = ? ORDER BY added_at, rowid`
	args := []any{shelfID}
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}

	rows, err := s.q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list shelf books: %w", err)
	}
	defer rows.Close()

	ids := make([]string, 0)
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// LastShelfItemAt implements store.Shelves.
func (s *Store) LastShelfItemAt(ctx context.Context, shelfID string) (time.Time, error) {
	var last sql.NullString
	err := s.q.QueryRowContext(ctx,
		`SELECT MAX(added_at) FROM shelf_items WHERE shelf_id = ?`, shelfID).Scan(&last)
	if err != nil {
		return time.Time{}, fmt.Errorf("latest shelf item: %w", err)
	}
	if !last.Valid {
		return time.Time{}, nil
	}
	return parseTime(last.String)
}

// ListShelfItems returns the shelf's books with display metadata, in shelf order.
func (s *Store) ListShelfItems(ctx context.Context, shelfID string) ([]domain.BookSummary, error) {
	rows, err := s.q.QueryContext(ctx, `
		SELECT b.id, b.open_library_id, b.title, b.cover_url, si.added_at, si.rating
		FROM shelf_items si
		JOIN books b ON b.id = si.book_id
		WHERE si.shelf_id = ?
		ORDER BY si.added_at, si.rowid`,
		shelfID)
	if err != nil {
		return nil, fmt.Errorf("list shelf items: %w", err)
	}
	defer rows.Close()

	items := make([]domain.BookSummary, 0)
	for rows.Next() {
		var (
			b        domain.BookSummary
			coverURL sql.NullString
			addedAt  string
			rating   sql.NullInt64
		)
		if err := rows.Scan(&b.BookID, &b.OpenLibraryID, &b.Title, &coverURL, &addedAt, &rating); err != nil {
			return nil, err
		}
		t, err := parseTime(addedAt)
		if err != nil {
			return nil, err
		}
		b.AddedAt = &t
		b.CoverURL = coverURL.String
		if rating.Valid {
			r := int(rating.Int64)
			b.Rating = &r
		}
		items = append(items, b)
	}
	return items, rows.Err()
}
