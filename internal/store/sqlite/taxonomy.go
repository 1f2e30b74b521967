package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/shelfwise/shelfwise-server/internal/domain"
	"github.com/shelfwise/shelfwise-server/internal/store"
)

// tagKeyColumns must match the scan order in scanTagKey.
const tagKeyColumns = `id, owner_id, name, slug, mode, created_at, updated_at`

func scanTagKey(scanner interface{ Scan(dest ...any) error }) (*domain.TagKey, error) {
	var (
		k         domain.TagKey
		mode      string
		createdAt string
		updatedAt string
	)
	if err := scanner.Scan(&k.ID, &k.OwnerID, &k.Name, &k.Slug, &mode, &createdAt, &updatedAt); err != nil {
		return nil, err
	}

	var err error
	if k.CreatedAt, err = parseTime(createdAt); err != nil {
		return nil, err
	}
	if k.UpdatedAt, err = parseTime(updatedAt); err != nil {
		return nil, err
	}
	k.Mode = domain.KeyMode(mode)
	return &k, nil
}

// tagValueColumns must match the scan order in scanTagValue.
const tagValueColumns = `id, key_id, parent_value_id, name, slug, created_at`

func scanTagValue(scanner interface{ Scan(dest ...any) error }) (*domain.TagValue, error) {
	var (
		v         domain.TagValue
		parentID  sql.NullString
		createdAt string
	)
	if err := scanner.Scan(&v.ID, &v.KeyID, &parentID, &v.Name, &v.Slug, &createdAt); err != nil {
		return nil, err
	}

	var err error
	if v.CreatedAt, err = parseTime(createdAt); err != nil {
		return nil, err
	}
	v.ParentID = parentID.String
	return &v, nil
}

// CreateTagKey inserts a key. Slugs are unique per owner.
func (s *Store) CreateTagKey(ctx context.Context, k *domain.TagKey) error {
	_, err := s.q.ExecContext(ctx,
		`INSERT INTO tag_keys (`+tagKeyColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?)`,
		k.ID, k.OwnerID, k.Name, k.Slug, string(k.Mode),
		formatTime(k.CreatedAt), formatTime(k.UpdatedAt),
	)
	if isUniqueViolation(err) {
		return store.ErrAlreadyExists
	}
	if isForeignKeyViolation(err) {
		return store.ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("insert tag key: %w", err)
	}
	return nil
}

// GetTagKey returns a key by ID.
func (s *Store) GetTagKey(ctx context.Context, id string) (*domain.TagKey, error) {
	k, err := scanTagKey(s.q.QueryRowContext(ctx,
		`SELECT `+tagKeyColumns+` FROM tag_keys WHERE id = ?`, id))
	if err != nil {
		return nil, notFound(err)
	}
	return k, nil
}

// GetTagKeyBySlug returns ownerID's key with slug.
func (s *Store) GetTagKeyBySlug(ctx context.Context, ownerID, slug string) (*domain.TagKey, error) {
	k, err := scanTagKey(s.q.QueryRowContext(ctx,
		`SELECT `+tagKeyColumns+` FROM tag_keys WHERE owner_id = ? AND slug = ?`, ownerID, slug))
	if err != nil {
		return nil, notFound(err)
	}
	return k, nil
}

// ListTagKeys returns ownerID's keys ordered by slug.
func (s *Store) ListTagKeys(ctx context.Context, ownerID string) ([]*domain.TagKey, error) {
	rows, err := s.q.QueryContext(ctx,
		`SELECT `+tagKeyColumns+` FROM tag_keys WHERE owner_id = ? ORDER BY slug`, ownerID)
	if err != nil {
		return nil, fmt.Errorf("list tag keys: %w", err)
	}
	defer rows.Close()

	keys := make([]*domain.TagKey, 0)
	for rows.Next() {
		k, err := scanTagKey(rows)
		if err != nil {
			return nil, err
		}
		keys = append(keys, k)
	}
	return keys, rows.Err()
}

// DeleteTagKey removes a key; its values and assignments cascade.
func (s *Store) DeleteTagKey(ctx context.Context, id string) error {
	res, err := s.q.ExecContext(ctx, `DELETE FROM tag_keys WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete tag key: %w", err)
	}
	return requireAffected(res)
}

// CreateTagValue inserts a value. Slugs are unique among siblings.
func (s *Store) CreateTagValue(ctx context.Context, v *domain.TagValue) error {
	_, err := s.q.ExecContext(ctx,
		`INSERT INTO tag_values (`+tagValueColumns+`) VALUES (?, ?, ?, ?, ?, ?)`,
		v.ID, v.KeyID, nullString(v.ParentID), v.Name, v.Slug, formatTime(v.CreatedAt),
	)
	if isUniqueViolation(err) {
		return store.ErrAlreadyExists
	}
	if isForeignKeyViolation(err) {
		return store.ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("insert tag value: %w", err)
	}
	return nil
}

// GetTagValue returns a value by ID.
func (s *Store) GetTagValue(ctx context.Context, id string) (*domain.TagValue, error) {
	v, err := scanTagValue(s.q.QueryRowContext(ctx,
		`SELECT `+tagValueColumns+` FROM tag_values WHERE id = ?`, id))
	if err != nil {
		return nil, notFound(err)
	}
	return v, nil
}

// GetChildValue implements store.Taxonomy.
func (s *Store) GetChildValue(ctx context.Context, keyID, parentID, slug string) (*domain.TagValue, error) {
	v, err := scanTagValue(s.q.QueryRowContext(ctx, `
		SELECT `+tagValueColumns+` FROM tag_values
		WHERE key_id = ? AND COALESCE(parent_value_id, '') = ? AND slug = ?`,
		keyID, parentID, slug))
	if err != nil {
		return nil, notFound(err)
	}
	return v, nil
}

// ListChildSlugs implements store.Taxonomy. Ordering is bytewise, matching Go string comparison.
func (s *Store) ListChildSlugs(ctx context.Context, keyID, parentID string) ([]string, error) {
	rows, err := s.q.QueryContext(ctx, `
		SELECT slug FROM tag_values
		WHERE key_id = ? AND COALESCE(parent_value_id, '') = ?
		ORDER BY slug COLLATE BINARY`,
		keyID, parentID)
	if err != nil {
		return nil, fmt.Errorf("list child values: %w", err)
	}
	defer rows.Close()

	slugs := make([]string, 0)
	for rows.Next() {
		var slug string
		if err := rows.Scan(&slug); err != nil {
			return nil, err
		}
		slugs = append(slugs, slug)
	}
	return slugs, rows.Err()
}

// TagValueHeight implements store.Taxonomy.
func (s *Store) TagValueHeight(ctx context.Context, valueID string, limit int) (int, error) {
	var height int
	err := s.q.QueryRowContext(ctx, `
		WITH RECURSIVE subtree(id, level) AS (
			SELECT id, 1 FROM tag_values WHERE id = ?
			UNION ALL
			SELECT v.id, st.level + 1
			FROM tag_values v
			JOIN subtree st ON v.parent_value_id = st.id
			WHERE st.level <= ?
		)
		SELECT COALESCE(MAX(level), 0) FROM subtree`,
		valueID, limit).Scan(&height)
	if err != nil {
		return 0, fmt.Errorf("measure tag value subtree: %w", err)
	}
	if height == 0 {
		return 0, store.ErrNotFound
	}
	return height, nil
}

// SetTagValueParent moves a value under parentID (empty for the key root).
// Cycle checks are the caller's job.
func (s *Store) SetTagValueParent(ctx context.Context, valueID, parentID string) error {
	res, err := s.q.ExecContext(ctx,
		`UPDATE tag_values SET parent_value_id = ? WHERE id = ?`, nullString(parentID), valueID)
	if isUniqueViolation(err) {
		return store.ErrAlreadyExists
	}
	if err != nil {
		return fmt.Errorf("reparent tag value: %w", err)
	}
	return requireAffected(res)
}

// DeleteTagValue removes a value; descendants and assignments cascade.
func (s *Store) DeleteTagValue(ctx context.Context, id string) error {
	res, err := s.q.ExecContext(ctx, `DELETE FROM tag_values WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete tag value: %w", err)
	}
	return requireAffected(res)
}

// CreateAssignment links a book to a value.
func (s *Store) CreateAssignment(ctx context.Context, a *domain.BookTagAssignment) error {
	_, err := s.q.ExecContext(ctx, `
		INSERT INTO book_tag_assignments (id, book_id, key_id, value_id, created_at)
		VALUES (?, ?, ?, ?, ?)`,
		a.ID, a.BookID, a.KeyID, a.ValueID, formatTime(a.CreatedAt),
	)
	if isUniqueViolation(err) {
		return store.ErrAlreadyExists
	}
	if isForeignKeyViolation(err) {
		return store.ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("insert assignment: %w", err)
	}
	return nil
}

// DeleteAssignment removes one book/value edge.
func (s *Store) DeleteAssignment(ctx context.Context, bookID, valueID string) error {
	res, err := s.q.ExecContext(ctx,
		`DELETE FROM book_tag_assignments WHERE book_id = ? AND value_id = ?`, bookID, valueID)
	if err != nil {
		return fmt.Errorf("delete assignment: %w", err)
	}
	return requireAffected(res)
}

// DeleteKeyAssignments implements store.Taxonomy.
func (s *Store) DeleteKeyAssignments(ctx context.Context, bookID, keyID string) (int64, error) {
	res, err := s.q.ExecContext(ctx,
		`DELETE FROM book_tag_assignments WHERE book_id = ? AND key_id = ?`, bookID, keyID)
	if err != nil {
		return 0, fmt.Errorf("delete key assignments: %w", err)
	}
	return res.RowsAffected()
}

// ListValueBooks implements store.Taxonomy.
func (s *Store) ListValueBooks(ctx context.Context, valueID string) ([]domain.BookSummary, error) {
	rows, err := s.q.QueryContext(ctx, `
		SELECT b.id, b.open_library_id, b.title, b.cover_url
		FROM book_tag_assignments a
		JOIN books b ON b.id = a.book_id
		WHERE a.value_id = ?
		ORDER BY a.created_at, a.rowid`,
		valueID)
	if err != nil {
		return nil, fmt.Errorf("list value books: %w", err)
	}
	defer rows.Close()

	books := make([]domain.BookSummary, 0)
	for rows.Next() {
		var (
			b        domain.BookSummary
			coverURL sql.NullString
		)
		if err := rows.Scan(&b.BookID, &b.OpenLibraryID, &b.Title, &coverURL); err != nil {
			return nil, err
		}
		b.CoverURL = coverURL.String
		books = append(books, b)
	}
	return books, rows.Err()
}
