package sqlite

import (
	"context"
	"fmt"

	"github.com/shelfwise/shelfwise-server/internal/domain"
	"github.com/shelfwise/shelfwise-server/internal/store"
)

// boolToInt converts a bool to an int for SQLite storage.
func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

// userColumns must match the scan order in scanUser.
const userColumns = `id, username, display_name, is_private, created_at, updated_at`

func scanUser(scanner interface{ Scan(dest ...any) error }) (*domain.User, error) {
	var (
		u         domain.User
		isPrivate int
		createdAt string
		updatedAt string
	)

	if err := scanner.Scan(&u.ID, &u.Username, &u.DisplayName, &isPrivate, &createdAt, &updatedAt); err != nil {
		return nil, err
	}

	var err error
	if u.CreatedAt, err = parseTime(createdAt); err != nil {
		return nil, err
	}
	if u.UpdatedAt, err = parseTime(updatedAt); err != nil {
		return nil, err
	}
	u.IsPrivate = isPrivate != 0

	return &u, nil
}

// CreateUser inserts a user. Usernames are unique regardless of case.
func (s *Store) CreateUser(ctx context.Context, u *domain.User) error {
	_, err := s.q.ExecContext(ctx,
		`INSERT INTO users (`+userColumns+`) VALUES (?, ?, ?, ?, ?, ?)`,
		u.ID, u.Username, u.DisplayName, boolToInt(u.IsPrivate),
		formatTime(u.CreatedAt), formatTime(u.UpdatedAt),
	)
	if isUniqueViolation(err) {
		return store.ErrAlreadyExists
	}
	if err != nil {
		return fmt.Errorf("insert user: %w", err)
	}
	return nil
}

// GetUser returns a user by ID.
func (s *Store) GetUser(ctx context.Context, id string) (*domain.User, error) {
	u, err := scanUser(s.q.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE id = ?`, id))
	if err != nil {
		return nil, notFound(err)
	}
	return u, nil
}

// GetUserByUsername returns a user by username, case-insensitively.
func (s *Store) GetUserByUsername(ctx context.Context, username string) (*domain.User, error) {
	u, err := scanUser(s.q.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE username = ?`, username))
	if err != nil {
		return nil, notFound(err)
	}
	return u, nil
}

// SetUserPrivacy flips a user's private flag.
func (s *Store) SetUserPrivacy(ctx context.Context, id string, private bool) error {
	res, err := s.q.ExecContext(ctx,
		`UPDATE users SET is_private = ?, updated_at = ? WHERE id = ?`,
		boolToInt(private), formatTime(timeNow()), id)
	if err != nil {
		return fmt.Errorf("update user privacy: %w", err)
	}
	return requireAffected(res)
}
