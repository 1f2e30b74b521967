package sqlite

import (
	"context"
	"fmt"

	"github.com/shelfwise/shelfwise-server/internal/domain"
	"github.com/shelfwise/shelfwise-server/internal/store"
)

// UpsertFollow creates a follow edge or updates its status.
func (s *Store) UpsertFollow(ctx context.Context, f *domain.Follow) error {
	_, err := s.q.ExecContext(ctx, `
		INSERT INTO follows (follower_id, followee_id, status, created_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT (follower_id, followee_id) DO UPDATE SET status = excluded.status`,
		f.FollowerID, f.FolloweeID, string(f.Status), formatTime(f.CreatedAt),
	)
	if isForeignKeyViolation(err) {
		return store.ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("upsert follow: %w", err)
	}
	return nil
}

// GetFollow returns the edge from followerID to followeeID.
func (s *Store) GetFollow(ctx context.Context, followerID, followeeID string) (*domain.Follow, error) {
	var (
		f         domain.Follow
		status    string
		createdAt string
	)
	err := s.q.QueryRowContext(ctx, `
		SELECT follower_id, followee_id, status, created_at
		FROM follows WHERE follower_id = ? AND followee_id = ?`,
		followerID, followeeID,
	).Scan(&f.FollowerID, &f.FolloweeID, &status, &createdAt)
	if err != nil {
		return nil, notFound(err)
	}

	f.Status = domain.FollowStatus(status)
	if f.CreatedAt, err = parseTime(createdAt); err != nil {
		return nil, err
	}
	return &f, nil
}

// DeleteFollow removes a follow edge. Missing edges are not an error.
func (s *Store) DeleteFollow(ctx context.Context, followerID, followeeID string) error {
	_, err := s.q.ExecContext(ctx,
		`DELETE FROM follows WHERE follower_id = ? AND followee_id = ?`,
		followerID, followeeID)
	if err != nil {
		return fmt.Errorf("delete follow: %w", err)
	}
	return nil
}

// CreateBlock records a block. Blocking twice is a no-op.
func (s *Store) CreateBlock(ctx context.Context, b *domain.Block) error {
	_, err := s.q.ExecContext(ctx, `
		INSERT INTO blocks (blocker_id, blocked_id, created_at) VALUES (?, ?, ?)
		ON CONFLICT (blocker_id, blocked_id) DO NOTHING`,
		b.BlockerID, b.BlockedID, formatTime(b.CreatedAt),
	)
	if isForeignKeyViolation(err) {
		return store.ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("insert block: %w", err)
	}
	return nil
}

// DeleteBlock lifts a block.
func (s *Store) DeleteBlock(ctx context.Context, blockerID, blockedID string) error {
	res, err := s.q.ExecContext(ctx,
		`DELETE FROM blocks WHERE blocker_id = ? AND blocked_id = ?`, blockerID, blockedID)
	if err != nil {
		return fmt.Errorf("delete block: %w", err)
	}
	return requireAffected(res)
}

// IsBlocked reports whether either user has blocked the other.
func (s *Store) IsBlocked(ctx context.Context, userA, userB string) (bool, error) {
	var n int
	err := s.q.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM blocks
		WHERE (blocker_id = ? AND blocked_id = ?) OR (blocker_id = ? AND blocked_id = ?)`,
		userA, userB, userB, userA,
	).Scan(&n)
	if err != nil {
		return false, fmt.Errorf("check block: %w", err)
	}
	return n > 0, nil
}
