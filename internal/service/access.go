package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/shelfwise/shelfwise-server/internal/domain"
	domainerrors "github.com/shelfwise/shelfwise-server/internal/errors"
	"github.com/shelfwise/shelfwise-server/internal/store"
)

// AccessGuard decides whether one user may read another user's shelves and labels.
//
// Rules, first match wins:
//  1. the owner always sees their own data;
//  2. a block in either direction hides everything;
//  3. a private owner is visible only to accepted followers;
//  4. otherwise the data is visible.
type AccessGuard struct {
	store  store.Store
	logger *slog.Logger
}

// NewAccessGuard creates an access guard.
func NewAccessGuard(store store.Store, logger *slog.Logger) *AccessGuard {
	return &AccessGuard{store: store, logger: logger}
}

// in returns a copy of the guard that reads through tx, so a check sees the
// same snapshot as the rest of the caller's transaction.
func (g *AccessGuard) in(tx store.Store) *AccessGuard {
	return &AccessGuard{store: tx, logger: g.logger}
}

// Require is CanView that fails with a Forbidden error.
func (g *AccessGuard) Require(ctx context.Context, requesterID string, owner *domain.User) error {
	ok, err := g.CanView(ctx, requesterID, owner, nil)
	if err != nil {
		return err
	}
	if !ok {
		g.logger.Warn("access denied", "requester_id", requesterID, "owner_id", owner.ID)
		return domainerrors.Forbiddenf("you do not have access to %s's shelves", owner.Username)
	}
	return nil
}

// CanView reports whether requesterID may view owner's data. The shelf is
// accepted for callers that check one shelf at a time; visibility is
// currently decided per owner.
func (g *AccessGuard) CanView(ctx context.Context, requesterID string, owner *domain.User, _ *domain.Shelf) (bool, error) {
	if requesterID != "" && requesterID == owner.ID {
		return true, nil
	}

	if requesterID != "" {
		blocked, err := g.store.IsBlocked(ctx, requesterID, owner.ID)
		if err != nil {
			return false, fmt.Errorf("check block: %w", err)
		}
		if blocked {
			return false, nil
		}
	}

	if !owner.IsPrivate {
		return true, nil
	}
	if requesterID == "" {
		return false, nil
	}

	follow, err := g.store.GetFollow(ctx, requesterID, owner.ID)
	if errors.Is(err, store.ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("check follow: %w", err)
	}
	return follow.Status == domain.FollowAccepted, nil
}
