package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/shelfwise/shelfwise-server/internal/domain"
	domainerrors "github.com/shelfwise/shelfwise-server/internal/errors"
	"github.com/shelfwise/shelfwise-server/internal/id"
	"github.com/shelfwise/shelfwise-server/internal/store"
	"github.com/shelfwise/shelfwise-server/internal/validation"
)

// RegisterUserRequest creates a reader account.
type RegisterUserRequest struct {
	Username    string `json:"username" validate:"required,min=2,max=32,slug"`
	DisplayName string `json:"display_name" validate:"max=100"`
	IsPrivate   bool   `json:"is_private"`
}

// UserService manages reader accounts and the follow/block graph that
// AccessGuard reads.
type UserService struct {
	store     store.Store
	validator *validation.Validator
	logger    *slog.Logger
}

// NewUserService creates a user service.
func NewUserService(store store.Store, validator *validation.Validator, logger *slog.Logger) *UserService {
	return &UserService{store: store, validator: validator, logger: logger}
}

// Register creates a user together with the reading-status shelves.
func (s *UserService) Register(ctx context.Context, req RegisterUserRequest) (*domain.User, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := s.validator.Validate(req); err != nil {
		return nil, err
	}

	userID, err := id.Generate("user")
	if err != nil {
		return nil, fmt.Errorf("generate user ID: %w", err)
	}

	now := time.Now()
	user := &domain.User{
		ID:          userID,
		Username:    req.Username,
		DisplayName: req.DisplayName,
		IsPrivate:   req.IsPrivate,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	err = s.store.InTx(ctx, func(tx store.Store) error {
		if err := tx.CreateUser(ctx, user); err != nil {
			if errors.Is(err, store.ErrAlreadyExists) {
				return domainerrors.Conflictf("username %q is taken", req.Username)
			}
			return err
		}
		return seedStatusShelves(ctx, tx, user.ID, now)
	})
	if err != nil {
		return nil, fmt.Errorf("register user: %w", err)
	}

	s.logger.Info("user registered", "user_id", user.ID, "username", user.Username)
	return user, nil
}

func seedStatusShelves(ctx context.Context, tx store.Store, ownerID string, now time.Time) error {
	for i, status := range domain.DefaultStatusShelves() {
		shelfID, err := id.Generate("shelf")
		if err != nil {
			return fmt.Errorf("generate shelf ID: %w", err)
		}
		// Offset creation times so listing order matches the declared order.
		created := now.Add(time.Duration(i) * time.Microsecond)
		if err := tx.CreateShelf(ctx, &domain.Shelf{
			ID:             shelfID,
			OwnerID:        ownerID,
			Name:           status.Name,
			Slug:           status.Slug,
			ExclusiveGroup: domain.ReadingStatusGroup,
			CollectionType: domain.CollectionReadingStatus,
			CreatedAt:      created,
			UpdatedAt:      created,
		}); err != nil {
			return fmt.Errorf("seed %s shelf: %w", status.Slug, err)
		}
	}
	return nil
}

// GetByUsername looks a user up by username.
func (s *UserService) GetByUsername(ctx context.Context, username string) (*domain.User, error) {
	return lookupUser(ctx, s.store, username)
}

// GetByID looks a user up by ID.
func (s *UserService) GetByID(ctx context.Context, userID string) (*domain.User, error) {
	u, err := s.store.GetUser(ctx, userID)
	if errors.Is(err, store.ErrNotFound) {
		return nil, domainerrors.NotFound("user not found")
	}
	return u, err
}

func lookupUser(ctx context.Context, st store.Store, username string) (*domain.User, error) {
	u, err := st.GetUserByUsername(ctx, username)
	if errors.Is(err, store.ErrNotFound) {
		return nil, domainerrors.NotFoundf("user %q not found", username)
	}
	if err != nil {
		return nil, fmt.Errorf("get user: %w", err)
	}
	return u, nil
}

// SetPrivacy marks the user's profile private or public.
func (s *UserService) SetPrivacy(ctx context.Context, userID string, private bool) (*domain.User, error) {
	if err := s.store.SetUserPrivacy(ctx, userID, private); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, domainerrors.NotFound("user not found")
		}
		return nil, fmt.Errorf("set privacy: %w", err)
	}
	s.logger.Info("profile privacy changed", "user_id", userID, "private", private)
	return s.GetByID(ctx, userID)
}

// Follow makes followerID follow the named user. Following a private
// profile creates a pending request; public profiles accept immediately.
// Re-following never downgrades an accepted edge.
func (s *UserService) Follow(ctx context.Context, followerID, username string) (*domain.Follow, error) {
	var follow *domain.Follow

	err := s.store.InTx(ctx, func(tx store.Store) error {
		target, err := lookupUser(ctx, tx, username)
		if err != nil {
			return err
		}
		if target.ID == followerID {
			return domainerrors.Validation("you cannot follow yourself")
		}

		blocked, err := tx.IsBlocked(ctx, followerID, target.ID)
		if err != nil {
			return err
		}
		if blocked {
			return domainerrors.Forbiddenf("you cannot follow %s", username)
		}

		existing, err := tx.GetFollow(ctx, followerID, target.ID)
		switch {
		case err == nil && existing.Status == domain.FollowAccepted:
			follow = existing
			return nil
		case err != nil && !errors.Is(err, store.ErrNotFound):
			return err
		}

		status := domain.FollowAccepted
		if target.IsPrivate {
			status = domain.FollowPending
		}
		follow = &domain.Follow{
			FollowerID: followerID,
			FolloweeID: target.ID,
			Status:     status,
			CreatedAt:  time.Now(),
		}
		return tx.UpsertFollow(ctx, follow)
	})
	if err != nil {
		return nil, fmt.Errorf("follow: %w", err)
	}

	s.logger.Info("follow recorded", "follower_id", followerID, "followee_id", follow.FolloweeID, "status", follow.Status)
	return follow, nil
}

// Unfollow removes followerID's edge to the named user, pending or not.
func (s *UserService) Unfollow(ctx context.Context, followerID, username string) error {
	target, err := lookupUser(ctx, s.store, username)
	if err != nil {
		return err
	}
	return s.store.DeleteFollow(ctx, followerID, target.ID)
}

// AcceptFollower approves a pending request from the named user to ownerID.
func (s *UserService) AcceptFollower(ctx context.Context, ownerID, username string) (*domain.Follow, error) {
	var follow *domain.Follow

	err := s.store.InTx(ctx, func(tx store.Store) error {
		follower, err := lookupUser(ctx, tx, username)
		if err != nil {
			return err
		}
		follow, err = tx.GetFollow(ctx, follower.ID, ownerID)
		if errors.Is(err, store.ErrNotFound) {
			return domainerrors.NotFoundf("no follow request from %q", username)
		}
		if err != nil {
			return err
		}
		if follow.Status == domain.FollowAccepted {
			return nil
		}
		follow.Status = domain.FollowAccepted
		return tx.UpsertFollow(ctx, follow)
	})
	if err != nil {
		return nil, fmt.Errorf("accept follower: %w", err)
	}

	s.logger.Info("follow accepted", "owner_id", ownerID, "follower_id", follow.FollowerID)
	return follow, nil
}

// Block hides blockerID and the named user from each other and drops any
// follow edges between them.
func (s *UserService) Block(ctx context.Context, blockerID, username string) error {
	err := s.store.InTx(ctx, func(tx store.Store) error {
		target, err := lookupUser(ctx, tx, username)
		if err != nil {
			return err
		}
		if target.ID == blockerID {
			return domainerrors.Validation("you cannot block yourself")
		}

		if err := tx.CreateBlock(ctx, &domain.Block{
			BlockerID: blockerID,
			BlockedID: target.ID,
			CreatedAt: time.Now(),
		}); err != nil {
			return err
		}
		if err := tx.DeleteFollow(ctx, blockerID, target.ID); err != nil {
			return err
		}
		return tx.DeleteFollow(ctx, target.ID, blockerID)
	})
	if err != nil {
		return fmt.Errorf("block: %w", err)
	}

	s.logger.Info("user blocked", "blocker_id", blockerID, "blocked", username)
	return nil
}

// Unblock lifts blockerID's block on the named user.
func (s *UserService) Unblock(ctx context.Context, blockerID, username string) error {
	target, err := lookupUser(ctx, s.store, username)
	if err != nil {
		return err
	}
	if err := s.store.DeleteBlock(ctx, blockerID, target.ID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return domainerrors.NotFoundf("%q is not blocked", username)
		}
		return fmt.Errorf("unblock: %w", err)
	}
	return nil
}
