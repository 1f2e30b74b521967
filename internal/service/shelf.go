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

// CreateShelfRequest creates a custom shelf.
type CreateShelfRequest struct {
	Name           string `json:"name" validate:"required,max=100"`
	Slug           string `json:"slug,omitempty" validate:"omitempty,slug"`
	ExclusiveGroup string `json:"exclusive_group,omitempty" validate:"omitempty,slug"`
}

// AddBookRequest places a book on a shelf.
type AddBookRequest struct {
	BookID         string   `json:"book_id" validate:"required"`
	Rating         *int     `json:"rating,omitempty" validate:"omitempty,gte=1,lte=5"`
	SeriesPosition *float64 `json:"series_position,omitempty"`
}

// ShelfService manages shelves and their items.
type ShelfService struct {
	store     store.Store
	guard     *AccessGuard
	validator *validation.Validator
	logger    *slog.Logger
}

// NewShelfService creates a shelf service.
func NewShelfService(store store.Store, guard *AccessGuard, validator *validation.Validator, logger *slog.Logger) *ShelfService {
	return &ShelfService{store: store, guard: guard, validator: validator, logger: logger}
}

// CreateShelf creates a custom shelf for ownerID.
func (s *ShelfService) CreateShelf(ctx context.Context, ownerID string, req CreateShelfRequest) (*domain.Shelf, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := s.validator.Validate(req); err != nil {
		return nil, err
	}

	shelfSlug, err := resolveSlug(req.Slug, req.Name)
	if err != nil {
		return nil, err
	}
	if req.ExclusiveGroup == domain.ReadingStatusGroup {
		return nil, domainerrors.Validationf("the %q group is reserved", domain.ReadingStatusGroup)
	}

	shelfID, err := id.Generate("shelf")
	if err != nil {
		return nil, fmt.Errorf("generate shelf ID: %w", err)
	}

	now := time.Now()
	shelf := &domain.Shelf{
		ID:             shelfID,
		OwnerID:        ownerID,
		Name:           req.Name,
		Slug:           shelfSlug,
		ExclusiveGroup: req.ExclusiveGroup,
		CollectionType: domain.CollectionCustom,
		CreatedAt:      now,
		UpdatedAt:      now,
	}

	if err := s.store.CreateShelf(ctx, shelf); err != nil {
		if errors.Is(err, store.ErrAlreadyExists) {
			return nil, domainerrors.Conflictf("you already have a shelf named %q", shelfSlug)
		}
		return nil, fmt.Errorf("create shelf: %w", err)
	}

	s.logger.Info("shelf created", "shelf_id", shelf.ID, "owner_id", ownerID, "slug", shelf.Slug)
	return shelf, nil
}

// DeleteShelf removes one of ownerID's shelves. Reading-status shelves stay.
func (s *ShelfService) DeleteShelf(ctx context.Context, ownerID, shelfSlug string) error {
	return s.store.InTx(ctx, func(tx store.Store) error {
		shelf, err := getOwnShelf(ctx, tx, ownerID, shelfSlug)
		if err != nil {
			return err
		}
		if shelf.CollectionType == domain.CollectionReadingStatus {
			return domainerrors.Validation("reading-status shelves cannot be deleted")
		}
		if err := tx.DeleteShelf(ctx, shelf.ID); err != nil {
			return fmt.Errorf("delete shelf: %w", err)
		}
		s.logger.Info("shelf deleted", "shelf_id", shelf.ID, "owner_id", ownerID)
		return nil
	})
}

// AddBook places a book on one of ownerID's shelves. When the shelf belongs
// to an exclusive group the book leaves the group's other shelves in the
// same transaction.
func (s *ShelfService) AddBook(ctx context.Context, ownerID, shelfSlug string, req AddBookRequest) (*domain.ShelfItem, error) {
	if err := s.validator.Validate(req); err != nil {
		return nil, err
	}

	item := &domain.ShelfItem{
		BookID:         req.BookID,
		AddedAt:        time.Now(),
		Rating:         req.Rating,
		SeriesPosition: req.SeriesPosition,
	}

	err := s.store.InTx(ctx, func(tx store.Store) error {
		shelf, err := getOwnShelf(ctx, tx, ownerID, shelfSlug)
		if err != nil {
			return err
		}
		item.ShelfID = shelf.ID

		// Saved set-operation results carry synthetic timestamps that can run
		// ahead of the clock; new items always go to the end.
		last, err := tx.LastShelfItemAt(ctx, shelf.ID)
		if err != nil {
			return err
		}
		if !item.AddedAt.After(last) {
			item.AddedAt = last.Add(time.Millisecond)
		}

		if _, err := tx.GetBook(ctx, req.BookID); err != nil {
			if errors.Is(err, store.ErrNotFound) {
				return domainerrors.NotFoundf("book %q not found", req.BookID)
			}
			return err
		}

		if shelf.ExclusiveGroup != "" {
			moved, err := tx.RemoveFromExclusiveGroup(ctx, ownerID, shelf.ExclusiveGroup, req.BookID, shelf.ID)
			if err != nil {
				return err
			}
			if moved > 0 {
				s.logger.Debug("book left exclusive group shelves", "book_id", req.BookID, "group", shelf.ExclusiveGroup)
			}
		}

		if err := tx.AddShelfItems(ctx, []domain.ShelfItem{*item}); err != nil {
			if errors.Is(err, store.ErrAlreadyExists) {
				return domainerrors.Conflict("book is already on this shelf")
			}
			return err
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("add book to shelf: %w", err)
	}

	s.logger.Info("book added to shelf", "shelf_id", item.ShelfID, "book_id", item.BookID)
	return item, nil
}

// RemoveBook takes a book off one of ownerID's shelves.
func (s *ShelfService) RemoveBook(ctx context.Context, ownerID, shelfSlug, bookID string) error {
	return s.store.InTx(ctx, func(tx store.Store) error {
		shelf, err := getOwnShelf(ctx, tx, ownerID, shelfSlug)
		if err != nil {
			return err
		}
		if err := tx.RemoveShelfItem(ctx, shelf.ID, bookID); err != nil {
			if errors.Is(err, store.ErrNotFound) {
				return domainerrors.NotFound("book is not on this shelf")
			}
			return err
		}
		return nil
	})
}

// ListShelves returns username's shelves as visible to requesterID. A
// requester who may not view the owner gets an empty list.
func (s *ShelfService) ListShelves(ctx context.Context, requesterID, username string) ([]*domain.Shelf, error) {
	shelves := []*domain.Shelf{}
	err := s.store.InTx(ctx, func(tx store.Store) error {
		owner, err := lookupUser(ctx, tx, username)
		if err != nil {
			return err
		}

		ok, err := s.guard.in(tx).CanView(ctx, requesterID, owner, nil)
		if err != nil {
			return err
		}
		if !ok {
			return nil
		}

		shelves, err = tx.ListShelves(ctx, owner.ID)
		if err != nil {
			return fmt.Errorf("list shelves: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return shelves, nil
}

// GetShelf returns one of username's shelves with its books.
func (s *ShelfService) GetShelf(ctx context.Context, requesterID, username, shelfSlug string) (*domain.Shelf, []domain.BookSummary, error) {
	var (
		shelf *domain.Shelf
		items []domain.BookSummary
	)
	err := s.store.InTx(ctx, func(tx store.Store) error {
		owner, err := lookupUser(ctx, tx, username)
		if err != nil {
			return err
		}
		if err := s.guard.in(tx).Require(ctx, requesterID, owner); err != nil {
			return err
		}

		shelf, err = getOwnShelf(ctx, tx, owner.ID, shelfSlug)
		if err != nil {
			return err
		}
		items, err = tx.ListShelfItems(ctx, shelf.ID)
		if err != nil {
			return fmt.Errorf("list shelf items: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, nil, err
	}
	return shelf, items, nil
}

func getOwnShelf(ctx context.Context, st store.Store, ownerID, shelfSlug string) (*domain.Shelf, error) {
	shelf, err := st.GetShelfBySlug(ctx, ownerID, shelfSlug)
	if errors.Is(err, store.ErrNotFound) {
		return nil, domainerrors.NotFoundf("shelf %q not found", shelfSlug)
	}
	if err != nil {
		return nil, fmt.Errorf("get shelf: %w", err)
	}
	return shelf, nil
}
