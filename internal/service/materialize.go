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
)

// ResultMaterializer saves a set-operation result as a new shelf.
type ResultMaterializer struct {
	logger *slog.Logger
	now    func() time.Time
}

// NewResultMaterializer creates a materializer.
func NewResultMaterializer(logger *slog.Logger) *ResultMaterializer {
	return &ResultMaterializer{logger: logger, now: time.Now}
}

// Materialize creates a set_operation shelf owned by ownerID holding
// bookIDs in order. Items get strictly increasing added_at values one
// millisecond apart so the saved shelf reads back in result order.
//
// It runs on tx; the caller owns the transaction.
func (m *ResultMaterializer) Materialize(ctx context.Context, tx store.Store, ownerID string, saveAs domain.SaveAs, bookIDs []string) (*domain.Shelf, error) {
	shelfSlug, err := resolveSlug(saveAs.Slug, saveAs.Name)
	if err != nil {
		return nil, err
	}

	shelfID, err := id.Generate("shelf")
	if err != nil {
		return nil, fmt.Errorf("generate shelf ID: %w", err)
	}

	base := m.now()
	shelf := &domain.Shelf{
		ID:             shelfID,
		OwnerID:        ownerID,
		Name:           saveAs.Name,
		Slug:           shelfSlug,
		CollectionType: domain.CollectionSetOperation,
		CreatedAt:      base,
		UpdatedAt:      base,
	}

	if err := tx.CreateShelf(ctx, shelf); err != nil {
		if errors.Is(err, store.ErrAlreadyExists) {
			return nil, domainerrors.Conflictf("you already have a shelf named %q", shelfSlug)
		}
		return nil, fmt.Errorf("create result shelf: %w", err)
	}

	items := make([]domain.ShelfItem, len(bookIDs))
	for i, bookID := range bookIDs {
		items[i] = domain.ShelfItem{
			ShelfID: shelf.ID,
			BookID:  bookID,
			AddedAt: base.Add(time.Duration(i) * time.Millisecond),
		}
	}
	if err := tx.AddShelfItems(ctx, items); err != nil {
		return nil, fmt.Errorf("add result items: %w", err)
	}
	shelf.ItemCount = len(items)

	m.logger.Info("set-operation result saved",
		"shelf_id", shelf.ID,
		"owner_id", ownerID,
		"slug", shelf.Slug,
		"items", len(items),
	)
	return shelf, nil
}
