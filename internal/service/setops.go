package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/shelfwise/shelfwise-server/internal/domain"
	domainerrors "github.com/shelfwise/shelfwise-server/internal/errors"
	"github.com/shelfwise/shelfwise-server/internal/slug"
	"github.com/shelfwise/shelfwise-server/internal/store"
)

// DefaultMaxOperandItems caps how many items are read from one operand shelf.
const DefaultMaxOperandItems = 10000

// SetOperationEngine combines shelves with union, intersect and difference.
type SetOperationEngine struct {
	store        store.Store
	guard        *AccessGuard
	materializer *ResultMaterializer
	logger       *slog.Logger
	maxItems     int
}

// NewSetOperationEngine creates an engine. maxOperandItems <= 0 selects
// DefaultMaxOperandItems.
func NewSetOperationEngine(store store.Store, guard *AccessGuard, materializer *ResultMaterializer, logger *slog.Logger, maxOperandItems int) *SetOperationEngine {
	if maxOperandItems <= 0 {
		maxOperandItems = DefaultMaxOperandItems
	}
	return &SetOperationEngine{
		store:        store,
		guard:        guard,
		materializer: materializer,
		logger:       logger,
		maxItems:     maxOperandItems,
	}
}

// resolvedOperand is an operand after owner and shelf lookup.
type resolvedOperand struct {
	owner *domain.User
	shelf *domain.Shelf
}

// Compute runs req on behalf of requesterID.
//
// Everything happens in one transaction: operand owners are resolved, every
// owner is access-checked before any shelf is read, shelves are resolved and
// their items loaded, and the combined result is optionally saved. Any
// failure, including ctx cancellation, rolls the whole request back.
func (e *SetOperationEngine) Compute(ctx context.Context, requesterID string, req domain.SetOperationRequest) (*domain.SetOperationResult, error) {
	if err := validateSetOperation(req); err != nil {
		return nil, err
	}
	if req.SaveAs != nil && requesterID == "" {
		return nil, domainerrors.Unauthorized("sign in to save a result")
	}

	start := time.Now()
	var result *domain.SetOperationResult

	err := e.store.InTx(ctx, func(tx store.Store) error {
		operands, err := e.resolveOwners(ctx, tx, req.Operands)
		if err != nil {
			return err
		}

		// All owners are checked before anything is loaded.
		checked := make(map[string]struct{}, len(operands))
		for _, op := range operands {
			if _, ok := checked[op.owner.ID]; ok {
				continue
			}
			if err := e.guard.in(tx).Require(ctx, requesterID, op.owner); err != nil {
				return err
			}
			checked[op.owner.ID] = struct{}{}
		}

		if err := e.resolveShelves(ctx, tx, req.Operands, operands); err != nil {
			return err
		}

		lists := make([][]string, len(operands))
		for i, op := range operands {
			if err := ctx.Err(); err != nil {
				return err
			}
			lists[i], err = e.loadOperand(ctx, tx, i, op.shelf)
			if err != nil {
				return err
			}
		}

		ids, err := domain.Combine(req.Operation, lists)
		if err != nil {
			return domainerrors.Validation(err.Error())
		}

		result = &domain.SetOperationResult{Operation: req.Operation}

		if req.SaveAs == nil {
			result.Books, err = hydrate(ctx, tx, ids)
			return err
		}

		shelf, err := e.materializer.Materialize(ctx, tx, requesterID, *req.SaveAs, ids)
		if err != nil {
			return err
		}
		result.Shelf = shelf
		result.Saved = true
		result.Books, err = tx.ListShelfItems(ctx, shelf.ID)
		return err
	})
	if err != nil {
		e.logger.Debug("set operation rejected",
			"operation", req.Operation,
			"code", domainerrors.CodeOf(err),
			"error", err,
		)
		return nil, err
	}

	e.logger.Info("set operation computed",
		"operation", req.Operation,
		"operands", len(req.Operands),
		"results", len(result.Books),
		"saved", result.Saved,
		"duration_ms", time.Since(start).Milliseconds(),
	)
	return result, nil
}

func validateSetOperation(req domain.SetOperationRequest) error {
	if _, err := domain.ParseSetOperation(string(req.Operation)); err != nil {
		return domainerrors.Validationf("unknown operation %q; expected union, intersect or difference", req.Operation)
	}
	if need := req.Operation.MinOperands(); len(req.Operands) < need {
		return domainerrors.ValidationWithDetails(
			fmt.Sprintf("%s needs at least %d shelves", req.Operation, need),
			map[string]any{"operation": req.Operation, "min_operands": need, "got": len(req.Operands)},
		)
	}
	for i, op := range req.Operands {
		if op.OwnerID == "" && op.OwnerUsername == "" {
			return domainerrors.Validationf("operand %d has no owner", i+1)
		}
		if op.ShelfID == "" && op.ShelfSlug == "" {
			return domainerrors.Validationf("operand %d has no shelf", i+1)
		}
	}
	if req.SaveAs != nil {
		if req.SaveAs.Name == "" {
			return domainerrors.ValidationWithDetails("validation failed", map[string]string{
				"save_as.name": "is required",
			})
		}
		if req.SaveAs.Slug != "" && !slug.Valid(req.SaveAs.Slug) {
			return domainerrors.ValidationWithDetails("validation failed", map[string]string{
				"save_as.slug": "must contain only lowercase letters, digits and hyphens",
			})
		}
	}
	return nil
}

func (e *SetOperationEngine) resolveOwners(ctx context.Context, tx store.Store, ops []domain.Operand) ([]resolvedOperand, error) {
	byKey := make(map[string]*domain.User)
	out := make([]resolvedOperand, len(ops))

	for i, op := range ops {
		key := "id:" + op.OwnerID
		if op.OwnerID == "" {
			key = "name:" + op.OwnerUsername
		}
		if u, ok := byKey[key]; ok {
			out[i].owner = u
			continue
		}

		var (
			u   *domain.User
			err error
		)
		if op.OwnerID != "" {
			u, err = tx.GetUser(ctx, op.OwnerID)
		} else {
			u, err = tx.GetUserByUsername(ctx, op.OwnerUsername)
		}
		if errors.Is(err, store.ErrNotFound) {
			return nil, domainerrors.NotFoundf("operand %d: user not found", i+1).
				WithDetails(map[string]any{"index": i})
		}
		if err != nil {
			return nil, fmt.Errorf("resolve operand owner: %w", err)
		}

		byKey[key] = u
		out[i].owner = u
	}
	return out, nil
}

func (e *SetOperationEngine) resolveShelves(ctx context.Context, tx store.Store, ops []domain.Operand, resolved []resolvedOperand) error {
	for i, op := range ops {
		owner := resolved[i].owner

		var (
			shelf *domain.Shelf
			err   error
		)
		if op.ShelfID != "" {
			shelf, err = tx.GetShelf(ctx, op.ShelfID)
			if err == nil && shelf.OwnerID != owner.ID {
				err = store.ErrNotFound
			}
		} else {
			shelf, err = tx.GetShelfBySlug(ctx, owner.ID, op.ShelfSlug)
		}
		if errors.Is(err, store.ErrNotFound) {
			return domainerrors.NotFoundf("operand %d: shelf not found for %s", i+1, owner.Username).
				WithDetails(map[string]any{"index": i})
		}
		if err != nil {
			return fmt.Errorf("resolve operand shelf: %w", err)
		}
		resolved[i].shelf = shelf
	}
	return nil
}

// loadOperand reads one shelf's book IDs, failing rather than truncating
// when the shelf holds more than the cap.
func (e *SetOperationEngine) loadOperand(ctx context.Context, tx store.Store, index int, shelf *domain.Shelf) ([]string, error) {
	ids, err := tx.ListShelfBookIDs(ctx, shelf.ID, e.maxItems+1)
	if err != nil {
		return nil, fmt.Errorf("load operand %d: %w", index+1, err)
	}
	if len(ids) > e.maxItems {
		return nil, domainerrors.ValidationWithDetails(
			fmt.Sprintf("shelf %q has more than %d books", shelf.Slug, e.maxItems),
			map[string]any{"index": index, "shelf": shelf.Slug, "max_items": e.maxItems},
		)
	}
	return ids, nil
}

// hydrate turns ordered book IDs into summaries, keeping the order.
func hydrate(ctx context.Context, tx store.Store, ids []string) ([]domain.BookSummary, error) {
	books, err := tx.GetBooks(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("load books: %w", err)
	}

	out := make([]domain.BookSummary, 0, len(ids))
	for _, bookID := range ids {
		b, ok := books[bookID]
		if !ok {
			continue
		}
		out = append(out, b.Summary())
	}
	return out, nil
}
