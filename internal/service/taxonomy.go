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
	"github.com/shelfwise/shelfwise-server/internal/slug"
	"github.com/shelfwise/shelfwise-server/internal/store"
	"github.com/shelfwise/shelfwise-server/internal/validation"
)

// MaxLabelDepth bounds how deep a value tree may grow. Ancestor walks stop
// here, so a corrupted parent chain cannot loop forever.
const MaxLabelDepth = 32

// CreateKeyRequest creates a label key.
type CreateKeyRequest struct {
	Name string         `json:"name" validate:"required,max=100"`
	Slug string         `json:"slug,omitempty" validate:"omitempty,slug"`
	Mode domain.KeyMode `json:"mode" validate:"required,oneof=select_one select_multiple"`
}

// CreateValueRequest creates a label value. An empty ParentValueID places
// the value at the top of the key.
type CreateValueRequest struct {
	Name          string `json:"name" validate:"required,max=100"`
	Slug          string `json:"slug,omitempty" validate:"omitempty,slug"`
	ParentValueID string `json:"parent_value_id,omitempty"`
}

// TaxonomyService manages each user's label keys, values and book assignments.
type TaxonomyService struct {
	store     store.Store
	validator *validation.Validator
	logger    *slog.Logger
}

// NewTaxonomyService creates a taxonomy service.
func NewTaxonomyService(store store.Store, validator *validation.Validator, logger *slog.Logger) *TaxonomyService {
	return &TaxonomyService{store: store, validator: validator, logger: logger}
}

// CreateKey creates a label key owned by ownerID.
func (s *TaxonomyService) CreateKey(ctx context.Context, ownerID string, req CreateKeyRequest) (*domain.TagKey, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := s.validator.Validate(req); err != nil {
		return nil, err
	}

	keySlug, err := resolveSlug(req.Slug, req.Name)
	if err != nil {
		return nil, err
	}

	keyID, err := id.Generate("tagkey")
	if err != nil {
		return nil, fmt.Errorf("generate key ID: %w", err)
	}

	now := time.Now()
	key := &domain.TagKey{
		ID:        keyID,
		OwnerID:   ownerID,
		Name:      req.Name,
		Slug:      keySlug,
		Mode:      req.Mode,
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := s.store.CreateTagKey(ctx, key); err != nil {
		if errors.Is(err, store.ErrAlreadyExists) {
			return nil, domainerrors.Conflictf("label key %q already exists", keySlug)
		}
		if errors.Is(err, store.ErrNotFound) {
			return nil, domainerrors.NotFound("user not found")
		}
		return nil, fmt.Errorf("create tag key: %w", err)
	}

	s.logger.Info("label key created", "key_id", key.ID, "owner_id", ownerID, "slug", keySlug, "mode", key.Mode)
	return key, nil
}

// ListKeys returns ownerID's label keys.
func (s *TaxonomyService) ListKeys(ctx context.Context, ownerID string) ([]*domain.TagKey, error) {
	keys, err := s.store.ListTagKeys(ctx, ownerID)
	if err != nil {
		return nil, fmt.Errorf("list tag keys: %w", err)
	}
	return keys, nil
}

// DeleteKey removes a key along with its values and assignments.
func (s *TaxonomyService) DeleteKey(ctx context.Context, ownerID, keySlug string) error {
	return s.store.InTx(ctx, func(tx store.Store) error {
		key, err := getKey(ctx, tx, ownerID, keySlug)
		if err != nil {
			return err
		}
		if err := tx.DeleteTagKey(ctx, key.ID); err != nil {
			return fmt.Errorf("delete tag key: %w", err)
		}
		s.logger.Info("label key deleted", "key_id", key.ID, "owner_id", ownerID)
		return nil
	})
}

// CreateValue adds a value under keySlug.
func (s *TaxonomyService) CreateValue(ctx context.Context, ownerID, keySlug string, req CreateValueRequest) (*domain.TagValue, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := s.validator.Validate(req); err != nil {
		return nil, err
	}

	valueSlug, err := resolveSlug(req.Slug, req.Name)
	if err != nil {
		return nil, err
	}

	valueID, err := id.Generate("tagval")
	if err != nil {
		return nil, fmt.Errorf("generate value ID: %w", err)
	}

	value := &domain.TagValue{
		ID:        valueID,
		Name:      req.Name,
		Slug:      valueSlug,
		ParentID:  req.ParentValueID,
		CreatedAt: time.Now(),
	}

	err = s.store.InTx(ctx, func(tx store.Store) error {
		key, err := getKey(ctx, tx, ownerID, keySlug)
		if err != nil {
			return err
		}
		value.KeyID = key.ID

		if value.ParentID != "" {
			if _, err := getValue(ctx, tx, key.ID, value.ParentID); err != nil {
				return err
			}
			depth, err := placementDepth(ctx, tx, value.ID, value.ParentID)
			if err != nil {
				return err
			}
			if depth+1 > MaxLabelDepth {
				return errTooDeep()
			}
		}

		if err := tx.CreateTagValue(ctx, value); err != nil {
			if errors.Is(err, store.ErrAlreadyExists) {
				return domainerrors.Conflictf("label %q already exists at this level", valueSlug)
			}
			return fmt.Errorf("create tag value: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("label value created", "value_id", value.ID, "key_id", value.KeyID, "parent_id", value.ParentID)
	return value, nil
}

// MoveValue reparents valueID under newParentID (empty for the key root).
// Moving a value beneath itself or one of its descendants fails, as does a
// move that would push any part of its subtree past MaxLabelDepth.
func (s *TaxonomyService) MoveValue(ctx context.Context, ownerID, keySlug, valueID, newParentID string) (*domain.TagValue, error) {
	var value *domain.TagValue

	err := s.store.InTx(ctx, func(tx store.Store) error {
		key, err := getKey(ctx, tx, ownerID, keySlug)
		if err != nil {
			return err
		}
		value, err = getValue(ctx, tx, key.ID, valueID)
		if err != nil {
			return err
		}

		if newParentID != "" {
			if _, err := getValue(ctx, tx, key.ID, newParentID); err != nil {
				return err
			}
			depth, err := placementDepth(ctx, tx, value.ID, newParentID)
			if err != nil {
				return err
			}
			height, err := tx.TagValueHeight(ctx, value.ID, MaxLabelDepth)
			if err != nil {
				return fmt.Errorf("measure subtree: %w", err)
			}
			if depth+height > MaxLabelDepth {
				return errTooDeep()
			}
		}

		if err := tx.SetTagValueParent(ctx, value.ID, newParentID); err != nil {
			if errors.Is(err, store.ErrAlreadyExists) {
				return domainerrors.Conflictf("label %q already exists at the destination", value.Slug)
			}
			return fmt.Errorf("reparent tag value: %w", err)
		}
		value.ParentID = newParentID
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("label value moved", "value_id", value.ID, "parent_id", newParentID)
	return value, nil
}

// DeleteValue removes a value and its descendants.
func (s *TaxonomyService) DeleteValue(ctx context.Context, ownerID, keySlug, valueID string) error {
	return s.store.InTx(ctx, func(tx store.Store) error {
		key, err := getKey(ctx, tx, ownerID, keySlug)
		if err != nil {
			return err
		}
		if _, err := getValue(ctx, tx, key.ID, valueID); err != nil {
			return err
		}
		if err := tx.DeleteTagValue(ctx, valueID); err != nil {
			return fmt.Errorf("delete tag value: %w", err)
		}
		s.logger.Info("label value deleted", "value_id", valueID, "key_id", key.ID)
		return nil
	})
}

// Assign labels bookID with valueID. Under a select_one key any previous
// value of that key is dropped in the same transaction; under
// select_multiple an existing assignment is left as is.
func (s *TaxonomyService) Assign(ctx context.Context, ownerID, bookID, keySlug, valueID string) error {
	err := s.store.InTx(ctx, func(tx store.Store) error {
		key, err := getKey(ctx, tx, ownerID, keySlug)
		if err != nil {
			return err
		}
		if _, err := getValue(ctx, tx, key.ID, valueID); err != nil {
			return err
		}
		if _, err := tx.GetBook(ctx, bookID); err != nil {
			if errors.Is(err, store.ErrNotFound) {
				return domainerrors.NotFoundf("book %q not found", bookID)
			}
			return err
		}

		if key.Mode == domain.ModeSelectOne {
			if _, err := tx.DeleteKeyAssignments(ctx, bookID, key.ID); err != nil {
				return err
			}
		}

		err = tx.CreateAssignment(ctx, &domain.BookTagAssignment{
			ID:        id.NewUUID(),
			BookID:    bookID,
			KeyID:     key.ID,
			ValueID:   valueID,
			CreatedAt: time.Now(),
		})
		if errors.Is(err, store.ErrAlreadyExists) {
			return nil
		}
		return err
	})
	if err != nil {
		return fmt.Errorf("assign label: %w", err)
	}

	s.logger.Info("label assigned", "book_id", bookID, "value_id", valueID, "owner_id", ownerID)
	return nil
}

// Unassign removes the label valueID from bookID.
func (s *TaxonomyService) Unassign(ctx context.Context, ownerID, bookID, keySlug, valueID string) error {
	return s.store.InTx(ctx, func(tx store.Store) error {
		key, err := getKey(ctx, tx, ownerID, keySlug)
		if err != nil {
			return err
		}
		if _, err := getValue(ctx, tx, key.ID, valueID); err != nil {
			return err
		}
		if err := tx.DeleteAssignment(ctx, bookID, valueID); err != nil {
			if errors.Is(err, store.ErrNotFound) {
				return domainerrors.NotFound("book does not carry this label")
			}
			return err
		}
		return nil
	})
}

// placementDepth walks up from parentID and returns the number of ancestors
// a value placed there would have. Meeting valueID on the way fails, since
// the move would close a cycle.
func placementDepth(ctx context.Context, tx store.Store, valueID, parentID string) (int, error) {
	depth := 0
	for current := parentID; current != ""; depth++ {
		if current == valueID {
			return 0, domainerrors.Validation("a label cannot be placed beneath itself")
		}
		if depth >= MaxLabelDepth {
			return 0, errTooDeep()
		}
		v, err := tx.GetTagValue(ctx, current)
		if err != nil {
			return 0, fmt.Errorf("walk ancestors: %w", err)
		}
		current = v.ParentID
	}
	return depth, nil
}

func errTooDeep() error {
	return domainerrors.Validationf("labels cannot be nested more than %d levels deep", MaxLabelDepth)
}

func getKey(ctx context.Context, st store.Store, ownerID, keySlug string) (*domain.TagKey, error) {
	key, err := st.GetTagKeyBySlug(ctx, ownerID, keySlug)
	if errors.Is(err, store.ErrNotFound) {
		return nil, domainerrors.NotFoundf("label key %q not found", keySlug)
	}
	if err != nil {
		return nil, fmt.Errorf("get tag key: %w", err)
	}
	return key, nil
}

// getValue loads a value and checks it belongs to keyID.
func getValue(ctx context.Context, st store.Store, keyID, valueID string) (*domain.TagValue, error) {
	v, err := st.GetTagValue(ctx, valueID)
	if errors.Is(err, store.ErrNotFound) || (err == nil && v.KeyID != keyID) {
		return nil, domainerrors.NotFoundf("label value %q not found", valueID)
	}
	if err != nil {
		return nil, fmt.Errorf("get tag value: %w", err)
	}
	return v, nil
}

// resolveSlug uses explicit when given, otherwise derives a slug from name.
func resolveSlug(explicit, name string) (string, error) {
	if explicit != "" {
		return explicit, nil
	}
	s := slug.Make(name)
	if s == "" {
		return "", domainerrors.ValidationWithDetails("validation failed", map[string]string{
			"slug": "could not be derived from the name; provide one explicitly",
		})
	}
	return s, nil
}
