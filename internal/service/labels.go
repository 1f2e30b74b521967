package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"strings"

	"github.com/shelfwise/shelfwise-server/internal/domain"
	domainerrors "github.com/shelfwise/shelfwise-server/internal/errors"
	"github.com/shelfwise/shelfwise-server/internal/recent"
	"github.com/shelfwise/shelfwise-server/internal/store"
)

// ParseLabelPath splits an escaped URL path ("fiction/fantasy") into
// decoded segments. An empty path addresses the key root and yields no
// segments. Empty, "." and ".." segments are rejected, as is any segment
// that decodes to something containing "/"; nothing is normalised away.
func ParseLabelPath(escaped string) ([]string, error) {
	if escaped == "" {
		return nil, nil
	}
	return DecodeLabelSegments(strings.Split(escaped, "/"))
}

// DecodeLabelSegments unescapes and validates raw path segments. Unlike
// ParseLabelPath it never treats a lone empty segment as the key root, so
// a trailing slash is rejected.
func DecodeLabelSegments(raw []string) ([]string, error) {
	if len(raw) == 0 {
		return nil, nil
	}
	segments := make([]string, len(raw))
	for i, r := range raw {
		seg, err := url.PathUnescape(r)
		if err != nil {
			return nil, domainerrors.Validationf("label path segment %d is not valid percent-encoding", i+1)
		}
		segments[i] = seg
	}

	if err := ValidateSegments(segments); err != nil {
		return nil, err
	}
	return segments, nil
}

// ValidateSegments checks already-decoded path segments.
func ValidateSegments(segments []string) error {
	for i, seg := range segments {
		switch {
		case seg == "":
			return domainerrors.Validationf("label path segment %d is empty", i+1)
		case seg == "." || seg == "..":
			return domainerrors.Validationf("label path segment %d (%q) is not allowed", i+1, seg)
		case strings.Contains(seg, "/"):
			return domainerrors.Validationf("label path segment %d contains '/'", i+1)
		}
	}
	return nil
}

// LabelResolver turns (owner, key, path) into a browsable label node.
type LabelResolver struct {
	store  store.Store
	guard  *AccessGuard
	recent *recent.Tracker
	logger *slog.Logger
}

// NewLabelResolver creates a label resolver. tracker may be nil.
func NewLabelResolver(store store.Store, guard *AccessGuard, tracker *recent.Tracker, logger *slog.Logger) *LabelResolver {
	return &LabelResolver{store: store, guard: guard, recent: tracker, logger: logger}
}

// Resolve walks segments from the root of ownerID's key keySlug.
//
// Each segment must name a child of the node before it; the first segment
// that does not fails with NotFound naming that segment. The node's
// children are listed by slug in sorted order. Books are those assigned to
// the node itself, not to its descendants. The walk and both listings read
// one transaction.
func (r *LabelResolver) Resolve(ctx context.Context, ownerID, keySlug string, segments []string) (*domain.LabelNode, error) {
	if err := ValidateSegments(segments); err != nil {
		return nil, err
	}

	var node *domain.LabelNode
	err := r.store.InTx(ctx, func(tx store.Store) error {
		var err error
		node, err = resolveIn(ctx, tx, ownerID, keySlug, segments)
		return err
	})
	if err != nil {
		return nil, err
	}
	return node, nil
}

func resolveIn(ctx context.Context, tx store.Store, ownerID, keySlug string, segments []string) (*domain.LabelNode, error) {
	key, err := getKey(ctx, tx, ownerID, keySlug)
	if err != nil {
		return nil, err
	}

	var (
		value    *domain.TagValue
		parentID string
	)
	for i, seg := range segments {
		child, err := tx.GetChildValue(ctx, key.ID, parentID, seg)
		if errors.Is(err, store.ErrNotFound) {
			return nil, domainerrors.NotFoundf("label %q not found under %q", seg, keySlug+pathSuffix(segments[:i])).
				WithDetails(map[string]any{"segment": seg, "index": i})
		}
		if err != nil {
			return nil, fmt.Errorf("resolve segment %q: %w", seg, err)
		}
		value = child
		parentID = child.ID
	}

	children, err := tx.ListChildSlugs(ctx, key.ID, parentID)
	if err != nil {
		return nil, fmt.Errorf("list children: %w", err)
	}

	books := []domain.BookSummary{}
	if value != nil {
		books, err = tx.ListValueBooks(ctx, value.ID)
		if err != nil {
			return nil, fmt.Errorf("list books: %w", err)
		}
	}

	return &domain.LabelNode{
		Key:         key,
		Value:       value,
		Children:    children,
		Books:       books,
		Breadcrumbs: domain.BuildBreadcrumbs(segments),
		ParentPath:  domain.ParentPath(segments),
	}, nil
}

// ResolveFor resolves username's label path on behalf of requesterID,
// enforcing AccessGuard and recording the view. The guard check shares the
// walk's transaction.
func (r *LabelResolver) ResolveFor(ctx context.Context, requesterID, username, keySlug string, segments []string) (*domain.LabelNode, error) {
	if err := ValidateSegments(segments); err != nil {
		return nil, err
	}

	var (
		owner *domain.User
		node  *domain.LabelNode
	)
	err := r.store.InTx(ctx, func(tx store.Store) error {
		var err error
		owner, err = lookupUser(ctx, tx, username)
		if err != nil {
			return err
		}
		if err := r.guard.in(tx).Require(ctx, requesterID, owner); err != nil {
			return err
		}
		node, err = resolveIn(ctx, tx, owner.ID, keySlug, segments)
		return err
	})
	if err != nil {
		return nil, err
	}

	if r.recent != nil {
		r.recent.Push(requesterID, owner.Username+"/"+keySlug+pathSuffix(segments))
	}
	r.logger.Debug("label path resolved", "owner_id", owner.ID, "key", keySlug, "depth", len(segments))
	return node, nil
}

// ListKeysFor lists username's label keys on behalf of requesterID.
func (r *LabelResolver) ListKeysFor(ctx context.Context, requesterID, username string) ([]*domain.TagKey, error) {
	var keys []*domain.TagKey
	err := r.store.InTx(ctx, func(tx store.Store) error {
		owner, err := lookupUser(ctx, tx, username)
		if err != nil {
			return err
		}
		if err := r.guard.in(tx).Require(ctx, requesterID, owner); err != nil {
			return err
		}
		keys, err = tx.ListTagKeys(ctx, owner.ID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return keys, nil
}

// Recent returns the label paths requesterID viewed most recently.
func (r *LabelResolver) Recent(requesterID string) []recent.Entry {
	if r.recent == nil {
		return []recent.Entry{}
	}
	return r.recent.List(requesterID)
}

func pathSuffix(segments []string) string {
	if len(segments) == 0 {
		return ""
	}
	return "/" + strings.Join(segments, "/")
}
