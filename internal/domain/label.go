package domain

import (
	"strings"
	"time"
)

// KeyMode controls how many values of a key a single book may carry.
type KeyMode string

const (
	// ModeSelectOne allows at most one value of the key per book.
	ModeSelectOne KeyMode = "select_one"
	// ModeSelectMultiple allows any number of values per book.
	ModeSelectMultiple KeyMode = "select_multiple"
)

// Valid reports whether m is a known mode.
func (m KeyMode) Valid() bool {
	return m == ModeSelectOne || m == ModeSelectMultiple
}

// TagKey is the root of one user's label hierarchy, e.g. "genres" or "mood".
type TagKey struct {
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
	ID        string    `json:"id"`
	OwnerID   string    `json:"owner_id"`
	Name      string    `json:"name"`
	Slug      string    `json:"slug"`
	Mode      KeyMode   `json:"mode"`
}

// TagValue is a node under a TagKey. ParentID is empty for top-level values.
type TagValue struct {
	CreatedAt time.Time `json:"created_at"`
	ID        string    `json:"id"`
	KeyID     string    `json:"key_id"`
	Name      string    `json:"name"`
	Slug      string    `json:"slug"`
	ParentID  string    `json:"parent_value_id,omitempty"`
}

// IsRoot reports whether the value hangs directly off its key.
func (v *TagValue) IsRoot() bool {
	return v.ParentID == ""
}

// BookTagAssignment links a book to one value of a key.
type BookTagAssignment struct {
	CreatedAt time.Time `json:"created_at"`
	ID        string    `json:"id"`
	BookID    string    `json:"book_id"`
	KeyID     string    `json:"key_id"`
	ValueID   string    `json:"value_id"`
}

// Breadcrumb links to one ancestor of a resolved label node.
type Breadcrumb struct {
	Label string `json:"label"`
	Path  string `json:"path"`
}

// LabelNode is the result of resolving a label path.
// Value is nil when the path addressed the key itself.
type LabelNode struct {
	Key         *TagKey       `json:"key"`
	Value       *TagValue     `json:"value,omitempty"`
	Children    []string      `json:"children"`
	Books       []BookSummary `json:"books"`
	Breadcrumbs []Breadcrumb  `json:"breadcrumbs"`
	ParentPath  *string       `json:"parent_path"`
}

// Path joins the node's segments back into a label path.
func (n *LabelNode) Path() string {
	if len(n.Breadcrumbs) == 0 {
		return ""
	}
	return n.Breadcrumbs[len(n.Breadcrumbs)-1].Path
}

// BuildBreadcrumbs returns one breadcrumb per segment; the i-th path is the
// first i+1 segments joined with "/".
func BuildBreadcrumbs(segments []string) []Breadcrumb {
	crumbs := make([]Breadcrumb, len(segments))
	for i, seg := range segments {
		crumbs[i] = Breadcrumb{
			Label: seg,
			Path:  strings.Join(segments[:i+1], "/"),
		}
	}
	return crumbs
}

// ParentPath returns the path with its last segment dropped, or nil at the
// key root. A single-segment path has the empty string (the key root) as parent.
func ParentPath(segments []string) *string {
	if len(segments) == 0 {
		return nil
	}
	p := strings.Join(segments[:len(segments)-1], "/")
	return &p
}
