package domain

import (
	"errors"
	"fmt"
)

// SetOperation combines the book lists of several shelves.
type SetOperation string

const (
	// OpUnion keeps every book found in any operand.
	OpUnion SetOperation = "union"
	// OpIntersect keeps books found in every operand.
	OpIntersect SetOperation = "intersect"
	// OpDifference keeps books of the first operand found in no other operand.
	OpDifference SetOperation = "difference"
)

// ErrUnknownOperation is returned for an operation outside the closed set.
var ErrUnknownOperation = errors.New("unknown set operation")

// ParseSetOperation maps a wire name onto a SetOperation.
func ParseSetOperation(s string) (SetOperation, error) {
	switch op := SetOperation(s); op {
	case OpUnion, OpIntersect, OpDifference:
		return op, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownOperation, s)
	}
}

// MinOperands is the fewest operands the operation accepts.
func (op SetOperation) MinOperands() int {
	switch op {
	case OpUnion:
		return 1
	case OpIntersect, OpDifference:
		return 2
	default:
		return 0
	}
}

// Operand identifies one input shelf. The owner is given by ID or by
// username, the shelf by ID or by slug.
type Operand struct {
	OwnerID       string `json:"owner_id,omitempty"`
	OwnerUsername string `json:"owner_username,omitempty"`
	ShelfID       string `json:"shelf_id,omitempty"`
	ShelfSlug     string `json:"shelf_slug,omitempty"`
}

// SaveAs asks for the result to be stored as a new shelf owned by the requester.
// An empty Slug is derived from Name.
type SaveAs struct {
	Name string `json:"name"`
	Slug string `json:"slug,omitempty"`
}

// SetOperationRequest is a full set-operation call.
type SetOperationRequest struct {
	SaveAs    *SaveAs      `json:"save_as,omitempty"`
	Operation SetOperation `json:"operation"`
	Operands  []Operand    `json:"operands"`
}

// SetOperationResult is the combined, ordered list of books. Shelf is set
// only when the result was saved.
type SetOperationResult struct {
	Shelf     *Shelf        `json:"shelf,omitempty"`
	Operation SetOperation  `json:"operation"`
	Books     []BookSummary `json:"books"`
	Saved     bool          `json:"saved"`
}

// Combine applies op to the ordered book ID lists of its operands.
//
// Union lists the first operand's books in order, then each later operand's
// unseen books in that operand's order. Intersect and difference keep the
// first operand's order. Each book appears at most once in the output.
func Combine(op SetOperation, operands [][]string) ([]string, error) {
	if need := op.MinOperands(); need > 0 && len(operands) < need {
		return nil, fmt.Errorf("%s needs at least %d operands, got %d", op, need, len(operands))
	}

	switch op {
	case OpUnion:
		return union(operands), nil
	case OpIntersect:
		return intersect(operands), nil
	case OpDifference:
		return difference(operands), nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownOperation, string(op))
	}
}

func union(operands [][]string) []string {
	seen := make(map[string]struct{})
	out := make([]string, 0, len(operands[0]))
	for _, ids := range operands {
		for _, id := range ids {
			if _, ok := seen[id]; ok {
				continue
			}
			seen[id] = struct{}{}
			out = append(out, id)
		}
	}
	return out
}

func intersect(operands [][]string) []string {
	rest := make([]map[string]struct{}, 0, len(operands)-1)
	for _, ids := range operands[1:] {
		rest = append(rest, toSet(ids))
	}

	emitted := make(map[string]struct{})
	out := make([]string, 0)
next:
	for _, id := range operands[0] {
		if _, ok := emitted[id]; ok {
			continue
		}
		for _, set := range rest {
			if _, ok := set[id]; !ok {
				continue next
			}
		}
		emitted[id] = struct{}{}
		out = append(out, id)
	}
	return out
}

func difference(operands [][]string) []string {
	excluded := make(map[string]struct{})
	for _, ids := range operands[1:] {
		for _, id := range ids {
			excluded[id] = struct{}{}
		}
	}

	out := make([]string, 0)
	for _, id := range operands[0] {
		if _, ok := excluded[id]; ok {
			continue
		}
		excluded[id] = struct{}{}
		out = append(out, id)
	}
	return out
}

func toSet(ids []string) map[string]struct{} {
	set := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		set[id] = struct{}{}
	}
	return set
}
