package api

import (
	"context"
	"errors"
	"math"
	"net/http"
	"strconv"

	"github.com/danielgtaylor/huma/v2"

	"github.com/shelfwise/shelfwise-server/internal/domain"
	domainerrors "github.com/shelfwise/shelfwise-server/internal/errors"
)

func (s *Server) registerSetOperationRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "shelfSetOperation",
		Method:      http.MethodPost,
		Path:        "/api/v1/me/shelves/set-operation",
		Summary:     "Combine shelves",
		Description: "Computes the union, intersection or difference of shelves the caller may view. " +
			"With save_as the result is stored as a new shelf owned by the caller",
		Tags:     []string{"Shelves"},
		Security: []map[string][]string{{"bearer": {}}},
	}, s.handleSetOperation)
}

// === DTOs ===

// SetOperandRequest names one input shelf.
type SetOperandRequest struct {
	OwnerUsername string `json:"owner_username" minLength:"1" doc:"Shelf owner's username"`
	ShelfSlug     string `json:"shelf_slug" minLength:"1" doc:"Shelf slug"`
}

// SaveAsRequest asks for the result to be saved as a new shelf.
type SaveAsRequest struct {
	Name string `json:"name" doc:"Name of the new shelf"`
	Slug string `json:"slug,omitempty" doc:"Slug of the new shelf, derived from name when omitted"`
}

// SetOperationBody is the request body for a set operation.
type SetOperationBody struct {
	Operation string              `json:"operation" enum:"union,intersect,difference" doc:"Set operation"`
	Shelves   []SetOperandRequest `json:"shelves" doc:"Operand shelves in order"`
	SaveAs    *SaveAsRequest      `json:"save_as,omitempty" doc:"Save the result as a new shelf"`
}

// SetOperationInput wraps the set operation request for Huma.
type SetOperationInput struct {
	Authorization string `header:"Authorization"`
	Body          SetOperationBody
}

// SetOperationResponse is the combined book list.
type SetOperationResponse struct {
	Operation string               `json:"operation" doc:"Set operation"`
	Saved     bool                 `json:"saved" doc:"Whether the result was stored as a shelf"`
	Books     []domain.BookSummary `json:"books" doc:"Resulting books in order"`
	Shelf     *ShelfSummary        `json:"shelf,omitempty" doc:"The new shelf when saved"`
}

// SetOperationOutput wraps the set operation response for Huma.
type SetOperationOutput struct {
	Body SetOperationResponse
}

// === Handlers ===

func (s *Server) handleSetOperation(ctx context.Context, input *SetOperationInput) (*SetOperationOutput, error) {
	userID, err := s.authenticateRequest(ctx, input.Authorization)
	if err != nil {
		return nil, err
	}

	if ok, delay := s.setopLimiter.Reserve(userID); !ok {
		s.logger.Warn("set operation rate limited", "user_id", userID, "retry_after", delay)
		return nil, huma.ErrorWithHeaders(
			domainerrors.RateLimited("too many set operations, try again later"),
			http.Header{"Retry-After": {retryAfter(delay.Seconds())}},
		)
	}

	if s.setopTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.setopTimeout)
		defer cancel()
	}

	req := domain.SetOperationRequest{
		Operation: domain.SetOperation(input.Body.Operation),
		Operands:  make([]domain.Operand, len(input.Body.Shelves)),
	}
	for i, op := range input.Body.Shelves {
		req.Operands[i] = domain.Operand{OwnerUsername: op.OwnerUsername, ShelfSlug: op.ShelfSlug}
	}
	if input.Body.SaveAs != nil {
		req.SaveAs = &domain.SaveAs{Name: input.Body.SaveAs.Name, Slug: input.Body.SaveAs.Slug}
	}

	result, err := s.services.SetOps.Compute(ctx, userID, req)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			s.logger.Warn("set operation timed out", "user_id", userID, "timeout", s.setopTimeout)
			return nil, domainerrors.Internal("set operation timed out")
		}
		return nil, err
	}

	resp := SetOperationResponse{
		Operation: string(result.Operation),
		Saved:     result.Saved,
		Books:     result.Books,
	}
	if resp.Books == nil {
		resp.Books = []domain.BookSummary{}
	}
	if result.Shelf != nil {
		summary := toShelfSummary(result.Shelf)
		resp.Shelf = &summary
	}

	return &SetOperationOutput{Body: resp}, nil
}

// retryAfter renders a delay as whole seconds, never less than one.
func retryAfter(seconds float64) string {
	return strconv.Itoa(max(1, int(math.Ceil(seconds))))
}
