package api

import (
	"context"
	"net/http"
	"time"

	"github.com/danielgtaylor/huma/v2"

	"github.com/shelfwise/shelfwise-server/internal/domain"
	"github.com/shelfwise/shelfwise-server/internal/service"
)

func (s *Server) registerShelfRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "listUserShelves",
		Method:      http.MethodGet,
		Path:        "/api/v1/users/{username}/shelves",
		Summary:     "List shelves",
		Description: "Returns a user's shelves. Empty when the caller may not view the user",
		Tags:        []string{"Shelves"},
	}, s.handleListUserShelves)

	huma.Register(s.api, huma.Operation{
		OperationID: "getUserShelf",
		Method:      http.MethodGet,
		Path:        "/api/v1/users/{username}/shelves/{slug}",
		Summary:     "Get shelf",
		Description: "Returns a shelf with its books in shelf order",
		Tags:        []string{"Shelves"},
	}, s.handleGetUserShelf)

	huma.Register(s.api, huma.Operation{
		OperationID:   "createShelf",
		Method:        http.MethodPost,
		Path:          "/api/v1/me/shelves",
		Summary:       "Create shelf",
		Description:   "Creates a custom shelf",
		Tags:          []string{"Shelves"},
		Security:      []map[string][]string{{"bearer": {}}},
		DefaultStatus: http.StatusCreated,
	}, s.handleCreateShelf)

	huma.Register(s.api, huma.Operation{
		OperationID:   "deleteShelf",
		Method:        http.MethodDelete,
		Path:          "/api/v1/me/shelves/{slug}",
		Summary:       "Delete shelf",
		Description:   "Deletes a shelf and its items. Reading-status shelves cannot be deleted",
		Tags:          []string{"Shelves"},
		Security:      []map[string][]string{{"bearer": {}}},
		DefaultStatus: http.StatusNoContent,
	}, s.handleDeleteShelf)

	huma.Register(s.api, huma.Operation{
		OperationID:   "addShelfBook",
		Method:        http.MethodPost,
		Path:          "/api/v1/me/shelves/{slug}/books",
		Summary:       "Add book to shelf",
		Description:   "Adds a book to the end of a shelf, leaving other shelves of the same exclusive group",
		Tags:          []string{"Shelves"},
		Security:      []map[string][]string{{"bearer": {}}},
		DefaultStatus: http.StatusCreated,
	}, s.handleAddShelfBook)

	huma.Register(s.api, huma.Operation{
		OperationID:   "removeShelfBook",
		Method:        http.MethodDelete,
		Path:          "/api/v1/me/shelves/{slug}/books/{bookId}",
		Summary:       "Remove book from shelf",
		Description:   "Removes a book from a shelf",
		Tags:          []string{"Shelves"},
		Security:      []map[string][]string{{"bearer": {}}},
		DefaultStatus: http.StatusNoContent,
	}, s.handleRemoveShelfBook)
}

// === DTOs ===

// ShelfSummary contains shelf data in API responses.
type ShelfSummary struct {
	ID             string `json:"id" doc:"Shelf ID"`
	Name           string `json:"name" doc:"Shelf name"`
	Slug           string `json:"slug" doc:"URL-safe slug"`
	ExclusiveGroup string `json:"exclusive_group,omitempty" doc:"Books sit on at most one shelf of this group"`
	CollectionType string `json:"collection_type" doc:"custom, reading_status or set_operation"`
	ItemCount      int    `json:"item_count" doc:"Number of books"`
}

// ListShelvesResponse contains a list of shelves.
type ListShelvesResponse struct {
	Shelves []ShelfSummary `json:"shelves" doc:"Shelves"`
}

// ListShelvesOutput wraps the list response for Huma.
type ListShelvesOutput struct {
	Body ListShelvesResponse
}

// ListUserShelvesInput contains parameters for listing shelves.
type ListUserShelvesInput struct {
	Authorization string `header:"Authorization"`
	Username      string `path:"username" doc:"Owner username"`
}

// GetUserShelfInput contains parameters for getting a shelf.
type GetUserShelfInput struct {
	Authorization string `header:"Authorization"`
	Username      string `path:"username" doc:"Owner username"`
	Slug          string `path:"slug" doc:"Shelf slug"`
}

// ShelfDetailResponse is a shelf with its books.
type ShelfDetailResponse struct {
	Shelf ShelfSummary         `json:"shelf" doc:"Shelf"`
	Books []domain.BookSummary `json:"books" doc:"Books in shelf order"`
}

// ShelfDetailOutput wraps the shelf detail for Huma.
type ShelfDetailOutput struct {
	Body ShelfDetailResponse
}

// CreateShelfRequest is the request body for creating a shelf.
type CreateShelfRequest struct {
	Name           string `json:"name" minLength:"1" maxLength:"100" doc:"Shelf name"`
	Slug           string `json:"slug,omitempty" maxLength:"100" doc:"URL-safe slug, derived from name when omitted"`
	ExclusiveGroup string `json:"exclusive_group,omitempty" maxLength:"100" doc:"Exclusive group slug"`
}

// CreateShelfInput wraps the create shelf request for Huma.
type CreateShelfInput struct {
	Authorization string `header:"Authorization"`
	Body          CreateShelfRequest
}

// ShelfOutput wraps a shelf summary for Huma.
type ShelfOutput struct {
	Body ShelfSummary
}

// OwnShelfInput addresses one of the caller's shelves.
type OwnShelfInput struct {
	Authorization string `header:"Authorization"`
	Slug          string `path:"slug" doc:"Shelf slug"`
}

// AddShelfBookRequest is the request body for adding a book to a shelf.
type AddShelfBookRequest struct {
	BookID         string   `json:"book_id" minLength:"1" doc:"Book ID"`
	Rating         *int     `json:"rating,omitempty" minimum:"1" maximum:"5" doc:"Rating from 1 to 5"`
	SeriesPosition *float64 `json:"series_position,omitempty" doc:"Position within a series"`
}

// AddShelfBookInput wraps the add book request for Huma.
type AddShelfBookInput struct {
	Authorization string `header:"Authorization"`
	Slug          string `path:"slug" doc:"Shelf slug"`
	Body          AddShelfBookRequest
}

// ShelfItemResponse contains shelf item data in API responses.
type ShelfItemResponse struct {
	ShelfID        string    `json:"shelf_id" doc:"Shelf ID"`
	BookID         string    `json:"book_id" doc:"Book ID"`
	AddedAt        time.Time `json:"added_at" doc:"When the book was added"`
	Rating         *int      `json:"rating,omitempty" doc:"Rating from 1 to 5"`
	SeriesPosition *float64  `json:"series_position,omitempty" doc:"Position within a series"`
}

// ShelfItemOutput wraps a shelf item for Huma.
type ShelfItemOutput struct {
	Body ShelfItemResponse
}

// RemoveShelfBookInput contains parameters for removing a book from a shelf.
type RemoveShelfBookInput struct {
	Authorization string `header:"Authorization"`
	Slug          string `path:"slug" doc:"Shelf slug"`
	BookID        string `path:"bookId" doc:"Book ID"`
}

// === Handlers ===

func (s *Server) handleListUserShelves(ctx context.Context, input *ListUserShelvesInput) (*ListShelvesOutput, error) {
	requesterID, err := s.optionalUser(ctx, input.Authorization)
	if err != nil {
		return nil, err
	}

	shelves, err := s.services.Shelves.ListShelves(ctx, requesterID, input.Username)
	if err != nil {
		return nil, err
	}

	resp := make([]ShelfSummary, len(shelves))
	for i, sh := range shelves {
		resp[i] = toShelfSummary(sh)
	}
	return &ListShelvesOutput{Body: ListShelvesResponse{Shelves: resp}}, nil
}

func (s *Server) handleGetUserShelf(ctx context.Context, input *GetUserShelfInput) (*ShelfDetailOutput, error) {
	requesterID, err := s.optionalUser(ctx, input.Authorization)
	if err != nil {
		return nil, err
	}

	shelf, books, err := s.services.Shelves.GetShelf(ctx, requesterID, input.Username, input.Slug)
	if err != nil {
		return nil, err
	}
	if books == nil {
		books = []domain.BookSummary{}
	}

	return &ShelfDetailOutput{Body: ShelfDetailResponse{
		Shelf: toShelfSummary(shelf),
		Books: books,
	}}, nil
}

func (s *Server) handleCreateShelf(ctx context.Context, input *CreateShelfInput) (*ShelfOutput, error) {
	userID, err := s.authenticateRequest(ctx, input.Authorization)
	if err != nil {
		return nil, err
	}

	shelf, err := s.services.Shelves.CreateShelf(ctx, userID, service.CreateShelfRequest{
		Name:           input.Body.Name,
		Slug:           input.Body.Slug,
		ExclusiveGroup: input.Body.ExclusiveGroup,
	})
	if err != nil {
		return nil, err
	}

	return &ShelfOutput{Body: toShelfSummary(shelf)}, nil
}

func (s *Server) handleDeleteShelf(ctx context.Context, input *OwnShelfInput) (*struct{}, error) {
	userID, err := s.authenticateRequest(ctx, input.Authorization)
	if err != nil {
		return nil, err
	}

	if err := s.services.Shelves.DeleteShelf(ctx, userID, input.Slug); err != nil {
		return nil, err
	}
	return nil, nil
}

func (s *Server) handleAddShelfBook(ctx context.Context, input *AddShelfBookInput) (*ShelfItemOutput, error) {
	userID, err := s.authenticateRequest(ctx, input.Authorization)
	if err != nil {
		return nil, err
	}

	item, err := s.services.Shelves.AddBook(ctx, userID, input.Slug, service.AddBookRequest{
		BookID:         input.Body.BookID,
		Rating:         input.Body.Rating,
		SeriesPosition: input.Body.SeriesPosition,
	})
	if err != nil {
		return nil, err
	}

	return &ShelfItemOutput{Body: ShelfItemResponse{
		ShelfID:        item.ShelfID,
		BookID:         item.BookID,
		AddedAt:        item.AddedAt,
		Rating:         item.Rating,
		SeriesPosition: item.SeriesPosition,
	}}, nil
}

func (s *Server) handleRemoveShelfBook(ctx context.Context, input *RemoveShelfBookInput) (*struct{}, error) {
	userID, err := s.authenticateRequest(ctx, input.Authorization)
	if err != nil {
		return nil, err
	}

	if err := s.services.Shelves.RemoveBook(ctx, userID, input.Slug, input.BookID); err != nil {
		return nil, err
	}
	return nil, nil
}

func toShelfSummary(sh *domain.Shelf) ShelfSummary {
	return ShelfSummary{
		ID:             sh.ID,
		Name:           sh.Name,
		Slug:           sh.Slug,
		ExclusiveGroup: sh.ExclusiveGroup,
		CollectionType: string(sh.CollectionType),
		ItemCount:      sh.ItemCount,
	}
}
