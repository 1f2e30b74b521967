package api

import (
	"context"
	"net/http"
	"time"

	"github.com/danielgtaylor/huma/v2"

	"github.com/shelfwise/shelfwise-server/internal/domain"
	"github.com/shelfwise/shelfwise-server/internal/service"
)

func (s *Server) registerTaxonomyRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID:   "createLabelKey",
		Method:        http.MethodPost,
		Path:          "/api/v1/me/labels",
		Summary:       "Create label key",
		Description:   "Creates a new label key, the root of a label hierarchy",
		Tags:          []string{"Labels"},
		Security:      []map[string][]string{{"bearer": {}}},
		DefaultStatus: http.StatusCreated,
	}, s.handleCreateLabelKey)

	huma.Register(s.api, huma.Operation{
		OperationID:   "deleteLabelKey",
		Method:        http.MethodDelete,
		Path:          "/api/v1/me/labels/{keySlug}",
		Summary:       "Delete label key",
		Description:   "Deletes a label key with all of its values and assignments",
		Tags:          []string{"Labels"},
		Security:      []map[string][]string{{"bearer": {}}},
		DefaultStatus: http.StatusNoContent,
	}, s.handleDeleteLabelKey)

	huma.Register(s.api, huma.Operation{
		OperationID:   "createLabelValue",
		Method:        http.MethodPost,
		Path:          "/api/v1/me/labels/{keySlug}/values",
		Summary:       "Create label value",
		Description:   "Creates a value under the key root or under the value at parent_path",
		Tags:          []string{"Labels"},
		Security:      []map[string][]string{{"bearer": {}}},
		DefaultStatus: http.StatusCreated,
	}, s.handleCreateLabelValue)

	huma.Register(s.api, huma.Operation{
		OperationID: "moveLabelValue",
		Method:      http.MethodPatch,
		Path:        "/api/v1/me/labels/{keySlug}/values/{valueId}",
		Summary:     "Move label value",
		Description: "Reparents a value. Moves that would create a cycle are rejected",
		Tags:        []string{"Labels"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handleMoveLabelValue)

	huma.Register(s.api, huma.Operation{
		OperationID:   "deleteLabelValue",
		Method:        http.MethodDelete,
		Path:          "/api/v1/me/labels/{keySlug}/values/{valueId}",
		Summary:       "Delete label value",
		Description:   "Deletes a value with its descendants and their assignments",
		Tags:          []string{"Labels"},
		Security:      []map[string][]string{{"bearer": {}}},
		DefaultStatus: http.StatusNoContent,
	}, s.handleDeleteLabelValue)

	huma.Register(s.api, huma.Operation{
		OperationID:   "assignLabel",
		Method:        http.MethodPut,
		Path:          "/api/v1/me/books/{bookId}/labels",
		Summary:       "Assign label",
		Description:   "Labels a book. Under a select_one key the book's previous value is replaced",
		Tags:          []string{"Labels"},
		Security:      []map[string][]string{{"bearer": {}}},
		DefaultStatus: http.StatusNoContent,
	}, s.handleAssignLabel)

	huma.Register(s.api, huma.Operation{
		OperationID:   "unassignLabel",
		Method:        http.MethodDelete,
		Path:          "/api/v1/me/books/{bookId}/labels/{valueId}",
		Summary:       "Unassign label",
		Description:   "Removes a label from a book",
		Tags:          []string{"Labels"},
		Security:      []map[string][]string{{"bearer": {}}},
		DefaultStatus: http.StatusNoContent,
	}, s.handleUnassignLabel)
}

// === DTOs ===

// CreateLabelKeyRequest is the request body for creating a label key.
type CreateLabelKeyRequest struct {
	Name string `json:"name" minLength:"1" maxLength:"100" doc:"Key name"`
	Slug string `json:"slug,omitempty" maxLength:"100" doc:"URL-safe slug, derived from name when omitted"`
	Mode string `json:"mode" enum:"select_one,select_multiple" doc:"How many values of this key one book may carry"`
}

// CreateLabelKeyInput wraps the create key request for Huma.
type CreateLabelKeyInput struct {
	Authorization string `header:"Authorization"`
	Body          CreateLabelKeyRequest
}

// LabelKeyOutput wraps a label key response for Huma.
type LabelKeyOutput struct {
	Body LabelKeyResponse
}

// LabelKeyInput addresses one of the caller's label keys.
type LabelKeyInput struct {
	Authorization string `header:"Authorization"`
	KeySlug       string `path:"keySlug" doc:"Label key slug"`
}

// CreateLabelValueRequest is the request body for creating a label value.
type CreateLabelValueRequest struct {
	Name       string `json:"name" minLength:"1" maxLength:"100" doc:"Value name"`
	Slug       string `json:"slug,omitempty" maxLength:"100" doc:"URL-safe slug, derived from name when omitted"`
	ParentPath string `json:"parent_path,omitempty" doc:"Path of the parent value, e.g. fiction/sci-fi; empty for the key root"`
}

// CreateLabelValueInput wraps the create value request for Huma.
type CreateLabelValueInput struct {
	Authorization string `header:"Authorization"`
	KeySlug       string `path:"keySlug" doc:"Label key slug"`
	Body          CreateLabelValueRequest
}

// LabelValueResponse contains label value data in API responses.
type LabelValueResponse struct {
	ID            string    `json:"id" doc:"Value ID"`
	KeyID         string    `json:"key_id" doc:"Owning key ID"`
	Name          string    `json:"name" doc:"Value name"`
	Slug          string    `json:"slug" doc:"URL-safe slug"`
	ParentValueID string    `json:"parent_value_id,omitempty" doc:"Parent value ID; empty at the key root"`
	CreatedAt     time.Time `json:"created_at" doc:"Creation time"`
}

// LabelValueOutput wraps a label value response for Huma.
type LabelValueOutput struct {
	Body LabelValueResponse
}

// MoveLabelValueRequest is the request body for reparenting a value.
type MoveLabelValueRequest struct {
	ParentPath string `json:"parent_path,omitempty" doc:"Path of the new parent value; empty moves the value to the key root"`
}

// MoveLabelValueInput wraps the move request for Huma.
type MoveLabelValueInput struct {
	Authorization string `header:"Authorization"`
	KeySlug       string `path:"keySlug" doc:"Label key slug"`
	ValueID       string `path:"valueId" doc:"Value ID"`
	Body          MoveLabelValueRequest
}

// LabelValueInput addresses one value under one of the caller's keys.
type LabelValueInput struct {
	Authorization string `header:"Authorization"`
	KeySlug       string `path:"keySlug" doc:"Label key slug"`
	ValueID       string `path:"valueId" doc:"Value ID"`
}

// AssignLabelRequest is the request body for labelling a book.
type AssignLabelRequest struct {
	KeySlug string `json:"key_slug" minLength:"1" doc:"Label key slug"`
	ValueID string `json:"value_id" minLength:"1" doc:"Value ID"`
}

// AssignLabelInput wraps the assign request for Huma.
type AssignLabelInput struct {
	Authorization string `header:"Authorization"`
	BookID        string `path:"bookId" doc:"Book ID"`
	Body          AssignLabelRequest
}

// UnassignLabelInput contains parameters for removing a label from a book.
type UnassignLabelInput struct {
	Authorization string `header:"Authorization"`
	BookID        string `path:"bookId" doc:"Book ID"`
	ValueID       string `path:"valueId" doc:"Value ID"`
	KeySlug       string `query:"key" required:"true" doc:"Label key slug"`
}

// === Handlers ===

func (s *Server) handleCreateLabelKey(ctx context.Context, input *CreateLabelKeyInput) (*LabelKeyOutput, error) {
	userID, err := s.authenticateRequest(ctx, input.Authorization)
	if err != nil {
		return nil, err
	}

	key, err := s.services.Taxonomy.CreateKey(ctx, userID, service.CreateKeyRequest{
		Name: input.Body.Name,
		Slug: input.Body.Slug,
		Mode: domain.KeyMode(input.Body.Mode),
	})
	if err != nil {
		return nil, err
	}

	return &LabelKeyOutput{Body: toLabelKeyResponse(key)}, nil
}

func (s *Server) handleDeleteLabelKey(ctx context.Context, input *LabelKeyInput) (*struct{}, error) {
	userID, err := s.authenticateRequest(ctx, input.Authorization)
	if err != nil {
		return nil, err
	}

	if err := s.services.Taxonomy.DeleteKey(ctx, userID, input.KeySlug); err != nil {
		return nil, err
	}
	return nil, nil
}

func (s *Server) handleCreateLabelValue(ctx context.Context, input *CreateLabelValueInput) (*LabelValueOutput, error) {
	userID, err := s.authenticateRequest(ctx, input.Authorization)
	if err != nil {
		return nil, err
	}

	parentID, err := s.resolveParentValue(ctx, userID, input.KeySlug, input.Body.ParentPath)
	if err != nil {
		return nil, err
	}

	value, err := s.services.Taxonomy.CreateValue(ctx, userID, input.KeySlug, service.CreateValueRequest{
		Name:          input.Body.Name,
		Slug:          input.Body.Slug,
		ParentValueID: parentID,
	})
	if err != nil {
		return nil, err
	}

	return &LabelValueOutput{Body: toLabelValueResponse(value)}, nil
}

func (s *Server) handleMoveLabelValue(ctx context.Context, input *MoveLabelValueInput) (*LabelValueOutput, error) {
	userID, err := s.authenticateRequest(ctx, input.Authorization)
	if err != nil {
		return nil, err
	}

	parentID, err := s.resolveParentValue(ctx, userID, input.KeySlug, input.Body.ParentPath)
	if err != nil {
		return nil, err
	}

	value, err := s.services.Taxonomy.MoveValue(ctx, userID, input.KeySlug, input.ValueID, parentID)
	if err != nil {
		return nil, err
	}

	return &LabelValueOutput{Body: toLabelValueResponse(value)}, nil
}

func (s *Server) handleDeleteLabelValue(ctx context.Context, input *LabelValueInput) (*struct{}, error) {
	userID, err := s.authenticateRequest(ctx, input.Authorization)
	if err != nil {
		return nil, err
	}

	if err := s.services.Taxonomy.DeleteValue(ctx, userID, input.KeySlug, input.ValueID); err != nil {
		return nil, err
	}
	return nil, nil
}

func (s *Server) handleAssignLabel(ctx context.Context, input *AssignLabelInput) (*struct{}, error) {
	userID, err := s.authenticateRequest(ctx, input.Authorization)
	if err != nil {
		return nil, err
	}

	if err := s.services.Taxonomy.Assign(ctx, userID, input.BookID, input.Body.KeySlug, input.Body.ValueID); err != nil {
		return nil, err
	}
	return nil, nil
}

func (s *Server) handleUnassignLabel(ctx context.Context, input *UnassignLabelInput) (*struct{}, error) {
	userID, err := s.authenticateRequest(ctx, input.Authorization)
	if err != nil {
		return nil, err
	}

	if err := s.services.Taxonomy.Unassign(ctx, userID, input.BookID, input.KeySlug, input.ValueID); err != nil {
		return nil, err
	}
	return nil, nil
}

// resolveParentValue maps a parent path onto a value ID; "" is the key root.
func (s *Server) resolveParentValue(ctx context.Context, ownerID, keySlug, parentPath string) (string, error) {
	if parentPath == "" {
		return "", nil
	}

	segments, err := service.ParseLabelPath(parentPath)
	if err != nil {
		return "", err
	}

	node, err := s.services.Labels.Resolve(ctx, ownerID, keySlug, segments)
	if err != nil {
		return "", err
	}
	return node.Value.ID, nil
}

func toLabelValueResponse(v *domain.TagValue) LabelValueResponse {
	return LabelValueResponse{
		ID:            v.ID,
		KeyID:         v.KeyID,
		Name:          v.Name,
		Slug:          v.Slug,
		ParentValueID: v.ParentID,
		CreatedAt:     v.CreatedAt,
	}
}
