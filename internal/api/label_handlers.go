package api

import (
	"context"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/danielgtaylor/huma/v2"

	"github.com/shelfwise/shelfwise-server/internal/domain"
	domainerrors "github.com/shelfwise/shelfwise-server/internal/errors"
	"github.com/shelfwise/shelfwise-server/internal/http/response"
	"github.com/shelfwise/shelfwise-server/internal/recent"
	"github.com/shelfwise/shelfwise-server/internal/service"
)

// labelPathOffset is the index of the key slug in a split label URL:
// "", "api", "v1", "users", {username}, "labels", {keySlug}, value path...
const labelPathOffset = 6

func (s *Server) registerLabelRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "listUserLabels",
		Method:      http.MethodGet,
		Path:        "/api/v1/users/{username}/labels",
		Summary:     "List label keys",
		Description: "Returns the label keys of a user the caller may view",
		Tags:        []string{"Labels"},
	}, s.handleListUserLabels)

	huma.Register(s.api, huma.Operation{
		OperationID: "listRecentLabels",
		Method:      http.MethodGet,
		Path:        "/api/v1/me/recent",
		Summary:     "Recently viewed labels",
		Description: "Returns the label paths the caller viewed most recently, newest first",
		Tags:        []string{"Labels"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handleListRecent)

	// Value paths have arbitrary depth and need their raw escaping, so they
	// are served by chi directly rather than through huma.
	s.router.Get("/api/v1/users/{username}/labels/{keySlug}", s.handleResolveLabel)
	s.router.Get("/api/v1/users/{username}/labels/{keySlug}/*", s.handleResolveLabel)
}

// === DTOs ===

// LabelKeyResponse contains label key data in API responses.
type LabelKeyResponse struct {
	ID        string    `json:"id" doc:"Key ID"`
	Name      string    `json:"name" doc:"Key name"`
	Slug      string    `json:"slug" doc:"URL-safe slug"`
	Mode      string    `json:"mode" doc:"select_one or select_multiple"`
	CreatedAt time.Time `json:"created_at" doc:"Creation time"`
}

// ListLabelKeysResponse contains a list of label keys.
type ListLabelKeysResponse struct {
	Keys []LabelKeyResponse `json:"keys" doc:"Label keys"`
}

// ListLabelKeysOutput wraps the list response for Huma.
type ListLabelKeysOutput struct {
	Body ListLabelKeysResponse
}

// ListUserLabelsInput contains parameters for listing a user's labels.
type ListUserLabelsInput struct {
	Authorization string `header:"Authorization"`
	Username      string `path:"username" doc:"Owner username"`
}

// LabelNodeResponse is a resolved label path.
type LabelNodeResponse struct {
	KeySlug     string               `json:"key_slug"`
	KeyName     string               `json:"key_name"`
	ValueSlug   *string              `json:"value_slug"`
	ValueName   *string              `json:"value_name"`
	SubLabels   []string             `json:"sub_labels"`
	Books       []domain.BookSummary `json:"books"`
	Breadcrumbs []domain.Breadcrumb  `json:"breadcrumbs"`
	ParentPath  *string              `json:"parent_path"`
}

// ListRecentInput contains parameters for the recently viewed list.
type ListRecentInput struct {
	Authorization string `header:"Authorization"`
}

// RecentResponse lists recently viewed label paths.
type RecentResponse struct {
	Items []recent.Entry `json:"items" doc:"Label paths, newest first"`
}

// RecentOutput wraps the recent response for Huma.
type RecentOutput struct {
	Body RecentResponse
}

// === Handlers ===

func (s *Server) handleListUserLabels(ctx context.Context, input *ListUserLabelsInput) (*ListLabelKeysOutput, error) {
	requesterID, err := s.optionalUser(ctx, input.Authorization)
	if err != nil {
		return nil, err
	}

	keys, err := s.services.Labels.ListKeysFor(ctx, requesterID, input.Username)
	if err != nil {
		return nil, err
	}

	resp := make([]LabelKeyResponse, len(keys))
	for i, k := range keys {
		resp[i] = toLabelKeyResponse(k)
	}
	return &ListLabelKeysOutput{Body: ListLabelKeysResponse{Keys: resp}}, nil
}

func (s *Server) handleListRecent(ctx context.Context, input *ListRecentInput) (*RecentOutput, error) {
	userID, err := s.authenticateRequest(ctx, input.Authorization)
	if err != nil {
		return nil, err
	}
	return &RecentOutput{Body: RecentResponse{Items: s.services.Labels.Recent(userID)}}, nil
}

// handleResolveLabel serves GET /users/{username}/labels/{keySlug}/{valuePath...}.
func (s *Server) handleResolveLabel(w http.ResponseWriter, r *http.Request) {
	requesterID, err := s.requesterFromRequest(r)
	if err != nil {
		s.writeError(w, err)
		return
	}

	username, keySlug, segments, err := splitLabelURL(r.URL.EscapedPath())
	if err != nil {
		s.writeError(w, err)
		return
	}

	node, err := s.services.Labels.ResolveFor(r.Context(), requesterID, username, keySlug, segments)
	if err != nil {
		s.writeError(w, err)
		return
	}

	response.Success(w, toLabelNodeResponse(node), s.logger)
}

// splitLabelURL pulls the owner, key and decoded value segments out of an
// escaped label URL. The escaped form is used so "%2F" inside a segment is
// seen, and rejected, rather than silently becoming a separator.
func splitLabelURL(escaped string) (username, keySlug string, segments []string, err error) {
	parts := strings.Split(escaped, "/")
	if len(parts) <= labelPathOffset {
		return "", "", nil, domainerrors.NotFound("label key missing from path")
	}

	username, err = url.PathUnescape(parts[labelPathOffset-2])
	if err != nil {
		return "", "", nil, domainerrors.Validation("username is not valid percent-encoding")
	}
	keySlug, err = url.PathUnescape(parts[labelPathOffset])
	if err != nil {
		return "", "", nil, domainerrors.Validation("label key is not valid percent-encoding")
	}

	segments, err = service.DecodeLabelSegments(parts[labelPathOffset+1:])
	if err != nil {
		return "", "", nil, err
	}
	return username, keySlug, segments, nil
}

func toLabelKeyResponse(k *domain.TagKey) LabelKeyResponse {
	return LabelKeyResponse{
		ID:        k.ID,
		Name:      k.Name,
		Slug:      k.Slug,
		Mode:      string(k.Mode),
		CreatedAt: k.CreatedAt,
	}
}

func toLabelNodeResponse(n *domain.LabelNode) LabelNodeResponse {
	resp := LabelNodeResponse{
		KeySlug:     n.Key.Slug,
		KeyName:     n.Key.Name,
		SubLabels:   n.Children,
		Books:       n.Books,
		Breadcrumbs: n.Breadcrumbs,
		ParentPath:  n.ParentPath,
	}
	if n.Value != nil {
		resp.ValueSlug = &n.Value.Slug
		resp.ValueName = &n.Value.Name
	}
	if resp.SubLabels == nil {
		resp.SubLabels = []string{}
	}
	if resp.Books == nil {
		resp.Books = []domain.BookSummary{}
	}
	if resp.Breadcrumbs == nil {
		resp.Breadcrumbs = []domain.Breadcrumb{}
	}
	return resp
}
