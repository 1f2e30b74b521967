package api

import (
	"context"
	"net/http"
	"time"

	"github.com/danielgtaylor/huma/v2"

	"github.com/shelfwise/shelfwise-server/internal/domain"
)

func (s *Server) registerSocialRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "followUser",
		Method:      http.MethodPost,
		Path:        "/api/v1/me/follows/{username}",
		Summary:     "Follow user",
		Description: "Follows a user. Requests to private profiles stay pending until accepted",
		Tags:        []string{"Social"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handleFollow)

	huma.Register(s.api, huma.Operation{
		OperationID:   "unfollowUser",
		Method:        http.MethodDelete,
		Path:          "/api/v1/me/follows/{username}",
		Summary:       "Unfollow user",
		Description:   "Removes a follow or a pending follow request",
		Tags:          []string{"Social"},
		Security:      []map[string][]string{{"bearer": {}}},
		DefaultStatus: http.StatusNoContent,
	}, s.handleUnfollow)

	huma.Register(s.api, huma.Operation{
		OperationID: "acceptFollower",
		Method:      http.MethodPost,
		Path:        "/api/v1/me/followers/{username}/accept",
		Summary:     "Accept follower",
		Description: "Accepts a pending follow request",
		Tags:        []string{"Social"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handleAcceptFollower)

	huma.Register(s.api, huma.Operation{
		OperationID:   "blockUser",
		Method:        http.MethodPut,
		Path:          "/api/v1/me/blocks/{username}",
		Summary:       "Block user",
		Description:   "Blocks a user and removes follows in both directions",
		Tags:          []string{"Social"},
		Security:      []map[string][]string{{"bearer": {}}},
		DefaultStatus: http.StatusNoContent,
	}, s.handleBlock)

	huma.Register(s.api, huma.Operation{
		OperationID:   "unblockUser",
		Method:        http.MethodDelete,
		Path:          "/api/v1/me/blocks/{username}",
		Summary:       "Unblock user",
		Description:   "Lifts a block",
		Tags:          []string{"Social"},
		Security:      []map[string][]string{{"bearer": {}}},
		DefaultStatus: http.StatusNoContent,
	}, s.handleUnblock)
}

// === DTOs ===

// UsernameInput addresses another user by username.
type UsernameInput struct {
	Authorization string `header:"Authorization"`
	Username      string `path:"username" doc:"Username"`
}

// FollowResponse contains follow edge data in API responses.
type FollowResponse struct {
	FollowerID string    `json:"follower_id" doc:"Follower user ID"`
	FolloweeID string    `json:"followee_id" doc:"Followed user ID"`
	Status     string    `json:"status" doc:"pending or accepted"`
	CreatedAt  time.Time `json:"created_at" doc:"When the follow was requested"`
}

// FollowOutput wraps the follow response for Huma.
type FollowOutput struct {
	Body FollowResponse
}

// === Handlers ===

func (s *Server) handleFollow(ctx context.Context, input *UsernameInput) (*FollowOutput, error) {
	userID, err := s.authenticateRequest(ctx, input.Authorization)
	if err != nil {
		return nil, err
	}

	f, err := s.services.Users.Follow(ctx, userID, input.Username)
	if err != nil {
		return nil, err
	}
	return &FollowOutput{Body: toFollowResponse(f)}, nil
}

func (s *Server) handleUnfollow(ctx context.Context, input *UsernameInput) (*struct{}, error) {
	userID, err := s.authenticateRequest(ctx, input.Authorization)
	if err != nil {
		return nil, err
	}

	if err := s.services.Users.Unfollow(ctx, userID, input.Username); err != nil {
		return nil, err
	}
	return nil, nil
}

func (s *Server) handleAcceptFollower(ctx context.Context, input *UsernameInput) (*FollowOutput, error) {
	userID, err := s.authenticateRequest(ctx, input.Authorization)
	if err != nil {
		return nil, err
	}

	f, err := s.services.Users.AcceptFollower(ctx, userID, input.Username)
	if err != nil {
		return nil, err
	}
	return &FollowOutput{Body: toFollowResponse(f)}, nil
}

func (s *Server) handleBlock(ctx context.Context, input *UsernameInput) (*struct{}, error) {
	userID, err := s.authenticateRequest(ctx, input.Authorization)
	if err != nil {
		return nil, err
	}

	if err := s.services.Users.Block(ctx, userID, input.Username); err != nil {
		return nil, err
	}
	return nil, nil
}

func (s *Server) handleUnblock(ctx context.Context, input *UsernameInput) (*struct{}, error) {
	userID, err := s.authenticateRequest(ctx, input.Authorization)
	if err != nil {
		return nil, err
	}

	if err := s.services.Users.Unblock(ctx, userID, input.Username); err != nil {
		return nil, err
	}
	return nil, nil
}

func toFollowResponse(f *domain.Follow) FollowResponse {
	return FollowResponse{
		FollowerID: f.FollowerID,
		FolloweeID: f.FolloweeID,
		Status:     string(f.Status),
		CreatedAt:  f.CreatedAt,
	}
}
