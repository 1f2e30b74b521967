package api

import (
	"context"
	"net/http"
	"time"

	"github.com/danielgtaylor/huma/v2"

	"github.com/shelfwise/shelfwise-server/internal/domain"
	"github.com/shelfwise/shelfwise-server/internal/service"
)

func (s *Server) registerUserRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID:   "registerUser",
		Method:        http.MethodPost,
		Path:          "/api/v1/users",
		Summary:       "Register user",
		Description:   "Creates a reader account with its reading-status shelves and returns an access token",
		Tags:          []string{"Users"},
		DefaultStatus: http.StatusCreated,
	}, s.handleRegisterUser)

	huma.Register(s.api, huma.Operation{
		OperationID: "getCurrentUser",
		Method:      http.MethodGet,
		Path:        "/api/v1/me",
		Summary:     "Get current user",
		Description: "Returns the authenticated user's profile",
		Tags:        []string{"Users"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handleGetCurrentUser)

	huma.Register(s.api, huma.Operation{
		OperationID: "updateProfile",
		Method:      http.MethodPatch,
		Path:        "/api/v1/me/profile",
		Summary:     "Update profile",
		Description: "Sets whether the profile is private",
		Tags:        []string{"Users"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handleUpdateProfile)
}

// === DTOs ===

// UserResponse contains user data in API responses.
type UserResponse struct {
	ID          string    `json:"id" doc:"User ID"`
	Username    string    `json:"username" doc:"Unique username"`
	DisplayName string    `json:"display_name" doc:"Display name"`
	IsPrivate   bool      `json:"is_private" doc:"Whether only accepted followers can browse this user"`
	CreatedAt   time.Time `json:"created_at" doc:"Creation time"`
}

// UserOutput wraps the user response for Huma.
type UserOutput struct {
	Body UserResponse
}

// RegisterUserRequest is the request body for registering a user.
type RegisterUserRequest struct {
	Username    string `json:"username" minLength:"2" maxLength:"32" doc:"Unique username (lowercase letters, digits and dashes)"`
	DisplayName string `json:"display_name,omitempty" maxLength:"100" doc:"Display name"`
	IsPrivate   bool   `json:"is_private,omitempty" doc:"Start with a private profile"`
}

// RegisterUserInput wraps the register request for Huma.
type RegisterUserInput struct {
	Body RegisterUserRequest
}

// RegisterUserResponse carries the new user and a token to act as them.
type RegisterUserResponse struct {
	User        UserResponse `json:"user" doc:"Created user"`
	AccessToken string       `json:"access_token" doc:"PASETO access token"`
	ExpiresIn   int          `json:"expires_in" doc:"Token lifetime in seconds"`
}

// RegisterUserOutput wraps the register response for Huma.
type RegisterUserOutput struct {
	Body RegisterUserResponse
}

// GetCurrentUserInput contains parameters for the current user.
type GetCurrentUserInput struct {
	Authorization string `header:"Authorization"`
}

// UpdateProfileRequest is the request body for updating a profile.
type UpdateProfileRequest struct {
	IsPrivate bool `json:"is_private" doc:"Whether only accepted followers can browse this user"`
}

// UpdateProfileInput wraps the update profile request for Huma.
type UpdateProfileInput struct {
	Authorization string `header:"Authorization"`
	Body          UpdateProfileRequest
}

// === Handlers ===

func (s *Server) handleRegisterUser(ctx context.Context, input *RegisterUserInput) (*RegisterUserOutput, error) {
	user, err := s.services.Users.Register(ctx, service.RegisterUserRequest{
		Username:    input.Body.Username,
		DisplayName: input.Body.DisplayName,
		IsPrivate:   input.Body.IsPrivate,
	})
	if err != nil {
		return nil, err
	}

	token, err := s.tokens.GenerateAccessToken(user)
	if err != nil {
		return nil, err
	}

	return &RegisterUserOutput{Body: RegisterUserResponse{
		User:        toUserResponse(user),
		AccessToken: token,
		ExpiresIn:   int(s.tokens.AccessTokenDuration().Seconds()),
	}}, nil
}

func (s *Server) handleGetCurrentUser(ctx context.Context, input *GetCurrentUserInput) (*UserOutput, error) {
	userID, err := s.authenticateRequest(ctx, input.Authorization)
	if err != nil {
		return nil, err
	}

	user, err := s.services.Users.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}

	return &UserOutput{Body: toUserResponse(user)}, nil
}

func (s *Server) handleUpdateProfile(ctx context.Context, input *UpdateProfileInput) (*UserOutput, error) {
	userID, err := s.authenticateRequest(ctx, input.Authorization)
	if err != nil {
		return nil, err
	}

	user, err := s.services.Users.SetPrivacy(ctx, userID, input.Body.IsPrivate)
	if err != nil {
		return nil, err
	}

	return &UserOutput{Body: toUserResponse(user)}, nil
}

func toUserResponse(u *domain.User) UserResponse {
	return UserResponse{
		ID:          u.ID,
		Username:    u.Username,
		DisplayName: u.DisplayName,
		IsPrivate:   u.IsPrivate,
		CreatedAt:   u.CreatedAt,
	}
}
