package api

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/danielgtaylor/huma/v2"

	domainerrors "github.com/shelfwise/shelfwise-server/internal/errors"
)

// authenticateRequest validates the Authorization header and returns the user ID.
func (s *Server) authenticateRequest(ctx context.Context, authHeader string) (string, error) {
	if authHeader == "" {
		return "", huma.Error401Unauthorized("Missing authorization header")
	}
	return s.verifyBearer(ctx, authHeader)
}

// optionalUser is authenticateRequest for public reads: no header means an
// anonymous requester, but a header that fails verification is still rejected.
func (s *Server) optionalUser(ctx context.Context, authHeader string) (string, error) {
	if authHeader == "" {
		return "", nil
	}
	return s.verifyBearer(ctx, authHeader)
}

func (s *Server) verifyBearer(ctx context.Context, authHeader string) (string, error) {
	token, ok := bearerToken(authHeader)
	if !ok {
		return "", huma.Error401Unauthorized("Invalid authorization header format")
	}

	claims, err := s.tokens.VerifyAccessToken(token)
	if err != nil {
		return "", huma.Error401Unauthorized("Invalid or expired token")
	}

	// A token can outlive the user it was issued to.
	if _, err := s.services.Users.GetByID(ctx, claims.UserID); err != nil {
		if errors.Is(err, domainerrors.ErrNotFound) {
			return "", huma.Error401Unauthorized("User not found")
		}
		return "", err
	}

	return claims.UserID, nil
}

// requesterFromRequest is optionalUser for plain chi handlers.
func (s *Server) requesterFromRequest(r *http.Request) (string, error) {
	return s.optionalUser(r.Context(), r.Header.Get("Authorization"))
}

func bearerToken(header string) (string, bool) {
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || parts[0] != "Bearer" || parts[1] == "" {
		return "", false
	}
	return parts[1], true
}
