package api

import (
	"errors"
	"strconv"

	"github.com/danielgtaylor/huma/v2"

	domainerrors "github.com/shelfwise/shelfwise-server/internal/errors"
	"github.com/shelfwise/shelfwise-server/internal/http/response"
)

// EnvelopeVersion is the version carried in every response's "v" field.
const EnvelopeVersion = response.Version

// APIEnvelope is the body of every huma response.
type APIEnvelope = response.Envelope

// EnvelopeTransformer wraps huma response bodies in the shared envelope.
// Bodies for 4xx/5xx statuses become the error half.
func EnvelopeTransformer(_ huma.Context, status string, v any) (any, error) {
	code, _ := strconv.Atoi(status)

	if code >= 400 {
		return APIEnvelope{
			Version: EnvelopeVersion,
			Error:   errorBody(code, v),
		}, nil
	}

	return APIEnvelope{
		Version: EnvelopeVersion,
		Success: true,
		Data:    v,
	}, nil
}

func errorBody(status int, v any) *response.ErrorBody {
	err, ok := v.(error)
	if !ok {
		return &response.ErrorBody{Code: statusToCode(status), Message: "request failed", Details: v}
	}

	// Domain errors implement huma.StatusError themselves, so they can
	// arrive here without passing through NewError.
	var domainErr *domainerrors.Error
	if errors.As(err, &domainErr) {
		return &response.ErrorBody{Code: string(domainErr.Code), Message: domainErr.Message, Details: domainErr.Details}
	}
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return &response.ErrorBody{Code: apiErr.Code, Message: apiErr.Message, Details: apiErr.Details}
	}
	return &response.ErrorBody{Code: statusToCode(status), Message: err.Error()}
}

// statusToCode maps HTTP status codes to our domain error codes.
func statusToCode(status int) string {
	switch status {
	case 400, 422:
		return string(domainerrors.CodeValidation)
	case 401:
		return string(domainerrors.CodeUnauthorized)
	case 403:
		return string(domainerrors.CodeForbidden)
	case 404:
		return string(domainerrors.CodeNotFound)
	case 409:
		return string(domainerrors.CodeConflict)
	case 429:
		return string(domainerrors.CodeRateLimited)
	default:
		return string(domainerrors.CodeInternal)
	}
}
