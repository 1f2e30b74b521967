package api

import (
	"errors"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	domainerrors "github.com/shelfwise/shelfwise-server/internal/errors"
	"github.com/shelfwise/shelfwise-server/internal/store"
)

// APIError is a custom error type that implements huma.StatusError.
// It maps domain errors to HTTP responses with consistent structure.
type APIError struct { //nolint:revive // API prefix is intentional for clarity
	status  int
	Code    string `json:"code" doc:"Machine-readable error code"`
	Message string `json:"message" doc:"Human-readable error message"`
	Details any    `json:"details,omitempty" doc:"Additional error details"`
}

// Error implements the error interface.
func (e *APIError) Error() string {
	return e.Message
}

// GetStatus implements huma.StatusError.
func (e *APIError) GetStatus() int {
	return e.status
}

// ContentType returns the content type for the error response.
func (e *APIError) ContentType(_ string) string {
	return "application/json"
}

// RegisterErrorHandler configures huma to use domain errors.
// Call this after creating the huma.API but before registering routes.
func RegisterErrorHandler() {
	huma.NewError = newAPIError
}

func newAPIError(status int, message string, errs ...error) huma.StatusError {
	var (
		fieldErrs []string
		internal  bool
	)

	for _, err := range errs {
		var domainErr *domainerrors.Error
		if errors.As(err, &domainErr) {
			return &APIError{
				status:  domainErr.HTTPStatus(),
				Code:    string(domainErr.Code),
				Message: domainErr.Message,
				Details: domainErr.Details,
			}
		}

		var storeErr *store.Error
		if errors.As(err, &storeErr) {
			switch storeErr.HTTPCode() {
			case http.StatusNotFound:
				return &APIError{status: http.StatusNotFound, Code: string(domainerrors.CodeNotFound), Message: storeErr.Message}
			case http.StatusConflict:
				return &APIError{status: http.StatusConflict, Code: string(domainerrors.CodeConflict), Message: storeErr.Message}
			}
		}

		var detail *huma.ErrorDetail
		if errors.As(err, &detail) {
			fieldErrs = append(fieldErrs, detail.Error())
			continue
		}
		if err != nil {
			internal = true
		}
	}

	// Schema validation failures are reported like every other bad request.
	if status == http.StatusUnprocessableEntity {
		status = http.StatusBadRequest
	}

	if status >= http.StatusInternalServerError || (internal && status < http.StatusBadRequest) {
		return &APIError{
			status:  http.StatusInternalServerError,
			Code:    string(domainerrors.CodeInternal),
			Message: "internal server error",
		}
	}

	apiErr := &APIError{
		status:  status,
		Code:    statusToCode(status),
		Message: message,
	}
	if len(fieldErrs) > 0 {
		apiErr.Details = fieldErrs
	}
	return apiErr
}
