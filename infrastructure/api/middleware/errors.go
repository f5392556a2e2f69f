package middleware

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/helixml/shardrun/application/service"
	"github.com/helixml/shardrun/domain/command"
	"github.com/helixml/shardrun/domain/recipe"
	"github.com/helixml/shardrun/domain/shard"
	"github.com/helixml/shardrun/infrastructure/launcher"
	"github.com/helixml/shardrun/internal/database"
	"github.com/helixml/shardrun/internal/log"
)

// ErrAuthentication is matched by AuthenticationError.
var ErrAuthentication = errors.New("authentication failed")

// APIError is an error with an explicit HTTP status.
type APIError struct {
	code    int
	message string
	cause   error
}

// NewAPIError creates an APIError.
func NewAPIError(code int, message string, cause error) *APIError {
	return &APIError{code: code, message: message, cause: cause}
}

// Code returns the HTTP status code.
func (e *APIError) Code() int { return e.code }

// Message returns the client-facing message.
func (e *APIError) Message() string { return e.message }

func (e *APIError) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("api error %d: %s: %v", e.code, e.message, e.cause)
	}
	return fmt.Sprintf("api error %d: %s", e.code, e.message)
}

// Unwrap returns the cause.
func (e *APIError) Unwrap() error { return e.cause }

// AuthenticationError is returned for missing or invalid API keys.
type AuthenticationError struct {
	reason string
}

// NewAuthenticationError creates an AuthenticationError.
func NewAuthenticationError(reason string) *AuthenticationError {
	return &AuthenticationError{reason: reason}
}

func (e *AuthenticationError) Error() string {
	return "authentication failed: " + e.reason
}

// Is matches ErrAuthentication.
func (e *AuthenticationError) Is(target error) bool { return target == ErrAuthentication }

// ErrorBody is one entry of an error response.
type ErrorBody struct {
	Status string `json:"status"`
	Title  string `json:"title"`
	Detail string `json:"detail,omitempty"`
	ID     string `json:"id,omitempty"`
}

// ErrorResponse wraps error entries.
type ErrorResponse struct {
	Errors []ErrorBody `json:"errors"`
}

// StatusFor maps an error to its HTTP status and title.
func StatusFor(err error) (int, string) {
	var apiErr *APIError

	switch {
	case errors.As(err, &apiErr):
		return apiErr.Code(), "API Error"
	case errors.Is(err, ErrAuthentication):
		return http.StatusUnauthorized, "Authentication Failed"
	case errors.Is(err, recipe.ErrNotFound), errors.Is(err, database.ErrNotFound):
		return http.StatusNotFound, "Not Found"
	case errors.Is(err, shard.ErrInvalidArgument),
		errors.Is(err, recipe.ErrInvalid),
		errors.Is(err, command.ErrEmptyTemplate),
		errors.Is(err, command.ErrInvalidTemplate),
		errors.Is(err, command.ErrRenderFailed),
		errors.Is(err, command.ErrDelimiterInCommand),
		errors.Is(err, command.ErrEmptyCommand),
		errors.Is(err, service.ErrNoSource):
		return http.StatusBadRequest, "Validation Error"
	case errors.Is(err, launcher.ErrLaunchTimeout):
		return http.StatusGatewayTimeout, "Launch Timed Out"
	case errors.Is(err, launcher.ErrLaunchFailed):
		return http.StatusBadGateway, "Launch Failed"
	case errors.Is(err, service.ErrClientClosed):
		return http.StatusServiceUnavailable, "Unavailable"
	}
	return http.StatusInternalServerError, "Internal Server Error"
}

// WriteError writes err as a JSON error response.
func WriteError(w http.ResponseWriter, r *http.Request, err error, logger *slog.Logger) {
	status, title := StatusFor(err)
	detail := err.Error()
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		detail = apiErr.Message()
	}

	correlationID := log.CorrelationID(r.Context())
	if logger != nil {
		level := slog.LevelWarn
		if status >= http.StatusInternalServerError {
			level = slog.LevelError
		}
		logger.Log(r.Context(), level, "request error",
			"correlation_id", correlationID,
			"status", status,
			"error", err,
			"path", r.URL.Path,
		)
	}

	WriteJSON(w, status, ErrorResponse{
		Errors: []ErrorBody{{
			Status: http.StatusText(status),
			Title:  title,
			Detail: detail,
			ID:     correlationID,
		}},
	})
}

// WriteJSON writes data as JSON with the given status.
func WriteJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}
