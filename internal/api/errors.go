package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/nerrad567/projecthub/internal/account"
	"github.com/nerrad567/projecthub/internal/auth"
	"github.com/nerrad567/projecthub/internal/project"
)

// Error is the body of every failed response.
type Error struct {
	Success    bool   `json:"success"`
	Status     int    `json:"status"`
	Code       string `json:"code"`
	Message    string `json:"message"`
	Path       string `json:"path"`
	Method     string `json:"method"`
	OccurredAt string `json:"occurredAt"`
}

// Common error codes.
const (
	ErrCodeBadRequest     = "bad_request"
	ErrCodeNotFound       = "not_found"
	ErrCodeUnauthorized   = "unauthorised"
	ErrCodeForbidden      = "forbidden"
	ErrCodeConflict       = "conflict"
	ErrCodeInternal       = "internal_error"
	ErrCodeValidation     = "validation_error"
	ErrCodeMethodNotAllow = "method_not_allowed"
)

// requestError is a malformed request caught before any service runs.
type requestError struct {
	message string
}

func (e *requestError) Error() string { return e.message }

func badRequest(message string) error {
	return &requestError{message: message}
}

// writeJSON writes a JSON response with the given status code and payload.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if v != nil {
		//nolint:errcheck // Best-effort write to response; connection may be closed
		json.NewEncoder(w).Encode(v)
	}
}

// writeError writes the uniform error body.
func writeError(w http.ResponseWriter, r *http.Request, status int, code, message string) {
	writeJSON(w, status, Error{
		Success:    false,
		Status:     status,
		Code:       code,
		Message:    message,
		Path:       r.URL.RequestURI(),
		Method:     r.Method,
		OccurredAt: time.Now().UTC().Format(time.RFC3339),
	})
}

// classify maps an error to its status, code and client-facing message.
// Internal failures never expose their text.
func classify(err error) (status int, code, message string) {
	var reqErr *requestError
	var accountErr *account.ValidationError
	var projectErr *project.ValidationError

	switch {
	case errors.As(err, &reqErr):
		return http.StatusBadRequest, ErrCodeBadRequest, reqErr.message
	case errors.As(err, &accountErr):
		return http.StatusBadRequest, ErrCodeValidation, accountErr.Message
	case errors.As(err, &projectErr):
		return http.StatusBadRequest, ErrCodeValidation, projectErr.Message
	case errors.Is(err, account.ErrInvalidAccount):
		return http.StatusBadRequest, ErrCodeValidation, account.ErrInvalidAccount.Error()
	case errors.Is(err, project.ErrInvalidProject):
		return http.StatusBadRequest, ErrCodeValidation, project.ErrInvalidProject.Error()
	case errors.Is(err, auth.ErrInvalidCredentials):
		return http.StatusUnauthorized, ErrCodeUnauthorized, auth.ErrInvalidCredentials.Error()
	case errors.Is(err, auth.ErrTokenInvalid):
		return http.StatusUnauthorized, ErrCodeUnauthorized, auth.ErrTokenInvalid.Error()
	case errors.Is(err, auth.ErrAccountInactive):
		return http.StatusUnauthorized, ErrCodeUnauthorized, auth.ErrAccountInactive.Error()
	case errors.Is(err, errMissingToken):
		return http.StatusUnauthorized, ErrCodeUnauthorized, errMissingToken.Error()
	case errors.Is(err, auth.ErrForbidden):
		return http.StatusForbidden, ErrCodeForbidden, auth.ErrForbidden.Error()
	case errors.Is(err, account.ErrAccountNotFound):
		return http.StatusNotFound, ErrCodeNotFound, account.ErrAccountNotFound.Error()
	case errors.Is(err, project.ErrProjectNotFound):
		return http.StatusNotFound, ErrCodeNotFound, project.ErrProjectNotFound.Error()
	case errors.Is(err, account.ErrEmailExists):
		return http.StatusConflict, ErrCodeConflict, account.ErrEmailExists.Error()
	default:
		return http.StatusInternalServerError, ErrCodeInternal, "internal server error"
	}
}

// writeServiceError maps err onto the uniform error body and logs it:
// 5xx at error level, 4xx at warn.
func (s *Server) writeServiceError(w http.ResponseWriter, r *http.Request, err error) {
	status, code, message := classify(err)

	attrs := []any{
		"method", r.Method,
		"path", r.URL.Path,
		"status", status,
		"error", err,
		"request_id", requestIDFrom(r.Context()),
	}
	if status >= http.StatusInternalServerError {
		s.logger.Error("request failed", attrs...)
	} else {
		s.logger.Warn("request rejected", attrs...)
	}

	writeError(w, r, status, code, message)
}

// decodeJSON reads a single JSON object into v, rejecting unknown fields.
func decodeJSON(r *http.Request, v any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			return badRequest("request body too large")
		}
		return badRequest("invalid JSON body: " + err.Error())
	}
	if dec.More() {
		return badRequest("request body must contain a single JSON object")
	}
	return nil
}
