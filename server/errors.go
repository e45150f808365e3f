package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/google/uuid"

	"vesseladmin/database"
	"vesseladmin/internal/utils"
)

// Module tags carried in error responses so clients can attribute failures.
const (
	ModuleAuth       = "AUTH"
	ModuleUser       = "USER"
	ModuleRole       = "ROLE"
	ModulePermission = "PERMISSION"
	ModuleGeneric    = "GENERIC"
)

// Flow-level errors raised by the auth orchestration. Store-level errors live
// in the database package; both propagate unmodified to writeError.
var (
	ErrWrongPassword            = errors.New("wrong password")
	ErrInvalidRefreshToken      = errors.New("invalid refresh token")
	ErrTokenExpired             = errors.New("token has expired")
	ErrFailedExternalValidation = errors.New("failed validation from google")
	ErrUnauthorized             = errors.New("missing or malformed credentials")
	ErrForbidden                = errors.New("you do not have permission to perform this action")
	ErrValidation               = errors.New("invalid request")
)

// errorResponse is the single structured error body produced at the request
// boundary.
type errorResponse struct {
	CorrelationId string   `json:"correlationId"`
	Timestamp     string   `json:"timestamp"`
	Module        string   `json:"module"`
	Errors        []string `json:"errors"`
}

// statusFor maps an error kind to its HTTP status.
func statusFor(err error) int {
	switch {
	case errors.Is(err, database.ErrUserNotFound),
		errors.Is(err, database.ErrRoleNotFound),
		errors.Is(err, database.ErrPermissionNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrWrongPassword),
		errors.Is(err, ErrInvalidRefreshToken),
		errors.Is(err, ErrTokenExpired),
		errors.Is(err, ErrFailedExternalValidation),
		errors.Is(err, ErrValidation),
		errors.Is(err, utils.ErrInvalidToken),
		errors.Is(err, database.ErrEmailAlreadyUsed),
		errors.Is(err, database.ErrRoleNameAlreadyUsed),
		errors.Is(err, database.ErrCannotModifySystemRole),
		errors.Is(err, database.ErrRoleInUse):
		return http.StatusBadRequest
	case errors.Is(err, ErrUnauthorized):
		return http.StatusUnauthorized
	case errors.Is(err, ErrForbidden):
		return http.StatusForbidden
	default:
		return http.StatusInternalServerError
	}
}

// writeError translates a domain error into the structured boundary response.
// Unexpected errors are masked as a generic internal failure; the real cause
// stays in the server log, keyed by the correlation id.
func writeError(w http.ResponseWriter, module string, err error) {
	status := statusFor(err)
	correlationId := uuid.NewString()

	message := err.Error()
	if status == http.StatusInternalServerError {
		message = "internal server error"
	}
	log.Printf("[%s] request failed (correlationId=%s, status=%d): %v", module, correlationId, status, err)

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	body := errorResponse{
		CorrelationId: correlationId,
		Timestamp:     time.Now().UTC().Format(time.RFC3339),
		Module:        module,
		Errors:        []string{message},
	}
	if err := json.NewEncoder(w).Encode(body); err != nil {
		log.Printf("[%s] failed to encode error response: %v", module, err)
	}
}

// writeJSON writes a success response body.
func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if body == nil {
		return
	}
	if err := json.NewEncoder(w).Encode(body); err != nil {
		log.Printf("[server] failed to encode response: %v", err)
	}
}

// decodeJSON decodes a request body with the usual guards: 1MB cap and
// unknown-field rejection.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	r.Body = http.MaxBytesReader(w, r.Body, 1048576)
	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(dst); err != nil {
		return fmt.Errorf("%w: invalid JSON body: %v", ErrValidation, err)
	}
	return nil
}
