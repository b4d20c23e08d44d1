package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"wallet/internal/core"
	"wallet/internal/log"
	"wallet/internal/middleware/session"
)

var (
	errForbidden   = errors.New("forbidden")
	errBadRequest  = errors.New("invalid request body")
	errMissingUser = errors.New("no authenticated user")
)

const maxBodyBytes = 1 << 20

type errorBody struct {
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

type deletedBody struct {
	Success bool `json:"success"`
}

// writeDeleted answers a successful delete with 200 {"success":true}.
func writeDeleted(w http.ResponseWriter) {
	writeJSON(w, http.StatusOK, deletedBody{Success: true})
}

// statusFor maps an error onto the status code and the message the caller
// may see. Store failures never leak their message.
func statusFor(err error) (int, string) {
	switch {
	case errors.Is(err, errMissingUser):
		return http.StatusUnauthorized, "authentication required"
	case errors.Is(err, errForbidden):
		return http.StatusForbidden, "forbidden"
	case errors.Is(err, errBadRequest):
		return http.StatusBadRequest, err.Error()
	case core.IsValidation(err):
		var ve *core.ValidationError
		errors.As(err, &ve)
		return http.StatusBadRequest, ve.Error()
	case errors.Is(err, core.ErrNotFound):
		return http.StatusNotFound, "not found"
	default:
		return http.StatusInternalServerError, "internal server error"
	}
}

// writeError writes the JSON error body for err and logs server-side failures.
func (s *Server) writeError(w http.ResponseWriter, r *http.Request, op string, err error) {
	status, msg := statusFor(err)
	if status >= http.StatusInternalServerError {
		log.FromContext(r.Context()).ErrorContext(r.Context(), "Request failed",
			log.FieldOperation, op,
			log.FieldPath, r.URL.Path,
			log.FieldError, err)
	}
	writeJSON(w, status, errorBody{Error: msg})
}

// storeContext bounds a store call by the configured timeout. A client
// disconnect cancels it as well.
func (s *Server) storeContext(r *http.Request) (context.Context, context.CancelFunc) {
	return context.WithTimeout(r.Context(), s.storeTimeout)
}

func decodeJSON(w http.ResponseWriter, r *http.Request, v any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err := dec.Decode(v); err != nil {
		return errBadRequest
	}
	return nil
}

func identity(r *http.Request) session.Identity {
	id, _ := session.FromContext(r.Context())
	return id
}

// ownerFor resolves the user a request acts on. An empty requested id means
// the caller; another user's id is only allowed for admins.
func ownerFor(r *http.Request, requested string) (string, error) {
	id, ok := session.FromContext(r.Context())
	if !ok || id.UserID == "" {
		return "", errMissingUser
	}
	requested = strings.TrimSpace(requested)
	if requested == "" || requested == id.UserID {
		return id.UserID, nil
	}
	if id.IsAdmin() {
		return requested, nil
	}
	return "", errForbidden
}

// queryOwner reads an optional userId query parameter.
func queryOwner(r *http.Request) (string, error) {
	return ownerFor(r, r.URL.Query().Get("userId"))
}

// sanitizeInput drops control characters and trims whitespace.
func sanitizeInput(s string) string {
	s = strings.TrimSpace(s)
	return strings.Map(func(r rune) rune {
		if r < 32 && r != 9 && r != 10 && r != 13 {
			return -1
		}
		return r
	}, s)
}

// requireID reads the id query parameter used by DELETE and PATCH.
func requireID(r *http.Request) (string, error) {
	id := strings.TrimSpace(r.URL.Query().Get("id"))
	if id == "" {
		return "", core.Invalid("id", core.ErrMissingField)
	}
	return id, nil
}
