package transport

import (
	"encoding/json"
	"net/http"

	"github.com/darve-social/darve-go/apperr"
)

// writeJSON marshals v as the response body with the given status code.
func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// writeErrorBody writes a bare {"error":...,"message":...} body without
// going through apperr — used by middleware that runs before a service
// call exists to translate.
func writeErrorBody(w http.ResponseWriter, status int, kind, message string) {
	writeJSON(w, status, map[string]string{"error": kind, "message": message})
}

// writeErr maps a service error to the HTTP status table in spec.md §7.
// Forbidden never echoes the failed permission/action name back to the
// caller (spec.md §7 "do not leak which check").
func writeErr(w http.ResponseWriter, err error) {
	aerr, ok := apperr.As(err)
	if !ok {
		writeErrorBody(w, http.StatusInternalServerError, string(apperr.Internal), "internal error")
		return
	}
	switch aerr.Kind {
	case apperr.Unauthorized:
		writeErrorBody(w, http.StatusUnauthorized, string(aerr.Kind), "authentication required")
	case apperr.Forbidden:
		writeErrorBody(w, http.StatusForbidden, string(aerr.Kind), "forbidden")
	case apperr.NotFound:
		writeErrorBody(w, http.StatusNotFound, string(aerr.Kind), "not found")
	case apperr.Validation:
		writeErrorBody(w, http.StatusUnprocessableEntity, string(aerr.Kind), aerr.Error())
	case apperr.InsufficientFunds:
		writeErrorBody(w, http.StatusPaymentRequired, string(aerr.Kind), "insufficient funds")
	case apperr.Conflict:
		writeErrorBody(w, http.StatusConflict, string(aerr.Kind), aerr.Message)
	case apperr.DeadlineExpired:
		writeErrorBody(w, http.StatusUnprocessableEntity, string(aerr.Kind), aerr.Message)
	default:
		writeErrorBody(w, http.StatusInternalServerError, string(apperr.Internal), "internal error")
	}
}

// handleErr maps err to an HTTP response via writeErr and feeds
// InsufficientFunds rejections into the spike monitor.
func (a *App) handleErr(w http.ResponseWriter, err error) {
	writeErr(w, err)
	if aerr, ok := apperr.As(err); ok && aerr.Kind == apperr.InsufficientFunds {
		a.noteInsufficientFundsRejection()
	}
}

func decodeJSON(r *http.Request, v interface{}) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	return dec.Decode(v)
}
