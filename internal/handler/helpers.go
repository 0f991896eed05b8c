package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/rsheldon/bramble/internal/errs"
)

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("encode response", "error", err)
	}
}

// writeError maps the error taxonomy onto HTTP statuses. Internal errors
// are logged and masked; taxonomy errors surface their message.
func writeError(w http.ResponseWriter, err error) {
	switch errs.KindOf(err) {
	case errs.KindNotFound:
		writeJSON(w, http.StatusNotFound, map[string]string{"error": err.Error()})
	case errs.KindForbidden:
		writeJSON(w, http.StatusForbidden, map[string]string{"error": err.Error()})
	case errs.KindConflict:
		writeJSON(w, http.StatusConflict, map[string]string{"error": err.Error()})
	case errs.KindValidation:
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
	default:
		slog.Error("internal error", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal error"})
	}
}

func decodeJSON(r *http.Request, v any) error {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return errs.Validation("invalid JSON body")
	}
	return nil
}
