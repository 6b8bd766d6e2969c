package handlers

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/Lixing-Zhang/handmade-storefront/internal/apperr"
)

// WriteJSON writes a JSON response
func WriteJSON(w http.ResponseWriter, status int, data interface{}, logger *slog.Logger) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(data); err != nil {
		logger.Error("failed to encode JSON response", "error", err)
	}
}

// WriteData writes the success envelope {success: true, data}.
func WriteData(w http.ResponseWriter, status int, data interface{}, logger *slog.Logger) {
	WriteJSON(w, status, map[string]interface{}{
		"success": true,
		"data":    data,
	}, logger)
}

// WriteError writes the failure envelope {success: false, message}.
func WriteError(w http.ResponseWriter, status int, message string, logger *slog.Logger) {
	WriteJSON(w, status, map[string]interface{}{
		"success": false,
		"message": message,
	}, logger)
}

// WriteServiceError maps err to its status by kind. Unclassified errors are
// logged with detail and answered with a generic message.
func WriteServiceError(w http.ResponseWriter, r *http.Request, err error, logger *slog.Logger) {
	kind := apperr.KindOf(err)
	switch kind {
	case apperr.KindInternal:
		logger.Error("request failed",
			"method", r.Method,
			"path", r.URL.Path,
			"error", err,
		)
	case apperr.KindExternal:
		logger.Error("upstream failure",
			"method", r.Method,
			"path", r.URL.Path,
			"error", err,
		)
	default:
		logger.Debug("request rejected", "path", r.URL.Path, "kind", kind.String(), "error", err)
	}
	WriteError(w, kind.HTTPStatus(), apperr.PublicMessage(err), logger)
}
