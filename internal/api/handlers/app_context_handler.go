package handlers

import (
	"encoding/json"
	"net/http"

	"zoomhook/internal/api/middleware"
	"zoomhook/internal/pkg/errors"
)

type AppContextHandler struct{}

func NewAppContextHandler() *AppContextHandler {
	return &AppContextHandler{}
}

// Get returns the decrypted app context. It runs behind
// AppContextMiddleware.
func (h *AppContextHandler) Get(w http.ResponseWriter, r *http.Request) {
	appCtx, ok := middleware.AppContextFrom(r.Context())
	if !ok {
		errors.WriteError(w, http.StatusUnauthorized, errors.ErrCodeUnauthorized, "Invalid app context", nil)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	if len(appCtx.Raw) > 0 {
		w.Write(appCtx.Raw)
		return
	}
	json.NewEncoder(w).Encode(appCtx)
}
