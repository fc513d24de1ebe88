package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/julienschmidt/httprouter"
	"github.com/rs/zerolog/log"

	apiContext "zoomhook/internal/api/context"
	"zoomhook/internal/pkg/errors"
)

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// writeFailure logs err with the request logger and writes the envelope for
// its kind. The cause never reaches the client.
func writeFailure(w http.ResponseWriter, r *http.Request, err error) {
	log.Ctx(r.Context()).Error().
		Err(err).
		Str("kind", errors.KindOf(err).String()).
		Str("path", r.URL.Path).
		Msg("request failed")
	errors.WriteKind(w, err)
}

func param(r *http.Request, name string) string {
	params, _ := r.Context().Value(apiContext.Params).(httprouter.Params)
	return params.ByName(name)
}
