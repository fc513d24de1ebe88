package middleware

import (
	"context"
	"net/http"

	"github.com/rs/zerolog/log"

	apiContext "zoomhook/internal/api/context"
	"zoomhook/internal/engine/appcontext"
	"zoomhook/internal/pkg/errors"
)

type AppContextMiddleware struct {
	decryptor *appcontext.Decryptor
}

func NewAppContextMiddleware(decryptor *appcontext.Decryptor) *AppContextMiddleware {
	return &AppContextMiddleware{decryptor: decryptor}
}

// Handle rejects requests whose x-zoom-app-context header is missing or does
// not decrypt, and stores the decoded context for the next handler.
func (m *AppContextMiddleware) Handle(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		header := r.Header.Get(appcontext.Header)
		if header == "" {
			errors.WriteError(w, http.StatusUnauthorized, errors.ErrCodeUnauthorized, "Missing app context header", nil)
			return
		}

		appCtx, err := m.decryptor.Decode(header)
		if err != nil {
			log.Ctx(r.Context()).Warn().Err(err).Msg("failed to decode app context")
			errors.WriteError(w, http.StatusUnauthorized, errors.ErrCodeUnauthorized, "Invalid app context", nil)
			return
		}

		ctx := context.WithValue(r.Context(), apiContext.AppContext, appCtx)
		next(w, r.WithContext(ctx))
	}
}

func AppContextFrom(ctx context.Context) (*appcontext.Context, bool) {
	appCtx, ok := ctx.Value(apiContext.AppContext).(*appcontext.Context)
	return appCtx, ok
}
