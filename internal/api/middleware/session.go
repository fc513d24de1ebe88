package middleware

import (
	"context"
	"net/http"

	"github.com/google/uuid"

	apiContext "zoomhook/internal/api/context"
	"zoomhook/internal/platform/config"
)

// SessionMiddleware binds each browser to an opaque session id carried in an
// HttpOnly cookie. A cookie is issued on first contact.
type SessionMiddleware struct {
	cookieName string
	secure     bool
}

func NewSessionMiddleware(cfg config.SessionConfig) *SessionMiddleware {
	name := cfg.CookieName
	if name == "" {
		name = "zm_session"
	}
	return &SessionMiddleware{cookieName: name, secure: cfg.Secure}
}

func (m *SessionMiddleware) Handle(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var sessionID string
		if cookie, err := r.Cookie(m.cookieName); err == nil {
			if _, err := uuid.Parse(cookie.Value); err == nil {
				sessionID = cookie.Value
			}
		}

		if sessionID == "" {
			sessionID = uuid.New().String()
			http.SetCookie(w, &http.Cookie{
				Name:     m.cookieName,
				Value:    sessionID,
				Path:     "/",
				HttpOnly: true,
				Secure:   m.secure,
				SameSite: http.SameSiteLaxMode,
			})
		}

		ctx := context.WithValue(r.Context(), apiContext.Session, sessionID)
		next(w, r.WithContext(ctx))
	}
}

// SessionID returns the session bound by SessionMiddleware, or "".
func SessionID(ctx context.Context) string {
	id, _ := ctx.Value(apiContext.Session).(string)
	return id
}
