package api

import (
	"context"
	"net/http"

	"github.com/julienschmidt/httprouter"

	apiContext "zoomhook/internal/api/context"
	"zoomhook/internal/api/handlers"
	"zoomhook/internal/api/middleware"
	"zoomhook/internal/pkg/errors"
)

type Dependencies struct {
	IndexHandler         *handlers.IndexHandler
	AuthHandler          *handlers.AuthHandler
	MeetingHandler       *handlers.MeetingHandler
	WebhookHandler       *handlers.WebhookHandler
	AppContextHandler    *handlers.AppContextHandler
	HealthHandler        *handlers.HealthHandler
	MetricsHandler       *handlers.MetricsHandler
	SessionMiddleware    *middleware.SessionMiddleware
	AppContextMiddleware *middleware.AppContextMiddleware
}

func NewRouter(deps *Dependencies) http.Handler {
	router := httprouter.New()
	router.NotFound = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		errors.WriteError(w, http.StatusNotFound, errors.ErrCodeNotFound, "Route not found", nil)
	})

	session := deps.SessionMiddleware.Handle

	router.GET("/", wrap(deps.IndexHandler.Banner))

	// Install flow
	router.GET("/install", chain(deps.AuthHandler.Install, session))
	router.GET("/auth", chain(deps.AuthHandler.Callback, session))
	router.GET("/refreshToken", chain(deps.AuthHandler.RefreshToken, session))
	router.POST("/revokeToken", chain(deps.AuthHandler.RevokeToken, session))

	// Meetings
	router.GET("/createMeeting", chain(deps.MeetingHandler.CreateMeeting, session))
	router.GET("/joinBot", wrap(deps.MeetingHandler.JoinBot))
	router.POST("/meetings/:meeting_id/cohost", chain(deps.MeetingHandler.AssignCoHost, session))
	router.POST("/meetings/:meeting_id/recording/start", chain(deps.MeetingHandler.StartRecording, session))
	router.GET("/deeplink", chain(deps.MeetingHandler.Deeplink, session))
	router.GET("/meetingToken", wrap(deps.MeetingHandler.MeetingToken))

	// Zoom App
	router.GET("/appContext", chain(deps.AppContextHandler.Get, deps.AppContextMiddleware.Handle))

	// Webhooks
	router.POST("/webhookServer", wrap(deps.WebhookHandler.Receive))

	// Operations
	router.GET("/healthz", wrap(deps.HealthHandler.Check))
	router.GET("/metrics", wrap(deps.MetricsHandler.Export))

	return middleware.RequestLogger(router)
}

// Helper function to chain middlewares
func chain(handler http.HandlerFunc, middlewares ...func(http.HandlerFunc) http.HandlerFunc) httprouter.Handle {
	for i := len(middlewares) - 1; i >= 0; i-- {
		handler = middlewares[i](handler)
	}
	return wrap(handler)
}

// Convert http.HandlerFunc to httprouter.Handle
func wrap(handler http.HandlerFunc) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
		// Inject params into context
		ctx := context.WithValue(r.Context(), apiContext.Params, ps)
		handler(w, r.WithContext(ctx))
	}
}
