package handlers

import (
	"encoding/json"
	"io"
	"net/http"

	"github.com/rs/zerolog/log"

	"zoomhook/internal/engine/webhooks"
	"zoomhook/internal/pkg/errors"
	"zoomhook/internal/platform/metrics"
)

// maxWebhookBody bounds the body read before the signature is checked.
const maxWebhookBody = 1 << 20

const (
	authorizedMessage   = "Authorized request to Zoom Webhook sample."
	unauthorizedMessage = "Unauthorized request to Zoom Webhook sample."
)

type WebhookResponse struct {
	Message string `json:"message"`
	Status  int    `json:"status"`
}

type WebhookHandler struct {
	verifier   *webhooks.Verifier
	dispatcher *webhooks.Dispatcher
	metrics    *metrics.Metrics
}

func NewWebhookHandler(verifier *webhooks.Verifier, dispatcher *webhooks.Dispatcher, m *metrics.Metrics) *WebhookHandler {
	return &WebhookHandler{verifier: verifier, dispatcher: dispatcher, metrics: m}
}

// Receive verifies the signature over the exact bytes received, then either
// answers the url_validation challenge or acknowledges and dispatches the
// event.
func (h *WebhookHandler) Receive(w http.ResponseWriter, r *http.Request) {
	logger := log.Ctx(r.Context())

	body, err := io.ReadAll(io.LimitReader(r.Body, maxWebhookBody+1))
	if err != nil || len(body) > maxWebhookBody {
		h.metrics.WebhookRequest("invalid")
		errors.WriteError(w, http.StatusBadRequest, errors.ErrCodeInvalidInput, "Invalid request body", nil)
		return
	}

	signature := r.Header.Get(webhooks.SignatureHeader)
	timestamp := r.Header.Get(webhooks.TimestampHeader)
	if err := h.verifier.Verify(body, signature, timestamp); err != nil {
		h.metrics.WebhookRequest("unauthorized")
		logger.Warn().Err(err).Msg(unauthorizedMessage)
		writeJSON(w, http.StatusUnauthorized, WebhookResponse{Message: unauthorizedMessage, Status: http.StatusUnauthorized})
		return
	}

	event, err := webhooks.ParseEvent(body)
	if err != nil {
		h.metrics.WebhookRequest("invalid")
		errors.WriteError(w, http.StatusBadRequest, errors.ErrCodeInvalidInput, "Invalid webhook payload", nil)
		return
	}
	h.metrics.WebhookEvent(event.Event)

	if event.Event == webhooks.EventURLValidation {
		var req webhooks.URLValidationRequest
		if err := json.Unmarshal(event.Payload, &req); err != nil || req.PlainToken == "" {
			h.metrics.WebhookRequest("invalid")
			errors.WriteError(w, http.StatusBadRequest, errors.ErrCodeInvalidInput, "Missing plainToken", nil)
			return
		}

		h.metrics.WebhookRequest("challenge")
		logger.Info().Msg("answered url validation challenge")
		writeJSON(w, http.StatusOK, h.verifier.Challenge(req.PlainToken))
		return
	}

	h.metrics.WebhookRequest("authorized")
	logger.Info().Str("event", event.Event).Msg(authorizedMessage)

	if _, err := h.dispatcher.Dispatch(r.Context(), event); err != nil {
		logger.Error().Err(err).Str("event", event.Event).Msg("webhook event handler failed")
	}

	writeJSON(w, http.StatusOK, WebhookResponse{Message: authorizedMessage, Status: http.StatusOK})
}
