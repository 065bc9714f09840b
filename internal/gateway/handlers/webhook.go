package handlers

import (
	"context"
	"errors"
	"io"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/ajstudioz/ajstudioz-gateway/internal/gateway/payments"
	"github.com/ajstudioz/ajstudioz-gateway/internal/shared/logger"
)

const maxWebhookBody = 1 << 20

// WebhookProcessor applies verified payment webhooks.
// *payments.Processor implements it.
type WebhookProcessor interface {
	Handle(ctx context.Context, rawBody []byte, signature, timestamp string) (payments.Ack, error)
}

type WebhookHandler struct {
	processor WebhookProcessor
	logger    *zap.Logger
}

func NewWebhookHandler(p WebhookProcessor, log *zap.Logger) *WebhookHandler {
	return &WebhookHandler{processor: p, logger: logger.OrDefault(log)}
}

// HandleCashfree handles POST /api/webhooks/cashfree. The body is read raw
// because the signature covers the exact bytes sent.
func (h *WebhookHandler) HandleCashfree(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxWebhookBody))
	if err != nil {
		writeError(w, http.StatusBadRequest, "failed to read body", reasonBadRequest)
		return
	}

	ack, err := h.processor.Handle(r.Context(), body,
		r.Header.Get("x-webhook-signature"),
		r.Header.Get("x-webhook-timestamp"),
	)
	if errors.Is(err, payments.ErrInvalidSignature) {
		writeError(w, http.StatusUnauthorized, "Invalid signature", reasonInvalidSignature)
		return
	}
	if err != nil {
		h.logger.Error("webhook processing failed", zap.Error(err))
		writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, ack)
}

// HandleCashfreeStatus handles GET /api/webhooks/cashfree
func (h *WebhookHandler) HandleCashfreeStatus(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"message":   "Cashfree webhook endpoint is active",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}
