package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/ajstudioz/ajstudioz-gateway/internal/gateway/entitlement"
	"github.com/ajstudioz/ajstudioz-gateway/internal/gateway/notify"
	"github.com/ajstudioz/ajstudioz-gateway/internal/gateway/payments"
	"github.com/ajstudioz/ajstudioz-gateway/internal/shared/logger"
)

// CheckoutStarter opens payment orders. *payments.Checkout implements it.
type CheckoutStarter interface {
	Start(ctx context.Context, req payments.CheckoutRequest) (*payments.CheckoutSession, error)
}

// SubscriptionReader reports subscription state.
// *entitlement.Service implements it.
type SubscriptionReader interface {
	Status(ctx context.Context, userID string) (*entitlement.Status, error)
}

// AccountMailer sends account emails. *notify.Dispatcher implements it.
type AccountMailer interface {
	SendWelcome(ctx context.Context, r notify.Recipient) error
	SendLoginAlert(ctx context.Context, r notify.Recipient, l notify.LoginDetails) error
}

type checkoutRequest struct {
	CustomerPhone string `json:"customerPhone" validate:"omitempty,numeric,min=10,max=15"`
	ReturnURL     string `json:"returnUrl" validate:"omitempty,url"`
}

type notificationRequest struct {
	Type string `json:"type" validate:"required,oneof=welcome login"`
}

// AccountHandler serves the signed-in user's subscription and email routes.
// Every route expects RequireAuth in front of it.
type AccountHandler struct {
	checkout      CheckoutStarter
	subscriptions SubscriptionReader
	mailer        AccountMailer
	validate      *validator.Validate
	logger        *zap.Logger
}

func NewAccountHandler(checkout CheckoutStarter, subs SubscriptionReader, mailer AccountMailer, log *zap.Logger) *AccountHandler {
	return &AccountHandler{
		checkout:      checkout,
		subscriptions: subs,
		mailer:        mailer,
		validate:      validator.New(),
		logger:        logger.OrDefault(log),
	}
}

// HandleCheckout handles POST /api/cashfree/checkout
func (h *AccountHandler) HandleCheckout(w http.ResponseWriter, r *http.Request) {
	ent := EntitlementFrom(r.Context())
	if ent.Pro {
		writeError(w, http.StatusBadRequest, "User already has Pro access", reasonBadRequest)
		return
	}

	var req checkoutRequest
	if err := decodeOptional(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", reasonBadRequest)
		return
	}
	if err := h.validate.Struct(req); err != nil {
		writeErr(w, err)
		return
	}

	session, err := h.checkout.Start(r.Context(), payments.CheckoutRequest{
		UserID:    ent.UserID,
		Email:     ent.Email,
		Phone:     req.CustomerPhone,
		ReturnURL: req.ReturnURL,
	})
	if err != nil {
		h.logger.Error("checkout failed", zap.String("user_id", ent.UserID), zap.Error(err))
		var apiErr *payments.APIError
		if errors.As(err, &apiErr) {
			writeError(w, http.StatusBadGateway, "Failed to create payment order", reasonUpstream)
			return
		}
		writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, session)
}

// HandleSubscriptionStatus handles GET /api/subscription/status
func (h *AccountHandler) HandleSubscriptionStatus(w http.ResponseWriter, r *http.Request) {
	ent := EntitlementFrom(r.Context())
	st, err := h.subscriptions.Status(r.Context(), ent.UserID)
	if err != nil {
		h.logger.Error("failed to load subscription status", zap.String("user_id", ent.UserID), zap.Error(err))
		writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, st)
}

// HandleNotification handles POST /api/notifications/email
func (h *AccountHandler) HandleNotification(w http.ResponseWriter, r *http.Request) {
	ent := EntitlementFrom(r.Context())

	var req notificationRequest
	if err := json.NewDecoder(io.LimitReader(r.Body, 1<<16)).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", reasonBadRequest)
		return
	}
	if err := h.validate.Struct(req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid type", reasonBadRequest)
		return
	}

	to := notify.Recipient{Email: ent.Email}
	var err error
	var message string
	switch req.Type {
	case "welcome":
		err = h.mailer.SendWelcome(r.Context(), to)
		message = "Welcome email sent"
	case "login":
		err = h.mailer.SendLoginAlert(r.Context(), to, notify.LoginDetails{
			Time:      time.Now(),
			IPAddress: clientIP(r),
			Browser:   r.Header.Get("User-Agent"),
		})
		message = "Login notification sent"
	}
	if err != nil {
		h.logger.Error("failed to send account email", zap.String("type", req.Type), zap.Error(err))
		writeError(w, http.StatusInternalServerError, "Failed to send email", reasonInternal)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "message": message})
}

// decodeOptional decodes a JSON body, treating an empty body as {}.
func decodeOptional(r *http.Request, v any) error {
	err := json.NewDecoder(io.LimitReader(r.Body, 1<<16)).Decode(v)
	if errors.Is(err, io.EOF) {
		return nil
	}
	return err
}
