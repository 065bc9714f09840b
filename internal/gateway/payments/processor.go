package payments

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/ajstudioz/ajstudioz-gateway/internal/gateway/notify"
	"github.com/ajstudioz/ajstudioz-gateway/internal/shared/database"
	"github.com/ajstudioz/ajstudioz-gateway/internal/shared/logger"
	"github.com/ajstudioz/ajstudioz-gateway/internal/shared/metrics"
	"github.com/ajstudioz/ajstudioz-gateway/internal/shared/models"
)

// ErrInvalidSignature is returned when a webhook fails verification.
// Nothing is written for such a request.
var ErrInvalidSignature = errors.New("invalid signature")

// Webhook outcomes recorded on metrics.
const (
	outcomeProcessed        = "processed"
	outcomeDuplicate        = "duplicate"
	outcomeInvalidSignature = "invalid_signature"
	outcomeMalformed        = "malformed"
	outcomeIgnored          = "ignored"
	outcomeStoreError       = "store_error"
)

// Store persists payments. *database.DB implements it.
type Store interface {
	FindUserIDByEmail(ctx context.Context, email string) (string, error)
	UpsertPayment(ctx context.Context, p *models.PaymentRecord) (*models.UpsertResult, error)
}

// Notifier sends order confirmations.
type Notifier interface {
	SendOrderConfirmation(ctx context.Context, o notify.Order) error
}

// Invalidator drops cached entitlements after a payment changes them.
type Invalidator interface {
	Invalidate(ctx context.Context, userID string) error
}

// Ack is the body returned to Cashfree for a verified delivery.
type Ack struct {
	Status string `json:"status"`
}

var ack = Ack{Status: "success"}

// Processor verifies and applies Cashfree payment webhooks.
type Processor struct {
	secret      string
	store       Store
	notifier    Notifier
	invalidator Invalidator
	metrics     *metrics.Metrics
	logger      *zap.Logger
	now         func() time.Time
}

// NewProcessor creates a webhook processor. notifier, invalidator and m may
// be nil.
func NewProcessor(secret string, store Store, notifier Notifier, invalidator Invalidator, m *metrics.Metrics, log *zap.Logger) *Processor {
	return &Processor{
		secret:      secret,
		store:       store,
		notifier:    notifier,
		invalidator: invalidator,
		metrics:     m,
		logger:      logger.OrDefault(log),
		now:         time.Now,
	}
}

// Handle verifies rawBody against signature and timestamp, then records the
// payment it describes. Once the signature checks out the delivery is always
// acknowledged and later failures are only logged.
func (p *Processor) Handle(ctx context.Context, rawBody []byte, signature, timestamp string) (Ack, error) {
	if !VerifySignature(p.secret, timestamp, rawBody, signature) {
		p.logger.Warn("webhook signature verification failed", zap.Int("body_bytes", len(rawBody)))
		p.observe("unknown", outcomeInvalidSignature)
		return Ack{}, ErrInvalidSignature
	}

	var ev Event
	if err := json.Unmarshal(rawBody, &ev); err != nil {
		p.logger.Error("malformed webhook payload", zap.Error(err))
		p.observe("unknown", outcomeMalformed)
		return ack, nil
	}

	log := p.logger.With(
		zap.String("event", ev.Type),
		zap.String("order_id", ev.Data.Order.OrderID),
		zap.String("payment_id", ev.Data.paymentID()),
	)

	switch ev.Type {
	case EventPaymentSuccess:
		p.handleSuccess(ctx, &ev.Data, log)
	case EventPaymentFailed:
		p.handleFailure(ctx, &ev.Data, log)
	case EventUserDropped:
		log.Info("customer dropped out of payment")
		p.observe(ev.Type, outcomeProcessed)
	default:
		log.Info("ignoring webhook event")
		p.observe("other", outcomeIgnored)
	}
	return ack, nil
}

func (p *Processor) handleSuccess(ctx context.Context, d *EventData, log *zap.Logger) {
	rec, ok := p.record(d, models.PaymentSucceeded, log)
	if !ok {
		p.observe(EventPaymentSuccess, outcomeMalformed)
		return
	}
	rec.UserID = p.lookupUser(ctx, d.CustomerDetails.CustomerEmail, log)

	res, err := p.store.UpsertPayment(ctx, rec)
	if err != nil {
		log.Error("failed to record payment", zap.Error(err))
		p.observe(EventPaymentSuccess, outcomeStoreError)
		return
	}

	if rec.UserID != nil && p.invalidator != nil {
		if err := p.invalidator.Invalidate(ctx, *rec.UserID); err != nil {
			log.Warn("failed to invalidate entitlement", zap.String("user_id", *rec.UserID), zap.Error(err))
		}
	}

	if !res.Inserted {
		log.Info("duplicate payment webhook", zap.String("stored_status", string(res.Status)))
		p.observe(EventPaymentSuccess, outcomeDuplicate)
		return
	}

	log.Info("payment recorded",
		zap.String("amount", rec.TotalAmount.String()),
		zap.String("currency", rec.Currency),
		zap.Bool("user_linked", rec.UserID != nil),
	)
	p.observe(EventPaymentSuccess, outcomeProcessed)

	if p.notifier == nil || d.CustomerDetails.CustomerEmail == "" {
		return
	}
	err = p.notifier.SendOrderConfirmation(ctx, notify.Order{
		OrderID:       d.Order.OrderID,
		Amount:        rec.TotalAmount,
		Currency:      rec.Currency,
		CustomerEmail: d.CustomerDetails.CustomerEmail,
		CustomerName:  d.CustomerDetails.CustomerName,
		CustomerPhone: d.CustomerDetails.CustomerPhone,
		PaymentMethod: "Cashfree",
		Status:        string(res.Status),
		Time:          rec.CreatedAt,
	})
	if err != nil {
		log.Error("failed to send order confirmation", zap.Error(err))
	}
}

func (p *Processor) handleFailure(ctx context.Context, d *EventData, log *zap.Logger) {
	rec, ok := p.record(d, models.PaymentFailed, log)
	if !ok {
		p.observe(EventPaymentFailed, outcomeMalformed)
		return
	}
	rec.UserID = p.lookupUser(ctx, d.CustomerDetails.CustomerEmail, log)

	msg := d.paymentMessage()
	code := first(d.ErrorDetails.ErrorCode, msg, "payment_failed")
	desc := first(d.ErrorDetails.ErrorDescription, msg, "Payment failed")
	rec.ErrorCode = &code
	rec.ErrorMessage = &desc
	rec.Metadata["failureReason"] = first(d.ErrorDetails.ErrorReason, msg)

	res, err := p.store.UpsertPayment(ctx, rec)
	if err != nil {
		log.Error("failed to record failed payment", zap.Error(err))
		p.observe(EventPaymentFailed, outcomeStoreError)
		return
	}
	if !res.Inserted {
		p.observe(EventPaymentFailed, outcomeDuplicate)
		return
	}
	log.Info("payment failure recorded", zap.String("error_code", code))
	p.observe(EventPaymentFailed, outcomeProcessed)
}

func (p *Processor) record(d *EventData, status models.PaymentStatus, log *zap.Logger) (*models.PaymentRecord, bool) {
	id := d.recordID()
	if id == "" {
		log.Error("webhook carries neither payment id nor order id")
		return nil, false
	}

	metadata := map[string]any{
		"provider":     "cashfree",
		"orderId":      d.Order.OrderID,
		"cfPaymentId":  d.paymentID(),
		"paymentGroup": d.paymentGroup(),
	}
	if m := d.paymentMethod(); m != nil {
		metadata["paymentMethod"] = m
	}

	method := d.paymentGroup()
	if method == "" {
		method = "cashfree"
	}

	rec := &models.PaymentRecord{
		ID:            id,
		Status:        status,
		TotalAmount:   d.Order.OrderAmount,
		Currency:      first(strings.ToUpper(d.Order.OrderCurrency), "INR"),
		PaymentMethod: method,
		Metadata:      metadata,
		CreatedAt:     d.createdAt(p.now()),
	}
	c := d.CustomerDetails
	if c.CustomerEmail != "" || c.CustomerName != "" || c.CustomerPhone != "" {
		rec.Customer = &models.PaymentCustomer{
			Email: c.CustomerEmail,
			Name:  c.CustomerName,
			Phone: c.CustomerPhone,
		}
	}
	return rec, true
}

// lookupUser links the payment to an account by customer email. A missing
// or failed lookup leaves the payment unlinked.
func (p *Processor) lookupUser(ctx context.Context, email string, log *zap.Logger) *string {
	if email == "" {
		return nil
	}
	id, err := p.store.FindUserIDByEmail(ctx, email)
	if errors.Is(err, database.ErrNotFound) {
		log.Warn("no user for payment customer email")
		return nil
	}
	if err != nil {
		log.Error("user lookup failed", zap.Error(fmt.Errorf("find user by email: %w", err)))
		return nil
	}
	return &id
}

func (p *Processor) observe(event, outcome string) {
	if p.metrics != nil {
		p.metrics.WebhookEvents.WithLabelValues(event, outcome).Inc()
	}
}
