package payments

import (
	"encoding/json"
	"time"

	"github.com/shopspring/decimal"
)

// Webhook event types sent by Cashfree.
const (
	EventPaymentSuccess = "PAYMENT_SUCCESS_WEBHOOK"
	EventPaymentFailed  = "PAYMENT_FAILED_WEBHOOK"
	EventUserDropped    = "PAYMENT_USER_DROPPED_WEBHOOK"
)

// Event is a Cashfree payment webhook body.
type Event struct {
	Type      string    `json:"type"`
	EventTime string    `json:"event_time"`
	Data      EventData `json:"data"`
}

// EventData carries the order, payment and customer blocks. Older payloads
// put the payment fields directly under data, so both shapes are read.
type EventData struct {
	Order           EventOrder      `json:"order"`
	Payment         EventPayment    `json:"payment"`
	CustomerDetails EventCustomer   `json:"customer_details"`
	ErrorDetails    EventError      `json:"error_details"`
	CFPaymentID     flexString      `json:"cf_payment_id"`
	PaymentTime     string          `json:"payment_time"`
	PaymentMessage  string          `json:"payment_message"`
	PaymentGroup    string          `json:"payment_group"`
	PaymentMethod   json.RawMessage `json:"payment_method"`
}

type EventOrder struct {
	OrderID       string          `json:"order_id"`
	OrderAmount   decimal.Decimal `json:"order_amount"`
	OrderCurrency string          `json:"order_currency"`
}

type EventPayment struct {
	CFPaymentID    flexString      `json:"cf_payment_id"`
	PaymentStatus  string          `json:"payment_status"`
	PaymentTime    string          `json:"payment_time"`
	PaymentMessage string          `json:"payment_message"`
	PaymentGroup   string          `json:"payment_group"`
	PaymentMethod  json.RawMessage `json:"payment_method"`
}

type EventCustomer struct {
	CustomerID    string `json:"customer_id"`
	CustomerName  string `json:"customer_name"`
	CustomerEmail string `json:"customer_email"`
	CustomerPhone string `json:"customer_phone"`
}

type EventError struct {
	ErrorCode        string `json:"error_code"`
	ErrorDescription string `json:"error_description"`
	ErrorReason      string `json:"error_reason"`
}

func (d *EventData) paymentID() string {
	if d.Payment.CFPaymentID != "" {
		return string(d.Payment.CFPaymentID)
	}
	return string(d.CFPaymentID)
}

func (d *EventData) paymentTime() string {
	return first(d.Payment.PaymentTime, d.PaymentTime)
}

func (d *EventData) paymentGroup() string {
	return first(d.Payment.PaymentGroup, d.PaymentGroup)
}

func (d *EventData) paymentMessage() string {
	return first(d.Payment.PaymentMessage, d.PaymentMessage)
}

func (d *EventData) paymentMethod() json.RawMessage {
	if len(d.Payment.PaymentMethod) > 0 && string(d.Payment.PaymentMethod) != "null" {
		return d.Payment.PaymentMethod
	}
	if len(d.PaymentMethod) > 0 && string(d.PaymentMethod) != "null" {
		return d.PaymentMethod
	}
	return nil
}

// recordID is the provider transaction id, or the order id when the
// provider sent none.
func (d *EventData) recordID() string {
	return first(d.paymentID(), d.Order.OrderID)
}

// createdAt is the provider payment time, falling back to now.
func (d *EventData) createdAt(now time.Time) time.Time {
	if s := d.paymentTime(); s != "" {
		for _, layout := range []string{time.RFC3339, "2006-01-02T15:04:05", "2006-01-02 15:04:05"} {
			if t, err := time.Parse(layout, s); err == nil {
				return t
			}
		}
	}
	return now
}

// flexString accepts a JSON string or number. Cashfree sends cf_payment_id
// as either depending on API version.
type flexString string

func (f *flexString) UnmarshalJSON(b []byte) error {
	if string(b) == "null" {
		return nil
	}
	var s string
	if err := json.Unmarshal(b, &s); err == nil {
		*f = flexString(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return err
	}
	*f = flexString(n.String())
	return nil
}

func first(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}
