package payments

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

const (
	cashfreeProductionURL = "https://api.cashfree.com/pg"
	cashfreeSandboxURL    = "https://sandbox.cashfree.com/pg"
	cashfreeAPIVersion    = "2023-08-01"
)

// BaseURL returns the Cashfree PG endpoint for the environment.
func BaseURL(production bool) string {
	if production {
		return cashfreeProductionURL
	}
	return cashfreeSandboxURL
}

// CustomerDetails identify the paying customer on an order.
type CustomerDetails struct {
	CustomerID    string `json:"customer_id"`
	CustomerName  string `json:"customer_name,omitempty"`
	CustomerEmail string `json:"customer_email"`
	CustomerPhone string `json:"customer_phone"`
}

// OrderMeta holds the redirect and notification URLs of an order.
type OrderMeta struct {
	ReturnURL string `json:"return_url,omitempty"`
	NotifyURL string `json:"notify_url,omitempty"`
}

// OrderRequest is the body of POST /orders.
type OrderRequest struct {
	OrderID         string          `json:"order_id"`
	OrderAmount     decimal.Decimal `json:"-"`
	OrderCurrency   string          `json:"order_currency"`
	CustomerDetails CustomerDetails `json:"customer_details"`
	OrderMeta       OrderMeta       `json:"order_meta"`
}

// MarshalJSON sends order_amount as a JSON number.
func (r OrderRequest) MarshalJSON() ([]byte, error) {
	type plain OrderRequest
	return json.Marshal(struct {
		plain
		OrderAmount json.Number `json:"order_amount"`
	}{plain: plain(r), OrderAmount: json.Number(r.OrderAmount.String())})
}

// Order is the Cashfree order returned on creation.
type Order struct {
	CFOrderID        flexString `json:"cf_order_id"`
	OrderID          string     `json:"order_id"`
	OrderStatus      string     `json:"order_status"`
	PaymentSessionID string     `json:"payment_session_id"`
	CFToken          string     `json:"cf_token"`
}

// APIError is a non-2xx Cashfree response.
type APIError struct {
	StatusCode int
	Code       string `json:"code"`
	Type       string `json:"type"`
	Message    string `json:"message"`
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("cashfree error (status %d)", e.StatusCode)
	}
	return fmt.Sprintf("cashfree error (status %d): %s", e.StatusCode, e.Message)
}

// Client talks to the Cashfree payment gateway.
type Client struct {
	appID     string
	secretKey string
	baseURL   string
	client    *http.Client
}

func NewClient(appID, secretKey, baseURL string) *Client {
	return &Client{
		appID:     appID,
		secretKey: secretKey,
		baseURL:   strings.TrimRight(baseURL, "/"),
		client:    &http.Client{Timeout: 30 * time.Second},
	}
}

// CreateOrder registers an order and returns its payment session.
func (c *Client) CreateOrder(ctx context.Context, req OrderRequest) (*Order, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal order: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/orders", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("x-api-version", cashfreeAPIVersion)
	httpReq.Header.Set("x-client-id", c.appID)
	httpReq.Header.Set("x-client-secret", c.secretKey)

	resp, err := c.client.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode >= 300 {
		apiErr := &APIError{StatusCode: resp.StatusCode}
		_ = json.Unmarshal(respBody, apiErr)
		return nil, apiErr
	}

	var order Order
	if err := json.Unmarshal(respBody, &order); err != nil {
		return nil, fmt.Errorf("failed to decode order: %w", err)
	}
	if order.PaymentSessionID == "" && order.CFToken == "" {
		return nil, &APIError{StatusCode: resp.StatusCode, Message: "no payment session in response"}
	}
	return &order, nil
}

// GenerateOrderID returns a unique merchant order id.
func GenerateOrderID(now time.Time) string {
	suffix := strings.ReplaceAll(uuid.NewString(), "-", "")[:12]
	return fmt.Sprintf("CF_ORDER_%d_%s", now.UnixMilli(), suffix)
}
