package payments

import (
	"context"
	"fmt"
	"net/url"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/ajstudioz/ajstudioz-gateway/internal/shared/logger"
)

const (
	checkoutCurrency = "INR"
	defaultPhone     = "9999999999"
)

// OrderCreator creates provider orders. *Client implements it.
type OrderCreator interface {
	CreateOrder(ctx context.Context, req OrderRequest) (*Order, error)
}

// CheckoutRequest describes the buyer of a Pro subscription.
type CheckoutRequest struct {
	UserID    string
	Email     string
	Name      string
	Phone     string
	ReturnURL string
}

// CheckoutSession is returned to the browser to open the payment page.
type CheckoutSession struct {
	Success          bool            `json:"success"`
	OrderID          string          `json:"orderId"`
	CFToken          string          `json:"cfToken,omitempty"`
	PaymentSessionID string          `json:"paymentSessionId"`
	OrderAmount      decimal.Decimal `json:"orderAmount"`
	OrderCurrency    string          `json:"orderCurrency"`
}

// Checkout opens Pro subscription orders.
type Checkout struct {
	orders  OrderCreator
	price   decimal.Decimal
	baseURL string
	now     func() time.Time
	logger  *zap.Logger
}

// NewCheckout creates a checkout for a monthly plan priced in rupees.
// baseURL is the public address the provider redirects and notifies to.
func NewCheckout(orders OrderCreator, priceINR int, baseURL string, log *zap.Logger) *Checkout {
	return &Checkout{
		orders:  orders,
		price:   decimal.NewFromInt(int64(priceINR)),
		baseURL: baseURL,
		now:     time.Now,
		logger:  logger.OrDefault(log),
	}
}

// Start creates an order for the buyer.
func (c *Checkout) Start(ctx context.Context, req CheckoutRequest) (*CheckoutSession, error) {
	orderID := GenerateOrderID(c.now())

	returnURL := req.ReturnURL
	if returnURL == "" {
		returnURL = fmt.Sprintf("%s/success?provider=cashfree&order=%s", c.baseURL, url.QueryEscape(orderID))
	}
	phone := req.Phone
	if phone == "" {
		phone = defaultPhone
	}

	order, err := c.orders.CreateOrder(ctx, OrderRequest{
		OrderID:       orderID,
		OrderAmount:   c.price,
		OrderCurrency: checkoutCurrency,
		CustomerDetails: CustomerDetails{
			CustomerID:    req.UserID,
			CustomerName:  req.Name,
			CustomerEmail: req.Email,
			CustomerPhone: phone,
		},
		OrderMeta: OrderMeta{
			ReturnURL: returnURL,
			NotifyURL: c.baseURL + "/api/webhooks/cashfree",
		},
	})
	if err != nil {
		return nil, fmt.Errorf("create order %s: %w", orderID, err)
	}

	c.logger.Info("checkout order created",
		zap.String("order_id", orderID),
		zap.String("user_id", req.UserID),
	)

	return &CheckoutSession{
		Success:          true,
		OrderID:          first(order.OrderID, orderID),
		CFToken:          order.CFToken,
		PaymentSessionID: first(order.PaymentSessionID, order.CFToken),
		OrderAmount:      c.price,
		OrderCurrency:    checkoutCurrency,
	}, nil
}
