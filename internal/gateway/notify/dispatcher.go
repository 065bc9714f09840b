package notify

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"html/template"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/ajstudioz/ajstudioz-gateway/internal/shared/logger"
)

// Order is the data rendered into payment confirmation emails.
type Order struct {
	OrderID       string
	Amount        decimal.Decimal
	Currency      string
	CustomerEmail string
	CustomerName  string
	CustomerPhone string
	PaymentMethod string
	Status        string
	Time          time.Time
}

// Recipient is a signed-in user receiving an account email.
type Recipient struct {
	Name  string
	Email string
}

// LoginDetails describe the sign-in reported by a login alert.
type LoginDetails struct {
	Time      time.Time
	IPAddress string
	Browser   string
}

// Dispatcher renders transactional emails and hands them to a Mailer.
type Dispatcher struct {
	mailer      Mailer
	from        string
	adminEmails []string
	logger      *zap.Logger
}

func NewDispatcher(mailer Mailer, from string, adminEmails []string, log *zap.Logger) *Dispatcher {
	return &Dispatcher{
		mailer:      mailer,
		from:        from,
		adminEmails: adminEmails,
		logger:      logger.OrDefault(log),
	}
}

// SendOrderConfirmation mails the customer and every configured admin.
// Both sends are attempted; their errors are joined.
func (d *Dispatcher) SendOrderConfirmation(ctx context.Context, o Order) error {
	view := orderView{
		Order:  o,
		Amount: formatAmount(o.Amount, o.Currency),
		Date:   o.Time.UTC().Format("02 Jan 2006, 15:04 MST"),
		Phone:  orDefault(o.CustomerPhone, "Not provided"),
		Email:  orDefault(o.CustomerEmail, "Not provided"),
	}

	var errs []error
	if o.CustomerEmail != "" {
		err := d.send(ctx, []string{o.CustomerEmail},
			fmt.Sprintf("Payment Confirmation - Order #%s", o.OrderID), customerOrderTmpl, view)
		if err != nil {
			errs = append(errs, fmt.Errorf("customer confirmation: %w", err))
		}
	}
	if len(d.adminEmails) > 0 {
		err := d.send(ctx, d.adminEmails,
			fmt.Sprintf("New Order Alert - %s Payment Received", view.Amount), adminOrderTmpl, view)
		if err != nil {
			errs = append(errs, fmt.Errorf("admin alert: %w", err))
		}
	}
	return errors.Join(errs...)
}

// SendWelcome greets a new account.
func (d *Dispatcher) SendWelcome(ctx context.Context, r Recipient) error {
	return d.send(ctx, []string{r.Email}, "Welcome to AJ STUDIOZ", welcomeTmpl, struct {
		Name string
	}{Name: orDefault(r.Name, "there")})
}

// SendLoginAlert reports a new sign-in to the account owner.
func (d *Dispatcher) SendLoginAlert(ctx context.Context, r Recipient, l LoginDetails) error {
	return d.send(ctx, []string{r.Email}, "New sign-in to your AJ STUDIOZ account", loginTmpl, struct {
		Name    string
		Time    string
		IP      string
		Browser string
	}{
		Name:    orDefault(r.Name, "there"),
		Time:    l.Time.UTC().Format(time.RFC1123),
		IP:      orDefault(l.IPAddress, "Unknown"),
		Browser: orDefault(l.Browser, "Unknown browser"),
	})
}

func (d *Dispatcher) send(ctx context.Context, to []string, subject string, tmpl *template.Template, data any) error {
	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return fmt.Errorf("render %s: %w", tmpl.Name(), err)
	}
	if err := d.mailer.Send(ctx, Message{From: d.from, To: to, Subject: subject, HTML: buf.String()}); err != nil {
		return err
	}
	d.logger.Debug("email sent", zap.String("template", tmpl.Name()), zap.Int("recipients", len(to)))
	return nil
}

type orderView struct {
	Order
	Amount string
	Date   string
	Phone  string
	Email  string
}

func formatAmount(amount decimal.Decimal, currency string) string {
	if currency == "" || currency == "INR" {
		return "₹" + amount.StringFixed(2)
	}
	return currency + " " + amount.StringFixed(2)
}

func orDefault(v, def string) string {
	if v == "" {
		return def
	}
	return v
}
