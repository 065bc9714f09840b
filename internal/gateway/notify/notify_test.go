package notify

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"github.com/resend/resend-go/v2"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingMailer struct {
	sent []Message
	fail map[string]error
}

func (m *recordingMailer) Send(_ context.Context, msg Message) error {
	if err := m.fail[msg.To[0]]; err != nil {
		return err
	}
	m.sent = append(m.sent, msg)
	return nil
}

func testOrder() Order {
	return Order{
		OrderID:       "CF_ORDER_1",
		Amount:        decimal.NewFromInt(249),
		Currency:      "INR",
		CustomerEmail: "a@b.com",
		PaymentMethod: "Cashfree",
		Status:        "succeeded",
		Time:          time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC),
	}
}

func TestSendOrderConfirmation(t *testing.T) {
	m := &recordingMailer{}
	d := NewDispatcher(m, "AJ STUDIOZ <noreply@ajstudioz.com>", []string{"ops@ajstudioz.com"}, nil)

	require.NoError(t, d.SendOrderConfirmation(context.Background(), testOrder()))
	require.Len(t, m.sent, 2)

	customer := m.sent[0]
	assert.Equal(t, []string{"a@b.com"}, customer.To)
	assert.Equal(t, "Payment Confirmation - Order #CF_ORDER_1", customer.Subject)
	assert.Contains(t, customer.HTML, "₹249.00")
	assert.Equal(t, "AJ STUDIOZ <noreply@ajstudioz.com>", customer.From)

	admin := m.sent[1]
	assert.Equal(t, []string{"ops@ajstudioz.com"}, admin.To)
	assert.Equal(t, "New Order Alert - ₹249.00 Payment Received", admin.Subject)
	assert.Contains(t, admin.HTML, "Not provided")
	assert.Contains(t, admin.HTML, "a@b.com")
}

func TestSendOrderConfirmationJoinsErrors(t *testing.T) {
	m := &recordingMailer{fail: map[string]error{"a@b.com": errors.New("bounced")}}
	d := NewDispatcher(m, "from@x", []string{"ops@ajstudioz.com"}, nil)

	err := d.SendOrderConfirmation(context.Background(), testOrder())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "bounced")
	// admin alert still went out
	require.Len(t, m.sent, 1)
	assert.Equal(t, []string{"ops@ajstudioz.com"}, m.sent[0].To)
}

func TestSendOrderConfirmationWithoutCustomerEmail(t *testing.T) {
	m := &recordingMailer{}
	d := NewDispatcher(m, "from@x", nil, nil)

	o := testOrder()
	o.CustomerEmail = ""
	require.NoError(t, d.SendOrderConfirmation(context.Background(), o))
	assert.Empty(t, m.sent)
}

func TestAccountEmailsEscapeInput(t *testing.T) {
	m := &recordingMailer{}
	d := NewDispatcher(m, "from@x", nil, nil)
	ctx := context.Background()

	require.NoError(t, d.SendWelcome(ctx, Recipient{Name: "<b>Eve</b>", Email: "e@x.com"}))
	require.NoError(t, d.SendLoginAlert(ctx, Recipient{Email: "e@x.com"}, LoginDetails{IPAddress: "1.2.3.4"}))

	require.Len(t, m.sent, 2)
	assert.Contains(t, m.sent[0].HTML, "&lt;b&gt;Eve&lt;/b&gt;")
	assert.Contains(t, m.sent[1].HTML, "1.2.3.4")
	assert.Contains(t, m.sent[1].HTML, "Unknown browser")
}

func newTestResendMailer(t *testing.T, srv *httptest.Server) *ResendMailer {
	t.Helper()
	base, err := url.Parse(srv.URL + "/")
	require.NoError(t, err)
	client := resend.NewCustomClient(srv.Client(), "re_test")
	client.BaseURL = base
	return newResendMailer(client)
}

func TestResendMailer(t *testing.T) {
	var got Message
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/emails", r.URL.Path)
		assert.Equal(t, "Bearer re_test", r.Header.Get("Authorization"))
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"id":"em_1"}`))
	}))
	defer srv.Close()

	msg := Message{From: "f@x", To: []string{"t@x"}, Subject: "s", HTML: "<p>h</p>"}
	require.NoError(t, newTestResendMailer(t, srv).Send(context.Background(), msg))
	assert.Equal(t, msg, got)
}

func TestResendMailerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusUnprocessableEntity)
		_, _ = w.Write([]byte(`{"statusCode":422,"name":"validation_error","message":"invalid from"}`))
	}))
	defer srv.Close()

	err := newTestResendMailer(t, srv).Send(context.Background(), Message{To: []string{"t@x"}})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "resend")
}
