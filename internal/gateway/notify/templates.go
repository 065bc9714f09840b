package notify

import "html/template"

const orderRows = `
<table style="width:100%;border-collapse:collapse;font-size:14px">
  <tr><td style="padding:6px 0;color:#666">Order ID</td><td style="padding:6px 0"><strong>{{.OrderID}}</strong></td></tr>
  <tr><td style="padding:6px 0;color:#666">Amount</td><td style="padding:6px 0"><strong>{{.Amount}}</strong></td></tr>
  <tr><td style="padding:6px 0;color:#666">Payment method</td><td style="padding:6px 0">{{.PaymentMethod}}</td></tr>
  <tr><td style="padding:6px 0;color:#666">Date</td><td style="padding:6px 0">{{.Date}}</td></tr>
  <tr><td style="padding:6px 0;color:#666">Status</td><td style="padding:6px 0">{{.Status}}</td></tr>
</table>`

var (
	customerOrderTmpl = template.Must(template.New("order_confirmation").Parse(`<div style="font-family:Arial,sans-serif;max-width:600px;margin:0 auto">
  <h2>Thank you for your purchase!</h2>
  <p>Your payment was received and AJ STUDIOZ Pro is now active on your account.</p>
  ` + orderRows + `
  <p style="color:#666;font-size:12px">Keep this email for your records.</p>
</div>`))

	adminOrderTmpl = template.Must(template.New("order_alert").Parse(`<div style="font-family:Arial,sans-serif;max-width:600px;margin:0 auto">
  <h2>New order received</h2>
  ` + orderRows + `
  <h3>Customer</h3>
  <p>Email: {{.Email}}<br>Phone: {{.Phone}}</p>
</div>`))

	welcomeTmpl = template.Must(template.New("welcome").Parse(`<div style="font-family:Arial,sans-serif;max-width:600px;margin:0 auto">
  <h2>Welcome to AJ STUDIOZ, {{.Name}}!</h2>
  <p>Your account is ready. Pick a model and start chatting.</p>
</div>`))

	loginTmpl = template.Must(template.New("login_alert").Parse(`<div style="font-family:Arial,sans-serif;max-width:600px;margin:0 auto">
  <h2>New sign-in detected</h2>
  <p>Hi {{.Name}}, your account was just signed in to.</p>
  <p>Time: {{.Time}}<br>IP address: {{.IP}}<br>Browser: {{.Browser}}</p>
  <p>If this wasn't you, secure your account right away.</p>
</div>`))
)
