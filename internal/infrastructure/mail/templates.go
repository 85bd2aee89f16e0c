package mail

import (
	"bytes"
	htmltemplate "html/template"
	"text/template"
	"time"
)

// PasswordResetData fills the password reset mail
type PasswordResetData struct {
	Name      string
	ResetURL  string
	ExpiresIn time.Duration
	ShopName  string
}

// OrderLine is an order line listed in the confirmation mail
type OrderLine struct {
	Name     string
	Quantity int
	Total    string
}

// OrderConfirmationData fills the order confirmation mail
type OrderConfirmationData struct {
	Name     string
	Number   string
	Lines    []OrderLine
	Total    string
	OrderURL string
	ShopName string
}

type pair struct {
	text *template.Template
	html *htmltemplate.Template
}

func (p pair) render(to, toName, subject string, data any) (Message, error) {
	var text, html bytes.Buffer
	if err := p.text.Execute(&text, data); err != nil {
		return Message{}, err
	}
	if err := p.html.Execute(&html, data); err != nil {
		return Message{}, err
	}
	return Message{To: to, ToName: toName, Subject: subject, Text: text.String(), HTML: html.String()}, nil
}

func minutes(d time.Duration) int { return int(d.Minutes()) }

var passwordReset = pair{
	text: template.Must(template.New("reset.txt").Funcs(template.FuncMap{"minutes": minutes}).Parse(
		`Hello {{.Name}},

We received a request to reset your {{.ShopName}} password. Open the link below to choose a new one:

{{.ResetURL}}

The link expires in {{minutes .ExpiresIn}} minutes. If you did not ask for a reset you can ignore this mail.
`)),
	html: htmltemplate.Must(htmltemplate.New("reset.html").Funcs(htmltemplate.FuncMap{"minutes": minutes}).Parse(
		`<p>Hello {{.Name}},</p>
<p>We received a request to reset your {{.ShopName}} password.</p>
<p><a href="{{.ResetURL}}">Choose a new password</a></p>
<p>The link expires in {{minutes .ExpiresIn}} minutes. If you did not ask for a reset you can ignore this mail.</p>`)),
}

var orderConfirmation = pair{
	text: template.Must(template.New("order.txt").Parse(
		`Hello {{.Name}},

Thank you for your order {{.Number}}.
{{range .Lines}}
  {{.Quantity}} x {{.Name}}  {{.Total}}{{end}}

Total: {{.Total}}

Track your order at {{.OrderURL}}

{{.ShopName}}
`)),
	html: htmltemplate.Must(htmltemplate.New("order.html").Parse(
		`<p>Hello {{.Name}},</p>
<p>Thank you for your order <strong>{{.Number}}</strong>.</p>
<table>{{range .Lines}}<tr><td>{{.Quantity}} &times; {{.Name}}</td><td align="right">{{.Total}}</td></tr>{{end}}
<tr><td><strong>Total</strong></td><td align="right"><strong>{{.Total}}</strong></td></tr></table>
<p><a href="{{.OrderURL}}">View your order</a></p>
<p>{{.ShopName}}</p>`)),
}

// PasswordResetMessage renders the password reset mail
func PasswordResetMessage(to string, data PasswordResetData) (Message, error) {
	return passwordReset.render(to, data.Name, "Reset your "+data.ShopName+" password", data)
}

// OrderConfirmationMessage renders the order confirmation mail
func OrderConfirmationMessage(to string, data OrderConfirmationData) (Message, error) {
	return orderConfirmation.render(to, data.Name, "Order "+data.Number+" confirmed", data)
}
