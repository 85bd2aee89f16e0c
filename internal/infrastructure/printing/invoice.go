package printing

import (
	"bytes"
	"fmt"
	"html/template"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// InvoiceLine is one printed order line
type InvoiceLine struct {
	Name        string
	SKU         string
	OptionLabel string
	UnitPrice   decimal.Decimal
	Quantity    int
	LineTotal   decimal.Decimal
}

// InvoiceData is everything printed on an invoice
type InvoiceData struct {
	CompanyName     string
	Number          string
	Status          string
	PaymentMethod   string
	IssuedAt        time.Time
	CustomerName    string
	CustomerEmail   string
	ShippingAddress string
	Lines           []InvoiceLine
	Subtotal        decimal.Decimal
	DiscountCode    string
	DiscountAmount  decimal.Decimal
	PointsRedeemed  int64
	LoyaltyDiscount decimal.Decimal
	ShippingFee     decimal.Decimal
	Total           decimal.Decimal
	Notes           string
}

var (
	printer   = message.NewPrinter(language.English)
	titleCase = cases.Title(language.English)
)

var invoiceFuncs = template.FuncMap{
	"money": formatMoney,
	"title": func(s string) string { return titleCase.String(strings.ReplaceAll(s, "_", " ")) },
	"date":  func(t time.Time) string { return t.UTC().Format("January 2, 2006") },
	"int":   func(n int64) string { return printer.Sprintf("%d", n) },
	"positive": func(d decimal.Decimal) bool {
		return d.IsPositive()
	},
}

// formatMoney renders an amount with grouping and two decimals
func formatMoney(d decimal.Decimal) string {
	sign := ""
	if d.IsNegative() {
		sign = "-"
		d = d.Abs()
	}
	whole := d.Truncate(0).IntPart()
	cents := d.Sub(decimal.NewFromInt(whole)).Mul(decimal.NewFromInt(100)).Round(0).IntPart()
	if cents == 100 {
		whole++
		cents = 0
	}
	return sign + "$" + printer.Sprintf("%d", whole) + fmt.Sprintf(".%02d", cents)
}

var invoiceTemplate = template.Must(template.New("invoice").Funcs(invoiceFuncs).Parse(`<!DOCTYPE html>
<html><head><meta charset="UTF-8"><title>Invoice {{.Number}}</title>
<style>
body{font-family:Helvetica,Arial,sans-serif;font-size:12px;color:#222}
h1{font-size:22px;margin:0 0 4px}
table{width:100%;border-collapse:collapse;margin-top:16px}
th,td{padding:6px 4px;border-bottom:1px solid #ddd;text-align:left}
td.num,th.num{text-align:right}
.totals td{border:none}
.muted{color:#777}
</style></head>
<body>
<h1>{{.CompanyName}}</h1>
<div class="muted">Invoice {{.Number}} &middot; {{date .IssuedAt}}</div>
<p><strong>Bill to:</strong> {{.CustomerName}}{{if .CustomerEmail}} &lt;{{.CustomerEmail}}&gt;{{end}}<br>
<strong>Ship to:</strong> {{.ShippingAddress}}<br>
<strong>Payment:</strong> {{title .PaymentMethod}} &middot; <strong>Status:</strong> {{title .Status}}</p>
<table>
<thead><tr><th>Item</th><th>SKU</th><th class="num">Unit price</th><th class="num">Qty</th><th class="num">Total</th></tr></thead>
<tbody>
{{range .Lines}}<tr><td>{{.Name}}{{if .OptionLabel}} <span class="muted">({{.OptionLabel}})</span>{{end}}</td><td>{{.SKU}}</td><td class="num">{{money .UnitPrice}}</td><td class="num">{{.Quantity}}</td><td class="num">{{money .LineTotal}}</td></tr>
{{end}}</tbody>
</table>
<table class="totals">
<tr><td class="num">Subtotal</td><td class="num">{{money .Subtotal}}</td></tr>
{{if positive .DiscountAmount}}<tr><td class="num">Discount ({{.DiscountCode}})</td><td class="num">-{{money .DiscountAmount}}</td></tr>{{end}}
{{if positive .LoyaltyDiscount}}<tr><td class="num">Loyalty points ({{int .PointsRedeemed}})</td><td class="num">-{{money .LoyaltyDiscount}}</td></tr>{{end}}
<tr><td class="num">Shipping</td><td class="num">{{money .ShippingFee}}</td></tr>
<tr><td class="num"><strong>Total</strong></td><td class="num"><strong>{{money .Total}}</strong></td></tr>
</table>
{{if .Notes}}<p class="muted">Notes: {{.Notes}}</p>{{end}}
</body></html>`))

// RenderInvoiceHTML fills the invoice template
func RenderInvoiceHTML(data InvoiceData) (string, error) {
	var buf bytes.Buffer
	if err := invoiceTemplate.Execute(&buf, data); err != nil {
		return "", NewRenderError(ErrCodeTemplate, "failed to render invoice template", err)
	}
	return buf.String(), nil
}

// InvoiceFooter is the page footer printed by Chrome
const InvoiceFooter = `<div style="font-size:8px;width:100%;text-align:center;color:#777">` +
	`Page <span class="pageNumber"></span> of <span class="totalPages"></span></div>`
