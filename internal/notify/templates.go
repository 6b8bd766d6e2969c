package notify

import (
	"bytes"
	"fmt"
	"html/template"

	"github.com/Lixing-Zhang/handmade-storefront/internal/models"
)

var confirmationTmpl = template.Must(template.New("confirmation").Funcs(template.FuncMap{
	"deref": func(s *string) string {
		if s == nil {
			return ""
		}
		return *s
	},
}).Parse(`<div style="font-family:sans-serif;max-width:560px">
<h2>Thank you for your order, {{.Customer.Name}}!</h2>
<p>Order <strong>{{.OrderID}}</strong> {{if eq .PaymentMethod "cod"}}will be paid on delivery{{else}}has been paid{{end}}.</p>
<table style="width:100%;border-collapse:collapse">
{{range .Items}}<tr><td>{{.Name}} &times; {{.Quantity}}</td><td style="text-align:right">{{$.Currency}} {{.Price.StringFixed 2}}</td></tr>
{{end}}</table>
<p>Subtotal: {{.Currency}} {{.Subtotal.StringFixed 2}}<br>
{{if .DiscountAmount}}Discount ({{deref .CouponCode}}): &minus;{{.Currency}} {{.DiscountAmount.StringFixed 2}}<br>{{end}}
Shipping: {{.Currency}} {{.ShippingCharges.StringFixed 2}}<br>
<strong>Total: {{.Currency}} {{.Amount.StringFixed 2}}</strong></p>
<p>We'll ship to:<br>{{.Customer.Address}}</p>
</div>`))

// OrderConfirmation renders the confirmation email for a placed order.
func OrderConfirmation(shopName string, o *models.Order) (Message, error) {
	var buf bytes.Buffer
	if err := confirmationTmpl.Execute(&buf, o); err != nil {
		return Message{}, fmt.Errorf("render confirmation: %w", err)
	}
	return Message{
		To:      o.Customer.Email,
		Subject: fmt.Sprintf("%s: order %s confirmed", shopName, o.OrderID),
		HTML:    buf.String(),
	}, nil
}
