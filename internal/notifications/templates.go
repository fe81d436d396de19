package notifications

import (
	"fmt"
	"html"
	"strings"

	"github.com/atelierhq/atelier-backend/pkg/db/models"
)

// renderOrderConfirmation builds the receipt email body. Plain string
// assembly keeps the template dependency-free; all user-supplied values
// are escaped.
func renderOrderConfirmation(order *models.Order) string {
	var b strings.Builder

	b.WriteString(`<div style="font-family:Georgia,serif;max-width:560px;margin:0 auto">`)
	b.WriteString(`<h1 style="letter-spacing:2px">ATELIER</h1>`)
	fmt.Fprintf(&b, `<p>Thank you for your order, %s.</p>`, html.EscapeString(order.FirstName))
	fmt.Fprintf(&b, `<p>Order <strong>%s</strong> is confirmed and will ship to:</p>`, html.EscapeString(order.OrderNumber))
	fmt.Fprintf(&b, `<p>%s %s<br>%s<br>%s, %s %s</p>`,
		html.EscapeString(order.FirstName),
		html.EscapeString(order.LastName),
		html.EscapeString(order.Address),
		html.EscapeString(order.City),
		html.EscapeString(order.State),
		html.EscapeString(order.Zip),
	)

	b.WriteString(`<table style="width:100%;border-collapse:collapse">`)
	b.WriteString(`<tr><th align="left">Item</th><th align="left">Variant</th><th align="right">Qty</th><th align="right">Price</th></tr>`)
	for _, item := range order.LineItems {
		fmt.Fprintf(&b, `<tr><td>%s</td><td>%s / %s</td><td align="right">%d</td><td align="right">$%s</td></tr>`,
			html.EscapeString(item.Name),
			html.EscapeString(item.Size),
			html.EscapeString(item.Color),
			item.Quantity,
			item.Price.StringFixed(2),
		)
	}
	b.WriteString(`</table>`)

	fmt.Fprintf(&b, `<p align="right"><strong>Total: $%s</strong></p>`, order.Total.StringFixed(2))
	b.WriteString(`</div>`)
	return b.String()
}
