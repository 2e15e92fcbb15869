// Package upi builds deep links understood by UPI payment apps.
package upi

import (
	"net/url"
	"strconv"
	"strings"

	"github.com/Rhymond/go-money"
)

const currencyCode = "INR"

// LinkParams are the fields of a upi://pay deep link. Reference is the
// transaction reference shown to the payee; for registrations it is
// the ticket ID.
type LinkParams struct {
	PayeeAddress string
	PayeeName    string
	Amount       *money.Money
	Note         string
	Reference    string
}

// PaymentLink constructs the deep link. Pure string building, no
// network call. Field names, ordering, and percent-encoding are parsed
// by third-party payment apps and must not change.
func PaymentLink(p LinkParams) string {
	var sb strings.Builder
	sb.WriteString("upi://pay")

	params := []struct {
		key   string
		value string
	}{
		{"pa", p.PayeeAddress},
		{"pn", p.PayeeName},
		{"am", FormatAmount(p.Amount)},
		{"cu", currencyCode},
		{"tn", p.Note},
		{"tr", p.Reference},
	}

	for i, param := range params {
		if i == 0 {
			sb.WriteByte('?')
		} else {
			sb.WriteByte('&')
		}
		sb.WriteString(param.key)
		sb.WriteByte('=')
		sb.WriteString(url.QueryEscape(param.value))
	}

	return sb.String()
}

// FormatAmount renders an amount the way UPI apps expect: major units,
// no currency symbol, no trailing zeros ("998", not "₹998.00").
func FormatAmount(amount *money.Money) string {
	return strconv.FormatFloat(amount.AsMajorUnits(), 'f', -1, 64)
}
