package pages

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// DefaultDash returns a dash when the provided value is empty or whitespace.
func DefaultDash(value string) string {
	if strings.TrimSpace(value) == "" {
		return "-"
	}
	return value
}

// FormatCents renders a minor-unit amount as "NGN 1,234.50".
func FormatCents(currency string, cents int64) string {
	amount := decimal.New(cents, -2).StringFixed(2)
	sign := ""
	if strings.HasPrefix(amount, "-") {
		sign, amount = "-", amount[1:]
	}
	whole, frac, _ := strings.Cut(amount, ".")
	formatted := sign + groupThousands(whole) + "." + frac
	if currency = strings.TrimSpace(currency); currency == "" {
		return formatted
	}
	return currency + " " + formatted
}

func groupThousands(digits string) string {
	if len(digits) <= 3 {
		return digits
	}
	var b strings.Builder
	lead := len(digits) % 3
	if lead > 0 {
		b.WriteString(digits[:lead])
	}
	for i := lead; i < len(digits); i += 3 {
		if b.Len() > 0 {
			b.WriteByte(',')
		}
		b.WriteString(digits[i : i+3])
	}
	return b.String()
}

// FormatQuantity renders a quantity with up to three decimals and a trailing unit.
func FormatQuantity(value float64, unit string) string {
	text := decimal.NewFromFloat(value).Round(3).String()
	if strings.TrimSpace(unit) == "" {
		return text
	}
	return text + " " + unit
}

// FormatPercent renders a margin percentage with one decimal place.
func FormatPercent(value float64) string {
	return fmt.Sprintf("%.1f%%", value)
}

// FormatReportDate renders the supplied time using a production-friendly layout.
func FormatReportDate(v time.Time) string {
	if v.IsZero() {
		return ""
	}
	return v.Format("02 Jan 2006")
}
