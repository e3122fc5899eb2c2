package printing

import (
	"strings"
	"sync"

	"github.com/shopspring/decimal"
	"golang.org/x/text/currency"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// fallbackScale is used when the currency code cannot be resolved
const fallbackScale = 2

// symbols caches resolved symbols per currency unit
var symbols sync.Map

// FormatCurrency formats amount with the currency's en-US symbol and standard
// number of fraction digits, e.g. €1,234.50 or ¥1,235. The second return value
// is false when the code is not a known ISO 4217 currency; the result is then
// a plain two-digit number followed by the code as given (e.g. "80.00 XYZ").
func FormatCurrency(amount decimal.Decimal, code string) (string, bool) {
	raw := strings.TrimSpace(code)
	unit, err := currency.ParseISO(strings.ToUpper(raw))
	if raw == "" || err != nil {
		return strings.TrimSpace(formatGrouped(amount, fallbackScale, false) + " " + raw), false
	}

	scale, _ := currency.Standard.Rounding(unit)
	symbol := currencySymbol(unit)

	number := formatGrouped(amount, int32(scale), true)
	sign := ""
	if strings.HasPrefix(number, "-") {
		sign = "-"
		number = number[1:]
	}

	// Symbols that are plain letters (CHF, CZK) are separated from the number
	if symbol == unit.String() {
		return sign + symbol + " " + number, true
	}
	return sign + symbol + number, true
}

// currencySymbol returns the en-US symbol for a currency unit. Dollar
// currencies other than USD keep their prefix (CA$, A$) so amounts stay
// unambiguous.
func currencySymbol(unit currency.Unit) string {
	if sym, ok := symbols.Load(unit); ok {
		return sym.(string)
	}
	p := message.NewPrinter(language.AmericanEnglish)
	sym := strings.TrimSpace(p.Sprint(currency.Symbol(unit)))
	if sym == "" {
		sym = unit.String()
	}
	symbols.Store(unit, sym)
	return sym
}

// formatGrouped rounds d half away from zero to scale digits and inserts
// thousand separators into the integer part.
func formatGrouped(d decimal.Decimal, scale int32, group bool) string {
	d = d.Round(scale)
	sign := ""
	if d.IsNegative() {
		sign = "-"
		d = d.Abs()
	}

	parts := strings.SplitN(d.StringFixed(scale), ".", 2)
	intPart := parts[0]

	var result strings.Builder
	result.WriteString(sign)
	for i, c := range intPart {
		if group && i > 0 && (len(intPart)-i)%3 == 0 {
			result.WriteRune(',')
		}
		result.WriteRune(c)
	}
	if len(parts) > 1 {
		result.WriteString(".")
		result.WriteString(parts[1])
	}

	return result.String()
}
