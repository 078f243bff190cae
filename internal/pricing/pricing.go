// Package pricing converts between display-formatted currency strings and
// integer cent amounts.
package pricing

import (
	"regexp"
	"strings"

	"github.com/shopspring/decimal"
)

// Symbol is the only currency symbol the storefront renders.
const Symbol = "$"

// Cents is a monetary amount in minor units.
type Cents int64

var (
	stripPattern  = regexp.MustCompile(`[^\d.\-]`)
	numberPattern = regexp.MustCompile(`^-?(\d+\.?\d*|\.\d+)`)
	hundred       = decimal.NewFromInt(100)
)

// Parse strips every character that is not a digit, '.' or '-' and reads the
// longest numeric prefix of what remains. Empty or malformed input is zero.
func Parse(display string) decimal.Decimal {
	cleaned := stripPattern.ReplaceAllString(display, "")
	num := numberPattern.FindString(cleaned)
	if num == "" {
		return decimal.Zero
	}

	neg := strings.HasPrefix(num, "-")
	num = strings.TrimPrefix(num, "-")
	if strings.HasPrefix(num, ".") {
		num = "0" + num
	}
	num = strings.TrimSuffix(num, ".")
	if neg {
		num = "-" + num
	}

	d, err := decimal.NewFromString(num)
	if err != nil {
		return decimal.Zero
	}
	return d
}

// ParseCurrency parses a display price and rounds it half away from zero to cents.
func ParseCurrency(display string) Cents {
	return FromDecimal(Parse(display))
}

// FromDecimal converts a dollar amount to cents, rounding half away from zero.
func FromDecimal(amount decimal.Decimal) Cents {
	return Cents(amount.Mul(hundred).Round(0).IntPart())
}

// FormatCurrency renders c with two decimals and a leading "$".
func FormatCurrency(c Cents) string {
	return Symbol + c.Decimal().StringFixed(2)
}

// Decimal returns c as a dollar amount.
func (c Cents) Decimal() decimal.Decimal {
	return decimal.New(int64(c), -2)
}

// Mul returns c multiplied by qty.
func (c Cents) Mul(qty int) Cents {
	return c * Cents(qty)
}

func (c Cents) String() string {
	return FormatCurrency(c)
}
