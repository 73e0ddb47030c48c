package bankcore

import (
	"strings"

	"github.com/shopspring/decimal"
)

// Amounts are shopspring decimals throughout: exact arithmetic, arbitrary
// precision in intermediate results. Rounding to cents happens only here,
// at display time.

// ParseAmount parses a plain decimal string such as "1234.5" or "-5.75".
func ParseAmount(s string) (decimal.Decimal, error) {
	d, err := decimal.NewFromString(strings.TrimSpace(s))
	if err != nil {
		return decimal.Decimal{}, ErrInvalidAmount{Input: s}
	}
	return d, nil
}

// FormatAmount renders an amount as "$X,XXX.XX": two decimals, round half
// up (ties away from zero), thousands separators. Negative amounts render
// as "$-X.XX".
func FormatAmount(d decimal.Decimal) string {
	s := d.Round(2).StringFixed(2)
	sign := ""
	if strings.HasPrefix(s, "-") {
		sign = "-"
		s = s[1:]
	}
	dot := strings.IndexByte(s, '.')
	whole, frac := s[:dot], s[dot:]

	var b strings.Builder
	b.WriteByte('$')
	b.WriteString(sign)
	for i, c := range whole {
		if i > 0 && (len(whole)-i)%3 == 0 {
			b.WriteByte(',')
		}
		b.WriteRune(c)
	}
	b.WriteString(frac)
	return b.String()
}
