package ledger

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// DateLayout is the day-first date format used by the raw ledger export and
// by the clearing input handed back for posting.
const DateLayout = "02.01.2006"

// parseLayout accepts both zero-padded and unpadded day/month tokens.
const parseLayout = "2.1.2006"

// FormatError reports an amount string that could not be parsed from the
// raw ledger amount format.
type FormatError struct {
	Value string
}

func (e *FormatError) Error() string {
	return fmt.Sprintf("unparsable amount %q", e.Value)
}

// ParseAmount converts an amount in the raw ledger format into a decimal.
// The format uses '.' as thousands separator, ',' as decimal separator and
// a trailing '-' for negative values (e.g. "1.234,56-").
func ParseAmount(text string) (decimal.Decimal, error) {
	s := strings.TrimSpace(text)

	negative := strings.HasSuffix(s, "-")
	s = strings.TrimSuffix(s, "-")
	s = strings.ReplaceAll(s, ".", "")
	s = strings.ReplaceAll(s, ",", ".")

	parsed, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Decimal{}, &FormatError{Value: text}
	}
	if negative {
		parsed = parsed.Neg()
	}
	return parsed, nil
}

// FormatAmount renders a decimal back into the raw ledger amount format,
// the exact inverse of ParseAmount for two-decimal amounts.
func FormatAmount(d decimal.Decimal) string {
	fixed := d.Abs().StringFixed(2)

	intPart, fracPart, _ := strings.Cut(fixed, ".")

	var b strings.Builder
	for i, r := range intPart {
		if i > 0 && (len(intPart)-i)%3 == 0 {
			b.WriteByte('.')
		}
		b.WriteRune(r)
	}
	b.WriteByte(',')
	b.WriteString(fracPart)
	if d.IsNegative() {
		b.WriteByte('-')
	}
	return b.String()
}

// ParseDate parses a day-first formatted date. Unparsable or blank input
// yields the zero time rather than an error; some extracted date fields are
// legitimately empty and must propagate as missing data.
func ParseDate(text string) time.Time {
	s := strings.TrimSpace(text)
	if s == "" {
		return time.Time{}
	}
	d, err := time.Parse(parseLayout, s)
	if err != nil {
		return time.Time{}
	}
	return d
}

// FormatDate renders a date in the day-first ledger format. The zero time
// renders as an empty string.
func FormatDate(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format(DateLayout)
}
