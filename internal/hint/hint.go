// Package hint runs lightweight pattern matching over extracted invoice text
// to produce advisory hints for the model call. Every field is optional;
// absence is never an error.
package hint

import (
	"regexp"
	"strconv"
	"strings"
)

// Hint is the non-authoritative pre-scan bundle. It biases and cross-checks
// the model call and fills "could not fully extract" diagnostics; it never
// feeds required fields directly.
type Hint struct {
	InvoiceNumber string   `json:"invoice_number,omitempty"`
	InvoiceDate   string   `json:"invoice_date,omitempty"`
	VATPercent    int      `json:"vat_percent,omitempty"`
	VATAmount     *float64 `json:"vat_amount,omitempty"`
	Total         *float64 `json:"total,omitempty"`
}

// IsZero reports whether the pre-scan found nothing at all.
func (h Hint) IsZero() bool {
	return h == Hint{}
}

var (
	reInvoiceNum  = regexp.MustCompile(`(?i)Сч[её]т(?:\s*на\s*оплату)?\s*№\s*([0-9\-]+)`)
	reInvoiceDate = regexp.MustCompile(`от\s*([0-9]{1,2}[.\s][0-9]{1,2}[.\s][0-9]{2,4}|[0-9]{1,2}\s+[А-Яа-яЁёA-Za-z]+\s+\d{4})`)
	reVATPercent  = regexp.MustCompile(`(?:НДС|VAT)\s*([0-9]{1,2})\s*%`)
	reVATAmount   = regexp.MustCompile(`(?i)(?:НДС|VAT)(?:\s*[0-9]{1,2}\s*%)?[:\s].{0,10}?([0-9\s\x{00a0}]+(?:[.,][0-9]{1,2})?)`)
	reTotal       = regexp.MustCompile(`(?i)(?:Всего\s*к\s*оплате|Итого|Total).{0,20}?([0-9\s\x{00a0}]+(?:[.,][0-9]{1,2})?)`)
)

// Scan applies the locale-specific pattern rules to extracted text.
func Scan(text string) Hint {
	t := strings.ReplaceAll(text, " ", " ")
	var h Hint

	if m := reInvoiceNum.FindStringSubmatch(t); m != nil {
		h.InvoiceNumber = strings.TrimSpace(m[1])
	}
	if m := reInvoiceDate.FindStringSubmatch(t); m != nil {
		h.InvoiceDate = strings.TrimSpace(m[1])
	}
	if m := reVATPercent.FindStringSubmatch(t); m != nil {
		if pct, err := strconv.Atoi(m[1]); err == nil {
			h.VATPercent = pct
		}
	}
	if m := reVATAmount.FindStringSubmatch(t); m != nil {
		if v, ok := ParseMoney(m[1]); ok {
			h.VATAmount = &v
		}
	}
	if m := reTotal.FindStringSubmatch(t); m != nil {
		if v, ok := ParseMoney(m[1]); ok {
			h.Total = &v
		}
	}
	return h
}

// ParseMoney normalizes a money-like substring into a float. When both "," and
// "." appear, the rightmost separator followed by at most two digits is the
// decimal point; spaces, NBSP and the other punctuation mark are thousands
// separators and are stripped.
func ParseMoney(s string) (float64, bool) {
	s = strings.ReplaceAll(s, " ", "")
	s = strings.ReplaceAll(s, " ", "")
	if s == "" {
		return 0, false
	}

	sep := strings.LastIndexAny(s, ",.")
	if sep >= 0 && countDigits(s[sep+1:]) <= 2 {
		whole := stripNonDigits(s[:sep])
		frac := stripNonDigits(s[sep+1:])
		v, err := strconv.ParseFloat(whole+"."+frac, 64)
		if err != nil {
			return 0, false
		}
		return v, true
	}

	d := stripNonDigits(s)
	if d == "" {
		return 0, false
	}
	v, err := strconv.ParseFloat(d, 64)
	if err != nil {
		return 0, false
	}
	return v, true
}

func countDigits(s string) int {
	n := 0
	for _, r := range s {
		if r >= '0' && r <= '9' {
			n++
		}
	}
	return n
}

func stripNonDigits(s string) string {
	var b strings.Builder
	for _, r := range s {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}
