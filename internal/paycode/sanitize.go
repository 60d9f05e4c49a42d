package paycode

import (
	"strings"
	"unicode"
)

// confusables maps letter look-alikes that OCR and vision models routinely
// substitute for digits. Includes the Cyrillic homoglyphs since the source
// documents are Russian.
var confusables = map[rune]rune{
	'O': '0', 'o': '0', 'О': '0', 'о': '0',
	'l': '1', 'I': '1', 'І': '1',
	'B': '8', 'В': '8',
	'S': '5', 's': '5',
	'Z': '2', 'z': '2',
	'З': '3', 'з': '3',
	'b': '6', 'б': '6',
}

// Digits rewrites OCR-confusable characters and then drops everything that is
// not an ASCII digit.
func Digits(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		if d, ok := confusables[r]; ok {
			r = d
		}
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}

var quoteReplacer = strings.NewReplacer(
	"«", `"`, "»", `"`,
	"“", `"`, "”", `"`, "„", `"`,
	"‘", "'", "’", "'",
)

// CleanText normalizes a free-text field for embedding into the encoded
// string: typographic quotes become plain ones, the field separator and raw
// line breaks become spaces, and whitespace runs collapse to single spaces.
func CleanText(s string) string {
	s = quoteReplacer.Replace(s)
	s = strings.NewReplacer("|", " ", "\r", " ", "\n", " ").Replace(s)
	return strings.Join(strings.FieldsFunc(s, unicode.IsSpace), " ")
}

// Kopecks coerces a model-reported amount into an unsigned integer kopeck
// string. A pure integer is trusted as already being kopecks. A decimal-like
// value is treated as rubles: thousands separators are stripped and the
// fractional part is padded or truncated to exactly two digits. Anything
// negative or unparseable becomes "0", which fails validation downstream
// instead of propagating a bad number.
func Kopecks(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return ""
	}
	if strings.HasPrefix(s, "-") {
		return "0"
	}
	s = strings.ReplaceAll(s, " ", "")
	s = strings.ReplaceAll(s, " ", "")

	// The rightmost of "," and "." is the decimal point only when at most
	// two digits follow it; otherwise every separator is a thousands mark.
	sep := strings.LastIndexAny(s, ",.")
	if sep >= 0 && len(Digits(s[sep+1:])) <= 2 {
		rub := Digits(s[:sep])
		kop := Digits(s[sep+1:])
		for len(kop) < 2 {
			kop += "0"
		}
		kop = kop[:2]
		// Canonicalize the composed kopeck string as a whole so sub-ruble
		// amounts never keep a leading zero ("0,05" is 5 kopecks, not "05").
		out := strings.TrimLeft(rub+kop, "0")
		if out == "" {
			return "0"
		}
		return out
	}

	d := Digits(s)
	if d == "" {
		return "0"
	}
	if t := strings.TrimLeft(d, "0"); t != "" {
		return t
	}
	return "0"
}

// Sanitize cleans a raw model field map into a Record with strict field
// formats. It is idempotent: sanitizing an already-sanitized map is a no-op.
func Sanitize(fields map[string]string) Record {
	purpose := CleanText(fields["Purpose"])
	return Record{
		Name:        CleanText(fields["Name"]),
		PersonalAcc: Digits(fields["PersonalAcc"]),
		BankName:    CleanText(fields["BankName"]),
		BIC:         Digits(fields["BIC"]),
		CorrespAcc:  Digits(fields["CorrespAcc"]),
		Sum:         Kopecks(fields["Sum"]),
		Purpose:     purpose,
		PayeeINN:    Digits(fields["PayeeINN"]),
		KPP:         Digits(fields["KPP"]),
	}
}
