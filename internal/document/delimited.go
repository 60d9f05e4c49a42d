package document

import (
	"encoding/csv"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/encoding/charmap"
)

// decodeText tries UTF-8 first, then CP1251 (Russian invoices exported from
// accounting software commonly arrive as CP1251), then Latin-1, which accepts
// any byte sequence and so always terminates the chain.
func decodeText(data []byte) string {
	if utf8.Valid(data) {
		return string(data)
	}
	if out, err := charmap.Windows1251.NewDecoder().Bytes(data); err == nil && utf8.Valid(out) {
		return string(out)
	}
	out, _ := charmap.ISO8859_1.NewDecoder().Bytes(data)
	return string(out)
}

// delimitedToText decodes a CSV/TSV/plain-text table and normalizes rows to
// pipe-delimited lines. When delimiter sniffing fails the raw decoded text is
// returned as-is.
func (e *Extractor) delimitedToText(data []byte) string {
	text := decodeText(data)
	delim, ok := sniffDelimiter(text)
	if !ok {
		return text
	}

	r := csv.NewReader(strings.NewReader(text))
	r.Comma = delim
	r.FieldsPerRecord = -1
	r.LazyQuotes = true

	var out []string
	for {
		row, err := r.Read()
		if err != nil {
			break
		}
		if line := rowLine(row); line != "" {
			out = append(out, line)
		}
	}
	if len(out) == 0 {
		return text
	}
	return strings.Join(out, "\n")
}

// sniffDelimiter picks the candidate delimiter that appears on every
// non-empty line of the sample with a consistent count.
func sniffDelimiter(text string) (rune, bool) {
	sample := text
	if len(sample) > 4096 {
		sample = sample[:4096]
	}
	lines := nonEmptyLines(sample, 10)
	if len(lines) == 0 {
		return 0, false
	}

	for _, cand := range []rune{';', '\t', ','} {
		count := strings.Count(lines[0], string(cand))
		if count == 0 {
			continue
		}
		consistent := true
		for _, ln := range lines[1:] {
			if strings.Count(ln, string(cand)) != count {
				consistent = false
				break
			}
		}
		if consistent {
			return cand, true
		}
	}
	return 0, false
}

func nonEmptyLines(s string, max int) []string {
	var lines []string
	for _, ln := range strings.Split(s, "\n") {
		if strings.TrimSpace(ln) == "" {
			continue
		}
		lines = append(lines, strings.TrimRight(ln, "\r"))
		if len(lines) == max {
			break
		}
	}
	return lines
}
