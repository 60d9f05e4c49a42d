package llm

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

var (
	reFenceOpen  = regexp.MustCompile("(?i)^```(?:json)?\\s*")
	reFenceClose = regexp.MustCompile("\\s*```$")
)

// StripFences removes markdown code-fence markers that models add despite the
// prompt asking for bare JSON.
func StripFences(s string) string {
	s = strings.TrimSpace(s)
	if strings.HasPrefix(s, "```") {
		s = reFenceOpen.ReplaceAllString(s, "")
		s = reFenceClose.ReplaceAllString(s, "")
	}
	return strings.TrimSpace(s)
}

// FirstJSONObject returns the first balanced top-level {...} substring,
// tracking string literals and escapes so braces inside values do not
// terminate the scan. Returns "" when no complete object exists.
func FirstJSONObject(s string) string {
	start := strings.IndexByte(s, '{')
	if start == -1 {
		return ""
	}
	depth := 0
	inStr := false
	esc := false
	for i := start; i < len(s); i++ {
		ch := s[i]
		if inStr {
			switch {
			case esc:
				esc = false
			case ch == '\\':
				esc = true
			case ch == '"':
				inStr = false
			}
			continue
		}
		switch ch {
		case '"':
			inStr = true
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return s[start : i+1]
			}
		}
	}
	return ""
}

// rawOutput tolerates non-string field values (models return Sum as a bare
// number more often than not).
type rawOutput struct {
	ST     string         `json:"st"`
	Fields map[string]any `json:"fields"`
	Notes  string         `json:"notes"`
}

// DecodeOutput parses a raw model response into an Output. It strips fences,
// locates the first balanced JSON object, parses it, and coerces field values
// to strings. The extracted JSON substring is returned for diagnostics.
// Failures map onto ErrNoJSONObject / ErrMalformedJSON.
func DecodeOutput(raw string) (Output, string, error) {
	s := StripFences(raw)
	obj := FirstJSONObject(s)
	if obj == "" {
		return Output{}, "", ErrNoJSONObject
	}

	var ro rawOutput
	if err := json.Unmarshal([]byte(obj), &ro); err != nil {
		return Output{}, obj, fmt.Errorf("%w: %s", ErrMalformedJSON, err)
	}

	out := Output{ST: strings.TrimSpace(ro.ST), Notes: strings.TrimSpace(ro.Notes), Fields: make(map[string]string, len(ro.Fields))}
	for k, v := range ro.Fields {
		out.Fields[k] = coerceString(v)
	}
	return out, obj, nil
}

func coerceString(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return strings.TrimSpace(t)
	case float64:
		// Integer-valued numbers must not grow a ".00" suffix: a bare
		// integer Sum means kopecks downstream.
		if t == float64(int64(t)) {
			return strconv.FormatInt(int64(t), 10)
		}
		return strconv.FormatFloat(t, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(t)
	default:
		b, _ := json.Marshal(t)
		return string(b)
	}
}
