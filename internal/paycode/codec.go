package paycode

import (
	"fmt"
	"strings"

	qrcode "github.com/skip2/go-qrcode"
)

// Build serializes a record into the ST00012 wire string: required keys in
// canonical order, optional keys appended only when non-empty. Build never
// alters field values; every transformation belongs in Sanitize.
func Build(r Record) string {
	parts := []string{FormatTag}
	for _, k := range RequiredKeys {
		if v := r.get(k); v != "" {
			parts = append(parts, k+"="+v)
		}
	}
	for _, k := range OptionalKeys {
		if v := r.get(k); v != "" {
			parts = append(parts, k+"="+v)
		}
	}
	return strings.Join(parts, "|")
}

// Parse decodes an ST00012 string back into a Record. It accepts any string
// that Validate accepts and is the inverse of Build for validated records.
func Parse(encoded string) (Record, error) {
	if !strings.HasPrefix(encoded, FormatTag+"|") {
		return Record{}, fmt.Errorf("payload is not %s", FormatTag)
	}
	fields := make(map[string]string)
	for _, seg := range strings.Split(encoded, "|")[1:] {
		k, v, ok := strings.Cut(seg, "=")
		if !ok {
			return Record{}, fmt.Errorf("segment %q has no key=value separator", seg)
		}
		fields[k] = v
	}
	return FromMap(fields), nil
}

// QRSize is the side length in pixels of the rendered QR image.
const QRSize = 512

// QR rasterizes the encoded string into a scannable PNG.
func QR(encoded string) ([]byte, error) {
	png, err := qrcode.Encode(encoded, qrcode.Medium, QRSize)
	if err != nil {
		return nil, fmt.Errorf("encode qr: %w", err)
	}
	return png, nil
}
