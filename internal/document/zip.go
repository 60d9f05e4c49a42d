package document

import (
	"archive/zip"
	"bytes"
	"strings"

	"github.com/ivlev/invoice-qr-bot/constants"
)

// sniffZip distinguishes the ZIP-based office containers (xlsx vs docx) by
// their member layout instead of trusting the declared kind.
func sniffZip(data []byte, declared constants.Kind) constants.Kind {
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return declared
	}
	for _, f := range zr.File {
		switch {
		case strings.HasPrefix(f.Name, "xl/"):
			return constants.KindSpreadsheetModern
		case strings.HasPrefix(f.Name, "word/"):
			return constants.KindWordDocument
		}
	}
	return declared
}
