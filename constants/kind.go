package constants

import "strings"

// Kind is the declared document kind for an uploaded invoice. The declared
// kind comes from the chat layer (file extension / mime type) and is treated
// as a hint only; binary signature sniffing has the final say.
type Kind string

const (
	KindPDF               Kind = "pdf"
	KindSpreadsheetLegacy Kind = "spreadsheet_legacy"
	KindSpreadsheetModern Kind = "spreadsheet_modern"
	KindDelimitedText     Kind = "delimited_text"
	KindWordDocument      Kind = "word_document"
	KindPhoto             Kind = "photo"
	KindUnknown           Kind = ""
)

// NormalizeExt lowercases and trims the dot from a file extension.
func NormalizeExt(ext string) string {
	return strings.ToLower(strings.TrimPrefix(ext, "."))
}

// MapExtToKind maps a file extension to a declared Kind.
func MapExtToKind(ext string) Kind {
	switch NormalizeExt(ext) {
	case "pdf":
		return KindPDF
	case "xls":
		return KindSpreadsheetLegacy
	case "xlsx", "xlsm", "xltx":
		return KindSpreadsheetModern
	case "csv", "tsv", "txt":
		return KindDelimitedText
	case "docx":
		return KindWordDocument
	case "jpg", "jpeg", "png", "webp":
		return KindPhoto
	default:
		return KindUnknown
	}
}
