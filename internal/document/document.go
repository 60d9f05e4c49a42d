// Package document turns raw invoice files (PDF, spreadsheets, delimited
// text, word-processor documents, photos) into plain text, or into page
// images when no extractable text exists.
package document

import (
	"bytes"
	"context"
	"log/slog"
	"strings"

	"github.com/ivlev/invoice-qr-bot/constants"
)

// Content is the extractor output: either plain text or a sequence of
// PNG-encoded page images, never both.
type Content struct {
	Text  string
	Pages [][]byte
}

// IsImage reports whether the content is page images rather than text.
func (c Content) IsImage() bool { return len(c.Pages) > 0 }

// Empty reports whether nothing usable was extracted.
func (c Content) Empty() bool {
	return !c.IsImage() && strings.TrimSpace(c.Text) == ""
}

// Config holds the extraction thresholds.
type Config struct {
	// MinTextLen is the minimum usable text-layer length for a PDF before
	// failing over to page rendering.
	MinTextLen int
	// MaxPages bounds how many PDF pages are rendered for scans.
	MaxPages int
	// DPI is the render resolution. Higher DPI noticeably improves
	// vision-model reads of small print.
	DPI int
}

func (c *Config) defaults() {
	if c.MinTextLen <= 0 {
		c.MinTextLen = 30
	}
	if c.MaxPages <= 0 {
		c.MaxPages = 3
	}
	if c.DPI <= 0 {
		c.DPI = 360
	}
}

// Extractor converts raw document bytes into Content. Extraction failures of
// any single strategy are swallowed and logged; the extractor degrades to the
// next strategy or returns empty content, it never errors to the caller.
type Extractor struct {
	cfg Config
	log *slog.Logger
}

func NewExtractor(cfg Config, log *slog.Logger) *Extractor {
	if log == nil {
		log = slog.Default()
	}
	cfg.defaults()
	return &Extractor{cfg: cfg, log: log}
}

// Binary signatures. Declared kinds are unreliable (renamed extensions, chat
// clients rewriting mime types), so sniffing has the final say.
var (
	sigPDF  = []byte("%PDF")
	sigZIP  = []byte("PK\x03\x04")
	sigOLE2 = []byte{0xd0, 0xcf, 0x11, 0xe0, 0xa1, 0xb1, 0x1a, 0xe1}
	sigPNG  = []byte{0x89, 'P', 'N', 'G'}
	sigJPEG = []byte{0xff, 0xd8, 0xff}
	sigRIFF = []byte("RIFF")
)

// Sniff resolves the effective kind from the binary signature, falling back
// to the declared kind only when the signature is ambiguous.
func Sniff(data []byte, declared constants.Kind) constants.Kind {
	switch {
	case bytes.HasPrefix(data, sigPDF):
		return constants.KindPDF
	case bytes.HasPrefix(data, sigZIP):
		return sniffZip(data, declared)
	case bytes.HasPrefix(data, sigOLE2):
		return constants.KindSpreadsheetLegacy
	case bytes.HasPrefix(data, sigPNG), bytes.HasPrefix(data, sigJPEG), bytes.HasPrefix(data, sigRIFF):
		return constants.KindPhoto
	}
	if declared == constants.KindPhoto {
		return constants.KindPhoto
	}
	return constants.KindDelimitedText
}

// Extract converts raw bytes of the declared kind into Content.
func (e *Extractor) Extract(ctx context.Context, data []byte, declared constants.Kind) Content {
	kind := Sniff(data, declared)
	if kind != declared {
		e.log.Info("document.sniff.override", "declared", declared, "sniffed", kind)
	}

	switch kind {
	case constants.KindPDF:
		return e.extractPDF(data)
	case constants.KindSpreadsheetModern:
		return Content{Text: e.xlsxToText(data)}
	case constants.KindSpreadsheetLegacy:
		return Content{Text: e.xlsToText(data)}
	case constants.KindWordDocument:
		return Content{Text: e.docxToText(data)}
	case constants.KindPhoto:
		return Content{Pages: [][]byte{data}}
	default:
		return Content{Text: e.delimitedToText(data)}
	}
}
