package document

import (
	"bytes"
	"image/png"
	"strings"

	"github.com/gen2brain/go-fitz"
)

// extractPDF pulls the text layer first. Scanned PDFs have no text layer (or
// a stub below MinTextLen), in which case the first MaxPages pages are
// rendered to PNG for the vision model.
func (e *Extractor) extractPDF(data []byte) Content {
	doc, err := fitz.NewFromMemory(data)
	if err != nil {
		e.log.Warn("document.pdf.open_failed", "error", err)
		return Content{}
	}
	defer doc.Close()

	var chunks []string
	for i := 0; i < doc.NumPage(); i++ {
		txt, err := doc.Text(i)
		if err != nil {
			e.log.Warn("document.pdf.text_failed", "page", i, "error", err)
			continue
		}
		chunks = append(chunks, strings.ReplaceAll(txt, " ", " "))
	}
	text := strings.Join(chunks, "\n")
	if len(strings.TrimSpace(text)) >= e.cfg.MinTextLen {
		return Content{Text: text}
	}

	pages := e.renderPages(doc)
	if len(pages) == 0 {
		// Scan that could not be rendered; report whatever text there was.
		return Content{Text: text}
	}
	return Content{Pages: pages}
}

func (e *Extractor) renderPages(doc *fitz.Document) [][]byte {
	n := doc.NumPage()
	if n > e.cfg.MaxPages {
		n = e.cfg.MaxPages
	}
	var pages [][]byte
	for i := 0; i < n; i++ {
		img, err := doc.ImageDPI(i, float64(e.cfg.DPI))
		if err != nil {
			e.log.Warn("document.pdf.render_failed", "page", i, "error", err)
			continue
		}
		var buf bytes.Buffer
		if err := png.Encode(&buf, img); err != nil {
			e.log.Warn("document.pdf.png_encode_failed", "page", i, "error", err)
			continue
		}
		pages = append(pages, buf.Bytes())
	}
	return pages
}
