package document

import (
	"archive/zip"
	"bytes"
	"encoding/xml"
	"io"
	"strings"
)

// docxToText concatenates paragraph text from word/document.xml, skipping
// empty paragraphs. DOCX is a ZIP container; the main document part is plain
// WordprocessingML.
func (e *Extractor) docxToText(data []byte) string {
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		e.log.Warn("document.docx.open_failed", "error", err)
		return ""
	}
	for _, f := range zr.File {
		if f.Name != "word/document.xml" {
			continue
		}
		rc, err := f.Open()
		if err != nil {
			e.log.Warn("document.docx.part_open_failed", "error", err)
			return ""
		}
		defer rc.Close()
		text, err := wordMLParagraphs(rc)
		if err != nil {
			e.log.Warn("document.docx.parse_failed", "error", err)
		}
		return text
	}
	e.log.Warn("document.docx.no_document_part")
	return ""
}

// wordMLParagraphs walks the XML token stream collecting <w:t> runs grouped
// by <w:p> paragraphs. Tabs and line breaks inside a paragraph become spaces.
func wordMLParagraphs(r io.Reader) (string, error) {
	dec := xml.NewDecoder(r)
	var (
		out  []string
		para strings.Builder
		inT  bool
	)
	flush := func() {
		if s := strings.TrimSpace(para.String()); s != "" {
			out = append(out, s)
		}
		para.Reset()
	}
	for {
		tok, err := dec.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			flush()
			return strings.Join(out, "\n"), err
		}
		switch t := tok.(type) {
		case xml.StartElement:
			switch t.Name.Local {
			case "t":
				inT = true
			case "tab", "br":
				para.WriteByte(' ')
			}
		case xml.EndElement:
			switch t.Name.Local {
			case "t":
				inT = false
			case "p":
				flush()
			}
		case xml.CharData:
			if inT {
				para.Write(t)
			}
		}
	}
	flush()
	return strings.Join(out, "\n"), nil
}
