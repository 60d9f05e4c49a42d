package document

import (
	"archive/zip"
	"bytes"
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/text/encoding/charmap"

	"github.com/ivlev/invoice-qr-bot/constants"
)

func zipWith(t *testing.T, members map[string]string) []byte {
	t.Helper()
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	for name, body := range members {
		w, err := zw.Create(name)
		require.NoError(t, err)
		_, err = w.Write([]byte(body))
		require.NoError(t, err)
	}
	require.NoError(t, zw.Close())
	return buf.Bytes()
}

func TestSniffSignatures(t *testing.T) {
	cases := []struct {
		name     string
		data     []byte
		declared constants.Kind
		want     constants.Kind
	}{
		{"pdf wins over declared photo", []byte("%PDF-1.7 rest"), constants.KindPhoto, constants.KindPDF},
		{"ole2 is legacy spreadsheet", []byte{0xd0, 0xcf, 0x11, 0xe0, 0xa1, 0xb1, 0x1a, 0xe1, 0x00}, constants.KindDelimitedText, constants.KindSpreadsheetLegacy},
		{"png is photo", []byte{0x89, 'P', 'N', 'G', 0x0d, 0x0a}, constants.KindPDF, constants.KindPhoto},
		{"jpeg is photo", []byte{0xff, 0xd8, 0xff, 0xe0}, constants.KindUnknown, constants.KindPhoto},
		{"webp is photo", []byte("RIFF....WEBP"), constants.KindUnknown, constants.KindPhoto},
		{"declared photo without signature kept", []byte("not an image"), constants.KindPhoto, constants.KindPhoto},
		{"unknown bytes default to delimited text", []byte("Name;BIC"), constants.KindUnknown, constants.KindDelimitedText},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, Sniff(tc.data, tc.declared))
		})
	}
}

func TestSniffZipContainers(t *testing.T) {
	xlsx := zipWith(t, map[string]string{"[Content_Types].xml": "<Types/>", "xl/workbook.xml": "<workbook/>"})
	docx := zipWith(t, map[string]string{"[Content_Types].xml": "<Types/>", "word/document.xml": "<w:document/>"})

	assert.Equal(t, constants.KindSpreadsheetModern, Sniff(xlsx, constants.KindWordDocument))
	assert.Equal(t, constants.KindWordDocument, Sniff(docx, constants.KindSpreadsheetModern))

	plain := zipWith(t, map[string]string{"readme.txt": "hi"})
	assert.Equal(t, constants.KindUnknown, Sniff(plain, constants.KindUnknown))
}

func TestDecodeText(t *testing.T) {
	assert.Equal(t, "Счёт №41", decodeText([]byte("Счёт №41")))

	cp1251, err := charmap.Windows1251.NewEncoder().Bytes([]byte("Оплата по счёту"))
	require.NoError(t, err)
	assert.Equal(t, "Оплата по счёту", decodeText(cp1251))
}

func TestDelimitedToText(t *testing.T) {
	e := NewExtractor(Config{}, nil)

	csvData := "Получатель;БИК;Сумма\nООО Ромашка;044525225;1795,00\n\n"
	got := e.delimitedToText([]byte(csvData))
	assert.Equal(t, "Получатель | БИК | Сумма\nООО Ромашка | 044525225 | 1795,00", got)

	tsv := "a\tb\nc\td"
	assert.Equal(t, "a | b\nc | d", e.delimitedToText([]byte(tsv)))

	prose := "Оплатите счёт №41 до пятницы"
	assert.Equal(t, prose, e.delimitedToText([]byte(prose)))
}

func TestSniffDelimiterRequiresConsistency(t *testing.T) {
	_, ok := sniffDelimiter("a;b;c\nd;e\n")
	assert.False(t, ok)

	d, ok := sniffDelimiter("a;b;c\nd;e;f\n")
	require.True(t, ok)
	assert.Equal(t, ';', d)
}

func TestExtractDocx(t *testing.T) {
	const docXML = `<?xml version="1.0"?>
<w:document xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main">
  <w:body>
    <w:p><w:r><w:t>Счёт на оплату № 41</w:t></w:r></w:p>
    <w:p><w:r><w:t>БИК</w:t></w:r><w:r><w:tab/></w:r><w:r><w:t>044525225</w:t></w:r></w:p>
    <w:p/>
  </w:body>
</w:document>`
	data := zipWith(t, map[string]string{"word/document.xml": docXML})

	e := NewExtractor(Config{}, nil)
	got := e.Extract(context.Background(), data, constants.KindWordDocument)
	require.False(t, got.Empty())
	assert.False(t, got.IsImage())
	assert.Equal(t, "Счёт на оплату № 41\nБИК 044525225", got.Text)
}

func TestExtractPhotoPassthrough(t *testing.T) {
	e := NewExtractor(Config{}, nil)
	data := append([]byte{0xff, 0xd8, 0xff, 0xe0}, []byte("jpeg body")...)
	got := e.Extract(context.Background(), data, constants.KindPhoto)
	require.True(t, got.IsImage())
	require.Len(t, got.Pages, 1)
	assert.Equal(t, data, got.Pages[0])
}

func TestContentEmpty(t *testing.T) {
	assert.True(t, Content{}.Empty())
	assert.True(t, Content{Text: " \n\t"}.Empty())
	assert.False(t, Content{Text: "x"}.Empty())
	assert.False(t, Content{Pages: [][]byte{{1}}}.Empty())
}
