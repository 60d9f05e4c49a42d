package paycode

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDigitsCorrectsOCRConfusables(t *testing.T) {
	// Vision models habitually read "0" as "O" and "5" as "S".
	assert.Equal(t, "044525225", Digits("O4452522S"))
	assert.Equal(t, "0123456789", Digits("Ol23456789"))
	assert.Equal(t, "40702810900000005555", Digits("4О7О281О9ООООООО5555"))
	assert.Equal(t, "882", Digits("B8Z"))
}

func TestDigitsStripsEverythingElse(t *testing.T) {
	assert.Equal(t, "40702810123450101230", Digits("407 028 101 234 501 012 30"))
	assert.Equal(t, "7707083893", Digits("ИНН 7707083893"))
	assert.Equal(t, "", Digits("нет данных"))
}

func TestKopecks(t *testing.T) {
	cases := []struct {
		name string
		in   string
		want string
	}{
		{"decimal with space thousands", "1 795,00", "179500"},
		{"decimal with nbsp thousands", "1 795,00", "179500"},
		{"dot thousands comma decimal", "1.795,00", "179500"},
		{"comma thousands dot decimal", "1,795.00", "179500"},
		{"plain decimal", "1795.5", "179550"},
		{"single fraction digit padded", "99,9", "9990"},
		{"sub-ruble amount", "0,05", "5"},
		{"zero with decimals", "0,00", "0"},
		{"zero with dot", "0.0", "0"},
		{"integer trusted as kopecks", "179500", "179500"},
		{"integer with spaces", "179 500", "179500"},
		{"zero", "0", "0"},
		{"negative becomes zero", "-100", "0"},
		{"garbage becomes zero", "n/a", "0"},
		{"empty stays empty", "", ""},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, Kopecks(tc.in))
		})
	}
}

func TestCleanText(t *testing.T) {
	assert.Equal(t, `ООО "Ромашка"`, CleanText("ООО «Ромашка»"))
	assert.Equal(t, "Оплата по счёту №41 от 01.09.2026", CleanText("Оплата  по счёту\n№41 от\r\n01.09.2026"))
	assert.Equal(t, "a b", CleanText("a|b"))
	assert.Equal(t, "", CleanText("  \r\n "))
}

func TestSanitizeIdempotent(t *testing.T) {
	raw := map[string]string{
		"Name":        "ООО  «Ромашка»",
		"PersonalAcc": "4О7 О281 О123 45О1 О123 О",
		"BankName":    "ПАО\nСбербанк",
		"BIC":         "O4452522S",
		"CorrespAcc":  "30101810400000000225",
		"Sum":         "1 795,00",
		"Purpose":     "Оплата по счёту №41|без НДС",
		"PayeeINN":    "7707083893",
		"KPP":         "770701001",
	}
	once := Sanitize(raw)
	twice := Sanitize(once.ToMap())
	require.Equal(t, once, twice)

	assert.Equal(t, "044525225", once.BIC)
	assert.Equal(t, "40702810123450101230", once.PersonalAcc)
	assert.Equal(t, "179500", once.Sum)
	assert.Equal(t, `ООО "Ромашка"`, once.Name)
	assert.Equal(t, "ПАО Сбербанк", once.BankName)
	assert.NotContains(t, once.Purpose, "|")
}

func TestSanitizeIdempotentOnDecimalAmounts(t *testing.T) {
	for _, sum := range []string{"0,05", "0,00", "1 795,00", "99,9"} {
		once := Sanitize(map[string]string{"Sum": sum})
		twice := Sanitize(once.ToMap())
		assert.Equal(t, once, twice, sum)
		assert.False(t, strings.HasPrefix(once.Sum, "0") && len(once.Sum) > 1, sum)
	}
}

func TestSanitizeLeavesAbsentFieldsEmpty(t *testing.T) {
	rec := Sanitize(map[string]string{"Name": "ООО Ромашка"})
	assert.Empty(t, rec.BIC)
	assert.Empty(t, rec.Sum)
	assert.Empty(t, rec.PersonalAcc)
}
