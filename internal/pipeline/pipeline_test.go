package pipeline

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ivlev/invoice-qr-bot/constants"
	"github.com/ivlev/invoice-qr-bot/internal/document"
	"github.com/ivlev/invoice-qr-bot/internal/llm"
)

type fakeModel struct {
	calls []llm.Request
	fn    func(llm.Request) (llm.Output, error)
}

func (f *fakeModel) ExtractFields(_ context.Context, req llm.Request) (llm.Output, error) {
	f.calls = append(f.calls, req)
	return f.fn(req)
}

func goodFields() map[string]string {
	return map[string]string{
		"Name":        "ООО Ромашка",
		"PersonalAcc": "40702810123450101230",
		"BankName":    "ПАО Сбербанк",
		"BIC":         "044525225",
		"CorrespAcc":  "30101810400000000225",
		"Sum":         "179500",
		"Purpose":     "Оплата по счёту №41",
		"PayeeINN":    "7707083893",
	}
}

func newProcessor(model llm.FieldExtractor) *Processor {
	return NewProcessor(
		Config{BaseTier: "base", StrongTier: "strong"},
		document.NewExtractor(document.Config{}, nil),
		model,
		nil,
	)
}

const invoiceText = "Счёт на оплату № 41 от 01.09.2026\nИтого: 1 795,00"

func TestProcessSuccess(t *testing.T) {
	model := &fakeModel{fn: func(llm.Request) (llm.Output, error) {
		f := goodFields()
		f["BIC"] = "O4452522S"
		f["Sum"] = "1 795,00"
		return llm.Output{Fields: f}, nil
	}}
	p := newProcessor(model)

	out := p.Process(context.Background(), []byte(invoiceText), constants.KindDelimitedText)
	require.True(t, out.OK, out.Caption())
	assert.Equal(t, "044525225", out.Record.BIC)
	assert.Equal(t, "179500", out.Record.Sum)
	assert.Contains(t, out.Encoded, "ST00012|")
	assert.True(t, bytes.HasPrefix(out.PNG, []byte("\x89PNG")))
	assert.Contains(t, out.Caption(), "Сумма: 1795.00 ₽")
	require.Len(t, model.calls, 1)
	assert.Equal(t, "base", model.calls[0].Tier)
	assert.Equal(t, "41", model.calls[0].Hint.InvoiceNumber)
}

func TestProcessPrefersValidModelString(t *testing.T) {
	st := "ST00012|Name=ООО Ромашка|PersonalAcc=40702810123450101230|" +
		"BankName=ПАО Сбербанк|BIC=044525225|CorrespAcc=30101810400000000225|" +
		"Sum=179500|Purpose=Оплата по счёту №41"
	model := &fakeModel{fn: func(llm.Request) (llm.Output, error) {
		return llm.Output{ST: st, Fields: goodFields()}, nil
	}}

	out := newProcessor(model).Process(context.Background(), []byte(invoiceText), constants.KindDelimitedText)
	require.True(t, out.OK)
	assert.Equal(t, st, out.Encoded)
}

func TestProcessRebuildsWhenModelStringBroken(t *testing.T) {
	model := &fakeModel{fn: func(llm.Request) (llm.Output, error) {
		return llm.Output{ST: "ST00012|оплата без реквизитов", Fields: goodFields()}, nil
	}}

	out := newProcessor(model).Process(context.Background(), []byte(invoiceText), constants.KindDelimitedText)
	require.True(t, out.OK)
	assert.Contains(t, out.Encoded, "|BIC=044525225|")
	require.Len(t, model.calls, 1)
}

func TestProcessEscalatesToStrongTier(t *testing.T) {
	model := &fakeModel{fn: func(req llm.Request) (llm.Output, error) {
		f := goodFields()
		if req.Tier == "base" {
			delete(f, "BIC")
			return llm.Output{Fields: f, Notes: "БИК не найден"}, nil
		}
		return llm.Output{Fields: f}, nil
	}}

	out := newProcessor(model).Process(context.Background(), []byte(invoiceText), constants.KindDelimitedText)
	require.True(t, out.OK)
	require.Len(t, model.calls, 2)
	assert.Equal(t, "base", model.calls[0].Tier)
	assert.Equal(t, "strong", model.calls[1].Tier)
}

func TestProcessRetriesStrongTierUpToLimit(t *testing.T) {
	model := &fakeModel{fn: func(req llm.Request) (llm.Output, error) {
		return llm.Output{Fields: map[string]string{"Name": "ООО Ромашка"}}, nil
	}}
	p := NewProcessor(
		Config{BaseTier: "base", StrongTier: "strong", MaxRetries: 3},
		document.NewExtractor(document.Config{}, nil),
		model,
		nil,
	)

	out := p.Process(context.Background(), []byte(invoiceText), constants.KindDelimitedText)
	require.False(t, out.OK)
	require.Len(t, model.calls, 4)
	assert.Equal(t, "base", model.calls[0].Tier)
	for _, call := range model.calls[1:] {
		assert.Equal(t, "strong", call.Tier)
	}
}

func TestProcessStopsRetryingOnSuccess(t *testing.T) {
	calls := 0
	model := &fakeModel{fn: func(req llm.Request) (llm.Output, error) {
		calls++
		f := goodFields()
		if calls < 3 {
			delete(f, "BIC")
		}
		return llm.Output{Fields: f}, nil
	}}
	p := NewProcessor(
		Config{BaseTier: "base", StrongTier: "strong", MaxRetries: 5},
		document.NewExtractor(document.Config{}, nil),
		model,
		nil,
	)

	out := p.Process(context.Background(), []byte(invoiceText), constants.KindDelimitedText)
	require.True(t, out.OK)
	assert.Len(t, model.calls, 3)
}

func TestProcessBothTiersFail(t *testing.T) {
	model := &fakeModel{fn: func(req llm.Request) (llm.Output, error) {
		if req.Tier == "base" {
			f := goodFields()
			delete(f, "BIC")
			return llm.Output{Fields: f, Notes: "БИК не читается"}, nil
		}
		return llm.Output{
			Fields: map[string]string{"Name": "ООО Ромашка"},
			Notes:  "скан слишком размыт",
		}, nil
	}}

	out := newProcessor(model).Process(context.Background(), []byte(invoiceText), constants.KindDelimitedText)
	require.False(t, out.OK)
	assert.Equal(t, constants.ReasonMissingFields, out.Reason)
	assert.Equal(t, []string{"BIC"}, out.Missing)
	// The base attempt recovered more fields, so its partial record wins,
	// with the notes of both attempts preserved.
	assert.Equal(t, "ООО Ромашка", out.Partial.Name)
	assert.Equal(t, "179500", out.Partial.Sum)
	assert.Contains(t, out.Notes, "БИК не читается")
	assert.Contains(t, out.Notes, "скан слишком размыт")
	assert.Contains(t, out.Caption(), "Распознано:")
}

func TestProcessNoFabrication(t *testing.T) {
	// A model that honestly returns only what it saw must surface
	// missing_fields, never an encoded string with invented values.
	model := &fakeModel{fn: func(llm.Request) (llm.Output, error) {
		return llm.Output{Fields: map[string]string{
			"Name": "ООО Ромашка",
			"Sum":  "179500",
		}, Notes: "банковские реквизиты в документе отсутствуют"}, nil
	}}

	out := newProcessor(model).Process(context.Background(), []byte(invoiceText), constants.KindDelimitedText)
	require.False(t, out.OK)
	assert.Equal(t, constants.ReasonMissingFields, out.Reason)
	assert.ElementsMatch(t, []string{"PersonalAcc", "BankName", "BIC", "CorrespAcc", "Purpose"}, out.Missing)
	assert.Empty(t, out.Encoded)
	assert.Empty(t, out.PNG)
}

func TestProcessImagePagesReachModel(t *testing.T) {
	photo := append([]byte{0xff, 0xd8, 0xff, 0xe0}, []byte("jpeg body")...)
	model := &fakeModel{fn: func(req llm.Request) (llm.Output, error) {
		if !req.Content.IsImage() {
			return llm.Output{}, fmt.Errorf("expected image content")
		}
		return llm.Output{Fields: goodFields()}, nil
	}}

	out := newProcessor(model).Process(context.Background(), photo, constants.KindPhoto)
	require.True(t, out.OK, out.Caption())
	require.Len(t, model.calls, 1)
	require.Len(t, model.calls[0].Content.Pages, 1)
	assert.True(t, model.calls[0].Hint.IsZero())
}

func TestProcessEmptyDocument(t *testing.T) {
	model := &fakeModel{fn: func(llm.Request) (llm.Output, error) {
		return llm.Output{}, fmt.Errorf("must not be called")
	}}

	out := newProcessor(model).Process(context.Background(), []byte("   \n"), constants.KindDelimitedText)
	require.False(t, out.OK)
	assert.Equal(t, constants.ReasonExtractionEmpty, out.Reason)
	assert.Empty(t, model.calls)
}

func TestProcessModelErrors(t *testing.T) {
	cases := []struct {
		name   string
		err    error
		reason constants.Reason
	}{
		{"transport failure", errors.New("connection reset"), constants.ReasonModelUnavailable},
		{"no json object", fmt.Errorf("tier base: %w", llm.ErrNoJSONObject), constants.ReasonNoJSONObject},
		{"malformed json", fmt.Errorf("tier base: %w", llm.ErrMalformedJSON), constants.ReasonMalformedJSON},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			model := &fakeModel{fn: func(llm.Request) (llm.Output, error) {
				return llm.Output{}, tc.err
			}}
			out := newProcessor(model).Process(context.Background(), []byte(invoiceText), constants.KindDelimitedText)
			require.False(t, out.OK)
			assert.Equal(t, tc.reason, out.Reason)
		})
	}
}

func TestRubles(t *testing.T) {
	assert.Equal(t, "1795.00", rubles("179500"))
	assert.Equal(t, "0.05", rubles("5"))
	assert.Equal(t, "0.00", rubles("not a number"))
}
