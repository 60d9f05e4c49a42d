package pipeline

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/ivlev/invoice-qr-bot/constants"
	"github.com/ivlev/invoice-qr-bot/internal/paycode"
)

// Outcome is the tagged result of one document-processing invocation. It is
// created fresh per invocation and never persisted by the pipeline; session
// state belongs to the caller.
type Outcome struct {
	OK bool

	// Success payload.
	Record  paycode.Record
	Encoded string
	PNG     []byte

	// Failure payload. Partial carries whatever fields were recovered so a
	// human can correct and resubmit instead of getting a bare error.
	Reason  constants.Reason
	Missing []string
	Partial paycode.Record
	Notes   string
}

func success(rec paycode.Record, encoded string, png []byte) Outcome {
	return Outcome{OK: true, Record: rec, Encoded: encoded, PNG: png}
}

func failure(reason constants.Reason, missing []string, partial paycode.Record, notes string) Outcome {
	return Outcome{Reason: reason, Missing: missing, Partial: partial, Notes: notes}
}

// rubles renders an integer kopeck string as "1795.00".
func rubles(sum string) string {
	n, err := strconv.ParseInt(sum, 10, 64)
	if err != nil {
		return "0.00"
	}
	return fmt.Sprintf("%d.%02d", n/100, n%100)
}

// Caption renders the user-facing summary: the full payment record on
// success, the specific reason plus a recovered-field preview on failure.
func (o Outcome) Caption() string {
	if o.OK {
		var b strings.Builder
		b.WriteString("Платёжный QR сформирован (ST00012).\n\n")
		b.WriteString("Получатель: " + o.Record.Name + "\n")
		if o.Record.PayeeINN != "" {
			b.WriteString("ИНН: " + o.Record.PayeeINN + "\n")
		}
		if o.Record.KPP != "" {
			b.WriteString("КПП: " + o.Record.KPP + "\n")
		}
		b.WriteString("Банк: " + o.Record.BankName + "\n")
		b.WriteString("БИК: " + o.Record.BIC + "\n")
		b.WriteString("К/с: " + o.Record.CorrespAcc + "\n")
		b.WriteString("Р/с: " + o.Record.PersonalAcc + "\n")
		b.WriteString("Сумма: " + rubles(o.Record.Sum) + " ₽\n")
		b.WriteString("Назначение: " + o.Record.Purpose)
		return b.String()
	}

	var b strings.Builder
	b.WriteString("⚠️ " + constants.HumanReason(o.Reason))
	if len(o.Missing) > 0 {
		b.WriteString(": " + strings.Join(o.Missing, ", "))
	}
	if o.Notes != "" {
		b.WriteString("\n" + o.Notes)
	}
	if preview := partialPreview(o.Partial); preview != "" {
		b.WriteString("\n\nРаспознано:\n" + preview)
	}
	return b.String()
}

func partialPreview(r paycode.Record) string {
	labels := []struct{ label, value string }{
		{"Получатель", r.Name},
		{"Р/с", r.PersonalAcc},
		{"Банк", r.BankName},
		{"БИК", r.BIC},
		{"К/с", r.CorrespAcc},
		{"ИНН", r.PayeeINN},
		{"КПП", r.KPP},
		{"Сумма (коп.)", r.Sum},
		{"Назначение", r.Purpose},
	}
	var lines []string
	for _, l := range labels {
		if l.value != "" {
			lines = append(lines, l.label+": "+l.value)
		}
	}
	return strings.Join(lines, "\n")
}
