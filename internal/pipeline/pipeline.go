// Package pipeline orchestrates the invoice-to-payment-code flow: extract
// text or page images, pre-scan hints, call the model, sanitize, validate,
// retry on a stronger tier, encode. Data flows strictly downstream; the
// Processor is stateless and safe for concurrent use.
package pipeline

import (
	"context"
	"errors"
	"log/slog"
	"reflect"
	"strings"

	"github.com/ivlev/invoice-qr-bot/constants"
	"github.com/ivlev/invoice-qr-bot/internal/document"
	"github.com/ivlev/invoice-qr-bot/internal/hint"
	"github.com/ivlev/invoice-qr-bot/internal/llm"
	"github.com/ivlev/invoice-qr-bot/internal/paycode"
)

// Config holds the retry policy and validation constants.
type Config struct {
	// BaseTier and StrongTier name the model configurations. After a base
	// attempt fails validation the strong tier is retried up to MaxRetries
	// times; leave StrongTier empty (or equal to BaseTier) to disable the
	// escalation.
	BaseTier   string
	StrongTier string
	// MaxRetries bounds the strong-tier attempts, default 1.
	MaxRetries int
	Rules      paycode.Rules
}

func (c *Config) defaults() {
	if c.MaxRetries == 0 {
		c.MaxRetries = 1
	}
	if reflect.DeepEqual(c.Rules, paycode.Rules{}) {
		c.Rules = paycode.DefaultRules()
	}
}

// Processor runs the pipeline for one document per Process call.
type Processor struct {
	cfg       Config
	extractor *document.Extractor
	model     llm.FieldExtractor
	log       *slog.Logger
}

func NewProcessor(cfg Config, extractor *document.Extractor, model llm.FieldExtractor, log *slog.Logger) *Processor {
	if log == nil {
		log = slog.Default()
	}
	cfg.defaults()
	return &Processor{cfg: cfg, extractor: extractor, model: model, log: log}
}

// attempt is the result of one model call carried through the retry decision.
type attempt struct {
	outcome Outcome
	notes   string
}

// Process turns raw document bytes into an Outcome. It never panics across
// the boundary: unexpected faults become a generic internal failure so the
// caller can always render something.
func (p *Processor) Process(ctx context.Context, data []byte, declared constants.Kind) (out Outcome) {
	defer func() {
		if r := recover(); r != nil {
			p.log.Error("pipeline.panic", "recovered", r)
			out = failure(constants.ReasonInternal, nil, paycode.Record{}, "")
		}
	}()

	content := p.extractor.Extract(ctx, data, declared)
	if content.Empty() {
		p.log.Warn("pipeline.extract.empty", "declared", declared, "bytes", len(data))
		return failure(constants.ReasonExtractionEmpty, nil, paycode.Record{}, "")
	}
	p.log.Info("pipeline.extract.ok",
		"declared", declared,
		"image_pages", len(content.Pages),
		"text_len", len(content.Text),
	)

	h := hint.Scan(content.Text)

	first := p.attempt(ctx, content, h, p.cfg.BaseTier)
	if first.outcome.OK {
		return first.outcome
	}

	strong := p.cfg.StrongTier
	if strong == "" || strong == p.cfg.BaseTier {
		return first.outcome
	}

	best := first
	for i := 1; i <= p.cfg.MaxRetries && !best.outcome.OK; i++ {
		p.log.Info("pipeline.retry", "attempt", i, "reason", best.outcome.Reason, "tier", strong)
		next := p.attempt(ctx, content, h, strong)
		merged := pickBetter(best, next)
		best = attempt{outcome: merged, notes: merged.Notes}
	}
	return best.outcome
}

// attempt runs model call → sanitize → validate → encode for one tier.
func (p *Processor) attempt(ctx context.Context, content document.Content, h hint.Hint, tier string) attempt {
	out, err := p.model.ExtractFields(ctx, llm.Request{Content: content, Hint: h, Tier: tier})
	if err != nil {
		reason := constants.ReasonModelUnavailable
		switch {
		case errors.Is(err, llm.ErrNoJSONObject):
			reason = constants.ReasonNoJSONObject
		case errors.Is(err, llm.ErrMalformedJSON):
			reason = constants.ReasonMalformedJSON
		}
		return attempt{outcome: failure(reason, nil, paycode.Record{}, err.Error()), notes: err.Error()}
	}

	rec := paycode.Sanitize(out.Fields)

	// Prefer the model's pre-encoded string when it carries the format tag;
	// rebuild deterministically from the sanitized fields otherwise — and
	// also when the model string fails validation but the fields are usable.
	encoded := out.ST
	if !strings.HasPrefix(encoded, paycode.FormatTag+"|") {
		encoded = paycode.Build(rec)
	}
	fault := paycode.Validate(encoded, p.cfg.Rules)
	if fault != nil {
		if rebuilt := paycode.Build(rec); rebuilt != encoded {
			if rf := paycode.Validate(rebuilt, p.cfg.Rules); rf == nil {
				encoded, fault = rebuilt, nil
			}
		}
	}
	if fault != nil {
		p.log.Warn("pipeline.validate.failed",
			"tier", tier, "reason", fault.Reason, "missing", fault.Missing,
		)
		return attempt{outcome: failure(fault.Reason, fault.Missing, rec, out.Notes), notes: out.Notes}
	}

	final, err := paycode.Parse(encoded)
	if err != nil {
		// Validated strings always parse; treat anything else as internal.
		p.log.Error("pipeline.parse_encoded.failed", "error", err)
		return attempt{outcome: failure(constants.ReasonInternal, nil, rec, out.Notes), notes: out.Notes}
	}

	png, err := paycode.QR(encoded)
	if err != nil {
		p.log.Error("pipeline.qr.failed", "error", err)
		return attempt{outcome: failure(constants.ReasonEncodeFailed, nil, final, out.Notes), notes: out.Notes}
	}

	p.log.Info("pipeline.attempt.ok", "tier", tier, "encoded_len", len(encoded))
	return attempt{outcome: success(final, encoded, png), notes: out.Notes}
}

// pickBetter prefers the validating outcome; when both failed it keeps the
// attempt that recovered more fields, with the notes of both attempts joined
// for diagnostics.
func pickBetter(first, second attempt) Outcome {
	if second.outcome.OK {
		return second.outcome
	}
	if first.outcome.OK {
		return first.outcome
	}

	best := second.outcome
	if first.outcome.Partial.NonEmptyCount() > second.outcome.Partial.NonEmptyCount() {
		best = first.outcome
	}
	best.Notes = joinNotes(first.notes, second.notes)
	return best
}

func joinNotes(a, b string) string {
	a, b = strings.TrimSpace(a), strings.TrimSpace(b)
	switch {
	case a == "":
		return b
	case b == "" || a == b:
		return a
	default:
		return a + "\n" + b
	}
}
