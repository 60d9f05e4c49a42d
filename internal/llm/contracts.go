package llm

import (
	"context"
	"errors"

	"github.com/ivlev/invoice-qr-bot/internal/document"
	"github.com/ivlev/invoice-qr-bot/internal/hint"
)

// Output is the model response under the extraction contract: exactly one
// JSON object with the pre-encoded payment string, the structured fields and
// free-text notes about anything the model could not determine.
type Output struct {
	ST     string            `json:"st"`
	Fields map[string]string `json:"fields"`
	Notes  string            `json:"notes"`
}

// Request carries the extracted content and the pre-scan hints to a model
// tier. Tier names a model configuration (e.g. a cheaper vs. a stronger
// variant); the retry controller escalates between them.
type Request struct {
	Content document.Content
	Hint    hint.Hint
	Tier    string
}

// FieldExtractor is the interface the pipeline depends on.
type FieldExtractor interface {
	ExtractFields(ctx context.Context, req Request) (Output, error)
}

// Sentinel errors the pipeline maps onto failure reasons.
var (
	// ErrUnavailable: the model could not be reached or authenticated.
	ErrUnavailable = errors.New("model unavailable")
	// ErrNoJSONObject: the response contained no locatable JSON object.
	ErrNoJSONObject = errors.New("no json object in model response")
	// ErrMalformedJSON: the extracted substring failed to parse.
	ErrMalformedJSON = errors.New("malformed json in model response")
)

// TextBudget caps how much extracted text is attached to a model request.
const TextBudget = 15000
