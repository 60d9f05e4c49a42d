// Package openai implements llm.FieldExtractor over the OpenAI
// chat/completions API, attaching either extracted text or rendered page
// images depending on the document.
package openai

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	goopenai "github.com/sashabaranov/go-openai"

	"github.com/ivlev/invoice-qr-bot/internal/llm"
)

const systemPrompt = "Ты — финансовый парсер счетов. По входному контенту (текст PDF/таблицы или изображения страниц) " +
	"найди реквизиты для платёжного QR по стандарту GOST ST00012 (Россия). Отвечай строго одним JSON-объектом: " +
	`{"st":"ST00012|Name=...|PersonalAcc=...|BankName=...|BIC=...|CorrespAcc=...|Sum=...|Purpose=...",` +
	`"fields":{"Name":"...","PersonalAcc":"...","BankName":"...","BIC":"...","CorrespAcc":"...","PayeeINN":"...","KPP":"...","Sum":"...","Purpose":"..."},` +
	`"notes":"..."} ` +
	"Требования: Sum — ЦЕЛОЕ число копеек (например, 179500 для 1 795,00). " +
	"Purpose обязательно: если есть НДС — укажи «НДС X% — Y ₽», если нет — «Без НДС». " +
	"Если видишь номер и дату счёта, добавь «Оплата по счёту №… от …». " +
	"Не выдумывай данные: если поля нет в документе — оставь его пустым и объясни в notes."

// Client talks to one OpenAI-compatible endpoint and serves every tier by
// switching the model name per request.
type Client struct {
	api *goopenai.Client
	cfg Config
	log *slog.Logger
}

func NewClient(cfg Config, log *slog.Logger) *Client {
	if log == nil {
		log = slog.Default()
	}
	cfg.defaults()
	apiCfg := goopenai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		apiCfg.BaseURL = cfg.BaseURL
	}
	apiCfg.HTTPClient = &http.Client{Timeout: cfg.Timeout}
	return &Client{api: goopenai.NewClientWithConfig(apiCfg), cfg: cfg, log: log}
}

// Tiers returns the configured model tiers, cheapest first.
func (c *Client) Tiers() (base, strong string) {
	return c.cfg.Model, c.cfg.StrongModel
}

// ExtractFields sends the document content plus hints and decodes the JSON
// object the contract requires.
func (c *Client) ExtractFields(ctx context.Context, req llm.Request) (llm.Output, error) {
	rid := uuid.New().String()
	start := time.Now()

	model := req.Tier
	if model == "" {
		model = c.cfg.Model
	}
	parts := c.buildParts(req)

	c.log.Info("llm.extract.start",
		"req_id", rid,
		"model", model,
		"image_pages", len(req.Content.Pages),
		"text_len", len(req.Content.Text),
		"has_hints", !req.Hint.IsZero(),
	)

	resp, err := c.api.CreateChatCompletion(ctx, goopenai.ChatCompletionRequest{
		Model:       model,
		Temperature: c.cfg.Temperature,
		ResponseFormat: &goopenai.ChatCompletionResponseFormat{
			Type: goopenai.ChatCompletionResponseFormatTypeJSONObject,
		},
		Messages: []goopenai.ChatCompletionMessage{
			{Role: goopenai.ChatMessageRoleSystem, Content: systemPrompt},
			{Role: goopenai.ChatMessageRoleUser, MultiContent: parts},
		},
	})
	if err != nil {
		c.log.Error("llm.extract.http_error",
			"req_id", rid, "error", err,
			"elapsed_ms", time.Since(start).Milliseconds(),
		)
		return llm.Output{}, fmt.Errorf("%w: %s", llm.ErrUnavailable, err)
	}
	if len(resp.Choices) == 0 {
		c.log.Error("llm.extract.no_choices", "req_id", rid)
		return llm.Output{}, fmt.Errorf("%w: empty choices", llm.ErrUnavailable)
	}

	content := resp.Choices[0].Message.Content
	out, rawObj, err := llm.DecodeOutput(content)
	if err != nil {
		c.log.Error("llm.extract.decode_error",
			"req_id", rid, "error", err, "content_len", len(content),
			"elapsed_ms", time.Since(start).Milliseconds(),
		)
		return llm.Output{}, err
	}

	if serr := llm.CheckShape(rawObj); serr != nil {
		c.log.Warn("llm.extract.shape_violation", "req_id", rid, "error", serr)
		if out.Notes != "" {
			out.Notes += "; "
		}
		out.Notes += serr.Error()
	}

	c.log.Info("llm.extract.ok",
		"req_id", rid,
		"model", model,
		"has_st", out.ST != "",
		"fields", len(out.Fields),
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return out, nil
}

// buildParts assembles the user message: text documents get the hint bundle
// plus a bounded text snippet, scans get one image part per rendered page.
func (c *Client) buildParts(req llm.Request) []goopenai.ChatMessagePart {
	var parts []goopenai.ChatMessagePart

	if req.Content.IsImage() {
		parts = append(parts, goopenai.ChatMessagePart{
			Type: goopenai.ChatMessagePartTypeText,
			Text: "Проанализируй изображения страниц счёта и верни JSON как описано.",
		})
	} else {
		parts = append(parts, goopenai.ChatMessagePart{
			Type: goopenai.ChatMessagePartTypeText,
			Text: "Ниже текст счёта. Верни JSON как описано.",
		})
	}

	if !req.Hint.IsZero() {
		if hb, err := json.Marshal(req.Hint); err == nil {
			parts = append(parts, goopenai.ChatMessagePart{
				Type: goopenai.ChatMessagePartTypeText,
				Text: "Подсказки локального сканера (проверь, не доверяй слепо): " + string(hb),
			})
		}
	}

	if req.Content.IsImage() {
		for _, page := range req.Content.Pages {
			parts = append(parts, goopenai.ChatMessagePart{
				Type: goopenai.ChatMessagePartTypeImageURL,
				ImageURL: &goopenai.ChatMessageImageURL{
					URL: dataURI(page),
				},
			})
		}
		return parts
	}

	text := req.Content.Text
	if len(text) > llm.TextBudget {
		cut := llm.TextBudget
		// Back off to a rune boundary so Cyrillic text is never cut mid-rune.
		for cut > 0 && !utf8.RuneStart(text[cut]) {
			cut--
		}
		text = text[:cut]
	}
	parts = append(parts, goopenai.ChatMessagePart{
		Type: goopenai.ChatMessagePartTypeText,
		Text: text,
	})
	return parts
}

func dataURI(b []byte) string {
	mime := http.DetectContentType(b)
	if !strings.HasPrefix(mime, "image/") {
		mime = "image/png"
	}
	return "data:" + mime + ";base64," + base64.StdEncoding.EncodeToString(b)
}
