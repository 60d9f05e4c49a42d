// Package bot is the chat glue layer: webhook plumbing, chat/topic
// filtering, the human approval step and session bookkeeping. It hands raw
// file bytes plus a declared kind to the pipeline and renders whatever
// outcome comes back; it owns no extraction logic.
package bot

import (
	"context"
	"log/slog"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/ivlev/invoice-qr-bot/constants"
	"github.com/ivlev/invoice-qr-bot/internal/common"
	"github.com/ivlev/invoice-qr-bot/internal/pipeline"
	"github.com/ivlev/invoice-qr-bot/internal/session"
)

// pending is an uploaded document awaiting human approval.
type pending struct {
	ChatID   int64
	ThreadID int64
	ReplyTo  int64
	FileID   string
	FileName string
	Kind     constants.Kind
}

// result is a finished extraction kept for the post-approval buttons.
type result struct {
	Outcome  pipeline.Outcome
	FileName string
}

// Bot wires the webhook updates to the pipeline through the session stores.
type Bot struct {
	api     *API
	proc    *pipeline.Processor
	pending *session.Store[pending]
	results *session.Store[result]
	cfg     common.BotConfig
	log     *slog.Logger

	// processTimeout bounds one full pipeline run, model retry included.
	processTimeout time.Duration
}

func New(api *API, proc *pipeline.Processor, cfg common.BotConfig, log *slog.Logger) *Bot {
	if log == nil {
		log = slog.Default()
	}
	return &Bot{
		api:            api,
		proc:           proc,
		pending:        session.NewStore[pending](),
		results:        session.NewStore[result](),
		cfg:            cfg,
		log:            log,
		processTimeout: 3 * time.Minute,
	}
}

// HandleUpdate dispatches one webhook update. Errors are logged, never
// returned: the webhook must answer 200 or Telegram re-delivers the update.
func (b *Bot) HandleUpdate(ctx context.Context, upd Update) {
	if upd.CallbackQuery != nil {
		b.handleCallback(ctx, upd.CallbackQuery)
		return
	}
	msg := upd.Message
	if msg == nil {
		msg = upd.EditedMessage
	}
	if msg == nil || !b.passesFilters(msg) {
		return
	}

	switch {
	case msg.Document != nil:
		b.handleDocument(ctx, msg)
	case len(msg.Photo) > 0:
		b.handlePhoto(ctx, msg)
	case msg.Text != "":
		b.send(ctx, msg.Chat.ID, msg.ThreadID, 0,
			"👋 Отправьте счёт файлом (PDF, Excel, DOCX) или фотографией. После загрузки появятся кнопки подтверждения.", nil)
	}
}

// passesFilters enforces the chat/topic allow-list.
func (b *Bot) passesFilters(msg *Message) bool {
	if b.cfg.AllowedChatID != "" && strconv.FormatInt(msg.Chat.ID, 10) != b.cfg.AllowedChatID {
		return false
	}
	if b.cfg.AllowedTopicID != "" {
		topic := ""
		if msg.ThreadID != 0 {
			topic = strconv.FormatInt(msg.ThreadID, 10)
		}
		if topic != b.cfg.AllowedTopicID {
			return false
		}
	}
	return true
}

func (b *Bot) handleDocument(ctx context.Context, msg *Message) {
	kind := constants.MapExtToKind(filepath.Ext(msg.Document.FileName))
	token := uuid.New().String()
	b.pending.Put(token, pending{
		ChatID:   msg.Chat.ID,
		ThreadID: msg.ThreadID,
		ReplyTo:  msg.MessageID,
		FileID:   msg.Document.FileID,
		FileName: msg.Document.FileName,
		Kind:     kind,
	})
	b.log.Info("bot.document.pending", "token", token, "file_name", msg.Document.FileName, "kind", kind)
	b.send(ctx, msg.Chat.ID, msg.ThreadID, msg.MessageID,
		"Получен файл: "+msg.Document.FileName+"\n\nПодтвердить обработку?", confirmKeyboard(token))
}

func (b *Bot) handlePhoto(ctx context.Context, msg *Message) {
	// Telegram lists photo sizes smallest first; take the largest.
	photo := msg.Photo[len(msg.Photo)-1]
	token := uuid.New().String()
	b.pending.Put(token, pending{
		ChatID:   msg.Chat.ID,
		ThreadID: msg.ThreadID,
		ReplyTo:  msg.MessageID,
		FileID:   photo.FileID,
		FileName: "photo.jpg",
		Kind:     constants.KindPhoto,
	})
	b.log.Info("bot.photo.pending", "token", token)
	b.send(ctx, msg.Chat.ID, msg.ThreadID, msg.MessageID,
		"Получено фото счёта.\n\nПодтвердить обработку?", confirmKeyboard(token))
}

func (b *Bot) handleCallback(ctx context.Context, cq *CallbackQuery) {
	if err := b.api.AnswerCallback(ctx, cq.ID); err != nil {
		b.log.Warn("bot.callback.answer_failed", "error", err)
	}
	action, token, ok := strings.Cut(cq.Data, ":")
	if !ok || cq.Message == nil {
		return
	}
	chatID := cq.Message.Chat.ID
	threadID := cq.Message.ThreadID

	switch action {
	case cbApprove:
		// Take claims the entry; a second press of the same button loses.
		p, ok := b.pending.Take(token)
		if !ok {
			b.send(ctx, chatID, threadID, 0, "⛔ Сессия подтверждения не найдена. Отправьте файл заново.", nil)
			return
		}
		b.process(token, p)
	case cbReject:
		b.pending.Delete(token)
		b.send(ctx, chatID, threadID, 0, "❌ Обработка отменена.", nil)
	case cbPay:
		res, ok := b.results.Get(token)
		if !ok {
			b.send(ctx, chatID, threadID, 0, "⛔ Нет данных платежа. Сформируйте QR заново.", nil)
			return
		}
		b.send(ctx, chatID, threadID, 0, "💳 Оплата\n\n"+res.Outcome.Caption(), nil)
	case cbGet:
		res, ok := b.results.Get(token)
		if !ok {
			b.send(ctx, chatID, threadID, 0, "⛔ Нет данных для выдачи. Сформируйте QR заново.", nil)
			return
		}
		if err := b.api.SendDocument(ctx, chatID, threadID, "payment_st00012.txt", []byte(res.Outcome.Encoded), ""); err != nil {
			b.log.Error("bot.get.send_payload_failed", "error", err)
		}
		if err := b.api.SendPhoto(ctx, chatID, threadID, 0, "qr.png", res.Outcome.PNG, "QR повторно", nil); err != nil {
			b.log.Error("bot.get.send_qr_failed", "error", err)
		}
	case cbCancel:
		b.results.Delete(token)
		b.send(ctx, chatID, threadID, 0, "✖ Готово. Сессия результата очищена.", nil)
	default:
		b.send(ctx, chatID, threadID, 0, "🤔 Неизвестная команда.", nil)
	}
}

// process downloads the approved file and runs the pipeline off the webhook
// goroutine, so slow model calls never stall update delivery. The result is
// stored only under its own token; an abandoned token simply never gets read.
func (b *Bot) process(token string, p pending) {
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), b.processTimeout)
		defer cancel()

		data, path, err := b.api.GetFileBytes(ctx, p.FileID)
		if err != nil {
			b.log.Error("bot.process.download_failed", "token", token, "error", err)
			b.send(ctx, p.ChatID, p.ThreadID, 0, "⚠️ Не удалось скачать файл.", nil)
			return
		}
		kind := p.Kind
		if kind == constants.KindUnknown {
			kind = constants.MapExtToKind(filepath.Ext(path))
		}

		outcome := b.proc.Process(ctx, data, kind)
		if !outcome.OK {
			b.log.Warn("bot.process.failed", "token", token, "reason", outcome.Reason)
			b.send(ctx, p.ChatID, p.ThreadID, p.ReplyTo, outcome.Caption(), nil)
			return
		}

		b.results.Put(token, result{Outcome: outcome, FileName: p.FileName})
		if err := b.api.SendPhoto(ctx, p.ChatID, p.ThreadID, p.ReplyTo, "qr.png", outcome.PNG, outcome.Caption(), resultKeyboard(token)); err != nil {
			b.log.Error("bot.process.send_qr_failed", "token", token, "error", err)
		}
	}()
}

func (b *Bot) send(ctx context.Context, chatID, threadID, replyTo int64, text string, markup *InlineKeyboardMarkup) {
	if err := b.api.SendText(ctx, chatID, threadID, replyTo, text, markup); err != nil {
		b.log.Error("bot.send_failed", "error", err)
	}
}
