package bot

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"time"
)

// API is a thin Telegram Bot API client: JSON calls plus multipart uploads,
// nothing more. No SDK; the surface the bot needs is a handful of methods.
type API struct {
	token   string
	baseURL string
	http    *http.Client
	log     *slog.Logger
}

func NewAPI(token string, timeout time.Duration, log *slog.Logger) *API {
	if log == nil {
		log = slog.Default()
	}
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	return &API{
		token:   token,
		baseURL: "https://api.telegram.org",
		http:    &http.Client{Timeout: timeout},
		log:     log,
	}
}

type apiResponse struct {
	OK          bool            `json:"ok"`
	Description string          `json:"description"`
	Result      json.RawMessage `json:"result"`
}

// call POSTs a JSON payload to a Bot API method and decodes result into out
// when out is non-nil.
func (a *API) call(ctx context.Context, method string, payload any, out any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("encode %s: %w", method, err)
	}
	url := fmt.Sprintf("%s/bot%s/%s", a.baseURL, a.token, method)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build %s: %w", method, err)
	}
	req.Header.Set("Content-Type", "application/json")
	return a.do(req, method, out)
}

func (a *API) do(req *http.Request, method string, out any) error {
	resp, err := a.http.Do(req)
	if err != nil {
		return fmt.Errorf("%s: %w", method, err)
	}
	defer func() {
		if err := resp.Body.Close(); err != nil {
			a.log.Warn("bot.api.body_close_error", "method", method, "error", err)
		}
	}()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("%s read: %w", method, err)
	}
	var ar apiResponse
	if err := json.Unmarshal(raw, &ar); err != nil {
		return fmt.Errorf("%s decode: %w", method, err)
	}
	if !ar.OK {
		return fmt.Errorf("%s: api error: %s", method, ar.Description)
	}
	if out != nil {
		if err := json.Unmarshal(ar.Result, out); err != nil {
			return fmt.Errorf("%s decode result: %w", method, err)
		}
	}
	return nil
}

type sendMessage struct {
	ChatID      int64                 `json:"chat_id"`
	Text        string                `json:"text"`
	ThreadID    int64                 `json:"message_thread_id,omitempty"`
	ReplyTo     int64                 `json:"reply_to_message_id,omitempty"`
	ReplyMarkup *InlineKeyboardMarkup `json:"reply_markup,omitempty"`
}

// SendText sends a plain text message into a chat/topic.
func (a *API) SendText(ctx context.Context, chatID, threadID, replyTo int64, text string, markup *InlineKeyboardMarkup) error {
	return a.call(ctx, "sendMessage", sendMessage{
		ChatID:      chatID,
		Text:        text,
		ThreadID:    threadID,
		ReplyTo:     replyTo,
		ReplyMarkup: markup,
	}, nil)
}

// AnswerCallback acknowledges an inline-keyboard press so the client stops
// showing a spinner.
func (a *API) AnswerCallback(ctx context.Context, callbackID string) error {
	return a.call(ctx, "answerCallbackQuery", map[string]string{"callback_query_id": callbackID}, nil)
}

// GetFileBytes resolves a file_id and downloads its content.
func (a *API) GetFileBytes(ctx context.Context, fileID string) ([]byte, string, error) {
	var info struct {
		FilePath string `json:"file_path"`
	}
	if err := a.call(ctx, "getFile", map[string]string{"file_id": fileID}, &info); err != nil {
		return nil, "", err
	}

	url := fmt.Sprintf("%s/file/bot%s/%s", a.baseURL, a.token, info.FilePath)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, "", fmt.Errorf("build download: %w", err)
	}
	resp, err := a.http.Do(req)
	if err != nil {
		return nil, "", fmt.Errorf("download: %w", err)
	}
	defer func() {
		if err := resp.Body.Close(); err != nil {
			a.log.Warn("bot.api.body_close_error", "method", "download", "error", err)
		}
	}()
	if resp.StatusCode != http.StatusOK {
		return nil, "", fmt.Errorf("download: status %d", resp.StatusCode)
	}
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, "", fmt.Errorf("download read: %w", err)
	}
	return data, info.FilePath, nil
}

// upload POSTs a multipart form with a single attached file.
func (a *API) upload(ctx context.Context, method, fieldName, fileName string, blob []byte, fields map[string]string) error {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	for k, v := range fields {
		if err := mw.WriteField(k, v); err != nil {
			return fmt.Errorf("%s form field: %w", method, err)
		}
	}
	fw, err := mw.CreateFormFile(fieldName, fileName)
	if err != nil {
		return fmt.Errorf("%s form file: %w", method, err)
	}
	if _, err := fw.Write(blob); err != nil {
		return fmt.Errorf("%s form write: %w", method, err)
	}
	if err := mw.Close(); err != nil {
		return fmt.Errorf("%s form close: %w", method, err)
	}

	url := fmt.Sprintf("%s/bot%s/%s", a.baseURL, a.token, method)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, &buf)
	if err != nil {
		return fmt.Errorf("build %s: %w", method, err)
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return a.do(req, method, nil)
}

// SendPhoto uploads a photo with a caption and optional keyboard.
func (a *API) SendPhoto(ctx context.Context, chatID, threadID, replyTo int64, fileName string, blob []byte, caption string, markup *InlineKeyboardMarkup) error {
	fields := map[string]string{
		"chat_id": fmt.Sprintf("%d", chatID),
		"caption": caption,
	}
	if threadID != 0 {
		fields["message_thread_id"] = fmt.Sprintf("%d", threadID)
	}
	if replyTo != 0 {
		fields["reply_to_message_id"] = fmt.Sprintf("%d", replyTo)
	}
	if markup != nil {
		if b, err := json.Marshal(markup); err == nil {
			fields["reply_markup"] = string(b)
		}
	}
	return a.upload(ctx, "sendPhoto", "photo", fileName, blob, fields)
}

// SendDocument uploads an arbitrary file with a caption.
func (a *API) SendDocument(ctx context.Context, chatID, threadID int64, fileName string, blob []byte, caption string) error {
	fields := map[string]string{
		"chat_id": fmt.Sprintf("%d", chatID),
	}
	if threadID != 0 {
		fields["message_thread_id"] = fmt.Sprintf("%d", threadID)
	}
	if caption != "" {
		fields["caption"] = caption
	}
	return a.upload(ctx, "sendDocument", "document", fileName, blob, fields)
}
