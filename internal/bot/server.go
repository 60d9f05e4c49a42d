package bot

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"
)

// NewMux builds the webhook HTTP surface: a health endpoint and the update
// receiver, optionally guarded by a path secret.
func NewMux(b *Bot, webhookSecret string, log *slog.Logger) *http.ServeMux {
	if log == nil {
		log = slog.Default()
	}
	mux := http.NewServeMux()

	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	webhook := func(w http.ResponseWriter, r *http.Request) {
		if webhookSecret != "" {
			secret := strings.TrimPrefix(r.URL.Path, "/webhook")
			secret = strings.TrimPrefix(secret, "/")
			if secret != webhookSecret {
				http.Error(w, "forbidden", http.StatusForbidden)
				return
			}
		}
		if r.Method == http.MethodGet {
			w.WriteHeader(http.StatusOK)
			_, _ = w.Write([]byte("ok"))
			return
		}

		var upd Update
		if err := json.NewDecoder(r.Body).Decode(&upd); err != nil {
			log.Warn("bot.webhook.bad_payload", "error", err)
			// Answer 200 anyway: Telegram re-delivers on anything else and
			// a malformed update stays malformed.
			w.WriteHeader(http.StatusOK)
			return
		}

		b.HandleUpdate(r.Context(), upd)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"ok":true}`))
	}

	mux.HandleFunc("/webhook", webhook)
	mux.HandleFunc("/webhook/", webhook)
	return mux
}
