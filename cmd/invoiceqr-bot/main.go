package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/ivlev/invoice-qr-bot/internal/bot"
	"github.com/ivlev/invoice-qr-bot/internal/common"
	"github.com/ivlev/invoice-qr-bot/internal/document"
	openaiclient "github.com/ivlev/invoice-qr-bot/internal/llm/openai"
	"github.com/ivlev/invoice-qr-bot/internal/pipeline"
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
	slog.SetDefault(logger)

	_ = godotenv.Load()
	cfg := common.LoadConfig()
	if err := cfg.ValidateBot(); err != nil {
		logger.Error("invalid configuration", "error", err)
		os.Exit(2)
	}

	extractor := document.NewExtractor(document.Config{
		MinTextLen: cfg.Document.MinTextLen,
		MaxPages:   cfg.Document.MaxPages,
		DPI:        cfg.Document.DPI,
	}, logger)

	model := openaiclient.NewClient(openaiclient.Config{
		APIKey:      cfg.LLM.APIKey,
		BaseURL:     cfg.LLM.BaseURL,
		Model:       cfg.LLM.Model,
		StrongModel: cfg.LLM.StrongModel,
		Temperature: cfg.LLM.Temperature,
		Timeout:     cfg.LLM.Timeout,
	}, logger)
	base, strong := model.Tiers()

	proc := pipeline.NewProcessor(pipeline.Config{
		BaseTier:   base,
		StrongTier: strong,
		MaxRetries: cfg.Pipeline.MaxRetries,
	}, extractor, model, logger)

	api := bot.NewAPI(cfg.Bot.Token, cfg.Bot.APITimeout, logger)
	b := bot.New(api, proc, cfg.Bot, logger)

	srv := &http.Server{
		Addr:              cfg.Bot.ListenAddr,
		Handler:           bot.NewMux(b, cfg.Bot.WebhookSecret, logger),
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go func() {
		logger.Info("webhook serving", "addr", cfg.Bot.ListenAddr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("serve failed", "error", err)
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("shutdown failed", "error", err)
	}
}
