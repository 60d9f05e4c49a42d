// invoiceqr runs one local file through the extraction pipeline and prints
// the encoded payment string or the failure, writing the QR PNG next to the
// input. Useful for tuning prompts and thresholds without a bot round-trip.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"

	"github.com/ivlev/invoice-qr-bot/constants"
	"github.com/ivlev/invoice-qr-bot/internal/common"
	"github.com/ivlev/invoice-qr-bot/internal/document"
	openaiclient "github.com/ivlev/invoice-qr-bot/internal/llm/openai"
	"github.com/ivlev/invoice-qr-bot/internal/pipeline"
)

func main() {
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelInfo}))
	slog.SetDefault(logger)

	if len(os.Args) < 2 {
		fmt.Fprintln(os.Stderr, "usage: invoiceqr <invoice-file>")
		os.Exit(2)
	}
	path := os.Args[1]

	_ = godotenv.Load()
	cfg := common.LoadConfig()
	if err := cfg.ValidateLLM(); err != nil {
		logger.Error("invalid configuration", "error", err)
		os.Exit(2)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		logger.Error("read file", "path", path, "error", err)
		os.Exit(1)
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

	outcome := proc.Process(context.Background(), data, constants.MapExtToKind(filepath.Ext(path)))
	if !outcome.OK {
		fmt.Fprintln(os.Stderr, outcome.Caption())
		os.Exit(1)
	}

	out := strings.TrimSuffix(path, filepath.Ext(path)) + ".qr.png"
	if err := os.WriteFile(out, outcome.PNG, 0o644); err != nil {
		logger.Error("write qr", "path", out, "error", err)
		os.Exit(1)
	}
	fmt.Println(outcome.Encoded)
	fmt.Println()
	fmt.Println(outcome.Caption())
	logger.Info("qr written", "path", out)
}
