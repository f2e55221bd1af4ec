package main

import (
	"context"
	_ "embed"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/peterbourgon/ff/v4"
	"github.com/peterbourgon/ff/v4/ffhelp"

	"github.com/ChayanSD/reimburse-ai/internal/extraction"
	"github.com/ChayanSD/reimburse-ai/internal/queue"
	"github.com/ChayanSD/reimburse-ai/internal/server"
	"github.com/ChayanSD/reimburse-ai/internal/store"
	"github.com/ChayanSD/reimburse-ai/internal/vision"
)

//go:embed VERSION.txt
var versionFile string

var version = strings.TrimSpace(versionFile)

func main() {
	// Check for version flag before parsing other flags
	for _, arg := range os.Args[1:] {
		if arg == "--version" || arg == "-version" || arg == "-v" {
			fmt.Println(version)
			os.Exit(0)
		}
	}

	fs := ff.NewFlagSet("reimburse-ai")
	var (
		port         = fs.IntLong("port", 8080, "HTTP server port")
		dbPath       = fs.StringLong("db", "reimburse-ai.db", "Database file path")
		extractorArg = fs.StringLong("extractor", "gemini", "Vision extractor: 'gemini' or 'ollama'")
		geminiKey    = fs.StringLong("gemini-key", "", "Google Gemini API key (or set GEMINI_API_KEY env var)")
		geminiModel  = fs.StringLong("gemini-model", "gemini-2.5-pro", "Google Gemini model name")
		ollamaURL    = fs.StringLong("ollama-url", "http://localhost:11434", "Ollama API base URL")
		ollamaModel  = fs.StringLong("ollama-model", "llava", "Ollama model name (e.g., llava, llava-phi3, bakllava, qwen2-vl)")
		currency     = fs.StringLong("default-currency", "USD", "Currency code assumed when the receipt shows none")
		dupWindow    = fs.DurationLong("duplicate-window", extraction.DefaultDuplicateWindow, "How far back to look for duplicate expenses")
		workers      = fs.IntLong("workers", 2, "Background workers for async processing")
		queueSize    = fs.IntLong("queue-size", 64, "Pending job buffer for async processing")
		authUser     = fs.StringLong("auth-user", "", "Basic auth username (optional)")
		authPass     = fs.StringLong("auth-pass", "", "Basic auth password (optional)")
		showVersion  = fs.BoolLong("version", "Show version information")
	)

	if err := ff.Parse(fs, os.Args[1:],
		ff.WithEnvVarPrefix("REIMBURSE_AI"),
	); err != nil {
		fmt.Fprintf(os.Stderr, "%s\n", ffhelp.Flags(fs))
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}

	// Check version flag after parsing
	if *showVersion {
		fmt.Println(version)
		os.Exit(0)
	}

	// Initialize database
	slog.Info("Initializing database...")
	expenseStore, err := store.NewStore(*dbPath)
	if err != nil {
		slog.Error("Failed to initialize database", "error", err)
		os.Exit(1)
	}
	defer expenseStore.Close()

	// Initialize vision extractor based on type
	var extractor vision.Extractor
	switch *extractorArg {
	case "gemini":
		// Get Gemini API key from flag or environment
		apiKey := *geminiKey
		if apiKey == "" {
			apiKey = os.Getenv("GEMINI_API_KEY")
		}
		if apiKey == "" {
			slog.Error("Gemini API key is required. Set --gemini-key flag or GEMINI_API_KEY environment variable")
			os.Exit(1)
		}
		slog.Info("Initializing Gemini extractor...", "model", *geminiModel)
		extractor, err = vision.NewGemini(apiKey, *geminiModel)
		if err != nil {
			slog.Error("Failed to initialize Gemini", "error", err)
			os.Exit(1)
		}
	case "ollama":
		slog.Info("Initializing Ollama extractor...", "url", *ollamaURL, "model", *ollamaModel)
		extractor, err = vision.NewOllama(*ollamaURL, *ollamaModel)
		if err != nil {
			slog.Error("Failed to initialize Ollama", "error", err)
			os.Exit(1)
		}
	default:
		slog.Error("Invalid extractor type", "type", *extractorArg, "valid", "gemini or ollama")
		os.Exit(1)
	}
	defer extractor.Close()

	// Initialize pipeline
	cfg := extraction.Config{
		DefaultCurrency: *currency,
		DuplicateWindow: *dupWindow,
	}
	pipeline := extraction.NewPipeline(extraction.NewHTTPFetcher(), extractor, expenseStore, cfg)

	// Background workers process async submissions through the same
	// pipeline-then-persist path as synchronous requests.
	jobQueue := queue.New(*workers, *queueSize, func(ctx context.Context, job queue.Job) error {
		record, err := pipeline.Process(ctx, job.FileURL, job.Filename, job.UserID)
		if err != nil {
			return err
		}
		record, err = expenseStore.SaveRecord(record)
		if err != nil {
			return err
		}
		return expenseStore.CacheResult(job.UserID, job.FileURL, record)
	})

	// Initialize server
	basicAuth := server.BasicAuth{
		Username: *authUser,
		Password: *authPass,
	}
	srv := server.NewServer(pipeline, expenseStore, jobQueue, basicAuth)

	// Start server in goroutine
	addr := fmt.Sprintf(":%d", *port)
	go func() {
		if err := srv.Start(addr); err != nil {
			slog.Error("Server error", "error", err)
			os.Exit(1)
		}
	}()

	slog.Info("Server started", "address", fmt.Sprintf("http://localhost%s", addr))
	if *authUser != "" || *authPass != "" {
		slog.Info("Basic auth enabled", "user", *authUser)
	}

	// Wait for interrupt signal
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	<-sigChan

	slog.Info("Shutting down...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := jobQueue.Shutdown(shutdownCtx); err != nil {
		slog.Warn("Queue did not drain before shutdown deadline", "error", err)
	}
}
