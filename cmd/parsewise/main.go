package main

import (
	_ "embed"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/peterbourgon/ff/v4"
	"github.com/peterbourgon/ff/v4/ffhelp"
	"github.com/zombor/parsewise/internal/invoice"
	"github.com/zombor/parsewise/internal/scanning"
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

	// A .env file is optional; real environment variables win
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		fmt.Fprintf(os.Stderr, "error: loading .env: %v\n", err)
		os.Exit(1)
	}

	fs := ff.NewFlagSet("parsewise")
	var (
		port         = fs.IntLong("port", 8080, "HTTP server port")
		corsOrigin   = fs.StringLong("cors-origin", "", "Origin allowed to call the API from another site, '*' for any (default same-origin only)")
		backend      = fs.StringLong("backend", "bolt", "Mirror storage backend: 'bolt', 'sqlite' or 'dir'")
		dbPath       = fs.StringLong("db", "parsewise.db", "Database file path (bolt and sqlite backends)")
		storagePath  = fs.StringLong("storage", "./data", "Storage directory path (dir backend)")
		mirrorKey    = fs.StringLong("mirror-key", invoice.DefaultMirrorKey, "Slot the invoice collection is mirrored to")
		quota        = fs.IntLong("quota", invoice.DefaultQuota, "Maximum size in bytes of the mirrored collection (0 disables)")
		resetMirror  = fs.BoolLong("reset-mirror", "Clear the mirrored collection before loading")
		defaultModel = fs.StringLong("model", "gemini", "Default extraction model: 'gemini' or 'ollama'")
		geminiKey    = fs.StringLong("gemini-key", "", "Google Gemini API key (or set GEMINI_API_KEY env var)")
		geminiModel  = fs.StringLong("gemini-model", "gemini-2.5-pro", "Google Gemini model name")
		ollamaURL    = fs.StringLong("ollama-url", "http://localhost:11434", "Ollama API base URL")
		ollamaModel  = fs.StringLong("ollama-model", "llava", "Ollama model name (e.g., llava, qwen2-vl)")
		logLevel     = fs.StringLong("log-level", "info", "Log level: debug, info, warn or error")
		logFormat    = fs.StringLong("log-format", "text", "Log format: text or json")
		_            = fs.StringLong("config", "", "Config file (optional)")
		showVersion  = fs.BoolLong("version", "Show version information")
	)

	if err := ff.Parse(fs, os.Args[1:],
		ff.WithEnvVarPrefix("PARSEWISE"),
		ff.WithConfigFileFlag("config"),
		ff.WithConfigFileParser(ff.PlainParser),
		ff.WithConfigAllowMissingFile(),
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

	if err := setupLogging(*logLevel, *logFormat); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}

	// Initialize storage
	slog.Info("Initializing storage...", "backend", *backend)
	var storage invoice.Storage
	var err error
	switch *backend {
	case "bolt":
		storage, err = invoice.NewBoltStorage(*dbPath)
	case "sqlite":
		storage, err = invoice.NewSQLStorage(*dbPath)
	case "dir":
		storage, err = invoice.NewLocalStorage(*storagePath)
	default:
		slog.Error("Invalid storage backend", "backend", *backend, "valid", "bolt, sqlite or dir")
		os.Exit(1)
	}
	if err != nil {
		slog.Error("Failed to initialize storage", "error", err)
		os.Exit(1)
	}

	store := invoice.NewStore(storage,
		invoice.WithMirrorKey(*mirrorKey),
		invoice.WithQuota(*quota),
	)
	defer store.Close()

	if *resetMirror {
		slog.Warn("Clearing mirrored invoices", "key", *mirrorKey)
		if err := store.Reset(); err != nil {
			slog.Error("Failed to clear mirror", "error", err)
			os.Exit(1)
		}
	}

	// Initialize scanners
	scanners := scanning.NewRegistry(*defaultModel)
	defer scanners.Close()

	apiKey := *geminiKey
	if apiKey == "" {
		apiKey = os.Getenv("GEMINI_API_KEY")
	}
	if apiKey != "" {
		slog.Info("Initializing Gemini scanner...", "model", *geminiModel)
		gemini, err := scanning.NewGemini(apiKey, *geminiModel)
		if err != nil {
			slog.Error("Failed to initialize Gemini", "error", err)
			os.Exit(1)
		}
		scanners.Register("gemini", gemini)
	} else {
		slog.Warn("No Gemini API key set, the gemini model is disabled. Set --gemini-key or GEMINI_API_KEY")
	}

	slog.Info("Initializing Ollama scanner...", "url", *ollamaURL, "model", *ollamaModel)
	ollama, err := scanning.NewOllama(*ollamaURL, *ollamaModel)
	if err != nil {
		slog.Error("Failed to initialize Ollama", "error", err)
		os.Exit(1)
	}
	scanners.Register("ollama", ollama)

	if _, err := scanners.Get(""); err != nil {
		slog.Error("Default model is not available", "model", *defaultModel, "available", scanners.Models())
		os.Exit(1)
	}

	// Initialize service and server
	service := invoice.NewService(store, scanners)
	var serverOpts []invoice.ServerOption
	if *corsOrigin != "" {
		slog.Warn("Allowing cross-origin API access", "origin", *corsOrigin)
		serverOpts = append(serverOpts, invoice.WithAllowedOrigin(*corsOrigin))
	}
	server := invoice.NewServer(service, serverOpts...)

	// Start server in goroutine
	addr := fmt.Sprintf(":%d", *port)
	go func() {
		if err := server.Start(addr); err != nil {
			slog.Error("Server error", "error", err)
			os.Exit(1)
		}
	}()

	// Load after the listener starts; API calls answer 503 until ready
	slog.Info("Loading invoices...", "key", *mirrorKey)
	store.Load()

	slog.Info("Server started", "address", fmt.Sprintf("http://localhost%s", addr), "version", version)

	// Wait for interrupt signal
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	<-sigChan

	slog.Info("Shutting down...")
}

// setupLogging installs the default slog logger
func setupLogging(level, format string) error {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(level)); err != nil {
		return fmt.Errorf("invalid log level %q: %w", level, err)
	}
	opts := &slog.HandlerOptions{Level: lvl}

	var handler slog.Handler
	switch format {
	case "text":
		handler = slog.NewTextHandler(os.Stderr, opts)
	case "json":
		handler = slog.NewJSONHandler(os.Stderr, opts)
	default:
		return fmt.Errorf("invalid log format %q", format)
	}
	slog.SetDefault(slog.New(handler))
	return nil
}
