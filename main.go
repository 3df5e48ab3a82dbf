// go_ats — ATS compatibility scoring MCP server.
//
// Exposes three MCP tools: ats_score, ats_feedback, ats_metrics.
// Scoring runs on a single background worker behind a request manager
// with per-request timeouts and a bounded result cache.
package main

import (
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/anatolykoptev/go-kit/env"
	"github.com/anatolykoptev/go-mcpserver"
	"github.com/anatolykoptev/go_ats/internal/atsserver"
	"github.com/anatolykoptev/go_ats/internal/engine"
	"github.com/anatolykoptev/go_ats/internal/pipeline"
	"github.com/joho/godotenv"
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

var version = "dev"

func main() {
	if err := godotenv.Load(); err != nil {
		slog.Debug("no .env file loaded", slog.Any("error", err))
	}
	initLogger(env.Str("LOG_LEVEL", "info"))

	mcpPort := env.Str("MCP_PORT", "8892")
	cfg := loadConfig()
	slog.Info("starting go_ats",
		slog.String("port", mcpPort),
		slog.Duration("debounce", cfg.DebounceDelay),
		slog.Duration("request_timeout", cfg.RequestTimeout),
		slog.Int("cache_size", cfg.CacheSize),
	)

	mgr := pipeline.NewManager(cfg)
	defer mgr.Close()

	server := mcp.NewServer(&mcp.Implementation{
		Name:    "go_ats",
		Version: version,
	}, nil)

	atsserver.RegisterTools(server, mgr)
	slog.Info("tools registered", slog.Int("count", 3))

	if err := mcpserver.Run(server, mcpserver.Config{
		Name:         "go_ats",
		Version:      version,
		Port:         mcpPort,
		WriteTimeout: cfg.RequestTimeout + 10*time.Second,
		Metrics:      engine.FormatMetrics,
	}); err != nil {
		slog.Error("server failed", slog.Any("error", err))
	}
}

func loadConfig() engine.Config {
	d := engine.DefaultConfig()
	return engine.Config{
		DebounceDelay:  env.Duration("ATS_DEBOUNCE", d.DebounceDelay),
		RequestTimeout: env.Duration("ATS_REQUEST_TIMEOUT", d.RequestTimeout),
		CacheSize:      env.Int("ATS_CACHE_SIZE", d.CacheSize),
		MaxPending:     env.Int("ATS_MAX_PENDING", d.MaxPending),
		SlowThreshold:  env.Duration("ATS_SLOW_THRESHOLD", d.SlowThreshold),
	}.WithDefaults()
}

func initLogger(level string) {
	var l slog.Level
	switch strings.ToLower(level) {
	case "debug":
		l = slog.LevelDebug
	case "warn", "warning":
		l = slog.LevelWarn
	case "error":
		l = slog.LevelError
	default:
		l = slog.LevelInfo
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: l})))
}
