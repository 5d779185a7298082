// go_ytsubs: YouTube subtitle MCP server.
//
// Exposes two MCP tools: fetch_youtube_subtitles and subtitle_history.
// Runs as HTTP MCP server or stdio transport (MCP_TRANSPORT=stdio).
package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/anatolykoptev/go-kit/env"
	"github.com/anatolykoptev/go-mcpserver"
	stealth "github.com/anatolykoptev/go-stealth"
	"github.com/anatolykoptev/go-stealth/proxypool"
	"github.com/anatolykoptev/go_ytsubs/internal/engine"
	"github.com/anatolykoptev/go_ytsubs/internal/engine/history"
	"github.com/anatolykoptev/go_ytsubs/internal/engine/sources"
	"github.com/anatolykoptev/go_ytsubs/internal/subserver"
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

var (
	version      = "dev"
	mcpPort      = env.Str("MCP_PORT", "8893")
	mcpTransport = env.Str("MCP_TRANSPORT", "http")
)

func main() {
	stdio := strings.EqualFold(mcpTransport, "stdio")
	if stdio {
		// stdout carries the protocol stream.
		slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, nil)))
	}

	initEngine()

	store := openHistory()
	if store != nil {
		defer store.Close()
	}

	slog.Info("starting go_ytsubs",
		slog.String("transport", mcpTransport),
		slog.String("port", mcpPort),
	)

	server := mcp.NewServer(&mcp.Implementation{
		Name:    "go_ytsubs",
		Version: version,
	}, nil)

	subserver.RegisterTools(server, subserver.Deps{
		Provider: sources.NewInnertube(),
		History:  store,
	})
	slog.Info("tools registered", slog.Int("count", 2))

	if stdio {
		if err := server.Run(context.Background(), &mcp.StdioTransport{}); err != nil {
			slog.Error("server failed", slog.Any("error", err))
		}
		return
	}

	if err := mcpserver.Run(server, mcpserver.Config{
		Name:         "go_ytsubs",
		Version:      version,
		Port:         mcpPort,
		WriteTimeout: 120 * time.Second,
		Metrics:      engine.FormatMetrics,
	}); err != nil {
		slog.Error("server failed", slog.Any("error", err))
	}
}

func initEngine() {
	c := engine.Config{
		YouTubeBaseURL:       env.Str("YT_BASE_URL", engine.DefaultYouTubeBaseURL),
		YouTubeHL:            env.Str("YT_HL", "en"),
		YouTubeGL:            env.Str("YT_GL", "US"),
		PreferredLangs:       env.List("YT_PREFERRED_LANGS", "en"),
		RateLimit:            env.Float("YT_RATE_LIMIT", 5),
		RateBurst:            env.Int("YT_RATE_BURST", 2),
		FetchTimeout:         env.Duration("FETCH_TIMEOUT", 30*time.Second),
		CacheMaxEntries:      env.Int("CACHE_MAX_ENTRIES", 500),
		CacheCleanupInterval: env.Duration("CACHE_CLEANUP_INTERVAL", 300*time.Second),
		HTTPClient: &http.Client{
			Timeout: 15 * time.Second,
			Transport: &http.Transport{
				MaxIdleConns:        20,
				MaxIdleConnsPerHost: 10,
				IdleConnTimeout:     60 * time.Second,
			},
		},
	}
	var opts []stealth.ClientOption
	opts = append(opts, stealth.WithTimeout(15))

	if apiKey := env.Str("WEBSHARE_API_KEY", ""); apiKey != "" {
		pool, err := proxypool.NewWebshare(apiKey)
		if err != nil {
			slog.Warn("proxy pool init failed, running without proxy", slog.Any("error", err))
		} else {
			opts = append(opts, stealth.WithProxyPool(pool))
			slog.Info("proxy pool initialized", slog.Int("proxies", pool.Len()))
		}
	}

	bc, err := stealth.NewClient(opts...)
	if err != nil {
		slog.Error("stealth client init failed", slog.Any("error", err))
	} else {
		c.BrowserClient = bc
		slog.Info("stealth browser client initialized")
	}

	engine.Init(c)

	cacheTTL := env.Duration("CACHE_TTL", 6*time.Hour)
	engine.InitCache(env.Str("REDIS_URL", ""), cacheTTL, c.CacheMaxEntries, c.CacheCleanupInterval)
}

// openHistory picks the history backend: PostgreSQL when DATABASE_URL is set,
// otherwise SQLite at HISTORY_DB. Returns nil when neither is configured.
func openHistory() history.Store {
	if dsn := env.Str("DATABASE_URL", ""); dsn != "" {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		pg, err := history.ConnectPostgres(ctx, dsn)
		if err != nil {
			slog.Warn("history postgres init failed", slog.Any("error", err))
		} else {
			return pg
		}
	}

	if path := env.Str("HISTORY_DB", ""); path != "" {
		db, err := history.OpenSQLite(path)
		if err != nil {
			slog.Warn("history sqlite init failed", slog.Any("error", err))
			return nil
		}
		slog.Info("history sqlite initialized", slog.String("path", path))
		return db
	}
	return nil
}
