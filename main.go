// go_moments — video moments MCP server.
//
// Users vote on moments of web videos; for YouTube the server harvests the
// caption track once per video per login session and uploads normalized
// transcript segments to the backend.
// Runs as HTTP MCP server or stdio transport.
package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/anatolykoptev/go-kit/env"
	"github.com/anatolykoptev/go-kit/llm"
	"github.com/anatolykoptev/go-mcpserver"
	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/redis/go-redis/v9"

	"github.com/anatolykoptev/go_moments/internal/auth"
	"github.com/anatolykoptev/go_moments/internal/backend"
	"github.com/anatolykoptev/go_moments/internal/captions"
	"github.com/anatolykoptev/go_moments/internal/engine"
	"github.com/anatolykoptev/go_moments/internal/ingest"
	"github.com/anatolykoptev/go_moments/internal/momentserver"
	"github.com/anatolykoptev/go_moments/internal/session"
	"github.com/anatolykoptev/go_moments/internal/transcript"
)

var (
	version = "dev"
	mcpPort = env.Str("MCP_PORT", "8893")
)

func main() {
	initLogger()
	c := initEngine()
	ctx := context.Background()

	slog.Info("starting go_moments",
		slog.String("port", mcpPort),
		slog.String("preferred_lang", c.PreferredLang),
	)

	rdb := connectRedis(ctx, c.RedisURL)
	engine.InitCache(rdb, c.CacheTTL, c.CacheMaxEntries, c.CacheCleanupInterval)

	store, closeStore := openSessionStore(rdb, c)
	defer closeStore()

	be, closeBackend := openBackend(ctx, c)
	defer closeBackend()

	sess := auth.NewSession(env.Str("AUTH_TOKEN", ""), store)
	fetcher := transcript.NewHTTPFetcher(c.HTTPClient, "", c.CaptionRPS, c.CaptionBurst)
	coord := ingest.NewCoordinator(store, be, transcript.NewEngine(fetcher), sess)

	srv := momentserver.New(momentserver.Deps{
		Backend:     be,
		Coordinator: coord,
		Session:     sess,
		Store:       store,
		Locator:     captions.NewLocator(),
		Fetcher:     fetcher,
	})

	server := mcp.NewServer(&mcp.Implementation{
		Name:    "go_moments",
		Version: version,
	}, nil)
	srv.RegisterTools(server)
	slog.Info("tools registered", slog.Int("count", 10))

	if err := mcpserver.Run(server, mcpserver.Config{
		Name:         "go_moments",
		Version:      version,
		Port:         mcpPort,
		WriteTimeout: 300 * time.Second,
		Metrics:      engine.FormatMetrics,
	}); err != nil {
		slog.Error("server failed", slog.Any("error", err))
	}
	srv.Wait()
}

func initLogger() {
	var level slog.Level
	if err := level.UnmarshalText([]byte(env.Str("LOG_LEVEL", "info"))); err != nil {
		level = slog.LevelInfo
	}
	slog.SetDefault(slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: level})))
}

func initEngine() engine.Config {
	c := engine.Config{
		BackendURL:           env.Str("BACKEND_URL", ""),
		DatabaseURL:          env.Str("DATABASE_URL", ""),
		RedisURL:             env.Str("REDIS_URL", ""),
		SessionDBPath:        env.Str("SESSION_DB_PATH", ""),
		SessionTTL:           env.Duration("SESSION_TTL", 30*24*time.Hour),
		PreferredLang:        env.Str("PREFERRED_LANG", "en"),
		FetchTimeout:         env.Duration("FETCH_TIMEOUT", 10*time.Second),
		CaptionRPS:           env.Float("CAPTION_RPS", 1),
		CaptionBurst:         env.Int("CAPTION_BURST", 2),
		MaxPageBytes:         int64(env.Int("MAX_PAGE_BYTES", 6*1024*1024)),
		LLMAPIKey:            env.Str("LLM_API_KEY", ""),
		LLMAPIKeyFallbacks:   env.List("LLM_API_KEY_FALLBACKS", ""),
		LLMAPIBase:           env.Str("LLM_API_BASE", "https://generativelanguage.googleapis.com/v1beta/openai"),
		LLMModel:             env.Str("LLM_MODEL", "gemini-2.5-flash"),
		LLMTemperature:       env.Float("LLM_TEMPERATURE", 0.3),
		LLMMaxTokens:         env.Int("LLM_MAX_TOKENS", 2048),
		CacheTTL:             env.Duration("CACHE_TTL", 15*time.Minute),
		CacheMaxEntries:      env.Int("CACHE_MAX_ENTRIES", 1000),
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

	if c.LLMAPIKey != "" {
		c.LLMClient = llm.NewClient(c.LLMAPIBase, c.LLMAPIKey, c.LLMModel,
			llm.WithFallbackKeys(c.LLMAPIKeyFallbacks),
			llm.WithMaxTokens(c.LLMMaxTokens),
			llm.WithTemperature(c.LLMTemperature),
			llm.WithHTTPClient(&http.Client{Timeout: 60 * time.Second}),
		)
	} else {
		slog.Info("LLM_API_KEY not set, moment_explain disabled")
	}

	engine.Init(c)
	return *engine.Cfg
}

// connectRedis returns nil when REDIS_URL is empty or unreachable.
func connectRedis(ctx context.Context, redisURL string) *redis.Client {
	if redisURL == "" {
		return nil
	}
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		slog.Warn("invalid REDIS_URL, running without redis", slog.Any("error", err))
		return nil
	}
	rdb := redis.NewClient(opts)
	pingCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	if err := rdb.Ping(pingCtx).Err(); err != nil {
		slog.Warn("redis unreachable, running without redis", slog.Any("error", err))
		_ = rdb.Close()
		return nil
	}
	slog.Info("redis connected", slog.String("addr", opts.Addr))
	return rdb
}

// openSessionStore picks redis, then sqlite, then process memory.
func openSessionStore(rdb *redis.Client, c engine.Config) (session.Store, func()) {
	if rdb != nil {
		slog.Info("session store: redis")
		return session.NewRedisStore(rdb, "gm", c.SessionTTL), func() {}
	}
	if c.SessionDBPath != "" {
		st, err := session.OpenSQLiteStore(c.SessionDBPath)
		if err == nil {
			slog.Info("session store: sqlite", slog.String("path", c.SessionDBPath))
			return st, func() { _ = st.Close() }
		}
		slog.Warn("sqlite session store failed, using memory", slog.Any("error", err))
	}
	slog.Info("session store: memory")
	return session.NewMemoryStore(), func() {}
}

// openBackend prefers the remote API; DATABASE_URL makes this process the backend.
func openBackend(ctx context.Context, c engine.Config) (backend.Client, func()) {
	if c.BackendURL != "" {
		slog.Info("backend: http", slog.String("url", strings.TrimRight(c.BackendURL, "/")))
		return backend.NewHTTPClient(c.BackendURL, c.HTTPClient), func() {}
	}
	if c.DatabaseURL != "" {
		pg, err := backend.ConnectPostgres(ctx, c.DatabaseURL)
		if err == nil {
			return pg, pg.Close
		}
		slog.Error("postgres backend init failed", slog.Any("error", err))
		os.Exit(1)
	}
	slog.Error("either BACKEND_URL or DATABASE_URL is required")
	os.Exit(1)
	return nil, nil
}
