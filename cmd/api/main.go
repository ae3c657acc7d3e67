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

	"calldata-platform/internal/aggregator"
	"calldata-platform/internal/audit"
	"calldata-platform/internal/auth"
	"calldata-platform/internal/cache"
	"calldata-platform/internal/config"
	"calldata-platform/internal/httpapi"
	"calldata-platform/internal/ingest"
	"calldata-platform/internal/reporting"
	"calldata-platform/internal/sheets"
	"calldata-platform/internal/sources"
	"calldata-platform/internal/tenants"
	"calldata-platform/internal/voiceagent"
	"calldata-platform/pkg/logger"
	"calldata-platform/pkg/utils"

	"github.com/gin-gonic/gin"
	"github.com/hibiken/asynq"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/redis/go-redis/v9"
)

func main() {
	// Root context that cancels on shutdown
	rootCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("config load failed", "err", err)
		os.Exit(1)
	}

	log := logger.New(cfg.App.Env)
	slog.SetDefault(log)

	if cfg.App.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	authManager, err := auth.NewManager(cfg.Auth)
	if err != nil {
		log.Error("auth init failed", "err", err)
		os.Exit(1)
	}

	db, err := utils.OpenPostgres(rootCtx, "pgx", cfg.PostgresDSN(), utils.PostgresPoolConfig{
		MaxOpenConns:    cfg.DB.MaxOpenConns,
		MaxIdleConns:    cfg.DB.MaxIdleConns,
		ConnectAttempts: cfg.DB.ConnectAttempts,
	})
	if err != nil {
		log.Error("postgres init failed", "err", err)
		os.Exit(1)
	}
	defer db.Close()

	rdb, err := utils.OpenRedis(rootCtx, utils.RedisConfig{Addr: cfg.RedisAddr()})
	if err != nil {
		log.Error("redis init failed", "err", err)
		os.Exit(1)
	}
	defer rdb.Close()

	records, events, err := openSources(rootCtx, cfg, log)
	if err != nil {
		log.Error("source init failed", "err", err)
		os.Exit(1)
	}

	store := openCache(cfg, rdb)
	registry := tenants.NewPostgresRegistry(db, cfg.Phone.DefaultRegion)
	auditSvc := audit.NewService(audit.NewPostgresRepo(db))

	agg := aggregator.New(records, events, store)
	agg.Policy = sources.Policy{Timeout: cfg.Sources.Timeout, Retries: cfg.Sources.Retries, Backoff: 100 * time.Millisecond}
	agg.MaxAge = cfg.Cache.MaxAge
	agg.Savings = reporting.SavingsRate{MinorPerHour: cfg.Savings.MinorPerHour, Currency: cfg.Savings.Currency}
	agg.PhoneRegion = cfg.Phone.DefaultRegion

	forwarder := ingest.NewQueueForwarder(asynq.RedisClientOpt{Addr: cfg.RedisAddr()}, cfg.Webhook.Queue)
	defer forwarder.Close()

	h := &httpapi.Handlers{
		Auth:    authManager,
		Tenants: registry,
		Fetcher: agg,
		Ingester: &ingest.Ingestor{
			Registry:    registry,
			Cache:       store,
			Forwarder:   forwarder,
			Audit:       auditSvc,
			PhoneRegion: cfg.Phone.DefaultRegion,
		},
		Cache:               store,
		Audit:               auditSvc,
		FallbackToSynthetic: cfg.Sources.SyntheticFallback,
	}

	// Gin router
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(logger.Middleware(log))
	if mw := httpapi.CORS(cfg.App.CORSOrigins); mw != nil {
		r.Use(mw)
	}

	registerRoutes(r, h, auth.RequireAccessToken(authManager), cfg.IsProduction())

	srv := &http.Server{
		Addr:              cfg.HTTPAddr(),
		Handler:           r,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		log.Info("api listening", "addr", srv.Addr, "env", cfg.App.Env, "cache_backend", cfg.Cache.Backend)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("http server failed", "err", err)
			stop()
		}
	}()

	<-rootCtx.Done()
	log.Info("shutdown initiated")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 20*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("http shutdown failed", "err", err)
	}
}

// openSources builds the provider adapters. An adapter without config stays nil, and
// tenants with that handle then report the source as unavailable.
func openSources(ctx context.Context, cfg config.Config, log *slog.Logger) (sources.RecordSource, sources.EventSource, error) {
	var (
		records sources.RecordSource
		events  sources.EventSource
	)

	if cfg.Sheets.APIKey != "" {
		s, err := sheets.New(ctx, sheets.Config{
			APIKey:      cfg.Sheets.APIKey,
			Endpoint:    cfg.Sheets.Endpoint,
			PhoneRegion: cfg.Phone.DefaultRegion,
		})
		if err != nil {
			return nil, nil, err
		}
		records = s
	} else {
		log.Warn("SHEETS_API_KEY not set, record source disabled")
	}

	if cfg.VoiceAgent.BaseURL != "" {
		c, err := voiceagent.NewClient(voiceagent.Config{
			BaseURL:       cfg.VoiceAgent.BaseURL,
			APIKey:        cfg.VoiceAgent.APIKey,
			Credentials:   cfg.VoiceAgent.Credentials,
			RatePerSecond: cfg.VoiceAgent.RateLimit,
			Burst:         cfg.VoiceAgent.Burst,
			PhoneRegion:   cfg.Phone.DefaultRegion,
		})
		if err != nil {
			return nil, nil, err
		}
		events = c
	} else {
		log.Warn("VOICE_AGENT_BASE_URL not set, event source disabled")
	}

	return records, events, nil
}

func openCache(cfg config.Config, rdb *redis.Client) cache.Store {
	if cfg.Cache.Backend == "redis" {
		return cache.NewRedisStore(rdb)
	}
	return cache.NewMemoryStore(cfg.Cache.Shards)
}
