package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/kafelog/kafelog-web/internal/api"
	"github.com/kafelog/kafelog-web/internal/api/handlers"
	"github.com/kafelog/kafelog-web/internal/config"
	"github.com/kafelog/kafelog-web/internal/downstream"
	"github.com/kafelog/kafelog-web/internal/logger"
	"github.com/kafelog/kafelog-web/internal/mail"
	"github.com/kafelog/kafelog-web/internal/queries"
	"github.com/kafelog/kafelog-web/internal/querycache"
	"github.com/kafelog/kafelog-web/internal/supabase"
	"github.com/kafelog/kafelog-web/internal/tracing"
	"github.com/kafelog/kafelog-web/internal/waitlist"
	"github.com/kafelog/kafelog-web/internal/web"
)

func main() {
	// 1. Config and logger
	cfg := config.Load()
	logger.Init()
	log := logger.Log

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	tp, err := tracing.Init(ctx, tracing.Config{
		ServiceVersion: cfg.Version,
		OTLPEndpoint:   cfg.OTelEndpoint,
		Enabled:        cfg.OTelEnabled,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize tracing")
	}

	// 2. Optional Redis for the query cache and rate limits
	var rdb *redis.Client
	if cfg.RedisURL != "" {
		opts, err := redis.ParseURL(cfg.RedisURL)
		if err != nil {
			log.Fatal().Err(err).Msg("invalid REDIS_URL")
		}
		rdb = redis.NewClient(opts)
		if err := rdb.Ping(ctx).Err(); err != nil {
			log.Warn().Err(err).Msg("redis unreachable at startup")
		}
	}

	var store querycache.Store
	if rdb != nil {
		store = querycache.NewRedisStore(rdb)
	} else {
		store = querycache.NewMemoryStore(cfg.Cache.MaxEntries, querycache.NewLRU())
	}
	cache := querycache.New(store, querycache.Options{
		GCTime:     cfg.Cache.GCTime,
		Retry:      cfg.Cache.Retry,
		RetryDelay: cfg.Cache.RetryDelay,
	})

	// 3. Downstream API
	apiOpts := downstream.Options{
		BaseURL:       cfg.APIBaseURL,
		Timeout:       cfg.APITimeout,
		SlowThreshold: cfg.APISlowThreshold,
	}
	public := downstream.NewPublicClient(apiOpts)
	authed := downstream.NewAuthClient(apiOpts, nil)
	q := queries.New(cache,
		downstream.NewBusinessesAPI(authed),
		downstream.NewCampaignsAPI(public),
		downstream.NewEventsAPI(public),
	)

	// 4. Mail and waitlist
	sender, err := mail.NewSender(cfg.Mail)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize mail sender")
	}
	wl := waitlist.NewService(sender, cfg.Waitlist)

	// 5. Handlers and router
	views, err := web.New()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to parse templates")
	}
	auth := supabase.New(cfg.SupabaseURL, cfg.SupabaseAnonKey, nil)
	if !auth.Configured() {
		log.Warn().Msg("supabase is not configured; sign-in is disabled")
	}

	checkers := []handlers.ReadinessChecker{
		handlers.NewHTTPReadinessChecker("kafelog-api", cfg.APIBaseURL+cfg.APIHealthPath),
		handlers.NewFuncChecker("mail", sender.CheckHealth),
	}
	deps := api.Deps{
		Pages:    handlers.NewPageHandler(views, q, wl),
		Auth:     handlers.NewAuthHandler(views, auth, cfg.SessionCookieSecure),
		Cafes:    handlers.NewCafeHandler(q),
		Waitlist: handlers.NewWaitlistHandler(wl),
	}
	if rdb != nil {
		checkers = append(checkers, handlers.NewRedisChecker(rdb))
		deps.Redis = rdb
	}
	deps.Readiness = handlers.NewReadinessHandler(checkers...)

	router, err := api.NewRouter(cfg, deps)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to build router")
	}

	// 6. Serve until signalled
	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		log.Info().Str("port", cfg.Port).Str("mail", sender.ProviderName()).Msg("kafelog-web starting")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("server failed")
		}
	}()

	<-ctx.Done()
	log.Info().Msg("shutting down...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("error shutting down http server")
	}
	if err := sender.Close(); err != nil {
		log.Error().Err(err).Msg("error closing mail sender")
	}
	if rdb != nil {
		if err := rdb.Close(); err != nil {
			log.Error().Err(err).Msg("error closing redis client")
		}
	}
	if err := tp.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("error shutting down tracer")
	}

	log.Info().Msg("shutdown complete")
}
