package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"gnosislens-api/internal/analyzer"
	"gnosislens-api/internal/cache"
	"gnosislens-api/internal/config"
	"gnosislens-api/internal/exchangerate"
	"gnosislens-api/internal/handler"
	"gnosislens-api/internal/middleware"
	"gnosislens-api/internal/oracle"
	"gnosislens-api/internal/repository"
	"gnosislens-api/internal/router"
	"gnosislens-api/internal/scheduler"
	"gnosislens-api/internal/service"
	"gnosislens-api/pkg/logger"
)

func main() {
	cfg := config.MustLoad()

	log := logger.New(logger.Config{Level: cfg.Log.Level, Pretty: cfg.Log.Pretty || cfg.App.IsDevelopment()})
	logger.SetGlobalLogger(log)
	log.Info().Str("environment", cfg.App.Environment).Str("version", cfg.App.Version).Msg("Starting GnosisLens API")

	if err := cfg.Validate(); err != nil {
		log.Fatal().Err(err).Msg("Invalid configuration")
	}

	// Purchase store
	store, err := openStore(cfg, log)
	if err != nil {
		log.Fatal().Err(err).Str("type", cfg.Store.NormalizedType()).Msg("Failed to initialize purchase store")
	}
	defer store.Close()

	// Session cache: Redis when reachable, memory otherwise
	sessions := openCache(cfg, log)
	defer sessions.Close()

	// User accounts (optional)
	users := openUsers(cfg, log)

	// Exchange rates
	provider := exchangerate.NewProvider(
		exchangerate.WithFetcher(exchangerate.NewHTTPFetcher(cfg.Rates.APIURL, cfg.Rates.FetchTimeout)),
		exchangerate.WithTTL(cfg.Rates.CacheTTL),
		exchangerate.WithFetchTimeout(cfg.Rates.FetchTimeout),
		exchangerate.WithLogger(log),
	)

	// Oracle clients: strict JSON for analysis, free text for chat
	judge := oracle.NewGeminiClient(cfg.Oracle.BaseURL, cfg.Oracle.APIKey, cfg.Oracle.Model,
		oracle.WithTimeout(cfg.Oracle.Timeout),
		oracle.WithJSONResponse(),
		oracle.WithLogger(log),
	)
	chatter := oracle.NewGeminiClient(cfg.Oracle.BaseURL, cfg.Oracle.APIKey, cfg.Oracle.Model,
		oracle.WithTimeout(cfg.Oracle.Timeout),
		oracle.WithRetries(2, time.Second),
		oracle.WithLogger(log),
	)

	// Services
	purchaseAnalyzer := analyzer.New(judge, provider,
		analyzer.WithOracleTimeout(cfg.Oracle.Timeout),
		analyzer.WithLogger(log),
	)
	scamChecks := service.NewScamCheckService(purchaseAnalyzer, store, cfg.App.PersistTimeout, log)
	analytics := service.NewAnalyticsService(store, sessions, cfg.App.StatsCacheTTL, log)
	chat := service.NewChatService(chatter, log)
	tokens := service.NewTokenService(sessions, cfg.Auth.SessionTTL, log)

	var authHandler *handler.AuthHandler
	if users != nil {
		authHandler = handler.NewAuthHandler(service.NewAuthService(users, tokens, log))
	} else if !cfg.Auth.AllowAnonymous {
		log.Warn().Msg("No user store and anonymous mode is off; authenticated routes only accept existing sessions")
	}

	var adminHandler *handler.AdminHandler
	if cfg.Auth.AdminKey != "" {
		adminHandler = handler.NewAdminHandler(store, provider, sessions.Name(), cfg.Auth.AdminKey)
	}

	// Background jobs
	var jobs *scheduler.Scheduler
	if cfg.Scheduler.Enabled {
		jobs = scheduler.New(log, cfg.Rates.FetchTimeout)
		rateJob := service.NewRateRefreshJob(provider)
		if err := jobs.AddJob(cfg.Scheduler.RateWarmSchedule, rateJob); err != nil {
			log.Fatal().Err(err).Str("schedule", cfg.Scheduler.RateWarmSchedule).Msg("Invalid rate warm-up schedule")
		}
		if err := jobs.AddJob(cfg.Scheduler.StatsWarmSchedule, service.NewStatsWarmJob(analytics)); err != nil {
			log.Fatal().Err(err).Str("schedule", cfg.Scheduler.StatsWarmSchedule).Msg("Invalid stats warm-up schedule")
		}
		go func() {
			if err := jobs.RunNow(rateJob); err != nil {
				log.Warn().Err(err).Msg("Initial rate warm-up failed, serving fallback rates")
			}
		}()
		jobs.Start()
	}

	r := router.New(router.Config{
		Log:            log,
		AllowedOrigins: cfg.Server.AllowedOrigins,
		Handler: handler.New(handler.HealthConfig{
			Service:   cfg.App.Name,
			Version:   cfg.App.Version,
			StoreType: cfg.Store.NormalizedType(),
			CacheName: sessions.Name(),
			Store:     store,
		}),
		ScamCheckHandler: handler.NewScamCheckHandler(scamChecks),
		AnalyticsHandler: handler.NewAnalyticsHandler(analytics),
		PersonaHandler:   handler.NewPersonaHandler(chat),
		RatesHandler:     handler.NewRatesHandler(provider),
		AuthHandler:      authHandler,
		AdminHandler:     adminHandler,
		AuthMiddleware: middleware.NewAuthMiddleware(middleware.AuthConfig{
			Tokens:         tokens,
			AllowAnonymous: cfg.Auth.AllowAnonymous,
		}),
	})

	srv := &http.Server{
		Addr:         cfg.Server.Address(),
		Handler:      r,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	go func() {
		log.Info().Str("addr", cfg.Server.Address()).Msg("Server listening")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("Server error")
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info().Msg("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Error().Err(err).Msg("Server shutdown error")
	}
	if jobs != nil {
		jobs.Stop()
	}

	log.Info().Msg("Server stopped")
}

func openStore(cfg *config.Config, log zerolog.Logger) (repository.PurchaseRepository, error) {
	switch cfg.Store.NormalizedType() {
	case "mongodb":
		return repository.NewMongoDBPurchaseRepository(cfg.Store.MongoURI, cfg.Store.MongoDatabase, log)
	case "postgres":
		return repository.NewPostgresPurchaseRepository(cfg.Store.PostgresDSN(), log)
	default:
		return repository.NewSQLitePurchaseRepository(cfg.Store.Path, log)
	}
}

func openCache(cfg *config.Config, log zerolog.Logger) cache.Cache {
	if cfg.Cache.Type == "redis" {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		redisCache, err := cache.NewRedisCache(ctx, cache.RedisConfig{
			Addr:      cfg.Cache.RedisAddress(),
			Password:  cfg.Cache.RedisPassword,
			DB:        cfg.Cache.RedisDB,
			KeyPrefix: cfg.Cache.KeyPrefix,
		})
		if err == nil {
			log.Info().Str("addr", cfg.Cache.RedisAddress()).Msg("Redis cache initialized")
			return redisCache
		}
		log.Warn().Err(err).Msg("Redis unavailable, falling back to in-memory cache")
	}
	return cache.NewMemoryCache(time.Minute)
}

func openUsers(cfg *config.Config, log zerolog.Logger) repository.UserRepository {
	if !cfg.UserDB.Enabled {
		return nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	db, err := repository.OpenMySQL(ctx, cfg.UserDB.DSN())
	if err != nil {
		log.Warn().Err(err).Msg("MySQL unavailable, account routes disabled")
		return nil
	}

	users := repository.NewMySQLUserRepository(db)
	if err := users.EnsureSchema(ctx); err != nil {
		log.Warn().Err(err).Msg("Failed to prepare users table, account routes disabled")
		db.Close()
		return nil
	}
	log.Info().Msg("MySQL user repository initialized")
	return users
}
