package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"storefront/cache"
	"storefront/config"
	"storefront/handlers"
	"storefront/jobs"
	"storefront/jwt"
	"storefront/mailer"
	"storefront/metrics"
	"storefront/middleware"
	"storefront/oauth"
	"storefront/payments"
	"storefront/queue"
	"storefront/ratelimit"
	"storefront/repository"
	"storefront/routers"
)

func main() {
	configFile := os.Getenv("CONFIG_FILE")
	if configFile == "" {
		configFile = "config/config.yaml"
	}
	cfg, err := config.LoadConfig(configFile)
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	log, err := config.NewLogger(cfg.Env)
	if err != nil {
		panic("failed to build logger: " + err.Error())
	}
	defer log.Sync()

	if cfg.Auth.JWTSecret == "" {
		cfg.Auth.JWTSecret = uuid.NewString()
		log.Warn("JWT_SECRET not set, using a random secret; sessions end on restart")
	}

	db, err := config.SetupDatabase(cfg.Database, log)
	if err != nil {
		log.Fatal("failed to connect to database", zap.Error(err))
	}
	defer func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	}()
	if err := repository.NewSettingRepository(db).SeedDefaults(context.Background()); err != nil {
		log.Fatal("failed to seed settings", zap.Error(err))
	}

	var rdb *redis.Client
	if cfg.Cache.Backend == config.BackendRedis || cfg.RateLimit.Backend == config.BackendRedis {
		rdb, err = config.SetupRedisConnection(cfg.Redis)
		if err != nil {
			log.Fatal("failed to connect to redis", zap.String("addr", cfg.Redis.Addr), zap.Error(err))
		}
		defer rdb.Close()
	}

	var store cache.Store = cache.NewBoundedMemoryStore(cfg.Cache.MaxEntries)
	if cfg.Cache.Backend == config.BackendRedis {
		store = cache.NewRedisStore(rdb)
	}
	var limiter ratelimit.Limiter = ratelimit.NewMemoryLimiter()
	if cfg.RateLimit.Backend == config.BackendRedis {
		limiter = ratelimit.NewRedisLimiter(rdb)
	}

	events := queue.NewNoop()
	if cfg.RabbitMQ.URL != "" {
		events, err = queue.NewRabbit(cfg.RabbitMQ.URL, cfg.RabbitMQ.Exchange)
		if err != nil {
			log.Fatal("failed to connect to rabbitmq", zap.Error(err))
		}
	}
	defer events.Close()

	var mail mailer.Mailer = mailer.NewLogMailer(log)
	if cfg.SMTP.Enabled() {
		mail = mailer.NewSMTPMailer(cfg.SMTP.Host, cfg.SMTP.Port, cfg.SMTP.Username, cfg.SMTP.Password, cfg.SMTP.From)
	}

	var providers []oauth.Provider
	if p := cfg.OAuth.Google; p.Enabled() {
		providers = append(providers, oauth.NewGoogle(p.ClientID, p.ClientSecret, p.CallbackURL))
	}
	if p := cfg.OAuth.Facebook; p.Enabled() {
		providers = append(providers, oauth.NewFacebook(p.ClientID, p.ClientSecret, p.CallbackURL))
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	metrics.MustRegister(reg)

	tokens := jwt.NewManager(cfg.Auth.JWTSecret)
	h := handlers.New(handlers.Deps{
		Config:    cfg,
		DB:        db,
		Tokens:    tokens,
		States:    oauth.NewStateSigner(cfg.Auth.JWTSecret),
		Providers: providers,
		Paystack:  payments.NewClient(cfg.Paystack.SecretKey, cfg.Paystack.BaseURL, cfg.Paystack.Timeout),
		Mailer:    mail,
		Events:    events,
		Log:       log,
	})
	router := routers.SetupRouters(routers.Deps{
		Config:  cfg,
		Handler: h,
		Auth:    middleware.NewAuth(tokens, h.Users(), log),
		Cache:   store,
		Limiter: limiter,
		Metrics: reg,
		Log:     log,
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go jobs.NewCleanup(h.Users(), cfg.Jobs.CleanupInterval, log).Run(ctx)

	srv := &http.Server{
		Addr:              ":" + cfg.Server.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		log.Info("server listening", zap.String("addr", srv.Addr), zap.String("env", cfg.Env))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("server failed", zap.Error(err))
		}
	}()

	<-ctx.Done()
	log.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("graceful shutdown failed", zap.Error(err))
	}
}
