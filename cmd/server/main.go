package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/streadway/amqp"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/outreachhq/campaignd/internal/audit"
	"github.com/outreachhq/campaignd/internal/backend"
	"github.com/outreachhq/campaignd/internal/cache"
	"github.com/outreachhq/campaignd/internal/config"
	"github.com/outreachhq/campaignd/internal/handler"
	"github.com/outreachhq/campaignd/internal/queue"
	"github.com/outreachhq/campaignd/internal/service"
)

func main() {
	// No .env file is fine; the OS environment still applies.
	_ = godotenv.Load()

	ctx := context.Background()
	cfg, err := config.Load(ctx)
	if err != nil {
		panic(err)
	}

	log := newLogger(cfg.App)
	defer func() { _ = log.Sync() }()

	client := backend.New(
		cfg.Backend.BaseURL,
		cfg.Backend.APIKey,
		backend.WithTimeout(time.Duration(cfg.Backend.TimeoutSeconds)*time.Second),
		backend.WithRateLimit(cfg.Backend.RateLimitRPS, cfg.Backend.RateLimitBurst),
		backend.WithLogger(log.Named("backend")),
	)

	svc := &service.CampaignService{
		Backend: client,
		Log:     log.Named("lifecycle"),
		Policy: service.Policy{
			SuppressManualStartErrors: cfg.App.SuppressManualStartErrors,
		},
	}

	if rdb, err := cache.NewClient(cache.Config{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	}); err != nil {
		log.Warn("redis unavailable, query cache disabled", zap.Error(err))
	} else {
		defer func() { _ = rdb.Close() }()
		svc.Cache = cache.NewStore(rdb, time.Duration(cfg.Redis.TTLSeconds)*time.Second)
		log.Info("query cache connected", zap.String("addr", cfg.Redis.Addr))
	}

	svc.Publisher = newPublisher(cfg.AMQP.URL, log)

	var auditStore *audit.Store
	if cfg.Audit.DSN != "" {
		auditStore, err = audit.Open(cfg.Audit.DSN)
		if err != nil {
			log.Fatal("audit database unavailable", zap.Error(err))
		}
		defer func() { _ = auditStore.Close() }()
		svc.Auditor = auditStore
		log.Info("audit trail enabled")
	} else {
		svc.Auditor = audit.Nop{}
	}

	h := handler.New(svc, log.Named("http"))
	if auditStore != nil {
		h.Audit = auditStore
	}
	r := chi.NewRouter()
	r.Handle("/metrics", promhttp.Handler())
	r.Mount("/", h.Routes())

	srv := &http.Server{
		Addr:         cfg.Server.Addr(),
		Handler:      r,
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
	}

	go func() {
		log.Info("campaignd listening", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("server failed", zap.Error(err))
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("shutdown failed", zap.Error(err))
	}
	log.Info("campaignd stopped")
}

// newPublisher connects to the lifecycle-event broker, falling back to the
// in-memory publisher when no broker is reachable so local runs still work.
func newPublisher(url string, log *zap.Logger) queue.Publisher {
	if url == "" {
		return queue.NewMemoryPublisher()
	}
	conn, err := amqp.Dial(url)
	if err != nil {
		log.Warn("amqp unavailable, lifecycle events stay in memory", zap.Error(err))
		return queue.NewMemoryPublisher()
	}
	pub, err := queue.NewAMQPPublisher(conn)
	if err != nil {
		log.Warn("amqp channel failed, lifecycle events stay in memory", zap.Error(err))
		return queue.NewMemoryPublisher()
	}
	log.Info("lifecycle event publisher connected")
	return pub
}

func newLogger(app config.AppConfig) *zap.Logger {
	var cfg zap.Config
	if app.IsProduction() {
		cfg = zap.NewProductionConfig()
	} else {
		cfg = zap.NewDevelopmentConfig()
	}
	if level, err := zapcore.ParseLevel(app.LogLevel); err == nil {
		cfg.Level = zap.NewAtomicLevelAt(level)
	}
	log, err := cfg.Build()
	if err != nil {
		panic(err)
	}
	return log
}
