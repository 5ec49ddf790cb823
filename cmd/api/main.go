package main

import (
	"context"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"velorent/internal/api"
	"velorent/internal/auth"
	"velorent/internal/config"
	"velorent/internal/database"
	"velorent/internal/document"
	"velorent/internal/domain"
	"velorent/internal/events"
	"velorent/internal/google"
	"velorent/internal/logging"
	"velorent/internal/metrics"
	"velorent/internal/notify"
	"velorent/internal/payment"
	"velorent/internal/repository"
	"velorent/internal/service"
	"velorent/internal/worker"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

func main() {
	if err := run(); err != nil {
		log.Fatalf("Fatal error: %v", err)
	}
}

func run() error {
	cfg, logger, closer, err := loadConfigAndLogger()
	if err != nil {
		return err
	}
	if closer != nil {
		defer (func() { _ = closer.Close() })()
	}

	db, err := initDatabase(cfg, &logger)
	if err != nil {
		return err
	}
	defer db.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if _, err := seedCatalog(ctx, db, cfg.Catalog.SeedPath, &logger); err != nil {
		logger.Error().Err(err).Msg("catalog seed failed")
		return err
	}

	redisClient := initRedis(ctx, cfg, &logger)
	if redisClient != nil {
		defer func() { _ = repository.Close(redisClient) }()
	}

	gateway, err := payment.NewOmiseGateway(cfg.Payment.PublicKey, cfg.Payment.SecretKey)
	if err != nil {
		logger.Error().Err(err).Msg("init payment gateway")
		return err
	}

	bus := events.NewEventBus()
	metrics.Attach(bus)
	if forwarder := initAMQP(cfg, bus, &logger); forwarder != nil {
		defer func() { _ = forwarder.Close() }()
	}
	startNotifier(ctx, cfg, bus, &logger)

	// A nil *SheetsWorker must not reach the services as a non-nil interface.
	var syncWorker domain.SyncWorker
	if sheetsWorker := initSheetsWorker(ctx, cfg, db, redisClient, &logger); sheetsWorker != nil {
		go sheetsWorker.Start(ctx)
		syncWorker = sheetsWorker
	}

	deps := buildServices(cfg, db, gateway, newAttemptStore(cfg, redisClient, &logger), bus, syncWorker, &logger)

	reconciler := worker.NewReconcileWorker(db, deps.Payments,
		worker.RetryPolicy{InitialDelay: 5 * time.Second, BackoffFactor: 2},
		logging.Component(&logger, "reconcile-worker"))
	go reconciler.Start(ctx)

	if cfg.Backup.Enabled {
		backupService := database.NewBackupService(db, cfg.Backup, logging.Component(&logger, "backup"))
		go backupService.Start(ctx)
	}

	startMetrics(ctx, cfg, &logger)

	httpServer := api.NewHTTPServer(cfg, deps, &logger)
	return serve(ctx, httpServer, cfg, &logger)
}

func loadConfigAndLogger() (*config.Config, zerolog.Logger, io.Closer, error) {
	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		configPath = "configs/config.yaml"
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, zerolog.Logger{}, nil, fmt.Errorf("load config: %w", err)
	}

	baseLogger, closer, err := logging.New(cfg.Logging, cfg.App)
	if err != nil {
		return nil, zerolog.Logger{}, nil, fmt.Errorf("init logger: %w", err)
	}
	logger := baseLogger.With().Str("component", "api-main").Logger()

	return cfg, logger, closer, nil
}

func initDatabase(cfg *config.Config, logger *zerolog.Logger) (*database.DB, error) {
	if err := os.MkdirAll(filepath.Dir(cfg.Database.Path), 0o755); err != nil {
		logger.Error().Err(err).Msg("create database directory")
		return nil, err
	}
	db, err := database.Open(cfg.Database.Path, database.Options{BusyTimeoutMS: cfg.Database.BusyTimeout}, logging.Component(logger, "database"))
	if err != nil {
		logger.Error().Err(err).Str("db_path", cfg.Database.Path).Msg("init database")
		return nil, err
	}
	return db, nil
}

func initRedis(ctx context.Context, cfg *config.Config, logger *zerolog.Logger) *redis.Client {
	if cfg.Redis.Address == "" {
		return nil
	}

	client := repository.NewRedisClient(cfg.Redis)
	if err := repository.Ping(ctx, client); err != nil {
		logger.Warn().Err(err).Msg("redis connection failed, idempotency keys fall back to memory")
		return client
	}
	logger.Info().Str("addr", cfg.Redis.Address).Msg("redis connected")
	return client
}

func newAttemptStore(cfg *config.Config, client *redis.Client, logger *zerolog.Logger) domain.AttemptStore {
	ttl := time.Duration(cfg.Payment.IdempotencyTTLHours) * time.Hour
	memory := repository.NewMemoryAttemptRepository(ttl)
	if client == nil {
		return memory
	}
	return repository.NewFailoverAttemptRepository(
		repository.NewRedisAttemptRepository(client, ttl),
		memory,
		logging.Component(logger, "attempt-store"),
	)
}

func initAMQP(cfg *config.Config, bus *events.EventBus, logger *zerolog.Logger) *events.AMQPForwarder {
	if cfg.AMQP.URL == "" {
		return nil
	}
	forwarder, err := events.DialAMQP(cfg.AMQP.URL, cfg.AMQP.Exchange, logging.Component(logger, "amqp"))
	if err != nil {
		logger.Warn().Err(err).Msg("rabbitmq unavailable, events stay in-process")
		return nil
	}
	forwarder.Attach(bus)
	logger.Info().Str("exchange", cfg.AMQP.Exchange).Msg("forwarding events to rabbitmq")
	return forwarder
}

func startNotifier(ctx context.Context, cfg *config.Config, bus *events.EventBus, logger *zerolog.Logger) {
	if cfg.Telegram.BotToken == "" || len(cfg.Telegram.Managers) == 0 {
		return
	}
	bot, err := notify.NewBotSender(cfg.Telegram.BotToken)
	if err != nil {
		logger.Warn().Err(err).Msg("telegram bot unavailable, manager notifications disabled")
		return
	}
	notifier := notify.NewTelegramNotifier(bot, cfg.Telegram.Managers, logger)
	notifier.Attach(bus)
	go notifier.Run(ctx)
	logger.Info().Str("bot", bot.Self.UserName).Int("managers", len(cfg.Telegram.Managers)).Msg("telegram notifications enabled")
}

func initSheetsWorker(ctx context.Context, cfg *config.Config, db *database.DB, client *redis.Client, logger *zerolog.Logger) *worker.SheetsWorker {
	if cfg.Google.GoogleCredentialsFile == "" || cfg.Google.BookingSpreadSheetID == "" {
		return nil
	}

	sheets, err := google.NewSheetsService(ctx, cfg.Google.GoogleCredentialsFile, cfg.Google.BookingSpreadSheetID)
	if err != nil {
		logger.Warn().Err(err).Msg("google sheets init failed, continuing without sheets")
		return nil
	}
	if err := sheets.TestConnection(ctx); err != nil {
		logger.Warn().Err(err).Msg("google sheets connection test failed, continuing without sheets")
		return nil
	}
	if err := sheets.WarmUpCache(ctx); err != nil {
		logger.Warn().Err(err).Msg("google sheets cache warm-up failed")
	}

	logger.Info().Msg("google sheets connected")
	retry := worker.RetryPolicy{MaxRetries: 5, InitialDelay: 2 * time.Second, MaxDelay: time.Minute, BackoffFactor: 2}
	return worker.NewSheetsWorker(db, sheets, client, retry, logging.Component(logger, "sheets-worker"))
}

func buildServices(
	cfg *config.Config,
	db *database.DB,
	gateway payment.Gateway,
	attempts domain.AttemptStore,
	bus *events.EventBus,
	syncWorker domain.SyncWorker,
	logger *zerolog.Logger,
) api.Deps {
	bookings := service.NewBookingService(db, bus, syncWorker, service.BookingRules{
		MaxDays:        cfg.Booking.MaxDays,
		MaxAdvanceDays: cfg.Booking.MaxAdvanceDays,
	}, logging.Component(logger, "booking-service"))

	payments := service.NewPaymentService(db, gateway, attempts, bus, syncWorker,
		service.PaymentConfig{Currency: cfg.Payment.Currency},
		logging.Component(logger, "payment-service"))

	agreements := service.NewAgreementService(db, document.NewAgreementRenderer(cfg.App.Name),
		cfg.Agreements.Dir, cfg.Agreements.BaseURL, logging.Component(logger, "agreement-service"))
	bus.Subscribe(events.EventBookingCompleted, agreements.HandleBookingCompleted)

	return api.Deps{
		Products:   service.NewProductService(db, logging.Component(logger, "product-service")),
		Bookings:   bookings,
		Payments:   payments,
		Agreements: agreements,
		Feedback:   service.NewFeedbackService(db, bus, logging.Component(logger, "feedback-service")),
		Reports:    service.NewReportService(db),
		Store:      db,
		Verifier:   auth.NewVerifier(cfg.Auth.JWTSecret, cfg.Auth.JWTIssuer),
	}
}

func startMetrics(ctx context.Context, cfg *config.Config, logger *zerolog.Logger) {
	if !cfg.Monitoring.PrometheusEnabled {
		return
	}
	metrics.Register()
	go startMetricsServer(ctx, cfg.Monitoring.PrometheusPort, logger)
}

func startMetricsServer(ctx context.Context, port int, logger *zerolog.Logger) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", metrics.Handler())

	srv := &http.Server{Addr: fmt.Sprintf(":%d", port), Handler: mux, ReadHeaderTimeout: 5 * time.Second}
	go func() {
		<-ctx.Done()
		ctxShutdown, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		defer cancel()
		_ = srv.Shutdown(ctxShutdown)
	}()
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Error().Err(err).Msg("metrics server error")
	}
}

func serve(ctx context.Context, httpServer *api.HTTPServer, cfg *config.Config, logger *zerolog.Logger) error {
	errCh := make(chan error, 1)
	go func() {
		errCh <- httpServer.Start()
	}()

	logger.Info().Int("http_port", cfg.HTTP.Port).Msg("API server started")

	select {
	case err := <-errCh:
		if err != nil {
			logger.Error().Err(err).Msg("http server stopped")
			return err
		}
	case <-ctx.Done():
		logger.Info().Msg("shutdown signal received")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("http shutdown")
	}

	logger.Info().Msg("API server stopped")
	return nil
}
