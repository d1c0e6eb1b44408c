package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"example.com/mergington/internal/api"
	"example.com/mergington/internal/config"
	"example.com/mergington/internal/directory"
	"example.com/mergington/internal/domain"
	"example.com/mergington/internal/logging"
	"example.com/mergington/internal/outbox"
	httptransport "example.com/mergington/internal/transport/http"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logger, err := logging.New(cfg.LogLevel)
	if err != nil {
		log.Fatalf("failed to build logger: %v", err)
	}
	defer func() { _ = logger.Sync() }()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	repo := directory.NewInMemoryRepository(directory.Seed())

	var (
		publisher  domain.EventPublisher = outbox.LogPublisher{Logger: logger.Named("events")}
		dispatcher *outbox.Dispatcher
	)
	if cfg.EventsEnabled() {
		producer := outbox.NewKafkaProducer(cfg.KafkaBrokers)
		defer producer.Close()

		queue := outbox.NewQueue(cfg.OutboxCapacity)
		dispatcher = outbox.NewDispatcher(queue, producer, outbox.DispatcherConfig{
			Topic:        cfg.EventsTopic,
			PollInterval: cfg.OutboxPollInterval,
			BatchSize:    cfg.OutboxBatchSize,
		}, logger.Named("outbox"))
		publisher = queue

		go dispatcher.Start(ctx)
		logger.Info("publishing participation events to kafka",
			zap.Strings("brokers", cfg.KafkaBrokers),
			zap.String("topic", cfg.EventsTopic),
		)
	}

	service := domain.NewService(repo,
		domain.WithPublisher(publisher),
		domain.WithLogger(logger.Named("directory")),
		domain.WithCapacityEnforcement(cfg.EnforceCapacity),
	)

	handler := api.NewHandler(service, logger.Named("api"))
	router := api.NewRouter(handler, api.RouterConfig{
		StaticDir:     cfg.StaticDir,
		AllowedOrigin: cfg.CORSAllowedOrigin,
		Logger:        logger.Named("access"),
	})

	server := httptransport.NewServer(httptransport.ServerConfig{
		Address:      cfg.HTTPAddress,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
		IdleTimeout:  cfg.IdleTimeout,
	}, router, logger)

	shutdownCh := make(chan os.Signal, 1)
	signal.Notify(shutdownCh, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		logger.Info("activities api listening", zap.String("address", cfg.HTTPAddress))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("server error", zap.Error(err))
		}
	}()

	<-shutdownCh
	logger.Info("shutting down")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown failed", zap.Error(err))
	}

	// Stop the dispatcher only after in-flight requests have published.
	cancel()
	if dispatcher != nil {
		dispatcher.Wait()
	}
}
