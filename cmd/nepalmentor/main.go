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

	chatservice "nepalmentor/internal/app/services/chat"
	"nepalmentor/internal/domain/availability"
	"nepalmentor/internal/domain/chat"
	"nepalmentor/internal/domain/request"
	"nepalmentor/internal/domain/user"
	"nepalmentor/internal/infra/broker/kafka"
	"nepalmentor/internal/infra/config"
	mongodb "nepalmentor/internal/infra/db/mongo"
	ginserver "nepalmentor/internal/infra/http/gin"
	"nepalmentor/internal/infra/obs"
	"nepalmentor/internal/infra/realtime"
	"nepalmentor/internal/infra/storage/memory"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load()
	if err != nil {
		logger := obs.NewLogger("dev")
		logger.Error("configuration invalid", "error", err)
		os.Exit(1)
	}
	logger := obs.NewLogger(cfg.Env)

	backends, cleanup, err := buildBackends(cfg, logger)
	if err != nil {
		logger.Error("backend wiring failed", "error", err)
		os.Exit(1)
	}
	defer cleanup()

	resolver := &chatservice.Resolver{
		Schedules: backends.schedules,
		Requests:  backends.requests,
	}
	chatSvc := &chatservice.Service{
		Resolver:    resolver,
		Store:       backends.messages,
		Users:       backends.users,
		Events:      backends.events,
		Logger:      logger,
		CallTimeout: cfg.CallTimeout,
	}
	relay := &realtime.Dispatcher{
		Chat:         chatSvc,
		Registry:     realtime.NewRegistry(),
		Logger:       logger,
		HistoryLimit: cfg.HistoryLimit,
	}

	handlers := ginserver.Handlers{
		Chat: ginserver.ChatHandler{
			Chat:   chatSvc,
			Relay:  relay,
			Logger: logger,
		},
		Availability: ginserver.AvailabilityHandler{
			Schedules: backends.schedules,
			Logger:    logger,
		},
		Request: ginserver.RequestHandler{
			Requests: backends.requests,
			Users:    backends.users,
			Events:   backends.events,
			Logger:   logger,
		},
		WS: ginserver.NewWSHandler(relay, logger),
	}

	server := ginserver.NewServer(cfg, obs.Middleware{Logger: logger}, obs.HealthHandlers{
		Ready: backends.ready,
	}, handlers)

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Error("http shutdown failed", "error", err)
		}
	}()

	logger.Info("HTTP server starting", "addr", cfg.HTTPAddr, "storage", cfg.StorageMode)
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error("http server failed", "error", err)
		os.Exit(1)
	}
	logger.Info("HTTP server stopped")
}

type backends struct {
	schedules availability.Repository
	requests  request.Repository
	users     user.Repository
	messages  chat.Store
	events    chatservice.Events
	ready     func() error
}

func buildBackends(cfg config.Config, logger *slog.Logger) (backends, func(), error) {
	var b backends
	var closers []func()
	cleanup := func() {
		for i := len(closers) - 1; i >= 0; i-- {
			closers[i]()
		}
	}

	switch cfg.StorageMode {
	case "mongo":
		client, err := mongodb.New(cfg.MongoURI, cfg.MongoDB)
		if err != nil {
			return backends{}, nil, err
		}
		closers = append(closers, func() {
			closeCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := client.Close(closeCtx); err != nil {
				logger.Warn("mongo close failed", "error", err)
			}
		})
		b.schedules = mongodb.NewScheduleRepository(client.DB)
		b.requests = mongodb.NewRequestRepository(client.DB)
		b.users = mongodb.NewUserRepository(client.DB)
		b.messages = mongodb.NewMessageStore(client.DB)
		b.ready = func() error {
			pingCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
			defer cancel()
			return client.Ping(pingCtx)
		}
		logger.Info("mongo storage attached", "database", cfg.MongoDB)
	default:
		b.schedules = memory.NewScheduleRepository()
		b.requests = memory.NewRequestRepository()
		b.users = memory.NewUserRepository()
		b.messages = memory.NewMessageStore()
		b.ready = func() error { return nil }
		logger.Info("in-memory storage attached")
	}

	if len(cfg.KafkaBrokers) > 0 {
		producer, err := kafka.NewProducer(cfg.KafkaBrokers, nil)
		if err != nil {
			cleanup()
			return backends{}, nil, err
		}
		closers = append(closers, func() {
			if err := producer.Close(); err != nil {
				logger.Warn("kafka close failed", "error", err)
			}
		})
		b.events = &kafka.EventPublisher{Producer: producer, TopicPrefix: cfg.KafkaTopicPrefix}
		logger.Info("kafka publisher attached", "brokers", cfg.KafkaBrokers)
	}

	return b, cleanup, nil
}
