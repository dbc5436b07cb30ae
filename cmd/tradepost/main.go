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

	appoutbox "tradepost/internal/app/outbox"
	chatsvc "tradepost/internal/app/services/chat"
	"tradepost/internal/app/services/notify"
	tradesvc "tradepost/internal/app/services/trade"
	"tradepost/internal/domain/block"
	domainchat "tradepost/internal/domain/chat"
	"tradepost/internal/domain/notification"
	domaintrade "tradepost/internal/domain/trade"
	"tradepost/internal/infra/broker/kafka"
	"tradepost/internal/infra/config"
	mongodb "tradepost/internal/infra/db/mongo"
	ginserver "tradepost/internal/infra/http/gin"
	"tradepost/internal/infra/obs"
	infraoutbox "tradepost/internal/infra/outbox"
	"tradepost/internal/infra/storage/memory"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load()
	if err != nil {
		cfg = config.Config{Env: "dev", HTTPAddr: ":8080"}
	}
	logger := obs.NewLogger(cfg.Env)
	if err != nil {
		logger.Warn("using fallback configuration", "error", err)
	}

	deps, err := buildStorage(cfg, logger)
	if err != nil {
		logger.Error("storage init failed", "error", err)
		os.Exit(1)
	}

	blocks := &block.Registry{Entries: deps.blocks}
	notifier := &notify.Dispatcher{Store: deps.notifications, Logger: logger}
	encoder := appoutbox.JSONEventEncoder{}

	chatService := &chatsvc.Service{
		Conversations: deps.conversations,
		Blocks:        blocks,
		Notifier:      notifier,
		Outbox:        deps.outbox,
		Encoder:       encoder,
		Logger:        logger,
	}
	tradeService := &tradesvc.Service{
		Products: deps.products,
		Blocks:   blocks,
		Notifier: notifier,
		Outbox:   deps.outbox,
		Encoder:  encoder,
		Logger:   logger,
	}

	handlers := ginserver.Handlers{
		Chat:           &ginserver.ChatHandler{Chat: chatService, Logger: logger},
		Trade:          &ginserver.TradeHandler{Trade: tradeService, Logger: logger},
		Notification:   &ginserver.NotificationHandler{Notifications: notifier, Logger: logger},
		Block:          &ginserver.BlockHandler{Blocks: blocks, Logger: logger},
		AuthMiddleware: ginserver.AuthMiddleware{}.Handle,
	}
	server := ginserver.NewServer(cfg, obs.Middleware{Logger: logger}, obs.HealthHandlers{Ready: deps.ready}, handlers)

	if len(cfg.KafkaBrokers) > 0 {
		producer, err := kafka.NewProducer(cfg.KafkaBrokers, nil)
		if err != nil {
			logger.Error("kafka producer init failed", "error", err)
			os.Exit(1)
		}
		defer producer.Close()
		worker := &infraoutbox.Worker{
			Store:       deps.outboxStore,
			Producer:    producer,
			Interval:    cfg.OutboxPollInterval,
			TopicPrefix: cfg.KafkaTopicPrefix,
			Backoff:     cfg.RetryBackoff,
		}
		go func() {
			if err := worker.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
				logger.Error("outbox worker stopped", "error", err)
			}
		}()
		logger.Info("outbox worker started", "brokers", cfg.KafkaBrokers)
	} else {
		logger.Info("kafka disabled, domain events stay in the outbox")
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Error("http shutdown failed", "error", err)
		}
	}()

	logger.Info("HTTP server starting", "addr", cfg.HTTPAddr, "env", cfg.Env)
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error("http server failed", "error", err)
		os.Exit(1)
	}
	logger.Info("HTTP server stopped")
}

type storageDeps struct {
	conversations domainchat.Repository
	products      domaintrade.Repository
	notifications notification.Repository
	blocks        block.Repository
	outbox        appoutbox.Outbox
	outboxStore   infraoutbox.Store
	ready         func() error
}

// buildStorage wires Mongo-backed repositories when MONGO_URI is set and
// falls back to the in-memory stores otherwise.
func buildStorage(cfg config.Config, logger *slog.Logger) (storageDeps, error) {
	if cfg.MongoURI != "" {
		client, err := mongodb.New(cfg.MongoURI, cfg.MongoDB)
		if err != nil {
			return storageDeps{}, err
		}
		store := infraoutbox.NewMongoStore(client.DB)
		logger.Info("mongo storage ready", "database", cfg.MongoDB)
		return storageDeps{
			conversations: mongodb.NewConversationRepository(client.DB),
			products:      mongodb.NewProductRepository(client.DB),
			notifications: mongodb.NewNotificationRepository(client.DB),
			blocks:        mongodb.NewBlockRepository(client.DB),
			outbox:        store,
			outboxStore:   store,
			ready:         func() error { return client.Ping(context.Background()) },
		}, nil
	}

	outbox := memory.NewOutbox()
	logger.Info("in-memory storage ready")
	return storageDeps{
		conversations: memory.NewConversationRepository(),
		products:      memory.NewProductRepository(),
		notifications: memory.NewNotificationRepository(),
		blocks:        memory.NewBlockRepository(),
		outbox:        outbox,
		outboxStore:   outbox,
		ready:         func() error { return nil },
	}, nil
}
