package main

// @title           Realtime Chat API
// @version         1.0
// @description     Conversations, messages and realtime events over websocket
// @host            localhost:8080
// @BasePath        /api/v1
// @schemes         http https

// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and JWT token.

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	_ "chat-realtime/docs"
	"chat-realtime/internal/adapters/kafka"
	"chat-realtime/internal/api/routes"
	"chat-realtime/internal/config"
	"chat-realtime/internal/database"
	"chat-realtime/internal/repositories/mongodb"
	"chat-realtime/internal/repositories/postgres"
	"chat-realtime/internal/services"
	"chat-realtime/internal/storage"
	"chat-realtime/internal/websocket"
)

func main() {
	// Load configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		slog.Error("Failed to load config", "error", err)
		os.Exit(1)
	}

	logger := newLogger(cfg.Log)
	slog.SetDefault(logger)
	slog.Info("Starting chat server", "env", cfg.Env)

	ctx := context.Background()

	// Initialize PostgreSQL connection
	db, err := database.NewPostgresConnection(database.PostgresDSN(cfg.Database), strings.EqualFold(cfg.Log.Level, "debug"))
	if err != nil {
		slog.Error("Failed to connect to PostgreSQL", "error", err)
		os.Exit(1)
	}

	// Initialize MongoDB connection
	mongoDB, err := database.NewMongoConnection(ctx, cfg.Mongo)
	if err != nil {
		slog.Error("Failed to connect to MongoDB", "error", err)
		os.Exit(1)
	}
	defer mongoDB.Close(context.Background())

	// Initialize Redis connection
	redisClient, err := database.NewRedisConnection(cfg.Redis, logger)
	if err != nil {
		slog.Error("Failed to connect to Redis", "error", err)
		os.Exit(1)
	}
	defer redisClient.Close()

	media, err := storage.NewMinIOClient(ctx, cfg.MinIO, logger)
	if err != nil {
		slog.Error("Failed to initialize MinIO", "error", err)
		os.Exit(1)
	}

	redisService := services.NewRedisService(redisClient, logger)
	// Presence restarts from zero with the process
	if err := redisService.ResetPresence(ctx); err != nil {
		slog.Warn("Failed to reset presence mirror", "error", err)
	}

	// Repositories
	userRepo := postgres.NewUserRepository(db)
	convRepo := mongodb.NewConversationRepository(mongoDB.DB)
	msgRepo := mongodb.NewMessageRepository(mongoDB.DB)

	// Realtime core
	registry := websocket.NewRegistry()
	fanout := websocket.NewFanout(registry, logger)
	presence := websocket.NewPresence(registry, fanout, logger,
		websocket.WithMirror(redisService, cfg.WebSocket.MirrorTimeout))
	rooms := websocket.NewRooms(convRepo, logger)
	typing := websocket.NewTyping(rooms, fanout, logger)

	var notifierOpts []websocket.NotifierOption
	if cfg.Kafka.Enabled() {
		publisher, err := kafka.NewPublisherFromConfig(cfg.Kafka, logger)
		if err != nil {
			slog.Error("Failed to connect to Kafka", "brokers", cfg.Kafka.Brokers, "error", err)
			os.Exit(1)
		}
		defer publisher.Close()
		notifierOpts = append(notifierOpts, websocket.WithPublisher(publisher))
	}
	notifier := websocket.NewNotifier(rooms, fanout, logger, notifierOpts...)

	hub := websocket.NewHub(presence, typing, logger, websocket.HubConfig{
		SendBufferSize: cfg.WebSocket.SendBufferSize,
		MaxMessageSize: cfg.WebSocket.MaxMessageSize,
		WriteWait:      cfg.WebSocket.WriteWait,
		PongWait:       cfg.WebSocket.PongWait,
		AllowedOrigins: cfg.Server.AllowedOrigins,
	})
	go hub.Run()

	// Services
	tokens := services.NewTokenManager(cfg.JWT.Secret, cfg.JWT.ExpirationTime)
	userService := services.NewUserService(userRepo, tokens, logger)
	conversationService := services.NewConversationService(convRepo, msgRepo, userService, media, notifier, logger)
	messageService := services.NewMessageService(convRepo, msgRepo, userService, media, notifier, logger)

	// Initialize router with all dependencies
	router := routes.NewRouter(cfg, routes.Deps{
		Users:         userService,
		Conversations: conversationService,
		Messages:      messageService,
		Typing:        typing,
		Roster:        presence,
		Connections:   presence,
		Sockets:       hub,
		Tokens:        tokens,
		Limiter:       redisService,
		Health: func() error {
			ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
			defer cancel()
			return errors.Join(redisClient.Ping(ctx), mongoDB.Client.Ping(ctx, nil))
		},
	}, logger)
	router.SetupRoutes()

	// Create HTTP server
	server := &http.Server{
		Addr:         cfg.Server.Addr(),
		Handler:      router.GetEngine(),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	// Start server in a goroutine
	go func() {
		slog.Info("Server starting", "address", server.Addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("Server failed to start", "error", err)
			os.Exit(1)
		}
	}()

	// Wait for interrupt signal to gracefully shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	slog.Info("Server shutting down...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	// Stop accepting requests before closing the sockets
	if err := server.Shutdown(shutdownCtx); err != nil {
		slog.Error("Server forced to shutdown", "error", err)
	}
	hub.Stop()
	presence.Close()

	slog.Info("Server stopped")
}

func newLogger(cfg config.LogConfig) *slog.Logger {
	var level slog.Level
	if err := level.UnmarshalText([]byte(cfg.Level)); err != nil {
		level = slog.LevelInfo
	}
	opts := &slog.HandlerOptions{Level: level}

	if strings.EqualFold(cfg.Format, "json") {
		return slog.New(slog.NewJSONHandler(os.Stdout, opts))
	}
	return slog.New(slog.NewTextHandler(os.Stdout, opts))
}
