package main

import (
	"context"
	"log/slog"
	"os"

	"chat-realtime/internal/config"
	"chat-realtime/internal/database"
)

// Applies the Postgres schema and the MongoDB indexes without starting the server.
func main() {
	// Load configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		slog.Error("Failed to load config", "error", err)
		os.Exit(1)
	}

	slog.Info("Starting database migration...")

	// Connecting runs AutoMigrate on the user and follow schema
	db, err := database.NewPostgresConnection(database.PostgresDSN(cfg.Database), true)
	if err != nil {
		slog.Error("Failed to migrate PostgreSQL", "error", err)
		os.Exit(1)
	}
	sqlDB, err := db.DB()
	if err != nil {
		slog.Error("Failed to get database instance", "error", err)
		os.Exit(1)
	}
	defer sqlDB.Close()
	slog.Info("PostgreSQL schema up to date")

	// Connecting ensures the conversation and message indexes
	mongoDB, err := database.NewMongoConnection(context.Background(), cfg.Mongo)
	if err != nil {
		slog.Error("Failed to migrate MongoDB", "error", err)
		os.Exit(1)
	}
	defer mongoDB.Close(context.Background())
	slog.Info("MongoDB indexes up to date")

	slog.Info("Database migration completed successfully!")
}
