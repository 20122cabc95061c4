package main

import (
	"context"
	"log/slog"
	"os"

	"chat-realtime/internal/config"
	"chat-realtime/internal/database"
	"chat-realtime/internal/models"
	"chat-realtime/internal/repositories/mongodb"
	"chat-realtime/internal/repositories/postgres"
	"chat-realtime/internal/services"
	"chat-realtime/internal/websocket"
)

// Nobody is connected while seeding, so events go nowhere.
func offlineNotifier(store websocket.MembershipStore) *websocket.Notifier {
	registry := websocket.NewRegistry()
	fanout := websocket.NewFanout(registry, nil)
	return websocket.NewNotifier(websocket.NewRooms(store, nil), fanout, nil)
}

func main() {
	// Load configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		slog.Error("Failed to load config", "error", err)
		os.Exit(1)
	}

	slog.Info("Starting database seeding...")
	ctx := context.Background()

	db, err := database.NewPostgresConnection(database.PostgresDSN(cfg.Database), false)
	if err != nil {
		slog.Error("Failed to connect to PostgreSQL", "error", err)
		os.Exit(1)
	}
	mongoDB, err := database.NewMongoConnection(ctx, cfg.Mongo)
	if err != nil {
		slog.Error("Failed to connect to MongoDB", "error", err)
		os.Exit(1)
	}
	defer mongoDB.Close(context.Background())

	userRepo := postgres.NewUserRepository(db)
	convRepo := mongodb.NewConversationRepository(mongoDB.DB)
	msgRepo := mongodb.NewMessageRepository(mongoDB.DB)

	userService := services.NewUserService(userRepo, services.NewTokenManager(cfg.JWT.Secret, cfg.JWT.ExpirationTime), nil)
	notifier := offlineNotifier(convRepo)
	conversationService := services.NewConversationService(convRepo, msgRepo, userService, nil, notifier, nil)
	messageService := services.NewMessageService(convRepo, msgRepo, userService, nil, notifier, nil)

	// Seed initial users
	slog.Info("Creating initial users...")
	testUsers := []models.RegisterRequest{
		{Username: "admin", Email: "admin@notify.com", Password: "123456", FullName: "Admin"},
		{Username: "alice", Email: "alice@notify.com", Password: "123456", FullName: "Alice"},
		{Username: "bob", Email: "bob@notify.com", Password: "123456", FullName: "Bob"},
		{Username: "charlie", Email: "charlie@notify.com", Password: "123456", FullName: "Charlie"},
	}

	ids := make(map[string]string, len(testUsers))
	for _, req := range testUsers {
		if _, err := userService.Register(ctx, &req); err != nil {
			slog.Warn("User might already exist", "username", req.Username, "error", err)
		}
		user, err := userRepo.FindByEmail(ctx, req.Email)
		if err != nil {
			slog.Error("Seeded user not found", "email", req.Email, "error", err)
			os.Exit(1)
		}
		ids[req.Username] = user.IDString()
	}

	// Follow edges are idempotent in storage
	for _, pair := range [][2]string{{"alice", "admin"}, {"bob", "admin"}, {"bob", "alice"}} {
		follower, _ := models.ParseUserID(ids[pair[0]])
		following, _ := models.ParseUserID(ids[pair[1]])
		if err := userRepo.Follow(ctx, follower, following); err != nil {
			slog.Warn("Failed to seed follow", "follower", pair[0], "following", pair[1], "error", err)
		}
	}

	existing, err := conversationService.List(ctx, ids["admin"])
	if err != nil {
		slog.Error("Failed to list conversations", "error", err)
		os.Exit(1)
	}
	if len(existing) > 0 {
		slog.Info("Conversations already seeded, skipping", "count", len(existing))
		return
	}

	// Seed a group and a few direct messages
	slog.Info("Creating sample conversations...")
	general, err := conversationService.Create(ctx, ids["admin"], &models.CreateConversationRequest{
		IsGroup:      true,
		Name:         "general",
		Participants: []string{ids["alice"], ids["bob"], ids["charlie"]},
	})
	if err != nil {
		slog.Error("Failed to create general group", "error", err)
		os.Exit(1)
	}
	if _, err := conversationService.AssignAdmin(ctx, ids["admin"], general.ID, ids["alice"]); err != nil {
		slog.Warn("Failed to promote alice", "error", err)
	}

	samples := []struct {
		from string
		req  models.SendMessageRequest
	}{
		{"admin", models.SendMessageRequest{ConversationID: general.ID, Content: "Welcome to the general channel!"}},
		{"alice", models.SendMessageRequest{ConversationID: general.ID, Content: "Hi everyone! Excited to be here."}},
		{"bob", models.SendMessageRequest{ConversationID: general.ID, Content: "Hello! Looking forward to working together."}},
		{"admin", models.SendMessageRequest{ReceiverID: ids["alice"], Content: "Hey Alice, welcome to the team!"}},
		{"alice", models.SendMessageRequest{ReceiverID: ids["admin"], Content: "Thank you! I'm excited to get started."}},
		{"bob", models.SendMessageRequest{ReceiverID: ids["alice"], Content: "Hi Alice! If you need any help, feel free to ask."}},
	}
	for _, s := range samples {
		if _, err := messageService.Send(ctx, ids[s.from], &s.req, nil); err != nil {
			slog.Warn("Failed to create sample message", "from", s.from, "error", err)
		}
	}

	slog.Info("Database seeding completed successfully!")
}
