package routes

import (
	"log/slog"
	"net/http"
	"strings"
	"time"

	"chat-realtime/internal/api/handlers"
	"chat-realtime/internal/api/middleware"
	"chat-realtime/internal/config"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

// Deps are the collaborators the HTTP surface is built from.
type Deps struct {
	Users         handlers.UserService
	Conversations handlers.ConversationService
	Messages      handlers.MessageService
	Typing        handlers.TypingRelay
	Roster        handlers.OnlineRoster
	Sockets       handlers.SocketServer
	Tokens        middleware.TokenParser
	Limiter       middleware.RateLimiter
	// Connections reports live realtime users and connections; optional.
	Connections interface{ Stats() (users, conns int) }
	// Health reports readiness of the backing stores; nil means always healthy.
	Health func() error
}

type Router struct {
	engine              *gin.Engine
	cfg                 config.ServerConfig
	health              func() error
	connections         interface{ Stats() (users, conns int) }
	authHandler         *handlers.AuthHandler
	userHandler         *handlers.UserHandler
	conversationHandler *handlers.ConversationHandler
	messageHandler      *handlers.MessageHandler
	wsHandler           *handlers.WSHandler
	rateLimitMW         *middleware.RateLimitMiddleware
	authMW              *middleware.AuthMiddleware
}

func NewRouter(cfg *config.Config, deps Deps, logger *slog.Logger) *Router {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}
	engine := gin.New()

	// Add middlewares
	engine.Use(gin.Recovery())
	engine.Use(middleware.CORS(cfg.Server.AllowedOrigins))
	if strings.EqualFold(cfg.Log.Format, "json") {
		engine.Use(middleware.SlogAccess(logger))
	} else {
		engine.Use(middleware.LogApi())
	}

	return &Router{
		engine:              engine,
		cfg:                 cfg.Server,
		health:              deps.Health,
		connections:         deps.Connections,
		authHandler:         handlers.NewAuthHandler(deps.Users, logger),
		userHandler:         handlers.NewUserHandler(deps.Users, deps.Conversations, deps.Roster, logger),
		conversationHandler: handlers.NewConversationHandler(deps.Conversations, deps.Typing, logger),
		messageHandler:      handlers.NewMessageHandler(deps.Messages, logger),
		wsHandler:           handlers.NewWSHandler(deps.Sockets, logger),
		rateLimitMW:         middleware.NewRateLimitMiddleware(deps.Limiter, logger),
		authMW:              middleware.NewAuthMiddleware(deps.Tokens),
	}
}

func (r *Router) SetupRoutes() {
	limit, window := r.cfg.RateLimit, r.cfg.RateWindow
	if limit <= 0 {
		limit = 100
	}
	if window <= 0 {
		window = time.Minute
	}

	r.engine.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	r.engine.GET("/healthz", r.healthz)

	api := r.engine.Group("/api/v1")

	// WebSocket endpoint: token in query or header, 401 before any upgrade
	api.GET("/ws",
		r.authMW.RequireSocketAuth(),
		r.rateLimitMW.WebSocketRateLimit(10, time.Minute),
		r.wsHandler.HandleWebSocket,
	)

	// Public routes (no authentication required)
	authRoutes := api.Group("/auth")
	authRoutes.Use(r.rateLimitMW.RateLimitIP(limit/2, window))
	{
		authRoutes.POST("/register", r.authHandler.Register)
		authRoutes.POST("/login", r.authHandler.Login)
	}

	// Authenticated routes
	protected := api.Group("")
	protected.Use(r.authMW.RequireAuth())
	{
		users := protected.Group("/users")
		users.Use(r.rateLimitMW.RateLimit(limit, window))
		{
			users.GET("/profile", r.userHandler.GetProfile)
			users.PUT("/profile", r.userHandler.UpdateProfile)
			users.GET("/profile/:username", r.userHandler.GetPublicProfile)
			users.GET("/suggested", r.userHandler.GetSuggestedUsers)
			users.GET("/search", r.userHandler.Search)
			users.POST("/follow/:id", r.userHandler.ToggleFollow)
			users.GET("/online", r.userHandler.GetOnlineUsers)
		}

		conversations := protected.Group("/conversations")
		conversations.Use(r.rateLimitMW.RateLimit(limit, window))
		r.conversationHandler.RegisterRoutes(conversations)

		messages := protected.Group("/messages")
		messages.Use(r.rateLimitMW.RateLimit(limit*2, window))
		r.messageHandler.RegisterRoutes(messages)
	}
}

func (r *Router) healthz(c *gin.Context) {
	if r.health != nil {
		if err := r.health(); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable", "error": err.Error()})
			return
		}
	}
	resp := gin.H{"status": "ok"}
	if r.connections != nil {
		users, conns := r.connections.Stats()
		resp["onlineUsers"], resp["connections"] = users, conns
	}
	c.JSON(http.StatusOK, resp)
}

func (r *Router) GetEngine() *gin.Engine {
	return r.engine
}
