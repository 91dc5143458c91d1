package api

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"

	"github.com/Sudharsanv06/N-queens-game-sub001/internal/api/handlers"
	"github.com/Sudharsanv06/N-queens-game-sub001/internal/api/middleware"
	"github.com/Sudharsanv06/N-queens-game-sub001/internal/config"
	"github.com/Sudharsanv06/N-queens-game-sub001/internal/game"
	"github.com/Sudharsanv06/N-queens-game-sub001/internal/repository"
	"github.com/Sudharsanv06/N-queens-game-sub001/internal/service"
	"github.com/Sudharsanv06/N-queens-game-sub001/internal/websocket"
	"github.com/Sudharsanv06/N-queens-game-sub001/pkg/database"
	"github.com/Sudharsanv06/N-queens-game-sub001/pkg/logger"
	"github.com/Sudharsanv06/N-queens-game-sub001/pkg/ratelimit"
)

// SetupRouter wires repositories, services, the room manager, the
// websocket hub, and the HTTP surface. The returned stop function drains
// the background workers.
func SetupRouter(cfg *config.Config, db *database.DB, redisClient *redis.Client) (*gin.Engine, func()) {
	if cfg.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()

	router.Use(gin.Recovery())
	router.Use(middleware.Logger())
	router.Use(middleware.CORS(cfg.CORSAllowedOrigins))

	zapLogger := logger.Desugar()

	// Repositories
	ratingRepo := repository.NewRatingRepository(db)
	roomRepo := repository.NewRoomRepository(db)

	// Services
	ratingService := service.NewRatingService(ratingRepo, zapLogger)

	// WebSocket hub
	hub := websocket.NewHub(zapLogger)

	// Room manager
	timings := game.Timings{
		ReadyStartDelay: cfg.ReadyStartDelay,
		WaitingTimeout:  cfg.WaitingTimeout,
		GracePeriod:     cfg.GracePeriod,
		ForfeitWindow:   cfg.ForfeitWindow,
	}
	manager := game.NewManager(hub, ratingService, roomRepo,
		game.NewChatFilter(cfg.ChatDenylist), timings, zapLogger)
	manager.Start()

	// Matchmaking
	queueConfig := service.QueueConfig{
		SweepInterval: cfg.SweepInterval,
		ToleranceBase: cfg.ToleranceBase,
		WidenPerSec:   cfg.WidenPerSec,
		MaxWait:       cfg.MaxQueueWait,
	}
	queueService := service.NewQueueService(manager, ratingService, queueConfig, zapLogger)
	queueService.Start()

	// A dropped connection leaves the queue immediately and starts the
	// room grace path.
	hub.OnDisconnect(func(playerID string) {
		_ = queueService.Dequeue(playerID)
		manager.HandleDisconnect(playerID)
	})
	go hub.Run()

	eventRouter := websocket.NewEventRouter(queueService, manager, zapLogger)

	// Handlers
	wsHandler := handlers.NewWebSocketHandler(hub, eventRouter, zapLogger)
	queueHandler := handlers.NewQueueHandler(queueService)
	ratingHandler := handlers.NewRatingHandler(ratingService)
	roomHandler := handlers.NewRoomHandler(manager, roomRepo)

	// Rate limiting: Redis-backed across instances when available,
	// in-process buckets otherwise.
	var publicLimit, authLimit gin.HandlerFunc
	if redisClient != nil {
		redisLimiter := ratelimit.NewRedisLimiter(redisClient, "nqueens:rl")
		publicLimit = middleware.RedisRateLimit(middleware.RedisRateLimitConfig{
			Limiter: redisLimiter,
			Limit:   30,
			Window:  time.Second,
			KeyFunc: middleware.IPKeyFunc,
		})
		authLimit = middleware.RedisRateLimit(middleware.RedisRateLimitConfig{
			Limiter: redisLimiter,
			Limit:   10,
			Window:  time.Second,
		})
	} else {
		publicLimit = middleware.RateLimit(middleware.RateLimitConfig{
			Capacity:   30,
			RefillRate: 30,
			KeyFunc:    middleware.IPKeyFunc,
		})
		authLimit = middleware.RateLimit(middleware.RateLimitConfig{
			Capacity:   10,
			RefillRate: 10,
		})
	}

	// Health check
	router.GET("/health", handlers.HealthCheck)

	// API v1
	v1 := router.Group("/api/v1")
	{
		// WebSocket endpoint
		v1.GET("/ws", middleware.Auth(cfg), authLimit, wsHandler.HandleWebSocket)

		// Queue routes
		queue := v1.Group("/queue")
		queue.Use(middleware.Auth(cfg), authLimit)
		{
			queue.GET("/status", queueHandler.GetMyStatus)
			queue.GET("/depth", queueHandler.GetDepth)
		}

		// Rating routes
		ratings := v1.Group("/ratings")
		{
			ratings.GET("/leaderboard", publicLimit, ratingHandler.GetLeaderboard)
			ratings.GET("/me", middleware.Auth(cfg), authLimit, ratingHandler.GetMyRating)
			ratings.GET("/preview", middleware.Auth(cfg), authLimit, ratingHandler.PreviewDelta)
			ratings.GET("/:playerId", publicLimit, ratingHandler.GetRating)
		}

		// Room routes
		rooms := v1.Group("/rooms")
		{
			rooms.GET("/types", publicLimit, roomHandler.GetMatchTypes)
			rooms.GET("/my", middleware.Auth(cfg), authLimit, roomHandler.GetMyMatches)
			rooms.GET("/:id", publicLimit, roomHandler.GetRoom)
		}
	}

	stop := func() {
		queueService.Stop()
		manager.Stop()
	}

	return router, stop
}
