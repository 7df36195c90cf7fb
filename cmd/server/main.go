package main

import (
	"context"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	fiberlogger "github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/hibiken/asynq"
	"github.com/redis/go-redis/v9"

	"github.com/clipforge/api/internal/client"
	"github.com/clipforge/api/internal/config"
	"github.com/clipforge/api/internal/handler"
	"github.com/clipforge/api/internal/logger"
	"github.com/clipforge/api/internal/middleware"
	"github.com/clipforge/api/internal/pipeline"
	"github.com/clipforge/api/internal/store"
	"github.com/clipforge/api/internal/worker"
	ws "github.com/clipforge/api/internal/websocket"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	log := logger.New(cfg.Server.Env, cfg.Server.LogLevel)

	// Initialize Redis client
	redisClient := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})

	// Redis backs both persistence and the task queue. Without it the
	// API still serves on the in-memory store with inline advancement.
	ctx := context.Background()
	redisAvailable := redisClient.Ping(ctx).Err() == nil
	if !redisAvailable {
		log.Warn("Redis not available, falling back to in-memory store")
	}

	var st store.Store
	if redisAvailable {
		st = store.NewRedisStore(redisClient)
	} else {
		st = store.NewMemoryStore()
	}

	// Initialize validator
	validate := validator.New()

	// Initialize WebSocket hub
	hub := ws.NewHub(log)
	go hub.Run()

	// Initialize external clients
	resolver := client.NewYtDlpResolver(&cfg.Resolver)
	aiClient := client.NewOpenAIClient(&cfg.OpenAI)
	vizardClient := client.NewVizardClient(&cfg.Vizard)
	posterClient := client.NewPosterClient(&cfg.Social)

	// Initialize R2 client (optional - continues if not configured)
	var storageClient client.StorageClient
	if cfg.R2.AccessKeyID != "" && cfg.R2.SecretAccessKey != "" {
		r2Client, err := client.NewR2Client(&cfg.R2)
		if err != nil {
			log.WithError(err).Warn("R2 client not initialized")
		} else {
			storageClient = r2Client
		}
	} else {
		log.Info("R2 storage not configured, vendor clip URLs will not be archived")
	}

	// Pipeline wiring
	stages := pipeline.NewStages(pipeline.StagesDeps{
		Config:   cfg,
		Logger:   log,
		Store:    st,
		Resolver: resolver,
		AI:       aiClient,
		Clipper:  vizardClient,
		Poster:   posterClient,
		Storage:  storageClient,
	})
	controller := pipeline.NewController(cfg, log, st, stages, hub)

	var enqueuer worker.Enqueuer = worker.NoopEnqueuer{}
	var asynqClient *asynq.Client
	if redisAvailable {
		asynqClient = asynq.NewClient(asynq.RedisClientOpt{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		defer asynqClient.Close()
		enqueuer = worker.NewAsynqEnqueuer(asynqClient)
	}

	// Initialize handlers
	assetHandler := handler.NewAssetHandler(cfg, st, controller, enqueuer, validate)
	pipelineHandler := handler.NewPipelineHandler(controller)

	// Initialize middleware
	var apiAuthMiddleware fiber.Handler
	if cfg.Gateway.Enabled {
		// Behind Traefik: auth is handled by ForwardAuth, read X-User-* headers
		log.Info("gateway mode enabled, using header-based auth")
		apiAuthMiddleware = middleware.GatewayAuthMiddleware()
	} else {
		authMiddleware := middleware.NewAuthMiddleware(cfg.JWT.Secret, time.Duration(cfg.JWT.Expiration)*time.Hour)
		apiAuthMiddleware = authMiddleware.Authenticate()
	}
	rateLimiter := middleware.NewRateLimiter(redisClient)

	// Initialize Fiber app
	app := fiber.New(fiber.Config{
		ErrorHandler: customErrorHandler,
		BodyLimit:    10 * 1024 * 1024, // 10MB
	})

	// Global middleware
	app.Use(recover.New())
	logFormat := "[${time}] ${status} - ${latency} ${method} ${path}\n"
	if strings.EqualFold(cfg.Server.LogLevel, "debug") {
		logFormat = "[${time}] ${status} - ${latency} ${method} ${path} ${queryParams} ${body}\n"
	}
	app.Use(fiberlogger.New(fiberlogger.Config{
		Format: logFormat,
	}))
	app.Use(cors.New(cors.Config{
		AllowOrigins: "*",
		AllowMethods: "GET,POST,PUT,DELETE,OPTIONS",
		AllowHeaders: "Origin,Content-Type,Accept,Authorization",
	}))

	// Base URL - timestamp
	app.Get("/", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"timestamp": time.Now().Unix(),
		})
	})

	// Health check
	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"status": "ok",
			"services": fiber.Map{
				"redis":    redisAvailable,
				"resolver": resolver.IsConfigured(),
				"openai":   aiClient.IsConfigured(),
				"vizard":   vizardClient.IsConfigured(),
				"storage":  storageClient != nil,
				"auth":     cfg.JWT.Secret != "" || cfg.Gateway.Enabled,
			},
		})
	})

	// API routes
	api := app.Group("/api", apiAuthMiddleware)

	// Asset routes
	assets := api.Group("/assets")
	assets.Post("/youtube", rateLimiter.IngestLimit(cfg.RateLimit.IngestPerHour), assetHandler.IngestYouTube)
	assets.Get("/", assetHandler.List)
	assets.Get("/:assetId", assetHandler.Get)
	assets.Get("/:assetId/report", rateLimiter.ReportLimit(cfg.RateLimit.ReportPerHour), assetHandler.Report)

	// Pipeline routes
	pipe := api.Group("/pipeline")
	pipe.Get("/:assetId/status", pipelineHandler.Status)
	pipe.Post("/:assetId/advance", rateLimiter.AdvanceLimit(cfg.RateLimit.AdvancePerMin), pipelineHandler.Advance)

	// WebSocket routes
	app.Use("/ws", func(c *fiber.Ctx) error {
		if websocket.IsWebSocketUpgrade(c) {
			return c.Next()
		}
		return fiber.ErrUpgradeRequired
	})

	app.Get("/ws/assets/:assetId", websocket.New(func(c *websocket.Conn) {
		assetID := c.Params("assetId")
		hub.HandleConnection(c, assetID)
	}))

	// Start Asynq worker server
	if redisAvailable {
		advanceWorker := worker.NewAdvanceWorker(cfg, log, controller, enqueuer)
		go startWorkerServer(cfg, log, advanceWorker)
	}

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		<-quit
		log.Info("shutting down server")
		if err := app.ShutdownWithTimeout(10 * time.Second); err != nil {
			log.WithError(err).Error("server shutdown error")
		}
	}()

	// Start server
	addr := ":" + cfg.Server.Port
	log.WithField("addr", addr).Info("server starting")
	if err := app.Listen(addr); err != nil {
		log.WithError(err).Fatal("server error")
	}
}

func startWorkerServer(cfg *config.Config, log *logger.Logger, advanceWorker *worker.AdvanceWorker) {
	asynqLogLevel := asynq.InfoLevel
	if strings.EqualFold(cfg.Server.LogLevel, "debug") {
		asynqLogLevel = asynq.DebugLevel
	} else if strings.EqualFold(cfg.Server.LogLevel, "warn") {
		asynqLogLevel = asynq.WarnLevel
	} else if strings.EqualFold(cfg.Server.LogLevel, "error") {
		asynqLogLevel = asynq.ErrorLevel
	}

	srv := asynq.NewServer(
		asynq.RedisClientOpt{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		},
		asynq.Config{
			Concurrency: 10,
			Queues: map[string]int{
				worker.QueuePipeline: 10,
			},
			LogLevel: asynqLogLevel,
		},
	)

	mux := asynq.NewServeMux()
	mux.HandleFunc(worker.TaskTypeAdvance, advanceWorker.ProcessTask)

	if err := srv.Run(mux); err != nil {
		log.WithError(err).Error("asynq worker error")
	}
}

func customErrorHandler(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError
	message := "Internal Server Error"

	if e, ok := err.(*fiber.Error); ok {
		code = e.Code
		message = e.Message
	}

	return c.Status(code).JSON(fiber.Map{
		"error": fiber.Map{
			"code":    "SERVICE_ERROR",
			"message": message,
		},
	})
}
