package main

import (
	"context"
	"log"
	"log/slog"
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
	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"

	"github.com/styledna/api/internal/auth"
	"github.com/styledna/api/internal/client"
	"github.com/styledna/api/internal/config"
	"github.com/styledna/api/internal/handler"
	applogger "github.com/styledna/api/internal/logger"
	"github.com/styledna/api/internal/middleware"
	"github.com/styledna/api/internal/service"
	"github.com/styledna/api/internal/store"
	"github.com/styledna/api/internal/worker"
	ws "github.com/styledna/api/internal/websocket"
)

// @title          StyleDNA API
// @version        1.0
// @description    Backend API for StyleDNA — AI-powered personal styling.
// @BasePath       /
// @schemes        http https
// @securityDefinitions.apikey BearerAuth
// @in             header
// @name           Authorization
func main() {
	_ = godotenv.Load()

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	logg := applogger.New(applogger.Config{
		Level:  cfg.Server.LogLevel,
		Format: cfg.Server.LogFormat,
	})
	slog.SetDefault(logg)

	// Initialize Redis client. Jobs, activity, and rate limits all live
	// here; starting without it would accept work we cannot track.
	redisClient := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})

	ctx := context.Background()
	if err := redisClient.Ping(ctx).Err(); err != nil {
		logg.Error("redis unreachable", "addr", cfg.Redis.Addr, "error", err)
		os.Exit(1)
	}

	// Initialize Asynq client
	asynqClient := asynq.NewClient(asynq.RedisClientOpt{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	defer asynqClient.Close()

	// Initialize validator
	validate := validator.New()

	// Initialize WebSocket hub
	hub := ws.NewHub(logg)
	go hub.Run()

	// Initialize external clients
	openaiClient := client.NewOpenAIClient(&cfg.OpenAI)
	fashnClient := client.NewFashnClient(&cfg.Fashn, logg)
	twilioClient := client.NewTwilioClient(&cfg.Twilio)

	// Object storage (falls back to in-memory for local runs)
	var blobs client.StorageClient
	storageConfigured := false
	if cfg.Storage.AccessKeyID != "" && cfg.Storage.SecretAccessKey != "" && cfg.Storage.BucketName != "" {
		s3Client, err := client.NewS3Client(&cfg.Storage)
		if err != nil {
			logg.Error("failed to initialize object storage", "error", err)
			os.Exit(1)
		}
		blobs = s3Client
		storageConfigured = true
	} else {
		logg.Warn("object storage not configured, using in-memory store")
		blobs = store.NewMemoryBlobs()
	}

	// Visualization providers
	registry := client.NewVisualizerRegistry(cfg.Visualization.DefaultProvider)
	registry.Register(fashnClient)
	registry.Register(client.NewOpenAIVisualizer(openaiClient))

	// Initialize OIDC JWKS verifier (optional - falls back to legacy JWT)
	var jwksVerifier *auth.JWKSVerifier
	if cfg.OIDC.Issuer != "" {
		var err error
		jwksVerifier, err = auth.NewJWKSVerifier(&cfg.OIDC)
		if err != nil {
			logg.Warn("JWKS verifier not initialized", "error", err)
		} else {
			defer jwksVerifier.Close()
		}
	}

	// Initialize stores
	jobRetention := time.Duration(cfg.Visualization.RetentionHours) * time.Hour
	activityRetention := time.Duration(cfg.Activity.RetentionDays) * 24 * time.Hour
	jobStore := store.NewRedisJobStore(redisClient, jobRetention)
	activityStore := store.NewRedisActivityStore(redisClient, activityRetention)
	phoneDirectory := store.NewRedisPhoneDirectory(redisClient)
	profileStore := store.NewBlobProfileStore(blobs)
	wardrobeStore := store.NewBlobWardrobeStore(blobs)
	consideringStore := store.NewBlobConsiderationStore(blobs)
	outfitStore := store.NewBlobOutfitStore(blobs)

	// Initialize services
	activityService, err := service.NewActivityService(activityStore, cfg.Activity.Timezone, logg)
	if err != nil {
		logg.Error("failed to initialize activity service", "error", err)
		os.Exit(1)
	}
	matcherService := service.NewMatcherService(wardrobeStore, consideringStore)
	profileService := service.NewProfileService(profileStore, phoneDirectory, activityService, logg)
	wardrobeService := service.NewWardrobeService(wardrobeStore, blobs, activityService, logg)
	consideringService := service.NewConsiderationService(consideringStore, wardrobeStore, activityService)
	outfitService := service.NewOutfitService(openaiClient, profileStore, wardrobeStore, consideringStore, outfitStore, matcherService, activityService)
	visualizationService := service.NewVisualizationService(jobStore, outfitStore, profileStore, asynqClient, activityService, cfg.Visualization)
	smsService := service.NewSMSService(outfitService, profileService, activityService, twilioClient, logg)

	// Initialize handlers
	jobHandler := handler.NewJobHandler(visualizationService)
	visualizationHandler := handler.NewVisualizationHandler(visualizationService, validate)
	outfitHandler := handler.NewOutfitHandler(outfitService, validate)
	wardrobeHandler := handler.NewWardrobeHandler(wardrobeService, validate)
	consideringHandler := handler.NewConsideringHandler(consideringService, validate)
	profileHandler := handler.NewProfileHandler(profileService, validate)
	activityHandler := handler.NewActivityHandler(activityService)
	smsHandler := handler.NewSMSHandler(smsService, twilioClient, cfg.Twilio.WebhookURL)

	// Initialize auth handler for ForwardAuth verification
	var tokenVerifier auth.TokenVerifier
	if jwksVerifier != nil {
		tokenVerifier = jwksVerifier
	}
	authHandler := handler.NewAuthHandler(tokenVerifier, cfg.JWT.Secret)

	// Initialize middleware (with fallback support)
	var apiAuthMiddleware fiber.Handler
	if cfg.Gateway.Enabled {
		// Behind Traefik: auth is handled by ForwardAuth, read X-User-* headers
		logg.Info("gateway mode enabled, using header-based auth")
		apiAuthMiddleware = middleware.GatewayAuthMiddleware()
	} else {
		// Direct mode: auth is handled by the backend itself
		var authMiddleware *middleware.AuthMiddleware
		if jwksVerifier != nil && cfg.JWT.Secret != "" {
			authMiddleware = middleware.NewAuthMiddlewareWithFallback(jwksVerifier, cfg.JWT.Secret)
		} else if jwksVerifier != nil {
			authMiddleware = middleware.NewAuthMiddleware(jwksVerifier)
		} else {
			authMiddleware = middleware.NewLegacyAuthMiddleware(cfg.JWT.Secret)
		}
		apiAuthMiddleware = authMiddleware.Authenticate()
	}
	rateLimiter := middleware.NewRateLimiter(redisClient)

	// Initialize Fiber app
	app := fiber.New(fiber.Config{
		ErrorHandler: customErrorHandler,
		BodyLimit:    cfg.Server.BodyLimitMB * 1024 * 1024,
	})

	// Global middleware
	app.Use(recover.New())
	isDebug := strings.EqualFold(cfg.Server.LogLevel, "debug")
	logFormat := "[${time}] ${status} - ${latency} ${method} ${path}\n"
	if isDebug {
		logFormat = "[${time}] ${status} - ${latency} ${method} ${path} ${queryParams} ${body} ${reqHeaders}\n"
		logg.Debug("debug logging enabled")
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
				"llm":     openaiClient.IsConfigured(),
				"fashn":   fashnClient.IsConfigured(),
				"storage": storageConfigured,
				"twilio":  twilioClient.IsConfigured(),
				"auth":    jwksVerifier != nil || cfg.JWT.Secret != "",
			},
		})
	})

	// ForwardAuth verification endpoint (internal, called by Traefik)
	app.Get("/auth/verify", authHandler.Verify)

	// Twilio webhook (signature-validated, outside JWT auth)
	app.Post("/sms/webhook", rateLimiter.SMSLimit(cfg.RateLimit.SMSPerMin), smsHandler.Webhook)

	// API routes
	api := app.Group("/api", apiAuthMiddleware)

	// Job polling
	api.Get("/jobs/:jobId", jobHandler.Status)

	// Profile routes
	api.Get("/profile", profileHandler.Get)
	api.Put("/profile", profileHandler.Update)

	// Wardrobe routes
	wardrobe := api.Group("/wardrobe")
	wardrobe.Get("/", wardrobeHandler.List)
	wardrobe.Post("/", wardrobeHandler.Add)
	wardrobe.Put("/:id", wardrobeHandler.Update)
	wardrobe.Delete("/:id", wardrobeHandler.Remove)
	wardrobe.Post("/:id/wear", wardrobeHandler.Wear)
	wardrobe.Post("/:id/image", rateLimiter.UploadLimit(cfg.RateLimit.UploadPerHour), wardrobeHandler.UploadImage)

	// Considering routes
	considering := api.Group("/considering")
	considering.Get("/", consideringHandler.List)
	considering.Post("/", consideringHandler.Add)
	considering.Delete("/:id", consideringHandler.Remove)
	considering.Post("/:id/promote", consideringHandler.Promote)

	// Outfit routes
	outfits := api.Group("/outfits")
	outfits.Post("/generate", rateLimiter.OutfitsLimit(cfg.RateLimit.OutfitsPerHour), outfitHandler.Generate)
	outfits.Get("/", outfitHandler.List)
	outfits.Get("/:id", outfitHandler.Get)
	outfits.Post("/:id/dislike", outfitHandler.Dislike)

	// Visualization routes
	api.Post("/visualization/generate", rateLimiter.VisualizeLimit(cfg.RateLimit.VisualizePerHour), visualizationHandler.Generate)

	// Activity log
	api.Get("/activity", activityHandler.Get)

	// WebSocket routes
	app.Use("/ws", func(c *fiber.Ctx) error {
		if websocket.IsWebSocketUpgrade(c) {
			return c.Next()
		}
		return fiber.ErrUpgradeRequired
	})

	app.Get("/ws/jobs/:jobId", websocket.New(func(c *websocket.Conn) {
		jobID := c.Params("jobId")
		hub.HandleConnection(c, jobID)
	}))

	// Start Asynq worker server
	go startWorkerServer(cfg, logg, visualizationService, outfitService, profileStore, registry, blobs, activityService, hub)

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		<-quit
		logg.Info("shutting down server")
		if err := app.ShutdownWithTimeout(10 * time.Second); err != nil {
			logg.Error("server shutdown error", "error", err)
		}
	}()

	// Start server
	addr := ":" + cfg.Server.Port
	logg.Info("server starting", "addr", addr, "env", cfg.Server.Env)
	if err := app.Listen(addr); err != nil {
		logg.Error("server error", "error", err)
		os.Exit(1)
	}
}

func startWorkerServer(
	cfg *config.Config,
	logg *slog.Logger,
	visualizationService *service.VisualizationService,
	outfitService *service.OutfitService,
	profileStore store.ProfileStore,
	registry *client.VisualizerRegistry,
	blobs client.StorageClient,
	activityService *service.ActivityService,
	hub *ws.Hub,
) {
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
			// Image providers run tens of seconds per job; a small pool
			// keeps us inside their rate limits.
			Concurrency: 5,
			Queues: map[string]int{
				"visualize": 10,
			},
			Logger:   applogger.NewAsynq(logg),
			LogLevel: asynqLogLevel,
		},
	)

	visualizeWorker := worker.NewVisualizeWorker(
		visualizationService,
		outfitService,
		profileStore,
		registry,
		blobs,
		activityService,
		hub,
		logg,
	)

	mux := asynq.NewServeMux()
	mux.HandleFunc(service.TaskTypeVisualize, visualizeWorker.ProcessTask)

	if err := srv.Run(mux); err != nil {
		logg.Error("asynq worker error", "error", err)
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
