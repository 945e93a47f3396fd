package main

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/compress"
	"github.com/gofiber/fiber/v2/middleware/cors"
	fiberlogger "github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"go.uber.org/zap"

	"github.com/savemedia/gateway/internal/config"
	"github.com/savemedia/gateway/internal/download"
	"github.com/savemedia/gateway/internal/extractor"
	"github.com/savemedia/gateway/internal/handlers"
	"github.com/savemedia/gateway/internal/logger"
	"github.com/savemedia/gateway/internal/metrics"
	"github.com/savemedia/gateway/internal/middleware"
	"github.com/savemedia/gateway/internal/resolver"
	"github.com/savemedia/gateway/internal/shutdown"
	"github.com/savemedia/gateway/internal/types"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal("Failed to load configuration:", err)
	}

	var zapLogger *zap.Logger
	if cfg.Logger.Dir != "" {
		zapLogger, err = logger.NewProduction(cfg.Logger.Dir)
	} else if cfg.IsProduction() {
		zapLogger, err = logger.New(logger.Config{
			Level:         cfg.Logger.Level,
			Format:        cfg.Logger.Format,
			ConsoleOutput: true,
		})
	} else {
		zapLogger, err = logger.NewDevelopment()
	}
	if err != nil {
		log.Fatal("Failed to initialize logger:", err)
	}
	defer zapLogger.Sync()

	// yt-dlp wrapper with circuit breaker and bounded retries
	ytdlp := extractor.NewClient(extractor.Config{
		BinaryPath:      cfg.Extractor.YtdlpPath,
		MetadataTimeout: cfg.Extractor.MetadataTimeout,
		StreamTimeout:   cfg.Extractor.StreamTimeout,
		Retries:         cfg.Extractor.Retries,
	}, zapLogger)

	metadataResolver := resolver.New(ytdlp, zapLogger)
	supervisor := download.NewSupervisor(metadataResolver, ytdlp, metrics.Get(), zapLogger)

	infoHandler := handlers.NewInfoHandler(metadataResolver, zapLogger, cfg.IsProduction())
	downloadHandler := handlers.NewDownloadHandler(supervisor, zapLogger, cfg.IsProduction())
	healthHandler := handlers.NewHealthHandler(ytdlp, metadataResolver, zapLogger)

	app := fiber.New(fiber.Config{
		AppName:      "Media Download Gateway",
		ReadTimeout:  cfg.API.ReadTimeout,
		WriteTimeout: cfg.API.WriteTimeout,
		BodyLimit:    cfg.API.BodyLimit,
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			zapLogger.Error("Unhandled request error",
				zap.String("path", c.Path()),
				zap.Error(err),
			)
			return c.Status(fiber.StatusInternalServerError).JSON(types.ErrorResponse{
				Error: "Internal server error",
			})
		},
	})

	// Middleware stack
	app.Use(recover.New())
	app.Use(compress.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins: cfg.CORS.Origins,
		AllowMethods: "GET,POST,OPTIONS",
		AllowHeaders: "Origin,Content-Type,Accept",
	}))
	app.Use(fiberlogger.New(fiberlogger.Config{
		Format: "[${time}] ${status} - ${latency} ${method} ${path}\n",
	}))
	app.Use(func(c *fiber.Ctx) error {
		metrics.Get().IncrementRequests()
		return c.Next()
	})

	// Per-IP rate limits; downloads get a tighter budget
	generalLimiter := middleware.NewRateLimiter(cfg.RateLimit.GeneralMax, cfg.RateLimit.Window)
	downloadLimiter := middleware.NewRateLimiter(cfg.RateLimit.DownloadMax, cfg.RateLimit.Window)

	api := app.Group("/api")
	api.Get("/health", healthHandler.HandleHealth)
	api.Get("/platforms", handlers.HandlePlatforms)
	api.Get("/metrics", healthHandler.HandleMetrics)
	api.Post("/info", generalLimiter.Middleware(), infoHandler.HandleInfo)
	api.Post("/download", downloadLimiter.Middleware(), downloadHandler.HandleDownload)

	app.Use(func(c *fiber.Ctx) error {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "Endpoint not found",
			"available_endpoints": []string{
				"GET /api/health",
				"GET /api/platforms",
				"GET /api/metrics",
				"POST /api/info",
				"POST /api/download",
			},
		})
	})

	addr := fmt.Sprintf("%s:%d", cfg.API.Host, cfg.API.Port)
	go func() {
		zapLogger.Info("Starting media download gateway",
			zap.String("addr", addr),
			zap.String("environment", cfg.API.Environment),
			zap.String("ytdlp_path", cfg.Extractor.YtdlpPath),
		)
		if err := app.Listen(addr); err != nil {
			zapLogger.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	gs := shutdown.NewGracefulShutdown(zapLogger, 30*time.Second)
	gs.Register(func(ctx context.Context) error {
		return app.ShutdownWithContext(ctx)
	})
	gs.Register(func(ctx context.Context) error {
		generalLimiter.Close()
		downloadLimiter.Close()
		return nil
	})
	gs.Wait()

	zapLogger.Info("Server stopped")
}
