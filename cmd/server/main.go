package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/hibiken/asynq"
	"github.com/joho/godotenv"
	config "github.com/maheshrc27/crosspost/configs"
	"github.com/maheshrc27/crosspost/internal/api/handlers"
	"github.com/maheshrc27/crosspost/internal/api/middleware"
	"github.com/maheshrc27/crosspost/internal/app"
	"github.com/maheshrc27/crosspost/internal/logging"
	"github.com/maheshrc27/crosspost/internal/queue"
	"github.com/robfig/cron"
	"go.uber.org/zap"
)

func main() {
	envErr := godotenv.Load()

	cfg, err := config.LoadConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}

	log, err := logging.New(logging.Options{Level: cfg.LogLevel, Format: cfg.LogFormat})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to build logger: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = log.Sync() }()
	if envErr != nil {
		log.Warn("failed to load .env file", zap.Error(envErr))
	}

	ctx := context.Background()
	a, err := app.New(ctx, cfg, log)
	if err != nil {
		log.Fatal("failed to initialise application", zap.Error(err))
	}

	var client *asynq.Client
	var worker *asynq.Server
	if cfg.RedisURI != "" {
		redisConn := asynq.RedisClientOpt{Addr: cfg.RedisURI}
		client = asynq.NewClient(redisConn)
		defer client.Close()

		worker = asynq.NewServer(redisConn, asynq.Config{
			Concurrency: 1,
			Logger:      log.Named("asynq").Sugar(),
		})
		q := queue.NewQueue(a.PostingJob, log)
		go func() {
			log.Info("starting the asynq server")
			if err := worker.Run(q.Mux()); err != nil {
				log.Fatal("could not start asynq server", zap.Error(err))
			}
		}()
	} else {
		log.Info("REDIS_URI not set, posting runs execute in process")
	}

	c := cron.New()
	err = c.AddFunc(cfg.PostSchedule, func() {
		if client == nil {
			a.PostingJob.RunScheduled()
			return
		}
		if _, err := queue.EnqueueRun(client, queue.RunPostingPayload{Trigger: "cron"}, 0); err != nil {
			log.Warn("failed to enqueue scheduled run", zap.Error(err))
		}
	})
	if err != nil {
		log.Fatal("invalid POST_SCHEDULE", zap.String("schedule", cfg.PostSchedule), zap.Error(err))
	}
	c.Start()

	server := fiber.New(fiber.Config{
		ReadTimeout:  10 * time.Minute,
		WriteTimeout: 10 * time.Minute,
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			log.Error("request failed", zap.String("path", c.Path()), zap.Error(err))
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
		},
	})

	server.Use(logger.New())
	server.Use(cors.New(cors.Config{
		AllowOrigins: "*",
		AllowMethods: "GET,POST,OPTIONS",
		AllowHeaders: "Origin, Content-Type, Accept, Authorization, X-API-Key",
		MaxAge:       3600,
	}))

	server.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok"})
	})

	authMiddleware := middleware.NewAuthMiddleware(*cfg, log)
	api := server.Group("/api")
	api.Use(authMiddleware.AuthMiddleware())

	queueHandler := handlers.NewQueueHandler(a.QueueService, a.Queue, a.PostingJob, client, cfg.RetentionDays, log)
	api.Get("/queue/status", queueHandler.Status)
	api.Get("/queue", queueHandler.ListItems)
	api.Post("/queue/run", queueHandler.TriggerRun)
	api.Post("/queue/cleanup", queueHandler.Cleanup)

	links := handlers.NewMediaLinkHandler(a.Links, log)
	api.Get("/media-links", links.ListLinks)

	go func() {
		if err := server.Listen(cfg.HTTPAddr); err != nil {
			log.Fatal("failed to start server", zap.Error(err))
		}
	}()
	log.Info("server is running", zap.String("addr", cfg.HTTPAddr), zap.String("schedule", cfg.PostSchedule))

	gracefulShutdown(server, c, worker, a, log)
}

func gracefulShutdown(server *fiber.App, c *cron.Cron, worker *asynq.Server, a *app.App, log *zap.Logger) {
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)

	<-quit
	log.Info("shutting down server")

	c.Stop()
	if worker != nil {
		worker.Shutdown()
	}
	if err := server.Shutdown(); err != nil {
		log.Error("failed to shut down server", zap.Error(err))
	}
	if err := a.Close(); err != nil {
		log.Error("failed to close database", zap.Error(err))
	}
	log.Info("server shutdown complete")
}
