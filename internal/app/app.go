// Package app wires the stores, publishers and jobs shared by the server and
// the CLI.
package app

import (
	"context"
	"database/sql"
	"fmt"
	"net/http"

	_ "github.com/lib/pq"
	config "github.com/maheshrc27/crosspost/configs"
	job "github.com/maheshrc27/crosspost/internal/jobs"
	"github.com/maheshrc27/crosspost/internal/repository"
	"github.com/maheshrc27/crosspost/internal/service"
	"go.uber.org/zap"
)

type App struct {
	Config       *config.Config
	Logger       *zap.Logger
	Queue        repository.QueueRepository
	Links        repository.MediaLinkRepository
	History      repository.PostingHistoryRepository
	QueueService service.QueueService
	Media        service.MediaService
	Orchestrator service.Orchestrator
	PostingJob   *job.PostingJob
	db           *sql.DB
}

// New builds the application. Posting history is only kept when
// POSTGRES_URI is set.
func New(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*App, error) {
	a := &App{
		Config: cfg,
		Logger: logger,
		Queue:  repository.NewQueueRepository(cfg.QueueFile, logger),
		Links:  repository.NewMediaLinkRepository(cfg.MediaLinkFile, logger),
	}
	a.QueueService = service.NewQueueService(a.Queue)

	var opts []service.OrchestratorOption
	if cfg.PostgresURI != "" {
		db, err := openDB(ctx, cfg.PostgresURI)
		if err != nil {
			return nil, err
		}
		a.db = db
		a.History = repository.NewPostingHistoryRepository(db)
		if err := a.History.EnsureSchema(ctx); err != nil {
			_ = db.Close()
			return nil, err
		}
		opts = append(opts, service.WithHistory(service.NewHistoryRecorder(a.History)))
	}

	client := &http.Client{Timeout: service.DefaultHTTPTimeout}
	a.Orchestrator = service.NewOrchestrator(Publishers(cfg, client, logger), logger, opts...)

	storage, err := service.NewStorageService(ctx, cfg.S3)
	if err != nil {
		a.Close()
		return nil, err
	}
	annotator, err := service.NewAnnotator(ctx, cfg.Bedrock, client, logger)
	if err != nil {
		a.Close()
		return nil, err
	}
	a.Media = service.NewMediaService(cfg, storage, annotator, a.Queue, a.Links, client, logger)

	a.PostingJob = job.NewPostingJob(a.Queue, a.QueueService, a.Media, a.Orchestrator, cfg.RetentionDays, cfg.RunTimeout, logger)
	return a, nil
}

// Publishers builds one publisher per platform with the configured polling
// overrides.
func Publishers(cfg *config.Config, client *http.Client, logger *zap.Logger) []service.Publisher {
	p := cfg.Polling
	return []service.Publisher{
		service.NewInstagramPublisher(cfg.Instagram, service.InstagramPollPolicy.WithOverrides(p.InstagramInterval, p.InstagramAttempts), client, logger),
		service.NewTiktokPublisher(cfg.Tiktok, service.TiktokPollPolicy.WithOverrides(p.TiktokInterval, p.TiktokAttempts), client, logger),
		service.NewTumblrPublisher(cfg.Tumblr, client, logger),
		service.NewBlueskyPublisher(cfg.Bluesky, client, logger),
		service.NewThreadsPublisher(cfg.Threads, service.ThreadsPollPolicy.WithOverrides(p.ThreadsInterval, p.ThreadsAttempts), client, logger),
	}
}

func openDB(ctx context.Context, uri string) (*sql.DB, error) {
	db, err := sql.Open("postgres", uri)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("database is unreachable: %w", err)
	}
	return db, nil
}

func (a *App) Close() error {
	if a.db == nil {
		return nil
	}
	a.Logger.Info("closing database connection")
	return a.db.Close()
}
