package job

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/gofrs/flock"
	"github.com/google/uuid"
	"github.com/maheshrc27/crosspost/internal/logging"
	"github.com/maheshrc27/crosspost/internal/models"
	"github.com/maheshrc27/crosspost/internal/repository"
	"github.com/maheshrc27/crosspost/internal/service"
	"go.uber.org/zap"
)

// ErrRunInProgress is returned when another process holds the run lock.
var ErrRunInProgress = errors.New("a posting run is already in progress")

const tempFileMaxAge = 24 * time.Hour

// RunSummary describes one posting run. ContentID is zero when the queue had
// nothing pending.
type RunSummary struct {
	RunID     string                            `json:"run_id"`
	ContentID int64                             `json:"content_id,omitempty"`
	Results   map[models.Platform]models.Result `json:"-"`
	Posted    map[string]any                    `json:"posting_results,omitempty"`
	Succeeded int                               `json:"succeeded"`
	Skipped   int                               `json:"skipped"`
	Failed    int                               `json:"failed"`
	Cleaned   int                               `json:"cleaned"`
}

type PostingJob struct {
	queue         repository.QueueRepository
	selector      service.QueueService
	media         service.MediaService
	orchestrator  service.Orchestrator
	retentionDays int
	timeout       time.Duration
	lock          *flock.Flock
	logger        *zap.Logger
}

func NewPostingJob(
	queue repository.QueueRepository,
	selector service.QueueService,
	media service.MediaService,
	orchestrator service.Orchestrator,
	retentionDays int,
	timeout time.Duration,
	logger *zap.Logger) *PostingJob {
	return &PostingJob{
		queue:         queue,
		selector:      selector,
		media:         media,
		orchestrator:  orchestrator,
		retentionDays: retentionDays,
		timeout:       timeout,
		lock:          flock.New(queue.Path() + ".lock"),
		logger:        logger.Named("posting_job"),
	}
}

// RunScheduled is the cron entry point.
func (j *PostingJob) RunScheduled() {
	if _, err := j.Run(context.Background()); err != nil {
		if errors.Is(err, ErrRunInProgress) {
			j.logger.Info("skipping scheduled run, another run holds the lock")
			return
		}
		j.logger.Error("scheduled posting run failed", zap.Error(err))
	}
}

// Run posts one random pending item to every platform, marks it posted and
// applies retention. Errors before MarkPosted leave the item pending.
func (j *PostingJob) Run(ctx context.Context) (*RunSummary, error) {
	if err := os.MkdirAll(filepath.Dir(j.lock.Path()), 0o755); err != nil {
		return nil, fmt.Errorf("create lock directory: %w", err)
	}
	locked, err := j.lock.TryLock()
	if err != nil {
		return nil, fmt.Errorf("acquire run lock: %w", err)
	}
	if !locked {
		return nil, ErrRunInProgress
	}
	defer func() {
		if err := j.lock.Unlock(); err != nil {
			j.logger.Warn("failed to release run lock", zap.Error(err))
		}
	}()

	summary := &RunSummary{RunID: uuid.NewString()}
	ctx = service.WithRunID(ctx, summary.RunID)
	logger := j.logger.With(zap.String("run_id", summary.RunID))

	// Other processes may have appended since this handle last read the file.
	if _, err := j.queue.Load(ctx); err != nil {
		return nil, fmt.Errorf("load queue: %w", err)
	}

	// Once publishing starts, the outcome must be recorded even if the
	// deadline or the caller cancels.
	persistCtx := context.WithoutCancel(ctx)

	item, err := j.selector.NextUnposted(ctx)
	if err != nil {
		return nil, fmt.Errorf("select content: %w", err)
	}
	if item == nil {
		logger.Info("no unposted content in queue")
		j.applyRetention(persistCtx, summary, logger)
		return summary, nil
	}
	summary.ContentID = item.ID
	logger = logger.With(logging.ContentID(item.ID))
	logger.Info("selected content", zap.String("filename", item.Filename), zap.String("media_type", string(item.MediaType)))

	publishCtx := ctx
	if j.timeout > 0 {
		var cancel context.CancelFunc
		publishCtx, cancel = context.WithTimeout(ctx, j.timeout)
		defer cancel()
	}

	if path, err := j.media.EnsureLocalFile(publishCtx, item); err != nil {
		logger.Warn("local copy unavailable, file uploads will fail", zap.Error(err))
	} else {
		item.LocalPath = path
	}

	results := j.orchestrator.PublishAll(publishCtx, item, service.ResolveCaptions(item))
	summary.Results = results
	summary.Posted = models.NormalizeResults(results)
	j.logSummary(logger, summary)
	if err := publishCtx.Err(); err != nil {
		logger.Warn("publish phase ended early", zap.Error(err))
	}

	if _, err := j.queue.MarkPosted(persistCtx, item.ID, results); err != nil {
		return summary, fmt.Errorf("mark posted: %w", err)
	}

	j.applyRetention(persistCtx, summary, logger)
	return summary, nil
}

func (j *PostingJob) logSummary(logger *zap.Logger, summary *RunSummary) {
	for _, platform := range models.Platforms {
		result := summary.Results[platform]
		switch result.Kind {
		case models.ResultSuccess:
			summary.Succeeded++
		case models.ResultSkipped:
			summary.Skipped++
		default:
			summary.Failed++
		}
		logger.Info("platform result", logging.Platform(string(platform)), zap.String("result", result.String()))
	}
	logger.Info("posting run finished",
		zap.Int("succeeded", summary.Succeeded),
		zap.Int("skipped", summary.Skipped),
		zap.Int("failed", summary.Failed))
}

func (j *PostingJob) applyRetention(ctx context.Context, summary *RunSummary, logger *zap.Logger) {
	cleaned, err := j.queue.CleanupOlderThan(ctx, j.retentionDays)
	if err != nil {
		logger.Warn("queue cleanup failed", zap.Error(err))
	}
	summary.Cleaned = cleaned

	if _, err := j.media.CleanupTempFiles(ctx, tempFileMaxAge); err != nil {
		logger.Warn("temp file cleanup failed", zap.Error(err))
	}

	status, err := j.queue.Status(ctx)
	if err != nil {
		logger.Warn("failed to read queue status", zap.Error(err))
		return
	}
	logger.Info("queue status",
		zap.Int("total", status.TotalItems),
		zap.Int("posted", status.PostedItems),
		zap.Int("pending", status.PendingItems))
}
