package service

import (
	"context"
	"encoding/json"

	"github.com/maheshrc27/crosspost/internal/logging"
	"github.com/maheshrc27/crosspost/internal/models"
	"github.com/maheshrc27/crosspost/internal/repository"
	"go.uber.org/zap"
)

type runIDKey struct{}

// WithRunID tags ctx with the id of the current posting run.
func WithRunID(ctx context.Context, runID string) context.Context {
	return context.WithValue(ctx, runIDKey{}, runID)
}

func RunIDFromContext(ctx context.Context) string {
	id, _ := ctx.Value(runIDKey{}).(string)
	return id
}

// HistoryRecorder receives one outcome per platform per run.
type HistoryRecorder interface {
	Record(ctx context.Context, contentID int64, platform models.Platform, result models.Result) error
}

type Orchestrator interface {
	PublishAll(ctx context.Context, item *models.ContentItem, captions map[models.Platform]string) map[models.Platform]models.Result
}

type OrchestratorOption func(*orchestrator)

func WithHistory(h HistoryRecorder) OrchestratorOption {
	return func(o *orchestrator) {
		o.history = h
	}
}

type orchestrator struct {
	publishers map[models.Platform]Publisher
	history    HistoryRecorder
	logger     *zap.Logger
}

func NewOrchestrator(publishers []Publisher, logger *zap.Logger, opts ...OrchestratorOption) Orchestrator {
	o := &orchestrator{
		publishers: make(map[models.Platform]Publisher, len(publishers)),
		logger:     logger.Named("orchestrator"),
	}
	for _, p := range publishers {
		o.publishers[p.Platform()] = p
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// PublishAll posts item to every platform in order. Platforms are
// independent; the returned map always holds all of them.
func (o *orchestrator) PublishAll(ctx context.Context, item *models.ContentItem, captions map[models.Platform]string) map[models.Platform]models.Result {
	results := make(map[models.Platform]models.Result, len(models.Platforms))

	for _, platform := range models.Platforms {
		logger := o.logger.With(logging.Platform(string(platform)), logging.ContentID(item.ID))

		caption, ok := captions[platform]
		if !ok {
			caption = captions[models.PlatformInstagram]
		}

		var result models.Result
		switch {
		case platform == models.PlatformTiktok && !item.IsVideo():
			result = models.Skipped(models.SkipUnsupportedMedia)
		case o.publishers[platform] == nil:
			logger.Warn("no publisher registered")
			result = models.Failed(reasonNotConfigured)
		default:
			req := PublishRequest{
				Item:     item,
				Caption:  caption,
				Hashtags: item.Hashtags,
			}
			if platform == models.PlatformBluesky {
				req.Facets = BlueskyFacets(caption, item.Hashtags)
			}
			logger.Info("publishing", zap.String("media_type", string(item.MediaType)))
			result = safePublish(ctx, o.publishers[platform], req, logger)
		}

		logger.Info("publish finished", zap.String("result", result.String()))
		results[platform] = result
		o.record(ctx, item.ID, platform, result, logger)
	}

	return results
}

func (o *orchestrator) record(ctx context.Context, contentID int64, platform models.Platform, result models.Result, logger *zap.Logger) {
	if o.history == nil {
		return
	}
	if err := o.history.Record(context.WithoutCancel(ctx), contentID, platform, result); err != nil {
		logger.Warn("failed to record posting history", zap.Error(err))
	}
}

// ResolveCaptions returns the captions frozen on the item, or composes them
// from its annotation when none were stored.
func ResolveCaptions(item *models.ContentItem) map[models.Platform]string {
	if len(item.PlatformCaptions) > 0 {
		return item.PlatformCaptions
	}
	return CaptionsFor(AnnotationOf(item))
}

type historyRecorder struct {
	repo repository.PostingHistoryRepository
}

// NewHistoryRecorder stores outcomes as posting_history rows.
func NewHistoryRecorder(repo repository.PostingHistoryRepository) HistoryRecorder {
	return &historyRecorder{repo: repo}
}

func (h *historyRecorder) Record(ctx context.Context, contentID int64, platform models.Platform, result models.Result) error {
	detail := result.Reason
	if result.Kind == models.ResultSuccess {
		if data, err := json.Marshal(models.NormalizeResult(result)); err == nil {
			detail = string(data)
		}
	}

	_, err := h.repo.Create(ctx, &models.PostingHistory{
		RunID:     RunIDFromContext(ctx),
		ContentID: contentID,
		Platform:  platform,
		Outcome:   result.Kind,
		Detail:    detail,
	})
	return err
}
