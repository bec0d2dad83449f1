package repository

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/gofrs/flock"
	"github.com/maheshrc27/crosspost/internal/models"
	"go.uber.org/zap"
)

var ErrContentNotFound = errors.New("content item not found")

// QueueRepository owns the posting queue file. Every operation re-reads the
// file first and every mutation rewrites the whole file before returning, so
// handles in other processes (CLI, server, worker) see each other's writes.
// Mutations hold an advisory lock on <path>.write.lock for the read-modify-write.
type QueueRepository interface {
	Load(ctx context.Context) ([]*models.ContentItem, error)
	List(ctx context.Context) ([]*models.ContentItem, error)
	ListUnposted(ctx context.Context) ([]*models.ContentItem, error)
	GetByID(ctx context.Context, id int64) (*models.ContentItem, error)
	Append(ctx context.Context, item *models.ContentItem) (*models.ContentItem, error)
	MarkPosted(ctx context.Context, id int64, results map[models.Platform]models.Result) (*models.ContentItem, error)
	CleanupOlderThan(ctx context.Context, days int) (int, error)
	Status(ctx context.Context) (models.QueueStatus, error)
	Path() string
}

type QueueOption func(*queueRepository)

// WithClock overrides time.Now for posted_date and cleanup cutoffs.
func WithClock(now func() time.Time) QueueOption {
	return func(r *queueRepository) {
		r.now = now
	}
}

type queueRepository struct {
	mu     sync.Mutex
	path   string
	flock  *flock.Flock
	items  []*models.ContentItem
	now    func() time.Time
	logger *zap.Logger
}

// NewQueueRepository opens the queue at path and loads it.
func NewQueueRepository(path string, logger *zap.Logger, opts ...QueueOption) QueueRepository {
	if logger == nil {
		logger = zap.NewNop()
	}
	r := &queueRepository{
		path:   path,
		flock:  flock.New(path + ".write.lock"),
		now:    time.Now,
		logger: logger.Named("queue"),
	}
	for _, opt := range opts {
		opt(r)
	}
	r.load()
	return r
}

func (r *queueRepository) Path() string {
	return r.path
}

// Load re-reads the file. A missing or corrupt file yields an empty queue.
// Duplicate ids are fixed and the fix is written back immediately.
func (r *queueRepository) Load(ctx context.Context) ([]*models.ContentItem, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	r.load()
	return cloneItems(r.items), nil
}

func (r *queueRepository) load() {
	var items []*models.ContentItem
	if _, err := readJSONFile(r.path, &items); err != nil {
		r.logger.Warn("queue file unreadable, starting with an empty queue",
			zap.String("path", r.path), zap.Error(err))
		items = nil
	}

	kept := items[:0]
	for _, item := range items {
		if item != nil {
			kept = append(kept, item)
		}
	}
	items = kept

	if fixed := ReconcileIDs(items); len(fixed) > 0 {
		for _, f := range fixed {
			r.logger.Warn("fixed duplicate content id",
				zap.Int64("old_id", f.OldID),
				zap.Int64("new_id", f.NewID),
				zap.String("filename", f.Filename))
		}
		if err := writeJSONFile(r.path, items); err != nil {
			r.logger.Error("failed to save queue with fixed ids", zap.Error(err))
		} else {
			r.logger.Info("saved queue with fixed duplicate ids", zap.Int("fixed", len(fixed)))
		}
	}

	r.items = items
}

// lockFile takes the cross-process write lock and reloads the queue under it.
func (r *queueRepository) lockFile() (func(), error) {
	if err := os.MkdirAll(filepath.Dir(r.path), 0o755); err != nil {
		return nil, fmt.Errorf("create queue dir: %w", err)
	}
	if err := r.flock.Lock(); err != nil {
		return nil, fmt.Errorf("lock queue file: %w", err)
	}
	r.load()
	return func() {
		if err := r.flock.Unlock(); err != nil {
			r.logger.Warn("failed to release queue write lock", zap.Error(err))
		}
	}, nil
}

func (r *queueRepository) List(ctx context.Context) ([]*models.ContentItem, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.load()
	return cloneItems(r.items), nil
}

func (r *queueRepository) ListUnposted(ctx context.Context) ([]*models.ContentItem, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.load()

	var unposted []*models.ContentItem
	for _, item := range r.items {
		if !item.Posted {
			unposted = append(unposted, cloneItem(item))
		}
	}
	return unposted, nil
}

func (r *queueRepository) GetByID(ctx context.Context, id int64) (*models.ContentItem, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.load()

	item := r.find(id)
	if item == nil {
		return nil, ErrContentNotFound
	}
	return cloneItem(item), nil
}

// Append assigns id = max(existing)+1 and persists.
func (r *queueRepository) Append(ctx context.Context, item *models.ContentItem) (*models.ContentItem, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if item == nil {
		return nil, errors.New("content item is nil")
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	unlock, err := r.lockFile()
	if err != nil {
		return nil, err
	}
	defer unlock()

	added := cloneItem(item)
	added.ID = r.maxID() + 1
	added.AddedDate = models.NewTimestamp(r.now())
	added.Posted = false
	added.PostedDate = nil
	added.PostingResults = map[string]any{}
	if len(added.Hashtags) > models.MaxHashtags {
		added.Hashtags = added.Hashtags[:models.MaxHashtags]
	}
	if added.Hashtags == nil {
		added.Hashtags = []string{}
	}
	if added.PlatformCaptions == nil {
		added.PlatformCaptions = map[models.Platform]string{}
	}

	next := append(r.items, added)
	if err := writeJSONFile(r.path, next); err != nil {
		return nil, fmt.Errorf("save queue: %w", err)
	}
	r.items = next

	r.logger.Info("added to queue",
		zap.Int64("id", added.ID),
		zap.String("filename", added.Filename),
		zap.String("url", added.URL))
	return cloneItem(added), nil
}

// MarkPosted flags the item as posted with normalised results. Calling it
// again overwrites both posted_date and posting_results. It ignores ctx
// cancellation: the publishes it records have already happened.
func (r *queueRepository) MarkPosted(_ context.Context, id int64, results map[models.Platform]models.Result) (*models.ContentItem, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	unlock, err := r.lockFile()
	if err != nil {
		return nil, err
	}
	defer unlock()

	item := r.find(id)
	if item == nil {
		return nil, fmt.Errorf("mark posted %d: %w", id, ErrContentNotFound)
	}

	previous := *item
	postedAt := models.NewTimestamp(r.now())
	item.Posted = true
	item.PostedDate = &postedAt
	item.PostingResults = models.NormalizeResults(results)

	if err := writeJSONFile(r.path, r.items); err != nil {
		*item = previous
		return nil, fmt.Errorf("save queue: %w", err)
	}

	r.logger.Info("marked as posted", zap.Int64("id", id))
	return cloneItem(item), nil
}

// CleanupOlderThan drops posted items whose posted_date is before now-days.
// Unposted items are always kept.
func (r *queueRepository) CleanupOlderThan(ctx context.Context, days int) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	unlock, err := r.lockFile()
	if err != nil {
		return 0, err
	}
	defer unlock()

	cutoff := r.now().AddDate(0, 0, -days)
	kept := make([]*models.ContentItem, 0, len(r.items))
	for _, item := range r.items {
		if !item.Posted {
			kept = append(kept, item)
			continue
		}
		if item.PostedDate != nil && !item.PostedDate.IsZero() && item.PostedDate.After(cutoff) {
			kept = append(kept, item)
		}
	}

	removed := len(r.items) - len(kept)
	if removed == 0 {
		return 0, nil
	}
	if err := writeJSONFile(r.path, kept); err != nil {
		return 0, fmt.Errorf("save queue: %w", err)
	}
	r.items = kept

	r.logger.Info("cleaned up old posted items", zap.Int("removed", removed), zap.Int("days", days))
	return removed, nil
}

func (r *queueRepository) Status(ctx context.Context) (models.QueueStatus, error) {
	if err := ctx.Err(); err != nil {
		return models.QueueStatus{}, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.load()

	status := models.QueueStatus{TotalItems: len(r.items)}
	for _, item := range r.items {
		if item.Posted {
			status.PostedItems++
		}
	}
	status.PendingItems = status.TotalItems - status.PostedItems
	return status, nil
}

func (r *queueRepository) find(id int64) *models.ContentItem {
	for _, item := range r.items {
		if item.ID == id {
			return item
		}
	}
	return nil
}

func (r *queueRepository) maxID() int64 {
	var max int64
	for _, item := range r.items {
		if item.ID > max {
			max = item.ID
		}
	}
	return max
}

func cloneItems(items []*models.ContentItem) []*models.ContentItem {
	out := make([]*models.ContentItem, 0, len(items))
	for _, item := range items {
		out = append(out, cloneItem(item))
	}
	return out
}

func cloneItem(item *models.ContentItem) *models.ContentItem {
	c := *item
	if item.Hashtags != nil {
		c.Hashtags = append([]string(nil), item.Hashtags...)
	}
	if item.PlatformCaptions != nil {
		c.PlatformCaptions = make(map[models.Platform]string, len(item.PlatformCaptions))
		for k, v := range item.PlatformCaptions {
			c.PlatformCaptions[k] = v
		}
	}
	if item.PostingResults != nil {
		c.PostingResults = make(map[string]any, len(item.PostingResults))
		for k, v := range item.PostingResults {
			c.PostingResults[k] = v
		}
	}
	if item.PostedDate != nil {
		posted := *item.PostedDate
		c.PostedDate = &posted
	}
	return &c
}
