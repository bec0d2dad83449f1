package repository

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/gofrs/flock"
	"github.com/maheshrc27/crosspost/internal/models"
	"go.uber.org/zap"
)

// MediaLinkRepository is the append-only ledger of every uploaded asset.
// Records survive queue cleanup. Like the queue, it re-reads the file before
// every operation.
type MediaLinkRepository interface {
	Append(ctx context.Context, filename, url string, mediaType models.MediaType) (*models.MediaLinkRecord, error)
	List(ctx context.Context) ([]models.MediaLinkRecord, error)
}

type mediaLinkRepository struct {
	mu     sync.Mutex
	path   string
	flock  *flock.Flock
	links  []models.MediaLinkRecord
	now    func() time.Time
	logger *zap.Logger
}

func NewMediaLinkRepository(path string, logger *zap.Logger) MediaLinkRepository {
	if logger == nil {
		logger = zap.NewNop()
	}
	r := &mediaLinkRepository{
		path:   path,
		flock:  flock.New(path + ".write.lock"),
		now:    time.Now,
		logger: logger.Named("media_links"),
	}
	r.load()
	return r
}

func (r *mediaLinkRepository) load() {
	var links []models.MediaLinkRecord
	if _, err := readJSONFile(r.path, &links); err != nil {
		r.logger.Warn("media links file unreadable, starting empty", zap.String("path", r.path), zap.Error(err))
		links = nil
	}
	r.links = links
}

func (r *mediaLinkRepository) Append(ctx context.Context, filename, url string, mediaType models.MediaType) (*models.MediaLinkRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := os.MkdirAll(filepath.Dir(r.path), 0o755); err != nil {
		return nil, fmt.Errorf("create media links dir: %w", err)
	}
	if err := r.flock.Lock(); err != nil {
		return nil, fmt.Errorf("lock media links file: %w", err)
	}
	defer func() {
		if err := r.flock.Unlock(); err != nil {
			r.logger.Warn("failed to release media links write lock", zap.Error(err))
		}
	}()
	r.load()

	record := models.MediaLinkRecord{
		Filename:   filename,
		URL:        url,
		MediaType:  mediaType,
		UploadDate: models.NewTimestamp(r.now()),
	}

	next := append(append([]models.MediaLinkRecord(nil), r.links...), record)
	if err := writeJSONFile(r.path, next); err != nil {
		return nil, fmt.Errorf("save media links: %w", err)
	}
	r.links = next
	return &record, nil
}

func (r *mediaLinkRepository) List(ctx context.Context) ([]models.MediaLinkRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.load()
	return append([]models.MediaLinkRecord(nil), r.links...), nil
}
