package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/h2non/filetype"
	config "github.com/maheshrc27/crosspost/configs"
	"github.com/maheshrc27/crosspost/internal/models"
	"github.com/maheshrc27/crosspost/internal/repository"
	gonanoid "github.com/matoous/go-nanoid/v2"
	"go.uber.org/zap"
)

var (
	imageExtensions = map[string]bool{".jpg": true, ".jpeg": true, ".png": true, ".gif": true, ".webp": true}
	videoExtensions = map[string]bool{".mp4": true, ".mov": true, ".avi": true, ".webm": true}
)

// IngestedMedia describes one file moved from the media folder into the
// queue.
type IngestedMedia struct {
	Filename  string           `json:"filename"`
	URL       string           `json:"url"`
	MediaType models.MediaType `json:"media_type"`
	QueueID   int64            `json:"queue_id"`
}

type MediaService interface {
	Ingest(ctx context.Context) ([]IngestedMedia, error)
	EnsureLocalFile(ctx context.Context, item *models.ContentItem) (string, error)
	CleanupTempFiles(ctx context.Context, olderThan time.Duration) (int, error)
}

type mediaService struct {
	cfg       *config.Config
	storage   StorageService
	annotator Annotator
	queue     repository.QueueRepository
	links     repository.MediaLinkRepository
	client    *http.Client
	logger    *zap.Logger
}

func NewMediaService(
	cfg *config.Config,
	storage StorageService,
	annotator Annotator,
	queue repository.QueueRepository,
	links repository.MediaLinkRepository,
	client *http.Client,
	logger *zap.Logger) MediaService {
	return &mediaService{
		cfg:       cfg,
		storage:   storage,
		annotator: annotator,
		queue:     queue,
		links:     links,
		client:    httpClientOrDefault(client),
		logger:    logger.Named("media"),
	}
}

// Ingest uploads every supported file in the media folder, annotates it and
// queues it. Sources are removed once queued. A failing file is logged and
// left in place.
func (s *mediaService) Ingest(ctx context.Context) ([]IngestedMedia, error) {
	entries, err := os.ReadDir(s.cfg.MediaDir)
	if errors.Is(err, os.ErrNotExist) {
		s.logger.Info("media folder does not exist", zap.String("dir", s.cfg.MediaDir))
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read media folder: %w", err)
	}

	var ingested []IngestedMedia
	var errs []error
	for _, entry := range entries {
		if entry.IsDir() || strings.HasPrefix(entry.Name(), ".") {
			continue
		}
		if err := ctx.Err(); err != nil {
			return ingested, err
		}

		media, err := s.ingestFile(ctx, entry.Name())
		if err != nil {
			s.logger.Error("failed to ingest media", zap.String("filename", entry.Name()), zap.Error(err))
			errs = append(errs, fmt.Errorf("%s: %w", entry.Name(), err))
			continue
		}
		if media != nil {
			ingested = append(ingested, *media)
		}
	}

	s.logger.Info("media ingest finished", zap.Int("processed", len(ingested)), zap.Int("failed", len(errs)))
	return ingested, errors.Join(errs...)
}

func (s *mediaService) ingestFile(ctx context.Context, filename string) (*IngestedMedia, error) {
	source := filepath.Join(s.cfg.MediaDir, filename)
	data, err := os.ReadFile(source)
	if err != nil {
		return nil, err
	}

	mediaType, ok := DetectMediaType(filename, data)
	if !ok {
		s.logger.Info("skipping unsupported file", zap.String("filename", filename))
		return nil, nil
	}

	id, err := gonanoid.New()
	if err != nil {
		return nil, fmt.Errorf("generate key: %w", err)
	}
	objectName := id + "-" + filename
	key := objectName
	if s.cfg.S3.Prefix != "" {
		key = strings.TrimSuffix(s.cfg.S3.Prefix, "/") + "/" + objectName
	}

	url, err := s.storage.Upload(ctx, key, data, contentType(data, mediaType))
	if err != nil {
		return nil, err
	}
	s.logger.Info("uploaded media", zap.String("key", key), zap.String("url", url))

	localPath := filepath.Join(s.cfg.DownloadDir, objectName)
	if err := writeFileAtomic(localPath, data); err != nil {
		return nil, fmt.Errorf("keep local copy: %w", err)
	}

	annotation := s.annotator.Annotate(ctx, url)
	item, err := s.queue.Append(ctx, &models.ContentItem{
		Filename:           filename,
		URL:                url,
		MediaType:          mediaType,
		LocalPath:          localPath,
		Kaomoji:            annotation.Kaomoji,
		FunFact:            annotation.FunFact,
		FunFactFollowup:    annotation.FunFactFollowup,
		Hashtags:           annotation.Hashtags,
		PlatformCaptions:   CaptionsFor(annotation),
		EngagementHookUsed: !annotation.IsEmpty(),
	})
	if err != nil {
		return nil, err
	}

	if _, err := s.links.Append(ctx, filename, url, mediaType); err != nil {
		s.logger.Warn("failed to record media link", zap.String("filename", filename), zap.Error(err))
	}
	if err := os.Remove(source); err != nil {
		s.logger.Warn("failed to remove source file", zap.String("path", source), zap.Error(err))
	}

	return &IngestedMedia{Filename: filename, URL: url, MediaType: mediaType, QueueID: item.ID}, nil
}

// DetectMediaType sniffs the content first and falls back to the extension.
func DetectMediaType(filename string, data []byte) (models.MediaType, bool) {
	switch {
	case filetype.IsImage(data):
		return models.MediaTypeImage, true
	case filetype.IsVideo(data):
		return models.MediaTypeVideo, true
	}

	ext := strings.ToLower(filepath.Ext(filename))
	switch {
	case imageExtensions[ext]:
		return models.MediaTypeImage, true
	case videoExtensions[ext]:
		return models.MediaTypeVideo, true
	}
	return "", false
}

func contentType(data []byte, mediaType models.MediaType) string {
	if kind, err := filetype.Match(data); err == nil && kind != filetype.Unknown {
		return kind.MIME.Value
	}
	if mediaType == models.MediaTypeVideo {
		return "video/mp4"
	}
	return "image/jpeg"
}

// EnsureLocalFile returns a local path for the item, downloading it from its
// URL when missing. Items without a local_path go to DOWNLOAD_DIR/filename.
func (s *mediaService) EnsureLocalFile(ctx context.Context, item *models.ContentItem) (string, error) {
	path := s.localPathFor(item)
	if _, err := os.Stat(path); err == nil {
		return path, nil
	}

	s.logger.Info("downloading media", zap.String("url", item.URL), zap.String("path", path))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, item.URL, nil)
	if err != nil {
		return "", fmt.Errorf("error creating request: %w", err)
	}
	resp, err := s.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("download %s: %w", item.URL, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("download %s: unexpected status code %d", item.URL, resp.StatusCode)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("download %s: %w", item.URL, err)
	}
	if err := writeFileAtomic(path, data); err != nil {
		return "", err
	}
	return path, nil
}

func (s *mediaService) localPathFor(item *models.ContentItem) string {
	if item.LocalPath != "" {
		return item.LocalPath
	}
	return filepath.Join(s.cfg.DownloadDir, filepath.Base(item.Filename))
}

// CleanupTempFiles removes files in DOWNLOAD_DIR older than olderThan. Files
// that a pending queue item still points at are kept.
func (s *mediaService) CleanupTempFiles(ctx context.Context, olderThan time.Duration) (int, error) {
	entries, err := os.ReadDir(s.cfg.DownloadDir)
	if errors.Is(err, os.ErrNotExist) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("read download dir: %w", err)
	}

	pending, err := s.queue.ListUnposted(ctx)
	if err != nil {
		return 0, fmt.Errorf("list pending content: %w", err)
	}
	inUse := make(map[string]bool, len(pending))
	for _, item := range pending {
		inUse[filepath.Clean(s.localPathFor(item))] = true
	}

	cutoff := time.Now().Add(-olderThan)
	removed := 0
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		info, err := entry.Info()
		if err != nil || !info.ModTime().Before(cutoff) {
			continue
		}
		path := filepath.Join(s.cfg.DownloadDir, entry.Name())
		if inUse[filepath.Clean(path)] {
			continue
		}
		if err := os.Remove(path); err != nil {
			s.logger.Warn("failed to remove temp file", zap.String("filename", entry.Name()), zap.Error(err))
			continue
		}
		removed++
	}
	if removed > 0 {
		s.logger.Info("cleaned up temp files", zap.Int("removed", removed))
	}
	return removed, nil
}

func writeFileAtomic(path string, data []byte) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create directory: %w", err)
	}
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", tmp, err)
	}
	if err := os.Rename(tmp, path); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("rename %s: %w", tmp, err)
	}
	return nil
}
