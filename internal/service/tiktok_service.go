package service

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"

	config "github.com/maheshrc27/crosspost/configs"
	"github.com/maheshrc27/crosspost/internal/models"
	"github.com/maheshrc27/crosspost/internal/transfer"
	"go.uber.org/zap"
	"golang.org/x/oauth2"
)

const (
	tiktokPrivacyPublic = "PUBLIC_TO_EVERYONE"
	tiktokCoverMs       = 1000
)

type tiktokPublisher struct {
	cfg    config.Tiktok
	poll   PollPolicy
	client *http.Client
	logger *zap.Logger
}

// NewTiktokPublisher posts videos through the Content Posting API using a
// single-chunk file upload.
func NewTiktokPublisher(cfg config.Tiktok, poll PollPolicy, client *http.Client, logger *zap.Logger) Publisher {
	return &tiktokPublisher{
		cfg:    cfg,
		poll:   poll,
		client: httpClientOrDefault(client),
		logger: logger.With(zap.String("platform", string(models.PlatformTiktok))),
	}
}

func (s *tiktokPublisher) Platform() models.Platform {
	return models.PlatformTiktok
}

func (s *tiktokPublisher) Publish(ctx context.Context, req PublishRequest) models.Result {
	item := req.Item
	if !item.IsVideo() {
		s.logger.Info("tiktok only supports video content")
		return models.Skipped(models.SkipUnsupportedMedia)
	}
	if s.cfg.AccessToken == "" {
		s.logger.Warn("tiktok credentials not configured")
		return models.Failed(reasonNotConfigured)
	}

	info, err := os.Stat(item.LocalPath)
	if err != nil {
		return failed(s.logger, "video file not found", err)
	}

	client := s.authorizedClient(ctx)

	started, err := s.initUpload(ctx, client, req.Caption, info.Size())
	if err != nil {
		return failed(s.logger, "initialization failed", err)
	}
	s.logger.Info("upload initialized", zap.String("publish_id", started.Data.PublishID))

	if err := s.upload(ctx, client, started.Data.UploadURL, item.LocalPath, info.Size()); err != nil {
		return failed(s.logger, "upload failed", err)
	}

	var last transfer.StatusFetchResponse
	state, err := s.poll.Run(ctx, func(ctx context.Context) (ProcessingStatus, error) {
		status, err := s.fetchStatus(ctx, client, started.Data.PublishID)
		if err != nil {
			return "", err
		}
		last = *status
		return tiktokStatus(status.Data.Status), nil
	})
	if result, done := processingResult(s.logger, state, err); done {
		if last.Data.FailReason != "" {
			s.logger.Warn("publish failed", zap.String("fail_reason", last.Data.FailReason))
		}
		return result
	}

	s.logger.Info("video posted successfully", zap.String("publish_id", started.Data.PublishID))
	return models.Success(map[string]any{
		"publish_id": started.Data.PublishID,
		"status":     last.Data.Status,
	})
}

func (s *tiktokPublisher) authorizedClient(ctx context.Context) *http.Client {
	ctx = context.WithValue(ctx, oauth2.HTTPClient, s.client)
	src := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: s.cfg.AccessToken, TokenType: "Bearer"})
	return oauth2.NewClient(ctx, src)
}

func (s *tiktokPublisher) initUpload(ctx context.Context, client *http.Client, caption string, size int64) (*transfer.VideoInitResponse, error) {
	payload := transfer.VideoInitRequest{
		PostInfo: transfer.VideoPostInfo{
			Title:                 caption,
			PrivacyLevel:          tiktokPrivacyPublic,
			VideoCoverTimestampMs: tiktokCoverMs,
		},
		SourceInfo: transfer.VideoSourceInfo{
			Source:          "FILE_UPLOAD",
			VideoSize:       size,
			ChunkSize:       size,
			TotalChunkCount: 1,
		},
	}

	var result transfer.VideoInitResponse
	if err := doJSON(ctx, client, http.MethodPost, s.cfg.BaseURL+"/post/publish/video/init/", payload, &result, nil); err != nil {
		return nil, err
	}
	if !result.Error.OK() {
		return nil, fmt.Errorf("tiktok error %q: %s", result.Error.Code, result.Error.Message)
	}
	if result.Data.PublishID == "" || result.Data.UploadURL == "" {
		return nil, errors.New("no publish_id or upload_url in response")
	}
	return &result, nil
}

func (s *tiktokPublisher) upload(ctx context.Context, client *http.Client, uploadURL, path string, size int64) error {
	file, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("open video: %w", err)
	}
	defer file.Close()

	req, err := http.NewRequestWithContext(ctx, http.MethodPut, uploadURL, file)
	if err != nil {
		return fmt.Errorf("error creating request: %w", err)
	}
	req.ContentLength = size
	req.Header.Set("Content-Type", "video/mp4")
	req.Header.Set("Content-Range", fmt.Sprintf("bytes 0-%d/%d", size-1, size))

	return doRequest(client, req, nil)
}

func (s *tiktokPublisher) fetchStatus(ctx context.Context, client *http.Client, publishID string) (*transfer.StatusFetchResponse, error) {
	var result transfer.StatusFetchResponse
	payload := transfer.StatusFetchRequest{PublishID: publishID}
	if err := doJSON(ctx, client, http.MethodPost, s.cfg.BaseURL+"/post/publish/status/fetch/", payload, &result, nil); err != nil {
		return nil, err
	}
	s.logger.Debug("publish status", zap.String("status", result.Data.Status))
	return &result, nil
}

func tiktokStatus(status string) ProcessingStatus {
	switch status {
	case "PUBLISH_COMPLETE":
		return StatusFinished
	case "FAILED":
		return StatusError
	default:
		return StatusInProgress
	}
}
