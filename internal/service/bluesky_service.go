package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/h2non/filetype"
	config "github.com/maheshrc27/crosspost/configs"
	"github.com/maheshrc27/crosspost/internal/models"
	"github.com/maheshrc27/crosspost/internal/transfer"
	"go.uber.org/zap"
)

type blueskyPublisher struct {
	cfg    config.Bluesky
	client *http.Client
	now    func() time.Time
	logger *zap.Logger
}

// NewBlueskyPublisher posts through XRPC calls against the account's PDS.
func NewBlueskyPublisher(cfg config.Bluesky, client *http.Client, logger *zap.Logger) Publisher {
	return &blueskyPublisher{
		cfg:    cfg,
		client: httpClientOrDefault(client),
		now:    time.Now,
		logger: logger.With(zap.String("platform", string(models.PlatformBluesky))),
	}
}

func (s *blueskyPublisher) Platform() models.Platform {
	return models.PlatformBluesky
}

func (s *blueskyPublisher) Publish(ctx context.Context, req PublishRequest) models.Result {
	if s.cfg.Username == "" || s.cfg.Password == "" {
		s.logger.Warn("bluesky credentials not configured")
		return models.Failed(reasonNotConfigured)
	}
	item := req.Item

	session, err := s.createSession(ctx)
	if err != nil {
		return failed(s.logger, "login failed", err)
	}

	data, err := os.ReadFile(item.LocalPath)
	if err != nil {
		return failed(s.logger, "failed to read media", err)
	}

	blob, err := s.uploadBlob(ctx, session, data, item)
	if err != nil {
		return failed(s.logger, "blob upload failed", err)
	}

	name := filepath.Base(item.LocalPath)
	embed := &transfer.BlueskyEmbed{Type: transfer.BlueskyImagesEmbed}
	if item.IsVideo() {
		embed = &transfer.BlueskyEmbed{
			Type:  transfer.BlueskyVideoEmbed,
			Video: blob,
			Alt:   "Video: " + name,
		}
	} else {
		embed.Images = []transfer.BlueskyImage{{Alt: name, Image: *blob}}
	}

	record := transfer.BlueskyCreateRecordRequest{
		Repo:       session.DID,
		Collection: transfer.BlueskyPostCollection,
		Record: transfer.BlueskyPostRecord{
			Type:      transfer.BlueskyPostType,
			Text:      req.Caption,
			CreatedAt: s.now().UTC(),
			Facets:    req.Facets,
			Embed:     embed,
		},
	}

	var created transfer.BlueskyRecordResponse
	if err := doJSON(ctx, s.client, http.MethodPost, s.xrpc("com.atproto.repo.createRecord"), record, &created, s.auth(session)); err != nil {
		return failed(s.logger, "create record failed", err)
	}
	if created.URI == "" {
		return failed(s.logger, "create record failed", errors.New("no uri in response"))
	}

	s.logger.Info("content posted successfully", zap.String("uri", created.URI))
	return models.Success(created)
}

func (s *blueskyPublisher) xrpc(method string) string {
	return fmt.Sprintf("%s/xrpc/%s", s.cfg.BaseURL, method)
}

func (s *blueskyPublisher) auth(session *transfer.BlueskySession) map[string]string {
	return map[string]string{"Authorization": "Bearer " + session.AccessJwt}
}

func (s *blueskyPublisher) createSession(ctx context.Context) (*transfer.BlueskySession, error) {
	payload := transfer.BlueskySessionRequest{
		Identifier: s.cfg.Username,
		Password:   s.cfg.Password,
	}

	var session transfer.BlueskySession
	if err := doJSON(ctx, s.client, http.MethodPost, s.xrpc("com.atproto.server.createSession"), payload, &session, nil); err != nil {
		return nil, err
	}
	if session.AccessJwt == "" || session.DID == "" {
		return nil, errors.New("session response missing accessJwt or did")
	}
	return &session, nil
}

func (s *blueskyPublisher) uploadBlob(ctx context.Context, session *transfer.BlueskySession, data []byte, item *models.ContentItem) (*transfer.BlueskyBlobRef, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.xrpc("com.atproto.repo.uploadBlob"), bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("error creating request: %w", err)
	}
	req.Header.Set("Content-Type", blobMimeType(data, item))
	for k, v := range s.auth(session) {
		req.Header.Set(k, v)
	}

	var result transfer.BlueskyUploadBlobResponse
	if err := doRequest(s.client, req, &result); err != nil {
		return nil, err
	}
	if result.Blob.Ref == nil {
		return nil, errors.New("no blob ref in response")
	}
	return &result.Blob, nil
}

func blobMimeType(data []byte, item *models.ContentItem) string {
	if kind, err := filetype.Match(data); err == nil && kind != filetype.Unknown {
		return kind.MIME.Value
	}
	if item.IsVideo() {
		return "video/mp4"
	}
	return "image/jpeg"
}
