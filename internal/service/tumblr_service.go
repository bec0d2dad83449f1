package service

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/dghubble/oauth1"
	config "github.com/maheshrc27/crosspost/configs"
	"github.com/maheshrc27/crosspost/internal/models"
	"github.com/maheshrc27/crosspost/internal/transfer"
	"go.uber.org/zap"
)

type tumblrPublisher struct {
	cfg    config.Tumblr
	client *http.Client
	logger *zap.Logger
}

// NewTumblrPublisher uploads the local file as a photo or video post signed
// with OAuth 1.0a.
func NewTumblrPublisher(cfg config.Tumblr, client *http.Client, logger *zap.Logger) Publisher {
	return &tumblrPublisher{
		cfg:    cfg,
		client: httpClientOrDefault(client),
		logger: logger.With(zap.String("platform", string(models.PlatformTumblr))),
	}
}

func (s *tumblrPublisher) Platform() models.Platform {
	return models.PlatformTumblr
}

func (s *tumblrPublisher) configured() bool {
	return s.cfg.ConsumerKey != "" && s.cfg.ConsumerSecret != "" &&
		s.cfg.OAuthToken != "" && s.cfg.OAuthTokenSecret != "" && s.cfg.BlogName != ""
}

func (s *tumblrPublisher) Publish(ctx context.Context, req PublishRequest) models.Result {
	if !s.configured() {
		s.logger.Warn("tumblr credentials not configured")
		return models.Failed(reasonNotConfigured)
	}
	item := req.Item

	body, contentType, err := tumblrForm(item, req.Caption, req.Hashtags)
	if err != nil {
		return failed(s.logger, "failed to build post", err)
	}

	reqURL := fmt.Sprintf("%s/blog/%s/post", s.cfg.BaseURL, blogIdentifier(s.cfg.BlogName))
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, reqURL, body)
	if err != nil {
		return failed(s.logger, "error creating request", err)
	}
	httpReq.Header.Set("Content-Type", contentType)

	var resp transfer.TumblrPostResponse
	if err := doRequest(s.signedClient(ctx), httpReq, &resp); err != nil {
		return failed(s.logger, "posting failed", err)
	}
	if resp.Meta.Status != http.StatusCreated {
		return failed(s.logger, "posting failed", fmt.Errorf("meta status %d: %s", resp.Meta.Status, resp.Meta.Msg))
	}

	if resp.Response.State == "transcoding" {
		s.logger.Info("video posted successfully (processing)")
	} else {
		s.logger.Info("content posted successfully")
	}
	return models.Success(map[string]any{
		"id":    resp.Response.IDString,
		"state": resp.Response.State,
	})
}

func (s *tumblrPublisher) signedClient(ctx context.Context) *http.Client {
	ctx = context.WithValue(ctx, oauth1.HTTPClient, s.client)
	cfg := oauth1.NewConfig(s.cfg.ConsumerKey, s.cfg.ConsumerSecret)
	return cfg.Client(ctx, oauth1.NewToken(s.cfg.OAuthToken, s.cfg.OAuthTokenSecret))
}

// tumblrForm builds the multipart body of a legacy photo or video post.
func tumblrForm(item *models.ContentItem, caption string, tags []string) (io.Reader, string, error) {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)

	postType := "photo"
	if item.IsVideo() {
		postType = "video"
	}
	fields := [][2]string{
		{"type", postType},
		{"state", "published"},
		{"caption", caption},
		{"tags", strings.Join(tags, ",")},
	}
	for _, f := range fields {
		if err := w.WriteField(f[0], f[1]); err != nil {
			return nil, "", err
		}
	}

	file, err := os.Open(item.LocalPath)
	if err != nil {
		return nil, "", fmt.Errorf("open media: %w", err)
	}
	defer file.Close()

	part, err := w.CreateFormFile("data", filepath.Base(item.LocalPath))
	if err != nil {
		return nil, "", err
	}
	if _, err := io.Copy(part, file); err != nil {
		return nil, "", fmt.Errorf("read media: %w", err)
	}
	if err := w.Close(); err != nil {
		return nil, "", err
	}
	return &buf, w.FormDataContentType(), nil
}

func blogIdentifier(name string) string {
	if strings.Contains(name, ".") {
		return name
	}
	return name + ".tumblr.com"
}
