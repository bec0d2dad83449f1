package service

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"

	config "github.com/maheshrc27/crosspost/configs"
	"github.com/maheshrc27/crosspost/internal/models"
	"github.com/maheshrc27/crosspost/internal/transfer"
	"go.uber.org/zap"
)

type instagramPublisher struct {
	cfg    config.Instagram
	poll   PollPolicy
	client *http.Client
	logger *zap.Logger
}

// NewInstagramPublisher publishes through a Facebook page's linked
// Instagram business account.
func NewInstagramPublisher(cfg config.Instagram, poll PollPolicy, client *http.Client, logger *zap.Logger) Publisher {
	return &instagramPublisher{
		cfg:    cfg,
		poll:   poll,
		client: httpClientOrDefault(client),
		logger: logger.With(zap.String("platform", string(models.PlatformInstagram))),
	}
}

func (s *instagramPublisher) Platform() models.Platform {
	return models.PlatformInstagram
}

func (s *instagramPublisher) Publish(ctx context.Context, req PublishRequest) models.Result {
	if s.cfg.AccessToken == "" || s.cfg.PageID == "" {
		s.logger.Warn("instagram credentials not configured")
		return models.Failed(reasonNotConfigured)
	}
	item := req.Item

	accountID, err := s.businessAccountID(ctx)
	if err != nil {
		return failed(s.logger, "failed to resolve instagram account", err)
	}

	state := StateInit
	containerID, err := s.createContainer(ctx, accountID, item, req.Caption)
	if err != nil {
		return failed(s.logger, "container creation failed", err)
	}
	state = Advance(state, StatusCreated)
	s.logger.Info("container created", zap.String("container_id", containerID))

	if item.IsVideo() {
		state, err = s.poll.Run(ctx, func(ctx context.Context) (ProcessingStatus, error) {
			return s.containerStatus(ctx, containerID)
		})
	} else {
		state = Advance(state, StatusFinished)
	}
	if result, done := processingResult(s.logger, state, err); done {
		return result
	}

	published, err := s.publish(ctx, accountID, containerID)
	if err != nil {
		return failed(s.logger, "publishing failed", err)
	}

	s.logger.Info("posted successfully", zap.String("media_type", string(item.MediaType)), zap.Any("id", published["id"]))
	return models.Success(published)
}

func (s *instagramPublisher) businessAccountID(ctx context.Context) (string, error) {
	params := url.Values{}
	params.Set("fields", "instagram_business_account")
	params.Set("access_token", s.cfg.AccessToken)
	reqURL := fmt.Sprintf("%s/%s?%s", s.cfg.BaseURL, s.cfg.PageID, params.Encode())

	var account transfer.InstagramAccountResponse
	if err := doJSON(ctx, s.client, http.MethodGet, reqURL, nil, &account, nil); err != nil {
		return "", err
	}
	if account.InstagramBusinessAccount == nil || account.InstagramBusinessAccount.ID == "" {
		return "", errors.New("no instagram business account found for this page")
	}
	return account.InstagramBusinessAccount.ID, nil
}

func (s *instagramPublisher) createContainer(ctx context.Context, accountID string, item *models.ContentItem, caption string) (string, error) {
	payload := transfer.InstagramContainerRequest{
		Caption:      caption,
		IsMadeWithAI: true,
		AccessToken:  s.cfg.AccessToken,
	}
	if item.IsVideo() {
		payload.MediaType = "REELS"
		payload.VideoURL = item.URL
	} else {
		payload.ImageURL = item.URL
	}

	var result transfer.InstagramIDResponse
	reqURL := fmt.Sprintf("%s/%s/media", s.cfg.BaseURL, accountID)
	if err := doJSON(ctx, s.client, http.MethodPost, reqURL, payload, &result, nil); err != nil {
		return "", err
	}
	if result.Error != nil {
		return "", result.Error
	}
	if result.ID == "" {
		return "", errors.New("no container ID returned from Instagram")
	}
	return result.ID, nil
}

func (s *instagramPublisher) containerStatus(ctx context.Context, containerID string) (ProcessingStatus, error) {
	params := url.Values{}
	params.Set("fields", "status_code")
	params.Set("access_token", s.cfg.AccessToken)
	reqURL := fmt.Sprintf("%s/%s?%s", s.cfg.BaseURL, containerID, params.Encode())

	var status transfer.InstagramStatusResponse
	if err := doJSON(ctx, s.client, http.MethodGet, reqURL, nil, &status, nil); err != nil {
		return "", err
	}
	s.logger.Debug("container status", zap.String("status_code", status.StatusCode))
	return instagramStatus(status.StatusCode), nil
}

func instagramStatus(code string) ProcessingStatus {
	switch code {
	case "FINISHED":
		return StatusFinished
	case "ERROR":
		return StatusError
	default:
		return StatusInProgress
	}
}

func (s *instagramPublisher) publish(ctx context.Context, accountID, containerID string) (map[string]any, error) {
	payload := transfer.InstagramPublishRequest{
		CreationID:  containerID,
		AccessToken: s.cfg.AccessToken,
	}

	var result map[string]any
	reqURL := fmt.Sprintf("%s/%s/media_publish", s.cfg.BaseURL, accountID)
	if err := doJSON(ctx, s.client, http.MethodPost, reqURL, payload, &result, nil); err != nil {
		return nil, err
	}
	if id, _ := result["id"].(string); id == "" {
		return nil, fmt.Errorf("no media ID in publish response: %v", result)
	}
	return result, nil
}
