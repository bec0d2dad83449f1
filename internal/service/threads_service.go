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

type threadsPublisher struct {
	cfg    config.Threads
	poll   PollPolicy
	client *http.Client
	logger *zap.Logger
}

func NewThreadsPublisher(cfg config.Threads, poll PollPolicy, client *http.Client, logger *zap.Logger) Publisher {
	return &threadsPublisher{
		cfg:    cfg,
		poll:   poll,
		client: httpClientOrDefault(client),
		logger: logger.With(zap.String("platform", string(models.PlatformThreads))),
	}
}

func (s *threadsPublisher) Platform() models.Platform {
	return models.PlatformThreads
}

func (s *threadsPublisher) Publish(ctx context.Context, req PublishRequest) models.Result {
	if s.cfg.AccessToken == "" {
		s.logger.Warn("threads credentials not configured")
		return models.Failed(reasonNotConfigured)
	}
	item := req.Item

	user, err := s.me(ctx)
	if err != nil {
		return failed(s.logger, "failed to get threads user", err)
	}
	s.logger.Info("connected", zap.String("username", user.Username))

	containerID, err := s.createContainer(ctx, user.ID, item, req.Caption)
	if err != nil {
		return failed(s.logger, "container creation failed", err)
	}
	s.logger.Info("container created", zap.String("container_id", containerID))

	// Threads reports status for images too, so every container is polled.
	state, err := s.poll.Run(ctx, func(ctx context.Context) (ProcessingStatus, error) {
		return s.containerStatus(ctx, containerID)
	})
	if result, done := processingResult(s.logger, state, err); done {
		return result
	}

	published, err := s.publish(ctx, user.ID, containerID)
	if err != nil {
		return failed(s.logger, "publishing failed", err)
	}

	s.logger.Info("posted successfully", zap.String("media_type", string(item.MediaType)), zap.Any("id", published["id"]))
	return models.Success(published)
}

func (s *threadsPublisher) me(ctx context.Context) (*transfer.ThreadsUser, error) {
	params := url.Values{}
	params.Set("fields", "id,username")
	params.Set("access_token", s.cfg.AccessToken)

	var user transfer.ThreadsUser
	if err := doJSON(ctx, s.client, http.MethodGet, s.cfg.BaseURL+"/me?"+params.Encode(), nil, &user, nil); err != nil {
		return nil, err
	}
	if user.ID == "" {
		return nil, errors.New("no user id in response")
	}
	return &user, nil
}

func (s *threadsPublisher) createContainer(ctx context.Context, userID string, item *models.ContentItem, caption string) (string, error) {
	payload := transfer.ThreadsContainerRequest{
		Text:         caption,
		IsMadeWithAI: true,
		AccessToken:  s.cfg.AccessToken,
	}
	if item.IsVideo() {
		payload.MediaType = "VIDEO"
		payload.VideoURL = item.URL
	} else {
		payload.MediaType = "IMAGE"
		payload.ImageURL = item.URL
	}

	var result transfer.ThreadsIDResponse
	reqURL := fmt.Sprintf("%s/%s/threads", s.cfg.BaseURL, userID)
	if err := doJSON(ctx, s.client, http.MethodPost, reqURL, payload, &result, nil); err != nil {
		return "", err
	}
	if result.Error != nil {
		return "", result.Error
	}
	if result.ID == "" {
		return "", errors.New("no container ID returned from Threads")
	}
	return result.ID, nil
}

func (s *threadsPublisher) containerStatus(ctx context.Context, containerID string) (ProcessingStatus, error) {
	params := url.Values{}
	params.Set("fields", "status")
	params.Set("access_token", s.cfg.AccessToken)
	reqURL := fmt.Sprintf("%s/%s?%s", s.cfg.BaseURL, containerID, params.Encode())

	var status transfer.ThreadsStatusResponse
	if err := doJSON(ctx, s.client, http.MethodGet, reqURL, nil, &status, nil); err != nil {
		return "", err
	}
	s.logger.Debug("container status", zap.String("status", status.Status))
	return threadsStatus(status.Status), nil
}

func threadsStatus(status string) ProcessingStatus {
	switch status {
	case "ERROR":
		return StatusError
	case "IN_PROGRESS":
		return StatusInProgress
	default:
		return StatusFinished
	}
}

func (s *threadsPublisher) publish(ctx context.Context, userID, containerID string) (map[string]any, error) {
	payload := transfer.ThreadsPublishRequest{
		CreationID:  containerID,
		AccessToken: s.cfg.AccessToken,
	}

	var result map[string]any
	reqURL := fmt.Sprintf("%s/%s/threads_publish", s.cfg.BaseURL, userID)
	if err := doJSON(ctx, s.client, http.MethodPost, reqURL, payload, &result, nil); err != nil {
		return nil, err
	}
	if id, _ := result["id"].(string); id == "" {
		return nil, fmt.Errorf("no thread ID in publish response: %v", result)
	}
	return result, nil
}
