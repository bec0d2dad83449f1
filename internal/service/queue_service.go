package service

import (
	"context"
	"math/rand"

	"github.com/maheshrc27/crosspost/internal/models"
	"github.com/maheshrc27/crosspost/internal/repository"
)

const nextPendingPreview = 5

// QueueOverview is the status report with a preview of upcoming items.
type QueueOverview struct {
	models.QueueStatus
	NextPending []*models.ContentItem `json:"next_pending"`
}

type QueueService interface {
	NextUnposted(ctx context.Context) (*models.ContentItem, error)
	Overview(ctx context.Context) (*QueueOverview, error)
}

type QueueServiceOption func(*queueService)

// WithRandIntN replaces the uniform chooser; it must return a value in [0, n).
func WithRandIntN(intN func(n int) int) QueueServiceOption {
	return func(s *queueService) {
		s.intN = intN
	}
}

type queueService struct {
	queue repository.QueueRepository
	intN  func(n int) int
}

func NewQueueService(queue repository.QueueRepository, opts ...QueueServiceOption) QueueService {
	s := &queueService{
		queue: queue,
		intN:  rand.Intn,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// NextUnposted picks a pending item uniformly at random. It returns nil when
// nothing is pending.
func (s *queueService) NextUnposted(ctx context.Context) (*models.ContentItem, error) {
	pending, err := s.queue.ListUnposted(ctx)
	if err != nil {
		return nil, err
	}
	if len(pending) == 0 {
		return nil, nil
	}
	return pending[s.intN(len(pending))], nil
}

func (s *queueService) Overview(ctx context.Context) (*QueueOverview, error) {
	status, err := s.queue.Status(ctx)
	if err != nil {
		return nil, err
	}
	pending, err := s.queue.ListUnposted(ctx)
	if err != nil {
		return nil, err
	}
	if len(pending) > nextPendingPreview {
		pending = pending[:nextPendingPreview]
	}
	return &QueueOverview{QueueStatus: status, NextPending: pending}, nil
}
