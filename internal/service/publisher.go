package service

import (
	"context"
	"fmt"
	"time"

	"github.com/maheshrc27/crosspost/internal/models"
	"github.com/maheshrc27/crosspost/internal/transfer"
	"go.uber.org/zap"
)

// Publisher posts one content item to one platform. Publish never returns an
// error; every failure is reported as a Failed result.
type Publisher interface {
	Platform() models.Platform
	Publish(ctx context.Context, req PublishRequest) models.Result
}

// PublishRequest carries everything a publisher needs for one item. The
// item's LocalPath is expected to exist for publishers that upload bytes.
type PublishRequest struct {
	Item     *models.ContentItem
	Caption  string
	Hashtags []string
	Facets   []transfer.BlueskyFacet
}

const reasonNotConfigured = "not configured"

type PublishState string

const (
	StateInit             PublishState = "init"
	StateContainerCreated PublishState = "container_created"
	StateProcessing       PublishState = "processing"
	StateFinished         PublishState = "finished"
	StateFailed           PublishState = "failed"
	StateTimedOut         PublishState = "timed_out"
)

func (s PublishState) Terminal() bool {
	return s == StateFinished || s == StateFailed || s == StateTimedOut
}

// ProcessingStatus is one observation of the remote container.
type ProcessingStatus string

const (
	StatusCreated    ProcessingStatus = "created"
	StatusInProgress ProcessingStatus = "in_progress"
	StatusFinished   ProcessingStatus = "finished"
	StatusError      ProcessingStatus = "error"
	StatusExhausted  ProcessingStatus = "exhausted"
)

// Advance is the publish state transition function. Terminal states absorb
// every status.
func Advance(state PublishState, status ProcessingStatus) PublishState {
	if state.Terminal() {
		return state
	}
	if status == StatusError {
		return StateFailed
	}

	switch state {
	case StateInit:
		if status == StatusCreated {
			return StateContainerCreated
		}
		return StateFailed
	case StateContainerCreated, StateProcessing:
		switch status {
		case StatusInProgress, StatusCreated:
			return StateProcessing
		case StatusFinished:
			return StateFinished
		case StatusExhausted:
			return StateTimedOut
		}
	}
	return StateFailed
}

// PollPolicy bounds the processing-status loop.
type PollPolicy struct {
	Interval    time.Duration
	MaxAttempts int
	Sleep       func(ctx context.Context, d time.Duration) error
}

var (
	InstagramPollPolicy = PollPolicy{Interval: 2 * time.Second, MaxAttempts: 30}
	ThreadsPollPolicy   = PollPolicy{Interval: 2 * time.Second, MaxAttempts: 30}
	TiktokPollPolicy    = PollPolicy{Interval: 3 * time.Second, MaxAttempts: 60}
)

// WithOverrides replaces interval and attempts when the overrides are set.
func (p PollPolicy) WithOverrides(interval time.Duration, attempts int) PollPolicy {
	if interval > 0 {
		p.Interval = interval
	}
	if attempts > 0 {
		p.MaxAttempts = attempts
	}
	return p
}

// Run polls check until the container reaches a terminal state or the
// attempt ceiling is hit. A check error ends the loop as Failed.
func (p PollPolicy) Run(ctx context.Context, check func(ctx context.Context) (ProcessingStatus, error)) (PublishState, error) {
	state := StateContainerCreated
	sleep := p.Sleep
	if sleep == nil {
		sleep = sleepContext
	}

	for attempt := 1; attempt <= p.MaxAttempts; attempt++ {
		status, err := check(ctx)
		if err != nil {
			return StateFailed, fmt.Errorf("status check %d: %w", attempt, err)
		}
		state = Advance(state, status)
		if state.Terminal() {
			return state, nil
		}
		if err := sleep(ctx, p.Interval); err != nil {
			return StateFailed, err
		}
	}
	return Advance(state, StatusExhausted), nil
}

func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// processingResult converts a non-finished terminal state into a Failed
// result. It returns false when publishing may continue.
func processingResult(logger *zap.Logger, state PublishState, err error) (models.Result, bool) {
	switch state {
	case StateFinished:
		return models.Result{}, false
	case StateTimedOut:
		logger.Warn("processing timed out before reaching a terminal status")
		return models.Failed("timed out"), true
	default:
		reason := "processing failed"
		if err != nil {
			reason = fmt.Sprintf("%s: %v", reason, err)
		}
		logger.Warn("media processing failed", zap.String("reason", reason))
		return models.Failed(reason), true
	}
}

// safePublish runs a publisher and turns a panic into a Failed result.
func safePublish(ctx context.Context, p Publisher, req PublishRequest, logger *zap.Logger) (result models.Result) {
	defer func() {
		if r := recover(); r != nil {
			logger.Error("publisher panicked", zap.String("platform", string(p.Platform())), zap.Any("panic", r))
			result = models.Failed(fmt.Sprintf("panic: %v", r))
		}
	}()
	return p.Publish(ctx, req)
}

func failed(logger *zap.Logger, msg string, err error) models.Result {
	logger.Error(msg, zap.Error(err))
	return models.Failed(fmt.Sprintf("%s: %v", msg, err))
}
