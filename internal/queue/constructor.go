package queue

import (
	"context"

	job "github.com/maheshrc27/crosspost/internal/jobs"
	"go.uber.org/zap"
)

// Runner executes one posting run.
type Runner interface {
	Run(ctx context.Context) (*job.RunSummary, error)
}

type Queue struct {
	runner Runner
	logger *zap.Logger
}

func NewQueue(runner Runner, logger *zap.Logger) *Queue {
	return &Queue{
		runner: runner,
		logger: logger.Named("queue"),
	}
}

const TaskTypeRunPosting = "posting:run"

type RunPostingPayload struct {
	Trigger string `json:"trigger"`
}
