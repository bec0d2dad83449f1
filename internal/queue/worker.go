package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/hibiken/asynq"
	job "github.com/maheshrc27/crosspost/internal/jobs"
	"go.uber.org/zap"
)

func (q *Queue) HandleRunPostingTask(ctx context.Context, task *asynq.Task) error {
	var payload RunPostingPayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		return fmt.Errorf("decode payload: %v: %w", err, asynq.SkipRetry)
	}

	q.logger.Info("posting run task received", zap.String("trigger", payload.Trigger))
	summary, err := q.runner.Run(ctx)
	if errors.Is(err, job.ErrRunInProgress) {
		q.logger.Info("posting run already in progress, dropping task")
		return nil
	}
	if err != nil {
		return err
	}

	q.logger.Info("posting run task done",
		zap.String("run_id", summary.RunID),
		zap.Int64("content_id", summary.ContentID))
	return nil
}

// Mux routes queue tasks to their handlers.
func (q *Queue) Mux() *asynq.ServeMux {
	mux := asynq.NewServeMux()
	mux.HandleFunc(TaskTypeRunPosting, q.HandleRunPostingTask)
	return mux
}
