package queue

import (
	"encoding/json"
	"time"

	"github.com/hibiken/asynq"
)

// uniqueWindow keeps at most one pending run task at a time.
const uniqueWindow = 30 * time.Minute

func EnqueueRun(asynqClient *asynq.Client, payload RunPostingPayload, delay time.Duration) (*asynq.TaskInfo, error) {
	taskPayload, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}

	task := asynq.NewTask(TaskTypeRunPosting, taskPayload, asynq.MaxRetry(0))

	return asynqClient.Enqueue(task, asynq.ProcessIn(delay), asynq.Unique(uniqueWindow))
}
