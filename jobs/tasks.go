package jobs

import (
	"encoding/json"

	"github.com/hibiken/asynq"
)

const (
	// QueueDefault is the default queue name for background jobs.
	QueueDefault = "default"
	// TaskReportsWarmup pre-populates the derived report caches.
	TaskReportsWarmup = "reports:warmup"
	// TaskSessionsSweep prunes expired session tokens from the index.
	TaskSessionsSweep = "sessions:sweep"
)

// ReportsWarmupPayload scopes a warmup run.
type ReportsWarmupPayload struct {
	TrendDays int `json:"trend_days"`
}

// NewReportsWarmupTask constructs a warmup task.
func NewReportsWarmupTask(payload ReportsWarmupPayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskReportsWarmup, data), nil
}

// NewSessionsSweepTask constructs a sweep task.
func NewSessionsSweepTask() *asynq.Task {
	return asynq.NewTask(TaskSessionsSweep, nil)
}
