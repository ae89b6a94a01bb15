package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"

	"github.com/hibiken/asynq"

	"github.com/stockledger/stockledger/internal/reports"
)

// ReportsWarmupJob pre-populates the derived report caches so the first
// operator request after a quiet period does not pay the rebuild cost.
type ReportsWarmupJob struct {
	Reports *reports.Service
	Logger  *slog.Logger
	Metrics *Metrics
}

// NewReportsWarmupJob wires dependencies for the warmup handler.
func NewReportsWarmupJob(reportsSvc *reports.Service, logger *slog.Logger, metrics *Metrics) *ReportsWarmupJob {
	return &ReportsWarmupJob{Reports: reportsSvc, Logger: logger, Metrics: metrics}
}

// Handle processes report warmup tasks.
func (j *ReportsWarmupJob) Handle(ctx context.Context, t *asynq.Task) error {
	if j == nil || j.Reports == nil {
		return errors.New("reports warmup: handler not configured")
	}
	var payload ReportsWarmupPayload
	if len(t.Payload()) > 0 {
		if err := json.Unmarshal(t.Payload(), &payload); err != nil {
			return asynq.SkipRetry
		}
	}

	tracker := j.Metrics.Track(TaskReportsWarmup)
	err := j.Reports.WarmUp(ctx, payload.TrendDays)
	if err != nil {
		j.logger().Error("reports warmup", slog.Any("error", err))
	} else {
		j.logger().Info("reports warmup complete")
	}
	return tracker.End(err)
}

func (j *ReportsWarmupJob) logger() *slog.Logger {
	if j.Logger != nil {
		return j.Logger
	}
	return slog.Default()
}
