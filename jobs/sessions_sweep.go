package jobs

import (
	"context"
	"errors"
	"log/slog"

	"github.com/hibiken/asynq"

	"github.com/stockledger/stockledger/internal/auth"
)

// SessionsSweepJob removes index entries for expired bearer tokens.
type SessionsSweepJob struct {
	Sessions *auth.SessionStore
	Logger   *slog.Logger
	Metrics  *Metrics
}

// NewSessionsSweepJob wires dependencies for the sweep handler.
func NewSessionsSweepJob(sessions *auth.SessionStore, logger *slog.Logger, metrics *Metrics) *SessionsSweepJob {
	return &SessionsSweepJob{Sessions: sessions, Logger: logger, Metrics: metrics}
}

// Handle processes session sweep tasks.
func (j *SessionsSweepJob) Handle(ctx context.Context, _ *asynq.Task) error {
	if j == nil || j.Sessions == nil {
		return errors.New("sessions sweep: handler not configured")
	}

	tracker := j.Metrics.Track(TaskSessionsSweep)
	removed, err := j.Sessions.Sweep(ctx)
	if err != nil {
		j.logger().Error("sessions sweep", slog.Any("error", err))
	} else {
		j.logger().Info("sessions sweep complete", slog.Int("removed", removed))
	}
	return tracker.End(err)
}

func (j *SessionsSweepJob) logger() *slog.Logger {
	if j.Logger != nil {
		return j.Logger
	}
	return slog.Default()
}
