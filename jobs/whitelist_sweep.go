package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"

	"github.com/hibiken/asynq"

	jobmetrics "github.com/classhub/classhub/internal/jobs"
)

var defaultJobMetrics = jobmetrics.NewMetrics(nil)

// Sweeper expires due whitelist entries and reports how many changed.
type Sweeper interface {
	Sweep(ctx context.Context) (int, error)
}

// WhitelistSweepJob runs the periodic whitelist expiry.
type WhitelistSweepJob struct {
	Sweeper Sweeper
	Logger  *slog.Logger
	Metrics *jobmetrics.Metrics
}

// NewWhitelistSweepJob wires dependencies for the sweep handler.
func NewWhitelistSweepJob(sweeper Sweeper, logger *slog.Logger, metrics *jobmetrics.Metrics) *WhitelistSweepJob {
	return &WhitelistSweepJob{Sweeper: sweeper, Logger: logger, Metrics: metrics}
}

// Handle processes whitelist sweep tasks.
func (j *WhitelistSweepJob) Handle(ctx context.Context, t *asynq.Task) (resultErr error) {
	if j == nil || j.Sweeper == nil {
		return errors.New("whitelist sweep: handler not configured")
	}
	var payload WhitelistSweepPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return asynq.SkipRetry
	}
	if payload.Trigger == "" {
		payload.Trigger = "cron"
	}

	tracker := j.metrics().Track(TaskWhitelistSweep)
	defer func() {
		resultErr = tracker.End(resultErr)
	}()

	logger := j.logger().With(slog.String("trigger", payload.Trigger))
	expired, err := j.Sweeper.Sweep(ctx)
	if err != nil {
		logger.Error("whitelist sweep failed", slog.Any("error", err))
		return err
	}
	j.metrics().AddProcessed(TaskWhitelistSweep, expired)
	logger.Info("completed whitelist sweep", slog.Int("expired", expired))
	return nil
}

func (j *WhitelistSweepJob) metrics() *jobmetrics.Metrics {
	if j.Metrics != nil {
		return j.Metrics
	}
	return defaultJobMetrics
}

func (j *WhitelistSweepJob) logger() *slog.Logger {
	if j.Logger != nil {
		return j.Logger
	}
	return slog.Default()
}
