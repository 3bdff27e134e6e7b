package jobs

import (
	"encoding/json"

	"github.com/hibiken/asynq"
)

const (
	// QueueDefault is the default queue name for background jobs.
	QueueDefault = "default"
	// TaskWhitelistSweep expires whitelist entries that reached their expiry.
	TaskWhitelistSweep = "whitelist:sweep"
)

// WhitelistSweepPayload describes why a sweep was requested.
type WhitelistSweepPayload struct {
	Trigger string `json:"trigger"`
}

// NewWhitelistSweepTask constructs an Asynq task.
func NewWhitelistSweepTask(trigger string) (*asynq.Task, error) {
	data, err := json.Marshal(WhitelistSweepPayload{Trigger: trigger})
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskWhitelistSweep, data), nil
}

// WhitelistSweepCron registers the periodic sweep under spec. An empty spec
// disables the schedule.
func WhitelistSweepCron(spec string) ([]CronRegistration, error) {
	if spec == "" {
		return nil, nil
	}
	task, err := NewWhitelistSweepTask("cron")
	if err != nil {
		return nil, err
	}
	return []CronRegistration{{Spec: spec, Task: task, Options: []asynq.Option{asynq.MaxRetry(3), asynq.Queue(QueueDefault)}}}, nil
}
