package cli

import (
	"context"
	"errors"
	"fmt"

	"github.com/coder/serpent"
	"github.com/hibiken/asynq"

	"github.com/classhub/classhub/jobs"
)

// JobsCLI wraps manual management helpers for Asynq jobs.
type JobsCLI struct {
	client    *jobs.Client
	inspector *asynq.Inspector
}

// NewJobsCLI initialises the CLI helpers using the provided Redis address.
func NewJobsCLI(redisAddr string) (*JobsCLI, error) {
	if redisAddr == "" {
		return nil, errors.New("jobs cli: redis address required")
	}
	opts := asynq.RedisClientOpt{Addr: redisAddr}
	client, err := jobs.NewClient(opts)
	if err != nil {
		return nil, err
	}
	inspector := asynq.NewInspector(opts)
	return &JobsCLI{client: client, inspector: inspector}, nil
}

// Close releases underlying resources.
func (c *JobsCLI) Close() error {
	var err error
	if c.inspector != nil {
		if closeErr := c.inspector.Close(); closeErr != nil {
			err = closeErr
		}
	}
	if c.client != nil {
		if closeErr := c.client.Close(); closeErr != nil {
			err = closeErr
		}
	}
	return err
}

// Trigger enqueues a supported job by name with default payload.
func (c *JobsCLI) Trigger(ctx context.Context, name string) (*asynq.TaskInfo, error) {
	if c == nil || c.client == nil {
		return nil, errors.New("jobs cli: client not configured")
	}
	taskType, err := taskTypeByName(name)
	if err != nil {
		return nil, err
	}
	switch taskType {
	case jobs.TaskWhitelistSweep:
		return c.client.EnqueueWhitelistSweep(ctx, "manual")
	default:
		return nil, fmt.Errorf("jobs cli: unsupported job %s", name)
	}
}

// taskTypeByName accepts either the queue task type or its dashed alias.
func taskTypeByName(name string) (string, error) {
	switch name {
	case jobs.TaskWhitelistSweep, "whitelist-sweep":
		return jobs.TaskWhitelistSweep, nil
	default:
		return "", fmt.Errorf("jobs cli: unsupported job %s", name)
	}
}

// QueueStats summarises the current queue state.
type QueueStats struct {
	Queue     string
	Pending   int
	Active    int
	Scheduled int
	Retry     int
}

// InspectQueue reports the queue metrics for the default queue.
func (c *JobsCLI) InspectQueue(ctx context.Context) (QueueStats, error) {
	if c == nil || c.inspector == nil {
		return QueueStats{}, errors.New("jobs cli: inspector not configured")
	}
	info, err := c.inspector.GetQueueInfo(jobs.QueueDefault)
	if err != nil {
		return QueueStats{}, err
	}
	stats := QueueStats{Queue: jobs.QueueDefault}
	if info != nil {
		stats.Pending = info.Pending
		stats.Active = info.Active
		stats.Scheduled = info.Scheduled
		stats.Retry = info.Retry
	}
	return stats, nil
}

// JobsCommand groups queue helpers under "jobs".
func JobsCommand() *serpent.Command {
	var redisAddr string
	redisOption := serpent.Option{
		Name:        "redis-addr",
		Description: "Redis address backing the job queue.",
		Flag:        "redis-addr",
		Env:         "REDIS_ADDR",
		Default:     "127.0.0.1:6379",
		Value:       serpent.StringOf(&redisAddr),
	}
	return &serpent.Command{
		Use:     "jobs",
		Short:   "Inspect and trigger background jobs",
		Options: serpent.OptionSet{redisOption},
		Children: []*serpent.Command{
			{
				Use:        "trigger <job>",
				Short:      "Enqueue a job immediately",
				Middleware: serpent.RequireNArgs(1),
				Handler: func(inv *serpent.Invocation) error {
					c, err := NewJobsCLI(redisAddr)
					if err != nil {
						return err
					}
					defer c.Close()
					info, err := c.Trigger(inv.Context(), inv.Args[0])
					if err != nil {
						return err
					}
					_, _ = fmt.Fprintf(inv.Stdout, "enqueued %s id=%s queue=%s\n", info.Type, info.ID, info.Queue)
					return nil
				},
			},
			{
				Use:   "stats",
				Short: "Show default queue statistics",
				Handler: func(inv *serpent.Invocation) error {
					c, err := NewJobsCLI(redisAddr)
					if err != nil {
						return err
					}
					defer c.Close()
					stats, err := c.InspectQueue(inv.Context())
					if err != nil {
						return err
					}
					_, _ = fmt.Fprintf(inv.Stdout, "queue=%s pending=%d active=%d scheduled=%d retry=%d\n",
						stats.Queue, stats.Pending, stats.Active, stats.Scheduled, stats.Retry)
					return nil
				},
			},
		},
	}
}
