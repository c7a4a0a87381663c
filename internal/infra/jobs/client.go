package jobs

import (
	"context"
	"fmt"
	"time"

	"github.com/hibiken/asynq"

	"github.com/openvocio/api/pkg/logger"
)

// Client manages enqueueing background jobs using Asynq.
type Client struct {
	client *asynq.Client
	logger *logger.Logger
}

// ClientConfig contains configuration for the job client.
type ClientConfig struct {
	RedisAddr     string
	RedisPassword string
	RedisDB       int
}

// NewClient creates a new job client for enqueueing tasks.
func NewClient(cfg ClientConfig, log *logger.Logger) (*Client, error) {
	client := asynq.NewClient(asynq.RedisClientOpt{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})

	return &Client{
		client: client,
		logger: log.With("component", "job_client"),
	}, nil
}

// Close closes the client connection.
func (c *Client) Close() error {
	return c.client.Close()
}

// EnqueueReconcilePass queues an async reconciliation pass.
func (c *Client) EnqueueReconcilePass(ctx context.Context, triggeredBy string) error {
	task, err := NewReconcilePassTask(ReconcilePassPayload{
		TriggeredBy: triggeredBy,
		RequestedAt: time.Now(),
	})
	if err != nil {
		return fmt.Errorf("failed to create task: %w", err)
	}

	info, err := c.client.EnqueueContext(ctx, task, asynq.Queue("reconcile"))
	if err != nil {
		c.logger.Error("failed to enqueue reconciliation pass", "error", err)
		return fmt.Errorf("failed to enqueue task: %w", err)
	}

	c.logger.Info("reconciliation pass queued",
		"task_id", info.ID,
		"queue", info.Queue,
		"triggered_by", triggeredBy,
	)
	return nil
}

// EnqueueAlertSync queues an async alert sync.
func (c *Client) EnqueueAlertSync(ctx context.Context) error {
	task, err := NewAlertSyncTask()
	if err != nil {
		return fmt.Errorf("failed to create task: %w", err)
	}

	info, err := c.client.EnqueueContext(ctx, task, asynq.Queue("alerts"))
	if err != nil {
		c.logger.Error("failed to enqueue alert sync", "error", err)
		return fmt.Errorf("failed to enqueue task: %w", err)
	}

	c.logger.Info("alert sync queued", "task_id", info.ID, "queue", info.Queue)
	return nil
}
