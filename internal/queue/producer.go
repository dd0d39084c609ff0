package queue

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/jayainhufs/coding-sam/internal/runner"
)

// Publisher publishes run jobs. The daemon depends on this rather than on
// Producer.
type Publisher interface {
	PublishRunJob(ctx context.Context, job *RunJob) error
}

// Producer publishes run jobs to the queue
type Producer struct {
	conn *Connection
}

// NewProducer creates a new queue producer
func NewProducer(conn *Connection) *Producer {
	return &Producer{conn: conn}
}

// PublishRunJob publishes a code execution job to the queue
func (p *Producer) PublishRunJob(ctx context.Context, job *RunJob) error {
	if job.ID == uuid.Nil {
		job.ID = uuid.New()
	}
	if job.CreatedAt.IsZero() {
		job.CreatedAt = time.Now()
	}

	if err := p.conn.PublishJSON(ctx, RunQueueName, job); err != nil {
		return fmt.Errorf("publish run job: %w", err)
	}

	slog.Info("published run job",
		"job_id", job.ID,
		"user_id", job.UserID,
		"language", job.Request.Language,
	)

	return nil
}

// PublishResult publishes a run result to the results queue
func (p *Producer) PublishResult(ctx context.Context, result *RunResult) error {
	if result.CompletedAt.IsZero() {
		result.CompletedAt = time.Now()
	}

	if err := p.conn.PublishJSON(ctx, ResultQueueName, result); err != nil {
		return fmt.Errorf("publish run result: %w", err)
	}

	slog.Info("published run result",
		"job_id", result.JobID,
		"status", result.Status,
		"duration", result.Duration,
	)

	return nil
}

// NewRunJob creates a run job with a fresh ID
func NewRunJob(userID, problemID string, req runner.RunRequest, timeout time.Duration) *RunJob {
	return &RunJob{
		ID:        uuid.New(),
		UserID:    userID,
		ProblemID: problemID,
		Request:   req,
		Timeout:   int(timeout / time.Second),
		CreatedAt: time.Now(),
	}
}
