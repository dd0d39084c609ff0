package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/jayainhufs/coding-sam/internal/runner"
)

// DefaultJobTimeout applies when a job carries no timeout
const DefaultJobTimeout = 60 * time.Second

// JobHandler processes run jobs
type JobHandler func(ctx context.Context, job *RunJob) (*RunResult, error)

// NewRunHandler returns a JobHandler that executes jobs with svc
func NewRunHandler(svc *runner.Service) JobHandler {
	return func(ctx context.Context, job *RunJob) (*RunResult, error) {
		result, err := svc.Execute(ctx, job.Request)
		if err != nil {
			return nil, err
		}
		return &RunResult{Status: StatusCompleted, Result: result}, nil
	}
}

// Consumer consumes run jobs from the queue
type Consumer struct {
	conn       *Connection
	handler    JobHandler
	producer   *Producer
	workers    int
	prefetch   int
	cancelFunc context.CancelFunc
	wg         sync.WaitGroup
}

// ConsumerConfig holds consumer configuration
type ConsumerConfig struct {
	Workers  int // concurrent workers
	Prefetch int // unacknowledged messages per channel
}

// DefaultConsumerConfig returns the consumer defaults
func DefaultConsumerConfig() ConsumerConfig {
	return ConsumerConfig{
		Workers:  2,
		Prefetch: 4,
	}
}

func (cfg ConsumerConfig) withDefaults() ConsumerConfig {
	def := DefaultConsumerConfig()
	if cfg.Workers <= 0 {
		cfg.Workers = def.Workers
	}
	if cfg.Prefetch <= 0 {
		cfg.Prefetch = def.Prefetch
	}
	return cfg
}

// NewConsumer creates a new queue consumer
func NewConsumer(conn *Connection, handler JobHandler, cfg ConsumerConfig) *Consumer {
	cfg = cfg.withDefaults()

	return &Consumer{
		conn:     conn,
		handler:  handler,
		producer: NewProducer(conn),
		workers:  cfg.Workers,
		prefetch: cfg.Prefetch,
	}
}

// Start begins consuming messages
func (c *Consumer) Start(ctx context.Context) error {
	ctx, c.cancelFunc = context.WithCancel(ctx)

	ch := c.conn.Channel()

	if err := ch.Qos(c.prefetch, 0, false); err != nil {
		return fmt.Errorf("set QoS: %w", err)
	}

	msgs, err := ch.Consume(
		RunQueueName,
		"",    // consumer tag (auto-generated)
		false, // auto-ack
		false, // exclusive
		false, // no-local
		false, // no-wait
		nil,   // args
	)
	if err != nil {
		return fmt.Errorf("start consuming: %w", err)
	}

	slog.Info("starting run queue consumer", "workers", c.workers, "prefetch", c.prefetch)

	for i := range c.workers {
		c.wg.Add(1)
		go c.worker(ctx, i, msgs)
	}

	return nil
}

func (c *Consumer) worker(ctx context.Context, id int, msgs <-chan amqp.Delivery) {
	defer c.wg.Done()

	for {
		select {
		case <-ctx.Done():
			return

		case msg, ok := <-msgs:
			if !ok {
				slog.Info("message channel closed", "worker_id", id)
				return
			}
			c.processMessage(ctx, id, msg)
		}
	}
}

func (c *Consumer) processMessage(ctx context.Context, workerID int, msg amqp.Delivery) {
	result, err := process(ctx, c.handler, msg.Body)
	if err != nil {
		slog.Error("rejecting malformed run job", "worker_id", workerID, "error", err)
		_ = msg.Reject(false)
		return
	}

	if err := c.producer.PublishResult(ctx, result); err != nil {
		slog.Error("failed to publish result", "worker_id", workerID, "job_id", result.JobID, "error", err)
	}

	if err := msg.Ack(false); err != nil {
		slog.Error("failed to ack message", "worker_id", workerID, "job_id", result.JobID, "error", err)
	}
}

// process decodes one job and runs it. Handler failures become failed or
// timed out results; only undecodable bodies return an error.
func process(ctx context.Context, handler JobHandler, body []byte) (*RunResult, error) {
	start := time.Now()

	var job RunJob
	if err := json.Unmarshal(body, &job); err != nil {
		return nil, fmt.Errorf("unmarshal job: %w", err)
	}

	timeout := time.Duration(job.Timeout) * time.Second
	if timeout <= 0 {
		timeout = DefaultJobTimeout
	}
	jobCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	slog.Info("processing run job", "job_id", job.ID, "user_id", job.UserID, "language", job.Request.Language)

	result, err := handler(jobCtx, &job)
	duration := time.Since(start)

	if err != nil {
		result = &RunResult{Status: StatusFailed, Error: err.Error()}
		if errors.Is(err, context.DeadlineExceeded) || errors.Is(jobCtx.Err(), context.DeadlineExceeded) {
			result.Status = StatusTimeout
			result.Error = "execution timed out"
		}
		slog.Warn("run job failed", "job_id", job.ID, "status", result.Status, "error", err)
	} else if result.Status == "" {
		result.Status = StatusCompleted
	}

	result.JobID = job.ID
	result.Duration = duration
	result.CompletedAt = time.Now()
	return result, nil
}

// Stop gracefully stops the consumer
func (c *Consumer) Stop() {
	if c.cancelFunc != nil {
		c.cancelFunc()
	}
	c.wg.Wait()
	slog.Info("consumer stopped")
}

// ResultConsumer consumes run results and dispatches them to per-job
// handlers
type ResultConsumer struct {
	conn       *Connection
	handlers   map[string]ResultHandler
	handlersMu sync.RWMutex
	cancelFunc context.CancelFunc
	wg         sync.WaitGroup
}

// ResultHandler handles a run result for a specific job
type ResultHandler func(result *RunResult)

// NewResultConsumer creates a result consumer
func NewResultConsumer(conn *Connection) *ResultConsumer {
	return &ResultConsumer{
		conn:     conn,
		handlers: make(map[string]ResultHandler),
	}
}

// Subscribe registers a handler for results of a specific job
func (rc *ResultConsumer) Subscribe(jobID string, handler ResultHandler) {
	rc.handlersMu.Lock()
	defer rc.handlersMu.Unlock()
	rc.handlers[jobID] = handler
}

// Unsubscribe removes a handler
func (rc *ResultConsumer) Unsubscribe(jobID string) {
	rc.handlersMu.Lock()
	defer rc.handlersMu.Unlock()
	delete(rc.handlers, jobID)
}

// Start begins consuming results
func (rc *ResultConsumer) Start(ctx context.Context) error {
	ctx, rc.cancelFunc = context.WithCancel(ctx)

	msgs, err := rc.conn.Channel().Consume(
		ResultQueueName,
		"",    // consumer tag
		true,  // auto-ack
		false, // exclusive
		false, // no-local
		false, // no-wait
		nil,   // args
	)
	if err != nil {
		return fmt.Errorf("start result consumer: %w", err)
	}

	rc.wg.Add(1)
	go rc.consume(ctx, msgs)

	return nil
}

func (rc *ResultConsumer) consume(ctx context.Context, msgs <-chan amqp.Delivery) {
	defer rc.wg.Done()

	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-msgs:
			if !ok {
				return
			}
			rc.dispatch(msg.Body)
		}
	}
}

func (rc *ResultConsumer) dispatch(body []byte) {
	var result RunResult
	if err := json.Unmarshal(body, &result); err != nil {
		slog.Error("failed to unmarshal result", "error", err)
		return
	}

	rc.handlersMu.RLock()
	handler, ok := rc.handlers[result.JobID.String()]
	rc.handlersMu.RUnlock()

	if ok {
		handler(&result)
	}
}

// Stop stops the result consumer
func (rc *ResultConsumer) Stop() {
	if rc.cancelFunc != nil {
		rc.cancelFunc()
	}
	rc.wg.Wait()
}
