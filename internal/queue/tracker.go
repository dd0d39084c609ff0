package queue

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/jayainhufs/coding-sam/internal/domain"
)

// Subscriber registers per-job result handlers. ResultConsumer implements it.
type Subscriber interface {
	Subscribe(jobID string, handler ResultHandler)
	Unsubscribe(jobID string)
}

type trackedRun struct {
	userID  string
	result  *RunResult
	expires time.Time
}

// Tracker submits run jobs and keeps their latest status so clients can
// poll for it. Entries are dropped after the retention period.
type Tracker struct {
	publisher  Publisher
	subscriber Subscriber
	retention  time.Duration
	now        func() time.Time

	mu   sync.Mutex
	runs map[uuid.UUID]*trackedRun
}

// NewTracker creates a tracker
func NewTracker(publisher Publisher, subscriber Subscriber, retention time.Duration) *Tracker {
	if retention <= 0 {
		retention = 10 * time.Minute
	}
	return &Tracker{
		publisher:  publisher,
		subscriber: subscriber,
		retention:  retention,
		now:        time.Now,
		runs:       make(map[uuid.UUID]*trackedRun),
	}
}

// Submit publishes job and records it as pending
func (t *Tracker) Submit(ctx context.Context, job *RunJob) (*RunResult, error) {
	if job.ID == uuid.Nil {
		job.ID = uuid.New()
	}
	pending := &RunResult{JobID: job.ID, Status: StatusPending}

	t.mu.Lock()
	t.evictLocked()
	t.runs[job.ID] = &trackedRun{userID: job.UserID, result: pending, expires: t.now().Add(t.retention)}
	t.mu.Unlock()

	key := job.ID.String()
	t.subscriber.Subscribe(key, func(r *RunResult) {
		t.complete(r)
		t.subscriber.Unsubscribe(key)
	})

	if err := t.publisher.PublishRunJob(ctx, job); err != nil {
		t.subscriber.Unsubscribe(key)
		t.mu.Lock()
		delete(t.runs, job.ID)
		t.mu.Unlock()
		return nil, err
	}

	return pending, nil
}

func (t *Tracker) complete(r *RunResult) {
	t.mu.Lock()
	defer t.mu.Unlock()

	run, ok := t.runs[r.JobID]
	if !ok {
		return
	}
	run.result = r
	run.expires = t.now().Add(t.retention)
}

// Get returns the latest status of a job submitted by userID
func (t *Tracker) Get(userID string, id uuid.UUID) (*RunResult, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.evictLocked()

	run, ok := t.runs[id]
	if !ok || run.userID != userID {
		return nil, fmt.Errorf("%w: %s", domain.ErrRunNotFound, id)
	}
	return run.result, nil
}

func (t *Tracker) evictLocked() {
	now := t.now()
	for id, run := range t.runs {
		if now.After(run.expires) {
			delete(t.runs, id)
		}
	}
}
