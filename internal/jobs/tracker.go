// internal/jobs/tracker.go
package jobs

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github-star-history/internal/model"
)

// Dispatcher delivers the terminal job snapshot to a caller-supplied
// endpoint. Best-effort: delivery failure never alters job state.
type Dispatcher interface {
	Notify(ctx context.Context, endpoint string, status model.JobStatus) error
}

// Tracker owns the lifecycle of asynchronous sync jobs. The registry lives
// only in memory and is guarded by a single mutex; job volume is low and
// critical sections are short. Each job is mutated by exactly one sync
// goroutine, while status polls take read-only snapshots.
type Tracker struct {
	mu   sync.Mutex
	jobs map[uuid.UUID]*model.JobStatus

	dispatcher    Dispatcher
	notifyTimeout time.Duration
	logger        *slog.Logger
}

// NewTracker creates a Tracker with its own isolated registry.
func NewTracker(dispatcher Dispatcher, notifyTimeout time.Duration, logger *slog.Logger) *Tracker {
	return &Tracker{
		jobs:          make(map[uuid.UUID]*model.JobStatus),
		dispatcher:    dispatcher,
		notifyTimeout: notifyTimeout,
		logger:        logger,
	}
}

// Create allocates a job in Pending and returns immediately. The sync itself
// runs on a separate goroutine owned by the caller.
func (t *Tracker) Create(owner, name, notifyEndpoint string) uuid.UUID {
	now := time.Now().UTC()
	job := &model.JobStatus{
		ID:             uuid.New(),
		Owner:          owner,
		Name:           name,
		State:          model.JobPending,
		NotifyEndpoint: notifyEndpoint,
		CreatedAt:      now,
		UpdatedAt:      now,
	}

	t.mu.Lock()
	t.jobs[job.ID] = job
	t.mu.Unlock()

	t.logger.Info("Sync job created", "job_id", job.ID, "owner", owner, "repo", name)
	return job.ID
}

// ReportProgress records one processed page. The first call transitions
// Pending -> Running. Counters only increase; reports arrive in page order
// because the owning sync goroutine issues them sequentially.
func (t *Tracker) ReportProgress(id uuid.UUID, pageNumber, eventsInPage int) {
	t.mu.Lock()
	defer t.mu.Unlock()

	job, ok := t.jobs[id]
	if !ok || job.State.Terminal() {
		return
	}

	if job.State == model.JobPending {
		job.State = model.JobRunning
	}
	if pageNumber > job.PagesProcessed {
		job.PagesProcessed = pageNumber
	}
	job.EventsProcessed += eventsInPage
	job.UpdatedAt = time.Now().UTC()
}

// Complete transitions the job to Completed. A no-op on already-terminal
// jobs, so a crash-retry path cannot double-fire notifications.
func (t *Tracker) Complete(id uuid.UUID) {
	t.finish(id, model.JobCompleted, "")
}

// Fail transitions the job to Failed, recording the error description.
// Idempotent like Complete.
func (t *Tracker) Fail(id uuid.UUID, err error) {
	desc := "sync failed"
	if err != nil {
		desc = err.Error()
	}
	t.finish(id, model.JobFailed, desc)
}

func (t *Tracker) finish(id uuid.UUID, state model.JobState, errDesc string) {
	t.mu.Lock()
	job, ok := t.jobs[id]
	if !ok || job.State.Terminal() {
		t.mu.Unlock()
		return
	}

	job.State = state
	job.Error = errDesc
	job.UpdatedAt = time.Now().UTC()
	snapshot := *job
	t.mu.Unlock()

	t.logger.Info("Sync job reached terminal state",
		"job_id", id, "state", state,
		"pages", snapshot.PagesProcessed, "events", snapshot.EventsProcessed)

	if snapshot.NotifyEndpoint == "" || t.dispatcher == nil {
		return
	}

	// Exactly one dispatch per job: the terminal transition above happens at
	// most once, and delivery runs detached so a slow endpoint never blocks
	// the sync goroutine.
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), t.notifyTimeout)
		defer cancel()
		if err := t.dispatcher.Notify(ctx, snapshot.NotifyEndpoint, snapshot); err != nil {
			t.logger.Warn("Job notification delivery failed",
				"job_id", id, "endpoint", snapshot.NotifyEndpoint, "error", err)
		}
	}()
}

// Get returns a read-only snapshot of the job.
func (t *Tracker) Get(id uuid.UUID) (model.JobStatus, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()

	job, ok := t.jobs[id]
	if !ok {
		return model.JobStatus{}, false
	}
	return *job, true
}
