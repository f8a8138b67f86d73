// internal/model/models.go
package model

import (
	"time"

	"github.com/google/uuid"
)

// Repository identifies a tracked GitHub repository. The (Owner, Name) pair
// is unique; ID is assigned on first sync and never changes.
type Repository struct {
	ID        uuid.UUID `json:"id"`
	Owner     string    `json:"owner"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"created_at"`
}

// StarEvent is one observed star. The natural key is
// (repository id, Stargazer): a user can star a repository only once.
// Invariant: StarredAt <= ObservedAt.
type StarEvent struct {
	Stargazer  string    `json:"stargazer"`
	StarredAt  time.Time `json:"starred_at"`
	ObservedAt time.Time `json:"observed_at"`
}

// StarPage is one page of star events from the upstream API, ordered by
// StarredAt ascending. NextCursor is opaque to everything but the fetcher;
// the empty string means "first page".
type StarPage struct {
	Events     []StarEvent
	HasNext    bool
	NextCursor string
}

// DailyCount is the number of stars for one calendar day. Derived on read
// by aggregation, never stored.
type DailyCount struct {
	Day   time.Time `json:"date"`
	Count int64     `json:"count"`
}

// JobState is the lifecycle state of a sync job.
type JobState string

const (
	JobPending   JobState = "pending"
	JobRunning   JobState = "running"
	JobCompleted JobState = "completed"
	JobFailed    JobState = "failed"
)

// Terminal reports whether no further transition can occur from s.
func (s JobState) Terminal() bool {
	return s == JobCompleted || s == JobFailed
}

// JobStatus is a snapshot of a sync job. Jobs live only in memory; a process
// restart loses them and the same sync must be re-requested by the caller.
type JobStatus struct {
	ID              uuid.UUID `json:"job_id"`
	Owner           string    `json:"owner"`
	Name            string    `json:"name"`
	State           JobState  `json:"state"`
	PagesProcessed  int       `json:"pages_processed"`
	EventsProcessed int       `json:"events_processed"`
	Error           string    `json:"error,omitempty"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`

	NotifyEndpoint string `json:"-"`
}
