// internal/store/store.go
package store

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github-star-history/internal/model"
)

// Store is the persistence surface the rest of the application depends on.
// All writes are idempotent on their natural keys, so re-running a sync for
// the same repository never duplicates rows.
type Store interface {
	// UpsertRepository returns the existing repository for (owner, name) or
	// creates one with a fresh id.
	UpsertRepository(ctx context.Context, owner, name string) (model.Repository, error)

	// GetRepositoryByOwnerAndName returns ErrRepositoryNotFound when the
	// repository has never been synced.
	GetRepositoryByOwnerAndName(ctx context.Context, owner, name string) (model.Repository, error)

	// UpsertStarEvents inserts a batch of events, ignoring conflicts on the
	// (repository_id, stargazer) natural key. Returns the number of rows
	// actually inserted.
	UpsertStarEvents(ctx context.Context, repoID uuid.UUID, events []model.StarEvent) (int64, error)

	// GetDailyCounts aggregates stars per starred-at calendar day, ordered
	// ascending. Days with no stars are absent.
	GetDailyCounts(ctx context.Context, repoID uuid.UUID) ([]model.DailyCount, error)

	// GetLatestEventDate returns the most recent starred-at timestamp, or nil
	// when no events are persisted.
	GetLatestEventDate(ctx context.Context, repoID uuid.UUID) (*time.Time, error)
}
