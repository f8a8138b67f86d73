// internal/syncer/syncer.go
package syncer

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	apperrors "github-star-history/internal/errors"
	"github-star-history/internal/model"
	"github-star-history/internal/store"
)

// PageFetcher fetches one page of star events given an opaque cursor.
// An empty cursor means "first page".
type PageFetcher interface {
	FetchPage(ctx context.Context, owner, name, cursor string) (model.StarPage, error)
}

// ProgressFunc receives (page number, events in that page) after each page is
// fetched and persisted.
type ProgressFunc func(pageNumber, eventsInPage int)

// Result summarizes a completed sync run.
type Result struct {
	Repository model.Repository
	Pages      int
	Events     int
}

// Syncer drives the page fetcher to exhaustion for one repository,
// persisting each page before requesting the next.
type Syncer struct {
	fetcher   PageFetcher
	store     store.Store
	logger    *slog.Logger
	pageDelay time.Duration
}

// NewSyncer creates a new Syncer instance. pageDelay is the pause enforced
// between successful pages to respect upstream rate limits.
func NewSyncer(fetcher PageFetcher, st store.Store, logger *slog.Logger, pageDelay time.Duration) *Syncer {
	return &Syncer{
		fetcher:   fetcher,
		store:     st,
		logger:    logger,
		pageDelay: pageDelay,
	}
}

// SyncRepository ingests the full star history of one repository.
//
// Any fetch or persistence error aborts the run immediately with a
// stage-tagged error; pages persisted before the failure stay committed.
// Re-running is safe because the store dedupes on the natural key. The first
// successful page is the proof the repository exists, so the repository
// record is resolved only then.
func (s *Syncer) SyncRepository(ctx context.Context, owner, name string, progress ProgressFunc) (Result, error) {
	logger := s.logger.With("owner", owner, "repo", name)
	logger.Info("Starting star history sync")

	var (
		result Result
		cursor string
	)

	for {
		page, err := s.fetcher.FetchPage(ctx, owner, name, cursor)
		if err != nil {
			return result, fmt.Errorf("fetch page %d: %w", result.Pages+1, err)
		}

		if result.Pages == 0 {
			repo, err := s.store.UpsertRepository(ctx, owner, name)
			if err != nil {
				return result, fmt.Errorf("resolve repository: %w",
					&apperrors.ErrPersistence{Op: "upsert repository", Err: err})
			}
			result.Repository = repo
			logger = logger.With("repo_id", repo.ID)
		}

		if _, err := s.store.UpsertStarEvents(ctx, result.Repository.ID, page.Events); err != nil {
			return result, fmt.Errorf("persist page %d: %w", result.Pages+1,
				&apperrors.ErrPersistence{Op: "upsert star events", Err: err})
		}

		result.Pages++
		result.Events += len(page.Events)
		logger.Debug("Page persisted", "page", result.Pages, "events", len(page.Events))

		if progress != nil {
			progress(result.Pages, len(page.Events))
		}

		if !page.HasNext {
			break
		}
		cursor = page.NextCursor

		// Pause only between successful pages, never before the first.
		select {
		case <-time.After(s.pageDelay):
		case <-ctx.Done():
			return result, ctx.Err()
		}
	}

	logger.Info("Star history sync finished", "pages", result.Pages, "events", result.Events)
	return result, nil
}
