// internal/store/postgres.go
package store

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	apperrors "github-star-history/internal/errors"
	"github-star-history/internal/model"
)

// Postgres implements Store on a pgx connection pool.
type Postgres struct {
	pool   *pgxpool.Pool
	logger *slog.Logger
}

// NewPostgres creates a Postgres store backed by the given pool.
func NewPostgres(pool *pgxpool.Pool, logger *slog.Logger) *Postgres {
	return &Postgres{pool: pool, logger: logger}
}

// UpsertRepository creates the repository row if absent and returns it either
// way. The no-op DO UPDATE makes RETURNING yield the existing row on conflict.
func (p *Postgres) UpsertRepository(ctx context.Context, owner, name string) (model.Repository, error) {
	const q = `
		INSERT INTO repositories (id, owner, name)
		VALUES ($1, $2, $3)
		ON CONFLICT (owner, name) DO UPDATE SET owner = EXCLUDED.owner
		RETURNING id, owner, name, created_at`

	var repo model.Repository
	err := p.pool.QueryRow(ctx, q, uuid.New(), owner, name).
		Scan(&repo.ID, &repo.Owner, &repo.Name, &repo.CreatedAt)
	if err != nil {
		return model.Repository{}, err
	}
	return repo, nil
}

func (p *Postgres) GetRepositoryByOwnerAndName(ctx context.Context, owner, name string) (model.Repository, error) {
	const q = `
		SELECT id, owner, name, created_at
		FROM repositories
		WHERE owner = $1 AND name = $2`

	var repo model.Repository
	err := p.pool.QueryRow(ctx, q, owner, name).
		Scan(&repo.ID, &repo.Owner, &repo.Name, &repo.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return model.Repository{}, &apperrors.ErrRepositoryNotFound{Owner: owner, Name: name}
	}
	if err != nil {
		return model.Repository{}, err
	}
	return repo, nil
}

// UpsertStarEvents writes one page of events as a single batch. Conflicts on
// (repository_id, stargazer) are ignored, so re-observing a stargazer never
// creates a duplicate.
func (p *Postgres) UpsertStarEvents(ctx context.Context, repoID uuid.UUID, events []model.StarEvent) (int64, error) {
	if len(events) == 0 {
		return 0, nil
	}

	const q = `
		INSERT INTO stars (repository_id, stargazer, starred_at, fetched_at)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (repository_id, stargazer) DO NOTHING`

	batch := &pgx.Batch{}
	for _, ev := range events {
		batch.Queue(q, repoID, ev.Stargazer, ev.StarredAt, ev.ObservedAt)
	}

	results := p.pool.SendBatch(ctx, batch)
	defer results.Close()

	var inserted int64
	for range events {
		tag, err := results.Exec()
		if err != nil {
			return inserted, err
		}
		inserted += tag.RowsAffected()
	}
	return inserted, nil
}

func (p *Postgres) GetDailyCounts(ctx context.Context, repoID uuid.UUID) ([]model.DailyCount, error) {
	const q = `
		SELECT DATE(starred_at), COUNT(*)
		FROM stars
		WHERE repository_id = $1
		GROUP BY DATE(starred_at)
		ORDER BY DATE(starred_at)`

	rows, err := p.pool.Query(ctx, q, repoID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var counts []model.DailyCount
	for rows.Next() {
		var c model.DailyCount
		if err := rows.Scan(&c.Day, &c.Count); err != nil {
			return nil, err
		}
		c.Day = c.Day.UTC()
		counts = append(counts, c)
	}
	return counts, rows.Err()
}

func (p *Postgres) GetLatestEventDate(ctx context.Context, repoID uuid.UUID) (*time.Time, error) {
	const q = `SELECT MAX(starred_at) FROM stars WHERE repository_id = $1`

	var latest *time.Time
	if err := p.pool.QueryRow(ctx, q, repoID).Scan(&latest); err != nil {
		return nil, err
	}
	return latest, nil
}
