// internal/api/handler.go
package api

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github-star-history/internal/analytics"
	apperrors "github-star-history/internal/errors"
	"github-star-history/internal/jobs"
	"github-star-history/internal/model"
	"github-star-history/internal/render"
	"github-star-history/internal/store"
	"github-star-history/internal/syncer"
)

// RepoSyncer runs a full star history sync for one repository.
type RepoSyncer interface {
	SyncRepository(ctx context.Context, owner, name string, progress syncer.ProgressFunc) (syncer.Result, error)
}

// Options bundles the request-validation and job-run settings the handler
// needs from configuration.
type Options struct {
	MaxCompareRepos int
	SyncTimeout     time.Duration
}

// Handler is the container for API dependencies.
type Handler struct {
	db       store.Store
	syncer   RepoSyncer
	tracker  *jobs.Tracker
	renderer render.Renderer
	logger   *slog.Logger
	opts     Options
}

// NewRouter creates and configures a new chi router with all API routes.
func NewRouter(db store.Store, rs RepoSyncer, tracker *jobs.Tracker, renderer render.Renderer, logger *slog.Logger, opts Options) http.Handler {
	h := &Handler{
		db:       db,
		syncer:   rs,
		tracker:  tracker,
		renderer: renderer,
		logger:   logger,
		opts:     opts,
	}

	r := chi.NewRouter()

	// Middleware stack
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger) // Chi's default logger
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(60 * time.Second))

	// API Routes
	r.Get("/health", h.healthCheck)
	r.Route("/v1", func(r chi.Router) {
		r.Post("/repos/{owner}/{name}/sync", h.createSyncJob)
		r.Get("/jobs/{jobID}", h.getJob)
		r.Get("/repos/{owner}/{name}/stars/daily", h.getDailyCounts)
		r.Get("/stars/series", h.getSeries)
		r.Get("/stars/graph", h.getGraph)
	})

	return r
}

// healthCheck is a simple health endpoint.
func (h *Handler) healthCheck(w http.ResponseWriter, r *http.Request) {
	respondWithJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// createSyncJob allocates a Pending job and launches the sync on its own
// goroutine, decoupled from this request.
// POST /v1/repos/{owner}/{name}/sync
func (h *Handler) createSyncJob(w http.ResponseWriter, r *http.Request) {
	owner := chi.URLParam(r, "owner")
	name := chi.URLParam(r, "name")
	if owner == "" || name == "" {
		respondWithError(w, http.StatusBadRequest, "Repository owner and name are required")
		return
	}

	var req struct {
		NotifyURL string `json:"notify_url"`
	}
	if r.Body != nil && r.ContentLength != 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			respondWithError(w, http.StatusBadRequest, "Invalid request body")
			return
		}
	}

	jobID := h.tracker.Create(owner, name, req.NotifyURL)
	go h.runSync(jobID, owner, name)

	respondWithJSON(w, http.StatusAccepted, map[string]string{"job_id": jobID.String()})
}

// runSync is the per-job goroutine: it drives the sync engine and converts
// its outcome into the job's terminal state.
func (h *Handler) runSync(jobID uuid.UUID, owner, name string) {
	ctx, cancel := context.WithTimeout(context.Background(), h.opts.SyncTimeout)
	defer cancel()

	_, err := h.syncer.SyncRepository(ctx, owner, name, func(page, eventsInPage int) {
		h.tracker.ReportProgress(jobID, page, eventsInPage)
	})
	if err != nil {
		h.tracker.Fail(jobID, err)
		return
	}
	h.tracker.Complete(jobID)
}

// getJob returns a snapshot of a sync job.
// GET /v1/jobs/{jobID}
func (h *Handler) getJob(w http.ResponseWriter, r *http.Request) {
	jobID, err := uuid.Parse(chi.URLParam(r, "jobID"))
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid job id")
		return
	}

	status, ok := h.tracker.Get(jobID)
	if !ok {
		respondWithError(w, http.StatusNotFound, "Job not found")
		return
	}
	respondWithJSON(w, http.StatusOK, status)
}

// getDailyCounts handles the request for per-day star counts.
// GET /v1/repos/{owner}/{name}/stars/daily
func (h *Handler) getDailyCounts(w http.ResponseWriter, r *http.Request) {
	owner := chi.URLParam(r, "owner")
	name := chi.URLParam(r, "name")

	repo, err := h.db.GetRepositoryByOwnerAndName(r.Context(), owner, name)
	if err != nil {
		var notFound *apperrors.ErrRepositoryNotFound
		if errors.As(err, &notFound) {
			respondWithError(w, http.StatusNotFound, "Repository not found")
			return
		}
		h.logger.Error("Failed to get repository", "error", err)
		respondWithError(w, http.StatusInternalServerError, "Internal server error")
		return
	}

	counts, err := h.db.GetDailyCounts(r.Context(), repo.ID)
	if err != nil {
		h.logger.Error("Failed to get daily counts", "error", err)
		respondWithError(w, http.StatusInternalServerError, "Internal server error")
		return
	}
	if counts == nil {
		counts = []model.DailyCount{}
	}

	respondWithJSON(w, http.StatusOK, counts)
}

// getSeries returns derived metric series as JSON.
// GET /v1/stars/series?repos=o1/n1,o2/n2&metric=position&relative=false
func (h *Handler) getSeries(w http.ResponseWriter, r *http.Request) {
	data, ok := h.deriveSeries(w, r)
	if !ok {
		return
	}
	respondWithJSON(w, http.StatusOK, data)
}

// getGraph renders derived metric series as an image.
// GET /v1/stars/graph?repos=o1/n1,o2/n2&metric=speed&relative=true
func (h *Handler) getGraph(w http.ResponseWriter, r *http.Request) {
	data, ok := h.deriveSeries(w, r)
	if !ok {
		return
	}

	artifact, contentType, err := h.renderer.Render(data)
	if err != nil {
		h.logger.Error("Failed to render chart", "error", err)
		respondWithError(w, http.StatusInternalServerError, "Chart generation failed")
		return
	}

	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Cache-Control", "public, max-age=3600")
	w.WriteHeader(http.StatusOK)
	w.Write(artifact)
}

// deriveSeries validates the analytics request, loads daily counts for every
// requested repository concurrently, and runs the deriver. Validation happens
// before any work; repositories with no persisted data yield empty series.
func (h *Handler) deriveSeries(w http.ResponseWriter, r *http.Request) (analytics.MultiRepoSeries, bool) {
	repos, metric, relative, err := h.parseSeriesRequest(r)
	if err != nil {
		respondWithError(w, http.StatusBadRequest, err.Error())
		return analytics.MultiRepoSeries{}, false
	}

	repoCounts := make([]analytics.RepoCounts, len(repos))
	g, gctx := errgroup.WithContext(r.Context())
	for i, id := range repos {
		i, id := i, id
		g.Go(func() error {
			counts, err := h.loadDailyCounts(gctx, id.Owner, id.Name)
			if err != nil {
				return err
			}
			repoCounts[i] = analytics.RepoCounts{Owner: id.Owner, Name: id.Name, Counts: counts}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		h.logger.Error("Failed to load daily counts", "error", err)
		respondWithError(w, http.StatusInternalServerError, "Internal server error")
		return analytics.MultiRepoSeries{}, false
	}

	return analytics.Process(repoCounts, metric, relative), true
}

// loadDailyCounts treats an unknown repository as "no data yet": the deriver
// turns that into an empty series so rendering can show a placeholder.
func (h *Handler) loadDailyCounts(ctx context.Context, owner, name string) ([]model.DailyCount, error) {
	repo, err := h.db.GetRepositoryByOwnerAndName(ctx, owner, name)
	if err != nil {
		var notFound *apperrors.ErrRepositoryNotFound
		if errors.As(err, &notFound) {
			return nil, nil
		}
		return nil, err
	}
	return h.db.GetDailyCounts(ctx, repo.ID)
}

type repoIdentifier struct {
	Owner string
	Name  string
}

func (h *Handler) parseSeriesRequest(r *http.Request) ([]repoIdentifier, analytics.Metric, bool, error) {
	reposParam := r.URL.Query().Get("repos")
	if reposParam == "" {
		return nil, "", false, &apperrors.ErrInvalidRequest{Reason: "'repos' query parameter is required"}
	}

	parts := strings.Split(reposParam, ",")
	if len(parts) > h.opts.MaxCompareRepos {
		return nil, "", false, &apperrors.ErrInvalidRequest{
			Reason: "at most " + strconv.Itoa(h.opts.MaxCompareRepos) + " repositories may be compared",
		}
	}

	repos := make([]repoIdentifier, 0, len(parts))
	for _, part := range parts {
		fields := strings.Split(strings.TrimSpace(part), "/")
		if len(fields) != 2 || fields[0] == "" || fields[1] == "" {
			return nil, "", false, &apperrors.ErrInvalidRepoFormat{Repo: part}
		}
		repos = append(repos, repoIdentifier{Owner: fields[0], Name: fields[1]})
	}

	metricParam := r.URL.Query().Get("metric")
	if metricParam == "" {
		metricParam = string(analytics.MetricPosition)
	}
	metric, err := analytics.ParseMetric(metricParam)
	if err != nil {
		return nil, "", false, err
	}

	relative := false
	if v := r.URL.Query().Get("relative"); v != "" {
		relative, err = strconv.ParseBool(v)
		if err != nil {
			return nil, "", false, &apperrors.ErrInvalidRequest{Reason: "'relative' must be a boolean"}
		}
	}

	return repos, metric, relative, nil
}
