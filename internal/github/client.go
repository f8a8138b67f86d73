// internal/github/client.go
package github

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/google/go-github/v62/github"
	"golang.org/x/oauth2"

	apperrors "github-star-history/internal/errors"
	"github-star-history/internal/model"
)

// Upstream pages hold at most this many stargazers.
const pageSize = 100

// Client is a wrapper around the go-github client. It fetches one stargazer
// page at a time; the cursor is opaque to callers and the empty string means
// "first page".
type Client struct {
	gh     *github.Client
	logger *slog.Logger
}

// NewClient creates and configures a new Client instance.
// The provided token is used to create an authenticated http.Client with a
// bounded per-request timeout so a hung upstream cannot strand a sync.
func NewClient(token string, timeout time.Duration, logger *slog.Logger) *Client {
	ctx := context.Background()
	ts := oauth2.StaticTokenSource(
		&oauth2.Token{AccessToken: token},
	)
	tc := oauth2.NewClient(ctx, ts)
	tc.Timeout = timeout

	return &Client{
		gh:     github.NewClient(tc),
		logger: logger,
	}
}

// OverrideBaseURL points the client at a different API root. Used by tests
// running against a stub server.
func (c *Client) OverrideBaseURL(url string) error {
	gh, err := c.gh.WithEnterpriseURLs(url, url)
	if err != nil {
		return err
	}
	c.gh = gh
	return nil
}

// FetchPage fetches a single page of star events for a repository, ordered by
// starred-at ascending. It translates upstream failures into the typed error
// taxonomy and never touches persistence.
func (c *Client) FetchPage(ctx context.Context, owner, name, cursor string) (model.StarPage, error) {
	page, err := decodeCursor(cursor)
	if err != nil {
		return model.StarPage{}, err
	}

	opts := &github.ListOptions{
		Page:    page,
		PerPage: pageSize,
	}

	c.logger.Debug("Fetching stargazers page", "owner", owner, "repo", name, "page", page)

	stargazers, resp, err := c.gh.Activity.ListStargazers(ctx, owner, name, opts)
	if err != nil {
		return model.StarPage{}, classifyError(owner, name, err)
	}

	observed := time.Now().UTC()
	events := make([]model.StarEvent, 0, len(stargazers))
	for _, sg := range stargazers {
		events = append(events, toStarEvent(sg, observed))
	}

	result := model.StarPage{
		Events:  events,
		HasNext: resp.NextPage != 0,
	}
	if result.HasNext {
		result.NextCursor = strconv.Itoa(resp.NextPage)
	}
	return result, nil
}

// toStarEvent translates a github.Stargazer into our internal model.
// ObservedAt is clamped so starred_at <= observed_at holds even under
// upstream clock skew.
func toStarEvent(sg *github.Stargazer, observed time.Time) model.StarEvent {
	starred := sg.GetStarredAt().Time.UTC()
	if starred.After(observed) {
		observed = starred
	}
	return model.StarEvent{
		Stargazer:  sg.GetUser().GetLogin(),
		StarredAt:  starred,
		ObservedAt: observed,
	}
}

func decodeCursor(cursor string) (int, error) {
	if cursor == "" {
		return 0, nil
	}
	page, err := strconv.Atoi(cursor)
	if err != nil || page < 1 {
		return 0, &apperrors.ErrInvalidRequest{Reason: "unrecognized pagination cursor"}
	}
	return page, nil
}

// classifyError maps go-github failures onto the typed taxonomy.
func classifyError(owner, name string, err error) error {
	var rateErr *github.RateLimitError
	if errors.As(err, &rateErr) {
		return &apperrors.ErrUpstreamRejected{
			StatusCode: http.StatusForbidden,
			Body:       rateErr.Message,
		}
	}

	var ghErr *github.ErrorResponse
	if errors.As(err, &ghErr) {
		if ghErr.Response != nil && ghErr.Response.StatusCode == http.StatusNotFound {
			return &apperrors.ErrRepositoryNotFound{Owner: owner, Name: name}
		}
		status := 0
		if ghErr.Response != nil {
			status = ghErr.Response.StatusCode
		}
		return &apperrors.ErrUpstreamRejected{StatusCode: status, Body: ghErr.Message}
	}

	var syntaxErr *json.SyntaxError
	var typeErr *json.UnmarshalTypeError
	if errors.As(err, &syntaxErr) || errors.As(err, &typeErr) || errors.Is(err, io.ErrUnexpectedEOF) {
		return &apperrors.ErrMalformedResponse{Err: err}
	}

	return &apperrors.ErrUpstreamUnavailable{Err: err}
}
