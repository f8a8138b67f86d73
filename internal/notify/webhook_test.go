// internal/notify/webhook_test.go
package notify

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github-star-history/internal/model"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelWarn}))
}

func TestWebhookDispatcher_Notify(t *testing.T) {
	jobID := uuid.New()
	status := model.JobStatus{
		ID:              jobID,
		State:           model.JobCompleted,
		PagesProcessed:  2,
		EventsProcessed: 105,
	}

	t.Run("delivers the terminal payload", func(t *testing.T) {
		var received map[string]any
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, http.MethodPost, r.Method)
			assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
			body, _ := io.ReadAll(r.Body)
			require.NoError(t, json.Unmarshal(body, &received))
			w.WriteHeader(http.StatusOK)
		}))
		defer server.Close()

		d := NewWebhookDispatcher(time.Second, testLogger())
		err := d.Notify(context.Background(), server.URL, status)

		require.NoError(t, err)
		assert.Equal(t, jobID.String(), received["job_id"])
		assert.Equal(t, "completed", received["final_state"])
		assert.EqualValues(t, 2, received["pages_processed"])
		assert.EqualValues(t, 105, received["events_processed"])
		_, hasError := received["error"]
		assert.False(t, hasError, "error field omitted for completed jobs")
	})

	t.Run("non-2xx response is reported as an error", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusInternalServerError)
		}))
		defer server.Close()

		d := NewWebhookDispatcher(time.Second, testLogger())
		err := d.Notify(context.Background(), server.URL, status)

		assert.Error(t, err)
	})

	t.Run("unreachable endpoint is reported as an error", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
		server.Close()

		d := NewWebhookDispatcher(time.Second, testLogger())
		err := d.Notify(context.Background(), server.URL, status)

		assert.Error(t, err)
	})

	t.Run("failed job carries the error description", func(t *testing.T) {
		failed := status
		failed.State = model.JobFailed
		failed.Error = "fetch page 2: upstream unavailable"

		var received map[string]any
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			body, _ := io.ReadAll(r.Body)
			require.NoError(t, json.Unmarshal(body, &received))
			w.WriteHeader(http.StatusNoContent)
		}))
		defer server.Close()

		d := NewWebhookDispatcher(time.Second, testLogger())
		require.NoError(t, d.Notify(context.Background(), server.URL, failed))

		assert.Equal(t, "failed", received["final_state"])
		assert.Contains(t, received["error"], "upstream unavailable")
	})
}
