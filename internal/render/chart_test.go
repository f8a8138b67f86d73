// internal/render/chart_test.go
package render

import (
	"bytes"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github-star-history/internal/analytics"
	"github-star-history/internal/model"
)

func series(t *testing.T, metric analytics.Metric, relative bool) analytics.MultiRepoSeries {
	t.Helper()
	base, err := time.Parse("2006-01-02", "2024-03-01")
	require.NoError(t, err)

	counts := []model.DailyCount{
		{Day: base, Count: 3},
		{Day: base.AddDate(0, 0, 1), Count: 5},
		{Day: base.AddDate(0, 0, 2), Count: 1},
	}
	return analytics.Process([]analytics.RepoCounts{
		{Owner: "test-owner", Name: "test-repo", Counts: counts},
	}, metric, relative)
}

var pngHeader = []byte{0x89, 'P', 'N', 'G'}

func TestChartRenderer_Render(t *testing.T) {
	r := NewChartRenderer()

	t.Run("absolute axis renders a PNG", func(t *testing.T) {
		artifact, contentType, err := r.Render(series(t, analytics.MetricPosition, false))

		require.NoError(t, err)
		assert.Equal(t, "image/png", contentType)
		assert.True(t, bytes.HasPrefix(artifact, pngHeader))
	})

	t.Run("relative axis renders a PNG", func(t *testing.T) {
		artifact, contentType, err := r.Render(series(t, analytics.MetricSpeed, true))

		require.NoError(t, err)
		assert.Equal(t, "image/png", contentType)
		assert.True(t, bytes.HasPrefix(artifact, pngHeader))
	})

	t.Run("empty data renders the placeholder", func(t *testing.T) {
		empty := analytics.Process([]analytics.RepoCounts{
			{Owner: "test-owner", Name: "test-repo"},
		}, analytics.MetricPosition, false)

		artifact, contentType, err := r.Render(empty)

		require.NoError(t, err)
		assert.Equal(t, "image/svg+xml", contentType)
		assert.Contains(t, string(artifact), "No star data")
	})

	t.Run("single point falls back to the placeholder", func(t *testing.T) {
		base, _ := time.Parse("2006-01-02", "2024-03-01")
		one := analytics.Process([]analytics.RepoCounts{
			{Owner: "o", Name: "n", Counts: []model.DailyCount{{Day: base, Count: 1}}},
		}, analytics.MetricPosition, false)

		artifact, contentType, err := r.Render(one)

		require.NoError(t, err)
		assert.Equal(t, "image/svg+xml", contentType)
		assert.NotEmpty(t, artifact)
	})

	t.Run("single-point series sharing one date fall back to the placeholder", func(t *testing.T) {
		// Two repositories, one point each, same day: the x-axis would have
		// zero width, so the placeholder is served instead of an error.
		base, _ := time.Parse("2006-01-02", "2024-03-01")
		shared := analytics.Process([]analytics.RepoCounts{
			{Owner: "a", Name: "x", Counts: []model.DailyCount{{Day: base, Count: 1}}},
			{Owner: "b", Name: "y", Counts: []model.DailyCount{{Day: base, Count: 4}}},
		}, analytics.MetricPosition, false)

		artifact, contentType, err := r.Render(shared)

		require.NoError(t, err)
		assert.Equal(t, "image/svg+xml", contentType)
		assert.Contains(t, string(artifact), "No star data")
	})

	t.Run("single-point series on distinct dates still render", func(t *testing.T) {
		base, _ := time.Parse("2006-01-02", "2024-03-01")
		spread := analytics.Process([]analytics.RepoCounts{
			{Owner: "a", Name: "x", Counts: []model.DailyCount{{Day: base, Count: 1}}},
			{Owner: "b", Name: "y", Counts: []model.DailyCount{{Day: base.AddDate(0, 0, 3), Count: 4}}},
		}, analytics.MetricPosition, false)

		artifact, contentType, err := r.Render(spread)

		require.NoError(t, err)
		assert.Equal(t, "image/png", contentType)
		assert.True(t, bytes.HasPrefix(artifact, pngHeader))
	})
}
