// internal/render/chart.go
package render

import (
	"bytes"
	"fmt"

	"github.com/wcharczuk/go-chart/v2"

	"github-star-history/internal/analytics"
)

// Renderer turns derived multi-repository series into a renderable artifact.
type Renderer interface {
	Render(data analytics.MultiRepoSeries) (artifact []byte, contentType string, err error)
}

// ChartRenderer draws PNG line charts. Repositories with no data are shown
// as a placeholder rather than failing the request.
type ChartRenderer struct {
	Width  int
	Height int
}

// NewChartRenderer creates a renderer with the original chart dimensions.
func NewChartRenderer() *ChartRenderer {
	return &ChartRenderer{Width: 800, Height: 400}
}

// Render draws one line per repository. The x-axis is calendar time in
// absolute mode and day offsets from the shared start date in relative mode.
func (r *ChartRenderer) Render(data analytics.MultiRepoSeries) ([]byte, string, error) {
	series, distinctX := r.buildSeries(data)

	// go-chart cannot derive a range from a zero-width x-axis, which is what
	// a batch of single-point series on one shared date would produce.
	if len(series) == 0 || distinctX < 2 {
		return emptyChartSVG(r.Width, r.Height), "image/svg+xml", nil
	}

	graph := chart.Chart{
		Title:  chartTitle(data.Metric),
		Width:  r.Width,
		Height: r.Height,
		XAxis:  chart.XAxis{Name: xAxisName(data.Axis)},
		YAxis:  chart.YAxis{Name: yAxisName(data.Metric)},
		Series: series,
	}
	graph.Elements = []chart.Renderable{chart.Legend(&graph)}

	var buf bytes.Buffer
	if err := graph.Render(chart.PNG, &buf); err != nil {
		return nil, "", fmt.Errorf("render chart: %w", err)
	}
	return buf.Bytes(), "image/png", nil
}

// buildSeries returns one chart series per repository with data, along with
// the number of distinct x-axis values across all of them.
func (r *ChartRenderer) buildSeries(data analytics.MultiRepoSeries) ([]chart.Series, int) {
	var series []chart.Series
	seenX := make(map[float64]struct{})

	for i, repo := range data.Repositories {
		if len(repo.Points) == 0 {
			continue
		}
		style := chart.Style{StrokeColor: chart.GetDefaultColor(i)}
		name := repo.Owner + "/" + repo.Name

		if data.Axis.Relative {
			xs := make([]float64, len(repo.Points))
			ys := make([]float64, len(repo.Points))
			for j, p := range repo.Points {
				if p.RelativeDay != nil {
					xs[j] = float64(*p.RelativeDay)
				}
				ys[j] = p.Value
				seenX[xs[j]] = struct{}{}
			}
			series = append(series, chart.ContinuousSeries{
				Name:    name,
				Style:   style,
				XValues: xs,
				YValues: ys,
			})
			continue
		}

		ts := chart.TimeSeries{Name: name, Style: style}
		for _, p := range repo.Points {
			ts.XValues = append(ts.XValues, p.Date)
			ts.YValues = append(ts.YValues, p.Value)
			seenX[float64(p.Date.Unix())] = struct{}{}
		}
		series = append(series, ts)
	}
	return series, len(seenX)
}

func chartTitle(metric analytics.Metric) string {
	switch metric {
	case analytics.MetricPosition:
		return "Cumulative Stars"
	case analytics.MetricSpeed:
		return "Stars per Day"
	default:
		return "Star Growth Change"
	}
}

func yAxisName(metric analytics.Metric) string {
	switch metric {
	case analytics.MetricPosition:
		return "stars"
	case analytics.MetricSpeed:
		return "stars/day"
	default:
		return "change in stars/day"
	}
}

func xAxisName(axis analytics.TimeAxis) string {
	if axis.Relative {
		return "days since start"
	}
	return "date"
}

// emptyChartSVG is the "no data" placeholder shown when every requested
// repository has an empty series.
func emptyChartSVG(width, height int) []byte {
	svg := fmt.Sprintf(`<svg xmlns="http://www.w3.org/2000/svg" width="%d" height="%d">`+
		`<rect width="100%%" height="100%%" fill="white"/>`+
		`<text x="50%%" y="50%%" text-anchor="middle" font-family="sans-serif" font-size="16" fill="#666">No star data available</text>`+
		`</svg>`, width, height)
	return []byte(svg)
}
