// internal/analytics/series.go
//
// Pure derivation of star metrics from sparse daily counts. No I/O: callers
// feed in aggregated (date, count) rows and get back ordered series.
package analytics

import (
	"time"

	apperrors "github-star-history/internal/errors"
	"github-star-history/internal/model"
)

// Metric selects which derived series to compute.
type Metric string

const (
	// MetricPosition is the cumulative star count.
	MetricPosition Metric = "position"
	// MetricSpeed is the per-day star count (first derivative).
	MetricSpeed Metric = "speed"
	// MetricAcceleration is the change in per-day count (second derivative).
	MetricAcceleration Metric = "acceleration"
)

// ParseMetric validates a metric name from a request.
func ParseMetric(s string) (Metric, error) {
	switch Metric(s) {
	case MetricPosition, MetricSpeed, MetricAcceleration:
		return Metric(s), nil
	default:
		return "", &apperrors.ErrInvalidRequest{Reason: "unrecognized metric " + s}
	}
}

// Point is one sample of a derived series. RelativeDay is set only in
// relative mode and counts days since the batch-wide earliest date.
type Point struct {
	Date        time.Time `json:"date"`
	Value       float64   `json:"value"`
	RelativeDay *int64    `json:"days_since_start,omitempty"`
}

// RepoCounts is the sparse daily-count input for one repository. Counts must
// be ordered by day ascending, as the store returns them.
type RepoCounts struct {
	Owner  string
	Name   string
	Counts []model.DailyCount
}

// RepoSeries is a derived series for one repository.
type RepoSeries struct {
	Owner  string  `json:"owner"`
	Name   string  `json:"name"`
	Points []Point `json:"points"`
}

// TimeAxis describes the shared x-axis of a multi-repository result: either
// an absolute calendar range or a day-offset range from a common start date.
type TimeAxis struct {
	Relative  bool      `json:"relative"`
	MinDate   time.Time `json:"min_date,omitzero"`
	MaxDate   time.Time `json:"max_date,omitzero"`
	StartDate time.Time `json:"start_date,omitzero"`
	MaxDays   int64     `json:"max_days,omitempty"`
}

// MultiRepoSeries is the full derivation result for one metric across a batch
// of repositories.
type MultiRepoSeries struct {
	Metric       Metric       `json:"metric"`
	Repositories []RepoSeries `json:"repositories"`
	Axis         TimeAxis     `json:"axis"`
}

// Process derives one metric for a batch of repositories. In relative mode
// every point also carries days_since_start measured from the earliest date
// across the whole batch, so series from repositories with different calendar
// starts share a normalized x-axis. Repositories with no data yield empty
// series, never an error.
func Process(repos []RepoCounts, metric Metric, relative bool) MultiRepoSeries {
	result := MultiRepoSeries{
		Metric:       metric,
		Repositories: make([]RepoSeries, 0, len(repos)),
	}

	var start time.Time
	if relative {
		start = earliestDay(repos)
	}

	for _, rc := range repos {
		points := derive(rc.Counts, metric)
		if relative && !start.IsZero() {
			annotateRelative(points, start)
		}
		result.Repositories = append(result.Repositories, RepoSeries{
			Owner:  rc.Owner,
			Name:   rc.Name,
			Points: points,
		})
	}

	result.Axis = computeAxis(result.Repositories, relative, start)
	return result
}

func derive(counts []model.DailyCount, metric Metric) []Point {
	if len(counts) == 0 {
		return []Point{}
	}

	switch metric {
	case MetricPosition:
		return positionSeries(counts)
	case MetricSpeed:
		return speedSeries(counts)
	default:
		return accelerationSeries(counts)
	}
}

// positionSeries is the running sum of daily counts. The cumulative value is
// well defined across gaps, so no gap-filling: one point per input day.
func positionSeries(counts []model.DailyCount) []Point {
	points := make([]Point, 0, len(counts))
	var cumulative int64
	for _, c := range counts {
		cumulative += c.Count
		points = append(points, Point{Date: c.Day, Value: float64(cumulative)})
	}
	return points
}

// speedSeries is the gap-filled daily count: a missing calendar day is
// evidence of zero new stars, not missing data.
func speedSeries(counts []model.DailyCount) []Point {
	filled := fillMissingDays(counts)
	points := make([]Point, 0, len(filled))
	for _, c := range filled {
		points = append(points, Point{Date: c.Day, Value: float64(c.Count)})
	}
	return points
}

// accelerationSeries is the day-over-day change of the gap-filled daily
// count. The first day has no prior day to compare, so its value is 0.
func accelerationSeries(counts []model.DailyCount) []Point {
	filled := fillMissingDays(counts)
	points := make([]Point, 0, len(filled))
	for i, c := range filled {
		value := 0.0
		if i > 0 {
			value = float64(c.Count - filled[i-1].Count)
		}
		points = append(points, Point{Date: c.Day, Value: value})
	}
	return points
}

// fillMissingDays inserts zero-count entries for every calendar day absent
// between the first and last input day.
func fillMissingDays(counts []model.DailyCount) []model.DailyCount {
	if len(counts) == 0 {
		return nil
	}

	byDay := make(map[time.Time]int64, len(counts))
	for _, c := range counts {
		byDay[c.Day] = c.Count
	}

	first := counts[0].Day
	last := counts[len(counts)-1].Day

	var filled []model.DailyCount
	for day := first; !day.After(last); day = day.AddDate(0, 0, 1) {
		filled = append(filled, model.DailyCount{Day: day, Count: byDay[day]})
	}
	return filled
}

func annotateRelative(points []Point, start time.Time) {
	for i := range points {
		days := daysBetween(start, points[i].Date)
		points[i].RelativeDay = &days
	}
}

// earliestDay returns the minimum first day across the whole batch, or the
// zero time when no repository has data.
func earliestDay(repos []RepoCounts) time.Time {
	var earliest time.Time
	for _, rc := range repos {
		if len(rc.Counts) == 0 {
			continue
		}
		first := rc.Counts[0].Day
		if earliest.IsZero() || first.Before(earliest) {
			earliest = first
		}
	}
	return earliest
}

func computeAxis(repos []RepoSeries, relative bool, start time.Time) TimeAxis {
	var minDate, maxDate time.Time
	for _, rs := range repos {
		for _, p := range rs.Points {
			if minDate.IsZero() || p.Date.Before(minDate) {
				minDate = p.Date
			}
			if maxDate.IsZero() || p.Date.After(maxDate) {
				maxDate = p.Date
			}
		}
	}

	if relative {
		axis := TimeAxis{Relative: true, StartDate: start}
		if !maxDate.IsZero() && !start.IsZero() {
			axis.MaxDays = daysBetween(start, maxDate)
		}
		return axis
	}
	return TimeAxis{MinDate: minDate, MaxDate: maxDate}
}

func daysBetween(from, to time.Time) int64 {
	return int64(to.Sub(from).Hours() / 24)
}
