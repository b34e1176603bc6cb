package projections

import (
	"context"
	"time"

	"flightlog/internal/domain/stats"
)

// MsgStatsLoadFailed is shown when the statistics cannot be fetched.
const MsgStatsLoadFailed = "Error loading statistics. Please try again."

// StatsFetcher defines the API call needed by GetStatsDashboard.
type StatsFetcher interface {
	Stats(ctx context.Context) (stats.Summary, error)
}

// GetStatsDashboardQuery carries query parameters.
type GetStatsDashboardQuery struct {
	Now   time.Time // selects the highlighted month
	Chart stats.ChartOptions
}

// GetStatsDashboardDeps holds dependencies for GetStatsDashboard.
type GetStatsDashboardDeps struct {
	API StatsFetcher
}

// StatsDashboard is the stats page view model.
type StatsDashboard struct {
	Loaded           bool // false renders the placeholders and no sections
	TotalFlights     string
	TotalHours       string
	CountriesVisited string
	MilesFlown       string
	Classes          []stats.ClassBar
	Destinations     []stats.DestinationRow
	Months           []stats.MonthBar
}

// PlaceholderDashboard is what the page shows before or instead of real data.
func PlaceholderDashboard() StatsDashboard {
	return StatsDashboard{
		TotalFlights:     stats.ScalarPlaceholder,
		TotalHours:       stats.ScalarPlaceholder,
		CountriesVisited: stats.ScalarPlaceholder,
		MilesFlown:       stats.ScalarPlaceholder,
	}
}

// QueryGetStatsDashboard fetches the summary and lays out every section.
// PRE: query.Chart.Months > 0
// POST: on error the placeholder dashboard is returned with the error
func QueryGetStatsDashboard(ctx context.Context, query GetStatsDashboardQuery, deps GetStatsDashboardDeps) (StatsDashboard, error) {
	summary, err := deps.API.Stats(ctx)
	if err != nil {
		return PlaceholderDashboard(), err
	}
	return BuildStatsDashboard(summary, query), nil
}

// BuildStatsDashboard is the pure part of QueryGetStatsDashboard.
func BuildStatsDashboard(s stats.Summary, query GetStatsDashboardQuery) StatsDashboard {
	opts := query.Chart
	if opts.Months <= 0 {
		opts = stats.DefaultChartOptions
	}
	return StatsDashboard{
		Loaded:           true,
		TotalFlights:     s.TotalFlights.Text(),
		TotalHours:       s.TotalHours.Text(),
		CountriesVisited: s.CountriesVisited.Text(),
		MilesFlown:       s.MilesFlown.Text(),
		Classes:          stats.ClassBars(s.FlightClasses),
		Destinations:     stats.DestinationRows(s.TopDestinations),
		Months:           stats.MonthlyBars(s.MonthlyActivity, query.Now, opts),
	}
}
