package web

import (
	"net/http"

	"flightlog/internal/adapters/http/middleware"
	"flightlog/internal/application/projections"
)

// handleStatsPage renders the statistics dashboard.
// A failed fetch pushes an error notification and keeps the placeholders.
func (a *app) handleStatsPage(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	query := projections.GetStatsDashboardQuery{Now: a.now(), Chart: a.ui.Chart}

	dash, err := projections.QueryGetStatsDashboard(ctx, query, projections.GetStatsDashboardDeps{API: a.api})
	if err != nil {
		a.queue.Error(ctx, middleware.VisitorID(ctx), projections.MsgStatsLoadFailed)
	}
	a.render(w, r, http.StatusOK, "stats.html", a.newPage(r, "Statistics", "stats", "/stats", dash))
}
