package web

import (
	"bytes"
	"encoding/csv"
	"log/slog"
	"net/http"

	"github.com/jszwec/csvutil"

	"flightlog/internal/adapters/http/middleware"
	"flightlog/internal/application/orchestrators"
	"flightlog/internal/application/projections"
	"flightlog/internal/domain/flight"
)

// flightsView is the flights page view model.
type flightsView struct {
	Loaded bool // false after a failed fetch: no empty state, no cards
	projections.GetFlightListResult
}

// handleFlightsPage renders the flight list.
func (a *app) handleFlightsPage(w http.ResponseWriter, r *http.Request) {
	a.renderFlights(w, r)
}

// renderFlights fetches the flights and renders the list page.
// A failed fetch pushes an error notification and renders an empty container.
func (a *app) renderFlights(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	view := flightsView{Loaded: true}

	result, err := projections.QueryGetFlightList(ctx, projections.GetFlightListDeps{API: a.api})
	if err != nil {
		view.Loaded = false
		a.queue.Error(ctx, middleware.VisitorID(ctx), projections.MsgFlightsLoadFailed)
	} else {
		view.GetFlightListResult = result
	}
	a.render(w, r, http.StatusOK, "flights.html", a.newPage(r, "My Flights", "flights", "/", view))
}

// confirmView is a yes/no question guarding a destructive action.
type confirmView struct {
	Question string
	Action   string // POST target of "Yes"
	Confirm  string // label of the "Yes" button
}

// handleConfirmDelete asks before deleting a flight.
func (a *app) handleConfirmDelete(w http.ResponseWriter, r *http.Request) {
	view := confirmView{
		Question: "Are you sure you want to delete this flight?",
		Action:   "/flights/" + r.PathValue("id") + "/delete",
		Confirm:  "Delete Flight",
	}
	a.render(w, r, http.StatusOK, "confirm.html", a.newPage(r, "Delete Flight", "flights", "/", view))
}

// handleDeleteFlight deletes a flight after confirmation.
// Success redirects home; failure re-renders the list in place.
func (a *app) handleDeleteFlight(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	visitor := middleware.VisitorID(ctx)

	err := orchestrators.ExecuteDeleteFlight(ctx, orchestrators.DeleteFlightInput{FlightID: r.PathValue("id")},
		orchestrators.DeleteFlightDeps{API: a.api})
	if err != nil {
		a.queue.Error(ctx, visitor, orchestrators.UserMessage(err, orchestrators.MsgDeleteFlightFailed))
		a.renderFlights(w, r)
		return
	}
	a.queue.Success(ctx, visitor, orchestrators.MsgFlightDeleted)
	redirect(w, r, "/")
}

// handleSeedAdd loads the sample flights.
func (a *app) handleSeedAdd(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	visitor := middleware.VisitorID(ctx)

	msg, err := orchestrators.ExecuteSeedAdd(ctx, orchestrators.SeedDeps{API: a.api})
	if err != nil {
		a.queue.Error(ctx, visitor, orchestrators.UserMessage(err, orchestrators.MsgSeedAddFailed))
	} else {
		a.queue.Success(ctx, visitor, msg)
	}
	redirect(w, r, "/")
}

// handleConfirmSeedRemove asks before removing the sample flights.
func (a *app) handleConfirmSeedRemove(w http.ResponseWriter, r *http.Request) {
	view := confirmView{
		Question: "Are you sure you want to remove all sample flights? This will not affect your personal flights.",
		Action:   "/seed/remove",
		Confirm:  "Remove Sample Data",
	}
	a.render(w, r, http.StatusOK, "confirm.html", a.newPage(r, "Remove Sample Data", "flights", "/", view))
}

// handleSeedRemove removes the sample flights after confirmation.
func (a *app) handleSeedRemove(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	visitor := middleware.VisitorID(ctx)

	msg, err := orchestrators.ExecuteSeedRemove(ctx, orchestrators.SeedDeps{API: a.api})
	if err != nil {
		a.queue.Error(ctx, visitor, orchestrators.UserMessage(err, orchestrators.MsgSeedRemoveFailed))
	} else {
		a.queue.Success(ctx, visitor, msg)
	}
	redirect(w, r, "/")
}

// flightCSVRow is one line of the CSV export.
type flightCSVRow struct {
	ID            string `csv:"id"`
	FlightDate    string `csv:"flight_date"`
	DepartureCode string `csv:"departure_code"`
	DepartureCity string `csv:"departure_city"`
	ArrivalCode   string `csv:"arrival_code"`
	ArrivalCity   string `csv:"arrival_city"`
	DepartureTime string `csv:"departure_time"`
	ArrivalTime   string `csv:"arrival_time"`
	FlightNumber  string `csv:"flight_number"`
	Aircraft      string `csv:"aircraft"`
	CabinClass    string `csv:"cabin_class"`
	Duration      string `csv:"duration"`
	Notes         string `csv:"notes"`
	IsSeed        bool   `csv:"is_seed"`
}

func csvRow(f flight.Flight) flightCSVRow {
	return flightCSVRow{
		ID:            string(f.ID),
		FlightDate:    f.FlightDate,
		DepartureCode: f.DepartureCode,
		DepartureCity: f.DepartureCity,
		ArrivalCode:   f.ArrivalCode,
		ArrivalCity:   f.ArrivalCity,
		DepartureTime: f.DepartureTime,
		ArrivalTime:   f.ArrivalTime,
		FlightNumber:  f.FlightNumber,
		Aircraft:      f.Aircraft,
		CabinClass:    f.CabinClass,
		Duration:      f.Duration,
		Notes:         f.Notes,
		IsSeed:        f.IsSeed,
	}
}

// handleExportCSV downloads the flight log as CSV with a header row.
func (a *app) handleExportCSV(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	flights, err := a.api.ListFlights(ctx)
	if err != nil {
		a.queue.Error(ctx, middleware.VisitorID(ctx), projections.MsgFlightsLoadFailed)
		redirect(w, r, "/")
		return
	}

	var buf bytes.Buffer
	cw := csv.NewWriter(&buf)
	enc := csvutil.NewEncoder(cw)
	if err := enc.EncodeHeader(flightCSVRow{}); err != nil {
		internalError(w, err)
		return
	}
	for _, f := range flights {
		if err := enc.Encode(csvRow(f)); err != nil {
			internalError(w, err)
			return
		}
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		internalError(w, err)
		return
	}

	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="flights.csv"`)
	if _, err := buf.WriteTo(w); err != nil {
		slog.Warn("csv_export_write_failed", "error", err)
	}
}
