package orchestrators

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"flightlog/internal/domain/flight"
)

// FlightDeleter defines the API call needed by DeleteFlight.
type FlightDeleter interface {
	DeleteFlight(ctx context.Context, id flight.ID) error
}

// DeleteFlightInput carries input for the delete flight orchestrator.
type DeleteFlightInput struct {
	FlightID string
}

// DeleteFlightDeps holds dependencies for DeleteFlight.
type DeleteFlightDeps struct {
	API FlightDeleter
}

// Delete outcome messages.
const (
	MsgFlightDeleted      = "Flight deleted successfully!"
	MsgDeleteFlightFailed = "Error deleting flight. Please try again."
)

// ErrMissingFlightID is returned when no flight is named.
var ErrMissingFlightID = errors.New("flight id is required")

// ExecuteDeleteFlight deletes one flight after the user confirmed it.
// PRE: FlightID is non-empty
// POST: on failure the error is a *UserError carrying MsgDeleteFlightFailed
func ExecuteDeleteFlight(ctx context.Context, input DeleteFlightInput, deps DeleteFlightDeps) error {
	id := strings.TrimSpace(input.FlightID)
	if id == "" {
		return userError(MsgDeleteFlightFailed, ErrMissingFlightID)
	}
	if err := deps.API.DeleteFlight(ctx, flight.ID(id)); err != nil {
		slog.Info("flight_event", "event", "delete_flight_failed", "flight_id", id, "error", err)
		return userError(MsgDeleteFlightFailed, err)
	}
	slog.Info("flight_event", "event", "flight_deleted", "flight_id", id)
	return nil
}
