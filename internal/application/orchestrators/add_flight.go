package orchestrators

import (
	"context"
	"errors"
	"log/slog"
	"net/url"
	"strings"

	"flightlog/internal/adapters/api"
	"flightlog/internal/domain/flight"
)

// FlightCreator defines the API call needed by AddFlight.
type FlightCreator interface {
	CreateFlight(ctx context.Context, payload flight.CreatePayload) error
}

// AddFlightInput carries the submitted add-flight form.
type AddFlightInput struct {
	Form            url.Values
	AllowFirstClass bool
}

// AddFlightDeps holds dependencies for AddFlight.
type AddFlightDeps struct {
	API FlightCreator
}

// Add-flight outcome messages.
const (
	MsgFlightAdded           = "Flight added successfully! Redirecting..."
	MsgAddFlightFailed       = "Failed to add flight"
	MsgAddFlightUnreachable  = "Unable to add flight. Please check your connection and try again."
	msgFriendlyDepartureCode = "Please enter a valid 3-letter departure airport code (e.g., JFK)"
	msgFriendlyArrivalCode   = "Please enter a valid 3-letter arrival airport code (e.g., LHR)"
	msgFriendlyDepartureTime = "Please enter a valid departure time"
	msgFriendlyArrivalTime   = "Please enter a valid arrival time"
)

// ExecuteAddFlight validates the form and creates the flight.
// PRE: input.Form holds the posted values
// POST: on success the API has accepted the payload; on failure the error is a
// *UserError whose Message is ready to show, and the API was not called if
// validation failed
func ExecuteAddFlight(ctx context.Context, input AddFlightInput, deps AddFlightDeps) (flight.CreatePayload, error) {
	payload, err := flight.BuildCreatePayload(input.Form, flight.FormOptions{AllowFirstClass: input.AllowFirstClass})
	if err != nil {
		var ve *flight.ValidationError
		if errors.As(err, &ve) {
			slog.Info("flight_event", "event", "add_flight_rejected", "field", ve.Field)
			return nil, userError(ve.Message, err)
		}
		return nil, userError(MsgAddFlightFailed, err)
	}

	if err := deps.API.CreateFlight(ctx, payload); err != nil {
		if api.IsTransport(err) {
			slog.Warn("flight_event", "event", "add_flight_unreachable", "error", err)
			return nil, userError(MsgAddFlightUnreachable, err)
		}
		slog.Info("flight_event", "event", "add_flight_failed", "error", err)
		return nil, userError(FriendlyAddFlightMessage(api.Message(err)), err)
	}

	slog.Info("flight_event", "event", "flight_added",
		"departure_code", payload[flight.FieldDepartureCode],
		"arrival_code", payload[flight.FieldArrivalCode])
	return payload, nil
}

// FriendlyAddFlightMessage rewrites the API's creation error into form guidance.
// Unrecognised messages pass through; an empty message becomes MsgAddFlightFailed.
func FriendlyAddFlightMessage(apiMessage string) string {
	switch {
	case apiMessage == "":
		return MsgAddFlightFailed
	case strings.Contains(apiMessage, "Invalid departure airport code"):
		return msgFriendlyDepartureCode
	case strings.Contains(apiMessage, "Invalid arrival airport code"):
		return msgFriendlyArrivalCode
	case strings.Contains(apiMessage, flight.FieldDepartureTime):
		return msgFriendlyDepartureTime
	case strings.Contains(apiMessage, flight.FieldArrivalTime):
		return msgFriendlyArrivalTime
	case strings.Contains(apiMessage, flight.FieldCabinClass):
		return flight.MsgBadCabinClass
	}
	return apiMessage
}
