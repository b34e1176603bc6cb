package projections

import (
	"context"

	"flightlog/internal/domain/flight"
)

// MsgFlightsLoadFailed is shown when the flight collection cannot be fetched.
const MsgFlightsLoadFailed = "Error loading flights. Please try again."

// FlightLister defines the API call needed by GetFlightList.
type FlightLister interface {
	ListFlights(ctx context.Context) ([]flight.Flight, error)
}

// FlightCard is one flight ready for the list page. Placeholders are already applied.
type FlightCard struct {
	ID            string
	DepartureCode string
	ArrivalCode   string
	DepartureCity string
	ArrivalCity   string
	FlightNumber  string
	Aircraft      string
	ClassLabel    string
	ClassBadge    string
	Date          string
	Duration      string
	Notes         string // markdown source, empty when absent
	IsSeed        bool
}

// GetFlightListResult carries the query result.
type GetFlightListResult struct {
	Cards   []FlightCard
	Empty   bool
	HasSeed bool
}

// GetFlightListDeps holds dependencies for GetFlightList.
type GetFlightListDeps struct {
	API FlightLister
}

// QueryGetFlightList fetches the visitor's flights and shapes them into cards.
// PRE: the API session cookie travels in ctx
// POST: Cards follow the API order; Empty is set only after a successful fetch
func QueryGetFlightList(ctx context.Context, deps GetFlightListDeps) (GetFlightListResult, error) {
	flights, err := deps.API.ListFlights(ctx)
	if err != nil {
		return GetFlightListResult{}, err
	}
	return BuildFlightList(flights), nil
}

// BuildFlightList is the pure part of QueryGetFlightList.
// INVARIANT: the same flights always produce the same result
func BuildFlightList(flights []flight.Flight) GetFlightListResult {
	cards := make([]FlightCard, 0, len(flights))
	for _, f := range flights {
		cards = append(cards, flightCard(f))
	}
	return GetFlightListResult{
		Cards:   cards,
		Empty:   len(flights) == 0,
		HasSeed: flight.HasSeed(flights),
	}
}

func flightCard(f flight.Flight) FlightCard {
	return FlightCard{
		ID:            string(f.ID),
		DepartureCode: f.DepartureCodeText(),
		ArrivalCode:   f.ArrivalCodeText(),
		DepartureCity: f.DepartureCityText(),
		ArrivalCity:   f.ArrivalCityText(),
		FlightNumber:  f.FlightNumberText(),
		Aircraft:      f.AircraftText(),
		ClassLabel:    f.ClassText(),
		ClassBadge:    f.Class().Attrs().BadgeClass,
		Date:          f.FormattedDate(),
		Duration:      f.DurationText(),
		Notes:         f.Notes,
		IsSeed:        f.IsSeed,
	}
}
