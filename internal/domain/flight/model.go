package flight

import (
	"encoding/json"
	"regexp"
	"strings"
	"time"
)

// Display placeholders for fields the API left empty.
const (
	PlaceholderCode          = "N/A"
	PlaceholderDepartureCity = "Departure city"
	PlaceholderArrivalCity   = "Arrival city"
	PlaceholderFlightNumber  = "Flight number not set"
	PlaceholderAircraft      = "Aircraft not set"
	PlaceholderClass         = "Class not set"
	PlaceholderDate          = "Date not set"
	PlaceholderDuration      = "0h 0m"
)

const dateLayout = "2006-01-02"

// displayDateLayout is the long-form US date, e.g. "June 1, 2024".
const displayDateLayout = "January 2, 2006"

var airportCodePattern = regexp.MustCompile(`^[A-Za-z]{3}$`)

// ID identifies a flight. The API serves numeric ids; string ids are accepted as well.
type ID string

// UnmarshalJSON accepts a JSON number, string or null.
func (id *ID) UnmarshalJSON(b []byte) error {
	if string(b) == "null" {
		*id = ""
		return nil
	}
	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*id = ID(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return err
	}
	*id = ID(n.String())
	return nil
}

// Flight is a recorded flight as served by the API.
// Values are request-scoped copies; nothing here is written back.
type Flight struct {
	ID            ID     `json:"id"`
	FlightNumber  string `json:"flight_number"`
	Aircraft      string `json:"aircraft"`
	CabinClass    string `json:"cabin_class"`
	DepartureCode string `json:"departure_code"`
	DepartureCity string `json:"departure_city"`
	ArrivalCode   string `json:"arrival_code"`
	ArrivalCity   string `json:"arrival_city"`
	DepartureTime string `json:"departure_time"`
	ArrivalTime   string `json:"arrival_time"`
	FlightDate    string `json:"flight_date"`
	Duration      string `json:"duration"`
	Notes         string `json:"notes"`
	IsSeed        bool   `json:"is_seed"`
	CreatedAt     string `json:"created_at"`
}

// Class returns the enumerated cabin class of the flight.
func (f Flight) Class() CabinClass {
	return ParseCabinClass(f.CabinClass)
}

// FormattedDate renders the flight date as "January 2, 2006".
// Dates the API sends with a time component are cut to the calendar day.
// POST: returns PlaceholderDate when no date is set; unparseable dates are returned verbatim
func (f Flight) FormattedDate() string {
	raw := strings.TrimSpace(f.FlightDate)
	if raw == "" {
		return PlaceholderDate
	}
	day := raw
	if len(day) > len(dateLayout) {
		day = day[:len(dateLayout)]
	}
	t, err := time.Parse(dateLayout, day)
	if err != nil {
		return raw
	}
	return t.Format(displayDateLayout)
}

// DurationText returns the duration or the "0h 0m" placeholder.
func (f Flight) DurationText() string {
	if strings.TrimSpace(f.Duration) == "" {
		return PlaceholderDuration
	}
	return f.Duration
}

// FlightNumberText returns "Flight <number>" or a placeholder.
func (f Flight) FlightNumberText() string {
	if strings.TrimSpace(f.FlightNumber) == "" {
		return PlaceholderFlightNumber
	}
	return "Flight " + f.FlightNumber
}

// AircraftText returns the aircraft type or a placeholder.
func (f Flight) AircraftText() string {
	return orDefault(f.Aircraft, PlaceholderAircraft)
}

// ClassText returns the cabin class label as received, or a placeholder.
func (f Flight) ClassText() string {
	return orDefault(f.CabinClass, PlaceholderClass)
}

// DepartureCodeText returns the departure airport code or "N/A".
func (f Flight) DepartureCodeText() string {
	return orDefault(f.DepartureCode, PlaceholderCode)
}

// ArrivalCodeText returns the arrival airport code or "N/A".
func (f Flight) ArrivalCodeText() string {
	return orDefault(f.ArrivalCode, PlaceholderCode)
}

// DepartureCityText returns the departure city or a placeholder.
func (f Flight) DepartureCityText() string {
	return orDefault(f.DepartureCity, PlaceholderDepartureCity)
}

// ArrivalCityText returns the arrival city or a placeholder.
func (f Flight) ArrivalCityText() string {
	return orDefault(f.ArrivalCity, PlaceholderArrivalCity)
}

// HasSeed reports whether any flight in the collection is demonstration data.
func HasSeed(flights []Flight) bool {
	for _, f := range flights {
		if f.IsSeed {
			return true
		}
	}
	return false
}

// ValidAirportCode reports whether code is exactly three ASCII letters, in any case.
func ValidAirportCode(code string) bool {
	return airportCodePattern.MatchString(code)
}

// NormalizeAirportCode trims and uppercases an airport code.
func NormalizeAirportCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

func orDefault(v, fallback string) string {
	if strings.TrimSpace(v) == "" {
		return fallback
	}
	return v
}
