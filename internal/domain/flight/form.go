package flight

import (
	"net/url"
	"strings"
)

// Add-flight form field names. They double as the creation payload keys.
const (
	FieldFlightDate    = "flight_date"
	FieldDepartureCode = "departure_code"
	FieldDepartureCity = "departure_city"
	FieldArrivalCode   = "arrival_code"
	FieldArrivalCity   = "arrival_city"
	FieldDepartureTime = "departure_time"
	FieldArrivalTime   = "arrival_time"
	FieldFlightNumber  = "flight_number"
	FieldAircraft      = "aircraft"
	FieldNotes         = "notes"
	FieldCabinClass    = "cabin_class"

	// FieldClassChoice is the single-choice radio group on the form.
	FieldClassChoice = "flight-class"
)

// formFields are copied into the payload when non-blank.
var formFields = []string{
	FieldFlightDate,
	FieldDepartureCode,
	FieldDepartureCity,
	FieldArrivalCode,
	FieldArrivalCity,
	FieldDepartureTime,
	FieldArrivalTime,
	FieldFlightNumber,
	FieldAircraft,
	FieldNotes,
}

// Validation messages, in the order the checks run.
const (
	MsgMissingDate          = "Please select a flight date"
	MsgMissingDepartureCode = "Please enter the departure airport code (e.g., JFK)"
	MsgMissingArrivalCode   = "Please enter the arrival airport code (e.g., LHR)"
	MsgMissingDepartureTime = "Please enter the departure time"
	MsgMissingArrivalTime   = "Please enter the arrival time"
	MsgBadDepartureCode     = "Departure airport code must be 3 letters (e.g., JFK, LAX)"
	MsgBadArrivalCode       = "Arrival airport code must be 3 letters (e.g., LHR, CDG)"
	MsgBadCabinClass        = "Please select a valid cabin class"
)

// ValidationError is a form problem caught before anything is sent to the API.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

// CreatePayload is the JSON body of POST /api/flights, keyed by field name.
type CreatePayload map[string]string

// FormOptions selects the form variant.
type FormOptions struct {
	AllowFirstClass bool
}

// requiredChecks run in order; the first missing field wins.
var requiredChecks = []struct {
	field   string
	message string
}{
	{FieldFlightDate, MsgMissingDate},
	{FieldDepartureCode, MsgMissingDepartureCode},
	{FieldArrivalCode, MsgMissingArrivalCode},
	{FieldDepartureTime, MsgMissingDepartureTime},
	{FieldArrivalTime, MsgMissingArrivalTime},
}

// BuildCreatePayload validates submitted form values and normalizes them into
// the shape the API expects.
// PRE: values holds the posted form (unknown keys are ignored)
// POST: on success, codes are uppercase, cabin_class is a display label and
// departure/arrival times are "<date>T<time>:00"; on failure a *ValidationError
// describes the first problem found
func BuildCreatePayload(values url.Values, opts FormOptions) (CreatePayload, error) {
	p := CreatePayload{}
	for _, field := range formFields {
		if v := strings.TrimSpace(values.Get(field)); v != "" {
			p[field] = v
		}
	}

	for _, check := range requiredChecks {
		if p[check.field] == "" {
			return nil, &ValidationError{Field: check.field, Message: check.message}
		}
	}
	if !ValidAirportCode(p[FieldDepartureCode]) {
		return nil, &ValidationError{Field: FieldDepartureCode, Message: MsgBadDepartureCode}
	}
	if !ValidAirportCode(p[FieldArrivalCode]) {
		return nil, &ValidationError{Field: FieldArrivalCode, Message: MsgBadArrivalCode}
	}

	if choice := strings.TrimSpace(values.Get(FieldClassChoice)); choice != "" {
		class, ok := ClassFromFormValue(choice)
		if !ok || (class == ClassFirst && !opts.AllowFirstClass) {
			return nil, &ValidationError{Field: FieldClassChoice, Message: MsgBadCabinClass}
		}
		p[FieldCabinClass] = class.Attrs().Label
	}

	p[FieldDepartureCode] = NormalizeAirportCode(p[FieldDepartureCode])
	p[FieldArrivalCode] = NormalizeAirportCode(p[FieldArrivalCode])

	date := p[FieldFlightDate]
	for _, field := range []string{FieldDepartureTime, FieldArrivalTime} {
		if date != "" && p[field] != "" {
			p[field] = CombineDateTime(date, p[field])
		}
	}
	return p, nil
}

// CombineDateTime joins a calendar date and a clock time, e.g.
// ("2024-06-01", "08:00") -> "2024-06-01T08:00:00".
func CombineDateTime(date, clock string) string {
	return date + "T" + clock + ":00"
}
