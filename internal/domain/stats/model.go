package stats

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
)

// ScalarPlaceholder is shown in a summary card when no value is available.
const ScalarPlaceholder = "—"

// Scalar is a summary value the API may send as a number or a preformatted
// string ("120h", "3k"). It is displayed verbatim.
type Scalar string

// UnmarshalJSON accepts a JSON string, number or null.
func (s *Scalar) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	switch {
	case bytes.Equal(b, []byte("null")):
		*s = ""
	case len(b) > 0 && b[0] == '"':
		var v string
		if err := json.Unmarshal(b, &v); err != nil {
			return err
		}
		*s = Scalar(v)
	default:
		var n json.Number
		if err := json.Unmarshal(b, &n); err != nil {
			return fmt.Errorf("scalar must be a string or number: %w", err)
		}
		*s = Scalar(n.String())
	}
	return nil
}

// Text returns the display text, or ScalarPlaceholder when empty.
func (s Scalar) Text() string {
	if s == "" {
		return ScalarPlaceholder
	}
	return string(s)
}

// ClassShare is one cabin class in the distribution.
type ClassShare struct {
	Name       string
	Count      int     `json:"count"`
	Percentage float64 `json:"percentage"`
}

// ClassBreakdown is the per-class distribution in the order the API sent it.
type ClassBreakdown []ClassShare

var errBreakdownShape = errors.New("flight_classes must be an object")

// UnmarshalJSON decodes a JSON object {name: {count, percentage}} preserving key order.
func (cb *ClassBreakdown) UnmarshalJSON(b []byte) error {
	if bytes.Equal(bytes.TrimSpace(b), []byte("null")) {
		*cb = nil
		return nil
	}
	dec := json.NewDecoder(bytes.NewReader(b))
	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if d, ok := tok.(json.Delim); !ok || d != '{' {
		return errBreakdownShape
	}

	out := ClassBreakdown{}
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return err
		}
		name, ok := tok.(string)
		if !ok {
			return errBreakdownShape
		}
		var share ClassShare
		if err := dec.Decode(&share); err != nil {
			return fmt.Errorf("flight class %q: %w", name, err)
		}
		share.Name = name
		out = append(out, share)
	}
	if _, err := dec.Token(); err != nil {
		return err
	}
	*cb = out
	return nil
}

// Destination is one entry of the top destinations list.
type Destination struct {
	City        string  `json:"city"`
	AirportCode string  `json:"airport_code"`
	Count       int     `json:"count"`
	Percentage  float64 `json:"percentage"`
}

// MonthActivity is the number of flights in one month.
type MonthActivity struct {
	Month   string `json:"month"`
	Flights int    `json:"flights"`
}

// Summary is the aggregate statistics document served by GET /api/stats.
type Summary struct {
	TotalFlights     Scalar          `json:"total_flights"`
	TotalHours       Scalar          `json:"total_hours"`
	CountriesVisited Scalar          `json:"countries_visited"`
	MilesFlown       Scalar          `json:"miles_flown"`
	FlightClasses    ClassBreakdown  `json:"flight_classes"`
	TopDestinations  []Destination   `json:"top_destinations"`
	MonthlyActivity  []MonthActivity `json:"monthly_activity"`
}

// FormatPercent renders a percentage without a trailing ".0".
func FormatPercent(p float64) string {
	return strconv.FormatFloat(p, 'f', -1, 64)
}
