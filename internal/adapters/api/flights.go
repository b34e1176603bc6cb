package api

import (
	"context"
	"net/http"
	"net/url"

	"flightlog/internal/domain/flight"
	"flightlog/internal/domain/stats"
)

// ListFlights fetches the signed-in user's flights in API order.
func (c *Client) ListFlights(ctx context.Context) ([]flight.Flight, error) {
	r, err := c.do(ctx, http.MethodGet, "/api/flights", nil)
	if err != nil {
		return nil, err
	}
	if !r.ok() {
		return nil, r.statusError()
	}
	var flights []flight.Flight
	if err := decode("GET /api/flights", r, &flights); err != nil {
		return nil, err
	}
	if flights == nil {
		flights = []flight.Flight{}
	}
	return flights, nil
}

// CreateFlight posts a new flight. The response body is not used on success.
func (c *Client) CreateFlight(ctx context.Context, payload flight.CreatePayload) error {
	r, err := c.do(ctx, http.MethodPost, "/api/flights", payload)
	if err != nil {
		return err
	}
	if !r.ok() {
		return r.statusError()
	}
	return nil
}

// DeleteFlight removes one flight by identifier.
func (c *Client) DeleteFlight(ctx context.Context, id flight.ID) error {
	r, err := c.do(ctx, http.MethodDelete, "/api/flights/"+url.PathEscape(string(id)), nil)
	if err != nil {
		return err
	}
	if !r.ok() {
		return r.statusError()
	}
	return nil
}

// Stats fetches the aggregate statistics summary.
func (c *Client) Stats(ctx context.Context) (stats.Summary, error) {
	r, err := c.do(ctx, http.MethodGet, "/api/stats", nil)
	if err != nil {
		return stats.Summary{}, err
	}
	if !r.ok() {
		return stats.Summary{}, r.statusError()
	}
	var s stats.Summary
	if err := decode("GET /api/stats", r, &s); err != nil {
		return stats.Summary{}, err
	}
	return s, nil
}

// SeedAdd populates demonstration flights and returns the API's message, if any.
func (c *Client) SeedAdd(ctx context.Context) (string, error) {
	return c.seed(ctx, http.MethodPost, "/api/seed/add")
}

// SeedRemove deletes every demonstration flight.
func (c *Client) SeedRemove(ctx context.Context) (string, error) {
	return c.seed(ctx, http.MethodDelete, "/api/seed/remove")
}

func (c *Client) seed(ctx context.Context, method, path string) (string, error) {
	r, err := c.do(ctx, method, path, nil)
	if err != nil {
		return "", err
	}
	if !r.ok() {
		return "", r.statusError()
	}
	var body struct {
		Message string `json:"message"`
	}
	_ = decode(method+" "+path, r, &body)
	return body.Message, nil
}
