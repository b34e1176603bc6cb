package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
)

// maxBodyBytes caps how much of an API response is read.
const maxBodyBytes = 4 << 20

// ErrMalformedResponse is returned when a 2xx body cannot be decoded.
var ErrMalformedResponse = errors.New("malformed API response")

// StatusError reports an API answer that is not a success: a non-2xx status,
// or a 2xx auth answer without success: true.
type StatusError struct {
	Status  int
	Message string // the body's "error" string, empty when absent
}

func (e *StatusError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("api status %d", e.Status)
	}
	return fmt.Sprintf("api status %d: %s", e.Status, e.Message)
}

// TransportError reports that the API could not be reached or the exchange
// was cut off.
type TransportError struct {
	Op  string
	Err error
}

func (e *TransportError) Error() string {
	return e.Op + ": " + e.Err.Error()
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// Message returns the API's error text carried by err, or "" when err is not
// a *StatusError or the API sent none.
func Message(err error) string {
	var se *StatusError
	if errors.As(err, &se) {
		return se.Message
	}
	return ""
}

// IsTransport reports whether err is a transport failure.
func IsTransport(err error) bool {
	var te *TransportError
	return errors.As(err, &te)
}

// Client calls the flight REST API on behalf of one browser at a time.
// The browser's API cookies travel in the request context (see WithCookies).
type Client struct {
	base *url.URL
	http *http.Client
}

// NewClient builds a client for the API rooted at baseURL.
// PRE: baseURL is an absolute http(s) URL
// POST: Returns a client that never follows redirects, so an unauthenticated
// redirect surfaces as a *StatusError
func NewClient(baseURL string, hc *http.Client) (*Client, error) {
	u, err := url.Parse(strings.TrimRight(strings.TrimSpace(baseURL), "/"))
	if err != nil {
		return nil, fmt.Errorf("parse api base url: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, errors.New("api base url must use http or https")
	}
	if u.Host == "" {
		return nil, errors.New("api base url must include a host")
	}

	c := http.Client{}
	if hc != nil {
		c = *hc
	}
	c.Jar = nil
	c.CheckRedirect = func(*http.Request, []*http.Request) error {
		return http.ErrUseLastResponse
	}
	return &Client{base: u, http: &c}, nil
}

// BaseURL returns the API root.
func (c *Client) BaseURL() string {
	return c.base.String()
}

// response is a fully read API answer.
type response struct {
	status  int
	header  http.Header
	body    []byte
	cookies []*http.Cookie
}

func (r *response) ok() bool {
	return r.status >= 200 && r.status < 300
}

// statusError builds a *StatusError from the body's "error" field.
func (r *response) statusError() *StatusError {
	return &StatusError{Status: r.status, Message: errorField(r.body)}
}

// errorField extracts a string "error" member; anything else yields "".
func errorField(body []byte) string {
	var envelope struct {
		Error json.RawMessage `json:"error"`
	}
	if err := json.Unmarshal(body, &envelope); err != nil || len(envelope.Error) == 0 {
		return ""
	}
	var msg string
	if err := json.Unmarshal(envelope.Error, &msg); err != nil {
		return ""
	}
	return strings.TrimSpace(msg)
}

// do sends one request. Only transport failures are returned as errors;
// status handling is left to the caller.
func (c *Client) do(ctx context.Context, method, path string, payload any) (*response, error) {
	op := method + " " + path

	var body io.Reader
	if payload != nil {
		b, err := json.Marshal(payload)
		if err != nil {
			return nil, fmt.Errorf("%s: encode body: %w", op, err)
		}
		body = bytes.NewReader(b)
	}

	target := *c.base
	target.Path = c.base.Path + path
	req, err := http.NewRequestWithContext(ctx, method, target.String(), body)
	if err != nil {
		return nil, fmt.Errorf("%s: build request: %w", op, err)
	}
	req.Header.Set("Accept", "application/json")
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	for _, ck := range cookiesFrom(ctx) {
		req.AddCookie(ck)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, &TransportError{Op: op, Err: err}
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, &TransportError{Op: op, Err: err}
	}
	return &response{
		status:  resp.StatusCode,
		header:  resp.Header,
		body:    raw,
		cookies: resp.Cookies(),
	}, nil
}

// decode unmarshals a 2xx body into v.
func decode(op string, r *response, v any) error {
	if err := json.Unmarshal(r.body, v); err != nil {
		return fmt.Errorf("%s: %w: %v", op, ErrMalformedResponse, err)
	}
	return nil
}
