package api

import (
	"context"
	"net/http"

	"flightlog/internal/domain/account"
)

// AuthResult is a successful login, signup or logout answer.
type AuthResult struct {
	Message string
	Cookies []*http.Cookie // Set-Cookie headers to relay to the browser
}

type authResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

type statusResponse struct {
	Authenticated bool `json:"authenticated"`
	User          *struct {
		Email string `json:"email"`
	} `json:"user"`
}

// AuthStatus asks whether the forwarded session is signed in.
// POST: any non-2xx answer is a *StatusError; an undecodable body wraps ErrMalformedResponse
func (c *Client) AuthStatus(ctx context.Context) (account.Session, error) {
	const op = "GET /api/auth/status"
	r, err := c.do(ctx, http.MethodGet, "/api/auth/status", nil)
	if err != nil {
		return account.Session{}, err
	}
	if !r.ok() {
		return account.Session{}, r.statusError()
	}
	var body statusResponse
	if err := decode(op, r, &body); err != nil {
		return account.Session{}, err
	}
	s := account.Session{Authenticated: body.Authenticated}
	if body.User != nil {
		s.Email = body.User.Email
	}
	return s, nil
}

// Login submits credentials.
// POST: success requires a 2xx status and success: true; otherwise *StatusError
func (c *Client) Login(ctx context.Context, creds account.Credentials) (AuthResult, error) {
	return c.authenticate(ctx, "/api/auth/login", creds)
}

// Signup creates an account and signs it in.
// POST: success requires a 2xx status and success: true; otherwise *StatusError
func (c *Client) Signup(ctx context.Context, creds account.Credentials) (AuthResult, error) {
	return c.authenticate(ctx, "/api/auth/signup", creds)
}

func (c *Client) authenticate(ctx context.Context, path string, creds account.Credentials) (AuthResult, error) {
	r, err := c.do(ctx, http.MethodPost, path, creds)
	if err != nil {
		return AuthResult{}, err
	}
	if !r.ok() {
		return AuthResult{}, r.statusError()
	}
	var body authResponse
	if err := decode("POST "+path, r, &body); err != nil {
		return AuthResult{}, err
	}
	if !body.Success {
		return AuthResult{}, r.statusError()
	}
	return AuthResult{Message: body.Message, Cookies: r.cookies}, nil
}

// Logout ends the forwarded session. Any 2xx counts as success.
func (c *Client) Logout(ctx context.Context) (AuthResult, error) {
	r, err := c.do(ctx, http.MethodPost, "/api/auth/logout", nil)
	if err != nil {
		return AuthResult{}, err
	}
	if !r.ok() {
		return AuthResult{}, r.statusError()
	}
	var body authResponse
	_ = decode("POST /api/auth/logout", r, &body)
	return AuthResult{Message: body.Message, Cookies: r.cookies}, nil
}
