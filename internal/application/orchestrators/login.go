package orchestrators

import (
	"context"
	"log/slog"

	"flightlog/internal/adapters/api"
	"flightlog/internal/domain/account"
)

// Authenticator defines the API calls needed by Login, Signup and Logout.
type Authenticator interface {
	Login(ctx context.Context, creds account.Credentials) (api.AuthResult, error)
	Signup(ctx context.Context, creds account.Credentials) (api.AuthResult, error)
	Logout(ctx context.Context) (api.AuthResult, error)
}

// LoginInput carries input for the login orchestrator.
type LoginInput struct {
	Email    string
	Password string
}

// AuthDeps holds dependencies for the auth orchestrators.
type AuthDeps struct {
	API Authenticator
}

// Auth outcome messages.
const (
	MsgLoginFailed  = "Login failed"
	MsgSignupFailed = "Signup failed"
	MsgNetworkError = "Network error. Please try again."
)

// ExecuteLogin submits credentials to the API.
// PRE: Valid email and password provided
// POST: Returns the cookies to relay on success; otherwise a *UserError whose
// Message is the API's error, MsgLoginFailed, or MsgNetworkError
func ExecuteLogin(ctx context.Context, input LoginInput, deps AuthDeps) (api.AuthResult, error) {
	creds := account.Credentials{Email: input.Email, Password: input.Password}
	creds.Normalize()
	if err := creds.Validate(); err != nil {
		return api.AuthResult{}, userError(err.Error(), err)
	}

	res, err := deps.API.Login(ctx, creds)
	if err != nil {
		return api.AuthResult{}, authFailure(err, "login_failed", creds.Email, MsgLoginFailed)
	}

	slog.Info("auth_event", "event", "login_success", "email", creds.Email)
	return res, nil
}

// authFailure logs a rejected auth call and maps it to the inline message.
func authFailure(err error, event, email, fallback string) error {
	if api.IsTransport(err) {
		slog.Warn("auth_event", "event", event, "email", email, "reason", "unreachable", "error", err)
		return userError(MsgNetworkError, err)
	}
	slog.Info("auth_event", "event", event, "email", email, "reason", "rejected", "error", err)
	return userError(orDefault(api.Message(err), fallback), err)
}
