package orchestrators

import (
	"context"
	"log/slog"

	"flightlog/internal/adapters/api"
	"flightlog/internal/domain/account"
)

// SignupInput carries input for the signup orchestrator.
type SignupInput struct {
	Email           string
	Password        string
	ConfirmPassword string
}

// ExecuteSignup creates an account through the API.
// PRE: none; the form is validated here
// POST: a password mismatch or short password never reaches the API
func ExecuteSignup(ctx context.Context, input SignupInput, deps AuthDeps) (api.AuthResult, error) {
	form := account.Signup{
		Credentials:     account.Credentials{Email: input.Email, Password: input.Password},
		ConfirmPassword: input.ConfirmPassword,
	}
	form.Normalize()
	if err := form.Validate(); err != nil {
		slog.Info("auth_event", "event", "signup_rejected", "email", form.Email, "reason", err.Error())
		return api.AuthResult{}, userError(err.Error(), err)
	}

	res, err := deps.API.Signup(ctx, form.Credentials)
	if err != nil {
		return api.AuthResult{}, authFailure(err, "signup_failed", form.Email, MsgSignupFailed)
	}

	slog.Info("auth_event", "event", "account_created", "email", form.Email)
	return res, nil
}
