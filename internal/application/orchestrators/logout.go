package orchestrators

import (
	"context"
	"log/slog"

	"flightlog/internal/adapters/api"
)

// ExecuteLogout ends the API session.
// POST: failures are logged and returned; the caller decides where to send the browser
func ExecuteLogout(ctx context.Context, deps AuthDeps) (api.AuthResult, error) {
	res, err := deps.API.Logout(ctx)
	if err != nil {
		slog.Warn("auth_event", "event", "logout_failed", "error", err)
		return api.AuthResult{}, err
	}
	slog.Info("auth_event", "event", "logout")
	return res, nil
}
