package orchestrators

import (
	"context"
	"log/slog"

	"flightlog/internal/adapters/api"
)

// SeedManager defines the API calls needed by the sample data orchestrators.
type SeedManager interface {
	SeedAdd(ctx context.Context) (string, error)
	SeedRemove(ctx context.Context) (string, error)
}

// SeedDeps holds dependencies for SeedAdd and SeedRemove.
type SeedDeps struct {
	API SeedManager
}

// Sample data outcome messages.
const (
	MsgSeedAdded        = "Sample flights added successfully! Explore the app and remove them when ready."
	MsgSeedRemoved      = "Sample flights removed successfully!"
	MsgSeedAddFailed    = "Failed to add sample data"
	MsgSeedRemoveFailed = "Failed to remove sample data"
)

// ExecuteSeedAdd asks the API to populate the sample flights.
// POST: returns the success message, or a *UserError with the API's error text
// (MsgSeedAddFailed when it sent none)
func ExecuteSeedAdd(ctx context.Context, deps SeedDeps) (string, error) {
	if _, err := deps.API.SeedAdd(ctx); err != nil {
		slog.Info("seed_event", "event", "seed_add_failed", "error", err)
		return "", userError(orDefault(api.Message(err), MsgSeedAddFailed), err)
	}
	slog.Info("seed_event", "event", "seed_added")
	return MsgSeedAdded, nil
}

// ExecuteSeedRemove asks the API to delete every sample flight.
// PRE: the user confirmed the removal
// POST: personal flights are untouched by this call
func ExecuteSeedRemove(ctx context.Context, deps SeedDeps) (string, error) {
	if _, err := deps.API.SeedRemove(ctx); err != nil {
		slog.Info("seed_event", "event", "seed_remove_failed", "error", err)
		return "", userError(orDefault(api.Message(err), MsgSeedRemoveFailed), err)
	}
	slog.Info("seed_event", "event", "seed_removed")
	return MsgSeedRemoved, nil
}

func orDefault(v, fallback string) string {
	if v == "" {
		return fallback
	}
	return v
}
