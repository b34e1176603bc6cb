package web

import (
	"context"
	"net/http"
	"time"

	"flightlog/internal/adapters/api"
	"flightlog/internal/adapters/http/middleware"
	"flightlog/internal/adapters/http/perf"
	"flightlog/internal/domain/account"
	"flightlog/internal/domain/flight"
	domain "flightlog/internal/domain/notification"
	"flightlog/internal/domain/stats"
)

// FlightAPI is every call the pages make against the flight REST API.
// *api.Client implements it.
type FlightAPI interface {
	middleware.SessionChecker
	Login(ctx context.Context, creds account.Credentials) (api.AuthResult, error)
	Signup(ctx context.Context, creds account.Credentials) (api.AuthResult, error)
	Logout(ctx context.Context) (api.AuthResult, error)
	ListFlights(ctx context.Context) ([]flight.Flight, error)
	CreateFlight(ctx context.Context, payload flight.CreatePayload) error
	DeleteFlight(ctx context.Context, id flight.ID) error
	Stats(ctx context.Context) (stats.Summary, error)
	SeedAdd(ctx context.Context) (string, error)
	SeedRemove(ctx context.Context) (string, error)
}

var _ FlightAPI = (*api.Client)(nil)

// Notifier is the per-visitor notification queue the pages push to and render from.
// *notifications.Queue implements it.
type Notifier interface {
	Success(ctx context.Context, visitorID, message string)
	Error(ctx context.Context, visitorID, message string)
	Info(ctx context.Context, visitorID, message string)
	Dismiss(ctx context.Context, visitorID, id string) error
	Active(ctx context.Context, visitorID string) ([]domain.Notification, error)
}

// UIOptions tunes page behaviour.
type UIOptions struct {
	AllowFirstClass bool
	Chart           stats.ChartOptions
	RedirectDelay   time.Duration // pause on the add-flight success page before going home
}

// Deps holds everything NewMux wires together.
type Deps struct {
	API       FlightAPI
	Queue     Notifier
	Collector *perf.Collector
	UI        UIOptions

	CSRFKey            []byte
	Secure             bool // HTTPS-only cookies
	TrustedOrigins     []string
	RateLimitPerSecond int

	// HealthChecks are run by /healthz, keyed by component name.
	HealthChecks map[string]func(ctx context.Context) error

	// ExposePerf serves the collector snapshot at /debug/perf.
	ExposePerf bool
}

// app carries the dependencies shared by every handler.
type app struct {
	api       FlightAPI
	queue     Notifier
	collector *perf.Collector
	ui        UIOptions
	health    map[string]func(ctx context.Context) error
	perfRoute bool
	now       func() time.Time
}

// NewMux wires HTTP handlers for the app.
// PRE: d.API, d.Queue and d.Collector are non-nil; d.CSRFKey is 32 bytes
func NewMux(d Deps) http.Handler {
	a := &app{
		api:       d.API,
		queue:     d.Queue,
		collector: d.Collector,
		ui:        d.UI,
		health:    d.HealthChecks,
		perfRoute: d.ExposePerf,
		now:       time.Now,
	}
	if a.ui.Chart.Months <= 0 {
		a.ui.Chart = stats.DefaultChartOptions
	}
	middleware.SecureCookies = d.Secure

	mux := http.NewServeMux()
	mux.Handle("GET /static/", staticHandler())
	table := registerRoutes(mux, a)

	rate := d.RateLimitPerSecond
	if rate <= 0 {
		rate = 10
	}
	limiter := middleware.NewRateLimiter(float64(rate), 2*rate)

	// Apply middleware: Timing -> RateLimit -> SecurityHeaders -> CSRF -> Visitor -> ForwardAPICookies -> AuthGate -> Mux
	return middleware.Chain(mux,
		middleware.AuthGate(d.API, table.classify),
		middleware.ForwardAPICookies,
		middleware.Visitor,
		middleware.CSRF(d.CSRFKey, middleware.CSRFOptions{Secure: d.Secure, TrustedOrigins: d.TrustedOrigins}),
		middleware.SecurityHeaders,
		middleware.RateLimit(limiter),
		middleware.Timing(d.Collector),
	)
}
