package middleware

import (
	"context"
	"log/slog"
	"net/http"

	"flightlog/internal/domain/account"
)

// contextKey is an unexported type for context keys in this package.
type contextKey string

const (
	sessionContextKey contextKey = "session"
	visitorContextKey contextKey = "visitor"
)

// SessionChecker asks the flight API whether the forwarded cookies belong to
// a signed-in user.
type SessionChecker interface {
	AuthStatus(ctx context.Context) (account.Session, error)
}

// PageClassifier reports whether r loads a page from the route table and,
// if so, whether that page is public.
type PageClassifier func(r *http.Request) (isPage, public bool)

// AuthGate checks the API session on every page load and sends signed-out
// visitors of non-public pages to /login.
// A failed status check is logged and the page renders signed out.
// Requests that are not page loads pass through untouched.
// PRE: ForwardAPICookies runs before AuthGate
func AuthGate(checker SessionChecker, classify PageClassifier) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			isPage, public := classify(r)
			if !isPage {
				next.ServeHTTP(w, r)
				return
			}

			session, err := checker.AuthStatus(r.Context())
			if err != nil {
				slog.Warn("auth_status_failed", "path", r.URL.Path, "error", err)
				next.ServeHTTP(w, r.WithContext(ContextWithSession(r.Context(), account.Session{})))
				return
			}
			if !session.Authenticated && !public {
				slog.Debug("auth_event", "event", "redirect_login", "path", r.URL.Path)
				http.Redirect(w, r, "/login", http.StatusSeeOther)
				return
			}
			next.ServeHTTP(w, r.WithContext(ContextWithSession(r.Context(), session)))
		})
	}
}

// GetSessionFromContext returns the session the gate resolved for this request.
func GetSessionFromContext(ctx context.Context) (account.Session, bool) {
	session, ok := ctx.Value(sessionContextKey).(account.Session)
	return session, ok
}

// ContextWithSession returns a context with the given session set.
// Intended for use in tests.
func ContextWithSession(ctx context.Context, sess account.Session) context.Context {
	return context.WithValue(ctx, sessionContextKey, sess)
}
