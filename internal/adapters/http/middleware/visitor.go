package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/google/uuid"

	"flightlog/internal/adapters/api"
)

// VisitorCookieName keys the visitor's notification queue.
const VisitorCookieName = "flightlog_visitor"

// CSRFCookieName is the gorilla/csrf cookie.
const CSRFCookieName = "flightlog_csrf"

// SecureCookies marks cookies set by this server as Secure. Set from config.
var SecureCookies = false

// Visitor gives every browser an anonymous id and puts it in the request context.
// Static assets are skipped.
// POST: VisitorID(r.Context()) is non-empty for every other request
func Visitor(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if isStatic(r) {
			next.ServeHTTP(w, r)
			return
		}

		id := ""
		if c, err := r.Cookie(VisitorCookieName); err == nil {
			if _, perr := uuid.Parse(c.Value); perr == nil {
				id = c.Value
			}
		}
		if id == "" {
			id = uuid.NewString()
			http.SetCookie(w, &http.Cookie{
				Name:     VisitorCookieName,
				Value:    id,
				Path:     "/",
				HttpOnly: true,
				Secure:   SecureCookies,
				SameSite: http.SameSiteLaxMode,
			})
		}
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), visitorContextKey, id)))
	})
}

func isStatic(r *http.Request) bool {
	return strings.HasPrefix(r.URL.Path, "/static/")
}

// VisitorID returns the id set by Visitor, or "".
func VisitorID(ctx context.Context) string {
	id, _ := ctx.Value(visitorContextKey).(string)
	return id
}

// ForwardAPICookies puts the browser's cookies, minus this server's own, into
// the context so API calls made for this request carry the API session.
func ForwardAPICookies(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var forward []*http.Cookie
		for _, c := range r.Cookies() {
			if c.Name == VisitorCookieName || c.Name == CSRFCookieName {
				continue
			}
			forward = append(forward, c)
		}
		if len(forward) > 0 {
			r = r.WithContext(api.WithCookies(r.Context(), forward))
		}
		next.ServeHTTP(w, r)
	})
}
