package api

import (
	"context"
	"net/http"
)

type cookiesKey struct{}

// WithCookies attaches the browser's API cookies to ctx. Every call made with
// the returned context sends them along.
func WithCookies(ctx context.Context, cookies []*http.Cookie) context.Context {
	return context.WithValue(ctx, cookiesKey{}, cookies)
}

func cookiesFrom(ctx context.Context) []*http.Cookie {
	cookies, _ := ctx.Value(cookiesKey{}).([]*http.Cookie)
	return cookies
}

// RelayCookies copies cookies set by the API onto the browser response.
// Domain is dropped so the cookie binds to this server's host.
func RelayCookies(w http.ResponseWriter, cookies []*http.Cookie) {
	for _, ck := range cookies {
		relayed := *ck
		relayed.Domain = ""
		if relayed.Path == "" {
			relayed.Path = "/"
		}
		http.SetCookie(w, &relayed)
	}
}
