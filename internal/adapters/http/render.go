package web

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/gorilla/csrf"
	"github.com/yuin/goldmark"
	goldmarkHTML "github.com/yuin/goldmark/renderer/html"

	"flightlog/internal/adapters/http/middleware"
	"flightlog/internal/domain/account"
)

//go:embed templates/*.html
var templateFS embed.FS

//go:embed static
var staticFS embed.FS

// mdRenderer is a goldmark instance configured for safe HTML output.
// Raw HTML in markdown input is escaped (WithUnsafe is NOT set).
var mdRenderer = goldmark.New(
	goldmark.WithRendererOptions(
		goldmarkHTML.WithHardWraps(),
	),
)

// renderMarkdown turns flight notes into HTML.
func renderMarkdown(md string) template.HTML {
	var buf bytes.Buffer
	if err := mdRenderer.Convert([]byte(md), &buf); err != nil {
		return template.HTML(template.HTMLEscapeString(md))
	}
	return template.HTML(buf.String())
}

var funcMap = template.FuncMap{
	"markdown": renderMarkdown,
	"px":       func(v float64) string { return fmt.Sprintf("%.1f", v) },
}

// pageTemplates holds layout.html parsed together with each page.
var pageTemplates = mustParsePages(
	"flights.html",
	"add_flight.html",
	"stats.html",
	"login.html",
	"signup.html",
	"confirm.html",
)

func mustParsePages(names ...string) map[string]*template.Template {
	out := make(map[string]*template.Template, len(names))
	for _, name := range names {
		out[name] = template.Must(template.New("layout.html").Funcs(funcMap).
			ParseFS(templateFS, "templates/layout.html", "templates/"+name))
	}
	return out
}

func staticHandler() http.Handler {
	return http.FileServerFS(staticFS)
}

// notificationView is one queued notification as the layout shows it.
type notificationView struct {
	ID          string
	Message     string
	ColorClass  string
	Icon        string
	RemainingMs int64 // drives the fade-out animation
}

// refresh schedules a client-side navigation after a delay.
type refresh struct {
	URL   string
	Delay time.Duration
}

// Seconds formats the delay for the meta refresh tag, e.g. "1.5".
func (r refresh) Seconds() string {
	return fmt.Sprintf("%g", r.Delay.Seconds())
}

// pageData is what layout.html renders around every page.
type pageData struct {
	Title         string
	Nav           string // highlighted navigation entry
	Session       account.Session
	CSRFField     template.HTML
	Notifications []notificationView
	ReturnTo      string // where a dismissed notification returns to
	Refresh       *refresh
	Page          any // page-specific view model
}

// LoggedIn reports whether the header shows the account controls.
func (p pageData) LoggedIn() bool {
	return p.Session.Authenticated
}

// newPage fills the layout fields shared by every page.
// Notifications are read last, by render, so pushes made while handling the
// request are included.
func (a *app) newPage(r *http.Request, title, nav, returnTo string, page any) pageData {
	return pageData{
		Title:     title,
		Nav:       nav,
		Session:   a.session(r),
		CSRFField: csrf.TemplateField(r),
		ReturnTo:  returnTo,
		Page:      page,
	}
}

// session returns the gate's session for page loads. Form posts that
// re-render a page bypass the gate, so the API is asked directly.
// POST: a failed status check yields a signed-out session
func (a *app) session(r *http.Request) account.Session {
	if sess, ok := middleware.GetSessionFromContext(r.Context()); ok {
		return sess
	}
	sess, err := a.api.AuthStatus(r.Context())
	if err != nil {
		slog.Warn("auth_status_failed", "path", r.URL.Path, "error", err)
		return account.Session{}
	}
	return sess
}

// activeNotifications returns the visitor's notifications for display.
// A failing queue is logged and shows nothing.
func (a *app) activeNotifications(r *http.Request) []notificationView {
	visitor := middleware.VisitorID(r.Context())
	list, err := a.queue.Active(r.Context(), visitor)
	if err != nil {
		slog.Error("notification_list_failed", "visitor_id", visitor, "error", err)
		return nil
	}
	now := a.now()
	views := make([]notificationView, 0, len(list))
	for _, n := range list {
		style := n.Severity.Style()
		views = append(views, notificationView{
			ID:          n.ID,
			Message:     n.Message,
			ColorClass:  style.ColorClass,
			Icon:        style.Icon,
			RemainingMs: n.RemainingMs(now),
		})
	}
	return views
}

// render buffers the page, then writes headers and body.
func (a *app) render(w http.ResponseWriter, r *http.Request, status int, name string, data pageData) {
	tpl, ok := pageTemplates[name]
	if !ok {
		internalError(w, fmt.Errorf("unknown template %q", name))
		return
	}
	data.Notifications = a.activeNotifications(r)

	var buf bytes.Buffer
	if err := tpl.Execute(&buf, data); err != nil {
		internalError(w, fmt.Errorf("render %s: %w", name, err))
		return
	}
	if data.Refresh != nil {
		w.Header().Set("Refresh", data.Refresh.Seconds()+"; url="+data.Refresh.URL)
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(status)
	_, _ = buf.WriteTo(w)
}

// internalError logs the real error and returns a generic message to the client.
func internalError(w http.ResponseWriter, err error) {
	slog.Error("internal_error", "error", err.Error())
	http.Error(w, "internal server error", http.StatusInternalServerError)
}

// localPath returns p when it is a path on this server, otherwise "/".
func localPath(p string) string {
	if p == "" || !strings.HasPrefix(p, "/") || strings.HasPrefix(p, "//") || strings.HasPrefix(p, "/\\") {
		return "/"
	}
	return p
}

// redirect answers a form POST with 303 See Other.
func redirect(w http.ResponseWriter, r *http.Request, to string) {
	http.Redirect(w, r, to, http.StatusSeeOther)
}
