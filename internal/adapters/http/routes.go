package web

import "net/http"

// Page is one entry of the page table: a browser-loadable path and the
// initializer that renders it. Every page load goes through the auth gate.
type Page struct {
	Path   string // ServeMux pattern without the method
	Public bool   // reachable without a session
	Init   func(a *app, w http.ResponseWriter, r *http.Request)
}

// pages maps each page path to its initializer.
var pages = []Page{
	{Path: "/{$}", Init: (*app).handleFlightsPage},
	{Path: "/add-flight", Init: (*app).handleAddFlightPage},
	{Path: "/stats", Init: (*app).handleStatsPage},
	{Path: "/login", Public: true, Init: (*app).handleLoginPage},
	{Path: "/signup", Public: true, Init: (*app).handleSignupPage},
	{Path: "/flights/{id}/delete", Init: (*app).handleConfirmDelete},
	{Path: "/seed/remove", Init: (*app).handleConfirmSeedRemove},
}

// pageTable answers which requests are page loads.
type pageTable struct {
	mux    *http.ServeMux
	public map[string]bool // keyed by registered pattern
}

func newPageTable(list []Page) *pageTable {
	t := &pageTable{mux: http.NewServeMux(), public: make(map[string]bool)}
	for _, p := range list {
		pattern := "GET " + p.Path
		t.mux.Handle(pattern, http.NotFoundHandler())
		t.public[pattern] = p.Public
	}
	return t
}

// classify implements middleware.PageClassifier.
func (t *pageTable) classify(r *http.Request) (isPage, public bool) {
	_, pattern := t.mux.Handler(r)
	if pattern == "" {
		return false, false
	}
	return true, t.public[pattern]
}

// registerRoutes adds the page table and every action route to mux.
func registerRoutes(mux *http.ServeMux, a *app) *pageTable {
	for _, p := range pages {
		initPage := p.Init
		mux.HandleFunc("GET "+p.Path, func(w http.ResponseWriter, r *http.Request) {
			initPage(a, w, r)
		})
	}

	// Form actions
	mux.HandleFunc("POST /add-flight", a.handleAddFlight)
	mux.HandleFunc("POST /flights/{id}/delete", a.handleDeleteFlight)
	mux.HandleFunc("POST /seed/add", a.handleSeedAdd)
	mux.HandleFunc("POST /seed/remove", a.handleSeedRemove)
	mux.HandleFunc("POST /login", a.handleLogin)
	mux.HandleFunc("POST /signup", a.handleSignup)
	mux.HandleFunc("POST /logout", a.handleLogout)
	mux.HandleFunc("POST /notifications/{id}/dismiss", a.handleDismissNotification)

	// Downloads and diagnostics
	mux.HandleFunc("GET /flights/export.csv", a.handleExportCSV)
	mux.HandleFunc("GET /healthz", a.handleHealthz)
	if a.perfRoute {
		mux.HandleFunc("GET /debug/perf", a.handlePerf)
	}

	return newPageTable(pages)
}
