// Package apitest provides an in-memory stand-in for the flight REST API.
package apitest

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

// SessionCookie is the cookie name the fake API issues.
const SessionCookie = "session"

// Server is a fake API with accounts, sessions, flights and sample data.
// Failures can be forced per endpoint with Fail.
type Server struct {
	*httptest.Server

	mu       sync.Mutex
	users    map[string]string // email -> password
	sessions map[string]string // token -> email
	flights  map[string][]map[string]any
	nextID   int
	failures map[string]failure
	calls    map[string]int
}

type failure struct {
	status int
	body   string
}

// NewServer starts a fake API. Call Close when done.
func NewServer() *Server {
	s := &Server{
		users:    map[string]string{},
		sessions: map[string]string{},
		flights:  map[string][]map[string]any{},
		nextID:   1,
		failures: map[string]failure{},
		calls:    map[string]int{},
	}
	s.Server = httptest.NewServer(s.routes())
	return s
}

func (s *Server) routes() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/auth/status", s.handleStatus)
	mux.HandleFunc("POST /api/auth/login", s.handleLogin)
	mux.HandleFunc("POST /api/auth/signup", s.handleSignup)
	mux.HandleFunc("POST /api/auth/logout", s.handleLogout)
	mux.HandleFunc("GET /api/flights", s.requireLogin(s.handleList))
	mux.HandleFunc("POST /api/flights", s.requireLogin(s.handleCreate))
	mux.HandleFunc("DELETE /api/flights/{id}", s.requireLogin(s.handleDelete))
	mux.HandleFunc("GET /api/stats", s.requireLogin(s.handleStats))
	mux.HandleFunc("POST /api/seed/add", s.requireLogin(s.handleSeedAdd))
	mux.HandleFunc("DELETE /api/seed/remove", s.requireLogin(s.handleSeedRemove))
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		key := r.Method + " " + routeKey(r.URL.Path)
		s.mu.Lock()
		s.calls[key]++
		f, forced := s.failures[key]
		s.mu.Unlock()
		if forced {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(f.status)
			_, _ = w.Write([]byte(f.body))
			return
		}
		mux.ServeHTTP(w, r)
	})
}

// routeKey collapses flight ids so failures can target every delete.
func routeKey(path string) string {
	if strings.HasPrefix(path, "/api/flights/") {
		return "/api/flights/{id}"
	}
	return path
}

// Fail forces route (e.g. "POST /api/flights") to answer status with body.
func (s *Server) Fail(route string, status int, body string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failures[route] = failure{status: status, body: body}
}

// Heal removes every forced failure.
func (s *Server) Heal() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failures = map[string]failure{}
}

// Calls returns how many times route was requested.
func (s *Server) Calls(route string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls[route]
}

// AddUser registers an account directly.
func (s *Server) AddUser(email, password string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.users[email] = password
}

// Flights returns a copy of the stored flights for email.
func (s *Server) Flights(email string) []map[string]any {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]map[string]any, len(s.flights[email]))
	copy(out, s.flights[email])
	return out
}

// AddFlight stores a flight for email and returns its id.
func (s *Server) AddFlight(email string, f map[string]any) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.addFlightLocked(email, f)
}

func (s *Server) addFlightLocked(email string, f map[string]any) string {
	id := strconv.Itoa(s.nextID)
	s.nextID++
	stored := map[string]any{"id": s.nextID - 1, "is_seed": false}
	for k, v := range f {
		stored[k] = v
	}
	s.flights[email] = append(s.flights[email], stored)
	return id
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func (s *Server) currentUser(r *http.Request) string {
	ck, err := r.Cookie(SessionCookie)
	if err != nil {
		return ""
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sessions[ck.Value]
}

type userHandler func(w http.ResponseWriter, r *http.Request, email string)

// requireLogin redirects anonymous callers to the login page.
func (s *Server) requireLogin(next userHandler) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		email := s.currentUser(r)
		if email == "" {
			http.Redirect(w, r, "/login", http.StatusFound)
			return
		}
		next(w, r, email)
	}
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	if email := s.currentUser(r); email != "" {
		writeJSON(w, http.StatusOK, map[string]any{"authenticated": true, "user": map[string]string{"email": email}})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"authenticated": false})
}

type credentials struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (s *Server) startSession(w http.ResponseWriter, email string) {
	token := uuid.NewString()
	s.sessions[token] = email
	http.SetCookie(w, &http.Cookie{Name: SessionCookie, Value: token, Path: "/", HttpOnly: true})
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var c credentials
	if err := json.NewDecoder(r.Body).Decode(&c); err != nil || c.Email == "" || c.Password == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "Email and password required"})
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if pw, ok := s.users[c.Email]; !ok || pw != c.Password {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "Invalid email or password"})
		return
	}
	s.startSession(w, c.Email)
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "message": "Logged in successfully"})
}

func (s *Server) handleSignup(w http.ResponseWriter, r *http.Request) {
	var c credentials
	if err := json.NewDecoder(r.Body).Decode(&c); err != nil || c.Email == "" || c.Password == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "Email and password required"})
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.users[c.Email]; exists {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "Email already registered"})
		return
	}
	s.users[c.Email] = c.Password
	s.startSession(w, c.Email)
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "message": "User created successfully"})
}

func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	if ck, err := r.Cookie(SessionCookie); err == nil {
		s.mu.Lock()
		delete(s.sessions, ck.Value)
		s.mu.Unlock()
	}
	http.SetCookie(w, &http.Cookie{Name: SessionCookie, Value: "", Path: "/", MaxAge: -1})
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "message": "Logged out successfully"})
}

func (s *Server) handleList(w http.ResponseWriter, r *http.Request, email string) {
	writeJSON(w, http.StatusOK, s.Flights(email))
}

func (s *Server) handleCreate(w http.ResponseWriter, r *http.Request, email string) {
	var body map[string]any
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil || len(body) == 0 {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "No data provided"})
		return
	}
	for _, key := range []string{"departure_code", "arrival_code"} {
		code, _ := body[key].(string)
		if len(code) != 3 {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "Invalid " + strings.TrimSuffix(key, "_code") + " airport code"})
			return
		}
	}
	dep, _ := time.Parse("2006-01-02T15:04:05", fmt.Sprint(body["departure_time"]))
	arr, _ := time.Parse("2006-01-02T15:04:05", fmt.Sprint(body["arrival_time"]))
	if d := arr.Sub(dep); d > 0 {
		body["duration"] = fmt.Sprintf("%dh %dm", int(d.Hours()), int(d.Minutes())%60)
	}
	s.mu.Lock()
	id := s.addFlightLocked(email, body)
	s.mu.Unlock()
	writeJSON(w, http.StatusCreated, map[string]any{"id": id})
}

func (s *Server) handleDelete(w http.ResponseWriter, r *http.Request, email string) {
	id := r.PathValue("id")
	s.mu.Lock()
	defer s.mu.Unlock()
	list := s.flights[email]
	for i, f := range list {
		if fmt.Sprint(f["id"]) == id {
			s.flights[email] = append(list[:i:i], list[i+1:]...)
			writeJSON(w, http.StatusOK, map[string]any{"success": true, "message": "Flight deleted successfully"})
			return
		}
	}
	writeJSON(w, http.StatusNotFound, map[string]string{"error": "Flight not found"})
}

// sampleFlights are the demonstration flights added by the seed endpoint.
var sampleFlights = []map[string]any{
	{"departure_code": "JFK", "departure_city": "New York", "arrival_code": "LHR", "arrival_city": "London",
		"flight_number": "BA178", "aircraft": "Boeing 777", "cabin_class": "Business", "flight_date": "2024-01-15", "duration": "7h 0m"},
	{"departure_code": "LHR", "departure_city": "London", "arrival_code": "CDG", "arrival_city": "Paris",
		"flight_number": "AF1681", "aircraft": "Airbus A320", "cabin_class": "Economy", "flight_date": "2024-02-03", "duration": "1h 15m"},
	{"departure_code": "CDG", "departure_city": "Paris", "arrival_code": "NRT", "arrival_city": "Tokyo",
		"flight_number": "AF276", "aircraft": "Boeing 787", "cabin_class": "Premium Economy", "flight_date": "2024-03-20", "duration": "13h 30m"},
}

func (s *Server) handleSeedAdd(w http.ResponseWriter, r *http.Request, email string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, f := range s.flights[email] {
		if f["is_seed"] == true {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "Sample data already exists"})
			return
		}
	}
	for _, f := range sampleFlights {
		s.addFlightLocked(email, f)
		list := s.flights[email]
		list[len(list)-1]["is_seed"] = true
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "message": "Sample flights added"})
}

func (s *Server) handleSeedRemove(w http.ResponseWriter, r *http.Request, email string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	kept := s.flights[email][:0:0]
	for _, f := range s.flights[email] {
		if f["is_seed"] != true {
			kept = append(kept, f)
		}
	}
	s.flights[email] = kept
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "message": "Sample flights removed"})
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request, email string) {
	flights := s.Flights(email)

	type share struct {
		name  string
		count int
	}
	var classes []share
	classIdx := map[string]int{}
	dests := map[string]int{}
	destCity := map[string]string{}
	months := make([]int, 12)
	for _, f := range flights {
		class, _ := f["cabin_class"].(string)
		if class == "" {
			class = "Unknown"
		}
		if i, ok := classIdx[class]; ok {
			classes[i].count++
		} else {
			classIdx[class] = len(classes)
			classes = append(classes, share{class, 1})
		}
		code, _ := f["arrival_code"].(string)
		dests[code]++
		destCity[code], _ = f["arrival_city"].(string)
		if d, err := time.Parse("2006-01-02", fmt.Sprint(f["flight_date"])); err == nil {
			months[d.Month()-1]++
		}
	}

	total := len(flights)
	pct := func(n int) int {
		if total == 0 {
			return 0
		}
		return n * 100 / total
	}

	// flight_classes is written by hand to keep insertion order.
	var cb strings.Builder
	cb.WriteString("{")
	for i, c := range classes {
		if i > 0 {
			cb.WriteString(",")
		}
		name, _ := json.Marshal(c.name)
		fmt.Fprintf(&cb, `%s:{"count":%d,"percentage":%d}`, name, c.count, pct(c.count))
	}
	cb.WriteString("}")

	codes := make([]string, 0, len(dests))
	for code := range dests {
		codes = append(codes, code)
	}
	sort.Slice(codes, func(i, j int) bool {
		if dests[codes[i]] == dests[codes[j]] {
			return codes[i] < codes[j]
		}
		return dests[codes[i]] > dests[codes[j]]
	})
	if len(codes) > 5 {
		codes = codes[:5]
	}
	top := make([]map[string]any, 0, len(codes))
	for _, code := range codes {
		top = append(top, map[string]any{"city": destCity[code], "airport_code": code, "count": dests[code], "percentage": pct(dests[code])})
	}

	activity := make([]map[string]any, 0, 12)
	for i, n := range months {
		activity = append(activity, map[string]any{"month": time.Month(i + 1).String(), "flights": n})
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"total_flights":     total,
		"total_hours":       fmt.Sprintf("%dh", total*3),
		"countries_visited": len(dests),
		"miles_flown":       strconv.Itoa(total * 1500),
		"flight_classes":    json.RawMessage(cb.String()),
		"top_destinations":  top,
		"monthly_activity":  activity,
	})
}
