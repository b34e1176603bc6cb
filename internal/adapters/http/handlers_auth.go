package web

import (
	"net/http"
	"strings"

	"flightlog/internal/adapters/api"
	"flightlog/internal/application/orchestrators"
)

// authFormView backs the login and signup forms.
// Error is empty on a fresh render, which keeps #error-message hidden.
type authFormView struct {
	Email string
	Error string
}

func (a *app) handleLoginPage(w http.ResponseWriter, r *http.Request) {
	a.render(w, r, http.StatusOK, "login.html", a.newPage(r, "Sign In", "login", "/login", authFormView{}))
}

func (a *app) handleSignupPage(w http.ResponseWriter, r *http.Request) {
	a.render(w, r, http.StatusOK, "signup.html", a.newPage(r, "Create Account", "signup", "/signup", authFormView{}))
}

// handleLogin submits the login form.
// Success relays the API session cookie and goes home; failure shows the
// inline error.
func (a *app) handleLogin(w http.ResponseWriter, r *http.Request) {
	email := strings.TrimSpace(r.PostFormValue("email"))
	res, err := orchestrators.ExecuteLogin(r.Context(), orchestrators.LoginInput{
		Email:    email,
		Password: r.PostFormValue("password"),
	}, orchestrators.AuthDeps{API: a.api})
	if err != nil {
		view := authFormView{Email: email, Error: orchestrators.UserMessage(err, orchestrators.MsgLoginFailed)}
		a.render(w, r, http.StatusOK, "login.html", a.newPage(r, "Sign In", "login", "/login", view))
		return
	}
	api.RelayCookies(w, res.Cookies)
	redirect(w, r, "/")
}

// handleSignup submits the signup form. Mismatched or short passwords are
// rejected before the API is called.
func (a *app) handleSignup(w http.ResponseWriter, r *http.Request) {
	email := strings.TrimSpace(r.PostFormValue("email"))
	res, err := orchestrators.ExecuteSignup(r.Context(), orchestrators.SignupInput{
		Email:           email,
		Password:        r.PostFormValue("password"),
		ConfirmPassword: r.PostFormValue("confirm-password"),
	}, orchestrators.AuthDeps{API: a.api})
	if err != nil {
		view := authFormView{Email: email, Error: orchestrators.UserMessage(err, orchestrators.MsgSignupFailed)}
		a.render(w, r, http.StatusOK, "signup.html", a.newPage(r, "Create Account", "signup", "/signup", view))
		return
	}
	api.RelayCookies(w, res.Cookies)
	redirect(w, r, "/")
}

// handleLogout ends the API session. A failed logout stays on the list page.
func (a *app) handleLogout(w http.ResponseWriter, r *http.Request) {
	res, err := orchestrators.ExecuteLogout(r.Context(), orchestrators.AuthDeps{API: a.api})
	if err != nil {
		redirect(w, r, "/")
		return
	}
	api.RelayCookies(w, res.Cookies)
	redirect(w, r, "/login")
}
