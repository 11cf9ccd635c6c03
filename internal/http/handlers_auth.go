package http

import (
	"net/http"

	applog "budget/internal/log"
	"budget/internal/services"
)

type authForm struct {
	Username string
	Email    string
}

func (s *Server) handleLoginPage(w http.ResponseWriter, r *http.Request) {
	data := pageData{Title: "Log in", Active: "login", Data: authForm{}}
	if r.URL.Query().Get("signup") == "ok" {
		data.Notice = "Account created! Please log in."
	}
	s.renderPage(w, r, http.StatusOK, "login.html", data)
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	p := NewRequestBodyParser(r)
	if err := p.Parse(); err != nil {
		s.renderPage(w, r, http.StatusBadRequest, "login.html",
			pageData{Title: "Log in", Active: "login", Error: "Invalid request format", Data: authForm{}})
		return
	}
	username, password := p.Get("username"), p.GetRaw("password")
	form := authForm{Username: username}

	if username == "" || password == "" {
		s.renderPage(w, r, http.StatusUnprocessableEntity, "login.html",
			pageData{Title: "Log in", Active: "login", Error: "Please enter both username and password", Data: form})
		return
	}

	_, token, err := s.svc.Login(ctx, username, password)
	if err != nil {
		s.appMetrics.failedLogins.Add(1)
		logFailure(ctx, "Login failed", applog.OpLogin, err)
		s.renderPage(w, r, statusFor(err), "login.html",
			pageData{Title: "Log in", Active: "login", Error: userMessage(err), Data: form})
		return
	}

	s.appMetrics.logins.Add(1)
	s.setSessionCookie(w, token, s.svc.SessionTTL())
	if isHTMX(r) {
		NewHTMXResponse().Redirect("/budget").Write(w)
		return
	}
	http.Redirect(w, r, "/budget", http.StatusSeeOther)
}

func (s *Server) handleSignupPage(w http.ResponseWriter, r *http.Request) {
	s.renderPage(w, r, http.StatusOK, "signup.html", pageData{Title: "Sign up", Active: "signup", Data: authForm{}})
}

func (s *Server) handleSignup(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	p := NewRequestBodyParser(r)
	if err := p.Parse(); err != nil {
		s.renderPage(w, r, http.StatusBadRequest, "signup.html",
			pageData{Title: "Sign up", Active: "signup", Error: "Invalid request format", Data: authForm{}})
		return
	}
	username, email := p.Get("username"), p.Get("email")
	password, confirm := p.GetRaw("password"), p.GetRaw("confirm_password")
	form := authForm{Username: username, Email: email}

	fail := func(status int, msg string) {
		s.renderPage(w, r, status, "signup.html",
			pageData{Title: "Sign up", Active: "signup", Error: msg, Data: form})
	}

	switch {
	case username == "" || password == "" || confirm == "":
		fail(http.StatusUnprocessableEntity, "Please fill in all required fields")
		return
	case password != confirm:
		fail(http.StatusUnprocessableEntity, "Passwords don't match!")
		return
	}

	if err := s.svc.Signup(ctx, username, password, email); err != nil {
		logFailure(ctx, "Signup failed", applog.OpSignup, err)
		fail(statusFor(err), userMessage(err))
		return
	}

	s.appMetrics.signups.Add(1)
	if isHTMX(r) {
		NewHTMXResponse().Redirect("/login?signup=ok").Write(w)
		return
	}
	http.Redirect(w, r, "/login?signup=ok", http.StatusSeeOther)
}

func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request, sess *services.Session) {
	s.svc.Logout(r.Context(), sess)
	s.clearSessionCookie(w)
	if isHTMX(r) {
		NewHTMXResponse().Redirect("/login").Write(w)
		return
	}
	http.Redirect(w, r, "/login", http.StatusSeeOther)
}
