package panel

import (
	"errors"
	"log"
	"net/http"
	"net/url"
	"strings"

	"github.com/ehanapbuhay/employer-panel/internal/backend"
	"github.com/ehanapbuhay/employer-panel/internal/security"
	"github.com/ehanapbuhay/employer-panel/internal/session"
)

type authForm struct {
	FullName string
	Email    string
	Location string
}

func (s *Server) loginRoute(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		if _, err := s.currentSession(r); err == nil {
			http.Redirect(w, r, "/dashboard", http.StatusFound)
			return
		}
		s.renderAuth(w, r, http.StatusOK, "login", "", authForm{})
	case http.MethodPost:
		s.login(w, r)
	default:
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
	}
}

func (s *Server) login(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "invalid form", http.StatusBadRequest)
		return
	}
	email := strings.TrimSpace(r.FormValue("email"))
	password := r.FormValue("password")
	form := authForm{Email: email}

	if err := security.ValidateLogin(email, password); err != nil {
		s.renderAuth(w, r, http.StatusUnprocessableEntity, "login", err.Error(), form)
		return
	}

	result, err := s.client.Login(r.Context(), email, password)
	if err != nil {
		log.Printf("login for %s failed: %v", email, err)
		s.renderAuth(w, r, http.StatusUnauthorized, "login", backend.UserMessage(err), form)
		return
	}

	rec, err := s.sessions.Begin(r.Context(), result.Token, result.User)
	switch {
	case errors.Is(err, session.ErrNotEmployer):
		s.renderAuth(w, r, http.StatusForbidden, "login", "Only employer accounts can use this panel.", form)
		return
	case errors.Is(err, session.ErrTokenExpired):
		s.renderAuth(w, r, http.StatusUnauthorized, "login", "Your session has expired. Please log in again.", form)
		return
	case err != nil:
		log.Printf("session start failed: %v", err)
		s.renderAuth(w, r, http.StatusInternalServerError, "login", "We couldn't sign you in. Please try again.", form)
		return
	}

	s.setSessionCookie(w, rec.ID)
	http.Redirect(w, r, "/dashboard", http.StatusSeeOther)
}

func (s *Server) signupRoute(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		s.renderAuth(w, r, http.StatusOK, "signup", "", authForm{})
		return
	case http.MethodPost:
	default:
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	if err := r.ParseForm(); err != nil {
		http.Error(w, "invalid form", http.StatusBadRequest)
		return
	}
	signup := security.Signup{
		FullName:    security.PlainText(r.FormValue("full_name")),
		Email:       strings.TrimSpace(r.FormValue("email")),
		Address:     security.PlainText(r.FormValue("location")),
		Password:    r.FormValue("password"),
		AgreedTerms: r.FormValue("agree_terms") != "",
	}
	form := authForm{FullName: signup.FullName, Email: signup.Email, Location: signup.Address}
	if err := security.ValidateSignup(signup); err != nil {
		s.renderAuth(w, r, http.StatusUnprocessableEntity, "signup", err.Error(), form)
		return
	}

	msg, err := s.client.Register(r.Context(), backend.Registration{
		FullName: signup.FullName,
		Email:    signup.Email,
		Password: signup.Password,
		Location: signup.Address,
	})
	if err != nil {
		log.Printf("registration for %s failed: %v", signup.Email, err)
		s.renderAuth(w, r, http.StatusUnprocessableEntity, "signup", backend.UserMessage(err), form)
		return
	}
	if msg == "" {
		msg = "Registration successful. You can now log in."
	}
	http.Redirect(w, r, "/login?message="+url.QueryEscape(msg), http.StatusSeeOther)
}

func (s *Server) forgotPasswordRoute(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		s.renderAuth(w, r, http.StatusOK, "forgot_password", "", authForm{})
		return
	case http.MethodPost:
	default:
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	if err := r.ParseForm(); err != nil {
		http.Error(w, "invalid form", http.StatusBadRequest)
		return
	}
	email := strings.TrimSpace(r.FormValue("email"))
	password := r.FormValue("new_password")
	form := authForm{Email: email}
	if err := security.ValidateDirectReset(email, password); err != nil {
		s.renderAuth(w, r, http.StatusUnprocessableEntity, "forgot_password", err.Error(), form)
		return
	}
	if password != r.FormValue("confirm_password") {
		s.renderAuth(w, r, http.StatusUnprocessableEntity, "forgot_password", "Passwords do not match.", form)
		return
	}

	msg, err := s.client.ResetPasswordDirect(r.Context(), email, password)
	if err != nil {
		s.renderAuth(w, r, http.StatusUnprocessableEntity, "forgot_password", backend.UserMessage(err), form)
		return
	}
	if msg == "" {
		msg = "Password has been reset. You can now log in."
	}
	http.Redirect(w, r, "/login?message="+url.QueryEscape(msg), http.StatusSeeOther)
}

func (s *Server) logout(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	rec := sessionFromContext(r.Context())
	if err := s.sessions.End(r.Context(), rec.ID); err != nil {
		log.Printf("logout failed: %v", err)
	}
	s.clearSessionCookie(w)
	http.Redirect(w, r, "/login?message="+url.QueryEscape("You have been signed out."), http.StatusSeeOther)
}

func (s *Server) renderAuth(w http.ResponseWriter, r *http.Request, status int, name, errMsg string, form authForm) {
	title := map[string]string{
		"login":           "Employer Login",
		"signup":          "Create an Employer Account",
		"forgot_password": "Reset Password",
	}[name]
	s.renderStatus(w, r, status, name, pageData{
		Title: title,
		Error: errMsg,
		Auth:  form,
	})
}
