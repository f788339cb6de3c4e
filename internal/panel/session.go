package panel

import (
	"context"
	"errors"
	"log"
	"net/http"
	"net/url"
	"strings"

	"github.com/ehanapbuhay/employer-panel/internal/backend"
	"github.com/ehanapbuhay/employer-panel/internal/session"
	"github.com/ehanapbuhay/employer-panel/internal/upload"
	"github.com/ehanapbuhay/employer-panel/internal/workflow"
)

type sessionKey struct{}

func withSession(ctx context.Context, rec session.Record) context.Context {
	return context.WithValue(ctx, sessionKey{}, rec)
}

func sessionFromContext(ctx context.Context) session.Record {
	rec, _ := ctx.Value(sessionKey{}).(session.Record)
	return rec
}

func (s *Server) setSessionCookie(w http.ResponseWriter, id string) {
	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookieName,
		Value:    id,
		Path:     "/",
		HttpOnly: true,
		Secure:   s.cfg.CookieSecure,
		SameSite: http.SameSiteStrictMode,
	})
}

func (s *Server) clearSessionCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   s.cfg.CookieSecure,
		SameSite: http.SameSiteStrictMode,
	})
}

func (s *Server) currentSession(r *http.Request) (session.Record, error) {
	cookie, err := r.Cookie(sessionCookieName)
	if err != nil {
		return session.Record{}, session.ErrUnauthenticated
	}
	return s.sessions.Guard(r.Context(), strings.TrimSpace(cookie.Value))
}

// requireEmployer admits requests that carry a live employer session and
// checks the csrf token of every form post.
func (s *Server) requireEmployer(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		rec, err := s.currentSession(r)
		if err != nil {
			if !errors.Is(err, session.ErrUnauthenticated) {
				log.Printf("session check failed: %v", err)
			}
			s.clearSessionCookie(w)
			redirectToLogin(w, r, signedOutMessage(err))
			return
		}

		if r.Method == http.MethodPost {
			r.Body = http.MaxBytesReader(w, r.Body, s.maxFormBytes())
			if err := parsePostForm(r); err != nil {
				var tooLarge *http.MaxBytesError
				if errors.As(err, &tooLarge) {
					s.rejectOversized(w, r.WithContext(withSession(r.Context(), rec)))
					return
				}
				http.Error(w, "invalid form", http.StatusBadRequest)
				return
			}
			token := strings.TrimSpace(r.PostFormValue("csrf_token"))
			if token == "" || token != rec.CSRF {
				http.Error(w, "csrf validation failed", http.StatusForbidden)
				return
			}
		}
		next.ServeHTTP(w, r.WithContext(withSession(r.Context(), rec)))
	})
}

// rejectOversized answers a post cut off by the body limit. The csrf token
// was never read, so nothing but the notice is written to the session.
func (s *Server) rejectOversized(w http.ResponseWriter, r *http.Request) {
	target, limits := "/dashboard", upload.Constraints{Kind: "form", MaxBytes: s.maxFormBytes()}
	switch {
	case strings.HasPrefix(r.URL.Path, "/profile/avatar"):
		target, limits = "/profile", s.avatar
	case strings.HasPrefix(r.URL.Path, "/profile/permit"):
		target, limits = "/profile", s.permit
	case strings.HasPrefix(r.URL.Path, "/profile"):
		target = "/profile"
	case strings.HasPrefix(r.URL.Path, "/compliance"):
		target, limits = "/compliance", s.attachment
	case strings.HasPrefix(r.URL.Path, "/jobs"):
		target = "/jobs"
	}
	rejected := limits.TooLarge()
	s.metrics.RecordUploadRejected(rejected.Kind, rejected.Reason)
	log.Printf("%s body over %d bytes rejected", r.URL.Path, s.maxFormBytes())
	s.flashAndRedirect(w, r, target, workflow.Failure{Title: "Upload Rejected", Message: rejected.Message})
}

func parsePostForm(r *http.Request) error {
	if strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/form-data") {
		return r.ParseMultipartForm(32 << 20)
	}
	return r.ParseForm()
}

func (s *Server) maxFormBytes() int64 {
	limit := max(s.avatar.MaxBytes, s.permit.MaxBytes, s.attachment.MaxBytes)
	return limit + (1 << 20)
}

func signedOutMessage(err error) string {
	switch {
	case errors.Is(err, session.ErrIdleTimeout):
		return "You were signed out after a period of inactivity."
	case errors.Is(err, session.ErrTokenExpired):
		return "Your session has expired. Please log in again."
	case errors.Is(err, session.ErrNotEmployer):
		return "Only employer accounts can use this panel."
	}
	return ""
}

func redirectToLogin(w http.ResponseWriter, r *http.Request, message string) {
	target := "/login"
	if message != "" {
		target += "?error=" + url.QueryEscape(message)
	}
	http.Redirect(w, r, target, http.StatusFound)
}

// employer returns the API client acting for the signed-in user.
func (s *Server) employer(r *http.Request) *backend.Employer {
	return s.client.As(sessionFromContext(r.Context()).Token)
}

// endIfUnauthorized signs the user out when the API rejected their token.
// It reports whether the response has been written.
func (s *Server) endIfUnauthorized(w http.ResponseWriter, r *http.Request, err error) bool {
	if !backend.IsUnauthorized(err) {
		return false
	}
	rec := sessionFromContext(r.Context())
	if endErr := s.sessions.End(r.Context(), rec.ID); endErr != nil {
		log.Printf("session %s end failed: %v", rec.ID, endErr)
	}
	s.clearSessionCookie(w)
	redirectToLogin(w, r, "Your session has expired. Please log in again.")
	return true
}

// flashAndRedirect stores n for the next page and redirects there.
func (s *Server) flashAndRedirect(w http.ResponseWriter, r *http.Request, target string, n workflow.Notification) {
	rec := sessionFromContext(r.Context())
	title, message := workflow.Text(n)
	err := s.sessions.SetFlash(r.Context(), rec.ID, session.Flash{Kind: workflow.Kind(n), Title: title, Message: message})
	if err != nil {
		log.Printf("session %s flash failed: %v", rec.ID, err)
	}
	http.Redirect(w, r, target, http.StatusSeeOther)
}

func (s *Server) takeFlash(r *http.Request) *notice {
	rec := sessionFromContext(r.Context())
	f, ok := s.sessions.TakeFlash(r.Context(), rec.ID)
	if !ok {
		return nil
	}
	return &notice{Kind: f.Kind, Title: f.Title, Message: f.Message}
}
