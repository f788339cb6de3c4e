// Package panel is the server-rendered employer panel: jobs, applicants,
// reports, compliance and account settings over the employer REST API.
package panel

import (
	"context"
	"errors"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/ehanapbuhay/employer-panel/internal/backend"
	"github.com/ehanapbuhay/employer-panel/internal/events"
	"github.com/ehanapbuhay/employer-panel/internal/listview"
	"github.com/ehanapbuhay/employer-panel/internal/metrics"
	"github.com/ehanapbuhay/employer-panel/internal/middleware"
	"github.com/ehanapbuhay/employer-panel/internal/session"
	"github.com/ehanapbuhay/employer-panel/internal/upload"
	"github.com/ehanapbuhay/employer-panel/internal/workflow"
)

const sessionCookieName = "ehb_session"

type Config struct {
	Addr         string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	Location     *time.Location
	CookieSecure bool
	JobsPageSize int
	AppsPageSize int
	// MetricsPath serves the prometheus registry when set and metrics are wired.
	MetricsPath string

	AvatarMaxBytes     int64
	PermitMaxBytes     int64
	AttachmentMaxBytes int64
}

type Server struct {
	cfg      Config
	client   *backend.Client
	sessions *session.Service
	metrics  *metrics.Collector
	tracker  *workflow.Tracker
	profiles *events.Bus[events.ProfileChanged]
	pages    *templates
	now      func() time.Time

	avatar     upload.Constraints
	permit     upload.Constraints
	attachment upload.Constraints
}

// New wires the panel. m may be nil.
func New(cfg Config, client *backend.Client, sessions *session.Service, m *metrics.Collector) *Server {
	if cfg.Location == nil {
		cfg.Location = time.UTC
	}
	if cfg.JobsPageSize <= 0 {
		cfg.JobsPageSize = listview.JobsPageSize
	}
	if cfg.AppsPageSize <= 0 {
		cfg.AppsPageSize = listview.ApplicationsPageSize
	}

	s := &Server{
		cfg:        cfg,
		client:     client,
		sessions:   sessions,
		metrics:    m,
		tracker:    workflow.NewTracker(),
		profiles:   events.NewBus[events.ProfileChanged](),
		pages:      parseTemplates(),
		now:        time.Now,
		avatar:     upload.Avatar.WithMaxBytes(cfg.AvatarMaxBytes),
		permit:     upload.Permit.WithMaxBytes(cfg.PermitMaxBytes),
		attachment: upload.Attachment.WithMaxBytes(cfg.AttachmentMaxBytes),
	}

	sessions.Follow(s.profiles)
	sessions.Changes().Subscribe(func(c session.Change) {
		if c.Kind == session.SignedOut {
			s.tracker.Forget(c.SessionID)
		}
	})
	return s
}

func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.Handle("/", http.HandlerFunc(s.rootRoute))
	mux.Handle("/login", http.HandlerFunc(s.loginRoute))
	mux.Handle("/signup", http.HandlerFunc(s.signupRoute))
	mux.Handle("/forgot-password", http.HandlerFunc(s.forgotPasswordRoute))
	mux.Handle("/assets/app.css", http.HandlerFunc(s.appCSSFile))
	mux.Handle("/logout", middleware.Chain(http.HandlerFunc(s.logout), s.requireEmployer))

	mux.Handle("/dashboard", middleware.Chain(http.HandlerFunc(s.dashboardPage), s.requireEmployer))
	mux.Handle("/jobs", middleware.Chain(http.HandlerFunc(s.jobsPage), s.requireEmployer))
	mux.Handle("/jobs/status", middleware.Chain(http.HandlerFunc(s.jobStatus), s.requireEmployer))
	mux.Handle("/jobs/new", middleware.Chain(http.HandlerFunc(s.jobFormRoute), s.requireEmployer))
	mux.Handle("/jobs/edit", middleware.Chain(http.HandlerFunc(s.jobFormRoute), s.requireEmployer))
	mux.Handle("/jobs/delete", middleware.Chain(http.HandlerFunc(s.deleteJob), s.requireEmployer))
	mux.Handle("/jobs/import", middleware.Chain(http.HandlerFunc(s.importRoute), s.requireEmployer))
	mux.Handle("/jobs/import/template.xlsx", middleware.Chain(http.HandlerFunc(s.importTemplateFile), s.requireEmployer))
	mux.Handle("/applications", middleware.Chain(http.HandlerFunc(s.applicationsPage), s.requireEmployer))
	mux.Handle("/applications/status", middleware.Chain(http.HandlerFunc(s.applicationStatus), s.requireEmployer))
	mux.Handle("/applications/view", middleware.Chain(http.HandlerFunc(s.applicationDetailPage), s.requireEmployer))
	mux.Handle("/reports", middleware.Chain(http.HandlerFunc(s.reportsPage), s.requireEmployer))
	mux.Handle("/reports/export", middleware.Chain(http.HandlerFunc(s.reportsExport), s.requireEmployer))
	mux.Handle("/compliance", middleware.Chain(http.HandlerFunc(s.compliancePage), s.requireEmployer))
	mux.Handle("/compliance/report", middleware.Chain(http.HandlerFunc(s.reportViolation), s.requireEmployer))
	mux.Handle("/profile", middleware.Chain(http.HandlerFunc(s.profilePage), s.requireEmployer))
	mux.Handle("/profile/details", middleware.Chain(http.HandlerFunc(s.saveProfile), s.requireEmployer))
	mux.Handle("/profile/business", middleware.Chain(http.HandlerFunc(s.saveBusiness), s.requireEmployer))
	mux.Handle("/profile/avatar", middleware.Chain(http.HandlerFunc(s.uploadAvatar), s.requireEmployer))
	mux.Handle("/profile/permit", middleware.Chain(http.HandlerFunc(s.uploadPermit), s.requireEmployer))
	mux.Handle("/profile/password", middleware.Chain(http.HandlerFunc(s.changePassword), s.requireEmployer))
	mux.Handle("/profile/timeout", middleware.Chain(http.HandlerFunc(s.saveTimeout), s.requireEmployer))
	if s.metrics != nil && s.cfg.MetricsPath != "" {
		mux.Handle(s.cfg.MetricsPath, s.metrics.Handler())
	}

	csp := strings.Join([]string{
		"default-src 'self'",
		"style-src 'self'",
		"img-src 'self' data: http: https:",
		"script-src 'self'",
		"connect-src 'self'",
		"frame-ancestors 'none'",
	}, "; ")

	chain := []func(http.Handler) http.Handler{
		middleware.Recover,
		middleware.RequestID,
		middleware.SecurityHeaders(middleware.SecurityHeadersConfig{ContentSecurityPolicy: csp}),
	}
	if s.metrics != nil {
		chain = append(chain, middleware.Observe(s.metrics))
	}
	return middleware.Chain(mux, chain...)
}

func Run(ctx context.Context, cfg Config, client *backend.Client, sessions *session.Service, m *metrics.Collector) error {
	s := New(cfg, client, sessions, m)

	httpServer := &http.Server{
		Addr:              cfg.Addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: cfg.ReadTimeout,
		WriteTimeout:      cfg.WriteTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Printf("panel listening on http://localhost%s", cfg.Addr)
		errCh <- httpServer.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = httpServer.Shutdown(shutdownCtx)
		return ctx.Err()
	case err := <-errCh:
		if err == nil || errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}

func (s *Server) rootRoute(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}
	if _, err := s.currentSession(r); err == nil {
		http.Redirect(w, r, "/dashboard", http.StatusFound)
		return
	}
	http.Redirect(w, r, "/login", http.StatusFound)
}

func (s *Server) appCSSFile(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	data, err := assetsFS.ReadFile("assets/app.css")
	if err != nil {
		http.Error(w, "asset not found", http.StatusNotFound)
		return
	}
	w.Header().Set("Content-Type", "text/css; charset=utf-8")
	w.Header().Set("Cache-Control", "public, max-age=3600")
	_, _ = w.Write(data)
}
