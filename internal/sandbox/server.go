// Package sandbox is an in-memory stand-in for the employer REST API. It
// speaks the same envelope, issues real HS256 tokens and enforces the same
// status rules, so the panel and CLI can run without the production backend.
package sandbox

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/ehanapbuhay/employer-panel/internal/middleware"
)

type contextKey string

const accountContextKey contextKey = "account"

type Config struct {
	Addr string
	// PublicURL prefixes the URLs of uploaded files, e.g. http://localhost:8080.
	PublicURL       string
	SigningKey      string
	TokenTTL        time.Duration
	SeedEmail       string
	SeedPassword    string
	SeedCompanyName string
	DisableSeedData bool
	// Now is the clock; tests pin it.
	Now func() time.Time
}

type Server struct {
	store     *memoryStore
	key       []byte
	tokenTTL  time.Duration
	publicURL string
	now       func() time.Time
}

// New builds a sandbox with its seed data loaded.
func New(cfg Config) (*Server, error) {
	if cfg.SeedEmail != "" && cfg.SeedPassword == "" {
		return nil, errors.New("SANDBOX_SEED_PASSWORD is required when a seed account is configured")
	}
	if cfg.TokenTTL <= 0 {
		cfg.TokenTTL = 12 * time.Hour
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	if cfg.PublicURL == "" {
		cfg.PublicURL = "http://localhost" + cfg.Addr
	}

	key := []byte(cfg.SigningKey)
	if len(key) == 0 {
		generated, err := randomToken(32)
		if err != nil {
			return nil, fmt.Errorf("generate signing key: %w", err)
		}
		key = []byte(generated)
	}

	s := &Server{
		store:     newMemoryStore(),
		key:       key,
		tokenTTL:  cfg.TokenTTL,
		publicURL: strings.TrimRight(cfg.PublicURL, "/"),
		now:       cfg.Now,
	}
	if err := s.seed(cfg); err != nil {
		return nil, fmt.Errorf("seed sandbox: %w", err)
	}
	return s, nil
}

func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.Handle("/health", http.HandlerFunc(s.health))
	mux.Handle("/auth/register", http.HandlerFunc(s.register))
	mux.Handle("/auth/login", http.HandlerFunc(s.login))
	mux.Handle("/auth/reset-password-direct", http.HandlerFunc(s.resetPasswordDirect))
	mux.Handle("/auth/change-password", middleware.Chain(http.HandlerFunc(s.changePassword), s.requireEmployer))
	mux.Handle("/jobs/admin/", middleware.Chain(http.HandlerFunc(s.jobsAdminHandler), s.requireEmployer))
	mux.Handle("/applications/", middleware.Chain(http.HandlerFunc(s.applicationsHandler), s.requireEmployer))
	mux.Handle("/user/", middleware.Chain(http.HandlerFunc(s.userHandler), s.requireEmployer))
	mux.Handle("/compliance/violations", middleware.Chain(http.HandlerFunc(s.violationsHandler), s.requireEmployer))
	mux.Handle("/uploads/", http.HandlerFunc(s.serveUpload))

	return middleware.Chain(
		mux,
		middleware.Recover,
		middleware.RequestID,
		middleware.SecurityHeaders(middleware.SecurityHeadersConfig{ContentSecurityPolicy: "default-src 'none'; frame-ancestors 'none'"}),
	)
}

func Run(ctx context.Context, cfg Config) error {
	s, err := New(cfg)
	if err != nil {
		return err
	}

	httpServer := &http.Server{
		Addr:              cfg.Addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Printf("sandbox api listening on http://localhost%s", cfg.Addr)
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

func (s *Server) health(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) serveUpload(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet && r.Method != http.MethodHead {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	f, ok := s.store.file(r.URL.Path)
	if !ok {
		http.NotFound(w, r)
		return
	}
	w.Header().Set("Content-Type", f.ContentType)
	w.Header().Set("Content-Length", strconv.Itoa(len(f.Data)))
	w.Header().Set("Cache-Control", "private, max-age=300")
	w.WriteHeader(http.StatusOK)
	if r.Method == http.MethodGet {
		_, _ = w.Write(f.Data)
	}
}

func accountFromContext(ctx context.Context) *account {
	a, ok := ctx.Value(accountContextKey).(*account)
	if !ok {
		return nil
	}
	return a
}

func randomToken(bytesLen int) (string, error) {
	buf := make([]byte, bytesLen)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(buf), nil
}

// pathID parses the single id segment left after prefix, e.g.
// "/user/profile/12" with prefix "/user/profile/".
func pathID(path, prefix string) (int64, bool) {
	raw := strings.Trim(strings.TrimPrefix(path, prefix), "/")
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}

func decodeJSON(w http.ResponseWriter, r *http.Request, out any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, 1<<20))
	return dec.Decode(out)
}

// writeOK sends the {success,message,data} envelope.
func writeOK(w http.ResponseWriter, status int, message string, data any) {
	payload := map[string]any{"success": true, "message": message}
	if data != nil {
		payload["data"] = data
	}
	writeJSON(w, status, payload)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]any{"success": false, "message": message})
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}
