// Package cli is the employer-panel command line: setup, serving the panel
// and the sandbox API, and a few scripted panel actions.
package cli

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"

	"github.com/ehanapbuhay/employer-panel/internal/backend"
	"github.com/ehanapbuhay/employer-panel/internal/config"
	"github.com/ehanapbuhay/employer-panel/internal/metrics"
	"github.com/ehanapbuhay/employer-panel/internal/panel"
	"github.com/ehanapbuhay/employer-panel/internal/sandbox"
	"github.com/ehanapbuhay/employer-panel/internal/security"
	"github.com/ehanapbuhay/employer-panel/internal/session"
)

var ErrUsage = errors.New("usage")

var (
	configFile string
	envFile    string
)

func BuildCLI() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "employer-panel",
		Short: "e-HanapBuhay employer admin panel",
		Long: `Serves the e-HanapBuhay employer panel: job postings, applicant
review, hiring reports, compliance and account settings.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.PersistentFlags().StringVarP(&configFile, "config", "c", "configs/default.yaml", "config file path")
	rootCmd.PersistentFlags().StringVar(&envFile, "env-file", ".env", "path to .env file")

	rootCmd.AddCommand(buildSetupCommand())
	rootCmd.AddCommand(buildRunCommand())
	rootCmd.AddCommand(buildJobsCommand())
	rootCmd.AddCommand(buildApplicationsCommand())
	rootCmd.AddCommand(buildReportsCommand())

	return rootCmd
}

// Execute runs the command line. Bad arguments wrap ErrUsage.
func Execute(args []string) error {
	cmd := BuildCLI()
	cmd.SetArgs(args)
	cmd.SetFlagErrorFunc(func(_ *cobra.Command, err error) error {
		return fmt.Errorf("%w: %v", ErrUsage, err)
	})
	return cmd.Execute()
}

func loadConfig() (config.Config, error) {
	if err := config.LoadDotEnv(envFile); err != nil {
		return config.Config{}, err
	}
	cfg, err := config.Load(configFile)
	if err != nil {
		return cfg, fmt.Errorf("load config: %w", err)
	}
	return cfg, nil
}

func buildSetupCommand() *cobra.Command {
	var (
		seedEmail    string
		seedPassword string
		force        bool
	)

	cmd := &cobra.Command{
		Use:   "setup",
		Short: "Write a .env file for local development",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if seedPassword == "" {
				return fmt.Errorf("%w: --seed-password is required", ErrUsage)
			}
			if err := security.ValidateLogin(seedEmail, seedPassword); err != nil {
				return fmt.Errorf("invalid seed account: %w", err)
			}

			values := map[string]string{
				"PANEL_ADDR":            ":3000",
				"API_BASE_URL":          "http://localhost:8080",
				"SANDBOX_ADDR":          ":8080",
				"SANDBOX_PUBLIC_URL":    "http://localhost:8080",
				"SANDBOX_SIGNING_KEY":   uuid.NewString(),
				"SANDBOX_SEED_EMAIL":    seedEmail,
				"SANDBOX_SEED_PASSWORD": seedPassword,
				"SESSION_STORE":         "memory",
				"PANEL_EMAIL":           seedEmail,
				"PANEL_PASSWORD":        seedPassword,
			}
			if err := config.WriteDotEnv(envFile, values, force); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "wrote %s\n", envFile)
			return nil
		},
	}

	cmd.Flags().StringVar(&seedEmail, "seed-email", "employer@example.com", "sandbox employer email")
	cmd.Flags().StringVar(&seedPassword, "seed-password", "", "sandbox employer password")
	cmd.Flags().BoolVar(&force, "force", false, "overwrite existing env file")

	return cmd
}

func buildRunCommand() *cobra.Command {
	return &cobra.Command{
		Use:       "run <panel|sandbox|all>",
		Short:     "Serve the panel, the sandbox API, or both",
		Args:      cobra.ExactArgs(1),
		ValidArgs: []string{"panel", "sandbox", "all"},
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}

			ctx, cancel := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer cancel()

			switch args[0] {
			case "panel":
				return runPanel(ctx, cfg)
			case "sandbox":
				return runSandbox(ctx, cfg)
			case "all":
				return runAll(ctx, cfg)
			default:
				return fmt.Errorf("%w: unknown run target %q", ErrUsage, args[0])
			}
		},
	}
}

func sandboxConfig(cfg config.Config) sandbox.Config {
	return sandbox.Config{
		Addr:            cfg.Sandbox.Addr,
		PublicURL:       cfg.Sandbox.PublicURL,
		SigningKey:      cfg.Sandbox.SigningKey,
		TokenTTL:        cfg.Sandbox.TokenTTL,
		SeedEmail:       cfg.Sandbox.SeedEmail,
		SeedPassword:    cfg.Sandbox.SeedPassword,
		SeedCompanyName: cfg.Sandbox.SeedCompanyName,
		DisableSeedData: cfg.Sandbox.DisableSeedData,
	}
}

func panelConfig(cfg config.Config) panel.Config {
	pc := panel.Config{
		Addr:               cfg.Panel.Addr,
		ReadTimeout:        cfg.Panel.ReadTimeout,
		WriteTimeout:       cfg.Panel.WriteTimeout,
		Location:           cfg.Location(),
		CookieSecure:       cfg.Panel.CookieSecure,
		JobsPageSize:       cfg.Panel.JobsPageSize,
		AppsPageSize:       cfg.Panel.AppsPageSize,
		AvatarMaxBytes:     cfg.Uploads.AvatarMaxBytes,
		PermitMaxBytes:     cfg.Uploads.PermitMaxBytes,
		AttachmentMaxBytes: cfg.Uploads.AttachmentMaxBytes,
	}
	if cfg.Metrics.Enabled {
		pc.MetricsPath = cfg.Metrics.Path
	}
	return pc
}

func newCollector(cfg config.Config) *metrics.Collector {
	if !cfg.Metrics.Enabled {
		return nil
	}
	return metrics.NewCollector(prometheus.NewRegistry())
}

func newBackend(cfg config.Config, m *metrics.Collector) *backend.Client {
	return backend.New(cfg.Backend.BaseURL, &http.Client{Timeout: cfg.Backend.Timeout}, m)
}

func newSessionStore(ctx context.Context, cfg config.Config) (session.Store, func(), error) {
	if cfg.Session.Store != "redis" {
		return session.NewMemoryStore(), func() {}, nil
	}
	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, nil, fmt.Errorf("connect redis %s: %w", cfg.Redis.Addr, err)
	}
	return session.NewRedisStore(rdb, cfg.Redis.Prefix), func() { _ = rdb.Close() }, nil
}

func runPanel(ctx context.Context, cfg config.Config) error {
	m := newCollector(cfg)
	store, closeStore, err := newSessionStore(ctx, cfg)
	if err != nil {
		return err
	}
	defer closeStore()

	sessions := session.NewService(store, m)
	sessions.SetDefaultIdle(cfg.Session.IdleMinutes)
	log.Printf("panel using %s sessions against %s", cfg.Session.Store, cfg.Backend.BaseURL)
	if err := panel.Run(ctx, panelConfig(cfg), newBackend(cfg, m), sessions, m); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}

func runSandbox(ctx context.Context, cfg config.Config) error {
	if err := sandbox.Run(ctx, sandboxConfig(cfg)); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}

func runAll(ctx context.Context, cfg config.Config) error {
	errCh := make(chan error, 2)

	go func() { errCh <- runSandbox(ctx, cfg) }()
	go func() {
		time.Sleep(500 * time.Millisecond)
		errCh <- runPanel(ctx, cfg)
	}()

	for i := 0; i < 2; i++ {
		err := <-errCh
		if err != nil && !errors.Is(err, context.Canceled) {
			return err
		}
	}
	return nil
}
