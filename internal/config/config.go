// Package config loads panel settings from a YAML file, then lets
// environment variables (and a .env file) override individual values.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Panel struct {
		Addr         string        `yaml:"addr"`
		ReadTimeout  time.Duration `yaml:"read_timeout"`
		WriteTimeout time.Duration `yaml:"write_timeout"`
		Timezone     string        `yaml:"timezone"`
		CookieSecure bool          `yaml:"cookie_secure"`
		JobsPageSize int           `yaml:"jobs_page_size"`
		AppsPageSize int           `yaml:"applications_page_size"`
	} `yaml:"panel"`

	Backend struct {
		BaseURL string        `yaml:"base_url"`
		Timeout time.Duration `yaml:"timeout"`
	} `yaml:"backend"`

	Sandbox struct {
		Addr            string        `yaml:"addr"`
		PublicURL       string        `yaml:"public_url"`
		SigningKey      string        `yaml:"signing_key"`
		TokenTTL        time.Duration `yaml:"token_ttl"`
		SeedEmail       string        `yaml:"seed_email"`
		SeedPassword    string        `yaml:"seed_password"`
		SeedCompanyName string        `yaml:"seed_company_name"`
		DisableSeedData bool          `yaml:"disable_seed_data"`
	} `yaml:"sandbox"`

	Session struct {
		Store       string `yaml:"store"`
		IdleMinutes int    `yaml:"idle_minutes"`
	} `yaml:"session"`

	Redis struct {
		Addr     string `yaml:"addr"`
		Password string `yaml:"password"`
		DB       int    `yaml:"db"`
		Prefix   string `yaml:"prefix"`
	} `yaml:"redis"`

	Metrics struct {
		Enabled bool   `yaml:"enabled"`
		Path    string `yaml:"path"`
	} `yaml:"metrics"`

	Uploads struct {
		AvatarMaxBytes     int64 `yaml:"avatar_max_bytes"`
		PermitMaxBytes     int64 `yaml:"permit_max_bytes"`
		AttachmentMaxBytes int64 `yaml:"attachment_max_bytes"`
	} `yaml:"uploads"`

	CLI struct {
		Email    string `yaml:"email"`
		Password string `yaml:"password"`
	} `yaml:"cli"`
}

func Default() Config {
	var c Config
	c.Panel.Addr = ":3000"
	c.Panel.ReadTimeout = 5 * time.Second
	c.Panel.WriteTimeout = 10 * time.Second
	c.Panel.Timezone = "Asia/Manila"
	c.Panel.JobsPageSize = 7
	c.Panel.AppsPageSize = 10
	c.Backend.BaseURL = "http://localhost:8080"
	c.Backend.Timeout = 8 * time.Second
	c.Sandbox.Addr = ":8080"
	c.Sandbox.TokenTTL = 12 * time.Hour
	c.Sandbox.SeedEmail = "employer@example.com"
	c.Sandbox.SeedCompanyName = "Bayan Bakery"
	c.Session.Store = "memory"
	c.Session.IdleMinutes = 30
	c.Redis.Addr = "localhost:6379"
	c.Redis.Prefix = "panel:session"
	c.Metrics.Path = "/metrics"
	return c
}

// Load reads path over the defaults, then applies environment overrides.
// A missing file is not an error.
func Load(path string) (Config, error) {
	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case errors.Is(err, os.ErrNotExist):
		case err != nil:
			return cfg, fmt.Errorf("read config file: %w", err)
		default:
			if err := yaml.Unmarshal(data, &cfg); err != nil {
				return cfg, fmt.Errorf("parse config YAML: %w", err)
			}
		}
	}
	cfg.applyEnv()
	return cfg, cfg.Validate()
}

func (c *Config) applyEnv() {
	c.Panel.Addr = envOrDefault("PANEL_ADDR", c.Panel.Addr)
	c.Panel.Timezone = envOrDefault("PANEL_TIMEZONE", c.Panel.Timezone)
	c.Panel.CookieSecure = envBool("PANEL_COOKIE_SECURE", c.Panel.CookieSecure)
	c.Backend.BaseURL = strings.TrimRight(envOrDefault("API_BASE_URL", c.Backend.BaseURL), "/")
	c.Sandbox.Addr = envOrDefault("SANDBOX_ADDR", c.Sandbox.Addr)
	c.Sandbox.PublicURL = envOrDefault("SANDBOX_PUBLIC_URL", c.Sandbox.PublicURL)
	c.Sandbox.SigningKey = envOrDefault("SANDBOX_SIGNING_KEY", c.Sandbox.SigningKey)
	c.Sandbox.SeedEmail = envOrDefault("SANDBOX_SEED_EMAIL", c.Sandbox.SeedEmail)
	c.Sandbox.SeedPassword = envOrDefault("SANDBOX_SEED_PASSWORD", c.Sandbox.SeedPassword)
	c.Session.Store = strings.ToLower(envOrDefault("SESSION_STORE", c.Session.Store))
	c.Session.IdleMinutes = envInt("SESSION_IDLE_MINUTES", c.Session.IdleMinutes)
	c.Redis.Addr = envOrDefault("REDIS_ADDR", c.Redis.Addr)
	c.Redis.Password = envOrDefault("REDIS_PASSWORD", c.Redis.Password)
	c.Redis.DB = envInt("REDIS_DB", c.Redis.DB)
	c.Metrics.Enabled = envBool("METRICS_ENABLED", c.Metrics.Enabled)
	c.CLI.Email = envOrDefault("PANEL_EMAIL", c.CLI.Email)
	c.CLI.Password = envOrDefault("PANEL_PASSWORD", c.CLI.Password)
}

func (c Config) Validate() error {
	if c.Backend.BaseURL == "" {
		return errors.New("backend.base_url is required")
	}
	switch c.Session.Store {
	case "memory", "redis":
	default:
		return fmt.Errorf("session.store must be memory or redis, got %q", c.Session.Store)
	}
	if _, err := time.LoadLocation(c.Panel.Timezone); err != nil {
		return fmt.Errorf("panel.timezone: %w", err)
	}
	return nil
}

// Location resolves the panel timezone, falling back to UTC.
func (c Config) Location() *time.Location {
	loc, err := time.LoadLocation(c.Panel.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

func envOrDefault(name, fallback string) string {
	value := strings.TrimSpace(os.Getenv(name))
	if value == "" {
		return fallback
	}
	return value
}

func envInt(name string, fallback int) int {
	value, err := strconv.Atoi(strings.TrimSpace(os.Getenv(name)))
	if err != nil {
		return fallback
	}
	return value
}

func envBool(name string, fallback bool) bool {
	value, err := strconv.ParseBool(strings.TrimSpace(os.Getenv(name)))
	if err != nil {
		return fallback
	}
	return value
}
