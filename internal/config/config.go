package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
)

// legacyPrefix is the prefix the browser build uses for the same variables.
// Both spellings are accepted so one .env file serves the UI and this service.
const legacyPrefix = "VITE_"

const (
	DriverREST     = "rest"
	DriverPostgres = "postgres"

	PolicyIgnore  = "ignore"
	PolicySurface = "surface"
)

const (
	defaultN8NBaseURL    = "https://n8n.wavext.es:8443/"
	defaultN8NWebhookURL = "https://n8n.wavext.es:8443/webhook-test/waveresearch-trigger"
	defaultAppPort       = 8000
)

type Config struct {
	Environment Environment

	N8NBaseURL    string
	N8NWebhookURL string
	N8NAPIKey     string

	SupabaseURL     string
	SupabaseAnonKey string
	GrantsTable     string
	GrantsTestTable string

	AppPort int
	// Debug is nil when APP_DEBUG is unset so the environment bundle decides.
	Debug *bool
	// LogLevel is empty when LOG_LEVEL is unset so the environment bundle decides.
	LogLevel string

	HTTPListenAddr    string
	MetricsListenAddr string
	CORSOrigins       []string

	BackendDriver          string
	DatabaseURL            string
	WorkflowsFailurePolicy string
	BundlesFile            string

	// Warnings collects values that were rejected and replaced by a default.
	Warnings []string
}

// Load reads the process environment. It never fails on a bad value: the
// value is replaced by its default and a warning is recorded.
func Load() (*Config, error) {
	cfg := &Config{
		N8NBaseURL:             getEnv("N8N_BASE_URL", defaultN8NBaseURL),
		N8NWebhookURL:          getEnv("N8N_WEBHOOK_URL", defaultN8NWebhookURL),
		N8NAPIKey:              getEnv("N8N_API_KEY", ""),
		SupabaseURL:            getEnv("SUPABASE_URL", ""),
		SupabaseAnonKey:        getEnv("SUPABASE_ANON_KEY", ""),
		GrantsTable:            getEnv("SUPABASE_TABLE_GRANTS_PRODUCTION", "grants"),
		GrantsTestTable:        getEnv("SUPABASE_TABLE_GRANTS_TEST", "grants_test"),
		LogLevel:               getEnv("LOG_LEVEL", ""),
		MetricsListenAddr:      getEnv("METRICS_LISTEN_ADDR", ""),
		BackendDriver:          getEnv("BACKEND_DRIVER", DriverREST),
		DatabaseURL:            getEnv("DATABASE_URL", ""),
		WorkflowsFailurePolicy: getEnv("WORKFLOWS_FAILURE_POLICY", PolicyIgnore),
		BundlesFile:            getEnv("CONFIG_BUNDLES_FILE", ""),
	}

	rawEnv := getEnv("ENVIRONMENT", string(Test))
	env, err := ParseEnvironment(rawEnv)
	if err != nil {
		cfg.Warnings = append(cfg.Warnings, fmt.Sprintf("ENVIRONMENT: %v, using %q", err, Test))
		env = Test
	}
	cfg.Environment = env

	cfg.AppPort = defaultAppPort
	if raw := getEnv("APP_PORT", ""); raw != "" {
		port, err := strconv.Atoi(raw)
		if err != nil || port <= 0 {
			cfg.Warnings = append(cfg.Warnings, fmt.Sprintf("APP_PORT: invalid value %q, using %d", raw, defaultAppPort))
		} else {
			cfg.AppPort = port
		}
	}
	cfg.HTTPListenAddr = getEnv("HTTP_LISTEN_ADDR", fmt.Sprintf(":%d", cfg.AppPort))

	if raw := getEnv("APP_DEBUG", ""); raw != "" {
		debug, err := strconv.ParseBool(raw)
		if err != nil {
			cfg.Warnings = append(cfg.Warnings, fmt.Sprintf("APP_DEBUG: invalid value %q, using environment default", raw))
		} else {
			cfg.Debug = &debug
		}
	}

	origins := getEnv("CORS_ORIGINS", "http://localhost:5173")
	for _, o := range strings.Split(origins, ",") {
		if trimmed := strings.TrimSpace(o); trimmed != "" {
			cfg.CORSOrigins = append(cfg.CORSOrigins, trimmed)
		}
	}

	return cfg, nil
}

// Validate rejects combinations the service cannot run with.
func (c *Config) Validate() error {
	var problems []string

	switch c.BackendDriver {
	case DriverREST:
	case DriverPostgres:
		if c.DatabaseURL == "" {
			problems = append(problems, "DATABASE_URL is required when BACKEND_DRIVER=postgres")
		}
	default:
		problems = append(problems, fmt.Sprintf("BACKEND_DRIVER must be %q or %q, got %q", DriverREST, DriverPostgres, c.BackendDriver))
	}

	switch c.WorkflowsFailurePolicy {
	case PolicyIgnore, PolicySurface:
	default:
		problems = append(problems, fmt.Sprintf("WORKFLOWS_FAILURE_POLICY must be %q or %q, got %q", PolicyIgnore, PolicySurface, c.WorkflowsFailurePolicy))
	}

	if c.HTTPListenAddr == "" {
		problems = append(problems, "HTTP_LISTEN_ADDR")
	}

	if len(problems) > 0 {
		return fmt.Errorf("invalid config: %s", strings.Join(problems, "; "))
	}
	return nil
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	if v := os.Getenv(legacyPrefix + key); v != "" {
		return v
	}
	return fallback
}
