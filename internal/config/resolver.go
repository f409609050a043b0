package config

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/rs/zerolog"
)

// ErrNotInitialized is returned by consumers that require a Ready resolver.
var ErrNotInitialized = errors.New("configuration resolver not initialized")

// State is the lifecycle position of a Resolver.
type State int

const (
	StateUninitialized State = iota
	StateInitializing
	StateReady
)

func (s State) String() string {
	switch s {
	case StateInitializing:
		return "initializing"
	case StateReady:
		return "ready"
	default:
		return "uninitialized"
	}
}

// Tables maps logical entities to backend table names.
type Tables struct {
	Grants     string `json:"grants"`
	GrantsTest string `json:"grants_test"`
	Users      string `json:"users"`
	Profiles   string `json:"profiles"`
}

// BackendConfig holds the structured-data backend connection parameters.
type BackendConfig struct {
	URL         string `json:"url"`
	Key         string `json:"-"`
	AnonKey     string `json:"-"`
	Driver      string `json:"driver"`
	DatabaseURL string `json:"-"`
	Tables      Tables `json:"tables"`
}

// AutomationConfig holds the automation platform parameters.
type AutomationConfig struct {
	BaseURL    string `json:"base_url"`
	WebhookURL string `json:"webhook_url"`
	APIKey     string `json:"-"`

	DefaultSources         []string `json:"default_sources"`
	DefaultGeographicScope string   `json:"default_geographic_scope"`
	DefaultMinAmount       float64  `json:"default_min_amount"`
	DefaultMaxAmount       float64  `json:"default_max_amount"`
	ExecutionsLimit        int      `json:"executions_limit"`
}

// automationDefaults are merged under the environment-sourced URL and key.
var automationDefaults = AutomationConfig{
	DefaultSources:         []string{"BOE", "EUROPA", "CDTI"},
	DefaultGeographicScope: "NACIONAL",
	DefaultMinAmount:       0,
	DefaultMaxAmount:       1000000,
	ExecutionsLimit:        10,
}

// Snapshot is an immutable copy of the resolved configuration.
type Snapshot struct {
	Environment Environment      `json:"environment"`
	Settings    Settings         `json:"settings"`
	Backend     BackendConfig    `json:"backend"`
	Automation  AutomationConfig `json:"automation"`
}

// Resolver owns the active environment and derives connection parameters
// from it. It is constructed once at startup and passed to every consumer.
type Resolver struct {
	cfg    *Config
	logger zerolog.Logger

	mu       sync.RWMutex
	state    State
	done     chan struct{}
	env      Environment
	bundles  Bundles
	settings Settings
	watchers []func(Environment, Settings)
}

// NewResolver returns an uninitialized resolver over cfg.
func NewResolver(cfg *Config, logger zerolog.Logger) *Resolver {
	return &Resolver{
		cfg:    cfg,
		logger: logger.With().Str("component", "config").Logger(),
		env:    cfg.Environment,
	}
}

// Initialize resolves bundles and applies the one for the configured
// environment. It runs at most once; callers arriving while it runs wait for
// it. Resolution never fails: a broken bundles file falls back to the
// embedded defaults. The only error is ctx expiring while waiting.
func (r *Resolver) Initialize(ctx context.Context) error {
	r.mu.Lock()
	switch r.state {
	case StateReady:
		r.mu.Unlock()
		return nil
	case StateInitializing:
		done := r.done
		r.mu.Unlock()
		select {
		case <-done:
			return nil
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	r.state = StateInitializing
	r.done = make(chan struct{})
	r.mu.Unlock()

	bundles, err := LoadBundles(r.cfg.BundlesFile)
	if err != nil {
		r.logger.Warn().Err(err).Str("file", r.cfg.BundlesFile).Msg("using embedded environment bundles")
	}

	r.mu.Lock()
	r.bundles = bundles
	r.applyBundleLocked()
	r.state = StateReady
	close(r.done)
	env, settings, watchers := r.env, r.settings, r.watchers
	r.mu.Unlock()

	notify(watchers, env, settings)

	r.logger.Info().
		Str("environment", string(env)).
		Bool("debug", settings.Debug).
		Msg("configuration initialized")
	return nil
}

// OnApply registers fn to receive every bundle the resolver applies: once when
// Initialize completes and again after each SwitchEnvironment. On a Ready
// resolver fn is called right away with the current bundle.
func (r *Resolver) OnApply(fn func(Environment, Settings)) {
	r.mu.Lock()
	r.watchers = append(r.watchers, fn)
	ready := r.state == StateReady
	env, settings := r.env, r.settings
	r.mu.Unlock()

	if ready {
		fn(env, settings)
	}
}

func notify(watchers []func(Environment, Settings), env Environment, settings Settings) {
	for _, fn := range watchers {
		fn(env, settings)
	}
}

// State returns the lifecycle state.
func (r *Resolver) State() State {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.state
}

// Ready reports whether Initialize has completed.
func (r *Resolver) Ready() bool {
	return r.State() == StateReady
}

func (r *Resolver) applyBundleLocked() {
	r.settings = r.cfg.effective(r.bundles[r.env])
}

// Environment returns the active environment.
func (r *Resolver) Environment() Environment {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.env
}

func (r *Resolver) IsTestEnvironment() bool        { return r.Environment() == Test }
func (r *Resolver) IsDevelopmentEnvironment() bool { return r.Environment() == Development }
func (r *Resolver) IsProductionEnvironment() bool  { return r.Environment() == Production }

// Settings returns the effective bundle for the active environment.
func (r *Resolver) Settings() Settings {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.settings
}

// BackendConfig returns the backend parameters. The grants table follows the
// environment: the test table in the test environment, the production table
// otherwise.
func (r *Resolver) BackendConfig() BackendConfig {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.backendConfigLocked()
}

func (r *Resolver) backendConfigLocked() BackendConfig {
	tables := Tables{
		Grants:     r.cfg.GrantsTable,
		GrantsTest: r.cfg.GrantsTestTable,
		Users:      "users",
		Profiles:   "profiles",
	}
	if r.env == Test {
		tables.Grants = r.cfg.GrantsTestTable
	}
	return BackendConfig{
		URL:         r.cfg.SupabaseURL,
		Key:         r.cfg.SupabaseAnonKey,
		AnonKey:     r.cfg.SupabaseAnonKey,
		Driver:      r.cfg.BackendDriver,
		DatabaseURL: r.cfg.DatabaseURL,
		Tables:      tables,
	}
}

// AutomationConfig returns the static automation defaults merged with the
// environment-sourced URLs and key.
func (r *Resolver) AutomationConfig() AutomationConfig {
	ac := automationDefaults
	ac.DefaultSources = append([]string(nil), automationDefaults.DefaultSources...)
	ac.BaseURL = r.cfg.N8NBaseURL
	ac.WebhookURL = r.cfg.N8NWebhookURL
	ac.APIKey = r.cfg.N8NAPIKey
	return ac
}

// Snapshot returns a consistent copy of every derived view.
func (r *Resolver) Snapshot() Snapshot {
	r.mu.RLock()
	s := Snapshot{
		Environment: r.env,
		Settings:    r.settings,
		Backend:     r.backendConfigLocked(),
	}
	r.mu.RUnlock()
	s.Automation = r.AutomationConfig()
	return s
}

// SwitchEnvironment makes env active and re-applies its bundle. An
// unrecognized env is logged and returned as an error; state is unchanged.
func (r *Resolver) SwitchEnvironment(env Environment) error {
	if !env.Valid() {
		err := fmt.Errorf("switch environment: invalid environment %q", env)
		r.logger.Error().Str("environment", string(env)).Msg("invalid environment, keeping current")
		return err
	}

	r.mu.Lock()
	prev := r.env
	r.env = env
	ready := r.state == StateReady
	if ready {
		r.applyBundleLocked()
	}
	settings, watchers := r.settings, r.watchers
	r.mu.Unlock()

	if ready {
		notify(watchers, env, settings)
	}

	r.logger.Info().
		Str("from", string(prev)).
		Str("to", string(env)).
		Msg("environment switched")
	return nil
}
