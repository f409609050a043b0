package config

import (
	_ "embed"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

//go:embed bundles.yaml
var defaultBundlesYAML []byte

// Settings is the feature-flag bundle applied for an environment.
type Settings struct {
	Debug          bool   `yaml:"debug" json:"debug"`
	LogLevel       string `yaml:"log_level" json:"log_level"`
	DebugPanel     bool   `yaml:"debug_panel" json:"debug_panel"`
	RequestLogging bool   `yaml:"request_logging" json:"request_logging"`
}

// Bundles maps each environment to its settings.
type Bundles map[Environment]Settings

// ParseBundles decodes a bundles document. Unknown environments are rejected.
func ParseBundles(data []byte) (Bundles, error) {
	var b Bundles
	if err := yaml.Unmarshal(data, &b); err != nil {
		return nil, fmt.Errorf("parse bundles: %w", err)
	}
	for env := range b {
		if !env.Valid() {
			return nil, fmt.Errorf("parse bundles: unknown environment %q", env)
		}
	}
	return b, nil
}

// DefaultBundles returns the embedded bundles.
func DefaultBundles() Bundles {
	b, err := ParseBundles(defaultBundlesYAML)
	if err != nil {
		panic("embedded bundles.yaml: " + err.Error())
	}
	return b
}

// LoadBundles returns the embedded bundles overlaid with the environments
// defined in path. An empty path yields the embedded bundles.
func LoadBundles(path string) (Bundles, error) {
	bundles := DefaultBundles()
	if path == "" {
		return bundles, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return bundles, fmt.Errorf("read bundles file: %w", err)
	}
	override, err := ParseBundles(data)
	if err != nil {
		return bundles, err
	}
	for env, s := range override {
		bundles[env] = s
	}
	return bundles, nil
}

// effective applies explicitly configured values over the bundle.
func (c *Config) effective(bundle Settings) Settings {
	s := bundle
	if c.Debug != nil {
		s.Debug = *c.Debug
	}
	if c.LogLevel != "" {
		s.LogLevel = c.LogLevel
	}
	if s.LogLevel == "" {
		s.LogLevel = "info"
	}
	return s
}
