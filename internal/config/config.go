package config

import (
	"fmt"
	"net/url"
	"os"

	"gopkg.in/yaml.v3"
)

// Config is the top-level riskscorer configuration.
type Config struct {
	Version   string          `yaml:"version"`
	Server    ServerConfig    `yaml:"server"`
	Dashboard DashboardConfig `yaml:"dashboard"`
	Bridge    BridgeConfig    `yaml:"bridge"`
	Telemetry TelemetryConfig `yaml:"telemetry"`
	Report    ReportConfig    `yaml:"report"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Port     int    `yaml:"port"`
	Bind     string `yaml:"bind"` // Address to bind (default: 127.0.0.1)
	LogLevel string `yaml:"log_level"`
}

// DashboardConfig controls the dashboard's initial view state and data source.
type DashboardConfig struct {
	DefaultRole    string `yaml:"default_role"`
	DefaultTab     string `yaml:"default_tab"`
	LoadDelayMs    int    `yaml:"load_delay_ms"`
	RefreshDelayMs int    `yaml:"refresh_delay_ms"`
	Dataset        string `yaml:"dataset,omitempty"` // YAML file replacing the built-in mock data
	WatchDataset   bool   `yaml:"watch_dataset,omitempty"`
}

// BridgeConfig configures the Cathedral message channel.
type BridgeConfig struct {
	Enabled         bool   `yaml:"enabled"`
	URL             string `yaml:"url"`
	UserID          string `yaml:"user_id,omitempty"` // generated per process when empty
	ConsentLevel    string `yaml:"consent_level"`
	Glyph           string `yaml:"glyph"`
	ReconnectBaseMs int    `yaml:"reconnect_base_ms"`
	ReconnectCapMs  int    `yaml:"reconnect_cap_ms"`
	ScreenQueries   bool   `yaml:"screen_queries,omitempty"`
	ScreenRulesDir  string `yaml:"screen_rules_dir,omitempty"` // extra Aguara rules for screening
}

// ReportConfig is the letterhead printed on compliance reports.
type ReportConfig struct {
	Organization      string `yaml:"organization"`
	SecurityContact   string `yaml:"security_contact"`
	ComplianceOfficer string `yaml:"compliance_officer"`
}

// TelemetryConfig toggles metrics and tracing.
type TelemetryConfig struct {
	Metrics     bool `yaml:"metrics"`
	TraceStdout bool `yaml:"trace_stdout,omitempty"`
}

var (
	validRoles = map[string]bool{"executive": true, "securityAnalyst": true, "complianceOfficer": true}
	validTabs  = map[string]bool{
		"overview": true, "violations": true, "compliance": true,
		"cathedral": true, "settings": true, "integrations": true,
	}
)

// Load reads and parses a riskscorer config file.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}

	cfg := Defaults()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}

	// Apply zero-value defaults after unmarshal
	if cfg.Bridge.ReconnectBaseMs == 0 {
		cfg.Bridge.ReconnectBaseMs = 1000
	}
	if cfg.Bridge.ReconnectCapMs == 0 {
		cfg.Bridge.ReconnectCapMs = 10000
	}

	return cfg, nil
}

// Defaults returns a config with sensible defaults.
func Defaults() *Config {
	return &Config{
		Version: "1",
		Server: ServerConfig{
			Port:     8080,
			LogLevel: "info",
		},
		Dashboard: DashboardConfig{
			DefaultRole:    "securityAnalyst",
			DefaultTab:     "overview",
			LoadDelayMs:    1200,
			RefreshDelayMs: 800,
		},
		Bridge: BridgeConfig{
			Enabled:         true,
			URL:             "ws://localhost:1375/quantum-bridge",
			ConsentLevel:    "universal",
			Glyph:           "OM-SOLIS",
			ReconnectBaseMs: 1000,
			ReconnectCapMs:  10000,
		},
		Telemetry: TelemetryConfig{
			Metrics: true,
		},
		Report: ReportConfig{
			Organization:      "Acme Corporation",
			SecurityContact:   "security@acmecorp.com",
			ComplianceOfficer: "Jane Smith",
		},
	}
}

// Save writes the config to a YAML file at the given path.
func (c *Config) Save(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing config: %w", err)
	}
	return nil
}

// Validate checks that the config is consistent.
func (c *Config) Validate() error {
	if c.Server.Port < 0 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid port: %d", c.Server.Port)
	}
	switch c.Server.LogLevel {
	case "", "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("invalid log_level %q", c.Server.LogLevel)
	}
	if !validRoles[c.Dashboard.DefaultRole] {
		return fmt.Errorf("invalid default_role %q", c.Dashboard.DefaultRole)
	}
	if !validTabs[c.Dashboard.DefaultTab] {
		return fmt.Errorf("invalid default_tab %q", c.Dashboard.DefaultTab)
	}
	if c.Dashboard.LoadDelayMs < 0 || c.Dashboard.RefreshDelayMs < 0 {
		return fmt.Errorf("dashboard delays must not be negative")
	}
	if c.Dashboard.WatchDataset && c.Dashboard.Dataset == "" {
		return fmt.Errorf("watch_dataset requires dataset")
	}
	if c.Bridge.Enabled {
		u, err := url.Parse(c.Bridge.URL)
		if err != nil {
			return fmt.Errorf("invalid bridge url: %w", err)
		}
		if u.Scheme != "ws" && u.Scheme != "wss" {
			return fmt.Errorf("bridge url must use ws or wss, got %q", u.Scheme)
		}
	}
	if c.Bridge.ScreenRulesDir != "" && !c.Bridge.ScreenQueries {
		return fmt.Errorf("screen_rules_dir requires screen_queries")
	}
	if c.Bridge.ReconnectBaseMs <= 0 {
		return fmt.Errorf("reconnect_base_ms must be positive")
	}
	if c.Bridge.ReconnectCapMs < c.Bridge.ReconnectBaseMs {
		return fmt.Errorf("reconnect_cap_ms (%d) is below reconnect_base_ms (%d)",
			c.Bridge.ReconnectCapMs, c.Bridge.ReconnectBaseMs)
	}
	return nil
}
