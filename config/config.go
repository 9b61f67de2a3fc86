package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"

	"gopkg.in/yaml.v3"
)

// ErrUnknownSinkDriver is returned when the configured sink driver is not one
// of the supported values.
var ErrUnknownSinkDriver = errors.New("config: unknown sink driver")

// Config describes everything AgentBridge needs at startup.
type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Backends BackendsConfig `yaml:"backends"`
	Sink     SinkConfig     `yaml:"sink"`
	Logging  LoggingConfig  `yaml:"logging"`
}

// ServerConfig controls the HTTP surface.
type ServerConfig struct {
	Address string `yaml:"address"`
}

// BackendsConfig holds the per-backend availability flags.
type BackendsConfig struct {
	Group GroupConfig `yaml:"group"`
	Graph GraphConfig `yaml:"graph"`
}

// GroupConfig configures the group backend.
type GroupConfig struct {
	Enabled *bool `yaml:"enabled"`
}

// GraphConfig configures the graph backend.
type GraphConfig struct {
	Enabled  *bool `yaml:"enabled"`
	MaxSteps int   `yaml:"max_steps"`
}

// SinkConfig selects the event sink implementation. Driver is one of
// "memory", "sqlite" or "amqp"; DSN carries the sqlite file path or the AMQP
// broker URL.
type SinkConfig struct {
	Driver string `yaml:"driver"`
	DSN    string `yaml:"dsn"`
	Queue  string `yaml:"queue"`
}

// LoggingConfig configures the structured logger.
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// Default returns a configuration with every default applied.
func Default() *Config {
	cfg := &Config{}
	cfg.applyDefaults()
	cfg.applyEnv()
	return cfg
}

// Load parses the YAML file at path, applies defaults and environment
// overrides.
func Load(path string) (*Config, error) {
	if path == "" {
		return nil, fmt.Errorf("config path is empty")
	}

	content, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(content, &cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	cfg.applyDefaults()
	cfg.applyEnv()

	return &cfg, nil
}

// GroupEnabled reports whether the group backend engine should be wired.
func (c *Config) GroupEnabled() bool { return c.Backends.Group.Enabled == nil || *c.Backends.Group.Enabled }

// GraphEnabled reports whether the graph backend engine should be wired.
func (c *Config) GraphEnabled() bool { return c.Backends.Graph.Enabled == nil || *c.Backends.Graph.Enabled }

// applyDefaults sets sensible values for fields the user left empty.
func (c *Config) applyDefaults() {
	if c.Server.Address == "" {
		c.Server.Address = ":8080"
	}
	if c.Backends.Graph.MaxSteps <= 0 {
		c.Backends.Graph.MaxSteps = 100
	}
	if c.Sink.Driver == "" {
		c.Sink.Driver = "memory"
	}
	if c.Logging.Level == "" {
		c.Logging.Level = "info"
	}
	if c.Logging.Format == "" {
		c.Logging.Format = "json"
	}
}

// applyEnv overrides configuration from AGENTBRIDGE_* environment variables.
// Backend availability is deliberately environment-driven so deployments can
// toggle engines without editing files.
func (c *Config) applyEnv() {
	if v := os.Getenv("AGENTBRIDGE_ADDR"); v != "" {
		c.Server.Address = v
	}
	if v, ok := envBool("AGENTBRIDGE_GROUP_ENABLED"); ok {
		c.Backends.Group.Enabled = &v
	}
	if v, ok := envBool("AGENTBRIDGE_GRAPH_ENABLED"); ok {
		c.Backends.Graph.Enabled = &v
	}
	if v := os.Getenv("AGENTBRIDGE_SINK_DRIVER"); v != "" {
		c.Sink.Driver = v
	}
	if v := os.Getenv("AGENTBRIDGE_SINK_DSN"); v != "" {
		c.Sink.DSN = v
	}
	if v := os.Getenv("AGENTBRIDGE_LOG_LEVEL"); v != "" {
		c.Logging.Level = v
	}
}

func envBool(key string) (bool, bool) {
	v := os.Getenv(key)
	if v == "" {
		return false, false
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return false, false
	}
	return b, true
}
