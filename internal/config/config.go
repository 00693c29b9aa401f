package config

import "fmt"

const (
	// DefaultListenAddr is used when no explicit address is configured.
	DefaultListenAddr = "127.0.0.1:8090"
	DefaultLanguage   = "auto"
	DefaultLogLevel   = "info"
)

// Config captures bootstrap configuration for the daemon, merged from an
// optional YAML file and WHISPERD_* environment variables.
type Config struct {
	ListenAddr    string `yaml:"listen_addr"`
	ModelPath     string `yaml:"model_path"`
	Language      string `yaml:"language"`
	LogLevel      string `yaml:"log_level"`
	UseStubEngine bool   `yaml:"use_stub_engine"`

	Threads     *int     `yaml:"threads"`
	BeamSize    *int     `yaml:"beam_size"`
	Temperature *float64 `yaml:"temperature"`
}

// Validate applies defaults, checks required fields, and rejects
// out-of-range values.
func (c *Config) Validate() error {
	if c.ListenAddr == "" {
		return fmt.Errorf("config: listen address is required")
	}
	if c.ModelPath == "" && !c.UseStubEngine {
		return fmt.Errorf("config: model path is required unless the stub engine is enabled")
	}
	if c.Language == "" {
		c.Language = DefaultLanguage
	}
	if c.LogLevel == "" {
		c.LogLevel = DefaultLogLevel
	}
	if c.Threads != nil && *c.Threads < 0 {
		return fmt.Errorf("config: threads must be >= 0, got %d", *c.Threads)
	}
	if c.BeamSize != nil && *c.BeamSize < 1 {
		return fmt.Errorf("config: beam_size must be >= 1, got %d", *c.BeamSize)
	}
	if c.Temperature != nil && *c.Temperature < 0 {
		return fmt.Errorf("config: temperature must be >= 0, got %g", *c.Temperature)
	}
	return nil
}
