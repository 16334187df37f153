package logger

import (
	"fmt"
	"slices"
	"strings"
)

// Accepted config values.
var (
	Levels  = []string{"trace", "debug", "info", "warn", "error", "fatal"}
	Formats = []string{"json", "console", "pretty"}
	Outputs = []string{"stdout", "stderr"}
)

// Config is the logging section.
type Config struct {
	ServiceName string `yaml:"service_name" mapstructure:"service_name"`
	Level       string `yaml:"level" mapstructure:"level"`
	Format      string `yaml:"format" mapstructure:"format"`
	Output      string `yaml:"output" mapstructure:"output"`
	NoColor     bool   `yaml:"no_color" mapstructure:"no_color"`
	Timestamp   bool   `yaml:"timestamp" mapstructure:"timestamp"`
	Caller      bool   `yaml:"caller" mapstructure:"caller"`
}

// ApplyDefaults selects info level console output on stdout, timestamped.
func (c *Config) ApplyDefaults() {
	c.Level = strings.ToLower(c.Level)
	c.Format = strings.ToLower(c.Format)
	if c.Level == "" {
		c.Level = "info"
	}
	if c.Format == "" {
		c.Format = "console"
	}
	if c.Output == "" {
		c.Output = "stdout"
	}
	c.Timestamp = true
}

// Validate rejects unknown levels, formats and outputs.
func (c *Config) Validate() error {
	if !slices.Contains(Levels, c.Level) {
		return fmt.Errorf("logging.level must be one of %v (got: %s)", Levels, c.Level)
	}
	if !slices.Contains(Formats, c.Format) {
		return fmt.Errorf("logging.format must be one of %v (got: %s)", Formats, c.Format)
	}
	if !slices.Contains(Outputs, c.Output) {
		return fmt.Errorf("logging.output must be one of %v (got: %s)", Outputs, c.Output)
	}
	return nil
}

// Console reports whether output is human-readable rather than JSON.
func (c *Config) Console() bool {
	f := strings.ToLower(c.Format)
	return f == "console" || f == "pretty"
}
