package config

import (
	"fmt"
	"strings"

	"github.com/caarlos0/env/v11"
)

type envOverrides struct {
	Addr       string `env:"NIRD_ADDR"`
	DataDir    string `env:"NIRD_DATA_DIR"`
	Difficulty string `env:"NIRD_DIFFICULTY"`
	MaxYears   int    `env:"NIRD_MAX_YEARS"`
	RulesFile  string `env:"NIRD_RULES_FILE"`
	LogLevel   string `env:"NIRD_LOG_LEVEL"`
	LogFormat  string `env:"NIRD_LOG_FORMAT"`
}

// ApplyEnv overlays NIRD_* environment variables onto c. A difficulty
// override replaces the preset-derived simulation values.
func (c *Config) ApplyEnv() error {
	var o envOverrides
	if err := env.Parse(&o); err != nil {
		return fmt.Errorf("parse env: %w", err)
	}

	if o.Addr != "" {
		c.Server.Addr = o.Addr
	}
	if o.DataDir != "" {
		c.Server.DataDir = o.DataDir
	}
	if d := strings.TrimSpace(o.Difficulty); d != "" && d != c.Simulation.Difficulty {
		c.Simulation = SimulationConfig{
			Difficulty: d,
			RulesFile:  c.Simulation.RulesFile,
		}
	}
	if o.MaxYears > 0 {
		c.Simulation.MaxYears = o.MaxYears
	}
	if o.RulesFile != "" {
		c.Simulation.RulesFile = o.RulesFile
	}
	if o.LogLevel != "" {
		c.Log.Level = o.LogLevel
	}
	if o.LogFormat != "" {
		c.Log.Format = strings.ToLower(o.LogFormat)
	}

	c.ApplyDefaults()
	return c.Validate()
}
