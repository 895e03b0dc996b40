package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"villagenird/internal/indicator"
	"villagenird/internal/rules"
	"villagenird/internal/simulation"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Version    string           `yaml:"version" json:"version"`
	Server     ServerConfig     `yaml:"server" json:"server"`
	Simulation SimulationConfig `yaml:"simulation" json:"simulation"`
	Log        LogConfig        `yaml:"log" json:"log"`
}

type ServerConfig struct {
	Addr           string   `yaml:"addr" json:"addr"`
	DataDir        string   `yaml:"data_dir" json:"data_dir"`
	AllowedOrigins []string `yaml:"allowed_origins" json:"allowed_origins"`
}

type SimulationConfig struct {
	Difficulty string                 `yaml:"difficulty" json:"difficulty"`
	Initial    *indicator.Indicators  `yaml:"initial" json:"initial,omitempty"`
	Score      *indicator.ScoreParams `yaml:"score" json:"score,omitempty"`
	MaxYears   int                    `yaml:"max_years" json:"max_years"`
	RulesFile  string                 `yaml:"rules_file" json:"rules_file,omitempty"`
}

type LogConfig struct {
	Level  string `yaml:"level" json:"level"`
	Format string `yaml:"format" json:"format"`
}

func (s *ServerConfig) ApplyDefaults() {
	if strings.TrimSpace(s.Addr) == "" {
		s.Addr = ":42069"
	}
	if strings.TrimSpace(s.DataDir) == "" {
		s.DataDir = "data"
	}
}

// ApplyDefaults fills unset simulation values from the difficulty preset.
// An unknown difficulty is left for Validate to report.
func (s *SimulationConfig) ApplyDefaults() {
	if strings.TrimSpace(s.Difficulty) == "" {
		s.Difficulty = DifficultyDefault
	}
	p, err := PresetFor(s.Difficulty)
	if err != nil {
		return
	}
	if s.Initial == nil {
		in := p.Initial
		s.Initial = &in
	}
	if s.Score == nil {
		sc := p.Score
		s.Score = &sc
	}
	if s.MaxYears == 0 {
		s.MaxYears = p.MaxYears
	}
}

func (l *LogConfig) ApplyDefaults() {
	if l.Level == "" {
		l.Level = "info"
	}
	if l.Format == "" {
		l.Format = "text"
	}
}

func (c *Config) ApplyDefaults() {
	c.Server.ApplyDefaults()
	c.Simulation.ApplyDefaults()
	c.Log.ApplyDefaults()
}

func (c *Config) Validate() error {
	if _, err := PresetFor(c.Simulation.Difficulty); err != nil {
		return err
	}
	if in := c.Simulation.Initial; in != nil && !in.Valid() {
		return fmt.Errorf("simulation.initial out of range [%d,%d]: %+v", indicator.Min, indicator.Max, *in)
	}
	if sc := c.Simulation.Score; sc != nil && sc.BigTechWeight < 0 {
		return fmt.Errorf("simulation.score.big_tech_weight must be >= 0, got %v", sc.BigTechWeight)
	}
	if c.Simulation.MaxYears < 0 {
		return fmt.Errorf("simulation.max_years must be >= 0, got %d", c.Simulation.MaxYears)
	}
	switch c.Log.Format {
	case "", "text", "json":
	default:
		return fmt.Errorf("log.format must be text or json, got %q", c.Log.Format)
	}
	return nil
}

// Default returns a fully defaulted configuration.
func Default() *Config {
	c := &Config{Version: "1"}
	c.ApplyDefaults()
	return c
}

func Parse(b []byte) (*Config, error) {
	var c Config
	if err := yaml.Unmarshal(b, &c); err != nil {
		return nil, err
	}
	c.ApplyDefaults()
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return &c, nil
}

func Load(path string) (*Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return Parse(b)
}

// LoadOrDefault behaves like Load but returns Default when path does not exist.
func LoadOrDefault(path string) (*Config, error) {
	c, err := Load(path)
	if errors.Is(err, os.ErrNotExist) {
		return Default(), nil
	}
	return c, err
}

// Rules resolves the rule table: the configured file, or the built-in table.
func (c *Config) Rules() (rules.Table, error) {
	if strings.TrimSpace(c.Simulation.RulesFile) == "" {
		return rules.Default(), nil
	}
	return rules.Load(c.Simulation.RulesFile)
}

func (c *Config) SessionOptions(table rules.Table) simulation.Options {
	return simulation.Options{
		Table:    table,
		Initial:  c.Simulation.Initial,
		Score:    c.Simulation.Score,
		MaxYears: c.Simulation.MaxYears,
	}
}
