// Package config provides configuration loading from YAML files.
package config

import (
	"os"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/creasty/defaults"
	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"github.com/osa030/automix/internal/app/autodj"
)

// Config represents the application configuration.
type Config struct {
	Server ServerConfig `yaml:"server"`
	Admin  AdminConfig  `yaml:"admin"`
	AutoDJ AutoDJConfig `yaml:"autodj"`
	Host   HostConfig   `yaml:"host"`
}

// ServerConfig represents server configuration.
type ServerConfig struct {
	Addr  string      `yaml:"addr" default:":8080"`
	Hooks HooksConfig `yaml:"hooks"`
}

// HooksConfig represents lifecycle hooks configuration.
type HooksConfig struct {
	OnStarted []string `yaml:"on_started"`
	OnStopped []string `yaml:"on_stopped"`
}

// AdminConfig represents admin-related configuration.
type AdminConfig struct {
	Token string `yaml:"token" validate:"required"`
}

// AutoDJConfig represents the transition controller configuration.
type AutoDJConfig struct {
	ExitCue            int     `yaml:"exit_cue" default:"4" validate:"gte=1"`
	PreStartBeats      int     `yaml:"pre_start_beats" default:"8" validate:"oneof=1 2 4 8 16 32 64"`
	UseEQ              bool    `yaml:"use_eq" default:"true"`
	MaxBPMAdjustment   float64 `yaml:"max_bpm_adjustment" default:"12" validate:"gte=0,lte=100"`
	Transpose          bool    `yaml:"transpose" default:"true"`
	TransposeMax       float64 `yaml:"transpose_max" default:"1" validate:"gte=0,lte=12"`
	TransposeSkipsMax  int     `yaml:"transpose_skips_max" default:"3" validate:"gte=1"`
	BPMSync            bool    `yaml:"bpm_sync" default:"true"`
	BPMSyncFade        bool    `yaml:"bpm_sync_fade" default:"true"`
	FadeQuickEffect    bool    `yaml:"fade_quick_effect"`
	ReverseQuickEffect bool    `yaml:"reverse_quick_effect"`
	FadeRange          float64 `yaml:"fade_range" default:"0.5" validate:"gte=0,lte=1"`
	TickIntervalMs     int     `yaml:"tick_interval_ms" default:"250" validate:"gte=10"`
	RefineIntervalMs   int     `yaml:"refine_interval_ms" default:"1000" validate:"gtefield=TickIntervalMs"`
}

// HostConfig selects and configures the mixing host.
type HostConfig struct {
	Type     string         `yaml:"type" default:"simulator" validate:"required"`
	Settings map[string]any `yaml:"settings"`
}

// Load loads configuration from a YAML file.
// Environment variables take precedence over file values for sensitive fields.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(err, "failed to read config file")
	}
	return Parse(data)
}

// Parse parses configuration from YAML data.
func Parse(data []byte) (*Config, error) {
	var cfg Config

	// Defaults first so that explicit false values in the file survive.
	if err := defaults.Set(&cfg); err != nil {
		return nil, errors.Wrap(err, "failed to set defaults")
	}

	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, errors.Wrap(err, "failed to parse config file")
	}

	// Override with environment variables
	cfg.overrideFromEnv()

	// Validate configuration
	if err := cfg.Validate(); err != nil {
		return nil, errors.Wrap(err, "config validation failed")
	}

	return &cfg, nil
}

// overrideFromEnv overrides config values with environment variables.
func (c *Config) overrideFromEnv() {
	if v := os.Getenv("ADMIN_TOKEN"); v != "" {
		c.Admin.Token = v
	}
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	validate := validator.New()
	if err := validate.Struct(c); err != nil {
		return errors.Wrap(err, "struct validation failed")
	}
	return nil
}

// Controller returns the transition controller configuration.
func (c *AutoDJConfig) Controller() autodj.Config {
	return autodj.Config{
		PreStartBeats:      c.PreStartBeats,
		UseEQ:              c.UseEQ,
		MaxBPMAdjustment:   c.MaxBPMAdjustment,
		Transpose:          c.Transpose,
		TransposeMax:       c.TransposeMax,
		TransposeSkipsMax:  c.TransposeSkipsMax,
		BPMSync:            c.BPMSync,
		BPMSyncFade:        c.BPMSyncFade,
		FadeQuickEffect:    c.FadeQuickEffect,
		ReverseQuickEffect: c.ReverseQuickEffect,
		FadeRange:          c.FadeRange,
		TickInterval:       time.Duration(c.TickIntervalMs) * time.Millisecond,
		RefineInterval:     time.Duration(c.RefineIntervalMs) * time.Millisecond,
	}
}
