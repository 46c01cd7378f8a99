// Package mixer provides a simulated two-deck mixing host.
package mixer

import (
	"github.com/cockroachdb/errors"
	"github.com/creasty/defaults"
	"github.com/go-playground/validator/v10"
	"github.com/mitchellh/mapstructure"
)

// TrackConfig describes one track of the simulated library.
type TrackConfig struct {
	Title           string    `yaml:"title" mapstructure:"title" validate:"required"`
	BPM             float64   `yaml:"bpm" mapstructure:"bpm" validate:"gt=0"`
	Key             float64   `yaml:"key" mapstructure:"key" validate:"gte=1,lte=24"`
	DurationSeconds float64   `yaml:"duration_seconds" mapstructure:"duration_seconds" validate:"gt=0"`
	SampleRate      float64   `yaml:"sample_rate" mapstructure:"sample_rate" default:"44100" validate:"gt=0"`
	Hotcues         []float64 `yaml:"hotcues" mapstructure:"hotcues" validate:"dive,gte=0"` // Hotcue positions in seconds, numbered from 1
}

// Settings configures the simulator.
type Settings struct {
	TransitionSeconds float64       `yaml:"transition_seconds" mapstructure:"transition_seconds" default:"8" validate:"gt=0"`
	Speed             float64       `yaml:"speed" mapstructure:"speed" default:"1" validate:"gt=0,lte=64"`
	Manual            bool          `yaml:"manual" mapstructure:"manual"`                     // Start with AutoDJ off
	NoEnableSignal    bool          `yaml:"no_enable_signal" mapstructure:"no_enable_signal"` // Hide the AutoDJ enable control
	Tracks            []TrackConfig `yaml:"tracks" mapstructure:"tracks" validate:"required,min=2,dive"`

	// ExitCue is the hotcue number reported as the exit cue. It comes from
	// the controller configuration rather than the host settings.
	ExitCue int `yaml:"-" mapstructure:"-" default:"4"`
}

// DecodeSettings decodes, defaults and validates simulator settings.
func DecodeSettings(settings map[string]any) (*Settings, error) {
	if len(settings) == 0 {
		return nil, errors.New("settings are required")
	}

	var s Settings
	if err := mapstructure.Decode(settings, &s); err != nil {
		return nil, errors.Wrap(err, "failed to decode settings")
	}
	if err := defaults.Set(&s); err != nil {
		return nil, errors.Wrap(err, "failed to set defaults")
	}
	if err := validator.New().Struct(s); err != nil {
		return nil, errors.Wrap(err, "validation failed")
	}
	return &s, nil
}
