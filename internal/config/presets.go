package config

import (
	"fmt"
	"strings"

	"villagenird/internal/indicator"
)

const (
	DifficultyDefault = "default"
	DifficultyCasual  = "casual"
	DifficultyHard    = "hard"
)

// Preset holds the starting balance of a run.
type Preset struct {
	Initial  indicator.Indicators  `json:"initial"`
	Score    indicator.ScoreParams `json:"score"`
	MaxYears int                   `json:"max_years"`
}

// DefaultPreset returns the default balance configuration
func DefaultPreset() Preset {
	return Preset{
		Initial:  indicator.Default(),
		Score:    indicator.DefaultScoreParams(),
		MaxYears: 5,
	}
}

// CasualPreset starts the school less locked in and gives an extra year.
func CasualPreset() Preset {
	p := DefaultPreset()
	p.Initial.BigTechDependence = 60
	p.Initial.Inclusion = 55
	p.MaxYears = 6
	return p
}

// HardPreset starts deep in proprietary lock-in with a tighter calendar.
func HardPreset() Preset {
	p := DefaultPreset()
	p.Initial = indicator.Indicators{
		Inclusion:         45,
		Responsibility:    40,
		Sustainability:    45,
		BigTechDependence: 85,
	}
	p.Score.Offset = 25
	p.MaxYears = 4
	return p
}

func PresetFor(name string) (Preset, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", DifficultyDefault:
		return DefaultPreset(), nil
	case DifficultyCasual:
		return CasualPreset(), nil
	case DifficultyHard:
		return HardPreset(), nil
	}
	return Preset{}, fmt.Errorf("unknown difficulty %q", name)
}
