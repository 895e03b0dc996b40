package rules

import (
	"errors"
	"fmt"
	"os"
	"sort"

	"villagenird/internal/decision"
	"villagenird/internal/indicator"

	"gopkg.in/yaml.v3"
)

var (
	// ErrMissingRule means a chosen option has no entry in the table.
	ErrMissingRule = errors.New("no rule for decision option")
	// ErrInvalidTable is returned by Validate for malformed tables.
	ErrInvalidTable = errors.New("invalid rule table")
)

// Condition restricts an Effect to records where Axis is set to Option.
type Condition struct {
	Axis   decision.Axis `json:"axis" yaml:"axis"`
	Option string        `json:"option" yaml:"option"`
}

func (c Condition) Holds(d decision.Decisions) bool {
	return d.Option(c.Axis) == c.Option
}

type Effect struct {
	Delta indicator.Delta `json:"delta" yaml:"delta"`
	When  *Condition      `json:"when,omitempty" yaml:"when,omitempty"`
}

// Table maps axis -> chosen option -> effects.
type Table map[decision.Axis]map[string][]Effect

// Validate checks that every option of every axis has an entry and that
// every condition names a known axis and option.
func (t Table) Validate() error {
	for a := range t {
		if decision.Options(a) == nil {
			return fmt.Errorf("%w: unknown axis %q", ErrInvalidTable, a)
		}
	}
	for _, a := range decision.Axes() {
		byOption := t[a]
		for opt := range byOption {
			if !decision.Known(a, opt) {
				return fmt.Errorf("%w: unknown option %s=%q", ErrInvalidTable, a, opt)
			}
		}
		for _, opt := range decision.Options(a) {
			effects, ok := byOption[opt]
			if !ok {
				return fmt.Errorf("%w: %w: %s=%q", ErrInvalidTable, ErrMissingRule, a, opt)
			}
			for i, e := range effects {
				if e.When == nil {
					continue
				}
				if !decision.Known(e.When.Axis, e.When.Option) {
					return fmt.Errorf("%w: %s=%q effect %d: condition %s=%q is not a known option",
						ErrInvalidTable, a, opt, i, e.When.Axis, e.When.Option)
				}
			}
		}
	}
	return nil
}

// Contributions returns each axis' share of the total delta for d.
func (t Table) Contributions(d decision.Decisions) (map[decision.Axis]indicator.Delta, error) {
	out := make(map[decision.Axis]indicator.Delta, 4)
	for _, a := range decision.Axes() {
		opt := d.Option(a)
		effects, ok := t[a][opt]
		if !ok {
			return nil, fmt.Errorf("%w: %s=%q", ErrMissingRule, a, opt)
		}
		var sum indicator.Delta
		for _, e := range effects {
			if e.When != nil && !e.When.Holds(d) {
				continue
			}
			sum = sum.Add(e.Delta)
		}
		out[a] = sum
	}
	return out, nil
}

// Deltas accumulates every applicable effect for d, pre-clamp.
func (t Table) Deltas(d decision.Decisions) (indicator.Delta, error) {
	parts, err := t.Contributions(d)
	if err != nil {
		return indicator.Delta{}, err
	}
	var total indicator.Delta
	for _, a := range decision.Axes() {
		total = total.Add(parts[a])
	}
	return total, nil
}

// Options returns the table's options for an axis, sorted.
func (t Table) Options(a decision.Axis) []string {
	out := make([]string, 0, len(t[a]))
	for opt := range t[a] {
		out = append(out, opt)
	}
	sort.Strings(out)
	return out
}

// Parse decodes and validates a YAML rule table.
func Parse(b []byte) (Table, error) {
	var t Table
	if err := yaml.Unmarshal(b, &t); err != nil {
		return nil, fmt.Errorf("decode rule table: %w", err)
	}
	if err := t.Validate(); err != nil {
		return nil, err
	}
	return t, nil
}

func Load(path string) (Table, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	t, err := Parse(b)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return t, nil
}
