package simulation

import (
	"villagenird/internal/decision"
	"villagenird/internal/indicator"
	"villagenird/internal/rules"
)

// SimulateYear returns the raw, pre-clamp deltas one year of decisions would
// apply. The caller applies and clamps. Deltas depend on decisions alone, so
// current is not read; it stays in the signature to pair with ApplyDecisions.
func SimulateYear(table rules.Table, current indicator.Indicators, decisions decision.Decisions) (indicator.Delta, error) {
	if err := decisions.Validate(); err != nil {
		return indicator.Delta{}, err
	}
	return table.Deltas(decisions)
}

// ApplyDecisions returns clamp(current + deltas) for every field. current is
// passed by value and never modified.
func ApplyDecisions(table rules.Table, current indicator.Indicators, decisions decision.Decisions) (indicator.Indicators, error) {
	d, err := SimulateYear(table, current, decisions)
	if err != nil {
		return current, err
	}
	return current.Apply(d), nil
}
