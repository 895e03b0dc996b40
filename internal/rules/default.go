package rules

import (
	d "villagenird/internal/decision"
	"villagenird/internal/indicator"
)

func delta(inclusion, responsibility, sustainability, bigTech int) indicator.Delta {
	var out indicator.Delta
	out[indicator.Inclusion] = inclusion
	out[indicator.Responsibility] = responsibility
	out[indicator.Sustainability] = sustainability
	out[indicator.BigTechDependence] = bigTech
	return out
}

func always(dl indicator.Delta) Effect { return Effect{Delta: dl} }

func when(a d.Axis, option string, dl indicator.Delta) Effect {
	return Effect{Delta: dl, When: &Condition{Axis: a, Option: option}}
}

// Default returns the built-in rule table. The "do nothing differently" option
// on every axis carries no inclusion change.
func Default() Table {
	return Table{
		d.AxisOSStrategy: {
			string(d.OSStatusQuo):        {always(delta(0, 0, -2, 5))},
			string(d.OSPartialMigration): {always(delta(2, 5, 4, -8))},
			string(d.OSMassMigration):    {always(delta(4, 10, 8, -18))},
		},
		d.AxisHardwarePolicy: {
			string(d.HardwareBuyNew):    {always(delta(0, 0, -8, 3))},
			string(d.HardwareRefurbish): {always(delta(5, 2, 12, -4))},
		},
		d.AxisCloudStrategy: {
			string(d.CloudProprietary): {always(delta(0, -6, 0, 6))},
			string(d.CloudSovereign): {
				always(delta(0, 12, 2, -10)),
				// sovereign tooling without accompanying training leaves users behind
				when(d.AxisTraining, string(d.TrainingNone), delta(-5, 0, 0, 0)),
			},
		},
		d.AxisTraining: {
			string(d.TrainingNone):    {},
			string(d.TrainingTeacher): {always(delta(6, 4, 0, -2))},
			string(d.TrainingClub):    {always(delta(8, 3, 3, -3))},
		},
	}
}
