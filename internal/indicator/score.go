package indicator

import "math"

// ScoreParams calibrates the composite score.
type ScoreParams struct {
	BigTechWeight float64 `json:"big_tech_weight" yaml:"big_tech_weight"`
	Offset        float64 `json:"offset" yaml:"offset"`
}

func DefaultScoreParams() ScoreParams {
	return ScoreParams{BigTechWeight: 0.3, Offset: 30}
}

// Score computes the 0-100 alignment figure:
//
//	clamp((inclusion+responsibility+sustainability)/3 - bigTech*weight + offset, 0, 100)
//
// rounded to the nearest integer.
func Score(in Indicators, p ScoreParams) int {
	base := float64(in.Inclusion+in.Responsibility+in.Sustainability) / 3
	penalty := float64(in.BigTechDependence) * p.BigTechWeight
	raw := base - penalty + p.Offset
	return Clamp(int(math.Round(raw)))
}
