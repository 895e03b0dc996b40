package indicator

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestScore_DefaultStartingConfiguration(t *testing.T) {
	// (50+50+50)/3 - 70*0.3 + 30 = 59
	assert.Equal(t, 59, Score(Default(), DefaultScoreParams()))
}

func TestScore_Clamped(t *testing.T) {
	p := DefaultScoreParams()
	assert.Equal(t, 100, Score(Indicators{Inclusion: 100, Responsibility: 100, Sustainability: 100}, p))
	assert.Equal(t, 0, Score(Indicators{BigTechDependence: 100}, ScoreParams{BigTechWeight: 0.3, Offset: 0}))
}

func TestScore_RewardsLowDependence(t *testing.T) {
	p := DefaultScoreParams()
	high := Score(Indicators{Inclusion: 40, Responsibility: 40, Sustainability: 40, BigTechDependence: 90}, p)
	low := Score(Indicators{Inclusion: 40, Responsibility: 40, Sustainability: 40, BigTechDependence: 10}, p)
	assert.Greater(t, low, high)
}

func TestScore_OffsetIsConfiguration(t *testing.T) {
	in := Default()
	assert.Equal(t, 49, Score(in, ScoreParams{BigTechWeight: 0.3, Offset: 20}))
}
