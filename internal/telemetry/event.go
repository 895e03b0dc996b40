package telemetry

import "time"

type EventType string

const (
	EventSessionCreated    EventType = "session_created"
	EventSessionDeleted    EventType = "session_deleted"
	EventPhaseAdvanced     EventType = "phase_advanced"
	EventSimulationStarted EventType = "simulation_started"
	EventYearSimulated     EventType = "year_simulated"
	EventIndicatorsUpdated EventType = "indicators_updated"
	EventYearIncremented   EventType = "year_incremented"
	EventSessionReset      EventType = "session_reset"
)

type Event struct {
	ID        int       `json:"id"`
	Type      EventType `json:"type"`
	SessionID string    `json:"session_id,omitempty"`
	Timestamp time.Time `json:"timestamp"`
	Metadata  string    `json:"metadata"`
}

type EventMetadata map[string]interface{}
