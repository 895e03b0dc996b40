package telemetry

import (
	"encoding/json"
	"time"
)

type Stats struct {
	Period          string                    `json:"period"`
	EventCounts     map[EventType]int         `json:"event_counts"`
	SessionsCreated int                       `json:"sessions_created"`
	YearsSimulated  int                       `json:"years_simulated"`
	Resets          int                       `json:"resets"`
	AverageScore    float64                   `json:"average_score"`
	BestScore       int                       `json:"best_score"`
	OptionPicks     map[string]map[string]int `json:"option_picks"`
	YearsPerSession float64                   `json:"years_per_session"`
}

// CalculateStats computes usage stats from events
func CalculateStats(events []Event, since time.Time) (Stats, error) {
	stats := Stats{
		Period:      since.Format("2006-01-02"),
		EventCounts: make(map[EventType]int),
		OptionPicks: make(map[string]map[string]int),
	}

	scoreSum := 0
	for _, event := range events {
		stats.EventCounts[event.Type]++

		var metadata EventMetadata
		if err := json.Unmarshal([]byte(event.Metadata), &metadata); err != nil {
			continue
		}

		switch event.Type {
		case EventSessionCreated:
			stats.SessionsCreated++
		case EventSessionReset:
			stats.Resets++
		case EventYearSimulated:
			stats.YearsSimulated++
			// encoding/json decodes numbers as float64
			if score, ok := metadata["score"].(float64); ok {
				s := int(score)
				scoreSum += s
				if s > stats.BestScore {
					stats.BestScore = s
				}
			}
			if picks, ok := metadata["decisions"].(map[string]interface{}); ok {
				for axis, v := range picks {
					opt, ok := v.(string)
					if !ok {
						continue
					}
					if stats.OptionPicks[axis] == nil {
						stats.OptionPicks[axis] = map[string]int{}
					}
					stats.OptionPicks[axis][opt]++
				}
			}
		}
	}

	if stats.YearsSimulated > 0 {
		stats.AverageScore = float64(scoreSum) / float64(stats.YearsSimulated)
	}
	if stats.SessionsCreated > 0 {
		stats.YearsPerSession = float64(stats.YearsSimulated) / float64(stats.SessionsCreated)
	}

	return stats, nil
}
