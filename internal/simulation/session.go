package simulation

import (
	"errors"
	"fmt"

	"villagenird/internal/decision"
	"villagenird/internal/indicator"
	"villagenird/internal/rules"
)

var (
	ErrInvalidPhase    = errors.New("invalid phase")
	ErrPhaseRegression = errors.New("phase transitions only move forward one step")
	ErrNotSimulating   = errors.New("session is not in the simulation phase")
	ErrFinished        = errors.New("simulation has no years left")
)

// Options configure a Session. Zero values fall back to the defaults.
type Options struct {
	Table    rules.Table
	Initial  *indicator.Indicators
	Score    *indicator.ScoreParams
	MaxYears int
}

// YearRecord is one applied step.
type YearRecord struct {
	Year      int                  `json:"year"`
	Decisions decision.Decisions   `json:"decisions"`
	Delta     indicator.Delta      `json:"delta"`
	Before    indicator.Indicators `json:"before"`
	After     indicator.Indicators `json:"after"`
	Score     int                  `json:"score"`
}

// YearResult is returned by Advance.
type YearResult struct {
	YearRecord
	NextYear int  `json:"nextYear"`
	Finished bool `json:"finished"`
}

// Snapshot is the serialisable session state.
type Snapshot struct {
	Phase      Phase                `json:"phase"`
	Year       int                  `json:"year"`
	Indicators indicator.Indicators `json:"indicators"`
	Score      int                  `json:"scoreNIRD"`
	MaxYears   int                  `json:"maxYears"`
	Finished   bool                 `json:"finished"`
	History    []YearRecord         `json:"history"`
}

// Session is one simulation run. It is not safe for concurrent use; callers
// serialise access.
type Session struct {
	table    rules.Table
	initial  indicator.Indicators
	params   indicator.ScoreParams
	maxYears int

	phase      Phase
	year       int
	indicators indicator.Indicators
	score      int
	history    []YearRecord
}

func NewSession(opts Options) (*Session, error) {
	table := opts.Table
	if table == nil {
		table = rules.Default()
	}
	if err := table.Validate(); err != nil {
		return nil, err
	}
	initial := indicator.Default()
	if opts.Initial != nil {
		initial = opts.Initial.Clamped()
	}
	params := indicator.DefaultScoreParams()
	if opts.Score != nil {
		params = *opts.Score
	}
	if opts.MaxYears < 0 {
		return nil, fmt.Errorf("max years must be >= 0, got %d", opts.MaxYears)
	}

	s := &Session{
		table:    table,
		initial:  initial,
		params:   params,
		maxYears: opts.MaxYears,
	}
	s.Reset()
	return s, nil
}

func (s *Session) Phase() Phase                     { return s.phase }
func (s *Session) Year() int                        { return s.year }
func (s *Session) Indicators() indicator.Indicators { return s.indicators }
func (s *Session) Score() int                       { return s.score }
func (s *Session) MaxYears() int                    { return s.maxYears }
func (s *Session) Table() rules.Table               { return s.table }

func (s *Session) History() []YearRecord {
	return append([]YearRecord(nil), s.history...)
}

func (s *Session) Finished() bool {
	return s.maxYears > 0 && s.year > s.maxYears
}

func (s *Session) Snapshot() Snapshot {
	return Snapshot{
		Phase:      s.phase,
		Year:       s.year,
		Indicators: s.indicators,
		Score:      s.score,
		MaxYears:   s.maxYears,
		Finished:   s.Finished(),
		History:    s.History(),
	}
}

func (s *Session) setIndicators(in indicator.Indicators) {
	s.indicators = in.Clamped()
	s.score = indicator.Score(s.indicators, s.params)
}

// SetPhase accepts the current phase or the one immediately after it.
func (s *Session) SetPhase(p Phase) error {
	if !p.Valid() {
		return fmt.Errorf("%w: %q", ErrInvalidPhase, p)
	}
	if p == s.phase {
		return nil
	}
	if p != s.phase.Next() {
		return fmt.Errorf("%w: %s -> %s", ErrPhaseRegression, s.phase, p)
	}
	s.phase = p
	return nil
}

// NextPhase advances one phase. It is a no-op at the terminal phase.
func (s *Session) NextPhase() {
	s.phase = s.phase.Next()
}

// StartSimulation jumps to the terminal phase and opens year 1.
func (s *Session) StartSimulation() {
	s.phase = TerminalPhase()
	s.year = 1
}

func (s *Session) UpdateIndicators(p indicator.Patch) {
	s.setIndicators(s.indicators.Patch(p))
}

func (s *Session) IncrementYear() {
	s.year++
}

// Preview evaluates decisions against the current state without mutating it.
func (s *Session) Preview(d decision.Decisions) (YearRecord, map[decision.Axis]indicator.Delta, error) {
	if err := d.Validate(); err != nil {
		return YearRecord{}, nil, err
	}
	parts, err := s.table.Contributions(d)
	if err != nil {
		return YearRecord{}, nil, err
	}
	total, err := s.table.Deltas(d)
	if err != nil {
		return YearRecord{}, nil, err
	}
	after := s.indicators.Apply(total)
	return YearRecord{
		Year:      s.year,
		Decisions: d,
		Delta:     total,
		Before:    s.indicators,
		After:     after,
		Score:     indicator.Score(after, s.params),
	}, parts, nil
}

// Advance applies one year of decisions. On error nothing is mutated.
func (s *Session) Advance(d decision.Decisions) (YearResult, error) {
	if s.phase != PhaseSimulation {
		return YearResult{}, fmt.Errorf("%w: phase is %s", ErrNotSimulating, s.phase)
	}
	if s.Finished() {
		return YearResult{}, fmt.Errorf("%w: year %d of %d", ErrFinished, s.year, s.maxYears)
	}
	before := s.indicators
	raw, err := SimulateYear(s.table, before, d)
	if err != nil {
		return YearResult{}, err
	}

	s.setIndicators(before.Apply(raw))
	rec := YearRecord{
		Year:      s.year,
		Decisions: d,
		Delta:     raw,
		Before:    before,
		After:     s.indicators,
		Score:     s.score,
	}
	s.history = append(s.history, rec)
	s.year++

	return YearResult{YearRecord: rec, NextYear: s.year, Finished: s.Finished()}, nil
}

// Reset discards all progress. Valid from any state.
func (s *Session) Reset() {
	s.phase = InitialPhase()
	s.year = 0
	s.history = nil
	s.setIndicators(s.initial)
}

// Restore replaces the session state with a persisted snapshot.
func (s *Session) Restore(snap Snapshot) error {
	if !snap.Phase.Valid() {
		return fmt.Errorf("%w: %q", ErrInvalidPhase, snap.Phase)
	}
	if snap.Year < 0 {
		return fmt.Errorf("restore: negative year %d", snap.Year)
	}
	for i, rec := range snap.History {
		if err := rec.Decisions.Validate(); err != nil {
			return fmt.Errorf("restore: history[%d]: %w", i, err)
		}
	}
	s.phase = snap.Phase
	s.year = snap.Year
	s.history = append([]YearRecord(nil), snap.History...)
	s.setIndicators(snap.Indicators)
	return nil
}
