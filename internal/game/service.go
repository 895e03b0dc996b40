package game

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"villagenird/internal/decision"
	"villagenird/internal/indicator"
	"villagenird/internal/progress"
	"villagenird/internal/realtime"
	"villagenird/internal/rules"
	"villagenird/internal/simulation"
	"villagenird/internal/telemetry"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

var ErrSessionNotFound = errors.New("session not found")

// Deps wires a Service. Only Progress is required; Now defaults to the wall
// clock in UTC.
type Deps struct {
	Options    simulation.Options
	Difficulty string
	Progress   progress.Repository
	Events     telemetry.Repository
	Hub        *realtime.Hub
	Now        func() time.Time
	Logger     logrus.FieldLogger
}

// Service owns the live simulation sessions. Every write is persisted,
// recorded as a telemetry event and pushed to websocket subscribers.
type Service struct {
	mu       sync.Mutex
	sessions map[string]*entry

	opts       simulation.Options
	difficulty string
	progress   progress.Repository
	events     telemetry.Repository
	hub        *realtime.Hub
	now        func() time.Time
	log        logrus.FieldLogger
}

type entry struct {
	rec  progress.Record
	sess *simulation.Session
}

// Preview is a what-if evaluation that leaves the session untouched.
type Preview struct {
	simulation.YearRecord
	Contributions map[decision.Axis]indicator.Delta `json:"contributions"`
}

type AxisInfo struct {
	Axis    decision.Axis `json:"axis"`
	Options []string      `json:"options"`
}

// Catalogue describes what clients may send.
type Catalogue struct {
	Axes     []AxisInfo            `json:"axes"`
	Phases   []simulation.Phase    `json:"phases"`
	Initial  indicator.Indicators  `json:"initial"`
	Score    indicator.ScoreParams `json:"score"`
	MaxYears int                   `json:"maxYears"`
	Rules    rules.Table           `json:"rules"`
}

func NewService(d Deps) (*Service, error) {
	if d.Progress == nil {
		return nil, errors.New("progress repository is required")
	}
	if d.Options.Table == nil {
		d.Options.Table = rules.Default()
	}
	// Fail at startup rather than on the first session.
	if _, err := simulation.NewSession(d.Options); err != nil {
		return nil, fmt.Errorf("session options: %w", err)
	}
	if d.Events == nil {
		d.Events = telemetry.NewMemoryRepository()
	}
	if d.Hub == nil {
		d.Hub = realtime.NewHub()
	}
	if d.Now == nil {
		d.Now = func() time.Time { return time.Now().UTC() }
	}
	if d.Logger == nil {
		d.Logger = logrus.StandardLogger()
	}
	return &Service{
		sessions:   map[string]*entry{},
		opts:       d.Options,
		difficulty: d.Difficulty,
		progress:   d.Progress,
		events:     d.Events,
		hub:        d.Hub,
		now:        d.Now,
		log:        d.Logger,
	}, nil
}

func (s *Service) Hub() *realtime.Hub { return s.hub }

func (s *Service) Catalogue() Catalogue {
	sess, _ := simulation.NewSession(s.opts)
	c := Catalogue{
		Phases:   simulation.Phases(),
		Initial:  sess.Indicators(),
		MaxYears: sess.MaxYears(),
		Score:    indicator.DefaultScoreParams(),
		Rules:    s.opts.Table,
	}
	if s.opts.Score != nil {
		c.Score = *s.opts.Score
	}
	for _, a := range decision.Axes() {
		c.Axes = append(c.Axes, AxisInfo{Axis: a, Options: decision.Options(a)})
	}
	return c
}

// Create starts a fresh session in the intro phase.
func (s *Service) Create(ctx context.Context) (progress.Record, error) {
	sess, err := simulation.NewSession(s.opts)
	if err != nil {
		return progress.Record{}, err
	}
	now := s.now()
	e := &entry{
		rec: progress.Record{
			ID:         uuid.NewString(),
			Difficulty: s.difficulty,
			CreatedAt:  now,
			UpdatedAt:  now,
			Snapshot:   sess.Snapshot(),
		},
		sess: sess,
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.progress.Put(ctx, e.rec); err != nil {
		return progress.Record{}, fmt.Errorf("persist session: %w", err)
	}
	s.sessions[e.rec.ID] = e
	s.emit(e, telemetry.EventSessionCreated, telemetry.EventMetadata{"difficulty": s.difficulty})
	return e.rec.Clone(), nil
}

func (s *Service) Get(ctx context.Context, id string) (progress.Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, err := s.load(ctx, id)
	if err != nil {
		return progress.Record{}, err
	}
	return e.rec.Clone(), nil
}

// State is the current snapshot of a session.
func (s *Service) State(ctx context.Context, id string) (simulation.Snapshot, error) {
	rec, err := s.Get(ctx, id)
	if err != nil {
		return simulation.Snapshot{}, err
	}
	return rec.Snapshot, nil
}

func (s *Service) List(ctx context.Context) ([]progress.Record, error) {
	return s.progress.List(ctx)
}

func (s *Service) SetPhase(ctx context.Context, id string, p simulation.Phase) (progress.Record, error) {
	return s.mutate(ctx, id, func(sess *simulation.Session) (telemetry.EventType, telemetry.EventMetadata, error) {
		from := sess.Phase()
		if err := sess.SetPhase(p); err != nil {
			return "", nil, err
		}
		return telemetry.EventPhaseAdvanced, telemetry.EventMetadata{"from": string(from), "to": string(p)}, nil
	})
}

func (s *Service) NextPhase(ctx context.Context, id string) (progress.Record, error) {
	return s.mutate(ctx, id, func(sess *simulation.Session) (telemetry.EventType, telemetry.EventMetadata, error) {
		from := sess.Phase()
		sess.NextPhase()
		return telemetry.EventPhaseAdvanced, telemetry.EventMetadata{"from": string(from), "to": string(sess.Phase())}, nil
	})
}

func (s *Service) StartSimulation(ctx context.Context, id string) (progress.Record, error) {
	return s.mutate(ctx, id, func(sess *simulation.Session) (telemetry.EventType, telemetry.EventMetadata, error) {
		sess.StartSimulation()
		return telemetry.EventSimulationStarted, telemetry.EventMetadata{"max_years": sess.MaxYears()}, nil
	})
}

func (s *Service) UpdateIndicators(ctx context.Context, id string, p indicator.Patch) (progress.Record, error) {
	return s.mutate(ctx, id, func(sess *simulation.Session) (telemetry.EventType, telemetry.EventMetadata, error) {
		sess.UpdateIndicators(p)
		return telemetry.EventIndicatorsUpdated, telemetry.EventMetadata{"score": sess.Score()}, nil
	})
}

func (s *Service) IncrementYear(ctx context.Context, id string) (progress.Record, error) {
	return s.mutate(ctx, id, func(sess *simulation.Session) (telemetry.EventType, telemetry.EventMetadata, error) {
		sess.IncrementYear()
		return telemetry.EventYearIncremented, telemetry.EventMetadata{"year": sess.Year()}, nil
	})
}

// Advance simulates one year with the given decisions.
func (s *Service) Advance(ctx context.Context, id string, d decision.Decisions) (simulation.YearResult, progress.Record, error) {
	var res simulation.YearResult
	rec, err := s.mutate(ctx, id, func(sess *simulation.Session) (telemetry.EventType, telemetry.EventMetadata, error) {
		var err error
		res, err = sess.Advance(d)
		if err != nil {
			return "", nil, err
		}
		return telemetry.EventYearSimulated, telemetry.EventMetadata{
			"year":      res.Year,
			"score":     res.Score,
			"decisions": d.Map(),
			"finished":  res.Finished,
		}, nil
	})
	if err != nil {
		return simulation.YearResult{}, progress.Record{}, err
	}
	return res, rec, nil
}

func (s *Service) Reset(ctx context.Context, id string) (progress.Record, error) {
	return s.mutate(ctx, id, func(sess *simulation.Session) (telemetry.EventType, telemetry.EventMetadata, error) {
		years := len(sess.History())
		sess.Reset()
		return telemetry.EventSessionReset, telemetry.EventMetadata{"years_discarded": years}, nil
	})
}

// Preview evaluates d against the session's current indicators.
func (s *Service) Preview(ctx context.Context, id string, d decision.Decisions) (Preview, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, err := s.load(ctx, id)
	if err != nil {
		return Preview{}, err
	}
	rec, parts, err := e.sess.Preview(d)
	if err != nil {
		return Preview{}, err
	}
	return Preview{YearRecord: rec, Contributions: parts}, nil
}

// Delete drops the session and disconnects its subscribers.
func (s *Service) Delete(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, err := s.load(ctx, id); err != nil {
		return err
	}
	if err := s.progress.Delete(ctx, id); err != nil && !errors.Is(err, progress.ErrNotFound) {
		return fmt.Errorf("delete session: %w", err)
	}
	delete(s.sessions, id)
	s.record(telemetry.EventSessionDeleted, id, nil)
	s.hub.CloseSession(id)
	s.log.WithField("session_id", id).Info("session deleted")
	return nil
}

func (s *Service) Stats(since time.Time) (telemetry.Stats, error) {
	events, err := s.events.GetEvents(since, nil)
	if err != nil {
		return telemetry.Stats{}, err
	}
	return telemetry.CalculateStats(events, since)
}

// load returns the live entry for id, restoring it from the repository if
// needed. Callers hold s.mu.
func (s *Service) load(ctx context.Context, id string) (*entry, error) {
	id = strings.TrimSpace(id)
	if e, ok := s.sessions[id]; ok {
		return e, nil
	}
	rec, err := s.progress.Get(ctx, id)
	if errors.Is(err, progress.ErrNotFound) {
		return nil, fmt.Errorf("%w: %s", ErrSessionNotFound, id)
	}
	if err != nil {
		return nil, err
	}
	sess, err := simulation.NewSession(s.opts)
	if err != nil {
		return nil, err
	}
	if err := sess.Restore(rec.Snapshot); err != nil {
		return nil, fmt.Errorf("restore session %s: %w", id, err)
	}
	e := &entry{rec: rec, sess: sess}
	e.rec.Snapshot = sess.Snapshot()
	s.sessions[id] = e
	s.log.WithField("session_id", id).Debug("session restored")
	return e, nil
}

type mutation func(*simulation.Session) (telemetry.EventType, telemetry.EventMetadata, error)

// mutate runs fn on a scratch copy and only commits it once persisted.
func (s *Service) mutate(ctx context.Context, id string, fn mutation) (progress.Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, err := s.load(ctx, id)
	if err != nil {
		return progress.Record{}, err
	}

	work, err := simulation.NewSession(s.opts)
	if err != nil {
		return progress.Record{}, err
	}
	if err := work.Restore(e.sess.Snapshot()); err != nil {
		return progress.Record{}, err
	}

	evt, meta, err := fn(work)
	if err != nil {
		return progress.Record{}, err
	}

	rec := e.rec
	rec.UpdatedAt = s.now()
	rec.Snapshot = work.Snapshot()
	if err := s.progress.Put(ctx, rec); err != nil {
		return progress.Record{}, fmt.Errorf("persist session: %w", err)
	}
	e.rec = rec
	e.sess = work

	s.emit(e, evt, meta)
	return rec.Clone(), nil
}

func (s *Service) emit(e *entry, evt telemetry.EventType, meta telemetry.EventMetadata) {
	s.record(evt, e.rec.ID, meta)
	s.hub.Publish(realtime.Message{Type: string(evt), SessionID: e.rec.ID, Payload: e.rec.Clone().Snapshot})
	s.log.WithFields(logrus.Fields{
		"session_id": e.rec.ID,
		"event":      evt,
		"phase":      e.rec.Snapshot.Phase,
		"year":       e.rec.Snapshot.Year,
		"score":      e.rec.Snapshot.Score,
	}).Debug("session updated")
}

func (s *Service) record(evt telemetry.EventType, id string, meta telemetry.EventMetadata) {
	if err := s.events.RecordEvent(evt, id, meta); err != nil {
		s.log.WithError(err).WithField("event", evt).Warn("telemetry record failed")
	}
}
