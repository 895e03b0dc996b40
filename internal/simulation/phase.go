package simulation

import "fmt"

// Phase is a step of the session flow, traversed strictly forward.
type Phase string

const (
	PhaseIntro      Phase = "intro"
	PhaseStory      Phase = "story"
	PhaseTutorial   Phase = "tutorial"
	PhaseSimulation Phase = "simulation"
)

var phaseOrder = []Phase{PhaseIntro, PhaseStory, PhaseTutorial, PhaseSimulation}

// Phases returns the ordered flow; the last element is terminal.
func Phases() []Phase {
	return append([]Phase(nil), phaseOrder...)
}

func InitialPhase() Phase  { return phaseOrder[0] }
func TerminalPhase() Phase { return phaseOrder[len(phaseOrder)-1] }

func (p Phase) index() int {
	for i, q := range phaseOrder {
		if q == p {
			return i
		}
	}
	return -1
}

func (p Phase) Valid() bool { return p.index() >= 0 }

func (p Phase) Terminal() bool { return p == TerminalPhase() }

// Next returns the following phase, or p itself at the terminal phase.
func (p Phase) Next() Phase {
	i := p.index()
	if i < 0 || i == len(phaseOrder)-1 {
		return p
	}
	return phaseOrder[i+1]
}

func ParsePhase(s string) (Phase, error) {
	p := Phase(s)
	if !p.Valid() {
		return "", fmt.Errorf("%w: %q", ErrInvalidPhase, s)
	}
	return p, nil
}
