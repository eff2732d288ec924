package testimony

import (
	"fmt"
	"time"
)

// SpeakerRole identifies who is on the record for an event.
type SpeakerRole string

const (
	RoleWitness  SpeakerRole = "witness"
	RoleAttorney SpeakerRole = "attorney"
	RoleJudge    SpeakerRole = "judge"
)

// Phase is the trial phase the event was recorded in.
type Phase string

const (
	PhaseDirect   Phase = "direct"
	PhaseCross    Phase = "cross"
	PhaseRedirect Phase = "redirect"
	PhaseRecross  Phase = "recross"
	PhaseOpening  Phase = "opening"
	PhaseClosing  Phase = "closing"
	PhaseSidebar  Phase = "sidebar"
)

// Signal is the externally assigned credibility label, relative to our
// case posture. The intake agent assigns it; gavel never derives it.
type Signal string

const (
	SignalNeutral Signal = "neutral"
	SignalHelpful Signal = "helpful"
	SignalHarmful Signal = "harmful"
)

// Event is a single testimony record from the intake feed. Immutable once
// parsed.
type Event struct {
	Timestamp   time.Time
	SpeakerRole SpeakerRole
	SpeakerName string
	Phase       Phase
	Text        string
	ExhibitRefs []string
	TopicTags   []string
	Signal      Signal

	// Upstream classifications, optional. ObjectionCategory is one of the
	// objection-trigger categories (hearsay, speculation, leading,
	// relevance, compound, argumentative, narrative) when the intake
	// classifier fired; PrejudiceRisk flags language a judge may need to
	// hear at sidebar.
	ObjectionCategory string
	PrejudiceRisk     bool
}

// Validate enforces the record validity invariant: required fields present
// and enum values in range. Invalid events are skipped, never fatal.
func (e Event) Validate() error {
	if e.Timestamp.IsZero() {
		return fmt.Errorf("missing timestamp")
	}
	if e.SpeakerName == "" {
		return fmt.Errorf("missing speaker_name")
	}
	if e.Text == "" {
		return fmt.Errorf("missing text")
	}
	if !validRole(e.SpeakerRole) {
		return fmt.Errorf("bad speaker_role %q", e.SpeakerRole)
	}
	if !validPhase(e.Phase) {
		return fmt.Errorf("bad phase %q", e.Phase)
	}
	if !validSignal(e.Signal) {
		return fmt.Errorf("bad credibility_signal %q", e.Signal)
	}
	return nil
}

func validRole(r SpeakerRole) bool {
	switch r {
	case RoleWitness, RoleAttorney, RoleJudge:
		return true
	}
	return false
}

func validPhase(p Phase) bool {
	switch p {
	case PhaseDirect, PhaseCross, PhaseRedirect, PhaseRecross,
		PhaseOpening, PhaseClosing, PhaseSidebar:
		return true
	}
	return false
}

func validSignal(s Signal) bool {
	switch s {
	case SignalNeutral, SignalHelpful, SignalHarmful:
		return true
	}
	return false
}
