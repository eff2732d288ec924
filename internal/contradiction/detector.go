// Package contradiction flags conflicts between an incoming statement and
// the retained record of what the same witness already said on the same
// topic. Detection works on structured fields only; deep text comparison
// is a pluggable capability supplied by the caller.
package contradiction

import (
	"strconv"

	"github.com/MikeSquared-Agency/gavel/internal/state"
	"github.com/MikeSquared-Agency/gavel/internal/testimony"
)

// TextComparer decides whether two statement texts conflict. Implementations
// may be arbitrarily strict; the zero behavior (no comparer) relies on
// credibility-signal polarity alone.
type TextComparer interface {
	Conflicts(a, b string) bool
}

// Detector checks incoming events against the prior-statement index.
type Detector struct {
	cmp TextComparer
}

// New creates a detector. cmp may be nil, in which case only polarity
// opposition triggers detection.
func New(cmp TextComparer) *Detector {
	return &Detector{cmp: cmp}
}

// Check flags at most one contradiction per topic tag on the event,
// comparing against the full statement history of the same speaker on
// that topic; when several priors conflict, the most recent qualifier
// wins. The incoming statement becomes StatementA, the prior one
// StatementB. Check does not mutate the index; the engine appends the new
// statements after detection so history is retained.
func (d *Detector) Check(st *state.TrialState, evt testimony.Event, seq int) []state.Contradiction {
	var found []state.Contradiction

	for _, topic := range evt.TopicTags {
		prior, ok := d.latestConflict(st, evt, topic)
		if !ok {
			continue
		}

		found = append(found, state.Contradiction{
			ID:         state.DeriveID(st.SessionID, "contradiction", strconv.Itoa(seq), topic),
			Topic:      topic,
			Witness:    evt.SpeakerName,
			DetectedAt: evt.Timestamp,
			StatementA: state.Statement{
				Text:      evt.Text,
				Phase:     evt.Phase,
				Timestamp: evt.Timestamp,
				Signal:    evt.Signal,
				Seq:       seq,
			},
			StatementB: state.Statement{
				Text:      prior.Text,
				Phase:     prior.Phase,
				Timestamp: prior.Timestamp,
				Signal:    prior.Signal,
				Seq:       prior.Seq,
			},
			ImpeachmentValue: Rank(evt.Phase, prior.Phase),
		})
	}

	return found
}

// latestConflict scans every retained prior by the speaker on the topic
// and returns the most recent one that conflicts with the incoming event.
// Recency is by timestamp, with stream order breaking ties; non-conflicting
// statements in between never screen an earlier conflicting one.
func (d *Detector) latestConflict(st *state.TrialState, evt testimony.Event, topic string) (state.PriorStatement, bool) {
	var best state.PriorStatement
	found := false
	for _, ps := range st.Priors(evt.SpeakerName, topic) {
		if !d.conflicts(evt, ps) {
			continue
		}
		if !found || !ps.Timestamp.Before(best.Timestamp) {
			best = ps
			found = true
		}
	}
	return best, found
}

func (d *Detector) conflicts(evt testimony.Event, prior state.PriorStatement) bool {
	if opposed(evt.Signal, prior.Signal) {
		return true
	}
	if d.cmp != nil && d.cmp.Conflicts(evt.Text, prior.Text) {
		return true
	}
	return false
}

// opposed reports whether two credibility signals have opposite polarity.
// Neutral statements never qualify.
func opposed(a, b testimony.Signal) bool {
	return (a == testimony.SignalHelpful && b == testimony.SignalHarmful) ||
		(a == testimony.SignalHarmful && b == testimony.SignalHelpful)
}

// Rank derives the impeachment value from phase distance. A flip within a
// single phase is low value; a flip between the direct-side and cross-side
// of examination is the classic impeachment setup and ranks high;
// everything else is medium.
func Rank(a, b testimony.Phase) state.ImpeachmentValue {
	if a == b {
		return state.ImpeachmentLow
	}
	sa, sb := examSide(a), examSide(b)
	if (sa == sideDirect && sb == sideCross) || (sa == sideCross && sb == sideDirect) {
		return state.ImpeachmentHigh
	}
	return state.ImpeachmentMedium
}

type side int

const (
	sideOther side = iota
	sideDirect
	sideCross
)

func examSide(p testimony.Phase) side {
	switch p {
	case testimony.PhaseDirect, testimony.PhaseRedirect:
		return sideDirect
	case testimony.PhaseCross, testimony.PhaseRecross:
		return sideCross
	}
	return sideOther
}
