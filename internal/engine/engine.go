// Package engine composes the detector, momentum engine and prioritizer
// into the per-event trial-state transition.
package engine

import (
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/MikeSquared-Agency/gavel/internal/config"
	"github.com/MikeSquared-Agency/gavel/internal/contradiction"
	"github.com/MikeSquared-Agency/gavel/internal/momentum"
	"github.com/MikeSquared-Agency/gavel/internal/state"
	"github.com/MikeSquared-Agency/gavel/internal/tactics"
	"github.com/MikeSquared-Agency/gavel/internal/testimony"
)

// Engine advances a TrialState one event at a time. It performs no I/O;
// reading the feed and persisting state happen at the watch boundary.
type Engine struct {
	cfg         config.Config
	detector    *contradiction.Detector
	momentum    *momentum.Engine
	prioritizer *tactics.Prioritizer
	logger      *slog.Logger
}

// New builds an engine. cmp is the pluggable text comparer for the
// contradiction detector; nil means polarity-only detection.
func New(cfg config.Config, cmp contradiction.TextComparer, logger *slog.Logger) *Engine {
	return &Engine{
		cfg:         cfg,
		detector:    contradiction.New(cmp),
		momentum:    momentum.New(cfg),
		prioritizer: tactics.New(cfg),
		logger:      logger,
	}
}

// Result is the output of a single transition.
type Result struct {
	Actions []state.TrialAction
	Changes []string
}

// Process applies one event to the state. On an invalid event the state
// is untouched and an error describes the rejection; otherwise the state
// is advanced exactly once and the newly generated actions plus
// human-readable change descriptions come back.
func (e *Engine) Process(st *state.TrialState, evt testimony.Event) (Result, error) {
	if err := evt.Validate(); err != nil {
		return Result{}, fmt.Errorf("invalid event: %w", err)
	}

	seq := st.EventsProcessed
	var changes []string

	// Contradictions first: detection compares against the index as it
	// stood before this event.
	found := e.detector.Check(st, evt, seq)
	st.Contradictions = append(st.Contradictions, found...)
	for _, c := range found {
		changes = append(changes, fmt.Sprintf(
			"contradiction: %s flipped on %q (%s vs %s, impeachment %s)",
			c.Witness, c.Topic, c.StatementA.Phase, c.StatementB.Phase, c.ImpeachmentValue))
	}

	// Index update happens after detection; superseded entries stay.
	for _, topic := range evt.TopicTags {
		st.PriorStatements = append(st.PriorStatements, state.PriorStatement{
			Speaker:   evt.SpeakerName,
			Topic:     topic,
			Text:      evt.Text,
			Phase:     evt.Phase,
			Timestamp: evt.Timestamp,
			Signal:    evt.Signal,
			Seq:       seq,
		})
	}

	// Momentum.
	delta := e.momentum.Delta(evt.Signal, found)
	oldScore := st.MomentumScore
	newScore, applied := momentum.Apply(oldScore, delta)
	st.MomentumScore = newScore
	st.RecentDeltas = momentum.PushDelta(st.RecentDeltas, applied, e.cfg.TrendWindow)
	oldTrend := st.MomentumTrend
	st.MomentumTrend = momentum.Trend(st.RecentDeltas, e.cfg.TrendWindow)
	if applied != 0 {
		changes = append(changes, fmt.Sprintf("momentum %d -> %d", oldScore, newScore))
	}
	if st.MomentumTrend != oldTrend {
		changes = append(changes, fmt.Sprintf("trend %s -> %s", oldTrend, st.MomentumTrend))
	}

	// Witness credibility, same polarity rule. Only witnesses get a
	// score; attorney and judge events carry signals but no credibility
	// record.
	if evt.SpeakerRole == testimony.RoleWitness {
		cur, seen := st.WitnessCredibility[evt.SpeakerName]
		if !seen {
			cur = state.BaselineScore
		}
		updated := e.momentum.Credibility(cur, evt.Signal, len(found) > 0)
		st.WitnessCredibility[evt.SpeakerName] = updated
		if updated != cur {
			changes = append(changes, fmt.Sprintf("credibility of %s %d -> %d", evt.SpeakerName, cur, updated))
		}
	}

	// Actions.
	actions := e.prioritizer.Evaluate(st, tactics.Input{Event: evt, Seq: seq, Contradictions: found})
	st.PendingActions = append(st.PendingActions, actions...)
	for _, a := range actions {
		changes = append(changes, fmt.Sprintf("action queued: %s %s (%s)", a.Priority, a.Type, a.Target))
	}

	st.EventsProcessed++

	// Significant swings on a signed statement become key admissions.
	if (evt.Signal == testimony.SignalHelpful || evt.Signal == testimony.SignalHarmful) &&
		abs(applied) >= e.cfg.KeyAdmissionThreshold {
		st.KeyAdmissions = append(st.KeyAdmissions, state.KeyAdmission{
			Seq:       seq,
			Witness:   evt.SpeakerName,
			Signal:    evt.Signal,
			Delta:     applied,
			Text:      evt.Text,
			Timestamp: evt.Timestamp,
		})
		changes = append(changes, fmt.Sprintf("key admission by %s (delta %+d)", evt.SpeakerName, applied))
	}

	e.logger.Debug("event processed",
		"seq", seq,
		"speaker", evt.SpeakerName,
		"signal", evt.Signal,
		"momentum", st.MomentumScore,
		"trend", st.MomentumTrend,
		"contradictions", len(found),
		"actions", len(actions),
	)

	return Result{Actions: actions, Changes: changes}, nil
}

// MarkExploited marks a contradiction as used by the trial team. When
// configured not to count exploited contradictions, the bonus that the
// detection contributed is retracted from the trailing trend window so
// future trend reads ignore it; the momentum score itself is history and
// stays.
func (e *Engine) MarkExploited(st *state.TrialState, id uuid.UUID) bool {
	var target *state.Contradiction
	for i := range st.Contradictions {
		if st.Contradictions[i].ID == id {
			target = &st.Contradictions[i]
			break
		}
	}
	if target == nil || target.Exploited {
		return target != nil
	}
	target.Exploited = true

	if !e.cfg.CountExploited {
		// RecentDeltas[len-1] belongs to event EventsProcessed-1.
		idx := len(st.RecentDeltas) - (st.EventsProcessed - target.StatementA.Seq)
		if idx >= 0 && idx < len(st.RecentDeltas) {
			st.RecentDeltas[idx] -= e.bonusFor(target.ImpeachmentValue)
			st.MomentumTrend = momentum.Trend(st.RecentDeltas, e.cfg.TrendWindow)
		}
	}
	return true
}

func (e *Engine) bonusFor(v state.ImpeachmentValue) int {
	switch v {
	case state.ImpeachmentHigh:
		return e.cfg.BonusHigh
	case state.ImpeachmentMedium:
		return e.cfg.BonusMedium
	}
	return e.cfg.BonusLow
}

func abs(n int) int {
	if n < 0 {
		return -n
	}
	return n
}
