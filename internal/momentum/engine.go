// Package momentum maintains the bounded [0,100] litigation momentum score
// and its trailing-window trend. Delta magnitudes are policy, supplied by
// config; clamping and the window mechanics are invariants.
package momentum

import (
	"math"

	"github.com/MikeSquared-Agency/gavel/internal/config"
	"github.com/MikeSquared-Agency/gavel/internal/state"
	"github.com/MikeSquared-Agency/gavel/internal/testimony"
)

type Engine struct {
	cfg config.Config
}

func New(cfg config.Config) *Engine {
	return &Engine{cfg: cfg}
}

// Delta computes the momentum change for one event given the
// contradictions it produced.
//
//   - helpful with no contradiction: small positive delta
//   - harmful: negative delta, discounted when the statement itself was
//     contradicted (a self-undercut admission hurts less)
//   - each fresh contradiction that undercuts adverse testimony: bonus
//     weighted by impeachment value
//   - neutral with no contradiction: zero
func (e *Engine) Delta(sig testimony.Signal, contradictions []state.Contradiction) int {
	delta := 0

	switch sig {
	case testimony.SignalHelpful:
		if len(contradictions) == 0 {
			delta += e.cfg.HelpfulDelta
		}
	case testimony.SignalHarmful:
		penalty := e.cfg.HarmfulDelta
		if len(contradictions) > 0 {
			penalty = int(math.Round(float64(penalty) * e.cfg.ContradictedDiscount))
		}
		delta -= penalty
	}

	for _, c := range contradictions {
		if undercutsAdverse(c) {
			delta += e.bonus(c.ImpeachmentValue)
		}
	}

	return delta
}

func (e *Engine) bonus(v state.ImpeachmentValue) int {
	switch v {
	case state.ImpeachmentHigh:
		return e.cfg.BonusHigh
	case state.ImpeachmentMedium:
		return e.cfg.BonusMedium
	default:
		return e.cfg.BonusLow
	}
}

// undercutsAdverse reports whether a contradiction damages testimony that
// hurt our posture, i.e. either side of the flip carried a harmful signal.
func undercutsAdverse(c state.Contradiction) bool {
	return c.StatementA.Signal == testimony.SignalHarmful ||
		c.StatementB.Signal == testimony.SignalHarmful
}

// Apply clamps score+delta into [0,100] and returns the effective delta
// actually applied after clamping.
func Apply(score, delta int) (newScore, applied int) {
	newScore = clamp(score + delta)
	return newScore, newScore - score
}

// Credibility updates a witness score by the same polarity rule as
// momentum: helpful builds, harmful erodes, and being caught in a
// contradiction erodes regardless of polarity.
func (e *Engine) Credibility(current int, sig testimony.Signal, contradicted bool) int {
	switch sig {
	case testimony.SignalHelpful:
		current += e.cfg.HelpfulDelta
	case testimony.SignalHarmful:
		current -= e.cfg.HarmfulDelta
	}
	if contradicted {
		current -= e.cfg.HarmfulDelta
	}
	return clamp(current)
}

// Trend classifies the net change over the trailing window of deltas:
// positive is improving, negative declining, zero stable.
func Trend(deltas []int, window int) state.Trend {
	if window <= 0 || len(deltas) == 0 {
		return state.TrendStable
	}
	if len(deltas) > window {
		deltas = deltas[len(deltas)-window:]
	}
	net := 0
	for _, d := range deltas {
		net += d
	}
	switch {
	case net > 0:
		return state.TrendImproving
	case net < 0:
		return state.TrendDeclining
	}
	return state.TrendStable
}

// PushDelta appends a delta to the trailing window, discarding entries
// older than the window.
func PushDelta(deltas []int, d, window int) []int {
	deltas = append(deltas, d)
	if window > 0 && len(deltas) > window {
		deltas = deltas[len(deltas)-window:]
	}
	return deltas
}

func clamp(score int) int {
	if score < 0 {
		return 0
	}
	if score > 100 {
		return 100
	}
	return score
}
