// Package tactics maps engine signals to prioritized trial actions.
package tactics

import (
	"fmt"
	"strconv"

	"github.com/MikeSquared-Agency/gavel/internal/config"
	"github.com/MikeSquared-Agency/gavel/internal/state"
	"github.com/MikeSquared-Agency/gavel/internal/testimony"
)

type Prioritizer struct {
	cfg config.Config
}

func New(cfg config.Config) *Prioritizer {
	return &Prioritizer{cfg: cfg}
}

// Input carries the per-event signals the prioritizer maps from.
type Input struct {
	Event          testimony.Event
	Seq            int
	Contradictions []state.Contradiction
}

// Evaluate produces the actions triggered by one event. It updates the
// exhibit-surfacing and topic-pressure bookkeeping on the state as a side
// effect; appending the returned actions to pending_actions is the
// engine's job so nothing is silently dropped.
func (p *Prioritizer) Evaluate(st *state.TrialState, in Input) []state.TrialAction {
	var actions []state.TrialAction
	evt := in.Event

	for _, c := range in.Contradictions {
		actions = append(actions, p.impeachment(st, in.Seq, evt, c))
	}

	if evt.Signal == testimony.SignalHarmful && len(evt.ExhibitRefs) == 0 && evt.ObjectionCategory != "" {
		actions = append(actions, state.TrialAction{
			ID:                state.DeriveID(st.SessionID, "action", strconv.Itoa(in.Seq), "objection"),
			Priority:          state.PriorityP1,
			Type:              state.ActionObjection,
			Target:            evt.ObjectionCategory,
			SuggestedLanguage: fmt.Sprintf("Objection, your honor: %s.", evt.ObjectionCategory),
			Rationale: fmt.Sprintf("Harmful testimony from %s matches the %s objection category and cites no exhibit.",
				evt.SpeakerName, evt.ObjectionCategory),
			RiskTradeoff: "An overruled objection can amplify the testimony in the jury's mind.",
			Confidence:   0.7,
			CreatedAt:    evt.Timestamp,
		})
	}

	if evt.Signal == testimony.SignalHelpful {
		for _, ref := range evt.ExhibitRefs {
			if st.SurfacedExhibits[ref] {
				continue
			}
			st.SurfacedExhibits[ref] = true
			actions = append(actions, state.TrialAction{
				ID:                state.DeriveID(st.SessionID, "action", strconv.Itoa(in.Seq), "exhibit", ref),
				Priority:          state.PriorityP1,
				Type:              state.ActionExhibit,
				Target:            ref,
				SuggestedLanguage: fmt.Sprintf("Move to admit exhibit %s and publish it to the jury.", ref),
				Rationale: fmt.Sprintf("Helpful testimony from %s references exhibit %s, not yet surfaced.",
					evt.SpeakerName, ref),
				EvidenceRefs: []string{ref},
				RiskTradeoff: "Opens the exhibit to cross-examination framing.",
				Confidence:   0.75,
				CreatedAt:    evt.Timestamp,
			})
		}

		if len(in.Contradictions) == 0 && evt.ObjectionCategory == "" {
			actions = append(actions, state.TrialAction{
				ID:                state.DeriveID(st.SessionID, "action", strconv.Itoa(in.Seq), "reframe"),
				Priority:          state.PriorityP2,
				Type:              state.ActionReframe,
				Target:            evt.SpeakerName,
				SuggestedLanguage: "Fold this point into the closing narrative while it is uncontested.",
				Rationale: fmt.Sprintf("Uncontested helpful testimony from %s locks in our theory of the case.",
					evt.SpeakerName),
				EvidenceRefs: evt.ExhibitRefs,
				RiskTradeoff: "Low; reframing costs nothing until closing.",
				Confidence:   0.6,
				CreatedAt:    evt.Timestamp,
			})
		}
	}

	actions = append(actions, p.concessions(st, in)...)

	if evt.PrejudiceRisk {
		actions = append(actions, state.TrialAction{
			ID:                state.DeriveID(st.SessionID, "action", strconv.Itoa(in.Seq), "sidebar"),
			Priority:          state.PriorityP1,
			Type:              state.ActionSidebar,
			Target:            evt.SpeakerName,
			SuggestedLanguage: "Request a sidebar to address prejudicial language before the jury.",
			Rationale: fmt.Sprintf("Intake flagged prejudice risk in testimony from %s.", evt.SpeakerName),
			RiskTradeoff: "Frequent sidebars can signal weakness; use when the record matters.",
			Confidence:   0.8,
			CreatedAt:    evt.Timestamp,
		})
	}

	return actions
}

func (p *Prioritizer) impeachment(st *state.TrialState, seq int, evt testimony.Event, c state.Contradiction) state.TrialAction {
	priority := state.PriorityP2
	confidence := 0.55
	switch c.ImpeachmentValue {
	case state.ImpeachmentHigh:
		priority = state.PriorityP0
		confidence = 0.9
	case state.ImpeachmentMedium:
		priority = state.PriorityP1
		confidence = 0.7
	}

	return state.TrialAction{
		ID:       state.DeriveID(st.SessionID, "action", strconv.Itoa(seq), "impeachment", c.Topic),
		Priority: priority,
		Type:     state.ActionImpeachment,
		Target:   c.Witness,
		SuggestedLanguage: fmt.Sprintf(
			"You testified on %s that %q. Just now you said %q. Which is it?",
			c.StatementB.Phase, c.StatementB.Text, c.StatementA.Text),
		Rationale: fmt.Sprintf("%s contradicted their %s-phase statement on %q during %s.",
			c.Witness, c.StatementB.Phase, c.Topic, c.StatementA.Phase),
		EvidenceRefs: evt.ExhibitRefs,
		RiskTradeoff: "Impeachment spends witness-handling time; a weak flip can look like badgering.",
		Confidence:   confidence,
		CreatedAt:    evt.Timestamp,
	}
}

// concessions tracks consecutive harmful events per topic and suggests
// conceding a topic once the streak reaches the configured threshold. The
// suggestion fires once, at the crossing.
func (p *Prioritizer) concessions(st *state.TrialState, in Input) []state.TrialAction {
	evt := in.Event
	var actions []state.TrialAction

	for _, topic := range evt.TopicTags {
		switch evt.Signal {
		case testimony.SignalHarmful:
			st.TopicPressure[topic]++
			if st.TopicPressure[topic] == p.cfg.ConcessionStreak {
				actions = append(actions, state.TrialAction{
					ID:       state.DeriveID(st.SessionID, "action", strconv.Itoa(in.Seq), "concession", topic),
					Priority: state.PriorityP2,
					Type:     state.ActionConcession,
					Target:   topic,
					SuggestedLanguage: fmt.Sprintf(
						"Consider conceding %q and redirecting the jury to stronger ground.", topic),
					Rationale: fmt.Sprintf("%d consecutive harmful events on %q indicate a weak position.",
						p.cfg.ConcessionStreak, topic),
					RiskTradeoff: "Concession trades the point for credibility with the jury.",
					Confidence:   0.65,
					CreatedAt:    evt.Timestamp,
				})
			}
		case testimony.SignalHelpful:
			st.TopicPressure[topic] = 0
		}
	}

	return actions
}
