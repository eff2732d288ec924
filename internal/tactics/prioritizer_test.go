package tactics

import (
	"testing"
	"time"

	"github.com/MikeSquared-Agency/gavel/internal/config"
	"github.com/MikeSquared-Agency/gavel/internal/state"
	"github.com/MikeSquared-Agency/gavel/internal/testimony"
)

func testConfig() config.Config {
	return config.Config{ConcessionStreak: 3}
}

func harmfulEvent(topic string) testimony.Event {
	return testimony.Event{
		Timestamp:   time.Date(2025, 3, 10, 15, 0, 0, 0, time.UTC),
		SpeakerRole: testimony.RoleWitness,
		SpeakerName: "Dana Reeves",
		Phase:       testimony.PhaseCross,
		Text:        "harmful statement",
		TopicTags:   []string{topic},
		Signal:      testimony.SignalHarmful,
	}
}

func findAction(actions []state.TrialAction, typ state.ActionType) (state.TrialAction, bool) {
	for _, a := range actions {
		if a.Type == typ {
			return a, true
		}
	}
	return state.TrialAction{}, false
}

func TestEvaluate_ImpeachmentPriorities(t *testing.T) {
	tests := []struct {
		name     string
		value    state.ImpeachmentValue
		priority state.Priority
		minConf  float64
	}{
		{"high is P0", state.ImpeachmentHigh, state.PriorityP0, 0.9},
		{"medium is P1", state.ImpeachmentMedium, state.PriorityP1, 0.7},
		{"low is P2", state.ImpeachmentLow, state.PriorityP2, 0.55},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			st := state.New()
			p := New(testConfig())
			c := state.Contradiction{
				Topic:            "contract",
				Witness:          "Dana Reeves",
				ImpeachmentValue: tt.value,
				StatementA:       state.Statement{Text: "now", Phase: testimony.PhaseCross},
				StatementB:       state.Statement{Text: "then", Phase: testimony.PhaseDirect},
			}

			actions := p.Evaluate(st, Input{Event: harmfulEvent("contract"), Seq: 1, Contradictions: []state.Contradiction{c}})

			a, ok := findAction(actions, state.ActionImpeachment)
			if !ok {
				t.Fatal("expected an impeachment action")
			}
			if a.Priority != tt.priority {
				t.Errorf("priority = %q, want %q", a.Priority, tt.priority)
			}
			if a.Confidence != tt.minConf {
				t.Errorf("confidence = %f, want %f", a.Confidence, tt.minConf)
			}
			if a.Target != "Dana Reeves" {
				t.Errorf("target = %q, want the witness", a.Target)
			}
		})
	}
}

func TestEvaluate_Objection(t *testing.T) {
	st := state.New()
	p := New(testConfig())

	evt := harmfulEvent("contract")
	evt.ObjectionCategory = "hearsay"

	actions := p.Evaluate(st, Input{Event: evt, Seq: 0})
	a, ok := findAction(actions, state.ActionObjection)
	if !ok {
		t.Fatal("expected an objection action")
	}
	if a.Priority != state.PriorityP1 {
		t.Errorf("priority = %q, want P1", a.Priority)
	}
	if a.Target != "hearsay" {
		t.Errorf("target = %q, want the objection basis", a.Target)
	}
}

func TestEvaluate_NoObjectionWithExhibit(t *testing.T) {
	st := state.New()
	p := New(testConfig())

	evt := harmfulEvent("contract")
	evt.ObjectionCategory = "speculation"
	evt.ExhibitRefs = []string{"EX-4"}

	actions := p.Evaluate(st, Input{Event: evt, Seq: 0})
	if _, ok := findAction(actions, state.ActionObjection); ok {
		t.Error("testimony grounded in an exhibit should not trigger an objection")
	}
}

func TestEvaluate_ExhibitSurfacedOnce(t *testing.T) {
	st := state.New()
	p := New(testConfig())

	evt := testimony.Event{
		SpeakerName: "Dana Reeves",
		Phase:       testimony.PhaseDirect,
		Text:        "helpful with exhibit",
		TopicTags:   []string{"contract"},
		Signal:      testimony.SignalHelpful,
		ExhibitRefs: []string{"EX-12"},
	}

	actions := p.Evaluate(st, Input{Event: evt, Seq: 0})
	a, ok := findAction(actions, state.ActionExhibit)
	if !ok {
		t.Fatal("expected an exhibit action")
	}
	if a.Target != "EX-12" {
		t.Errorf("target = %q, want EX-12", a.Target)
	}
	if a.Priority != state.PriorityP1 {
		t.Errorf("priority = %q, want P1", a.Priority)
	}

	// Same exhibit again: already surfaced, no second action.
	actions = p.Evaluate(st, Input{Event: evt, Seq: 1})
	if _, ok := findAction(actions, state.ActionExhibit); ok {
		t.Error("an exhibit should be surfaced only once")
	}
}

func TestEvaluate_ReframeOnUncontestedHelpful(t *testing.T) {
	st := state.New()
	p := New(testConfig())

	evt := testimony.Event{
		SpeakerName: "Dana Reeves",
		Phase:       testimony.PhaseDirect,
		Text:        "helpful uncontested",
		TopicTags:   []string{"contract"},
		Signal:      testimony.SignalHelpful,
	}

	actions := p.Evaluate(st, Input{Event: evt, Seq: 0})
	a, ok := findAction(actions, state.ActionReframe)
	if !ok {
		t.Fatal("expected a reframe action")
	}
	if a.Priority != state.PriorityP2 {
		t.Errorf("priority = %q, want P2", a.Priority)
	}

	// A contradiction on the same event suppresses the reframe.
	c := state.Contradiction{Topic: "contract", Witness: "Dana Reeves", ImpeachmentValue: state.ImpeachmentLow}
	actions = p.Evaluate(st, Input{Event: evt, Seq: 1, Contradictions: []state.Contradiction{c}})
	if _, ok := findAction(actions, state.ActionReframe); ok {
		t.Error("contested helpful testimony should not trigger a reframe")
	}
}

func TestEvaluate_ConcessionAfterStreak(t *testing.T) {
	st := state.New()
	p := New(testConfig())

	for i := 0; i < 2; i++ {
		actions := p.Evaluate(st, Input{Event: harmfulEvent("damages"), Seq: i})
		if _, ok := findAction(actions, state.ActionConcession); ok {
			t.Fatalf("concession fired early at event %d", i)
		}
	}

	actions := p.Evaluate(st, Input{Event: harmfulEvent("damages"), Seq: 2})
	a, ok := findAction(actions, state.ActionConcession)
	if !ok {
		t.Fatal("expected a concession after 3 consecutive harmful events")
	}
	if a.Target != "damages" {
		t.Errorf("target = %q, want the topic", a.Target)
	}

	// Fourth harmful event: past the crossing, no repeat suggestion.
	actions = p.Evaluate(st, Input{Event: harmfulEvent("damages"), Seq: 3})
	if _, ok := findAction(actions, state.ActionConcession); ok {
		t.Error("concession should fire once at the crossing")
	}
}

func TestEvaluate_HelpfulResetsTopicPressure(t *testing.T) {
	st := state.New()
	p := New(testConfig())

	p.Evaluate(st, Input{Event: harmfulEvent("damages"), Seq: 0})
	p.Evaluate(st, Input{Event: harmfulEvent("damages"), Seq: 1})

	helpful := testimony.Event{
		SpeakerName: "Dana Reeves",
		Phase:       testimony.PhaseRedirect,
		Text:        "recovering",
		TopicTags:   []string{"damages"},
		Signal:      testimony.SignalHelpful,
	}
	p.Evaluate(st, Input{Event: helpful, Seq: 2})

	if st.TopicPressure["damages"] != 0 {
		t.Errorf("helpful event should reset pressure, got %d", st.TopicPressure["damages"])
	}

	actions := p.Evaluate(st, Input{Event: harmfulEvent("damages"), Seq: 3})
	if _, ok := findAction(actions, state.ActionConcession); ok {
		t.Error("streak should have restarted after the helpful event")
	}
}

func TestEvaluate_SidebarOnPrejudiceRisk(t *testing.T) {
	st := state.New()
	p := New(testConfig())

	evt := harmfulEvent("character")
	evt.PrejudiceRisk = true

	actions := p.Evaluate(st, Input{Event: evt, Seq: 0})
	a, ok := findAction(actions, state.ActionSidebar)
	if !ok {
		t.Fatal("expected a sidebar_request action")
	}
	if a.Priority != state.PriorityP1 {
		t.Errorf("priority = %q, want P1", a.Priority)
	}
}
