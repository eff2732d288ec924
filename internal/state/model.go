// Package state holds the trial-state aggregate and its durable store.
// The aggregate is mutated only by the engine's per-event transition;
// renderers and the API read persisted snapshots.
package state

import (
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/MikeSquared-Agency/gavel/internal/testimony"
)

// Trend summarizes the direction of momentum over the trailing window.
type Trend string

const (
	TrendImproving Trend = "improving"
	TrendStable    Trend = "stable"
	TrendDeclining Trend = "declining"
)

// ImpeachmentValue ranks how useful a contradiction is for discrediting a
// witness, derived from the phase distance between the two statements.
type ImpeachmentValue string

const (
	ImpeachmentLow    ImpeachmentValue = "low"
	ImpeachmentMedium ImpeachmentValue = "medium"
	ImpeachmentHigh   ImpeachmentValue = "high"
)

// Priority is the action urgency tier.
type Priority string

const (
	PriorityP0 Priority = "P0"
	PriorityP1 Priority = "P1"
	PriorityP2 Priority = "P2"
)

// ActionType names the tactical response an action suggests.
type ActionType string

const (
	ActionImpeachment ActionType = "impeachment"
	ActionObjection   ActionType = "objection"
	ActionExhibit     ActionType = "exhibit"
	ActionReframe     ActionType = "reframe"
	ActionConcession  ActionType = "concession"
	ActionSidebar     ActionType = "sidebar_request"
)

// PriorStatement is one retained entry of the (speaker, topic) statement
// index. Superseded entries stay in the slice so later re-contradiction is
// still detectable against the full history; detection considers every
// entry, not only the latest.
type PriorStatement struct {
	Speaker   string            `json:"speaker"`
	Topic     string            `json:"topic"`
	Text      string            `json:"text"`
	Phase     testimony.Phase   `json:"phase"`
	Timestamp time.Time         `json:"timestamp"`
	Signal    testimony.Signal  `json:"credibility_signal"`
	Seq       int               `json:"seq"`
}

// Statement is one side of a contradiction, with its phase label.
type Statement struct {
	Text      string           `json:"text"`
	Phase     testimony.Phase  `json:"phase"`
	Timestamp time.Time        `json:"timestamp"`
	Signal    testimony.Signal `json:"credibility_signal"`
	Seq       int              `json:"seq"`
}

// Contradiction records a detected conflict between two statements by the
// same witness on the same topic. Identity is immutable after creation;
// only Exploited may change, and only through MarkExploited.
type Contradiction struct {
	ID               uuid.UUID        `json:"id"`
	Topic            string           `json:"topic"`
	Witness          string           `json:"witness"`
	DetectedAt       time.Time        `json:"detected_at"`
	StatementA       Statement        `json:"statement_a"`
	StatementB       Statement        `json:"statement_b"`
	ImpeachmentValue ImpeachmentValue `json:"impeachment_value"`
	Exploited        bool             `json:"exploited"`
}

// TrialAction is an advisory tactical suggestion handed to renderers. It
// is never legal advice.
type TrialAction struct {
	ID                uuid.UUID  `json:"id"`
	Priority          Priority   `json:"priority"`
	Type              ActionType `json:"type"`
	Target            string     `json:"target"`
	SuggestedLanguage string     `json:"suggested_language"`
	Rationale         string     `json:"rationale"`
	EvidenceRefs      []string   `json:"evidence_refs,omitempty"`
	RiskTradeoff      string     `json:"risk_tradeoff"`
	Confidence        float64    `json:"confidence"`
	CreatedAt         time.Time  `json:"created_at"`
}

// KeyAdmission references an event whose helpful/harmful swing crossed the
// significance threshold.
type KeyAdmission struct {
	Seq       int              `json:"seq"`
	Witness   string           `json:"witness"`
	Signal    testimony.Signal `json:"credibility_signal"`
	Delta     int              `json:"delta"`
	Text      string           `json:"text"`
	Timestamp time.Time        `json:"timestamp"`
}

// BaselineScore is the neutral starting point for momentum and witness
// credibility.
const BaselineScore = 50

// TrialState is the persisted aggregate for one trial session.
type TrialState struct {
	SessionID       uuid.UUID `json:"session_id"`
	CreatedAt       time.Time `json:"created_at"`
	EventsProcessed int       `json:"events_processed"`

	MomentumScore int   `json:"momentum_score"`
	MomentumTrend Trend `json:"momentum_trend"`
	// RecentDeltas holds the per-event momentum changes for the trailing
	// trend window, oldest first.
	RecentDeltas []int `json:"recent_deltas"`

	Contradictions     []Contradiction  `json:"contradictions"`
	PendingActions     []TrialAction    `json:"pending_actions"`
	WitnessCredibility map[string]int   `json:"witness_credibility"`
	KeyAdmissions      []KeyAdmission   `json:"key_admissions"`
	PriorStatements    []PriorStatement `json:"prior_statements"`

	// SurfacedExhibits tracks exhibits an exhibit action was already
	// emitted for, so each is surfaced once.
	SurfacedExhibits map[string]bool `json:"surfaced_exhibits"`
	// TopicPressure counts consecutive harmful events per topic, feeding
	// the concession rule. Reset by a helpful event on the topic.
	TopicPressure map[string]int `json:"topic_pressure"`
}

// New creates a fresh session aggregate at the neutral baseline.
func New() *TrialState {
	return &TrialState{
		SessionID:          uuid.New(),
		CreatedAt:          time.Now().UTC(),
		MomentumScore:      BaselineScore,
		MomentumTrend:      TrendStable,
		WitnessCredibility: make(map[string]int),
		SurfacedExhibits:   make(map[string]bool),
		TopicPressure:      make(map[string]int),
	}
}

// DeriveID produces a stable UUID for a record created at a given point in
// the session, so replaying the same events reproduces identical state.
func DeriveID(session uuid.UUID, parts ...string) uuid.UUID {
	return uuid.NewSHA1(session, []byte(strings.Join(parts, "|")))
}

// Priors returns every retained statement by the speaker on the topic, in
// stream order. Superseded entries are included: detection compares
// against the full history, not only the latest statement.
func (s *TrialState) Priors(speaker, topic string) []PriorStatement {
	var out []PriorStatement
	for _, ps := range s.PriorStatements {
		if ps.Speaker == speaker && ps.Topic == topic {
			out = append(out, ps)
		}
	}
	return out
}

// MarkExploited flips the Exploited flag on the identified contradiction.
// This is the only mutation the aggregate accepts from outside the
// per-event transition.
func (s *TrialState) MarkExploited(id uuid.UUID) bool {
	for i := range s.Contradictions {
		if s.Contradictions[i].ID == id {
			s.Contradictions[i].Exploited = true
			return true
		}
	}
	return false
}
