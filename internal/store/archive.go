package store

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/MikeSquared-Agency/gavel/internal/state"
)

// ArchiveContradiction mirrors a detected contradiction. The row id is the
// engine-derived contradiction id, so replays upsert instead of
// duplicating.
func (s *Store) ArchiveContradiction(ctx context.Context, sessionID uuid.UUID, c state.Contradiction) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO contradictions (id, session_id, topic, witness, detected_at,
			statement_a, phase_a, statement_b, phase_b, impeachment_value, exploited, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, now())
		ON CONFLICT (id) DO UPDATE SET exploited = $11`,
		c.ID, sessionID, c.Topic, c.Witness, c.DetectedAt,
		c.StatementA.Text, string(c.StatementA.Phase),
		c.StatementB.Text, string(c.StatementB.Phase),
		string(c.ImpeachmentValue), c.Exploited,
	)
	if err != nil {
		return fmt.Errorf("archive contradiction: %w", err)
	}
	return nil
}

// ArchiveAction mirrors an emitted trial action.
func (s *Store) ArchiveAction(ctx context.Context, sessionID uuid.UUID, a state.TrialAction) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO trial_actions (id, session_id, priority, action_type, target,
			suggested_language, rationale, evidence_refs, risk_tradeoff, confidence, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		ON CONFLICT (id) DO NOTHING`,
		a.ID, sessionID, string(a.Priority), string(a.Type), a.Target,
		a.SuggestedLanguage, a.Rationale, a.EvidenceRefs, a.RiskTradeoff, a.Confidence, a.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("archive action: %w", err)
	}
	return nil
}
