package store

import (
	"context"
	"fmt"

	"github.com/google/uuid"
)

type WitnessRecord struct {
	ID          uuid.UUID
	SessionID   uuid.UUID
	WitnessName string
	Credibility int
}

// GetWitness fetches the credibility record for a witness in a session.
func (s *Store) GetWitness(ctx context.Context, sessionID uuid.UUID, name string) (*WitnessRecord, error) {
	row := s.pool.QueryRow(ctx, `
		SELECT id, session_id, witness_name, credibility
		FROM witness_credibility
		WHERE session_id = $1 AND witness_name = $2`,
		sessionID, name,
	)

	var w WitnessRecord
	err := row.Scan(&w.ID, &w.SessionID, &w.WitnessName, &w.Credibility)
	if err != nil {
		return nil, err
	}
	return &w, nil
}

// UpsertWitness creates or updates the credibility score for a witness.
func (s *Store) UpsertWitness(ctx context.Context, sessionID uuid.UUID, name string, credibility int) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO witness_credibility (id, session_id, witness_name, credibility, updated_at)
		VALUES ($1, $2, $3, $4, now())
		ON CONFLICT (session_id, witness_name)
		DO UPDATE SET
			credibility = $4,
			updated_at = now()`,
		uuid.New(), sessionID, name, credibility,
	)
	if err != nil {
		return fmt.Errorf("upsert witness: %w", err)
	}
	return nil
}
