package hermes

import (
	"encoding/json"
	"testing"
)

func TestStateUpdateRoundTrip(t *testing.T) {
	update := StateUpdate{
		SessionID:       "9f4c2d1e-0000-0000-0000-000000000000",
		EventsProcessed: 42,
		MomentumScore:   61,
		MomentumTrend:   "improving",
		Contradictions:  3,
		PendingActions:  7,
	}

	data, err := json.Marshal(update)
	if err != nil {
		t.Fatalf("failed to marshal: %v", err)
	}

	var parsed StateUpdate
	if err := json.Unmarshal(data, &parsed); err != nil {
		t.Fatalf("failed to unmarshal: %v", err)
	}

	if parsed != update {
		t.Errorf("round-trip mismatch: got %+v, want %+v", parsed, update)
	}
}

func TestExploitMarkParsing(t *testing.T) {
	raw := `{
		"session_id": "9f4c2d1e-0000-0000-0000-000000000000",
		"contradiction_id": "1d8a7b9c-0000-0000-0000-000000000000"
	}`

	var mark ExploitMark
	if err := json.Unmarshal([]byte(raw), &mark); err != nil {
		t.Fatalf("failed to parse ExploitMark: %v", err)
	}

	if mark.SessionID != "9f4c2d1e-0000-0000-0000-000000000000" {
		t.Errorf("unexpected session_id %q", mark.SessionID)
	}
	if mark.ContradictionID != "1d8a7b9c-0000-0000-0000-000000000000" {
		t.Errorf("unexpected contradiction_id %q", mark.ContradictionID)
	}
}

func TestSubjects(t *testing.T) {
	if SubjectStateUpdated != "swarm.gavel.state.updated" {
		t.Errorf("unexpected SubjectStateUpdated %q", SubjectStateUpdated)
	}
	if SubjectActions != "swarm.gavel.actions" {
		t.Errorf("unexpected SubjectActions %q", SubjectActions)
	}
	if SubjectExploit != "swarm.gavel.contradiction.exploit" {
		t.Errorf("unexpected SubjectExploit %q", SubjectExploit)
	}
}
