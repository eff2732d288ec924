package slack

import (
	"encoding/json"
	"testing"
)

func TestIsExploitReaction(t *testing.T) {
	tests := []struct {
		name     string
		reaction string
		want     bool
	}{
		{"dart", "dart", true},
		{"check mark", "white_check_mark", true},
		{"thumbsup is not an exploit mark", "+1", false},
		{"unknown", "heart", false},
		{"empty", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsExploitReaction(tt.reaction); got != tt.want {
				t.Errorf("IsExploitReaction(%q) = %v, want %v", tt.reaction, got, tt.want)
			}
		})
	}
}

func TestParseReactionEvent(t *testing.T) {
	tests := []struct {
		name     string
		metadata map[string]string
		wantReac string
		wantUser string
		wantTS   string
	}{
		{
			name: "colon wrapped",
			metadata: map[string]string{
				"text":       ":dart:",
				"user_id":    "U123",
				"channel_id": "C456",
				"message_ts": "1234567890.123456",
			},
			wantReac: "dart",
			wantUser: "U123",
			wantTS:   "1234567890.123456",
		},
		{
			name: "no colons",
			metadata: map[string]string{
				"text":       "dart",
				"user_id":    "U777",
				"channel_id": "C456",
				"message_ts": "1234567890.999999",
			},
			wantReac: "dart",
			wantUser: "U777",
			wantTS:   "1234567890.999999",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			payload, err := json.Marshal(map[string]any{"metadata": tt.metadata})
			if err != nil {
				t.Fatalf("marshal: %v", err)
			}

			evt, err := ParseReactionEvent(payload)
			if err != nil {
				t.Fatalf("ParseReactionEvent failed: %v", err)
			}
			if evt.Reaction != tt.wantReac {
				t.Errorf("reaction = %q, want %q", evt.Reaction, tt.wantReac)
			}
			if evt.UserID != tt.wantUser {
				t.Errorf("user = %q, want %q", evt.UserID, tt.wantUser)
			}
			if evt.MessageTS != tt.wantTS {
				t.Errorf("ts = %q, want %q", evt.MessageTS, tt.wantTS)
			}
		})
	}
}

func TestParseReactionEvent_BadPayload(t *testing.T) {
	if _, err := ParseReactionEvent([]byte("{broken")); err == nil {
		t.Fatal("expected error for malformed payload")
	}
}
