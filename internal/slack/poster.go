package slack

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/MikeSquared-Agency/gavel/internal/state"
)

const defaultPostMessageURL = "https://slack.com/api/chat.postMessage"

type Poster struct {
	token   string
	channel string
	client  *http.Client
	logger  *slog.Logger
	apiURL  string
}

func NewPoster(token, channel string, logger *slog.Logger) *Poster {
	return &Poster{
		token:   token,
		channel: channel,
		client:  &http.Client{Timeout: 10 * time.Second},
		apiURL:  defaultPostMessageURL,
		logger:  logger,
	}
}

// PostContradictionAlert posts a freshly detected contradiction to the war
// room. Returns the message timestamp (ts) used to match the :dart:
// reaction that marks it exploited.
func (p *Poster) PostContradictionAlert(ctx context.Context, c state.Contradiction) (string, error) {
	text := formatContradiction(c)
	ts, err := p.post(ctx, map[string]any{
		"channel": p.channel,
		"text":    text,
		"blocks": []map[string]any{
			{
				"type": "section",
				"text": map[string]any{"type": "mrkdwn", "text": text},
			},
			{
				"type": "context",
				"elements": []map[string]any{
					{"type": "mrkdwn", "text": "React :dart: once this contradiction has been used at trial."},
				},
			},
		},
	})
	if err != nil {
		return "", err
	}
	p.logger.Info("posted contradiction alert", "ts", ts, "witness", c.Witness, "topic", c.Topic)
	return ts, nil
}

// PostActionAlert posts a P0 action to the war room.
func (p *Poster) PostActionAlert(ctx context.Context, a state.TrialAction) (string, error) {
	ts, err := p.post(ctx, map[string]any{
		"channel": p.channel,
		"text":    formatAction(a),
	})
	if err != nil {
		return "", err
	}
	p.logger.Info("posted action alert", "ts", ts, "type", a.Type, "target", a.Target)
	return ts, nil
}

// PostThread posts a threaded reply to a message.
func (p *Poster) PostThread(ctx context.Context, threadTS, text string) error {
	_, err := p.post(ctx, map[string]any{
		"channel":   p.channel,
		"thread_ts": threadTS,
		"text":      text,
	})
	return err
}

func (p *Poster) post(ctx context.Context, payload map[string]any) (string, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("marshal slack payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.apiURL, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json; charset=utf-8")
	req.Header.Set("Authorization", "Bearer "+p.token)

	resp, err := p.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("slack post: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("read response: %w", err)
	}

	var slackResp struct {
		OK    bool   `json:"ok"`
		TS    string `json:"ts"`
		Error string `json:"error,omitempty"`
	}
	if err := json.Unmarshal(respBody, &slackResp); err != nil {
		return "", fmt.Errorf("parse slack response: %w", err)
	}
	if !slackResp.OK {
		return "", fmt.Errorf("slack error: %s", slackResp.Error)
	}
	return slackResp.TS, nil
}

func formatContradiction(c state.Contradiction) string {
	var sb strings.Builder

	fmt.Fprintf(&sb, "*Contradiction detected — %s on %q* (impeachment: %s)\n", c.Witness, c.Topic, c.ImpeachmentValue)
	fmt.Fprintf(&sb, "Then (%s): %q\n", c.StatementB.Phase, c.StatementB.Text)
	fmt.Fprintf(&sb, "Now (%s): %q\n", c.StatementA.Phase, c.StatementA.Text)
	return sb.String()
}

func formatAction(a state.TrialAction) string {
	var sb strings.Builder

	fmt.Fprintf(&sb, "*[%s] %s → %s* (confidence %.2f)\n", a.Priority, a.Type, a.Target, a.Confidence)
	fmt.Fprintf(&sb, "Suggested: %s\n", a.SuggestedLanguage)
	fmt.Fprintf(&sb, "Why: %s\n", a.Rationale)
	if len(a.EvidenceRefs) > 0 {
		fmt.Fprintf(&sb, "Evidence: %s\n", strings.Join(a.EvidenceRefs, ", "))
	}
	fmt.Fprintf(&sb, "Tradeoff: %s", a.RiskTradeoff)
	return sb.String()
}
