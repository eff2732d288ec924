// Package hermes is the NATS mesh client. Gavel publishes state summaries
// and action batches for downstream renderers and listens for exploit
// marks coming back from the trial team.
package hermes

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/nats-io/nats.go"
)

const (
	// SubjectStateUpdated carries a StateUpdate after each processed batch.
	SubjectStateUpdated = "swarm.gavel.state.updated"
	// SubjectActions carries an ActionBatch of newly generated actions.
	SubjectActions = "swarm.gavel.actions"
	// SubjectContradiction announces each freshly detected contradiction.
	SubjectContradiction = "swarm.gavel.contradiction.detected"
	// SubjectExploit is the inbound mark that a contradiction was used.
	SubjectExploit = "swarm.gavel.contradiction.exploit"
	// SubjectReaction is the slack-forwarder reaction feed.
	SubjectReaction = "swarm.slack.reaction"
)

// StateUpdate is the per-batch summary published to the mesh.
type StateUpdate struct {
	SessionID       string `json:"session_id"`
	EventsProcessed int    `json:"events_processed"`
	MomentumScore   int    `json:"momentum_score"`
	MomentumTrend   string `json:"momentum_trend"`
	Contradictions  int    `json:"contradictions"`
	PendingActions  int    `json:"pending_actions"`
}

// ExploitMark is the inbound payload naming a contradiction the team has
// used at trial.
type ExploitMark struct {
	SessionID       string `json:"session_id"`
	ContradictionID string `json:"contradiction_id"`
}

type Client struct {
	conn   *nats.Conn
	subs   []*nats.Subscription
	logger *slog.Logger
}

func NewClient(ctx context.Context, url, token string, logger *slog.Logger) (*Client, error) {
	opts := []nats.Option{
		nats.RetryOnFailedConnect(true),
		nats.MaxReconnects(60),
		nats.ReconnectWait(2 * time.Second),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			if err != nil {
				logger.Warn("nats disconnected", "error", err)
			}
		}),
		nats.ReconnectHandler(func(_ *nats.Conn) {
			logger.Info("nats reconnected")
		}),
	}
	if token != "" {
		opts = append(opts, nats.Token(token))
	}

	nc, err := nats.Connect(url, opts...)
	if err != nil {
		return nil, fmt.Errorf("nats connect: %w", err)
	}

	return &Client{conn: nc, logger: logger}, nil
}

func (c *Client) Publish(subject string, data any) error {
	payload, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("marshal payload: %w", err)
	}
	return c.conn.Publish(subject, payload)
}

func (c *Client) Subscribe(subject string, handler func(subject string, data []byte)) error {
	sub, err := c.conn.Subscribe(subject, func(msg *nats.Msg) {
		handler(msg.Subject, msg.Data)
	})
	if err != nil {
		return fmt.Errorf("subscribe %s: %w", subject, err)
	}
	c.subs = append(c.subs, sub)
	c.logger.Info("subscribed", "subject", subject)
	return nil
}

func (c *Client) Close() {
	for _, sub := range c.subs {
		_ = sub.Unsubscribe()
	}
	c.conn.Close()
}
