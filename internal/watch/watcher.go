// Package watch owns the poll loop: re-read the feed, slice at the resume
// cursor, run the per-event transition, persist, publish. All blocking
// I/O lives here; the engine itself stays pure.
package watch

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/google/uuid"

	"github.com/MikeSquared-Agency/gavel/internal/engine"
	"github.com/MikeSquared-Agency/gavel/internal/hermes"
	"github.com/MikeSquared-Agency/gavel/internal/slack"
	"github.com/MikeSquared-Agency/gavel/internal/state"
	"github.com/MikeSquared-Agency/gavel/internal/testimony"
)

// Publisher pushes payloads to the mesh. *hermes.Client satisfies it.
type Publisher interface {
	Publish(subject string, data any) error
}

// Archiver mirrors records to the optional Postgres archive.
type Archiver interface {
	ArchiveContradiction(ctx context.Context, sessionID uuid.UUID, c state.Contradiction) error
	ArchiveAction(ctx context.Context, sessionID uuid.UUID, a state.TrialAction) error
	UpsertWitness(ctx context.Context, sessionID uuid.UUID, name string, credibility int) error
}

// Alerter posts war-room alerts. *slack.Poster satisfies it.
type Alerter interface {
	PostContradictionAlert(ctx context.Context, c state.Contradiction) (string, error)
	PostActionAlert(ctx context.Context, a state.TrialAction) (string, error)
}

const saveAttempts = 3

type Watcher struct {
	source   *testimony.Source
	store    *state.FileStore
	engine   *engine.Engine
	pub      Publisher
	archive  Archiver
	alerts   Alerter
	interval time.Duration
	logger   *slog.Logger

	// exploitCh funnels exploit marks from NATS/Slack handler goroutines
	// into the single-writer loop; they are drained at the top of each
	// cycle so the loop remains the only mutator of the state.
	exploitCh chan uuid.UUID
	// alertTS maps a posted contradiction alert's Slack ts to the
	// contradiction id, for reaction matching.
	alertTS map[string]uuid.UUID

	// warnedThrough is the highest feed line already reported as skipped,
	// so re-reads do not repeat warnings.
	warnedThrough int
	// WarningCount is the total number of skipped feed lines observed.
	WarningCount int
}

func New(source *testimony.Source, store *state.FileStore, eng *engine.Engine, interval time.Duration, logger *slog.Logger) *Watcher {
	return &Watcher{
		source:    source,
		store:     store,
		engine:    eng,
		interval:  interval,
		logger:    logger,
		exploitCh: make(chan uuid.UUID, 64),
		alertTS:   make(map[string]uuid.UUID),
	}
}

// SetPublisher wires the mesh client. Optional.
func (w *Watcher) SetPublisher(p Publisher) { w.pub = p }

// SetArchiver wires the Postgres archive. Optional.
func (w *Watcher) SetArchiver(a Archiver) { w.archive = a }

// SetAlerter wires the Slack poster. Optional.
func (w *Watcher) SetAlerter(a Alerter) { w.alerts = a }

// Run loads (or creates) the session state and polls the feed until the
// context is cancelled. The four fatal conditions are a corrupt state
// store, an unreadable state store, a truncated feed, and a persistence
// failure that survives retries; everything else is logged and retried on
// the next poll.
func (w *Watcher) Run(ctx context.Context) error {
	st, err := w.store.Load()
	if err != nil {
		// Corrupt state is fatal: falling back to a fresh session would
		// erase audit history.
		return fmt.Errorf("load state: %w", err)
	}
	if st == nil {
		st = state.New()
		w.logger.Info("starting fresh session", "session_id", st.SessionID)
	} else {
		w.logger.Info("resuming session",
			"session_id", st.SessionID,
			"events_processed", st.EventsProcessed,
			"momentum", st.MomentumScore,
		)
	}

	for {
		if err := w.Cycle(ctx, st); err != nil {
			return err
		}

		select {
		case <-ctx.Done():
			// Flush before terminating so nothing is processed only in
			// memory.
			if err := w.saveWithRetry(st); err != nil {
				return fmt.Errorf("final flush: %w", err)
			}
			w.logger.Info("watcher stopped", "events_processed", st.EventsProcessed)
			return ctx.Err()
		case <-time.After(w.interval):
		}
	}
}

// Cycle performs one poll pass: apply queued exploit marks, read the
// feed, process events past the cursor one at a time with per-event
// persistence, then publish the batch.
func (w *Watcher) Cycle(ctx context.Context, st *state.TrialState) error {
	if w.applyExploits(st) {
		if err := w.saveWithRetry(st); err != nil {
			return err
		}
	}

	events, warnings, err := w.source.ReadAll()
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			w.logger.Debug("feed not present yet")
			return nil
		}
		// Unavailable source is recoverable; retry next poll.
		w.logger.Warn("feed read failed", "error", err)
		return nil
	}
	w.reportWarnings(warnings)

	if len(events) < st.EventsProcessed {
		return fmt.Errorf("feed shrank below cursor: %d events, cursor %d (append-only feed required)",
			len(events), st.EventsProcessed)
	}
	pending := events[st.EventsProcessed:]
	if len(pending) == 0 {
		return nil
	}

	actions, contradictions, witnesses, err := w.processEvents(ctx, st, pending)
	if err != nil {
		return err
	}

	w.publishBatch(ctx, st, actions, contradictions, witnesses)
	return nil
}

// processEvents runs the transition over a slice of new feed events. The
// cursor advances for every offered event, accepted or rejected: pending
// was sliced at events_processed, so a rejected event that did not count
// would shift every later event's offset and re-offer the last one next
// cycle.
func (w *Watcher) processEvents(ctx context.Context, st *state.TrialState, pending []testimony.Event) ([]state.TrialAction, []state.Contradiction, map[string]bool, error) {
	var batchActions []state.TrialAction
	var batchContradictions []state.Contradiction
	batchWitnesses := make(map[string]bool)

	for _, evt := range pending {
		select {
		case <-ctx.Done():
			return batchActions, batchContradictions, batchWitnesses, nil // Run flushes on the way out
		default:
		}

		priorContradictions := len(st.Contradictions)
		res, err := w.engine.Process(st, evt)
		if err != nil {
			// The source pre-validates, so a rejection here should not
			// happen; count it as a skipped record so the cursor stays
			// aligned with the feed.
			w.logger.Warn("event rejected", "error", err, "speaker", evt.SpeakerName)
			w.WarningCount++
			st.EventsProcessed++
			if err := w.saveWithRetry(st); err != nil {
				return batchActions, batchContradictions, batchWitnesses, err
			}
			continue
		}

		if err := w.saveWithRetry(st); err != nil {
			return batchActions, batchContradictions, batchWitnesses, err
		}

		batchContradictions = append(batchContradictions, st.Contradictions[priorContradictions:]...)
		batchActions = append(batchActions, res.Actions...)
		if evt.SpeakerRole == testimony.RoleWitness {
			batchWitnesses[evt.SpeakerName] = true
		}
		for _, change := range res.Changes {
			w.logger.Info("state change", "session_id", st.SessionID, "detail", change)
		}
	}

	return batchActions, batchContradictions, batchWitnesses, nil
}

// applyExploits drains queued exploit marks. Returns true if any state
// changed.
func (w *Watcher) applyExploits(st *state.TrialState) bool {
	changed := false
	for {
		select {
		case id := <-w.exploitCh:
			if w.engine.MarkExploited(st, id) {
				w.logger.Info("contradiction marked exploited", "contradiction_id", id)
				changed = true
			} else {
				w.logger.Warn("exploit mark for unknown contradiction", "contradiction_id", id)
			}
		default:
			return changed
		}
	}
}

func (w *Watcher) reportWarnings(warnings []testimony.Warning) {
	for _, warn := range warnings {
		if warn.Line <= w.warnedThrough {
			continue
		}
		w.logger.Warn("skipped feed line", "line", warn.Line, "reason", warn.Reason)
		w.WarningCount++
		if warn.Line > w.warnedThrough {
			w.warnedThrough = warn.Line
		}
	}
}

func (w *Watcher) saveWithRetry(st *state.TrialState) error {
	var err error
	for attempt := 1; attempt <= saveAttempts; attempt++ {
		if err = w.store.Save(st); err == nil {
			return nil
		}
		w.logger.Warn("state save failed", "attempt", attempt, "error", err)
		time.Sleep(time.Duration(attempt) * 500 * time.Millisecond)
	}
	return fmt.Errorf("persist state after %d attempts: %w", saveAttempts, err)
}

func (w *Watcher) publishBatch(ctx context.Context, st *state.TrialState, actions []state.TrialAction, contradictions []state.Contradiction, witnesses map[string]bool) {
	if len(actions) == 0 && len(contradictions) == 0 && len(witnesses) == 0 {
		return
	}

	if w.pub != nil {
		if err := w.pub.Publish(hermes.SubjectStateUpdated, hermes.StateUpdate{
			SessionID:       st.SessionID.String(),
			EventsProcessed: st.EventsProcessed,
			MomentumScore:   st.MomentumScore,
			MomentumTrend:   string(st.MomentumTrend),
			Contradictions:  len(st.Contradictions),
			PendingActions:  len(st.PendingActions),
		}); err != nil {
			w.logger.Warn("failed to publish state update", "error", err)
		}
		if len(actions) > 0 {
			if err := w.pub.Publish(hermes.SubjectActions, map[string]any{
				"session_id": st.SessionID.String(),
				"actions":    actions,
			}); err != nil {
				w.logger.Warn("failed to publish actions", "error", err)
			}
		}
		for _, c := range contradictions {
			if err := w.pub.Publish(hermes.SubjectContradiction, c); err != nil {
				w.logger.Warn("failed to publish contradiction", "error", err)
			}
		}
	}

	if w.archive != nil {
		for _, c := range contradictions {
			if err := w.archive.ArchiveContradiction(ctx, st.SessionID, c); err != nil {
				w.logger.Warn("archive contradiction failed", "error", err)
			}
		}
		for _, a := range actions {
			if err := w.archive.ArchiveAction(ctx, st.SessionID, a); err != nil {
				w.logger.Warn("archive action failed", "error", err)
			}
		}
		for name := range witnesses {
			if score, ok := st.WitnessCredibility[name]; ok {
				if err := w.archive.UpsertWitness(ctx, st.SessionID, name, score); err != nil {
					w.logger.Warn("archive witness failed", "error", err)
				}
			}
		}
	}

	if w.alerts != nil {
		for _, c := range contradictions {
			ts, err := w.alerts.PostContradictionAlert(ctx, c)
			if err != nil {
				w.logger.Warn("contradiction alert failed", "error", err)
				continue
			}
			w.alertTS[ts] = c.ID
		}
		for _, a := range actions {
			if a.Priority != state.PriorityP0 {
				continue
			}
			if _, err := w.alerts.PostActionAlert(ctx, a); err != nil {
				w.logger.Warn("action alert failed", "error", err)
			}
		}
	}
}

// HandleExploit is the NATS handler for direct exploit marks.
func (w *Watcher) HandleExploit(subject string, data []byte) {
	var mark hermes.ExploitMark
	if err := json.Unmarshal(data, &mark); err != nil {
		w.logger.Warn("failed to parse exploit mark", "error", err)
		return
	}
	id, err := uuid.Parse(mark.ContradictionID)
	if err != nil {
		w.logger.Warn("invalid contradiction id in exploit mark", "id", mark.ContradictionID)
		return
	}
	w.enqueueExploit(id)
}

// HandleReaction maps a :dart: reaction on a posted contradiction alert
// to an exploit mark.
func (w *Watcher) HandleReaction(subject string, data []byte) {
	evt, err := slack.ParseReactionEvent(data)
	if err != nil {
		w.logger.Warn("failed to parse reaction", "error", err)
		return
	}
	if !slack.IsExploitReaction(evt.Reaction) {
		return
	}
	id, ok := w.alertTS[evt.MessageTS]
	if !ok {
		return // not a message we posted
	}
	w.enqueueExploit(id)
}

func (w *Watcher) enqueueExploit(id uuid.UUID) {
	select {
	case w.exploitCh <- id:
	default:
		w.logger.Warn("exploit queue full, dropping mark", "contradiction_id", id)
	}
}
