package testimony

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"time"
)

// rawEvent mirrors the feed line schema. Unknown extra fields are ignored
// by encoding/json, which is the forward-compatibility contract.
type rawEvent struct {
	Timestamp         string   `json:"timestamp"`
	SpeakerRole       string   `json:"speaker_role"`
	SpeakerName       string   `json:"speaker_name"`
	Phase             string   `json:"phase"`
	Text              string   `json:"text"`
	ExhibitRefs       []string `json:"exhibit_refs"`
	TopicTags         []string `json:"topic_tags"`
	CredibilitySignal string   `json:"credibility_signal"`
	ObjectionCategory string   `json:"objection_category"`
	PrejudiceRisk     bool     `json:"prejudice_risk"`
}

func (r rawEvent) toEvent() (Event, error) {
	if r.Timestamp == "" {
		return Event{}, fmt.Errorf("missing timestamp")
	}
	ts, err := time.Parse(time.RFC3339Nano, r.Timestamp)
	if err != nil {
		ts, err = time.Parse(time.RFC3339, r.Timestamp)
	}
	if err != nil {
		return Event{}, fmt.Errorf("bad timestamp %q: %w", r.Timestamp, err)
	}
	evt := Event{
		Timestamp:         ts,
		SpeakerRole:       SpeakerRole(r.SpeakerRole),
		SpeakerName:       r.SpeakerName,
		Phase:             Phase(r.Phase),
		Text:              r.Text,
		ExhibitRefs:       r.ExhibitRefs,
		TopicTags:         r.TopicTags,
		Signal:            Signal(r.CredibilitySignal),
		ObjectionCategory: r.ObjectionCategory,
		PrejudiceRisk:     r.PrejudiceRisk,
	}
	if err := evt.Validate(); err != nil {
		return Event{}, err
	}
	return evt, nil
}

// Warning reports a feed line that failed to parse as a valid event.
type Warning struct {
	Line   int
	Reason string
}

// Source reads a testimony JSONL feed. Each ReadAll returns the full
// sequence present in the file at call time; the caller slices at its own
// cursor. File order is the only ordering guarantee.
type Source struct {
	path string
}

func NewSource(path string) *Source {
	return &Source{path: path}
}

// ReadAll parses every line of the feed. Lines that are not valid events
// are skipped and reported as warnings, never as errors; a missing feed
// file surfaces as an os.ErrNotExist error the caller may treat as
// "nothing yet".
func (s *Source) ReadAll() ([]Event, []Warning, error) {
	f, err := os.Open(s.path)
	if err != nil {
		return nil, nil, fmt.Errorf("open feed: %w", err)
	}
	defer f.Close()

	var events []Event
	var warnings []Warning

	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 1024*1024), 10*1024*1024) // 10MB line buffer
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}

		var raw rawEvent
		if err := json.Unmarshal(line, &raw); err != nil {
			warnings = append(warnings, Warning{Line: lineNo, Reason: fmt.Sprintf("malformed json: %v", err)})
			continue
		}
		evt, err := raw.toEvent()
		if err != nil {
			warnings = append(warnings, Warning{Line: lineNo, Reason: err.Error()})
			continue
		}
		events = append(events, evt)
	}
	if err := scanner.Err(); err != nil {
		return nil, nil, fmt.Errorf("scan feed: %w", err)
	}

	return events, warnings, nil
}
