// Package bridge connects citation markers rendered inside an isolated
// surface to the view that owns the application state.
//
// The isolated surface never touches application state. When a marker is
// clicked it posts an Event to its parent; the parent checks that a
// matching action control (keyed by TriggerKey) is on screen and turns the
// event into a citation selection. Events without a matching control are
// dropped.
package bridge

import (
	"encoding/json"
	"errors"
	"fmt"
)

// EventCitationClick is the only event type the isolated surface emits.
const EventCitationClick = "citation_click"

var (
	// ErrUnknownEvent indicates a message that is not a bridge event.
	ErrUnknownEvent = errors.New("unknown bridge event")

	// ErrMissingCitation indicates a citation click without a citation ID.
	ErrMissingCitation = errors.New("citation click without citation id")
)

// Event is posted from the isolated surface to its parent.
type Event struct {
	Type       string `json:"type"`
	CitationID string `json:"citation_id"`
}

// CitationClick builds the event for a click on the marker of id.
func CitationClick(id string) Event {
	return Event{Type: EventCitationClick, CitationID: id}
}

// ParseEvent decodes and validates a posted event.
func ParseEvent(data []byte) (Event, error) {
	var ev Event
	if err := json.Unmarshal(data, &ev); err != nil {
		return Event{}, fmt.Errorf("decode bridge event: %w", err)
	}
	if err := ev.Validate(); err != nil {
		return Event{}, err
	}
	return ev, nil
}

// Validate checks the event type and payload.
func (e Event) Validate() error {
	if e.Type != EventCitationClick {
		return fmt.Errorf("%w: %q", ErrUnknownEvent, e.Type)
	}
	if e.CitationID == "" {
		return ErrMissingCitation
	}
	return nil
}

// TriggerKey is the key of the action control for a citation.
func TriggerKey(citationID string) string {
	return "trigger-button-" + citationID
}
