package viewer

import (
	"fmt"

	"github.com/SincereJuliya/chatbotgermano/internal/bridge"
)

// Action is a user intent applied to a State.
type Action interface {
	actionName() string
}

// LoadSessions fetches the session list and resets the view.
type LoadSessions struct{}

// SelectSession makes a session active and loads its transcript.
type SelectSession struct {
	ID string
}

// CreateSession creates a new session and makes it active.
type CreateSession struct{}

// SubmitMessage sends user text to the active session.
type SubmitMessage struct {
	Text string
}

// SelectCitation opens the modal for a citation in the transcript.
type SelectCitation struct {
	CitationID string
}

// CloseModal closes the citation modal.
type CloseModal struct{}

func (LoadSessions) actionName() string   { return "load_sessions" }
func (SelectSession) actionName() string  { return "select_session" }
func (CreateSession) actionName() string  { return "create_session" }
func (SubmitMessage) actionName() string  { return "submit_message" }
func (SelectCitation) actionName() string { return "select_citation" }
func (CloseModal) actionName() string     { return "close_modal" }

// Name returns a stable identifier for logging.
func Name(a Action) string {
	if a == nil {
		return "none"
	}
	return a.actionName()
}

// ActionFromEvent converts a click-bridge event into the action it requests.
func ActionFromEvent(ev bridge.Event) (Action, error) {
	if err := ev.Validate(); err != nil {
		return nil, err
	}
	return SelectCitation{CitationID: ev.CitationID}, nil
}

// Progress returns the label shown while an action runs.
func Progress(a Action) string {
	switch a := a.(type) {
	case LoadSessions:
		return "Loading chats..."
	case SelectSession:
		return "Loading messages..."
	case CreateSession:
		return "Creating new chat..."
	case SubmitMessage:
		return "Sending..."
	case SelectCitation:
		return fmt.Sprintf("Loading citation '%s'...", a.CitationID)
	default:
		return ""
	}
}

// Pending returns the state to show while a is in flight.
// Only citation selection has a visible intermediate state, the loading modal.
func Pending(st State, a Action) State {
	sel, ok := a.(SelectCitation)
	if !ok || !opensCitation(st, sel.CitationID) {
		return st
	}
	st.Modal = Modal{Phase: PhaseLoading, CitationID: sel.CitationID}
	return st
}

// opensCitation reports whether selecting id would open (or reopen) the modal.
func opensCitation(st State, id string) bool {
	if !st.HasCitation(id) {
		return false
	}
	return !(st.Modal.IsOpen() && st.Modal.CitationID == id)
}
