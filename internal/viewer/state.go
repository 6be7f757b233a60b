// Package viewer holds the state of a chat transcript view and the actions
// that change it.
//
// State is a plain value. Every user action goes through Engine.Apply,
// which performs the backend calls the action needs and returns the next
// State. Views are derived from State alone.
package viewer

import (
	"errors"
	"fmt"

	"github.com/SincereJuliya/chatbotgermano/internal/cache"
	"github.com/SincereJuliya/chatbotgermano/internal/citation"
	"github.com/SincereJuliya/chatbotgermano/internal/models"
)

// NoticeLevel is the severity of a notice.
type NoticeLevel int

const (
	NoticeInfo NoticeLevel = iota
	NoticeWarning
	NoticeError
)

func (l NoticeLevel) String() string {
	switch l {
	case NoticeWarning:
		return "warning"
	case NoticeError:
		return "error"
	default:
		return "info"
	}
}

// Notice is a one-line message produced by the last action.
type Notice struct {
	Level NoticeLevel
	Text  string
}

// State is everything a view shows.
//
// Sessions keeps backend insertion order. Messages always belong to
// ActiveSessionID. Notices only describe the most recent action.
type State struct {
	Sessions        []models.ChatSession
	ActiveSessionID string
	Messages        []models.Message
	Modal           Modal
	Notices         []Notice

	// Documents caches resolved citations for the active session.
	// It is replaced, never shared, when the active session changes.
	Documents *cache.DocumentCache
}

// Session looks up a session by ID.
func (s State) Session(id string) (models.ChatSession, bool) {
	for _, sess := range s.Sessions {
		if sess.ID == id {
			return sess, true
		}
	}
	return models.ChatSession{}, false
}

// ActiveSession returns the active session, if any.
func (s State) ActiveSession() (models.ChatSession, bool) {
	if s.ActiveSessionID == "" {
		return models.ChatSession{}, false
	}
	return s.Session(s.ActiveSessionID)
}

// Citation finds a citation rendered in the active transcript.
// The first message carrying the ID wins.
func (s State) Citation(id string) (models.Citation, bool) {
	if id == "" {
		return models.Citation{}, false
	}
	for _, m := range s.Messages {
		for _, c := range citation.Valid(m.Citations) {
			if c.ID == id {
				return c, true
			}
		}
	}
	return models.Citation{}, false
}

// HasCitation reports whether the transcript shows an action control for id.
func (s State) HasCitation(id string) bool {
	_, ok := s.Citation(id)
	return ok
}

// Validate checks the invariants every State returned by Apply holds.
func (s State) Validate() error {
	var errs []error

	switch s.Modal.Phase {
	case PhaseClosed:
		if s.Modal.CitationID != "" || len(s.Modal.Documents) > 0 {
			errs = append(errs, errors.New("closed modal keeps a selection"))
		}
	case PhaseLoading, PhaseEmpty:
		if s.Modal.CitationID == "" {
			errs = append(errs, fmt.Errorf("%s modal without citation", s.Modal.Phase))
		}
		if len(s.Modal.Documents) > 0 {
			errs = append(errs, fmt.Errorf("%s modal holds documents", s.Modal.Phase))
		}
	case PhaseReady:
		if s.Modal.CitationID == "" {
			errs = append(errs, errors.New("ready modal without citation"))
		}
		if len(s.Modal.Documents) == 0 {
			errs = append(errs, errors.New("ready modal without documents"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown modal phase %d", int(s.Modal.Phase)))
	}

	if s.ActiveSessionID != "" {
		if _, ok := s.Session(s.ActiveSessionID); !ok {
			errs = append(errs, fmt.Errorf("active session %q is not listed", s.ActiveSessionID))
		}
	} else if len(s.Messages) > 0 {
		errs = append(errs, errors.New("messages without an active session"))
	}

	if s.Documents == nil {
		errs = append(errs, errors.New("missing document cache"))
	}

	return errors.Join(errs...)
}

func (s *State) notify(level NoticeLevel, format string, args ...any) {
	s.Notices = append(s.Notices, Notice{Level: level, Text: fmt.Sprintf(format, args...)})
}
