package viewer

import (
	"errors"
	"fmt"

	"github.com/SincereJuliya/chatbotgermano/internal/models"
)

// ErrInvalidTransition is returned for a modal transition the state machine does not allow.
var ErrInvalidTransition = errors.New("invalid modal transition")

// Phase is the state of the citation modal.
type Phase int

const (
	PhaseClosed Phase = iota
	PhaseLoading
	PhaseReady
	PhaseEmpty
)

func (p Phase) String() string {
	switch p {
	case PhaseClosed:
		return "closed"
	case PhaseLoading:
		return "loading"
	case PhaseReady:
		return "ready"
	case PhaseEmpty:
		return "empty"
	default:
		return fmt.Sprintf("phase(%d)", int(p))
	}
}

// Modal is the citation detail overlay.
// The zero value is a closed modal with no selection.
type Modal struct {
	Phase      Phase
	CitationID string
	Documents  []models.Document
}

// IsOpen reports whether the overlay is shown.
func (m Modal) IsOpen() bool {
	return m.Phase != PhaseClosed
}

// Open selects a citation and starts loading it. Only a closed modal can open.
func (m Modal) Open(citationID string) (Modal, error) {
	if m.Phase != PhaseClosed {
		return m, fmt.Errorf("%w: open %q while %s", ErrInvalidTransition, citationID, m.Phase)
	}
	if citationID == "" {
		return m, fmt.Errorf("%w: open without citation id", ErrInvalidTransition)
	}
	return Modal{Phase: PhaseLoading, CitationID: citationID}, nil
}

// Resolve finishes loading. Non-empty docs make the modal ready, anything
// else makes it empty.
func (m Modal) Resolve(docs []models.Document) (Modal, error) {
	if m.Phase != PhaseLoading {
		return m, fmt.Errorf("%w: resolve while %s", ErrInvalidTransition, m.Phase)
	}
	if len(docs) == 0 {
		return Modal{Phase: PhaseEmpty, CitationID: m.CitationID}, nil
	}
	return Modal{Phase: PhaseReady, CitationID: m.CitationID, Documents: docs}, nil
}

// Close clears the selection and hides the overlay in one step.
func (m Modal) Close() Modal {
	return Modal{}
}

// NotFoundText is shown when a citation resolved to no documents.
func (m Modal) NotFoundText() string {
	return fmt.Sprintf("Could not load details for citation ID '%s'. It might not exist.", m.CitationID)
}
