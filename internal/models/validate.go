package models

import (
	"errors"
	"fmt"

	"github.com/go-playground/validator/v10"
)

// ErrInvalidRecord indicates a backend record failed validation.
var ErrInvalidRecord = errors.New("invalid record")

var validate = validator.New(validator.WithRequiredStructEnabled())

// Problem describes one malformed field that was skipped or defaulted.
type Problem struct {
	Message int // index of the message in the transcript
	Field   string
	Reason  string
}

func (p Problem) String() string {
	return fmt.Sprintf("message %d: %s: %s", p.Message, p.Field, p.Reason)
}

// ValidateSession checks a session record returned by the backend.
func ValidateSession(s ChatSession) error {
	if err := validate.Struct(s); err != nil {
		return fmt.Errorf("%w: session: %v", ErrInvalidRecord, err)
	}
	return nil
}

// SanitizeMessages repairs a fetched transcript instead of rejecting it.
// Citations without an ID are dropped, unknown roles become assistant,
// and malformed links are removed. The input slice is not modified.
func SanitizeMessages(msgs []Message) ([]Message, []Problem) {
	if msgs == nil {
		return nil, nil
	}

	out := make([]Message, len(msgs))
	var problems []Problem
	for i, m := range msgs {
		if err := validate.Var(string(m.Role), "required,oneof=user assistant"); err != nil {
			problems = append(problems, Problem{Message: i, Field: "role", Reason: fmt.Sprintf("unknown role %q", m.Role)})
			m.Role = RoleAssistant
		}

		if m.Link != "" {
			if err := validate.Var(m.Link, "url"); err != nil {
				problems = append(problems, Problem{Message: i, Field: "link", Reason: fmt.Sprintf("not a URL: %q", m.Link)})
				m.Link = ""
			}
		}

		if len(m.Citations) > 0 {
			kept := make([]Citation, 0, len(m.Citations))
			for j, c := range m.Citations {
				if err := validate.Struct(c); err != nil {
					problems = append(problems, Problem{Message: i, Field: fmt.Sprintf("citations[%d]", j), Reason: "missing id"})
					continue
				}
				kept = append(kept, c)
			}
			m.Citations = kept
		}

		out[i] = m
	}
	return out, problems
}
