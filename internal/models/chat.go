// Package models defines the records exchanged with the chat backend.
package models

import (
	"bytes"
	"encoding/json"
	"strings"
	"unicode/utf8"
)

// Role identifies who authored a message.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// maxTitleRunes is how much of a session title the session list shows.
const maxTitleRunes = 30

// ChatSession is one conversation known to the backend.
type ChatSession struct {
	ID        string    `json:"id" validate:"required"`
	Title     string    `json:"title"`
	CreatedAt Timestamp `json:"created_at"`
}

// DisplayTitle returns the title shown in session lists.
// Untitled sessions fall back to a short form of their ID.
func (s ChatSession) DisplayTitle() string {
	title := strings.TrimSpace(s.Title)
	if title == "" {
		id := s.ID
		if utf8.RuneCountInString(id) > 6 {
			id = string([]rune(id)[:6])
		}
		title = "Chat " + id
	}
	if utf8.RuneCountInString(title) > maxTitleRunes {
		title = string([]rune(title)[:maxTitleRunes])
	}
	return title
}

// Citation marks a span of a message as backed by source documents.
// IDs are unique within a message, not across a transcript.
type Citation struct {
	ID   string `json:"id" validate:"required"`
	Text string `json:"text"`
}

// UnmarshalJSON accepts string or numeric ids and text. Entries that are
// not objects, and fields of any other type, decode as empty so the
// transcript still loads and SanitizeMessages can drop the entry.
func (c *Citation) UnmarshalJSON(data []byte) error {
	*c = Citation{}

	var raw struct {
		ID   json.RawMessage `json:"id"`
		Text json.RawMessage `json:"text"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil
	}
	c.ID = scalarString(raw.ID)
	c.Text = scalarString(raw.Text)
	return nil
}

// scalarString returns a JSON string or number as text, and "" otherwise.
func scalarString(data json.RawMessage) string {
	data = bytes.TrimSpace(data)
	if len(data) == 0 {
		return ""
	}
	switch {
	case data[0] == '"':
		var s string
		if json.Unmarshal(data, &s) == nil {
			return s
		}
	case data[0] == '-' || (data[0] >= '0' && data[0] <= '9'):
		var n json.Number
		if json.Unmarshal(data, &n) == nil {
			return n.String()
		}
	}
	return ""
}

// Message is a single transcript entry.
type Message struct {
	ID        string     `json:"id,omitempty"`
	Role      Role       `json:"role" validate:"required,oneof=user assistant"`
	Content   string     `json:"content"`
	Citations []Citation `json:"citations"`
	Timestamp Timestamp  `json:"timestamp"`
	Link      string     `json:"link,omitempty" validate:"omitempty,url"`
	Model     string     `json:"model,omitempty"`
}

// HasCitations reports whether the message carries any citation records.
func (m Message) HasCitations() bool {
	return len(m.Citations) > 0
}

// Caption returns the "timestamp | model" line shown under a message.
// The model name is only shown for assistant messages.
func (m Message) Caption() string {
	var parts []string
	if ts := m.Timestamp.String(); ts != "" {
		parts = append(parts, ts)
	}
	if m.Role == RoleAssistant && m.Model != "" {
		parts = append(parts, m.Model)
	}
	return strings.Join(parts, " | ")
}

// Document is a source document a citation resolves to.
type Document struct {
	ID    string `json:"id"`
	Title string `json:"title"`
	Text  string `json:"text"`
}

// DisplayTitle returns the heading used when a document is shown.
func (d Document) DisplayTitle() string {
	if d.Title == "" {
		return "Citation Detail"
	}
	return d.Title
}

// DisplayID returns the document ID or a placeholder.
func (d Document) DisplayID() string {
	if d.ID == "" {
		return "N/A"
	}
	return d.ID
}

// DisplayText returns the document body or a placeholder.
func (d Document) DisplayText() string {
	if d.Text == "" {
		return "No content available."
	}
	return d.Text
}
