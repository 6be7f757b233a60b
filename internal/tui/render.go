package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/lipgloss"

	"github.com/SincereJuliya/chatbotgermano/internal/citation"
	"github.com/SincereJuliya/chatbotgermano/internal/models"
	"github.com/SincereJuliya/chatbotgermano/internal/viewer"
)

// Renderer turns transcript records into terminal text.
// With Styled unset the output is plain text suitable for pipes.
type Renderer struct {
	Theme    Theme
	Styled   bool
	Width    int
	markdown *glamour.TermRenderer
}

// NewRenderer creates a renderer wrapping at width. style is a glamour
// standard style name, or "auto" to detect the terminal background.
// Markdown rendering is only used when styled is set.
func NewRenderer(width int, styled bool, style string) *Renderer {
	r := &Renderer{Theme: DefaultTheme, Styled: styled, Width: width}
	if !styled {
		return r
	}

	opts := []glamour.TermRendererOption{glamour.WithStandardStyle(style)}
	if style == "auto" {
		opts = []glamour.TermRendererOption{glamour.WithAutoStyle()}
	}
	if width > 0 {
		opts = append(opts, glamour.WithWordWrap(width))
	}
	md, err := glamour.NewTermRenderer(opts...)
	if err == nil {
		// Fallback to plain text if renderer initialization fails
		r.markdown = md
	}
	return r
}

func (r *Renderer) style(s lipgloss.Style, text string) string {
	if !r.Styled {
		return text
	}
	return s.Render(text)
}

// Transcript renders every message, separated by blank lines.
func (r *Renderer) Transcript(msgs []models.Message) string {
	parts := make([]string, 0, len(msgs))
	for _, m := range msgs {
		parts = append(parts, r.Message(m))
	}
	return strings.Join(parts, "\n\n")
}

// Message renders one message with its citation markers and controls.
func (r *Renderer) Message(m models.Message) string {
	var b strings.Builder

	avatar := "👤"
	if m.Role == models.RoleAssistant {
		avatar = "🤖"
	}
	b.WriteString(r.style(r.Theme.roleStyle(), fmt.Sprintf("%s %s", avatar, m.Role)))
	b.WriteString("\n")

	valid := citation.Valid(m.Citations)
	if len(valid) == 0 {
		b.WriteString(r.plainBody(m.Content))
	} else {
		b.WriteString(r.citedBody(m.Content, valid))
		for _, c := range valid {
			b.WriteString("\n  ")
			b.WriteString(r.style(r.Theme.citationStyle(), citation.Label(c.ID)))
			b.WriteString(" ")
			b.WriteString(r.style(r.Theme.hintStyle(), fmt.Sprintf("View details for '%s'", c.Text)))
		}
	}

	if caption := m.Caption(); caption != "" {
		b.WriteString("\n")
		b.WriteString(r.style(r.Theme.hintStyle(), caption))
	}
	if m.Link != "" {
		b.WriteString("\n🔗 ")
		b.WriteString(m.Link)
	}
	return b.String()
}

// plainBody renders citation-free content as markdown when possible.
func (r *Renderer) plainBody(content string) string {
	if r.markdown == nil {
		return r.wrap(content)
	}
	out, err := r.markdown.Render(content)
	if err != nil {
		return r.wrap(content)
	}
	return strings.Trim(out, "\n")
}

// citedBody renders content with highlighted citation markers. Markdown is
// not applied so markers stay exactly where the backend put them.
func (r *Renderer) citedBody(content string, valid []models.Citation) string {
	var b strings.Builder
	for _, seg := range citation.Segments(content, valid) {
		if seg.IsMarker() {
			b.WriteString(r.style(r.Theme.citationStyle(), seg.Text))
			continue
		}
		b.WriteString(seg.Text)
	}
	return r.wrap(b.String())
}

func (r *Renderer) wrap(s string) string {
	if r.Width <= 0 {
		return s
	}
	return lipgloss.NewStyle().Width(r.Width).Render(s)
}

// Modal renders the citation overlay body for any open phase.
func (r *Renderer) Modal(m viewer.Modal) string {
	var b strings.Builder
	b.WriteString(r.style(r.Theme.titleStyle(), "Citation Details"))
	b.WriteString("\n\n")

	switch m.Phase {
	case viewer.PhaseLoading:
		b.WriteString(r.style(r.Theme.hintStyle(), fmt.Sprintf("Loading citation '%s'...", m.CitationID)))
	case viewer.PhaseReady:
		for i, d := range m.Documents {
			if i > 0 {
				b.WriteString("\n\n")
			}
			b.WriteString(r.style(r.Theme.roleStyle(), d.DisplayTitle()))
			b.WriteString("\n")
			b.WriteString("Document ID: " + d.DisplayID())
			b.WriteString("\nContent:\n")
			for _, line := range strings.Split(r.wrap(d.DisplayText()), "\n") {
				b.WriteString("> " + line + "\n")
			}
		}
	case viewer.PhaseEmpty:
		b.WriteString(r.style(r.Theme.noticeStyle("warning"), m.NotFoundText()))
	}
	return strings.TrimRight(b.String(), "\n")
}
