package web

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"math"

	"github.com/SincereJuliya/chatbotgermano/internal/bridge"
	"github.com/SincereJuliya/chatbotgermano/internal/citation"
	"github.com/SincereJuliya/chatbotgermano/internal/models"
	"github.com/SincereJuliya/chatbotgermano/internal/viewer"
)

//go:embed templates/*.html
var templateFS embed.FS

var templates = template.Must(template.ParseFS(templateFS, "templates/*.html"))

// PageView is the data for the page shell.
type PageView struct {
	Title         string
	TriggerPrefix string
}

// StateView is everything the view fragment shows, derived from a State.
type StateView struct {
	Sessions    []SessionView
	HasActive   bool
	ActiveTitle string
	Messages    []MessageView
	Notices     []NoticeView
	Modal       *ModalView
	Busy        string
}

// SessionView is one entry in the session list.
type SessionView struct {
	ID      string
	Title   string
	Created string
	Active  bool
}

// MessageView is one transcript entry.
type MessageView struct {
	Role     string
	Avatar   string
	Content  string
	Surface  string
	Height   int
	Controls []ControlView
	Caption  string
	Link     string
}

// ControlView is the action control for one citation.
type ControlView struct {
	Key        string
	CitationID string
	Label      string
	Help       string
}

// NoticeView is one notice line.
type NoticeView struct {
	Level string
	Text  string
}

// ModalView is the citation overlay.
type ModalView struct {
	CitationID string
	Loading    bool
	Documents  []DocumentView
	NotFound   string
}

// DocumentView is one document in the overlay.
type DocumentView struct {
	Title string
	ID    string
	Text  string
}

// BuildView derives the view data from st.
func BuildView(st viewer.State, layout bridge.Layout, busy string) StateView {
	v := StateView{Busy: busy}

	for _, s := range st.Sessions {
		v.Sessions = append(v.Sessions, SessionView{
			ID:      s.ID,
			Title:   s.DisplayTitle(),
			Created: s.CreatedAt.String(),
			Active:  s.ID == st.ActiveSessionID,
		})
	}

	if active, ok := st.ActiveSession(); ok {
		v.HasActive = true
		v.ActiveTitle = active.DisplayTitle()
	}

	for _, m := range st.Messages {
		v.Messages = append(v.Messages, buildMessage(m, layout))
	}

	for _, n := range st.Notices {
		v.Notices = append(v.Notices, NoticeView{Level: n.Level.String(), Text: n.Text})
	}

	if st.Modal.IsOpen() {
		v.Modal = buildModal(st.Modal)
	}
	return v
}

func buildMessage(m models.Message, layout bridge.Layout) MessageView {
	mv := MessageView{
		Role:    string(m.Role),
		Avatar:  "👤",
		Content: m.Content,
		Caption: m.Caption(),
		Link:    m.Link,
	}
	if m.Role == models.RoleAssistant {
		mv.Avatar = "🤖"
	}

	valid := citation.Valid(m.Citations)
	if len(valid) == 0 {
		return mv
	}

	mv.Surface = bridge.Surface(citation.FormatHTML(m.Content, valid), layout)
	mv.Height = surfaceHeight(m.Content, layout)
	for _, c := range valid {
		mv.Controls = append(mv.Controls, ControlView{
			Key:        bridge.TriggerKey(c.ID),
			CitationID: c.ID,
			Label:      citation.Label(c.ID),
			Help:       fmt.Sprintf("View details for '%s'", c.Text),
		})
	}
	return mv
}

// surfaceHeight is the estimated height, raised to at least one line so a
// short message stays visible. The result never exceeds MaxHeight, so a
// zero MaxHeight hides the surface.
func surfaceHeight(content string, layout bridge.Layout) int {
	if layout.MaxHeight <= 0 {
		return 0
	}
	h := layout.EstimateHeight(content)
	line := int(math.Ceil(float64(layout.FontSize) * layout.LineHeight))
	if h < line {
		h = line
	}
	return min(h, layout.MaxHeight)
}

func buildModal(m viewer.Modal) *ModalView {
	mv := &ModalView{CitationID: m.CitationID}
	switch m.Phase {
	case viewer.PhaseLoading:
		mv.Loading = true
	case viewer.PhaseReady:
		for _, d := range m.Documents {
			mv.Documents = append(mv.Documents, DocumentView{
				Title: d.DisplayTitle(),
				ID:    d.DisplayID(),
				Text:  d.DisplayText(),
			})
		}
	case viewer.PhaseEmpty:
		mv.NotFound = m.NotFoundText()
	}
	return mv
}

// Render produces the view fragment for st.
func Render(st viewer.State, layout bridge.Layout, busy string) (string, error) {
	var buf bytes.Buffer
	if err := templates.ExecuteTemplate(&buf, "view.html", BuildView(st, layout, busy)); err != nil {
		return "", fmt.Errorf("render view: %w", err)
	}
	return buf.String(), nil
}

// RenderPage produces the page shell that connects to the websocket.
func RenderPage(title string) ([]byte, error) {
	var buf bytes.Buffer
	page := PageView{Title: title, TriggerPrefix: bridge.TriggerKey("")}
	if err := templates.ExecuteTemplate(&buf, "page.html", page); err != nil {
		return nil, fmt.Errorf("render page: %w", err)
	}
	return buf.Bytes(), nil
}
