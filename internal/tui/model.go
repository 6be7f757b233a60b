// Package tui is the full-screen terminal view of the transcript viewer.
//
// Actions run in a tea.Cmd against a snapshot of the current state; the
// result comes back as an actionDoneMsg. While an action is in flight,
// further actions are queued so they apply one at a time, in order.
// Citation selection goes through a bridge.Event message, the same
// boundary the browser view uses.
package tui

import (
	"context"
	"fmt"
	"strings"

	"charm.land/bubbles/v2/textarea"
	"charm.land/bubbles/v2/viewport"
	tea "charm.land/bubbletea/v2"
	"github.com/charmbracelet/lipgloss"

	"github.com/SincereJuliya/chatbotgermano/internal/bridge"
	"github.com/SincereJuliya/chatbotgermano/internal/citation"
	"github.com/SincereJuliya/chatbotgermano/internal/models"
	"github.com/SincereJuliya/chatbotgermano/internal/viewer"
)

const (
	sidebarWidth = 36
	inputHeight  = 3
	maxTitle     = 30
)

type focusArea int

const (
	focusSidebar focusArea = iota
	focusCitations
	focusInput
)

// actionDoneMsg carries the state produced by an applied action.
type actionDoneMsg struct {
	state viewer.State
}

// Model is the bubbletea model for the terminal viewer.
type Model struct {
	ctx    context.Context
	engine *viewer.Engine

	state   viewer.State // last applied state
	shown   viewer.State // what is on screen, possibly a pending preview
	busy    string
	pending []viewer.Action

	focus          focusArea
	sessionCursor  int
	citationCursor int

	viewport viewport.Model
	input    textarea.Model
	renderer *Renderer
	theme    Theme

	width, height int
	quitting      bool
}

// New creates a model that will load the session list on start.
func New(ctx context.Context, engine *viewer.Engine) Model {
	ta := textarea.New()
	ta.Placeholder = "Type your message here..."
	ta.CharLimit = 0
	ta.SetHeight(inputHeight)
	ta.ShowLineNumbers = false
	ta.Prompt = ""

	vp := viewport.New()
	vp.MouseWheelEnabled = true

	st := engine.NewState()
	return Model{
		ctx:      ctx,
		engine:   engine,
		state:    st,
		shown:    st,
		busy:     viewer.Progress(viewer.LoadSessions{}),
		focus:    focusSidebar,
		viewport: vp,
		input:    ta,
		renderer: NewRenderer(0, true, "dark"),
		theme:    DefaultTheme,
	}
}

// State returns the last applied state.
func (m Model) State() viewer.State {
	return m.state
}

// Init loads the session list.
func (m Model) Init() tea.Cmd {
	return m.apply(m.state, viewer.LoadSessions{})
}

// apply runs a against st outside the update loop.
func (m Model) apply(st viewer.State, a viewer.Action) tea.Cmd {
	ctx, engine := m.ctx, m.engine
	return func() tea.Msg {
		return actionDoneMsg{state: engine.Apply(ctx, st, a)}
	}
}

// dispatch starts a, or queues it behind the action in flight.
func (m Model) dispatch(a viewer.Action) (Model, tea.Cmd) {
	if m.busy != "" {
		m.pending = append(m.pending, a)
		return m, nil
	}
	m.busy = viewer.Progress(a)
	if m.busy == "" {
		m.busy = "Working..."
	}
	m.shown = viewer.Pending(m.state, a)
	m.refresh(false)
	return m, m.apply(m.state, a)
}

// Update handles messages and returns the updated model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		m.resize()
		return m, nil

	case actionDoneMsg:
		prevActive, prevCount := m.state.ActiveSessionID, len(m.state.Messages)
		m.state = msg.state
		m.shown = msg.state
		m.busy = ""
		m.clampCursors()
		m.refresh(m.state.ActiveSessionID != prevActive || len(m.state.Messages) != prevCount)

		if len(m.pending) > 0 {
			next := m.pending[0]
			m.pending = m.pending[1:]
			return m.dispatch(next)
		}
		return m, nil

	case bridge.Event:
		a, err := viewer.ActionFromEvent(msg)
		if err != nil {
			return m, nil
		}
		return m.dispatch(a)

	case tea.KeyPressMsg:
		return m.handleKey(msg)
	}

	var cmd tea.Cmd
	m.viewport, cmd = m.viewport.Update(msg)
	return m, cmd
}

func (m Model) handleKey(msg tea.KeyPressMsg) (tea.Model, tea.Cmd) {
	key := msg.String()

	if key == "ctrl+c" {
		m.quitting = true
		return m, tea.Quit
	}

	// The modal takes every key while it is open.
	if m.shown.Modal.IsOpen() {
		switch key {
		case "esc", "enter", "q":
			if m.shown.Modal.Phase != viewer.PhaseLoading {
				return m.dispatch(viewer.CloseModal{})
			}
		}
		return m, nil
	}

	switch key {
	case "tab":
		m.setFocus((m.focus + 1) % 3)
		return m, nil
	case "shift+tab":
		m.setFocus((m.focus + 2) % 3)
		return m, nil
	case "ctrl+n":
		return m.dispatch(viewer.CreateSession{})
	case "pgup", "pgdown":
		var cmd tea.Cmd
		m.viewport, cmd = m.viewport.Update(msg)
		return m, cmd
	}

	switch m.focus {
	case focusSidebar:
		return m.handleSidebarKey(key)
	case focusCitations:
		return m.handleCitationKey(key)
	default:
		return m.handleInputKey(msg)
	}
}

func (m Model) handleSidebarKey(key string) (tea.Model, tea.Cmd) {
	switch key {
	case "up", "k":
		if m.sessionCursor > 0 {
			m.sessionCursor--
		}
	case "down", "j":
		if m.sessionCursor < len(m.state.Sessions)-1 {
			m.sessionCursor++
		}
	case "n":
		return m.dispatch(viewer.CreateSession{})
	case "enter":
		if m.sessionCursor < len(m.state.Sessions) {
			return m.dispatch(viewer.SelectSession{ID: m.state.Sessions[m.sessionCursor].ID})
		}
	case "q":
		m.quitting = true
		return m, tea.Quit
	}
	return m, nil
}

func (m Model) handleCitationKey(key string) (tea.Model, tea.Cmd) {
	cites := transcriptCitations(m.state.Messages)
	switch key {
	case "left", "up", "h", "k":
		if m.citationCursor > 0 {
			m.citationCursor--
		}
	case "right", "down", "l", "j":
		if m.citationCursor < len(cites)-1 {
			m.citationCursor++
		}
	case "enter":
		if m.citationCursor < len(cites) {
			ev := bridge.CitationClick(cites[m.citationCursor].ID)
			return m, func() tea.Msg { return ev }
		}
	}
	return m, nil
}

func (m Model) handleInputKey(msg tea.KeyPressMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		m.setFocus(focusSidebar)
		return m, nil
	case "enter":
		text := m.input.Value()
		if strings.TrimSpace(text) == "" {
			return m, nil
		}
		m.input.Reset()
		return m.dispatch(viewer.SubmitMessage{Text: text})
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m *Model) setFocus(f focusArea) {
	m.focus = f
	if f == focusInput {
		m.input.Focus()
	} else {
		m.input.Blur()
	}
}

func (m *Model) clampCursors() {
	if idx := sessionIndex(m.state); idx >= 0 {
		m.sessionCursor = idx
	}
	if m.sessionCursor >= len(m.state.Sessions) {
		m.sessionCursor = max(0, len(m.state.Sessions)-1)
	}
	if n := len(transcriptCitations(m.state.Messages)); m.citationCursor >= n {
		m.citationCursor = max(0, n-1)
	}
}

func sessionIndex(st viewer.State) int {
	for i, s := range st.Sessions {
		if s.ID == st.ActiveSessionID {
			return i
		}
	}
	return -1
}

// transcriptCitations lists each citation ID once, in transcript order.
func transcriptCitations(msgs []models.Message) []models.Citation {
	seen := map[string]bool{}
	var out []models.Citation
	for _, msg := range msgs {
		for _, c := range citation.Valid(msg.Citations) {
			if seen[c.ID] {
				continue
			}
			seen[c.ID] = true
			out = append(out, c)
		}
	}
	return out
}

// resize lays out the panels for the current terminal size.
func (m *Model) resize() {
	chatWidth := max(20, m.width-sidebarWidth-4)
	vpHeight := max(3, m.height-inputHeight-10)

	m.viewport.SetWidth(chatWidth)
	m.viewport.SetHeight(vpHeight)
	m.input.SetWidth(chatWidth)
	m.renderer = NewRenderer(chatWidth-2, true, "dark")
	m.refresh(true)
}

// refresh puts the shown transcript into the viewport.
func (m *Model) refresh(toBottom bool) {
	m.viewport.SetContent(m.transcriptContent())
	if toBottom {
		m.viewport.GotoBottom()
	}
}

func (m Model) transcriptContent() string {
	if m.shown.ActiveSessionID == "" {
		return m.theme.hintStyle().Render("Select a chat from the sidebar or start a new one with ctrl+n.")
	}
	if len(m.shown.Messages) == 0 {
		return m.theme.hintStyle().Render("No messages in this chat yet. Send one below!")
	}
	return m.renderer.Transcript(m.shown.Messages)
}

// View renders the viewer.
func (m Model) View() tea.View {
	var v tea.View
	v.AltScreen = true
	v.MouseMode = tea.MouseModeCellMotion
	v.SetContent(m.content())
	return v
}

func (m Model) content() string {
	if m.quitting {
		return ""
	}
	if m.width == 0 || m.height == 0 {
		return "Loading..."
	}

	if m.shown.Modal.IsOpen() {
		box := m.theme.modalStyle().Width(min(80, m.width-4)).Render(m.renderer.Modal(m.shown.Modal))
		return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, box)
	}

	header := m.theme.titleStyle().Render("Chatbot Germano")
	body := lipgloss.JoinHorizontal(lipgloss.Top, m.sidebarView(), m.chatView())
	return lipgloss.JoinVertical(lipgloss.Left, header, body, m.statusView())
}

func (m Model) sidebarView() string {
	var b strings.Builder
	b.WriteString(m.theme.roleStyle().Render("Chats"))
	b.WriteString("\n")

	if len(m.shown.Sessions) == 0 {
		b.WriteString(m.theme.hintStyle().Render("No chats yet. Press n to start one."))
	}
	for i, s := range m.shown.Sessions {
		line := "💬 " + truncate(s.DisplayTitle(), maxTitle)
		switch {
		case m.focus == focusSidebar && i == m.sessionCursor:
			line = m.theme.cursorStyle().Render(line)
		case s.ID == m.shown.ActiveSessionID:
			line = m.theme.activeStyle().Render(line)
		}
		b.WriteString("\n" + line)
	}

	return m.theme.panelStyle(m.focus == focusSidebar).
		Width(sidebarWidth).
		Height(max(3, m.height-6)).
		Render(b.String())
}

func (m Model) chatView() string {
	parts := []string{m.viewport.View()}

	if cites := transcriptCitations(m.shown.Messages); len(cites) > 0 {
		labels := make([]string, len(cites))
		for i, c := range cites {
			label := citation.Label(c.ID)
			if m.focus == focusCitations && i == m.citationCursor {
				label = m.theme.cursorStyle().Render(label)
			} else {
				label = m.theme.citationStyle().Render(label)
			}
			labels[i] = label
		}
		line := "Citations: " + strings.Join(labels, " ")
		if m.focus == focusCitations && m.citationCursor < len(cites) {
			c := cites[m.citationCursor]
			line += "  " + m.theme.hintStyle().Render(fmt.Sprintf("View details for '%s'", c.Text))
		}
		parts = append(parts, line)
	}

	if m.shown.ActiveSessionID != "" {
		parts = append(parts, m.theme.panelStyle(m.focus == focusInput).Render(m.input.View()))
	}

	return m.theme.panelStyle(m.focus != focusSidebar).Render(lipgloss.JoinVertical(lipgloss.Left, parts...))
}

func (m Model) statusView() string {
	if m.busy != "" {
		return m.theme.hintStyle().Render(m.busy)
	}
	if len(m.shown.Notices) > 0 {
		lines := make([]string, len(m.shown.Notices))
		for i, n := range m.shown.Notices {
			level := n.Level.String()
			lines[i] = m.theme.noticeStyle(level).Render(n.Text)
		}
		return strings.Join(lines, "\n")
	}
	return m.theme.hintStyle().Render("tab focus • enter select • ctrl+n new chat • esc back • ctrl+c quit")
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}

// Run starts the full-screen viewer and blocks until it exits.
func Run(ctx context.Context, engine *viewer.Engine) error {
	p := tea.NewProgram(New(ctx, engine), tea.WithContext(ctx))
	if _, err := p.Run(); err != nil {
		return fmt.Errorf("terminal UI error: %w", err)
	}
	return nil
}
