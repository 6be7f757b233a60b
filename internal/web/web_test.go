package web

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/SincereJuliya/chatbotgermano/internal/bridge"
	"github.com/SincereJuliya/chatbotgermano/internal/cache"
	"github.com/SincereJuliya/chatbotgermano/internal/metrics"
	"github.com/SincereJuliya/chatbotgermano/internal/models"
	"github.com/SincereJuliya/chatbotgermano/internal/viewer"
)

type stubBackend struct {
	mu       sync.Mutex
	sessions []models.ChatSession
	messages map[string][]models.Message
	docs     map[string][]models.Document
}

func newStubBackend() *stubBackend {
	return &stubBackend{
		sessions: []models.ChatSession{{ID: "s1", Title: "Existing"}},
		messages: map[string][]models.Message{
			"s1": {{
				Role:      models.RoleAssistant,
				Content:   "Berlin is the capital [c1]",
				Citations: []models.Citation{{ID: "c1", Text: "capital"}},
				Model:     "germano-1",
			}},
		},
		docs: map[string][]models.Document{
			"c1": {{ID: "d1", Title: "Cities", Text: "Berlin facts"}},
		},
	}
}

func (b *stubBackend) GetSessions(ctx context.Context) ([]models.ChatSession, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.sessions, nil
}

func (b *stubBackend) CreateSession(ctx context.Context) (*models.ChatSession, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	s := models.ChatSession{ID: "s2", Title: "New Chat"}
	b.sessions = append(b.sessions, s)
	return &s, nil
}

func (b *stubBackend) GetMessages(ctx context.Context, sessionID string) ([]models.Message, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.messages[sessionID], nil
}

func (b *stubBackend) CreateMessage(ctx context.Context, sessionID string, role models.Role, content string) (*models.Message, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	msg := models.Message{Role: role, Content: content}
	b.messages[sessionID] = append(b.messages[sessionID], msg)
	return &msg, nil
}

func (b *stubBackend) ResolveCitation(ctx context.Context, citationID string) ([]string, error) {
	if _, ok := b.docs[citationID]; !ok {
		return nil, errors.New("unknown citation")
	}
	return []string{citationID}, nil
}

func (b *stubBackend) GetDocuments(ctx context.Context, ids []string) ([]models.Document, error) {
	var out []models.Document
	for _, id := range ids {
		out = append(out, b.docs[id]...)
	}
	return out, nil
}

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestRenderEmptyState(t *testing.T) {
	st := viewer.State{Documents: cache.New()}

	html, err := Render(st, bridge.DefaultLayout, "")
	require.NoError(t, err)
	assert.Contains(t, html, "No chats yet")
	assert.Contains(t, html, "Select a chat from the sidebar or start a new one")
	assert.NotContains(t, html, `id="composer"`)
	assert.NotContains(t, html, "modal-backdrop")
}

func TestRenderTranscriptWithCitations(t *testing.T) {
	st := viewer.State{
		Sessions:        []models.ChatSession{{ID: "s1", Title: "Existing"}},
		ActiveSessionID: "s1",
		Messages: []models.Message{{
			Role:      models.RoleAssistant,
			Content:   "fact [c1] & more",
			Citations: []models.Citation{{ID: "c1", Text: "foo"}},
			Timestamp: models.ParseTimestamp("2024-05-01T10:00:00Z"),
			Model:     "gpt",
			Link:      "https://example.com/a",
		}},
		Documents: cache.New(),
	}

	html, err := Render(st, bridge.DefaultLayout, "")
	require.NoError(t, err)

	assert.Contains(t, html, `sandbox="allow-scripts"`)
	assert.Contains(t, html, `srcdoc="&lt;!DOCTYPE html&gt;`)
	assert.Contains(t, html, `data-citation-id=&#34;c1&#34;`, "marker is inside the isolated surface")
	assert.Contains(t, html, `&amp;amp; more`, "content is escaped before embedding")
	assert.Contains(t, html, `data-trigger="trigger-button-c1"`)
	assert.Contains(t, html, `title="View details for &#39;foo&#39;"`)
	assert.Contains(t, html, "2024-05-01 10:00 | gpt")
	assert.Contains(t, html, `href="https://example.com/a"`)
	assert.Contains(t, html, "View Link")
	assert.Contains(t, html, `class="session active"`)
	assert.Contains(t, html, `id="composer"`)
}

func TestRenderPlainMessageEscaped(t *testing.T) {
	st := viewer.State{
		Sessions:        []models.ChatSession{{ID: "s1"}},
		ActiveSessionID: "s1",
		Messages:        []models.Message{{Role: models.RoleUser, Content: "<b>hello</b>"}},
		Documents:       cache.New(),
	}

	html, err := Render(st, bridge.DefaultLayout, "")
	require.NoError(t, err)
	assert.Contains(t, html, "&lt;b&gt;hello&lt;/b&gt;")
	assert.NotContains(t, html, "<iframe")
	assert.NotContains(t, html, "data-trigger")
}

func TestRenderActiveSessionWithoutMessages(t *testing.T) {
	st := viewer.State{
		Sessions:        []models.ChatSession{{ID: "abcdefgh"}},
		ActiveSessionID: "abcdefgh",
		Documents:       cache.New(),
	}

	html, err := Render(st, bridge.DefaultLayout, "Sending...")
	require.NoError(t, err)
	assert.Contains(t, html, "No messages in this chat yet")
	assert.Contains(t, html, "Chat abcdef")
	assert.Contains(t, html, `class="busy">Sending...`)
}

func TestRenderModal(t *testing.T) {
	base := viewer.State{Documents: cache.New()}

	tests := []struct {
		name  string
		modal viewer.Modal
		want  []string
	}{
		{
			name:  "loading",
			modal: viewer.Modal{Phase: viewer.PhaseLoading, CitationID: "c1"},
			want:  []string{"Loading citation 'c1'..."},
		},
		{
			name: "ready",
			modal: viewer.Modal{Phase: viewer.PhaseReady, CitationID: "c1", Documents: []models.Document{
				{ID: "d1", Title: "T", Text: "body"},
				{ID: "d2"},
			}},
			want: []string{"<h3>T</h3>", "<code>d1</code>", "body", "<h3>Citation Detail</h3>", "No content available.", "Close Citation"},
		},
		{
			name:  "empty",
			modal: viewer.Modal{Phase: viewer.PhaseEmpty, CitationID: "c9"},
			want:  []string{"Could not load details for citation ID &#39;c9&#39;. It might not exist."},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			st := base
			st.Modal = tt.modal
			html, err := Render(st, bridge.DefaultLayout, "")
			require.NoError(t, err)
			assert.Contains(t, html, "modal-backdrop")
			for _, w := range tt.want {
				assert.Contains(t, html, w)
			}
		})
	}
}

func TestSurfaceHeight(t *testing.T) {
	assert.Equal(t, 23, surfaceHeight("hi", bridge.DefaultLayout), "at least one line")
	assert.Equal(t, 350, surfaceHeight(strings.Repeat("word ", 5000), bridge.DefaultLayout))
	assert.Equal(t, 10, surfaceHeight("hi", bridge.Layout{FontSize: 14, LineHeight: 1.6, CharsPerLine: 65, MaxHeight: 10}))
}

func TestSurfaceHeightStaysWithinMax(t *testing.T) {
	tests := []struct {
		name    string
		content string
		max     int
		want    int
	}{
		{"zero max", "hi", 0, 0},
		{"zero max long text", strings.Repeat("word ", 500), 0, 0},
		{"max below one line", "hi", 5, 5},
		{"max above one line", "hi", 100, 23},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			l := bridge.DefaultLayout
			l.MaxHeight = tt.max
			got := surfaceHeight(tt.content, l)
			assert.Equal(t, tt.want, got)
			assert.GreaterOrEqual(t, got, 0)
			assert.LessOrEqual(t, got, tt.max)
		})
	}
}

func TestParseInbound(t *testing.T) {
	tests := []struct {
		name    string
		data    string
		want    viewer.Action
		wantErr bool
	}{
		{"select", `{"type":"select_session","session_id":"s1"}`, viewer.SelectSession{ID: "s1"}, false},
		{"create", `{"type":"create_session"}`, viewer.CreateSession{}, false},
		{"submit", `{"type":"submit_message","text":"hi"}`, viewer.SubmitMessage{Text: "hi"}, false},
		{"close", `{"type":"close_modal"}`, viewer.CloseModal{}, false},
		{"citation", `{"type":"citation_click","citation_id":"c1"}`, viewer.SelectCitation{CitationID: "c1"}, false},
		{"citation without id", `{"type":"citation_click"}`, nil, true},
		{"unknown", `{"type":"resize"}`, nil, true},
		{"garbage", `{`, nil, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseInbound([]byte(tt.data))
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func newTestServer(t *testing.T) (*httptest.Server, *metrics.Collector) {
	t.Helper()
	mc := metrics.NewCollector()
	engine := viewer.NewEngine(newStubBackend(), viewer.WithLogger(quietLogger()), viewer.WithMetrics(mc))
	srv := NewServer(engine, WithLogger(quietLogger()), WithMetrics(mc))
	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(ts.Close)
	return ts, mc
}

func TestIndexPage(t *testing.T) {
	ts, _ := newTestServer(t)

	resp, err := http.Get(ts.URL + "/")
	require.NoError(t, err)
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, resp.Header.Get("Content-Type"), "text/html")
	assert.Contains(t, string(body), "<title>Chatbot Germano</title>")
	assert.Contains(t, string(body), "trigger-button-")
	assert.Contains(t, string(body), "'/ws'")
}

func TestHealthAndStats(t *testing.T) {
	ts, mc := newTestServer(t)
	mc.Incr(metrics.CounterCacheHit)

	resp, err := http.Get(ts.URL + "/health")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp, err = http.Get(ts.URL + "/debug/stats")
	require.NoError(t, err)
	defer resp.Body.Close()

	var snap metrics.Snapshot
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&snap))
	assert.Equal(t, int64(1), snap.Counters[metrics.CounterCacheHit])
}

// readRender reads the next render message, failing the test on timeout.
func readRender(t *testing.T, conn *websocket.Conn) Outbound {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(5*time.Second)))
	var out Outbound
	require.NoError(t, conn.ReadJSON(&out))
	require.Equal(t, MsgRender, out.Type)
	return out
}

func TestWebsocketFlow(t *testing.T) {
	ts, _ := newTestServer(t)

	wsURL := "ws" + strings.TrimPrefix(ts.URL, "http") + "/ws"
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	require.NoError(t, err)
	defer conn.Close()

	// initial load: pending, then result
	pending := readRender(t, conn)
	assert.Equal(t, "Loading chats...", pending.Busy)
	loaded := readRender(t, conn)
	assert.Empty(t, loaded.Busy)
	assert.Contains(t, loaded.HTML, "Existing")

	require.NoError(t, conn.WriteJSON(Inbound{Type: MsgSelectSession, SessionID: "s1"}))
	assert.Equal(t, "Loading messages...", readRender(t, conn).Busy)
	selected := readRender(t, conn)
	assert.Contains(t, selected.HTML, `data-trigger="trigger-button-c1"`)

	// the isolated surface posts a citation click, forwarded by the page
	require.NoError(t, conn.WriteJSON(bridge.CitationClick("c1")))
	loading := readRender(t, conn)
	assert.Equal(t, "Loading citation 'c1'...", loading.Busy)
	assert.Contains(t, loading.HTML, "modal-backdrop")
	ready := readRender(t, conn)
	assert.Contains(t, ready.HTML, "<h3>Cities</h3>")
	assert.Contains(t, ready.HTML, "Berlin facts")

	require.NoError(t, conn.WriteJSON(Inbound{Type: MsgCloseModal}))
	closed := readRender(t, conn)
	assert.NotContains(t, closed.HTML, "modal-backdrop")

	require.NoError(t, conn.WriteJSON(Inbound{Type: MsgSubmitMessage, Text: "hello"}))
	assert.Equal(t, "Sending...", readRender(t, conn).Busy)
	sent := readRender(t, conn)
	assert.Contains(t, sent.HTML, "hello")

	require.NoError(t, conn.WriteJSON(Inbound{Type: MsgCreateSession}))
	assert.Equal(t, "Creating new chat...", readRender(t, conn).Busy)
	created := readRender(t, conn)
	assert.Contains(t, created.HTML, "Created &#39;New Chat&#39;")
	assert.Contains(t, created.HTML, "No messages in this chat yet")
}

func TestWebsocketIgnoresUnknownMessages(t *testing.T) {
	ts, _ := newTestServer(t)

	wsURL := "ws" + strings.TrimPrefix(ts.URL, "http") + "/ws"
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	require.NoError(t, err)
	defer conn.Close()

	readRender(t, conn)
	readRender(t, conn)

	require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte(`{"type":"resize"}`)))
	// a citation not on screen has no control and is dropped silently
	require.NoError(t, conn.WriteJSON(bridge.CitationClick("c1")))

	// the click still reports progress, but no modal opens
	pending := readRender(t, conn)
	assert.Equal(t, "Loading citation 'c1'...", pending.Busy)
	final := readRender(t, conn)
	assert.NotContains(t, final.HTML, "modal-backdrop")
}

func TestStopClosesOpenViews(t *testing.T) {
	engine := viewer.NewEngine(newStubBackend(), viewer.WithLogger(quietLogger()))
	srv := NewServer(engine, WithLogger(quietLogger()))
	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(ts.Close)

	wsURL := "ws" + strings.TrimPrefix(ts.URL, "http") + "/ws"
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	require.NoError(t, err)
	defer conn.Close()

	readRender(t, conn)
	readRender(t, conn)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	require.NoError(t, srv.Stop(ctx))

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(5*time.Second)))
	_, _, err = conn.ReadMessage()
	require.Error(t, err)
	var netErr interface{ Timeout() bool }
	if errors.As(err, &netErr) {
		assert.False(t, netErr.Timeout(), "view should close the connection, not leave it idle")
	}
}
