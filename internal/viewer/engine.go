package viewer

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"strings"

	"github.com/SincereJuliya/chatbotgermano/internal/cache"
	"github.com/SincereJuliya/chatbotgermano/internal/metrics"
	"github.com/SincereJuliya/chatbotgermano/internal/models"
)

// Backend is the chat backend the viewer reads from and writes to.
type Backend interface {
	GetSessions(ctx context.Context) ([]models.ChatSession, error)
	CreateSession(ctx context.Context) (*models.ChatSession, error)
	GetMessages(ctx context.Context, sessionID string) ([]models.Message, error)
	CreateMessage(ctx context.Context, sessionID string, role models.Role, content string) (*models.Message, error)
	ResolveCitation(ctx context.Context, citationID string) ([]string, error)
	GetDocuments(ctx context.Context, ids []string) ([]models.Document, error)
}

// TransitionFunc observes every modal transition.
type TransitionFunc func(from, to Modal)

// Engine applies actions to states. It holds no view state itself and can
// be shared by any number of views.
type Engine struct {
	backend      Backend
	logger       *slog.Logger
	metrics      *metrics.Collector
	onTransition TransitionFunc
}

// Option configures an Engine.
type Option func(*Engine)

// WithLogger sets the engine logger.
func WithLogger(l *slog.Logger) Option {
	return func(e *Engine) {
		e.logger = l
	}
}

// WithMetrics records document cache hits and misses on mc.
func WithMetrics(mc *metrics.Collector) Option {
	return func(e *Engine) {
		e.metrics = mc
	}
}

// WithTransitionHook registers fn to be called on every modal transition.
func WithTransitionHook(fn TransitionFunc) Option {
	return func(e *Engine) {
		e.onTransition = fn
	}
}

// NewEngine creates an engine backed by b.
func NewEngine(b Backend, opts ...Option) *Engine {
	e := &Engine{
		backend: b,
		logger:  slog.Default(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// NewState returns an empty state with its own document cache.
func (e *Engine) NewState() State {
	return State{Documents: e.newCache()}
}

func (e *Engine) newCache() *cache.DocumentCache {
	return cache.New(cache.WithMetrics(e.metrics))
}

// Apply performs a and returns the resulting state.
//
// Backend failures never escape: they become notices, and the returned
// state is otherwise identical to st. Notices from earlier actions are
// dropped.
func (e *Engine) Apply(ctx context.Context, st State, a Action) State {
	next := st
	next.Notices = nil
	if next.Documents == nil {
		next.Documents = e.newCache()
	}

	e.logger.Debug("applying action", "action", Name(a))

	switch a := a.(type) {
	case LoadSessions:
		return e.loadSessions(ctx, next)
	case SelectSession:
		return e.selectSession(ctx, next, a.ID)
	case CreateSession:
		return e.createSession(ctx, next)
	case SubmitMessage:
		return e.submitMessage(ctx, next, a.Text)
	case SelectCitation:
		return e.selectCitation(ctx, next, a.CitationID)
	case CloseModal:
		if next.Modal.IsOpen() {
			e.transition(&next, next.Modal.Close())
		}
		return next
	default:
		e.logger.Warn("unknown action", "action", fmt.Sprintf("%T", a))
		return next
	}
}

// loadSessions replaces the session list and resets everything that
// depended on the old one.
func (e *Engine) loadSessions(ctx context.Context, st State) State {
	sessions, err := e.backend.GetSessions(ctx)
	if err != nil {
		e.logger.Warn("backend call failed", "op", metrics.OpGetSessions, "error", err)
		st.notify(NoticeError, "Could not load chats.")
		sessions = nil
	}

	listed, skipped := dedupeSessions(sessions)
	if skipped > 0 {
		e.logger.Warn("skipped invalid sessions", "count", skipped)
		st.notify(NoticeWarning, "Skipped %d chat(s) without an ID.", skipped)
	}

	st.Sessions = listed
	st.ActiveSessionID = ""
	st.Messages = nil
	if st.Modal.IsOpen() {
		e.transition(&st, st.Modal.Close())
	}
	st.Documents = e.newCache()
	return st
}

// dedupeSessions drops invalid records and collapses repeated IDs.
// A repeated ID keeps its first position and its last value.
func dedupeSessions(in []models.ChatSession) ([]models.ChatSession, int) {
	if len(in) == 0 {
		return nil, 0
	}
	index := make(map[string]int, len(in))
	out := make([]models.ChatSession, 0, len(in))
	skipped := 0
	for _, s := range in {
		if err := models.ValidateSession(s); err != nil {
			skipped++
			continue
		}
		if i, ok := index[s.ID]; ok {
			out[i] = s
			continue
		}
		index[s.ID] = len(out)
		out = append(out, s)
	}
	return out, skipped
}

func (e *Engine) selectSession(ctx context.Context, st State, id string) State {
	if id == st.ActiveSessionID {
		return st
	}
	sess, ok := st.Session(id)
	if !ok {
		st.notify(NoticeWarning, "Chat '%s' is not available.", id)
		return st
	}

	msgs, err := e.backend.GetMessages(ctx, id)
	if err != nil {
		e.logger.Warn("backend call failed", "op", metrics.OpGetMessages, "session", id, "error", err)
		st.notify(NoticeError, "Could not load messages for '%s'.", sess.DisplayTitle())
		return st
	}

	st.ActiveSessionID = id
	st.Messages = e.sanitize(&st, msgs, 0)
	if st.Modal.IsOpen() {
		e.transition(&st, st.Modal.Close())
	}
	st.Documents = e.newCache()
	return st
}

func (e *Engine) createSession(ctx context.Context, st State) State {
	sess, err := e.backend.CreateSession(ctx)
	if err != nil || sess == nil {
		e.logger.Warn("backend call failed", "op", metrics.OpCreateSession, "error", err)
		st.notify(NoticeError, "Failed to create new chat session")
		return st
	}

	sessions := slices.Clone(st.Sessions)
	if i := slices.IndexFunc(sessions, func(s models.ChatSession) bool { return s.ID == sess.ID }); i >= 0 {
		sessions[i] = *sess
	} else {
		sessions = append(sessions, *sess)
	}

	st.Sessions = sessions
	st.ActiveSessionID = sess.ID
	st.Messages = nil
	if st.Modal.IsOpen() {
		e.transition(&st, st.Modal.Close())
	}
	st.Documents = e.newCache()
	st.notify(NoticeInfo, "Created '%s'", sess.Title)
	e.logger.Info("created session", "session", sess.ID)
	return st
}

func (e *Engine) submitMessage(ctx context.Context, st State, text string) State {
	if st.ActiveSessionID == "" {
		st.notify(NoticeWarning, "Select a chat before sending a message.")
		return st
	}
	if strings.TrimSpace(text) == "" {
		return st
	}

	if _, err := e.backend.CreateMessage(ctx, st.ActiveSessionID, models.RoleUser, text); err != nil {
		e.logger.Warn("backend call failed", "op", metrics.OpCreateMessage, "session", st.ActiveSessionID, "error", err)
		st.notify(NoticeError, "Failed to send message.")
		return st
	}

	msgs, err := e.backend.GetMessages(ctx, st.ActiveSessionID)
	if err != nil {
		e.logger.Warn("backend call failed", "op", metrics.OpGetMessages, "session", st.ActiveSessionID, "error", err)
		st.notify(NoticeError, "Message sent, but the chat could not be refreshed.")
		return st
	}
	st.Messages = e.sanitize(&st, msgs, len(st.Messages))
	return st
}

func (e *Engine) selectCitation(ctx context.Context, st State, id string) State {
	if !opensCitation(st, id) {
		if !st.HasCitation(id) {
			e.logger.Debug("no control for citation", "citation", id)
		}
		return st
	}

	if st.Modal.IsOpen() {
		e.transition(&st, st.Modal.Close())
	}
	opened, err := st.Modal.Open(id)
	if err != nil {
		e.logger.Error("modal transition rejected", "error", err)
		return st
	}
	e.transition(&st, opened)

	docs, err := e.ResolveDocuments(ctx, st.Documents, id)
	if err != nil {
		st.notify(NoticeError, "Could not load citation '%s'.", id)
	}

	resolved, err := st.Modal.Resolve(docs)
	if err != nil {
		e.logger.Error("modal transition rejected", "error", err)
		return st
	}
	e.transition(&st, resolved)
	return st
}

// ResolveDocuments returns the documents behind a citation, going through
// the cache. A failure is logged and returned with no documents.
func (e *Engine) ResolveDocuments(ctx context.Context, docs *cache.DocumentCache, citationID string) ([]models.Document, error) {
	result, err := docs.GetOrFetch(ctx, citationID, e.fetchDocuments)
	if err != nil {
		e.logger.Warn("citation lookup failed", "citation", citationID, "error", err)
		return nil, err
	}
	return result, nil
}

// fetchDocuments resolves a citation to document IDs, then loads them.
func (e *Engine) fetchDocuments(ctx context.Context, citationID string) ([]models.Document, error) {
	ids, err := e.backend.ResolveCitation(ctx, citationID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", metrics.OpResolveCitation, err)
	}
	if len(ids) == 0 {
		return nil, nil
	}
	docs, err := e.backend.GetDocuments(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", metrics.OpGetDocuments, err)
	}
	return docs, nil
}

// sanitize repairs a fetched transcript and reports what it changed.
// Messages before index seen were reported by an earlier fetch and are
// repaired silently.
func (e *Engine) sanitize(st *State, msgs []models.Message, seen int) []models.Message {
	clean, problems := models.SanitizeMessages(msgs)
	reported := 0
	for _, p := range problems {
		if p.Message < seen {
			continue
		}
		e.logger.Warn("malformed message field", "problem", p.String())
		reported++
	}
	if reported > 0 {
		st.notify(NoticeWarning, "Skipped %d malformed field(s) in this chat.", reported)
	}
	return clean
}

func (e *Engine) transition(st *State, to Modal) {
	from := st.Modal
	st.Modal = to
	e.logger.Debug("modal transition", "from", from.Phase.String(), "to", to.Phase.String(), "citation", to.CitationID)
	if e.onTransition != nil {
		e.onTransition(from, to)
	}
}
