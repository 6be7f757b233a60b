package web

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/SincereJuliya/chatbotgermano/internal/bridge"
	"github.com/SincereJuliya/chatbotgermano/internal/viewer"
)

const (
	writeWait      = 10 * time.Second
	maxMessageSize = 64 * 1024
	queueSize      = 16
)

// Inbound message types.
const (
	MsgSelectSession = "select_session"
	MsgCreateSession = "create_session"
	MsgSubmitMessage = "submit_message"
	MsgCloseModal    = "close_modal"
	MsgRender        = "render"
)

var errUnknownMessage = errors.New("unknown message type")

// Inbound is a message from the browser.
// Citation clicks use the bridge event shape.
type Inbound struct {
	Type       string `json:"type"`
	SessionID  string `json:"session_id,omitempty"`
	Text       string `json:"text,omitempty"`
	CitationID string `json:"citation_id,omitempty"`
}

// Outbound is a message to the browser.
type Outbound struct {
	Type string `json:"type"`
	HTML string `json:"html"`
	Busy string `json:"busy,omitempty"`
}

// ParseInbound converts a browser message into an action.
func ParseInbound(data []byte) (viewer.Action, error) {
	var in Inbound
	if err := json.Unmarshal(data, &in); err != nil {
		return nil, fmt.Errorf("decode message: %w", err)
	}

	switch in.Type {
	case MsgSelectSession:
		return viewer.SelectSession{ID: in.SessionID}, nil
	case MsgCreateSession:
		return viewer.CreateSession{}, nil
	case MsgSubmitMessage:
		return viewer.SubmitMessage{Text: in.Text}, nil
	case MsgCloseModal:
		return viewer.CloseModal{}, nil
	case bridge.EventCitationClick:
		return viewer.ActionFromEvent(bridge.Event{Type: in.Type, CitationID: in.CitationID})
	default:
		return nil, fmt.Errorf("%w: %q", errUnknownMessage, in.Type)
	}
}

// view is one browser tab. Only run touches state and writes to conn.
type view struct {
	id     string
	conn   *websocket.Conn
	engine *viewer.Engine
	layout bridge.Layout
	logger *slog.Logger
	state  viewer.State
}

func newView(conn *websocket.Conn, engine *viewer.Engine, layout bridge.Layout, logger *slog.Logger) *view {
	id := uuid.New().String()
	return &view{
		id:     id,
		conn:   conn,
		engine: engine,
		layout: layout,
		logger: logger.With("view", id),
	}
}

// run loads the session list and then applies actions until the
// connection closes.
func (v *view) run(ctx context.Context) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	defer v.conn.Close()

	v.logger.Debug("view connected")
	defer v.logger.Debug("view disconnected")

	actions := make(chan viewer.Action, queueSize)
	go v.readLoop(ctx, cancel, actions)

	v.state = v.engine.NewState()
	if err := v.dispatch(ctx, viewer.LoadSessions{}); err != nil {
		v.logger.Debug("initial render failed", "error", err)
		return
	}

	for {
		select {
		case <-ctx.Done():
			return
		case a, ok := <-actions:
			if !ok {
				return
			}
			if err := v.dispatch(ctx, a); err != nil {
				v.logger.Debug("write failed", "error", err)
				return
			}
		}
	}
}

// readLoop decodes browser messages and queues their actions.
func (v *view) readLoop(ctx context.Context, cancel context.CancelFunc, actions chan<- viewer.Action) {
	defer cancel()
	defer close(actions)

	v.conn.SetReadLimit(maxMessageSize)
	for {
		_, data, err := v.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				v.logger.Warn("websocket read failed", "error", err)
			}
			return
		}

		a, err := ParseInbound(data)
		if err != nil {
			v.logger.Debug("ignoring message", "error", err)
			continue
		}

		select {
		case actions <- a:
		case <-ctx.Done():
			return
		}
	}
}

// dispatch shows the pending state, applies a, then shows the result.
func (v *view) dispatch(ctx context.Context, a viewer.Action) error {
	if label := viewer.Progress(a); label != "" {
		if err := v.send(viewer.Pending(v.state, a), label); err != nil {
			return err
		}
	}
	v.state = v.engine.Apply(ctx, v.state, a)
	return v.send(v.state, "")
}

func (v *view) send(st viewer.State, busy string) error {
	html, err := Render(st, v.layout, busy)
	if err != nil {
		v.logger.Error("render failed", "error", err)
		return err
	}
	if err := v.conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
		return err
	}
	return v.conn.WriteJSON(Outbound{Type: MsgRender, HTML: html, Busy: busy})
}
