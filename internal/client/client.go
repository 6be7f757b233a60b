// Package client provides a REST client for the chat backend.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/SincereJuliya/chatbotgermano/internal/metrics"
	"github.com/SincereJuliya/chatbotgermano/internal/models"
)

// RequestIDHeader carries a per-request ID so backend logs can be correlated.
const RequestIDHeader = "X-Request-ID"

// slowCallThreshold is the duration above which a backend call is logged at WARN.
const slowCallThreshold = time.Second

var (
	// ErrNotFound is returned when the backend answers 404.
	ErrNotFound = errors.New("not found")
	// ErrServer is returned for any other non-2xx answer.
	ErrServer = errors.New("server error")
)

// Client is a REST client for the chat backend.
type Client struct {
	baseURL    string
	httpClient *http.Client
	metrics    *metrics.Collector
	logger     *slog.Logger
}

// Option configures a Client.
type Option func(*Client)

// WithMetrics records per-operation timings on mc.
func WithMetrics(mc *metrics.Collector) Option {
	return func(c *Client) {
		c.metrics = mc
	}
}

// WithLogger sets the logger used for slow and failed calls.
func WithLogger(l *slog.Logger) Option {
	return func(c *Client) {
		c.logger = l
	}
}

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.httpClient = hc
	}
}

// New creates a new backend client.
// A timeout of zero means no client-side timeout.
func New(baseURL string, timeout time.Duration, opts ...Option) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: timeout,
		},
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// BaseURL returns the backend base URL.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// errorResponse is the error body FastAPI-style backends return.
type errorResponse struct {
	Detail json.RawMessage `json:"detail"`
}

// detailMessage extracts a readable message from an error body.
func detailMessage(body []byte) string {
	var er errorResponse
	if err := json.Unmarshal(body, &er); err == nil && len(er.Detail) > 0 {
		var s string
		if err := json.Unmarshal(er.Detail, &s); err == nil {
			return s
		}
		return string(er.Detail)
	}
	msg := strings.TrimSpace(string(body))
	if len(msg) > 200 {
		msg = msg[:200] + "..."
	}
	return msg
}

// do sends a request and decodes a JSON response into result.
func (c *Client) do(ctx context.Context, op, method, path string, query url.Values, body, result any) (err error) {
	start := time.Now()
	defer func() {
		elapsed := time.Since(start)
		c.metrics.RecordTiming(op, elapsed, err != nil)
		if elapsed > slowCallThreshold {
			c.logger.Warn("slow backend call", "op", op, "duration", elapsed)
		}
	}()

	var reqBody io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshal request: %w", err)
		}
		reqBody = bytes.NewReader(data)
	}

	u := c.baseURL + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, method, u, reqBody)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set(RequestIDHeader, uuid.New().String())
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("execute request: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return fmt.Errorf("%s %s: %w: %s", method, path, ErrNotFound, detailMessage(data))
	case resp.StatusCode < 200 || resp.StatusCode > 299:
		return fmt.Errorf("%s %s: %w: %s - %s", method, path, ErrServer, resp.Status, detailMessage(data))
	}

	if result != nil && len(bytes.TrimSpace(data)) > 0 {
		if err := json.Unmarshal(data, result); err != nil {
			return fmt.Errorf("unmarshal response: %w", err)
		}
	}
	return nil
}

// =============================================================================
// SESSIONS
// =============================================================================

// GetSessions lists every chat session known to the backend.
func (c *Client) GetSessions(ctx context.Context) ([]models.ChatSession, error) {
	var sessions []models.ChatSession
	if err := c.do(ctx, metrics.OpGetSessions, http.MethodGet, "/sessions", nil, nil, &sessions); err != nil {
		return nil, err
	}
	return sessions, nil
}

// CreateSession asks the backend for a new, empty chat session.
func (c *Client) CreateSession(ctx context.Context) (*models.ChatSession, error) {
	var session models.ChatSession
	if err := c.do(ctx, metrics.OpCreateSession, http.MethodPost, "/sessions", nil, struct{}{}, &session); err != nil {
		return nil, err
	}
	if err := models.ValidateSession(session); err != nil {
		return nil, fmt.Errorf("create session: %w", err)
	}
	return &session, nil
}

// =============================================================================
// MESSAGES
// =============================================================================

// createMessageRequest is the body of a message submission.
type createMessageRequest struct {
	Role    models.Role `json:"role"`
	Content string      `json:"content"`
}

// GetMessages returns the full transcript of a session.
func (c *Client) GetMessages(ctx context.Context, sessionID string) ([]models.Message, error) {
	path := "/sessions/" + url.PathEscape(sessionID) + "/messages"
	var msgs []models.Message
	if err := c.do(ctx, metrics.OpGetMessages, http.MethodGet, path, nil, nil, &msgs); err != nil {
		return nil, err
	}
	return msgs, nil
}

// CreateMessage submits a message to a session.
// The returned message is whatever the backend answers with; callers refetch
// the transcript rather than relying on it.
func (c *Client) CreateMessage(ctx context.Context, sessionID string, role models.Role, content string) (*models.Message, error) {
	path := "/sessions/" + url.PathEscape(sessionID) + "/messages"
	var msg models.Message
	body := createMessageRequest{Role: role, Content: content}
	if err := c.do(ctx, metrics.OpCreateMessage, http.MethodPost, path, nil, body, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}

// =============================================================================
// CITATIONS
// =============================================================================

// citationResponse is the object form of a citation lookup.
type citationResponse struct {
	CitationID  string   `json:"citation_id"`
	DocumentIDs []string `json:"document_ids"`
}

// decodeDocumentIDs accepts either {"document_ids": [...]} or a bare array.
func decodeDocumentIDs(data json.RawMessage) ([]string, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return nil, nil
	}
	if trimmed[0] == '[' {
		var ids []string
		if err := json.Unmarshal(trimmed, &ids); err != nil {
			return nil, fmt.Errorf("unmarshal document ids: %w", err)
		}
		return ids, nil
	}
	var cr citationResponse
	if err := json.Unmarshal(trimmed, &cr); err != nil {
		return nil, fmt.Errorf("unmarshal citation: %w", err)
	}
	return cr.DocumentIDs, nil
}

// ResolveCitation returns the IDs of the documents backing a citation.
func (c *Client) ResolveCitation(ctx context.Context, citationID string) ([]string, error) {
	var raw json.RawMessage
	path := "/citations/" + url.PathEscape(citationID)
	if err := c.do(ctx, metrics.OpResolveCitation, http.MethodGet, path, nil, nil, &raw); err != nil {
		return nil, err
	}
	return decodeDocumentIDs(raw)
}

// GetDocuments fetches documents by ID. An empty ID list returns no
// documents without calling the backend.
func (c *Client) GetDocuments(ctx context.Context, ids []string) ([]models.Document, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	query := url.Values{}
	for _, id := range ids {
		query.Add("ids", id)
	}
	var docs []models.Document
	if err := c.do(ctx, metrics.OpGetDocuments, http.MethodGet, "/documents", query, nil, &docs); err != nil {
		return nil, err
	}
	return docs, nil
}
