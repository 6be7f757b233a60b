package client

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/SincereJuliya/chatbotgermano/internal/metrics"
	"github.com/SincereJuliya/chatbotgermano/internal/models"
)

func newTestClient(t *testing.T, handler http.HandlerFunc, opts ...Option) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return New(srv.URL, 5*time.Second, opts...)
}

func TestGetSessions(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, "/sessions", r.URL.Path)
		_, err := uuid.Parse(r.Header.Get(RequestIDHeader))
		assert.NoError(t, err, "request id should be a uuid")
		_, _ = w.Write([]byte(`[
			{"id":"s1","title":"First","created_at":"2024-05-01T10:00:00Z"},
			{"id":"s2","title":"","created_at":"2024-05-02T11:30:00"}
		]`))
	})

	sessions, err := c.GetSessions(context.Background())
	require.NoError(t, err)
	require.Len(t, sessions, 2)
	assert.Equal(t, "s1", sessions[0].ID)
	assert.Equal(t, "2024-05-01 10:00", sessions[0].CreatedAt.String())
	assert.Equal(t, "Chat s2", sessions[1].DisplayTitle())
}

func TestCreateSession(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/sessions", r.URL.Path)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`{"id":"s9","title":"New chat","created_at":"2024-05-03T09:00:00Z"}`))
	})

	session, err := c.CreateSession(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "s9", session.ID)
	assert.Equal(t, "New chat", session.Title)
}

func TestCreateSessionRejectsMissingID(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"title":"no id"}`))
	})

	_, err := c.CreateSession(context.Background())
	require.Error(t, err)
	assert.True(t, errors.Is(err, models.ErrInvalidRecord))
}

func TestGetMessages(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/sessions/s1/messages", r.URL.Path)
		_, _ = w.Write([]byte(`[
			{"role":"user","content":"hi","citations":[],"timestamp":"2024-05-01T10:00:00Z"},
			{"role":"assistant","content":"see [c1]","citations":[{"id":"c1","text":"src"}],
			 "timestamp":"2024-05-01T10:00:05Z","model":"gpt","link":"https://example.com"}
		]`))
	})

	msgs, err := c.GetMessages(context.Background(), "s1")
	require.NoError(t, err)
	require.Len(t, msgs, 2)
	assert.Equal(t, models.RoleUser, msgs[0].Role)
	assert.Equal(t, []models.Citation{{ID: "c1", Text: "src"}}, msgs[1].Citations)
	assert.Equal(t, "https://example.com", msgs[1].Link)
	assert.Equal(t, "2024-05-01 10:00 | gpt", msgs[1].Caption())
}

func TestGetMessagesToleratesMalformedCitations(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`[
			{"role":"user","content":"question"},
			{"role":"assistant","content":"answer [1]","citations":[{"id":1,"text":"foo"},"junk",{"id":[1]}]}
		]`))
	})

	msgs, err := c.GetMessages(context.Background(), "s1")
	require.NoError(t, err)
	require.Len(t, msgs, 2)
	assert.Equal(t, []models.Citation{{ID: "1", Text: "foo"}, {}, {}}, msgs[1].Citations)
}

func TestCreateMessage(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/sessions/s1/messages", r.URL.Path)

		var body map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, map[string]string{"role": "user", "content": "hello"}, body)

		_, _ = w.Write([]byte(`{"role":"assistant","content":"hey","citations":[]}`))
	})

	msg, err := c.CreateMessage(context.Background(), "s1", models.RoleUser, "hello")
	require.NoError(t, err)
	assert.Equal(t, "hey", msg.Content)
}

func TestResolveCitation(t *testing.T) {
	tests := []struct {
		name string
		body string
		want []string
	}{
		{"object", `{"citation_id":"c1","document_ids":["d1","d2"]}`, []string{"d1", "d2"}},
		{"bare array", `["d3"]`, []string{"d3"}},
		{"null", `null`, nil},
		{"empty object", `{"citation_id":"c1"}`, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				assert.Equal(t, "/citations/c1", r.URL.Path)
				_, _ = w.Write([]byte(tt.body))
			})

			ids, err := c.ResolveCitation(context.Background(), "c1")
			require.NoError(t, err)
			assert.Equal(t, tt.want, ids)
		})
	}
}

func TestGetDocuments(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/documents", r.URL.Path)
		assert.Equal(t, []string{"d1", "d2"}, r.URL.Query()["ids"])
		_, _ = w.Write([]byte(`[{"id":"d1","title":"One","text":"a"},{"id":"d2","title":"Two","text":"b"}]`))
	})

	docs, err := c.GetDocuments(context.Background(), []string{"d1", "d2"})
	require.NoError(t, err)
	assert.Equal(t, []models.Document{{ID: "d1", Title: "One", Text: "a"}, {ID: "d2", Title: "Two", Text: "b"}}, docs)
}

func TestGetDocumentsEmptyIDsSkipsRequest(t *testing.T) {
	called := false
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		called = true
	})

	docs, err := c.GetDocuments(context.Background(), nil)
	require.NoError(t, err)
	assert.Nil(t, docs)
	assert.False(t, called)
}

func TestErrorStatuses(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		body    string
		wantErr error
		wantMsg string
	}{
		{"not found", http.StatusNotFound, `{"detail":"Citation not found"}`, ErrNotFound, "Citation not found"},
		{"server error", http.StatusInternalServerError, `boom`, ErrServer, "boom"},
		{"validation error", http.StatusUnprocessableEntity, `{"detail":[{"msg":"field required"}]}`, ErrServer, "field required"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			})

			_, err := c.ResolveCitation(context.Background(), "c1")
			require.Error(t, err)
			assert.True(t, errors.Is(err, tt.wantErr))
			assert.Contains(t, err.Error(), tt.wantMsg)
		})
	}
}

func TestMetricsRecorded(t *testing.T) {
	mc := metrics.NewCollector()
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/sessions" {
			_, _ = w.Write([]byte(`[]`))
			return
		}
		w.WriteHeader(http.StatusBadGateway)
	}, WithMetrics(mc))

	_, err := c.GetSessions(context.Background())
	require.NoError(t, err)
	_, err = c.GetMessages(context.Background(), "s1")
	require.Error(t, err)

	snap := mc.Snapshot()
	assert.Equal(t, int64(1), snap.Operations[metrics.OpGetSessions].Count)
	assert.Equal(t, int64(1), snap.Operations[metrics.OpGetMessages].Failures)
	assert.Equal(t, int64(1), snap.Counters[metrics.CounterCallFailed])
}

func TestUnreachableBackend(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	c := New(url, time.Second)
	_, err := c.GetSessions(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "execute request")
}
