package api

import (
	"bufio"
	"database/sql"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	_ "github.com/mattn/go-sqlite3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/coregx/relay"
	adapter "github.com/coregx/relay/adapters/relica"
	"github.com/coregx/relay/model"
)

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()

	db, err := sql.Open("sqlite3", ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	logger := &relay.NoopLogger{}
	repo := adapter.NewMessageRepository(db, "sqlite3")
	registry := relay.NewRegistry(logger)

	publisher, err := relay.NewPublisher(
		relay.WithPublisherRepository(repo),
		relay.WithPublisherRegistry(registry),
		relay.WithPublisherLogger(logger),
	)
	require.NoError(t, err)

	engine, err := relay.NewReplayEngine(
		relay.WithReplayRepository(repo),
		relay.WithReplayLogger(logger),
	)
	require.NoError(t, err)

	srv := httptest.NewServer(NewHandler(publisher, engine, registry, logger))
	t.Cleanup(srv.Close)
	return srv
}

func TestHandler_Publish(t *testing.T) {
	srv := newTestServer(t)

	resp, err := http.Post(srv.URL+"/alerts", "text/plain", strings.NewReader("disk full"))
	require.NoError(t, err)
	defer resp.Body.Close()

	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "application/json", resp.Header.Get("Content-Type"))

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	var ack map[string]any
	require.NoError(t, json.Unmarshal(body, &ack))
	assert.Equal(t, "message", ack["event"])
	assert.Equal(t, "alerts", ack["topic"])
	assert.Equal(t, "disk full", ack["message"])
	assert.Len(t, ack["id"], 12)

	// default priority is omitted from the wire shape
	assert.NotContains(t, ack, "priority")
	assert.Equal(t, ack["time"].(float64)+43200, ack["expires"])
}

func TestHandler_Publish_PriorityHeaderAndEmptyBody(t *testing.T) {
	srv := newTestServer(t)

	req, err := http.NewRequest(http.MethodPut, srv.URL+"/alerts", nil)
	require.NoError(t, err)
	req.Header.Set("X-Priority", "5")

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var ack map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&ack))
	assert.Equal(t, "triggered", ack["message"])
	assert.Equal(t, float64(5), ack["priority"])
}

func TestHandler_Publish_InvalidPriority(t *testing.T) {
	srv := newTestServer(t)

	for _, value := range []string{"0", "6", "abc"} {
		req, err := http.NewRequest(http.MethodPost, srv.URL+"/alerts", strings.NewReader("x"))
		require.NoError(t, err)
		req.Header.Set("X-Priority", value)

		resp, err := http.DefaultClient.Do(req)
		require.NoError(t, err)

		body, err := io.ReadAll(resp.Body)
		resp.Body.Close()
		require.NoError(t, err)

		assert.Equal(t, http.StatusBadRequest, resp.StatusCode, "priority %q", value)
		assert.JSONEq(t,
			`{"code":40007,"http":400,"error":"invalid priority parameter","link":"https://github.com/coregx/relay#publishing"}`,
			string(body), "priority %q", value)
	}
}

func TestHandler_InvalidTopic(t *testing.T) {
	srv := newTestServer(t)

	for _, path := range []string{"/bad%20topic", "/sp%C3%A4m", "/", "/alerts/unknown"} {
		resp, err := http.Post(srv.URL+path, "text/plain", strings.NewReader("x"))
		require.NoError(t, err)

		body, err := io.ReadAll(resp.Body)
		resp.Body.Close()
		require.NoError(t, err)

		assert.Equal(t, http.StatusBadRequest, resp.StatusCode, "path %q", path)
		assert.Contains(t, string(body), "relay server", "path %q", path)
	}
}

func TestHandler_Query(t *testing.T) {
	srv := newTestServer(t)

	for _, body := range []string{"first", "second"} {
		resp, err := http.Post(srv.URL+"/alerts", "text/plain", strings.NewReader(body))
		require.NoError(t, err)
		resp.Body.Close()
	}

	resp, err := http.Get(srv.URL + "/alerts/json?since=all")
	require.NoError(t, err)
	defer resp.Body.Close()

	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "application/x-ndjson", resp.Header.Get("Content-Type"))

	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	require.True(t, strings.HasSuffix(string(raw), "\n"))

	var events []model.Event
	scanner := bufio.NewScanner(strings.NewReader(string(raw)))
	for scanner.Scan() {
		var ev model.Event
		require.NoError(t, json.Unmarshal(scanner.Bytes(), &ev))
		events = append(events, ev)
	}
	require.Len(t, events, 2)
	assert.Equal(t, "first", events[0].Message)
	assert.Equal(t, "second", events[1].Message)
}

func TestHandler_Query_IDSelector(t *testing.T) {
	srv := newTestServer(t)

	var ids []string
	for _, body := range []string{"first", "second", "third"} {
		resp, err := http.Post(srv.URL+"/alerts", "text/plain", strings.NewReader(body))
		require.NoError(t, err)

		var ack model.Event
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&ack))
		resp.Body.Close()
		ids = append(ids, ack.ID)
	}

	// an existing id anchors the replay at that message's publish time
	resp, err := http.Get(srv.URL + "/alerts/json?since=" + ids[1])
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	// everything at or after the anchor's publish time; with second
	// resolution that is at least the anchor and its successor
	var messages []string
	scanner := bufio.NewScanner(strings.NewReader(string(raw)))
	for scanner.Scan() {
		var ev model.Event
		require.NoError(t, json.Unmarshal(scanner.Bytes(), &ev))
		messages = append(messages, ev.Message)
	}
	assert.Contains(t, messages, "second")
	assert.Contains(t, messages, "third")
}

func TestHandler_Query_Empty(t *testing.T) {
	srv := newTestServer(t)

	resp, err := http.Get(srv.URL + "/alerts/json")
	require.NoError(t, err)
	defer resp.Body.Close()

	require.Equal(t, http.StatusOK, resp.StatusCode)
	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Equal(t, "\n", string(raw))
}

func TestHandler_AuthProbe(t *testing.T) {
	srv := newTestServer(t)

	resp, err := http.Get(srv.URL + "/alerts/auth")
	require.NoError(t, err)
	defer resp.Body.Close()

	require.Equal(t, http.StatusOK, resp.StatusCode)
	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.JSONEq(t, `{"success":true}`, string(raw))
}

func TestHandler_Subscribe(t *testing.T) {
	srv := newTestServer(t)

	wsURL := "ws" + strings.TrimPrefix(srv.URL, "http") + "/alerts,ops/ws"
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	require.NoError(t, err)
	defer conn.Close()

	// first frame is the open event
	var open model.Event
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(5*time.Second)))
	require.NoError(t, conn.ReadJSON(&open))
	assert.Equal(t, model.EventOpen, open.Event)
	assert.Equal(t, "alerts,ops", open.Topic)

	resp, err := http.Post(srv.URL+"/ops", "text/plain", strings.NewReader("deploy done"))
	require.NoError(t, err)
	resp.Body.Close()

	var msg model.Event
	require.NoError(t, conn.ReadJSON(&msg))
	assert.Equal(t, model.EventMessage, msg.Event)
	assert.Equal(t, "ops", msg.Topic)
	assert.Equal(t, "deploy done", msg.Message)

	// a topic outside the subscription set is persisted but not delivered
	resp, err = http.Post(srv.URL+"/billing", "text/plain", strings.NewReader("invoice"))
	require.NoError(t, err)
	resp.Body.Close()

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(300*time.Millisecond)))
	var stray model.Event
	assert.Error(t, conn.ReadJSON(&stray))
}
