// Package api provides the HTTP gateway for the relay server.
//
// Each request is resolved once into a tagged operation and dispatched to
// exactly one core entry point. The gateway owns all transport concerns:
// path parsing, topic validation, header extraction and the websocket
// upgrade handshake. The core only ever sees pre-validated inputs.
package api

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"regexp"
	"strconv"
	"strings"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/gorilla/websocket"

	"github.com/coregx/relay"
	"github.com/coregx/relay/model"
)

// operation is the request kind, resolved once at the boundary.
type operation int

const (
	opPublish operation = iota
	opQuery
	opSubscribe
	opAuthProbe
)

// priorityHeader carries the publish priority; absent means default.
const priorityHeader = "X-Priority"

// topicPattern is the accepted topic syntax. Anything else never reaches
// the core.
var topicPattern = regexp.MustCompile(`^[A-Za-z0-9\-_]+$`)

// usage is the fixed document returned for malformed requests.
const usage = `relay server

  PUT|POST /<topic>           publish the request body (X-Priority: 1..5)
  GET      /<topic>/json      replay messages (?since=all|<timestamp>|<id>|<duration>)
  GET      /<topics>/ws       live subscribe (comma-separated topics)
  GET      /<topic>/auth      authorization probe

Topics match ^[A-Za-z0-9\-_]+$.
`

// Handler holds dependencies for the gateway.
type Handler struct {
	publisher *relay.Publisher
	replay    *relay.ReplayEngine
	registry  *relay.Registry
	logger    relay.Logger
	upgrader  websocket.Upgrader
}

// NewHandler creates a new gateway handler.
func NewHandler(
	publisher *relay.Publisher,
	replayEngine *relay.ReplayEngine,
	registry *relay.Registry,
	logger relay.Logger,
) *Handler {
	return &Handler{
		publisher: publisher,
		replay:    replayEngine,
		registry:  registry,
		logger:    logger,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(*http.Request) bool { return true },
		},
	}
}

// request is a fully-resolved gateway request.
type request struct {
	op     operation
	topics []string
}

// resolve parses and validates the request shape. Live-subscribe accepts
// multiple comma-separated topics; publish, query and the auth probe use
// exactly the first.
func resolve(r *http.Request) (request, error) {
	parts := strings.Split(strings.Trim(r.URL.Path, "/"), "/")
	if len(parts) == 0 || parts[0] == "" {
		return request{}, errors.New("missing topic")
	}

	topics := strings.Split(parts[0], ",")
	for _, topic := range topics {
		if err := validation.Validate(topic,
			validation.Required,
			validation.Length(1, 64),
			validation.Match(topicPattern),
		); err != nil {
			return request{}, err
		}
	}

	switch {
	case len(parts) == 1 && (r.Method == http.MethodPut || r.Method == http.MethodPost):
		return request{op: opPublish, topics: topics}, nil
	case len(parts) == 2 && parts[1] == "json" && r.Method == http.MethodGet:
		return request{op: opQuery, topics: topics}, nil
	case len(parts) == 2 && parts[1] == "ws" && r.Method == http.MethodGet:
		return request{op: opSubscribe, topics: topics}, nil
	case len(parts) == 2 && parts[1] == "auth" && r.Method == http.MethodGet:
		return request{op: opAuthProbe, topics: topics}, nil
	}
	return request{}, errors.New("unknown operation")
}

// ServeHTTP implements http.Handler.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	req, err := resolve(r)
	if err != nil {
		h.respondUsage(w)
		return
	}

	switch req.op {
	case opPublish:
		h.handlePublish(w, r, req.topics[0])
	case opQuery:
		h.handleQuery(w, r, req.topics[0])
	case opSubscribe:
		h.handleSubscribe(w, r, req.topics)
	case opAuthProbe:
		h.handleAuthProbe(w)
	}
}

// handlePublish publishes the request body and echoes the committed record
// as a single message event.
func (h *Handler) handlePublish(w http.ResponseWriter, r *http.Request, topic string) {
	priority := 0
	if v := r.Header.Get(priorityHeader); v != "" {
		p, err := strconv.Atoi(v)
		if err != nil || !model.ValidPriority(p) {
			h.respondAPIError(w, relay.ErrInvalidPriority)
			return
		}
		priority = p
	}

	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodySize))
	if err != nil {
		h.respondUsage(w)
		return
	}

	message, err := h.publisher.Publish(r.Context(), relay.PublishRequest{
		Topic:    topic,
		Priority: priority,
		Body:     string(body),
	})
	if err != nil {
		var apiErr *relay.APIError
		if errors.As(err, &apiErr) {
			h.respondAPIError(w, apiErr)
			return
		}
		h.logger.Errorf("Failed to publish message (topic=%s): %v", topic, err)
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(model.NewMessageEvent(message))
}

// handleQuery replays messages as newline-delimited JSON: one object per
// message, a trailing newline terminating the stream, and a lone newline
// for an empty result.
func (h *Handler) handleQuery(w http.ResponseWriter, r *http.Request, topic string) {
	messages, err := h.replay.Replay(r.Context(), topic, r.URL.Query().Get("since"))
	if err != nil {
		h.logger.Errorf("Failed to replay messages (topic=%s): %v", topic, err)
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/x-ndjson")
	if len(messages) == 0 {
		_, _ = w.Write([]byte("\n"))
		return
	}
	enc := json.NewEncoder(w)
	for _, m := range messages {
		_ = enc.Encode(model.NewMessageEvent(m)) // Encode appends the newline
	}
}

// handleSubscribe upgrades to a websocket, registers the connection for
// live delivery, and blocks on the read loop until the peer goes away. A
// disconnect or read error triggers exactly one unsubscribe.
func (h *Handler) handleSubscribe(w http.ResponseWriter, r *http.Request, topics []string) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warnf("Websocket upgrade failed: %v", err)
		return
	}

	sub := newWSSubscriber(conn)
	h.registry.Subscribe(topics, sub)
	h.logger.Debugf("Subscriber %s connected (topics=%s)", sub.id, strings.Join(topics, ","))

	// Reads are discarded; the loop exists to observe disconnects.
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			break
		}
	}

	h.registry.Unsubscribe(sub)
	_ = conn.Close()
	h.logger.Debugf("Subscriber %s disconnected", sub.id)
}

// handleAuthProbe is the static always-succeeds authorization probe.
func (h *Handler) handleAuthProbe(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]bool{"success": true})
}

// respondUsage sends the fixed usage document.
func (h *Handler) respondUsage(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "text/plain")
	w.WriteHeader(http.StatusBadRequest)
	_, _ = w.Write([]byte(usage))
}

// respondAPIError sends a structured client-facing error.
func (h *Handler) respondAPIError(w http.ResponseWriter, apiErr *relay.APIError) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(apiErr.HTTPStatus)
	_ = json.NewEncoder(w).Encode(apiErr)
}

// maxBodySize bounds a publish body.
const maxBodySize = 32 * 1024
