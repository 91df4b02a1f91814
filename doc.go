// Package relay provides a topic-based publish/subscribe notification broker
// for Go, usable both as an embedded library and as a standalone service
// with an HTTP/WebSocket API.
//
// Clients publish short text messages to a named topic; connected
// subscribers receive them live, and anyone can replay past messages with a
// flexible "since" selector. Messages are retained for 12 hours and swept
// afterwards.
//
// # Features
//
//   - Durable message log keyed by (id, topic) with a 12-hour retention window
//   - Live fan-out to websocket subscribers, best-effort and fire-and-forget
//   - Replay queries by absolute timestamp, message id, or relative duration
//   - Priority levels 1-5 with a wire-format default-omission rule
//   - Multi-Database Support: MySQL, PostgreSQL, SQLite via Relica adapters
//   - Options Pattern for service construction
//   - Pluggable Logger and NotificationService
//
// # Quick Start
//
// Connect a database and create the message repository:
//
//	import (
//	    "database/sql"
//	    "github.com/coregx/relay"
//	    "github.com/coregx/relay/adapters/relica"
//	    _ "github.com/mattn/go-sqlite3"
//	)
//
//	db, _ := sql.Open("sqlite3", "relay.db")
//	messages := relica.NewMessageRepository(db, "sqlite3")
//
// Wire the services:
//
//	registry := relay.NewRegistry(logger)
//
//	publisher, _ := relay.NewPublisher(
//	    relay.WithPublisherRepository(messages),
//	    relay.WithPublisherRegistry(registry),
//	    relay.WithPublisherLogger(logger),
//	)
//
//	engine, _ := relay.NewReplayEngine(
//	    relay.WithReplayRepository(messages),
//	    relay.WithReplayLogger(logger),
//	)
//
//	sweeper, _ := relay.NewSweeper(
//	    relay.WithSweeperRepository(messages),
//	    relay.WithSweeperLogger(logger),
//	)
//	go sweeper.Run(ctx, time.Hour)
//
// Publish a message:
//
//	msg, err := publisher.Publish(ctx, relay.PublishRequest{
//	    Topic: "alerts",
//	    Body:  "disk full on db-3",
//	})
//
// # Message Flow
//
//  1. PUBLISH
//     Publisher → validate priority → generate id, stamp time/expires
//     → append to Message Store → fan out to live subscribers → ack
//
//  2. SUBSCRIBE (live)
//     Registry.Subscribe → synchronous "open" event
//     → every later publish on a subscribed topic is delivered as a
//     "message" event; a disconnect triggers Unsubscribe
//
//  3. REPLAY
//     ReplayEngine.Replay resolves the since selector to a time lower
//     bound and returns matching rows in publish order
//
//  4. SWEEP (background)
//     Sweeper deletes rows whose expiry deadline has passed, once at
//     startup and then on a fixed schedule
//
// # Database Schema
//
// A single table (default name "relay_message") holds the message log:
//
//	id       VARCHAR(12)  message id, crypto-random base62
//	time     BIGINT       publish time, Unix seconds
//	expires  BIGINT       time + 43200
//	topic    VARCHAR(64)  topic name
//	priority INT          1-5, default 3
//	message  TEXT         opaque body
//
// Primary key (id, topic). The schema is created lazily and idempotently on
// first use; there is no migration system.
//
// # Standalone Service
//
// cmd/relay-server exposes the broker over HTTP:
//
//	# Publish (priority header optional)
//	curl -X POST -H "X-Priority: 5" -d "disk full" http://localhost:8080/alerts
//
//	# Replay the last two hours
//	curl "http://localhost:8080/alerts/json?since=2h"
//
//	# Live subscribe (websocket, multiple topics)
//	websocat ws://localhost:8080/alerts,ops/ws
//
// See cmd/relay-server for configuration via environment variables.
package relay
