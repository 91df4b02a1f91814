// Package relica provides the Relica-backed implementation of the relay
// message repository.
//
// One table (default "relay_message") backs the whole broker. It is created
// lazily and idempotently on first use; there is no schema versioning and no
// migration system. MySQL, PostgreSQL and SQLite are supported through their
// database/sql drivers:
//
//	import (
//	    "database/sql"
//	    "github.com/coregx/relay/adapters/relica"
//	    _ "github.com/mattn/go-sqlite3"
//	)
//
//	db, _ := sql.Open("sqlite3", "relay.db")
//	messages := relica.NewMessageRepository(db, "sqlite3")
//
// The (id, topic) primary key enforces message uniqueness; a duplicate
// append surfaces as a constraint-violation error that
// relay.IsConstraintViolation recognizes across all three drivers.
package relica
