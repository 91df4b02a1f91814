package relica

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sync"

	"github.com/coregx/relay"
	"github.com/coregx/relay/model"
	"github.com/coregx/relica"
	"github.com/go-sql-driver/mysql"
	"github.com/lib/pq"
	"github.com/mattn/go-sqlite3"
)

// MessageRepository implements relay.MessageRepository using Relica.
type MessageRepository struct {
	db          *relica.DB
	sqlDB       *sql.DB
	driverName  string
	tablePrefix string

	initOnce sync.Once
	initErr  error
}

// NewMessageRepository creates a new MessageRepository with default table prefix.
func NewMessageRepository(sqlDB *sql.DB, driverName string) *MessageRepository {
	return NewMessageRepositoryWithPrefix(sqlDB, driverName, "relay_")
}

// NewMessageRepositoryWithPrefix creates a new MessageRepository with custom table prefix.
func NewMessageRepositoryWithPrefix(sqlDB *sql.DB, driverName, prefix string) *MessageRepository {
	return &MessageRepository{
		db:          relica.WrapDB(sqlDB, driverName),
		sqlDB:       sqlDB,
		driverName:  driverName,
		tablePrefix: prefix,
	}
}

func (r *MessageRepository) tableName() string {
	return r.tablePrefix + "message"
}

// ensureSchema creates the message table on first use. The DDL is idempotent
// and portable across the three supported drivers; this is a one-time
// operation, not a migration system.
func (r *MessageRepository) ensureSchema(ctx context.Context) error {
	r.initOnce.Do(func() {
		ddl := fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
			id VARCHAR(12) NOT NULL,
			time BIGINT NOT NULL,
			expires BIGINT NOT NULL,
			topic VARCHAR(64) NOT NULL,
			priority INT NOT NULL,
			message TEXT NOT NULL,
			PRIMARY KEY (id, topic)
		)`, r.tableName())
		_, r.initErr = r.sqlDB.ExecContext(ctx, ddl)
	})
	if r.initErr != nil {
		return relay.NewErrorWithCause(relay.ErrCodeDatabase, "failed to create message table", r.initErr)
	}
	return nil
}

// Append persists a message record. A duplicate (id, topic) pair yields a
// constraint-violation error.
func (r *MessageRepository) Append(ctx context.Context, m model.Message) (model.Message, error) {
	if err := r.ensureSchema(ctx); err != nil {
		return m, err
	}
	err := r.db.WithContext(ctx).Model(&m).Table(r.tableName()).Insert()
	if err != nil {
		if isConstraintViolation(err) {
			return m, relay.NewErrorWithCause(relay.ErrCodeConstraint, "message key already exists", err)
		}
		return m, relay.NewErrorWithCause(relay.ErrCodeDatabase, "failed to insert message", err)
	}
	return m, nil
}

// FindByTopic retrieves messages for a topic with time >= since, ordered by
// ascending publish time.
func (r *MessageRepository) FindByTopic(ctx context.Context, topic string, since int64) ([]model.Message, error) {
	if err := r.ensureSchema(ctx); err != nil {
		return nil, err
	}
	var messages []model.Message
	err := r.db.WithContext(ctx).Select("*").
		From(r.tableName()).
		Where("topic = ?", topic).
		Where("time >= ?", since).
		OrderBy("time ASC").
		All(&messages)
	if err != nil {
		return nil, relay.NewErrorWithCause(relay.ErrCodeDatabase, "failed to find messages", err)
	}
	if len(messages) == 0 {
		return nil, relay.ErrNoData
	}
	return messages, nil
}

// TimeOfMessage resolves a message id to its publish time. The lookup is not
// scoped to a topic; the caller's topic filter provides the scoping.
func (r *MessageRepository) TimeOfMessage(ctx context.Context, id string) (int64, error) {
	if err := r.ensureSchema(ctx); err != nil {
		return 0, err
	}
	// the scanner only accepts struct destinations
	var row struct {
		Time int64
	}
	err := r.db.WithContext(ctx).Select("time").From(r.tableName()).Where("id = ?", id).One(&row)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, relay.ErrNoData
	}
	if err != nil {
		return 0, relay.NewErrorWithCause(relay.ErrCodeDatabase, "failed to look up message time", err)
	}
	return row.Time, nil
}

// DeleteExpired removes every row with expires < now and returns the count.
func (r *MessageRepository) DeleteExpired(ctx context.Context, now int64) (int, error) {
	if err := r.ensureSchema(ctx); err != nil {
		return 0, err
	}
	// postgres is the only supported driver without ? placeholders
	placeholder := "?"
	if r.driverName == "postgres" {
		placeholder = "$1"
	}
	res, err := r.sqlDB.ExecContext(ctx,
		fmt.Sprintf("DELETE FROM %s WHERE expires < %s", r.tableName(), placeholder), now)
	if err != nil {
		return 0, relay.NewErrorWithCause(relay.ErrCodeDatabase, "failed to delete expired messages", err)
	}
	deleted, err := res.RowsAffected()
	if err != nil {
		// the count is diagnostic only; the delete itself succeeded
		return 0, nil
	}
	return int(deleted), nil
}

// isConstraintViolation recognizes a unique/primary key violation for each
// supported driver.
func isConstraintViolation(err error) bool {
	var sqliteErr sqlite3.Error
	if errors.As(err, &sqliteErr) {
		return sqliteErr.Code == sqlite3.ErrConstraint
	}
	var mysqlErr *mysql.MySQLError
	if errors.As(err, &mysqlErr) {
		return mysqlErr.Number == 1062
	}
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return pqErr.Code == "23505"
	}
	return false
}
