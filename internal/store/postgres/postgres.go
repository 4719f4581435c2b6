package postgres

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"
	_ "github.com/jackc/pgx/v5/stdlib"

	"github.com/glglak/elastic-personalization-poc/internal/model"
	"github.com/glglak/elastic-personalization-poc/internal/store"
)

// Outbox operations written alongside content mutations.
const (
	OpUpsertContent = "upsert_content"
	OpDeleteContent = "delete_content"
)

// Postgres error codes mapped onto model errors.
const (
	codeUniqueViolation     = "23505"
	codeForeignKeyViolation = "23503"
	codeCheckViolation      = "23514"

	codeClassConnectionException = "08"
)

// Server states in which the statement was never attempted.
var unavailableCodes = map[string]bool{
	"53300": true, // too_many_connections
	"57P01": true, // admin_shutdown
	"57P02": true, // crash_shutdown
	"57P03": true, // cannot_connect_now
}

// Open opens a PostgreSQL connection using the pgx stdlib driver and verifies connectivity.
func Open(dsn string) (*sql.DB, error) {
	if dsn == "" {
		return nil, fmt.Errorf("postgres DSN is empty")
	}
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, err
	}
	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, err
	}
	return db, nil
}

// NewWithDB constructs a native Postgres store backed directly by database/sql.
func NewWithDB(db *sql.DB) store.Store { return &pgStore{db: db} }

type pgStore struct{ db *sql.DB }

func (s *pgStore) Users() store.Users               { return &users{db: s.db} }
func (s *pgStore) Contents() store.Contents         { return &contents{db: s.db} }
func (s *pgStore) Interactions() store.Interactions { return &interactions{db: s.db} }

// HealthPing implements health.HealthPinger for Postgres-backed store.
func (s *pgStore) HealthPing(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// Bootstrap verifies connectivity and applies the bootstrap schema.
func Bootstrap(ctx context.Context, dsn string) error {
	if dsn == "" {
		return nil
	}

	db, err := Open(dsn)
	if err != nil {
		return err
	}
	defer func() { _ = db.Close() }()

	if err := db.PingContext(ctx); err != nil {
		return err
	}
	return EnsureSchema(ctx, db)
}

// helpers

func writeOutbox(ctx context.Context, tx *sql.Tx, op string, aggregateID string, payload interface{}) error {
	b, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	_, err = tx.ExecContext(ctx, `INSERT INTO outbox (aggregate_id, op, payload) VALUES ($1,$2,$3)`, aggregateID, op, b)
	return mapErr(err, "write outbox")
}

func marshalList(v []string) ([]byte, error) {
	if v == nil {
		v = []string{}
	}
	return json.Marshal(v)
}

func unmarshalList(b []byte) ([]string, error) {
	out := []string{}
	if len(b) == 0 {
		return out, nil
	}
	if err := json.Unmarshal(b, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// mapErr translates driver errors into model errors so callers can use errors.Is.
func mapErr(err error, what string) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("%s: %w", what, model.ErrNotFound)
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case codeUniqueViolation:
			return fmt.Errorf("%s: %s: %w", what, pgErr.ConstraintName, model.ErrConflict)
		case codeForeignKeyViolation:
			return fmt.Errorf("%s: %s: %w", what, pgErr.ConstraintName, model.ErrNotFound)
		case codeCheckViolation:
			return fmt.Errorf("%s: %s: %w", what, pgErr.ConstraintName, model.ErrInvalidOperation)
		}
	}
	if unavailable(err) {
		return fmt.Errorf("%s: %w: %w", what, model.ErrServiceUnavailable, err)
	}
	return fmt.Errorf("%s: %w", what, err)
}

// unavailable reports whether err means the database could not be reached or
// refused work, as opposed to rejecting the statement itself.
func unavailable(err error) bool {
	if errors.Is(err, driver.ErrBadConn) || errors.Is(err, sql.ErrConnDone) ||
		errors.Is(err, context.DeadlineExceeded) || pgconn.Timeout(err) {
		return true
	}
	var connErr *pgconn.ConnectError
	if errors.As(err, &connErr) {
		return true
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return strings.HasPrefix(pgErr.Code, codeClassConnectionException) || unavailableCodes[pgErr.Code]
	}
	var netErr net.Error
	return errors.As(err, &netErr)
}
