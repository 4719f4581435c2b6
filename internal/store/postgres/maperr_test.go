package postgres

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"errors"
	"fmt"
	"net"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"

	"github.com/glglak/elastic-personalization-poc/internal/model"
)

func TestMapErr_ConnectionFailuresAreUnavailable(t *testing.T) {
	dial := &net.OpError{Op: "dial", Net: "tcp", Err: errors.New("connection refused")}
	cases := map[string]error{
		"dial":              fmt.Errorf("ping: %w", dial),
		"bad conn":          driver.ErrBadConn,
		"conn done":         sql.ErrConnDone,
		"deadline":          context.DeadlineExceeded,
		"admin shutdown":    &pgconn.PgError{Code: "57P01"},
		"too many conns":    &pgconn.PgError{Code: "53300"},
		"connection broken": &pgconn.PgError{Code: "08006"},
	}
	for name, err := range cases {
		t.Run(name, func(t *testing.T) {
			got := mapErr(err, "get user u1")
			assert.ErrorIs(t, got, model.ErrServiceUnavailable)
			assert.ErrorIs(t, got, err)
			assert.Contains(t, got.Error(), "get user u1")
		})
	}
}

func TestMapErr_StatementErrors(t *testing.T) {
	assert.NoError(t, mapErr(nil, "x"))
	assert.ErrorIs(t, mapErr(sql.ErrNoRows, "get user"), model.ErrNotFound)
	assert.ErrorIs(t, mapErr(&pgconn.PgError{Code: codeUniqueViolation}, "create user"), model.ErrConflict)
	assert.ErrorIs(t, mapErr(&pgconn.PgError{Code: codeForeignKeyViolation}, "add like"), model.ErrNotFound)
	assert.ErrorIs(t, mapErr(&pgconn.PgError{Code: codeCheckViolation}, "add follow"), model.ErrInvalidOperation)

	syntax := mapErr(&pgconn.PgError{Code: "42601"}, "list contents")
	assert.Error(t, syntax)
	assert.NotErrorIs(t, syntax, model.ErrServiceUnavailable)
}
