// Package logger provides the zerolog logger shared by the feed service and the index worker.
package logger

import (
	"errors"
	"io"
	"os"
	"sync"

	pkgerrors "github.com/pkg/errors"
	"github.com/rs/zerolog"
	zpkgerrors "github.com/rs/zerolog/pkgerrors"
)

type stackTracer interface{ StackTrace() pkgerrors.StackTrace }

var stackMarshalerOnce sync.Once

// New returns a JSON logger on stdout tagged with serviceName.
// Call sites should use .Stack() on error events to include stacks.
func New(serviceName string) zerolog.Logger {
	return NewWithWriter(os.Stdout, serviceName, "info")
}

// NewWithLevel is New with an explicit minimum level such as "debug" or "warn".
// Unknown levels fall back to info.
func NewWithLevel(serviceName, level string) zerolog.Logger {
	return NewWithWriter(os.Stdout, serviceName, level)
}

// NewWithWriter builds the service logger on an arbitrary writer.
func NewWithWriter(w io.Writer, serviceName, level string) zerolog.Logger {
	stackMarshalerOnce.Do(func() { zerolog.ErrorStackMarshaler = marshalStack })

	lvl, err := zerolog.ParseLevel(level)
	if err != nil || level == "" {
		lvl = zerolog.InfoLevel
	}
	return zerolog.New(w).Level(lvl).With().
		Str("service", serviceName).
		Timestamp().
		Logger()
}

// marshalStack renders the pkg/errors stack anywhere in err's chain. Errors
// without one are stamped at the logging site.
func marshalStack(err error) interface{} {
	var st stackTracer
	if !errors.As(err, &st) {
		return zpkgerrors.MarshalStack(pkgerrors.WithStack(err))
	}
	// MarshalStack only follows single-error chains.
	if inner, ok := st.(error); ok {
		err = inner
	}
	return zpkgerrors.MarshalStack(err)
}
