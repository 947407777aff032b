package chart

import (
	"context"
	"crypto/rand"
	"encoding/hex"
)

type correlationIDKey struct{}

// CorrelationID ties together the log records of one reload or data
// resynchronization.
type CorrelationID string

// String returns the string representation of the correlation ID.
func (c CorrelationID) String() string { return string(c) }

// NewCorrelationID generates a random 16-character hex ID.
func NewCorrelationID() CorrelationID {
	b := make([]byte, 8)
	if _, err := rand.Read(b); err != nil {
		return CorrelationID("0000000000000000")
	}
	return CorrelationID(hex.EncodeToString(b))
}

// WithCorrelationID returns a new context with the given correlation ID.
// If id is empty, a new correlation ID is generated.
func WithCorrelationID(ctx context.Context, id CorrelationID) context.Context {
	if id == "" {
		id = NewCorrelationID()
	}
	return context.WithValue(ctx, correlationIDKey{}, id)
}

// CorrelationIDFromContext retrieves the correlation ID from the context.
// Returns an empty string if no correlation ID is present.
func CorrelationIDFromContext(ctx context.Context) CorrelationID {
	if ctx == nil {
		return ""
	}
	id, _ := ctx.Value(correlationIDKey{}).(CorrelationID)
	return id
}

// CorrelatedLogger returns logger with the context's correlation ID added
// to every record. Without an ID logger is returned unchanged.
func CorrelatedLogger(ctx context.Context, logger Logger) Logger {
	if logger == nil {
		logger = NopLogger()
	}
	id := CorrelationIDFromContext(ctx)
	if id == "" {
		return logger
	}
	return withArgs(logger, "correlation_id", string(id))
}
