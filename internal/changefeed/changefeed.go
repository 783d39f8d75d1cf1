// Package changefeed streams row-level mutations of the sales, customers and
// products tables out of PostgreSQL.
package changefeed

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// Channel is the LISTEN/NOTIFY channel the table triggers write to
const Channel = "sales_analytics_changes"

var (
	// ErrUnsupported means the store cannot deliver change notifications
	ErrUnsupported = errors.New("change feed not supported by store")
	// ErrClosed is returned by Next after Close
	ErrClosed = errors.New("change feed closed")
	// ErrMalformed wraps payloads that could not be decoded
	ErrMalformed = errors.New("malformed change payload")
)

// Operation is the kind of row mutation
type Operation string

const (
	OperationInsert Operation = "insert"
	OperationUpdate Operation = "update"
	OperationDelete Operation = "delete"
)

// Event is one row mutation
type Event struct {
	Collection string    `json:"collection"`
	Operation  Operation `json:"operation"`
	DocumentID uuid.UUID `json:"id"`
	OccurredAt time.Time `json:"occurredAt"`
}

// Feed is a pull-based subscription to store mutations
type Feed interface {
	// Next blocks until the next event, ctx is done or the feed is closed
	Next(ctx context.Context) (Event, error)
	Close() error
}

// ParsePayload decodes a notification payload written by the table trigger
func ParsePayload(payload string) (Event, error) {
	var ev Event
	if err := json.Unmarshal([]byte(payload), &ev); err != nil {
		return Event{}, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	ev.Operation = Operation(strings.ToLower(string(ev.Operation)))
	switch ev.Operation {
	case OperationInsert, OperationUpdate, OperationDelete:
	default:
		return Event{}, fmt.Errorf("%w: operation %q", ErrMalformed, ev.Operation)
	}
	if ev.Collection == "" || ev.DocumentID == uuid.Nil {
		return Event{}, fmt.Errorf("%w: missing collection or id", ErrMalformed)
	}
	if ev.OccurredAt.IsZero() {
		ev.OccurredAt = time.Now().UTC()
	}
	return ev, nil
}

// PostgresFeed receives events over a dedicated LISTEN connection.
// Next and Close must not be called concurrently; cancel the context passed
// to Next before closing.
type PostgresFeed struct {
	mu     sync.Mutex
	conn   *pgx.Conn
	closed bool
}

// Open connects to dsn and subscribes to Channel. Any failure is reported as
// ErrUnsupported so callers can degrade instead of aborting.
func Open(ctx context.Context, dsn string) (*PostgresFeed, error) {
	conn, err := pgx.Connect(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnsupported, err)
	}

	if _, err := conn.Exec(ctx, "LISTEN "+pgx.Identifier{Channel}.Sanitize()); err != nil {
		_ = conn.Close(ctx)
		return nil, fmt.Errorf("%w: %v", ErrUnsupported, err)
	}

	return &PostgresFeed{conn: conn}, nil
}

// Next implements Feed
func (f *PostgresFeed) Next(ctx context.Context) (Event, error) {
	f.mu.Lock()
	if f.closed {
		f.mu.Unlock()
		return Event{}, ErrClosed
	}
	conn := f.conn
	f.mu.Unlock()

	n, err := conn.WaitForNotification(ctx)
	if err != nil {
		if ctx.Err() != nil {
			return Event{}, ctx.Err()
		}
		return Event{}, fmt.Errorf("failed to wait for notification: %w", err)
	}

	return ParsePayload(n.Payload)
}

// Close implements Feed
func (f *PostgresFeed) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.closed {
		return nil
	}
	f.closed = true

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return f.conn.Close(ctx)
}
