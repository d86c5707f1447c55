// Package streams is the durable transport between pipeline stages: an
// append-only, per-stream ordered log with consumer-group cursor tracking
// and message acknowledgement, backed by Redis Streams.
package streams

import (
	"context"
	"time"
)

// Stream names used by the pipeline. Every stage reads and writes through
// these; the raw incidents stream is consumed independently by both the
// triage and pattern groups.
const (
	StreamIncidents        = "incidents"
	StreamIncidentAnalyzed = "incident-analyzed"
	StreamPatternDetected  = "pattern-detected"
	StreamFixProposed      = "fix-proposed"
	StreamAgentActivity    = "agent-activity"
)

// Consumer group names. Two groups read the raw incidents stream so both
// stages see every incident.
const (
	GroupTriage     = "triage-group"
	GroupPattern    = "pattern-group"
	GroupResolution = "resolution-group"
)

// Message is one delivered stream entry. IDs are assigned by the transport
// and strictly increase within a stream.
type Message struct {
	ID     string
	Values map[string]interface{}
}

// ReadArgs parameterizes a consumer-group read.
type ReadArgs struct {
	Stream   string
	Group    string
	Consumer string
	// Count bounds the batch; Block bounds how long the read waits for new
	// messages before returning empty.
	Count int64
	Block time.Duration
}

// Client is the stream transport contract. Implementations must deliver each
// message to exactly one consumer per group and keep unacknowledged messages
// eligible for redelivery (at-least-once).
type Client interface {
	// Append adds a message to the stream and returns its generated id.
	Append(ctx context.Context, stream string, values map[string]interface{}) (string, error)

	// EnsureGroup creates the consumer group if it does not exist. Creating a
	// group that already exists is a no-op, not an error.
	EnsureGroup(ctx context.Context, stream, group string) error

	// ReadGroup blocks up to args.Block for messages never delivered to this
	// group, returning at most args.Count. An empty slice means the wait
	// timed out with nothing new.
	ReadGroup(ctx context.Context, args ReadArgs) ([]Message, error)

	// Ack marks a message as processed for the group, advancing its cursor.
	Ack(ctx context.Context, stream, group, id string) error

	// Read tails the stream without a group, starting after lastID. Pass "$"
	// to see only messages appended after the call. Returns the delivered
	// messages and the id to resume from.
	Read(ctx context.Context, stream, lastID string, block time.Duration, count int64) ([]Message, string, error)

	// HealthCheck verifies the transport is reachable.
	HealthCheck(ctx context.Context) error

	Close() error
}
