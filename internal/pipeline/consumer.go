// Package pipeline provides the generic stage consumer runtime: a long-lived
// receive/handle/acknowledge loop over the stream transport. Each stage runs
// one Consumer per (stream, group, consumer-name).
package pipeline

import (
	"context"
	"time"

	"github.com/crashlens/crashlens-core/internal/monitoring"
	"github.com/crashlens/crashlens-core/pkg/logger"
	"github.com/crashlens/crashlens-core/pkg/streams"
)

// Handler processes one delivered message. A nil return acknowledges the
// message; an error leaves it unacknowledged so the transport redelivers it.
type Handler func(ctx context.Context, msg streams.Message) error

// Options tunes a Consumer. Zero values fall back to the defaults below.
type Options struct {
	// Block bounds each read; Batch bounds its size.
	Block time.Duration
	Batch int64
	// RetryBackoff is slept after a failed read before retrying the loop.
	RetryBackoff time.Duration
}

const (
	defaultBlock        = 5 * time.Second
	defaultBatch        = 10
	defaultRetryBackoff = 5 * time.Second
)

// Consumer pulls undelivered messages for a named group and feeds them to a
// stage handler, acknowledging only after the handler succeeds.
type Consumer struct {
	client   streams.Client
	stream   string
	group    string
	consumer string
	handler  Handler
	logger   logger.Logger
	opts     Options
}

// NewConsumer builds a Consumer for one (stream, group, consumer-name).
func NewConsumer(client streams.Client, stream, group, consumer string, handler Handler, log logger.Logger, opts Options) *Consumer {
	if opts.Block <= 0 {
		opts.Block = defaultBlock
	}
	if opts.Batch <= 0 {
		opts.Batch = defaultBatch
	}
	if opts.RetryBackoff <= 0 {
		opts.RetryBackoff = defaultRetryBackoff
	}
	return &Consumer{
		client:   client,
		stream:   stream,
		group:    group,
		consumer: consumer,
		handler:  handler,
		logger:   log,
		opts:     opts,
	}
}

// Run reads and handles messages until ctx is cancelled. Handler failures
// never stop the loop: the message is left unacknowledged and the next batch
// is read. Transport failures, including group creation at startup, are
// retried after a backoff. An in-flight handler finishes before Run returns;
// there is no drain of already-delivered but unhandled messages (they are
// redelivered on the next start).
func (c *Consumer) Run(ctx context.Context) error {
	for {
		err := c.client.EnsureGroup(ctx, c.stream, c.group)
		if err == nil {
			break
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
		c.logger.Error("Group creation failed, backing off", "stream", c.stream, "group", c.group, "error", err)
		c.sleep(ctx, c.opts.RetryBackoff)
	}

	c.logger.Info("Consumer started", "stream", c.stream, "group", c.group, "consumer", c.consumer)

	for {
		select {
		case <-ctx.Done():
			c.logger.Info("Consumer stopped", "stream", c.stream, "group", c.group)
			return ctx.Err()
		default:
		}

		messages, err := c.client.ReadGroup(ctx, streams.ReadArgs{
			Stream:   c.stream,
			Group:    c.group,
			Consumer: c.consumer,
			Count:    c.opts.Batch,
			Block:    c.opts.Block,
		})
		if err != nil {
			if ctx.Err() != nil {
				continue
			}
			c.logger.Error("Stream read failed, backing off", "stream", c.stream, "group", c.group, "error", err)
			c.sleep(ctx, c.opts.RetryBackoff)
			continue
		}

		for _, msg := range messages {
			if err := c.handler(ctx, msg); err != nil {
				// Left unacknowledged; the transport redelivers it.
				c.logger.Error("Handler failed, message not acknowledged",
					"stream", c.stream, "group", c.group, "message_id", msg.ID, "error", err)
				monitoring.RecordMessageHandled(c.group, false)
				continue
			}
			if err := c.client.Ack(ctx, c.stream, c.group, msg.ID); err != nil {
				// The handler succeeded but the ack did not land; the message
				// will be redelivered and handled again (at-least-once).
				c.logger.Error("Ack failed", "stream", c.stream, "group", c.group, "message_id", msg.ID, "error", err)
				monitoring.RecordMessageHandled(c.group, false)
				continue
			}
			monitoring.RecordMessageHandled(c.group, true)
		}
	}
}

func (c *Consumer) sleep(ctx context.Context, d time.Duration) {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
	case <-timer.C:
	}
}
