// Package nats implements the message queue port using NATS JetStream.
package nats

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"

	"github.com/agentdeck/agentdeck/internal/logger"
	"github.com/agentdeck/agentdeck/internal/port/messagequeue"
)

const streamName = "AGENTDECK"

// Message headers.
const (
	headerRequestID  = "Request-Id"
	headerRetryCount = "Retry-Count"
)

// maxRetries is how many deliveries a message gets before it is parked on
// its DLQ subject instead of redelivered.
const maxRetries = 3

// Queue implements messagequeue.Queue using NATS JetStream.
type Queue struct {
	nc *nats.Conn
	js jetstream.JetStream
}

// Connect establishes a connection to NATS and ensures the JetStream stream
// exists. The stream captures the activity and agent subject spaces.
func Connect(ctx context.Context, url string) (*Queue, error) {
	nc, err := nats.Connect(url,
		nats.MaxReconnects(-1),
		nats.ReconnectWait(2*time.Second),
	)
	if err != nil {
		return nil, fmt.Errorf("nats connect: %w", err)
	}

	js, err := jetstream.New(nc)
	if err != nil {
		nc.Close()
		return nil, fmt.Errorf("jetstream init: %w", err)
	}

	_, err = js.CreateOrUpdateStream(ctx, jetstream.StreamConfig{
		Name:     streamName,
		Subjects: []string{"activities.>", "agents.>"},
	})
	if err != nil {
		nc.Close()
		return nil, fmt.Errorf("jetstream stream create: %w", err)
	}

	slog.Info("nats connected", "url", url, "stream", streamName)
	return &Queue{nc: nc, js: js}, nil
}

// Publish sends a message to the given subject. The request ID, when the
// context carries one, travels in a header so consumers log under the same
// ID as the producer.
func (q *Queue) Publish(ctx context.Context, subject string, data []byte) error {
	msg := &nats.Msg{Subject: subject, Data: data, Header: nats.Header{}}
	if id := logger.RequestID(ctx); id != "" {
		msg.Header.Set(headerRequestID, id)
	}

	_, err := q.js.PublishMsg(ctx, msg)
	if err != nil {
		return fmt.Errorf("nats publish %s: %w", subject, err)
	}
	return nil
}

// Subscribe registers a handler for messages on the given subject. Each
// subject gets a durable consumer so a restarted process resumes where it
// left off. Messages that fail schema validation, or keep failing past
// maxRetries, are parked on "<subject>.dlq" and acked away.
func (q *Queue) Subscribe(ctx context.Context, subject string, handler messagequeue.Handler) (func(), error) {
	consumer, err := q.js.CreateOrUpdateConsumer(ctx, streamName, jetstream.ConsumerConfig{
		Durable:       durableName(subject),
		FilterSubject: subject,
		AckPolicy:     jetstream.AckExplicitPolicy,
	})
	if err != nil {
		return nil, fmt.Errorf("nats consumer create: %w", err)
	}

	cons, err := consumer.Consume(func(msg jetstream.Msg) {
		q.dispatch(ctx, subject, msg, handler)
	})
	if err != nil {
		return nil, fmt.Errorf("nats consume: %w", err)
	}

	return cons.Stop, nil
}

// dispatch runs one delivery through validation and the handler, deciding
// between ack, retry, and DLQ.
func (q *Queue) dispatch(ctx context.Context, subject string, msg jetstream.Msg, handler messagequeue.Handler) {
	hdrs := msg.Headers()
	msgCtx := ctx
	if id := hdrs.Get(headerRequestID); id != "" {
		msgCtx = logger.WithRequestID(ctx, id)
	}

	// A message that cannot validate will never succeed; park it now.
	if err := messagequeue.Validate(msg.Subject(), msg.Data()); err != nil {
		slog.Warn("nats message failed validation, moving to dlq",
			"subject", msg.Subject(), "error", err)
		q.moveToDLQ(msgCtx, msg, hdrs)
		return
	}

	err := handler(msgCtx, msg.Subject(), msg.Data())
	if err == nil {
		if ackErr := msg.Ack(); ackErr != nil {
			slog.Error("nats ack failed", "subject", msg.Subject(), "error", ackErr)
		}
		return
	}

	retries := retryCount(hdrs)
	if retries >= maxRetries {
		slog.Error("nats handler failed past retry budget, moving to dlq",
			"subject", msg.Subject(), "retries", retries, "error", err)
		q.moveToDLQ(msgCtx, msg, hdrs)
		return
	}

	// Republish with a bumped retry count rather than Nak: redelivery
	// counts survive even when the consumer is recreated.
	retry := &nats.Msg{Subject: subject, Data: msg.Data(), Header: cloneHeader(hdrs)}
	retry.Header.Set(headerRetryCount, strconv.Itoa(retries+1))
	if _, pubErr := q.js.PublishMsg(msgCtx, retry); pubErr != nil {
		slog.Error("nats retry publish failed", "subject", subject, "error", pubErr)
		if nakErr := msg.Nak(); nakErr != nil {
			slog.Error("nats nak failed", "error", nakErr)
		}
		return
	}
	if ackErr := msg.Ack(); ackErr != nil {
		slog.Error("nats ack failed after retry publish", "error", ackErr)
	}
}

// moveToDLQ parks a message on its dead-letter subject and acks the
// original so it stops redelivering.
func (q *Queue) moveToDLQ(ctx context.Context, msg jetstream.Msg, hdrs nats.Header) {
	dlq := &nats.Msg{Subject: msg.Subject() + ".dlq", Data: msg.Data(), Header: cloneHeader(hdrs)}
	if _, err := q.js.PublishMsg(ctx, dlq); err != nil {
		slog.Error("nats dlq publish failed", "subject", dlq.Subject, "error", err)
		if nakErr := msg.Nak(); nakErr != nil {
			slog.Error("nats nak failed", "error", nakErr)
		}
		return
	}
	if err := msg.Ack(); err != nil {
		slog.Error("nats ack failed after dlq publish", "error", err)
	}
}

// KeyValue opens (or creates) a JetStream key-value bucket with the given
// TTL. Idempotency replays and the L2 cache live in these buckets.
func (q *Queue) KeyValue(ctx context.Context, bucket string, ttl time.Duration) (jetstream.KeyValue, error) {
	kv, err := q.js.CreateOrUpdateKeyValue(ctx, jetstream.KeyValueConfig{
		Bucket: bucket,
		TTL:    ttl,
	})
	if err != nil {
		return nil, fmt.Errorf("jetstream key-value %s: %w", bucket, err)
	}
	return kv, nil
}

// Drain gracefully drains subscriptions before closing the connection.
func (q *Queue) Drain() error {
	if err := q.nc.Drain(); err != nil {
		return fmt.Errorf("nats drain: %w", err)
	}
	return nil
}

// Close shuts down the NATS connection immediately.
func (q *Queue) Close() error {
	q.nc.Close()
	return nil
}

// IsConnected reports whether the NATS connection is currently up.
func (q *Queue) IsConnected() bool {
	return q.nc.IsConnected()
}

func retryCount(hdrs nats.Header) int {
	n, err := strconv.Atoi(hdrs.Get(headerRetryCount))
	if err != nil {
		return 0
	}
	return n
}

func cloneHeader(hdrs nats.Header) nats.Header {
	cloned := nats.Header{}
	for k, vs := range hdrs {
		for _, v := range vs {
			cloned.Add(k, v)
		}
	}
	return cloned
}

// durableName derives a JetStream-safe consumer name from a subject: only
// alphanumerics, dashes, and underscores survive.
func durableName(subject string) string {
	name := make([]byte, len(subject))
	for i := 0; i < len(subject); i++ {
		c := subject[i]
		switch {
		case c >= 'a' && c <= 'z', c >= 'A' && c <= 'Z', c >= '0' && c <= '9', c == '_', c == '-':
			name[i] = c
		default:
			name[i] = '-'
		}
	}
	return "agentdeck-" + string(name)
}
