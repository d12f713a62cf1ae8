package kafka

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/goccy/go-json"
	"github.com/segmentio/kafka-go"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"

	"github.com/dmehra2102/Send-Payment-Service/internal/payment/domain"
	"github.com/dmehra2102/Send-Payment-Service/pkg/tracing"
)

type MessageReader interface {
	FetchMessage(ctx context.Context) (kafka.Message, error)
	CommitMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// Deduper is satisfied by idempotency.Store.
type Deduper interface {
	Key(scope, key string) string
	Seen(ctx context.Context, key string) (bool, error)
}

type Handler func(ctx context.Context, event domain.TransactionRecorded) error

// Consumer reads TransactionRecorded events published by the outbox relay.
type Consumer struct {
	log    *slog.Logger
	reader MessageReader
	handle Handler
	idem   Deduper
	tracer trace.Tracer
}

func NewReader(brokers []string, topic, group string) *kafka.Reader {
	return kafka.NewReader(kafka.ReaderConfig{
		Brokers: brokers,
		Topic:   topic,
		GroupID: group,
	})
}

// NewConsumer wires reader to handle. idem may be nil, in which case
// redelivered messages reach the handler again.
func NewConsumer(log *slog.Logger, reader MessageReader, handle Handler, idem Deduper) *Consumer {
	return &Consumer{
		log:    log,
		reader: reader,
		handle: handle,
		idem:   idem,
		tracer: otel.Tracer("transaction-events-consumer"),
	}
}

// Run consumes until ctx is cancelled. Messages are committed whether or not
// the handler succeeds.
func (c *Consumer) Run(ctx context.Context) error {
	defer c.reader.Close()

	for {
		msg, err := c.reader.FetchMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return err
		}

		if c.idem != nil {
			key := c.idem.Key("kafka", fmt.Sprintf("%s:%d:%d", msg.Topic, msg.Partition, msg.Offset))
			seen, err := c.idem.Seen(ctx, key)
			if err != nil {
				c.log.Error("idempotency check failed", "err", err)
			} else if seen {
				c.log.Info("duplicate message skipped", "key", key)
				_ = c.reader.CommitMessages(ctx, msg)
				continue
			}
		}

		if t := headerValue(msg.Headers, "event_type"); t != "" && t != domain.EventTransactionRecorded {
			c.log.Debug("ignoring event", "type", t)
			_ = c.reader.CommitMessages(ctx, msg)
			continue
		}

		msgCtx := tracing.ExtractKafkaHeaders(ctx, msg.Headers)
		msgCtx, span := c.tracer.Start(msgCtx, "ConsumeTransactionRecorded")

		var event domain.TransactionRecorded
		if err := json.Unmarshal(msg.Value, &event); err != nil {
			c.log.Error("unmarshal failed", "err", err)
			span.End()
			_ = c.reader.CommitMessages(ctx, msg)
			continue
		}

		if err := c.handle(msgCtx, event); err != nil {
			c.log.Error("transaction event handler failed", "transaction_id", event.TransactionID, "err", err)
		}
		span.End()
		_ = c.reader.CommitMessages(ctx, msg)
	}
}

func headerValue(h []kafka.Header, key string) string {
	for _, hh := range h {
		if hh.Key == key {
			return string(hh.Value)
		}
	}
	return ""
}
