package kafka

import "github.com/segmentio/kafka-go"

type Writer struct {
	*kafka.Writer
}

// NewWriter builds a writer for the outbox relay. Every replica must ack so
// that a row marked sent is durable on the broker.
func NewWriter(brokers []string) *Writer {
	return &Writer{
		Writer: &kafka.Writer{
			Addr:                   kafka.TCP(brokers...),
			Balancer:               &kafka.Hash{},
			RequiredAcks:           kafka.RequireAll,
			AllowAutoTopicCreation: true,
		},
	}
}
