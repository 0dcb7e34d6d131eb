package config

import (
	"time"

	"github.com/segmentio/kafka-go"
)

// kafkaBatchTimeout bounds how long a synchronous WriteMessages waits for a
// batch to fill. kafka-go defaults to one second.
const kafkaBatchTimeout = 10 * time.Millisecond

// NewKafkaWriter returns nil when no brokers are configured; order events are
// then disabled.
func NewKafkaWriter(brokers []string, topic string) *kafka.Writer {
	if len(brokers) == 0 {
		return nil
	}
	return &kafka.Writer{
		Addr:                   kafka.TCP(brokers...),
		Topic:                  topic,
		Balancer:               &kafka.LeastBytes{}, // Balancer for selecting partition
		BatchTimeout:           kafkaBatchTimeout,
		AllowAutoTopicCreation: true,
	}
}
