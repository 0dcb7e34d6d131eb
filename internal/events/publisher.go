package events

import (
	"context"
	"encoding/json"

	"github.com/segmentio/kafka-go"

	"eshop/internal/entity"
)

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
}

// KafkaPublisher writes order events as JSON messages.
type KafkaPublisher struct {
	writer messageWriter
}

func NewKafkaPublisher(writer *kafka.Writer) *KafkaPublisher {
	return &KafkaPublisher{writer: writer}
}

// Publish sends all events in a single write.
func (p *KafkaPublisher) Publish(ctx context.Context, events ...entity.Event) error {
	if len(events) == 0 {
		return nil
	}

	msgs := make([]kafka.Message, 0, len(events))
	for _, ev := range events {
		value, err := json.Marshal(ev.Payload)
		if err != nil {
			return err
		}
		msgs = append(msgs, kafka.Message{
			Key:   []byte(ev.Key),
			Value: value,
		})
	}

	return p.writer.WriteMessages(ctx, msgs...)
}
