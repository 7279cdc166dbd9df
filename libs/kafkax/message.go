package kafkax

import (
	"context"
	"strings"

	"github.com/segmentio/kafka-go"
)

// Header keys carried on every domain event.
const (
	HeaderEventID   = "event_id"
	HeaderEventType = "event_type"
)

// EventMessage builds the Kafka message for one domain event. The topic is the event type and
// the key is the aggregate id so events of one aggregate stay ordered on a partition.
func EventMessage(ctx context.Context, eventID, eventType, aggregateID string, payload []byte) kafka.Message {
	msg := kafka.Message{
		Topic: eventType,
		Key:   []byte(aggregateID),
		Value: payload,
		Headers: []kafka.Header{
			{Key: HeaderEventID, Value: []byte(eventID)},
			{Key: HeaderEventType, Value: []byte(eventType)},
		},
	}
	msg.Headers = InjectTraceHeaders(ctx, msg.Headers)
	return msg
}

func HeaderValue(headers []kafka.Header, key string) string {
	for _, h := range headers {
		if h.Key == key {
			return string(h.Value)
		}
	}
	return ""
}

func SplitBrokers(raw string) []string {
	var brokers []string
	for _, b := range strings.Split(raw, ",") {
		b = strings.TrimSpace(b)
		if b != "" {
			brokers = append(brokers, b)
		}
	}
	return brokers
}
