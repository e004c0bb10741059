package events

import (
	"context"
	"encoding/json"
	"strconv"
	"time"

	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"
)

type KafkaPublisher struct {
	writer *kafka.Writer
	logger *zap.Logger
}

// NewKafkaPublisher writes sale events to topic asynchronously. Delivery
// failures are logged from the writer's completion callback.
func NewKafkaPublisher(brokers []string, topic string, logger *zap.Logger) *KafkaPublisher {
	if logger == nil {
		logger = zap.NewNop()
	}
	writer := &kafka.Writer{
		Addr:         kafka.TCP(brokers...),
		Topic:        topic,
		Balancer:     &kafka.LeastBytes{},
		BatchTimeout: 10 * time.Millisecond,
		RequiredAcks: kafka.RequireOne,
		Async:        true,
		Completion: func(messages []kafka.Message, err error) {
			if err == nil {
				return
			}
			for _, m := range messages {
				logger.Warn("events.publish.fail",
					zap.String("topic", topic),
					zap.ByteString("key", m.Key),
					zap.Error(err))
			}
		},
	}
	return &KafkaPublisher{writer: writer, logger: logger}
}

func (p *KafkaPublisher) Publish(ctx context.Context, ev SaleEvent) {
	msg, err := encode(ev)
	if err != nil {
		p.logger.Error("events.encode.fail", zap.String("event_id", ev.EventID), zap.Error(err))
		return
	}
	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		p.logger.Warn("events.publish.fail",
			zap.String("event_id", ev.EventID),
			zap.Int64("sale_id", ev.SaleID),
			zap.Error(err))
		return
	}
	p.logger.Debug("events.publish",
		zap.String("event_id", ev.EventID),
		zap.String("type", ev.Type),
		zap.Int64("sale_id", ev.SaleID))
}

// Close flushes pending messages.
func (p *KafkaPublisher) Close() error {
	if p.writer != nil {
		return p.writer.Close()
	}
	return nil
}

// encode keys messages by sale id so every change of one sale lands on the same partition.
func encode(ev SaleEvent) (kafka.Message, error) {
	value, err := json.Marshal(ev)
	if err != nil {
		return kafka.Message{}, err
	}
	return kafka.Message{
		Key:   []byte(strconv.FormatInt(ev.SaleID, 10)),
		Value: value,
		Headers: []kafka.Header{
			{Key: "event_type", Value: []byte(ev.Type)},
			{Key: "event_id", Value: []byte(ev.EventID)},
		},
	}, nil
}
