package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/segmentio/kafka-go"

	"event-booking/internal/config"
	"event-booking/internal/models"
)

// Producer streams booking and catalog events. Publishing is best effort:
// a failed publish never fails the request that triggered it.
type Producer struct {
	writer *kafka.Writer
	cfg    config.KafkaConfig
}

func NewProducer(cfg config.KafkaConfig) *Producer {
	p := &Producer{cfg: cfg}
	if !cfg.Enabled || cfg.MockMode {
		return p
	}
	p.writer = &kafka.Writer{
		Addr:     kafka.TCP(cfg.Brokers...),
		Balancer: &kafka.LeastBytes{},
	}
	return p
}

func (p *Producer) publish(topic, key string, payload interface{}) error {
	msgBytes, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	if p.writer == nil {
		// Disabled or mock mode: nothing leaves the process.
		return nil
	}
	return p.writer.WriteMessages(context.Background(),
		kafka.Message{
			Topic: topic,
			Key:   []byte(key),
			Value: msgBytes,
		},
	)
}

// PublishBookingCreated streams an accepted booking to Kafka
func (p *Producer) PublishBookingCreated(booking models.Booking) error {
	return p.publish(p.cfg.Topics.BookingCreated, booking.Reference, booking)
}

// PublishEventPublished streams a draft→published transition to Kafka
func (p *Producer) PublishEventPublished(event models.Event) error {
	return p.publish(p.cfg.Topics.EventPublished, strconv.FormatInt(event.ID, 10), event)
}

func (p *Producer) Close() error {
	if p.writer == nil {
		return nil
	}
	return p.writer.Close()
}

// EnsureTopicsExist creates Kafka topics if they don't already exist
func EnsureTopicsExist(brokers []string, topics []string) error {
	conn, err := kafka.Dial("tcp", brokers[0])
	if err != nil {
		return err
	}
	defer conn.Close()

	controller, err := conn.Controller()
	if err != nil {
		return err
	}
	controllerConn, err := kafka.Dial("tcp", fmt.Sprintf("%s:%d", controller.Host, controller.Port))
	if err != nil {
		return err
	}
	defer controllerConn.Close()

	topicConfigs := make([]kafka.TopicConfig, 0, len(topics))
	for _, topic := range topics {
		topicConfigs = append(topicConfigs, kafka.TopicConfig{
			Topic:             topic,
			NumPartitions:     1,
			ReplicationFactor: 1,
		})
	}

	return controllerConn.CreateTopics(topicConfigs...)
}
