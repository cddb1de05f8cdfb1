package notification

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/segmentio/kafka-go"

	"github.com/ignatzorin/freelance-orders/internal/domain/gateway"
)

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// Event сообщение в топике уведомлений.
type Event struct {
	ID         string         `json:"id"`
	UserID     int64          `json:"user_id"`
	Event      string         `json:"event"`
	Title      string         `json:"title"`
	Message    string         `json:"message"`
	Type       string         `json:"type"`
	Data       map[string]any `json:"data,omitempty"`
	OccurredAt time.Time      `json:"occurred_at"`
}

// KafkaSink публикует уведомления для внешних потребителей (почта, push).
// Ключ сообщения user_id, поэтому события одного пользователя идут в одну партицию по порядку.
type KafkaSink struct {
	writer messageWriter
}

func NewKafkaSink(brokers []string, topic string) *KafkaSink {
	return &KafkaSink{
		writer: &kafka.Writer{
			Addr:         kafka.TCP(brokers...),
			Topic:        topic,
			Balancer:     &kafka.Hash{},
			RequiredAcks: kafka.RequireOne,
		},
	}
}

var _ gateway.NotificationDispatcher = (*KafkaSink)(nil)

func (k *KafkaSink) Send(ctx context.Context, n gateway.Notification) (string, error) {
	event := Event{
		ID:         uuid.NewString(),
		UserID:     n.UserID,
		Event:      n.Event,
		Title:      n.Title,
		Message:    n.Message,
		Type:       n.Type,
		Data:       n.Data,
		OccurredAt: time.Now().UTC(),
	}
	value, err := json.Marshal(event)
	if err != nil {
		return "", fmt.Errorf("kafka: marshal event: %w", err)
	}

	err = k.writer.WriteMessages(ctx, kafka.Message{
		Key:   []byte(strconv.FormatInt(n.UserID, 10)),
		Value: value,
		Time:  event.OccurredAt,
		Headers: []kafka.Header{
			{Key: "event", Value: []byte(n.Event)},
		},
	})
	if err != nil {
		return "", fmt.Errorf("kafka: write: %w", err)
	}
	return event.ID, nil
}

func (k *KafkaSink) Close() error {
	return k.writer.Close()
}
