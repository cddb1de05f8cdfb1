// Package notification приёмники уведомлений: таблица notifications с рассылкой
// по WebSocket, Kafka и асинхронная обёртка над ними.
package notification

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/sirupsen/logrus"

	"github.com/ignatzorin/freelance-orders/internal/domain/gateway"
	"github.com/ignatzorin/freelance-orders/internal/logger"
)

// Pusher доставка в открытые WebSocket-соединения.
type Pusher interface {
	Push(userID int64, event string, data any) error
}

// StoreSink сохраняет уведомление и пушит его пользователю, если тот онлайн.
type StoreSink struct {
	db  *sqlx.DB
	hub Pusher
	now func() time.Time
}

func NewStoreSink(db *sqlx.DB, hub Pusher) *StoreSink {
	return &StoreSink{db: db, hub: hub, now: time.Now}
}

var _ gateway.NotificationDispatcher = (*StoreSink)(nil)

func (s *StoreSink) Send(ctx context.Context, n gateway.Notification) (string, error) {
	id := uuid.New()
	payload, err := json.Marshal(n.Data)
	if err != nil {
		return "", fmt.Errorf("notification: marshal payload: %w", err)
	}
	if n.Data == nil {
		payload = []byte("{}")
	}

	query := `
		INSERT INTO notifications (id, user_id, event, title, message, type, payload, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`
	if _, err := s.db.ExecContext(ctx, query, id, n.UserID, n.Event, n.Title, n.Message, n.Type, payload, s.now().UTC()); err != nil {
		return "", fmt.Errorf("notification: insert: %w", err)
	}

	if s.hub != nil {
		if err := s.hub.Push(n.UserID, n.Event, pushPayload(id.String(), n)); err != nil {
			// запись уже есть, клиент получит её при следующем запросе
			logger.Log.WithFields(logrus.Fields{
				"user_id": n.UserID,
				"event":   n.Event,
				"error":   err.Error(),
			}).Debug("не удалось отправить уведомление по websocket")
		}
	}
	return id.String(), nil
}

func pushPayload(id string, n gateway.Notification) map[string]any {
	return map[string]any{
		"id":      id,
		"title":   n.Title,
		"message": n.Message,
		"type":    n.Type,
		"data":    n.Data,
	}
}
