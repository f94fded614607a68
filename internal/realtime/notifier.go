package realtime

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/thereayou/taskflow/internal/events"
	"github.com/thereayou/taskflow/internal/services"
	"github.com/thereayou/taskflow/internal/websocket"
	"go.uber.org/zap"
)

// Notifier сначала сохраняет уведомление и только потом пытается доставить
// его в персональную комнату получателя.
type Notifier struct {
	sink services.NotificationSink
	hub  *websocket.Hub
	log  *zap.Logger
}

func NewNotifier(sink services.NotificationSink, hub *websocket.Hub, logger *zap.Logger) *Notifier {
	return &Notifier{sink: sink, hub: hub, log: logger.Named("notifier")}
}

// Notify возвращает ошибку только если запись не сохранилась.
// Получатель не в сети не ошибка.
func (n *Notifier) Notify(ctx context.Context, recipientID uuid.UUID, title, message, typ string, payload any) (*services.StoredNotification, error) {
	var data json.RawMessage
	if payload != nil {
		raw, err := json.Marshal(payload)
		if err != nil {
			return nil, fmt.Errorf("encode notification payload: %w", err)
		}
		data = raw
	}

	stored, err := n.sink.Create(ctx, services.NewNotification{
		RecipientID: recipientID,
		Title:       title,
		Message:     message,
		Type:        typ,
		Payload:     data,
	})
	if err != nil {
		return nil, fmt.Errorf("persist notification for %s: %w", recipientID, err)
	}

	frame, err := websocket.Encode(events.NotificationNewName, stored)
	if err != nil {
		n.log.Error("encode notification", zap.Error(err))
		return stored, nil
	}
	if n.hub.SendToUser(recipientID, frame) == 0 {
		n.log.Debug("recipient offline, notification stored only",
			zap.Stringer("user", recipientID),
			zap.Stringer("notification", stored.ID),
		)
	}
	return stored, nil
}
