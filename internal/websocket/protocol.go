package websocket

import (
	"encoding/json"
	"time"

	"github.com/thereayou/taskflow/internal/events"
)

// Message конверт для всех сообщений в обе стороны.
type Message struct {
	Type      events.Name     `json:"type"`
	Data      json.RawMessage `json:"data,omitempty"`
	Timestamp time.Time       `json:"timestamp"`
}

// Encode сериализует событие в готовый для отправки кадр.
// Кадр кодируется один раз и раздается всем получателям.
func Encode(name events.Name, payload any) ([]byte, error) {
	msg := Message{
		Type:      name,
		Timestamp: time.Now(),
	}

	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return nil, err
		}
		msg.Data = data
	}

	return json.Marshal(msg)
}
