package ws

import (
	"encoding/json"
	"fmt"

	amqp "github.com/rabbitmq/amqp091-go"
)

// Event is what websocket clients receive for every record change.
type Event struct {
	Action    string `json:"action"` // cadastro|edição|exclusão
	RecordID  string `json:"record_id,omitempty"`
	Nome      string `json:"nome,omitempty"`
	Status    string `json:"status,omitempty"`
	User      string `json:"user,omitempty"`
	Timestamp string `json:"timestamp,omitempty"`
	Message   string `json:"message"`
}

// EventFromDelivery monta o evento a partir do corpo texto e dos headers
// publicados pelo serviço de registros.
func EventFromDelivery(body []byte, headers amqp.Table) Event {
	return Event{
		Action:    header(headers, "action"),
		RecordID:  header(headers, "record_id"),
		Nome:      header(headers, "nome"),
		Status:    header(headers, "status"),
		User:      header(headers, "user"),
		Timestamp: header(headers, "timestamp"),
		Message:   string(body),
	}
}

func header(h amqp.Table, k string) string {
	v, ok := h[k]
	if !ok || v == nil {
		return ""
	}
	if s, ok := v.(string); ok {
		return s
	}
	return fmt.Sprint(v)
}

func (e Event) encode() []byte {
	b, _ := json.Marshal(e)
	return b
}
