package amqp

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"ricorrenze/internal/core"
	"ricorrenze/internal/services"
)

// OccurrenceEventMessage is the wire form of services.OccurrenceEvent. It
// only identifies the occurrence; consumers reload the full record.
type OccurrenceEventMessage struct {
	Type            string    `json:"type"`
	TemplateID      string    `json:"templateId"`
	OccurrenceIndex int       `json:"occurrenceIndex"`
	Date            string    `json:"date"`
	Timestamp       time.Time `json:"timestamp"`
}

var errInvalidMessage = errors.New("invalid occurrence event message")

func NewOccurrenceEventMessage(e services.OccurrenceEvent) *OccurrenceEventMessage {
	msg := &OccurrenceEventMessage{
		Type:            string(e.Type),
		TemplateID:      e.TemplateID,
		OccurrenceIndex: e.OccurrenceIndex,
		Timestamp:       time.Now().UTC(),
	}
	if !e.Date.IsEmpty() {
		msg.Date = e.Date.String()
	}
	return msg
}

func (m *OccurrenceEventMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

// Event converts the message back to a services.OccurrenceEvent.
func (m *OccurrenceEventMessage) Event() (services.OccurrenceEvent, error) {
	e := services.OccurrenceEvent{
		Type:            services.OccurrenceEventType(m.Type),
		TemplateID:      m.TemplateID,
		OccurrenceIndex: m.OccurrenceIndex,
	}
	if m.Date != "" {
		d, err := core.ParseDate(m.Date)
		if err != nil {
			return services.OccurrenceEvent{}, fmt.Errorf("%w: %v", errInvalidMessage, err)
		}
		e.Date = d
	}
	return e, nil
}

// OccurrenceEventMessageFromJSON decodes and validates a message body.
func OccurrenceEventMessageFromJSON(data []byte) (*OccurrenceEventMessage, error) {
	var msg OccurrenceEventMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	if msg.Type == "" || msg.TemplateID == "" {
		return nil, fmt.Errorf("%w: type and templateId are required", errInvalidMessage)
	}
	if msg.OccurrenceIndex < 0 {
		return nil, fmt.Errorf("%w: negative occurrence index %d", errInvalidMessage, msg.OccurrenceIndex)
	}
	return &msg, nil
}
