package api

import (
	"encoding/json"
	"fmt"
)

// EventType перечисляет виды изменений, приходящих по realtime подписке.
type EventType int

const (
	EventInsert EventType = iota + 1
	EventUpdate
	EventDelete
	EventError
)

// String возвращает имя типа события, совпадающее с тегом на проводе.
func (t EventType) String() string {
	switch t {
	case EventInsert:
		return "Insert"
	case EventUpdate:
		return "Update"
	case EventDelete:
		return "Delete"
	case EventError:
		return "Error"
	}
	return fmt.Sprintf("EventType(%d)", int(t))
}

// Event is a single change notification from a record subscription. On the
// wire it is an externally tagged union:
//
//	{"Insert": {record}} | {"Update": {record}} | {"Delete": {record}} | {"Error": "msg"}
//
// Record хранится как json.RawMessage, чтобы получатель мог декодировать
// запись в свой тип без потери точности числовых значений.
type Event struct {
	Type    EventType
	Record  json.RawMessage
	Message string
}

type eventWire struct {
	Insert json.RawMessage `json:"Insert,omitempty"`
	Update json.RawMessage `json:"Update,omitempty"`
	Delete json.RawMessage `json:"Delete,omitempty"`
	Error  *string         `json:"Error,omitempty"`
}

// UnmarshalJSON декодирует externally tagged представление события.
func (e *Event) UnmarshalJSON(data []byte) error {
	var wire eventWire
	if err := json.Unmarshal(data, &wire); err != nil {
		return err
	}

	switch {
	case wire.Insert != nil:
		e.Type, e.Record = EventInsert, wire.Insert
	case wire.Update != nil:
		e.Type, e.Record = EventUpdate, wire.Update
	case wire.Delete != nil:
		e.Type, e.Record = EventDelete, wire.Delete
	case wire.Error != nil:
		e.Type, e.Message = EventError, *wire.Error
	default:
		return fmt.Errorf("event has no known tag: %s", string(data))
	}
	return nil
}

// MarshalJSON кодирует событие обратно в externally tagged представление.
func (e Event) MarshalJSON() ([]byte, error) {
	var wire eventWire
	switch e.Type {
	case EventInsert:
		wire.Insert = e.Record
	case EventUpdate:
		wire.Update = e.Record
	case EventDelete:
		wire.Delete = e.Record
	case EventError:
		wire.Error = &e.Message
	default:
		return nil, fmt.Errorf("cannot marshal event of type %v", e.Type)
	}
	return json.Marshal(wire)
}
