package api

import "encoding/json"

// CreateOperation описывает отложенную вставку записи в коллекцию ApiName.
type CreateOperation struct {
	APIName string          `json:"api_name"`
	Value   json.RawMessage `json:"value"`
}

// UpdateOperation описывает отложенное частичное обновление записи.
// Value не должен содержать поле первичного ключа.
type UpdateOperation struct {
	APIName  string          `json:"api_name"`
	RecordID string          `json:"record_id"`
	Value    json.RawMessage `json:"value"`
}

// DeleteOperation описывает отложенное удаление записи.
type DeleteOperation struct {
	APIName  string `json:"api_name"`
	RecordID string `json:"record_id"`
}

// Operation is the externally tagged union of deferred record mutations.
// Exactly one of the fields is set; the JSON shape is
// {"Create": {...}} | {"Update": {...}} | {"Delete": {...}}.
//
// Operation values are inert and serializable: they can be stored, queued
// and replayed later, either one by one or as a single transaction.
type Operation struct {
	Create *CreateOperation `json:"Create,omitempty"`
	Update *UpdateOperation `json:"Update,omitempty"`
	Delete *DeleteOperation `json:"Delete,omitempty"`
}

// APIName возвращает имя коллекции, к которой относится операция.
func (o Operation) APIName() string {
	switch {
	case o.Create != nil:
		return o.Create.APIName
	case o.Update != nil:
		return o.Update.APIName
	case o.Delete != nil:
		return o.Delete.APIName
	}
	return ""
}

// Valid reports whether exactly one variant of the union is set.
func (o Operation) Valid() bool {
	n := 0
	if o.Create != nil {
		n++
	}
	if o.Update != nil {
		n++
	}
	if o.Delete != nil {
		n++
	}
	return n == 1
}

// TransactionRequest представляет тело запроса к transaction API.
// При Transaction=true сервер применяет операции атомарно: либо все,
// либо ни одной.
type TransactionRequest struct {
	Operations  []Operation `json:"operations"`
	Transaction bool        `json:"transaction"`
}

// TransactionResponse содержит по одному id на каждую Create операцию,
// в порядке следования операций в запросе.
type TransactionResponse struct {
	IDs []string `json:"ids"`
}
