// Package records exposes the typed CRUD facade over TrailBase record
// collections: list/read/create/update/delete, deferred operations and
// transaction batches, realtime subscriptions and file retrieval.
package records

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/trailbaseio/trailbase-go/pkg/api"
	"github.com/trailbaseio/trailbase-go/pkg/client"
)

const (
	recordAPI      = "api/records/v1"
	transactionAPI = "api/transaction/v1/execute"
)

// RecordID идентифицирует запись внутри одной коллекции. Идентификаторы
// непрозрачны: строка для UUID-колонок, число для INTEGER PK.
type RecordID interface {
	String() string
}

// StringID - строковый идентификатор записи.
type StringID string

func (id StringID) String() string {
	return string(id)
}

// IntID - целочисленный идентификатор записи.
type IntID int64

func (id IntID) String() string {
	return strconv.FormatInt(int64(id), 10)
}

// ListResponse - одна страница выборки. Cursor присутствует при прямой
// пагинации, TotalCount - только если запрошен count.
type ListResponse[T any] struct {
	Records    []T     `json:"records"`
	Cursor     *string `json:"cursor,omitempty"`
	TotalCount *int64  `json:"total_count,omitempty"`
}

// API is the typed facade over one named record collection ("api name").
// The record shape T is the caller's own struct; fields that may exceed
// float64 precision should use api.BigInt.
type API[T any] struct {
	client *client.Client
	name   string
}

// NewAPI создает фасад коллекции name поверх клиента c.
func NewAPI[T any](c *client.Client, name string) *API[T] {
	return &API[T]{client: c, name: name}
}

// Name возвращает имя коллекции.
func (r *API[T]) Name() string {
	return r.name
}

// List выполняет GET с закодированными опциями выборки.
func (r *API[T]) List(ctx context.Context, args *ListArguments) (*ListResponse[T], error) {
	resp, err := r.client.Fetch(ctx, recordAPI+"/"+r.name, &client.FetchOptions{
		Query: encodeListParams(args),
	})
	if err != nil {
		return nil, err
	}

	var list ListResponse[T]
	if err := decodeBody(resp, &list); err != nil {
		return nil, fmt.Errorf("failed to decode list response: %w", err)
	}
	return &list, nil
}

// Read читает одну запись. expand задает foreign key колонки для
// гидрации.
func (r *API[T]) Read(ctx context.Context, id RecordID, expand ...string) (*T, error) {
	var params []client.QueryParam
	if len(expand) > 0 {
		params = append(params, client.QueryParam{Key: "expand", Value: strings.Join(expand, ",")})
	}

	resp, err := r.client.Fetch(ctx, r.recordPath(id), &client.FetchOptions{Query: params})
	if err != nil {
		return nil, err
	}

	record := new(T)
	if err := decodeBody(resp, record); err != nil {
		return nil, fmt.Errorf("failed to decode record: %w", err)
	}
	return record, nil
}

// Create вставляет одну запись и возвращает ее идентификатор.
func (r *API[T]) Create(ctx context.Context, record T) (RecordID, error) {
	resp, err := r.client.Fetch(ctx, recordAPI+"/"+r.name, &client.FetchOptions{
		Method: http.MethodPost,
		Body:   record,
	})
	if err != nil {
		return nil, err
	}

	var idResp api.RecordIDResponse
	if err := decodeBody(resp, &idResp); err != nil {
		return nil, fmt.Errorf("failed to decode create response: %w", err)
	}
	if len(idResp.IDs) != 1 {
		return nil, fmt.Errorf("expected exactly one record id, got %d", len(idResp.IDs))
	}
	return StringID(idResp.IDs[0]), nil
}

// CreateBulk вставляет несколько записей одним запросом и возвращает
// идентификаторы в порядке входного массива.
func (r *API[T]) CreateBulk(ctx context.Context, records []T) ([]RecordID, error) {
	resp, err := r.client.Fetch(ctx, recordAPI+"/"+r.name, &client.FetchOptions{
		Method: http.MethodPost,
		Body:   records,
	})
	if err != nil {
		return nil, err
	}

	var idResp api.RecordIDResponse
	if err := decodeBody(resp, &idResp); err != nil {
		return nil, fmt.Errorf("failed to decode create response: %w", err)
	}
	return stringIDs(idResp.IDs), nil
}

// Update частично обновляет запись id полями value. Идентификатор
// передается отдельным аргументом и не должен входить в value: так
// первичный ключ не может попасть в полезную нагрузку PATCH.
func (r *API[T]) Update(ctx context.Context, id RecordID, value any) error {
	resp, err := r.client.Fetch(ctx, r.recordPath(id), &client.FetchOptions{
		Method: http.MethodPatch,
		Body:   value,
	})
	if err != nil {
		return err
	}
	return resp.Body.Close()
}

// Delete удаляет запись id.
func (r *API[T]) Delete(ctx context.Context, id RecordID) error {
	resp, err := r.client.Fetch(ctx, r.recordPath(id), &client.FetchOptions{
		Method: http.MethodDelete,
	})
	if err != nil {
		return err
	}
	return resp.Body.Close()
}

func (r *API[T]) recordPath(id RecordID) string {
	return fmt.Sprintf("%s/%s/%s", recordAPI, r.name, id.String())
}

// decodeBody декодирует JSON тело ответа и закрывает его.
func decodeBody(resp *http.Response, out any) error {
	defer func() {
		_ = resp.Body.Close()
	}()
	return json.NewDecoder(resp.Body).Decode(out)
}

func stringIDs(ids []string) []RecordID {
	result := make([]RecordID, len(ids))
	for i, id := range ids {
		result[i] = StringID(id)
	}
	return result
}
