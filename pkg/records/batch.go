package records

import (
	"context"

	"github.com/trailbaseio/trailbase-go/pkg/api"
	"github.com/trailbaseio/trailbase-go/pkg/client"
)

// TransactionBatch accumulates deferred operations across collections and
// posts them as a single transaction:
//
//	ids, err := records.Batch(c).
//		API("movies").Create(movie).
//		API("reviews").Delete(records.IntID(7)).
//		Send(ctx)
//
// Ошибка сериализации любого значения запоминается и поднимается из Send;
// порядок операций сохраняется.
type TransactionBatch struct {
	client *client.Client
	ops    []api.Operation
	err    error
}

// Batch создает пустой batch поверх клиента c.
func Batch(c *client.Client) *TransactionBatch {
	return &TransactionBatch{client: c}
}

// API выбирает коллекцию для следующих операций batch.
func (b *TransactionBatch) API(name string) *BatchAPI {
	return &BatchAPI{batch: b, name: name}
}

// Operations возвращает накопленные операции в порядке добавления.
func (b *TransactionBatch) Operations() []api.Operation {
	return b.ops
}

// Send применяет batch атомарно: сервер откатывает все операции, если
// хотя бы одна не прошла.
func (b *TransactionBatch) Send(ctx context.Context) ([]RecordID, error) {
	if b.err != nil {
		return nil, b.err
	}
	return Execute(ctx, b.client, b.ops, true)
}

// SendNonAtomic применяет batch без транзакции: операции исполняются по
// порядку независимо друг от друга.
func (b *TransactionBatch) SendNonAtomic(ctx context.Context) ([]RecordID, error) {
	if b.err != nil {
		return nil, b.err
	}
	return Execute(ctx, b.client, b.ops, false)
}

func (b *TransactionBatch) add(op api.Operation, err error) {
	if err != nil {
		if b.err == nil {
			b.err = err
		}
		return
	}
	b.ops = append(b.ops, op)
}

// BatchAPI добавляет операции одной коллекции в batch.
type BatchAPI struct {
	batch *TransactionBatch
	name  string
}

// Create добавляет вставку записи.
func (a *BatchAPI) Create(value any) *TransactionBatch {
	facade := NewAPI[any](a.batch.client, a.name)
	op, err := facade.CreateOp(value)
	a.batch.add(op, err)
	return a.batch
}

// Update добавляет частичное обновление записи id.
func (a *BatchAPI) Update(id RecordID, value any) *TransactionBatch {
	facade := NewAPI[any](a.batch.client, a.name)
	op, err := facade.UpdateOp(id, value)
	a.batch.add(op, err)
	return a.batch
}

// Delete добавляет удаление записи id.
func (a *BatchAPI) Delete(id RecordID) *TransactionBatch {
	facade := NewAPI[any](a.batch.client, a.name)
	a.batch.add(facade.DeleteOp(id), nil)
	return a.batch
}
