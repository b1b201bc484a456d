package records

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/trailbaseio/trailbase-go/pkg/api"
	"github.com/trailbaseio/trailbase-go/pkg/client"
)

// ErrInvalidOperation indicates an operation union with zero or several
// variants set.
var ErrInvalidOperation = errors.New("operation must have exactly one variant")

// CreateOp captures a create as an inert api.Operation instead of
// executing it. The value is serialized immediately, so later mutation of
// record does not leak into the operation.
func (r *API[T]) CreateOp(record T) (api.Operation, error) {
	value, err := json.Marshal(record)
	if err != nil {
		return api.Operation{}, fmt.Errorf("failed to marshal record: %w", err)
	}
	return api.Operation{
		Create: &api.CreateOperation{APIName: r.name, Value: value},
	}, nil
}

// UpdateOp captures a partial update as an inert api.Operation.
func (r *API[T]) UpdateOp(id RecordID, value any) (api.Operation, error) {
	data, err := json.Marshal(value)
	if err != nil {
		return api.Operation{}, fmt.Errorf("failed to marshal record: %w", err)
	}
	return api.Operation{
		Update: &api.UpdateOperation{APIName: r.name, RecordID: id.String(), Value: data},
	}, nil
}

// DeleteOp captures a delete as an inert api.Operation.
func (r *API[T]) DeleteOp(id RecordID) api.Operation {
	return api.Operation{
		Delete: &api.DeleteOperation{APIName: r.name, RecordID: id.String()},
	}
}

// Apply replays a single deferred operation as the equivalent immediate
// HTTP call. Create операции возвращают идентификатор созданной записи,
// Update и Delete возвращают nil id.
func Apply(ctx context.Context, c *client.Client, op api.Operation) (RecordID, error) {
	switch {
	case op.Create != nil:
		resp, err := c.Fetch(ctx, recordAPI+"/"+op.Create.APIName, &client.FetchOptions{
			Method: http.MethodPost,
			Body:   op.Create.Value,
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

	case op.Update != nil:
		path := fmt.Sprintf("%s/%s/%s", recordAPI, op.Update.APIName, op.Update.RecordID)
		resp, err := c.Fetch(ctx, path, &client.FetchOptions{
			Method: http.MethodPatch,
			Body:   op.Update.Value,
		})
		if err != nil {
			return nil, err
		}
		return nil, resp.Body.Close()

	case op.Delete != nil:
		path := fmt.Sprintf("%s/%s/%s", recordAPI, op.Delete.APIName, op.Delete.RecordID)
		resp, err := c.Fetch(ctx, path, &client.FetchOptions{
			Method: http.MethodDelete,
		})
		if err != nil {
			return nil, err
		}
		return nil, resp.Body.Close()
	}

	return nil, ErrInvalidOperation
}

// Execute posts the operations to the transaction endpoint as one call.
// With atomic=true the server applies all operations or none; partial
// application is never observable. The result carries one id per Create
// operation, in input order.
func Execute(ctx context.Context, c *client.Client, ops []api.Operation, atomic bool) ([]RecordID, error) {
	for _, op := range ops {
		if !op.Valid() {
			return nil, ErrInvalidOperation
		}
	}

	resp, err := c.Fetch(ctx, transactionAPI, &client.FetchOptions{
		Method: http.MethodPost,
		Body:   api.TransactionRequest{Operations: ops, Transaction: atomic},
	})
	if err != nil {
		return nil, err
	}

	var txResp api.TransactionResponse
	if err := decodeBody(resp, &txResp); err != nil {
		return nil, fmt.Errorf("failed to decode transaction response: %w", err)
	}
	return stringIDs(txResp.IDs), nil
}
