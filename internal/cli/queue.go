package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/trailbaseio/trailbase-go/internal/validation"
	"github.com/trailbaseio/trailbase-go/pkg/api"
	"github.com/trailbaseio/trailbase-go/pkg/records"
)

func (c *Cli) runQueue(ctx context.Context, args []string) error {
	if len(args) < 1 {
		return fmt.Errorf("usage: queue <add|list|sync> [args...]")
	}

	switch args[0] {
	case "add":
		return c.runQueueAdd(ctx, args[1:])
	case "list":
		return c.runQueueList(ctx)
	case "sync":
		return c.runQueueSync(ctx)
	default:
		return fmt.Errorf("unknown queue subcommand: %s", args[0])
	}
}

// runQueueAdd добавляет операцию в офлайн очередь без обращения к серверу.
func (c *Cli) runQueueAdd(ctx context.Context, args []string) error {
	op, err := parseOperation(args)
	if err != nil {
		return err
	}

	id, err := c.queue.Enqueue(ctx, op)
	if err != nil {
		return err
	}

	c.io.Printf("✓ Queued operation: %s\n", id)
	return nil
}

func (c *Cli) runQueueList(ctx context.Context) error {
	entries, err := c.queue.List(ctx)
	if err != nil {
		return err
	}

	if len(entries) == 0 {
		c.io.Println("Queue is empty.")
		return nil
	}

	for _, entry := range entries {
		c.io.Printf("%s  %s  %s  %s\n",
			entry.ID,
			entry.CreatedAt.Format(time.RFC3339),
			operationKind(entry.Op),
			entry.Op.APIName(),
		)
	}
	c.io.Printf("\n%d operation(s) pending.\n", len(entries))
	return nil
}

// runQueueSync отправляет всю очередь на сервер одной атомарной
// транзакцией и очищает ее при успехе.
func (c *Cli) runQueueSync(ctx context.Context) error {
	entries, err := c.queue.List(ctx)
	if err != nil {
		return err
	}
	if len(entries) == 0 {
		c.io.Println("Queue is empty, nothing to sync.")
		return nil
	}

	apiClient, err := c.ensureClient(ctx)
	if err != nil {
		return err
	}

	ops := make([]api.Operation, len(entries))
	for i, entry := range entries {
		ops[i] = entry.Op
	}

	c.io.Printf("Sending %d operation(s) as one transaction...\n", len(ops))

	ids, err := records.Execute(ctx, apiClient, ops, true)
	if err != nil {
		return fmt.Errorf("synchronization failed, queue preserved: %w", err)
	}

	if err := c.queue.Clear(ctx); err != nil {
		return fmt.Errorf("operations applied but queue cleanup failed: %w", err)
	}

	c.io.Println()
	c.io.Println("✓ Synchronization completed successfully!")
	for _, id := range ids {
		c.io.Printf("Created record: %s\n", id.String())
	}
	return nil
}

// parseOperation строит api.Operation из аргументов команды queue add.
func parseOperation(args []string) (api.Operation, error) {
	if len(args) < 2 {
		return api.Operation{}, fmt.Errorf(
			"usage: queue add create <api> <json> | update <api> <id> <json> | delete <api> <id>")
	}

	kind, name := args[0], args[1]
	if err := validation.ValidateAPIName(name); err != nil {
		return api.Operation{}, fmt.Errorf("invalid api name: %w", err)
	}
	rest := args[2:]

	switch kind {
	case "create":
		if len(rest) != 1 {
			return api.Operation{}, fmt.Errorf("usage: queue add create <api> <json>")
		}
		value, err := parseJSONValue(rest[0])
		if err != nil {
			return api.Operation{}, err
		}
		return api.Operation{Create: &api.CreateOperation{APIName: name, Value: value}}, nil

	case "update":
		if len(rest) != 2 {
			return api.Operation{}, fmt.Errorf("usage: queue add update <api> <id> <json>")
		}
		if err := validation.ValidateRecordID(rest[0]); err != nil {
			return api.Operation{}, err
		}
		value, err := parseJSONValue(rest[1])
		if err != nil {
			return api.Operation{}, err
		}
		return api.Operation{Update: &api.UpdateOperation{APIName: name, RecordID: rest[0], Value: value}}, nil

	case "delete":
		if len(rest) != 1 {
			return api.Operation{}, fmt.Errorf("usage: queue add delete <api> <id>")
		}
		if err := validation.ValidateRecordID(rest[0]); err != nil {
			return api.Operation{}, err
		}
		return api.Operation{Delete: &api.DeleteOperation{APIName: name, RecordID: rest[0]}}, nil
	}

	return api.Operation{}, fmt.Errorf("unknown operation kind: %s", kind)
}

func operationKind(op api.Operation) string {
	switch {
	case op.Create != nil:
		return "create"
	case op.Update != nil:
		return "update"
	case op.Delete != nil:
		return "delete"
	}
	return "invalid"
}
