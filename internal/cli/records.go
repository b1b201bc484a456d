package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/trailbaseio/trailbase-go/internal/validation"
	"github.com/trailbaseio/trailbase-go/pkg/api"
	"github.com/trailbaseio/trailbase-go/pkg/records"
)

func (c *Cli) runRecords(ctx context.Context, args []string) error {
	if len(args) < 2 {
		return fmt.Errorf("usage: records <list|get|create|update|delete|subscribe> <api> [args...]")
	}

	subcommand, name := args[0], args[1]
	if err := validation.ValidateAPIName(name); err != nil {
		return fmt.Errorf("invalid api name: %w", err)
	}

	apiClient, err := c.ensureClient(ctx)
	if err != nil {
		return err
	}
	recordsAPI := records.NewAPI[json.RawMessage](apiClient, name)

	rest := args[2:]
	switch subcommand {
	case "list":
		return c.runRecordsList(ctx, recordsAPI, rest)
	case "get":
		return c.runRecordsGet(ctx, recordsAPI, rest)
	case "create":
		return c.runRecordsCreate(ctx, recordsAPI, rest)
	case "update":
		return c.runRecordsUpdate(ctx, recordsAPI, rest)
	case "delete":
		return c.runRecordsDelete(ctx, recordsAPI, rest)
	case "subscribe":
		return c.runRecordsSubscribe(ctx, recordsAPI, rest)
	default:
		return fmt.Errorf("unknown records subcommand: %s", subcommand)
	}
}

func (c *Cli) runRecordsList(ctx context.Context, recordsAPI *records.API[json.RawMessage], args []string) error {
	filters, err := parseFilters(args)
	if err != nil {
		return err
	}

	list, err := recordsAPI.List(ctx, &records.ListArguments{Filters: filters, Count: true})
	if err != nil {
		return err
	}

	for _, record := range list.Records {
		c.io.Println(string(record))
	}
	if list.TotalCount != nil {
		c.io.Printf("Total: %d record(s)\n", *list.TotalCount)
	}
	return nil
}

func (c *Cli) runRecordsGet(ctx context.Context, recordsAPI *records.API[json.RawMessage], args []string) error {
	if len(args) != 1 {
		return fmt.Errorf("usage: records get <api> <id>")
	}
	if err := validation.ValidateRecordID(args[0]); err != nil {
		return err
	}

	record, err := recordsAPI.Read(ctx, records.StringID(args[0]))
	if err != nil {
		return err
	}

	c.io.Println(prettyJSON(*record))
	return nil
}

func (c *Cli) runRecordsCreate(ctx context.Context, recordsAPI *records.API[json.RawMessage], args []string) error {
	if len(args) != 1 {
		return fmt.Errorf("usage: records create <api> <json>")
	}

	value, err := parseJSONValue(args[0])
	if err != nil {
		return err
	}

	id, err := recordsAPI.Create(ctx, value)
	if err != nil {
		return err
	}

	c.io.Printf("✓ Created record: %s\n", id.String())
	return nil
}

func (c *Cli) runRecordsUpdate(ctx context.Context, recordsAPI *records.API[json.RawMessage], args []string) error {
	if len(args) != 2 {
		return fmt.Errorf("usage: records update <api> <id> <json>")
	}
	if err := validation.ValidateRecordID(args[0]); err != nil {
		return err
	}

	value, err := parseJSONValue(args[1])
	if err != nil {
		return err
	}

	if err := recordsAPI.Update(ctx, records.StringID(args[0]), value); err != nil {
		return err
	}

	c.io.Println("✓ Record updated.")
	return nil
}

func (c *Cli) runRecordsDelete(ctx context.Context, recordsAPI *records.API[json.RawMessage], args []string) error {
	if len(args) != 1 {
		return fmt.Errorf("usage: records delete <api> <id>")
	}
	if err := validation.ValidateRecordID(args[0]); err != nil {
		return err
	}

	if err := recordsAPI.Delete(ctx, records.StringID(args[0])); err != nil {
		return err
	}

	c.io.Println("✓ Record deleted.")
	return nil
}

func (c *Cli) runRecordsSubscribe(ctx context.Context, recordsAPI *records.API[json.RawMessage], args []string) error {
	var (
		sub *records.Subscription
		err error
	)

	if len(args) > 0 && args[0] != "*" {
		if err := validation.ValidateRecordID(args[0]); err != nil {
			return err
		}
		sub, err = recordsAPI.Subscribe(ctx, records.StringID(args[0]))
	} else {
		sub, err = recordsAPI.SubscribeAll(ctx, nil)
	}
	if err != nil {
		return err
	}
	defer func() {
		_ = sub.Close()
	}()

	c.io.Printf("Listening for changes on %q, press Ctrl+C to stop...\n", recordsAPI.Name())

	for {
		event, err := sub.Next()
		if err != nil {
			if errors.Is(err, io.EOF) || ctx.Err() != nil {
				c.io.Println("Stream closed.")
				return nil
			}
			return err
		}

		switch event.Type {
		case api.EventError:
			c.io.Printf("[%s] %s\n", event.Type, event.Message)
		default:
			c.io.Printf("[%s] %s\n", event.Type, string(event.Record))
		}
	}
}

// parseFilters разбирает фильтры вида "col=value" и "col[$op]=value".
func parseFilters(args []string) ([]records.Filter, error) {
	var filters []records.Filter
	for _, arg := range args {
		filter, err := parseFilter(arg)
		if err != nil {
			return nil, err
		}
		filters = append(filters, filter)
	}
	return filters, nil
}

func parseFilter(arg string) (records.Filter, error) {
	key, value, found := strings.Cut(arg, "=")
	if !found || key == "" {
		return nil, fmt.Errorf("invalid filter %q, expected col=value or col[$op]=value", arg)
	}

	column, opSymbol := key, ""
	if open := strings.Index(key, "["); open >= 0 {
		if !strings.HasSuffix(key, "]") {
			return nil, fmt.Errorf("invalid filter %q, unbalanced brackets", arg)
		}
		column = key[:open]
		opSymbol = key[open+1 : len(key)-1]
	}

	op, err := parseCompareOp(opSymbol)
	if err != nil {
		return nil, fmt.Errorf("invalid filter %q: %w", arg, err)
	}
	return records.FilterColumn{Column: column, Op: op, Value: value}, nil
}

func parseCompareOp(symbol string) (records.CompareOp, error) {
	switch symbol {
	case "":
		return 0, nil
	case "$eq":
		return records.Equal, nil
	case "$ne":
		return records.NotEqual, nil
	case "$lt":
		return records.LessThan, nil
	case "$lte":
		return records.LessThanEqual, nil
	case "$gt":
		return records.GreaterThan, nil
	case "$gte":
		return records.GreaterThanEqual, nil
	case "$like":
		return records.Like, nil
	case "$re":
		return records.Regexp, nil
	}
	return 0, fmt.Errorf("unknown operator %q", symbol)
}

// parseJSONValue проверяет, что аргумент - валидный JSON объект.
func parseJSONValue(arg string) (json.RawMessage, error) {
	var value map[string]any
	if err := json.Unmarshal([]byte(arg), &value); err != nil {
		return nil, fmt.Errorf("invalid JSON value: %w", err)
	}
	return json.RawMessage(arg), nil
}

func prettyJSON(raw json.RawMessage) string {
	var buf bytes.Buffer
	if err := json.Indent(&buf, raw, "", "  "); err != nil {
		return string(raw)
	}
	return buf.String()
}
