package records

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/trailbaseio/trailbase-go/pkg/api"
	"github.com/trailbaseio/trailbase-go/pkg/client"
)

const (
	// dataPrefix - префикс SSE фрейма с полезной нагрузкой.
	dataPrefix = "data: "

	// maxFrameSize ограничивает размер одного фрейма подписки.
	maxFrameSize = 1 << 20
)

// ProtocolError indicates a malformed subscription frame or a missing
// response body where one was required.
type ProtocolError struct {
	Reason string
	Err    error
}

func (e *ProtocolError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("subscription protocol error: %s: %v", e.Reason, e.Err)
	}
	return fmt.Sprintf("subscription protocol error: %s", e.Reason)
}

func (e *ProtocolError) Unwrap() error {
	return e.Err
}

// SubscribeArguments настраивает подписку на всю коллекцию.
type SubscribeArguments struct {
	// Filters кодируются как в List: сервер шлет события только по
	// записям, подходящим под предикат.
	Filters []Filter
}

// Subscribe opens a realtime change feed for a single record. Events are
// emitted from this point forward; there is no replay of history. For a
// point subscription the possible events are Update and Delete.
func (r *API[T]) Subscribe(ctx context.Context, id RecordID) (*Subscription, error) {
	return r.subscribe(ctx, id.String(), nil)
}

// SubscribeAll opens a realtime change feed for the whole collection,
// optionally filtered server-side.
func (r *API[T]) SubscribeAll(ctx context.Context, args *SubscribeArguments) (*Subscription, error) {
	var params []client.QueryParam
	if args != nil {
		params = encodeFilters(params, args.Filters)
	}
	return r.subscribe(ctx, "*", params)
}

func (r *API[T]) subscribe(ctx context.Context, target string, params []client.QueryParam) (*Subscription, error) {
	path := fmt.Sprintf("%s/%s/subscribe/%s", recordAPI, r.name, target)
	resp, err := r.client.Stream(ctx, path, params)
	if err != nil {
		return nil, err
	}
	if resp.Body == nil {
		return nil, &ProtocolError{Reason: "response has no body"}
	}
	return newSubscription(resp.Body), nil
}

// Subscription is a pull-based sequence of change events decoded from one
// long-lived streamed response. The sequence is finite per connection:
// when the server closes the body, Next returns io.EOF. A subscription is
// not restartable; opening a new one issues a fresh request.
type Subscription struct {
	body    io.ReadCloser
	scanner *bufio.Scanner
}

func newSubscription(body io.ReadCloser) *Subscription {
	scanner := bufio.NewScanner(body)
	scanner.Buffer(make([]byte, 0, 4096), maxFrameSize)
	scanner.Split(splitFrames)
	return &Subscription{body: body, scanner: scanner}
}

// Next блокируется до следующего события. Порядок событий совпадает с
// порядком записи на сервере. По исчерпании потока возвращает io.EOF.
func (s *Subscription) Next() (*api.Event, error) {
	for s.scanner.Scan() {
		frame := s.scanner.Text()

		// Фрейм может состоять из нескольких строк; полезная нагрузка -
		// строки с префиксом "data: ". Остальное (комментарии, keepalive)
		// пропускается.
		for _, line := range strings.SplitAfter(frame, "\n") {
			line = strings.TrimSuffix(line, "\n")
			if !strings.HasPrefix(line, dataPrefix) {
				continue
			}

			var event api.Event
			if err := json.Unmarshal([]byte(line[len(dataPrefix):]), &event); err != nil {
				return nil, &ProtocolError{Reason: "malformed event frame", Err: err}
			}
			return &event, nil
		}
	}

	if err := s.scanner.Err(); err != nil {
		return nil, err
	}
	return nil, io.EOF
}

// Close обрывает подписку, закрывая тело ответа.
func (s *Subscription) Close() error {
	return s.body.Close()
}

// splitFrames is a bufio.SplitFunc yielding one SSE frame per token.
// Frames are delimited by a blank line; an incomplete trailing frame is
// buffered until the next chunk arrives, so frames split across chunk
// boundaries reassemble instead of being truncated.
func splitFrames(data []byte, atEOF bool) (advance int, token []byte, err error) {
	if i := bytes.Index(data, []byte("\n\n")); i >= 0 {
		return i + 2, data[:i], nil
	}
	if atEOF && len(data) > 0 {
		return len(data), data, nil
	}
	return 0, nil, nil
}
