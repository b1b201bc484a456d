package records

import (
	"context"
	"errors"
	"io"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trailbaseio/trailbase-go/pkg/api"
)

// sseHandler пишет фреймы подписки кусками произвольного размера.
func sseHandler(t *testing.T, wantPath string, chunks []string) http.Handler {
	t.Helper()
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, wantPath, r.URL.Path)
		assert.Equal(t, "text/event-stream", r.Header.Get("Accept"))

		w.Header().Set("Content-Type", "text/event-stream")
		flusher, ok := w.(http.Flusher)
		require.True(t, ok)

		for _, chunk := range chunks {
			_, err := w.Write([]byte(chunk))
			require.NoError(t, err)
			flusher.Flush()
		}
	})
}

func TestSubscribePoint(t *testing.T) {
	c := newTestClient(t, sseHandler(t, "/api/records/v1/movies/subscribe/42", []string{
		"data: {\"Update\": {\"id\": \"42\", \"rate\": 9}}\n\n",
		"data: {\"Delete\": {\"id\": \"42\"}}\n\n",
	}))

	moviesAPI := NewAPI[movie](c, "movies")
	sub, err := moviesAPI.Subscribe(context.Background(), IntID(42))
	require.NoError(t, err)
	defer func() {
		_ = sub.Close()
	}()

	event, err := sub.Next()
	require.NoError(t, err)
	assert.Equal(t, api.EventUpdate, event.Type)
	assert.JSONEq(t, `{"id": "42", "rate": 9}`, string(event.Record))

	event, err = sub.Next()
	require.NoError(t, err)
	assert.Equal(t, api.EventDelete, event.Type)

	// Сервер закрыл поток - подписка исчерпана
	_, err = sub.Next()
	assert.ErrorIs(t, err, io.EOF)
}

func TestSubscribeAll(t *testing.T) {
	c := newTestClient(t, sseHandler(t, "/api/records/v1/movies/subscribe/*", []string{
		"data: {\"Insert\": {\"id\": \"1\"}}\n\n",
		"data: {\"Update\": {\"id\": \"1\"}}\n\n",
		"data: {\"Delete\": {\"id\": \"1\"}}\n\n",
	}))

	moviesAPI := NewAPI[movie](c, "movies")
	sub, err := moviesAPI.SubscribeAll(context.Background(), nil)
	require.NoError(t, err)
	defer func() {
		_ = sub.Close()
	}()

	var types []api.EventType
	for {
		event, err := sub.Next()
		if errors.Is(err, io.EOF) {
			break
		}
		require.NoError(t, err)
		types = append(types, event.Type)
	}

	assert.Equal(t, []api.EventType{api.EventInsert, api.EventUpdate, api.EventDelete}, types)
}

func TestSubscribeAllFiltered(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "filter%5Brate%5D%5B%24gte%5D=8", r.URL.RawQuery)
		w.Header().Set("Content-Type", "text/event-stream")
	}))

	moviesAPI := NewAPI[movie](c, "movies")
	sub, err := moviesAPI.SubscribeAll(context.Background(), &SubscribeArguments{
		Filters: []Filter{FilterColumn{Column: "rate", Op: GreaterThanEqual, Value: "8"}},
	})
	require.NoError(t, err)
	require.NoError(t, sub.Close())
}

func TestSubscribeFrameSplitAcrossChunks(t *testing.T) {
	// Фрейм разрезан посреди JSON: первая половина приходит одним чанком,
	// вторая - следующим. Событие обязано собраться целиком.
	c := newTestClient(t, sseHandler(t, "/api/records/v1/movies/subscribe/*", []string{
		"data: {\"Insert\": {\"id\": \"1\", \"na",
		"me\": \"Alien\"}}\n\ndata: {\"Dele",
		"te\": {\"id\": \"1\"}}\n\n",
	}))

	moviesAPI := NewAPI[movie](c, "movies")
	sub, err := moviesAPI.SubscribeAll(context.Background(), nil)
	require.NoError(t, err)
	defer func() {
		_ = sub.Close()
	}()

	event, err := sub.Next()
	require.NoError(t, err)
	assert.Equal(t, api.EventInsert, event.Type)
	assert.JSONEq(t, `{"id": "1", "name": "Alien"}`, string(event.Record))

	event, err = sub.Next()
	require.NoError(t, err)
	assert.Equal(t, api.EventDelete, event.Type)
}

func TestSubscribeSkipsNonDataLines(t *testing.T) {
	c := newTestClient(t, sseHandler(t, "/api/records/v1/movies/subscribe/*", []string{
		": keepalive\n\n",
		"event: change\ndata: {\"Insert\": {\"id\": \"1\"}}\n\n",
	}))

	moviesAPI := NewAPI[movie](c, "movies")
	sub, err := moviesAPI.SubscribeAll(context.Background(), nil)
	require.NoError(t, err)
	defer func() {
		_ = sub.Close()
	}()

	event, err := sub.Next()
	require.NoError(t, err)
	assert.Equal(t, api.EventInsert, event.Type)
}

func TestSubscribeErrorEvent(t *testing.T) {
	c := newTestClient(t, sseHandler(t, "/api/records/v1/movies/subscribe/*", []string{
		"data: {\"Error\": \"subscription lagged\"}\n\n",
	}))

	moviesAPI := NewAPI[movie](c, "movies")
	sub, err := moviesAPI.SubscribeAll(context.Background(), nil)
	require.NoError(t, err)
	defer func() {
		_ = sub.Close()
	}()

	event, err := sub.Next()
	require.NoError(t, err)
	assert.Equal(t, api.EventError, event.Type)
	assert.Equal(t, "subscription lagged", event.Message)
}

func TestSubscribeMalformedFrame(t *testing.T) {
	c := newTestClient(t, sseHandler(t, "/api/records/v1/movies/subscribe/*", []string{
		"data: {not json}\n\n",
	}))

	moviesAPI := NewAPI[movie](c, "movies")
	sub, err := moviesAPI.SubscribeAll(context.Background(), nil)
	require.NoError(t, err)
	defer func() {
		_ = sub.Close()
	}()

	_, err = sub.Next()
	require.Error(t, err)

	var protoErr *ProtocolError
	assert.ErrorAs(t, err, &protoErr)
}

func TestSubscribeRejectedStatus(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "forbidden", http.StatusForbidden)
	}))

	moviesAPI := NewAPI[movie](c, "movies")
	_, err := moviesAPI.SubscribeAll(context.Background(), nil)
	require.Error(t, err)
}

func TestSplitFrames(t *testing.T) {
	advance, token, err := splitFrames([]byte("frame one\n\nrest"), false)
	require.NoError(t, err)
	assert.Equal(t, 11, advance)
	assert.Equal(t, "frame one", string(token))

	// Неполный фрейм без EOF просит еще данных
	advance, token, err = splitFrames([]byte("partial"), false)
	require.NoError(t, err)
	assert.Equal(t, 0, advance)
	assert.Nil(t, token)

	// На EOF хвост отдается как последний фрейм
	advance, token, err = splitFrames([]byte("tail"), true)
	require.NoError(t, err)
	assert.Equal(t, 4, advance)
	assert.Equal(t, "tail", string(token))
}
