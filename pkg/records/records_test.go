package records

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trailbaseio/trailbase-go/pkg/api"
	"github.com/trailbaseio/trailbase-go/pkg/client"
)

type movie struct {
	Name string `json:"name"`
	Rate int    `json:"rate"`
}

// newTestClient создает клиента поверх httptest сервера.
func newTestClient(t *testing.T, handler http.Handler) *client.Client {
	t.Helper()

	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	c, err := client.New(server.URL)
	require.NoError(t, err)
	return c
}

func writeJSON(t *testing.T, w http.ResponseWriter, v any) {
	t.Helper()
	w.Header().Set("Content-Type", "application/json")
	require.NoError(t, json.NewEncoder(w).Encode(v))
}

func TestRecordIDString(t *testing.T) {
	assert.Equal(t, "abc-123", StringID("abc-123").String())
	assert.Equal(t, "42", IntID(42).String())
	assert.Equal(t, "-7", IntID(-7).String())
}

func TestList(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodGet, r.Method)
		require.Equal(t, "/api/records/v1/movies", r.URL.Path)
		assert.Equal(t, "limit=2&order=-rate&count=true&filter%5Brate%5D%5B%24gte%5D=8", r.URL.RawQuery)

		total := int64(10)
		cursor := "next-cursor"
		writeJSON(t, w, ListResponse[movie]{
			Records:    []movie{{Name: "Alien", Rate: 9}, {Name: "Dune", Rate: 8}},
			Cursor:     &cursor,
			TotalCount: &total,
		})
	}))

	moviesAPI := NewAPI[movie](c, "movies")
	list, err := moviesAPI.List(context.Background(), &ListArguments{
		Pagination: Pagination{Limit: 2},
		Order:      []string{"-rate"},
		Count:      true,
		Filters:    []Filter{FilterColumn{Column: "rate", Op: GreaterThanEqual, Value: "8"}},
	})
	require.NoError(t, err)

	require.Len(t, list.Records, 2)
	assert.Equal(t, "Alien", list.Records[0].Name)
	require.NotNil(t, list.Cursor)
	assert.Equal(t, "next-cursor", *list.Cursor)
	require.NotNil(t, list.TotalCount)
	assert.Equal(t, int64(10), *list.TotalCount)
}

func TestRead(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodGet, r.Method)
		require.Equal(t, "/api/records/v1/movies/42", r.URL.Path)
		writeJSON(t, w, movie{Name: "Alien", Rate: 9})
	}))

	moviesAPI := NewAPI[movie](c, "movies")
	record, err := moviesAPI.Read(context.Background(), IntID(42))
	require.NoError(t, err)
	assert.Equal(t, &movie{Name: "Alien", Rate: 9}, record)
}

func TestReadExpand(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "expand=director%2Cstudio", r.URL.RawQuery)
		writeJSON(t, w, movie{Name: "Alien"})
	}))

	moviesAPI := NewAPI[movie](c, "movies")
	_, err := moviesAPI.Read(context.Background(), IntID(42), "director", "studio")
	require.NoError(t, err)
}

func TestCreate(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "/api/records/v1/movies", r.URL.Path)

		var rec movie
		require.NoError(t, json.NewDecoder(r.Body).Decode(&rec))
		assert.Equal(t, "Alien", rec.Name)

		writeJSON(t, w, api.RecordIDResponse{IDs: []string{"new-id"}})
	}))

	moviesAPI := NewAPI[movie](c, "movies")
	id, err := moviesAPI.Create(context.Background(), movie{Name: "Alien", Rate: 9})
	require.NoError(t, err)
	assert.Equal(t, "new-id", id.String())
}

func TestCreateUnexpectedIDCount(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(t, w, api.RecordIDResponse{IDs: []string{"a", "b"}})
	}))

	moviesAPI := NewAPI[movie](c, "movies")
	_, err := moviesAPI.Create(context.Background(), movie{Name: "Alien"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "exactly one record id")
}

func TestCreateBulk(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var recs []movie
		require.NoError(t, json.NewDecoder(r.Body).Decode(&recs))
		require.Len(t, recs, 2)
		writeJSON(t, w, api.RecordIDResponse{IDs: []string{"id-1", "id-2"}})
	}))

	moviesAPI := NewAPI[movie](c, "movies")
	ids, err := moviesAPI.CreateBulk(context.Background(), []movie{{Name: "Alien"}, {Name: "Dune"}})
	require.NoError(t, err)

	// Идентификаторы соответствуют записям по позиции
	require.Len(t, ids, 2)
	assert.Equal(t, "id-1", ids[0].String())
	assert.Equal(t, "id-2", ids[1].String())
}

func TestUpdate(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPatch, r.Method)
		require.Equal(t, "/api/records/v1/movies/42", r.URL.Path)

		// Идентификатор живет в пути, не в теле
		var fields map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&fields))
		assert.Equal(t, map[string]any{"rate": float64(10)}, fields)

		w.WriteHeader(http.StatusOK)
	}))

	moviesAPI := NewAPI[movie](c, "movies")
	err := moviesAPI.Update(context.Background(), IntID(42), map[string]any{"rate": 10})
	require.NoError(t, err)
}

func TestDelete(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodDelete, r.Method)
		require.Equal(t, "/api/records/v1/movies/abc", r.URL.Path)
		w.WriteHeader(http.StatusOK)
	}))

	moviesAPI := NewAPI[movie](c, "movies")
	require.NoError(t, moviesAPI.Delete(context.Background(), StringID("abc")))
}

func TestReadNotFound(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":"not found"}`, http.StatusNotFound)
	}))

	moviesAPI := NewAPI[movie](c, "movies")
	_, err := moviesAPI.Read(context.Background(), StringID("missing"))
	require.Error(t, err)

	statusErr, ok := client.AsStatusError(err)
	require.True(t, ok)
	assert.Equal(t, http.StatusNotFound, statusErr.StatusCode)
}

func TestFile(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/api/records/v1/movies/42/file/poster", r.URL.Path)
		w.Header().Set("Content-Type", "image/png")
		_, _ = w.Write([]byte("png-bytes"))
	}))

	moviesAPI := NewAPI[movie](c, "movies")
	body, contentType, err := moviesAPI.File(context.Background(), IntID(42), "poster")
	require.NoError(t, err)
	defer func() {
		_ = body.Close()
	}()

	assert.Equal(t, "image/png", contentType)

	data := make([]byte, 32)
	n, _ := body.Read(data)
	assert.Equal(t, "png-bytes", string(data[:n]))
}

func TestFileAt(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/api/records/v1/movies/42/files/stills/2", r.URL.Path)
		w.Header().Set("Content-Type", "image/jpeg")
	}))

	moviesAPI := NewAPI[movie](c, "movies")
	body, contentType, err := moviesAPI.FileAt(context.Background(), IntID(42), "stills", 2)
	require.NoError(t, err)
	require.NoError(t, body.Close())
	assert.Equal(t, "image/jpeg", contentType)
}

// Клиентский таймаут не должен мешать долгим обычным запросам в пределах
// лимита; smoke-проверка, что контекст пробрасывается.
func TestListContextCancel(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-r.Context().Done()
	}))

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	moviesAPI := NewAPI[movie](c, "movies")
	_, err := moviesAPI.List(ctx, nil)
	require.Error(t, err)
}
