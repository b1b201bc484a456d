package client

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEncodeParamsPreservesOrder(t *testing.T) {
	params := []QueryParam{
		{Key: "limit", Value: "10"},
		{Key: "filter[$or][0][rate][$gte]", Value: "5"},
		{Key: "filter[$or][1][rate][$lte]", Value: "2"},
		{Key: "cursor", Value: "abc"},
	}

	// Порядок ключей - часть грамматики фильтров, сортировки быть не должно
	got := encodeParams(params)
	assert.Equal(t,
		"limit=10"+
			"&filter%5B%24or%5D%5B0%5D%5Brate%5D%5B%24gte%5D=5"+
			"&filter%5B%24or%5D%5B1%5D%5Brate%5D%5B%24lte%5D=2"+
			"&cursor=abc",
		got)
}

func TestEncodeParamsEmpty(t *testing.T) {
	assert.Equal(t, "", encodeParams(nil))
}

func TestTransportRejectsLeadingSlash(t *testing.T) {
	c, err := New("http://localhost:4000")
	require.NoError(t, err)

	_, err = c.tr.do(context.Background(), http.MethodGet, "/api/records/v1/movies", http.Header{}, nil, nil, false)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "must not start with '/'")
}

func TestTransportJoinsBasePath(t *testing.T) {
	var gotPath, gotQuery string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotQuery = r.URL.RawQuery
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	c, err := New(server.URL)
	require.NoError(t, err)

	resp, err := c.tr.do(
		context.Background(),
		http.MethodGet,
		"api/records/v1/movies",
		http.Header{},
		nil,
		[]QueryParam{{Key: "limit", Value: "3"}},
		false,
	)
	require.NoError(t, err)
	require.NoError(t, resp.Body.Close())

	assert.Equal(t, "/api/records/v1/movies", gotPath)
	assert.Equal(t, "limit=3", gotQuery)
}

func TestRedirectKeepsAuthorization(t *testing.T) {
	var finalAuth string
	target := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		finalAuth = r.Header.Get("Authorization")
		w.WriteHeader(http.StatusOK)
	}))
	defer target.Close()

	redirecting := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, target.URL+"/api/records/v1/movies", http.StatusTemporaryRedirect)
	}))
	defer redirecting.Close()

	c, err := New(redirecting.URL)
	require.NoError(t, err)

	headers := http.Header{}
	headers.Set("Authorization", "Bearer token-value")

	resp, err := c.tr.do(context.Background(), http.MethodGet, "api/records/v1/movies", headers, nil, nil, false)
	require.NoError(t, err)
	require.NoError(t, resp.Body.Close())

	// Стандартный клиент роняет Authorization при смене хоста,
	// checkRedirect обязан его восстановить
	assert.Equal(t, "Bearer token-value", finalAuth)
}
