package client

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"
)

const (
	requestTimeout = 30 * time.Second
	maxRedirects   = 10
)

// QueryParam is a single query string parameter. Parameters are kept as an
// ordered slice, not a map: filter encoding embeds array indices into keys
// and the produced query string must preserve caller order.
type QueryParam struct {
	Key   string
	Value string
}

// transport is the minimal HTTP invoker under the client: it resolves an
// API path against the base site URL and sends the request with exactly
// the headers it was given. Auth header merging happens a level above.
type transport struct {
	base *url.URL

	// httpClient обслуживает обычные вызовы и имеет общий таймаут.
	// streamClient без общего таймаута - им открываются подписки,
	// у которых тело ответа живет произвольно долго.
	httpClient   *http.Client
	streamClient *http.Client
}

func newTransport(base *url.URL) *transport {
	// Копируем Authorization при редиректе, иначе стандартный клиент
	// молча уронит аутентификацию.
	checkRedirect := func(req *http.Request, via []*http.Request) error {
		if len(via) >= maxRedirects {
			return fmt.Errorf("stopped after %d redirects", maxRedirects)
		}
		if len(via) > 0 && via[0].Header.Get("Authorization") != "" {
			req.Header.Set("Authorization", via[0].Header.Get("Authorization"))
		}
		return nil
	}

	return &transport{
		base: base,
		httpClient: &http.Client{
			Timeout:       requestTimeout,
			CheckRedirect: checkRedirect,
		},
		streamClient: &http.Client{
			CheckRedirect: checkRedirect,
		},
	}
}

// do выполняет запрос относительно базового URL. path задается без
// ведущего слеша; query параметры кодируются с сохранением порядка.
func (t *transport) do(
	ctx context.Context,
	method string,
	path string,
	headers http.Header,
	body []byte,
	params []QueryParam,
	stream bool,
) (*http.Response, error) {
	if strings.HasPrefix(path, "/") {
		return nil, fmt.Errorf("api path must not start with '/': %q", path)
	}

	var bodyReader *bytes.Reader
	if body != nil {
		bodyReader = bytes.NewReader(body)
	} else {
		bodyReader = bytes.NewReader(nil)
	}

	req, err := http.NewRequestWithContext(ctx, method, t.base.JoinPath(path).String(), bodyReader)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header = headers.Clone()
	if req.Header == nil {
		req.Header = http.Header{}
	}

	if len(params) > 0 {
		req.URL.RawQuery = encodeParams(params)
	}

	if stream {
		return t.streamClient.Do(req)
	}
	return t.httpClient.Do(req)
}

// encodeParams кодирует параметры в строку запроса, сохраняя порядок.
// url.Values не подходит: Encode() сортирует ключи.
func encodeParams(params []QueryParam) string {
	var sb strings.Builder
	for i, p := range params {
		if i > 0 {
			sb.WriteByte('&')
		}
		sb.WriteString(url.QueryEscape(p.Key))
		sb.WriteByte('=')
		sb.WriteString(url.QueryEscape(p.Value))
	}
	return sb.String()
}
