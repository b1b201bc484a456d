// Package client implements the authenticated request pipeline of the
// TrailBase client SDK: the session/token lifecycle, proactive refresh,
// the auth endpoints and the HTTP transport every other package routes
// through.
package client

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"sync"
	"time"

	"github.com/trailbaseio/trailbase-go/pkg/api"
)

const authAPI = "api/auth/v1"

// AuthChangeFunc is invoked after every non-silent session transition
// (login, logout, forced logout). user is nil when the session was
// cleared.
type AuthChangeFunc func(c *Client, user *User)

// Client держит текущую сессию и выполняет все HTTP вызовы к серверу.
// Безопасен для конкурентного использования; сессия - единственное
// разделяемое изменяемое состояние, заменяется целиком под мьютексом.
type Client struct {
	site *url.URL
	tr   *transport

	mu   sync.RWMutex
	sess *session

	// refreshMu делает refresh single-flight: конкурентные вызовы,
	// одновременно увидевшие устаревший токен, ждут один общий refresh
	// вместо того, чтобы выпускать каждый свой.
	refreshMu sync.Mutex

	obsMu     sync.Mutex
	observers []AuthChangeFunc
}

// Option конфигурирует клиента при создании.
type Option func(*Client) error

// WithTokens creates the client with an existing session, e.g. tokens
// restored from a local store. The initial update is silent: restoring
// state is not an auth change.
func WithTokens(tokens *api.Tokens) Option {
	return func(c *Client) error {
		sess, err := newSession(tokens)
		if err != nil {
			return err
		}
		c.sess = sess
		return nil
	}
}

// New создает клиента для сайта site (например "http://localhost:4000").
func New(site string, opts ...Option) (*Client, error) {
	base, err := url.Parse(site)
	if err != nil {
		return nil, fmt.Errorf("invalid site url: %w", err)
	}

	c := &Client{
		site: base,
		tr:   newTransport(base),
	}
	for _, opt := range opts {
		if err := opt(c); err != nil {
			return nil, err
		}
	}
	return c, nil
}

// Site возвращает базовый URL сервера.
func (c *Client) Site() *url.URL {
	return c.site
}

// Tokens returns a copy of the current token triple, or nil when
// anonymous.
func (c *Client) Tokens() *api.Tokens {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.sess == nil {
		return nil
	}
	tokens := c.sess.tokens
	return &tokens
}

// User returns the identity projected from the current claims, or nil
// when anonymous.
func (c *Client) User() *User {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.sess.user()
}

// ExpiresAt returns the expiry of the current auth token. ok is false
// for anonymous sessions and tokens without an exp claim.
func (c *Client) ExpiresAt() (exp time.Time, ok bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.sess.expiresAt()
}

// OnAuthChange регистрирует наблюдателя изменений сессии. Наблюдателей
// может быть несколько; порядок вызова совпадает с порядком регистрации.
func (c *Client) OnAuthChange(fn AuthChangeFunc) {
	c.obsMu.Lock()
	defer c.obsMu.Unlock()
	c.observers = append(c.observers, fn)
}

func (c *Client) session() *session {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.sess
}

// setSession заменяет сессию целиком. Частичные обновления невозможны:
// tokens, claims и заголовки всегда меняются вместе.
func (c *Client) setSession(sess *session, silent bool) {
	c.mu.Lock()
	c.sess = sess
	c.mu.Unlock()

	if sess != nil && sess.expired(time.Now()) {
		slog.Warn("auth token already expired")
	}

	if silent {
		return
	}

	c.obsMu.Lock()
	observers := make([]AuthChangeFunc, len(c.observers))
	copy(observers, c.observers)
	c.obsMu.Unlock()

	user := sess.user()
	for _, fn := range observers {
		fn(c, user)
	}
}

// FetchOptions настраивает одиночный вызов Fetch.
type FetchOptions struct {
	// Method задает HTTP метод; по умолчанию GET.
	Method string
	// Body сериализуется в JSON; []byte и json.RawMessage передаются
	// как есть.
	Body any
	// Query - упорядоченные параметры строки запроса.
	Query []QueryParam
	// Headers перекрывают заголовки сессии при совпадении ключей.
	Headers http.Header
	// AllowError отключает преобразование не-2xx ответов в StatusError;
	// по умолчанию такие ответы поднимаются как ошибка.
	AllowError bool
}

// Fetch issues an authenticated request against an API path. Before the
// call it consults the session: if the access token is about to expire
// and a refresh token exists, the tokens are refreshed synchronously
// with respect to this call. Non-2xx responses become *StatusError
// unless opts.AllowError is set; network failures propagate unwrapped.
func (c *Client) Fetch(ctx context.Context, path string, opts *FetchOptions) (*http.Response, error) {
	if opts == nil {
		opts = &FetchOptions{}
	}

	body, err := marshalBody(opts.Body)
	if err != nil {
		return nil, err
	}

	headers, err := c.authHeaders(ctx)
	if err != nil {
		return nil, err
	}
	mergeHeaders(headers, opts.Headers)

	method := opts.Method
	if method == "" {
		method = http.MethodGet
	}

	resp, err := c.tr.do(ctx, method, path, headers, body, opts.Query, false)
	if err != nil {
		return nil, err
	}

	if !opts.AllowError && (resp.StatusCode < 200 || resp.StatusCode > 299) {
		return nil, readStatusError(resp)
	}
	return resp, nil
}

// Stream открывает долгоживущий поток (подписку): как Fetch, но без
// общего таймаута и с заголовками server-sent-events.
func (c *Client) Stream(ctx context.Context, path string, params []QueryParam) (*http.Response, error) {
	headers, err := c.authHeaders(ctx)
	if err != nil {
		return nil, err
	}
	headers.Set("Accept", "text/event-stream")
	headers.Set("Cache-Control", "no-store")

	resp, err := c.tr.do(ctx, http.MethodGet, path, headers, nil, params, true)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, readStatusError(resp)
	}
	return resp, nil
}

// authHeaders возвращает заголовки актуальной сессии, предварительно
// выполнив refresh, если access токен скоро истечет.
func (c *Client) authHeaders(ctx context.Context) (http.Header, error) {
	sess := c.session()
	if sess.staleRefreshToken(time.Now()) != nil {
		if err := c.refreshIfStale(ctx); err != nil {
			return nil, err
		}
		sess = c.session()
	}
	return sess.requestHeaders().Clone(), nil
}

// refreshIfStale выполняет refresh под мьютексом с повторной проверкой:
// из конкурентных вызовов реальный запрос делает только первый,
// остальные увидят уже обновленную сессию.
func (c *Client) refreshIfStale(ctx context.Context) error {
	c.refreshMu.Lock()
	defer c.refreshMu.Unlock()

	sess := c.session()
	refreshToken := sess.staleRefreshToken(time.Now())
	if refreshToken == nil {
		// Кто-то успел обновить сессию раньше нас.
		return nil
	}
	return c.doRefresh(ctx, sess, *refreshToken)
}

// Refresh форсированно перевыпускает access токен по refresh токену.
func (c *Client) Refresh(ctx context.Context) error {
	c.refreshMu.Lock()
	defer c.refreshMu.Unlock()

	sess := c.session()
	if sess == nil {
		return ErrUnauthenticated
	}
	if sess.tokens.RefreshToken == nil {
		return ErrMissingRefreshToken
	}
	return c.doRefresh(ctx, sess, *sess.tokens.RefreshToken)
}

// doRefresh exchanges the refresh token for a fresh auth token. A 401
// means the session was revoked server-side: the local session is
// cleared (forced logout, observers notified) before the error
// propagates. Any other failure leaves the session untouched.
func (c *Client) doRefresh(ctx context.Context, sess *session, refreshToken string) error {
	body, err := json.Marshal(api.RefreshRequest{RefreshToken: refreshToken})
	if err != nil {
		return err
	}

	resp, err := c.tr.do(ctx, http.MethodPost, authAPI+"/refresh", sess.requestHeaders(), body, nil, false)
	if err != nil {
		return err
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		statusErr := readStatusError(resp)
		if resp.StatusCode == http.StatusUnauthorized {
			slog.Info("session revoked, forcing logout")
			c.setSession(nil, false)
		}
		return statusErr
	}

	var refreshResp api.RefreshResponse
	if err := json.NewDecoder(resp.Body).Decode(&refreshResp); err != nil {
		return fmt.Errorf("failed to decode refresh response: %w", err)
	}

	newSess, err := newSession(&api.Tokens{
		AuthToken:    refreshResp.AuthToken,
		RefreshToken: &refreshToken,
		CsrfToken:    refreshResp.CsrfToken,
	})
	if err != nil {
		return err
	}

	// Тихое обновление: переподписанный токен - не смена аутентификации.
	c.setSession(newSess, true)
	return nil
}

// Login аутентифицирует пользователя по email и паролю и устанавливает
// новую сессию.
func (c *Client) Login(ctx context.Context, email, password string) (*api.Tokens, error) {
	resp, err := c.Fetch(ctx, authAPI+"/login", &FetchOptions{
		Method: http.MethodPost,
		Body:   api.LoginRequest{Email: email, Password: password},
	})
	if err != nil {
		return nil, err
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	var tokens api.Tokens
	if err := json.NewDecoder(resp.Body).Decode(&tokens); err != nil {
		return nil, fmt.Errorf("failed to decode login response: %w", err)
	}

	sess, err := newSession(&tokens)
	if err != nil {
		return nil, err
	}
	c.setSession(sess, false)
	return &tokens, nil
}

// Logout clears the local session. Remote invalidation of the refresh
// token is best-effort: a failing logout request is logged and swallowed,
// the local session is cleared regardless.
func (c *Client) Logout(ctx context.Context) {
	sess := c.session()

	var err error
	if sess != nil && sess.tokens.RefreshToken != nil {
		_, err = c.Fetch(ctx, authAPI+"/logout", &FetchOptions{
			Method: http.MethodPost,
			Body:   api.LogoutRequest{RefreshToken: *sess.tokens.RefreshToken},
		})
	} else {
		_, err = c.Fetch(ctx, authAPI+"/logout", nil)
	}
	if err != nil {
		slog.Warn("remote logout failed", "error", err)
	}

	c.setSession(nil, false)
}

// Status probes GET api/auth/v1/status to hoist cookie-based credentials
// into explicit tokens. It never raises on unauthenticated responses and
// returns nil tokens instead; a successful hoist updates the session
// silently.
func (c *Client) Status(ctx context.Context) (*api.Tokens, error) {
	resp, err := c.Fetch(ctx, authAPI+"/status", &FetchOptions{AllowError: true})
	if err != nil {
		return nil, err
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, nil
	}

	var status api.StatusResponse
	if err := json.NewDecoder(resp.Body).Decode(&status); err != nil {
		return nil, fmt.Errorf("failed to decode status response: %w", err)
	}
	if status.AuthToken == nil {
		return nil, nil
	}

	tokens := &api.Tokens{
		AuthToken:    *status.AuthToken,
		RefreshToken: status.RefreshToken,
		CsrfToken:    status.CsrfToken,
	}
	sess, err := newSession(tokens)
	if err != nil {
		return nil, err
	}
	c.setSession(sess, true)
	return tokens, nil
}

// marshalBody сериализует тело запроса; сырые байты проходят как есть.
func marshalBody(body any) ([]byte, error) {
	switch b := body.(type) {
	case nil:
		return nil, nil
	case []byte:
		return b, nil
	case json.RawMessage:
		return b, nil
	default:
		data, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal request body: %w", err)
		}
		return data, nil
	}
}

// mergeHeaders накладывает заголовки вызывающего поверх заголовков
// сессии: при совпадении ключа выигрывает вызывающий.
func mergeHeaders(base, override http.Header) {
	for key, values := range override {
		base.Del(key)
		for _, v := range values {
			base.Add(key, v)
		}
	}
}

// readStatusError читает тело не-2xx ответа в типизированную ошибку и
// закрывает его.
func readStatusError(resp *http.Response) *StatusError {
	body, _ := io.ReadAll(resp.Body)
	_ = resp.Body.Close()
	return &StatusError{StatusCode: resp.StatusCode, Body: body}
}
