// Package apiclient — тонкий JSON-клиент Gate API: bearer-токен из хранилища сессии,
// разбор JSON-ответа и единый тип ошибки. Повторов нет: каждая ошибка финальна для операции.
package apiclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/gateadmin/internal/logger"
	"github.com/gateadmin/internal/storage"
)

// DefaultErrorMessage — текст ошибки, если тело ответа не JSON или в нём нет сообщения.
const DefaultErrorMessage = "Request failed. Please try again."

// TokenSource отдаёт текущий токен сессии ("" — сессии нет).
type TokenSource interface {
	Token(ctx context.Context) (string, error)
}

// TokenFunc адаптирует функцию к TokenSource.
type TokenFunc func(ctx context.Context) (string, error)

func (f TokenFunc) Token(ctx context.Context) (string, error) { return f(ctx) }

// StoreTokens читает токен из хранилища сессии на каждом запросе без кеширования,
// чтобы SignOut в другой вкладке сразу действовал.
func StoreTokens(store storage.SessionStore) TokenSource {
	return TokenFunc(func(ctx context.Context) (string, error) {
		return storage.Token(ctx, store)
	})
}

// Options — параметры запроса. Пустой Method — GET.
type Options struct {
	Method       string
	Body         any
	RequiresAuth bool
}

// Client — клиент Gate API. Безопасен для конкурентного использования.
type Client struct {
	baseURL    string
	httpClient *http.Client
	tokens     TokenSource
}

// New создаёт клиент для baseURL (например "http://localhost:8080/api").
// timeout задаёт транспортный таймаут http.Client; 0 — без таймаута.
func New(baseURL string, timeout time.Duration) *Client {
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: timeout},
	}
}

// WithTokens возвращает копию клиента, читающую токен из src (по одной на браузер/CLI).
func (c *Client) WithTokens(src TokenSource) *Client {
	cp := *c
	cp.tokens = src
	return &cp
}

// BaseURL возвращает базовый адрес API.
func (c *Client) BaseURL() string { return c.baseURL }

// Request выполняет запрос и декодирует JSON-ответ в out (если out != nil и тело не пустое).
// Ошибки: *TransportError (соединение не установлено), *APIError (статус не 2xx),
// ошибка декодирования успешного ответа.
func (c *Client) Request(ctx context.Context, path string, opts Options, out any) error {
	method := opts.Method
	if method == "" {
		method = http.MethodGet
	}
	defer logger.DeferLogDuration("api "+method+" "+path, time.Now())()

	var bodyReader io.Reader
	if opts.Body != nil {
		data, err := json.Marshal(opts.Body)
		if err != nil {
			return fmt.Errorf("marshaling request body: %w", err)
		}
		bodyReader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, bodyReader)
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if opts.Body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if opts.RequiresAuth {
		// Отсутствие токена не блокирует вызов: решение за сервером.
		if token := c.token(ctx); token != "" {
			req.Header.Set("Authorization", "Bearer "+token)
		}
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return &TransportError{Err: unwrapURLError(err)}
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return &TransportError{Err: err}
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		logger.Debugf("api %s %s -> %d", method, path, resp.StatusCode)
		return &APIError{StatusCode: resp.StatusCode, Message: errorMessage(respBody)}
	}

	if out == nil || len(bytes.TrimSpace(respBody)) == 0 {
		return nil
	}
	if err := json.Unmarshal(respBody, out); err != nil {
		return fmt.Errorf("decoding response: %w", err)
	}
	return nil
}

func (c *Client) token(ctx context.Context) string {
	if c.tokens == nil {
		return ""
	}
	token, err := c.tokens.Token(ctx)
	if err != nil {
		logger.Errorf("api: read session token: %v", err)
		return ""
	}
	return token
}

// errorMessage достаёт человекочитаемое сообщение из тела ошибки: "message", затем "error".
func errorMessage(body []byte) string {
	var payload struct {
		Message string `json:"message"`
		Error   string `json:"error"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		return DefaultErrorMessage
	}
	if msg := strings.TrimSpace(payload.Message); msg != "" {
		return msg
	}
	if msg := strings.TrimSpace(payload.Error); msg != "" {
		return msg
	}
	return DefaultErrorMessage
}
