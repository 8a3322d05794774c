package apiclient

import (
	"context"
	"errors"
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gateadmin/internal/storage"
	"github.com/gateadmin/internal/storage/memory"
)

// testHandler captures the incoming request and returns a canned response.
type testHandler struct {
	method        string
	path          string
	query         string
	body          string
	contentType   string
	authorization string

	statusCode   int
	responseBody string
}

func (h *testHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.method = r.Method
	h.path = r.URL.Path
	h.query = r.URL.RawQuery
	h.contentType = r.Header.Get("Content-Type")
	h.authorization = r.Header.Get("Authorization")
	if r.Body != nil {
		data, _ := io.ReadAll(r.Body)
		h.body = string(data)
	}
	if h.statusCode != 0 {
		w.WriteHeader(h.statusCode)
	}
	if h.responseBody != "" {
		_, _ = w.Write([]byte(h.responseBody))
	}
}

func newTestClient(t *testing.T, h http.Handler) *Client {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	return New(srv.URL+"/api/", 5*time.Second)
}

func staticToken(token string) TokenSource {
	return TokenFunc(func(context.Context) (string, error) { return token, nil })
}

func TestRequest_DefaultsToGETAndDecodes(t *testing.T) {
	h := &testHandler{responseBody: `{"status":"ok","count":3}`}
	c := newTestClient(t, h)

	var out struct {
		Status string `json:"status"`
		Count  int    `json:"count"`
	}
	if err := c.Request(context.Background(), "/health?x=1", Options{}, &out); err != nil {
		t.Fatalf("Request() error = %v", err)
	}
	if h.method != http.MethodGet {
		t.Errorf("method = %q, want GET", h.method)
	}
	if h.path != "/api/health" {
		t.Errorf("path = %q, want /api/health", h.path)
	}
	if h.query != "x=1" {
		t.Errorf("query = %q, want x=1", h.query)
	}
	if h.contentType != "" {
		t.Errorf("content-type = %q, want empty for a request without body", h.contentType)
	}
	if out.Status != "ok" || out.Count != 3 {
		t.Errorf("out = %+v, want {ok 3}", out)
	}
}

func TestRequest_JSONBody(t *testing.T) {
	h := &testHandler{statusCode: http.StatusCreated}
	c := newTestClient(t, h)

	body := map[string]any{"id": 7, "NamaGerbang": "Gerbang Utama"}
	if err := c.Request(context.Background(), "/gerbangs", Options{Method: http.MethodPost, Body: body}, nil); err != nil {
		t.Fatalf("Request() error = %v", err)
	}
	if h.method != http.MethodPost {
		t.Errorf("method = %q, want POST", h.method)
	}
	if h.contentType != "application/json" {
		t.Errorf("content-type = %q, want application/json", h.contentType)
	}
	if h.body != `{"NamaGerbang":"Gerbang Utama","id":7}` {
		t.Errorf("body = %s", h.body)
	}
}

func TestRequest_BearerTokenOnlyWhenRequired(t *testing.T) {
	h := &testHandler{}
	c := newTestClient(t, h).WithTokens(staticToken("tok-123"))

	if err := c.Request(context.Background(), "/gerbangs", Options{RequiresAuth: true}, nil); err != nil {
		t.Fatalf("Request() error = %v", err)
	}
	if h.authorization != "Bearer tok-123" {
		t.Errorf("authorization = %q, want Bearer tok-123", h.authorization)
	}

	if err := c.Request(context.Background(), "/auth/login", Options{Method: http.MethodPost}, nil); err != nil {
		t.Fatalf("Request() error = %v", err)
	}
	if h.authorization != "" {
		t.Errorf("authorization = %q, want none for a public endpoint", h.authorization)
	}
}

func TestRequest_MissingTokenDoesNotBlock(t *testing.T) {
	h := &testHandler{statusCode: http.StatusUnauthorized, responseBody: `{"message":"Unauthorized"}`}
	store := memory.New(0)
	c := newTestClient(t, h).WithTokens(StoreTokens(store))

	err := c.Request(context.Background(), "/gerbangs", Options{RequiresAuth: true}, nil)
	if h.method == "" {
		t.Fatal("request was not sent")
	}
	if h.authorization != "" {
		t.Errorf("authorization = %q, want none", h.authorization)
	}
	if !IsUnauthorized(err) {
		t.Errorf("IsUnauthorized(%v) = false, want true", err)
	}
}

func TestRequest_ReadsTokenFromStoreEachCall(t *testing.T) {
	h := &testHandler{}
	store := memory.New(0)
	c := newTestClient(t, h).WithTokens(StoreTokens(store))
	ctx := context.Background()

	_ = store.Set(ctx, storage.KeyAuthToken, "first")
	if err := c.Request(ctx, "/gerbangs", Options{RequiresAuth: true}, nil); err != nil {
		t.Fatal(err)
	}
	if h.authorization != "Bearer first" {
		t.Errorf("authorization = %q, want Bearer first", h.authorization)
	}

	_ = store.Remove(ctx, storage.KeyAuthToken)
	if err := c.Request(ctx, "/gerbangs", Options{RequiresAuth: true}, nil); err != nil {
		t.Fatal(err)
	}
	if h.authorization != "" {
		t.Errorf("authorization = %q after sign-out, want none", h.authorization)
	}
}

func TestRequest_ErrorMessages(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		body    string
		wantMsg string
	}{
		{"message field", http.StatusBadRequest, `{"message":"NamaGerbang wajib diisi"}`, "NamaGerbang wajib diisi"},
		{"error field", http.StatusForbidden, `{"error":"forbidden"}`, "forbidden"},
		{"message wins over error", http.StatusConflict, `{"message":"duplicate id","error":"conflict"}`, "duplicate id"},
		{"not json", http.StatusBadGateway, `<html>bad gateway</html>`, DefaultErrorMessage},
		{"empty body", http.StatusInternalServerError, ``, DefaultErrorMessage},
		{"json without message", http.StatusNotFound, `{"code":404}`, DefaultErrorMessage},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := &testHandler{statusCode: tt.status, responseBody: tt.body}
			c := newTestClient(t, h)

			err := c.Request(context.Background(), "/gerbangs", Options{}, nil)
			var apiErr *APIError
			if !errors.As(err, &apiErr) {
				t.Fatalf("error = %T %v, want *APIError", err, err)
			}
			if apiErr.StatusCode != tt.status {
				t.Errorf("StatusCode = %d, want %d", apiErr.StatusCode, tt.status)
			}
			if err.Error() != tt.wantMsg {
				t.Errorf("Error() = %q, want %q", err.Error(), tt.wantMsg)
			}
		})
	}
}

func TestRequest_EmptySuccessBodyLeavesOutUntouched(t *testing.T) {
	h := &testHandler{statusCode: http.StatusNoContent}
	c := newTestClient(t, h)

	out := map[string]string{"kept": "yes"}
	if err := c.Request(context.Background(), "/gerbangs", Options{Method: http.MethodDelete}, &out); err != nil {
		t.Fatalf("Request() error = %v", err)
	}
	if out["kept"] != "yes" {
		t.Errorf("out = %v, want untouched", out)
	}
}

func TestRequest_TransportErrorKeepsMessage(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatal(err)
	}
	addr := ln.Addr().String()
	ln.Close()

	c := New("http://"+addr, time.Second)
	err = c.Request(context.Background(), "/auth/login", Options{Method: http.MethodPost}, nil)
	if !IsTransport(err) {
		t.Fatalf("error = %T %v, want *TransportError", err, err)
	}
	var tErr *TransportError
	errors.As(err, &tErr)
	if err.Error() != tErr.Err.Error() {
		t.Errorf("Error() = %q, want underlying %q", err.Error(), tErr.Err.Error())
	}
}

func TestRequest_CanceledContext(t *testing.T) {
	h := &testHandler{}
	c := newTestClient(t, h)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err := c.Request(ctx, "/gerbangs", Options{}, nil)
	if !errors.Is(err, context.Canceled) {
		t.Errorf("error = %v, want context.Canceled", err)
	}
}
