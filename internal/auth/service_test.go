package auth

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"reflect"
	"testing"
	"time"

	"github.com/gateadmin/internal/apiclient"
	"github.com/gateadmin/internal/storage"
	"github.com/gateadmin/internal/storage/memory"
)

type loginHandler struct {
	method string
	path   string
	body   string

	status   int
	response string
}

func (h *loginHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.method = r.Method
	h.path = r.URL.Path
	data, _ := io.ReadAll(r.Body)
	h.body = string(data)
	if h.status != 0 {
		w.WriteHeader(h.status)
	}
	_, _ = w.Write([]byte(h.response))
}

func newService(t *testing.T, h http.Handler) (*Service, *memory.Client) {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	store := memory.New(0)
	client := apiclient.New(srv.URL, 5*time.Second).WithTokens(apiclient.StoreTokens(store))
	return NewService(client, store), store
}

func TestSignIn_ReturnsServerResponseUnmodified(t *testing.T) {
	h := &loginHandler{response: `{"code":200,"is_logged_in":1,"message":"Login successful","status":true,"token":"mock-jwt-token"}`}
	svc, _ := newService(t, h)

	got, err := svc.SignIn(context.Background(), Credentials{Username: "testuser", Password: "testpassword"})
	if err != nil {
		t.Fatalf("SignIn() error = %v", err)
	}
	want := &SignInResponse{Code: 200, IsLoggedIn: 1, Message: "Login successful", Status: true, Token: "mock-jwt-token"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("SignIn() = %+v, want %+v", got, want)
	}
	if h.method != http.MethodPost || h.path != LoginPath {
		t.Errorf("request = %s %s, want POST %s", h.method, h.path, LoginPath)
	}

	var body map[string]string
	if err := json.Unmarshal([]byte(h.body), &body); err != nil {
		t.Fatalf("request body: %v", err)
	}
	if !reflect.DeepEqual(body, map[string]string{"username": "testuser", "password": "testpassword"}) {
		t.Errorf("request body = %v", body)
	}
}

func TestSignIn_ApplicationFailureIsNotAnError(t *testing.T) {
	h := &loginHandler{response: `{"code":401,"is_logged_in":0,"message":"Invalid credentials","status":false}`}
	svc, _ := newService(t, h)

	got, err := svc.SignIn(context.Background(), Credentials{Username: "u", Password: "bad"})
	if err != nil {
		t.Fatalf("SignIn() error = %v, want nil", err)
	}
	if got.Status || got.OK() {
		t.Errorf("Status = %v, OK() = %v, want false", got.Status, got.OK())
	}
	if got.Message != "Invalid credentials" {
		t.Errorf("Message = %q", got.Message)
	}
}

func TestSignIn_NetworkErrorPropagates(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatal(err)
	}
	addr := ln.Addr().String()
	ln.Close()

	svc := NewService(apiclient.New("http://"+addr, time.Second), memory.New(0))
	_, err = svc.SignIn(context.Background(), Credentials{Username: "u", Password: "p"})
	var tErr *apiclient.TransportError
	if !errors.As(err, &tErr) {
		t.Fatalf("error = %T %v, want *apiclient.TransportError", err, err)
	}
	if err.Error() != tErr.Err.Error() {
		t.Errorf("Error() = %q, want %q", err.Error(), tErr.Err.Error())
	}
}

func TestPersist_StoresTokenUserAndRememberMe(t *testing.T) {
	svc, store := newService(t, http.NotFoundHandler())
	ctx := context.Background()

	resp := &SignInResponse{Status: true, Token: "tok", User: json.RawMessage(`{"id":"1","name":"Admin"}`)}
	if err := svc.Persist(ctx, resp, true); err != nil {
		t.Fatalf("Persist() error = %v", err)
	}
	sess, err := svc.Current(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if sess == nil || sess.Token != "tok" || !sess.RememberMe {
		t.Fatalf("Current() = %+v", sess)
	}
	if sess.DisplayName() != "Admin" {
		t.Errorf("DisplayName() = %q, want Admin", sess.DisplayName())
	}
	if v, _ := store.Get(ctx, storage.KeyRememberMe); v != "true" {
		t.Errorf("rememberMe = %q, want true", v)
	}
}

func TestPersist_WithoutRememberMe(t *testing.T) {
	svc, store := newService(t, http.NotFoundHandler())
	ctx := context.Background()

	if err := svc.Persist(ctx, &SignInResponse{Status: true, Token: "tok"}, false); err != nil {
		t.Fatal(err)
	}
	for _, key := range []string{storage.KeyUser, storage.KeyRememberMe} {
		if v, _ := store.Get(ctx, key); v != "" {
			t.Errorf("%s = %q, want empty", key, v)
		}
	}
}

func seedSession(t *testing.T, store storage.SessionStore) {
	t.Helper()
	ctx := context.Background()
	_ = store.Set(ctx, storage.KeyAuthToken, "mock-token")
	_ = store.Set(ctx, storage.KeyUser, `{"id":1,"name":"Test"}`)
	_ = store.Set(ctx, storage.KeyRememberMe, "true")
}

func TestSignOut_ClearsSessionKeysOnly(t *testing.T) {
	svc, store := newService(t, http.NotFoundHandler())
	ctx := context.Background()
	seedSession(t, store)
	_ = store.Set(ctx, "otherData", "should-remain")

	if err := svc.SignOut(ctx); err != nil {
		t.Fatalf("SignOut() error = %v", err)
	}
	for _, key := range storage.SessionKeys {
		if v, _ := store.Get(ctx, key); v != "" {
			t.Errorf("%s = %q after SignOut, want empty", key, v)
		}
	}
	if v, _ := store.Get(ctx, "otherData"); v != "should-remain" {
		t.Errorf("otherData = %q, want should-remain", v)
	}
}

func TestSignOut_EmptyStorage(t *testing.T) {
	svc, _ := newService(t, http.NotFoundHandler())
	if err := svc.SignOut(context.Background()); err != nil {
		t.Errorf("SignOut() on empty storage error = %v", err)
	}
}

func TestSignOut_Repeated(t *testing.T) {
	svc, store := newService(t, http.NotFoundHandler())
	ctx := context.Background()
	seedSession(t, store)

	for i := 0; i < 2; i++ {
		if err := svc.SignOut(ctx); err != nil {
			t.Fatalf("SignOut() #%d error = %v", i+1, err)
		}
		sess, err := svc.Current(ctx)
		if err != nil {
			t.Fatal(err)
		}
		if sess != nil {
			t.Errorf("Current() after SignOut #%d = %+v, want nil", i+1, sess)
		}
	}
	if n := store.Len(); n != 0 {
		t.Errorf("store has %d entries, want 0", n)
	}
}
