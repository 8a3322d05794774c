package main

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/gateadmin/internal/storage"
	"github.com/gateadmin/internal/storage/file"
)

// fakeGateAPI отвечает на /auth/login и /gerbangs; записи хранятся в памяти.
type fakeGateAPI struct {
	mu      sync.Mutex
	token   string
	rows    []map[string]any
	created []map[string]any
	deleted []map[string]any
	auths   []string
}

func (f *fakeGateAPI) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()
	body, _ := io.ReadAll(r.Body)
	w.Header().Set("Content-Type", "application/json")

	if r.URL.Path == "/auth/login" {
		var creds map[string]string
		_ = json.Unmarshal(body, &creds)
		if creds["password"] != "secret" {
			_, _ = w.Write([]byte(`{"code":401,"is_logged_in":0,"message":"Invalid credentials","status":false}`))
			return
		}
		_, _ = w.Write([]byte(`{"code":200,"is_logged_in":1,"status":true,"token":"` + f.token + `","user":{"name":"Siti"}}`))
		return
	}

	f.auths = append(f.auths, r.Header.Get("Authorization"))
	if r.Header.Get("Authorization") != "Bearer "+f.token {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"message":"Unauthorized"}`))
		return
	}
	switch r.Method {
	case http.MethodGet:
		_ = json.NewEncoder(w).Encode(map[string]any{"data": map[string]any{
			"rows":        map[string]any{"rows": f.rows},
			"count":       len(f.rows),
			"total_pages": 1,
		}})
	case http.MethodPost:
		var rec map[string]any
		_ = json.Unmarshal(body, &rec)
		f.created = append(f.created, rec)
		f.rows = append(f.rows, rec)
		_, _ = w.Write([]byte(`{"message":"created"}`))
	case http.MethodDelete:
		var rec map[string]any
		_ = json.Unmarshal(body, &rec)
		f.deleted = append(f.deleted, rec)
		_, _ = w.Write([]byte(`{}`))
	default:
		_, _ = w.Write([]byte(`{}`))
	}
}

type harness struct {
	api     *fakeGateAPI
	url     string
	session string
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	api := &fakeGateAPI{
		token: "jwt-cli",
		rows: []map[string]any{
			{"id": 3, "IdCabang": 1, "NamaCabang": "Cabang A", "NamaGerbang": "Gerbang Utara"},
			{"id": 5, "IdCabang": 2, "NamaCabang": "Cabang B", "NamaGerbang": "Gerbang Selatan"},
		},
	}
	srv := httptest.NewServer(api)
	t.Cleanup(srv.Close)
	return &harness{api: api, url: srv.URL, session: filepath.Join(t.TempDir(), "session.toml")}
}

func (h *harness) run(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(io.Discard)
	cmd.SetIn(strings.NewReader(stdin))
	cmd.SetArgs(append([]string{"--api", h.url, "--session", h.session}, args...))
	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}

func (h *harness) signIn(t *testing.T) {
	t.Helper()
	if _, err := h.run(t, "secret\n", "signin", "-u", "siti", "--remember"); err != nil {
		t.Fatalf("signin: %v", err)
	}
}

func TestSignIn_StoresSessionFile(t *testing.T) {
	h := newHarness(t)
	out, err := h.run(t, "secret\n", "signin", "-u", "siti", "--remember")
	if err != nil {
		t.Fatalf("signin: %v", err)
	}
	if !strings.Contains(out, "Signed in as siti") {
		t.Errorf("output = %q", out)
	}

	store, err := file.New(h.session)
	if err != nil {
		t.Fatal(err)
	}
	ctx := context.Background()
	if tok, _ := store.Get(ctx, storage.KeyAuthToken); tok != "jwt-cli" {
		t.Errorf("authToken = %q, want jwt-cli", tok)
	}
	if v, _ := store.Get(ctx, storage.KeyRememberMe); v != "true" {
		t.Errorf("rememberMe = %q, want true", v)
	}

	out, err = h.run(t, "", "whoami")
	if err != nil || !strings.HasPrefix(out, "Siti\n") {
		t.Errorf("whoami = %q, %v", out, err)
	}
}

func TestSignIn_PromptsForUsername(t *testing.T) {
	h := newHarness(t)
	if _, err := h.run(t, "siti\nsecret\n", "signin"); err != nil {
		t.Fatalf("signin: %v", err)
	}
	if _, err := h.run(t, "", "whoami"); err != nil {
		t.Errorf("whoami after prompted signin: %v", err)
	}
}

func TestSignIn_Rejected(t *testing.T) {
	h := newHarness(t)
	_, err := h.run(t, "wrong\n", "signin", "-u", "siti")
	if err == nil || err.Error() != "Invalid credentials" {
		t.Fatalf("err = %v, want Invalid credentials", err)
	}
	if _, err := h.run(t, "", "whoami"); err == nil || err != errNotSignedIn {
		t.Errorf("whoami err = %v, want errNotSignedIn", err)
	}
}

func TestGates_RequireSession(t *testing.T) {
	h := newHarness(t)
	_, err := h.run(t, "", "gates", "list")
	if err != errNotSignedIn {
		t.Fatalf("err = %v, want errNotSignedIn", err)
	}
	if len(h.api.auths) != 0 {
		t.Error("Gate API called without a session")
	}
}

func TestGatesList(t *testing.T) {
	h := newHarness(t)
	h.signIn(t)

	out, err := h.run(t, "", "gates", "list")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	for _, want := range []string{"Gerbang Utara", "Gerbang Selatan", "Showing 1 - 2 of 2", "[1]"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
	if h.api.auths[0] != "Bearer jwt-cli" {
		t.Errorf("Authorization = %q", h.api.auths[0])
	}

	out, err = h.run(t, "", "--json", "gates", "list")
	if err != nil {
		t.Fatalf("list --json: %v", err)
	}
	var rows []map[string]any
	if err := json.Unmarshal([]byte(out), &rows); err != nil || len(rows) != 2 {
		t.Errorf("json rows = %v (%v)", rows, err)
	}
}

func TestGatesCreate_SuggestsNextID(t *testing.T) {
	h := newHarness(t)
	h.signIn(t)

	out, err := h.run(t, "", "gates", "create", "--branch-id", "2", "--branch-name", "Cabang B", "--name", "Gerbang Timur")
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if !strings.Contains(out, "Created gate 6") {
		t.Errorf("output = %q", out)
	}
	if len(h.api.created) != 1 {
		t.Fatalf("created = %v", h.api.created)
	}
	got := h.api.created[0]
	if got["id"] != float64(6) || got["IdCabang"] != float64(2) || got["NamaGerbang"] != "Gerbang Timur" {
		t.Errorf("created record = %v", got)
	}
}

func TestGatesCreate_InvalidBranch(t *testing.T) {
	h := newHarness(t)
	h.signIn(t)

	_, err := h.run(t, "", "gates", "create", "--name", "Gerbang Timur")
	if err == nil || !strings.Contains(err.Error(), "IdCabang") {
		t.Errorf("err = %v, want IdCabang validation error", err)
	}
	if len(h.api.created) != 0 {
		t.Error("invalid record sent")
	}
}

func TestGatesDelete(t *testing.T) {
	h := newHarness(t)
	h.signIn(t)

	if _, err := h.run(t, "", "gates", "delete", "--id", "5"); err == nil {
		t.Error("delete without --branch-id succeeded")
	}
	out, err := h.run(t, "", "gates", "delete", "--id", "5", "--branch-id", "2")
	if err != nil {
		t.Fatalf("delete: %v", err)
	}
	if !strings.Contains(out, "Deleted gate 2-5") {
		t.Errorf("output = %q", out)
	}
	if len(h.api.deleted) != 1 || h.api.deleted[0]["id"] != float64(5) || h.api.deleted[0]["IdCabang"] != float64(2) {
		t.Errorf("deleted = %v", h.api.deleted)
	}
}

func TestSignOut(t *testing.T) {
	h := newHarness(t)
	h.signIn(t)

	if out, err := h.run(t, "", "signout"); err != nil || !strings.Contains(out, "Signed out") {
		t.Fatalf("signout = %q, %v", out, err)
	}
	if _, err := h.run(t, "", "gates", "list"); err != errNotSignedIn {
		t.Errorf("after signout err = %v, want errNotSignedIn", err)
	}
}

func TestExpiredToken(t *testing.T) {
	h := newHarness(t)
	h.signIn(t)
	h.api.mu.Lock()
	h.api.token = "rotated"
	h.api.mu.Unlock()

	_, err := h.run(t, "", "gates", "list")
	if err == nil || !strings.Contains(err.Error(), "gatectl signin") {
		t.Errorf("err = %v, want sign in hint", err)
	}
}
