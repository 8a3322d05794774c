package storage_test

import (
	"context"
	"testing"

	"github.com/gateadmin/internal/storage"
	"github.com/gateadmin/internal/storage/memory"
)

func TestScope_IsolatesSessions(t *testing.T) {
	ctx := context.Background()
	base := memory.New(0)
	a := storage.Scope(base, "sid-a")
	b := storage.Scope(base, "sid-b")

	if err := a.Set(ctx, storage.KeyAuthToken, "tok-a"); err != nil {
		t.Fatal(err)
	}
	if v, _ := b.Get(ctx, storage.KeyAuthToken); v != "" {
		t.Errorf("sid-b sees %q", v)
	}
	if v, _ := base.Get(ctx, "sid-a:"+storage.KeyAuthToken); v != "tok-a" {
		t.Errorf("base key = %q, want tok-a", v)
	}

	_ = b.Set(ctx, storage.KeyAuthToken, "tok-b")
	if err := a.Remove(ctx, storage.SessionKeys...); err != nil {
		t.Fatal(err)
	}
	if v, _ := b.Get(ctx, storage.KeyAuthToken); v != "tok-b" {
		t.Errorf("Remove on sid-a touched sid-b: %q", v)
	}
	if a.SessionID() != "sid-a" {
		t.Errorf("SessionID() = %q", a.SessionID())
	}
}

func TestToken_TrimsBlank(t *testing.T) {
	ctx := context.Background()
	store := memory.New(0)
	tests := []struct {
		stored string
		want   string
	}{
		{"", ""},
		{"   ", ""},
		{" tok ", "tok"},
	}
	for _, tt := range tests {
		_ = store.Set(ctx, storage.KeyAuthToken, tt.stored)
		got, err := storage.Token(ctx, store)
		if err != nil {
			t.Fatal(err)
		}
		if got != tt.want {
			t.Errorf("Token(%q) = %q, want %q", tt.stored, got, tt.want)
		}
	}
}
