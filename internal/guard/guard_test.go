package guard

import (
	"context"
	"errors"
	"testing"

	"github.com/gateadmin/internal/storage"
	"github.com/gateadmin/internal/storage/memory"
)

type failingStore struct{ storage.SessionStore }

func (failingStore) Get(context.Context, string) (string, error) {
	return "", errors.New("store down")
}

func TestCheck(t *testing.T) {
	tests := []struct {
		name  string
		token string
		want  State
	}{
		{"no token", "", Unauthenticated},
		{"blank token", "   ", Unauthenticated},
		{"token present", "abc", Authenticated},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := memory.New(0)
			if tt.token != "" {
				_ = store.Set(context.Background(), storage.KeyAuthToken, tt.token)
			}
			got, err := Check(context.Background(), store)
			if err != nil {
				t.Fatalf("Check() error = %v", err)
			}
			if got != tt.want {
				t.Errorf("Check() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestCheck_StoreError(t *testing.T) {
	got, err := Check(context.Background(), failingStore{})
	if err == nil {
		t.Fatal("Check() error = nil, want store error")
	}
	if got != Unauthenticated {
		t.Errorf("Check() = %v, want unauthenticated", got)
	}
}
