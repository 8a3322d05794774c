package middleware

import (
	"context"

	"github.com/gateadmin/internal/storage"
)

type contextKey string

const (
	SessionIDKey contextKey = "session_id"
	StoreKey     contextKey = "session_store"
)

// GetSessionID возвращает id браузерной сессии (устанавливается BrowserSession).
func GetSessionID(ctx context.Context) string {
	v, _ := ctx.Value(SessionIDKey).(string)
	return v
}

// GetStore возвращает хранилище сессии текущего браузера или nil.
func GetStore(ctx context.Context) storage.SessionStore {
	v, _ := ctx.Value(StoreKey).(storage.SessionStore)
	return v
}

// WithSession кладёт id и хранилище сессии в контекст.
func WithSession(ctx context.Context, sid string, store storage.SessionStore) context.Context {
	ctx = context.WithValue(ctx, SessionIDKey, sid)
	return context.WithValue(ctx, StoreKey, store)
}
