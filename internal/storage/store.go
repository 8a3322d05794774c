package storage

import (
	"context"
	"strings"
)

// Ключи сессии браузера/CLI. SignOut удаляет ровно эти три ключа.
const (
	KeyAuthToken  = "authToken"
	KeyUser       = "user"
	KeyRememberMe = "rememberMe"
)

// SessionKeys — все ключи, которые очищаются вместе при выходе.
var SessionKeys = []string{KeyAuthToken, KeyUser, KeyRememberMe}

// SessionStore — хранилище сессии (токен, профиль, remember me).
// Реализации: memory.Client (тесты, -store=memory), redis.Client, postgres.Client, file.Client (gatectl).
// Get возвращает "" без ошибки, если ключа нет. Remove отсутствующего ключа — не ошибка.
type SessionStore interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key, value string) error
	Remove(ctx context.Context, keys ...string) error
	Close() error
}

// Purger — хранилище, которое само не удаляет истёкшие записи (memory, postgres).
// Redis истекает по TTL ключа и Purger не реализует.
type Purger interface {
	PurgeExpired(ctx context.Context) (int64, error)
}

// Scoped — пространство ключей одного браузера внутри общего хранилища дашборда.
// Ключи хранятся как "<sid>:<key>", поэтому сессии разных cookie не пересекаются.
type Scoped struct {
	base SessionStore
	sid  string
}

// Scope возвращает хранилище, ограниченное session id браузера.
func Scope(base SessionStore, sid string) *Scoped {
	return &Scoped{base: base, sid: sid}
}

// SessionID возвращает идентификатор пространства.
func (s *Scoped) SessionID() string { return s.sid }

func (s *Scoped) key(k string) string {
	return s.sid + ":" + k
}

func (s *Scoped) Get(ctx context.Context, key string) (string, error) {
	return s.base.Get(ctx, s.key(key))
}

func (s *Scoped) Set(ctx context.Context, key, value string) error {
	return s.base.Set(ctx, s.key(key), value)
}

func (s *Scoped) Remove(ctx context.Context, keys ...string) error {
	scoped := make([]string, 0, len(keys))
	for _, k := range keys {
		scoped = append(scoped, s.key(k))
	}
	return s.base.Remove(ctx, scoped...)
}

// Close не закрывает общее хранилище: его жизненным циклом владеет main.
func (s *Scoped) Close() error { return nil }

// Token читает токен сессии; пробелы по краям не считаются токеном.
func Token(ctx context.Context, store SessionStore) (string, error) {
	v, err := store.Get(ctx, KeyAuthToken)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(v), nil
}
