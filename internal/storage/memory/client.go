package memory

import (
	"context"
	"sync"
	"time"
)

type item struct {
	val string
	exp time.Time
}

// Client — in-memory SessionStore (тесты и запуск без Redis/Postgres).
// ttl <= 0 — записи не истекают.
type Client struct {
	mu    sync.RWMutex
	items map[string]item
	ttl   time.Duration
}

func New(ttl time.Duration) *Client {
	return &Client{items: make(map[string]item), ttl: ttl}
}

func (c *Client) Close() error { return nil }

func (c *Client) Get(ctx context.Context, key string) (string, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	v, ok := c.items[key]
	if !ok || (!v.exp.IsZero() && time.Now().After(v.exp)) {
		return "", nil
	}
	return v.val, nil
}

func (c *Client) Set(ctx context.Context, key, value string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	it := item{val: value}
	if c.ttl > 0 {
		it.exp = time.Now().Add(c.ttl)
	}
	c.items[key] = it
	return nil
}

func (c *Client) Remove(ctx context.Context, keys ...string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, k := range keys {
		delete(c.items, k)
	}
	return nil
}

// PurgeExpired удаляет истёкшие записи и возвращает их число.
func (c *Client) PurgeExpired(ctx context.Context) (int64, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	now := time.Now()
	var n int64
	for k, v := range c.items {
		if !v.exp.IsZero() && !now.Before(v.exp) {
			delete(c.items, k)
			n++
		}
	}
	return n, nil
}

// Len — число живых записей.
func (c *Client) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	now := time.Now()
	n := 0
	for _, v := range c.items {
		if v.exp.IsZero() || now.Before(v.exp) {
			n++
		}
	}
	return n
}
