// Package postgres — SessionStore в таблице dashboard_sessions.
// Используется, когда у дашборда несколько реплик без Redis, и в режиме -dev (embedded Postgres):
// сессии переживают перезапуск.
package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/gateadmin/internal/logger"
)

type Client struct {
	pool *pgxpool.Pool
	ttl  time.Duration
}

// New не владеет пулом: Close пула делает main.
func New(pool *pgxpool.Pool, ttl time.Duration) *Client {
	return &Client{pool: pool, ttl: ttl}
}

func (c *Client) Close() error { return nil }

func (c *Client) expiry() *time.Time {
	if c.ttl <= 0 {
		return nil
	}
	t := time.Now().UTC().Add(c.ttl)
	return &t
}

// Get возвращает "" для отсутствующего или истёкшего ключа.
func (c *Client) Get(ctx context.Context, key string) (string, error) {
	defer logger.DeferLogDuration("sessionStore.Get", time.Now())()
	var val string
	err := c.pool.QueryRow(ctx,
		`SELECT value FROM dashboard_sessions
		 WHERE key = $1 AND (expires_at IS NULL OR expires_at > NOW())`, key).Scan(&val)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", nil
		}
		return "", fmt.Errorf("sessionStore.Get: %w", err)
	}
	return val, nil
}

func (c *Client) Set(ctx context.Context, key, value string) error {
	defer logger.DeferLogDuration("sessionStore.Set", time.Now())()
	_, err := c.pool.Exec(ctx,
		`INSERT INTO dashboard_sessions (key, value, expires_at, updated_at)
		 VALUES ($1, $2, $3, NOW())
		 ON CONFLICT (key) DO UPDATE SET
		   value = EXCLUDED.value,
		   expires_at = EXCLUDED.expires_at,
		   updated_at = NOW()`,
		key, value, c.expiry())
	if err != nil {
		return fmt.Errorf("sessionStore.Set: %w", err)
	}
	return nil
}

// Remove удаляет все ключи одним DELETE.
func (c *Client) Remove(ctx context.Context, keys ...string) error {
	defer logger.DeferLogDuration("sessionStore.Remove", time.Now())()
	if len(keys) == 0 {
		return nil
	}
	if _, err := c.pool.Exec(ctx, `DELETE FROM dashboard_sessions WHERE key = ANY($1)`, keys); err != nil {
		return fmt.Errorf("sessionStore.Remove: %w", err)
	}
	return nil
}

// PurgeExpired удаляет истёкшие записи; вызывается периодически из main.
func (c *Client) PurgeExpired(ctx context.Context) (int64, error) {
	tag, err := c.pool.Exec(ctx, `DELETE FROM dashboard_sessions WHERE expires_at IS NOT NULL AND expires_at <= NOW()`)
	if err != nil {
		return 0, fmt.Errorf("sessionStore.PurgeExpired: %w", err)
	}
	return tag.RowsAffected(), nil
}
