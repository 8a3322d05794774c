package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// keyPrefix отделяет сессии дашборда от прочих ключей в общей БД Redis.
const keyPrefix = "gate_session:"

type Client struct {
	cli *redis.Client
	ttl time.Duration
}

func New(ctx context.Context, url string, ttl time.Duration) (*Client, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("redis parse url: %w", err)
	}
	cli := redis.NewClient(opts)
	if err := cli.Ping(ctx).Err(); err != nil {
		if closeErr := cli.Close(); closeErr != nil {
			return nil, fmt.Errorf("redis ping: %w (close: %v)", err, closeErr)
		}
		return nil, fmt.Errorf("redis ping: %w", err)
	}
	return &Client{cli: cli, ttl: ttl}, nil
}

func (c *Client) Close() error {
	return c.cli.Close()
}

// Get возвращает "" если ключа нет (redis.Nil не считается ошибкой).
func (c *Client) Get(ctx context.Context, key string) (string, error) {
	val, err := c.cli.Get(ctx, keyPrefix+key).Result()
	if err == redis.Nil {
		return "", nil
	}
	return val, err
}

// Set пишет значение с TTL сессии; ttl <= 0 — без истечения.
func (c *Client) Set(ctx context.Context, key, value string) error {
	return c.cli.Set(ctx, keyPrefix+key, value, c.ttl).Err()
}

// Remove удаляет ключи одной командой DEL: три ключа сессии исчезают атомарно.
func (c *Client) Remove(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}
	full := make([]string, len(keys))
	for i, k := range keys {
		full[i] = keyPrefix + k
	}
	return c.cli.Del(ctx, full...).Err()
}
