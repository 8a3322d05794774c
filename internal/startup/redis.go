package startup

import (
	"context"
	"time"

	"github.com/gateadmin/internal/logger"
	redisstorage "github.com/gateadmin/internal/storage/redis"
)

// ConnectRedisWithRetry подключается к Redis хранилища сессий с повторами.
func ConnectRedisWithRetry(redisURL string, ttl, maxWait time.Duration, logPrefix string) *redisstorage.Client {
	var client *redisstorage.Client
	retry(maxWait, logPrefix+"redis", func() error {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		c, err := redisstorage.New(ctx, redisURL, ttl)
		if err != nil {
			return err
		}
		client = c
		return nil
	})
	logger.Infof("%sredis connected", logPrefix)
	return client
}
