package startup

import (
	"os"
	"time"

	"github.com/gateadmin/internal/logger"
)

// sleep подменяется в тестах.
var sleep = time.Sleep

// exit подменяется в тестах.
var exit = os.Exit

// retry повторяет connect с экспоненциальной паузой (2s..30s), пока не истечёт maxWait;
// после этого процесс завершается: без хранилища сессий дашборд работать не может.
func retry(maxWait time.Duration, what string, connect func() error) {
	deadline := time.Now().Add(maxWait)
	backoff := 2 * time.Second
	for {
		err := connect()
		if err == nil {
			return
		}
		if time.Now().After(deadline) {
			logger.Errorf("%s (gave up after %v): %v", what, maxWait, err)
			exit(1)
			return
		}
		logger.Errorf("%s connect failed, retry in %v: %v", what, backoff, err)
		sleep(backoff)
		if backoff < 30*time.Second {
			backoff *= 2
		}
	}
}
