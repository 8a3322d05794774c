package middleware

import (
	"net/http"
	"time"

	"github.com/gateadmin/internal/logger"
)

// RequestLog логирует каждый HTTP-запрос: method, path, статус и время выполнения
// (асинхронно, не блокирует). Медленные запросы — всегда, остальные — при LOG_LEVEL=debug.
func RequestLog(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		wrap := wrapWriter(w)
		defer logger.DeferLogDuration("http "+r.Method+" "+r.URL.Path, start)()
		next.ServeHTTP(wrap, r)
		logger.Debugf("http %s %s status=%d sid=%s", r.Method, r.URL.Path, wrap.status, MaskSessionID(GetSessionID(r.Context())))
	})
}
