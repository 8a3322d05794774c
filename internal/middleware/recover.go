package middleware

import (
	"bufio"
	"encoding/json"
	"net"
	"net/http"

	"github.com/gateadmin/internal/logger"
)

// responseWriter запоминает статус и факт отправки заголовков.
// Реализует http.Hijacker для поддержки WebSocket upgrade.
type responseWriter struct {
	http.ResponseWriter
	status int
	wrote  bool
}

func (w *responseWriter) WriteHeader(code int) {
	if w.wrote {
		return
	}
	w.status = code
	w.wrote = true
	w.ResponseWriter.WriteHeader(code)
}

func (w *responseWriter) Write(b []byte) (int, error) {
	if !w.wrote {
		w.WriteHeader(http.StatusOK)
	}
	return w.ResponseWriter.Write(b)
}

// Hijack делегирует к нижележащему ResponseWriter, если он реализует http.Hijacker (нужно для WebSocket).
func (w *responseWriter) Hijack() (net.Conn, *bufio.ReadWriter, error) {
	if h, ok := w.ResponseWriter.(http.Hijacker); ok {
		w.wrote = true
		return h.Hijack()
	}
	return nil, nil, http.ErrNotSupported
}

func wrapWriter(w http.ResponseWriter) *responseWriter {
	if rw, ok := w.(*responseWriter); ok {
		return rw
	}
	return &responseWriter{ResponseWriter: w, status: http.StatusOK}
}

// Recover при панике в handler логирует её и отдаёт 500 (если ответ ещё не отправлен):
// JSON для API, текст для страниц.
func Recover(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		wrap := wrapWriter(w)
		defer func() {
			if err := recover(); err != nil {
				if err == http.ErrAbortHandler {
					panic(err)
				}
				logger.Errorf("panic recovered: %s %s: %v", r.Method, r.URL.Path, err)
				if wrap.wrote {
					return
				}
				if WantsJSON(r) {
					wrap.Header().Set("Content-Type", "application/json; charset=utf-8")
					wrap.WriteHeader(http.StatusInternalServerError)
					_ = json.NewEncoder(wrap).Encode(map[string]string{"error": "internal server error"})
					return
				}
				http.Error(wrap, "internal server error", http.StatusInternalServerError)
			}
		}()
		next.ServeHTTP(wrap, r)
	})
}
