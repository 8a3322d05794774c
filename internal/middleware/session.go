package middleware

import (
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/gateadmin/internal/logger"
	"github.com/gateadmin/internal/storage"
)

// SessionCookie — параметры cookie браузерной сессии.
type SessionCookie struct {
	Name   string
	Secure bool
	TTL    time.Duration
}

// BrowserSession выдаёт браузеру cookie с uuid и кладёт в контекст хранилище,
// ограниченное этим uuid. Cookie только идентифицирует пространство ключей:
// токен Gate API в браузер не уходит.
func BrowserSession(base storage.SessionStore, c SessionCookie) func(http.Handler) http.Handler {
	if c.Name == "" {
		c.Name = "gate_sid"
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			sid := ""
			if ck, err := r.Cookie(c.Name); err == nil {
				if id, err := uuid.Parse(ck.Value); err == nil {
					sid = id.String()
				}
			}
			if sid == "" {
				sid = uuid.NewString()
				http.SetCookie(w, newCookie(c, sid))
				logger.Debugf("session: new browser session %s", MaskSessionID(sid))
			}
			ctx := WithSession(r.Context(), sid, storage.Scope(base, sid))
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func newCookie(c SessionCookie, sid string) *http.Cookie {
	ck := &http.Cookie{
		Name:     c.Name,
		Value:    sid,
		Path:     "/",
		HttpOnly: true,
		Secure:   c.Secure,
		SameSite: http.SameSiteLaxMode,
	}
	if c.TTL > 0 {
		ck.MaxAge = int(c.TTL / time.Second)
	}
	return ck
}
