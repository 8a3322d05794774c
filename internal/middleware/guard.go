package middleware

import (
	"net/http"
	"strings"

	"github.com/gateadmin/internal/guard"
	"github.com/gateadmin/internal/logger"
)

// RequireSession пропускает запрос, только если в хранилище браузера есть токен.
// Навигация без токена получает 303 на /signin (защищённый URL не остаётся в истории),
// JSON и WebSocket получают 401.
func RequireSession(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		store := GetStore(r.Context())
		if store == nil {
			logger.Errorf("guard: no session store in context for %s", r.URL.Path)
			http.Error(w, "internal server error", http.StatusInternalServerError)
			return
		}
		state, err := guard.Check(r.Context(), store)
		if err != nil {
			logger.Errorf("guard: session_id=%s: %v", MaskSessionID(GetSessionID(r.Context())), err)
		}
		if state == guard.Authenticated {
			next.ServeHTTP(w, r)
			return
		}
		if WantsJSON(r) {
			w.Header().Set("Content-Type", "application/json; charset=utf-8")
			w.WriteHeader(http.StatusUnauthorized)
			_, _ = w.Write([]byte(`{"error":"unauthorized"}`))
			return
		}
		http.Redirect(w, r, guard.SignInPath, http.StatusSeeOther)
	})
}

// WantsJSON — запрос от скрипта (API, WebSocket), а не навигация браузера.
func WantsJSON(r *http.Request) bool {
	if strings.HasPrefix(r.URL.Path, "/api/") || r.URL.Path == "/ws" {
		return true
	}
	if strings.EqualFold(r.Header.Get("Upgrade"), "websocket") {
		return true
	}
	return strings.Contains(r.Header.Get("Accept"), "application/json")
}
