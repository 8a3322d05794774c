package middleware

import (
	"crypto/subtle"
	"net"
	"net/http"
)

// InternalOnly пропускает служебные маршруты (/internal/*) только из приватной сети
// или с заголовком X-Internal-Secret, совпадающим с secret. Пустой secret — только сеть.
// Адрес берётся после chimw.RealIP.
func InternalOnly(secret string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if secret != "" && subtle.ConstantTimeCompare([]byte(r.Header.Get("X-Internal-Secret")), []byte(secret)) == 1 {
				next.ServeHTTP(w, r)
				return
			}
			if isPrivateIP(clientIP(r)) {
				next.ServeHTTP(w, r)
				return
			}
			http.Error(w, "forbidden", http.StatusForbidden)
		})
	}
}

func isPrivateIP(s string) bool {
	ip := net.ParseIP(s)
	if ip == nil {
		return false
	}
	return ip.IsLoopback() || ip.IsPrivate()
}
