package middleware

import (
	"strconv"
	"strings"
)

// MaskSessionID маскирует session_id в логах (в prod не светить полный id).
func MaskSessionID(s string) string {
	s = strings.TrimSpace(s)
	if len(s) <= 4 {
		return "****"
	}
	return s[:4] + "***"
}

// MaskToken скрывает bearer-токен целиком; в лог попадает только длина.
func MaskToken(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return ""
	}
	return "****(len=" + strconv.Itoa(len(s)) + ")"
}
