package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/gateadmin/internal/apiclient"
	"github.com/gateadmin/internal/gatemaster"
	"github.com/gateadmin/internal/logger"
	"github.com/gateadmin/internal/middleware"
	"github.com/gateadmin/internal/storage"
)

type errorResponse struct {
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		logger.Errorf("writeJSON encode: %v", err)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorResponse{Error: msg})
}

func queryInt(r *http.Request, key string, defaultVal int) int {
	v := r.URL.Query().Get(key)
	if v == "" {
		return defaultVal
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return defaultVal
	}
	return n
}

// sessionStore — хранилище текущего браузера; BrowserSession гарантирует его наличие.
func sessionStore(r *http.Request) storage.SessionStore {
	return middleware.GetStore(r.Context())
}

// statusFor переводит ошибку Gate API в статус ответа дашборда:
// 4xx сервера отдаются как есть, сеть — 502, ошибки ввода — 400.
func statusFor(err error) int {
	switch {
	case errors.Is(err, gatemaster.ErrInvalidQuery), errors.Is(err, gatemaster.ErrMissingKey):
		return http.StatusBadRequest
	case apiclient.IsTransport(err), errors.Is(err, context.DeadlineExceeded):
		return http.StatusBadGateway
	}
	if code := apiclient.StatusCode(err); code >= 400 && code < 500 {
		return code
	}
	return http.StatusBadGateway
}
