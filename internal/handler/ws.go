package handler

import (
	"context"
	"net/http"
	"strings"

	"github.com/gorilla/websocket"

	"github.com/gateadmin/internal/apiclient"
	"github.com/gateadmin/internal/gatemaster"
	"github.com/gateadmin/internal/live"
	"github.com/gateadmin/internal/logger"
	"github.com/gateadmin/internal/middleware"
)

type WSHandler struct {
	hub            *live.Hub
	api            *apiclient.Client
	allowedOrigins string
}

// NewWSHandler создаёт обработчик живого канала Gate Master. allowedOrigins задаётся как в CORS (через запятую или "*").
func NewWSHandler(hub *live.Hub, api *apiclient.Client, allowedOrigins string) *WSHandler {
	return &WSHandler{hub: hub, api: api, allowedOrigins: strings.TrimSpace(allowedOrigins)}
}

func (h *WSHandler) checkOrigin(r *http.Request) bool {
	origin := strings.TrimSpace(r.Header.Get("Origin"))
	if origin == "" {
		return true
	}
	if h.allowedOrigins == "*" {
		return true
	}
	// без явного списка разрешён только тот же хост, что и у страницы
	if h.allowedOrigins == "" {
		return strings.TrimPrefix(strings.TrimPrefix(origin, "https://"), "http://") == r.Host
	}
	for _, o := range strings.Split(h.allowedOrigins, ",") {
		if strings.TrimSpace(o) == origin {
			return true
		}
	}
	return false
}

// ServeWS открывает соединение; контроллер списка работает с токеном этого браузера.
// Маршрут закрыт RequireSession.
func (h *WSHandler) ServeWS(w http.ResponseWriter, r *http.Request) {
	sid := middleware.GetSessionID(r.Context())
	store := sessionStore(r)
	if sid == "" || store == nil {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}
	if !h.checkOrigin(r) {
		http.Error(w, "forbidden", http.StatusForbidden)
		return
	}

	upgrader := websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin:     h.checkOrigin,
	}
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		logger.Errorf("ws upgrade: %v", err)
		return
	}

	svc := gatemaster.NewService(h.api.WithTokens(apiclient.StoreTokens(store)))
	ctx, cancel := context.WithCancel(context.Background())
	client := live.NewClient(h.hub, conn, sid, svc)
	// Start до Register: хаб может закрыть клиента сразу (лимит соединений),
	// а Close читает поля, которые заполняет Start. Клиента, отключившегося
	// раньше регистрации, хаб отбрасывает сам.
	client.Start(ctx, cancel)
	h.hub.Register(client)
}
