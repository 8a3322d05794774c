package handler

import (
	"net/http"

	"github.com/gateadmin/internal/live"
)

type statsResponse struct {
	WSConnections int    `json:"ws_connections"`
	SessionStore  string `json:"session_store"`
}

// Stats — служебная сводка для мониторинга (маршрут закрыт InternalOnly).
func Stats(hub *live.Hub, storeKind string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, statsResponse{WSConnections: hub.Count(), SessionStore: storeKind})
	}
}
