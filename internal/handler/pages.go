package handler

import (
	"net/http"

	"github.com/gateadmin/internal/auth"
	"github.com/gateadmin/internal/logger"
	"github.com/gateadmin/internal/middleware"
)

// PageHandler — статические защищённые страницы и 404.
type PageHandler struct {
	pages *Renderer
}

func NewPageHandler(pages *Renderer) *PageHandler {
	return &PageHandler{pages: pages}
}

// userName — имя из сохранённого профиля; пустое, если профиля нет.
func userName(r *http.Request) string {
	sess, err := auth.NewService(nil, sessionStore(r)).Current(r.Context())
	if err != nil {
		logger.Errorf("read session sid=%s: %v", middleware.MaskSessionID(middleware.GetSessionID(r.Context())), err)
		return ""
	}
	return sess.DisplayName()
}

func (h *PageHandler) Dashboard(w http.ResponseWriter, r *http.Request) {
	h.pages.Render(w, http.StatusOK, "dashboard", page{Title: "Dashboard", Active: "dashboard", User: userName(r)})
}

func (h *PageHandler) BasicTables(w http.ResponseWriter, r *http.Request) {
	h.pages.Render(w, http.StatusOK, "basic_tables", page{Title: "Basic Tables", Active: "basic-tables", User: userName(r)})
}

func (h *PageHandler) NotFound(w http.ResponseWriter, r *http.Request) {
	if middleware.WantsJSON(r) {
		writeError(w, http.StatusNotFound, "not found")
		return
	}
	h.pages.Render(w, http.StatusNotFound, "not_found", page{Title: "Page Not Found"})
}

func Health(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}
