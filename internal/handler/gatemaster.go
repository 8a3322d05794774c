package handler

import (
	"net/http"

	"github.com/gateadmin/internal/apiclient"
	"github.com/gateadmin/internal/gatemaster"
	"github.com/gateadmin/internal/listctl"
	"github.com/gateadmin/internal/pagination"
)

type GateMasterHandler struct {
	api          *apiclient.Client
	pages        *Renderer
	defaultLimit int
	limitOptions []int
}

func NewGateMasterHandler(api *apiclient.Client, pages *Renderer, defaultLimit int, limitOptions []int) *GateMasterHandler {
	if defaultLimit <= 0 {
		defaultLimit = listctl.DefaultLimit
	}
	return &GateMasterHandler{api: api, pages: pages, defaultLimit: defaultLimit, limitOptions: limitOptions}
}

// service — ресурс /gerbangs с токеном текущего браузера.
func (h *GateMasterHandler) service(r *http.Request) *gatemaster.Service {
	return gatemaster.NewService(h.api.WithTokens(apiclient.StoreTokens(sessionStore(r))))
}

type gateMasterPage struct {
	page
	State listctl.State
}

// Page рендерит первую отрисовку таблицы по query string (?page=&limit=&search=);
// дальше страница работает через /ws. Без JS ссылки пагинатора и форма поиска
// ведут сюда же.
func (h *GateMasterHandler) Page(w http.ResponseWriter, r *http.Request) {
	limit := queryInt(r, "limit", h.defaultLimit)
	if !pagination.ValidLimit(limit, h.limitOptions) {
		limit = h.defaultLimit
	}
	ctl := listctl.New(r.Context(), h.service(r), listctl.Options{
		Page:         queryInt(r, "page", 1),
		Limit:        limit,
		Search:       r.URL.Query().Get("search"),
		LimitOptions: h.limitOptions,
	})
	defer ctl.Close()
	// ошибка сохраняется в State.Error и показывается на странице
	_ = ctl.Load()

	h.pages.Render(w, http.StatusOK, "gate_master", gateMasterPage{
		page:  page{Title: "Gate Master", Active: "gate-master", User: userName(r)},
		State: ctl.State(),
	})
}

type listResponse struct {
	Rows       []gatemaster.GateMaster `json:"rows"`
	Count      int                     `json:"count"`
	TotalPages int                     `json:"total_pages"`
	Page       int                     `json:"page"`
	Limit      int                     `json:"limit"`
	From       int                     `json:"from"`
	To         int                     `json:"to"`
	Pages      []pagination.Item       `json:"pages"`
}

// List — JSON-проксирование запроса списка: GET /api/gerbangs?page=&limit=&search=.
func (h *GateMasterHandler) List(w http.ResponseWriter, r *http.Request) {
	page := queryInt(r, "page", 1)
	limit := queryInt(r, "limit", h.defaultLimit)
	search := r.URL.Query().Get("search")
	if search == "" {
		search = r.URL.Query().Get("NamaGerbang")
	}

	res, err := h.service(r).List(r.Context(), page, limit, search)
	if err != nil {
		writeError(w, statusFor(err), apiclient.Message(err, apiclient.DefaultErrorMessage))
		return
	}
	from, to := pagination.Range(page, limit, res.Count)
	writeJSON(w, http.StatusOK, listResponse{
		Rows:       res.Rows,
		Count:      res.Count,
		TotalPages: res.TotalPages,
		Page:       page,
		Limit:      limit,
		From:       from,
		To:         to,
		Pages:      pagination.Pages(page, res.TotalPages),
	})
}
