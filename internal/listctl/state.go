package listctl

import (
	"github.com/gateadmin/internal/gatemaster"
	"github.com/gateadmin/internal/pagination"
)

// Status — состояние загрузки списка.
type Status string

const (
	StatusIdle    Status = "idle"
	StatusLoading Status = "loading"
	StatusSuccess Status = "success"
	StatusError   Status = "error"
)

// Modal — открытое модальное окно.
type Modal string

const (
	ModalNone   Modal = ""
	ModalCreate Modal = "create"
	ModalUpdate Modal = "update"
	ModalDelete Modal = "delete"
)

// State — снимок контроллера для отрисовки (HTML, WebSocket, CLI).
// Снимок не разделяет память с контроллером.
type State struct {
	Status     Status                  `json:"status"`
	Rows       []gatemaster.GateMaster `json:"rows"`
	Page       int                     `json:"page"`
	Limit      int                     `json:"limit"`
	Search     string                  `json:"search"`
	Committed  string                  `json:"committed_search"`
	TotalItems int                     `json:"total_items"`
	TotalPages int                     `json:"total_pages"`
	Error      string                  `json:"error,omitempty"`

	Modal      Modal                  `json:"modal"`
	Draft      Draft                  `json:"draft"`
	Selected   *gatemaster.GateMaster `json:"selected,omitempty"`
	Submitting bool                   `json:"submitting"`
	ModalError string                 `json:"modal_error,omitempty"`

	From         int               `json:"from"`
	To           int               `json:"to"`
	Pages        []pagination.Item `json:"pages"`
	HasPrev      bool              `json:"has_prev"`
	HasNext      bool              `json:"has_next"`
	LimitOptions []int             `json:"limit_options"`
}

// RowNumber — номер строки i текущей страницы в колонке "No".
func (s State) RowNumber(i int) int {
	return pagination.RowNumber(s.Page, s.Limit, i)
}
