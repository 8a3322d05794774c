package gatemaster

import "strconv"

// GateMaster — гербанг (шлагбаум/въезд), привязанный к филиалу IdCabang.
// Ключ отображения — пара (IdCabang, id); уникальность обеспечивает сервер.
type GateMaster struct {
	ID         int    `json:"id"`
	BranchID   int    `json:"IdCabang"`
	BranchName string `json:"NamaCabang"`
	GateName   string `json:"NamaGerbang"`
}

// Key — составной ключ строки "IdCabang-id".
func (g GateMaster) Key() string {
	return strconv.Itoa(g.BranchID) + "-" + strconv.Itoa(g.ID)
}

// PagedResult — страница списка; count и total_pages берутся у сервера как есть.
type PagedResult struct {
	Rows       []GateMaster `json:"rows"`
	Count      int          `json:"count"`
	TotalPages int          `json:"total_pages"`
}

// MaxID — наибольший id среди строк; 0 для пустой страницы.
func (p *PagedResult) MaxID() int {
	if p == nil {
		return 0
	}
	max := 0
	for _, g := range p.Rows {
		if g.ID > max {
			max = g.ID
		}
	}
	return max
}

// listEnvelope — формат ответа GET /gerbangs: {data: {rows: {rows: [...]}, count, total_pages}}.
type listEnvelope struct {
	Data struct {
		Rows struct {
			Rows []GateMaster `json:"rows"`
		} `json:"rows"`
		Count      int `json:"count"`
		TotalPages int `json:"total_pages"`
	} `json:"data"`
}

func (e *listEnvelope) result() *PagedResult {
	rows := e.Data.Rows.Rows
	if rows == nil {
		rows = []GateMaster{}
	}
	return &PagedResult{Rows: rows, Count: e.Data.Count, TotalPages: e.Data.TotalPages}
}

// deleteRequest — тело DELETE /gerbangs: id сам по себе не адресует запись.
type deleteRequest struct {
	ID       int `json:"id"`
	BranchID int `json:"IdCabang"`
}
