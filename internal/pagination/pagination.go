// Package pagination — чистые функции для пагинатора: диапазон "Showing a - b of n",
// номера страниц с многоточиями и доступность кнопок prev/next.
package pagination

import "strconv"

// MaxVisiblePages — при totalPages <= MaxVisiblePages показываются все страницы.
const MaxVisiblePages = 7

// LimitOptions — варианты размера страницы для Gate Master.
var LimitOptions = []int{5, 10, 20}

// Item — элемент пагинатора: номер страницы или многоточие.
type Item struct {
	Page     int  `json:"page,omitempty"`
	Ellipsis bool `json:"ellipsis,omitempty"`
}

func (it Item) String() string {
	if it.Ellipsis {
		return "..."
	}
	return strconv.Itoa(it.Page)
}

// Range возвращает границы "Showing from - to" (с 1, включительно).
// При total == 0 обе границы 0; from никогда не превышает total.
func Range(current, perPage, total int) (from, to int) {
	if total <= 0 {
		return 0, 0
	}
	if perPage < 1 {
		perPage = 1
	}
	if current < 1 {
		current = 1
	}
	from = min((current-1)*perPage+1, total)
	to = min(current*perPage, total)
	return from, to
}

// Pages строит список для пагинатора: все страницы при totalPages <= 7, иначе
// первая, многоточие (если current > 3), окно [current-1, current+1], многоточие
// (если current < totalPages-2) и последняя.
func Pages(current, totalPages int) []Item {
	if totalPages <= 0 {
		return nil
	}
	items := make([]Item, 0, MaxVisiblePages)
	if totalPages <= MaxVisiblePages {
		for i := 1; i <= totalPages; i++ {
			items = append(items, Item{Page: i})
		}
		return items
	}

	items = append(items, Item{Page: 1})
	if current > 3 {
		items = append(items, Item{Ellipsis: true})
	}
	start := max(2, current-1)
	end := min(totalPages-1, current+1)
	for i := start; i <= end; i++ {
		items = append(items, Item{Page: i})
	}
	if current < totalPages-2 {
		items = append(items, Item{Ellipsis: true})
	}
	items = append(items, Item{Page: totalPages})
	return items
}

// HasPrev / HasNext — доступность кнопок prev/next.
func HasPrev(current int) bool { return current > 1 }

func HasNext(current, totalPages int) bool { return current < totalPages }

// RowNumber — порядковый номер строки в таблице с учётом страницы (колонка "No").
func RowNumber(current, perPage, index int) int {
	return (current-1)*perPage + index + 1
}

// ValidLimit — входит ли limit в options (пустой список означает LimitOptions).
func ValidLimit(limit int, options []int) bool {
	if len(options) == 0 {
		options = LimitOptions
	}
	for _, l := range options {
		if l == limit {
			return true
		}
	}
	return false
}
