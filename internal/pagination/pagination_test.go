package pagination

import (
	"strings"
	"testing"
)

func render(items []Item) string {
	parts := make([]string, len(items))
	for i, it := range items {
		parts[i] = it.String()
	}
	return strings.Join(parts, ",")
}

func TestPages(t *testing.T) {
	tests := []struct {
		current, total int
		want           string
	}{
		{1, 0, ""},
		{1, 1, "1"},
		{3, 5, "1,2,3,4,5"},
		{1, 7, "1,2,3,4,5,6,7"},
		{10, 20, "1,...,9,10,11,...,20"},
		{1, 20, "1,2,...,20"},
		{2, 20, "1,2,3,...,20"},
		{3, 20, "1,2,3,4,...,20"},
		{4, 20, "1,...,3,4,5,...,20"},
		{18, 20, "1,...,17,18,19,20"},
		{19, 20, "1,...,18,19,20"},
		{20, 20, "1,...,19,20"},
		{5, 8, "1,...,4,5,6,...,8"},
	}
	for _, tt := range tests {
		if got := render(Pages(tt.current, tt.total)); got != tt.want {
			t.Errorf("Pages(%d, %d) = %s, want %s", tt.current, tt.total, got, tt.want)
		}
	}
}

func TestPages_AlwaysBoundedAndOrdered(t *testing.T) {
	for total := 1; total <= 40; total++ {
		for current := 1; current <= total; current++ {
			items := Pages(current, total)
			if items[0].Page != 1 || items[len(items)-1].Page != total {
				t.Fatalf("Pages(%d, %d) = %s: must start at 1 and end at %d", current, total, render(items), total)
			}
			prev := 0
			seenCurrent := false
			for _, it := range items {
				if it.Ellipsis {
					continue
				}
				if it.Page <= prev || it.Page > total {
					t.Fatalf("Pages(%d, %d) = %s: not strictly increasing within bounds", current, total, render(items))
				}
				if it.Page == current {
					seenCurrent = true
				}
				prev = it.Page
			}
			if !seenCurrent {
				t.Fatalf("Pages(%d, %d) = %s: current page missing", current, total, render(items))
			}
		}
	}
}

func TestRange(t *testing.T) {
	tests := []struct {
		current, perPage, total int
		from, to                int
	}{
		{1, 10, 0, 0, 0},
		{3, 10, 0, 0, 0},
		{1, 10, 5, 1, 5},
		{1, 10, 25, 1, 10},
		{3, 10, 25, 21, 25},
		{2, 5, 10, 6, 10},
		{5, 10, 25, 25, 25},
	}
	for _, tt := range tests {
		from, to := Range(tt.current, tt.perPage, tt.total)
		if from != tt.from || to != tt.to {
			t.Errorf("Range(%d, %d, %d) = (%d, %d), want (%d, %d)",
				tt.current, tt.perPage, tt.total, from, to, tt.from, tt.to)
		}
	}
}

func TestRange_Bounds(t *testing.T) {
	for total := 0; total <= 60; total++ {
		for perPage := 1; perPage <= 12; perPage++ {
			for current := 1; current <= 10; current++ {
				from, to := Range(current, perPage, total)
				if total == 0 {
					if from != 0 || to != 0 {
						t.Fatalf("Range(%d, %d, 0) = (%d, %d), want (0, 0)", current, perPage, from, to)
					}
					continue
				}
				if from > to || to > total || from < 1 {
					t.Fatalf("Range(%d, %d, %d) = (%d, %d) violates 1 <= from <= to <= total",
						current, perPage, total, from, to)
				}
			}
		}
	}
}

func TestPrevNextAndRowNumber(t *testing.T) {
	if HasPrev(1) || !HasPrev(2) {
		t.Error("HasPrev wrong")
	}
	if HasNext(3, 3) || !HasNext(2, 3) {
		t.Error("HasNext wrong")
	}
	if got := RowNumber(3, 10, 0); got != 21 {
		t.Errorf("RowNumber(3, 10, 0) = %d, want 21", got)
	}
	if !ValidLimit(20, nil) || ValidLimit(50, nil) || !ValidLimit(50, []int{25, 50}) {
		t.Error("ValidLimit wrong")
	}
}
