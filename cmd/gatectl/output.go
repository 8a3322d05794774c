package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/gateadmin/internal/listctl"
)

type sessionView struct {
	User       json.RawMessage `json:"user,omitempty"`
	RememberMe bool            `json:"remember_me"`
}

func printJSON(w io.Writer, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal JSON: %w", err)
	}
	_, err = fmt.Fprintln(w, string(data))
	return err
}

// printGateTable печатает страницу так же, как таблица на экране: номер строки,
// поля записи и строка диапазона с пагинатором.
func printGateTable(out io.Writer, s listctl.State) {
	if len(s.Rows) == 0 {
		fmt.Fprintln(out, "No data")
		return
	}
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "NO\tID\tID CABANG\tNAMA CABANG\tNAMA GERBANG")
	for i, g := range s.Rows {
		fmt.Fprintf(w, "%d\t%d\t%d\t%s\t%s\n", s.RowNumber(i), g.ID, g.BranchID, g.BranchName, g.GateName)
	}
	w.Flush()

	pages := make([]string, 0, len(s.Pages))
	for _, it := range s.Pages {
		label := it.String()
		if !it.Ellipsis && it.Page == s.Page {
			label = "[" + label + "]"
		}
		pages = append(pages, label)
	}
	fmt.Fprintf(out, "\nShowing %d - %d of %d  pages: %s\n", s.From, s.To, s.TotalItems, strings.Join(pages, " "))
}
