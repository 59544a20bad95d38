package executor

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"
)

// Result is the generic query result returned to the caller.
type Result struct {
	Columns []string
	Rows    [][]string

	// For DML:
	AffectedRows int64
}

// NullText is how Print shows an empty value.
const NullText = "NULL"

// Print writes the result as an aligned table, or "N row(s) affected" when
// there are no columns. Empty values print as NullText.
func (r *Result) Print(w io.Writer) error {
	if len(r.Columns) == 0 {
		_, err := fmt.Fprintf(w, "%d row(s) affected\n", r.AffectedRows)
		return err
	}
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, strings.Join(r.Columns, "\t"))
	cells := make([]string, len(r.Columns))
	for _, row := range r.Rows {
		cells = cells[:0]
		for _, v := range row {
			if v == "" {
				v = NullText
			}
			cells = append(cells, v)
		}
		fmt.Fprintln(tw, strings.Join(cells, "\t"))
	}
	if err := tw.Flush(); err != nil {
		return err
	}
	_, err := fmt.Fprintf(w, "(%d rows)\n", len(r.Rows))
	return err
}
