package frame

import (
	"fmt"
	"io"
	"strings"
)

// WriteTSV writes t as tab-separated text: a header line starting with
// "key", then one line per row in key order. With no refs every column is
// written in canonical order.
func WriteTSV(w io.Writer, t *Table, refs ...ColumnRef) error {
	if len(refs) == 0 {
		refs = t.Columns()
	}
	header := make([]string, 0, len(refs)+1)
	header = append(header, "key")
	for _, r := range refs {
		if !t.Has(r) {
			return fmt.Errorf("write tsv: unknown column %s", r)
		}
		header = append(header, r.String())
	}
	if _, err := fmt.Fprintln(w, strings.Join(header, "\t")); err != nil {
		return err
	}

	cells := make([]string, len(refs)+1)
	for i := range t.Len() {
		cells[0] = t.Key(i).String()
		for j, r := range refs {
			cells[j+1] = FormatValue(t.Value(i, r))
		}
		if _, err := fmt.Fprintln(w, strings.Join(cells, "\t")); err != nil {
			return err
		}
	}
	return nil
}
