package shell

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/atinyakov/stockroom/internal/service"
)

func newTable(w io.Writer) *tabwriter.Writer {
	return tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
}

// RenderCatalog prints the item table with the actions the role may use.
func RenderCatalog(w io.Writer, v service.CatalogView) error {
	if v.Empty {
		_, err := fmt.Fprintln(w, v.Placeholder)
		return err
	}

	tw := newTable(w)
	fmt.Fprintln(tw, "ID\tNAME\tDESCRIPTION\tQTY\tCREATED\tUPDATED\tACTIONS")
	for _, row := range v.Rows {
		actions := make([]string, 0, len(row.Actions))
		for _, a := range row.Actions {
			actions = append(actions, string(a))
		}
		fmt.Fprintf(tw, "%d\t%s\t%s\t%d\t%s\t%s\t%s\n",
			row.ID, row.Name, row.Description, row.Quantity, row.Created, row.Updated,
			strings.Join(actions, ","))
	}
	return tw.Flush()
}

// RenderHistory prints the audit trail of one item.
func RenderHistory(w io.Writer, v service.HistoryView) error {
	fmt.Fprintf(w, "History of %s (#%d)\n", v.ItemName, v.ItemID)
	if v.Empty {
		_, err := fmt.Fprintln(w, v.Placeholder)
		return err
	}

	tw := newTable(w)
	fmt.Fprintln(tw, "OPERATION\tUSER\tOLD\tNEW\tWHEN")
	for _, row := range v.Rows {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n", row.Operation, row.User, row.OldValue, row.NewValue, row.ChangedAt)
	}
	return tw.Flush()
}
