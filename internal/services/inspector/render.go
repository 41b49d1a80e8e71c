package inspector

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

var title = cases.Title(language.English)

func newTabWriter(w io.Writer) *tabwriter.Writer {
	return tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
}

func writeRow(tw *tabwriter.Writer, cells ...string) {
	fmt.Fprintln(tw, strings.Join(cells, "\t"))
}

func writeHeader(tw *tabwriter.Writer, names ...string) {
	headings := make([]string, len(names))
	for i, n := range names {
		headings[i] = title.String(n)
	}
	writeRow(tw, headings...)
}

func yesNo(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}

// WriteTables writes one table name per line
func WriteTables(w io.Writer, tables []string) error {
	for _, t := range tables {
		if _, err := fmt.Fprintln(w, t); err != nil {
			return err
		}
	}
	return nil
}

// WriteTable writes the columns of a table as an aligned grid
func WriteTable(w io.Writer, t *Table) error {
	tw := newTabWriter(w)
	writeHeader(tw, "column", "type", "nullable", "default", "primary key")
	for _, c := range t.Columns {
		def := "NULL"
		if c.Default.Valid {
			def = c.Default.String
		}
		writeRow(tw, c.Name, c.Type, yesNo(c.Nullable), def, yesNo(c.PrimaryKey))
	}
	return tw.Flush()
}

// WriteForeignKeys writes foreign keys as column -> table.column lines
func WriteForeignKeys(w io.Writer, fks []ForeignKey) error {
	tw := newTabWriter(w)
	writeHeader(tw, "constraint", "column", "references")
	for _, fk := range fks {
		writeRow(tw, fk.Name, fk.Column, fk.RefTable+"."+fk.RefColumn)
	}
	return tw.Flush()
}

// WriteSummary writes table names with row counts
func WriteSummary(w io.Writer, summary []TableSummary) error {
	tw := newTabWriter(w)
	writeHeader(tw, "table", "rows")
	var total int64
	for _, s := range summary {
		writeRow(tw, s.Name, fmt.Sprint(s.Rows))
		total += s.Rows
	}
	writeRow(tw, fmt.Sprintf("(%d tables)", len(summary)), fmt.Sprint(total))
	return tw.Flush()
}

// WriteQuery writes a query result as an aligned grid with a row count footer
func WriteQuery(w io.Writer, r *QueryResult) error {
	tw := newTabWriter(w)
	writeRow(tw, r.Columns...)
	for _, row := range r.Rows {
		writeRow(tw, row...)
	}
	if err := tw.Flush(); err != nil {
		return err
	}
	_, err := fmt.Fprintf(w, "(%d rows)\n", len(r.Rows))
	return err
}
