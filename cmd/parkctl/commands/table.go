package commands

import (
	"fmt"
	"io"
	"os"
	"strings"

	"park-ops/internal/reports"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
)

const (
	formatTable = "table"
	formatCSV   = "csv"
	formatXLSX  = "xlsx"
)

// renderTable draws t for the terminal.
func renderTable(w io.Writer, t reports.Table) {
	tbl := table.NewWriter()
	tbl.SetOutputMirror(w)
	tbl.SetStyle(table.StyleLight)
	tbl.SetTitle(t.Name)
	tbl.Style().Title.Align = text.AlignCenter

	header := make(table.Row, len(t.Header))
	for i, h := range t.Header {
		header[i] = h
	}
	tbl.AppendHeader(header)

	for _, r := range t.Rows {
		row := make(table.Row, len(r))
		for i, v := range r {
			row[i] = v
		}
		tbl.AppendRow(row)
	}
	tbl.AppendFooter(table.Row{fmt.Sprintf("%d rows", len(t.Rows))})
	tbl.Render()
}

// writeReport sends t to stdout as a table, or to out as CSV or XLSX.
func writeReport(stdout io.Writer, t reports.Table, format, out string) error {
	switch strings.ToLower(format) {
	case "", formatTable:
		renderTable(stdout, t)
		return nil
	case formatCSV:
		if out == "" {
			return t.WriteCSV(stdout)
		}
		return writeTo(out, t.WriteCSV)
	case formatXLSX:
		if out == "" {
			return fmt.Errorf("--out is required for xlsx")
		}
		return writeTo(out, t.WriteXLSX)
	}
	return fmt.Errorf("unknown format %q (table, csv or xlsx)", format)
}

func writeTo(path string, write func(io.Writer) error) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := write(f); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
