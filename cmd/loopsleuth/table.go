package main

import (
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
)

// column describes one table column.
type column struct {
	title string
	right bool
	// maxWidth soft-wraps long cells such as filenames; zero leaves the
	// column unbounded.
	maxWidth int
}

const fileColumnWidth = 48

var (
	clipColumns = []column{
		{title: "ID", right: true},
		{title: "File", maxWidth: fileColumnWidth},
		{title: "Duration", right: true},
		{title: "Resolution", right: true},
		{title: "Size", right: true},
		{title: "Hashed"},
		{title: "Review"},
	}
	duplicateColumns = []column{
		{title: "ID", right: true},
		{title: "Role"},
		{title: "File", maxWidth: fileColumnWidth},
		{title: "Distance", right: true},
		{title: "Duration", right: true},
		{title: "Size", right: true},
	}
)

// renderTable draws sections of rows under columns, with a rule between
// consecutive sections. Short rows are padded with empty cells.
func renderTable(columns []column, sections ...[][]string) string {
	if len(columns) == 0 {
		return ""
	}

	tw := table.NewWriter()
	tw.SetStyle(table.StyleRounded)

	header := make(table.Row, len(columns))
	configs := make([]table.ColumnConfig, len(columns))
	for i, col := range columns {
		header[i] = col.title
		configs[i] = table.ColumnConfig{Number: i + 1, Align: text.AlignLeft, AlignHeader: text.AlignLeft}
		if col.right {
			configs[i].Align = text.AlignRight
		}
		if col.maxWidth > 0 {
			configs[i].WidthMax = col.maxWidth
			configs[i].WidthMaxEnforcer = text.WrapSoft
		}
	}
	tw.AppendHeader(header)
	tw.SetColumnConfigs(configs)

	for i, rows := range sections {
		if i > 0 && len(rows) > 0 {
			tw.AppendSeparator()
		}
		for _, cells := range rows {
			row := make(table.Row, len(columns))
			for j := range row {
				row[j] = ""
				if j < len(cells) {
					row[j] = cells[j]
				}
			}
			tw.AppendRow(row)
		}
	}
	return tw.Render()
}
