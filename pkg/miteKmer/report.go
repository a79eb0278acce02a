package miteKmer

import (
	"log/slog"

	"github.com/liserjrqlxue/goUtil/simpleUtil"
	"github.com/xuri/excelize/v2"
)

const summarySheet = "Summary"

// SummaryRow is the row count of one persisted stats table
type SummaryRow struct {
	Stage string
	Path  string
	Rows  int
}

// NamedStats is a stats table rendered as its own sheet
type NamedStats struct {
	Sheet string
	Stats []KmerStat
}

// Setting is a name/value pair listed on the summary sheet
type Setting struct {
	Name  string
	Value interface{}
}

// WriteWorkbook saves the summary sheet and one sheet per table to path.
// Each table sheet holds at most rowLimit rows.
func WriteWorkbook(path string, summary []SummaryRow, settings []Setting, tables []NamedStats, rowLimit int) {
	var xlsx = excelize.NewFile()
	defer xlsx.Close()
	simpleUtil.CheckErr(xlsx.SetSheetName("Sheet1", summarySheet))

	var row = 1
	SetRow(xlsx, summarySheet, 1, row, []interface{}{"stage", "rows", "path"})
	for _, s := range summary {
		row++
		SetRow(xlsx, summarySheet, 1, row, []interface{}{s.Stage, s.Rows, s.Path})
	}
	row += 2
	SetCellValue(xlsx, summarySheet, 1, row, "setting")
	SetCellValue(xlsx, summarySheet, 2, row, "value")
	for _, setting := range settings {
		row++
		SetRow(xlsx, summarySheet, 1, row, []interface{}{setting.Name, setting.Value})
	}

	for _, table := range tables {
		if rowLimit > 0 && len(table.Stats) > rowLimit {
			slog.Warn("sheet truncated", "sheet", table.Sheet, "rows", len(table.Stats), "limit", rowLimit)
		}
		streamStats(xlsx, table.Sheet, table.Stats, rowLimit)
	}

	slog.Info("save xlsx", "path", path)
	simpleUtil.CheckErr(xlsx.SaveAs(path))
}
