package miteKmer

import (
	"github.com/liserjrqlxue/goUtil/simpleUtil"
	"github.com/xuri/excelize/v2"
)

func cellName(col, row int) string {
	return simpleUtil.HandleError(excelize.CoordinatesToCellName(col, row))
}

// SetRow writes value into sheet starting at (col, row), both 1-based
func SetRow(xlsx *excelize.File, sheet string, col, row int, value []interface{}) {
	simpleUtil.CheckErr(xlsx.SetSheetRow(sheet, cellName(col, row), &value))
}

func SetCellValue(xlsx *excelize.File, sheet string, col, row int, value interface{}) {
	simpleUtil.CheckErr(xlsx.SetCellValue(sheet, cellName(col, row), value))
}

// streamStats writes a header and at most limit rows of stats into a new
// sheet; limit <= 0 writes every row
func streamStats(xlsx *excelize.File, sheet string, stats []KmerStat, limit int) {
	simpleUtil.HandleError(xlsx.NewSheet(sheet))
	var sw = simpleUtil.HandleError(xlsx.NewStreamWriter(sheet))

	var header = make([]interface{}, len(StatsHeader))
	for i, title := range StatsHeader {
		header[i] = title
	}
	simpleUtil.CheckErr(sw.SetRow(cellName(1, 1), header))

	for i, stat := range stats {
		if limit > 0 && i >= limit {
			break
		}
		simpleUtil.CheckErr(
			sw.SetRow(
				cellName(1, i+2),
				[]interface{}{stat.Kmer, stat.MiteTotalLen, stat.Mite, stat.Out, stat.Freq, stat.P, stat.PCorrectedBon},
			),
		)
	}
	simpleUtil.CheckErr(sw.Flush())
}
