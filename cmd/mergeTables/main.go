// mergeTables sums per-chromosome k-mer count tables into one table
package main

import (
	"flag"
	"log"
	"log/slog"
	"path/filepath"
	"strings"
	"time"

	"MiteKmer/pkg/miteKmer"

	"github.com/liserjrqlxue/goUtil/simpleUtil"
)

// flag
var (
	tablesDir = flag.String(
		"i",
		"",
		"directory of per-chromosome count tables",
	)
	prefixes = flag.String(
		"prefixes",
		"",
		"comma separated prefixes, the last '_' token of a table name",
	)
	output = flag.String(
		"o",
		"",
		"output table, default {i}/"+miteKmer.MergedTableName,
	)
	canonical = flag.Bool(
		"C",
		false,
		"fold reverse complement k-mers together",
	)
)

func main() {
	flag.Parse()
	if *tablesDir == "" || *prefixes == "" {
		flag.PrintDefaults()
		log.Fatal("-i/-prefixes required!")
	}
	if *output == "" {
		*output = filepath.Join(*tablesDir, miteKmer.MergedTableName)
	}
	now := time.Now()

	var files = simpleUtil.HandleError(miteKmer.MatchPrefixFiles(*tablesDir, strings.Split(*prefixes, ",")))
	var tables []string
	for _, file := range files {
		if file != *output {
			tables = append(tables, file)
		}
	}
	var n = simpleUtil.HandleError(miteKmer.MergeTables(tables, *output, *canonical))
	slog.Info("Done", "kmers", n, "output", *output, "time", time.Since(now))
}
