// fisherExact runs the two-sided Fisher exact test over 2x2 tables.
// Input rows are name\ta\tb\tc\td, output rows add p and the Bonferroni
// corrected p.
package main

import (
	"flag"
	"log"
	"os"
	"strconv"
	"strings"

	"MiteKmer/pkg/miteKmer"
	"MiteKmer/pkg/statTest"

	"github.com/liserjrqlxue/goUtil/fmtUtil"
	"github.com/liserjrqlxue/goUtil/osUtil"
	"github.com/liserjrqlxue/goUtil/simpleUtil"
)

// flag
var (
	input = flag.String(
		"i",
		"",
		"input tsv: name a b c d",
	)
	output = flag.String(
		"o",
		"",
		"output tsv, default stdout",
	)
	header = flag.Bool(
		"header",
		false,
		"input has a header row",
	)
)

type contingency struct {
	name   string
	counts [4]int
}

func main() {
	flag.Parse()
	if *input == "" {
		flag.PrintDefaults()
		log.Fatal("-i required!")
	}

	var tables []contingency
	simpleUtil.CheckErr(miteKmer.EachLine(*input, func(line string, lineNo int) error {
		if line == "" || (*header && lineNo == 1) {
			return nil
		}
		var fields = strings.Split(line, "\t")
		if len(fields) != 5 {
			log.Fatalf("%s:%d: want 5 columns, got %d", *input, lineNo, len(fields))
		}
		var table = contingency{name: fields[0]}
		for i := range table.counts {
			table.counts[i] = simpleUtil.HandleError(strconv.Atoi(fields[i+1]))
		}
		tables = append(tables, table)
		return nil
	}))

	var pValues = make([]float64, len(tables))
	for i, table := range tables {
		var c = table.counts
		pValues[i] = simpleUtil.HandleError(statTest.FisherExact(c[0], c[1], c[2], c[3]))
	}
	var corrected = statTest.Bonferroni(pValues)

	var out = os.Stdout
	if *output != "" {
		out = osUtil.Create(*output)
		defer simpleUtil.DeferClose(out)
	}
	fmtUtil.FprintStringArray(out, []string{"name", "a", "b", "c", "d", "p", "p_corrected_bon"}, "\t")
	for i, table := range tables {
		fmtUtil.Fprintf(
			out,
			"%s\t%d\t%d\t%d\t%d\t%s\t%s\n",
			table.name,
			table.counts[0], table.counts[1], table.counts[2], table.counts[3],
			strconv.FormatFloat(pValues[i], 'g', -1, 64),
			strconv.FormatFloat(corrected[i], 'g', -1, 64),
		)
	}
}
