package miteKmer

import (
	"io"
	"log/slog"
	"math"
	"strconv"
	"strings"
	"time"
	"unicode"

	"MiteKmer/pkg/statTest"

	"github.com/cheggaaa/pb/v3"
	"github.com/dustin/go-humanize"
	math2 "github.com/liserjrqlxue/goUtil/math"
	"github.com/pkg/errors"
)

const (
	edgeSuffix = "_edge"
	// reservedColumns trailing header columns are not mite categories
	reservedColumns = 2
	logEvery        = 1000000
)

// KmerStat is the enrichment record of one k-mer
type KmerStat struct {
	Kmer          string
	MiteTotalLen  int     // summed length of every category the k-mer hits
	Mite          int     // occurrences inside mites
	Out           int     // occurrences outside mites
	Freq          float64 // Mite / (Mite + Out)
	P             float64 // two-sided Fisher exact p
	PCorrectedBon float64
}

// Analyzer computes per k-mer enrichment over a merged count table
type Analyzer struct {
	MiteLength   MiteLength
	GenomeLength int

	// ReservedColumns trailing header columns are skipped
	ReservedColumns int
	// Progress receives a progress bar when not nil
	Progress io.Writer

	index []int
	names map[int]string
	width int
}

func NewAnalyzer(miteLength MiteLength, genomeLength int) *Analyzer {
	return &Analyzer{
		MiteLength:      miteLength,
		GenomeLength:    genomeLength,
		ReservedColumns: reservedColumns,
	}
}

// parseHeader selects the category columns: from the third one up to the
// reserved tail, skipping *_edge labels
func (az *Analyzer) parseHeader(fields []string) {
	az.index = az.index[:0]
	az.names = make(map[int]string)
	az.width = len(fields)
	for i := 2; i < len(fields)-az.ReservedColumns; i++ {
		if strings.HasSuffix(fields[i], edgeSuffix) {
			continue
		}
		az.index = append(az.index, i)
		az.names[i] = fields[i]
	}
}

// ExpectedCounts splits total occurrences between mite and background in
// proportion to their lengths, rounding half to even
func ExpectedCounts(miteTotalLen, genomeLength, total int) (a, b int) {
	var (
		g = float64(genomeLength)
		t = float64(total)
	)
	a = int(math.RoundToEven(float64(miteTotalLen) / g * t))
	b = int(math.RoundToEven(float64(genomeLength-miteTotalLen) / g * t))
	return
}

// row builds the record of one data row; ok is false for untestable k-mers
func (az *Analyzer) row(path string, lineNo int, fields []string) (stat KmerStat, ok bool, err error) {
	if len(fields) != az.width {
		return stat, false, rowError(path, lineNo, "%d fields, header has %d", len(fields), az.width)
	}
	total, err := strconv.Atoi(fields[1])
	if err != nil {
		return stat, false, rowError(path, lineNo, "total %q is not an integer", fields[1])
	}

	var mite, miteTotalLen int
	for _, i := range az.index {
		count, err := strconv.Atoi(fields[i])
		if err != nil {
			return stat, false, rowError(path, lineNo, "column %s: %q is not an integer", az.names[i], fields[i])
		}
		if count > 0 {
			length, found := az.MiteLength[az.names[i]]
			if !found {
				return stat, false, rowError(path, lineNo, "category %s has no annotated length", az.names[i])
			}
			mite += count
			miteTotalLen += length
		}
	}
	if miteTotalLen == 0 {
		return stat, false, nil
	}

	var (
		kmer = fields[0]
		out  = total - mite
		a, b = ExpectedCounts(miteTotalLen, az.GenomeLength, total)
	)
	if mite+out == 0 {
		return stat, false, errors.Wrapf(ErrStatistic, "%s:%d: %s has no occurrences", path, lineNo, kmer)
	}
	if out < 0 {
		return stat, false, errors.Wrapf(ErrStatistic, "%s:%d: %s has %d mite occurrences out of %d", path, lineNo, kmer, mite, total)
	}
	p, err := statTest.FisherExact(mite, out, a, b)
	if err != nil {
		return stat, false, errors.Wrapf(ErrStatistic, "%s:%d: %s: %v", path, lineNo, kmer, err)
	}

	return KmerStat{
		Kmer:         kmer,
		MiteTotalLen: miteTotalLen,
		Mite:         mite,
		Out:          out,
		Freq:         math2.DivisionInt(mite, mite+out),
		P:            p,
	}, true, nil
}

func countLines(path string) (int, error) {
	var n = 0
	err := EachLine(path, func(string, int) error {
		n++
		return nil
	})
	return n, err
}

// Analyze tests every k-mer row of the merged table at path and applies the
// Bonferroni correction over all tested k-mers
func (az *Analyzer) Analyze(path string) ([]KmerStat, error) {
	if az.GenomeLength <= 0 {
		return nil, errors.Wrapf(ErrStatistic, "total genome length is %d", az.GenomeLength)
	}
	if !Exists(path) {
		return nil, errors.Wrapf(ErrMissingInput, "merged table %s", path)
	}

	var bar *pb.ProgressBar
	if az.Progress != nil {
		lines, err := countLines(path)
		if err != nil {
			return nil, err
		}
		bar = pb.Full.New(lines).SetWriter(az.Progress).Start()
		defer bar.Finish()
	}

	var stats []KmerStat
	var (
		rows   = 0
		header = false
		start  = time.Now()
	)
	err := EachLine(path, func(line string, lineNo int) error {
		if bar != nil {
			bar.Increment()
		}
		line = strings.TrimRightFunc(line, unicode.IsSpace)
		if line == "" {
			return nil
		}
		var fields = strings.Split(line, "\t")
		if fields[0] == HeaderToken {
			az.parseHeader(fields)
			header = true
			return nil
		}
		if !header {
			return rowError(path, lineNo, "data row before the %s header", HeaderToken)
		}

		rows++
		if rows%logEvery == 0 {
			slog.Info("analysing", "rows", humanize.Comma(int64(rows)), "tested", humanize.Comma(int64(len(stats))))
		}
		stat, ok, err := az.row(path, lineNo, fields)
		if err != nil || !ok {
			return err
		}
		stats = append(stats, stat)
		return nil
	})
	if err != nil {
		return nil, err
	}
	if !header {
		return nil, errors.Wrapf(ErrMalformedRow, "%s: no %s header", path, HeaderToken)
	}

	var pValues = make([]float64, len(stats))
	for i := range stats {
		pValues[i] = stats[i].P
	}
	for i, p := range statTest.Bonferroni(pValues) {
		stats[i].PCorrectedBon = p
	}

	slog.Info(
		"analysed",
		"rows", humanize.Comma(int64(rows)),
		"tested", humanize.Comma(int64(len(stats))),
		"time", time.Since(start),
	)
	return stats, nil
}
