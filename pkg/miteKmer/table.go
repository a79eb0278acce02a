package miteKmer

import (
	"bufio"
	"os"
	"strconv"
	"strings"

	"github.com/go-gota/gota/dataframe"
	"github.com/go-gota/gota/series"
	"github.com/pkg/errors"
)

// stats table columns
const (
	ColKmer          = "k-mer"
	ColMiteTotalLen  = "mite_total_len"
	ColMite          = "mite"
	ColOut           = "out"
	ColFreq          = "freq"
	ColP             = "fisher_exac_p"
	ColPCorrectedBon = "p_corrected_bon"
)

var StatsHeader = []string{ColKmer, ColMiteTotalLen, ColMite, ColOut, ColFreq, ColP, ColPCorrectedBon}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}

// Record returns the table row of stat
func (stat KmerStat) Record() []string {
	return []string{
		stat.Kmer,
		strconv.Itoa(stat.MiteTotalLen),
		strconv.Itoa(stat.Mite),
		strconv.Itoa(stat.Out),
		formatFloat(stat.Freq),
		formatFloat(stat.P),
		formatFloat(stat.PCorrectedBon),
	}
}

// WriteStats saves stats as a tab-separated table with StatsHeader
func WriteStats(path string, stats []KmerStat) error {
	file, err := os.Create(path)
	if err != nil {
		return errors.Wrap(err, path)
	}
	var out = bufio.NewWriter(file)
	out.WriteString(strings.Join(StatsHeader, "\t") + "\n")
	for _, stat := range stats {
		out.WriteString(strings.Join(stat.Record(), "\t") + "\n")
	}
	if err := out.Flush(); err != nil {
		file.Close()
		return errors.Wrap(err, path)
	}
	return errors.Wrap(file.Close(), path)
}

func parseStat(path string, lineNo int, fields []string) (stat KmerStat, err error) {
	if len(fields) != len(StatsHeader) {
		return stat, rowError(path, lineNo, "%d columns, want %d", len(fields), len(StatsHeader))
	}
	stat.Kmer = fields[0]
	var ints = []*int{&stat.MiteTotalLen, &stat.Mite, &stat.Out}
	for i, v := range ints {
		if *v, err = strconv.Atoi(fields[i+1]); err != nil {
			return stat, rowError(path, lineNo, "%s %q is not an integer", StatsHeader[i+1], fields[i+1])
		}
	}
	var floats = []*float64{&stat.Freq, &stat.P, &stat.PCorrectedBon}
	for i, v := range floats {
		if *v, err = strconv.ParseFloat(fields[i+4], 64); err != nil {
			return stat, rowError(path, lineNo, "%s %q is not a number", StatsHeader[i+4], fields[i+4])
		}
	}
	return stat, nil
}

// LoadStats reads a table written by WriteStats
func LoadStats(path string) ([]KmerStat, error) {
	var stats []KmerStat
	err := EachLine(path, func(line string, lineNo int) error {
		if line == "" {
			return nil
		}
		var fields = strings.Split(line, "\t")
		if lineNo == 1 {
			if strings.Join(fields, "\t") != strings.Join(StatsHeader, "\t") {
				return rowError(path, lineNo, "header %v, want %v", fields, StatsHeader)
			}
			return nil
		}
		stat, err := parseStat(path, lineNo, fields)
		if err != nil {
			return err
		}
		stats = append(stats, stat)
		return nil
	})
	return stats, err
}

// NewStatsFrame builds the in-memory stats table
func NewStatsFrame(stats []KmerStat) dataframe.DataFrame {
	var (
		kmers = make([]string, len(stats))
		lens  = make([]int, len(stats))
		mite  = make([]int, len(stats))
		out   = make([]int, len(stats))
		freq  = make([]float64, len(stats))
		p     = make([]float64, len(stats))
		pBon  = make([]float64, len(stats))
	)
	for i, stat := range stats {
		kmers[i] = stat.Kmer
		lens[i] = stat.MiteTotalLen
		mite[i] = stat.Mite
		out[i] = stat.Out
		freq[i] = stat.Freq
		p[i] = stat.P
		pBon[i] = stat.PCorrectedBon
	}
	return dataframe.New(
		series.New(kmers, series.String, ColKmer),
		series.New(lens, series.Int, ColMiteTotalLen),
		series.New(mite, series.Int, ColMite),
		series.New(out, series.Int, ColOut),
		series.New(freq, series.Float, ColFreq),
		series.New(p, series.Float, ColP),
		series.New(pBon, series.Float, ColPCorrectedBon),
	)
}

// FrameStats converts a stats frame back to records
func FrameStats(df dataframe.DataFrame) ([]KmerStat, error) {
	if df.Err != nil {
		return nil, errors.Wrap(df.Err, "stats frame")
	}
	var n = df.Nrow()
	if n == 0 {
		return nil, nil
	}
	var (
		kmers = df.Col(ColKmer).Records()
		freq  = df.Col(ColFreq).Float()
		p     = df.Col(ColP).Float()
		pBon  = df.Col(ColPCorrectedBon).Float()
	)
	lens, err := df.Col(ColMiteTotalLen).Int()
	if err != nil {
		return nil, errors.Wrap(err, ColMiteTotalLen)
	}
	mite, err := df.Col(ColMite).Int()
	if err != nil {
		return nil, errors.Wrap(err, ColMite)
	}
	out, err := df.Col(ColOut).Int()
	if err != nil {
		return nil, errors.Wrap(err, ColOut)
	}

	var stats = make([]KmerStat, n)
	for i := range stats {
		stats[i] = KmerStat{
			Kmer:          kmers[i],
			MiteTotalLen:  lens[i],
			Mite:          mite[i],
			Out:           out[i],
			Freq:          freq[i],
			P:             p[i],
			PCorrectedBon: pBon[i],
		}
	}
	return stats, nil
}
