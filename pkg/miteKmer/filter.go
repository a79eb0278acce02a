package miteKmer

import (
	"strconv"
	"strings"

	"github.com/go-gota/gota/dataframe"
	"github.com/go-gota/gota/series"
	"github.com/pkg/errors"
)

// parseThresh parses an optional numeric threshold, "" disables the filter
func parseThresh(s string) (value float64, enabled bool, err error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, false, nil
	}
	value, err = strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, false, errors.Errorf("threshold %q is not a number", s)
	}
	return value, true, nil
}

// FilterByPCorrectedBon keeps rows with p_corrected_bon <= thresh
func FilterByPCorrectedBon(df dataframe.DataFrame, thresh float64) dataframe.DataFrame {
	if df.Err != nil || df.Nrow() == 0 {
		return df
	}
	return df.Filter(dataframe.F{
		Colname:    ColPCorrectedBon,
		Comparator: series.LessEq,
		Comparando: thresh,
	})
}

// filterByFreq keeps rows where keep(freq, mite_total_len/genomeLength*factor)
func filterByFreq(df dataframe.DataFrame, genomeLength int, factor float64, keep func(freq, bound float64) bool) (dataframe.DataFrame, error) {
	if df.Err != nil {
		return df, df.Err
	}
	if df.Nrow() == 0 {
		return df, nil
	}
	if genomeLength <= 0 {
		return df, errors.Wrapf(ErrStatistic, "total genome length is %d", genomeLength)
	}
	lens, err := df.Col(ColMiteTotalLen).Int()
	if err != nil {
		return df, errors.Wrap(err, ColMiteTotalLen)
	}
	var (
		freq = df.Col(ColFreq).Float()
		mask = make([]bool, df.Nrow())
	)
	for i := range mask {
		mask[i] = keep(freq[i], float64(lens[i])/float64(genomeLength)*factor)
	}
	return df.Subset(mask), nil
}

// FilterByFreqHigher keeps rows with freq > mite_total_len/genomeLength*thresh.
// An empty thresh keeps every row.
func FilterByFreqHigher(df dataframe.DataFrame, genomeLength int, thresh string) (dataframe.DataFrame, error) {
	factor, enabled, err := parseThresh(thresh)
	if err != nil || !enabled {
		return df, err
	}
	return filterByFreq(df, genomeLength, factor, func(freq, bound float64) bool { return freq > bound })
}

// FilterByFreqLesser keeps rows with freq < mite_total_len/genomeLength*thresh.
// An empty thresh keeps every row.
func FilterByFreqLesser(df dataframe.DataFrame, genomeLength int, thresh string) (dataframe.DataFrame, error) {
	factor, enabled, err := parseThresh(thresh)
	if err != nil || !enabled {
		return df, err
	}
	return filterByFreq(df, genomeLength, factor, func(freq, bound float64) bool { return freq < bound })
}

// FilterStep is one transition of the filter cascade
type FilterStep struct {
	Name    string
	Output  string
	Setting string
	Apply   func(df dataframe.DataFrame) (dataframe.DataFrame, error)
}

// Cascade filters the stats table by corrected p-value, then by minimum
// and maximum frequency
type Cascade struct {
	GenomeLength int
	PThresh      float64
	MinThresh    string
	MaxThresh    string
}

func NewCascade(p *Parameters, genomeLength int) *Cascade {
	return &Cascade{
		GenomeLength: genomeLength,
		PThresh:      p.PCorrectedBonThresh,
		MinThresh:    p.KmerThreshMin,
		MaxThresh:    p.KmerThreshMax,
	}
}

// Steps lists the transitions in order with their snapshot file names
func (c *Cascade) Steps() []FilterStep {
	return []FilterStep{
		{
			Name:    "bonferroni",
			Output:  "stats.bonferroni.txt",
			Setting: strconv.FormatFloat(c.PThresh, 'g', -1, 64),
			Apply: func(df dataframe.DataFrame) (dataframe.DataFrame, error) {
				df = FilterByPCorrectedBon(df, c.PThresh)
				return df, df.Err
			},
		},
		{
			Name:    "freqHigher",
			Output:  "stats.freqHigher.txt",
			Setting: c.MinThresh,
			Apply: func(df dataframe.DataFrame) (dataframe.DataFrame, error) {
				return FilterByFreqHigher(df, c.GenomeLength, c.MinThresh)
			},
		},
		{
			Name:    "freqLesser",
			Output:  "stats.freqLesser.txt",
			Setting: c.MaxThresh,
			Apply: func(df dataframe.DataFrame) (dataframe.DataFrame, error) {
				return FilterByFreqLesser(df, c.GenomeLength, c.MaxThresh)
			},
		},
	}
}
