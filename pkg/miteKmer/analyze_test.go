package miteKmer

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExpectedCounts(t *testing.T) {
	a, b := ExpectedCounts(100, 1000, 10)
	assert.Equal(t, 1, a)
	assert.Equal(t, 9, b)

	// half rounds to even
	a, b = ExpectedCounts(250, 1000, 10)
	assert.Equal(t, 2, a)
	assert.Equal(t, 8, b)
	a, b = ExpectedCounts(350, 1000, 10)
	assert.Equal(t, 4, a)
	assert.Equal(t, 6, b)
}

func TestAnalyzeWorkedExample(t *testing.T) {
	var table = writeFile(t, t.TempDir(), MergedTableName,
		"k-mer\ttotal\tcat1\tcat2",
		"AAAA\t10\t5\t0",
		"CCCC\t7\t0\t0",
	)
	var az = NewAnalyzer(MiteLength{"cat1": 100}, 1000)
	az.ReservedColumns = 0

	stats, err := az.Analyze(table)
	require.NoError(t, err)
	require.Len(t, stats, 1)

	var stat = stats[0]
	assert.Equal(t, "AAAA", stat.Kmer)
	assert.Equal(t, 100, stat.MiteTotalLen)
	assert.Equal(t, 5, stat.Mite)
	assert.Equal(t, 5, stat.Out)
	assert.Equal(t, 0.5, stat.Freq)
	assert.InDelta(t, 5460.0/38760.0, stat.P, 1e-12)
	assert.InDelta(t, stat.P, stat.PCorrectedBon, 1e-12)
}

func TestAnalyzeReservedAndEdgeColumns(t *testing.T) {
	var table = writeFile(t, t.TempDir(), MergedTableName,
		"k-mer\ttotal\tcat1\tcat1_edge\tcat2\tr1\tr2",
		"AAAA\t4\t3\t9\t0\t9\t9",
		"CCCC\t2\t0\t2\t0\t2\t0",
		"GGGG\t10\t0\t0\t2\t0\t0",
		"TTTT\t8\t1\t0\t1\t0\t0",
	)
	// r1, r2 and cat1_edge are never looked up
	var az = NewAnalyzer(MiteLength{"cat1": 100, "cat2": 300}, 1000)
	stats, err := az.Analyze(table)
	require.NoError(t, err)
	require.Len(t, stats, 3)

	assert.Equal(t, []string{"AAAA", "GGGG", "TTTT"}, []string{stats[0].Kmer, stats[1].Kmer, stats[2].Kmer})
	assert.Equal(t, 100, stats[0].MiteTotalLen)
	assert.Equal(t, 300, stats[1].MiteTotalLen)
	assert.Equal(t, 400, stats[2].MiteTotalLen)
	assert.Equal(t, 2, stats[2].Mite)
	assert.Equal(t, 6, stats[2].Out)

	for _, stat := range stats {
		assert.Equal(t, stat.Mite+stat.Out, map[string]int{"AAAA": 4, "GGGG": 10, "TTTT": 8}[stat.Kmer])
		assert.GreaterOrEqual(t, stat.Freq, 0.0)
		assert.LessOrEqual(t, stat.Freq, 1.0)
		assert.GreaterOrEqual(t, stat.P, 0.0)
		assert.LessOrEqual(t, stat.P, 1.0)
		assert.InDelta(t, min(stat.P*3, 1), stat.PCorrectedBon, 1e-12)
		assert.GreaterOrEqual(t, stat.PCorrectedBon, stat.P)
	}
}

func TestAnalyzeMissingLabel(t *testing.T) {
	var dir = t.TempDir()
	var table = writeFile(t, dir, MergedTableName,
		"k-mer\ttotal\tcat1\tcat2\tr1\tr2",
		"AAAA\t4\t3\t0\t0\t0",
		"CCCC\t4\t0\t1\t0\t0",
	)
	// cat2 only fails once a row counts it
	_, err := NewAnalyzer(MiteLength{"cat1": 100}, 1000).Analyze(table)
	require.ErrorIs(t, err, ErrMalformedRow)
	assert.Contains(t, err.Error(), MergedTableName+":3")
	assert.Contains(t, err.Error(), "cat2")
}

func TestAnalyzeErrors(t *testing.T) {
	var dir = t.TempDir()
	var mite = MiteLength{"cat1": 100}

	var negative = writeFile(t, dir, "negative.txt",
		"k-mer\ttotal\tcat1\tr1\tr2",
		"AAAA\t2\t5\t0\t0",
	)
	_, err := NewAnalyzer(mite, 1000).Analyze(negative)
	assert.ErrorIs(t, err, ErrStatistic)

	var zero = writeFile(t, dir, "zero.txt",
		"k-mer\ttotal\tcat1\tr1\tr2",
		"AAAA\t0\t0\t0\t0",
		"CCCC\t0\t-1\t0\t0",
	)
	_, err = NewAnalyzer(mite, 1000).Analyze(zero)
	assert.NoError(t, err)

	var text = writeFile(t, dir, "text.txt",
		"k-mer\ttotal\tcat1\tr1\tr2",
		"AAAA\tmany\t1\t0\t0",
	)
	_, err = NewAnalyzer(mite, 1000).Analyze(text)
	assert.ErrorIs(t, err, ErrMalformedRow)

	var headless = writeFile(t, dir, "headless.txt", "AAAA\t1\t1\t0\t0")
	_, err = NewAnalyzer(mite, 1000).Analyze(headless)
	assert.ErrorIs(t, err, ErrMalformedRow)

	_, err = NewAnalyzer(mite, 0).Analyze(text)
	assert.ErrorIs(t, err, ErrStatistic)

	_, err = NewAnalyzer(mite, 1000).Analyze(dir + "/missing.txt")
	assert.ErrorIs(t, err, ErrMissingInput)
}

func TestAnalyzeProgress(t *testing.T) {
	var table = writeFile(t, t.TempDir(), MergedTableName,
		"k-mer\ttotal\tcat1\tr1\tr2",
		"AAAA\t4\t3\t0\t0",
	)
	var (
		buf bytes.Buffer
		az  = NewAnalyzer(MiteLength{"cat1": 100}, 1000)
	)
	az.Progress = &buf
	stats, err := az.Analyze(table)
	require.NoError(t, err)
	assert.Len(t, stats, 1)
}
