package miteKmer

import (
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testConfig = "Name\tValue\n" +
	"# comment\t\n" +
	"output_dir\tout\n" +
	"bed_file\tdata/mite.bed\n" +
	"prefixes\tchr1, chr2,,chr3\n" +
	"canonical\tyes\n" +
	"p_corrected_bon_thresh\t0.01\n" +
	"kmer_thresh_min\t2\n" +
	"keep_stats_file\tno\n" +
	"coord_token\t3\n"

func TestLoadConfig(t *testing.T) {
	config, err := LoadConfig(strings.NewReader(testConfig))
	require.NoError(t, err)
	assert.Equal(t, "out", config["output_dir"])
	assert.NotContains(t, config, "# comment")

	var p = NewParameters()
	require.NoError(t, p.Apply(config))
	require.NoError(t, p.Validate())

	assert.Equal(t, []string{"chr1", "chr2", "chr3"}, p.Prefixes)
	assert.True(t, p.Canonical)
	assert.Equal(t, 0.01, p.PCorrectedBonThresh)
	assert.Equal(t, "2", p.KmerThreshMin)
	assert.Equal(t, "", p.KmerThreshMax)
	assert.True(t, p.ForceStats())
	assert.Equal(t, 4, p.CoordColumn)
	assert.Equal(t, 3, p.CoordToken)
	assert.Equal(t, "8", p.KmerLength)

	assert.Equal(t, filepath.Join("out", "tables", MergedTableName), p.MergedTablePath())
	assert.Equal(t, filepath.Join("out", "stats"), p.StatsDir())
	assert.Equal(t, filepath.Join("out", "coords"), p.coordsDir())
	assert.Equal(t, filepath.Join("out", "jellyfish"), p.jellyfishOutDir())
}

func TestParametersSetErrors(t *testing.T) {
	var p = NewParameters()
	assert.Error(t, p.Set("no_such_key", "1"))
	assert.Error(t, p.Set("canonical", "maybe"))
	assert.Error(t, p.Set("coord_column", "four"))
	assert.Error(t, p.Set("p_corrected_bon_thresh", "low"))
	assert.NoError(t, p.Set("remove_stats_file", "YES"))
	assert.True(t, p.ForceStats())
}

func TestSetPrefixesOnCopy(t *testing.T) {
	var p = NewParameters()
	require.NoError(t, p.Set("prefixes", "chr1,chr2"))
	var copied = *p
	require.NoError(t, copied.Set("prefixes", "chr3"))
	assert.Equal(t, []string{"chr1", "chr2"}, p.Prefixes)
	assert.Equal(t, []string{"chr3"}, copied.Prefixes)
}

func TestParametersValidate(t *testing.T) {
	var valid = func() *Parameters {
		var p = NewParameters()
		p.Prefixes = []string{"chr1"}
		p.BedFile = "mite.bed"
		return p
	}
	require.NoError(t, valid().Validate())
	assert.False(t, valid().ForceStats())

	for name, broken := range map[string]func(p *Parameters){
		"prefixes": func(p *Parameters) { p.Prefixes = nil },
		"bed":      func(p *Parameters) { p.BedFile = "" },
		"output":   func(p *Parameters) { p.OutputDir = "" },
		"p":        func(p *Parameters) { p.PCorrectedBonThresh = 2 },
		"min":      func(p *Parameters) { p.KmerThreshMin = "two" },
		"max":      func(p *Parameters) { p.KmerThreshMax = "ten" },
		"column":   func(p *Parameters) { p.CoordColumn = 0 },
	} {
		var p = valid()
		broken(p)
		assert.Error(t, p.Validate(), name)
	}
}
