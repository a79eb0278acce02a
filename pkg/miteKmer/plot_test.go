package miteKmer

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPlotPValueHist(t *testing.T) {
	var dir = t.TempDir()
	for name, stats := range map[string][]KmerStat{"some.png": sampleStats, "none.png": nil} {
		var path = filepath.Join(dir, name)
		PlotPValueHist(path, stats)
		info, err := os.Stat(path)
		require.NoError(t, err, name)
		assert.Positive(t, info.Size(), name)
	}
}

func TestPlotScatter(t *testing.T) {
	var path = filepath.Join(t.TempDir(), ChartName)
	PlotScatter(path, "4 filtered k-mers", sampleStats, 2)
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "4 filtered k-mers")
}
