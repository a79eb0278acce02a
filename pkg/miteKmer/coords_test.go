package miteKmer

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCoordKey(t *testing.T) {
	var key = CoordKey{Column: 4, Token: 1}
	kmer, err := key.Kmer("chr1\t10\t17\tAAAA;+;cat1")
	require.NoError(t, err)
	assert.Equal(t, "AAAA", kmer)

	kmer, err = CoordKey{Column: 4, Token: 3}.Kmer("chr1\t10\t17\tx;+;CCCC\textra")
	require.NoError(t, err)
	assert.Equal(t, "CCCC", kmer)

	_, err = key.Kmer("chr1\t10\t17")
	assert.Error(t, err)
	_, err = CoordKey{Column: 4, Token: 2}.Kmer("chr1\t10\t17\tAAAA")
	assert.Error(t, err)
}

func TestMergeAndFilterCoords(t *testing.T) {
	var dir = t.TempDir()
	var chr1 = writeFile(t, dir, "coords_chr1.txt",
		"chr1\t1\t4\tAAAA;+",
		"chr1\t5\t8\tCCCC;+",
	)
	var chr2 = writeFile(t, dir, "coords_chr2.txt",
		"chr2\t1\t4\tAAAA;-",
		"",
		"chr2\t9\t12\tGGGG;+",
	)

	var merged = filepath.Join(dir, "out", CoordsMergedName)
	require.NoError(t, os.MkdirAll(filepath.Dir(merged), 0755))
	n, err := MergeCoords([]string{chr1, chr2}, merged)
	require.NoError(t, err)
	assert.Equal(t, 4, n)
	assert.Equal(t, []string{
		"chr1\t1\t4\tAAAA;+",
		"chr1\t5\t8\tCCCC;+",
		"chr2\t1\t4\tAAAA;-",
		"chr2\t9\t12\tGGGG;+",
	}, readLines(t, merged))

	var filtered = filepath.Join(dir, "out", CoordsFilteredName)
	var kmers = KmerSet([]KmerStat{{Kmer: "AAAA"}, {Kmer: "GGGG"}})
	kept, err := FilterCoords(merged, filtered, CoordKey{Column: 4, Token: 1}, kmers)
	require.NoError(t, err)
	assert.Equal(t, 3, kept)
	assert.Equal(t, []string{
		"chr1\t1\t4\tAAAA;+",
		"chr2\t1\t4\tAAAA;-",
		"chr2\t9\t12\tGGGG;+",
	}, readLines(t, filtered))
}

func TestMergeCoordsEmpty(t *testing.T) {
	var dir = t.TempDir()
	var merged = filepath.Join(dir, CoordsMergedName)
	n, err := MergeCoords(nil, merged)
	require.NoError(t, err)
	assert.Zero(t, n)
	assert.Empty(t, readLines(t, merged))

	kept, err := FilterCoords(merged, filepath.Join(dir, CoordsFilteredName), CoordKey{Column: 4, Token: 1}, nil)
	require.NoError(t, err)
	assert.Zero(t, kept)
}

func TestFilterCoordsMalformed(t *testing.T) {
	var dir = t.TempDir()
	var input = writeFile(t, dir, "coords.txt",
		"chr1\t1\t4\tAAAA;+",
		"chr1\t5\t8",
	)
	_, err := FilterCoords(input, filepath.Join(dir, "out.txt"), CoordKey{Column: 4, Token: 1}, map[string]bool{"AAAA": true})
	require.ErrorIs(t, err, ErrMalformedRow)
	assert.Contains(t, err.Error(), "coords.txt:2")
}
