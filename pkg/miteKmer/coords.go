package miteKmer

import (
	"bufio"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/pkg/errors"
)

const (
	CoordsMergedName   = "coords_merged.txt"
	CoordsFilteredName = "coords_filtered.txt"
)

// CoordKey locates the k-mer id inside a coordinate line: the Token-th
// ';' separated token of the Column-th tab column, both 1-based
type CoordKey struct {
	Column int
	Token  int
}

// Kmer extracts the k-mer id of line
func (key CoordKey) Kmer(line string) (string, error) {
	var fields = strings.Split(line, "\t")
	if len(fields) < key.Column {
		return "", errors.Errorf("want at least %d columns, got %d", key.Column, len(fields))
	}
	var tokens = strings.Split(fields[key.Column-1], ";")
	if len(tokens) < key.Token {
		return "", errors.Errorf("column %d: want at least %d tokens, got %d", key.Column, key.Token, len(tokens))
	}
	return strings.TrimSpace(tokens[key.Token-1]), nil
}

func createWriter(path string) (*os.File, *bufio.Writer, error) {
	file, err := os.Create(path)
	if err != nil {
		return nil, nil, errors.Wrap(err, path)
	}
	return file, bufio.NewWriter(file), nil
}

func closeWriter(path string, file *os.File, out *bufio.Writer) error {
	if err := out.Flush(); err != nil {
		file.Close()
		return errors.Wrap(err, path)
	}
	return errors.Wrap(file.Close(), path)
}

// MergeCoords concatenates files into output in the given order and
// returns the number of lines written
func MergeCoords(files []string, output string) (int, error) {
	file, out, err := createWriter(output)
	if err != nil {
		return 0, err
	}
	var n = 0
	for _, path := range files {
		err = EachLine(path, func(line string, _ int) error {
			if strings.TrimSpace(line) == "" {
				return nil
			}
			n++
			_, err := io.WriteString(out, line+"\n")
			return err
		})
		if err != nil {
			file.Close()
			return 0, err
		}
	}
	if len(files) == 0 {
		slog.Warn("no coordinate files", "output", output)
	}
	return n, closeWriter(output, file, out)
}

// FilterCoords keeps the lines of input whose k-mer id is in kmers and
// returns the number of lines kept
func FilterCoords(input, output string, key CoordKey, kmers map[string]bool) (int, error) {
	file, out, err := createWriter(output)
	if err != nil {
		return 0, err
	}
	var kept = 0
	err = EachLine(input, func(line string, lineNo int) error {
		if strings.TrimSpace(line) == "" {
			return nil
		}
		kmer, err := key.Kmer(line)
		if err != nil {
			return rowError(input, lineNo, "%v", err)
		}
		if !kmers[kmer] {
			return nil
		}
		kept++
		_, err = io.WriteString(out, line+"\n")
		return err
	})
	if err != nil {
		file.Close()
		return 0, err
	}
	slog.Info("filtered coordinates", "kept", kept, "output", output)
	return kept, closeWriter(output, file, out)
}

// KmerSet returns the k-mers of stats as a set
func KmerSet(stats []KmerStat) map[string]bool {
	var set = make(map[string]bool, len(stats))
	for _, stat := range stats {
		set[stat.Kmer] = true
	}
	return set
}
