package miteKmer

import (
	"bufio"
	"io"
	"log/slog"
	"os"
	"sort"
	"strconv"
	"strings"
	"unicode"

	"github.com/pkg/errors"
)

const (
	MergedTableName = "table_merged.txt"
	// HeaderToken is the first field of a count table header row
	HeaderToken = "k-mer"
)

// Merger sums per-chromosome k-mer count tables into one table
type Merger struct {
	Canonical bool

	header []string
	counts map[string][]int
}

func NewMerger(canonical bool) *Merger {
	return &Merger{
		Canonical: canonical,
		counts:    make(map[string][]int),
	}
}

// Header returns the captured header row
func (m *Merger) Header() []string {
	return m.header
}

// Len returns the number of distinct k-mers merged so far
func (m *Merger) Len() int {
	return len(m.counts)
}

// Counts returns the merged count vector of kmer
func (m *Merger) Counts(kmer string) ([]int, bool) {
	v, ok := m.counts[kmer]
	return v, ok
}

// Add streams one count table into the accumulator
func (m *Merger) Add(path string) error {
	slog.Info("Reading", "table", path)
	return EachLine(path, func(line string, lineNo int) error {
		line = strings.TrimRightFunc(line, unicode.IsSpace)
		if line == "" {
			return nil
		}
		var fields = strings.Split(line, "\t")

		if fields[0] == HeaderToken {
			if m.header == nil {
				m.header = fields
			} else if strings.Join(m.header, "\t") != line {
				slog.Warn("header differs from the first one, ignored", "table", path, "line", lineNo)
			}
			return nil
		}

		if m.header != nil && len(fields) != len(m.header) {
			return rowError(path, lineNo, "%d fields, header has %d", len(fields), len(m.header))
		}

		var values = make([]int, len(fields)-1)
		for i, field := range fields[1:] {
			v, err := strconv.Atoi(field)
			if err != nil {
				return rowError(path, lineNo, "column %d: %q is not an integer", i+2, field)
			}
			values[i] = v
		}

		var kmer = fields[0]
		if m.Canonical {
			kmer = CanonicalKmer(kmer)
		}
		sum, ok := m.counts[kmer]
		if !ok {
			m.counts[kmer] = values
			return nil
		}
		if len(sum) != len(values) {
			return rowError(path, lineNo, "%d counts for %s, %d seen before", len(values), kmer, len(sum))
		}
		for i, v := range values {
			sum[i] += v
		}
		return nil
	})
}

// Write outputs the header and then every k-mer row in lexicographic order
func (m *Merger) Write(w io.Writer) error {
	if m.header == nil {
		return errors.Wrap(ErrMalformedRow, "no k-mer header found in any table")
	}
	var kmers = make([]string, 0, len(m.counts))
	for kmer := range m.counts {
		kmers = append(kmers, kmer)
	}
	sort.Strings(kmers)

	var (
		out = bufio.NewWriter(w)
		buf []byte
	)
	if _, err := out.WriteString(strings.Join(m.header, "\t") + "\n"); err != nil {
		return err
	}
	for _, kmer := range kmers {
		buf = append(buf[:0], kmer...)
		for _, v := range m.counts[kmer] {
			buf = append(buf, '\t')
			buf = strconv.AppendInt(buf, int64(v), 10)
		}
		buf = append(buf, '\n')
		if _, err := out.Write(buf); err != nil {
			return err
		}
	}
	return out.Flush()
}

// WriteFile writes the merged table to path, replacing any older copy
func (m *Merger) WriteFile(path string) error {
	file, err := os.Create(path)
	if err != nil {
		return errors.Wrap(err, path)
	}
	if err := m.Write(file); err != nil {
		file.Close()
		return errors.Wrap(err, path)
	}
	return errors.Wrap(file.Close(), path)
}

// MergeTables merges files into output and returns the number of k-mers
func MergeTables(files []string, output string, canonical bool) (int, error) {
	if len(files) == 0 {
		return 0, errors.Wrap(ErrMissingInput, "no count tables to merge")
	}
	var merger = NewMerger(canonical)
	for _, file := range files {
		if err := merger.Add(file); err != nil {
			return 0, err
		}
	}
	if err := merger.WriteFile(output); err != nil {
		return 0, err
	}
	slog.Info("merged tables", "tables", len(files), "kmers", merger.Len(), "output", output)
	return merger.Len(), nil
}
