package miteKmer

import (
	"bufio"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"unicode"

	"github.com/pkg/errors"
	"github.com/shenwei356/bio/seqio/fastx"
)

// ChromLength holds the sequence length of every prefix and their sum.
// It is built once and only read afterwards.
type ChromLength struct {
	Chrom map[string]int
	Total int
}

// MiteLength maps a mite category label to its total annotated length
type MiteLength map[string]int

func oneLinePath(dataDir, prefix string) string {
	return filepath.Join(dataDir, prefix+"_oneLine.txt")
}

// oneLineLen sums the right-trimmed line lengths of path
func oneLineLen(path string) (int, error) {
	var length = 0
	err := EachLine(path, func(line string, _ int) error {
		length += len(strings.TrimRightFunc(line, unicode.IsSpace))
		return nil
	})
	return length, err
}

// fastaLen sums the sequence lengths of the records of a FASTA file
func fastaLen(path string) (int, error) {
	reader, err := fastx.NewReader(nil, path, "")
	if err != nil {
		return 0, errors.Wrap(err, path)
	}
	defer reader.Close()

	var length = 0
	for {
		record, err := reader.Read()
		if err != nil {
			if err == io.EOF {
				break
			}
			return 0, errors.Wrap(err, path)
		}
		length += len(record.Seq.Seq)
	}
	return length, nil
}

// ChromLen computes the length of every prefix from {prefix}_oneLine.txt,
// falling back to the records of {prefix}.fasta when the one-line file is
// absent.
func ChromLen(dataDir string, prefixes []string) (ChromLength, error) {
	var result = ChromLength{Chrom: make(map[string]int, len(prefixes))}
	for _, prefix := range prefixes {
		var (
			path   = oneLinePath(dataDir, prefix)
			length int
			err    error
		)
		if Exists(path) {
			length, err = oneLineLen(path)
		} else if fasta := filepath.Join(dataDir, prefix+".fasta"); Exists(fasta) {
			slog.Warn("one-line file missing, using fasta", "prefix", prefix, "fasta", fasta)
			length, err = fastaLen(fasta)
		} else {
			err = errors.Wrapf(ErrMissingInput, "%s", path)
		}
		if err != nil {
			return ChromLength{}, err
		}
		result.Chrom[prefix] = length
		result.Total += length
	}
	return result, nil
}

func isBedHeader(line string) bool {
	return strings.HasPrefix(line, "#") ||
		strings.HasPrefix(line, "track") ||
		strings.HasPrefix(line, "browser")
}

// MiteLen accumulates end - start + 1 per label (the last column) of a
// tab-separated interval file
func MiteLen(bedFile string) (MiteLength, error) {
	var result = make(MiteLength)
	err := EachLine(bedFile, func(line string, lineNo int) error {
		line = strings.TrimRightFunc(line, unicode.IsSpace)
		if line == "" || isBedHeader(line) {
			return nil
		}
		var fields = strings.Split(line, "\t")
		if len(fields) < 4 {
			return rowError(bedFile, lineNo, "%d columns, want chrom, start, end, ..., label", len(fields))
		}
		start, err := strconv.Atoi(fields[1])
		if err != nil {
			return rowError(bedFile, lineNo, "start %q is not an integer", fields[1])
		}
		end, err := strconv.Atoi(fields[2])
		if err != nil {
			return rowError(bedFile, lineNo, "end %q is not an integer", fields[2])
		}
		if end < start {
			return rowError(bedFile, lineNo, "end %d before start %d", end, start)
		}
		result[fields[len(fields)-1]] += end - start + 1
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// WriteLengths writes name\tlength rows, ordered by order and then by name
func WriteLengths(path string, lengths map[string]int, order []string) error {
	var (
		names = make([]string, 0, len(lengths))
		seen  = make(map[string]bool)
	)
	for _, name := range order {
		if _, ok := lengths[name]; ok && !seen[name] {
			names = append(names, name)
			seen[name] = true
		}
	}
	var rest []string
	for name := range lengths {
		if !seen[name] {
			rest = append(rest, name)
		}
	}
	sort.Strings(rest)
	names = append(names, rest...)

	file, err := os.Create(path)
	if err != nil {
		return errors.Wrap(err, path)
	}
	var out = bufio.NewWriter(file)
	for _, name := range names {
		out.WriteString(name + "\t" + strconv.Itoa(lengths[name]) + "\n")
	}
	if err := out.Flush(); err != nil {
		file.Close()
		return errors.Wrap(err, path)
	}
	return errors.Wrap(file.Close(), path)
}

// ReadLengths loads a table written by WriteLengths
func ReadLengths(path string) (map[string]int, []string, error) {
	var (
		lengths = make(map[string]int)
		order   []string
	)
	err := EachLine(path, func(line string, lineNo int) error {
		if line == "" {
			return nil
		}
		var fields = strings.Split(line, "\t")
		if len(fields) != 2 {
			return rowError(path, lineNo, "%d columns, want name and length", len(fields))
		}
		v, err := strconv.Atoi(fields[1])
		if err != nil {
			return rowError(path, lineNo, "length %q is not an integer", fields[1])
		}
		lengths[fields[0]] = v
		order = append(order, fields[0])
		return nil
	})
	return lengths, order, err
}

// LoadChromLength rebuilds a ChromLength from a WriteLengths table
func LoadChromLength(path string) (ChromLength, error) {
	lengths, _, err := ReadLengths(path)
	if err != nil {
		return ChromLength{}, err
	}
	var result = ChromLength{Chrom: lengths}
	for _, v := range lengths {
		result.Total += v
	}
	return result, nil
}
