package miteKmer

import (
	"bufio"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/klauspost/pgzip"
	"github.com/liserjrqlxue/DNA/pkg/util"
	"github.com/pkg/errors"
)

var (
	ErrMissingInput = errors.New("missing input file")
	ErrMalformedRow = errors.New("malformed row")
	ErrStatistic    = errors.New("statistical computation error")
)

const maxLineSize = 64 * 1024 * 1024

// Exists reports whether path exists
func Exists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

type gzReadCloser struct {
	*pgzip.Reader
	file *os.File
}

func (r *gzReadCloser) Close() error {
	err := r.Reader.Close()
	if err2 := r.file.Close(); err == nil {
		err = err2
	}
	return err
}

// OpenReader opens path for reading, decompressing *.gz files on the fly.
// A missing file yields an error wrapping ErrMissingInput.
func OpenReader(path string) (io.ReadCloser, error) {
	file, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.Wrapf(ErrMissingInput, "%s", path)
		}
		return nil, errors.Wrap(err, path)
	}
	if !strings.HasSuffix(path, ".gz") {
		return file, nil
	}
	gz, err := pgzip.NewReader(file)
	if err != nil {
		file.Close()
		return nil, errors.Wrapf(err, "gzip %s", path)
	}
	return &gzReadCloser{Reader: gz, file: file}, nil
}

// NewScanner returns a line scanner able to hold very wide table rows
func NewScanner(r io.Reader) *bufio.Scanner {
	var scanner = bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineSize)
	return scanner
}

// EachLine calls fn for every line of path, with the 1-based line number.
// Reading stops at end of stream, not at the first blank line.
func EachLine(path string, fn func(line string, lineNo int) error) error {
	file, err := OpenReader(path)
	if err != nil {
		return err
	}
	defer file.Close()

	var (
		scanner = NewScanner(file)
		lineNo  = 0
	)
	for scanner.Scan() {
		lineNo++
		if err := fn(scanner.Text(), lineNo); err != nil {
			return err
		}
	}
	return errors.Wrap(scanner.Err(), path)
}

// rowError names the file and line of a malformed row
func rowError(path string, lineNo int, format string, args ...any) error {
	return errors.Wrapf(ErrMalformedRow, "%s:%d: "+format, append([]any{path, lineNo}, args...)...)
}

// PrefixOf returns the prefix token of a per-chromosome file name:
// the last '_' separated token, without .gz and .txt extensions.
func PrefixOf(name string) string {
	name = strings.TrimSuffix(name, ".gz")
	name = strings.TrimSuffix(name, ".txt")
	var tokens = strings.Split(name, "_")
	return tokens[len(tokens)-1]
}

// MatchPrefixFiles lists the files of dir whose prefix token is one of
// prefixes, ordered by the position of their prefix and then by name.
func MatchPrefixFiles(dir string, prefixes []string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.Wrapf(ErrMissingInput, "%s", dir)
		}
		return nil, errors.Wrap(err, dir)
	}

	var order = make(map[string]int)
	for i, prefix := range prefixes {
		if _, ok := order[prefix]; !ok {
			order[prefix] = i
		}
	}

	var files []string
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		if _, ok := order[PrefixOf(entry.Name())]; ok {
			files = append(files, entry.Name())
		}
	}
	sort.SliceStable(files, func(i, j int) bool {
		var oi, oj = order[PrefixOf(files[i])], order[PrefixOf(files[j])]
		if oi != oj {
			return oi < oj
		}
		return files[i] < files[j]
	})
	for i := range files {
		files[i] = filepath.Join(dir, files[i])
	}
	return files, nil
}

// CanonicalKmer returns the lexicographically smaller of kmer and its
// reverse complement
func CanonicalKmer(kmer string) string {
	var rc = util.ReverseComplement(kmer)
	if rc < kmer {
		return rc
	}
	return kmer
}
