package miteKmer

import (
	"bufio"
	"io"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/liserjrqlxue/goUtil/scannerUtil"
	"github.com/pkg/errors"
)

// Parameters holds the run configuration, keyed by the names of etc/config.txt
type Parameters struct {
	OutputDir       string
	DataDir         string
	BedFile         string
	Prefixes        []string
	JellyfishOutDir string
	CoordsDir       string

	// k-mer counting
	KmerCounting       bool
	JellyfishBin       string
	KmerLength         string
	HashSize           string
	ThreadsNumber      string
	Canonical          bool
	KeepIntermediateJf bool

	// statistics
	PCorrectedBonThresh float64
	KmerThreshMin       string
	KmerThreshMax       string
	KeepStatsFile       bool
	RemoveStatsFile     bool

	// coordinates
	CoordColumn int
	CoordToken  int

	ReportRowLimit int
	WebhookKey     string
	Progress       bool
}

// NewParameters returns the built-in defaults
func NewParameters() *Parameters {
	return &Parameters{
		OutputDir:           "output",
		DataDir:             "data",
		JellyfishBin:        "jellyfish",
		KmerLength:          "8",
		HashSize:            "100M",
		ThreadsNumber:       "1",
		PCorrectedBonThresh: 0.05,
		KeepStatsFile:       true,
		CoordColumn:         4,
		CoordToken:          1,
		ReportRowLimit:      100000,
	}
}

// LoadConfig reads a two column Name/Value table into a map
func LoadConfig(r io.Reader) (map[string]string, error) {
	var scanner = bufio.NewScanner(r)
	var rows, _ = scannerUtil.Scanner2MapArray(scanner, "\t", nil)
	if err := scanner.Err(); err != nil {
		return nil, errors.Wrap(err, "read config")
	}
	var config = make(map[string]string)
	for _, row := range rows {
		var name = strings.TrimSpace(row["Name"])
		if name == "" || strings.HasPrefix(name, "#") {
			continue
		}
		config[name] = strings.TrimSpace(row["Value"])
	}
	return config, nil
}

func parseYes(key, value string) (bool, error) {
	switch strings.ToLower(value) {
	case "yes", "y", "true", "1":
		return true, nil
	case "no", "n", "false", "0", "":
		return false, nil
	}
	return false, errors.Errorf("config %s: want yes/no, got %q", key, value)
}

// Set assigns one configuration value by its config name
func (p *Parameters) Set(key, value string) (err error) {
	switch key {
	case "output_dir":
		p.OutputDir = value
	case "data_dir":
		p.DataDir = value
	case "bed_file":
		p.BedFile = value
	case "prefixes":
		p.Prefixes = nil
		for _, prefix := range strings.Split(value, ",") {
			if prefix = strings.TrimSpace(prefix); prefix != "" {
				p.Prefixes = append(p.Prefixes, prefix)
			}
		}
	case "jellyfish_out_dir":
		p.JellyfishOutDir = value
	case "coords_dir":
		p.CoordsDir = value
	case "kmer_counting":
		p.KmerCounting, err = parseYes(key, value)
	case "jellyfish_bin":
		p.JellyfishBin = value
	case "kmer_length":
		p.KmerLength = value
	case "hash_size":
		p.HashSize = value
	case "threads_number":
		p.ThreadsNumber = value
	case "canonical":
		p.Canonical, err = parseYes(key, value)
	case "keep_intermediate_jf_files":
		p.KeepIntermediateJf, err = parseYes(key, value)
	case "p_corrected_bon_thresh":
		p.PCorrectedBonThresh, err = strconv.ParseFloat(value, 64)
	case "kmer_thresh_min":
		p.KmerThreshMin = value
	case "kmer_thresh_max":
		p.KmerThreshMax = value
	case "keep_stats_file":
		p.KeepStatsFile, err = parseYes(key, value)
	case "remove_stats_file":
		p.RemoveStatsFile, err = parseYes(key, value)
	case "coord_column":
		p.CoordColumn, err = strconv.Atoi(value)
	case "coord_token":
		p.CoordToken, err = strconv.Atoi(value)
	case "report_row_limit":
		p.ReportRowLimit, err = strconv.Atoi(value)
	case "webhook_key":
		p.WebhookKey = value
	case "progress":
		p.Progress, err = parseYes(key, value)
	default:
		return errors.Errorf("unknown config key %q", key)
	}
	return errors.Wrapf(err, "config %s", key)
}

// Apply sets every value of config
func (p *Parameters) Apply(config map[string]string) error {
	for key, value := range config {
		if err := p.Set(key, value); err != nil {
			return err
		}
	}
	return nil
}

// Validate checks the values the pipeline cannot run without
func (p *Parameters) Validate() error {
	if p.OutputDir == "" {
		return errors.New("config output_dir is empty")
	}
	if len(p.Prefixes) == 0 {
		return errors.New("config prefixes is empty")
	}
	if p.BedFile == "" {
		return errors.New("config bed_file is empty")
	}
	if p.PCorrectedBonThresh < 0 || p.PCorrectedBonThresh > 1 {
		return errors.Errorf("config p_corrected_bon_thresh %v out of [0,1]", p.PCorrectedBonThresh)
	}
	if _, _, err := parseThresh(p.KmerThreshMin); err != nil {
		return errors.Wrap(err, "config kmer_thresh_min")
	}
	if _, _, err := parseThresh(p.KmerThreshMax); err != nil {
		return errors.Wrap(err, "config kmer_thresh_max")
	}
	if p.CoordColumn < 1 || p.CoordToken < 1 {
		return errors.New("config coord_column and coord_token are 1-based")
	}
	return nil
}

// ForceStats reports whether a saved stats table must be recomputed
func (p *Parameters) ForceStats() bool {
	return p.RemoveStatsFile || !p.KeepStatsFile
}

func (p *Parameters) TablesDir() string {
	return filepath.Join(p.OutputDir, "tables")
}

func (p *Parameters) StatsDir() string {
	return filepath.Join(p.OutputDir, "stats")
}

func (p *Parameters) coordsDir() string {
	if p.CoordsDir != "" {
		return p.CoordsDir
	}
	return filepath.Join(p.OutputDir, "coords")
}

func (p *Parameters) jellyfishOutDir() string {
	if p.JellyfishOutDir != "" {
		return p.JellyfishOutDir
	}
	return filepath.Join(p.OutputDir, "jellyfish")
}

// MergedTablePath is tables/table_merged.txt under the output directory
func (p *Parameters) MergedTablePath() string {
	return filepath.Join(p.TablesDir(), MergedTableName)
}
