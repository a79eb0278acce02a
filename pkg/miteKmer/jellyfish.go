package miteKmer

import (
	"bytes"
	"context"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"

	"github.com/pkg/errors"
)

// Jellyfish runs `jellyfish count` and `jellyfish dump` for every prefix
type Jellyfish struct {
	Bin        string
	DataDir    string
	OutDir     string
	KmerLength string
	HashSize   string
	Threads    string
	Canonical  bool
	KeepJf     bool
}

func NewJellyfish(p *Parameters) *Jellyfish {
	return &Jellyfish{
		Bin:        p.JellyfishBin,
		DataDir:    p.DataDir,
		OutDir:     p.jellyfishOutDir(),
		KmerLength: p.KmerLength,
		HashSize:   p.HashSize,
		Threads:    p.ThreadsNumber,
		Canonical:  p.Canonical,
		KeepJf:     p.KeepIntermediateJf,
	}
}

// DumpPath is the counts dump produced for prefix
func (jf *Jellyfish) DumpPath(prefix string) string {
	return filepath.Join(jf.OutDir, prefix+"_dump.fasta")
}

func (jf *Jellyfish) run(ctx context.Context, args ...string) error {
	var (
		cmd    = exec.CommandContext(ctx, jf.Bin, args...)
		stderr bytes.Buffer
	)
	cmd.Stderr = &stderr
	slog.Debug("jellyfish", "cmd", cmd.String())
	if err := cmd.Run(); err != nil {
		slog.Error("jellyfish failed", "cmd", cmd.String(), "stderr", stderr.String())
		return errors.Wrapf(err, "jellyfish %s: %s", args[0], stderr.String())
	}
	return nil
}

// Count counts k-mers of {prefix}.fasta and dumps them to DumpPath(prefix).
// A prefix whose dump already exists is skipped.
func (jf *Jellyfish) Count(ctx context.Context, prefix string) error {
	var (
		fasta  = filepath.Join(jf.DataDir, prefix+".fasta")
		jfFile = filepath.Join(jf.OutDir, prefix+".jf")
		dump   = jf.DumpPath(prefix)
	)
	if Exists(dump) {
		slog.Info("dump exists, skipping", "prefix", prefix, "path", dump)
		return nil
	}
	if !Exists(fasta) {
		return errors.Wrapf(ErrMissingInput, "%s", fasta)
	}

	slog.Info("counting k-mers", "fasta", fasta)
	var args = []string{"count", "-m", jf.KmerLength, "-s", jf.HashSize, "-t", jf.Threads}
	if jf.Canonical {
		args = append(args, "-C")
	}
	args = append(args, fasta, "-o", jfFile)
	if err := jf.run(ctx, args...); err != nil {
		return errors.Wrap(err, prefix)
	}

	slog.Info("outputting counts", "jf", jfFile, "dump", dump)
	if err := jf.run(ctx, "dump", jfFile, "-o", dump); err != nil {
		return errors.Wrap(err, prefix)
	}

	if !jf.KeepJf {
		if err := os.Remove(jfFile); err != nil {
			slog.Warn("could not remove jf file", "path", jfFile, "err", err)
		} else {
			slog.Info("jf file removed", "path", jfFile)
		}
	}
	return nil
}

// CountAll runs Count over prefixes in order and stops at the first failure
func (jf *Jellyfish) CountAll(ctx context.Context, prefixes []string) error {
	if err := os.MkdirAll(jf.OutDir, 0755); err != nil {
		return errors.Wrap(err, jf.OutDir)
	}
	for _, prefix := range prefixes {
		if err := jf.Count(ctx, prefix); err != nil {
			return err
		}
	}
	return nil
}
