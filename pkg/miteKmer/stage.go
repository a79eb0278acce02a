package miteKmer

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/pkg/errors"
)

// Stage is one checkpointed step of the pipeline.
// Fingerprint is the settings the outputs were built with, a checkpoint
// written under another fingerprint is stale.
type Stage struct {
	Name        string
	Outputs     []string
	Fingerprint string
	Run         func(ctx context.Context) error
}

// StageResult records what happened to a stage during Pipeline.Run
type StageResult struct {
	Name    string
	Skipped bool
	Elapsed time.Duration
}

// Pipeline runs stages in order, skipping those with a complete checkpoint.
// Once a stage runs, every later stage runs too.
type Pipeline struct {
	CheckpointDir string
	Force         map[string]bool

	stages  []*Stage
	Results []StageResult
}

func NewPipeline(checkpointDir string) *Pipeline {
	return &Pipeline{
		CheckpointDir: checkpointDir,
		Force:         make(map[string]bool),
	}
}

func (pl *Pipeline) Add(stages ...*Stage) {
	pl.stages = append(pl.stages, stages...)
}

func (pl *Pipeline) markerPath(name string) string {
	return filepath.Join(pl.CheckpointDir, name+".done")
}

// Complete reports whether stage has a marker with its fingerprint and all of its outputs
func (pl *Pipeline) Complete(stage *Stage) bool {
	data, err := os.ReadFile(pl.markerPath(stage.Name))
	if err != nil {
		return false
	}
	if fingerprint, _, _ := strings.Cut(string(data), "\n"); fingerprint != stage.Fingerprint {
		slog.Info("stage settings changed", "stage", stage.Name, "was", fingerprint, "now", stage.Fingerprint)
		return false
	}
	for _, output := range stage.Outputs {
		if !Exists(output) {
			return false
		}
	}
	return true
}

func runStage(ctx context.Context, stage *Stage) (err error) {
	defer func() {
		if r := recover(); r != nil {
			slog.Error("stage panic", "stage", stage.Name, "error", r)
			err = errors.Errorf("panic: %v", r)
		}
	}()
	return stage.Run(ctx)
}

// Run executes the pipeline and stops at the first failing stage
func (pl *Pipeline) Run(ctx context.Context) error {
	if err := os.MkdirAll(pl.CheckpointDir, 0755); err != nil {
		return errors.Wrap(err, pl.CheckpointDir)
	}
	pl.Results = pl.Results[:0]

	var dirty = false
	for _, stage := range pl.stages {
		if err := ctx.Err(); err != nil {
			return errors.Wrapf(err, "stage %s", stage.Name)
		}
		if !dirty && !pl.Force[stage.Name] && pl.Complete(stage) {
			slog.Info("stage complete, skipping", "stage", stage.Name)
			pl.Results = append(pl.Results, StageResult{Name: stage.Name, Skipped: true})
			continue
		}
		dirty = true

		var marker = pl.markerPath(stage.Name)
		if err := os.Remove(marker); err != nil && !os.IsNotExist(err) {
			return errors.Wrap(err, marker)
		}

		slog.Info("stage start", "stage", stage.Name)
		var start = time.Now()
		if err := runStage(ctx, stage); err != nil {
			slog.Error("stage failed", "stage", stage.Name, "error", err)
			return errors.Wrapf(err, "stage %s", stage.Name)
		}
		var elapsed = time.Since(start)
		slog.Info("stage done", "stage", stage.Name, "elapsed", elapsed)
		pl.Results = append(pl.Results, StageResult{Name: stage.Name, Elapsed: elapsed})

		var content = stage.Fingerprint + "\n" + time.Now().Format(time.RFC3339) + "\n"
		if err := os.WriteFile(marker, []byte(content), 0644); err != nil {
			return errors.Wrap(err, marker)
		}
	}
	return nil
}
