package miteKmer

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stageLog struct {
	dir  string
	runs []string
}

func (l *stageLog) stage(name string, fail error) *Stage {
	var output = filepath.Join(l.dir, name+".out")
	return &Stage{
		Name:    name,
		Outputs: []string{output},
		Run: func(context.Context) error {
			l.runs = append(l.runs, name)
			if fail != nil {
				return fail
			}
			return os.WriteFile(output, []byte(name), 0644)
		},
	}
}

func newStageLog(t *testing.T) (*stageLog, *Pipeline) {
	var dir = t.TempDir()
	return &stageLog{dir: dir}, NewPipeline(filepath.Join(dir, ".checkpoint"))
}

func TestPipelineSkipsCompleteStages(t *testing.T) {
	l, pl := newStageLog(t)
	pl.Add(l.stage("a", nil), l.stage("b", nil), l.stage("c", nil))

	require.NoError(t, pl.Run(context.Background()))
	assert.Equal(t, []string{"a", "b", "c"}, l.runs)
	assert.FileExists(t, filepath.Join(pl.CheckpointDir, "a.done"))

	l.runs = nil
	require.NoError(t, pl.Run(context.Background()))
	assert.Empty(t, l.runs)
	for _, result := range pl.Results {
		assert.True(t, result.Skipped, result.Name)
	}
}

func TestPipelineRerunsLaterStages(t *testing.T) {
	l, pl := newStageLog(t)
	pl.Add(l.stage("a", nil), l.stage("b", nil), l.stage("c", nil))
	require.NoError(t, pl.Run(context.Background()))

	// a missing output makes the stage and everything after it run again
	require.NoError(t, os.Remove(filepath.Join(l.dir, "b.out")))
	l.runs = nil
	require.NoError(t, pl.Run(context.Background()))
	assert.Equal(t, []string{"b", "c"}, l.runs)

	l.runs = nil
	pl.Force["a"] = true
	require.NoError(t, pl.Run(context.Background()))
	assert.Equal(t, []string{"a", "b", "c"}, l.runs)
}

func TestPipelineSettingsChange(t *testing.T) {
	l, pl := newStageLog(t)
	var a, b, c = l.stage("a", nil), l.stage("b", nil), l.stage("c", nil)
	b.Fingerprint = "min=2"
	pl.Add(a, b, c)
	require.NoError(t, pl.Run(context.Background()))

	l.runs = nil
	require.NoError(t, pl.Run(context.Background()))
	assert.Empty(t, l.runs)

	// the outputs still exist but were built with other settings
	b.Fingerprint = "min="
	l.runs = nil
	require.NoError(t, pl.Run(context.Background()))
	assert.Equal(t, []string{"b", "c"}, l.runs)
	assert.True(t, pl.Complete(b))
}

func TestPipelineFailure(t *testing.T) {
	l, pl := newStageLog(t)
	var boom = errors.New("boom")
	pl.Add(l.stage("a", nil), l.stage("b", boom), l.stage("c", nil))

	err := pl.Run(context.Background())
	require.ErrorIs(t, err, boom)
	assert.Contains(t, err.Error(), "stage b")
	assert.Equal(t, []string{"a", "b"}, l.runs)
	assert.NoFileExists(t, filepath.Join(pl.CheckpointDir, "b.done"))
	assert.NoFileExists(t, filepath.Join(pl.CheckpointDir, "c.done"))
}

func TestPipelineRecoversPanic(t *testing.T) {
	_, pl := newStageLog(t)
	pl.Add(&Stage{
		Name: "panic",
		Run: func(context.Context) error {
			panic("bad row")
		},
	})
	err := pl.Run(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "bad row")
	assert.NoFileExists(t, filepath.Join(pl.CheckpointDir, "panic.done"))
}

func TestPipelineCancelled(t *testing.T) {
	l, pl := newStageLog(t)
	pl.Add(l.stage("a", nil))
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(t, pl.Run(ctx), context.Canceled)
	assert.Empty(t, l.runs)
}
