package miteKmer

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"MiteKmer/pkg/wechatwork"

	"github.com/dustin/go-humanize"
	"github.com/pkg/errors"
)

const (
	ChromLenName      = "chrom_len.txt"
	MiteLenName       = "mite_len.txt"
	StatsName         = "stats.txt"
	StatsFilteredName = "stats.filtered.txt"
	WorkbookName      = "stats.xlsx"
	ChartName         = "stats.html"
	HistName          = "pvalue.png"
)

// Batch wires every pipeline stage over one output directory
type Batch struct {
	*Parameters

	Pipeline *Pipeline
	Notifier *wechatwork.NotificationSender

	cascade *Cascade
}

func NewBatch(p *Parameters) *Batch {
	var batch = &Batch{
		Parameters: p,
		Pipeline:   NewPipeline(filepath.Join(p.OutputDir, ".checkpoint")),
		Notifier:   wechatwork.NewNotificationSender(p.WebhookKey),
		cascade:    NewCascade(p, 0),
	}
	if p.ForceStats() {
		batch.Pipeline.Force["stats"] = true
	}
	batch.Pipeline.Add(batch.Stages()...)
	return batch
}

func (batch *Batch) statsPath(name string) string {
	return filepath.Join(batch.StatsDir(), name)
}

func (batch *Batch) coordsOutput(name string) string {
	return filepath.Join(batch.OutputDir, "coords", name)
}

// Stages lists the pipeline in execution order
func (batch *Batch) Stages() []*Stage {
	var stages []*Stage
	if batch.KmerCounting {
		var jf = NewJellyfish(batch.Parameters)
		var dumps []string
		for _, prefix := range batch.Prefixes {
			dumps = append(dumps, jf.DumpPath(prefix))
		}
		stages = append(stages, &Stage{
			Name:        "count",
			Outputs:     dumps,
			Fingerprint: fingerprint(batch.Prefixes, batch.DataDir, batch.KmerLength, batch.HashSize, batch.Canonical),
			Run: func(ctx context.Context) error {
				return jf.CountAll(ctx, batch.Prefixes)
			},
		})
	}

	stages = append(stages,
		&Stage{
			Name:        "merge",
			Outputs:     []string{batch.MergedTablePath()},
			Fingerprint: fingerprint(batch.Prefixes, batch.Canonical),
			Run:         batch.merge,
		},
		&Stage{
			Name:        "length",
			Outputs:     []string{batch.statsPath(ChromLenName), batch.statsPath(MiteLenName)},
			Fingerprint: fingerprint(batch.Prefixes, batch.DataDir, batch.BedFile),
			Run:         batch.length,
		},
		&Stage{
			Name:    "stats",
			Outputs: []string{batch.statsPath(StatsName)},
			Run:     batch.stats,
		},
	)

	var input = batch.statsPath(StatsName)
	for _, step := range batch.cascade.Steps() {
		var (
			from   = input
			output = batch.statsPath(step.Output)
		)
		stages = append(stages, &Stage{
			Name:        step.Name,
			Outputs:     []string{output},
			Fingerprint: fingerprint(step.Setting),
			Run: func(context.Context) error {
				return batch.filter(step, from, output)
			},
		})
		input = output
	}

	var terminal = input
	stages = append(stages,
		&Stage{
			Name:    "filtered",
			Outputs: []string{batch.statsPath(StatsFilteredName)},
			Run: func(context.Context) error {
				stats, err := LoadStats(terminal)
				if err != nil {
					return err
				}
				return WriteStats(batch.statsPath(StatsFilteredName), stats)
			},
		},
		&Stage{
			Name:        "coords",
			Outputs:     []string{batch.coordsOutput(CoordsMergedName), batch.coordsOutput(CoordsFilteredName)},
			Fingerprint: fingerprint(batch.coordsDir(), batch.CoordColumn, batch.CoordToken),
			Run:         batch.coords,
		},
		&Stage{
			Name:        "report",
			Outputs:     []string{batch.statsPath(WorkbookName), batch.statsPath(ChartName), batch.statsPath(HistName)},
			Fingerprint: fingerprint(batch.ReportRowLimit),
			Run:         batch.report,
		},
	)
	return stages
}

// fingerprint joins the settings a stage output depends on into one line
func fingerprint(values ...any) string {
	var parts = make([]string, len(values))
	for i, value := range values {
		parts[i] = strings.ReplaceAll(fmt.Sprint(value), "\n", " ")
	}
	return strings.Join(parts, "\t")
}

func (batch *Batch) merge(context.Context) error {
	files, err := MatchPrefixFiles(batch.TablesDir(), batch.Prefixes)
	if err != nil {
		return err
	}
	var tables []string
	for _, file := range files {
		if filepath.Base(file) != MergedTableName {
			tables = append(tables, file)
		}
	}
	_, err = MergeTables(tables, batch.MergedTablePath(), batch.Canonical)
	return err
}

func (batch *Batch) length(context.Context) error {
	if err := os.MkdirAll(batch.StatsDir(), 0755); err != nil {
		return errors.Wrap(err, batch.StatsDir())
	}
	chrom, err := ChromLen(batch.DataDir, batch.Prefixes)
	if err != nil {
		return err
	}
	mite, err := MiteLen(batch.BedFile)
	if err != nil {
		return err
	}
	slog.Info("lengths", "genome", humanize.Comma(int64(chrom.Total)), "categories", len(mite))
	if err := WriteLengths(batch.statsPath(ChromLenName), chrom.Chrom, batch.Prefixes); err != nil {
		return err
	}
	return WriteLengths(batch.statsPath(MiteLenName), mite, nil)
}

// GenomeLength reloads the persisted total genome length
func (batch *Batch) GenomeLength() (int, error) {
	chrom, err := LoadChromLength(batch.statsPath(ChromLenName))
	if err != nil {
		return 0, err
	}
	return chrom.Total, nil
}

func (batch *Batch) stats(context.Context) error {
	genomeLength, err := batch.GenomeLength()
	if err != nil {
		return err
	}
	mite, _, err := ReadLengths(batch.statsPath(MiteLenName))
	if err != nil {
		return err
	}

	var analyzer = NewAnalyzer(mite, genomeLength)
	if batch.Progress {
		analyzer.Progress = os.Stderr
	}
	stats, err := analyzer.Analyze(batch.MergedTablePath())
	if err != nil {
		return err
	}
	return WriteStats(batch.statsPath(StatsName), stats)
}

func (batch *Batch) filter(step FilterStep, input, output string) error {
	genomeLength, err := batch.GenomeLength()
	if err != nil {
		return err
	}
	batch.cascade.GenomeLength = genomeLength

	stats, err := LoadStats(input)
	if err != nil {
		return err
	}
	df, err := step.Apply(NewStatsFrame(stats))
	if err != nil {
		return errors.Wrap(err, step.Name)
	}
	filtered, err := FrameStats(df)
	if err != nil {
		return errors.Wrap(err, step.Name)
	}
	slog.Info("filtered", "step", step.Name, "input", len(stats), "kept", len(filtered))
	return WriteStats(output, filtered)
}

func (batch *Batch) coords(context.Context) error {
	var (
		merged   = batch.coordsOutput(CoordsMergedName)
		filtered = batch.coordsOutput(CoordsFilteredName)
	)
	if err := os.MkdirAll(filepath.Dir(merged), 0755); err != nil {
		return errors.Wrap(err, filepath.Dir(merged))
	}

	files, err := MatchPrefixFiles(batch.coordsDir(), batch.Prefixes)
	if err != nil {
		if !errors.Is(err, ErrMissingInput) {
			return err
		}
		slog.Warn("no coordinate directory", "dir", batch.coordsDir())
	}
	var inputs []string
	for _, file := range files {
		if name := filepath.Base(file); name != CoordsMergedName && name != CoordsFilteredName {
			inputs = append(inputs, file)
		}
	}
	if _, err := MergeCoords(inputs, merged); err != nil {
		return err
	}

	stats, err := LoadStats(batch.statsPath(StatsFilteredName))
	if err != nil {
		return err
	}
	_, err = FilterCoords(merged, filtered, CoordKey{Column: batch.CoordColumn, Token: batch.CoordToken}, KmerSet(stats))
	return err
}

// tablePaths lists the persisted stats tables in cascade order
func (batch *Batch) tablePaths() []SummaryRow {
	var rows = []SummaryRow{{Stage: "stats", Path: batch.statsPath(StatsName)}}
	for _, step := range batch.cascade.Steps() {
		rows = append(rows, SummaryRow{Stage: step.Name, Path: batch.statsPath(step.Output)})
	}
	return append(rows, SummaryRow{Stage: "filtered", Path: batch.statsPath(StatsFilteredName)})
}

// Summary counts the data rows of every persisted stats table
func (batch *Batch) Summary() []SummaryRow {
	var rows = batch.tablePaths()
	for i := range rows {
		n, err := countLines(rows[i].Path)
		if err != nil {
			rows[i].Rows = -1
			continue
		}
		rows[i].Rows = max(n-1, 0)
	}
	return rows
}

func (batch *Batch) settings(genomeLength int) []Setting {
	return []Setting{
		{"prefixes", strings.Join(batch.Prefixes, ",")},
		{"bed_file", batch.BedFile},
		{"total_genome_len", genomeLength},
		{"p_corrected_bon_thresh", batch.PCorrectedBonThresh},
		{"kmer_thresh_min", batch.KmerThreshMin},
		{"kmer_thresh_max", batch.KmerThreshMax},
	}
}

func (batch *Batch) report(context.Context) error {
	genomeLength, err := batch.GenomeLength()
	if err != nil {
		return err
	}
	var (
		summary = batch.tablePaths()
		tables  []NamedStats
		raw     []KmerStat
		final   []KmerStat
	)
	for i, row := range summary {
		stats, err := LoadStats(row.Path)
		if err != nil {
			return err
		}
		summary[i].Rows = len(stats)
		tables = append(tables, NamedStats{Sheet: row.Stage, Stats: stats})
		raw, final = tables[0].Stats, stats
	}

	WriteWorkbook(batch.statsPath(WorkbookName), summary, batch.settings(genomeLength), tables[1:], batch.ReportRowLimit)
	PlotScatter(batch.statsPath(ChartName), fmt.Sprintf("%d filtered k-mers", len(final)), final, batch.ReportRowLimit)
	PlotPValueHist(batch.statsPath(HistName), raw)
	return nil
}

// Markdown formats the outcome of a run for the notification
func (batch *Batch) Markdown(runErr error, elapsed time.Duration) string {
	var sb strings.Builder
	if runErr != nil {
		fmt.Fprintf(&sb, "## MiteKmer <font color=\"warning\">failed</font>\n> %s\n", runErr)
	} else {
		fmt.Fprintf(&sb, "## MiteKmer <font color=\"info\">done</font>\n")
	}
	fmt.Fprintf(&sb, "> output: %s\n> elapsed: %s\n", batch.OutputDir, elapsed.Round(time.Second))
	for _, result := range batch.Pipeline.Results {
		if result.Skipped {
			fmt.Fprintf(&sb, "- %s: skipped\n", result.Name)
		} else {
			fmt.Fprintf(&sb, "- %s: %s\n", result.Name, result.Elapsed.Round(time.Millisecond))
		}
	}
	if runErr == nil {
		for _, row := range batch.Summary() {
			fmt.Fprintf(&sb, "- %s rows: %s\n", row.Stage, humanize.Comma(int64(row.Rows)))
		}
	}
	return sb.String()
}

// Run executes the pipeline and sends the notification when configured.
// A failed notification is logged only.
func (batch *Batch) Run(ctx context.Context) error {
	var start = time.Now()
	var err = batch.Pipeline.Run(ctx)
	if batch.Notifier.Enabled {
		if nerr := batch.Notifier.SendMarkdown(context.WithoutCancel(ctx), batch.Markdown(err, time.Since(start))); nerr != nil {
			slog.Error("notification failed", "error", nerr)
		}
	}
	if err != nil {
		return err
	}
	slog.Info("pipeline done", "output", batch.OutputDir, "elapsed", time.Since(start))
	return nil
}
