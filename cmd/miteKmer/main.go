package main

import (
	"context"
	"embed"
	"flag"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"runtime/pprof"
	"strings"
	"syscall"
	"time"

	"MiteKmer/pkg/miteKmer"

	"github.com/liserjrqlxue/goUtil/osUtil"
	"github.com/liserjrqlxue/goUtil/simpleUtil"
)

// os
var (
	ex, _  = os.Executable()
	exPath = filepath.Dir(ex)
)

// flag
var (
	configPath = flag.String(
		"config",
		"",
		"config file, default etc/config.txt beside the executable or the embedded copy",
	)
	outputDir = flag.String(
		"o",
		"",
		"output directory, overrides output_dir",
	)
	dataDir = flag.String(
		"data",
		"",
		"directory of {prefix}_oneLine.txt and {prefix}.fasta, overrides data_dir",
	)
	bedFile = flag.String(
		"bed",
		"",
		"mite annotation bed, overrides bed_file",
	)
	prefixes = flag.String(
		"prefixes",
		"",
		"comma separated chromosome prefixes, overrides prefixes",
	)
	kmerCounting = flag.Bool(
		"count",
		false,
		"run jellyfish before merging, overrides kmer_counting",
	)
	thread = flag.String(
		"t",
		"",
		"jellyfish threads, overrides threads_number",
	)
	pThresh = flag.String(
		"p",
		"",
		"p_corrected_bon threshold, overrides p_corrected_bon_thresh",
	)
	threshMin = flag.String(
		"min",
		"",
		"minimum frequency factor, overrides kmer_thresh_min",
	)
	threshMax = flag.String(
		"max",
		"",
		"maximum frequency factor, overrides kmer_thresh_max",
	)
	webhook = flag.String(
		"webhook",
		"",
		"WeChat Work webhook key, overrides webhook_key",
	)
	progress = flag.Bool(
		"progress",
		false,
		"show progress bar while analysing",
	)
	force = flag.String(
		"force",
		"",
		"comma separated stages to rerun: count,merge,length,stats,bonferroni,freqHigher,freqLesser,filtered,coords,report",
	)
	debug = flag.Bool(
		"debug",
		false,
		"debug",
	)
	cpuProfile = flag.String(
		"cpu",
		"log.cpuProfile",
		"cpu profile",
	)
	memProfile = flag.String(
		"mem",
		"log.memProfile",
		"mem profile",
	)
)

// flag name -> config key
var flagKeys = map[string]string{
	"o":        "output_dir",
	"data":     "data_dir",
	"bed":      "bed_file",
	"prefixes": "prefixes",
	"count":    "kmer_counting",
	"t":        "threads_number",
	"p":        "p_corrected_bon_thresh",
	"min":      "kmer_thresh_min",
	"max":      "kmer_thresh_max",
	"webhook":  "webhook_key",
	"progress": "progress",
}

// embed etc
//
//go:embed etc/*.txt
var etcEMFS embed.FS

func openConfig() (io.ReadCloser, error) {
	if *configPath != "" {
		return os.Open(*configPath)
	}
	var local = filepath.Join(exPath, "etc", "config.txt")
	if miteKmer.Exists(local) {
		return os.Open(local)
	}
	return etcEMFS.Open("etc/config.txt")
}

func loadParameters() *miteKmer.Parameters {
	var file = simpleUtil.HandleError(openConfig())
	defer simpleUtil.DeferClose(file)

	var p = miteKmer.NewParameters()
	simpleUtil.CheckErr(p.Apply(simpleUtil.HandleError(miteKmer.LoadConfig(file))))
	flag.Visit(func(f *flag.Flag) {
		if key, ok := flagKeys[f.Name]; ok {
			simpleUtil.CheckErr(p.Set(key, f.Value.String()))
		}
	})
	simpleUtil.CheckErr(p.Validate())
	return p
}

func main() {
	flag.Parse()
	now := time.Now()

	if !*debug {
		*cpuProfile = ""
		*memProfile = ""
	} else {
		slog.SetLogLoggerLevel(slog.LevelDebug)
		go LogMemStats()
	}

	if *cpuProfile != "" {
		var LogCPUProfile = osUtil.Create(*cpuProfile)
		defer simpleUtil.DeferClose(LogCPUProfile)
		simpleUtil.CheckErr(pprof.StartCPUProfile(LogCPUProfile))
		defer pprof.StopCPUProfile()
	}

	var p = loadParameters()
	slog.Info("config", "output", p.OutputDir, "prefixes", p.Prefixes, "bed", p.BedFile, "counting", p.KmerCounting)
	simpleUtil.CheckErr(os.MkdirAll(p.OutputDir, 0755))

	var batch = miteKmer.NewBatch(p)
	for _, stage := range strings.Split(*force, ",") {
		if stage = strings.TrimSpace(stage); stage != "" {
			batch.Pipeline.Force[stage] = true
		}
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	var err = batch.Run(ctx)
	stop()

	if *memProfile != "" {
		var LogMemProfile = osUtil.Create(*memProfile)
		defer simpleUtil.DeferClose(LogMemProfile)
		simpleUtil.CheckErr(pprof.WriteHeapProfile(LogMemProfile))
	}

	if err != nil {
		slog.Error("pipeline failed", "error", err, "time", time.Since(now))
		os.Exit(1)
	}
	slog.Info("Done", "time", time.Since(now))
}
