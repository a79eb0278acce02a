package miteKmer

import (
	"math"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/opts"
	"github.com/go-echarts/go-echarts/v2/types"
	"github.com/liserjrqlxue/goUtil/osUtil"
	"github.com/liserjrqlxue/goUtil/simpleUtil"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
)

const histBins = 20

// negLog10 maps p to -log10(p), with p == 0 capped at the smallest float
func negLog10(p float64) float64 {
	if p <= 0 {
		p = math.SmallestNonzeroFloat64
	}
	return -math.Log10(p)
}

func generateScatterItems(stats []KmerStat, limit int) []opts.ScatterData {
	var items = make([]opts.ScatterData, 0, len(stats))
	for i, stat := range stats {
		if limit > 0 && i >= limit {
			break
		}
		items = append(items, opts.ScatterData{
			Name:  stat.Kmer,
			Value: []interface{}{stat.Freq, negLog10(stat.PCorrectedBon)},
		})
	}
	return items
}

// PlotScatter renders freq against -log10(p_corrected_bon) as an html chart
func PlotScatter(path, subtitle string, stats []KmerStat, limit int) {
	var (
		scatter = charts.NewScatter()
		output  = osUtil.Create(path)
	)
	defer simpleUtil.DeferClose(output)

	scatter.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{Theme: types.ThemeWesteros}),
		charts.WithTitleOpts(opts.Title{
			Title:    "k-mer enrichment in mite regions",
			Subtitle: subtitle,
		}),
		charts.WithXAxisOpts(opts.XAxis{Name: ColFreq, Type: "value"}),
		charts.WithYAxisOpts(opts.YAxis{Name: "-log10(" + ColPCorrectedBon + ")", Type: "value"}),
	)
	scatter.AddSeries("k-mer", generateScatterItems(stats, limit))
	simpleUtil.CheckErr(scatter.Render(output))
}

// PlotPValueHist saves a histogram of the raw Fisher p-values as png
func PlotPValueHist(path string, stats []KmerStat) {
	var p = plot.New()
	p.Title.Text = "Fisher exact p-value"
	p.X.Label.Text = ColP
	p.Y.Label.Text = "k-mers"

	if len(stats) > 0 {
		var values = make(plotter.Values, len(stats))
		for i, stat := range stats {
			values[i] = stat.P
		}
		var hist = simpleUtil.HandleError(plotter.NewHist(values, histBins))
		p.Add(hist)
	}
	simpleUtil.CheckErr(p.Save(8*vg.Inch, 6*vg.Inch, path))
}
