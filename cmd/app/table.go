package main

import (
	"fmt"
	"sort"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"

	"github.com/tothgergo2092/behaviour-analysis/internal/pipeline"
)

func newWriter() table.Writer {
	tw := table.NewWriter()
	tw.SetStyle(table.StyleRounded)
	tw.SetColumnConfigs([]table.ColumnConfig{
		{Number: 2, Align: text.AlignRight},
		{Number: 3, Align: text.AlignRight},
		{Number: 4, Align: text.AlignRight},
	})
	return tw
}

// renderSummary renders the per-worker clip counts of a finished run.
func renderSummary(stats pipeline.Stats) string {
	workers := make([]string, 0, len(stats.PerWorker))
	for w := range stats.PerWorker {
		workers = append(workers, w)
	}
	sort.Strings(workers)

	tw := newWriter()
	tw.AppendHeader(table.Row{"Worker", "Clips"})
	for _, w := range workers {
		tw.AppendRow(table.Row{w, stats.PerWorker[w]})
	}
	tw.AppendFooter(table.Row{"total", stats.Placed})
	return tw.Render()
}

// renderPlan renders the dry-run view: one row per video plus the
// expected per-worker load.
func renderPlan(rows [][]string, totalClips, workers int) string {
	tw := newWriter()
	tw.AppendHeader(table.Row{"Video", "Frame", "Frames", "Cells"})
	for _, r := range rows {
		tw.AppendRow(table.Row{r[0], r[1], r[2], r[3]})
	}

	load := fmt.Sprintf("%d", totalClips/workers)
	if totalClips%workers != 0 {
		load = fmt.Sprintf("%d-%d", totalClips/workers, totalClips/workers+1)
	}
	tw.AppendFooter(table.Row{"clips per worker", "", "", load})
	return tw.Render()
}
