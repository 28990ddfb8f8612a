// Package pipeline runs the full split-and-distribute flow: enumerate
// the source videos, extract every grid cell in parallel, then shuffle
// and hand the clips out to the annotation workers.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/tothgergo2092/behaviour-analysis/internal/config"
	"github.com/tothgergo2092/behaviour-analysis/internal/distribute"
	"github.com/tothgergo2092/behaviour-analysis/internal/extract"
	"github.com/tothgergo2092/behaviour-analysis/internal/grid"
	"github.com/tothgergo2092/behaviour-analysis/internal/logger"
	"github.com/tothgergo2092/behaviour-analysis/internal/partition"
	"github.com/tothgergo2092/behaviour-analysis/internal/progress"
	"github.com/tothgergo2092/behaviour-analysis/internal/video"
)

var ErrMissingSourceDir = errors.New("source video folder does not exist")

// Stats aggregates one run.
type Stats struct {
	Videos      int
	FailedCells int
	Clips       int
	Placed      int
	Skipped     int
	PerWorker   map[string]int
}

// Run executes one full distribution run. Preconditions are checked
// before any side effect; per-cell extraction failures are collected,
// logged and joined into the returned error while the surviving clips
// are still distributed. The staging folder is removed on every exit
// path.
func Run(ctx context.Context, cfg config.Config, codec video.Codec) (Stats, error) {
	log := logger.Log.WithField("scope", "pipeline")
	stats := Stats{PerWorker: make(map[string]int)}

	fi, err := os.Stat(cfg.Source.Dir)
	if err != nil || !fi.IsDir() {
		return stats, fmt.Errorf("%w: %s", ErrMissingSourceDir, cfg.Source.Dir)
	}

	videos, err := Discover(cfg.Source.Dir, cfg.Source.Extensions)
	if err != nil {
		return stats, err
	}
	if len(videos) == 0 {
		log.Warnf("no videos found in %s", cfg.Source.Dir)
		return stats, nil
	}
	log.Infof("found %d videos in %s", len(videos), cfg.Source.Dir)

	staging := filepath.Join(cfg.Source.StagingRoot, "parts-"+uuid.NewString())
	if err := os.MkdirAll(staging, 0o755); err != nil {
		return stats, fmt.Errorf("create staging folder: %w", err)
	}
	defer func() {
		if err := os.RemoveAll(staging); err != nil {
			log.Warnf("cleanup staging %s: %v", staging, err)
		}
	}()

	spec := grid.Spec{Rows: cfg.Grid.NParts, Cols: cfg.Grid.MParts}
	runner := partition.NewRunner(extract.New(codec), cfg.Pool.Size)

	var runErrs []error
	var artifacts []extract.Artifact
	for _, path := range videos {
		arts, err := splitVideo(ctx, runner, codec, path, staging, spec)
		artifacts = append(artifacts, arts...)
		if err != nil {
			if errors.Is(err, grid.ErrInvalidSpec) || ctx.Err() != nil {
				return stats, err
			}
			log.Errorf("split %s: %v", path, err)
			runErrs = append(runErrs, err)
		}
		stats.Videos++
	}
	stats.Clips = len(artifacts)
	stats.FailedCells = stats.Videos*spec.Rows*spec.Cols - stats.Clips

	if cfg.Workers.Clean {
		cleanWorkers(cfg.Workers.Dirs, log)
	}

	opts := []distribute.Option{policyOption(cfg.Distribute.OnMissingWorker)}
	if cfg.Distribute.Seed != nil {
		opts = append(opts, distribute.WithSeed(*cfg.Distribute.Seed))
	}
	d := distribute.New(cfg.Workers.Dirs, opts...)

	report, err := d.Place(d.Assign(artifacts))
	stats.Placed = report.Placed
	stats.Skipped = report.Skipped
	for w, n := range report.PerWorker {
		stats.PerWorker[w] = n
	}
	if err != nil {
		runErrs = append(runErrs, err)
	}

	log.Infof("placed %d clips across %d workers (%d skipped, %d cells failed)",
		stats.Placed, len(cfg.Workers.Dirs), stats.Skipped, stats.FailedCells)
	return stats, errors.Join(runErrs...)
}

// splitVideo probes one video, plans its grid and extracts all cells.
func splitVideo(ctx context.Context, runner *partition.Runner, codec video.Codec, path, staging string, spec grid.Spec) ([]extract.Artifact, error) {
	src, err := codec.Open(ctx, path)
	if err != nil {
		return nil, &extract.SourceError{Video: path, Err: err}
	}
	meta := src.Meta()
	_ = src.Close()

	cells, err := grid.Plan(meta.Width, meta.Height, spec)
	if err != nil {
		return nil, err
	}

	bar := progress.NewBar(len(cells), "Splitting "+filepath.Base(path)+"... ")
	runner.OnCellDone = func() { bar.Add(1) }
	defer bar.Finish()

	return runner.Split(ctx, path, staging, cells)
}

func policyOption(name string) distribute.Option {
	if name == config.PolicySkip {
		return distribute.WithPolicy(distribute.PolicySkip)
	}
	return distribute.WithPolicy(distribute.PolicyAbort)
}

// cleanWorkers empties each existing worker directory so a re-run does
// not duplicate clips.
func cleanWorkers(workers []string, log *logrus.Entry) {
	for _, w := range workers {
		entries, err := os.ReadDir(w)
		if err != nil {
			log.Warnf("clean worker %s: %v", w, err)
			continue
		}
		for _, e := range entries {
			if err := os.RemoveAll(filepath.Join(w, e.Name())); err != nil {
				log.Warnf("clean worker %s: %v", w, err)
			}
		}
	}
}
