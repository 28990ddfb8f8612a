// Package partition fans one video's grid cells out over a bounded pool
// of extraction workers and joins the results.
package partition

import (
	"context"
	"errors"
	"runtime"
	"sync"

	"github.com/tothgergo2092/behaviour-analysis/internal/extract"
	"github.com/tothgergo2092/behaviour-analysis/internal/grid"
	"github.com/tothgergo2092/behaviour-analysis/internal/logger"
)

// Runner extracts all cells of one video concurrently.
type Runner struct {
	extractor *extract.Extractor
	size      int

	// OnCellDone, when set, is called once per finished cell. Used for
	// progress reporting.
	OnCellDone func()
}

// NewRunner builds a runner with a pool of size parallel extractions.
// size <= 0 means one per CPU core.
func NewRunner(x *extract.Extractor, size int) *Runner {
	if size <= 0 {
		size = runtime.NumCPU()
	}
	return &Runner{extractor: x, size: size}
}

type result struct {
	art extract.Artifact
	err error
}

// Split extracts every cell of videoPath into stagingDir, one pool task
// per cell. It returns once all tasks have completed or failed. Artifact
// order follows task completion, not cell order. A failed cell does not
// cancel its siblings; every failure is collected and joined into the
// returned error alongside whatever artifacts were produced.
func (r *Runner) Split(ctx context.Context, videoPath, stagingDir string, cells []grid.Cell) ([]extract.Artifact, error) {
	log := logger.Log.WithField("scope", "partition")
	log.Debugf("splitting %s into %d cells with %d workers", videoPath, len(cells), r.size)

	jobs := make(chan grid.Cell)
	results := make(chan result, len(cells))

	var wg sync.WaitGroup
	for i := 0; i < r.size; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for cell := range jobs {
				art, err := r.extractor.Extract(ctx, videoPath, stagingDir, cell)
				results <- result{art: art, err: err}
				if r.OnCellDone != nil {
					r.OnCellDone()
				}
			}
		}()
	}

	var errs []error
feed:
	for _, cell := range cells {
		if ctx.Err() != nil {
			errs = append(errs, ctx.Err())
			break
		}
		select {
		case jobs <- cell:
		case <-ctx.Done():
			errs = append(errs, ctx.Err())
			break feed
		}
	}
	close(jobs)
	wg.Wait()
	close(results)

	var artifacts []extract.Artifact
	for res := range results {
		if res.err != nil {
			errs = append(errs, res.err)
			continue
		}
		artifacts = append(artifacts, res.art)
	}
	return artifacts, errors.Join(errs...)
}
