// Package distribute shuffles the produced clips and hands them out to
// the annotation worker directories.
package distribute

import (
	"fmt"
	"math/rand"
	"os"
	"path/filepath"
	"time"

	"github.com/tothgergo2092/behaviour-analysis/internal/extract"
	"github.com/tothgergo2092/behaviour-analysis/internal/fileutil"
	"github.com/tothgergo2092/behaviour-analysis/internal/logger"
)

// Policy decides what happens when a worker directory is missing at
// assignment time.
type Policy int

const (
	// PolicyAbort stops the whole distribution at the first missing
	// worker directory. Default, so clips are never silently lost.
	PolicyAbort Policy = iota
	// PolicySkip leaves the affected clip in staging and keeps going.
	PolicySkip
)

// DestError reports a worker directory that is missing at assignment
// time.
type DestError struct {
	Worker string
	Part   string
	Err    error
}

func (e *DestError) Error() string {
	return fmt.Sprintf("worker %s cannot take part %s: %v", e.Worker, e.Part, e.Err)
}

func (e *DestError) Unwrap() error { return e.Err }

// Assignment maps one clip to exactly one worker directory.
type Assignment struct {
	Artifact extract.Artifact
	Worker   string
}

// Report summarizes a materialized distribution.
type Report struct {
	Placed    int
	Skipped   int
	PerWorker map[string]int
}

// Distributor assigns clips to a fixed, ordered list of workers.
type Distributor struct {
	workers []string
	rng     *rand.Rand
	policy  Policy
}

// Option configures a Distributor.
type Option func(*Distributor)

// WithSeed fixes the shuffle order. Without it every run shuffles
// differently, which is what decorrelates spatially adjacent cells
// across workers.
func WithSeed(seed int64) Option {
	return func(d *Distributor) { d.rng = rand.New(rand.NewSource(seed)) }
}

// WithPolicy sets the missing-worker policy.
func WithPolicy(p Policy) Option {
	return func(d *Distributor) { d.policy = p }
}

func New(workers []string, opts ...Option) *Distributor {
	d := &Distributor{
		workers: workers,
		rng:     rand.New(rand.NewSource(time.Now().UnixNano())),
		policy:  PolicyAbort,
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Assign permutes the artifacts uniformly and deals them out round-robin
// over the shuffled order, so every worker ends up with ⌊T/W⌋ or ⌈T/W⌉
// clips.
func (d *Distributor) Assign(artifacts []extract.Artifact) []Assignment {
	shuffled := make([]extract.Artifact, len(artifacts))
	copy(shuffled, artifacts)
	d.rng.Shuffle(len(shuffled), func(i, j int) {
		shuffled[i], shuffled[j] = shuffled[j], shuffled[i]
	})

	assignments := make([]Assignment, 0, len(shuffled))
	for i, art := range shuffled {
		assignments = append(assignments, Assignment{
			Artifact: art,
			Worker:   d.workers[i%len(d.workers)],
		})
	}
	return assignments
}

// Place moves each assigned clip into <worker>/<part>/, one folder per
// annotation unit. Worker directories must pre-exist; a missing one is
// handled per the configured policy. A clip either lands completely or
// stays in staging, never half-written at the destination.
func (d *Distributor) Place(assignments []Assignment) (Report, error) {
	log := logger.Log.WithField("scope", "distribute")
	report := Report{PerWorker: make(map[string]int)}

	for _, as := range assignments {
		part := as.Artifact.Part
		fi, err := os.Stat(as.Worker)
		if err != nil || !fi.IsDir() {
			if err == nil {
				err = fmt.Errorf("not a directory")
			}
			destErr := &DestError{Worker: as.Worker, Part: part, Err: err}
			if d.policy == PolicyAbort {
				return report, destErr
			}
			report.Skipped++
			log.Warnf("skipping %s: %v", part, destErr)
			continue
		}

		partDir := filepath.Join(as.Worker, part)
		if err := os.MkdirAll(partDir, 0o755); err != nil {
			return report, &DestError{Worker: as.Worker, Part: part, Err: err}
		}
		dst := filepath.Join(partDir, filepath.Base(as.Artifact.Path))
		if err := fileutil.MoveFile(as.Artifact.Path, dst); err != nil {
			return report, &DestError{Worker: as.Worker, Part: part, Err: err}
		}

		report.Placed++
		report.PerWorker[as.Worker]++
		log.Debugf("%s -> %s", part, as.Worker)
	}
	return report, nil
}
