package partition

import (
	"context"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tothgergo2092/behaviour-analysis/internal/extract"
	"github.com/tothgergo2092/behaviour-analysis/internal/grid"
	"github.com/tothgergo2092/behaviour-analysis/internal/testsupport"
	"github.com/tothgergo2092/behaviour-analysis/internal/video"
)

func planCells(t *testing.T, w, h, rows, cols int) []grid.Cell {
	t.Helper()
	cells, err := grid.Plan(w, h, grid.Spec{Rows: rows, Cols: cols})
	require.NoError(t, err)
	return cells
}

func TestSplitProducesOneArtifactPerCell(t *testing.T) {
	codec := testsupport.NewMemCodec()
	codec.AddVideo("/v/a.mp4", video.Meta{Width: 12, Height: 9, Frames: 4, FPS: 30}, 4)

	cells := planCells(t, 12, 9, 3, 4)
	runner := NewRunner(extract.New(codec), 4)

	arts, err := runner.Split(context.Background(), "/v/a.mp4", t.TempDir(), cells)
	require.NoError(t, err)
	require.Len(t, arts, len(cells))

	// completion order is unspecified; match on the carried cell names
	got := make(map[string]bool)
	for _, a := range arts {
		got[a.Cell.Name] = true
		assert.Equal(t, 4, a.Frames)
	}
	for _, c := range cells {
		assert.True(t, got[c.Name], "missing artifact for cell %s", c.Name)
	}
}

func TestSplitWithSingleWorker(t *testing.T) {
	codec := testsupport.NewMemCodec()
	codec.AddVideo("/v/a.mp4", video.Meta{Width: 6, Height: 6, Frames: 2, FPS: 10}, 2)

	runner := NewRunner(extract.New(codec), 1)
	arts, err := runner.Split(context.Background(), "/v/a.mp4", t.TempDir(), planCells(t, 6, 6, 2, 2))
	require.NoError(t, err)
	assert.Len(t, arts, 4)
}

func TestSplitReportsFailuresWithoutDroppingSiblings(t *testing.T) {
	codec := testsupport.NewMemCodec()
	codec.AddVideo("/v/a.mp4", video.Meta{Width: 6, Height: 6, Frames: 2, FPS: 10}, 2)
	// the 0_0 cell's sink refuses writes, the other three succeed
	codec.FailWriteSubstring = "a_part_0_0"

	runner := NewRunner(extract.New(codec), 2)
	arts, err := runner.Split(context.Background(), "/v/a.mp4", t.TempDir(), planCells(t, 6, 6, 2, 2))

	var sinkErr *extract.SinkError
	require.ErrorAs(t, err, &sinkErr)
	assert.Len(t, arts, 3, "surviving cells must still be returned")
	for _, a := range arts {
		assert.NotEqual(t, "0_0", a.Cell.Name)
	}
}

func TestSplitCallsProgressHookPerCell(t *testing.T) {
	codec := testsupport.NewMemCodec()
	codec.AddVideo("/v/a.mp4", video.Meta{Width: 8, Height: 8, Frames: 1, FPS: 10}, 1)

	runner := NewRunner(extract.New(codec), 3)
	var done atomic.Int64
	runner.OnCellDone = func() { done.Add(1) }

	_, err := runner.Split(context.Background(), "/v/a.mp4", t.TempDir(), planCells(t, 8, 8, 2, 4))
	require.NoError(t, err)
	assert.EqualValues(t, 8, done.Load())
}

func TestSplitStopsFeedingOnCancel(t *testing.T) {
	codec := testsupport.NewMemCodec()
	codec.AddVideo("/v/a.mp4", video.Meta{Width: 8, Height: 8, Frames: 1, FPS: 10}, 1)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	runner := NewRunner(extract.New(codec), 2)
	_, err := runner.Split(ctx, "/v/a.mp4", t.TempDir(), planCells(t, 8, 8, 4, 4))
	assert.ErrorIs(t, err, context.Canceled)
}
