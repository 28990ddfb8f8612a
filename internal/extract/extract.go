// Package extract materializes one grid cell of a video as a standalone
// clip in the staging folder.
package extract

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/tothgergo2092/behaviour-analysis/internal/grid"
	"github.com/tothgergo2092/behaviour-analysis/internal/logger"
	"github.com/tothgergo2092/behaviour-analysis/internal/video"
)

// Artifact is one clip produced from one grid cell of one source video.
type Artifact struct {
	Video  string    // source video path
	Part   string    // unique part name, "<video>_part_<row>_<col>"
	Cell   grid.Cell
	Path   string // clip location in the staging folder
	Frames int    // frames actually written
}

// SourceError reports that a video could not be opened or read.
type SourceError struct {
	Video string
	Part  string
	Err   error
}

func (e *SourceError) Error() string {
	if e.Part == "" {
		return fmt.Sprintf("read %s: %v", e.Video, e.Err)
	}
	return fmt.Sprintf("read %s (part %s): %v", e.Video, e.Part, e.Err)
}

func (e *SourceError) Unwrap() error { return e.Err }

// SinkError reports that a staging clip could not be created or written.
type SinkError struct {
	Path string
	Err  error
}

func (e *SinkError) Error() string {
	return fmt.Sprintf("write clip %s: %v", e.Path, e.Err)
}

func (e *SinkError) Unwrap() error { return e.Err }

// Extractor crops cells out of source videos.
type Extractor struct {
	codec video.Codec
}

func New(codec video.Codec) *Extractor {
	return &Extractor{codec: codec}
}

// PartName builds the part identifier for a cell of a video. Prefixing
// with the video base name keeps parts from different videos distinct
// inside one shared staging folder.
func PartName(videoPath string, cell grid.Cell) string {
	base := filepath.Base(videoPath)
	base = strings.TrimSuffix(base, filepath.Ext(base))
	return base + "_part_" + cell.Name
}

// Extract reads every frame of the source in order, crops it to the cell
// rectangle and appends it to a clip encoded at the source frame rate.
// When the source yields fewer frames than its metadata declares, the
// clip is truncated to the frames actually available. On failure no
// partial clip is left in the staging folder.
func (x *Extractor) Extract(ctx context.Context, videoPath, stagingDir string, cell grid.Cell) (Artifact, error) {
	log := logger.Log.WithField("scope", "extract")

	src, err := x.codec.Open(ctx, videoPath)
	if err != nil {
		return Artifact{}, &SourceError{Video: videoPath, Part: cell.Name, Err: err}
	}
	defer src.Close()

	part := PartName(videoPath, cell)
	meta := src.Meta()
	out := filepath.Join(stagingDir, part+".mp4")

	sink, err := x.codec.Create(ctx, out, cell.W, cell.H, meta.FPS)
	if err != nil {
		return Artifact{}, &SinkError{Path: out, Err: err}
	}

	frame := make([]byte, meta.Width*meta.Height*3)
	crop := make([]byte, cell.W*cell.H*3)
	written := 0
	for written < meta.Frames {
		if err := src.ReadFrame(frame); err != nil {
			if errors.Is(err, io.EOF) {
				// fewer frames than declared: keep what we have
				log.Debugf("%s: stream ended after %d of %d frames", part, written, meta.Frames)
				break
			}
			discard(sink, out)
			return Artifact{}, &SourceError{Video: videoPath, Part: cell.Name, Err: err}
		}
		cropFrame(frame, meta.Width, cell, crop)
		if err := sink.WriteFrame(crop); err != nil {
			discard(sink, out)
			return Artifact{}, &SinkError{Path: out, Err: err}
		}
		written++
	}
	if err := sink.Close(); err != nil {
		_ = os.Remove(out)
		return Artifact{}, &SinkError{Path: out, Err: err}
	}

	log.Debugf("%s: %d frames, %dx%d", part, written, cell.W, cell.H)
	return Artifact{
		Video:  videoPath,
		Part:   part,
		Cell:   cell,
		Path:   out,
		Frames: written,
	}, nil
}

// cropFrame copies the cell rectangle of a packed BGR24 frame into dst.
func cropFrame(frame []byte, frameW int, c grid.Cell, dst []byte) {
	rowLen := c.W * 3
	for row := 0; row < c.H; row++ {
		srcOff := ((c.Y+row)*frameW + c.X) * 3
		copy(dst[row*rowLen:(row+1)*rowLen], frame[srcOff:srcOff+rowLen])
	}
}

func discard(sink video.Sink, path string) {
	_ = sink.Close()
	_ = os.Remove(path)
}
