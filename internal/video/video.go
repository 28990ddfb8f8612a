// Package video abstracts frame-level decode and encode of video files.
// Frames cross the boundary as packed BGR24 bytes, one row after another,
// so callers can crop and re-encode without caring about the container.
package video

import "context"

// Meta describes the geometry and timing of an opened video stream.
type Meta struct {
	Width  int
	Height int
	Frames int
	FPS    float64
}

// Source yields the frames of one video in order.
type Source interface {
	Meta() Meta
	// ReadFrame fills buf with the next frame. buf must hold exactly
	// Width*Height*3 bytes. Returns io.EOF once the stream is exhausted,
	// which may happen before Meta().Frames frames have been read when
	// the container over-reports its frame count.
	ReadFrame(buf []byte) error
	Close() error
}

// Sink accepts frames in sequence and writes a clip on Close.
type Sink interface {
	// WriteFrame appends one frame of exactly the size the sink was
	// created with.
	WriteFrame(buf []byte) error
	Close() error
}

// Codec is the decode/encode capability. Any implementation is
// interchangeable as far as the rest of the pipeline is concerned.
type Codec interface {
	Open(ctx context.Context, path string) (Source, error)
	Create(ctx context.Context, path string, w, h int, fps float64) (Sink, error)
}
