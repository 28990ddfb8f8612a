// Package testsupport provides an in-memory video codec so pipeline
// behavior can be tested without ffmpeg.
package testsupport

import (
	"context"
	"encoding/binary"
	"fmt"
	"io"
	"math"
	"os"
	"strings"
	"sync"

	"github.com/tothgergo2092/behaviour-analysis/internal/video"
)

// FramePixel is the deterministic value of the blue channel of pixel
// (x, y) in frame f of every synthetic video. Green and red are the two
// following values. Tests use it to check crops against the source.
func FramePixel(frame, x, y int) byte {
	return byte((frame*31 + x*7 + y*13) % 251)
}

// MemCodec implements video.Codec over synthetic in-memory sources and
// sinks that persist clips in a trivial container (see WriteClip).
type MemCodec struct {
	mu        sync.Mutex
	videos    map[string]video.Meta
	available map[string]int

	// FailOpen makes Open return the given error for a path.
	FailOpen map[string]error
	// FailWriteSubstring makes WriteFrame fail for any sink whose path
	// contains the substring.
	FailWriteSubstring string
}

func NewMemCodec() *MemCodec {
	return &MemCodec{
		videos:    make(map[string]video.Meta),
		available: make(map[string]int),
		FailOpen:  make(map[string]error),
	}
}

// AddVideo registers a synthetic video. available is how many frames the
// stream really yields; pass meta.Frames for a well-formed video or less
// to simulate a container that over-reports its frame count.
func (c *MemCodec) AddVideo(path string, meta video.Meta, available int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.videos[path] = meta
	c.available[path] = available
}

func (c *MemCodec) Open(_ context.Context, path string) (video.Source, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err, ok := c.FailOpen[path]; ok {
		return nil, err
	}
	meta, ok := c.videos[path]
	if !ok {
		return nil, fmt.Errorf("no such video %q", path)
	}
	return &memSource{meta: meta, available: c.available[path]}, nil
}

func (c *MemCodec) Create(_ context.Context, path string, w, h int, fps float64) (video.Sink, error) {
	if c.FailWriteSubstring != "" && strings.Contains(path, c.FailWriteSubstring) {
		return &failSink{}, nil
	}
	return &memSink{path: path, w: w, h: h, fps: fps}, nil
}

type memSource struct {
	meta      video.Meta
	available int
	next      int
}

func (s *memSource) Meta() video.Meta { return s.meta }

func (s *memSource) ReadFrame(buf []byte) error {
	if s.next >= s.available {
		return io.EOF
	}
	w, h := s.meta.Width, s.meta.Height
	if len(buf) != w*h*3 {
		return fmt.Errorf("frame buffer is %d bytes, want %d", len(buf), w*h*3)
	}
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			v := FramePixel(s.next, x, y)
			off := (y*w + x) * 3
			buf[off] = v
			buf[off+1] = v + 1
			buf[off+2] = v + 2
		}
	}
	s.next++
	return nil
}

func (s *memSource) Close() error { return nil }

type memSink struct {
	path   string
	w, h   int
	fps    float64
	frames [][]byte
}

func (s *memSink) WriteFrame(buf []byte) error {
	if len(buf) != s.w*s.h*3 {
		return fmt.Errorf("frame is %d bytes, want %d", len(buf), s.w*s.h*3)
	}
	cp := make([]byte, len(buf))
	copy(cp, buf)
	s.frames = append(s.frames, cp)
	return nil
}

func (s *memSink) Close() error {
	return WriteClip(s.path, s.w, s.h, s.fps, s.frames)
}

type failSink struct{}

func (failSink) WriteFrame([]byte) error { return fmt.Errorf("sink write refused") }
func (failSink) Close() error            { return nil }

// Clip is a decoded synthetic clip file.
type Clip struct {
	W, H   int
	FPS    float64
	Frames [][]byte
}

// Pixel returns the blue channel of pixel (x, y) in frame f.
func (c *Clip) Pixel(f, x, y int) byte {
	return c.Frames[f][(y*c.W+x)*3]
}

const clipMagic = "MCLP"

// WriteClip persists frames in a minimal container: magic, geometry, fps
// and raw BGR24 payload.
func WriteClip(path string, w, h int, fps float64, frames [][]byte) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	hdr := make([]byte, 4+4+4+4+8)
	copy(hdr, clipMagic)
	binary.LittleEndian.PutUint32(hdr[4:], uint32(w))
	binary.LittleEndian.PutUint32(hdr[8:], uint32(h))
	binary.LittleEndian.PutUint32(hdr[12:], uint32(len(frames)))
	binary.LittleEndian.PutUint64(hdr[16:], math.Float64bits(fps))
	if _, err := f.Write(hdr); err != nil {
		return err
	}
	for _, fr := range frames {
		if _, err := f.Write(fr); err != nil {
			return err
		}
	}
	return f.Close()
}

// ReadClip parses a file written by WriteClip.
func ReadClip(path string) (*Clip, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	if len(data) < 24 || string(data[:4]) != clipMagic {
		return nil, fmt.Errorf("%q is not a clip file", path)
	}
	c := &Clip{
		W:   int(binary.LittleEndian.Uint32(data[4:])),
		H:   int(binary.LittleEndian.Uint32(data[8:])),
		FPS: math.Float64frombits(binary.LittleEndian.Uint64(data[16:])),
	}
	count := int(binary.LittleEndian.Uint32(data[12:]))
	frameLen := c.W * c.H * 3
	payload := data[24:]
	if len(payload) != count*frameLen {
		return nil, fmt.Errorf("clip %q payload is %d bytes, want %d", path, len(payload), count*frameLen)
	}
	for i := 0; i < count; i++ {
		c.Frames = append(c.Frames, payload[i*frameLen:(i+1)*frameLen])
	}
	return c, nil
}
