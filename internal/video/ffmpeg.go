package video

import (
	"context"
	"fmt"
	"io"
	"os/exec"
	"strconv"

	"github.com/tothgergo2092/behaviour-analysis/internal/logger"
)

// FFmpeg implements Codec by shelling out to ffmpeg/ffprobe. Frames are
// streamed as rawvideo bgr24 over stdin/stdout pipes so no intermediate
// frame files touch the disk.
type FFmpeg struct{}

func (FFmpeg) Open(ctx context.Context, path string) (Source, error) {
	meta, err := probe(ctx, path)
	if err != nil {
		return nil, err
	}

	cmd := exec.CommandContext(ctx, "ffmpeg",
		"-v", "quiet",
		"-i", path,
		"-f", "rawvideo",
		"-pix_fmt", "bgr24",
		"-",
	)
	logger.Log.WithField("scope", "ffmpeg").Debugf("decode: %v", cmd.Args)

	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, err
	}
	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("start ffmpeg for %q: %w", path, err)
	}
	return &ffmpegSource{meta: meta, cmd: cmd, out: stdout}, nil
}

func (FFmpeg) Create(ctx context.Context, path string, w, h int, fps float64) (Sink, error) {
	size := strconv.Itoa(w) + "x" + strconv.Itoa(h)
	cmd := exec.CommandContext(ctx, "ffmpeg",
		"-v", "quiet",
		"-y",
		"-f", "rawvideo",
		"-pix_fmt", "bgr24",
		"-s", size,
		"-r", strconv.FormatFloat(fps, 'f', -1, 64),
		"-i", "-",
		"-pix_fmt", "yuv420p",
		path,
	)
	logger.Log.WithField("scope", "ffmpeg").Debugf("encode: %v", cmd.Args)

	stdin, err := cmd.StdinPipe()
	if err != nil {
		return nil, err
	}
	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("start ffmpeg for %q: %w", path, err)
	}
	return &ffmpegSink{cmd: cmd, in: stdin}, nil
}

type ffmpegSource struct {
	meta Meta
	cmd  *exec.Cmd
	out  io.ReadCloser
}

func (s *ffmpegSource) Meta() Meta { return s.meta }

func (s *ffmpegSource) ReadFrame(buf []byte) error {
	_, err := io.ReadFull(s.out, buf)
	if err == io.ErrUnexpectedEOF {
		// a torn trailing frame is treated as end of stream
		return io.EOF
	}
	return err
}

func (s *ffmpegSource) Close() error {
	// drain so ffmpeg can exit instead of blocking on a full pipe
	_, _ = io.Copy(io.Discard, s.out)
	_ = s.out.Close()
	return s.cmd.Wait()
}

type ffmpegSink struct {
	cmd *exec.Cmd
	in  io.WriteCloser
}

func (s *ffmpegSink) WriteFrame(buf []byte) error {
	_, err := s.in.Write(buf)
	return err
}

func (s *ffmpegSink) Close() error {
	if err := s.in.Close(); err != nil {
		_ = s.cmd.Wait()
		return err
	}
	return s.cmd.Wait()
}
