package video

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"os/exec"
	"strconv"
	"strings"
)

// probe runs a single ffprobe JSON call against path and returns the
// stream geometry of the first video stream.
func probe(ctx context.Context, path string) (Meta, error) {
	cmd := exec.CommandContext(ctx, "ffprobe",
		"-v", "quiet",
		"-print_format", "json",
		"-show_format", "-show_streams",
		path,
	)

	out, err := cmd.Output()
	if err != nil {
		return Meta{}, fmt.Errorf("ffprobe %q: %w", path, err)
	}
	return ParseProbeJSON(out)
}

// ParseProbeJSON converts raw ffprobe JSON output into a Meta. Exported
// for testing without a real ffprobe binary.
func ParseProbeJSON(data []byte) (Meta, error) {
	var raw ffprobeOutput
	if err := json.Unmarshal(data, &raw); err != nil {
		return Meta{}, fmt.Errorf("parse ffprobe JSON: %w", err)
	}

	for _, s := range raw.Streams {
		if s.CodecType != "video" {
			continue
		}
		m := Meta{
			Width:  s.Width,
			Height: s.Height,
			FPS:    parseRational(s.AvgFrameRate),
		}
		if m.Width <= 0 || m.Height <= 0 {
			return Meta{}, fmt.Errorf("video stream has no geometry (%dx%d)", s.Width, s.Height)
		}
		if m.FPS <= 0 {
			m.FPS = parseRational(s.RFrameRate)
		}
		m.Frames, _ = strconv.Atoi(s.NbFrames)
		if m.Frames <= 0 {
			// some containers omit nb_frames, estimate from duration
			if dur, err := strconv.ParseFloat(raw.Format.Duration, 64); err == nil && m.FPS > 0 {
				m.Frames = int(math.Round(dur * m.FPS))
			}
		}
		if m.Frames <= 0 {
			return Meta{}, fmt.Errorf("cannot determine frame count")
		}
		return m, nil
	}
	return Meta{}, fmt.Errorf("no video stream found")
}

// parseRational parses ffprobe frame rates like "30000/1001" or "25/1".
func parseRational(s string) float64 {
	num, den, ok := strings.Cut(s, "/")
	if !ok {
		f, _ := strconv.ParseFloat(s, 64)
		return f
	}
	n, err1 := strconv.ParseFloat(num, 64)
	d, err2 := strconv.ParseFloat(den, 64)
	if err1 != nil || err2 != nil || d == 0 {
		return 0
	}
	return n / d
}

// --- ffprobe JSON wire types ---

type ffprobeOutput struct {
	Format  ffprobeFormat   `json:"format"`
	Streams []ffprobeStream `json:"streams"`
}

type ffprobeFormat struct {
	Duration string `json:"duration"`
}

type ffprobeStream struct {
	CodecType    string `json:"codec_type"`
	Width        int    `json:"width"`
	Height       int    `json:"height"`
	NbFrames     string `json:"nb_frames"`
	AvgFrameRate string `json:"avg_frame_rate"`
	RFrameRate   string `json:"r_frame_rate"`
}
