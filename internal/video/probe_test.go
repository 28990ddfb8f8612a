package video

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseProbeJSON(t *testing.T) {
	data := []byte(`{
		"streams": [
			{"codec_type": "audio", "sample_rate": "48000"},
			{"codec_type": "video", "width": 640, "height": 480,
			 "nb_frames": "10", "avg_frame_rate": "30/1", "r_frame_rate": "30/1"}
		],
		"format": {"duration": "0.333333"}
	}`)

	m, err := ParseProbeJSON(data)
	require.NoError(t, err)
	assert.Equal(t, 640, m.Width)
	assert.Equal(t, 480, m.Height)
	assert.Equal(t, 10, m.Frames)
	assert.InDelta(t, 30.0, m.FPS, 1e-9)
}

func TestParseProbeJSONEstimatesFramesFromDuration(t *testing.T) {
	data := []byte(`{
		"streams": [
			{"codec_type": "video", "width": 1920, "height": 1080,
			 "avg_frame_rate": "30000/1001"}
		],
		"format": {"duration": "2.002"}
	}`)

	m, err := ParseProbeJSON(data)
	require.NoError(t, err)
	assert.Equal(t, 60, m.Frames)
	assert.InDelta(t, 29.97, m.FPS, 0.01)
}

func TestParseProbeJSONErrors(t *testing.T) {
	testCases := []struct {
		name string
		data string
	}{
		{"not json", `garbage`},
		{"no video stream", `{"streams": [{"codec_type": "audio"}]}`},
		{"no geometry", `{"streams": [{"codec_type": "video", "nb_frames": "5"}]}`},
		{"no frame count", `{"streams": [{"codec_type": "video", "width": 10, "height": 10, "avg_frame_rate": "30/1"}], "format": {}}`},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := ParseProbeJSON([]byte(tc.data))
			assert.Error(t, err)
		})
	}
}

func TestParseRational(t *testing.T) {
	assert.InDelta(t, 25.0, parseRational("25/1"), 1e-9)
	assert.InDelta(t, 29.97003, parseRational("30000/1001"), 1e-4)
	assert.InDelta(t, 30.0, parseRational("30"), 1e-9)
	assert.Zero(t, parseRational("0/0"))
	assert.Zero(t, parseRational("x/y"))
}
