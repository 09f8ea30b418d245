package meta

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/franz/soundscape-inventory/internal/util"
)

func TestIntOrStringUnmarshal(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected int
	}{
		{
			name:     "integer value",
			input:    `{"value": 16}`,
			expected: 16,
		},
		{
			name:     "string integer",
			input:    `{"value": "24"}`,
			expected: 24,
		},
		{
			name:     "N/A string",
			input:    `{"value": "N/A"}`,
			expected: 0,
		},
		{
			name:     "empty string",
			input:    `{"value": ""}`,
			expected: 0,
		},
		{
			name:     "zero",
			input:    `{"value": 0}`,
			expected: 0,
		},
		{
			name:     "invalid string",
			input:    `{"value": "invalid"}`,
			expected: 0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var result struct {
				Value IntOrString `json:"value"`
			}

			err := json.Unmarshal([]byte(tt.input), &result)
			if err != nil {
				t.Fatalf("Failed to unmarshal: %v", err)
			}

			if result.Value.Value != tt.expected {
				t.Errorf("Expected %d, got %d", tt.expected, result.Value.Value)
			}
		})
	}
}

func TestFFprobeHeader(t *testing.T) {
	// Real-world output for a 16-bit mono recorder file
	jsonData := `{
		"streams": [
			{"index": 0, "codec_name": "mjpeg", "codec_type": "video"},
			{
				"index": 1,
				"codec_name": "pcm_s16le",
				"codec_type": "audio",
				"sample_rate": "48000",
				"channels": 1,
				"bits_per_sample": 16,
				"bits_per_raw_sample": "N/A",
				"duration": "600.5"
			}
		],
		"format": {"format_name": "wav", "duration": "600.500000", "size": "57648044"}
	}`

	var info FFprobeInfo
	if err := json.Unmarshal([]byte(jsonData), &info); err != nil {
		t.Fatalf("Failed to unmarshal FFprobeInfo: %v", err)
	}

	h, err := info.Header()
	if err != nil {
		t.Fatalf("Header failed: %v", err)
	}

	if h.Format != "WAV" {
		t.Errorf("Expected format WAV, got %s", h.Format)
	}
	if h.Subtype != "PCM_16" {
		t.Errorf("Expected subtype PCM_16, got %s", h.Subtype)
	}
	if h.SampleRate != 48000 {
		t.Errorf("Expected sample rate 48000, got %d", h.SampleRate)
	}
	if h.Channels != 1 {
		t.Errorf("Expected 1 channel, got %d", h.Channels)
	}
	if h.Duration != 600.5 {
		t.Errorf("Expected duration 600.5, got %v", h.Duration)
	}
	if h.Frames != 28824000 {
		t.Errorf("Expected 28824000 frames, got %d", h.Frames)
	}
}

func TestFFprobeHeaderFallbacks(t *testing.T) {
	// FLAC in Ogg: no stream duration, bits only in bits_per_raw_sample
	jsonData := `{
		"streams": [{
			"codec_name": "flac",
			"codec_type": "audio",
			"sample_rate": "44100",
			"channels": 2,
			"bits_per_sample": 0,
			"bits_per_raw_sample": "24"
		}],
		"format": {"format_name": "ogg", "duration": "12.0"}
	}`

	var info FFprobeInfo
	if err := json.Unmarshal([]byte(jsonData), &info); err != nil {
		t.Fatalf("Failed to unmarshal FFprobeInfo: %v", err)
	}

	h, err := info.Header()
	if err != nil {
		t.Fatalf("Header failed: %v", err)
	}
	if h.Format != "OGG" || h.Subtype != "PCM_24" || h.Duration != 12 {
		t.Errorf("Unexpected header: %+v", h)
	}
}

func TestFFprobeHeaderNoAudio(t *testing.T) {
	info := FFprobeInfo{Streams: []FFprobeStream{{CodecType: "video"}}}
	if _, err := info.Header(); !errors.Is(err, util.ErrCorrupt) {
		t.Errorf("Expected ErrCorrupt, got %v", err)
	}
}

func TestCodecSubtype(t *testing.T) {
	tests := map[string]string{
		"pcm_u8":    "PCM_U8",
		"pcm_s24le": "PCM_24",
		"pcm_f32le": "FLOAT",
		"pcm_mulaw": "ULAW",
		"mp3":       "MPEG_LAYER_III",
		"vorbis":    "VORBIS",
	}
	for codec, want := range tests {
		if got := codecSubtype(codec, 0); got != want {
			t.Errorf("codecSubtype(%q) = %q, want %q", codec, got, want)
		}
	}
}
