package meta

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os/exec"
	"strconv"
	"strings"
	"time"

	"github.com/franz/soundscape-inventory/internal/util"
)

// DefaultFFprobeTimeout bounds a single ffprobe invocation
const DefaultFFprobeTimeout = 30 * time.Second

// FFprobeInfo represents the output from ffprobe
type FFprobeInfo struct {
	Streams []FFprobeStream `json:"streams"`
	Format  *FFprobeFormat  `json:"format"`
}

// IntOrString can unmarshal both integers and strings from JSON
type IntOrString struct {
	Value int
}

// UnmarshalJSON implements custom unmarshaling for IntOrString
func (i *IntOrString) UnmarshalJSON(data []byte) error {
	var intVal int
	if err := json.Unmarshal(data, &intVal); err == nil {
		i.Value = intVal
		return nil
	}

	var strVal string
	if err := json.Unmarshal(data, &strVal); err != nil {
		return err
	}

	// "N/A" and other non-numeric strings decode as 0
	parsed, err := strconv.Atoi(strVal)
	if err != nil {
		i.Value = 0
		return nil
	}
	i.Value = parsed
	return nil
}

// FFprobeStream represents an audio stream
type FFprobeStream struct {
	Index         int         `json:"index"`
	CodecName     string      `json:"codec_name"`
	CodecType     string      `json:"codec_type"`
	SampleFmt     string      `json:"sample_fmt"`
	SampleRate    IntOrString `json:"sample_rate"`
	Channels      int         `json:"channels"`
	BitsPerSample IntOrString `json:"bits_per_sample"`
	BitsPerRaw    IntOrString `json:"bits_per_raw_sample"`
	DurationTS    IntOrString `json:"duration_ts"`
	Duration      string      `json:"duration"`
}

// FFprobeFormat represents container format metadata
type FFprobeFormat struct {
	Filename   string `json:"filename"`
	FormatName string `json:"format_name"`
	Duration   string `json:"duration"`
	Size       string `json:"size"`
}

// RunFFprobe executes ffprobe and parses the JSON output. A zero timeout
// uses DefaultFFprobeTimeout.
func RunFFprobe(ctx context.Context, path string, timeout time.Duration) (*FFprobeInfo, error) {
	if _, err := exec.LookPath("ffprobe"); err != nil {
		return nil, util.ErrNotFound
	}
	if timeout <= 0 {
		timeout = DefaultFFprobeTimeout
	}

	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	cmd := exec.CommandContext(ctx, "ffprobe",
		"-v", "quiet",
		"-print_format", "json",
		"-show_format",
		"-show_streams",
		path,
	)

	output, err := cmd.Output()
	if err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			return nil, fmt.Errorf("ffprobe failed: %s", strings.TrimSpace(string(exitErr.Stderr)))
		}
		return nil, fmt.Errorf("ffprobe execution failed: %w", err)
	}

	var info FFprobeInfo
	if err := json.Unmarshal(output, &info); err != nil {
		return nil, fmt.Errorf("failed to parse ffprobe output: %w", err)
	}

	return &info, nil
}

// CheckFFprobeAvailable checks if ffprobe is available in PATH
func CheckFFprobeAvailable() bool {
	_, err := exec.LookPath("ffprobe")
	return err == nil
}

// Header converts the first audio stream into a Header
func (info *FFprobeInfo) Header() (*Header, error) {
	var stream *FFprobeStream
	for i := range info.Streams {
		if info.Streams[i].CodecType == "audio" {
			stream = &info.Streams[i]
			break
		}
	}
	if stream == nil {
		return nil, fmt.Errorf("%w: no audio stream", util.ErrCorrupt)
	}
	if stream.SampleRate.Value <= 0 {
		return nil, fmt.Errorf("%w: zero sample rate", util.ErrCorrupt)
	}

	bits := stream.BitsPerSample.Value
	if bits == 0 {
		bits = stream.BitsPerRaw.Value
	}

	h := &Header{
		Subtype:    codecSubtype(stream.CodecName, bits),
		SampleRate: stream.SampleRate.Value,
		Channels:   stream.Channels,
		BitDepth:   bits,
	}
	if info.Format != nil {
		name, _, _ := strings.Cut(info.Format.FormatName, ",")
		h.Format = strings.ToUpper(name)
	}

	duration := stream.Duration
	if duration == "" && info.Format != nil {
		duration = info.Format.Duration
	}
	if d, err := strconv.ParseFloat(duration, 64); err == nil {
		h.Duration = d
		h.Frames = int64(d*float64(h.SampleRate) + 0.5)
	}

	return h, nil
}

// codecSubtype maps an ffprobe codec name to the subtype naming used for
// natively parsed files
func codecSubtype(codec string, bits int) string {
	switch codec {
	case "pcm_u8":
		return "PCM_U8"
	case "pcm_s16le", "pcm_s16be":
		return "PCM_16"
	case "pcm_s24le", "pcm_s24be":
		return "PCM_24"
	case "pcm_s32le", "pcm_s32be":
		return "PCM_32"
	case "pcm_f32le", "pcm_f32be":
		return "FLOAT"
	case "pcm_f64le", "pcm_f64be":
		return "DOUBLE"
	case "pcm_alaw":
		return "ALAW"
	case "pcm_mulaw":
		return "ULAW"
	case "flac", "alac":
		if bits > 0 {
			return fmt.Sprintf("PCM_%d", bits)
		}
	case "mp3":
		return "MPEG_LAYER_III"
	}
	return strings.ToUpper(codec)
}
