package meta

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/dhowden/tag"
	"github.com/franz/soundscape-inventory/internal/util"
	"github.com/go-audio/wav"
	"github.com/tphakala/flac"
)

// Header holds the audio properties read without decoding sample data
type Header struct {
	Format     string
	Subtype    string
	SampleRate int
	Channels   int
	BitDepth   int
	Frames     int64

	// Duration in seconds
	Duration float64
}

// WAVE format tags
const (
	wavFormatPCM        = 0x0001
	wavFormatIEEEFloat  = 0x0003
	wavFormatALaw       = 0x0006
	wavFormatMuLaw      = 0x0007
	wavFormatExtensible = 0xFFFE
)

// HeaderReader reads audio headers. RIFF/WAVE and FLAC are parsed
// natively; other containers go to ffprobe when enabled.
type HeaderReader struct {
	FFprobe        bool
	FFprobeTimeout time.Duration
}

// ReadHeader reads the header of path with native readers and the ffprobe
// fallback enabled
func ReadHeader(ctx context.Context, path string) (*Header, error) {
	r := &HeaderReader{FFprobe: true}
	return r.Read(ctx, path)
}

// Read returns the audio header of path. Unreadable headers wrap
// util.ErrCorrupt; unknown containers wrap util.ErrUnsupported.
func (r *HeaderReader) Read(ctx context.Context, path string) (*Header, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open audio: %w", err)
	}
	defer f.Close()

	magic := make([]byte, 12)
	n, err := io.ReadFull(f, magic)
	if err != nil && !errors.Is(err, io.ErrUnexpectedEOF) {
		return nil, fmt.Errorf("%w: %v", util.ErrCorrupt, err)
	}
	if _, err := f.Seek(0, io.SeekStart); err != nil {
		return nil, fmt.Errorf("failed to rewind audio: %w", err)
	}

	if n == 12 && bytes.Equal(magic[0:4], []byte("RIFF")) && bytes.Equal(magic[8:12], []byte("WAVE")) {
		return readWAV(f)
	}

	if _, fileType, err := tag.Identify(f); err == nil && fileType == tag.FLAC {
		if _, err := f.Seek(0, io.SeekStart); err != nil {
			return nil, fmt.Errorf("failed to rewind audio: %w", err)
		}
		return readFLAC(f)
	}

	if r.FFprobe && CheckFFprobeAvailable() {
		info, err := RunFFprobe(ctx, path, r.FFprobeTimeout)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", util.ErrCorrupt, err)
		}
		return info.Header()
	}

	return nil, fmt.Errorf("%w: unrecognized audio container", util.ErrUnsupported)
}

func readWAV(f io.ReadSeeker) (*Header, error) {
	dec := wav.NewDecoder(f)
	dec.ReadInfo()
	if !dec.IsValidFile() {
		return nil, fmt.Errorf("%w: invalid WAV header", util.ErrCorrupt)
	}

	h := &Header{
		Format:     "WAV",
		SampleRate: int(dec.SampleRate),
		Channels:   int(dec.NumChans),
		BitDepth:   int(dec.BitDepth),
		Subtype:    wavSubtype(dec.WavAudioFormat, int(dec.BitDepth)),
	}

	if err := dec.FwdToPCM(); err != nil {
		return nil, fmt.Errorf("%w: no data chunk: %v", util.ErrCorrupt, err)
	}

	blockAlign := h.Channels * ((h.BitDepth + 7) / 8)
	if blockAlign == 0 || h.SampleRate == 0 {
		return nil, fmt.Errorf("%w: zero sample rate or block size", util.ErrCorrupt)
	}
	h.Frames = int64(dec.PCMSize) / int64(blockAlign)
	h.Duration = float64(h.Frames) / float64(h.SampleRate)

	return h, nil
}

// wavSubtype names the sample encoding. Extensible headers are reported
// by bit depth as integer PCM, or FLOAT for 32/64-bit data.
func wavSubtype(format uint16, bits int) string {
	switch format {
	case wavFormatPCM, wavFormatExtensible:
		if bits == 8 {
			return "PCM_U8"
		}
		if format == wavFormatExtensible && bits == 64 {
			return "DOUBLE"
		}
		return fmt.Sprintf("PCM_%d", bits)
	case wavFormatIEEEFloat:
		if bits == 64 {
			return "DOUBLE"
		}
		return "FLOAT"
	case wavFormatALaw:
		return "ALAW"
	case wavFormatMuLaw:
		return "ULAW"
	default:
		return fmt.Sprintf("FORMAT_0x%04X", format)
	}
}

func readFLAC(f io.Reader) (*Header, error) {
	dec, err := flac.NewDecoder(f)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid FLAC stream: %v", util.ErrCorrupt, err)
	}
	if dec.SampleRate == 0 {
		return nil, fmt.Errorf("%w: zero sample rate", util.ErrCorrupt)
	}

	h := &Header{
		Format:     "FLAC",
		Subtype:    fmt.Sprintf("PCM_%d", dec.BitsPerSample),
		SampleRate: dec.SampleRate,
		Channels:   dec.NChannels,
		BitDepth:   dec.BitsPerSample,
		Frames:     int64(dec.TotalSamples),
	}
	h.Duration = float64(h.Frames) / float64(h.SampleRate)
	return h, nil
}
