// Package wav reads and writes RIFF/WAVE files as mono pcm.Clip values.
//
// Decoding accepts integer PCM at 8, 16, 24 or 32 bits with any channel
// count; multichannel audio is averaged down to mono. Load additionally
// resamples the clip to a target rate.
package wav

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/go-audio/audio"
	"github.com/go-audio/wav"

	"github.com/haivivi/equivocal/pkg/audio/pcm"
	"github.com/haivivi/equivocal/pkg/audio/resampler"
)

var (
	// ErrInvalidFile is returned when the input is not a RIFF/WAVE file.
	ErrInvalidFile = errors.New("wav: invalid file")

	// ErrUnsupported is returned for encodings other than integer PCM.
	ErrUnsupported = errors.New("wav: unsupported encoding")
)

const (
	formatPCM        = 1
	formatExtensible = 0xFFFE
)

// Decode reads a whole WAV stream and returns it as a mono clip at the
// file's own sample rate.
func Decode(r io.ReadSeeker) (*pcm.Clip, error) {
	dec := wav.NewDecoder(r)
	if !dec.IsValidFile() {
		return nil, ErrInvalidFile
	}
	if f := dec.WavAudioFormat; f != formatPCM && f != formatExtensible {
		return nil, fmt.Errorf("%w: format tag %#x", ErrUnsupported, f)
	}

	buf, err := dec.FullPCMBuffer()
	if err != nil {
		return nil, fmt.Errorf("wav: decode: %w", err)
	}
	if buf.Format == nil || buf.Format.SampleRate <= 0 {
		return nil, ErrInvalidFile
	}

	samples := toFloat32(buf)
	return &pcm.Clip{
		Samples:    pcm.Downmix(samples, buf.Format.NumChannels),
		SampleRate: buf.Format.SampleRate,
	}, nil
}

func toFloat32(buf *audio.IntBuffer) []float32 {
	if buf.SourceBitDepth == 8 {
		// 8-bit WAV samples are unsigned.
		out := make([]float32, len(buf.Data))
		for i, v := range buf.Data {
			out[i] = float32(v-128) / 128
		}
		return out
	}
	return buf.AsFloat32Buffer().Data
}

// Load opens the file at path, decodes it and resamples it to rate.
func Load(path string, rate int) (*pcm.Clip, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	clip, err := Decode(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	if clip.Len() == 0 {
		return clip, nil
	}
	out, err := resampler.Clip(clip, rate)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return out, nil
}

// Encode writes clip to w as mono integer PCM with the given bit depth
// (16, 24 or 32).
func Encode(w io.WriteSeeker, clip *pcm.Clip, bitDepth int) error {
	switch bitDepth {
	case 16, 24, 32:
	default:
		return fmt.Errorf("%w: bit depth %d", ErrUnsupported, bitDepth)
	}

	scale := float64(int64(1)<<(bitDepth-1)) - 1
	data := make([]int, len(clip.Samples))
	for i, s := range clip.Samples {
		v := max(-1, min(1, float64(s)))
		data[i] = int(v * scale)
	}

	enc := wav.NewEncoder(w, clip.SampleRate, bitDepth, 1, formatPCM)
	err := enc.Write(&audio.IntBuffer{
		Format:         &audio.Format{NumChannels: 1, SampleRate: clip.SampleRate},
		Data:           data,
		SourceBitDepth: bitDepth,
	})
	if err != nil {
		return fmt.Errorf("wav: encode: %w", err)
	}
	return enc.Close()
}

// Save writes clip to a new file at path.
func Save(path string, clip *pcm.Clip, bitDepth int) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := Encode(f, clip, bitDepth); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
