package resampler

import (
	"bytes"
	"fmt"
	"io"

	"github.com/haivivi/equivocal/pkg/audio/pcm"
)

// Clip converts a whole clip to the given sample rate. A clip already at that
// rate is returned as is.
func Clip(c *pcm.Clip, rate int) (*pcm.Clip, error) {
	if c.SampleRate == rate {
		return c, nil
	}
	r, err := New(bytes.NewReader(pcm.EncodeInt16LE(c.Samples)), c.SampleRate, rate)
	if err != nil {
		return nil, err
	}
	defer r.Close()

	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("resample %d -> %d: %w", c.SampleRate, rate, err)
	}
	return &pcm.Clip{Samples: pcm.DecodeInt16LE(data), SampleRate: rate}, nil
}
