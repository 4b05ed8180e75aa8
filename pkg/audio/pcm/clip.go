package pcm

import (
	"encoding/binary"
	"math"
	"time"
)

// AnalysisRate is the sample rate every clip is brought to before feature
// extraction.
const AnalysisRate = 22050

// Clip is a mono sequence of samples normalised to [-1, 1].
type Clip struct {
	Samples    []float32
	SampleRate int
}

// Len returns the number of samples in the clip.
func (c *Clip) Len() int {
	return len(c.Samples)
}

// Duration returns the playback length of the clip.
func (c *Clip) Duration() time.Duration {
	if c.SampleRate <= 0 {
		return 0
	}
	return time.Duration(len(c.Samples)) * time.Second / time.Duration(c.SampleRate)
}

// Slice returns the part of the clip starting at offset and lasting at most
// d. A non-positive d means until the end. The returned clip shares the
// underlying samples.
func (c *Clip) Slice(offset, d time.Duration) *Clip {
	start := c.index(offset)
	end := len(c.Samples)
	if d > 0 {
		end = min(end, start+c.index(d))
	}
	return &Clip{Samples: c.Samples[start:end], SampleRate: c.SampleRate}
}

func (c *Clip) index(d time.Duration) int {
	if d <= 0 {
		return 0
	}
	i := int(int64(d) * int64(c.SampleRate) / int64(time.Second))
	return min(i, len(c.Samples))
}

// RMS returns the root mean square level of the whole clip.
func (c *Clip) RMS() float64 {
	if len(c.Samples) == 0 {
		return 0
	}
	var sum float64
	for _, s := range c.Samples {
		sum += float64(s) * float64(s)
	}
	return math.Sqrt(sum / float64(len(c.Samples)))
}

// Peak returns the largest absolute sample value.
func (c *Clip) Peak() float64 {
	var peak float64
	for _, s := range c.Samples {
		peak = max(peak, math.Abs(float64(s)))
	}
	return peak
}

// Downmix averages interleaved frames of the given channel count into mono.
// Trailing samples that do not form a full frame are dropped.
func Downmix(interleaved []float32, channels int) []float32 {
	if channels <= 1 {
		return interleaved
	}
	frames := len(interleaved) / channels
	out := make([]float32, frames)
	for i := range frames {
		var sum float32
		for ch := range channels {
			sum += interleaved[i*channels+ch]
		}
		out[i] = sum / float32(channels)
	}
	return out
}

// EncodeInt16LE converts samples to signed 16-bit little-endian bytes,
// clipping anything outside [-1, 1].
func EncodeInt16LE(samples []float32) []byte {
	out := make([]byte, len(samples)*2)
	for i, s := range samples {
		binary.LittleEndian.PutUint16(out[i*2:], uint16(FloatToInt16(s)))
	}
	return out
}

// DecodeInt16LE converts signed 16-bit little-endian bytes to samples. A
// trailing odd byte is ignored.
func DecodeInt16LE(data []byte) []float32 {
	out := make([]float32, len(data)/2)
	for i := range out {
		out[i] = Int16ToFloat(int16(binary.LittleEndian.Uint16(data[i*2:])))
	}
	return out
}

// FloatToInt16 converts a normalised sample to a 16-bit value.
func FloatToInt16(s float32) int16 {
	switch {
	case s >= 1:
		return math.MaxInt16
	case s <= -1:
		return math.MinInt16
	}
	return int16(s * 32767)
}

// Int16ToFloat converts a 16-bit value to a normalised sample.
func Int16ToFloat(v int16) float32 {
	return float32(v) / 32768
}
