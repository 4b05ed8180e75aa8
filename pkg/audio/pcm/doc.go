// Package pcm holds in-memory audio clips and their 16-bit PCM encoding.
//
// A Clip is a mono run of float32 samples in [-1, 1] with its sample rate.
// Decoders produce clips, the feature extractor consumes them, and the
// resampler moves them between rates through their 16-bit little-endian
// encoding.
//
// Example usage:
//
//	clip := &pcm.Clip{Samples: samples, SampleRate: 44100}
//	head := clip.Slice(0, 500*time.Millisecond)
//	data := pcm.EncodeInt16LE(head.Samples)
package pcm
