// Package audio is the umbrella for the clip analysis sub-packages:
//
//   - pcm: in-memory mono clips and their 16-bit encoding
//   - wav: RIFF/WAVE decoding and encoding
//   - resampler: sample rate conversion
//   - fbank: STFT, mel, chroma and cepstral front end
//   - features: perceptual descriptors of a clip
//
// Example usage:
//
//	import (
//	    "github.com/haivivi/equivocal/pkg/audio/features"
//	    "github.com/haivivi/equivocal/pkg/audio/fbank"
//	    "github.com/haivivi/equivocal/pkg/audio/pcm"
//	    "github.com/haivivi/equivocal/pkg/audio/wav"
//	)
//
//	clip, err := wav.Load("rain.wav", pcm.AnalysisRate)
//	ex, err := features.New(fbank.DefaultConfig())
//	m, err := ex.Extract(clip)
package audio
