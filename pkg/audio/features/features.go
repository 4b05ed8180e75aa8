// Package features computes the perceptual descriptors that make up a
// sound's latent representation.
//
// Each clip yields ten descriptors: emotional valence, energy level,
// temporal complexity, harmonic richness, spectral trajectory, textural
// density, a timbre vector, an onset pattern, a pitch profile and spatial
// openness. All of them are summary statistics over a single centered STFT
// computed by package fbank.
package features

import (
	"errors"
	"fmt"
	"math"

	"github.com/haivivi/equivocal/pkg/audio/fbank"
	"github.com/haivivi/equivocal/pkg/audio/pcm"
	"github.com/haivivi/equivocal/pkg/latent"
)

var (
	// ErrEmptyClip is returned for clips without samples.
	ErrEmptyClip = errors.New("features: empty clip")

	// ErrSampleRate is returned when a clip is not at the extractor's rate.
	ErrSampleRate = errors.New("features: sample rate mismatch")
)

// OnsetPattern summarises the spacing of detected onsets. Intervals are in
// frames.
type OnsetPattern struct {
	MeanIOI     float64 `json:"mean_ioi"`
	IOIVariance float64 `json:"ioi_variance"`
	NumOnsets   int     `json:"num_onsets"`
}

// PitchProfile summarises the per-frame dominant pitch in Hz.
type PitchProfile struct {
	MeanPitch     float64 `json:"mean_pitch"`
	PitchRange    float64 `json:"pitch_range"`
	PitchVariance float64 `json:"pitch_variance"`
}

// Descriptors is the typed form of a clip's latent representation.
type Descriptors struct {
	EmotionalValence   float64      `json:"emotional_valence"`
	EnergyLevel        float64      `json:"energy_level"`
	TemporalComplexity float64      `json:"temporal_complexity"`
	HarmonicRichness   float64      `json:"harmonic_richness"`
	SpectralTrajectory float64      `json:"spectral_trajectory"`
	TexturalDensity    float64      `json:"textural_density"`
	TimbreVector       []float64    `json:"timbre_vector"`
	OnsetPattern       OnsetPattern `json:"onset_pattern"`
	PitchProfile       PitchProfile `json:"pitch_profile"`
	SpatialOpenness    float64      `json:"spatial_openness"`
}

// Latent converts d to a latent map.
func (d *Descriptors) Latent() latent.Map {
	onsets := latent.Map{
		latent.KeyMeanIOI:     latent.Scalar(d.OnsetPattern.MeanIOI),
		latent.KeyIOIVariance: latent.Scalar(d.OnsetPattern.IOIVariance),
		latent.KeyNumOnsets:   latent.Scalar(float64(d.OnsetPattern.NumOnsets)),
	}
	pitch := latent.Map{
		latent.KeyMeanPitch:  latent.Scalar(d.PitchProfile.MeanPitch),
		latent.KeyPitchRange: latent.Scalar(d.PitchProfile.PitchRange),
		latent.KeyPitchVar:   latent.Scalar(d.PitchProfile.PitchVariance),
	}
	return latent.Map{
		latent.KeyValence:    latent.Scalar(d.EmotionalValence),
		latent.KeyEnergy:     latent.Scalar(d.EnergyLevel),
		latent.KeyComplexity: latent.Scalar(d.TemporalComplexity),
		latent.KeyHarmonic:   latent.Scalar(d.HarmonicRichness),
		latent.KeyTrajectory: latent.Scalar(d.SpectralTrajectory),
		latent.KeyTexture:    latent.Scalar(d.TexturalDensity),
		latent.KeyTimbre:     latent.Vector(d.TimbreVector...),
		latent.KeyOnsets:     latent.Nested(onsets),
		latent.KeyPitch:      latent.Nested(pitch),
		latent.KeyOpenness:   latent.Scalar(d.SpatialOpenness),
	}
}

// Extractor computes Descriptors for clips at a fixed sample rate. It is
// not safe for concurrent use; create one per goroutine.
type Extractor struct {
	fb  *fbank.Extractor
	cfg fbank.Config
}

// New creates an Extractor with the given analysis config.
func New(cfg fbank.Config) (*Extractor, error) {
	fb, err := fbank.New(cfg)
	if err != nil {
		return nil, err
	}
	return &Extractor{fb: fb, cfg: cfg}, nil
}

// SampleRate returns the rate clips must be at.
func (e *Extractor) SampleRate() int {
	return e.cfg.SampleRate
}

// Extract computes the latent map of clip.
func (e *Extractor) Extract(clip *pcm.Clip) (latent.Map, error) {
	d, err := e.Describe(clip)
	if err != nil {
		return nil, err
	}
	return d.Latent(), nil
}

// Describe computes the descriptors of clip.
func (e *Extractor) Describe(clip *pcm.Clip) (*Descriptors, error) {
	if clip == nil || clip.Len() == 0 {
		return nil, ErrEmptyClip
	}
	if clip.SampleRate != e.cfg.SampleRate {
		return nil, fmt.Errorf("%w: got %d Hz, want %d Hz", ErrSampleRate, clip.SampleRate, e.cfg.SampleRate)
	}

	samples := clip.Samples
	spec := e.fb.STFT(samples)
	frames := e.fb.Frames(samples)
	env := e.onsetStrength(spec)
	centroid := spectralCentroid(spec)

	d := &Descriptors{
		EmotionalValence:   e.valence(spec),
		EnergyLevel:        mean(rms(frames)),
		TemporalComplexity: onsetEntropy(env),
		HarmonicRichness:   harmonicRatio(spec, hpssKernel),
		SpectralTrajectory: trajectory(centroid),
		TexturalDensity:    1 - mean(spectralFlatness(spec)),
		TimbreVector:       columnMeans(e.fb.MFCC(spec)),
		OnsetPattern:       onsetPattern(e.detectOnsets(env)),
		PitchProfile:       pitchProfile(pitchTrack(spec, pitchMinHz, pitchMaxHz, pitchThreshold)),
		SpatialOpenness:    openness(spec, frames, rolloffPercent),
	}
	return d, nil
}

// valence compares the mean strength of the E and D# pitch classes, the
// major and minor third above C.
func (e *Extractor) valence(spec *fbank.Spectrogram) float64 {
	chroma := e.fb.Chroma(spec)
	if len(chroma) == 0 || len(chroma[0]) < 5 {
		return 0
	}
	var major, minor float64
	for _, row := range chroma {
		major += row[4]
		minor += row[3]
	}
	n := float64(len(chroma))
	return math.Tanh(major/n - minor/n)
}

func openness(spec *fbank.Spectrogram, frames [][]float64, percent float64) float64 {
	nyquist := float64(spec.SampleRate) / 2
	v := mean(spectralRolloff(spec, percent))/nyquist + mean(zeroCrossingRate(frames))
	return max(0, min(1, v))
}
