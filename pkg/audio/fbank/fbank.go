// Package fbank computes short-time spectra and the filterbank features
// derived from them: mel power, log-mel, MFCC and chroma.
//
// Default parameters follow the usual music-analysis convention:
//
//	SampleRate: 22050
//	FrameSize:  2048 (~93 ms)
//	HopSize:     512 (~23 ms)
//	NumMels:     128
//	NumMFCC:      13
//	NumChroma:    12
//	LowFreq:       0
//	HighFreq:      0 (Nyquist)
//	TopDB:        80
//
// Frames are centered: the signal is zero padded by FrameSize/2 on both
// sides so that frame t is centered on sample t*HopSize.
package fbank

import (
	"errors"
	"fmt"
	"math"
	"math/cmplx"

	"gonum.org/v1/gonum/dsp/fourier"
	"gonum.org/v1/gonum/floats"
)

// ErrInvalidConfig is returned by New for unusable parameters.
var ErrInvalidConfig = errors.New("fbank: invalid config")

// Config controls spectral analysis parameters.
type Config struct {
	SampleRate int     // audio sample rate in Hz (default 22050)
	FrameSize  int     // window and FFT length in samples (default 2048)
	HopSize    int     // hop length in samples (default 512)
	NumMels    int     // number of mel bands (default 128)
	NumMFCC    int     // number of cepstral coefficients kept (default 13)
	NumChroma  int     // number of pitch classes (default 12)
	LowFreq    float64 // lowest mel frequency (default 0)
	HighFreq   float64 // highest mel frequency, 0 for Nyquist
	TopDB      float64 // dynamic range kept by LogMel (default 80)
}

// DefaultConfig returns the analysis config used for clip descriptors.
func DefaultConfig() Config {
	return Config{
		SampleRate: 22050,
		FrameSize:  2048,
		HopSize:    512,
		NumMels:    128,
		NumMFCC:    13,
		NumChroma:  12,
		TopDB:      80,
	}
}

// Validate reports whether the config can drive an Extractor.
func (c Config) Validate() error {
	switch {
	case c.SampleRate <= 0:
		return fmt.Errorf("%w: sample rate %d", ErrInvalidConfig, c.SampleRate)
	case c.FrameSize < 2:
		return fmt.Errorf("%w: frame size %d", ErrInvalidConfig, c.FrameSize)
	case c.HopSize <= 0:
		return fmt.Errorf("%w: hop size %d", ErrInvalidConfig, c.HopSize)
	case c.NumMels <= 0:
		return fmt.Errorf("%w: %d mel bands", ErrInvalidConfig, c.NumMels)
	case c.NumMFCC <= 0 || c.NumMFCC > c.NumMels:
		return fmt.Errorf("%w: %d MFCCs for %d mel bands", ErrInvalidConfig, c.NumMFCC, c.NumMels)
	case c.NumChroma <= 0:
		return fmt.Errorf("%w: %d chroma bins", ErrInvalidConfig, c.NumChroma)
	case c.LowFreq < 0 || c.LowFreq >= c.highFreq():
		return fmt.Errorf("%w: mel range %.1f-%.1f Hz", ErrInvalidConfig, c.LowFreq, c.highFreq())
	case c.TopDB < 0:
		return fmt.Errorf("%w: top dB %.1f", ErrInvalidConfig, c.TopDB)
	}
	return nil
}

func (c Config) highFreq() float64 {
	if c.HighFreq <= 0 || c.HighFreq > float64(c.SampleRate)/2 {
		return float64(c.SampleRate) / 2
	}
	return c.HighFreq
}

// Spectrogram holds STFT magnitudes, one row per frame.
type Spectrogram struct {
	Mag        [][]float64 // [frames][FFTSize/2+1]
	SampleRate int
	FFTSize    int
	HopSize    int
}

// Frames returns the number of analysis frames.
func (s *Spectrogram) Frames() int {
	return len(s.Mag)
}

// Bins returns the number of frequency bins per frame.
func (s *Spectrogram) Bins() int {
	return s.FFTSize/2 + 1
}

// BinFreq returns the center frequency of bin k in Hz.
func (s *Spectrogram) BinFreq(k int) float64 {
	return float64(k) * float64(s.SampleRate) / float64(s.FFTSize)
}

// Power returns the squared magnitudes.
func (s *Spectrogram) Power() [][]float64 {
	out := make([][]float64, len(s.Mag))
	for t, row := range s.Mag {
		p := make([]float64, len(row))
		for k, m := range row {
			p[k] = m * m
		}
		out[t] = p
	}
	return out
}

// Extractor computes spectra and filterbank features. It holds precomputed
// windows, filter banks and FFT plans and is not safe for concurrent use.
type Extractor struct {
	cfg        Config
	window     []float64 // periodic Hann
	fft        *fourier.FFT
	melBank    [][]float64
	chromaBank [][]float64
	dct        [][]float64
}

// New creates a new Extractor with the given config.
func New(cfg Config) (*Extractor, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &Extractor{
		cfg:        cfg,
		window:     hannWindow(cfg.FrameSize),
		fft:        fourier.NewFFT(cfg.FrameSize),
		melBank:    melFilterBank(cfg.NumMels, cfg.FrameSize, cfg.SampleRate, cfg.LowFreq, cfg.highFreq()),
		chromaBank: chromaFilterBank(cfg.NumChroma, cfg.FrameSize, cfg.SampleRate),
		dct:        dctBasis(cfg.NumMFCC, cfg.NumMels),
	}, nil
}

// Config returns the extractor's configuration.
func (e *Extractor) Config() Config {
	return e.cfg
}

// NumFrames returns how many centered frames a signal of n samples yields.
func (e *Extractor) NumFrames(n int) int {
	return 1 + n/e.cfg.HopSize
}

// Frames slices samples into centered, zero padded frames of FrameSize
// without windowing.
func (e *Extractor) Frames(samples []float32) [][]float64 {
	size, hop := e.cfg.FrameSize, e.cfg.HopSize
	pad := size / 2
	frames := make([][]float64, e.NumFrames(len(samples)))
	for t := range frames {
		f := make([]float64, size)
		start := t*hop - pad
		for i := range f {
			if j := start + i; j >= 0 && j < len(samples) {
				f[i] = float64(samples[j])
			}
		}
		frames[t] = f
	}
	return frames
}

// STFT computes the magnitude spectrogram of samples using a Hann window.
func (e *Extractor) STFT(samples []float32) *Spectrogram {
	frames := e.Frames(samples)
	mag := make([][]float64, len(frames))
	coeff := make([]complex128, e.cfg.FrameSize/2+1)
	for t, f := range frames {
		floats.Mul(f, e.window)
		e.fft.Coefficients(coeff, f)
		row := make([]float64, len(coeff))
		for k, c := range coeff {
			row[k] = cmplx.Abs(c)
		}
		mag[t] = row
	}
	return &Spectrogram{
		Mag:        mag,
		SampleRate: e.cfg.SampleRate,
		FFTSize:    e.cfg.FrameSize,
		HopSize:    e.cfg.HopSize,
	}
}

// MelPower projects the power spectrum onto the mel filter bank.
// Output: [frames][NumMels].
func (e *Extractor) MelPower(s *Spectrogram) [][]float64 {
	return applyBank(e.melBank, s.Power())
}

// LogMel returns the mel power in decibels, floored at 1e-10 and limited to
// TopDB below the loudest value of the whole spectrogram.
func (e *Extractor) LogMel(s *Spectrogram) [][]float64 {
	return PowerToDB(e.MelPower(s), e.cfg.TopDB)
}

// MFCC returns NumMFCC cepstral coefficients per frame, computed with an
// orthonormal DCT-II over the log-mel bands.
func (e *Extractor) MFCC(s *Spectrogram) [][]float64 {
	logMel := e.LogMel(s)
	out := make([][]float64, len(logMel))
	for t, bands := range logMel {
		c := make([]float64, len(e.dct))
		for k, basis := range e.dct {
			c[k] = floats.Dot(basis, bands)
		}
		out[t] = c
	}
	return out
}

// Chroma returns the per-frame energy in each pitch class (C = 0),
// normalised so the strongest class of every frame is 1. Silent frames are
// all zero.
func (e *Extractor) Chroma(s *Spectrogram) [][]float64 {
	out := applyBank(e.chromaBank, s.Power())
	for _, row := range out {
		if peak := floats.Max(row); peak > 0 {
			floats.Scale(1/peak, row)
		}
	}
	return out
}

// PowerToDB converts power values to decibels relative to 1.0. Values are
// floored at 1e-10 and, when topDB > 0, clamped to topDB below the maximum.
func PowerToDB(power [][]float64, topDB float64) [][]float64 {
	out := make([][]float64, len(power))
	peak := math.Inf(-1)
	for t, row := range power {
		db := make([]float64, len(row))
		for i, p := range row {
			db[i] = 10 * math.Log10(max(p, 1e-10))
			peak = max(peak, db[i])
		}
		out[t] = db
	}
	if topDB > 0 {
		floor := peak - topDB
		for _, row := range out {
			for i := range row {
				row[i] = max(row[i], floor)
			}
		}
	}
	return out
}

func applyBank(bank [][]float64, power [][]float64) [][]float64 {
	out := make([][]float64, len(power))
	for t, p := range power {
		row := make([]float64, len(bank))
		for m, w := range bank {
			row[m] = floats.Dot(w, p)
		}
		out[t] = row
	}
	return out
}
