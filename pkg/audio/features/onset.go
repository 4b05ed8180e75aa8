package features

import (
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"github.com/haivivi/equivocal/pkg/audio/fbank"
)

// Peak picking windows in seconds, and the threshold above the local mean
// on an envelope normalised to [0, 1].
const (
	onsetPreMax  = 0.03
	onsetPreAvg  = 0.10
	onsetPostAvg = 0.10
	onsetWait    = 0.03
	onsetDelta   = 0.07
	onsetLag     = 1
)

// onsetStrength returns the spectral flux of the log-mel spectrogram: the
// mean positive change across bands between consecutive frames. The
// envelope is shifted to line up with centered frames and has one value per
// frame.
func (e *Extractor) onsetStrength(spec *fbank.Spectrogram) []float64 {
	logMel := e.fb.LogMel(spec)
	n := len(logMel)
	env := make([]float64, n)
	pad := onsetLag + e.cfg.FrameSize/(2*e.cfg.HopSize)
	for t := onsetLag; t < n; t++ {
		var flux float64
		for b, v := range logMel[t] {
			flux += max(0, v-logMel[t-onsetLag][b])
		}
		if i := t - onsetLag + pad; i < n {
			env[i] = flux / float64(len(logMel[t]))
		}
	}
	return env
}

// onsetEntropy is the Shannon entropy of env treated as a distribution,
// normalised by the entropy of a uniform one. Flat or empty envelopes
// score 0.
func onsetEntropy(env []float64) float64 {
	if len(env) <= 1 {
		return 0
	}
	total := floats.Sum(env) + amin
	var h float64
	for _, v := range env {
		p := v / total
		h -= p * math.Log(p+amin)
	}
	return h / math.Log(float64(len(env)))
}

// detectOnsets picks peaks from the onset envelope. A frame is an onset when
// it is the local maximum, exceeds the local mean by onsetDelta and is more
// than the wait time after the previous onset.
func (e *Extractor) detectOnsets(env []float64) []int {
	if len(env) == 0 {
		return nil
	}
	lo, hi := floats.Min(env), floats.Max(env)
	if hi-lo <= 0 {
		return nil
	}
	x := make([]float64, len(env))
	for i, v := range env {
		x[i] = (v - lo) / (hi - lo)
	}

	fps := float64(e.cfg.SampleRate) / float64(e.cfg.HopSize)
	preMax := int(onsetPreMax * fps)
	postMax := 1
	preAvg := int(onsetPreAvg * fps)
	postAvg := int(onsetPostAvg*fps) + 1
	wait := int(onsetWait * fps)

	var onsets []int
	last := math.MinInt
	for n, v := range x {
		if v == 0 {
			continue
		}
		if v < floats.Max(x[max(0, n-preMax):min(len(x), n+postMax)]) {
			continue
		}
		if v < stat.Mean(x[max(0, n-preAvg):min(len(x), n+postAvg)], nil)+onsetDelta {
			continue
		}
		if last != math.MinInt && n <= last+wait {
			continue
		}
		onsets = append(onsets, n)
		last = n
	}
	return onsets
}

// onsetPattern summarises inter-onset intervals. Fewer than two onsets give
// an all-zero pattern.
func onsetPattern(onsets []int) OnsetPattern {
	if len(onsets) < 2 {
		return OnsetPattern{}
	}
	iois := make([]float64, len(onsets)-1)
	for i := range iois {
		iois[i] = float64(onsets[i+1] - onsets[i])
	}
	m, v := stat.PopMeanVariance(iois, nil)
	return OnsetPattern{MeanIOI: m, IOIVariance: v, NumOnsets: len(onsets)}
}
