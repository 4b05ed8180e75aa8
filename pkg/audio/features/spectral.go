package features

import (
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"github.com/haivivi/equivocal/pkg/audio/fbank"
)

const (
	rolloffPercent = 0.85
	amin           = 1e-10
	zcrThreshold   = 1e-10
)

// rms returns the root mean square of each frame.
func rms(frames [][]float64) []float64 {
	out := make([]float64, len(frames))
	for t, f := range frames {
		out[t] = math.Sqrt(floats.Dot(f, f) / float64(len(f)))
	}
	return out
}

// zeroCrossingRate returns the fraction of sign changes per frame. Values
// within zcrThreshold of zero count as positive.
func zeroCrossingRate(frames [][]float64) []float64 {
	out := make([]float64, len(frames))
	for t, f := range frames {
		var n int
		for i := 1; i < len(f); i++ {
			if (f[i] < -zcrThreshold) != (f[i-1] < -zcrThreshold) {
				n++
			}
		}
		out[t] = float64(n) / float64(len(f))
	}
	return out
}

// spectralCentroid returns the magnitude-weighted mean frequency of each
// frame. Silent frames have a centroid of 0.
func spectralCentroid(s *fbank.Spectrogram) []float64 {
	out := make([]float64, s.Frames())
	for t, row := range s.Mag {
		total := floats.Sum(row)
		if total <= amin {
			continue
		}
		var w float64
		for k, m := range row {
			w += s.BinFreq(k) * m
		}
		out[t] = w / total
	}
	return out
}

// spectralRolloff returns, per frame, the lowest frequency below which
// percent of the magnitude lies.
func spectralRolloff(s *fbank.Spectrogram, percent float64) []float64 {
	out := make([]float64, s.Frames())
	for t, row := range s.Mag {
		threshold := percent * floats.Sum(row)
		var cum float64
		for k, m := range row {
			cum += m
			if cum >= threshold {
				out[t] = s.BinFreq(k)
				break
			}
		}
	}
	return out
}

// spectralFlatness returns the ratio of geometric to arithmetic mean of
// each frame's power spectrum. Silent frames are perfectly flat.
func spectralFlatness(s *fbank.Spectrogram) []float64 {
	out := make([]float64, s.Frames())
	for t, row := range s.Mag {
		var logSum, sum float64
		for _, m := range row {
			p := max(m*m, amin)
			logSum += math.Log(p)
			sum += p
		}
		n := float64(len(row))
		out[t] = math.Exp(logSum/n) / (sum / n)
	}
	return out
}

// trajectory fits a line through the centroid track and squashes its slope
// (Hz per frame) into [-1, 1].
func trajectory(centroid []float64) float64 {
	if len(centroid) < 2 {
		return 0
	}
	x := make([]float64, len(centroid))
	for i := range x {
		x[i] = float64(i)
	}
	_, slope := stat.LinearRegression(x, centroid, nil, false)
	if math.IsNaN(slope) {
		return 0
	}
	return math.Tanh(slope / 100)
}

func mean(x []float64) float64 {
	if len(x) == 0 {
		return 0
	}
	return stat.Mean(x, nil)
}

// columnMeans averages a [frames][n] matrix over frames.
func columnMeans(m [][]float64) []float64 {
	if len(m) == 0 {
		return nil
	}
	out := make([]float64, len(m[0]))
	for _, row := range m {
		floats.Add(out, row)
	}
	floats.Scale(1/float64(len(m)), out)
	return out
}
