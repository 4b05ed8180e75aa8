package features

import (
	"slices"

	"github.com/haivivi/equivocal/pkg/audio/fbank"
)

const hpssKernel = 31

// harmonicRatio separates the spectrogram into harmonic and percussive parts
// by median filtering across time and frequency, then returns the share of
// total energy assigned to the harmonic part.
func harmonicRatio(s *fbank.Spectrogram, kernel int) float64 {
	nt, nk := s.Frames(), s.Bins()
	if nt == 0 || nk == 0 {
		return 0
	}

	// Harmonic energy is stable over time, percussive energy over frequency.
	harm := make([][]float64, nt)
	perc := make([][]float64, nt)
	for t := range nt {
		harm[t] = make([]float64, nk)
		perc[t] = medianFilter(s.Mag[t], kernel)
	}
	col := make([]float64, nt)
	for k := range nk {
		for t := range nt {
			col[t] = s.Mag[t][k]
		}
		filtered := medianFilter(col, kernel)
		for t := range nt {
			harm[t][k] = filtered[t]
		}
	}

	var num, den float64
	for t := range nt {
		for k := range nk {
			m := s.Mag[t][k]
			den += m * m
			h, p := harm[t][k]*harm[t][k], perc[t][k]*perc[t][k]
			if h+p == 0 {
				continue
			}
			masked := m * h / (h + p)
			num += masked * masked
		}
	}
	return num / (den + amin)
}

// medianFilter applies a centered running median of the given odd width,
// mirroring the signal at both edges.
func medianFilter(x []float64, width int) []float64 {
	n := len(x)
	out := make([]float64, n)
	half := width / 2
	win := make([]float64, width)
	for i := range n {
		for j := range width {
			win[j] = x[reflect(i-half+j, n)]
		}
		slices.Sort(win)
		out[i] = win[half]
	}
	return out
}

// reflect maps i into [0, n) by mirroring about the edges, repeating the
// edge sample (d c b a | a b c d | d c b a).
func reflect(i, n int) int {
	if n == 1 {
		return 0
	}
	period := 2 * n
	i %= period
	if i < 0 {
		i += period
	}
	if i >= n {
		i = period - 1 - i
	}
	return i
}
