package features

import (
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"github.com/haivivi/equivocal/pkg/audio/fbank"
)

const (
	pitchMinHz     = 150
	pitchMaxHz     = 4000
	pitchThreshold = 0.1
)

// pitchTrack returns the dominant pitch of each voiced frame. Candidates are
// local spectral peaks between fmin and fmax whose magnitude exceeds
// threshold times the frame's peak; each is refined by parabolic
// interpolation and the strongest one wins. Unvoiced frames are dropped.
func pitchTrack(s *fbank.Spectrogram, fmin, fmax, threshold float64) []float64 {
	binHz := float64(s.SampleRate) / float64(s.FFTSize)
	var pitches []float64
	for _, row := range s.Mag {
		if len(row) < 3 {
			continue
		}
		limit := threshold * floats.Max(row)
		var best, bestMag float64
		for k := 1; k < len(row)-1; k++ {
			freq := s.BinFreq(k)
			if freq < fmin || freq >= fmax {
				continue
			}
			m := row[k]
			if m <= limit || m <= row[k-1] || m < row[k+1] {
				continue
			}
			avg := (row[k+1] - row[k-1]) / 2
			curv := 2*m - row[k+1] - row[k-1]
			var shift float64
			if curv != 0 {
				shift = avg / curv
			}
			mag := m + avg*shift/2
			if mag > bestMag {
				best = (float64(k) + shift) * binHz
				bestMag = mag
			}
		}
		if best > 0 {
			pitches = append(pitches, best)
		}
	}
	return pitches
}

// pitchProfile summarises a pitch track. An empty track gives zeros.
func pitchProfile(pitches []float64) PitchProfile {
	if len(pitches) == 0 {
		return PitchProfile{}
	}
	m, v := stat.PopMeanVariance(pitches, nil)
	return PitchProfile{
		MeanPitch:     m,
		PitchRange:    floats.Max(pitches) - floats.Min(pitches),
		PitchVariance: v,
	}
}
