package fbank

import "math"

// Reference pitch for pitch-class mapping.
const (
	tuningA4 = 440.0
	minPitch = 27.5 // A0
)

// chromaFilterBank assigns every FFT bin to the nearest pitch class, with
// C = 0. Bins below A0 are ignored.
// Returns [numChroma][fftSize/2+1].
func chromaFilterBank(numChroma, fftSize, sampleRate int) [][]float64 {
	halfFFT := fftSize/2 + 1
	bank := make([][]float64, numChroma)
	for c := range bank {
		bank[c] = make([]float64, halfFFT)
	}
	perOctave := float64(numChroma)
	// A sits 9 semitones above C.
	offset := 9 * perOctave / 12
	for k := 1; k < halfFFT; k++ {
		f := float64(k) * float64(sampleRate) / float64(fftSize)
		if f < minPitch {
			continue
		}
		pos := perOctave*math.Log2(f/tuningA4) + offset
		c := int(math.Round(pos)) % numChroma
		if c < 0 {
			c += numChroma
		}
		bank[c][k] = 1
	}
	return bank
}
