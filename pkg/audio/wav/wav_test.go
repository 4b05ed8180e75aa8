package wav

import (
	"bytes"
	"errors"
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/go-audio/audio"
	"github.com/go-audio/wav"

	"github.com/haivivi/equivocal/pkg/audio/pcm"
)

func tone(freq float64, rate, n int) *pcm.Clip {
	s := make([]float32, n)
	for i := range s {
		s[i] = float32(0.5 * math.Sin(2*math.Pi*freq*float64(i)/float64(rate)))
	}
	return &pcm.Clip{Samples: s, SampleRate: rate}
}

func TestEncodeDecode(t *testing.T) {
	for _, depth := range []int{16, 24, 32} {
		path := filepath.Join(t.TempDir(), "tone.wav")
		src := tone(440, 16000, 1600)
		if err := Save(path, src, depth); err != nil {
			t.Fatalf("Save(%d bit): %v", depth, err)
		}

		f, err := os.Open(path)
		if err != nil {
			t.Fatal(err)
		}
		got, err := Decode(f)
		f.Close()
		if err != nil {
			t.Fatalf("Decode(%d bit): %v", depth, err)
		}
		if got.SampleRate != 16000 || got.Len() != src.Len() {
			t.Fatalf("%d bit: got rate %d len %d, want 16000 and %d", depth, got.SampleRate, got.Len(), src.Len())
		}
		for i := range src.Samples {
			if d := math.Abs(float64(got.Samples[i] - src.Samples[i])); d > 1e-3 {
				t.Fatalf("%d bit: sample %d = %v, want %v", depth, i, got.Samples[i], src.Samples[i])
			}
		}
	}
}

func TestDecode_StereoDownmix(t *testing.T) {
	path := filepath.Join(t.TempDir(), "stereo.wav")
	f, err := os.Create(path)
	if err != nil {
		t.Fatal(err)
	}
	enc := wav.NewEncoder(f, 8000, 16, 2, 1)
	buf := &audio.IntBuffer{
		Format:         &audio.Format{NumChannels: 2, SampleRate: 8000},
		Data:           []int{16384, 0, 16384, 0, -16384, -16384, 0, 16384},
		SourceBitDepth: 16,
	}
	if err := enc.Write(buf); err != nil {
		t.Fatal(err)
	}
	if err := enc.Close(); err != nil {
		t.Fatal(err)
	}
	f.Close()

	f, err = os.Open(path)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	clip, err := Decode(f)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	want := []float32{0.25, 0.25, -0.5, 0.25}
	if clip.Len() != len(want) {
		t.Fatalf("Len = %d, want %d", clip.Len(), len(want))
	}
	for i := range want {
		if math.Abs(float64(clip.Samples[i]-want[i])) > 1e-4 {
			t.Errorf("sample %d = %v, want %v", i, clip.Samples[i], want[i])
		}
	}
}

func TestDecode_Invalid(t *testing.T) {
	_, err := Decode(bytes.NewReader([]byte("definitely not a wav file")))
	if !errors.Is(err, ErrInvalidFile) {
		t.Fatalf("Decode error = %v, want ErrInvalidFile", err)
	}
}

func TestEncode_UnsupportedDepth(t *testing.T) {
	path := filepath.Join(t.TempDir(), "x.wav")
	err := Save(path, tone(440, 8000, 10), 8)
	if !errors.Is(err, ErrUnsupported) {
		t.Fatalf("Save error = %v, want ErrUnsupported", err)
	}
}

func TestLoad_Resamples(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tone.wav")
	if err := Save(path, tone(440, 44100, 44100), 16); err != nil {
		t.Fatal(err)
	}
	clip, err := Load(path, pcm.AnalysisRate)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if clip.SampleRate != pcm.AnalysisRate {
		t.Fatalf("SampleRate = %d, want %d", clip.SampleRate, pcm.AnalysisRate)
	}
	if n := clip.Len(); n < 19845 || n > 24255 {
		t.Fatalf("Len = %d, want about 22050", n)
	}
}

func TestLoad_Missing(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.wav"), pcm.AnalysisRate)
	if !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("Load error = %v, want os.ErrNotExist", err)
	}
}
