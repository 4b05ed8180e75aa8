package resampler

import (
	"fmt"
	"io"
	"sync"

	resampling "github.com/tphakala/go-audio-resampling"

	"github.com/haivivi/equivocal/pkg/audio/pcm"
)

// Reader wraps an io.Reader of 16-bit little-endian mono PCM and converts it
// from one sample rate to another using a pure Go resampler.
type Reader struct {
	srcRate int
	dstRate int
	src     io.Reader

	mu        sync.Mutex
	closeErr  error
	resampler resampling.Resampler
	readBuf   []byte
	leftover  []byte
}

// New creates a Reader converting src from srcRate to dstRate. When both rates
// are equal the data passes through untouched.
func New(src io.Reader, srcRate, dstRate int) (*Reader, error) {
	if srcRate <= 0 || dstRate <= 0 {
		return nil, fmt.Errorf("resampler: invalid rates %d -> %d", srcRate, dstRate)
	}
	r := &Reader{
		srcRate: srcRate,
		dstRate: dstRate,
		src:     &alignedReader{r: src, frame: sampleBytes},
	}
	if srcRate != dstRate {
		rs, err := resampling.New(&resampling.Config{
			InputRate:  float64(srcRate),
			OutputRate: float64(dstRate),
			Channels:   1,
			Quality:    resampling.QualitySpec{Preset: resampling.QualityHigh},
		})
		if err != nil {
			return nil, fmt.Errorf("failed to create resampler: %w", err)
		}
		r.resampler = rs
	}
	return r, nil
}

const sampleBytes = 2

// Read copies resampled audio into p. It always returns a whole number of
// samples. It is not safe for concurrent use.
func (r *Reader) Read(p []byte) (int, error) {
	if len(p) == 0 {
		return 0, nil
	}
	if len(p) < sampleBytes {
		return 0, io.ErrShortBuffer
	}
	p = p[:len(p)/sampleBytes*sampleBytes]

	r.mu.Lock()
	defer r.mu.Unlock()

	if len(r.leftover) > 0 {
		n := copy(p, r.leftover)
		r.leftover = r.leftover[n:]
		return n, nil
	}
	if r.closeErr != nil {
		return 0, r.closeErr
	}
	if r.resampler == nil {
		return r.src.Read(p)
	}
	return r.readAndProcess(p)
}

func (r *Reader) readAndProcess(p []byte) (int, error) {
	// Enough source bytes to fill p at the conversion ratio, plus slack for
	// the filter delay.
	need := int(float64(len(p))*float64(r.srcRate)/float64(r.dstRate)) + sampleBytes*4
	need = need / sampleBytes * sampleBytes
	if cap(r.readBuf) < need {
		r.readBuf = make([]byte, need)
	}

	n, readErr := r.src.Read(r.readBuf[:need])
	if n == 0 {
		if readErr != nil {
			return 0, readErr
		}
		return 0, nil
	}

	in := pcm.DecodeInt16LE(r.readBuf[:n])
	input := make([]float64, len(in))
	for i, s := range in {
		input[i] = float64(s)
	}

	output, err := r.resampler.Process(input)
	if err != nil {
		return 0, fmt.Errorf("resample error: %w", err)
	}
	if len(output) == 0 {
		return 0, readErr
	}

	out := make([]float32, len(output))
	for i, s := range output {
		out[i] = float32(s)
	}
	data := pcm.EncodeInt16LE(out)

	written := copy(p, data)
	if len(data) > written {
		r.leftover = append(r.leftover, data[written:]...)
	}
	if readErr != nil && len(r.leftover) > 0 {
		// Hand the remaining samples out before reporting the source error.
		return written, nil
	}
	return written, readErr
}

// Close releases resources. Subsequent Read calls return io.ErrClosedPipe.
func (r *Reader) Close() error {
	return r.CloseWithError(fmt.Errorf("resampler: %w", io.ErrClosedPipe))
}

// CloseWithError releases resources. Subsequent Read calls return err.
func (r *Reader) CloseWithError(err error) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closeErr == nil {
		r.closeErr = err
	}
	r.resampler = nil
	return nil
}
