package resampler

import (
	"bytes"
	"errors"
	"io"
	"testing"
	"testing/iotest"
)

func TestAlignedReader(t *testing.T) {
	data := []byte{1, 2, 3, 4, 5, 6, 7, 8, 9}
	tests := []struct {
		name    string
		src     io.Reader
		frame   int
		want    []byte
		wantErr error
	}{
		{"whole frames", bytes.NewReader(data[:8]), 2, data[:8], nil},
		{"one byte at a time", iotest.OneByteReader(bytes.NewReader(data)), 3, data, nil},
		{"half reads", iotest.HalfReader(bytes.NewReader(data[:8])), 4, data[:8], nil},
		{"trailing partial frame", bytes.NewReader(data[:7]), 2, data[:7], io.ErrUnexpectedEOF},
		{"empty", bytes.NewReader(nil), 2, nil, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a := &alignedReader{r: tt.src, frame: tt.frame}
			var got []byte
			buf := make([]byte, 5)
			for {
				n, err := a.Read(buf)
				if n%tt.frame != 0 && err == nil {
					t.Fatalf("Read returned %d bytes, not a multiple of %d", n, tt.frame)
				}
				got = append(got, buf[:n]...)
				if err == io.EOF {
					break
				}
				if err != nil {
					if !errors.Is(err, tt.wantErr) {
						t.Fatalf("err = %v, want %v", err, tt.wantErr)
					}
					break
				}
			}
			if !bytes.Equal(got, tt.want) {
				t.Errorf("read %v, want %v", got, tt.want)
			}
		})
	}
}

func TestAlignedReader_ShortBuffer(t *testing.T) {
	a := &alignedReader{r: bytes.NewReader([]byte{1, 2, 3, 4}), frame: 4}
	if _, err := a.Read(make([]byte, 3)); err != io.ErrShortBuffer {
		t.Errorf("err = %v, want io.ErrShortBuffer", err)
	}
}

func TestAlignedReader_SourceError(t *testing.T) {
	boom := errors.New("boom")
	a := &alignedReader{r: iotest.ErrReader(boom), frame: 2}
	if _, err := a.Read(make([]byte, 4)); !errors.Is(err, boom) {
		t.Errorf("err = %v, want %v", err, boom)
	}
}
