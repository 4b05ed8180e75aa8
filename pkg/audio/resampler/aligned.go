package resampler

import "io"

// alignedReader returns whole frames of frame bytes from r. A trailing
// partial frame is carried over to the next Read; one still pending at EOF
// is reported as io.ErrUnexpectedEOF.
type alignedReader struct {
	r     io.Reader
	frame int
	carry []byte
}

func (a *alignedReader) Read(p []byte) (int, error) {
	if len(p) < a.frame {
		return 0, io.ErrShortBuffer
	}
	p = p[:len(p)-len(p)%a.frame]
	n := copy(p, a.carry)
	a.carry = a.carry[:0]

	m, err := a.r.Read(p[n:])
	n += m
	rem := n % a.frame
	switch {
	case rem == 0:
		return n, err
	case err == io.EOF:
		return n, io.ErrUnexpectedEOF
	case err != nil:
		return n, err
	}
	a.carry = append(a.carry, p[n-rem:n]...)
	return n - rem, nil
}
