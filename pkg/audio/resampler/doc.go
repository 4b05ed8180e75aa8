// Package resampler converts 16-bit mono PCM between sample rates using the
// pure Go go-audio-resampling library.
//
// Reader works on streams; Clip is the batch helper used to bring decoded
// clips to the analysis rate.
//
// Example usage:
//
//	r, err := resampler.New(src, 44100, 22050)
//	if err != nil {
//	    return err
//	}
//	defer r.Close()
//	io.Copy(dst, r)
package resampler
