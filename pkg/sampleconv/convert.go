// Package sampleconv converts PCM sample buffers between integer AAF
// sample formats (16/24/32-bit), by zero-padding or truncating each
// sample per IEEE 1722-2016 §7.3.4 (spec §4.D). It never touches
// float32 or aes3_32 — those are explicit non-goals.
package sampleconv

import (
	"github.com/avtp-tools/aafmap/pkg/aafformat"
	"github.com/avtp-tools/aafmap/pkg/liberrors"
)

// Convert reformats src (a buffer of samples in the `from` format) into
// dst (sized for the `to` format) and returns the number of bytes
// written to dst. dst must be at least (len(src)/inLen)*outLen bytes.
// src's length must be a whole multiple of from's sample size.
//
// Byte order within a sample is not interpreted: this is a byte-wise
// reformat consistent with the wire's big-endian, MSB-first sample
// layout, not a numeric byte-swap.
func Convert(dst, src []byte, from, to aafformat.Format) (int, error) {
	inLen, ok := from.BytesPerSample()
	if !ok {
		return 0, liberrors.ErrUnsupportedConversion{From: from, To: to}
	}
	outLen, ok := to.BytesPerSample()
	if !ok {
		return 0, liberrors.ErrUnsupportedConversion{From: from, To: to}
	}

	if len(src)%inLen != 0 {
		return 0, liberrors.ErrShortFrame{FrameLen: len(src), Need: inLen}
	}
	n := len(src) / inLen
	need := n * outLen
	if len(dst) < need {
		return 0, liberrors.ErrBufferTooSmall{Have: len(dst), Need: need}
	}

	switch {
	case inLen == outLen:
		copy(dst[:need], src[:need])

	case inLen < outLen:
		// Widening: copy the source bytes then zero-pad the low-order
		// bytes the wire places after the MSBs.
		for i := 0; i < n; i++ {
			si := i * inLen
			di := i * outLen
			copy(dst[di:di+inLen], src[si:si+inLen])
			for j := di + inLen; j < di+outLen; j++ {
				dst[j] = 0
			}
		}

	default:
		// Truncating: keep the leading (MSB) bytes, drop the trailing
		// low-order bytes the wire placed after them.
		for i := 0; i < n; i++ {
			si := i * inLen
			di := i * outLen
			copy(dst[di:di+outLen], src[si:si+outLen])
		}
	}

	return need, nil
}

// SampleCount returns the number of samples a buffer of byteLen bytes
// holds in the given integer format, or (0, false) for a non-integer
// format or a length that isn't a whole multiple of the sample size.
func SampleCount(byteLen int, f aafformat.Format) (int, bool) {
	sz, ok := f.BytesPerSample()
	if !ok || sz == 0 || byteLen%sz != 0 {
		return 0, false
	}
	return byteLen / sz, true
}
