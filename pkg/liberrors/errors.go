// Package liberrors contains the typed errors returned by this module,
// one struct per failure kind, in the style of gortsplib's pkg/liberrors.
package liberrors

import "fmt"

// ErrBadRate is returned by the size calculator when the configured
// transmit interval rate (Hz) is not positive.
type ErrBadRate struct {
	Hz int
}

func (e ErrBadRate) Error() string {
	return fmt.Sprintf("unsupported sample rate: %d Hz", e.Hz)
}

// ErrBadBitDepth is returned by the size calculator when the configured
// format is not a supported integer AAF format; it carries the configured
// bit depth.
type ErrBadBitDepth struct {
	BitDepth int
}

func (e ErrBadBitDepth) Error() string {
	return fmt.Sprintf("unsupported bit depth: %d", e.BitDepth)
}

// ErrBadPackingFactor is returned when sparse mode is enabled and the
// packing factor is not 1, 2, 4 or a multiple of 8.
type ErrBadPackingFactor struct {
	PackingFactor int
}

func (e ErrBadPackingFactor) Error() string {
	return fmt.Sprintf("packing factor %d is incompatible with sparse mode", e.PackingFactor)
}

// ErrRedundancyOffsetNotIntegral is returned when the configured temporal
// redundancy offset does not divide evenly into whole packets.
type ErrRedundancyOffsetNotIntegral struct {
	OffsetSamples   int64
	FramesPerPacket int
}

func (e ErrRedundancyOffsetNotIntegral) Error() string {
	return fmt.Sprintf("redundancy offset of %d samples is not a multiple of %d frames per packet",
		e.OffsetSamples, e.FramesPerPacket)
}

// ErrUnsupportedConversion is returned by the sample converter when asked
// to convert to/from a non-integer format (float32, aes3_32, unspec).
type ErrUnsupportedConversion struct {
	From, To fmt.Stringer
}

func (e ErrUnsupportedConversion) Error() string {
	return fmt.Sprintf("cannot convert between %v and %v: only integer AAF formats are supported", e.From, e.To)
}

// ErrBufferTooSmall is returned by the talker when the caller-supplied
// buffer cannot hold the packet being assembled.
type ErrBufferTooSmall struct {
	Have, Need int
}

func (e ErrBufferTooSmall) Error() string {
	return fmt.Sprintf("buffer too small: have %d bytes, need %d", e.Have, e.Need)
}

// ErrMediaQueueUnderflow is returned by the listener when no media queue
// head item can be locked for writing; Need is the byte count of the
// frame that could not be delivered.
type ErrMediaQueueUnderflow struct {
	Need int
}

func (e ErrMediaQueueUnderflow) Error() string {
	return fmt.Sprintf("media queue underflow: need %d more bytes", e.Need)
}

// ErrHeaderFieldMismatch is returned by the listener's header validation
// when an incoming AVTPDU does not match the configured stream.
type ErrHeaderFieldMismatch struct {
	Field string
	Want  interface{}
	Got   interface{}
}

func (e ErrHeaderFieldMismatch) Error() string {
	return fmt.Sprintf("header field %s mismatch: want %v, got %v", e.Field, e.Want, e.Got)
}

// ErrShortFrame is returned by the sample converter when a source buffer's
// length is not a whole number of samples; Need is the sample size.
type ErrShortFrame struct {
	FrameLen, Need int
}

func (e ErrShortFrame) Error() string {
	return fmt.Sprintf("frame of %d bytes too short, need %d", e.FrameLen, e.Need)
}

// ErrAllocationFailed is returned by initialize/gen-init/rx-init when a
// ring queue or stats ring could not be sized as configured.
type ErrAllocationFailed struct {
	What string
	Err  error
}

func (e ErrAllocationFailed) Error() string {
	return fmt.Sprintf("failed to allocate %s: %v", e.What, e.Err)
}

func (e ErrAllocationFailed) Unwrap() error {
	return e.Err
}

// ErrNotInitialized is returned when a session method is called before
// the matching init step (gen-init for talker, rx-init for listener).
type ErrNotInitialized struct {
	Step string
}

func (e ErrNotInitialized) Error() string {
	return fmt.Sprintf("session not initialized: missing %s", e.Step)
}
