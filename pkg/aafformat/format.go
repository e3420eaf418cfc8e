// Package aafformat contains the AAF sample-format, channel-layout and
// sparse-mode enumerations (IEEE 1722-2016 §7).
package aafformat

import "fmt"

// Format is an AAF sample format tag.
type Format uint8

// Format tags.
const (
	Unspec  Format = 0
	Float32 Format = 1
	Int32   Format = 2
	Int24   Format = 3
	Int16   Format = 4
	AES3_32 Format = 5 // reserved, not convertible
)

var names = map[Format]string{
	Unspec:  "unspec",
	Float32: "float32",
	Int32:   "int32",
	Int24:   "int24",
	Int16:   "int16",
	AES3_32: "aes3_32",
}

// String implements fmt.Stringer.
func (f Format) String() string {
	if s, ok := names[f]; ok {
		return s
	}
	return fmt.Sprintf("format(%d)", uint8(f))
}

// IsInteger reports whether f is one of the convertible integer PCM
// formats (int32/int24/int16). float32, aes3_32 and unspec are not.
func (f Format) IsInteger() bool {
	return f == Int32 || f == Int24 || f == Int16
}

// BytesPerSample returns the wire sample width for an integer format and
// true, or (0, false) for float32/aes3_32/unspec — those are out of scope
// for conversion (spec §1 non-goals: no float-format conversion, no AES3).
func (f Format) BytesPerSample() (int, bool) {
	if !f.IsInteger() {
		return 0, false
	}
	return 6 - int(f), true
}

// ChannelLayout is the 4-bit event/channel-layout field (§3).
type ChannelLayout uint8

// Channel layout tags.
const (
	LayoutStatic ChannelLayout = 0
	LayoutMono   ChannelLayout = 1
	LayoutStereo ChannelLayout = 2
	Layout51     ChannelLayout = 3
	Layout71     ChannelLayout = 4
	LayoutMax    ChannelLayout = 15
)

// Sparse is the sparse-mode tag (§3).
type Sparse uint8

// Sparse-mode tags.
const (
	SparseDisabled Sparse = 0
	SparseEnabled  Sparse = 1
)

// Enabled reports whether sparse mode is on.
func (s Sparse) Enabled() bool {
	return s == SparseEnabled
}

// CarriesTimestamp reports whether, under sparse mode, the packet with the
// given AVTP sequence number is one of the 1-in-8 that carries a valid
// timestamp. When sparse mode is disabled every packet carries one.
func (s Sparse) CarriesTimestamp(seq uint8) bool {
	if !s.Enabled() {
		return true
	}
	return seq&0x07 == 0
}
