// Package avtprate contains the AVTP audio sample rate enumeration.
package avtprate

import "fmt"

// Rate is an AVTP/AAF audio sample rate code (IEEE 1722-2016 Table 7.2).
type Rate uint8

// Rate codes, in wire order.
const (
	Unspec Rate = iota
	Rate8000
	Rate16000
	Rate24000
	Rate32000
	Rate44100
	Rate48000
	Rate88200
	Rate96000
	Rate176400
	Rate192000
)

var hz = [...]int{0, 8000, 16000, 24000, 32000, 44100, 48000, 88200, 96000, 176400, 192000}

var names = [...]string{
	"unspec", "8kHz", "16kHz", "24kHz", "32kHz", "44.1kHz",
	"48kHz", "88.2kHz", "96kHz", "176.4kHz", "192kHz",
}

// Hz returns the sample rate in Hz, or 0 for Unspec or an out-of-range code.
func (r Rate) Hz() int {
	if int(r) >= len(hz) {
		return 0
	}
	return hz[r]
}

// Code returns the wire encoding of r (0..10).
func (r Rate) Code() uint8 {
	return uint8(r)
}

// String implements fmt.Stringer.
func (r Rate) String() string {
	if int(r) >= len(names) {
		return fmt.Sprintf("rate(%d)", uint8(r))
	}
	return names[r]
}

// FromCode decodes a wire rate code. ok is false for an unrecognized code.
func FromCode(code uint8) (Rate, bool) {
	if int(code) >= len(hz) {
		return Unspec, false
	}
	return Rate(code), true
}

// FromHz finds the rate code matching a Hz value. ok is false if no
// standard rate matches.
func FromHz(h int) (Rate, bool) {
	for i, v := range hz {
		if v == h && i != 0 {
			return Rate(i), true
		}
	}
	return Unspec, false
}
