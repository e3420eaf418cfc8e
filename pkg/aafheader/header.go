// Package aafheader implements a typed, allocation-free view over the
// 24-byte AVTP+AAF header prefix (spec §4.B), reading and writing only the
// fields this module owns and leaving the rest of the prefix — owned by
// the upstream AVTP layer — untouched.
package aafheader

import (
	"encoding/binary"
	"fmt"

	"github.com/avtp-tools/aafmap/pkg/aafformat"
	"github.com/avtp-tools/aafmap/pkg/avtprate"
)

// HeaderLen is the fixed size of the AVTP+AAF header prefix.
const HeaderLen = 24

// SubtypeAAF is the constant AVTP subtype byte for the AAF format.
const SubtypeAAF = 0x02

// View is a typed accessor over a borrowed byte slice of at least
// HeaderLen bytes. It never reallocates or zeroes bytes outside the
// fields it owns.
type View struct {
	buf []byte
}

// Wrap returns a View over buf. buf must have length >= HeaderLen.
func Wrap(buf []byte) (View, error) {
	if len(buf) < HeaderLen {
		return View{}, fmt.Errorf("aafheader: buffer of %d bytes too short for %d-byte header", len(buf), HeaderLen)
	}
	return View{buf: buf[:HeaderLen]}, nil
}

// Subtype returns byte 0.
func (v View) Subtype() uint8 { return v.buf[0] }

// SetSubtype writes byte 0.
func (v View) SetSubtype(s uint8) { v.buf[0] = s }

// TV returns the timestamp-valid flag (byte 1, bit 0).
func (v View) TV() bool { return v.buf[1]&0x01 != 0 }

// SetTV writes the timestamp-valid flag, leaving the other bits of byte 1
// untouched (owned by the upstream AVTP layer).
func (v View) SetTV(b bool) {
	if b {
		v.buf[1] |= 0x01
	} else {
		v.buf[1] &^= 0x01
	}
}

// SequenceNumber returns byte 2.
func (v View) SequenceNumber() uint8 { return v.buf[2] }

// SetSequenceNumber writes byte 2.
func (v View) SetSequenceNumber(n uint8) { v.buf[2] = n }

// TU returns the timestamp-uncertain flag (byte 3, bit 0).
func (v View) TU() bool { return v.buf[3]&0x01 != 0 }

// SetTU writes the timestamp-uncertain flag.
func (v View) SetTU(b bool) {
	if b {
		v.buf[3] |= 0x01
	} else {
		v.buf[3] &^= 0x01
	}
}

// AvtpTimestamp returns the 32-bit presentation time at offset 12.
func (v View) AvtpTimestamp() uint32 {
	return binary.BigEndian.Uint32(v.buf[12:16])
}

// SetAvtpTimestamp writes the 32-bit presentation time at offset 12.
func (v View) SetAvtpTimestamp(ts uint32) {
	binary.BigEndian.PutUint32(v.buf[12:16], ts)
}

// formatInfo returns the 32-bit composite at offset 16:
// format<<24 | rate<<20 | channels<<8 | bit_depth.
func (v View) formatInfo() uint32 {
	return binary.BigEndian.Uint32(v.buf[16:20])
}

func (v View) setFormatInfo(x uint32) {
	binary.BigEndian.PutUint32(v.buf[16:20], x)
}

// Format returns the sample format encoded in the high byte of the
// format-info word.
func (v View) Format() aafformat.Format {
	return aafformat.Format(v.formatInfo() >> 24)
}

// Rate returns the rate code encoded in bits [23:20].
func (v View) Rate() avtprate.Rate {
	return avtprate.Rate((v.formatInfo() >> 20) & 0x0F)
}

// Channels returns the channel count encoded in bits [15:8].
func (v View) Channels() int {
	return int((v.formatInfo() >> 8) & 0xFF)
}

// BitDepth returns the bit depth encoded in the low byte.
func (v View) BitDepth() int {
	return int(v.formatInfo() & 0xFF)
}

// SetFormatInfo writes the format/rate/channels/bit-depth composite word.
func (v View) SetFormatInfo(format aafformat.Format, rate avtprate.Rate, channels, bitDepth int) {
	x := uint32(format)<<24 | uint32(rate.Code()&0x0F)<<20 | uint32(channels&0xFF)<<8 | uint32(bitDepth&0xFF)
	v.setFormatInfo(x)
}

// StreamDataLength returns the payload byte count at offset 20.
func (v View) StreamDataLength() uint16 {
	return binary.BigEndian.Uint16(v.buf[20:22])
}

// SetStreamDataLength writes the payload byte count at offset 20.
func (v View) SetStreamDataLength(n uint16) {
	binary.BigEndian.PutUint16(v.buf[20:22], n)
}

// SP returns the sparse-mode flag (byte 22, bit 4).
func (v View) SP() bool { return v.buf[22]&0x10 != 0 }

// SetSP writes the sparse-mode flag, leaving the rest of byte 22 untouched.
func (v View) SetSP(b bool) {
	if b {
		v.buf[22] |= 0x10
	} else {
		v.buf[22] &^= 0x10
	}
}

// EventChannelLayout returns the low nibble of byte 23.
func (v View) EventChannelLayout() aafformat.ChannelLayout {
	return aafformat.ChannelLayout(v.buf[23] & 0x0F)
}

// SetEventChannelLayout writes the low nibble of byte 23, leaving the
// high nibble untouched.
func (v View) SetEventChannelLayout(l aafformat.ChannelLayout) {
	v.buf[23] = (v.buf[23] & 0xF0) | (uint8(l) & 0x0F)
}

// Payload returns the bytes of buf following the 24-byte header prefix,
// i.e. buf[HeaderLen:]. The caller is responsible for bounding it to
// StreamDataLength() where relevant.
func (v View) Payload() []byte {
	return v.buf[HeaderLen:]
}
