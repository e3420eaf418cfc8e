package aafheader

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/avtp-tools/aafmap/pkg/aafformat"
	"github.com/avtp-tools/aafmap/pkg/avtprate"
)

func TestWrapTooShort(t *testing.T) {
	_, err := Wrap(make([]byte, 10))
	require.Error(t, err)
}

// TestS1Layout exercises scenario S1 and invariant 1 of spec §8:
// 48kHz stereo int16, payload 24 bytes.
func TestS1Layout(t *testing.T) {
	buf := make([]byte, HeaderLen+24)
	v, err := Wrap(buf)
	require.NoError(t, err)

	v.SetSubtype(SubtypeAAF)
	v.SetSequenceNumber(7)
	v.SetTV(true)
	v.SetTU(false)
	v.SetAvtpTimestamp(0x01020304)
	v.SetFormatInfo(aafformat.Int16, avtprate.Rate48000, 2, 16)
	v.SetStreamDataLength(24)
	v.SetSP(false)
	v.SetEventChannelLayout(aafformat.LayoutStereo)

	require.Equal(t, uint8(SubtypeAAF), buf[0])
	require.True(t, v.TV())
	require.False(t, v.TU())
	require.Equal(t, uint8(7), v.SequenceNumber())
	require.Equal(t, uint32(0x01020304), v.AvtpTimestamp())
	require.Equal(t, aafformat.Int16, v.Format())
	require.Equal(t, avtprate.Rate48000, v.Rate())
	require.Equal(t, 2, v.Channels())
	require.Equal(t, 16, v.BitDepth())
	require.Equal(t, uint16(24), v.StreamDataLength())
	require.False(t, v.SP())
	require.Equal(t, aafformat.LayoutStereo, v.EventChannelLayout())

	// Invariant 1: byte 0 == 0x02; bytes[20:22] big-endian == payloadSize;
	// format-info high byte == format; bits[23:20] == rate code.
	require.Equal(t, uint8(0x02), buf[0])
	require.Equal(t, uint16(24), (uint16(buf[20])<<8)|uint16(buf[21]))
	require.Equal(t, uint8(aafformat.Int16), buf[16])
	require.Equal(t, avtprate.Rate48000.Code(), (buf[17]>>4)&0x0F)
}

func TestPayloadSlicing(t *testing.T) {
	buf := make([]byte, HeaderLen+8)
	for i := HeaderLen; i < len(buf); i++ {
		buf[i] = byte(i)
	}
	v, err := Wrap(buf)
	require.NoError(t, err)
	require.Equal(t, buf[HeaderLen:], v.Payload())
}

func TestLeavesUnownedBytesAlone(t *testing.T) {
	buf := make([]byte, HeaderLen)
	buf[1] = 0xFE // bit 0 clear, rest of byte owned by upstream AVTP layer
	buf[3] = 0xFE
	v, err := Wrap(buf)
	require.NoError(t, err)

	v.SetTV(true)
	v.SetTU(true)
	require.Equal(t, uint8(0xFF), buf[1])
	require.Equal(t, uint8(0xFF), buf[3])

	v.SetTV(false)
	require.Equal(t, uint8(0xFE), buf[1])
}

func TestSPBitDoesNotTouchEventNibble(t *testing.T) {
	buf := make([]byte, HeaderLen)
	v, err := Wrap(buf)
	require.NoError(t, err)

	v.SetEventChannelLayout(aafformat.Layout51)
	v.SetSP(true)
	require.True(t, v.SP())
	require.Equal(t, aafformat.Layout51, v.EventChannelLayout())
}
