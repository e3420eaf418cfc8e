package session

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/avtp-tools/aafmap/mediaqueue"
	"github.com/avtp-tools/aafmap/pkg/aafformat"
	"github.com/avtp-tools/aafmap/pkg/aafheader"
	"github.com/avtp-tools/aafmap/pkg/avtprate"
)

func baseConfig() Config {
	return Config{
		RateHz:             48000,
		Format:             aafformat.Int16,
		BitDepth:           16,
		Channels:           2,
		TxIntervalHz:       8000,
		PackingFactor:      1,
		Sparse:             aafformat.SparseDisabled,
		EventChannelLayout: aafformat.LayoutStereo,
	}
}

func TestTalkerTxOnePacket(t *testing.T) {
	item := newFakeItem(24)
	for i := range item.buf {
		item.buf[i] = byte(i + 1)
	}
	item.SetLen(24)
	item.t.valid = true
	item.t.ts = 1000

	q := newFakeQueue(mediaqueue.Info{
		AudioRate:     avtprate.Rate48000,
		AudioType:     aafformat.Int16,
		AudioBitDepth: 16,
		AudioChannels: 2,
	}, 24)
	q.items = []*fakeItem{item}

	s := New(Talker, q, nil, nil)
	require.NoError(t, s.ApplyConfig(baseConfig()))
	require.NoError(t, s.GenInit())
	require.NoError(t, s.TxInit())

	buf := make([]byte, 64)
	n, status, err := s.Tx(buf)
	require.NoError(t, err)
	require.Equal(t, PacketReady, status)
	require.Equal(t, 48, n)

	hdr, err := aafheader.Wrap(buf)
	require.NoError(t, err)
	require.Equal(t, uint8(0x02), hdr.Subtype())
	require.Equal(t, uint8(0), hdr.SequenceNumber())
	require.Equal(t, avtprate.Rate48000, hdr.Rate())
	require.Equal(t, 2, hdr.Channels())
	require.Equal(t, 16, hdr.BitDepth())
	require.Equal(t, aafformat.Int16, hdr.Format())
	require.Equal(t, uint16(24), hdr.StreamDataLength())
	require.True(t, hdr.TV())
	require.Equal(t, uint32(1000), hdr.AvtpTimestamp())
	require.Equal(t, item.buf, hdr.Payload()[:24])

	require.Equal(t, 24, item.ReadIdx())
	require.Equal(t, 1, q.tailIdx)
}

func TestTalkerTxNotReadyWhenQueueEmpty(t *testing.T) {
	q := newFakeQueue(mediaqueue.Info{AudioRate: avtprate.Rate48000, AudioType: aafformat.Int16, AudioBitDepth: 16, AudioChannels: 2}, 24)

	s := New(Talker, q, nil, nil)
	require.NoError(t, s.ApplyConfig(baseConfig()))
	require.NoError(t, s.GenInit())
	require.NoError(t, s.TxInit())

	buf := make([]byte, 64)
	_, status, err := s.Tx(buf)
	require.NoError(t, err)
	require.Equal(t, PacketNotReady, status)
}

func redundantTalkerConfig() Config {
	c := baseConfig()
	c.RedundancyOffsetUsec = 125 // 6 samples at 48kHz == 1 packet at 8kHz
	return c
}

// TestTalkerRedundancyFrameOrder exercises scenario S3: with a 1-packet
// redundancy offset, sending items A, B, C must produce packet1=[zero|A],
// packet2=[A|B], packet3=[B|C] — the delayed copy in the first slot, the
// live copy in the second.
func TestTalkerRedundancyFrameOrder(t *testing.T) {
	mkItem := func(b byte) *fakeItem {
		item := newFakeItem(24)
		for i := range item.buf {
			item.buf[i] = b
		}
		item.SetLen(24)
		return item
	}
	itemA := mkItem('A')
	itemB := mkItem('B')
	itemC := mkItem('C')

	q := newFakeQueue(mediaqueue.Info{
		AudioRate:     avtprate.Rate48000,
		AudioType:     aafformat.Int16,
		AudioBitDepth: 16,
		AudioChannels: 2,
	}, 24)
	q.items = []*fakeItem{itemA, itemB, itemC}

	s := New(Talker, q, nil, nil)
	require.NoError(t, s.ApplyConfig(redundantTalkerConfig()))
	require.NoError(t, s.GenInit())
	require.NoError(t, s.TxInit())

	zero24 := make([]byte, 24)
	solidByte := func(b byte) []byte {
		out := make([]byte, 24)
		for i := range out {
			out[i] = b
		}
		return out
	}

	buf := make([]byte, 128)

	n, status, err := s.Tx(buf)
	require.NoError(t, err)
	require.Equal(t, PacketReady, status)
	require.Equal(t, 72, n)
	hdr, err := aafheader.Wrap(buf)
	require.NoError(t, err)
	require.Equal(t, uint16(48), hdr.StreamDataLength())
	require.Equal(t, zero24, hdr.Payload()[:24])
	require.Equal(t, solidByte('A'), hdr.Payload()[24:48])

	n, status, err = s.Tx(buf)
	require.NoError(t, err)
	require.Equal(t, PacketReady, status)
	require.Equal(t, 72, n)
	hdr, err = aafheader.Wrap(buf)
	require.NoError(t, err)
	require.Equal(t, solidByte('A'), hdr.Payload()[:24])
	require.Equal(t, solidByte('B'), hdr.Payload()[24:48])

	n, status, err = s.Tx(buf)
	require.NoError(t, err)
	require.Equal(t, PacketReady, status)
	require.Equal(t, 72, n)
	hdr, err = aafheader.Wrap(buf)
	require.NoError(t, err)
	require.Equal(t, solidByte('B'), hdr.Payload()[:24])
	require.Equal(t, solidByte('C'), hdr.Payload()[24:48])
}

func TestTalkerSequenceNumberIncrements(t *testing.T) {
	item1 := newFakeItem(24)
	item1.SetLen(24)
	item2 := newFakeItem(24)
	item2.SetLen(24)

	q := newFakeQueue(mediaqueue.Info{AudioRate: avtprate.Rate48000, AudioType: aafformat.Int16, AudioBitDepth: 16, AudioChannels: 2}, 24)
	q.items = []*fakeItem{item1, item2}

	s := New(Talker, q, nil, nil)
	require.NoError(t, s.ApplyConfig(baseConfig()))
	require.NoError(t, s.GenInit())
	require.NoError(t, s.TxInit())

	buf := make([]byte, 64)
	_, _, err := s.Tx(buf)
	require.NoError(t, err)
	hdr, _ := aafheader.Wrap(buf)
	require.Equal(t, uint8(0), hdr.SequenceNumber())

	_, _, err = s.Tx(buf)
	require.NoError(t, err)
	hdr, _ = aafheader.Wrap(buf)
	require.Equal(t, uint8(1), hdr.SequenceNumber())
}
