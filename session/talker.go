package session

import (
	"github.com/avtp-tools/aafmap/pkg/aafheader"
	"github.com/avtp-tools/aafmap/pkg/avtprate"
	"github.com/avtp-tools/aafmap/pkg/liberrors"
)

// Tx fills buf with one outgoing AVTP+AAF packet, draining exactly one
// packet's worth of PCM from the media queue's tail item (spec §4.E).
// It returns PacketNotReady when no item is available to read yet,
// which the caller should treat as "nothing to send this interval",
// not an error.
func (s *Session) Tx(buf []byte) (int, TxStatus, error) {
	if !s.txRxInitDone {
		return 0, PacketNotReady, liberrors.ErrNotInitialized{Step: "TxInit"}
	}

	payloadLen := s.Sizes.PayloadSize
	need := aafHeaderLen + payloadLen
	if s.redundancyEnabled {
		need += payloadLen
	}
	if len(buf) < need {
		return 0, PacketNotReady, liberrors.ErrBufferTooSmall{Have: len(buf), Need: need}
	}

	item, ok := s.Queue.TailLock()
	if !ok {
		return 0, PacketNotReady, nil
	}
	if item.Len()-item.ReadIdx() < payloadLen {
		// Not a full packet's worth buffered yet; wait for the next Tx call.
		s.Queue.TailUnlock()
		return 0, PacketNotReady, nil
	}

	hdr, err := aafheader.Wrap(buf)
	if err != nil {
		s.Queue.TailUnlock()
		return 0, PacketNotReady, err
	}

	hdr.SetSubtype(s.Subtype())
	seq := s.nextSeq()
	hdr.SetSequenceNumber(seq)

	sparse := s.sparse.Enabled()
	carriesTimestamp := s.sparse.CarriesTimestamp(seq)
	t := item.Time()
	if carriesTimestamp && t.IsValid() {
		t.AddUSec(s.Config.MaxTransitUsec)
		hdr.SetAvtpTimestamp(t.AvtpTimestamp())
		hdr.SetTV(true)
		hdr.SetTU(t.IsUncertain())
	} else {
		hdr.SetAvtpTimestamp(0)
		hdr.SetTV(false)
		hdr.SetTU(false)
	}

	rate, _ := avtprate.FromHz(s.Config.RateHz)
	hdr.SetFormatInfo(s.Config.Format, rate, s.Config.Channels, s.Config.BitDepth)
	hdr.SetSP(sparse)
	hdr.SetEventChannelLayout(s.Config.EventChannelLayout)

	// With redundancy disabled the packet has a single payload slot
	// holding the live frame. With redundancy enabled the live frame goes
	// in the *second* slot and the delayed (queue-pulled) copy goes in
	// the *first* slot (spec §4.E step 1: "the live payload destination
	// is the second payload slot"; step 4: "pull the oldest frame from
	// the queue into the first payload slot"; scenario S3).
	var live []byte
	if s.redundancyEnabled {
		live = hdr.Payload()[payloadLen : payloadLen*2]
	} else {
		live = hdr.Payload()[:payloadLen]
	}
	src := item.Payload()[item.ReadIdx() : item.ReadIdx()+payloadLen]
	n := copy(live, src)
	item.SetReadIdx(item.ReadIdx() + n)
	if item.ReadIdx() >= item.Len() {
		s.Queue.TailPull()
	} else {
		s.Queue.TailUnlock()
	}

	streamDataLen := payloadLen
	if s.redundancyEnabled && s.redundancyQueue != nil {
		s.writeRedundantFrame(hdr.Payload()[:payloadLen], live)
		streamDataLen += payloadLen
	}
	hdr.SetStreamDataLength(uint16(streamDataLen))

	return aafHeaderLen + streamDataLen, PacketReady, nil
}

// writeRedundantFrame pushes the just-sent live frame (zero-padded up to
// RedundancyFrameSize) onto the delay queue, then pulls the oldest
// queued frame back out into dst as this packet's delayed copy (spec
// §4.A, §4.E step 4). dst and live are both payloadLen bytes; the ring
// queue's frame granularity (RedundancyFrameSize) can be wider than a
// live frame, so the excess is padded on push and discarded, not
// written to dst, on pull.
func (s *Session) writeRedundantFrame(dst, live []byte) {
	frameSize := s.Sizes.RedundancyFrameSize
	pad := frameSize - len(live)

	s.redundancyQueue.Push(live, len(live))
	if pad > 0 {
		s.redundancyQueue.PushZeros(pad)
	}

	s.redundancyQueue.Pull(dst, len(dst))
	if pad > 0 {
		s.redundancyQueue.Discard(pad)
	}
}

func (s *Session) nextSeq() uint8 {
	seq := s.txSeq
	s.txSeq++
	return seq
}
