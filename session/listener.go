package session

import (
	"github.com/avtp-tools/aafmap/pkg/aafformat"
	"github.com/avtp-tools/aafmap/pkg/aafheader"
	"github.com/avtp-tools/aafmap/pkg/liberrors"
	"github.com/avtp-tools/aafmap/pkg/sampleconv"
)

// Rx validates and unpacks one incoming AVTP+AAF packet into the media
// queue's head item (spec §4.F). It returns false when the packet was
// rejected outright (too short, wrong subtype) and the caller should not
// count it as delivered; a rejected-but-logged field mismatch still
// returns true, matching the "don't mute on cosmetic mismatch" decisions
// below.
func (s *Session) Rx(buf []byte) bool {
	if !s.txRxInitDone {
		s.Log.Errorf("rx before init")
		return false
	}

	hdr, err := aafheader.Wrap(buf)
	if err != nil {
		s.Log.Errorf("short packet: %v", err)
		return false
	}

	if hdr.Subtype() != s.Subtype() {
		s.Log.Errorf("unexpected subtype 0x%02x", hdr.Subtype())
		return false
	}

	// (a) format must be an integer PCM format this module can convert.
	if !hdr.Format().IsInteger() {
		s.mute(liberrors.ErrUnsupportedConversion{From: hdr.Format(), To: s.Config.Format})
		return true
	}

	// (b)/(c) rate and channel count are load-bearing for every size
	// computed from Config; a mismatch means the talker and listener
	// disagree about the stream shape and samples can't be trusted.
	if hdr.Rate().Hz() != s.Config.RateHz {
		s.mute(liberrors.ErrHeaderFieldMismatch{Field: "rate", Want: s.Config.RateHz, Got: hdr.Rate().Hz()})
		return true
	}
	if int(hdr.Channels()) != s.Config.Channels {
		s.mute(liberrors.ErrHeaderFieldMismatch{Field: "channels", Want: s.Config.Channels, Got: hdr.Channels()})
		return true
	}

	// (d) event/channel-layout nibble mismatches are logged but do not
	// mute the stream (spec §9 open question, preserved as documented:
	// the field carries presentation metadata, not data-integrity info).
	if hdr.EventChannelLayout() != s.Config.EventChannelLayout {
		s.Log.Warnf("channel layout mismatch: configured=%v got=%v", s.Config.EventChannelLayout, hdr.EventChannelLayout())
	}

	// (e) sparse-mode disagreement: adopt the stream's setting one-way,
	// without purging whatever item is already in flight (spec §9 open
	// question, preserved as documented).
	if hdr.SP() != s.sparse.Enabled() {
		s.Log.Warnf("sparse mode changed by stream: %v -> %v", s.sparse.Enabled(), hdr.SP())
		if hdr.SP() {
			s.sparse = aafformat.SparseEnabled
		} else {
			s.sparse = aafformat.SparseDisabled
		}
	}

	s.unmute()

	streamDataLen := int(hdr.StreamDataLength())
	payload := hdr.Payload()
	if streamDataLen > len(payload) {
		s.Log.Errorf("stream_data_length %d exceeds packet", streamDataLen)
		return false
	}
	payload = payload[:streamDataLen]

	primaryLen := s.Sizes.PayloadSize
	if primaryLen > len(payload) {
		primaryLen = len(payload)
	}
	primary := payload[:primaryLen]
	redundant := payload[primaryLen:]

	if s.redundancyEnabled && len(redundant) < len(primary) {
		s.Log.Warnf("frame too short for a redundant payload (%d < %d bytes); disabling redundancy", len(redundant), len(primary))
		s.redundancyEnabled = false
	}

	if s.redundancyEnabled && s.redundancyQueue != nil {
		s.recordRedundantFrame(hdr.Format(), primary, redundant)
	}

	if err := s.deliverFrame(hdr, primary); err != nil {
		s.Log.Errorf("delivering frame: %v", err)
		return false
	}

	if s.Stats != nil {
		s.Stats.AddTotal(1)
		s.Stats.MaybeReport()
	}

	return true
}

// deliverFrame converts primary into the media queue's internal sample
// format (if needed) and appends it to the head item, pushing the item
// only once it has accumulated itemSize bytes (spec §4.F steps 3-5, §5:
// "a given item cannot be pushed before it is full"). The item's AVTP
// time is taken from the first fragment written to it; later fragments
// packed into the same item (packing factor > 1) do not overwrite it.
func (s *Session) deliverFrame(hdr aafheader.View, primary []byte) error {
	item, ok := s.Queue.HeadLock()
	if !ok {
		return liberrors.ErrMediaQueueUnderflow{Need: len(primary)}
	}

	info := s.Queue.Info()
	firstFragment := item.Len() == 0
	dst := item.Payload()[item.Len():]

	n, err := sampleconv.Convert(dst, primary, hdr.Format(), info.AudioType)
	if err != nil {
		s.Queue.HeadUnlock()
		return err
	}

	if info.TranslateRxCB != nil {
		info.TranslateRxCB(s.Queue, dst[:n])
	}
	newLen := item.Len() + n
	item.SetLen(newLen)
	item.SetReadIdx(0)

	if firstFragment {
		t := item.Time()
		if hdr.TV() {
			t.SetToTimestamp(hdr.AvtpTimestamp())
			t.SubUSec(int64(s.Config.PresentationLatencyUSec))
			t.SetValid(true)
			t.SetUncertain(hdr.TU())
			s.mediaQItemSyncTS = true
		} else {
			t.SetValid(s.mediaQItemSyncTS)
			t.SetUncertain(true)
		}
	}

	if newLen >= item.ItemSize() {
		s.Queue.HeadPush()
	} else {
		s.Queue.HeadUnlock()
	}
	return nil
}

// recordRedundantFrame feeds the packet's redundant copy (and the format
// it was sent as) into the listener's own delay queue and entry-type
// ring, so a later RxLost can synthesize a concealment frame (spec
// §4.F.5, §4.G).
func (s *Session) recordRedundantFrame(format aafformat.Format, primary, redundant []byte) {
	frameSize := s.Sizes.RedundancyFrameSize
	framed := s.scratch[:frameSize]
	n := copy(framed, redundant)
	for i := n; i < frameSize; i++ {
		framed[i] = 0
	}

	s.redundancyQueue.Push(framed, frameSize)
	s.entryTypeRing.Push([]byte{byte(format)}, 1)

	if s.redundancyQueue.BytesQueued() > s.Sizes.RedundancyFrameSize*(s.Sizes.RedundancyOffsetPackets+1) {
		s.redundancyQueue.Discard(frameSize)
		s.entryTypeRing.Discard(1)
	}

	if s.Config.Debug && format != aafformat.Unspec && s.redundancyQueue.BytesQueued() >= len(primary) {
		// Compare the frame now at the head of the queue (the next to age
		// out) against the primary payload that just arrived: under
		// normal (loss-free) operation that frame was received as this
		// same primary's redundant copy RedundancyOffsetPackets ago, so
		// the two should match.
		if !s.redundancyQueue.Compare(primary, len(primary)) {
			s.Log.Debugf("redundant frame mismatch at offset %d", s.Sizes.RedundancyOffsetPackets)
		}
	}
}
