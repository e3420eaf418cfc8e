package session

import (
	"github.com/avtp-tools/aafmap/pkg/aafformat"
	"github.com/avtp-tools/aafmap/pkg/sampleconv"
)

// RxLost is called by the AVTP engine in place of Rx when it detects
// numLost packets missing from the sequence before the one it just
// delivered (spec §4.G). For each lost packet it synthesizes one media
// queue item from the redundancy queue, concealing the gap when a
// redundant copy is available and filling silence otherwise.
func (s *Session) RxLost(numLost int) bool {
	if !s.txRxInitDone {
		s.Log.Errorf("rxlost before init")
		return false
	}
	if numLost <= 0 {
		return true
	}
	if !s.redundancyEnabled || s.redundancyQueue == nil {
		// No concealment material; every lost packet becomes silence,
		// tracked only in the aggregate lost counter.
		for i := 0; i < numLost; i++ {
			if err := s.concealOne(aafformat.Unspec, nil); err != nil {
				s.Log.Errorf("concealing loss: %v", err)
			}
		}
		if s.Stats != nil {
			s.Stats.AddTotal(uint64(numLost))
			s.Stats.AddLost(uint64(numLost))
			s.Stats.AddNeededNotAvailable(uint64(numLost))
			s.Stats.MaybeReport()
		}
		return true
	}

	frameSize := s.Sizes.RedundancyFrameSize

	for i := 0; i < numLost; i++ {
		if s.redundancyQueue.BytesQueued() < frameSize || s.entryTypeRing.BytesQueued() < 1 {
			if err := s.concealOne(aafformat.Unspec, nil); err != nil {
				s.Log.Errorf("concealing loss: %v", err)
			}
			if s.Stats != nil {
				s.Stats.AddNeededNotAvailable(1)
			}
			continue
		}

		frame := s.scratch[:frameSize]
		s.redundancyQueue.Pull(frame, frameSize)

		var tag [1]byte
		s.entryTypeRing.Pull(tag[:], 1)
		format := aafformat.Format(tag[0])

		if format == aafformat.Unspec {
			if err := s.concealOne(aafformat.Unspec, nil); err != nil {
				s.Log.Errorf("concealing loss: %v", err)
			}
			if s.Stats != nil {
				s.Stats.AddNeededNotAvailable(1)
			}
		} else {
			if err := s.concealOne(format, frame); err != nil {
				s.Log.Errorf("concealing loss: %v", err)
			}
			if s.Stats != nil {
				s.Stats.AddNeededAvailable(1)
			}
		}

		// Age the slot the concealed frame came from: push an Unspec
		// placeholder of zeros back in its place so a later, overlapping
		// loss doesn't replay the same bytes twice.
		s.redundancyQueue.PushZeros(frameSize)
		s.entryTypeRing.Push([]byte{byte(aafformat.Unspec)}, 1)
	}

	if s.Stats != nil {
		s.Stats.AddTotal(uint64(numLost))
		s.Stats.AddLost(uint64(numLost))
		s.Stats.MaybeReport()
	}

	return true
}

// concealOne appends one synthesized frame to the media queue's head
// item, pushing it only once it has accumulated itemSize bytes (spec
// §4.G step 3, §5). frame, if non-nil, holds RedundancyFrameSize bytes
// in format and is converted to the queue's internal format; a nil
// frame (or an Unspec format) yields silence instead. The item's
// timestamp-valid flag is cleared on every concealed fragment, since a
// concealed item can never carry a trustworthy presentation time.
func (s *Session) concealOne(format aafformat.Format, frame []byte) error {
	item, ok := s.Queue.HeadLock()
	if !ok {
		return nil
	}

	info := s.Queue.Info()
	dst := item.Payload()[item.Len():]

	var n int
	if frame == nil || format == aafformat.Unspec {
		n = s.Sizes.PayloadSize
		if n > len(dst) {
			n = len(dst)
		}
		for i := 0; i < n; i++ {
			dst[i] = 0
		}
	} else {
		primaryLen := s.Sizes.PayloadSize
		if primaryLen > len(frame) {
			primaryLen = len(frame)
		}
		converted, err := sampleconv.Convert(dst, frame[:primaryLen], format, info.AudioType)
		if err != nil {
			s.Queue.HeadUnlock()
			return err
		}
		n = converted
	}

	if info.TranslateRxCB != nil {
		info.TranslateRxCB(s.Queue, dst[:n])
	}
	newLen := item.Len() + n
	item.SetLen(newLen)
	item.SetReadIdx(0)

	t := item.Time()
	t.SetValid(false)
	t.SetUncertain(true)

	if newLen >= item.ItemSize() {
		s.Queue.HeadPush()
	} else {
		s.Queue.HeadUnlock()
	}
	return nil
}
