package session

import (
	"time"

	"github.com/avtp-tools/aafmap/avtptime"
	"github.com/avtp-tools/aafmap/mediaqueue"
)

// fakeTime is a minimal avtptime.Time for tests.
type fakeTime struct {
	valid     bool
	uncertain bool
	ts        uint32
}

func (t *fakeTime) IsValid() bool         { return t.valid }
func (t *fakeTime) IsUncertain() bool     { return t.uncertain }
func (t *fakeTime) SetValid(b bool)       { t.valid = b }
func (t *fakeTime) SetUncertain(b bool)   { t.uncertain = b }
func (t *fakeTime) AddUSec(usec int64)    { t.ts += uint32(usec) }
func (t *fakeTime) SubUSec(usec int64)    { t.ts -= uint32(usec) }
func (t *fakeTime) AvtpTimestamp() uint32 { return t.ts }
func (t *fakeTime) SetToTimestamp(ts uint32) { t.ts = ts }

// fakeItem is a minimal mediaqueue.Item for tests.
type fakeItem struct {
	buf     []byte
	length  int
	readIdx int
	t       fakeTime
}

func newFakeItem(size int) *fakeItem {
	return &fakeItem{buf: make([]byte, size)}
}

func (i *fakeItem) Payload() []byte      { return i.buf }
func (i *fakeItem) Len() int             { return i.length }
func (i *fakeItem) SetLen(n int)         { i.length = n }
func (i *fakeItem) ItemSize() int        { return len(i.buf) }
func (i *fakeItem) ReadIdx() int         { return i.readIdx }
func (i *fakeItem) SetReadIdx(n int)     { i.readIdx = n }
func (i *fakeItem) Time() avtptime.Time  { return &i.t }

// fakeQueue is a tiny single-slot mediaqueue.Queue for tests: the
// listener's HeadLock/HeadPush and the talker's TailLock/TailPull share
// one ring of preloaded items, driven explicitly by each test rather
// than by concurrent producers/consumers.
type fakeQueue struct {
	items    []*fakeItem
	headIdx  int
	tailIdx  int
	pushed   []*fakeItem
	info     mediaqueue.Info
	itemSize int
}

func newFakeQueue(info mediaqueue.Info, itemSize int) *fakeQueue {
	return &fakeQueue{info: info, itemSize: itemSize}
}

func (q *fakeQueue) SetSize(items, itemSize int) error {
	q.itemSize = itemSize
	return nil
}

func (q *fakeQueue) SetMaxLatency(d time.Duration) {}

func (q *fakeQueue) IsAvailableBytes(n int) bool {
	if q.tailIdx >= len(q.items) {
		return false
	}
	it := q.items[q.tailIdx]
	return it.Len()-it.ReadIdx() >= n
}

func (q *fakeQueue) HeadLock() (mediaqueue.Item, bool) {
	it := newFakeItem(q.itemSize)
	return it, true
}

func (q *fakeQueue) HeadUnlock() {}

func (q *fakeQueue) HeadPush() {}

func (q *fakeQueue) pushHead(it *fakeItem) {
	q.pushed = append(q.pushed, it)
}

func (q *fakeQueue) TailLock() (mediaqueue.Item, bool) {
	if q.tailIdx >= len(q.items) {
		return nil, false
	}
	return q.items[q.tailIdx], true
}

func (q *fakeQueue) TailUnlock() {}

func (q *fakeQueue) TailPull() {
	q.tailIdx++
}

func (q *fakeQueue) Info() mediaqueue.Info { return q.info }

// recordingQueue wraps fakeQueue to capture items pushed via HeadPush,
// since fakeQueue.HeadLock normally hands back a throwaway item.
type recordingQueue struct {
	*fakeQueue
	locked *fakeItem
	pushes []*fakeItem
}

func newRecordingQueue(info mediaqueue.Info, itemSize int) *recordingQueue {
	return &recordingQueue{fakeQueue: newFakeQueue(info, itemSize)}
}

func (q *recordingQueue) HeadLock() (mediaqueue.Item, bool) {
	q.locked = newFakeItem(q.itemSize)
	return q.locked, true
}

func (q *recordingQueue) HeadPush() {
	q.pushes = append(q.pushes, q.locked)
}
