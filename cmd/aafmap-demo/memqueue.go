package main

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/avtp-tools/aafmap/avtptime"
	"github.com/avtp-tools/aafmap/mediaqueue"
)

// memQueue is a fixed-size ring of media queue items with independent
// head (write/listener) and tail (read/talker) locks, per mediaqueue.Queue's
// contract. Adapted from pkg/ringbuffer.RingBuffer's index bookkeeping,
// generalized from single interface{} slots under one shared mutex to
// fixed-size byte-buffer items under two mutexes — one per side, so a
// listener filling the head and a talker draining the tail never block
// each other — with an atomic occupancy counter standing in for the
// cross-side signal the teacher's sync.Cond provided.
type memQueue struct {
	headMu sync.Mutex
	tailMu sync.Mutex

	items    []*memItem
	itemSize int
	readIdx  int
	writeIdx int
	count    int32 // atomic; slots currently holding a pushed item

	maxLatency time.Duration
	info       mediaqueue.Info
}

// memItem is one fixed-capacity slot of a memQueue.
type memItem struct {
	buf     []byte
	length  int
	readIdx int
	t       memTime
}

func (it *memItem) Payload() []byte     { return it.buf }
func (it *memItem) Len() int            { return it.length }
func (it *memItem) SetLen(n int)        { it.length = n }
func (it *memItem) ItemSize() int       { return len(it.buf) }
func (it *memItem) ReadIdx() int        { return it.readIdx }
func (it *memItem) SetReadIdx(n int)    { it.readIdx = n }
func (it *memItem) Time() avtptime.Time { return &it.t }

// memTime is the avtptime.Time implementation backing memItem, a plain
// struct rather than a binding to real MCR hardware.
type memTime struct {
	valid     bool
	uncertain bool
	ts        uint32
}

func (t *memTime) IsValid() bool            { return t.valid }
func (t *memTime) IsUncertain() bool        { return t.uncertain }
func (t *memTime) SetValid(b bool)          { t.valid = b }
func (t *memTime) SetUncertain(b bool)      { t.uncertain = b }
func (t *memTime) AddUSec(usec int64)       { t.ts = uint32(int64(t.ts) + usec) }
func (t *memTime) SubUSec(usec int64)       { t.ts = uint32(int64(t.ts) - usec) }
func (t *memTime) AvtpTimestamp() uint32    { return t.ts }
func (t *memTime) SetToTimestamp(ts uint32) { t.ts = ts }

// newMemQueue allocates a memQueue described by info. It starts with no
// item slots; call SetSize before use, as the AVTP engine would once it
// learns the mapping's item size from GenInit.
func newMemQueue(info mediaqueue.Info) *memQueue {
	return &memQueue{info: info}
}

// SetSize implements mediaqueue.Queue. Not safe to call concurrently
// with Head/Tail operations; the AVTP engine only calls it during setup.
func (q *memQueue) SetSize(items, itemSize int) error {
	q.headMu.Lock()
	defer q.headMu.Unlock()
	q.tailMu.Lock()
	defer q.tailMu.Unlock()

	q.items = make([]*memItem, items)
	for i := range q.items {
		q.items[i] = &memItem{buf: make([]byte, itemSize)}
	}
	q.itemSize = itemSize
	q.readIdx = 0
	q.writeIdx = 0
	atomic.StoreInt32(&q.count, 0)
	return nil
}

// SetMaxLatency implements mediaqueue.Queue.
func (q *memQueue) SetMaxLatency(d time.Duration) {
	q.maxLatency = d
}

// IsAvailableBytes implements mediaqueue.Queue.
func (q *memQueue) IsAvailableBytes(n int) bool {
	q.tailMu.Lock()
	defer q.tailMu.Unlock()
	if atomic.LoadInt32(&q.count) == 0 {
		return false
	}
	it := q.items[q.readIdx]
	return it.Len()-it.ReadIdx() >= n
}

// HeadLock implements mediaqueue.Queue: locks the next free slot for
// writing. ok is false when every slot is already full (the listener is
// outrunning the talker's consumption).
func (q *memQueue) HeadLock() (mediaqueue.Item, bool) {
	q.headMu.Lock()
	if len(q.items) == 0 || int(atomic.LoadInt32(&q.count)) == len(q.items) {
		q.headMu.Unlock()
		return nil, false
	}
	return q.items[q.writeIdx], true
}

// HeadUnlock implements mediaqueue.Queue.
func (q *memQueue) HeadUnlock() {
	q.headMu.Unlock()
}

// HeadPush implements mediaqueue.Queue: publishes the locked slot and
// advances the write cursor. Must be called with the head lock held.
func (q *memQueue) HeadPush() {
	q.writeIdx = (q.writeIdx + 1) % len(q.items)
	atomic.AddInt32(&q.count, 1)
	q.headMu.Unlock()
}

// TailLock implements mediaqueue.Queue: locks the oldest unread slot.
// ok is false when the queue is empty.
func (q *memQueue) TailLock() (mediaqueue.Item, bool) {
	q.tailMu.Lock()
	if atomic.LoadInt32(&q.count) == 0 {
		q.tailMu.Unlock()
		return nil, false
	}
	return q.items[q.readIdx], true
}

// TailUnlock implements mediaqueue.Queue.
func (q *memQueue) TailUnlock() {
	q.tailMu.Unlock()
}

// TailPull implements mediaqueue.Queue: discards the locked slot and
// advances the read cursor. Must be called with the tail lock held.
func (q *memQueue) TailPull() {
	it := q.items[q.readIdx]
	it.SetLen(0)
	it.SetReadIdx(0)
	q.readIdx = (q.readIdx + 1) % len(q.items)
	atomic.AddInt32(&q.count, -1)
	q.tailMu.Unlock()
}

// Info implements mediaqueue.Queue.
func (q *memQueue) Info() mediaqueue.Info {
	return q.info
}

var _ mediaqueue.Queue = (*memQueue)(nil)
