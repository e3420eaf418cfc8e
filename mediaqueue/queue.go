// Package mediaqueue declares the bounded FIFO of fixed-size PCM items
// this module packs from (talker) and unpacks into (listener), as an
// external collaborator (spec §1, §6). The real queue lives in the AVTP
// engine's media stack; cmd/aafmap-demo provides a reference
// implementation (memqueue) for standalone testing and the demo.
package mediaqueue

import (
	"time"

	"github.com/avtp-tools/aafmap/avtptime"
	"github.com/avtp-tools/aafmap/pkg/aafformat"
	"github.com/avtp-tools/aafmap/pkg/avtprate"
)

// Item is one fixed-size slot of the media queue.
type Item interface {
	// Payload returns the item's backing buffer, of length ItemSize().
	Payload() []byte
	// Len returns the number of valid bytes currently in Payload
	// (dataLen in spec §3).
	Len() int
	// SetLen sets the number of valid bytes.
	SetLen(int)
	// ItemSize returns the fixed capacity of Payload.
	ItemSize() int
	// ReadIdx returns the talker's read cursor into Payload.
	ReadIdx() int
	// SetReadIdx sets the talker's read cursor.
	SetReadIdx(int)
	// Time returns the item's AVTP time handle.
	Time() avtptime.Time
}

// Info describes the static audio parameters and optional hooks of a
// queue, mirroring spec §6's "public-info struct".
type Info struct {
	AudioRate               avtprate.Rate
	AudioType               aafformat.Format
	AudioBitDepth           int
	AudioChannels           int
	PresentationLatencyUSec uint32

	// TranslateRxCB, if non-nil, is invoked on each newly written region
	// of a listener item before it is accounted into Len (intf_rx_translate_cb).
	TranslateRxCB func(q Queue, buf []byte)
}

// Queue is a bounded FIFO of fixed-size Items with independent head
// (listener/write side) and tail (talker/read side) locking, per spec §5.
type Queue interface {
	// SetSize configures the queue to hold the given number of items of
	// itemSize bytes each.
	SetSize(items, itemSize int) error
	// SetMaxLatency sets the maximum buffered latency before items are
	// dropped upstream; advisory, forwarded verbatim to the AVTP engine.
	SetMaxLatency(d time.Duration)
	// IsAvailableBytes reports whether at least n bytes are available to
	// read from the current tail item onward.
	IsAvailableBytes(n int) bool

	// HeadLock locks and returns the head item for writing (listener
	// side). ok is false if no item is available to lock.
	HeadLock() (Item, bool)
	// HeadUnlock releases the head lock without advancing the queue.
	HeadUnlock()
	// HeadPush releases the head lock and advances the queue, publishing
	// the now-full item to readers.
	HeadPush()

	// TailLock locks and returns the tail item for reading (talker
	// side). ok is false if no item is available to lock.
	TailLock() (Item, bool)
	// TailUnlock releases the tail lock without advancing the queue.
	TailUnlock()
	// TailPull releases the tail lock and advances the queue, discarding
	// the now fully-read item.
	TailPull()

	// Info returns the queue's static audio parameters and hooks.
	Info() Info
}
