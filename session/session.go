// Package session implements the stateful AAF mapping instance: the
// talker (packetizer), listener (depacketizer) and loss-concealer
// pipelines of spec §4.E/F/G, wired together over the external
// mediaqueue.Queue and avtptime.Time collaborators.
package session

import (
	"time"

	"github.com/google/uuid"

	"github.com/avtp-tools/aafmap/clock"
	"github.com/avtp-tools/aafmap/logging"
	"github.com/avtp-tools/aafmap/mediaqueue"
	"github.com/avtp-tools/aafmap/pkg/aafformat"
	"github.com/avtp-tools/aafmap/pkg/aafsize"
	"github.com/avtp-tools/aafmap/pkg/liberrors"
	"github.com/avtp-tools/aafmap/pkg/ringqueue"
	"github.com/avtp-tools/aafmap/stats"
)

// Direction is which side of the mapping a Session implements.
type Direction int

// Directions.
const (
	Talker Direction = iota
	Listener
)

// TxStatus is the result of one Tx call.
type TxStatus int

// Tx results.
const (
	PacketNotReady TxStatus = iota
	PacketReady
)

// Mapping is the interface the AVTP engine drives a mapping instance
// through, one call per packet period or per received packet (spec §6).
// Session implements it for both directions; which methods are actually
// called depends on Direction.
type Mapping interface {
	Subtype() uint8
	AvtpVersion() uint8
	MaxDataSize() int
	TransmitInterval() time.Duration
	Cfg(name string, value int64) error
	GenInit() error
	TxInit() error
	Tx(buf []byte) (n int, status TxStatus, err error)
	RxInit() error
	Rx(buf []byte) (ok bool)
	RxLost(numLost int) (ok bool)
	End()
	GenEnd()
}

var _ Mapping = (*Session)(nil)

// Config is the session configuration of spec §3, plus the fields the
// §6 config-key table does not name but the data model requires
// (MaxTransitUsec, PresentationLatencyUSec, EventChannelLayout).
type Config struct {
	RateHz        int
	Format        aafformat.Format
	BitDepth      int
	Channels      int
	TxIntervalHz  int
	PackingFactor int
	Sparse        aafformat.Sparse

	// RedundancyOffsetUsec is the temporal redundancy offset; 0 disables
	// redundancy (map_nv_temporal_redundant_offset / map_nv_max_allowed_dropout_time).
	RedundancyOffsetUsec int64

	ReportSeconds int

	// MaxTransitUsec is added to every outgoing presentation timestamp
	// (spec §4.E step 3); not one of the named config keys, but part of
	// the session data model (spec §3).
	MaxTransitUsec int64

	// PresentationLatencyUSec is subtracted from every incoming
	// timestamp on the listener side (spec §4.F step 2).
	PresentationLatencyUSec uint32

	EventChannelLayout aafformat.ChannelLayout

	// Debug enables the §4.F.5 redundancy aged-out/primary comparison
	// logging, standing in for the original's "debug build" conditional.
	Debug bool
}

// RedundancyEnabled reports whether temporal redundancy is configured.
func (c Config) RedundancyEnabled() bool {
	return c.RedundancyOffsetUsec > 0
}

// Session is one AAF mapping instance, talker or listener (spec §3).
type Session struct {
	ID        uuid.UUID
	Direction Direction
	Config    Config
	Sizes     aafsize.Sizes

	Queue mediaqueue.Queue
	Log   logging.Logger
	Clock clock.Clock
	Stats *stats.Collector

	sparse            aafformat.Sparse // effective; can diverge from Config.Sparse on listener mismatch (spec §9 open question)
	redundancyEnabled bool             // effective; can be forced off one-way on the listener (spec §4.F step 1)
	dataValid         bool             // stream-unmuted flag (spec §3)
	mediaQItemSyncTS  bool             // listener has seen a timestamped packet (spec §3)

	redundancyQueue *ringqueue.Queue
	entryTypeRing   *ringqueue.Queue // listener-only: AAF format tag per redundant frame
	scratch         []byte           // listener-only: per-session conversion scratch (spec §9)

	genInitialized bool
	txRxInitDone   bool
	txSeq          uint8
}

// New allocates a Session. Call Cfg for every configuration key and then
// GenInit before Tx/Rx.
func New(dir Direction, q mediaqueue.Queue, log logging.Logger, c clock.Clock) *Session {
	if log == nil {
		log = logging.Nop{}
	}
	if c == nil {
		c = clock.System{}
	}
	s := &Session{
		ID:        uuid.New(),
		Direction: dir,
		Queue:     q,
		Log:       log,
		Clock:     c,
		dataValid: true,
	}
	s.Log = logging.Prefixed{Prefix: "[" + s.ID.String()[:8] + "] ", Next: log}
	return s
}

// Subtype implements Mapping.
func (s *Session) Subtype() uint8 { return 0x02 }

// AvtpVersion implements Mapping.
func (s *Session) AvtpVersion() uint8 { return 0x00 }

// MaxDataSize implements Mapping.
func (s *Session) MaxDataSize() int {
	if s.Direction == Talker {
		return aafHeaderLen + s.Sizes.PayloadSizeMaxTalker
	}
	return aafHeaderLen + s.Sizes.PayloadSizeMaxListener
}

const aafHeaderLen = 24

// TransmitInterval implements Mapping.
func (s *Session) TransmitInterval() time.Duration {
	if s.Config.TxIntervalHz <= 0 {
		return 0
	}
	return time.Second / time.Duration(s.Config.TxIntervalHz)
}

// applySizes recomputes Sizes from Config, validating along the way
// (spec §4.C / §7 "Misconfiguration" row).
func (s *Session) applySizes() error {
	sizes, err := aafsize.Calculate(aafsize.Config{
		RateHz:               s.Config.RateHz,
		Format:               s.Config.Format,
		BitDepth:             s.Config.BitDepth,
		Channels:             s.Config.Channels,
		TxIntervalHz:         s.Config.TxIntervalHz,
		PackingFactor:        s.Config.PackingFactor,
		RedundancyEnabled:    s.Config.RedundancyEnabled(),
		RedundancyOffsetUsec: s.Config.RedundancyOffsetUsec,
	})
	if err != nil {
		s.Log.Errorf("configuration rejected: %v", err)
		return err
	}
	if err := aafsize.ValidatePackingFactor(s.Config.PackingFactor, s.Config.Sparse.Enabled()); err != nil {
		s.Log.Errorf("configuration rejected: %v", err)
		return err
	}
	s.Sizes = sizes
	s.sparse = s.Config.Sparse
	s.redundancyEnabled = s.Config.RedundancyEnabled()
	return nil
}

// Cfg implements Mapping: applies one map_nv_* key (spec §6). Callers
// typically set every field of Config directly and then call ApplyConfig
// once; Cfg exists for engines that feed keys in one at a time.
func (s *Session) Cfg(name string, value int64) error {
	switch name {
	case "map_nv_tx_rate", "map_nv_tx_interval":
		s.Config.TxIntervalHz = int(value)
	case "map_nv_sparse_mode":
		if value != 0 {
			s.Config.Sparse = aafformat.SparseEnabled
		} else {
			s.Config.Sparse = aafformat.SparseDisabled
		}
	case "map_nv_packing_factor":
		s.Config.PackingFactor = int(value)
	case "map_nv_temporal_redundant_offset", "map_nv_max_allowed_dropout_time":
		s.Config.RedundancyOffsetUsec = value
	case "map_nv_report_seconds":
		s.Config.ReportSeconds = int(value)
	default:
		// map_nv_audio_mcr, map_nv_mcr_timestamp_interval,
		// map_nv_mcr_recovery_interval, map_nv_item_count: forwarded
		// verbatim to the MCR/queue collaborators, opaque to this core.
	}
	return s.applySizes()
}

// ApplyConfig validates and adopts c as the session's configuration.
func (s *Session) ApplyConfig(c Config) error {
	s.Config = c
	return s.applySizes()
}

// GenInit allocates the redundancy machinery once sizes are known (spec
// §3 "allocated on gen-init (talker) or rx-init (listener)"). Both
// directions share this step since both sides run a redundancy queue.
func (s *Session) GenInit() error {
	if s.Sizes.FramesPerPacket == 0 {
		return liberrors.ErrNotInitialized{Step: "Cfg"}
	}

	if s.redundancyEnabled {
		q, err := ringqueue.New(s.Sizes.RedundancyQueueCapacity)
		if err != nil {
			return liberrors.ErrAllocationFailed{What: "redundancy queue", Err: err}
		}
		s.redundancyQueue = q
		// Pre-fill with redundancyOffsetPackets frames of zeros so the
		// first primaries pair with a zeroed redundant copy (spec
		// invariant 2 / scenario S3).
		for i := 0; i < s.Sizes.RedundancyOffsetPackets; i++ {
			s.redundancyQueue.PushZeros(s.Sizes.RedundancyFrameSize)
		}

		if s.Direction == Listener {
			ring, err := ringqueue.New(s.Sizes.RedundancyOffsetPackets + 10)
			if err != nil {
				return liberrors.ErrAllocationFailed{What: "entry-type ring", Err: err}
			}
			s.entryTypeRing = ring
			for i := 0; i < s.Sizes.RedundancyOffsetPackets; i++ {
				s.entryTypeRing.Push([]byte{byte(aafformat.Unspec)}, 1)
			}
			s.scratch = make([]byte, s.Sizes.RedundancyFrameSize)
		}
	}

	if s.Config.ReportSeconds > 0 || s.Stats == nil {
		s.Stats = stats.NewCollector(time.Duration(s.Config.ReportSeconds)*time.Second, s.Clock, s.Log, nil)
	}

	s.genInitialized = true
	s.dataValid = true
	s.mediaQItemSyncTS = false
	return nil
}

// TxInit implements Mapping (talker-side readiness step beyond GenInit).
func (s *Session) TxInit() error {
	if !s.genInitialized {
		return liberrors.ErrNotInitialized{Step: "GenInit"}
	}
	s.txRxInitDone = true
	return nil
}

// RxInit implements Mapping (listener-side readiness step beyond GenInit).
func (s *Session) RxInit() error {
	if !s.genInitialized {
		return liberrors.ErrNotInitialized{Step: "GenInit"}
	}
	s.txRxInitDone = true
	return nil
}

// End implements Mapping: per-stream teardown short of freeing the
// session (e.g. a stream restart that will GenInit again).
func (s *Session) End() {
	s.txRxInitDone = false
}

// GenEnd implements Mapping: frees the redundancy machinery (spec §3
// "freed on gen-end"). Go's GC reclaims the backing arrays; clearing the
// references here makes "not allocated" an explicit, checkable state
// rather than relying on them becoming garbage at an unspecified time.
func (s *Session) GenEnd() {
	s.redundancyQueue = nil
	s.entryTypeRing = nil
	s.scratch = nil
	s.genInitialized = false
	s.txRxInitDone = false
}

// DataValid reports the current stream mute state (spec §3 dataValid).
func (s *Session) DataValid() bool {
	return s.dataValid
}

// EffectiveSparse reports the session's current sparse-mode setting,
// which may have diverged from Config.Sparse after a listener adopted
// the stream's setting (spec §9 open question, preserved verbatim).
func (s *Session) EffectiveSparse() aafformat.Sparse {
	return s.sparse
}

// RedundancyEnabled reports whether redundancy is still active for this
// session; the listener can force this to false one-way (spec §4.F step 1).
func (s *Session) RedundancyEnabled() bool {
	return s.redundancyEnabled
}

func (s *Session) mute(reason error) {
	if s.dataValid {
		s.dataValid = false
		s.Log.Errorf("stream muted: %v", reason)
	}
}

func (s *Session) unmute() {
	if !s.dataValid {
		s.dataValid = true
		s.Log.Infof("stream un-muted")
	}
}
