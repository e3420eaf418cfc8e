// Package aafsize derives the packet/item/redundancy sizing constants of
// an AAF mapping session from its configuration (spec §4.C).
package aafsize

import (
	"github.com/avtp-tools/aafmap/pkg/aafformat"
	"github.com/avtp-tools/aafmap/pkg/liberrors"
)

// Config is the subset of session configuration the size calculator needs.
type Config struct {
	RateHz                int
	Format                aafformat.Format
	BitDepth              int
	Channels              int
	TxIntervalHz          int
	PackingFactor         int
	RedundancyEnabled     bool
	RedundancyOffsetUsec  int64
}

// Sizes holds every size/offset derived from a Config.
type Sizes struct {
	FramesPerPacket         int
	PacketSampleSizeBytes   int
	ItemSampleSizeBytes     int
	PayloadSize             int
	PayloadSizeMaxListener  int
	PayloadSizeMaxTalker    int
	ItemSize                int
	RedundancyOffsetSamples int64
	RedundancyOffsetPackets int
	RedundancyQueueCapacity int
	// RedundancyFrameSize is the per-frame unit size used by both the
	// talker's delay queue and the listener's concealment queue: the
	// "payloadSizeMaxListener_pre_double" quantity named in spec §4.C,
	// computed regardless of whether redundancy is enabled so RxInit/GenInit
	// can size the queue the moment it is turned on.
	RedundancyFrameSize int

	// FramesPerPacketExact is false when rate/txInterval did not divide
	// evenly, a warn-only condition (spec §4.C).
	FramesPerPacketExact bool
}

// Calculate derives Sizes from cfg. It returns liberrors.ErrBadRate if the
// transmit interval is not positive, liberrors.ErrBadBitDepth (carrying
// cfg.BitDepth) if cfg.Format is not a supported integer format — the
// BitDepth value itself is not checked — and
// liberrors.ErrRedundancyOffsetNotIntegral if redundancy is requested but
// the offset does not divide evenly into whole packets — per spec §4.C
// that case is a fatal configuration error for the instance, not a
// silent rounding.
func Calculate(cfg Config) (Sizes, error) {
	var s Sizes

	if cfg.TxIntervalHz <= 0 {
		return Sizes{}, liberrors.ErrBadRate{Hz: cfg.TxIntervalHz}
	}

	s.FramesPerPacket = ceilDiv(cfg.RateHz, cfg.TxIntervalHz)
	s.FramesPerPacketExact = cfg.RateHz%cfg.TxIntervalHz == 0

	sampleSize, ok := cfg.Format.BytesPerSample()
	if !ok {
		return Sizes{}, liberrors.ErrBadBitDepth{BitDepth: cfg.BitDepth}
	}
	s.PacketSampleSizeBytes = sampleSize
	s.ItemSampleSizeBytes = sampleSize

	s.PayloadSize = s.FramesPerPacket * cfg.Channels * s.PacketSampleSizeBytes

	s.RedundancyFrameSize = 4 * cfg.Channels * s.FramesPerPacket
	s.PayloadSizeMaxListener = s.RedundancyFrameSize * 2

	s.PayloadSizeMaxTalker = s.PayloadSize
	if cfg.RedundancyEnabled {
		s.PayloadSizeMaxTalker *= 2
	}

	packingFactor := cfg.PackingFactor
	if packingFactor <= 0 {
		packingFactor = 1
	}
	s.ItemSize = s.FramesPerPacket * packingFactor * cfg.Channels * s.ItemSampleSizeBytes

	if cfg.RedundancyEnabled {
		s.RedundancyOffsetSamples = cfg.RedundancyOffsetUsec * int64(cfg.RateHz) / 1_000_000
		if s.FramesPerPacket == 0 || s.RedundancyOffsetSamples%int64(s.FramesPerPacket) != 0 {
			return Sizes{}, liberrors.ErrRedundancyOffsetNotIntegral{
				OffsetSamples:   s.RedundancyOffsetSamples,
				FramesPerPacket: s.FramesPerPacket,
			}
		}
		s.RedundancyOffsetPackets = int(s.RedundancyOffsetSamples / int64(s.FramesPerPacket))
		s.RedundancyQueueCapacity = s.RedundancyFrameSize * (s.RedundancyOffsetPackets + 2)
	}

	return s, nil
}

func ceilDiv(a, b int) int {
	if b == 0 {
		return 0
	}
	return (a + b - 1) / b
}

// ValidatePackingFactor enforces spec §6's sparse-mode packing-factor
// constraint: with sparse mode the packing factor must be 1, 2, 4 or a
// multiple of 8.
func ValidatePackingFactor(packingFactor int, sparse bool) error {
	if !sparse {
		return nil
	}
	if packingFactor == 1 || packingFactor == 2 || packingFactor == 4 || packingFactor%8 == 0 {
		return nil
	}
	return liberrors.ErrBadPackingFactor{PackingFactor: packingFactor}
}
