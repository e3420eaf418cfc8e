// Package config holds the map_nv_* key/value configuration of spec §6.
// Parsing a config file or CLI flags into this flat namespace is the
// out-of-scope "configuration key/value parsing" collaborator; this
// package only defines the namespace and turns it into typed session
// configuration.
package config

import "github.com/avtp-tools/aafmap/pkg/liberrors"

// Key names, verbatim from spec §6.
const (
	KeyItemCount               = "map_nv_item_count"
	KeyPackingFactor           = "map_nv_packing_factor"
	KeyTxRate                  = "map_nv_tx_rate"
	KeyTxInterval              = "map_nv_tx_interval"
	KeySparseMode              = "map_nv_sparse_mode"
	KeyAudioMCR                = "map_nv_audio_mcr"
	KeyMCRTimestampInterval    = "map_nv_mcr_timestamp_interval"
	KeyMCRRecoveryInterval     = "map_nv_mcr_recovery_interval"
	KeyTemporalRedundantOffset = "map_nv_temporal_redundant_offset"
	KeyMaxAllowedDropoutTime   = "map_nv_max_allowed_dropout_time"
	KeyReportSeconds           = "map_nv_report_seconds"
)

// Store is a flat, typed key/value namespace, built up one Cfg call at a
// time the way the AVTP engine feeds configuration to a mapping instance
// (spec §6 Cfg(name, value)).
type Store struct {
	values map[string]int64
}

// NewStore returns an empty Store.
func NewStore() *Store {
	return &Store{values: map[string]int64{}}
}

// Set records one key/value pair.
func (s *Store) Set(name string, value int64) {
	s.values[name] = value
}

// Get returns the value for name and whether it was set.
func (s *Store) Get(name string) (int64, bool) {
	v, ok := s.values[name]
	return v, ok
}

// GetOr returns the value for name, or def if unset.
func (s *Store) GetOr(name string, def int64) int64 {
	if v, ok := s.values[name]; ok {
		return v
	}
	return def
}

// SessionConfig is the subset of Store consumed directly by a session.
type SessionConfig struct {
	ItemCount               int
	PackingFactor           int
	TxIntervalHz            int
	SparseMode              bool
	AudioMCR                int64
	MCRTimestampInterval    int64
	MCRRecoveryInterval     int64
	RedundancyOffsetUsec    int64
	ReportSeconds           int
}

// SessionConfig reduces the Store to a SessionConfig. Only the keys this
// module's core consumes directly are validated here; MCR keys are
// forwarded verbatim per spec §6 ("opaque to this core").
func (s *Store) SessionConfig() (SessionConfig, error) {
	var c SessionConfig

	c.ItemCount = int(s.GetOr(KeyItemCount, 0))
	if c.ItemCount <= 0 {
		return SessionConfig{}, liberrors.ErrNotInitialized{Step: KeyItemCount}
	}

	c.PackingFactor = int(s.GetOr(KeyPackingFactor, 1))

	c.TxIntervalHz = int(s.GetOr(KeyTxInterval, s.GetOr(KeyTxRate, 0)))
	if c.TxIntervalHz <= 0 {
		return SessionConfig{}, liberrors.ErrNotInitialized{Step: KeyTxInterval}
	}

	c.SparseMode = s.GetOr(KeySparseMode, 0) != 0
	c.AudioMCR = s.GetOr(KeyAudioMCR, 0)
	c.MCRTimestampInterval = s.GetOr(KeyMCRTimestampInterval, 0)
	c.MCRRecoveryInterval = s.GetOr(KeyMCRRecoveryInterval, 0)

	// map_nv_temporal_redundant_offset and map_nv_max_allowed_dropout_time
	// are aliases for the same knob (spec §6); prefer whichever is set,
	// falling back to the other.
	offset := s.GetOr(KeyTemporalRedundantOffset, -1)
	if offset < 0 {
		offset = s.GetOr(KeyMaxAllowedDropoutTime, 0)
	}
	c.RedundancyOffsetUsec = offset

	c.ReportSeconds = int(s.GetOr(KeyReportSeconds, 0))

	return c, nil
}
