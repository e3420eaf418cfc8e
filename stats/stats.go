// Package stats tracks the four listener counters of spec §3/§4.F.6
// (total, lost, neededAvailable, neededNotAvailable), logs them
// periodically, and optionally mirrors them as Prometheus metrics —
// grounded on snapetech-plexTuner's prometheus/client_golang usage.
package stats

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/avtp-tools/aafmap/clock"
	"github.com/avtp-tools/aafmap/logging"
)

// Counters is a point-in-time snapshot of the four listener counters.
type Counters struct {
	Total             uint64
	Lost              uint64
	NeededAvailable   uint64
	NeededNotAvailable uint64
}

// Collector accumulates Counters and emits a periodic log line plus,
// when Metrics is non-nil, Prometheus observations.
type Collector struct {
	counters Counters

	reportEvery time.Duration
	nextReport  int64 // unix nano deadline; 0 disables reporting
	clock       clock.Clock
	log         logging.Logger

	metrics *Metrics
}

// Metrics is a set of Prometheus collectors for one session. Register
// them with a prometheus.Registerer (e.g. the demo's /metrics endpoint).
type Metrics struct {
	Total              prometheus.Counter
	Lost               prometheus.Counter
	NeededAvailable    prometheus.Counter
	NeededNotAvailable prometheus.Counter
}

// NewMetrics builds a Metrics set labeled with streamID, registering
// nothing by itself — the caller decides when/where to register.
func NewMetrics(streamID string) *Metrics {
	labels := prometheus.Labels{"stream": streamID}
	return &Metrics{
		Total: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace:   "aafmap",
			Name:        "frames_total",
			Help:        "Total AAF frames observed by the listener.",
			ConstLabels: labels,
		}),
		Lost: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace:   "aafmap",
			Name:        "frames_lost_total",
			Help:        "AAF frames reported lost by the AVTP engine.",
			ConstLabels: labels,
		}),
		NeededAvailable: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace:   "aafmap",
			Name:        "concealed_available_total",
			Help:        "Lost frames concealed from the redundancy queue.",
			ConstLabels: labels,
		}),
		NeededNotAvailable: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace:   "aafmap",
			Name:        "concealed_unavailable_total",
			Help:        "Lost frames with no redundant copy available; filled with silence.",
			ConstLabels: labels,
		}),
	}
}

// Register adds every collector in m to reg.
func (m *Metrics) Register(reg prometheus.Registerer) error {
	for _, c := range []prometheus.Collector{m.Total, m.Lost, m.NeededAvailable, m.NeededNotAvailable} {
		if err := reg.Register(c); err != nil {
			return err
		}
	}
	return nil
}

// NewCollector builds a Collector. reportEvery of 0 disables periodic
// reporting (spec §6 map_nv_report_seconds == 0). metrics may be nil.
func NewCollector(reportEvery time.Duration, c clock.Clock, log logging.Logger, metrics *Metrics) *Collector {
	col := &Collector{reportEvery: reportEvery, clock: c, log: log, metrics: metrics}
	if reportEvery > 0 {
		col.nextReport = c.NowUnixNano() + int64(reportEvery)
	}
	return col
}

// Snapshot returns the current counters.
func (c *Collector) Snapshot() Counters {
	return c.counters
}

// AddTotal increments the total-frames counter by delta.
func (c *Collector) AddTotal(delta uint64) {
	c.counters.Total += delta
	if c.metrics != nil {
		c.metrics.Total.Add(float64(delta))
	}
}

// AddLost increments the lost-frames counter by delta.
func (c *Collector) AddLost(delta uint64) {
	c.counters.Lost += delta
	if c.metrics != nil {
		c.metrics.Lost.Add(float64(delta))
	}
}

// AddNeededAvailable increments the concealed-from-redundancy counter.
func (c *Collector) AddNeededAvailable(delta uint64) {
	c.counters.NeededAvailable += delta
	if c.metrics != nil {
		c.metrics.NeededAvailable.Add(float64(delta))
	}
}

// AddNeededNotAvailable increments the concealed-with-silence counter.
func (c *Collector) AddNeededNotAvailable(delta uint64) {
	c.counters.NeededNotAvailable += delta
	if c.metrics != nil {
		c.metrics.NeededNotAvailable.Add(float64(delta))
	}
}

// MaybeReport logs and resets the counters if reporting is enabled and
// the deadline has passed. Per spec §4.F.6, the next deadline normally
// advances by exactly reportEvery; if the clock has jumped past it
// (a stall, or the session being resumed after a long pause), the
// deadline is re-anchored to now+reportEvery instead of firing a burst
// of back-to-back reports.
func (c *Collector) MaybeReport() {
	if c.reportEvery <= 0 {
		return
	}
	now := c.clock.NowUnixNano()
	if now < c.nextReport {
		return
	}

	c.log.Infof("aaf stats: total=%d lost=%d needed_available=%d needed_not_available=%d",
		c.counters.Total, c.counters.Lost, c.counters.NeededAvailable, c.counters.NeededNotAvailable)
	c.counters = Counters{}

	missedBy := now - c.nextReport
	if missedBy > int64(c.reportEvery) {
		c.nextReport = now + int64(c.reportEvery)
	} else {
		c.nextReport += int64(c.reportEvery)
	}
}
