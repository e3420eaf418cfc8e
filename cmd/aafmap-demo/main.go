// Command aafmap-demo wires a talker Session and a listener Session back
// to back over an in-process byte pipe standing in for the AVTP
// transport, so the mapping core can be exercised end to end without a
// real AVB network. It logs periodic stats and serves them on /metrics.
package main

import (
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	charmlog "github.com/charmbracelet/log"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/pflag"
	"gopkg.in/yaml.v3"

	"github.com/avtp-tools/aafmap/clock"
	"github.com/avtp-tools/aafmap/config"
	"github.com/avtp-tools/aafmap/logging"
	"github.com/avtp-tools/aafmap/mediaqueue"
	"github.com/avtp-tools/aafmap/pkg/aafformat"
	"github.com/avtp-tools/aafmap/pkg/avtprate"
	"github.com/avtp-tools/aafmap/session"
	"github.com/avtp-tools/aafmap/stats"
)

// fileConfig mirrors config.SessionConfig for YAML loading; field names
// follow the map_nv_* keys without the prefix, the way a deployment
// manifest would name them.
type fileConfig struct {
	RateHz               int   `yaml:"rate_hz"`
	Channels             int   `yaml:"channels"`
	BitDepth             int   `yaml:"bit_depth"`
	TxIntervalHz         int64 `yaml:"tx_interval_hz"`
	PackingFactor        int64 `yaml:"packing_factor"`
	SparseMode           bool  `yaml:"sparse_mode"`
	RedundancyOffsetUsec int64 `yaml:"temporal_redundant_offset_usec"`
	ReportSeconds        int64 `yaml:"report_seconds"`
	ItemCount            int64 `yaml:"item_count"`
}

func main() {
	configPath := pflag.StringP("config", "c", "", "YAML config file (keys it sets override the flags below, even explicit ones)")
	addr := pflag.StringP("addr", "a", ":9273", "HTTP listen address for /metrics")
	rateHz := pflag.Int("rate-hz", 48000, "PCM sample rate")
	channels := pflag.Int("channels", 2, "channel count")
	bitDepth := pflag.Int("bit-depth", 16, "PCM bit depth (16, 24 or 32)")
	txIntervalHz := pflag.Int64("tx-interval-hz", 8000, "AVTP packet transmit rate")
	packingFactor := pflag.Int64("packing-factor", 1, "media queue item packing factor")
	sparseMode := pflag.Bool("sparse", false, "enable sparse timestamp mode")
	redundancyUsec := pflag.Int64("redundancy-usec", 0, "temporal redundancy offset in microseconds; 0 disables")
	reportSeconds := pflag.Int64("report-seconds", 5, "stats reporting interval")
	itemCount := pflag.Int64("item-count", 8, "media queue item count")
	packets := pflag.Int("packets", 50, "number of packets to simulate before exiting")
	lossEvery := pflag.Int("loss-every", 0, "simulate one lost packet every N packets; 0 disables")
	verbose := pflag.BoolP("verbose", "v", false, "debug logging")
	pflag.Parse()

	logLevel := charmlog.InfoLevel
	if *verbose {
		logLevel = charmlog.DebugLevel
	}
	backend := charmlog.NewWithOptions(os.Stderr, charmlog.Options{
		ReportTimestamp: true,
		Level:           logLevel,
	})
	log := &charmLogger{l: backend}

	fc := fileConfig{
		RateHz:               *rateHz,
		Channels:             *channels,
		BitDepth:             *bitDepth,
		TxIntervalHz:         *txIntervalHz,
		PackingFactor:        *packingFactor,
		SparseMode:           *sparseMode,
		RedundancyOffsetUsec: *redundancyUsec,
		ReportSeconds:        *reportSeconds,
		ItemCount:            *itemCount,
	}
	if *configPath != "" {
		data, err := os.ReadFile(*configPath)
		if err != nil {
			log.Errorf("reading config: %v", err)
			os.Exit(1)
		}
		if err := yaml.Unmarshal(data, &fc); err != nil {
			log.Errorf("parsing config: %v", err)
			os.Exit(1)
		}
	}

	store := config.NewStore()
	store.Set(config.KeyItemCount, fc.ItemCount)
	store.Set(config.KeyTxInterval, fc.TxIntervalHz)
	store.Set(config.KeyPackingFactor, fc.PackingFactor)
	if fc.SparseMode {
		store.Set(config.KeySparseMode, 1)
	}
	store.Set(config.KeyTemporalRedundantOffset, fc.RedundancyOffsetUsec)
	store.Set(config.KeyReportSeconds, fc.ReportSeconds)

	sessCfg, err := store.SessionConfig()
	if err != nil {
		log.Errorf("config: %v", err)
		os.Exit(1)
	}

	sparse := aafformat.SparseDisabled
	if sessCfg.SparseMode {
		sparse = aafformat.SparseEnabled
	}
	format, ok := aafformat.Unspec, false
	switch fc.BitDepth {
	case 16:
		format, ok = aafformat.Int16, true
	case 24:
		format, ok = aafformat.Int24, true
	case 32:
		format, ok = aafformat.Int32, true
	}
	if !ok {
		log.Errorf("unsupported bit depth %d", fc.BitDepth)
		os.Exit(1)
	}

	cfg := session.Config{
		RateHz:             fc.RateHz,
		Format:             format,
		BitDepth:           fc.BitDepth,
		Channels:           fc.Channels,
		TxIntervalHz:       int(sessCfg.TxIntervalHz),
		PackingFactor:      sessCfg.PackingFactor,
		Sparse:             sparse,
		RedundancyOffsetUsec: sessCfg.RedundancyOffsetUsec,
		ReportSeconds:        sessCfg.ReportSeconds,
		EventChannelLayout:   aafformat.LayoutStereo,
	}

	rate, _ := avtprate.FromHz(fc.RateHz)
	info := mediaqueue.Info{
		AudioRate:     rate,
		AudioType:     format,
		AudioBitDepth: fc.BitDepth,
		AudioChannels: fc.Channels,
	}

	talkerQueue := newMemQueue(info)
	listenerQueue := newMemQueue(info)

	clk := clock.System{}

	talker := session.New(session.Talker, talkerQueue, logging.Prefixed{Prefix: "[talker] ", Next: log}, clk)
	listener := session.New(session.Listener, listenerQueue, logging.Prefixed{Prefix: "[listener] ", Next: log}, clk)

	reg := prometheus.NewRegistry()
	listenerMetrics := stats.NewMetrics(listener.ID.String())
	if err := listenerMetrics.Register(reg); err != nil {
		log.Errorf("registering metrics: %v", err)
	}

	for name, s := range map[string]*session.Session{"talker": talker, "listener": listener} {
		if err := s.ApplyConfig(cfg); err != nil {
			log.Errorf("%s config: %v", name, err)
			os.Exit(1)
		}
		if err := s.GenInit(); err != nil {
			log.Errorf("%s gen-init: %v", name, err)
			os.Exit(1)
		}
	}
	listener.Stats = stats.NewCollector(time.Duration(cfg.ReportSeconds)*time.Second, clk, listener.Log, listenerMetrics)

	if err := talker.TxInit(); err != nil {
		log.Errorf("talker tx-init: %v", err)
		os.Exit(1)
	}
	if err := listener.RxInit(); err != nil {
		log.Errorf("listener rx-init: %v", err)
		os.Exit(1)
	}

	if err := talkerQueue.SetSize(int(sessCfg.ItemCount), talker.Sizes.ItemSize); err != nil {
		log.Errorf("talker queue size: %v", err)
		os.Exit(1)
	}
	if err := listenerQueue.SetSize(int(sessCfg.ItemCount), listener.Sizes.ItemSize); err != nil {
		log.Errorf("listener queue size: %v", err)
		os.Exit(1)
	}

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
	srv := &http.Server{Addr: *addr, Handler: mux}
	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Errorf("http: %v", err)
		}
	}()
	log.Infof("metrics listening on %s", *addr)

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)

	done := make(chan struct{})
	go runLoop(talker, listener, talkerQueue, *packets, *lossEvery, log, done)

	select {
	case <-sig:
		log.Infof("interrupted")
	case <-done:
		log.Infof("simulation complete")
	}

	talker.End()
	listener.End()
	talker.GenEnd()
	listener.GenEnd()
	_ = srv.Close()
	fmt.Println("shutting down")
}

// runLoop feeds packets data into the talker's queue, drains Tx packets,
// and hands them to the listener's Rx (or RxLost, for the simulated loss
// pattern), standing in for the AVTP engine's transmit/receive loop and
// the network transport between two stations.
func runLoop(talker, listener *session.Session, talkerQueue *memQueue, packets, lossEvery int, log logging.Logger, done chan<- struct{}) {
	defer close(done)

	listenerQueue, _ := listener.Queue.(*memQueue)

	payloadLen := talker.Sizes.PayloadSize
	buf := make([]byte, talker.MaxDataSize())

	var sampleByte byte
	for seq := 0; seq < packets; seq++ {
		item, ok := talkerQueue.HeadLock()
		if !ok {
			log.Warnf("talker queue full, dropping simulated frame")
			continue
		}
		p := item.Payload()
		for i := 0; i < payloadLen && i < len(p); i++ {
			p[i] = sampleByte
		}
		sampleByte++
		item.SetLen(payloadLen)
		item.Time().SetValid(true)
		item.Time().SetToTimestamp(uint32(seq * 1000))
		talkerQueue.HeadPush()

		n, status, err := talker.Tx(buf)
		if err != nil {
			log.Errorf("tx: %v", err)
			continue
		}
		if status != session.PacketReady {
			continue
		}

		if lossEvery > 0 && (seq+1)%lossEvery == 0 {
			listener.RxLost(1)
		} else {
			packet := make([]byte, n)
			copy(packet, buf[:n])
			listener.Rx(packet)
		}

		// Stand in for a playback engine draining the listener's media
		// queue as fast as frames arrive, so the demo doesn't stall once
		// the queue fills.
		if listenerQueue != nil {
			if _, ok := listenerQueue.TailLock(); ok {
				listenerQueue.TailPull()
			}
		}
	}
}

// charmLogger adapts github.com/charmbracelet/log to logging.Logger.
type charmLogger struct {
	l *charmlog.Logger
}

func (c *charmLogger) Debugf(format string, args ...interface{}) { c.l.Debug(fmt.Sprintf(format, args...)) }
func (c *charmLogger) Infof(format string, args ...interface{})  { c.l.Info(fmt.Sprintf(format, args...)) }
func (c *charmLogger) Warnf(format string, args ...interface{})  { c.l.Warn(fmt.Sprintf(format, args...)) }
func (c *charmLogger) Errorf(format string, args ...interface{}) { c.l.Error(fmt.Sprintf(format, args...)) }

var _ logging.Logger = (*charmLogger)(nil)
