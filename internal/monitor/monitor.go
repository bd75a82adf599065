// Package monitor runs the periodic poll loop for every configured adapter.
package monitor

import (
	"context"
	"sync"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"

	"github.com/brocaar/moca-monitor/internal/config"
	"github.com/brocaar/moca-monitor/internal/device"
	"github.com/brocaar/moca-monitor/internal/integration"
	"github.com/brocaar/moca-monitor/internal/logging"
	"github.com/brocaar/moca-monitor/internal/moca"
	"github.com/brocaar/moca-monitor/internal/storage"
)

var (
	mu       sync.RWMutex
	monitors []*adapterMonitor
	reports  = make(map[string]moca.Report)

	cancelLoops context.CancelFunc
	wg          sync.WaitGroup
)

// adapterMonitor polls a single MoCA adapter.
type adapterMonitor struct {
	name     string
	source   moca.RegisterSource
	interval time.Duration
	timeout  time.Duration
}

// Setup starts one poll loop per configured adapter.
func Setup(c config.Config) error {
	conf := c.Monitor

	if conf.Interval <= 0 {
		return errors.New("monitor: interval must be greater than zero")
	}
	if conf.Timeout <= 0 {
		return errors.New("monitor: timeout must be greater than zero")
	}
	if len(conf.Adapters) == 0 {
		log.Warning("monitor: no adapters configured")
	}

	seen := make(map[string]struct{}, len(conf.Adapters))
	ms := make([]*adapterMonitor, 0, len(conf.Adapters))

	for _, a := range conf.Adapters {
		if a.Name == "" {
			return errors.New("monitor: adapter name must not be empty")
		}
		if _, ok := seen[a.Name]; ok {
			return errors.Errorf("monitor: duplicate adapter name: %s", a.Name)
		}
		seen[a.Name] = struct{}{}

		client, err := device.NewClient(device.Config{
			Host:     a.Host,
			Username: a.Username,
			Password: a.Password,
			Timeout:  a.Timeout,
		})
		if err != nil {
			return errors.Wrapf(err, "monitor: new device client error (adapter %s)", a.Name)
		}

		ms = append(ms, &adapterMonitor{
			name:     a.Name,
			source:   client,
			interval: conf.Interval,
			timeout:  conf.Timeout,
		})
	}

	ctx, cancel := context.WithCancel(context.Background())

	mu.Lock()
	monitors = ms
	reports = make(map[string]moca.Report)
	cancelLoops = cancel
	mu.Unlock()

	for _, m := range ms {
		log.WithFields(log.Fields{
			"adapter":  m.name,
			"interval": m.interval,
		}).Info("monitor: starting poll loop")

		wg.Add(1)
		go func(m *adapterMonitor) {
			defer wg.Done()
			m.loop(ctx)
		}(m)
	}

	return nil
}

// Stop cancels all poll loops and blocks until they have finished.
func Stop() error {
	mu.Lock()
	cancel := cancelLoops
	cancelLoops = nil
	mu.Unlock()

	if cancel == nil {
		return nil
	}

	log.Info("monitor: stopping poll loops")
	cancel()
	wg.Wait()

	return nil
}

// GetReport returns the report of the last successful poll cycle for the
// given adapter. The bool is false when no cycle has completed yet.
func GetReport(adapterName string) (moca.Report, bool) {
	mu.RLock()
	defer mu.RUnlock()

	report, ok := reports[adapterName]
	return report, ok
}

// Adapters returns the names of all configured adapters, in configuration
// order.
func Adapters() []string {
	mu.RLock()
	defer mu.RUnlock()

	names := make([]string, 0, len(monitors))
	for _, m := range monitors {
		names = append(names, m.name)
	}
	return names
}

func (m *adapterMonitor) loop(ctx context.Context) {
	ticker := time.NewTicker(m.interval)
	defer ticker.Stop()

	for {
		if err := m.poll(ctx); err != nil && ctx.Err() == nil {
			pollErrorCounter(m.name).Inc()
			log.WithError(err).WithField("adapter", m.name).Error("monitor: poll cycle error")
		}

		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

// poll runs one cycle: build the report, then feed every sink. A failed
// build fails the cycle and keeps the previous report. Failing sinks are
// logged individually and do not block the remaining sinks.
func (m *adapterMonitor) poll(ctx context.Context) error {
	ctx, err := logging.NewContextWithID(ctx)
	if err != nil {
		return errors.Wrap(err, "new context ID error")
	}

	ctx, cancel := context.WithTimeout(ctx, m.timeout)
	defer cancel()

	log.WithFields(log.Fields{
		"adapter": m.name,
		"ctx_id":  ctx.Value(logging.ContextIDKey),
	}).Debug("monitor: starting poll cycle")

	pollCounter(m.name).Inc()

	start := time.Now()
	report, err := moca.BuildReport(ctx, m.source)
	pollDurationObserver(m.name).Observe(time.Since(start).Seconds())
	if err != nil {
		return errors.Wrap(err, "build report error")
	}

	m.observeReport(report)

	mu.Lock()
	reports[m.name] = report
	mu.Unlock()

	if err := storage.SavePhyRateReport(ctx, m.name, report); err != nil {
		storeErrorCounter(m.name).Inc()
		log.WithError(err).WithFields(log.Fields{
			"adapter": m.name,
			"ctx_id":  ctx.Value(logging.ContextIDKey),
		}).Error("monitor: save report snapshot error")
	}

	if err := m.storeMeasurements(ctx, report); err != nil {
		storeErrorCounter(m.name).Inc()
		log.WithError(err).WithFields(log.Fields{
			"adapter": m.name,
			"ctx_id":  ctx.Value(logging.ContextIDKey),
		}).Error("monitor: store measurements error")
	}

	if pub := integration.GetPublisher(); pub != nil {
		if err := pub.PublishReport(ctx, m.name, report); err != nil {
			log.WithError(err).WithFields(log.Fields{
				"adapter": m.name,
				"ctx_id":  ctx.Value(logging.ContextIDKey),
			}).Error("monitor: publish report error")
		}
	}

	log.WithFields(log.Fields{
		"adapter": m.name,
		"nodes":   len(report.Nodes),
		"ctx_id":  ctx.Value(logging.ContextIDKey),
	}).Info("monitor: poll cycle completed")

	return nil
}

// observeReport exports the report as Prometheus gauges. The rate series of
// the adapter are reset first, so that nodes which left the network do not
// linger with stale values.
func (m *adapterMonitor) observeReport(report moca.Report) {
	resetRateGauges(m.name)

	networkNodesGauge(m.name).Set(float64(len(report.Nodes)))
	networkVersionGauge(m.name).Set(float64(report.NetworkVersion))

	for i, from := range report.Nodes {
		gcdRateGauge(m.name, from).Set(float64(report.GCDRates[i]))

		for j, to := range report.Nodes {
			phyRateGauge(m.name, from, to).Set(float64(report.Rates[i][j]))
			vlRateGauge(m.name, from, to).Set(float64(report.VLRates[i][j]))
		}
	}
}

func (m *adapterMonitor) storeMeasurements(ctx context.Context, report moca.Report) error {
	phy, node := measurements(m.name, report)

	return storage.Transaction(func(tx sqlx.Ext) error {
		if err := storage.CreatePhyRateMeasurements(ctx, tx, phy); err != nil {
			return err
		}
		return storage.CreateNodeMeasurements(ctx, tx, node)
	})
}

// measurements flattens a report into per-link and per-node measurement rows.
func measurements(adapter string, report moca.Report) ([]storage.PhyRateMeasurement, []storage.NodeMeasurement) {
	phy := make([]storage.PhyRateMeasurement, 0, len(report.Nodes)*len(report.Nodes))
	node := make([]storage.NodeMeasurement, 0, len(report.Nodes))

	for i, from := range report.Nodes {
		node = append(node, storage.NodeMeasurement{
			Adapter:     adapter,
			PolledAt:    report.PolledAt,
			Node:        from,
			GCDMbps:     report.GCDRates[i],
			MocaVersion: report.NodeVersions[i],
		})

		for j, to := range report.Nodes {
			phy = append(phy, storage.PhyRateMeasurement{
				Adapter:    adapter,
				PolledAt:   report.PolledAt,
				FromNode:   from,
				ToNode:     to,
				RateMbps:   report.Rates[i][j],
				VLRateMbps: report.VLRates[i][j],
			})
		}
	}

	return phy, node
}
