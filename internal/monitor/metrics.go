package monitor

import (
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/brocaar/moca-monitor/internal/moca"
)

var (
	pc = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "monitor_poll_count",
		Help: "The number of started poll cycles (per adapter).",
	}, []string{"adapter"})

	pec = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "monitor_poll_error_count",
		Help: "The number of failed poll cycles (per adapter).",
	}, []string{"adapter"})

	sec = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "monitor_store_error_count",
		Help: "The number of failed report store attempts (per adapter).",
	}, []string{"adapter"})

	pd = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "monitor_poll_duration_seconds",
		Help:    "The duration of building one report (per adapter).",
		Buckets: []float64{.05, .1, .25, .5, 1, 2.5, 5, 10, 30},
	}, []string{"adapter"})

	nn = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "moca_network_nodes",
		Help: "The number of active nodes on the MoCA network (per adapter).",
	}, []string{"adapter"})

	nv = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "moca_network_version",
		Help: "The MoCA version of the network (per adapter).",
	}, []string{"adapter"})

	pr = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "moca_phy_rate_mbps",
		Help: "The PHY rate in Mbps between two nodes.",
	}, []string{"adapter", "from_node", "to_node"})

	vr = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "moca_phy_vl_rate_mbps",
		Help: "The very-low channel rate in Mbps between two nodes.",
	}, []string{"adapter", "from_node", "to_node"})

	gr = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "moca_gcd_rate_mbps",
		Help: "The greatest common denominator broadcast rate in Mbps (per node).",
	}, []string{"adapter", "node"})
)

func pollCounter(adapter string) prometheus.Counter {
	return pc.With(prometheus.Labels{"adapter": adapter})
}

func pollErrorCounter(adapter string) prometheus.Counter {
	return pec.With(prometheus.Labels{"adapter": adapter})
}

func storeErrorCounter(adapter string) prometheus.Counter {
	return sec.With(prometheus.Labels{"adapter": adapter})
}

func pollDurationObserver(adapter string) prometheus.Observer {
	return pd.With(prometheus.Labels{"adapter": adapter})
}

func networkNodesGauge(adapter string) prometheus.Gauge {
	return nn.With(prometheus.Labels{"adapter": adapter})
}

func networkVersionGauge(adapter string) prometheus.Gauge {
	return nv.With(prometheus.Labels{"adapter": adapter})
}

func phyRateGauge(adapter string, from, to moca.NodeID) prometheus.Gauge {
	return pr.With(prometheus.Labels{
		"adapter":   adapter,
		"from_node": strconv.Itoa(int(from)),
		"to_node":   strconv.Itoa(int(to)),
	})
}

func vlRateGauge(adapter string, from, to moca.NodeID) prometheus.Gauge {
	return vr.With(prometheus.Labels{
		"adapter":   adapter,
		"from_node": strconv.Itoa(int(from)),
		"to_node":   strconv.Itoa(int(to)),
	})
}

func gcdRateGauge(adapter string, node moca.NodeID) prometheus.Gauge {
	return gr.With(prometheus.Labels{
		"adapter": adapter,
		"node":    strconv.Itoa(int(node)),
	})
}

// resetRateGauges drops all rate series of the given adapter.
func resetRateGauges(adapter string) {
	labels := prometheus.Labels{"adapter": adapter}
	pr.DeletePartialMatch(labels)
	vr.DeletePartialMatch(labels)
	gr.DeletePartialMatch(labels)
}
