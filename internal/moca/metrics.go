package moca

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	sde = promauto.NewCounter(prometheus.CounterOpts{
		Name: "moca_decode_soft_error_count",
		Help: "The number of per-cell FMR decode failures absorbed as zero rates.",
	})
)

func softDecodeErrorCounter() prometheus.Counter {
	return sde
}
