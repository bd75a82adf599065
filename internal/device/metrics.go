package device

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	rc = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "device_request_count",
		Help: "The number of register read requests (per endpoint).",
	}, []string{"endpoint"})

	re = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "device_request_error_count",
		Help: "The number of failed register read requests (per endpoint).",
	}, []string{"endpoint"})

	le = promauto.NewCounter(prometheus.CounterOpts{
		Name: "device_login_error_count",
		Help: "The number of failed session bootstraps.",
	})
)

func endpointRequestCounter(e string) prometheus.Counter {
	return rc.With(prometheus.Labels{"endpoint": e})
}

func endpointErrorCounter(e string) prometheus.Counter {
	return re.With(prometheus.Labels{"endpoint": e})
}

func loginErrorCounter() prometheus.Counter {
	return le
}
