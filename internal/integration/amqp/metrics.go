package amqp

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	pc = promauto.NewCounter(prometheus.CounterOpts{
		Name: "integration_amqp_publish_count",
		Help: "The number of reports published by the AMQP / RabbitMQ integration.",
	})

	pec = promauto.NewCounter(prometheus.CounterOpts{
		Name: "integration_amqp_publish_error_count",
		Help: "The number of AMQP / RabbitMQ publish errors.",
	})
)

func amqpPublishCounter() prometheus.Counter {
	return pc
}

func amqpPublishErrorCounter() prometheus.Counter {
	return pec
}
