package mqtt

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	pc = promauto.NewCounter(prometheus.CounterOpts{
		Name: "integration_mqtt_publish_count",
		Help: "The number of reports published by the MQTT integration.",
	})

	pec = promauto.NewCounter(prometheus.CounterOpts{
		Name: "integration_mqtt_publish_error_count",
		Help: "The number of report publications that failed.",
	})

	mqttc = promauto.NewCounter(prometheus.CounterOpts{
		Name: "integration_mqtt_connect_count",
		Help: "The number of times the integration connected to the MQTT broker.",
	})

	mqttd = promauto.NewCounter(prometheus.CounterOpts{
		Name: "integration_mqtt_disconnect_count",
		Help: "The number of times the integration disconnected from the MQTT broker.",
	})
)

func mqttPublishCounter() prometheus.Counter {
	return pc
}

func mqttPublishErrorCounter() prometheus.Counter {
	return pec
}

func mqttConnectCounter() prometheus.Counter {
	return mqttc
}

func mqttDisconnectCounter() prometheus.Counter {
	return mqttd
}
