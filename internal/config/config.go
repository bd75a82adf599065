package config

import (
	"time"
)

// Version defines the moca-monitor version.
var Version string

// AdapterConfig describes one MoCA adapter to poll.
type AdapterConfig struct {
	Name     string        `mapstructure:"name"`
	Host     string        `mapstructure:"host"`
	Username string        `mapstructure:"username"`
	Password string        `mapstructure:"password"`
	Timeout  time.Duration `mapstructure:"timeout"`
}

// Config defines the configuration structure.
type Config struct {
	General struct {
		LogLevel    int  `mapstructure:"log_level"`
		LogToSyslog bool `mapstructure:"log_to_syslog"`
	} `mapstructure:"general"`

	PostgreSQL struct {
		DSN                string `mapstructure:"dsn"`
		Automigrate        bool   `mapstructure:"automigrate"`
		MaxOpenConnections int    `mapstructure:"max_open_connections"`
		MaxIdleConnections int    `mapstructure:"max_idle_connections"`
	} `mapstructure:"postgresql"`

	Redis struct {
		URL         string        `mapstructure:"url"`
		Servers     []string      `mapstructure:"servers"`
		Cluster     bool          `mapstructure:"cluster"`
		MasterName  string        `mapstructure:"master_name"`
		PoolSize    int           `mapstructure:"pool_size"`
		Password    string        `mapstructure:"password"`
		Database    int           `mapstructure:"database"`
		TLSEnabled  bool          `mapstructure:"tls_enabled"`
		KeyPrefix   string        `mapstructure:"key_prefix"`
		SnapshotTTL time.Duration `mapstructure:"snapshot_ttl"`
	} `mapstructure:"redis"`

	Monitor struct {
		Interval time.Duration `mapstructure:"interval"`
		Timeout  time.Duration `mapstructure:"timeout"`

		Adapters []AdapterConfig `mapstructure:"adapters"`
	} `mapstructure:"monitor"`

	Integration struct {
		Backend string `mapstructure:"backend"`

		MQTT struct {
			Server               string        `mapstructure:"server"`
			Username             string        `mapstructure:"username"`
			Password             string        `mapstructure:"password"`
			QOS                  uint8         `mapstructure:"qos"`
			CleanSession         bool          `mapstructure:"clean_session"`
			ClientID             string        `mapstructure:"client_id"`
			CACert               string        `mapstructure:"ca_cert"`
			TLSCert              string        `mapstructure:"tls_cert"`
			TLSKey               string        `mapstructure:"tls_key"`
			MaxReconnectInterval time.Duration `mapstructure:"max_reconnect_interval"`
			ReportTopicTemplate  string        `mapstructure:"report_topic_template"`
			RetainReports        bool          `mapstructure:"retain_reports"`
		} `mapstructure:"mqtt"`

		AMQP struct {
			URL                      string `mapstructure:"url"`
			ReportRoutingKeyTemplate string `mapstructure:"report_routing_key_template"`
		} `mapstructure:"amqp"`
	} `mapstructure:"integration"`

	Monitoring struct {
		Bind                string `mapstructure:"bind"`
		PrometheusEndpoint  bool   `mapstructure:"prometheus_endpoint"`
		HealthcheckEndpoint bool   `mapstructure:"healthcheck_endpoint"`
	} `mapstructure:"monitoring"`

	API struct {
		Bind string `mapstructure:"bind"`
	} `mapstructure:"api"`
}

// C holds the global configuration.
var C Config
