// Package mqtt implements an MQTT integration backend.
package mqtt

import (
	"bytes"
	"context"
	"crypto/tls"
	"crypto/x509"
	"encoding/json"
	"io/ioutil"
	"text/template"
	"time"

	paho "github.com/eclipse/paho.mqtt.golang"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"

	"github.com/brocaar/moca-monitor/internal/config"
	"github.com/brocaar/moca-monitor/internal/logging"
	"github.com/brocaar/moca-monitor/internal/moca"
)

// Publisher implements an MQTT report publisher.
type Publisher struct {
	conn paho.Client

	qos           uint8
	retainReports bool
	topicTemplate *template.Template
}

// NewPublisher creates a new Publisher.
func NewPublisher(c config.Config) (*Publisher, error) {
	conf := c.Integration.MQTT

	var err error
	p := Publisher{
		qos:           conf.QOS,
		retainReports: conf.RetainReports,
	}

	p.topicTemplate, err = template.New("report").Parse(conf.ReportTopicTemplate)
	if err != nil {
		return nil, errors.Wrap(err, "integration/mqtt: parse report-topic template error")
	}

	opts := paho.NewClientOptions()
	opts.AddBroker(conf.Server)
	opts.SetUsername(conf.Username)
	opts.SetPassword(conf.Password)
	opts.SetCleanSession(conf.CleanSession)
	opts.SetClientID(conf.ClientID)
	opts.SetMaxReconnectInterval(conf.MaxReconnectInterval)
	opts.SetOnConnectHandler(p.onConnected)
	opts.SetConnectionLostHandler(p.onConnectionLost)

	tlsconfig, err := newTLSConfig(conf.CACert, conf.TLSCert, conf.TLSKey)
	if err != nil {
		log.WithError(err).WithFields(log.Fields{
			"ca_cert":  conf.CACert,
			"tls_cert": conf.TLSCert,
			"tls_key":  conf.TLSKey,
		}).Fatal("integration/mqtt: error loading mqtt certificate files")
	}
	if tlsconfig != nil {
		opts.SetTLSConfig(tlsconfig)
	}

	log.WithField("server", conf.Server).Info("integration/mqtt: connecting to mqtt broker")
	p.conn = paho.NewClient(opts)
	for {
		if token := p.conn.Connect(); token.Wait() && token.Error() != nil {
			log.Errorf("integration/mqtt: connecting to mqtt broker failed, will retry in 2s: %s", token.Error())
			time.Sleep(2 * time.Second)
		} else {
			break
		}
	}

	return &p, nil
}

// Close closes the publisher.
func (p *Publisher) Close() error {
	log.Info("integration/mqtt: closing publisher")
	p.conn.Disconnect(250)
	return nil
}

// PublishReport publishes the given report.
func (p *Publisher) PublishReport(ctx context.Context, adapterName string, report moca.Report) error {
	b, err := json.Marshal(report)
	if err != nil {
		return errors.Wrap(err, "integration/mqtt: marshal report error")
	}

	topic := bytes.NewBuffer(nil)
	if err := p.topicTemplate.Execute(topic, struct{ AdapterName string }{adapterName}); err != nil {
		return errors.Wrap(err, "integration/mqtt: execute report-topic template error")
	}

	log.WithFields(log.Fields{
		"topic":  topic.String(),
		"qos":    p.qos,
		"ctx_id": ctx.Value(logging.ContextIDKey),
	}).Info("integration/mqtt: publishing report")

	mqttPublishCounter().Inc()
	if token := p.conn.Publish(topic.String(), p.qos, p.retainReports, b); token.Wait() && token.Error() != nil {
		mqttPublishErrorCounter().Inc()
		return errors.Wrap(token.Error(), "integration/mqtt: publish report error")
	}

	return nil
}

func (p *Publisher) onConnected(c paho.Client) {
	mqttConnectCounter().Inc()
	log.Info("integration/mqtt: connected to mqtt broker")
}

func (p *Publisher) onConnectionLost(c paho.Client, reason error) {
	mqttDisconnectCounter().Inc()
	log.Errorf("integration/mqtt: mqtt connection error: %s", reason)
}

func newTLSConfig(cafile, certFile, certKeyFile string) (*tls.Config, error) {
	if cafile == "" && certFile == "" && certKeyFile == "" {
		return nil, nil
	}

	tlsConfig := &tls.Config{}

	if cafile != "" {
		cacert, err := ioutil.ReadFile(cafile)
		if err != nil {
			log.WithError(err).Error("integration/mqtt: could not load ca certificate")
			return nil, err
		}
		certpool := x509.NewCertPool()
		certpool.AppendCertsFromPEM(cacert)

		tlsConfig.RootCAs = certpool
	}

	if certFile != "" && certKeyFile != "" {
		kp, err := tls.LoadX509KeyPair(certFile, certKeyFile)
		if err != nil {
			log.WithError(err).Error("integration/mqtt: could not load mqtt tls key-pair")
			return nil, err
		}
		tlsConfig.Certificates = []tls.Certificate{kp}
	}

	return tlsConfig, nil
}
