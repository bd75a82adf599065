// Package amqp implements an AMQP / RabbitMQ report publisher.
package amqp

import (
	"bytes"
	"context"
	"encoding/json"
	"text/template"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
	"github.com/streadway/amqp"

	"github.com/brocaar/moca-monitor/internal/config"
	"github.com/brocaar/moca-monitor/internal/logging"
	"github.com/brocaar/moca-monitor/internal/moca"
)

// Publisher implements an AMQP report publisher. Reports are published
// as JSON to the amq.topic exchange, using a routing-key rendered from
// the configured template.
type Publisher struct {
	chPool *pool

	reportRoutingKey *template.Template
}

// NewPublisher creates a new Publisher.
func NewPublisher(c config.Config) (*Publisher, error) {
	var err error
	conf := c.Integration.AMQP

	p := Publisher{}

	log.Info("integration/amqp: connecting to AMQP server")
	p.chPool, err = newPool(10, conf.URL)
	if err != nil {
		return nil, errors.Wrap(err, "new amqp channel pool error")
	}

	p.reportRoutingKey, err = template.New("report").Parse(conf.ReportRoutingKeyTemplate)
	if err != nil {
		return nil, errors.Wrap(err, "integration/amqp: parse report routing-key template error")
	}

	return &p, nil
}

// Close closes the channel pool and the underlying AMQP connection.
func (p *Publisher) Close() error {
	log.Info("integration/amqp: closing publisher")
	p.chPool.close()
	return nil
}

// PublishReport publishes the given report to the amq.topic exchange.
func (p *Publisher) PublishReport(ctx context.Context, adapterName string, report moca.Report) error {
	b, err := json.Marshal(report)
	if err != nil {
		return errors.Wrap(err, "marshal report error")
	}

	ch, err := p.chPool.get()
	if err != nil {
		return errors.Wrap(err, "get amqp channel from pool error")
	}
	defer ch.close()

	templateCtx := struct {
		AdapterName string
	}{adapterName}
	routingKey := bytes.NewBuffer(nil)
	if err := p.reportRoutingKey.Execute(routingKey, templateCtx); err != nil {
		return errors.Wrap(err, "execute report routing-key template error")
	}

	log.WithFields(log.Fields{
		"adapter":     adapterName,
		"routing_key": routingKey.String(),
		"ctx_id":      ctx.Value(logging.ContextIDKey),
	}).Info("integration/amqp: publishing report")

	amqpPublishCounter().Inc()

	err = ch.ch.Publish(
		"amq.topic",
		routingKey.String(),
		false,
		false,
		amqp.Publishing{
			ContentType: "application/json",
			Body:        b,
		},
	)
	if err != nil {
		amqpPublishErrorCounter().Inc()
		return errors.Wrap(err, "publish message error")
	}

	return nil
}
