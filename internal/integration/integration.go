// Package integration publishes poll reports to external systems.
package integration

import (
	"context"

	"github.com/pkg/errors"

	"github.com/brocaar/moca-monitor/internal/config"
	"github.com/brocaar/moca-monitor/internal/integration/amqp"
	"github.com/brocaar/moca-monitor/internal/integration/mqtt"
	"github.com/brocaar/moca-monitor/internal/moca"
)

// Publisher is the interface of an integration backend.
type Publisher interface {
	// PublishReport publishes the given report for the given adapter.
	PublishReport(ctx context.Context, adapterName string, report moca.Report) error

	// Close closes the publisher.
	Close() error
}

var publisher Publisher

// Setup configures the integration backend.
func Setup(c config.Config) error {
	switch c.Integration.Backend {
	case "mqtt":
		p, err := mqtt.NewPublisher(c)
		if err != nil {
			return errors.Wrap(err, "integration: setup mqtt publisher error")
		}
		publisher = p
	case "amqp":
		p, err := amqp.NewPublisher(c)
		if err != nil {
			return errors.Wrap(err, "integration: setup amqp publisher error")
		}
		publisher = p
	case "":
		// publishing is disabled
		publisher = nil
	default:
		return errors.Errorf("integration: unknown backend: %s", c.Integration.Backend)
	}

	return nil
}

// GetPublisher returns the configured publisher. It returns nil when
// publishing is disabled.
func GetPublisher() Publisher {
	return publisher
}

// SetPublisher sets the given publisher.
func SetPublisher(p Publisher) {
	publisher = p
}

// Close closes the configured publisher.
func Close() error {
	if publisher == nil {
		return nil
	}
	return publisher.Close()
}
