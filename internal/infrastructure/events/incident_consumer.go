package events

import (
	"context"
	"encoding/json"

	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/mtorrado/campusguard/internal/infrastructure/contracts"
	"github.com/mtorrado/campusguard/internal/infrastructure/logging"
	"github.com/mtorrado/campusguard/internal/infrastructure/messaging"
	"github.com/mtorrado/campusguard/internal/realtime"
)

type incidentConsumer struct {
	rabbitmq *messaging.RabbitMQ
	notifier realtime.Notifier
	origin   string
	logger   logging.Logger
}

func NewIncidentConsumer(rabbitmq *messaging.RabbitMQ, notifier realtime.Notifier, origin string, logger logging.Logger) *incidentConsumer {
	return &incidentConsumer{
		rabbitmq: rabbitmq,
		notifier: notifier,
		origin:   origin,
		logger:   logger,
	}
}

// Listen re-injects peer instances' incident events into the local
// dispatcher. Local sequences are per instance; de-duplication across
// instances rides on the envelope id.
func (c *incidentConsumer) Listen() error {
	keys := []string{contracts.EventIncidentCreated, contracts.EventIncidentUpdated}

	return c.rabbitmq.ConsumeMessages("", keys, func(ctx context.Context, msg amqp.Delivery) error {
		var message contracts.AmqpMessage
		if err := json.Unmarshal(msg.Body, &message); err != nil {
			c.logger.Warn(logging.RabbitMQ, logging.Consume, "failed to unmarshal message", map[logging.ExtraKey]any{
				logging.ErrorMessage: err.Error(),
			})
			return err
		}

		if message.Origin == c.origin {
			return nil
		}

		switch msg.RoutingKey {
		case contracts.EventIncidentCreated:
			var payload realtime.IncidentCreatedPayload
			if err := json.Unmarshal(message.Data, &payload); err != nil {
				return err
			}
			if err := c.notifier.Publish(realtime.NewIncidentCreated(realtime.AdminRoom, payload)); err != nil {
				return err
			}
			return c.notifier.Publish(realtime.NewIncidentCreated(realtime.AlertsRoom, payload))

		case contracts.EventIncidentUpdated:
			var payload realtime.IncidentUpdatedPayload
			if err := json.Unmarshal(message.Data, &payload); err != nil {
				return err
			}
			return c.notifier.Publish(realtime.NewIncidentUpdated(realtime.AdminRoom, payload))
		}

		c.logger.Warn(logging.RabbitMQ, logging.Consume, "unknown routing key", map[logging.ExtraKey]any{
			"RoutingKey": msg.RoutingKey,
		})
		return nil
	})
}
