package events

import (
	"context"
	"encoding/json"

	"github.com/mtorrado/campusguard/internal/infrastructure/contracts"
	"github.com/mtorrado/campusguard/internal/infrastructure/messaging"
	"github.com/mtorrado/campusguard/internal/realtime"
)

// IncidentPublisher mirrors committed incident events onto the AMQP
// exchange so peer instances can fan them out to their own subscribers.
type IncidentPublisher struct {
	rabbitmq *messaging.RabbitMQ
	origin   string
}

func NewIncidentPublisher(rabbitmq *messaging.RabbitMQ, origin string) *IncidentPublisher {
	return &IncidentPublisher{
		rabbitmq: rabbitmq,
		origin:   origin,
	}
}

func (p *IncidentPublisher) PublishIncidentCreated(ctx context.Context, payload realtime.IncidentCreatedPayload) error {
	return p.publish(ctx, contracts.EventIncidentCreated, payload)
}

func (p *IncidentPublisher) PublishIncidentUpdated(ctx context.Context, payload realtime.IncidentUpdatedPayload) error {
	return p.publish(ctx, contracts.EventIncidentUpdated, payload)
}

func (p *IncidentPublisher) publish(ctx context.Context, routingKey string, payload any) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return err
	}

	body, err := json.Marshal(contracts.AmqpMessage{
		Origin: p.origin,
		Data:   data,
	})
	if err != nil {
		return err
	}

	return p.rabbitmq.PublishMessage(ctx, routingKey, body)
}
