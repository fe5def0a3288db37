package contracts

import "encoding/json"

// AmqpMessage is the message structure for AMQP. Origin identifies the
// publishing instance so consumers can skip their own echoes.
type AmqpMessage struct {
	Origin string          `json:"origin"`
	Data   json.RawMessage `json:"data"`
}

// Routing keys - using consistent event patterns
const (
	EventIncidentCreated = "incident.created"
	EventIncidentUpdated = "incident.updated"
)
