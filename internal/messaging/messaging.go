package messaging

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

const (
	PublishQueue    = "publish_queue"
	RetryDelay      = 5 * time.Second
	MaxConnectRetry = 5
)

// PublishTaskPayload is one publish request on the intake queue: the run it
// was recorded under and the raw taskcluster task definition.
type PublishTaskPayload struct {
	RunID uuid.UUID       `json:"run_id"`
	Task  json.RawMessage `json:"task"`
}

type Message interface {
	Queue() string

	Payload() []byte

	Ack() error

	Nack() error

	Reject() error
}

type Publisher interface {
	PublishTask(ctx context.Context, payload PublishTaskPayload) error

	Close()
}

type Receiver interface {
	Messages() <-chan Message

	Close()
}
