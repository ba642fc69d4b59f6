package messaging

import (
	"context"
	"encoding/json"
)

type inMemoryMessage struct {
	queue   string
	payload []byte
}

func (m *inMemoryMessage) Queue() string {
	return m.queue
}

func (m *inMemoryMessage) Payload() []byte {
	return m.payload
}

func (m *inMemoryMessage) Ack() error {
	return nil
}

func (m *inMemoryMessage) Nack() error {
	return nil
}

func (m *inMemoryMessage) Reject() error {
	return nil
}

// InMemoryQueue is a Publisher and Receiver backed by a channel, for tests
// and single-process local runs.
type InMemoryQueue struct {
	messages chan Message
}

func NewInMemoryQueue() *InMemoryQueue {
	return &InMemoryQueue{
		messages: make(chan Message, 100),
	}
}

func (q *InMemoryQueue) PublishTask(ctx context.Context, payload PublishTaskPayload) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return err
	}

	q.messages <- &inMemoryMessage{queue: PublishQueue, payload: data}

	return nil
}

func (q *InMemoryQueue) Messages() <-chan Message {
	return q.messages
}

func (q *InMemoryQueue) Close() {
	if q.messages != nil {
		close(q.messages)
		q.messages = nil
	}
}
