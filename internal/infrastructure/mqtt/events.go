package mqtt

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/nerrad567/projecthub/internal/events"
)

// Sender is the publishing subset of Client.
type Sender interface {
	Topics() Topics
	PublishDefault(topic string, payload []byte) error
}

// EventPublisher forwards domain events to the broker as JSON. Sends run
// on their own goroutines so a slow broker never holds up a request.
type EventPublisher struct {
	sender Sender
	logger Logger
	wg     sync.WaitGroup
}

// NewEventPublisher wraps sender. A nil logger drops failures silently.
func NewEventPublisher(sender Sender, logger Logger) *EventPublisher {
	return &EventPublisher{sender: sender, logger: logger}
}

// Publish sends e to projecthub/events/{resource}/{action}.
func (p *EventPublisher) Publish(_ context.Context, e events.Event) {
	topic := p.sender.Topics().Event(e.Resource, e.Action)

	payload, err := json.Marshal(e)
	if err != nil {
		p.warn("encoding event", topic, err)
		return
	}

	p.wg.Add(1)
	go func() {
		defer p.wg.Done()
		if err := p.sender.PublishDefault(topic, payload); err != nil {
			p.warn("publishing event", topic, err)
		}
	}()
}

// Wait blocks until every in-flight send has finished.
func (p *EventPublisher) Wait() {
	p.wg.Wait()
}

func (p *EventPublisher) warn(msg, topic string, err error) {
	if p.logger != nil {
		p.logger.Warn("mqtt "+msg+" failed", "topic", topic, "error", err)
	}
}
