package events

import (
	"context"
	"log/slog"
	"sync"
)

// MockEventPublisher records events in memory for tests
type MockEventPublisher struct {
	mu     sync.Mutex
	events []PublishedEvent
	logger *slog.Logger
}

// PublishedEvent pairs an event with the topic it was sent to
type PublishedEvent struct {
	Topic string
	Event Event
}

func NewMockEventPublisher(logger *slog.Logger) *MockEventPublisher {
	return &MockEventPublisher{logger: logger}
}

func (p *MockEventPublisher) Publish(ctx context.Context, topic string, event Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.events = append(p.events, PublishedEvent{Topic: topic, Event: event})
	return nil
}

func (p *MockEventPublisher) Close() error {
	return nil
}

// GetPublishedEvents returns a copy of everything published so far
func (p *MockEventPublisher) GetPublishedEvents() []PublishedEvent {
	p.mu.Lock()
	defer p.mu.Unlock()

	out := make([]PublishedEvent, len(p.events))
	copy(out, p.events)
	return out
}

// ClearEvents resets the recorded events
func (p *MockEventPublisher) ClearEvents() {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.events = nil
}
