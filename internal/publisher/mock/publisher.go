package mock

import (
	"context"
	"sync"

	"github.com/BrianGomezM/minizinc-novelas/internal/domain"
	"github.com/BrianGomezM/minizinc-novelas/internal/publisher"
)

// Ensure Publisher implements publisher.Publisher.
var _ publisher.Publisher = (*Publisher)(nil)

// Publisher is a mock event publisher for testing.
type Publisher struct {
	mu        sync.Mutex
	published []*domain.OutcomeEvent

	PublishFn func(ctx context.Context, event *domain.OutcomeEvent) error
}

// NewPublisher creates a new mock publisher.
func NewPublisher() *Publisher {
	return &Publisher{}
}

func (m *Publisher) Publish(ctx context.Context, event *domain.OutcomeEvent) error {
	if m.PublishFn != nil {
		return m.PublishFn(ctx, event)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.published = append(m.published, event)
	return nil
}

func (m *Publisher) Close() error {
	return nil
}

// Published returns the recorded events.
func (m *Publisher) Published() []*domain.OutcomeEvent {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]*domain.OutcomeEvent(nil), m.published...)
}
