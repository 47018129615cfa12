package publisher

import (
	"context"

	"github.com/BrianGomezM/minizinc-novelas/internal/domain"
)

// Noop drops every event. It is used when no broker is configured.
type Noop struct{}

func (Noop) Publish(ctx context.Context, event *domain.OutcomeEvent) error { return nil }

func (Noop) Close() error { return nil }
