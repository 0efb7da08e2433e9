package driven

import "github.com/custodia-labs/filer-cli/internal/core/domain"

// EventPublisher receives import lifecycle events.
// Publish must not block on slow listeners and never fails.
type EventPublisher interface {
	Publish(event domain.StageEvent)
}
