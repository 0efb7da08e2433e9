package driving

import "github.com/custodia-labs/filer-cli/internal/core/domain"

// EventSubscriber lets presentation layers observe import lifecycle events.
type EventSubscriber interface {
	// Subscribe registers a listener and returns a function that removes it.
	// Listeners run on the publishing goroutine and must not block.
	Subscribe(listener func(domain.StageEvent)) (unsubscribe func())
}
