package services

import (
	"sync"
	"time"

	"github.com/custodia-labs/filer-cli/internal/core/domain"
)

// parkedImport is an import suspended at the confirmation gate.
type parkedImport struct {
	item     *queuedImport
	state    *domain.PipelineState
	parkedAt time.Time
}

// confirmationGate holds at most one parked import.
// Resuming calls must name the parked task (or leave the id empty);
// a mismatched id is rejected as stale.
type confirmationGate struct {
	mu     sync.Mutex
	parked *parkedImport
}

func (g *confirmationGate) park(p *parkedImport) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.parked = p
}

// take removes the parked import if taskID matches and check passes.
// A failed check leaves the import parked.
func (g *confirmationGate) take(taskID string, check func(*parkedImport) error) (*parkedImport, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	p, err := g.match(taskID)
	if err != nil {
		return nil, err
	}
	if check != nil {
		if err := check(p); err != nil {
			return nil, err
		}
	}
	g.parked = nil
	return p, nil
}

// peek returns the parked import without removing it.
func (g *confirmationGate) peek(taskID string) (*parkedImport, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.match(taskID)
}

func (g *confirmationGate) snapshot() (*domain.PendingConfirmation, bool) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.parked == nil {
		return nil, false
	}
	pending := g.parked.state.Snapshot(g.parked.parkedAt)
	return &pending, true
}

func (g *confirmationGate) occupied() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.parked != nil
}

func (g *confirmationGate) match(taskID string) (*parkedImport, error) {
	if g.parked == nil {
		return nil, domain.ErrNothingAwaitingConfirmation
	}
	if taskID != "" && taskID != g.parked.state.TaskID {
		return nil, domain.ErrStaleConfirmation
	}
	return g.parked, nil
}
