package turn

import (
	"sync"

	"github.com/google/uuid"
)

// FlowFactory builds a selection flow for one game.
type FlowFactory func(gameID uuid.UUID) *Flow

// Registry hands out at most one Flow per hosted game, so repeated host
// requests for the same game share phase state and lockout.
type Registry struct {
	mu      sync.Mutex
	flows   map[uuid.UUID]*Flow
	factory FlowFactory
}

// NewRegistry creates a registry that builds missing flows with factory.
func NewRegistry(factory FlowFactory) *Registry {
	return &Registry{
		flows:   make(map[uuid.UUID]*Flow),
		factory: factory,
	}
}

// Flow returns the game's flow, creating it on first use.
func (r *Registry) Flow(gameID uuid.UUID) *Flow {
	r.mu.Lock()
	defer r.mu.Unlock()

	flow, ok := r.flows[gameID]
	if !ok {
		flow = r.factory(gameID)
		r.flows[gameID] = flow
	}
	return flow
}

// Drop forgets a game's flow, typically after its session ends.
func (r *Registry) Drop(gameID uuid.UUID) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.flows, gameID)
}
