package runtime

import (
	"superchat/contract"
	"sync"
)

var _ contract.IRegistry = (*Registry)(nil)

// Registry holds every live query attached to the messages collection.
type Registry struct {
	mu       sync.RWMutex
	Sessions map[string]contract.EventSink // map subscription -> Sink
}

func NewRegistry() *Registry {
	return &Registry{
		Sessions: make(map[string]contract.EventSink),
	}
}

// GetSinks retrieves all active live queries.
// Returns nil when nobody is watching.
func (r *Registry) GetSinks() []contract.EventSink {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if len(r.Sessions) == 0 {
		return nil
	}
	activeSinks := make([]contract.EventSink, 0, len(r.Sessions))
	for _, sink := range r.Sessions {
		activeSinks = append(activeSinks, sink)
	}
	return activeSinks
}

// Subscribe registers a live query under its subscription ID.
func (r *Registry) Subscribe(subscriptionID string, sink contract.EventSink) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.Sessions[subscriptionID] = sink
}

// Unsubscribe removes a live query. Unknown IDs are ignored.
func (r *Registry) Unsubscribe(subscriptionID string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	delete(r.Sessions, subscriptionID)
}
