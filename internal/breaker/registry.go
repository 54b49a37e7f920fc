package breaker

import (
	"context"
	"sort"
	"sync"

	"go.uber.org/zap"

	"github.com/fyrsmithlabs/queryd/internal/logging"
)

// Registry hands out one long-lived breaker per operation key. Constructing
// a breaker per call would discard failure history between requests and the
// breaker would never trip, so every caller must go through here.
type Registry struct {
	opts Options
	log  *logging.Logger

	mu       sync.RWMutex
	breakers map[string]*Breaker
}

// NewRegistry creates an empty registry. Breakers inherit opts; a nil logger
// falls back to a no-op.
func NewRegistry(opts Options, log *logging.Logger) *Registry {
	if log == nil {
		log = logging.NewNop()
	}
	return &Registry{
		opts:     opts,
		log:      log,
		breakers: make(map[string]*Breaker),
	}
}

// Get returns the breaker for key, creating it on first use. The same
// instance is returned for the life of the process.
func (r *Registry) Get(key string) *Breaker {
	r.mu.RLock()
	b, ok := r.breakers[key]
	r.mu.RUnlock()
	if ok {
		return b
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if b, ok := r.breakers[key]; ok {
		return b
	}
	b = New(key, r.opts)
	r.breakers[key] = b
	r.log.Debug(context.Background(), "created circuit breaker", zap.String("operation", key))
	return b
}

// Len returns the number of registered breakers.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.breakers)
}

// Snapshot returns the status of every breaker, sorted by operation key.
func (r *Registry) Snapshot() []Status {
	r.mu.RLock()
	breakers := make([]*Breaker, 0, len(r.breakers))
	for _, b := range r.breakers {
		breakers = append(breakers, b)
	}
	r.mu.RUnlock()

	statuses := make([]Status, 0, len(breakers))
	for _, b := range breakers {
		statuses = append(statuses, b.Status())
	}
	sort.Slice(statuses, func(i, j int) bool {
		return statuses[i].Key < statuses[j].Key
	})
	return statuses
}
