package cart

import (
	"sync"

	"github.com/google/uuid"
)

// Registry keeps one active cart per cashier. Carts live only in memory;
// the held-order store is the persistence path for suspended carts.
type Registry struct {
	mu    sync.Mutex
	carts map[uuid.UUID]*Cart
}

func NewRegistry() *Registry {
	return &Registry{carts: make(map[uuid.UUID]*Cart)}
}

// Get returns the cashier's active cart, creating it on first use.
func (r *Registry) Get(userID uuid.UUID) *Cart {
	r.mu.Lock()
	defer r.mu.Unlock()

	c, ok := r.carts[userID]
	if !ok {
		c = New()
		r.carts[userID] = c
	}
	return c
}

// Drop removes the cashier's cart entirely.
func (r *Registry) Drop(userID uuid.UUID) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.carts, userID)
}
