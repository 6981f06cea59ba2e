package telemetry

import (
	"sync"

	ns "github.com/hsfl/cosmos-core-sub000/internal/namespace"
)

// Guard serialises every access to one Registry. The registry itself has no
// locking; all goroutines (heartbeat loop, MQTT handlers, HTTP handlers) go
// through the same Guard.
type Guard struct {
	mu  sync.Mutex
	reg *ns.Registry
}

// NewGuard wraps reg.
func NewGuard(reg *ns.Registry) *Guard {
	return &Guard{reg: reg}
}

// Do runs fn with exclusive access to the registry. The registry must not
// be retained after fn returns.
func (g *Guard) Do(fn func(*ns.Registry) error) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	return fn(g.reg)
}

// Count returns the number of registered entries.
func (g *Guard) Count() int {
	var n int
	_ = g.Do(func(r *ns.Registry) error { //nolint:errcheck // fn never fails
		n = r.Count()
		return nil
	})
	return n
}
