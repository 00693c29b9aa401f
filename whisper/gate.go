package whisper

import (
	"sync"
	"sync/atomic"
)

// Gate is the pluggable mutual-exclusion policy guarding shared native
// buffers. The default implementation admits at most one holder per key and
// never queues: contention fails immediately.
type Gate interface {
	// Acquire returns true iff the caller now exclusively holds key.
	Acquire(key any) bool

	// Release clears the key unconditionally. Safe to call without holding.
	Release(key any)
}

// singleFlightGate is a CAS-based lock with limit=1 per key. Entries are
// created lazily and never removed; the key space is bounded by the number
// of live models.
type singleFlightGate struct {
	m sync.Map // key -> *atomic.Int32 (0 free, 1 held)
}

func (g *singleFlightGate) Acquire(key any) bool {
	ptr, _ := g.m.LoadOrStore(key, new(atomic.Int32))
	return ptr.(*atomic.Int32).CompareAndSwap(0, 1)
}

func (g *singleFlightGate) Release(key any) {
	if v, ok := g.m.Load(key); ok {
		v.(*atomic.Int32).Store(0)
	}
}

var defaultGate atomic.Pointer[Gate]

func init() {
	SetGate(nil)
}

// SetGate overrides the process-wide gate policy, e.g. with a fair queue or
// a per-tenant quota. Passing nil restores the default single-flight gate.
func SetGate(g Gate) {
	if g == nil {
		g = &singleFlightGate{}
	}
	defaultGate.Store(&g)
}

func gate() Gate { return *defaultGate.Load() }

// modelGateKey derives the stable key guarding a model's shared buffer. The
// guard pointer lives as long as the model and never escapes the package.
func modelGateKey(model *Model) any {
	if model == nil {
		return nil
	}
	return model.guard
}
