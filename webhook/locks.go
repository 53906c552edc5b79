package webhook

import "sync"

// proLocks serializes accrual cycles per pro id. The read-modify-write over
// the pro's cumulative counters has no optimistic-concurrency token upstream,
// so two interleaved cycles for the same pro would silently drop one order's
// contribution without this.
type proLocks struct {
	mu    sync.Mutex
	locks map[string]*proLock
}

type proLock struct {
	mu   sync.Mutex
	refs int
}

func newProLocks() *proLocks {
	return &proLocks{locks: make(map[string]*proLock)}
}

// Acquire blocks until the pro's lock is held and returns the release func.
// Entries are reference-counted and removed once the last holder releases, so
// the map does not accumulate one mutex per pro ever seen.
func (p *proLocks) Acquire(proID string) func() {
	p.mu.Lock()
	lock, ok := p.locks[proID]
	if !ok {
		lock = &proLock{}
		p.locks[proID] = lock
	}
	lock.refs++
	p.mu.Unlock()

	lock.mu.Lock()
	return func() {
		lock.mu.Unlock()
		p.mu.Lock()
		lock.refs--
		if lock.refs == 0 {
			delete(p.locks, proID)
		}
		p.mu.Unlock()
	}
}

// size reports the number of live entries. Test hook.
func (p *proLocks) size() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.locks)
}
