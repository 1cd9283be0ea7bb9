// Package upgrademutex implements a reader/writer/upgrader mutual
// exclusion lock: a Mutex that can be held by any number of shared (read)
// holders, by a single upgrade holder that coexists with shared holders,
// or by a single exclusive (write) holder that excludes everyone else.
//
// What sets a Mutex apart from sync.RWMutex is the upgrade mode and the
// atomic transitions between modes. An upgrade holder is a privileged
// reader: it can coexist with ordinary shared holders, but it is the only
// holder allowed to promote itself to exclusive, and when it does, no
// third party is ever able to observe the mutex as unlocked during the
// switch. The same holds for demoting an exclusive holder back down to
// upgrade or shared.
//
// non-atomic read-modify-write with sync.RWMutex:
//
//	var mu sync.RWMutex
//	var state int
//	mu.RLock()
//	copied := state
//	mu.RUnlock()
//	copied++ // ... expensive recomputation using copied.
//	mu.Lock()
//	state = copied
//	mu.Unlock()
//
// atomic read-modify-write with upgrademutex.Mutex:
//
//	var mu upgrademutex.Mutex
//	var state int
//	u := upgrademutex.AcquireUpgrade(&mu)
//	copied := state
//	copied++ // ... expensive recomputation using copied; readers may still run.
//	promo := upgrademutex.BeginScopedPromotion(&u)
//	state = copied
//	promo.End()
//	u.Unlock()
//
// The zero value for a Mutex is an unlocked mutex ready for use. A Mutex
// must not be copied after first use.
package upgrademutex

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/slon/upgrademutex/internal/gate"
)

// Mode identifies one of the three access modes a Mutex grants.
type Mode int

const (
	// ModeShared is read-only intent; any number of holders may hold it
	// concurrently.
	ModeShared Mode = iota
	// ModeUpgrade is privileged read intent; at most one holder, may
	// coexist with ModeShared holders.
	ModeUpgrade
	// ModeExclusive is write intent; excludes all other holders.
	ModeExclusive
)

func (mode Mode) String() string {
	switch mode {
	case ModeShared:
		return "shared"
	case ModeUpgrade:
		return "upgrade"
	case ModeExclusive:
		return "exclusive"
	default:
		return "unknown"
	}
}

// Recorder observes acquire/release events on a Mutex. Implementations
// must be safe for concurrent use and must not themselves block on the
// Mutex that calls them. A nil Recorder is the zero-cost default: Mutex
// checks for nil before every call.
type Recorder interface {
	// ObserveAcquire is called once an acquisition of mode has
	// succeeded, with the time spent waiting for it.
	ObserveAcquire(mode Mode, waited time.Duration)
	// ObserveRelease is called once a release of mode has completed.
	ObserveRelease(mode Mode)
}

// The state word packs exclusive/upgrade/pending flags and a reader count
// into a single 32-bit value, following spec: top bit exclusive, next bit
// upgrade, next bit pending-promotion, remaining low bits reader count.
const (
	flagExclusive uint32 = 1 << 31
	flagUpgrade   uint32 = 1 << 30
	flagPending   uint32 = 1 << 29
	readerMask    uint32 = flagPending - 1
	oneReader     uint32 = 1

	// MaxReaders is the largest number of concurrent shared holders a
	// Mutex can track. RLock panics rather than silently wrap the
	// counter if this many shared holders are already present.
	MaxReaders = int(readerMask)
)

// subtract returns the two's complement of v, so that state.Add(subtract(v))
// performs a wraparound-safe subtraction of v from the atomic state word.
func subtract(v uint32) uint32 {
	return ^v + 1
}

// A Mutex is a reader/writer/upgrader mutual exclusion lock. See the
// package doc comment for usage. The zero value is an unlocked Mutex.
//
// A Mutex must not be copied after first use.
type Mutex struct {
	state atomic.Uint32

	initOnce sync.Once
	mu       sync.Mutex
	gate1    *gate.Gate // readers and upgraders wait here
	gate2    *gate.Gate // writers and pending promotions wait here

	recorder Recorder
}

// Option configures a Mutex constructed with New.
type Option func(*Mutex)

// WithRecorder attaches a Recorder that observes every acquire and
// release on the constructed Mutex.
func WithRecorder(r Recorder) Option {
	return func(m *Mutex) { m.recorder = r }
}

// New returns a Mutex in the unlocked state, applying opts.
func New(opts ...Option) *Mutex {
	m := &Mutex{}
	for _, opt := range opts {
		opt(m)
	}
	m.init()
	return m
}

func (m *Mutex) init() {
	m.initOnce.Do(func() {
		m.gate1 = gate.New(&m.mu)
		m.gate2 = gate.New(&m.mu)
	})
}

func (m *Mutex) observeAcquire(mode Mode, waited time.Duration) {
	if m.recorder != nil {
		m.recorder.ObserveAcquire(mode, waited)
	}
}

func (m *Mutex) observeRelease(mode Mode) {
	if m.recorder != nil {
		m.recorder.ObserveRelease(mode)
	}
}

// Lock locks m for exclusive access. If the lock is already held in any
// mode, Lock blocks until it is released.
func (m *Mutex) Lock() {
	m.init()
	start := time.Now()
	m.gate2.Wait(func() bool {
		cur := m.state.Load()
		if cur != 0 {
			return false
		}
		return m.state.CompareAndSwap(cur, flagExclusive)
	})
	m.observeAcquire(ModeExclusive, time.Since(start))
}

// Unlock unlocks m for exclusive access. m must currently be locked for
// exclusive access; this is not checked.
func (m *Mutex) Unlock() {
	m.state.Add(subtract(flagExclusive))
	m.gate2.Signal()
	m.gate1.Broadcast()
	m.observeRelease(ModeExclusive)
}

// RLock locks m for shared access. RLock blocks while m is held
// exclusively, or while an upgrade holder has a promotion pending (see
// PromoteToExclusive and BeginScopedPromotion). It is not reentrant: a goroutine that already holds m
// must not call RLock again before releasing it.
func (m *Mutex) RLock() {
	m.init()
	start := time.Now()
	m.gate1.Wait(func() bool {
		cur := m.state.Load()
		if cur&(flagExclusive|flagPending) != 0 {
			return false
		}
		if cur&readerMask == readerMask {
			panic("upgrademutex: RLock: reader count overflow")
		}
		return m.state.CompareAndSwap(cur, cur+oneReader)
	})
	m.observeAcquire(ModeShared, time.Since(start))
}

// RUnlock undoes a single RLock call. m must currently be locked for
// shared access; this is not checked.
func (m *Mutex) RUnlock() {
	newState := m.state.Add(subtract(oneReader))
	// gate2 must hear about readerMask hitting zero unconditionally: a
	// pending promotion (upgradeToExclusive) keeps flagUpgrade set the
	// whole time it waits here for readers to drain, so gating this
	// signal on flagUpgrade being clear would strand the promoter with
	// no other path left to wake gate2. It is a Broadcast because a
	// writer parked on gate2 next to the promoter could otherwise take
	// the only wakeup, fail its predicate and go back to sleep.
	// Over-notifying gate2 when nothing is actually waiting is harmless;
	// waiters re-check their own predicate.
	if newState&readerMask == 0 {
		m.gate2.Broadcast()
	}
	m.observeRelease(ModeShared)
}

// LockUpgrade locks m for upgrade access: a privileged read that coexists
// with shared holders but excludes other upgrade holders and exclusive
// holders. LockUpgrade blocks until no exclusive or upgrade holder
// remains.
func (m *Mutex) LockUpgrade() {
	m.init()
	start := time.Now()
	m.gate1.Wait(func() bool {
		cur := m.state.Load()
		if cur&(flagExclusive|flagUpgrade) != 0 {
			return false
		}
		return m.state.CompareAndSwap(cur, cur|flagUpgrade)
	})
	m.observeAcquire(ModeUpgrade, time.Since(start))
}

// UnlockUpgrade releases m's upgrade holder. m must currently be locked
// for upgrade access; this is not checked. If the holder had begun (and
// not completed) a promotion, UnlockUpgrade abandons it and clears the
// pending-promotion signal so that blocked readers are not starved.
func (m *Mutex) UnlockUpgrade() {
	var old uint32
	for {
		old = m.state.Load()
		next := old &^ (flagUpgrade | flagPending)
		if m.state.CompareAndSwap(old, next) {
			break
		}
	}
	if old&readerMask == 0 {
		m.gate2.Signal()
	}
	m.gate1.Broadcast()
	m.observeRelease(ModeUpgrade)
}

// upgradeToExclusive promotes the calling upgrade holder to exclusive. It
// must only be called by code that already holds m in ModeUpgrade; it
// blocks until every current shared holder has released, while the
// pending-promotion flag it sets keeps new shared acquisitions from
// arriving ahead of it.
func (m *Mutex) upgradeToExclusive() {
	start := time.Now()
	for {
		cur := m.state.Load()
		next := cur | flagPending
		if next == cur || m.state.CompareAndSwap(cur, next) {
			break
		}
	}
	m.gate2.Wait(func() bool {
		if m.state.Load()&readerMask != 0 {
			return false
		}
		m.state.Store(flagExclusive)
		return true
	})
	m.observeRelease(ModeUpgrade)
	m.observeAcquire(ModeExclusive, time.Since(start))
}

// exclusiveToUpgrade demotes the calling exclusive holder to upgrade. It
// is unconditional and never blocks.
func (m *Mutex) exclusiveToUpgrade() {
	m.state.Store(flagUpgrade)
	m.gate1.Broadcast()
	m.observeRelease(ModeExclusive)
	m.observeAcquire(ModeUpgrade, 0)
}

// exclusiveToShared demotes the calling exclusive holder to shared. It is
// unconditional and never blocks.
func (m *Mutex) exclusiveToShared() {
	m.state.Store(oneReader)
	m.gate1.Broadcast()
	m.observeRelease(ModeExclusive)
	m.observeAcquire(ModeShared, 0)
}

// StateSnapshot is a point-in-time view of a Mutex's internal state,
// exposed for diagnostics and tests. Because the state can change the
// instant after it is read, a StateSnapshot is inherently racy; treat it
// as advisory, not as a basis for further synchronization decisions.
type StateSnapshot struct {
	Exclusive        bool
	Upgrade          bool
	PromotionPending bool
	Readers          int
}

// Snapshot returns the current state of m.
func (m *Mutex) Snapshot() StateSnapshot {
	m.init()
	s := m.state.Load()
	return StateSnapshot{
		Exclusive:        s&flagExclusive != 0,
		Upgrade:          s&flagUpgrade != 0,
		PromotionPending: s&flagPending != 0,
		Readers:          int(s & readerMask),
	}
}
