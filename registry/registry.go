// Package registry keeps a set of named upgrademutex.Mutex instances,
// created on first use and addressed by string key. It generalizes the
// idea behind a per-key lock table (lock rows of a table, lock accounts by
// ID, and so on) to the shared/upgrade/exclusive contract, and attaches a
// holder identity to each acquired handle for diagnostics: the core
// upgrademutex package stays identity-free, so anything that wants to
// answer "who is holding key X" has to track it at this layer instead.
package registry

import (
	"errors"
	"sync"

	"github.com/gofrs/uuid"
	"github.com/google/btree"
	"go.uber.org/zap"

	"github.com/slon/upgrademutex"
)

// ErrUnknownKey is returned by Evict when the key is not in the registry.
var ErrUnknownKey = errors.New("registry: unknown key")

// ErrClosed is returned by AcquireShared, AcquireUpgrade and
// AcquireExclusive once the Registry has been closed.
var ErrClosed = errors.New("registry: closed")

// HolderID identifies one acquired handle for the lifetime of that
// acquisition. It has no meaning across processes.
type HolderID uuid.UUID

func (id HolderID) String() string { return uuid.UUID(id).String() }

func newHolderID() HolderID {
	id, err := uuid.NewV4()
	if err != nil {
		// crypto/rand is exhausted or broken; nothing sane to do but
		// surface a zero ID rather than block startup on it.
		return HolderID{}
	}
	return HolderID(id)
}

type entry struct {
	key string
	mu  *upgrademutex.Mutex
}

func lessEntry(a, b entry) bool { return a.key < b.key }

// Registry maps string keys to independent upgrademutex.Mutex instances,
// creating a mutex the first time its key is seen.
type Registry struct {
	mu       sync.Mutex
	index    *btree.BTreeG[entry]
	closed   bool
	logger   *zap.Logger
	recorder upgrademutex.Recorder
}

// Option configures a Registry constructed with New.
type Option func(*Registry)

// WithLogger attaches a zap logger that records key creation and eviction.
// The default is a no-op logger.
func WithLogger(l *zap.Logger) Option {
	return func(r *Registry) { r.logger = l }
}

// WithRecorder attaches a upgrademutex.Recorder that every mutex the
// Registry creates reports acquire/release events to.
func WithRecorder(rec upgrademutex.Recorder) Option {
	return func(r *Registry) { r.recorder = rec }
}

// New returns an empty Registry.
func New(opts ...Option) *Registry {
	r := &Registry{
		index:  btree.NewG(32, lessEntry),
		logger: zap.NewNop(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

func (r *Registry) mutexFor(key string) (*upgrademutex.Mutex, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return nil, ErrClosed
	}
	if e, ok := r.index.Get(entry{key: key}); ok {
		return e.mu, nil
	}
	var opts []upgrademutex.Option
	if r.recorder != nil {
		opts = append(opts, upgrademutex.WithRecorder(r.recorder))
	}
	mu := upgrademutex.New(opts...)
	r.index.ReplaceOrInsert(entry{key: key, mu: mu})
	r.logger.Debug("registry: created mutex", zap.String("key", key))
	return mu, nil
}

// SharedHandle owns a shared lock on one Registry key.
type SharedHandle struct {
	key    string
	holder HolderID
	inner  upgrademutex.SharedHandle
}

// Key returns the registry key h was acquired against.
func (h *SharedHandle) Key() string { return h.key }

// HolderID returns the identity assigned to this acquisition.
func (h *SharedHandle) HolderID() HolderID { return h.holder }

// Unlock releases the shared lock. It is a no-op if h is already empty.
func (h *SharedHandle) Unlock() { h.inner.Unlock() }

// AcquireShared locks the mutex for key in shared mode, creating it if this
// is the first time key has been seen.
func (r *Registry) AcquireShared(key string) (SharedHandle, error) {
	mu, err := r.mutexFor(key)
	if err != nil {
		return SharedHandle{}, err
	}
	return SharedHandle{key: key, holder: newHolderID(), inner: upgrademutex.AcquireShared(mu)}, nil
}

// UpgradeHandle owns an upgrade lock on one Registry key.
type UpgradeHandle struct {
	key    string
	holder HolderID
	inner  upgrademutex.UpgradeHandle
}

// Key returns the registry key h was acquired against.
func (h *UpgradeHandle) Key() string { return h.key }

// HolderID returns the identity assigned to this acquisition.
func (h *UpgradeHandle) HolderID() HolderID { return h.holder }

// Unlock releases the upgrade lock. It is a no-op if h is already empty.
func (h *UpgradeHandle) Unlock() { h.inner.Unlock() }

// Promote drives an atomic upgrade-to-exclusive transition on h's mutex,
// consuming h and returning the resulting ExclusiveHandle with the same
// key and holder identity.
func (h *UpgradeHandle) Promote() ExclusiveHandle {
	key, holder := h.key, h.holder
	h.key = ""
	return ExclusiveHandle{key: key, holder: holder, inner: upgrademutex.PromoteToExclusive(&h.inner)}
}

// AcquireUpgrade locks the mutex for key in upgrade mode, creating it if
// this is the first time key has been seen.
func (r *Registry) AcquireUpgrade(key string) (UpgradeHandle, error) {
	mu, err := r.mutexFor(key)
	if err != nil {
		return UpgradeHandle{}, err
	}
	return UpgradeHandle{key: key, holder: newHolderID(), inner: upgrademutex.AcquireUpgrade(mu)}, nil
}

// ExclusiveHandle owns an exclusive lock on one Registry key.
type ExclusiveHandle struct {
	key    string
	holder HolderID
	inner  upgrademutex.ExclusiveHandle
}

// Key returns the registry key h was acquired against.
func (h *ExclusiveHandle) Key() string { return h.key }

// HolderID returns the identity assigned to this acquisition.
func (h *ExclusiveHandle) HolderID() HolderID { return h.holder }

// Unlock releases the exclusive lock. It is a no-op if h is already empty.
func (h *ExclusiveHandle) Unlock() { h.inner.Unlock() }

// Demote drives an atomic exclusive-to-upgrade transition on h's mutex,
// consuming h and returning the resulting UpgradeHandle with the same key
// and holder identity.
func (h *ExclusiveHandle) Demote() UpgradeHandle {
	key, holder := h.key, h.holder
	h.key = ""
	return UpgradeHandle{key: key, holder: holder, inner: upgrademutex.DemoteToUpgrade(&h.inner)}
}

// AcquireExclusive locks the mutex for key in exclusive mode, creating it
// if this is the first time key has been seen.
func (r *Registry) AcquireExclusive(key string) (ExclusiveHandle, error) {
	mu, err := r.mutexFor(key)
	if err != nil {
		return ExclusiveHandle{}, err
	}
	return ExclusiveHandle{key: key, holder: newHolderID(), inner: upgrademutex.AcquireExclusive(mu)}, nil
}

// Entry is a point-in-time view of one key's mutex state, as returned by
// Snapshot.
type Entry struct {
	Key   string
	State upgrademutex.StateSnapshot
}

// Snapshot returns every known key's current state, ordered by key. Like
// upgrademutex.Mutex.Snapshot, this is racy by construction and intended
// for diagnostics, not for synchronization decisions.
func (r *Registry) Snapshot() []Entry {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Entry, 0, r.index.Len())
	r.index.Ascend(func(e entry) bool {
		out = append(out, Entry{Key: e.key, State: e.mu.Snapshot()})
		return true
	})
	return out
}

// Evict removes key from the registry so a later Acquire* call against the
// same key starts a fresh mutex. It reports ErrUnknownKey if key is not in
// the registry. Callers must ensure no handle for key is outstanding:
// evicting a key that is still locked leaves the outstanding handle
// holding (and still able to unlock) the evicted mutex, while later
// acquisitions of the same key lock a fresh mutex that does not exclude it.
func (r *Registry) Evict(key string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.index.Delete(entry{key: key}); !ok {
		return ErrUnknownKey
	}
	r.logger.Debug("registry: evicted key", zap.String("key", key))
	return nil
}

// Close marks the Registry closed. Subsequent AcquireShared, AcquireUpgrade
// and AcquireExclusive calls return ErrClosed. Mutexes already created
// remain usable by handles acquired before Close.
func (r *Registry) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.closed = true
	return nil
}
