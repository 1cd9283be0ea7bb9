package upgrademutex

// SharedHandle, UpgradeHandle and ExclusiveHandle are move-only handles
// that own the right to release a Mutex in one specific mode. Each either
// owns the mutex in its mode, or is empty (its zero value). Dropping a
// non-empty handle without calling Unlock or Release is a bug: nothing
// will release the mutex for you.
//
// Handles are ordinary structs, not pointers, so Go cannot stop a caller
// from copying one. Move transfers ownership explicitly and empties the
// source; callers that want move-only discipline should always reassign
// through Move rather than plain struct assignment.

// SharedHandle owns a Mutex's shared (read) lock.
type SharedHandle struct {
	mu *Mutex
}

// AcquireShared locks m for shared access and returns a handle owning it.
func AcquireShared(m *Mutex) SharedHandle {
	m.RLock()
	return SharedHandle{mu: m}
}

// Owns reports whether h currently owns a shared lock.
func (h *SharedHandle) Owns() bool { return h.mu != nil }

// Release empties h without unlocking the mutex it owned. Intended for
// callers that want to unlock manually later; it is a no-op on an empty
// handle.
func (h *SharedHandle) Release() {
	h.mu = nil
}

// Unlock releases the shared lock h owns. It is a no-op on an empty
// handle.
func (h *SharedHandle) Unlock() {
	if h.mu == nil {
		return
	}
	mu := h.mu
	h.mu = nil
	mu.RUnlock()
}

// Move transfers ownership of h's shared lock to the returned handle,
// leaving h empty.
func (h *SharedHandle) Move() SharedHandle {
	mu := h.mu
	h.mu = nil
	return SharedHandle{mu: mu}
}

// UpgradeHandle owns a Mutex's upgrade lock.
type UpgradeHandle struct {
	mu *Mutex
}

// AcquireUpgrade locks m for upgrade access and returns a handle owning
// it. There is no public constructor from a SharedHandle: guaranteeing
// that no other upgrade holder exists cannot be done from a shared lock
// without blocking, which is out of scope for a handle constructor.
func AcquireUpgrade(m *Mutex) UpgradeHandle {
	m.LockUpgrade()
	return UpgradeHandle{mu: m}
}

// Owns reports whether h currently owns an upgrade lock.
func (h *UpgradeHandle) Owns() bool { return h.mu != nil }

// Release empties h without unlocking the mutex it owned.
func (h *UpgradeHandle) Release() {
	h.mu = nil
}

// Unlock releases the upgrade lock h owns. It is a no-op on an empty
// handle.
func (h *UpgradeHandle) Unlock() {
	if h.mu == nil {
		return
	}
	mu := h.mu
	h.mu = nil
	mu.UnlockUpgrade()
}

// Move transfers ownership of h's upgrade lock to the returned handle,
// leaving h empty.
func (h *UpgradeHandle) Move() UpgradeHandle {
	mu := h.mu
	h.mu = nil
	return UpgradeHandle{mu: mu}
}

// ExclusiveHandle owns a Mutex's exclusive lock.
type ExclusiveHandle struct {
	mu *Mutex
}

// AcquireExclusive locks m for exclusive access and returns a handle
// owning it.
func AcquireExclusive(m *Mutex) ExclusiveHandle {
	m.Lock()
	return ExclusiveHandle{mu: m}
}

// Owns reports whether h currently owns an exclusive lock.
func (h *ExclusiveHandle) Owns() bool { return h.mu != nil }

// Release empties h without unlocking the mutex it owned.
func (h *ExclusiveHandle) Release() {
	h.mu = nil
}

// Unlock releases the exclusive lock h owns. It is a no-op on an empty
// handle.
func (h *ExclusiveHandle) Unlock() {
	if h.mu == nil {
		return
	}
	mu := h.mu
	h.mu = nil
	mu.Unlock()
}

// Move transfers ownership of h's exclusive lock to the returned handle,
// leaving h empty.
func (h *ExclusiveHandle) Move() ExclusiveHandle {
	mu := h.mu
	h.mu = nil
	return ExclusiveHandle{mu: mu}
}

// PromoteToExclusive consumes u (which must currently own an upgrade
// lock) and drives the atomic U→X transition, returning a handle that
// owns the resulting exclusive lock. u is left empty. No third party can
// observe the mutex as unlocked between the old and new modes.
func PromoteToExclusive(u *UpgradeHandle) ExclusiveHandle {
	if u.mu == nil {
		panic("upgrademutex: PromoteToExclusive: handle does not own an upgrade lock")
	}
	mu := u.mu
	u.mu = nil
	mu.upgradeToExclusive()
	return ExclusiveHandle{mu: mu}
}

// DemoteToUpgrade consumes x (which must currently own an exclusive lock)
// and drives the atomic X→U transition, returning a handle that owns the
// resulting upgrade lock. x is left empty.
func DemoteToUpgrade(x *ExclusiveHandle) UpgradeHandle {
	if x.mu == nil {
		panic("upgrademutex: DemoteToUpgrade: handle does not own an exclusive lock")
	}
	mu := x.mu
	x.mu = nil
	mu.exclusiveToUpgrade()
	return UpgradeHandle{mu: mu}
}

// DemoteToShared consumes x (which must currently own an exclusive lock)
// and drives the atomic X→S transition, returning a handle that owns the
// resulting shared lock. x is left empty.
func DemoteToShared(x *ExclusiveHandle) SharedHandle {
	if x.mu == nil {
		panic("upgrademutex: DemoteToShared: handle does not own an exclusive lock")
	}
	mu := x.mu
	x.mu = nil
	mu.exclusiveToShared()
	return SharedHandle{mu: mu}
}
