package upgrademutex

// ScopedPromotion is a nested lifetime during which an UpgradeHandle
// temporarily operates as exclusive, reverting to upgrade when the
// promotion ends. Unlike PromoteToExclusive, it borrows the UpgradeHandle
// rather than consuming it: the referenced handle keeps reporting Owns()
// == true throughout and must not be moved, released, or unlocked while
// the ScopedPromotion is live.
//
// A ScopedPromotion must not be copied; always use the pointer returned
// by BeginScopedPromotion and call End exactly once, typically via defer.
type ScopedPromotion struct {
	u *UpgradeHandle
}

// BeginScopedPromotion drives the U→X transition on the mutex u owns and
// returns a ScopedPromotion representing the resulting exclusive access.
// u must currently own an upgrade lock.
func BeginScopedPromotion(u *UpgradeHandle) *ScopedPromotion {
	if u.mu == nil {
		panic("upgrademutex: BeginScopedPromotion: handle does not own an upgrade lock")
	}
	u.mu.upgradeToExclusive()
	return &ScopedPromotion{u: u}
}

// End drives the X→U transition back, returning the mutex to the upgrade
// mode owned by the referenced UpgradeHandle. End is idempotent: calling
// it again, or on a nil *ScopedPromotion, is a no-op.
func (p *ScopedPromotion) End() {
	if p == nil || p.u == nil {
		return
	}
	p.u.mu.exclusiveToUpgrade()
	p.u = nil
}
