package sched

import "math/bits"

// Mutex is a binary, non-reentrant lock for cooperative critical sections
// that span suspension points. Ownership is one bit per handle; at most one
// bit is set. No atomics are needed because tasks never preempt each other.
//
// The zero value is unlocked.
type Mutex struct {
	word uint32
}

// TryLock takes the lock for h if nobody holds it. A holder locking again
// fails like any other contender.
func (m *Mutex) TryLock(h Handle) bool {
	if m == nil || h > MaxCapacity || m.word != 0 {
		return false
	}
	m.word |= 1 << h
	return true
}

// Unlock clears h's ownership bit without checking that h held the lock.
func (m *Mutex) Unlock(h Handle) {
	if m == nil || h > MaxCapacity {
		return
	}
	m.word &^= 1 << h
}

// Locked reports whether any task holds the lock.
func (m *Mutex) Locked() bool {
	return m != nil && m.word != 0
}

// Owner returns the holder of the lock.
func (m *Mutex) Owner() (Handle, bool) {
	if m == nil || m.word == 0 {
		return 0, false
	}
	return Handle(bits.TrailingZeros32(m.word)), true //nolint:gosec // result < 32
}

// HeldBy reports whether h holds the lock.
func (m *Mutex) HeldBy(h Handle) bool {
	if m == nil || h > MaxCapacity {
		return false
	}
	return m.word&(1<<h) != 0
}
