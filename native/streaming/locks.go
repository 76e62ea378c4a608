package streaming

import (
	"bytes"
	"sync"
)

// addressLocks hands out one mutex per address so settlements touching
// disjoint accounts never contend. Locks are created lazily and retained for
// the life of the process; ledger records are never deleted.
type addressLocks struct {
	mu    sync.Mutex
	locks map[[20]byte]*sync.Mutex
}

func newAddressLocks() *addressLocks {
	return &addressLocks{locks: make(map[[20]byte]*sync.Mutex)}
}

func (l *addressLocks) get(addr [20]byte) *sync.Mutex {
	l.mu.Lock()
	defer l.mu.Unlock()
	lock, ok := l.locks[addr]
	if !ok {
		lock = &sync.Mutex{}
		l.locks[addr] = lock
	}
	return lock
}

// lock acquires the mutex for a single address and returns its release.
func (l *addressLocks) lock(addr [20]byte) func() {
	lock := l.get(addr)
	lock.Lock()
	return lock.Unlock
}

// lockPair acquires both address mutexes in fixed byte order so concurrent
// settlements over the same pair cannot deadlock. Equal addresses take a
// single lock.
func (l *addressLocks) lockPair(a, b [20]byte) func() {
	if a == b {
		return l.lock(a)
	}
	first, second := a, b
	if bytes.Compare(first[:], second[:]) > 0 {
		first, second = second, first
	}
	firstLock := l.get(first)
	secondLock := l.get(second)
	firstLock.Lock()
	secondLock.Lock()
	return func() {
		secondLock.Unlock()
		firstLock.Unlock()
	}
}
