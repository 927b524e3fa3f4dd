// Package lock provides per-account locking for loyalty balance operations.
// Every multi-step flow (anti-fraud check, ledger append, reconcile) runs
// under the account's lock so that two near-simultaneous grants cannot both
// pass the anti-fraud check before either has appended its entry.
package lock

import (
	"context"
	"sync"
	"time"
)

// Locker serializes balance-mutating operations per account. The in-process
// AccountLock covers a single instance; RedisLock covers multi-instance
// deployments.
type Locker interface {
	WithLock(ctx context.Context, accountID int64, fn func() error) error
}

// accountMutex wraps a mutex with reference counting for cleanup.
type accountMutex struct {
	mu       sync.Mutex
	refCount int
}

// AccountLock provides per-account in-process locking.
type AccountLock struct {
	locks   sync.Map // map[int64]*accountMutex
	pool    sync.Pool
	timeout time.Duration
}

// NewAccountLock creates a new AccountLock instance. Timeout bounds how long
// WithLock waits for a contended lock; zero means wait forever.
func NewAccountLock(timeout time.Duration) *AccountLock {
	return &AccountLock{
		pool: sync.Pool{
			New: func() any {
				return &accountMutex{}
			},
		},
		timeout: timeout,
	}
}

// getLock retrieves or creates a mutex for the given account ID.
func (al *AccountLock) getLock(accountID int64) *accountMutex {
	if v, ok := al.locks.Load(accountID); ok {
		return v.(*accountMutex)
	}

	newLock := al.pool.Get().(*accountMutex)
	newLock.refCount = 0

	// Store or load existing (handles race condition)
	actual, loaded := al.locks.LoadOrStore(accountID, newLock)
	if loaded {
		// Another goroutine created the lock first, return ours to pool
		al.pool.Put(newLock)
	}
	return actual.(*accountMutex)
}

// Lock acquires the lock for an account.
func (al *AccountLock) Lock(accountID int64) {
	lock := al.getLock(accountID)
	lock.mu.Lock()
	lock.refCount++
}

// Unlock releases the lock for an account.
func (al *AccountLock) Unlock(accountID int64) {
	if v, ok := al.locks.Load(accountID); ok {
		lock := v.(*accountMutex)
		lock.refCount--
		lock.mu.Unlock()
	}
}

// TryLock attempts to acquire the lock without blocking.
func (al *AccountLock) TryLock(accountID int64) bool {
	lock := al.getLock(accountID)
	if lock.mu.TryLock() {
		lock.refCount++
		return true
	}
	return false
}

// lockWithTimeout attempts to acquire the lock within the timeout.
func (al *AccountLock) lockWithTimeout(ctx context.Context, accountID int64, timeout time.Duration) bool {
	lock := al.getLock(accountID)

	done := make(chan struct{})
	go func() {
		lock.mu.Lock()
		close(done)
	}()

	timeoutCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	select {
	case <-done:
		lock.refCount++
		return true
	case <-timeoutCtx.Done():
		// The waiting goroutine will eventually acquire the mutex;
		// release it again so the lock is not leaked.
		go func() {
			<-done
			lock.mu.Unlock()
		}()
		return false
	}
}

// WithLock executes fn while holding the account's lock.
func (al *AccountLock) WithLock(ctx context.Context, accountID int64, fn func() error) error {
	if al.timeout > 0 {
		if !al.lockWithTimeout(ctx, accountID, al.timeout) {
			return ErrLockTimeout
		}
	} else {
		al.Lock(accountID)
	}
	defer al.Unlock(accountID)

	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
		return fn()
	}
}
